package domain

import (
	"encoding/json"
	"time"
)

// Result status tags. Callers distinguish failure purely by inspecting
// the Status field; public operations never surface raw errors.
const (
	StatusAcknowledged      = "acknowledged"
	StatusNotImplemented    = "not_implemented"
	StatusReceived          = "received"
	StatusError             = "error"
	StatusCompleted         = "completed"
	StatusInProgress        = "in_progress"
	StatusSubtasksCreated   = "subtasks_created"
	StatusAssigned          = "assigned"
	StatusResultsCollected  = "results_collected"
	StatusNoResults         = "no_results"
	StatusResultRecorded    = "result_recorded"
	StatusUpdateAcked       = "update_acknowledged"
	StatusErrorHandled      = "error_handled"
)

// Assignment status values. Within a task's lifetime a status only moves
// forward: assigned -> completed or error, never backward.
const (
	AssignmentAssigned  = "assigned"
	AssignmentCompleted = "completed"
	AssignmentError     = "error"
)

// TaskRequest is one unit of work handed to an agent's ProcessTask.
type TaskRequest struct {
	TaskID    string         `json:"task_id,omitempty"`
	Type      string         `json:"type"`
	Content   any            `json:"content,omitempty"`
	SubtaskID string         `json:"subtask_id,omitempty"`
	AgentID   string         `json:"agent_id,omitempty"`
	Timestamp time.Time      `json:"timestamp,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// TaskResult is the tagged outcome of processing a task or message.
type TaskResult struct {
	Status          string         `json:"status"`
	Message         string         `json:"message,omitempty"`
	TaskID          string         `json:"task_id,omitempty"`
	SubtaskID       string         `json:"subtask_id,omitempty"`
	AgentID         string         `json:"agent_id,omitempty"`
	Subtasks        []Subtask      `json:"subtasks,omitempty"`
	Results         map[string]any `json:"results,omitempty"`
	FallbackMessage string         `json:"fallback_message,omitempty"`
	OriginalRequest string         `json:"original_request,omitempty"`

	// ErrorInfo and Result carry the structured error envelope produced
	// when a failure is converted at an agent boundary. Result doubles as
	// the free-form output map for capability agents.
	ErrorInfo map[string]any `json:"error_info,omitempty"`
	Result    map[string]any `json:"result,omitempty"`
}

// Wire renders the result as a plain map, the shape used when a result
// travels inside a message content payload.
func (r TaskResult) Wire() map[string]any {
	b, err := json.Marshal(r)
	if err != nil {
		return map[string]any{"status": r.Status}
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return map[string]any{"status": r.Status}
	}
	return out
}

// Subtask is one typed unit of decomposed work. Subtasks are immutable
// template output; assignment and result tracking live in coordinator
// maps, not on the subtask itself.
type Subtask struct {
	SubtaskID   string   `json:"subtask_id"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Content     string   `json:"content"`
	Priority    string   `json:"priority"`
	// DependsOn records sibling subtask ids this one depends on. It is
	// bookkeeping metadata only; nothing in the coordinator enforces it.
	DependsOn []string `json:"depends_on,omitempty"`

	PersonaName  string   `json:"persona_name,omitempty"`
	Persona      *Persona `json:"persona,omitempty"`
	PersonaScore float64  `json:"persona_score,omitempty"`
}

// Assignment tracks which agent holds a subtask and how far it got.
type Assignment struct {
	AgentID    string    `json:"agent_id"`
	Status     string    `json:"status"`
	AssignedAt time.Time `json:"assigned_at"`
	Error      string    `json:"error,omitempty"`
}

// TaskStatus is the recomputed view of one task's progress.
type TaskStatus struct {
	TaskID          string                `json:"task_id"`
	OriginalRequest string                `json:"original_request"`
	Subtasks        []Subtask             `json:"subtasks"`
	Assignments     map[string]Assignment `json:"assignments"`
	Results         map[string]any        `json:"results"`
	AllCompleted    bool                  `json:"all_completed"`
	Status          string                `json:"status"`
}

// Workflow is a named grouping of agents collaborating on one session.
type Workflow struct {
	ID        string           `json:"id"`
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	Agents    []WorkflowMember `json:"agents"`
	Tasks     []string         `json:"tasks"`
	Results   map[string]any   `json:"results"`
}

// WorkflowMember records one agent's participation in a workflow.
type WorkflowMember struct {
	AgentID string    `json:"agent_id"`
	Role    string    `json:"role"`
	AddedAt time.Time `json:"added_at"`
}

// EmailWorkflowRequest triggers the coordinator's email fan-out path
// instead of generic decomposition.
type EmailWorkflowRequest struct {
	EmailBody   string   `json:"email_body"`
	Attachments []string `json:"attachments,omitempty"`
	History     []string `json:"history,omitempty"`
}
