package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"conductor-ai/internal/domain"
	"conductor-ai/internal/infra/tracer"
	"conductor-ai/internal/usecase"
)

// Completer generates text from a prompt pair. The LLM adapter
// satisfies it; tests substitute stubs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Selector picks a persona for task metadata, or nil when none fits.
type Selector interface {
	Select(meta domain.TaskMeta) *domain.Selection
}

// Options wires the coordinator's optional collaborators. Any field
// may be nil; the coordinator degrades rather than fails.
type Options struct {
	Templates TemplateSource
	Selector  Selector
	Completer Completer
	Email     EmailTeam
	Logger    *slog.Logger
}

type taskRecord struct {
	originalRequest string
	status          string
	subtasks        []domain.Subtask
	assignments     map[string]domain.Assignment
	results         map[string]any
}

// Coordinator decomposes user requests into subtasks, tracks their
// assignment and results, and synthesizes the final response.
type Coordinator struct {
	*usecase.BaseAgent

	templates TemplateSource
	selector  Selector
	completer Completer
	email     EmailTeam

	mu    sync.Mutex
	tasks map[string]*taskRecord
}

// New builds a coordinator and registers its message handlers.
func New(agentID, name string, opts Options) *Coordinator {
	c := &Coordinator{
		BaseAgent: usecase.NewBaseAgent(agentID, name, "task coordination", opts.Logger),
		templates: opts.Templates,
		selector:  opts.Selector,
		completer: opts.Completer,
		email:     opts.Email,
		tasks:     make(map[string]*taskRecord),
	}
	c.RegisterHandler(domain.TypeTaskResponse, c.handleTaskResponse)
	c.RegisterHandler(domain.TypeStatusUpdate, c.handleStatusUpdate)
	c.RegisterHandler(domain.TypeError, c.handleError)
	return c
}

// ProcessTask dispatches on the task type. Unknown types are
// acknowledged, never rejected.
func (c *Coordinator) ProcessTask(ctx context.Context, task domain.TaskRequest) domain.TaskResult {
	ctx, span := tracer.StartSpan(ctx, "coordinator.process_task",
		trace.WithAttributes(
			tracer.StringAttr("task.id", task.TaskID),
			tracer.StringAttr("task.type", task.Type),
		))
	defer span.End()

	if task.TaskID == "" {
		task.TaskID = domain.NewShortID("task")
	}

	switch task.Type {
	case "user_request":
		return c.processUserRequest(ctx, task)
	case "subtask_assignment":
		return c.processAssignment(task)
	case "result_collection":
		return c.collectResults(ctx, task.TaskID)
	default:
		c.Logger().Info("unrecognized task type acknowledged", "task_id", task.TaskID, "task_type", task.Type)
		return domain.TaskResult{
			Status:  domain.StatusAcknowledged,
			Message: "unrecognized task type " + task.Type,
			TaskID:  task.TaskID,
			AgentID: c.ID(),
		}
	}
}

func (c *Coordinator) processUserRequest(ctx context.Context, task domain.TaskRequest) domain.TaskResult {
	if req, ok := emailRequest(task.Content); ok {
		return c.runEmailWorkflow(ctx, task.TaskID, req)
	}

	text := requestText(task.Content)
	subtasks := c.decompose(task.TaskID, text)
	c.annotatePersonas(subtasks, text)
	trace.SpanFromContext(ctx).SetAttributes(tracer.IntAttr("task.subtasks", len(subtasks)))

	c.mu.Lock()
	c.tasks[task.TaskID] = &taskRecord{
		originalRequest: text,
		status:          domain.StatusSubtasksCreated,
		subtasks:        subtasks,
		assignments:     make(map[string]domain.Assignment),
		results:         make(map[string]any),
	}
	c.mu.Unlock()

	c.UpdateMemory("subtasks_"+task.TaskID, subtasks)
	c.UpdateMemory("original_request_"+task.TaskID, text)

	c.Logger().Info("request decomposed", "task_id", task.TaskID, "subtask_count", len(subtasks))
	return domain.TaskResult{
		Status:          domain.StatusSubtasksCreated,
		TaskID:          task.TaskID,
		Subtasks:        subtasks,
		OriginalRequest: text,
		AgentID:         c.ID(),
	}
}

// decompose walks the template chain: the primary template, then the
// fallback template, then the hardcoded default. A template that loads
// but fails validation falls through the same way.
func (c *Coordinator) decompose(taskID, text string) []domain.Subtask {
	for _, name := range []string{"subtasks", "subtasks_fallback"} {
		if c.templates == nil {
			break
		}
		t, err := c.templates.Load(name)
		if err != nil {
			if !errors.Is(err, ErrTemplateNotFound) {
				c.Logger().Warn("template load failed", "template", name, "error", err)
			}
			continue
		}
		if err := t.Validate(); err != nil {
			c.Logger().Warn("template invalid", "template", name, "error", err)
			continue
		}
		return t.Instantiate(taskID, text)
	}
	c.Logger().Info("using default decomposition", "task_id", taskID)
	return DefaultTemplate().Instantiate(taskID, text)
}

// annotatePersonas asks the selector for a persona per subtask. A nil
// selector or a nil selection leaves the subtask unannotated.
func (c *Coordinator) annotatePersonas(subtasks []domain.Subtask, originalRequest string) {
	if c.selector == nil {
		return
	}
	for i := range subtasks {
		sel := c.selector.Select(domain.TaskMeta{
			Category:        subtasks[i].Type,
			Description:     subtasks[i].Description,
			OriginalRequest: originalRequest,
		})
		if sel == nil {
			continue
		}
		persona := sel.Persona
		subtasks[i].PersonaName = sel.Name
		subtasks[i].Persona = &persona
		subtasks[i].PersonaScore = sel.Score
	}
}

func (c *Coordinator) processAssignment(task domain.TaskRequest) domain.TaskResult {
	subtaskID := task.SubtaskID
	agentID := task.AgentID
	if m, ok := task.Content.(map[string]any); ok {
		if subtaskID == "" {
			subtaskID, _ = m["subtask_id"].(string)
		}
		if agentID == "" {
			agentID, _ = m["agent_id"].(string)
		}
	}
	if subtaskID == "" || agentID == "" {
		return domain.TaskResult{
			Status:  domain.StatusError,
			Message: "subtask_assignment requires subtask_id and agent_id",
			TaskID:  task.TaskID,
			AgentID: c.ID(),
		}
	}

	c.mu.Lock()
	rec := c.tasks[task.TaskID]
	if rec == nil {
		rec = &taskRecord{
			status:      domain.StatusSubtasksCreated,
			assignments: make(map[string]domain.Assignment),
			results:     make(map[string]any),
		}
		c.tasks[task.TaskID] = rec
	}
	rec.assignments[subtaskID] = domain.Assignment{
		AgentID:    agentID,
		Status:     domain.AssignmentAssigned,
		AssignedAt: time.Now(),
	}
	c.mu.Unlock()

	c.Logger().Info("subtask assigned", "task_id", task.TaskID, "subtask_id", subtaskID, "assignee", agentID)
	return domain.TaskResult{
		Status:    domain.StatusAssigned,
		TaskID:    task.TaskID,
		SubtaskID: subtaskID,
		AgentID:   agentID,
	}
}

// collectResults gathers everything recorded for a task. When nothing
// useful came back, or any subtask reported an error, the result also
// carries a fallback message synthesized from the original request.
func (c *Coordinator) collectResults(ctx context.Context, taskID string) domain.TaskResult {
	ctx, span := tracer.StartSpan(ctx, "coordinator.collect_results",
		trace.WithAttributes(tracer.StringAttr("task.id", taskID)))
	defer span.End()

	c.mu.Lock()
	rec := c.tasks[taskID]
	var original string
	results := make(map[string]any)
	if rec != nil {
		original = rec.originalRequest
		for k, v := range rec.results {
			results[k] = v
		}
	}
	c.mu.Unlock()

	if len(results) == 0 {
		c.Logger().Warn("no results collected", "task_id", taskID)
		return domain.TaskResult{
			Status:          domain.StatusNoResults,
			TaskID:          taskID,
			Results:         results,
			FallbackMessage: c.generateFallback(ctx, original),
			OriginalRequest: original,
			AgentID:         c.ID(),
		}
	}

	errorsFound := false
	for _, v := range results {
		if m, ok := v.(map[string]any); ok {
			if _, bad := m["error"]; bad {
				errorsFound = true
				break
			}
		}
	}

	out := domain.TaskResult{
		Status:          domain.StatusResultsCollected,
		TaskID:          taskID,
		Results:         results,
		OriginalRequest: original,
		AgentID:         c.ID(),
	}
	if errorsFound {
		c.Logger().Warn("collected results contain errors", "task_id", taskID)
		out.FallbackMessage = c.generateFallback(ctx, original)
		return out
	}
	tracer.SetOK(span)
	return out
}

// GetTaskStatus recomputes a read-only view of one task. A task is
// all-completed only when it has subtasks, every subtask has an
// assignment, and every assignment reports completed.
func (c *Coordinator) GetTaskStatus(taskID string) (domain.TaskStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.tasks[taskID]
	if rec == nil {
		return domain.TaskStatus{}, false
	}

	st := domain.TaskStatus{
		TaskID:          taskID,
		OriginalRequest: rec.originalRequest,
		Subtasks:        append([]domain.Subtask(nil), rec.subtasks...),
		Assignments:     make(map[string]domain.Assignment, len(rec.assignments)),
		Results:         make(map[string]any, len(rec.results)),
		Status:          rec.status,
	}
	for k, v := range rec.assignments {
		st.Assignments[k] = v
	}
	for k, v := range rec.results {
		st.Results[k] = v
	}

	st.AllCompleted = len(rec.subtasks) > 0 && len(rec.assignments) > 0
	for _, sub := range rec.subtasks {
		a, ok := rec.assignments[sub.SubtaskID]
		if !ok || a.Status != domain.AssignmentCompleted {
			st.AllCompleted = false
			break
		}
	}

	// Derived view: a failed task stays in error, otherwise progress
	// follows the assignments.
	switch {
	case rec.status == domain.StatusError:
	case st.AllCompleted:
		st.Status = domain.StatusCompleted
	case len(rec.assignments) > 0:
		st.Status = domain.StatusInProgress
	}
	return st, true
}

// Tasks lists known task ids in sorted order.
func (c *Coordinator) Tasks() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.tasks))
	for id := range c.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Coordinator) handleTaskResponse(msg *domain.Message) domain.TaskResult {
	content, _ := msg.Content.(map[string]any)
	taskID, _ := content["task_id"].(string)
	subtaskID, _ := content["subtask_id"].(string)
	if taskID == "" || subtaskID == "" {
		return domain.TaskResult{Status: domain.StatusError, Message: "task_response missing task_id or subtask_id", AgentID: c.ID()}
	}

	c.mu.Lock()
	rec := c.tasks[taskID]
	if rec != nil {
		rec.results[subtaskID] = content["result"]
		a := rec.assignments[subtaskID]
		a.Status = domain.AssignmentCompleted
		if a.AgentID == "" {
			a.AgentID = msg.SenderID
		}
		rec.assignments[subtaskID] = a
	}
	c.mu.Unlock()

	if rec == nil {
		c.Logger().Warn("task_response for unknown task", "task_id", taskID, "subtask_id", subtaskID)
		return domain.TaskResult{Status: domain.StatusError, Message: "unknown task " + taskID, AgentID: c.ID()}
	}
	c.Logger().Info("subtask result recorded", "task_id", taskID, "subtask_id", subtaskID, "from", msg.SenderID)
	return domain.TaskResult{Status: domain.StatusResultRecorded, TaskID: taskID, SubtaskID: subtaskID, AgentID: c.ID()}
}

// handleStatusUpdate records the reported status verbatim, without
// validating it against the assignment lifecycle.
func (c *Coordinator) handleStatusUpdate(msg *domain.Message) domain.TaskResult {
	content, _ := msg.Content.(map[string]any)
	taskID, _ := content["task_id"].(string)
	subtaskID, _ := content["subtask_id"].(string)
	status, _ := content["status"].(string)

	c.mu.Lock()
	if rec := c.tasks[taskID]; rec != nil && subtaskID != "" && status != "" {
		a := rec.assignments[subtaskID]
		a.Status = status
		if a.AgentID == "" {
			a.AgentID = msg.SenderID
		}
		rec.assignments[subtaskID] = a
	}
	c.mu.Unlock()

	c.Logger().Info("status update", "task_id", taskID, "subtask_id", subtaskID, "reported", status, "from", msg.SenderID)
	return domain.TaskResult{Status: domain.StatusUpdateAcked, TaskID: taskID, SubtaskID: subtaskID, AgentID: c.ID()}
}

func (c *Coordinator) handleError(msg *domain.Message) domain.TaskResult {
	content, _ := msg.Content.(map[string]any)
	taskID, _ := content["task_id"].(string)
	subtaskID, _ := content["subtask_id"].(string)
	errText := fmt.Sprint(content["error"])
	if content["error"] == nil {
		errText = "unspecified error"
	}

	c.mu.Lock()
	if rec := c.tasks[taskID]; rec != nil {
		rec.status = domain.StatusError
		if subtaskID != "" {
			a := rec.assignments[subtaskID]
			a.Status = domain.AssignmentError
			a.Error = errText
			if a.AgentID == "" {
				a.AgentID = msg.SenderID
			}
			rec.assignments[subtaskID] = a
			rec.results[subtaskID] = map[string]any{"status": "error", "error": errText}
		}
	}
	c.mu.Unlock()

	c.Logger().Error("subtask failed", "task_id", taskID, "subtask_id", subtaskID, "from", msg.SenderID, "error", errText)
	return domain.TaskResult{Status: domain.StatusErrorHandled, TaskID: taskID, SubtaskID: subtaskID, AgentID: c.ID()}
}

func requestText(content any) string {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		if s, ok := v["text"].(string); ok {
			return s
		}
		if s, ok := v["request"].(string); ok {
			return s
		}
	}
	return fmt.Sprint(content)
}
