package manager

import (
	"time"

	"conductor-ai/internal/domain"
)

// CreateWorkflow registers a workflow id. Re-creating an existing one
// warns and returns the existing id unchanged.
func (m *AgentManager) CreateWorkflow(workflowID string) string {
	if workflowID == "" {
		workflowID = domain.NewShortID("workflow")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workflows[workflowID]; ok {
		m.logger.Warn("workflow already exists", "workflow_id", workflowID)
		return workflowID
	}
	m.workflows[workflowID] = &domain.Workflow{
		ID:        workflowID,
		Status:    "created",
		CreatedAt: time.Now(),
		Results:   make(map[string]any),
	}
	m.logger.Info("workflow created", "workflow_id", workflowID)
	return workflowID
}

// AddAgentToWorkflow enrolls a live agent in a workflow. Unknown
// workflow or agent ids report false. Re-adding an enrolled agent is
// idempotent and reports true.
func (m *AgentManager) AddAgentToWorkflow(workflowID, agentID, role string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	wf, ok := m.workflows[workflowID]
	if !ok {
		m.logger.Warn("unknown workflow", "workflow_id", workflowID)
		return false
	}
	if _, ok := m.agents[agentID]; !ok {
		m.logger.Warn("unknown agent for workflow", "workflow_id", workflowID, "agent_id", agentID)
		return false
	}
	for _, member := range wf.Agents {
		if member.AgentID == agentID {
			return true
		}
	}
	wf.Agents = append(wf.Agents, domain.WorkflowMember{
		AgentID: agentID,
		Role:    role,
		AddedAt: time.Now(),
	})
	return true
}

// Workflow returns a snapshot copy of a workflow.
func (m *AgentManager) Workflow(workflowID string) (domain.Workflow, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wf, ok := m.workflows[workflowID]
	if !ok {
		return domain.Workflow{}, false
	}
	out := *wf
	out.Agents = append([]domain.WorkflowMember(nil), wf.Agents...)
	out.Tasks = append([]string(nil), wf.Tasks...)
	out.Results = make(map[string]any, len(wf.Results))
	for k, v := range wf.Results {
		out.Results[k] = v
	}
	return out, true
}

// RecordWorkflowTask appends a task id to a workflow's task list.
func (m *AgentManager) RecordWorkflowTask(workflowID, taskID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	wf, ok := m.workflows[workflowID]
	if !ok {
		return false
	}
	wf.Tasks = append(wf.Tasks, taskID)
	return true
}
