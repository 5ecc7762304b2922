package coordinator

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"conductor-ai/internal/domain"
	"conductor-ai/internal/infra/tracer"
)

// EmailTeam names the specialist agents the email workflow fans out
// to. Any member may be nil; its step is skipped.
type EmailTeam struct {
	Summary    domain.Agent
	Analysis   domain.Agent
	Attachment domain.Agent
	Context    domain.Agent
	Reply      domain.Agent
}

// emailRequest recognizes an email workflow payload, accepting either
// the typed struct or its wire-map shape. A map must carry the
// explicit "email_workflow" type tag; an ordinary request that merely
// mentions an email body is not hijacked into the fan-out path.
func emailRequest(content any) (domain.EmailWorkflowRequest, bool) {
	switch v := content.(type) {
	case domain.EmailWorkflowRequest:
		return v, true
	case *domain.EmailWorkflowRequest:
		if v != nil {
			return *v, true
		}
	case map[string]any:
		if tag, _ := v["type"].(string); tag != "email_workflow" {
			return domain.EmailWorkflowRequest{}, false
		}
		body, _ := v["email_body"].(string)
		req := domain.EmailWorkflowRequest{EmailBody: body}
		req.Attachments = stringSlice(v["attachments"])
		req.History = stringSlice(v["history"])
		return req, true
	}
	return domain.EmailWorkflowRequest{}, false
}

// runEmailWorkflow fans an email out to the specialist team in a fixed
// order: summary, analysis, attachments when present, context when
// there is history, then the reply. The context step's output feeds
// the reply task so the reply can honor the thread.
func (c *Coordinator) runEmailWorkflow(ctx context.Context, taskID string, req domain.EmailWorkflowRequest) domain.TaskResult {
	ctx, span := tracer.StartSpan(ctx, "coordinator.email_workflow",
		trace.WithAttributes(tracer.StringAttr("task.id", taskID)))
	defer span.End()

	results := make(map[string]any)

	run := func(step string, agent domain.Agent, content any) domain.TaskResult {
		if agent == nil {
			c.Logger().Debug("email step skipped, no agent", "task_id", taskID, "step", step)
			return domain.TaskResult{}
		}
		res := agent.ProcessTask(ctx, domain.TaskRequest{
			TaskID:    taskID,
			SubtaskID: taskID + "_" + step,
			Type:      step,
			Content:   content,
		})
		results[step] = res.Wire()
		return res
	}

	run("email_summary", c.email.Summary, map[string]any{"email_body": req.EmailBody})
	run("email_analysis", c.email.Analysis, map[string]any{"email_body": req.EmailBody})

	if len(req.Attachments) > 0 {
		run("attachment_processing", c.email.Attachment, map[string]any{"attachments": req.Attachments})
	}

	var threadContext string
	if len(req.History) > 0 {
		res := run("context_retrieval", c.email.Context, map[string]any{"history": req.History})
		if s, ok := res.Result["context"].(string); ok {
			threadContext = s
		}
	}

	replyContent := map[string]any{"email_body": req.EmailBody}
	if strings.TrimSpace(threadContext) != "" {
		replyContent["context"] = threadContext
	}
	run("reply_generation", c.email.Reply, replyContent)

	c.mu.Lock()
	c.tasks[taskID] = &taskRecord{
		originalRequest: req.EmailBody,
		status:          domain.StatusCompleted,
		assignments:     make(map[string]domain.Assignment),
		results:         results,
	}
	c.mu.Unlock()

	c.Logger().Info("email workflow finished", "task_id", taskID, "steps", len(results))
	return domain.TaskResult{
		Status:  domain.StatusCompleted,
		TaskID:  taskID,
		Results: results,
		AgentID: c.ID(),
	}
}

func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
