package coordinator

import (
	"context"
	"testing"

	"conductor-ai/internal/domain"
	"conductor-ai/internal/usecase"
)

type spyLog struct {
	steps []string
}

func spyAgent(id string, log *spyLog, result map[string]any) domain.Agent {
	base := usecase.NewBaseAgent(id, id, "email", nil)
	return usecase.NewFuncAgent(base, func(_ context.Context, task domain.TaskRequest) domain.TaskResult {
		log.steps = append(log.steps, task.Type)
		return domain.TaskResult{
			Status: domain.StatusCompleted, TaskID: task.TaskID,
			SubtaskID: task.SubtaskID, AgentID: id, Result: result,
		}
	})
}

func emailTask(c *Coordinator, req domain.EmailWorkflowRequest) domain.TaskResult {
	return c.ProcessTask(context.Background(), domain.TaskRequest{
		TaskID: "t1", Type: "user_request", Content: req,
	})
}

func fullTeam(log *spyLog) EmailTeam {
	return EmailTeam{
		Summary:    spyAgent("sum", log, map[string]any{"summary": "short"}),
		Analysis:   spyAgent("ana", log, map[string]any{"intent": "question"}),
		Attachment: spyAgent("att", log, map[string]any{"files": 1}),
		Context:    spyAgent("ctx", log, map[string]any{"context": "prior thread"}),
		Reply:      spyAgent("rep", log, map[string]any{"reply": "draft"}),
	}
}

func TestEmailWorkflow_FullFanOutOrder(t *testing.T) {
	log := &spyLog{}
	c := newTestCoordinator(Options{Email: fullTeam(log)})

	res := emailTask(c, domain.EmailWorkflowRequest{
		EmailBody:   "Can you send the invoice?",
		Attachments: []string{"invoice.pdf"},
		History:     []string{"earlier message"},
	})

	if res.Status != domain.StatusCompleted {
		t.Fatalf("Status = %q", res.Status)
	}
	want := []string{"email_summary", "email_analysis", "attachment_processing", "context_retrieval", "reply_generation"}
	if len(log.steps) != len(want) {
		t.Fatalf("steps = %v", log.steps)
	}
	for i := range want {
		if log.steps[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, log.steps[i], want[i])
		}
	}
	for _, step := range want {
		if _, ok := res.Results[step]; !ok {
			t.Errorf("results missing %q", step)
		}
	}
}

func TestEmailWorkflow_ConditionalSteps(t *testing.T) {
	log := &spyLog{}
	c := newTestCoordinator(Options{Email: fullTeam(log)})

	emailTask(c, domain.EmailWorkflowRequest{EmailBody: "ping"})

	want := []string{"email_summary", "email_analysis", "reply_generation"}
	if len(log.steps) != len(want) {
		t.Fatalf("steps = %v", log.steps)
	}
	for i := range want {
		if log.steps[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, log.steps[i], want[i])
		}
	}
}

func TestEmailWorkflow_ContextFeedsReply(t *testing.T) {
	var replyContent map[string]any
	base := usecase.NewBaseAgent("rep", "rep", "email", nil)
	reply := usecase.NewFuncAgent(base, func(_ context.Context, task domain.TaskRequest) domain.TaskResult {
		replyContent, _ = task.Content.(map[string]any)
		return domain.TaskResult{Status: domain.StatusCompleted}
	})
	log := &spyLog{}
	team := fullTeam(log)
	team.Reply = reply

	c := newTestCoordinator(Options{Email: team})
	emailTask(c, domain.EmailWorkflowRequest{
		EmailBody: "see thread",
		History:   []string{"msg1", "msg2"},
	})

	if replyContent["context"] != "prior thread" {
		t.Errorf("reply content = %#v", replyContent)
	}
}

func TestEmailWorkflow_NilAgentsSkipped(t *testing.T) {
	log := &spyLog{}
	c := newTestCoordinator(Options{Email: EmailTeam{
		Reply: spyAgent("rep", log, map[string]any{"reply": "draft"}),
	}})

	res := emailTask(c, domain.EmailWorkflowRequest{
		EmailBody:   "hello",
		Attachments: []string{"a.txt"},
		History:     []string{"h"},
	})

	if res.Status != domain.StatusCompleted {
		t.Fatalf("Status = %q", res.Status)
	}
	if len(log.steps) != 1 || log.steps[0] != "reply_generation" {
		t.Errorf("steps = %v", log.steps)
	}
	if len(res.Results) != 1 {
		t.Errorf("results = %v", res.Results)
	}
}

func TestEmailWorkflow_WireMapPayload(t *testing.T) {
	log := &spyLog{}
	c := newTestCoordinator(Options{Email: fullTeam(log)})

	res := c.ProcessTask(context.Background(), domain.TaskRequest{
		TaskID: "t1", Type: "user_request",
		Content: map[string]any{
			"type":        "email_workflow",
			"email_body":  "from the wire",
			"attachments": []any{"a.pdf"},
		},
	})
	if res.Status != domain.StatusCompleted {
		t.Fatalf("Status = %q", res.Status)
	}
	found := false
	for _, s := range log.steps {
		if s == "attachment_processing" {
			found = true
		}
	}
	if !found {
		t.Errorf("attachments from wire map not processed: %v", log.steps)
	}
}

func TestEmailWorkflow_RequiresTypeTag(t *testing.T) {
	log := &spyLog{}
	c := newTestCoordinator(Options{Email: fullTeam(log)})

	// An ordinary request that happens to mention an email body goes
	// through normal decomposition, not the email fan-out.
	res := c.ProcessTask(context.Background(), domain.TaskRequest{
		TaskID: "t1", Type: "user_request",
		Content: map[string]any{
			"email_body": "quoted in a question",
			"text":       "what does this email mean?",
		},
	})
	if res.Status != domain.StatusSubtasksCreated {
		t.Fatalf("Status = %q, want %q", res.Status, domain.StatusSubtasksCreated)
	}
	if len(log.steps) != 0 {
		t.Errorf("email steps ran: %v", log.steps)
	}
}
