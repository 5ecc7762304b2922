package usecase

import (
	"context"
	"testing"

	"conductor-ai/internal/domain"
)

func TestBaseAgent_ReceiveMessageDispatch(t *testing.T) {
	a := NewBaseAgent("agent_1", "Test", "testing", nil)
	var handled *domain.Message
	a.RegisterHandler(domain.TypeQuery, func(m *domain.Message) domain.TaskResult {
		handled = m
		return domain.TaskResult{Status: domain.StatusCompleted}
	})

	m := domain.NewMessage(domain.Fields{SenderID: "x", ReceiverID: "agent_1", Type: domain.TypeQuery})
	res := a.ReceiveMessage(m)

	if res.Status != domain.StatusCompleted {
		t.Errorf("Status = %q", res.Status)
	}
	if handled == nil || handled.MessageID != m.MessageID {
		t.Error("handler did not receive the message")
	}
	if len(a.History()) != 1 {
		t.Errorf("history len = %d", len(a.History()))
	}
}

func TestBaseAgent_UnhandledTypeAcknowledged(t *testing.T) {
	a := NewBaseAgent("agent_1", "Test", "testing", nil)
	m := domain.NewMessage(domain.Fields{SenderID: "x", ReceiverID: "agent_1", Type: domain.TypeSystem})

	res := a.ReceiveMessage(m)
	if res.Status != domain.StatusReceived {
		t.Errorf("Status = %q, want received", res.Status)
	}
	// Still recorded in history.
	if len(a.History()) != 1 {
		t.Errorf("history len = %d", len(a.History()))
	}
}

func TestBaseAgent_DefaultProcessTask(t *testing.T) {
	a := NewBaseAgent("agent_1", "Test", "testing", nil)
	res := a.ProcessTask(context.Background(), domain.TaskRequest{TaskID: "t1", Type: "anything"})
	if res.Status != domain.StatusNotImplemented {
		t.Errorf("Status = %q", res.Status)
	}
	if res.TaskID != "t1" || res.AgentID != "agent_1" {
		t.Errorf("identity fields: %+v", res)
	}
}

func TestBaseAgent_MemoryAndTools(t *testing.T) {
	a := NewBaseAgent("", "Test", "testing", nil)
	if a.ID() == "" {
		t.Error("empty id not generated")
	}

	a.UpdateMemory("k", 42)
	if v, ok := a.Memory("k"); !ok || v != 42 {
		t.Errorf("Memory = %v, %v", v, ok)
	}
	if _, ok := a.Memory("missing"); ok {
		t.Error("missing key found")
	}

	a.AddTool("search")
	a.AddTool("search")
	info := a.Info()
	if len(info.Tools) != 1 {
		t.Errorf("Tools = %v", info.Tools)
	}
}

func TestBaseAgent_ConversationCount(t *testing.T) {
	a := NewBaseAgent("agent_1", "Test", "testing", nil)
	a.ReceiveMessage(domain.NewMessage(domain.Fields{ConversationID: "c1", SenderID: "x", ReceiverID: "agent_1", Type: domain.TypeInfo}))
	a.ReceiveMessage(domain.NewMessage(domain.Fields{ConversationID: "c1", SenderID: "x", ReceiverID: "agent_1", Type: domain.TypeInfo}))
	a.ReceiveMessage(domain.NewMessage(domain.Fields{ConversationID: "c2", SenderID: "y", ReceiverID: "agent_1", Type: domain.TypeInfo}))

	if got := a.Info().ConversationCount; got != 2 {
		t.Errorf("ConversationCount = %d, want 2", got)
	}
}
