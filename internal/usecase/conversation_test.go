package usecase

import (
	"encoding/json"
	"testing"

	"conductor-ai/internal/domain"
)

func msg(conv, from, to string) *domain.Message {
	return domain.NewMessage(domain.Fields{
		ConversationID: conv,
		SenderID:       from,
		ReceiverID:     to,
		Type:           domain.TypeInfo,
		Content:        "hello",
	})
}

func TestConversationManager_AddAndGet(t *testing.T) {
	cm := NewConversationManager()
	m1 := msg("conv_1", "a", "b")
	m2 := msg("conv_1", "b", "a")
	cm.Add(m1)
	cm.Add(m2)
	cm.Add(msg("conv_2", "a", "c"))

	got := cm.Get("conv_1")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].MessageID != m1.MessageID || got[1].MessageID != m2.MessageID {
		t.Error("order not preserved")
	}
	if cm.Len("conv_2") != 1 {
		t.Errorf("conv_2 len = %d", cm.Len("conv_2"))
	}
	if len(cm.Get("conv_missing")) != 0 {
		t.Error("unknown conversation not empty")
	}
}

func TestConversationManager_IgnoresNilAndUnkeyed(t *testing.T) {
	cm := NewConversationManager()
	cm.Add(nil)
	cm.Add(&domain.Message{MessageID: "msg_1"})
	if cm.Len("") != 0 {
		t.Error("message without conversation id stored")
	}
}

func TestConversationManager_MessageByID(t *testing.T) {
	cm := NewConversationManager()
	cm.Add(msg("conv_1", "a", "b"))
	m := msg("conv_2", "c", "d")
	cm.Add(m)

	// Lookup needs only the id, whichever conversation holds it.
	found, ok := cm.MessageByID(m.MessageID)
	if !ok || found.ConversationID != "conv_2" {
		t.Errorf("MessageByID = %v, %v", found, ok)
	}
	if _, ok := cm.MessageByID("msg_nope"); ok {
		t.Error("found nonexistent message")
	}
}

func TestConversationManager_Summary(t *testing.T) {
	cm := NewConversationManager()
	for i := 0; i < 5; i++ {
		cm.Add(msg("conv_1", "alpha", "beta"))
	}

	s := cm.Summary("conv_1", 2)
	if s.MessageCount != 5 {
		t.Errorf("MessageCount = %d", s.MessageCount)
	}
	if len(s.Recent) != 2 {
		t.Errorf("Recent = %d, want 2", len(s.Recent))
	}
	if len(s.Participants) != 2 || s.Participants[0] != "alpha" || s.Participants[1] != "beta" {
		t.Errorf("Participants = %v", s.Participants)
	}
	if s.StartedAt.IsZero() || s.LastUpdated.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestConversationManager_Export(t *testing.T) {
	cm := NewConversationManager()
	cm.Add(msg("conv_1", "a", "b"))

	raw, err := cm.Export("conv_1")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc["conversation_id"] != "conv_1" {
		t.Errorf("conversation_id = %v", doc["conversation_id"])
	}
	if doc["message_count"] != float64(1) {
		t.Errorf("message_count = %v", doc["message_count"])
	}
	if doc["exported_at"] == nil {
		t.Error("exported_at missing")
	}
}

func TestConversationManager_Clear(t *testing.T) {
	cm := NewConversationManager()
	cm.Add(msg("conv_1", "a", "b"))

	if !cm.Clear("conv_1") {
		t.Error("Clear existing returned false")
	}
	if cm.Clear("conv_1") {
		t.Error("Clear cleared conversation returned true")
	}
	if cm.Len("conv_1") != 0 {
		t.Error("conversation survived Clear")
	}
}
