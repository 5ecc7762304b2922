package usecase

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"conductor-ai/internal/domain"
)

// ConversationManager keeps append-only per-conversation message logs.
type ConversationManager struct {
	mu            sync.RWMutex
	conversations map[string][]*domain.Message
}

func NewConversationManager() *ConversationManager {
	return &ConversationManager{conversations: make(map[string][]*domain.Message)}
}

// Add appends a message to its conversation's log. Nil messages and
// messages without a conversation id are ignored.
func (c *ConversationManager) Add(msg *domain.Message) {
	if msg == nil || msg.ConversationID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversations[msg.ConversationID] = append(c.conversations[msg.ConversationID], msg)
}

// Get returns a copy of a conversation's log in arrival order. Unknown
// ids return an empty slice.
func (c *ConversationManager) Get(conversationID string) []*domain.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	msgs := c.conversations[conversationID]
	out := make([]*domain.Message, len(msgs))
	copy(out, msgs)
	return out
}

// MessageByID scans every conversation for a message id. The caller
// does not need to know which conversation the message belongs to.
func (c *ConversationManager) MessageByID(messageID string) (*domain.Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, msgs := range c.conversations {
		for _, m := range msgs {
			if m.MessageID == messageID {
				return m, true
			}
		}
	}
	return nil, false
}

// Len reports the number of messages in a conversation.
func (c *ConversationManager) Len(conversationID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.conversations[conversationID])
}

// ConversationSummary is a compact view of one conversation.
type ConversationSummary struct {
	ConversationID string           `json:"conversation_id"`
	MessageCount   int              `json:"message_count"`
	Recent         []map[string]any `json:"recent"`
	Participants   []string         `json:"participants"`
	StartedAt      time.Time        `json:"started_at,omitzero"`
	LastUpdated    time.Time        `json:"last_updated,omitzero"`
}

// Summary builds an overview of a conversation with its last limit
// messages in wire form. A limit <= 0 means all messages.
func (c *ConversationManager) Summary(conversationID string, limit int) ConversationSummary {
	c.mu.RLock()
	msgs := c.conversations[conversationID]
	s := ConversationSummary{ConversationID: conversationID, MessageCount: len(msgs)}
	if len(msgs) > 0 {
		s.StartedAt = msgs[0].Timestamp
		s.LastUpdated = msgs[len(msgs)-1].Timestamp
	}
	seen := make(map[string]struct{})
	for _, m := range msgs {
		seen[m.SenderID] = struct{}{}
		seen[m.ReceiverID] = struct{}{}
	}
	start := 0
	if limit > 0 && len(msgs) > limit {
		start = len(msgs) - limit
	}
	for _, m := range msgs[start:] {
		s.Recent = append(s.Recent, m.Wire())
	}
	c.mu.RUnlock()

	for p := range seen {
		s.Participants = append(s.Participants, p)
	}
	sort.Strings(s.Participants)
	return s
}

// Export renders a conversation as indented JSON for archival.
func (c *ConversationManager) Export(conversationID string) ([]byte, error) {
	c.mu.RLock()
	msgs := c.conversations[conversationID]
	wire := make([]map[string]any, 0, len(msgs))
	for _, m := range msgs {
		wire = append(wire, m.Wire())
	}
	c.mu.RUnlock()

	doc := map[string]any{
		"conversation_id": conversationID,
		"message_count":   len(wire),
		"messages":        wire,
		"exported_at":     time.Now().Format(time.RFC3339Nano),
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Clear drops a conversation, reporting whether it existed.
func (c *ConversationManager) Clear(conversationID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.conversations[conversationID]; !ok {
		return false
	}
	delete(c.conversations, conversationID)
	return true
}
