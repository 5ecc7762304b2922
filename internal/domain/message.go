package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the kind of message exchanged between agents.
type MessageType string

const (
	TypeTaskRequest   MessageType = "task_request"
	TypeTaskResponse  MessageType = "task_response"
	TypeQuery         MessageType = "query"
	TypeInfo          MessageType = "info"
	TypeStatusUpdate  MessageType = "status_update"
	TypeError         MessageType = "error"
	TypeSystem        MessageType = "system"
	TypeFeedback      MessageType = "feedback"
	TypeClarification MessageType = "clarification"
	TypeCompletion    MessageType = "completion"
)

// Priority orders messages and subtasks.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Message is the envelope for all agent-to-agent communication.
// A Message is immutable once constructed; it is only ever appended
// to conversation logs.
type Message struct {
	MessageID      string
	ConversationID string
	SenderID       string
	ReceiverID     string
	Type           MessageType
	Content        any
	Priority       Priority
	Timestamp      time.Time
	InReplyTo      string
	Metadata       map[string]any
}

// Fields carries the constructor inputs for a Message. Historical alias
// names (Sender, Recipient, MsgType, ID) are accepted alongside the
// canonical ones; the canonical field wins when both are set.
type Fields struct {
	SenderID   string
	ReceiverID string
	Type       MessageType
	Content    any

	MessageID      string
	ConversationID string
	InReplyTo      string
	Metadata       map[string]any
	Priority       Priority

	// Aliases kept for compatibility with older callers.
	Sender    string
	Recipient string
	MsgType   MessageType
	ID        string
}

// NewMessage constructs a Message, normalizing aliases and generating
// message and conversation ids when absent.
func NewMessage(f Fields) *Message {
	msgID := firstNonEmpty(f.MessageID, f.ID)
	if msgID == "" {
		msgID = NewID("msg")
	}
	convID := f.ConversationID
	if convID == "" {
		convID = NewID("conv")
	}
	priority := f.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	metadata := f.Metadata
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &Message{
		MessageID:      msgID,
		ConversationID: convID,
		SenderID:       firstNonEmpty(f.SenderID, f.Sender),
		ReceiverID:     firstNonEmpty(f.ReceiverID, f.Recipient),
		Type:           MessageType(firstNonEmpty(string(f.Type), string(f.MsgType))),
		Content:        f.Content,
		Priority:       priority,
		Timestamp:      time.Now(),
		InReplyTo:      f.InReplyTo,
		Metadata:       metadata,
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// Wire returns the canonical serialization of the message.
func (m *Message) Wire() map[string]any {
	return map[string]any{
		"message_id":      m.MessageID,
		"conversation_id": m.ConversationID,
		"sender_id":       m.SenderID,
		"receiver_id":     m.ReceiverID,
		"message_type":    string(m.Type),
		"content":         m.Content,
		"timestamp":       m.Timestamp.Format(time.RFC3339Nano),
		"in_reply_to":     m.InReplyTo,
		"priority":        string(m.Priority),
		"metadata":        m.Metadata,
	}
}

// FromWire reconstructs a Message from its canonical serialization.
// sender_id, receiver_id, and message_type are required.
func FromWire(data map[string]any) (*Message, error) {
	sender, ok := data["sender_id"].(string)
	if !ok {
		return nil, fmt.Errorf("message: sender_id missing or not a string")
	}
	receiver, ok := data["receiver_id"].(string)
	if !ok {
		return nil, fmt.Errorf("message: receiver_id missing or not a string")
	}
	msgType, ok := data["message_type"].(string)
	if !ok {
		return nil, fmt.Errorf("message: message_type missing or not a string")
	}

	m := NewMessage(Fields{
		SenderID:       sender,
		ReceiverID:     receiver,
		Type:           MessageType(msgType),
		Content:        data["content"],
		MessageID:      stringField(data, "message_id"),
		ConversationID: stringField(data, "conversation_id"),
		InReplyTo:      stringField(data, "in_reply_to"),
		Priority:       Priority(stringField(data, "priority")),
	})
	if md, ok := data["metadata"].(map[string]any); ok {
		m.Metadata = md
	}
	if ts := stringField(data, "timestamp"); ts != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			m.Timestamp = parsed
		}
	}
	return m, nil
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

// JSON renders the message as its canonical JSON serialization.
func (m *Message) JSON() (string, error) {
	b, err := json.Marshal(m.Wire())
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}
	return string(b), nil
}

// FromJSON parses a message from its canonical JSON serialization.
// It is the exact inverse of JSON.
func FromJSON(raw string) (*Message, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}
	return FromWire(data)
}

// replyTypes maps a message type to the default type for its reply.
var replyTypes = map[MessageType]MessageType{
	TypeTaskRequest:   TypeTaskResponse,
	TypeQuery:         TypeInfo,
	TypeClarification: TypeInfo,
}

// CreateReply builds a reply to this message: endpoints swapped,
// conversation preserved, in_reply_to set, metadata deep-copied.
// When msgType is empty the reply type is inferred from the original
// (task_request -> task_response, query/clarification -> info,
// anything else -> feedback).
func (m *Message) CreateReply(content any, msgType MessageType) *Message {
	if msgType == "" {
		var ok bool
		if msgType, ok = replyTypes[m.Type]; !ok {
			msgType = TypeFeedback
		}
	}
	return NewMessage(Fields{
		SenderID:       m.ReceiverID,
		ReceiverID:     m.SenderID,
		Type:           msgType,
		Content:        content,
		ConversationID: m.ConversationID,
		InReplyTo:      m.MessageID,
		Metadata:       deepCopyMap(m.Metadata),
	})
}

func deepCopyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = deepCopyValue(v)
	}
	return dst
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		cp := make([]any, len(t))
		for i, e := range t {
			cp[i] = deepCopyValue(e)
		}
		return cp
	default:
		return v
	}
}
