package domain

import "time"

// EventType identifies a manager lifecycle event.
type EventType string

const (
	EventAgentCreated EventType = "agent_created"
	EventAgentRemoved EventType = "agent_removed"
	EventMessageSent  EventType = "message_sent"
)

// Event is delivered synchronously to registered callbacks, in
// registration order, on the goroutine that triggered it.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      map[string]any
}

// EventCallback observes manager events. A panicking callback is
// recovered and does not stop delivery to later callbacks.
type EventCallback func(ev Event)
