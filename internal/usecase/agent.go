package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"conductor-ai/internal/domain"
)

// Handler processes one inbound message type on an agent.
type Handler func(msg *domain.Message) domain.TaskResult

// BaseAgent carries the identity, memory, history and handler table
// shared by every concrete agent. Embed it and register handlers or
// override ProcessTask.
type BaseAgent struct {
	agentID        string
	name           string
	specialization string
	createdAt      time.Time

	mu       sync.Mutex
	tools    []string
	memory   map[string]any
	history  []*domain.Message
	handlers map[domain.MessageType]Handler

	logger *slog.Logger
}

// NewBaseAgent builds an agent shell. An empty agentID gets a generated
// one; a nil logger falls back to slog.Default.
func NewBaseAgent(agentID, name, specialization string, logger *slog.Logger) *BaseAgent {
	if agentID == "" {
		agentID = domain.NewID("agent")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BaseAgent{
		agentID:        agentID,
		name:           name,
		specialization: specialization,
		createdAt:      time.Now(),
		memory:         make(map[string]any),
		handlers:       make(map[domain.MessageType]Handler),
		logger:         logger.With("agent_id", agentID),
	}
}

func (a *BaseAgent) ID() string { return a.agentID }

// Logger exposes the agent-scoped logger to embedding types.
func (a *BaseAgent) Logger() *slog.Logger { return a.logger }

// Info snapshots identity and counters under the lock.
func (a *BaseAgent) Info() domain.AgentInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	tools := make([]string, len(a.tools))
	copy(tools, a.tools)
	convs := make(map[string]struct{})
	for _, m := range a.history {
		convs[m.ConversationID] = struct{}{}
	}
	return domain.AgentInfo{
		AgentID:           a.agentID,
		Name:              a.name,
		Specialization:    a.specialization,
		Tools:             tools,
		CreatedAt:         a.createdAt.Format(time.RFC3339),
		ConversationCount: len(convs),
	}
}

// ProcessTask is the default no-op implementation; concrete agents
// embedding BaseAgent are expected to shadow it.
func (a *BaseAgent) ProcessTask(ctx context.Context, task domain.TaskRequest) domain.TaskResult {
	return domain.TaskResult{
		Status:  domain.StatusNotImplemented,
		Message: "agent does not implement task processing",
		TaskID:  task.TaskID,
		AgentID: a.agentID,
	}
}

// ReceiveMessage records the message in history and dispatches it to
// the handler registered for its type. Unhandled types are
// acknowledged with a received status rather than rejected.
func (a *BaseAgent) ReceiveMessage(msg *domain.Message) domain.TaskResult {
	if msg == nil {
		return domain.TaskResult{Status: domain.StatusError, Message: "nil message"}
	}
	a.mu.Lock()
	a.history = append(a.history, msg)
	h := a.handlers[msg.Type]
	a.mu.Unlock()

	if h == nil {
		a.logger.Debug("no handler for message type", "message_type", string(msg.Type), "message_id", msg.MessageID)
		return domain.TaskResult{
			Status:  domain.StatusReceived,
			Message: "no handler for message type " + string(msg.Type),
			AgentID: a.agentID,
		}
	}
	return h(msg)
}

// RegisterHandler binds a handler to an inbound message type,
// replacing any previous binding.
func (a *BaseAgent) RegisterHandler(t domain.MessageType, h Handler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handlers[t] = h
}

// AddTool records a tool name on the agent, ignoring duplicates.
func (a *BaseAgent) AddTool(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, t := range a.tools {
		if t == name {
			return
		}
	}
	a.tools = append(a.tools, name)
}

// UpdateMemory stores a keyed value in agent memory.
func (a *BaseAgent) UpdateMemory(key string, value any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.memory[key] = value
}

// Memory looks up a keyed value from agent memory.
func (a *BaseAgent) Memory(key string) (any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.memory[key]
	return v, ok
}

// History returns a copy of the received-message log.
func (a *BaseAgent) History() []*domain.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*domain.Message, len(a.history))
	copy(out, a.history)
	return out
}
