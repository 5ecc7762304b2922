package manager

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"conductor-ai/internal/domain"
	"conductor-ai/internal/usecase"
)

var (
	ErrAgentExists      = errors.New("agent id already registered")
	ErrUnknownAgentType = errors.New("unknown agent type")
	ErrUnknownAgent     = errors.New("unknown agent")
	ErrUnknownWorkflow  = errors.New("unknown workflow")
)

// AgentManager owns the live agent population: the type registry, the
// instance store, workflows, the conversation log and event callbacks.
type AgentManager struct {
	mu         sync.RWMutex
	agents     map[string]domain.Agent
	agentTypes map[string]domain.AgentFactory
	workflows  map[string]*domain.Workflow
	callbacks  map[domain.EventType][]domain.EventCallback

	conversations *usecase.ConversationManager
	logger        *slog.Logger
}

func New(logger *slog.Logger) *AgentManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &AgentManager{
		agents:        make(map[string]domain.Agent),
		agentTypes:    make(map[string]domain.AgentFactory),
		workflows:     make(map[string]*domain.Workflow),
		callbacks:     make(map[domain.EventType][]domain.EventCallback),
		conversations: usecase.NewConversationManager(),
		logger:        logger.With("component", "agent_manager"),
	}
}

// Conversations exposes the shared conversation log.
func (m *AgentManager) Conversations() *usecase.ConversationManager {
	return m.conversations
}

// RegisterAgentType binds a factory to a type name. A duplicate name
// is rejected and the original binding kept.
func (m *AgentManager) RegisterAgentType(name string, factory domain.AgentFactory) bool {
	if name == "" || factory == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.agentTypes[name]; ok {
		m.logger.Warn("agent type already registered", "agent_type", name)
		return false
	}
	m.agentTypes[name] = factory
	m.logger.Info("agent type registered", "agent_type", name)
	return true
}

// CreateAgent instantiates a registered type and stores the result. An
// empty agentID gets a generated one derived from the type name. A
// panicking factory is reported as an error, not propagated.
func (m *AgentManager) CreateAgent(agentType, agentID string, cfg domain.AgentConfig) (agent domain.Agent, err error) {
	m.mu.Lock()
	factory, ok := m.agentTypes[agentType]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgentType, agentType)
	}
	if agentID == "" {
		agentID = domain.NewShortID(agentType)
	}
	if _, exists := m.agents[agentID]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAgentExists, agentID)
	}
	m.mu.Unlock()

	cfg.AgentID = agentID
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("agent factory %s panicked: %v", agentType, r)
			}
		}()
		agent, err = factory(cfg)
	}()
	if err != nil {
		m.logger.Error("agent creation failed", "agent_type", agentType, "agent_id", agentID, "error", err)
		return nil, err
	}
	if agent == nil {
		return nil, fmt.Errorf("agent factory %s returned nil agent", agentType)
	}

	m.mu.Lock()
	if _, exists := m.agents[agentID]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAgentExists, agentID)
	}
	m.agents[agentID] = agent
	m.mu.Unlock()

	m.logger.Info("agent created", "agent_type", agentType, "agent_id", agentID)
	m.emit(domain.EventAgentCreated, map[string]any{
		"agent_id":   agentID,
		"agent_type": agentType,
		"agent":      agent,
	})
	return agent, nil
}

// Agent looks up a live agent by id.
func (m *AgentManager) Agent(agentID string) (domain.Agent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.agents[agentID]
	return a, ok
}

// List returns all live agent ids in sorted order.
func (m *AgentManager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.agents))
	for id := range m.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RemoveAgent drops an agent by id, reporting whether it existed.
func (m *AgentManager) RemoveAgent(agentID string) bool {
	m.mu.Lock()
	_, ok := m.agents[agentID]
	if ok {
		delete(m.agents, agentID)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	m.logger.Info("agent removed", "agent_id", agentID)
	m.emit(domain.EventAgentRemoved, map[string]any{"agent_id": agentID})
	return true
}

// SendMessage routes a message to its receiver synchronously. Both
// endpoints must be live agents; otherwise the message is dropped with
// a log line, nothing is appended to the conversation, and nil is
// returned. On success the sent message is returned and the receiver's
// response travels in the message_sent event payload. metadata may be
// nil; when set it is attached to the routed message verbatim.
func (m *AgentManager) SendMessage(senderID, receiverID string, content any, msgType domain.MessageType, priority domain.Priority, metadata map[string]any) *domain.Message {
	m.mu.RLock()
	_, senderOK := m.agents[senderID]
	receiver, receiverOK := m.agents[receiverID]
	m.mu.RUnlock()

	if !senderOK || !receiverOK {
		m.logger.Warn("message dropped, unknown endpoint",
			"sender_id", senderID, "sender_known", senderOK,
			"receiver_id", receiverID, "receiver_known", receiverOK)
		return nil
	}

	msg := domain.NewMessage(domain.Fields{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Type:       msgType,
		Content:    content,
		Priority:   priority,
		Metadata:   metadata,
	})
	m.conversations.Add(msg)

	response := receiver.ReceiveMessage(msg)
	m.logger.Debug("message delivered",
		"message_id", msg.MessageID,
		"sender_id", senderID, "receiver_id", receiverID,
		"message_type", string(msgType), "response_status", response.Status)

	m.emit(domain.EventMessageSent, map[string]any{
		"message":  msg.Wire(),
		"response": response.Wire(),
	})
	return msg
}

// OnEvent registers a callback for an event type. Callbacks fire
// synchronously in registration order.
func (m *AgentManager) OnEvent(t domain.EventType, cb domain.EventCallback) {
	if cb == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks[t] = append(m.callbacks[t], cb)
}

func (m *AgentManager) emit(t domain.EventType, data map[string]any) {
	m.mu.RLock()
	cbs := make([]domain.EventCallback, len(m.callbacks[t]))
	copy(cbs, m.callbacks[t])
	m.mu.RUnlock()

	ev := domain.Event{Type: t, Timestamp: time.Now(), Data: data}
	for _, cb := range cbs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("event callback panicked", "event_type", string(t), "panic", fmt.Sprint(r))
				}
			}()
			cb(ev)
		}()
	}
}
