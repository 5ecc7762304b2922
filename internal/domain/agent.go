package domain

import "context"

// Agent is anything addressable by the manager: it can process tasks
// directly and receive protocol messages.
type Agent interface {
	ID() string
	Info() AgentInfo
	ProcessTask(ctx context.Context, task TaskRequest) TaskResult
	ReceiveMessage(msg *Message) TaskResult
}

// AgentInfo is a read-only snapshot of an agent's identity and state.
type AgentInfo struct {
	AgentID           string   `json:"agent_id"`
	Name              string   `json:"name"`
	Specialization    string   `json:"specialization"`
	Tools             []string `json:"tools"`
	CreatedAt         string   `json:"created_at"`
	ConversationCount int      `json:"conversation_count"`
}

// AgentConfig is what a factory receives when the manager instantiates
// a registered agent type.
type AgentConfig struct {
	AgentID        string
	Name           string
	Specialization string
	Tools          []string
}

// AgentFactory builds a concrete agent from its config.
type AgentFactory func(cfg AgentConfig) (Agent, error)
