package usecase

import (
	"context"

	"conductor-ai/internal/domain"
)

// FuncAgent is a BaseAgent whose task processing is a supplied
// function. It covers simple capability agents and test doubles
// without a dedicated type per specialization.
type FuncAgent struct {
	*BaseAgent
	process func(ctx context.Context, task domain.TaskRequest) domain.TaskResult
}

func NewFuncAgent(base *BaseAgent, process func(ctx context.Context, task domain.TaskRequest) domain.TaskResult) *FuncAgent {
	return &FuncAgent{BaseAgent: base, process: process}
}

func (a *FuncAgent) ProcessTask(ctx context.Context, task domain.TaskRequest) domain.TaskResult {
	if a.process == nil {
		return a.BaseAgent.ProcessTask(ctx, task)
	}
	return a.process(ctx, task)
}

var _ domain.Agent = (*FuncAgent)(nil)
