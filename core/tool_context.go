package core

import (
	"context"

	"github.com/hupe1980/agentforest/logging"
)

// ToolContext is the constrained surface handed to tool implementations for
// one tool call: the ambient context, the calling agent, the call id and a
// logger.
type ToolContext struct {
	ctx        context.Context
	callID     string
	agentName  string
	iterations int

	*loggerAdapter
}

// NewToolContext constructs a tool context for a single call.
func NewToolContext(ctx context.Context, agentName, callID string, logger logging.Logger) *ToolContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ToolContext{
		ctx:           ctx,
		callID:        callID,
		agentName:     agentName,
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// WithIteration returns a copy tagged with the loop iteration that issued the call.
func (tc *ToolContext) WithIteration(n int) *ToolContext {
	c := *tc
	c.iterations = n
	return &c
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// FunctionCallID returns the id of the tool call being served.
func (tc *ToolContext) FunctionCallID() string { return tc.callID }

// AgentName returns the name of the agent that issued the call.
func (tc *ToolContext) AgentName() string { return tc.agentName }

// Iteration returns the loop iteration that issued the call (1-based, 0 if unknown).
func (tc *ToolContext) Iteration() int { return tc.iterations }
