package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentforest/core"
	"github.com/hupe1980/agentforest/logging"
	"github.com/hupe1980/agentforest/metrics"
	"github.com/hupe1980/agentforest/model"
	"github.com/hupe1980/agentforest/tool"
)

// DefaultMaxIterations is the model round-trip cap per Chat call.
const DefaultMaxIterations = 10

// Options configures an Agent.
type Options struct {
	// SystemPrompt is prepended to every model request.
	SystemPrompt string

	// MaxIterations caps model round-trips per Chat call. Zero selects
	// DefaultMaxIterations; negative values are rejected.
	MaxIterations int

	// Tools are registered in the agent's own registry.
	Tools []tool.Tool

	// MaxParallelTools bounds concurrent execution of the tool calls in one
	// assistant turn. Values below 2 execute sequentially.
	MaxParallelTools int

	// Stream requests streaming generation from the model.
	Stream bool

	// OnChunk receives every streamed text delta in arrival order. It is only
	// called when Stream is set and the model emits partial responses.
	OnChunk func(text string)

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Recorder receives loop, model and tool metrics (defaults to no-op).
	Recorder metrics.Recorder
}

// Agent is a named conversational agent with its own tool registry.
type Agent struct {
	name          string
	llm           model.Model
	conversation  *core.Conversation
	tools         *tool.Registry
	maxIterations int
	stream        bool
	onChunk       func(text string)
	executor      *toolExecutor
	logger        logging.Logger
	recorder      metrics.Recorder

	chatMu sync.Mutex // serialises Chat
}

// New creates an agent bound to llm.
//
// Example:
//
//	a, err := agent.New("researcher", llm, func(o *agent.Options) {
//	  o.SystemPrompt = "You research topics thoroughly."
//	  o.Tools = []tool.Tool{searchTool}
//	})
func New(name string, llm model.Model, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		MaxIterations:    DefaultMaxIterations,
		MaxParallelTools: 1,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}

	if llm == nil {
		return nil, fmt.Errorf("%w: agent %s has no model", ErrInvalidConfig, name)
	}

	if opts.MaxIterations < 0 {
		return nil, fmt.Errorf("%w: agent %s max iterations must not be negative", ErrInvalidConfig, name)
	}

	if opts.MaxIterations == 0 {
		opts.MaxIterations = DefaultMaxIterations
	}

	logger := logging.With(logging.OrNoOp(opts.Logger), "agent", name)
	recorder := metrics.OrNop(opts.Recorder)
	registry := tool.NewRegistry(opts.Tools...)

	return &Agent{
		name:          name,
		llm:           llm,
		conversation:  core.NewConversation(opts.SystemPrompt),
		tools:         registry,
		maxIterations: opts.MaxIterations,
		stream:        opts.Stream,
		onChunk:       opts.OnChunk,
		executor: &toolExecutor{
			agent:       name,
			tools:       registry,
			maxParallel: opts.MaxParallelTools,
			logger:      logger,
			recorder:    recorder,
		},
		logger:   logger,
		recorder: recorder,
	}, nil
}

// Name returns the agent's unique name.
func (a *Agent) Name() string { return a.name }

// Model returns the model the agent talks to.
func (a *Agent) Model() model.Model { return a.llm }

// SystemPrompt returns the current system prompt.
func (a *Agent) SystemPrompt() string { return a.conversation.SystemPrompt() }

// SetSystemPrompt replaces the system prompt used for subsequent requests.
func (a *Agent) SetSystemPrompt(prompt string) { a.conversation.SetSystemPrompt(prompt) }

// MaxIterations returns the per-Chat model round-trip cap.
func (a *Agent) MaxIterations() int { return a.maxIterations }

// Tools exposes the agent's registry so callers can add or remove tools.
func (a *Agent) Tools() *tool.Registry { return a.tools }

// RegisterTools adds tools to the agent's registry.
func (a *Agent) RegisterTools(tools ...tool.Tool) { a.tools.Register(tools...) }

// History returns the conversation turns (system prompt excluded).
func (a *Agent) History() []core.Message { return a.conversation.History() }

// AppendMessage adds a turn to the conversation without calling the model.
// Forest message delivery uses this to inject user turns.
func (a *Agent) AppendMessage(msg core.Message) { a.conversation.Append(msg) }

// Reset clears the conversation history, keeping system prompt and tools.
func (a *Agent) Reset() { a.conversation.Clear() }

// Chat appends text as a user turn and runs the reasoning loop until the
// model produces an answer without tool calls.
//
// Errors:
//   - *IterationLimitError (wrapping ErrIterationLimit) when the cap is reached
//   - model transport errors, returned unchanged
//   - ctx.Err() when the context is cancelled between iterations
func (a *Agent) Chat(ctx context.Context, text string) (string, error) {
	a.chatMu.Lock()
	defer a.chatMu.Unlock()

	a.conversation.Append(core.NewUserMessage(text))

	limiter := core.NewIterationLimiter(a.maxIterations)

	a.logger.Debug("agent.chat.start", "max_iterations", a.maxIterations)

	for {
		if err := ctx.Err(); err != nil {
			a.recorder.ObserveLoop(a.name, metrics.OutcomeError, limiter.Count())
			return "", err
		}

		if err := limiter.Next(); err != nil {
			a.logger.Warn("agent.chat.iteration_limit", "limit", a.maxIterations)
			a.recorder.ObserveLoop(a.name, metrics.OutcomeIterationLimit, limiter.Count())

			return "", &IterationLimitError{Agent: a.name, Limit: a.maxIterations}
		}

		iteration := limiter.Count()

		resp, err := a.generate(ctx)
		if err != nil {
			a.logger.Error("agent.model.error", "iteration", iteration, "error", err.Error())
			a.recorder.ObserveLoop(a.name, metrics.OutcomeError, iteration)

			return "", err
		}

		msg := resp.Message
		msg.Role = core.RoleAssistant

		if !msg.HasToolCalls() {
			a.conversation.Append(msg)
			a.logger.Debug("agent.chat.complete", "iterations", iteration)
			a.recorder.ObserveLoop(a.name, metrics.OutcomeCompleted, iteration)

			return msg.Content, nil
		}

		for i := range msg.ToolCalls {
			if msg.ToolCalls[i].ID == "" {
				msg.ToolCalls[i].ID = core.NewID()
			}
		}

		a.conversation.Append(msg)

		results := a.executor.execute(ctx, iteration, msg.ToolCalls)
		for i, call := range msg.ToolCalls {
			a.conversation.Append(core.NewToolMessage(call.ID, call.Name, results[i].Text()))
		}
	}
}

func (a *Agent) generate(ctx context.Context) (model.Response, error) {
	req := model.Request{
		Messages: a.conversation.Messages(),
		Tools:    a.tools.Definitions(),
		Stream:   a.stream,
	}

	var onPartial func(model.Response)
	if a.onChunk != nil {
		onPartial = func(r model.Response) { a.onChunk(r.Message.Content) }
	}

	start := time.Now()
	resp, err := model.CollectStream(ctx, a.llm, req, onPartial)
	dur := time.Since(start)

	var prompt, completion int
	if resp.Usage != nil {
		prompt, completion = resp.Usage.PromptTokens, resp.Usage.CompletionTokens
	}

	a.recorder.ObserveModelCall(a.name, a.llm.Info().Name, prompt, completion, err == nil, dur)

	a.logger.Debug(
		"agent.model.response",
		"duration_ms", dur.Milliseconds(),
		"tool_calls", len(resp.Message.ToolCalls),
		"error", err != nil,
	)

	return resp, err
}

// IsIterationLimit reports whether err stems from an exhausted iteration cap.
func IsIterationLimit(err error) bool {
	return errors.Is(err, ErrIterationLimit)
}
