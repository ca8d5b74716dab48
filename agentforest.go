// Package agentforest provides a high-level façade over agents, forests and
// the auto-orchestrator. It carries the shared ambient services (logger,
// metrics recorder, message publisher) so that every component built through
// it reports into the same sinks. Most applications:
//  1. Create an AgentForest via New() (optionally overriding the no-op defaults)
//  2. Build agents with NewAgent and group them with NewForest
//  3. Run ExecuteCollaborativeTask on the forest, or hand a task to
//     NewOrchestrator().ExecuteTask
package agentforest

import (
	"github.com/hupe1980/agentforest/agent"
	"github.com/hupe1980/agentforest/forest"
	"github.com/hupe1980/agentforest/logging"
	"github.com/hupe1980/agentforest/metrics"
	"github.com/hupe1980/agentforest/model"
	"github.com/hupe1980/agentforest/orchestrator"
)

// Options configures the AgentForest façade.
type Options struct {
	// MaxIterations is the default iteration cap for agents, forests and the
	// orchestrator. Component options may still override it.
	MaxIterations int

	// MaxParallelTools is the default tool concurrency for new agents.
	MaxParallelTools int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Recorder (defaults to a no-op recorder if nil)
	Recorder metrics.Recorder

	// Publisher mirrors forest traffic (optional)
	Publisher forest.Publisher
}

// AgentForest is the façade aggregating the ambient services.
type AgentForest struct {
	opts Options
}

// New creates a new AgentForest instance with optional overrides.
func New(optFns ...func(o *Options)) *AgentForest {
	opts := Options{
		MaxIterations:    agent.DefaultMaxIterations,
		MaxParallelTools: 1,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	opts.Logger = logging.OrNoOp(opts.Logger)
	opts.Recorder = metrics.OrNop(opts.Recorder)

	if opts.MaxIterations <= 0 {
		opts.MaxIterations = agent.DefaultMaxIterations
	}

	return &AgentForest{opts: opts}
}

// Logger returns the shared logger.
func (m *AgentForest) Logger() logging.Logger { return m.opts.Logger }

// Recorder returns the shared metrics recorder.
func (m *AgentForest) Recorder() metrics.Recorder { return m.opts.Recorder }

// NewAgent creates an agent wired to the shared logger and recorder.
func (m *AgentForest) NewAgent(name string, llm model.Model, optFns ...func(o *agent.Options)) (*agent.Agent, error) {
	return agent.New(name, llm, append([]func(o *agent.Options){func(o *agent.Options) {
		o.MaxIterations = m.opts.MaxIterations
		o.MaxParallelTools = m.opts.MaxParallelTools
		o.Logger = m.opts.Logger
		o.Recorder = m.opts.Recorder
	}}, optFns...)...)
}

// NewForest creates an empty forest wired to the shared services.
func (m *AgentForest) NewForest(name string, optFns ...func(o *forest.Options)) *forest.Forest {
	return forest.New(name, append([]func(o *forest.Options){func(o *forest.Options) {
		o.MaxIterations = m.opts.MaxIterations
		o.Logger = m.opts.Logger
		o.Recorder = m.opts.Recorder
		o.Publisher = m.opts.Publisher
	}}, optFns...)...)
}

// NewOrchestrator creates an auto-orchestrator wired to the shared services.
func (m *AgentForest) NewOrchestrator(llm model.Model, optFns ...func(o *orchestrator.Options)) (*orchestrator.Orchestrator, error) {
	return orchestrator.New(llm, append([]func(o *orchestrator.Options){func(o *orchestrator.Options) {
		o.MaxIterations = m.opts.MaxIterations
		o.Logger = m.opts.Logger
		o.Recorder = m.opts.Recorder
	}}, optFns...)...)
}
