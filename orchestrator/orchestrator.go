package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentforest/agent"
	"github.com/hupe1980/agentforest/logging"
	"github.com/hupe1980/agentforest/metrics"
	"github.com/hupe1980/agentforest/model"
	"github.com/hupe1980/agentforest/tool"
)

// DefaultMaxAgents bounds the team size the planner may request.
const DefaultMaxAgents = 5

// PlannerName is the name of the persistent planning agent.
const PlannerName = "orchestrator"

// Options configures an Orchestrator.
type Options struct {
	// MaxAgents bounds agent_count (default 5).
	MaxAgents int

	// MaxIterations caps model round-trips per Chat for the planner and
	// every spawned agent (default agent.DefaultMaxIterations).
	MaxIterations int

	// Tools is the catalog spawned agents draw from via tool_indices. With
	// an empty catalog spawned agents run without tools.
	Tools []tool.Tool

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Recorder receives orchestration metrics and is passed to spawned agents.
	Recorder metrics.Recorder
}

// SpawnedAgent pairs a live agent with its configuration and outcome.
type SpawnedAgent struct {
	Agent    *agent.Agent
	Config   AgentConfig
	Subtask  string
	Result   string
	Err      error
	Duration time.Duration
}

// Orchestrator plans, spawns and runs teams of agents for arbitrary tasks.
type Orchestrator struct {
	llm      model.Model
	opts     Options
	logger   logging.Logger
	recorder metrics.Recorder

	runMu sync.Mutex // serialises ExecuteTask

	mu      sync.RWMutex
	planner *agent.Agent
	plan    *Plan
	spawned []*SpawnedAgent
}

// New creates an orchestrator whose planner and spawned agents use llm.
func New(llm model.Model, optFns ...func(o *Options)) (*Orchestrator, error) {
	opts := Options{
		MaxAgents:     DefaultMaxAgents,
		MaxIterations: agent.DefaultMaxIterations,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if llm == nil {
		return nil, fmt.Errorf("%w: orchestrator has no model", agent.ErrInvalidConfig)
	}

	if opts.MaxAgents <= 0 {
		opts.MaxAgents = DefaultMaxAgents
	}

	return &Orchestrator{
		llm:      llm,
		opts:     opts,
		logger:   logging.With(logging.OrNoOp(opts.Logger), "component", "orchestrator"),
		recorder: metrics.OrNop(opts.Recorder),
	}, nil
}

func (o *Orchestrator) plannerAgent() (*agent.Agent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.planner != nil {
		return o.planner, nil
	}

	planner, err := agent.New(PlannerName, o.llm, func(ao *agent.Options) {
		ao.SystemPrompt = plannerSystemPrompt
		ao.MaxIterations = o.opts.MaxIterations
		ao.Logger = o.opts.Logger
		ao.Recorder = o.opts.Recorder
	})
	if err != nil {
		return nil, err
	}

	o.planner = planner

	return planner, nil
}

// ExecuteTask plans a team for task, runs every member's subtask
// concurrently and returns the aggregated report. When more than one agent
// ran, the planner's synthesis is appended.
func (o *Orchestrator) ExecuteTask(ctx context.Context, task string) (result string, err error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	start := time.Now()
	agentCount := 0

	defer func() {
		o.recorder.ObserveOrchestration(agentCount, err == nil, time.Since(start))
	}()

	planner, err := o.plannerAgent()
	if err != nil {
		return "", err
	}

	prompt, err := planningPrompt(task, o.opts.MaxAgents, o.opts.Tools)
	if err != nil {
		return "", err
	}

	raw, err := planner.Chat(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("planning: %w", err)
	}

	plan, err := ParsePlan(raw, o.opts.MaxAgents)
	if err != nil {
		o.logger.Warn("orchestrator.plan.invalid", "error", err.Error())
		return "", err
	}
	plan.Task = task

	o.logger.Info("orchestrator.plan.created", "agents", plan.AgentCount, "reasoning", plan.Reasoning)

	o.mu.Lock()
	o.plan = plan
	o.spawned = nil
	o.mu.Unlock()

	spawned, err := o.spawn(plan)
	if err != nil {
		return "", err
	}
	agentCount = len(spawned)

	o.run(ctx, task, spawned)

	// Outcomes are published only after every goroutine finished writing.
	o.mu.Lock()
	o.spawned = spawned
	o.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	out, err := report(plan, spawned)
	if err != nil {
		return "", err
	}

	if len(spawned) > 1 {
		prompt, err := synthesisPrompt(task, spawned)
		if err != nil {
			return "", err
		}

		synthesis, err := planner.Chat(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("synthesis: %w", err)
		}

		out += "\n## Synthesis\n\n" + synthesis
	}

	return out, nil
}

func (o *Orchestrator) spawn(plan *Plan) ([]*SpawnedAgent, error) {
	spawned := make([]*SpawnedAgent, 0, len(plan.Agents))

	for _, cfg := range plan.Agents {
		tools := o.selectTools(cfg)

		systemPrompt := cfg.SystemPrompt
		if systemPrompt == "" {
			systemPrompt = fmt.Sprintf("You are %s, acting as %s.", cfg.Name, cfg.Role)
		}

		a, err := agent.New(cfg.Name, o.llm, func(ao *agent.Options) {
			ao.SystemPrompt = systemPrompt
			ao.MaxIterations = o.opts.MaxIterations
			ao.Tools = tools
			ao.Logger = o.opts.Logger
			ao.Recorder = o.opts.Recorder
		})
		if err != nil {
			return nil, fmt.Errorf("spawn %s: %w", cfg.Name, err)
		}

		spawned = append(spawned, &SpawnedAgent{
			Agent:   a,
			Config:  cfg,
			Subtask: plan.Subtask(cfg.Name),
		})

		o.logger.Debug("orchestrator.agent.spawned", "name", cfg.Name, "role", cfg.Role, "tools", len(tools))
	}

	return spawned, nil
}

// selectTools resolves tool indices against the catalog, skipping indices
// that are out of range.
func (o *Orchestrator) selectTools(cfg AgentConfig) []tool.Tool {
	var tools []tool.Tool

	for _, idx := range cfg.ToolIndices {
		if idx < 0 || idx >= len(o.opts.Tools) {
			o.logger.Warn("orchestrator.tool_index.invalid", "agent", cfg.Name, "index", idx, "catalog", len(o.opts.Tools))
			continue
		}
		tools = append(tools, o.opts.Tools[idx])
	}

	return tools
}

// run executes every spawned agent's subtask concurrently and waits for all.
func (o *Orchestrator) run(ctx context.Context, task string, spawned []*SpawnedAgent) {
	var wg sync.WaitGroup

	for _, s := range spawned {
		wg.Add(1)

		go func(s *SpawnedAgent) {
			defer wg.Done()

			start := time.Now()

			defer func() {
				if r := recover(); r != nil {
					s.Err = fmt.Errorf("agent %s panicked: %v", s.Config.Name, r)
				}
				s.Duration = time.Since(start)
			}()

			prompt, err := subtaskPrompt(task, s)
			if err != nil {
				s.Err = err
				return
			}

			s.Result, s.Err = s.Agent.Chat(ctx, prompt)

			if s.Err != nil {
				o.logger.Warn("orchestrator.agent.failed", "name", s.Config.Name, "error", s.Err.Error())
				return
			}

			o.logger.Info("orchestrator.agent.completed", "name", s.Config.Name, "duration_ms", time.Since(start).Milliseconds())
		}(s)
	}

	wg.Wait()
}

// Plan returns a copy of the latest orchestration plan.
func (o *Orchestrator) Plan() (*Plan, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.plan == nil {
		return nil, false
	}

	return o.plan.Clone(), true
}

// SpawnedAgents returns the agents of the latest run with their outcomes.
func (o *Orchestrator) SpawnedAgents() []SpawnedAgent {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]SpawnedAgent, len(o.spawned))
	for i, s := range o.spawned {
		out[i] = *s
	}

	return out
}

// Failed returns the names of spawned agents whose subtask errored in the
// latest run.
func (o *Orchestrator) Failed() []string {
	var names []string
	for _, s := range o.SpawnedAgents() {
		if s.Err != nil {
			names = append(names, s.Config.Name)
		}
	}
	return names
}

// IsInvalidPlan reports whether err stems from an unusable planner answer.
func IsInvalidPlan(err error) bool { return errors.Is(err, ErrInvalidPlan) }
