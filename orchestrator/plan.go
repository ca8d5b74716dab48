package orchestrator

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/hupe1980/agentforest/internal/util"
)

// ErrInvalidPlan is returned when the planner's output cannot be parsed or
// fails validation. Invalid plans are never replaced by defaults.
var ErrInvalidPlan = errors.New("invalid orchestration plan")

// AgentConfig describes one agent the planner asked for.
type AgentConfig struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	SystemPrompt string `json:"system_prompt"`
	ToolIndices  []int  `json:"tool_indices,omitempty"`
}

// Plan is the planner's decision for one task.
type Plan struct {
	Task          string            `json:"task"`
	AgentCount    int               `json:"agent_count"`
	Reasoning     string            `json:"reasoning"`
	Agents        []AgentConfig     `json:"agents"`
	TaskBreakdown map[string]string `json:"task_breakdown"`
}

// Subtask returns the subtask assigned to name, or the whole task when the
// breakdown has no entry for it.
func (p *Plan) Subtask(name string) string {
	if s := p.TaskBreakdown[name]; s != "" {
		return s
	}
	return p.Task
}

// Clone returns a deep copy.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	c := *p
	c.Agents = make([]AgentConfig, len(p.Agents))
	for i, a := range p.Agents {
		a.ToolIndices = slices.Clone(a.ToolIndices)
		c.Agents[i] = a
	}
	c.TaskBreakdown = maps.Clone(p.TaskBreakdown)
	return &c
}

// ParsePlan decodes planner output into a Plan. Markdown code fences and
// surrounding prose are tolerated. The agent count must lie in 1..maxAgents
// and match the number of agents, whose names must be non-empty and unique.
func ParsePlan(text string, maxAgents int) (*Plan, error) {
	var plan Plan
	if err := json.Unmarshal([]byte(util.ExtractJSON(text)), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	if plan.AgentCount < 1 || plan.AgentCount > maxAgents {
		return nil, fmt.Errorf("%w: agent_count %d outside 1..%d", ErrInvalidPlan, plan.AgentCount, maxAgents)
	}

	if plan.AgentCount != len(plan.Agents) {
		return nil, fmt.Errorf("%w: agent_count %d but %d agents listed", ErrInvalidPlan, plan.AgentCount, len(plan.Agents))
	}

	seen := make(map[string]struct{}, len(plan.Agents))
	for i, a := range plan.Agents {
		if a.Name == "" {
			return nil, fmt.Errorf("%w: agent %d has no name", ErrInvalidPlan, i)
		}
		if _, dup := seen[a.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate agent name %s", ErrInvalidPlan, a.Name)
		}
		seen[a.Name] = struct{}{}
	}

	if plan.TaskBreakdown == nil {
		plan.TaskBreakdown = map[string]string{}
	}

	return &plan, nil
}
