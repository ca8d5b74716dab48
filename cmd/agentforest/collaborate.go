package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentforest/agent"
	"github.com/hupe1980/agentforest/config"
	"github.com/hupe1980/agentforest/forest"
)

var (
	collabInitiator    string
	collabParticipants []string
	collabShowPlan     bool
	collabTimeout      time.Duration
)

var collaborateCmd = &cobra.Command{
	Use:   "collaborate <task>",
	Short: "Run a task through a forest of collaborating agents",
	Long: `Build a forest from the forest.agents section of the configuration and run
the collaborative protocol: the initiator plans, participants execute their
tasks in dependency order, and the initiator synthesizes the final answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCollaborate,
}

func init() {
	collaborateCmd.Flags().StringVar(&collabInitiator, "initiator", "", "Initiating agent (default: forest.coordinator or the first agent)")
	collaborateCmd.Flags().StringSliceVar(&collabParticipants, "participants", nil, "Participating agents (default: all)")
	collaborateCmd.Flags().BoolVar(&collabShowPlan, "show-plan", false, "Print the final task plan as JSON to stderr")
	collaborateCmd.Flags().DurationVar(&collabTimeout, "timeout", 10*time.Minute, "Overall timeout (0 disables)")
}

func runCollaborate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	f, err := buildForest(rt)
	if err != nil {
		return err
	}

	initiator := collabInitiator
	if initiator == "" {
		initiator = cfg.Forest.Coordinator
	}
	if initiator == "" {
		initiator = f.Agents()[0]
	}

	ctx, cancel := commandContext(cmd.Context(), collabTimeout)
	defer cancel()

	result, err := f.ExecuteCollaborativeTask(ctx, initiator, strings.Join(args, " "), collabParticipants)
	if err != nil {
		return err
	}

	if collabShowPlan {
		if plan, ok := f.SharedContext().Plan(); ok {
			enc := json.NewEncoder(cmd.ErrOrStderr())
			enc.SetIndent("", "  ")
			if err := enc.Encode(plan); err != nil {
				return err
			}
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), result)

	return nil
}

// buildForest creates the configured forest. Without configured agents a
// planner/researcher/writer trio is used.
func buildForest(rt *runtime) (*forest.Forest, error) {
	fc := rt.cfg.Forest

	members := fc.Agents
	if len(members) == 0 {
		members = defaultForestAgents()
	}

	f := rt.af.NewForest(fc.Name, func(o *forest.Options) {
		o.ExecutionBudgetFactor = fc.ExecutionBudgetFactor
		o.PollInterval = fc.PollInterval
	})

	for _, m := range members {
		a, err := rt.af.NewAgent(m.Name, rt.llm, func(o *agent.Options) {
			o.SystemPrompt = m.SystemPrompt
		})
		if err != nil {
			return nil, err
		}
		if err := f.AddAgent(m.Name, a); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func defaultForestAgents() []config.ForestAgent {
	return []config.ForestAgent{
		{Name: "planner", SystemPrompt: "You break objectives into well-scoped tasks and coordinate the team."},
		{Name: "researcher", SystemPrompt: "You gather facts and share concise findings with the team."},
		{Name: "writer", SystemPrompt: "You turn findings into clear, well-structured prose."},
	}
}
