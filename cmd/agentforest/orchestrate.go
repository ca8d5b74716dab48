package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentforest/orchestrator"
)

var (
	orchMaxAgents int
	orchNoTools   bool
	orchTimeout   time.Duration
)

var orchestrateCmd = &cobra.Command{
	Use:   "orchestrate <task>",
	Short: "Plan, spawn and run a team of agents for a task",
	Long: `Ask the planner to design a team for the task, run every spawned agent on
its subtask concurrently and print the orchestration report.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOrchestrate,
}

func init() {
	orchestrateCmd.Flags().IntVar(&orchMaxAgents, "max-agents", 0, "Upper bound on spawned agents (default: orchestrator.max_agents)")
	orchestrateCmd.Flags().BoolVar(&orchNoTools, "no-tools", false, "Do not offer the built-in tool catalog")
	orchestrateCmd.Flags().DurationVar(&orchTimeout, "timeout", 10*time.Minute, "Overall timeout (0 disables)")
}

func runOrchestrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	maxAgents := cfg.Orchestrator.MaxAgents
	if orchMaxAgents > 0 {
		maxAgents = orchMaxAgents
	}

	o, err := rt.af.NewOrchestrator(rt.llm, func(o *orchestrator.Options) {
		o.MaxAgents = maxAgents
		if !orchNoTools {
			o.Tools = builtinTools()
		}
	})
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd.Context(), orchTimeout)
	defer cancel()

	report, err := o.ExecuteTask(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), report)

	if failed := o.Failed(); len(failed) > 0 {
		rt.logger.Warn("orchestrator.agents.failed", "agents", failed)
	}

	return nil
}
