package forest

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// Metadata keys written to the SharedContext by ExecuteCollaborativeTask.
const (
	MetaStatus       = "status"
	MetaObjective    = "objective"
	MetaInitiator    = "initiator"
	MetaParticipants = "participants"

	StatusPlanning  = "planning"
	StatusExecuting = "executing"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ExecuteCollaborativeTask runs the plan, execute and synthesise protocol:
//
//  1. The initiator is asked to author a TaskPlan via create_plan. Without a
//     plan the initiator attempts the task alone and that answer is returned.
//  2. Ready tasks are dispatched to their assignees in plan order, one at a
//     time, until the plan is complete, nothing is runnable, or the pass
//     budget (MaxIterations*ExecutionBudgetFactor) runs out.
//  3. The initiator synthesises every task result into the final answer.
//
// Unknown initiator or participants fail with ErrAgentNotFound before any
// model call. An empty participants list means every forest member. Only
// participants can be assigned tasks. Task errors propagate immediately and
// leave the status at StatusFailed; completed work is not rolled back.
func (f *Forest) ExecuteCollaborativeTask(ctx context.Context, initiator, task string, participants []string) (_ string, err error) {
	coordinator, err := f.requireAgent(initiator)
	if err != nil {
		return "", fmt.Errorf("initiator: %w", err)
	}

	if len(participants) == 0 {
		participants = f.Agents()
	}

	for _, id := range participants {
		if _, err := f.requireAgent(id); err != nil {
			return "", fmt.Errorf("participant: %w", err)
		}
	}

	f.shared.SetPlan(nil)
	f.shared.SetMetadata(MetaObjective, task)
	f.shared.SetMetadata(MetaInitiator, initiator)
	f.shared.SetMetadata(MetaParticipants, slices.Clone(participants))
	f.shared.SetMetadata(MetaStatus, StatusPlanning)

	defer func() {
		if err != nil {
			f.shared.SetMetadata(MetaStatus, StatusFailed)
		}
	}()

	f.logger.Info("forest.collab.start", "initiator", initiator, "participants", len(participants))

	// Phase 1: plan
	prompt, err := planningPrompt(task, f.rosterLines(participants))
	if err != nil {
		return "", err
	}

	if _, err := coordinator.Chat(ctx, prompt); err != nil {
		return "", fmt.Errorf("planning: %w", err)
	}

	if !f.shared.HasPlan() {
		f.logger.Warn("forest.collab.no_plan", "initiator", initiator)

		prompt, err := directPrompt(task)
		if err != nil {
			return "", err
		}

		answer, err := coordinator.Chat(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("direct execution: %w", err)
		}

		f.shared.SetMetadata(MetaStatus, StatusCompleted)

		return answer, nil
	}

	// Phase 2: execute
	f.shared.SetMetadata(MetaStatus, StatusExecuting)

	if err := f.executePlan(ctx); err != nil {
		return "", err
	}

	// Phase 3: synthesise
	plan, _ := f.shared.Plan()

	prompt, err = synthesisPrompt(plan)
	if err != nil {
		return "", err
	}

	answer, err := coordinator.Chat(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("synthesis: %w", err)
	}

	f.shared.SetMetadata(MetaStatus, StatusCompleted)

	progress := plan.Progress()
	f.logger.Info(
		"forest.collab.complete",
		"tasks", progress.Total,
		"completed", progress.Completed,
		"failed", progress.Failed,
	)

	return answer, nil
}

func (f *Forest) executePlan(ctx context.Context) error {
	budget := f.opts.MaxIterations * f.opts.ExecutionBudgetFactor

	for pass := 1; pass <= budget; pass++ {
		if f.shared.IsPlanComplete() {
			return nil
		}

		ready := f.shared.ReadyTasks()
		if len(ready) == 0 {
			if !f.shared.HasInProgress() {
				f.logger.Warn("forest.collab.stalled", "pass", pass)
				return nil
			}

			if err := sleep(ctx, f.opts.PollInterval); err != nil {
				return err
			}
			continue
		}

		for _, task := range ready {
			if err := f.runTask(ctx, task.ID); err != nil {
				return err
			}
		}
	}

	if !f.shared.IsPlanComplete() {
		f.logger.Warn("forest.collab.budget_exhausted", "budget", budget)
	}

	return nil
}

// runTask executes one ready task on its assignee. A task that stopped being
// Pending since the ready set was computed is skipped.
func (f *Forest) runTask(ctx context.Context, id string) error {
	current, err := f.shared.Task(id)
	if err != nil {
		return err
	}
	if current.Status != TaskPending {
		return nil
	}

	assignee, ok := f.Agent(current.AssignedTo)
	if !ok {
		failed, ferr := f.shared.FailTask(id, "assigned agent not found")
		if ferr == nil {
			f.taskChanged(failed)
		}
		return fmt.Errorf("task %s: %w: %s", id, ErrAgentNotFound, current.AssignedTo)
	}

	if !f.isParticipant(current.AssignedTo) {
		failed, ferr := f.shared.FailTask(id, "assigned agent is not a participant")
		if ferr == nil {
			f.taskChanged(failed)
		}
		return fmt.Errorf("task %s: %w: %s", id, ErrNotParticipant, current.AssignedTo)
	}

	started, err := f.shared.StartTask(id)
	if err != nil {
		return err
	}
	f.taskChanged(started)

	plan, _ := f.shared.Plan()

	prompt, err := taskPrompt(plan, started, f.shared.Data())
	if err != nil {
		return err
	}

	start := time.Now()
	out, err := assignee.Chat(ctx, prompt)
	if err != nil {
		if failed, ferr := f.shared.FailTask(id, err.Error()); ferr == nil {
			f.taskChanged(failed)
		}
		return fmt.Errorf("task %s (%s): %w", id, current.AssignedTo, err)
	}

	// Fall back to the reply when the agent did not record a result itself.
	if t, err := f.shared.Task(id); err == nil && t.Status == TaskInProgress {
		completed, err := f.shared.CompleteTask(id, out, nil)
		if err != nil {
			return err
		}
		f.taskChanged(completed)
	}

	f.logger.Debug("forest.task.finished", "task_id", id, "duration_ms", time.Since(start).Milliseconds())

	f.ProcessMessages()

	return nil
}

// collabStatus returns the MetaStatus of the current run, if any.
func (f *Forest) collabStatus() string {
	v, _ := f.shared.Metadata(MetaStatus)
	status, _ := v.(string)
	return status
}

// isParticipant reports whether id may be assigned work. Outside a running
// collaboration every member qualifies.
func (f *Forest) isParticipant(id string) bool {
	switch f.collabStatus() {
	case StatusPlanning, StatusExecuting:
	default:
		return true
	}

	v, ok := f.shared.Metadata(MetaParticipants)
	if !ok {
		return true
	}
	roster, _ := v.([]string)
	return slices.Contains(roster, id)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
