package forest

import "errors"

var (
	// ErrAgentNotFound is returned when an agent name is not part of the forest.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrDuplicateAgent is returned by AddAgent when the name is taken or the
	// agent already belongs to a forest.
	ErrDuplicateAgent = errors.New("agent already exists")

	// ErrNoPlan is returned by plan operations when no plan is installed.
	ErrNoPlan = errors.New("no active task plan")

	// ErrTaskNotFound is returned when a task id is not part of the plan.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidPlan is returned when a plan fails structural validation.
	ErrInvalidPlan = errors.New("invalid task plan")

	// ErrInvalidTransition is returned when a task status would move backwards.
	ErrInvalidTransition = errors.New("invalid task status transition")

	// ErrNotParticipant is returned when a task is assigned to a forest member
	// outside the participants of the running collaboration.
	ErrNotParticipant = errors.New("agent is not a participant")

	// ErrPlanInProgress is returned by create_plan while a plan is executing.
	ErrPlanInProgress = errors.New("a plan is already executing")

	// ErrCycleDetected indicates a circular dependency in a task plan.
	ErrCycleDetected = errors.New("circular dependency detected")
)
