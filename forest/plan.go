package forest

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/hupe1980/agentforest/core"
)

// TaskStatus is the lifecycle state of a TaskItem.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// rank orders statuses; transitions only move to a higher rank.
func (s TaskStatus) rank() int {
	switch s {
	case TaskPending:
		return 0
	case TaskInProgress:
		return 1
	case TaskCompleted, TaskFailed:
		return 2
	default:
		return -1
	}
}

// IsTerminal reports whether the status is Completed or Failed.
func (s TaskStatus) IsTerminal() bool { return s == TaskCompleted || s == TaskFailed }

// CanTransitionTo reports whether moving from s to next is allowed.
// Pending may jump straight to a terminal state; terminal states are final.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	if next.rank() < 0 || s.IsTerminal() {
		return false
	}
	return next.rank() > s.rank()
}

// TaskItem is one unit of work in a TaskPlan.
type TaskItem struct {
	ID           string         `json:"id"`
	Description  string         `json:"description"`
	AssignedTo   string         `json:"assigned_to"`
	Status       TaskStatus     `json:"status"`
	Result       string         `json:"result,omitempty"`
	Dependencies []string       `json:"dependencies,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Clone returns a deep copy of the task (metadata values are shared).
func (t TaskItem) Clone() TaskItem {
	t.Dependencies = slices.Clone(t.Dependencies)
	t.Metadata = maps.Clone(t.Metadata)
	return t
}

// TaskPlan is an ordered set of tasks with dependencies toward one objective.
// TaskPlan is not safe for concurrent use; SharedContext guards the installed plan.
type TaskPlan struct {
	ID        string     `json:"id"`
	Objective string     `json:"objective"`
	Tasks     []TaskItem `json:"tasks"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewTaskPlan creates an empty plan for objective.
func NewTaskPlan(objective string) *TaskPlan {
	return &TaskPlan{
		ID:        core.NewID(),
		Objective: objective,
		CreatedAt: time.Now(),
	}
}

// AddTask appends a Pending task. Dependencies are stored verbatim and not
// checked; see Validate.
func (p *TaskPlan) AddTask(id, description, assignedTo string, dependencies ...string) {
	p.Tasks = append(p.Tasks, TaskItem{
		ID:           id,
		Description:  description,
		AssignedTo:   assignedTo,
		Status:       TaskPending,
		Dependencies: slices.Clone(dependencies),
		Metadata:     map[string]any{},
	})
}

// Task returns the task with id.
func (p *TaskPlan) Task(id string) (TaskItem, bool) {
	if i := p.index(id); i >= 0 {
		return p.Tasks[i], true
	}
	return TaskItem{}, false
}

func (p *TaskPlan) index(id string) int {
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (p *TaskPlan) statusOf(id string) (TaskStatus, bool) {
	if i := p.index(id); i >= 0 {
		return p.Tasks[i].Status, true
	}
	return "", false
}

// IsReady reports whether task is Pending and every dependency names a
// Completed task. A dependency on an unknown task is never satisfied.
func (p *TaskPlan) IsReady(task TaskItem) bool {
	if task.Status != TaskPending {
		return false
	}
	for _, dep := range task.Dependencies {
		if st, ok := p.statusOf(dep); !ok || st != TaskCompleted {
			return false
		}
	}
	return true
}

// ReadyTasks returns the ready tasks in plan order.
func (p *TaskPlan) ReadyTasks() []TaskItem {
	var ready []TaskItem
	for _, t := range p.Tasks {
		if p.IsReady(t) {
			ready = append(ready, t.Clone())
		}
	}
	return ready
}

// HasInProgress reports whether any task is InProgress.
func (p *TaskPlan) HasInProgress() bool {
	for _, t := range p.Tasks {
		if t.Status == TaskInProgress {
			return true
		}
	}
	return false
}

// IsComplete reports whether every task is Completed or Failed.
func (p *TaskPlan) IsComplete() bool {
	for _, t := range p.Tasks {
		if !t.Status.IsTerminal() {
			return false
		}
	}
	return true
}

// Transition moves task id to status, optionally recording result.
func (p *TaskPlan) Transition(id string, status TaskStatus, result string) error {
	i := p.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	t := &p.Tasks[i]
	if !t.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w: task %s %s -> %s", ErrInvalidTransition, id, t.Status, status)
	}

	t.Status = status
	if result != "" {
		t.Result = result
	}

	return nil
}

// Progress summarises task states.
type Progress struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	InProgress int `json:"in_progress"`
	Pending    int `json:"pending"`
}

// Percent returns the share of Completed tasks, 0 for an empty plan.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total) * 100
}

// Progress counts tasks per status.
func (p *TaskPlan) Progress() Progress {
	pr := Progress{Total: len(p.Tasks)}
	for _, t := range p.Tasks {
		switch t.Status {
		case TaskCompleted:
			pr.Completed++
		case TaskFailed:
			pr.Failed++
		case TaskInProgress:
			pr.InProgress++
		default:
			pr.Pending++
		}
	}
	return pr
}

// Clone returns a deep copy of the plan.
func (p *TaskPlan) Clone() *TaskPlan {
	if p == nil {
		return nil
	}
	c := *p
	c.Tasks = make([]TaskItem, len(p.Tasks))
	for i, t := range p.Tasks {
		c.Tasks[i] = t.Clone()
	}
	return &c
}

// Validate checks structural validity: non-empty unique ids, known
// dependencies and no cycles. Errors wrap ErrInvalidPlan.
func (p *TaskPlan) Validate() error {
	if len(p.Tasks) == 0 {
		return fmt.Errorf("%w: plan has no tasks", ErrInvalidPlan)
	}

	ids := make(map[string]struct{}, len(p.Tasks))
	for _, t := range p.Tasks {
		if t.ID == "" {
			return fmt.Errorf("%w: task with empty id", ErrInvalidPlan)
		}
		if _, dup := ids[t.ID]; dup {
			return fmt.Errorf("%w: duplicate task id %s", ErrInvalidPlan, t.ID)
		}
		ids[t.ID] = struct{}{}
	}

	for _, t := range p.Tasks {
		for _, dep := range t.Dependencies {
			if _, ok := ids[dep]; !ok {
				return fmt.Errorf("%w: task %s depends on unknown task %s", ErrInvalidPlan, t.ID, dep)
			}
		}
	}

	if id, ok := p.findCycle(); ok {
		return fmt.Errorf("%w: %w at task %s", ErrInvalidPlan, ErrCycleDetected, id)
	}

	return nil
}

// findCycle runs a depth-first search with colouring and returns a task on
// the first back edge found.
func (p *TaskPlan) findCycle() (string, bool) {
	const (
		white = iota // unvisited
		grey         // in progress
		black        // done
	)

	colors := make(map[string]int, len(p.Tasks))

	var visit func(id string) (string, bool)
	visit = func(id string) (string, bool) {
		colors[id] = grey

		if i := p.index(id); i >= 0 {
			for _, dep := range p.Tasks[i].Dependencies {
				switch colors[dep] {
				case grey:
					return dep, true
				case white:
					if at, found := visit(dep); found {
						return at, true
					}
				}
			}
		}

		colors[id] = black
		return "", false
	}

	for _, t := range p.Tasks {
		if colors[t.ID] == white {
			if at, found := visit(t.ID); found {
				return at, true
			}
		}
	}

	return "", false
}
