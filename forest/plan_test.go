package forest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyIDs(p *TaskPlan) []string {
	var ids []string
	for _, t := range p.ReadyTasks() {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestTaskPlan_LinearChain(t *testing.T) {
	p := NewTaskPlan("chain")
	p.AddTask("T1", "first", "a")
	p.AddTask("T2", "second", "b", "T1")

	assert.Equal(t, []string{"T1"}, readyIDs(p))

	require.NoError(t, p.Transition("T1", TaskCompleted, "done"))
	assert.Equal(t, []string{"T2"}, readyIDs(p))
}

func TestTaskPlan_Diamond(t *testing.T) {
	p := NewTaskPlan("diamond")
	p.AddTask("T1", "root", "a")
	p.AddTask("T2", "left", "a", "T1")
	p.AddTask("T3", "right", "b", "T1")
	p.AddTask("T4", "join", "b", "T2", "T3")

	assert.Equal(t, []string{"T1"}, readyIDs(p))

	require.NoError(t, p.Transition("T1", TaskCompleted, ""))
	assert.Equal(t, []string{"T2", "T3"}, readyIDs(p))

	require.NoError(t, p.Transition("T2", TaskCompleted, ""))
	assert.Equal(t, []string{"T3"}, readyIDs(p))

	require.NoError(t, p.Transition("T3", TaskCompleted, ""))
	assert.Equal(t, []string{"T4"}, readyIDs(p))
}

func TestTaskPlan_ReadinessRequiresCompletedDependencies(t *testing.T) {
	p := NewTaskPlan("deps")
	p.AddTask("T1", "root", "a")
	p.AddTask("T2", "needs T1", "a", "T1")
	p.AddTask("T3", "needs ghost", "a", "ghost")

	require.NoError(t, p.Transition("T1", TaskInProgress, ""))
	assert.Empty(t, readyIDs(p), "in-progress dependency does not unblock")

	require.NoError(t, p.Transition("T1", TaskFailed, "boom"))
	assert.Empty(t, readyIDs(p), "failed dependency does not unblock")

	for _, task := range p.Tasks {
		assert.False(t, p.IsReady(task))
	}
}

func TestTaskPlan_IsComplete(t *testing.T) {
	p := NewTaskPlan("complete")
	assert.True(t, p.IsComplete(), "empty plan is vacuously complete")

	p.AddTask("T1", "a", "x")
	p.AddTask("T2", "b", "x")
	assert.False(t, p.IsComplete())

	require.NoError(t, p.Transition("T2", TaskFailed, ""))
	assert.False(t, p.IsComplete())

	require.NoError(t, p.Transition("T1", TaskCompleted, ""))
	assert.True(t, p.IsComplete())
}

func TestTaskPlan_Progress(t *testing.T) {
	p := NewTaskPlan("progress")
	assert.Equal(t, 0.0, p.Progress().Percent())

	p.AddTask("T1", "a", "x")
	p.AddTask("T2", "b", "x")
	p.AddTask("T3", "c", "x")
	p.AddTask("T4", "d", "x")

	require.NoError(t, p.Transition("T1", TaskCompleted, ""))
	require.NoError(t, p.Transition("T2", TaskFailed, ""))
	require.NoError(t, p.Transition("T3", TaskInProgress, ""))

	pr := p.Progress()
	assert.Equal(t, Progress{Total: 4, Completed: 1, Failed: 1, InProgress: 1, Pending: 1}, pr)
	assert.LessOrEqual(t, pr.Completed, pr.Total)
	assert.Equal(t, 25.0, pr.Percent())
}

func TestTaskPlan_ForwardOnlyTransitions(t *testing.T) {
	p := NewTaskPlan("transitions")
	p.AddTask("T1", "a", "x")

	require.NoError(t, p.Transition("T1", TaskInProgress, ""))
	assert.ErrorIs(t, p.Transition("T1", TaskPending, ""), ErrInvalidTransition)
	assert.ErrorIs(t, p.Transition("T1", TaskInProgress, ""), ErrInvalidTransition)

	require.NoError(t, p.Transition("T1", TaskCompleted, "r"))
	assert.ErrorIs(t, p.Transition("T1", TaskFailed, ""), ErrInvalidTransition)

	assert.ErrorIs(t, p.Transition("missing", TaskCompleted, ""), ErrTaskNotFound)

	task, ok := p.Task("T1")
	require.True(t, ok)
	assert.Equal(t, "r", task.Result)
}

func TestTaskPlan_Validate(t *testing.T) {
	tests := []struct {
		name  string
		build func(p *TaskPlan)
		err   error
	}{
		{"empty", func(_ *TaskPlan) {}, ErrInvalidPlan},
		{"duplicate", func(p *TaskPlan) {
			p.AddTask("T1", "a", "x")
			p.AddTask("T1", "b", "x")
		}, ErrInvalidPlan},
		{"unknown dependency", func(p *TaskPlan) {
			p.AddTask("T1", "a", "x", "T9")
		}, ErrInvalidPlan},
		{"cycle", func(p *TaskPlan) {
			p.AddTask("T1", "a", "x", "T3")
			p.AddTask("T2", "b", "x", "T1")
			p.AddTask("T3", "c", "x", "T2")
		}, ErrCycleDetected},
		{"self cycle", func(p *TaskPlan) {
			p.AddTask("T1", "a", "x", "T1")
		}, ErrCycleDetected},
		{"valid", func(p *TaskPlan) {
			p.AddTask("T1", "a", "x")
			p.AddTask("T2", "b", "x", "T1")
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewTaskPlan("validate")
			tt.build(p)
			err := p.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestTaskPlan_CloneIsIndependent(t *testing.T) {
	p := NewTaskPlan("clone")
	p.AddTask("T1", "a", "x", "T0")

	c := p.Clone()
	c.Tasks[0].Dependencies[0] = "changed"
	c.Tasks[0].Status = TaskCompleted

	assert.Equal(t, "T0", p.Tasks[0].Dependencies[0])
	assert.Equal(t, TaskPending, p.Tasks[0].Status)
}
