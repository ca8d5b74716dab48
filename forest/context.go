package forest

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
)

// SharedContext is the per-forest state shared by every agent: a key/value
// store of JSON values, the message history, the pending message queue,
// metadata and at most one current TaskPlan. One RWMutex guards everything
// and is never held across a model call.
type SharedContext struct {
	mu       sync.RWMutex
	data     map[string]any
	history  []Message
	queue    []Message
	metadata map[string]any
	plan     *TaskPlan
}

// NewSharedContext creates an empty context.
func NewSharedContext() *SharedContext {
	return &SharedContext{
		data:     map[string]any{},
		metadata: map[string]any{},
	}
}

// normalize converts v to its JSON value form so the store only ever holds
// JSON-compatible values (map[string]any, []any, string, float64, bool, nil).
func normalize(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64:
		return v, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("value is not JSON encodable: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Set stores a JSON-encodable value under key.
func (c *SharedContext) Set(key string, value any) error {
	v, err := normalize(value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	c.mu.Lock()
	c.data[key] = v
	c.mu.Unlock()

	return nil
}

// Get returns the value stored under key.
func (c *SharedContext) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

// Remove deletes key and reports whether it existed.
func (c *SharedContext) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; !ok {
		return false
	}
	delete(c.data, key)
	return true
}

// Keys returns the sorted keys of the store.
func (c *SharedContext) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Data returns a shallow copy of the store.
func (c *SharedContext) Data() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.data)
}

// SetMetadata records a metadata value.
func (c *SharedContext) SetMetadata(key string, value any) {
	c.mu.Lock()
	c.metadata[key] = value
	c.mu.Unlock()
}

// Metadata returns a metadata value.
func (c *SharedContext) Metadata(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.metadata[key]
	return v, ok
}

// Send enqueues msg and records it in history in one critical section.
func (c *SharedContext) Send(msg Message) {
	c.mu.Lock()
	c.queue = append(c.queue, msg)
	c.history = append(c.history, msg)
	c.mu.Unlock()
}

// Drain removes and returns every pending message in FIFO order.
func (c *SharedContext) Drain() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := c.queue
	c.queue = nil
	return pending
}

// Pending returns the number of undelivered messages.
func (c *SharedContext) Pending() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.queue)
}

// History returns a copy of every message ever sent.
func (c *SharedContext) History() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.history)
}

// SetPlan installs plan, replacing any current plan.
func (c *SharedContext) SetPlan(plan *TaskPlan) {
	c.mu.Lock()
	c.plan = plan
	c.mu.Unlock()
}

// Plan returns a copy of the current plan.
func (c *SharedContext) Plan() (*TaskPlan, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.plan == nil {
		return nil, false
	}
	return c.plan.Clone(), true
}

// HasPlan reports whether a plan is installed.
func (c *SharedContext) HasPlan() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.plan != nil
}

// ReadyTasks returns the current plan's ready tasks in plan order.
func (c *SharedContext) ReadyTasks() []TaskItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.plan == nil {
		return nil
	}
	return c.plan.ReadyTasks()
}

// HasInProgress reports whether any plan task is InProgress.
func (c *SharedContext) HasInProgress() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.plan != nil && c.plan.HasInProgress()
}

// IsPlanComplete reports whether a plan is installed and complete.
func (c *SharedContext) IsPlanComplete() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.plan != nil && c.plan.IsComplete()
}

// Progress returns task counts for the current plan.
func (c *SharedContext) Progress() (Progress, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.plan == nil {
		return Progress{}, false
	}
	return c.plan.Progress(), true
}

// Task returns a copy of the task with id from the current plan.
func (c *SharedContext) Task(id string) (TaskItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.plan == nil {
		return TaskItem{}, ErrNoPlan
	}
	t, ok := c.plan.Task(id)
	if !ok {
		return TaskItem{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return t.Clone(), nil
}

// StartTask moves a task to InProgress.
func (c *SharedContext) StartTask(id string) (TaskItem, error) {
	return c.transition(id, TaskInProgress, "", nil)
}

// CompleteTask marks a task Completed with result. Non-empty findings are
// stored in the task metadata under "findings".
func (c *SharedContext) CompleteTask(id, result string, findings map[string]any) (TaskItem, error) {
	return c.transition(id, TaskCompleted, result, findings)
}

// FailTask marks a task Failed with the failure reason as result.
func (c *SharedContext) FailTask(id, reason string) (TaskItem, error) {
	return c.transition(id, TaskFailed, reason, nil)
}

func (c *SharedContext) transition(id string, status TaskStatus, result string, findings map[string]any) (TaskItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.plan == nil {
		return TaskItem{}, ErrNoPlan
	}

	if err := c.plan.Transition(id, status, result); err != nil {
		return TaskItem{}, err
	}

	i := c.plan.index(id)
	if len(findings) > 0 {
		if c.plan.Tasks[i].Metadata == nil {
			c.plan.Tasks[i].Metadata = map[string]any{}
		}
		c.plan.Tasks[i].Metadata["findings"] = maps.Clone(findings)
	}

	return c.plan.Tasks[i].Clone(), nil
}

// Reset clears data, history, queue, metadata and plan.
func (c *SharedContext) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = map[string]any{}
	c.metadata = map[string]any{}
	c.history = nil
	c.queue = nil
	c.plan = nil
}
