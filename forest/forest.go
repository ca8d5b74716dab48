package forest

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentforest/agent"
	"github.com/hupe1980/agentforest/core"
	"github.com/hupe1980/agentforest/logging"
	"github.com/hupe1980/agentforest/metrics"
)

// Defaults for Options.
const (
	DefaultMaxIterations         = agent.DefaultMaxIterations
	DefaultExecutionBudgetFactor = 3
	DefaultPollInterval          = 100 * time.Millisecond
)

// Options configures a Forest.
type Options struct {
	// MaxIterations is the forest's default iteration cap. The execution
	// phase runs at most MaxIterations*ExecutionBudgetFactor scheduling passes.
	MaxIterations int

	// ExecutionBudgetFactor scales MaxIterations into the pass budget.
	ExecutionBudgetFactor int

	// PollInterval is the pause before rechecking when no task is ready but
	// some task is still in progress.
	PollInterval time.Duration

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Recorder receives message and task transition metrics.
	Recorder metrics.Recorder

	// Publisher mirrors messages and task updates (optional).
	Publisher Publisher
}

// Forest is a named group of agents sharing one SharedContext.
type Forest struct {
	name      string
	opts      Options
	shared    *SharedContext
	logger    logging.Logger
	recorder  metrics.Recorder
	publisher Publisher

	mu     sync.RWMutex
	agents map[string]*agent.Agent
	order  []string
}

// New creates an empty forest.
func New(name string, optFns ...func(o *Options)) *Forest {
	opts := Options{
		MaxIterations:         DefaultMaxIterations,
		ExecutionBudgetFactor: DefaultExecutionBudgetFactor,
		PollInterval:          DefaultPollInterval,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}

	if opts.ExecutionBudgetFactor <= 0 {
		opts.ExecutionBudgetFactor = DefaultExecutionBudgetFactor
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	publisher := opts.Publisher
	if publisher == nil {
		publisher = noopPublisher{}
	}

	return &Forest{
		name:      name,
		opts:      opts,
		shared:    NewSharedContext(),
		logger:    logging.With(logging.OrNoOp(opts.Logger), "forest", name),
		recorder:  metrics.OrNop(opts.Recorder),
		publisher: publisher,
		agents:    map[string]*agent.Agent{},
	}
}

// Name returns the forest name.
func (f *Forest) Name() string { return f.name }

// AddAgent registers a under id and equips it with the coordination tools.
// An agent belongs to at most one forest; adding it twice fails with
// ErrDuplicateAgent.
func (f *Forest) AddAgent(id string, a *agent.Agent) error {
	if id == "" || a == nil {
		return fmt.Errorf("add agent: id and agent are required")
	}

	// Coordination tools are bound to one forest; rebinding would reroute them.
	if a.Tools().Has(ToolSendMessage) {
		return fmt.Errorf("%w: %s already belongs to a forest", ErrDuplicateAgent, a.Name())
	}

	f.mu.Lock()
	if _, exists := f.agents[id]; exists {
		f.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateAgent, id)
	}
	f.agents[id] = a
	f.order = append(f.order, id)
	f.mu.Unlock()

	a.RegisterTools(f.coordinationTools(id)...)

	f.logger.Info("forest.agent.added", "agent_id", id, "tools", a.Tools().Len())

	return nil
}

// Agent returns the agent registered under id.
func (f *Forest) Agent(id string) (*agent.Agent, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	a, ok := f.agents[id]
	return a, ok
}

// Agents returns agent ids in registration order.
func (f *Forest) Agents() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.order...)
}

func (f *Forest) requireAgent(id string) (*agent.Agent, error) {
	a, ok := f.Agent(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	return a, nil
}

// SharedContext returns the forest's shared state.
func (f *Forest) SharedContext() *SharedContext { return f.shared }

// GetSharedContext reads a value from the shared store.
func (f *Forest) GetSharedContext(key string) (any, bool) { return f.shared.Get(key) }

// SetSharedContext writes a JSON-encodable value to the shared store.
func (f *Forest) SetSharedContext(key string, value any) error { return f.shared.Set(key, value) }

// SendMessage queues a message from one agent to another. An empty to
// broadcasts to every agent except the sender.
func (f *Forest) SendMessage(from, to, content string) (Message, error) {
	return f.SendMessageWithMetadata(from, to, content, nil)
}

// SendMessageWithMetadata is SendMessage with message metadata.
func (f *Forest) SendMessageWithMetadata(from, to, content string, metadata map[string]any) (Message, error) {
	if _, err := f.requireAgent(from); err != nil {
		return Message{}, fmt.Errorf("sender: %w", err)
	}

	if to != "" {
		if _, err := f.requireAgent(to); err != nil {
			return Message{}, fmt.Errorf("recipient: %w", err)
		}
	}

	msg := NewMessage(from, to, content, metadata)
	f.shared.Send(msg)

	f.recorder.IncMessage(f.name, msg.Kind())
	if err := f.publisher.PublishMessage(f.name, msg); err != nil {
		f.logger.Warn("forest.publish.error", "message_id", msg.ID, "error", err.Error())
	}

	f.logger.Debug("forest.message.sent", "from", from, "to", to, "kind", msg.Kind())

	return msg, nil
}

// ProcessMessages drains the queue once, appending each message to its
// recipients' conversations as a user turn. Broadcasts reach every agent but
// the sender. It returns the number of messages drained.
func (f *Forest) ProcessMessages() int {
	pending := f.shared.Drain()
	if len(pending) == 0 {
		return 0
	}

	for _, msg := range pending {
		turn := core.NewUserMessage(msg.Framed())

		if !msg.IsBroadcast() {
			recipient, ok := f.Agent(msg.To)
			if !ok {
				f.logger.Warn("forest.message.undeliverable", "message_id", msg.ID, "to", msg.To)
				continue
			}
			recipient.AppendMessage(turn)
			continue
		}

		for _, id := range f.Agents() {
			if id == msg.From {
				continue
			}
			if a, ok := f.Agent(id); ok {
				a.AppendMessage(turn)
			}
		}
	}

	f.logger.Debug("forest.messages.processed", "count", len(pending))

	return len(pending)
}

// Reset clears shared state and every member's conversation. Agents and
// their tools are kept.
func (f *Forest) Reset() {
	f.shared.Reset()
	for _, id := range f.Agents() {
		if a, ok := f.Agent(id); ok {
			a.Reset()
		}
	}
	f.logger.Info("forest.reset")
}

func (f *Forest) taskChanged(task TaskItem) {
	f.recorder.IncTaskTransition(f.name, string(task.Status))
	if err := f.publisher.PublishTaskUpdate(f.name, task); err != nil {
		f.logger.Warn("forest.publish.error", "task_id", task.ID, "error", err.Error())
	}
	f.logger.Info("forest.task."+string(task.Status), "task_id", task.ID, "assigned_to", task.AssignedTo)
}
