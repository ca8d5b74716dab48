// Package metrics provides metrics recording for agent loops, tool calls,
// forest coordination and orchestration runs.
package metrics

import "time"

// Loop outcomes reported via ObserveLoop.
const (
	OutcomeCompleted      = "completed"
	OutcomeIterationLimit = "iteration_limit"
	OutcomeError          = "error"
)

// Recorder defines the interface for recording agent framework metrics.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// ObserveModelCall records one model round-trip.
	ObserveModelCall(agent, model string, promptTokens, completionTokens int, success bool, duration time.Duration)

	// ObserveToolCall records one tool execution.
	ObserveToolCall(agent, tool string, success bool, duration time.Duration)

	// ObserveLoop records the outcome of one Chat call and the iterations it used.
	ObserveLoop(agent, outcome string, iterations int)

	// IncTaskTransition counts a plan task entering status.
	IncTaskTransition(forest, status string)

	// IncMessage counts a message put on a forest bus. kind is "direct" or "broadcast".
	IncMessage(forest, kind string)

	// ObserveOrchestration records one auto-orchestrated run.
	ObserveOrchestration(agentCount int, success bool, duration time.Duration)
}

// NoopRecorder implements Recorder with no-op behavior for when metrics are disabled.
type NoopRecorder struct{}

// Nop returns a no-op metrics recorder that discards all metrics.
func Nop() Recorder {
	return NoopRecorder{}
}

// OrNop returns r, or a no-op recorder when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop()
	}
	return r
}

// ObserveModelCall does nothing in the no-op recorder.
func (NoopRecorder) ObserveModelCall(_, _ string, _, _ int, _ bool, _ time.Duration) {}

// ObserveToolCall does nothing in the no-op recorder.
func (NoopRecorder) ObserveToolCall(_, _ string, _ bool, _ time.Duration) {}

// ObserveLoop does nothing in the no-op recorder.
func (NoopRecorder) ObserveLoop(_, _ string, _ int) {}

// IncTaskTransition does nothing in the no-op recorder.
func (NoopRecorder) IncTaskTransition(_, _ string) {}

// IncMessage does nothing in the no-op recorder.
func (NoopRecorder) IncMessage(_, _ string) {}

// ObserveOrchestration does nothing in the no-op recorder.
func (NoopRecorder) ObserveOrchestration(_ int, _ bool, _ time.Duration) {}
