package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusRecorder implements the Recorder interface using Prometheus metrics.
type PrometheusRecorder struct {
	modelCallsTotal     *prometheus.CounterVec
	modelTokensTotal    *prometheus.CounterVec
	modelCallDuration   *prometheus.HistogramVec
	toolCallsTotal      *prometheus.CounterVec
	toolCallDuration    *prometheus.HistogramVec
	loopsTotal          *prometheus.CounterVec
	loopIterations      *prometheus.HistogramVec
	taskTransitions     *prometheus.CounterVec
	messagesTotal       *prometheus.CounterVec
	orchestrationsTotal *prometheus.CounterVec
	orchestrationAgents prometheus.Histogram
	orchestrationTime   prometheus.Histogram
}

// NewPrometheusRecorder creates a recorder registered with the default registerer.
func NewPrometheusRecorder() *PrometheusRecorder {
	return NewPrometheusRecorderWith(prometheus.DefaultRegisterer)
}

// NewPrometheusRecorderWith creates a recorder registered with reg. Passing a
// fresh prometheus.NewRegistry() keeps tests isolated.
func NewPrometheusRecorderWith(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		modelCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentforest_model_calls_total",
				Help: "Total number of model round-trips by agent, model and status",
			},
			[]string{"agent", "model", "status"},
		),
		modelTokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentforest_model_tokens_total",
				Help: "Total number of tokens used in model calls",
			},
			[]string{"agent", "model", "type"},
		),
		modelCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentforest_model_call_duration_seconds",
				Help:    "Duration of model calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"agent", "model"},
		),
		toolCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentforest_tool_calls_total",
				Help: "Total number of tool executions by agent, tool and status",
			},
			[]string{"agent", "tool", "status"},
		),
		toolCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentforest_tool_call_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		loopsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentforest_agent_loops_total",
				Help: "Total number of agent chat loops by outcome",
			},
			[]string{"agent", "outcome"},
		),
		loopIterations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentforest_agent_loop_iterations",
				Help:    "Model round-trips used per agent chat loop",
				Buckets: prometheus.LinearBuckets(1, 1, 10),
			},
			[]string{"agent"},
		),
		taskTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentforest_task_transitions_total",
				Help: "Total number of plan task status transitions",
			},
			[]string{"forest", "status"},
		),
		messagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentforest_messages_total",
				Help: "Total number of messages sent on forest buses",
			},
			[]string{"forest", "kind"},
		),
		orchestrationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentforest_orchestrations_total",
				Help: "Total number of auto-orchestrated runs by status",
			},
			[]string{"status"},
		),
		orchestrationAgents: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agentforest_orchestration_agents",
				Help:    "Number of agents spawned per orchestration",
				Buckets: prometheus.LinearBuckets(1, 1, 10),
			},
		),
		orchestrationTime: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agentforest_orchestration_duration_seconds",
				Help:    "Duration of auto-orchestrated runs in seconds",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
		),
	}
}

// ObserveModelCall records metrics for a completed model round-trip.
func (p *PrometheusRecorder) ObserveModelCall(agent, model string, promptTokens, completionTokens int, success bool, duration time.Duration) {
	p.modelCallsTotal.WithLabelValues(agent, model, status(success)).Inc()

	// Record tokens (only on success)
	if success {
		p.modelTokensTotal.WithLabelValues(agent, model, "prompt").Add(float64(promptTokens))
		p.modelTokensTotal.WithLabelValues(agent, model, "completion").Add(float64(completionTokens))
	}

	p.modelCallDuration.WithLabelValues(agent, model).Observe(duration.Seconds())
}

// ObserveToolCall records metrics for one tool execution.
func (p *PrometheusRecorder) ObserveToolCall(agent, tool string, success bool, duration time.Duration) {
	p.toolCallsTotal.WithLabelValues(agent, tool, status(success)).Inc()
	p.toolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// ObserveLoop records the outcome of one agent chat loop.
func (p *PrometheusRecorder) ObserveLoop(agent, outcome string, iterations int) {
	p.loopsTotal.WithLabelValues(agent, outcome).Inc()
	p.loopIterations.WithLabelValues(agent).Observe(float64(iterations))
}

// IncTaskTransition counts a plan task entering status.
func (p *PrometheusRecorder) IncTaskTransition(forest, status string) {
	p.taskTransitions.WithLabelValues(forest, status).Inc()
}

// IncMessage counts a forest bus message.
func (p *PrometheusRecorder) IncMessage(forest, kind string) {
	p.messagesTotal.WithLabelValues(forest, kind).Inc()
}

// ObserveOrchestration records one auto-orchestrated run.
func (p *PrometheusRecorder) ObserveOrchestration(agentCount int, success bool, duration time.Duration) {
	p.orchestrationsTotal.WithLabelValues(status(success)).Inc()
	if agentCount > 0 {
		p.orchestrationAgents.Observe(float64(agentCount))
	}
	p.orchestrationTime.Observe(duration.Seconds())
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
