package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusRecorder_ModelCalls(t *testing.T) {
	rec := NewPrometheusRecorderWith(prometheus.NewRegistry())

	rec.ObserveModelCall("alice", "gpt", 10, 5, true, 20*time.Millisecond)
	rec.ObserveModelCall("alice", "gpt", 0, 0, false, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.modelCallsTotal.WithLabelValues("alice", "gpt", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.modelCallsTotal.WithLabelValues("alice", "gpt", "error")))
	assert.Equal(t, 10.0, testutil.ToFloat64(rec.modelTokensTotal.WithLabelValues("alice", "gpt", "prompt")))
	assert.Equal(t, 5.0, testutil.ToFloat64(rec.modelTokensTotal.WithLabelValues("alice", "gpt", "completion")))
}

func TestPrometheusRecorder_ForestCounters(t *testing.T) {
	rec := NewPrometheusRecorderWith(prometheus.NewRegistry())

	rec.IncMessage("f", "direct")
	rec.IncMessage("f", "broadcast")
	rec.IncMessage("f", "broadcast")
	rec.IncTaskTransition("f", "completed")
	rec.ObserveToolCall("bob", "send_message", true, time.Millisecond)
	rec.ObserveLoop("bob", OutcomeCompleted, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.messagesTotal.WithLabelValues("f", "direct")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.messagesTotal.WithLabelValues("f", "broadcast")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.taskTransitions.WithLabelValues("f", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.toolCallsTotal.WithLabelValues("bob", "send_message", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.loopsTotal.WithLabelValues("bob", OutcomeCompleted)))
}

func TestPrometheusRecorder_Orchestration(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorderWith(reg)

	rec.ObserveOrchestration(3, true, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.orchestrationsTotal.WithLabelValues("success")))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.orchestrationAgents))
}

func TestOrNop(t *testing.T) {
	assert.IsType(t, NoopRecorder{}, OrNop(nil))

	rec := NewPrometheusRecorderWith(prometheus.NewRegistry())
	assert.Same(t, rec, OrNop(rec))
}
