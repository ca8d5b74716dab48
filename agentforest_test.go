package agentforest

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentforest/agent"
	"github.com/hupe1980/agentforest/internal/testutil"
	"github.com/hupe1980/agentforest/metrics"
	"github.com/hupe1980/agentforest/orchestrator"
)

func TestNew_Defaults(t *testing.T) {
	af := New()
	assert.NotNil(t, af.Logger())
	assert.NotNil(t, af.Recorder())

	a, err := af.NewAgent("helper", testutil.NewScriptedModel())
	require.NoError(t, err)
	assert.Equal(t, agent.DefaultMaxIterations, a.MaxIterations())
}

func TestNewAgent_ComponentOptionsWin(t *testing.T) {
	af := New(func(o *Options) { o.MaxIterations = 4 })

	a, err := af.NewAgent("helper", testutil.NewScriptedModel())
	require.NoError(t, err)
	assert.Equal(t, 4, a.MaxIterations())

	b, err := af.NewAgent("other", testutil.NewScriptedModel(), func(o *agent.Options) {
		o.MaxIterations = 2
	})
	require.NoError(t, err)
	assert.Equal(t, 2, b.MaxIterations())
}

func TestSharedRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	af := New(func(o *Options) { o.Recorder = metrics.NewPrometheusRecorderWith(reg) })

	a, err := af.NewAgent("helper", testutil.NewScriptedModel(testutil.Reply("hi")))
	require.NoError(t, err)

	out, err := a.Chat(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	f := af.NewForest("team")
	require.NoError(t, f.AddAgent("a", a))
	b, err := af.NewAgent("b", testutil.NewScriptedModel())
	require.NoError(t, err)
	require.NoError(t, f.AddAgent("b", b))

	_, err = f.SendMessage("a", "b", "ping")
	require.NoError(t, err)

	count, err := promtest.GatherAndCount(reg, "agentforest_messages_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewOrchestrator(t *testing.T) {
	af := New()

	_, err := af.NewOrchestrator(nil)
	assert.ErrorIs(t, err, agent.ErrInvalidConfig)

	o, err := af.NewOrchestrator(testutil.NewScriptedModel(), func(o *orchestrator.Options) {
		o.MaxAgents = 2
	})
	require.NoError(t, err)
	assert.NotNil(t, o)
}
