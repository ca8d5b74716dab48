package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentforest/agent"
	"github.com/hupe1980/agentforest/config"
	"github.com/hupe1980/agentforest/forest"
	"github.com/hupe1980/agentforest/internal/testutil"
	"github.com/hupe1980/agentforest/natsbus"
)

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Logging.Level = "error"
	return &cfg
}

func TestRuntime_MetricsAndEmbeddedBus(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Addr = "127.0.0.1:0"
	cfg.NATS.Embedded = true
	cfg.Forest.Name = "team"
	cfg.Forest.Agents = []config.ForestAgent{
		{Name: "lead", SystemPrompt: "You lead."},
		{Name: "helper", SystemPrompt: "You help."},
	}

	rt, err := newRuntime(cfg, testutil.NewScriptedModel())
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	require.NotNil(t, rt.bus)
	require.NotNil(t, rt.publisher)

	received := make(chan forest.Message, 1)
	_, err = natsbus.SubscribeMessages(rt.publisher.Conn(), natsbus.SubjectMessages("team"),
		func(_ string, msg forest.Message) { received <- msg }, nil)
	require.NoError(t, err)
	require.NoError(t, rt.publisher.Flush())

	f, err := buildForest(rt)
	require.NoError(t, err)
	assert.Equal(t, []string{"lead", "helper"}, f.Agents())

	_, err = f.SendMessage("lead", "helper", "start")
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Equal(t, "start", msg.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for mirrored message")
	}

	resp, err := http.Get("http://" + rt.metricsAddr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "agentforest_messages_total")
}

func TestBuildForest_DefaultMembers(t *testing.T) {
	rt, err := newRuntime(testConfig(), testutil.NewScriptedModel())
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	f, err := buildForest(rt)
	require.NoError(t, err)
	assert.Equal(t, []string{"planner", "researcher", "writer"}, f.Agents())

	a, ok := f.Agent("writer")
	require.True(t, ok)
	assert.True(t, a.Tools().Has(forest.ToolCreatePlan))
}

func TestChatLoop(t *testing.T) {
	llm := testutil.NewScriptedModel(
		testutil.CallTurn("", testutil.Call("c1", "calculator", `{"operation":"add","a":40,"b":2}`)),
		testutil.Reply("The answer is 42."),
		testutil.Reply("You are welcome."),
	)

	rt, err := newRuntime(testConfig(), llm)
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	a, err := rt.af.NewAgent("assistant", rt.llm, func(o *agent.Options) {
		o.Tools = builtinTools()
	})
	require.NoError(t, err)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&out)

	require.NoError(t, chatLoop(cmd, a, strings.NewReader("what is 40+2?\n\nthanks\n")))

	assert.Equal(t, "The answer is 42.\nYou are welcome.\n", out.String())
	assert.Equal(t, 3, llm.CallCount())
}

func TestChatLoop_Streaming(t *testing.T) {
	chatStream = true
	t.Cleanup(func() { chatStream = false })

	llm := testutil.NewScriptedModel(testutil.Reply("streamed reply here"))

	rt, err := newRuntime(testConfig(), llm)
	require.NoError(t, err)
	t.Cleanup(rt.Close)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&out)

	a, err := rt.af.NewAgent("assistant", rt.llm, func(o *agent.Options) {
		o.Stream = true
		o.OnChunk = func(text string) { fmt.Fprint(cmd.OutOrStdout(), text) }
	})
	require.NoError(t, err)

	require.NoError(t, chatLoop(cmd, a, strings.NewReader("hello\n")))

	assert.Equal(t, "streamed reply here\n", out.String())
	require.Len(t, llm.Requests(), 1)
	assert.True(t, llm.Requests()[0].Stream)
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Cleanup(func() {
		configPath, logLevel, metricsAddr, natsURL, embeddedNATS = "", "", "", "", false
	})

	configPath = t.TempDir() + "/missing.yaml"
	logLevel = "debug"
	metricsAddr = "127.0.0.1:9999"
	embeddedNATS = true

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9999", cfg.Metrics.Addr)
	assert.True(t, cfg.NATS.Embedded)

	logLevel = "loud"
	_, err = loadConfig()
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
