package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/agentforest/core"
	"github.com/hupe1980/agentforest/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages_GroupsToolResults(t *testing.T) {
	msgs := []core.Message{
		core.NewSystemMessage("sys"),
		core.NewUserMessage("what is 2+2 and 3+3?"),
		core.NewAssistantMessage("", core.ToolCall{ID: "a", Name: "calc", Arguments: `{"x":1}`}, core.ToolCall{ID: "b", Name: "calc", Arguments: `{"x":2}`}),
		core.NewToolMessage("a", "calc", "4"),
		core.NewToolMessage("b", "calc", "Error: boom"),
		core.NewAssistantMessage("4 and unknown"),
	}

	out := buildMessages(msgs)
	// user, assistant(tool_use), user(tool_results), assistant
	assert.Len(t, out, 4)
	assert.Len(t, out[2].Content, 2)
}

func TestBuildTools_RequiredAndDescription(t *testing.T) {
	defs := []model.ToolDefinition{model.ToolDefinitionOf("calc", "Do math", map[string]any{
		"type":       "object",
		"properties": map[string]any{"x": map[string]any{"type": "number"}},
		"required":   []any{"x"},
	})}

	tools := buildTools(defs)
	assert.Len(t, tools, 1)
	assert.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "calc", tools[0].OfTool.Name)
	assert.Equal(t, []string{"x"}, tools[0].OfTool.InputSchema.Required)
}

func TestRequiredFields(t *testing.T) {
	assert.Equal(t, []string{"a"}, requiredFields([]string{"a"}))
	assert.Equal(t, []string{"a", "b"}, requiredFields([]any{"a", 1, "b"}))
	assert.Nil(t, requiredFields(nil))
}

func TestInfo(t *testing.T) {
	m := NewModel(func(o *Options) { o.APIKey = "test" })
	info := m.Info()
	assert.Equal(t, "anthropic", info.Provider)
	assert.True(t, info.SupportsTools)
}

func sseServer(t *testing.T, events [][2]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, ev := range events {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev[0], ev[1])
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerate_StreamingEmitsTextDeltas(t *testing.T) {
	srv := sseServer(t, [][2]string{
		{"message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-test","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":1}}}`},
		{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":0}`},
		{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":5}}`},
		{"message_stop", `{"type":"message_stop"}`},
	})

	m := NewModel(func(o *Options) {
		o.APIKey = "test"
		o.BaseURL = srv.URL
	})

	var chunks []string
	resp, err := model.CollectStream(context.Background(), m, model.Request{
		Messages: []core.Message{core.NewUserMessage("hi")},
		Stream:   true,
	}, func(r model.Response) { chunks = append(chunks, r.Message.Content) })
	require.NoError(t, err)

	assert.Equal(t, []string{"Hel", "lo"}, chunks)
	assert.Equal(t, "Hello", resp.Message.Content)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Empty(t, resp.Message.ToolCalls)
}

func TestGenerate_StreamingJoinsToolInput(t *testing.T) {
	srv := sseServer(t, [][2]string{
		{"message_start", `{"type":"message_start","message":{"id":"msg_2","type":"message","role":"assistant","model":"claude-test","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":1}}}`},
		{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"toolu_1","name":"calc","input":{}}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"x\":"}}`},
		{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"1}"}}`},
		{"content_block_stop", `{"type":"content_block_stop","index":0}`},
		{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"tool_use","stop_sequence":null},"usage":{"output_tokens":7}}`},
		{"message_stop", `{"type":"message_stop"}`},
	})

	m := NewModel(func(o *Options) {
		o.APIKey = "test"
		o.BaseURL = srv.URL
	})

	resp, err := model.Collect(context.Background(), m, model.Request{
		Messages: []core.Message{core.NewUserMessage("x?")},
		Stream:   true,
	})
	require.NoError(t, err)

	require.Len(t, resp.Message.ToolCalls, 1)
	assert.Equal(t, "toolu_1", resp.Message.ToolCalls[0].ID)
	assert.Equal(t, "calc", resp.Message.ToolCalls[0].Name)
	assert.JSONEq(t, `{"x":1}`, resp.Message.ToolCalls[0].Arguments)
}
