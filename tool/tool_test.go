package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/agentforest/core"
	"github.com/hupe1980/agentforest/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testToolContext(callID string) *core.ToolContext {
	return core.NewToolContext(context.Background(), "tester", callID, logging.NoOpLogger{})
}

func sumTool() *FunctionTool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []string{"a", "b"},
	}

	return NewFunctionTool("sum", "Add numbers", params, func(_ *core.ToolContext, args map[string]any) (any, error) {
		a := args["a"].(float64)
		b := args["b"].(float64)
		return a + b, nil
	})
}

// -------------------- FunctionTool Tests --------------------

func TestFunctionTool_Success(t *testing.T) {
	result, err := sumTool().Call(testToolContext("fc1"), map[string]any{"a": 2.0, "b": 3.0})
	assert.NoError(t, err)
	assert.Equal(t, 5.0, result)
}

func TestFunctionTool_ValidationError(t *testing.T) {
	_, err := sumTool().Call(testToolContext("fc2"), map[string]any{"a": 1.0})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	execTool := NewFunctionTool("fail", "Fails", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, errors.New("boom")
	})

	_, err := execTool.Call(testToolContext("fc3"), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.Equal(t, "boom", toolErr.Message)
}

func TestFunctionTool_SentinelPassesThrough(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	needy := NewFunctionTool("needy", "Needs key", params, func(_ *core.ToolContext, args map[string]any) (any, error) {
		_, err := RequireString(args, "key")
		return nil, err
	})

	_, err := needy.Call(testToolContext("fc4"), map[string]any{})
	assert.ErrorIs(t, err, ErrMissingArgument)
}

func TestFunctionToolFromStruct(t *testing.T) {
	type echoArgs struct {
		Text string `json:"text" description:"Text to echo"`
	}

	echo := NewFunctionToolFromStruct("echo", "Echo text", echoArgs{}, func(_ *core.ToolContext, args map[string]any) (any, error) {
		return args["text"], nil
	})

	props := echo.Parameters()["properties"].(map[string]any)
	assert.Contains(t, props, "text")

	out, err := echo.Call(testToolContext("fc5"), map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

// -------------------- Registry Tests --------------------

func TestRegistry_Execute(t *testing.T) {
	reg := NewRegistry(sumTool())

	res := reg.Execute(testToolContext("c1"), "sum", `{"a": 2, "b": 40}`)
	assert.True(t, res.Success)
	assert.Equal(t, "42", res.Output)
	assert.Equal(t, "42", res.Text())
}

func TestRegistry_ExecuteUnknownTool(t *testing.T) {
	reg := NewRegistry()

	res := reg.Execute(testToolContext("c1"), "missing", `{}`)
	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "not found")
	assert.True(t, len(res.Text()) > 0 && res.Text()[:6] == "Error:")

	var toolErr *ToolError
	require.ErrorAs(t, res.Err, &toolErr)
	assert.Equal(t, CodeNotFound, toolErr.Code)
}

func TestRegistry_ExecuteMalformedJSON(t *testing.T) {
	reg := NewRegistry(sumTool())

	res := reg.Execute(testToolContext("c1"), "sum", `{"a": `)
	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "invalid JSON arguments")
}

func TestRegistry_ExecuteEmptyArguments(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	ping := NewFunctionTool("ping", "Ping", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return "pong", nil
	})
	reg := NewRegistry(ping)

	res := reg.Execute(testToolContext("c1"), "ping", "")
	assert.True(t, res.Success)
	assert.Equal(t, "pong", res.Output)
}

func TestRegistry_ExecuteRecoversPanic(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	bad := NewFunctionTool("bad", "Panics", params, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		panic("kaboom")
	})
	reg := NewRegistry(bad)

	res := reg.Execute(testToolContext("c1"), "bad", "{}")
	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "kaboom")
}

func TestRegistry_Definitions(t *testing.T) {
	params := map[string]any{"type": "object", "properties": map[string]any{}}
	noop := func(_ *core.ToolContext, _ map[string]any) (any, error) { return nil, nil }

	reg := NewRegistry()
	assert.Nil(t, reg.Definitions())

	reg.Register(NewFunctionTool("zeta", "Z", params, noop), NewFunctionTool("alpha", "A", params, noop))
	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "alpha", defs[0].Function.Name)
	assert.Equal(t, "zeta", defs[1].Function.Name)
	assert.Equal(t, []string{"alpha", "zeta"}, reg.Names())

	assert.True(t, reg.Unregister("zeta"))
	assert.False(t, reg.Unregister("zeta"))
	assert.Equal(t, 1, reg.Len())
	assert.False(t, reg.Has("zeta"))
}

func TestFormatOutput(t *testing.T) {
	assert.Equal(t, "", FormatOutput(nil))
	assert.Equal(t, "plain", FormatOutput("plain"))
	assert.Equal(t, `{"k":"v"}`, FormatOutput(map[string]any{"k": "v"}))
	assert.Equal(t, "3.5", FormatOutput(3.5))
}

func TestRequireString(t *testing.T) {
	_, err := RequireString(map[string]any{}, "k")
	assert.ErrorIs(t, err, ErrMissingArgument)

	_, err = RequireString(map[string]any{"k": ""}, "k")
	assert.ErrorIs(t, err, ErrMissingArgument)

	_, err = RequireString(map[string]any{"k": 1}, "k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingArgument)

	v, err := RequireString(map[string]any{"k": "v"}, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

// -------------------- ToolError Formatting --------------------

func TestToolErrorFormatting(t *testing.T) {
	err := NewToolError("demo", "something failed", "E123")
	assert.Contains(t, err.Error(), "E123")
	assert.Contains(t, err.Error(), "demo")
}
