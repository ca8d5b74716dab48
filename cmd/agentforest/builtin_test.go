package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentforest/core"
	"github.com/hupe1980/agentforest/logging"
	"github.com/hupe1980/agentforest/tool"
)

func builtinRegistry() *tool.Registry {
	return tool.NewRegistry(builtinTools()...)
}

func toolCtx() *core.ToolContext {
	return core.NewToolContext(context.Background(), "tester", "call-1", logging.NoOpLogger{})
}

func TestBuiltinTools_Catalog(t *testing.T) {
	assert.Equal(t, []string{"calculator", "current_time", "word_count"}, builtinRegistry().Names())
}

func TestCalculator(t *testing.T) {
	reg := builtinRegistry()

	tests := []struct {
		args string
		want string
	}{
		{`{"operation":"add","a":2,"b":3}`, "5"},
		{`{"operation":"subtract","a":2,"b":3}`, "-1"},
		{`{"operation":"multiply","a":6,"b":7}`, "42"},
		{`{"operation":"divide","a":9,"b":3}`, "3"},
		{`{"operation":"power","a":2,"b":10}`, "1024"},
	}

	for _, tt := range tests {
		res := reg.Execute(toolCtx(), "calculator", tt.args)
		require.True(t, res.Success, res.Output)
		assert.Equal(t, tt.want, res.Output)
	}
}

func TestCalculator_Errors(t *testing.T) {
	reg := builtinRegistry()

	res := reg.Execute(toolCtx(), "calculator", `{"operation":"divide","a":1,"b":0}`)
	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "division by zero")

	res = reg.Execute(toolCtx(), "calculator", `{"operation":"modulo","a":1,"b":2}`)
	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "must be one of")

	res = reg.Execute(toolCtx(), "calculator", `{"a":1,"b":2}`)
	assert.False(t, res.Success)
}

func TestWordCount(t *testing.T) {
	res := builtinRegistry().Execute(toolCtx(), "word_count", `{"text":"the quick  brown fox"}`)
	require.True(t, res.Success)
	assert.Equal(t, "4", res.Output)
}

func TestCurrentTime(t *testing.T) {
	res := builtinRegistry().Execute(toolCtx(), "current_time", "")
	require.True(t, res.Success)

	_, err := time.Parse(time.RFC3339, res.Output)
	assert.NoError(t, err)
}
