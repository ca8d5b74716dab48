package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIterationLimiter(t *testing.T) {
	l := NewIterationLimiter(2)
	assert.NoError(t, l.Next())
	assert.NoError(t, l.Next())

	err := l.Next()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrLimitExceeded))
	assert.Equal(t, 2, l.Count())
	assert.Equal(t, 0, l.Remaining())
}

func TestIterationLimiter_Unlimited(t *testing.T) {
	l := NewIterationLimiter(0)
	for i := 0; i < 100; i++ {
		assert.NoError(t, l.Next())
	}
	assert.Equal(t, -1, l.Remaining())
	assert.Equal(t, 100, l.Count())
}

func TestToolContext(t *testing.T) {
	tc := NewToolContext(context.Background(), "alice", "call-7", nil)
	assert.Equal(t, "alice", tc.AgentName())
	assert.Equal(t, "call-7", tc.FunctionCallID())
	assert.NotNil(t, tc.Logger())
	assert.Equal(t, 0, tc.Iteration())

	tagged := tc.WithIteration(3)
	assert.Equal(t, 3, tagged.Iteration())
	assert.Equal(t, 0, tc.Iteration())

	nilCtx := NewToolContext(nil, "bob", "c", nil) //nolint:staticcheck // nil context is normalised
	assert.NotNil(t, nilCtx.Context())
}
