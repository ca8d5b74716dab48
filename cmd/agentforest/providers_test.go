package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentforest/config"
)

func TestNewModel(t *testing.T) {
	m, err := newModel(config.ProviderConfig{Name: config.ProviderOpenAI, Model: "gpt-4o", APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "openai", m.Info().Provider)
	assert.Equal(t, "gpt-4o", m.Info().Name)

	m, err = newModel(config.ProviderConfig{Name: config.ProviderAnthropic, Model: "claude-sonnet-4-5", APIKey: "ak"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", m.Info().Provider)
	assert.Equal(t, "claude-sonnet-4-5", m.Info().Name)

	_, err = newModel(config.ProviderConfig{Name: "acme"})
	assert.ErrorContains(t, err, "unsupported provider")
}
