package main

import (
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/agentforest/config"
	"github.com/hupe1980/agentforest/model"
	"github.com/hupe1980/agentforest/model/anthropic"
	"github.com/hupe1980/agentforest/model/openai"
)

// newModel creates the model adapter selected by the provider section.
func newModel(cfg config.ProviderConfig) (model.Model, error) {
	switch cfg.Name {
	case config.ProviderOpenAI, "":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			if cfg.Temperature > 0 {
				o.Temperature = cfg.Temperature
			}
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(cfg.MaxTokens)
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil

	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
			if cfg.Temperature > 0 {
				o.Temperature = cfg.Temperature
			}
			if cfg.MaxTokens > 0 {
				o.MaxTokens = int64(cfg.MaxTokens)
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s (supported: openai, anthropic)", cfg.Name)
	}
}
