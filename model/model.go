package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/agentforest/core"
)

// ErrNoResponse is returned by Collect when a model closes its channels
// without emitting a final (non-partial) response.
var ErrNoResponse = errors.New("model returned no final response")

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures one model round-trip: the full conversation (system
// prompt first, if any) and the tools the model may call.
type Request struct {
	Messages []core.Message  `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Stream   bool             `json:"stream,omitempty"`
}

// SystemPrompt returns the concatenated content of all system messages.
func (r Request) SystemPrompt() string {
	var s string
	for _, m := range r.Messages {
		if m.Role != core.RoleSystem || m.Content == "" {
			continue
		}
		if s != "" {
			s += "\n\n"
		}
		s += m.Content
	}
	return s
}

// LastUserMessage returns the content of the most recent user message.
func (r Request) LastUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == core.RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model. Exactly one
// non-partial response carries the complete assistant turn.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Message      core.Message `json:"message"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "local", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
// Implementations must be safe for concurrent use: spawned agents share one
// model instance.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ToolDefinitionOf builds a function tool definition.
func ToolDefinitionOf(name, description string, parameters map[string]any) ToolDefinition {
	return ToolDefinition{
		Type: "function",
		Function: FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// Collect drives one Generate round-trip to completion and returns the final
// response. Partial chunks are discarded. Errors from the model are returned
// unchanged so transport failures pass through to the caller.
func Collect(ctx context.Context, m Model, req Request) (Response, error) {
	return CollectStream(ctx, m, req, nil)
}

// CollectStream is Collect with onPartial invoked for every partial chunk in
// arrival order. A nil onPartial discards them.
func CollectStream(ctx context.Context, m Model, req Request, onPartial func(Response)) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final    Response
		gotFinal bool
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				if onPartial != nil {
					onPartial(resp)
				}
				continue
			}
			final = resp
			gotFinal = true
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return Response{}, err
			}
		}
	}

	if !gotFinal {
		return Response{}, fmt.Errorf("%s: %w", m.Info().Name, ErrNoResponse)
	}

	if final.Message.Role == "" {
		final.Message.Role = core.RoleAssistant
	}

	return final, nil
}
