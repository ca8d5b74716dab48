// Package model defines the provider-agnostic contract for talking to
// language models: "send a conversation plus tool definitions, get back one
// assistant turn, optionally with tool calls".
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool call representation (ToolDefinition, core.ToolCall)
//   - Keep request/response shapes minimal and transport independent
//
// Providers (model/anthropic, model/openai) implement Model so agents,
// forests and orchestrators remain decoupled from vendor SDKs. Collect
// drains a Generate call into its final assistant turn.
package model
