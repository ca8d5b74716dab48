package core

import "strings"

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleSystem marks the system prompt.
	RoleSystem Role = "system"
	// RoleUser marks user (or synthetic user) turns.
	RoleUser Role = "user"
	// RoleAssistant marks model turns.
	RoleAssistant Role = "assistant"
	// RoleTool marks tool results answering a ToolCall.
	RoleTool Role = "tool"
)

// ToolCall describes a model-issued request to invoke a named tool.
type ToolCall struct {
	ID        string `json:"id"`                  // Correlates the call with its tool message
	Name      string `json:"name"`                // Tool name
	Arguments string `json:"arguments,omitempty"` // Serialized JSON arguments
}

// Message is a single conversation turn. Tool messages always carry the
// ToolCallID of the call they answer.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"` // Tool name on tool messages
}

// NewSystemMessage creates a system message.
func NewSystemMessage(text string) Message { return Message{Role: RoleSystem, Content: text} }

// NewUserMessage creates a user message.
func NewUserMessage(text string) Message { return Message{Role: RoleUser, Content: text} }

// NewAssistantMessage creates an assistant message with optional tool calls.
func NewAssistantMessage(text string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: text, ToolCalls: calls}
}

// NewToolMessage creates a tool result message answering callID.
func NewToolMessage(callID, toolName, output string) Message {
	return Message{Role: RoleTool, Content: output, ToolCallID: callID, Name: toolName}
}

// HasToolCalls reports whether the message requests tool invocations.
func (m Message) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

// Clone returns a copy that shares no slices with m.
func (m Message) Clone() Message {
	if m.ToolCalls != nil {
		calls := make([]ToolCall, len(m.ToolCalls))
		copy(calls, m.ToolCalls)
		m.ToolCalls = calls
	}
	return m
}

// String renders a compact single line representation useful in logs.
func (m Message) String() string {
	var b strings.Builder
	b.WriteString(string(m.Role))
	b.WriteString(": ")
	b.WriteString(m.Content)
	for _, c := range m.ToolCalls {
		b.WriteString(" [call ")
		b.WriteString(c.Name)
		b.WriteString("]")
	}
	return b.String()
}
