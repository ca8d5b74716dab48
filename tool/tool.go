// Package tool implements the tool calling subsystem that lets agents invoke
// structured capabilities (APIs, computations, coordination side-effects) with
// schema validated arguments and uniform textual results.
package tool

import (
	"fmt"

	"github.com/hupe1980/agentforest/core"
	"github.com/hupe1980/agentforest/internal/util"
)

// ErrMissingArgument is wrapped when a required argument is absent or empty,
// both by schema validation and by RequireString.
var ErrMissingArgument = util.ErrRequiredMissing

// Tool defines the capability interface for extending agents with external functions.
//
// Tools are stored behind this interface in a Registry so new tool variants
// need no changes to the agent loop. Implementations should:
//   - Provide clear, descriptive names (snake_case) and descriptions
//   - Define a JSON schema for their parameters
//   - Return errors rather than panic; errors are fed back to the model as text
//   - Be safe for concurrent use when registered with several agents
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description provided to the model.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with decoded JSON arguments.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// Error codes used by ToolError.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeExecution        = "EXECUTION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidArguments = "INVALID_ARGUMENTS"
	CodePanic            = "PANIC"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
	cause   error
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Unwrap exposes the underlying cause so callers can match sentinel errors.
func (e *ToolError) Unwrap() error { return e.cause }

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// RequireString returns args[key] as a non-empty string or an error wrapping
// ErrMissingArgument.
func RequireString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %s must be a string, got %T", key, v)
	}
	if s == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, key)
	}
	return s, nil
}

// OptionalString returns args[key] as a string, or "" when absent.
func OptionalString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
