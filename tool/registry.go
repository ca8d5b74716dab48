package tool

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/agentforest/core"
	"github.com/hupe1980/agentforest/model"
)

// Result is the textual outcome of executing a tool by name. Business
// failures (unknown tool, bad arguments, execution errors) are reported with
// Success=false and a descriptive Output; they are never Go errors.
type Result struct {
	Success bool
	Output  string
	// Err holds the underlying error for failed executions (nil on success).
	Err error
}

// Text renders the result for a tool message fed back to the model.
func (r Result) Text() string {
	if r.Success {
		return r.Output
	}
	return "Error: " + r.Output
}

// Registry is a concurrency safe name→tool map. Each agent owns an
// independently configurable registry.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a registry pre-populated with tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
	return r
}

// Register adds or replaces tools by name.
func (r *Registry) Register(tools ...Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
}

// Unregister removes a tool. It reports whether the tool was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; !ok {
		return false
	}
	delete(r.tools, name)
	return true
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Has reports whether a tool is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Names returns the sorted names of all registered tools.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns model tool definitions sorted by name so requests are
// deterministic.
func (r *Registry) Definitions() []model.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, model.ToolDefinitionOf(t.Name(), t.Description(), t.Parameters()))
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Function.Name < defs[j].Function.Name })
	return defs
}

// Execute runs the named tool with JSON encoded arguments. It never returns a
// Go error: unknown tools, malformed arguments, failures and panics are all
// converted into unsuccessful Results.
func (r *Registry) Execute(toolCtx *core.ToolContext, name, jsonArgs string) (res Result) {
	impl, ok := r.Get(name)
	if !ok {
		err := NewToolError(name, fmt.Sprintf("tool %q not found", name), CodeNotFound)
		return Result{Output: err.Message, Err: err}
	}

	args := map[string]any{}
	if strings.TrimSpace(jsonArgs) != "" {
		if err := json.Unmarshal([]byte(jsonArgs), &args); err != nil {
			toolErr := &ToolError{Tool: name, Message: fmt.Sprintf("invalid JSON arguments: %v", err), Code: CodeInvalidArguments, cause: err}
			return Result{Output: toolErr.Message, Err: toolErr}
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			toolCtx.LogError("tool.call.panic", "tool", name, "recover", rec, "stack", string(debug.Stack()))
			toolErr := NewToolError(name, fmt.Sprintf("tool panicked: %v", rec), CodePanic)
			res = Result{Output: toolErr.Message, Err: toolErr}
		}
	}()

	out, err := impl.Call(toolCtx, args)
	if err != nil {
		return Result{Output: err.Error(), Err: err}
	}

	return Result{Success: true, Output: FormatOutput(out)}
}

// FormatOutput renders a tool return value as text: strings verbatim, nil as
// an empty string, everything else as JSON.
func FormatOutput(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	case []byte:
		return string(val)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
