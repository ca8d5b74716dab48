package forest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentforest/core"
	"github.com/hupe1980/agentforest/tool"
)

// Coordination tool names.
const (
	ToolSendMessage      = "send_message"
	ToolDelegateTask     = "delegate_task"
	ToolShareContext     = "share_context"
	ToolUpdateTaskMemory = "update_task_memory"
	ToolCreatePlan       = "create_plan"
)

// SharedKey returns the store key used by share_context for author and key.
func SharedKey(author, key string) string {
	return "shared." + author + "." + key
}

// coordinationTools builds the tools bound to the agent registered as self.
func (f *Forest) coordinationTools(self string) []tool.Tool {
	return []tool.Tool{
		tool.NewFunctionTool(
			ToolSendMessage,
			"Send a message to another agent in the forest. Omit 'to' to broadcast to every other agent.",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"to":      map[string]any{"type": "string", "description": "Recipient agent id; empty broadcasts"},
					"message": map[string]any{"type": "string", "description": "Message text"},
				},
				"required": []string{"message"},
			},
			func(_ *core.ToolContext, args map[string]any) (any, error) {
				text, err := tool.RequireString(args, "message")
				if err != nil {
					return nil, err
				}
				to := tool.OptionalString(args, "to")

				if _, err := f.SendMessage(self, to, text); err != nil {
					return nil, err
				}

				if to == "" {
					return fmt.Sprintf("Broadcast sent to %d agents", len(f.Agents())-1), nil
				}
				return fmt.Sprintf("Message sent to %s", to), nil
			},
		),
		tool.NewFunctionTool(
			ToolDelegateTask,
			"Delegate a task to another agent. The recipient receives it as a message tagged with the priority.",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"to":       map[string]any{"type": "string", "description": "Agent id to delegate to"},
					"task":     map[string]any{"type": "string", "description": "Task description"},
					"priority": map[string]any{"type": "string", "description": "low, normal or high (default normal)"},
				},
				"required": []string{"to", "task"},
			},
			func(_ *core.ToolContext, args map[string]any) (any, error) {
				to, err := tool.RequireString(args, "to")
				if err != nil {
					return nil, err
				}
				task, err := tool.RequireString(args, "task")
				if err != nil {
					return nil, err
				}
				priority := tool.OptionalString(args, "priority")
				if priority == "" {
					priority = "normal"
				}

				content := fmt.Sprintf("Delegated task (priority %s): %s", priority, task)
				meta := map[string]any{
					MetaType:     TypeDelegation,
					MetaPriority: priority,
					MetaTask:     task,
				}

				if _, err := f.SendMessageWithMetadata(self, to, content, meta); err != nil {
					return nil, err
				}

				return fmt.Sprintf("Task delegated to %s with %s priority", to, priority), nil
			},
		),
		tool.NewFunctionTool(
			ToolShareContext,
			"Publish information to the forest's shared context so other agents can use it.",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"key":         map[string]any{"type": "string", "description": "Key to store the value under"},
					"value":       map[string]any{"description": "Any JSON value"},
					"description": map[string]any{"type": "string", "description": "What the value represents"},
				},
				"required": []string{"key", "value"},
			},
			func(_ *core.ToolContext, args map[string]any) (any, error) {
				key, err := tool.RequireString(args, "key")
				if err != nil {
					return nil, err
				}
				value, ok := args["value"]
				if !ok {
					return nil, fmt.Errorf("%w: value", tool.ErrMissingArgument)
				}

				storeKey := SharedKey(self, key)
				entry := map[string]any{
					"value":       value,
					"author":      self,
					"timestamp":   time.Now().UTC().Format(time.RFC3339),
					"description": tool.OptionalString(args, "description"),
				}

				if err := f.shared.Set(storeKey, entry); err != nil {
					return nil, err
				}

				return fmt.Sprintf("Shared context stored under %s", storeKey), nil
			},
		),
		tool.NewFunctionTool(
			ToolUpdateTaskMemory,
			"Record the result of a plan task and mark it completed.",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_id":  map[string]any{"type": "string", "description": "Id of the task"},
					"result":   map[string]any{"type": "string", "description": "Task result"},
					"findings": map[string]any{"type": "object", "description": "Optional structured findings"},
				},
				"required": []string{"task_id", "result"},
			},
			func(_ *core.ToolContext, args map[string]any) (any, error) {
				id, err := tool.RequireString(args, "task_id")
				if err != nil {
					return nil, err
				}
				result, err := tool.RequireString(args, "result")
				if err != nil {
					return nil, err
				}
				findings, _ := args["findings"].(map[string]any)

				task, err := f.shared.CompleteTask(id, result, findings)
				if err != nil {
					return nil, err
				}
				f.taskChanged(task)

				return fmt.Sprintf("Task %s marked completed", id), nil
			},
		),
		tool.NewFunctionTool(
			ToolCreatePlan,
			"Create the forest's task plan. 'tasks' is a JSON array of {id, description, assigned_to, dependencies}.",
			map[string]any{
				"type": "object",
				"properties": map[string]any{
					"objective": map[string]any{"type": "string", "description": "Overall objective"},
					"tasks": map[string]any{
						"type":        []string{"array", "string"},
						"description": "Tasks as a JSON array (or a string containing one)",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"id":           map[string]any{"type": "string"},
								"description":  map[string]any{"type": "string"},
								"assigned_to":  map[string]any{"type": "string"},
								"dependencies": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
							},
							"required": []string{"id", "description", "assigned_to"},
						},
					},
				},
				"required": []string{"objective", "tasks"},
			},
			func(_ *core.ToolContext, args map[string]any) (any, error) {
				objective, err := tool.RequireString(args, "objective")
				if err != nil {
					return nil, err
				}
				raw, ok := args["tasks"]
				if !ok || raw == nil {
					return nil, fmt.Errorf("%w: tasks", tool.ErrMissingArgument)
				}

				if f.collabStatus() == StatusExecuting {
					return nil, ErrPlanInProgress
				}

				plan, err := ParsePlan(objective, raw)
				if err != nil {
					return nil, err
				}

				if err := plan.Validate(); err != nil {
					return nil, err
				}

				for _, t := range plan.Tasks {
					if _, ok := f.Agent(t.AssignedTo); !ok {
						return nil, fmt.Errorf("%w: task %s assigned to unknown agent %s", ErrInvalidPlan, t.ID, t.AssignedTo)
					}
					if !f.isParticipant(t.AssignedTo) {
						return nil, fmt.Errorf("%w: task %s assigned to %s, which is not a participant", ErrInvalidPlan, t.ID, t.AssignedTo)
					}
				}

				f.shared.SetPlan(plan)
				for _, t := range plan.Tasks {
					f.taskChanged(t)
				}

				return planSummary(plan), nil
			},
		),
	}
}

type planTaskSpec struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	AssignedTo   string   `json:"assigned_to"`
	Dependencies []string `json:"dependencies"`
}

// ParsePlan builds a TaskPlan from a JSON task array given either as decoded
// JSON ([]any) or as a string containing the array. Tasks keep their order
// and dependency lists verbatim. Structural checks beyond required fields are
// left to Validate.
func ParsePlan(objective string, tasks any) (*TaskPlan, error) {
	var payload []byte

	switch v := tasks.(type) {
	case string:
		payload = []byte(strings.TrimSpace(v))
	case []byte:
		payload = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: tasks: %v", ErrInvalidPlan, err)
		}
		payload = b
	}

	var specs []planTaskSpec
	if err := json.Unmarshal(payload, &specs); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, fmt.Errorf("%w: tasks is not valid JSON: %v", ErrInvalidPlan, err)
		}
		return nil, fmt.Errorf("%w: tasks must be a JSON array of objects: %v", ErrInvalidPlan, err)
	}

	plan := NewTaskPlan(objective)

	for i, s := range specs {
		switch {
		case s.ID == "":
			return nil, fmt.Errorf("%w: task %d: %w: id", ErrInvalidPlan, i, tool.ErrMissingArgument)
		case s.Description == "":
			return nil, fmt.Errorf("%w: task %s: %w: description", ErrInvalidPlan, s.ID, tool.ErrMissingArgument)
		case s.AssignedTo == "":
			return nil, fmt.Errorf("%w: task %s: %w: assigned_to", ErrInvalidPlan, s.ID, tool.ErrMissingArgument)
		}
		plan.AddTask(s.ID, s.Description, s.AssignedTo, s.Dependencies...)
	}

	return plan, nil
}

func planSummary(plan *TaskPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Created plan %s with %d tasks:", plan.ID, len(plan.Tasks))
	for _, t := range plan.Tasks {
		fmt.Fprintf(&b, "\n- %s -> %s: %s", t.ID, t.AssignedTo, t.Description)
		if len(t.Dependencies) > 0 {
			fmt.Fprintf(&b, " (after %s)", strings.Join(t.Dependencies, ", "))
		}
	}
	return b.String()
}
