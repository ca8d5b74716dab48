package forest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/agentforest/internal/util"
)

const planningTemplate = `You are coordinating a team of agents on the following task:

{{.Task}}

Team members:
{{range .Roster}}- {{.}}
{{end}}
Break the task into concrete subtasks and call the create_plan tool exactly once.
Each task needs a unique id, a description, the id of the agent it is assigned_to
(one of the team members above) and the ids of the tasks it depends on.
Only depend on tasks that must finish first.`

const directTemplate = `No task plan was created. Complete the following task yourself and reply with the final result:

{{.Task}}`

const taskTemplate = `Objective: {{.Objective}}

Your task ({{.TaskID}}): {{.Description}}
{{if .Completed}}
Results of completed tasks:
{{range .Completed}}- {{.ID}} ({{.AssignedTo}}): {{.Result}}
{{end}}{{end}}{{if .Shared}}
Shared context:
{{.Shared}}
{{end}}
Complete your task. When you are done, call update_task_memory with task_id "{{.TaskID}}" and your result,
or reply with the result directly.`

const synthesisTemplate = `Objective: {{.Objective}}

The team has worked through the plan:
{{range .Tasks}}
Task {{.ID}} [{{.Status}}] assigned to {{.AssignedTo}}
Description: {{.Description}}
Result: {{if .Result}}{{.Result}}{{else}}(no result){{end}}
{{end}}
Synthesize these results into one cohesive final answer to the objective.`

// rosterLines renders "id: system prompt" lines for the planning prompt.
func (f *Forest) rosterLines(participants []string) []string {
	lines := make([]string, 0, len(participants))
	for _, id := range participants {
		line := id
		if a, ok := f.Agent(id); ok {
			if sp := strings.TrimSpace(a.SystemPrompt()); sp != "" {
				line = fmt.Sprintf("%s: %s", id, firstLine(sp))
			}
		}
		lines = append(lines, line)
	}
	return lines
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func planningPrompt(task string, roster []string) (string, error) {
	return util.RenderTemplate(planningTemplate, map[string]any{
		"Task":   task,
		"Roster": roster,
	})
}

func directPrompt(task string) (string, error) {
	return util.RenderTemplate(directTemplate, map[string]any{"Task": task})
}

func taskPrompt(plan *TaskPlan, task TaskItem, shared map[string]any) (string, error) {
	var completed []TaskItem
	for _, t := range plan.Tasks {
		if t.Status == TaskCompleted {
			completed = append(completed, t)
		}
	}

	var sharedText string
	if len(shared) > 0 {
		b, err := json.MarshalIndent(shared, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode shared context: %w", err)
		}
		sharedText = string(b)
	}

	return util.RenderTemplate(taskTemplate, map[string]any{
		"Objective":   plan.Objective,
		"TaskID":      task.ID,
		"Description": task.Description,
		"Completed":   completed,
		"Shared":      sharedText,
	})
}

func synthesisPrompt(plan *TaskPlan) (string, error) {
	return util.RenderTemplate(synthesisTemplate, plan)
}
