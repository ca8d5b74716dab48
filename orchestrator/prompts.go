package orchestrator

import (
	"github.com/hupe1980/agentforest/internal/util"
	"github.com/hupe1980/agentforest/tool"
)

const plannerSystemPrompt = `You are an orchestration planner. Given a task you decide how many specialised
agents are needed, what role each one plays and which subtask each one works on.
You always answer with a single JSON object and nothing else.`

const planningTemplate = `Task:
{{.Task}}

Decide how many agents (1 to {{.MaxAgents}}) are needed. Prefer fewer agents for simple tasks.
{{if .Tools}}
Available tools (reference them by index in tool_indices):
{{range $i, $t := .Tools}}{{$i}}: {{$t.Name}} - {{$t.Description}}
{{end}}{{else}}
No tools are available; leave tool_indices empty.
{{end}}
Respond with JSON of exactly this shape:
{
  "agent_count": <number>,
  "reasoning": "<why this team>",
  "agents": [
    {"name": "<unique name>", "role": "<role>", "system_prompt": "<instructions>", "tool_indices": [<index>, ...]}
  ],
  "task_breakdown": {"<agent name>": "<subtask>"}
}`

const subtaskTemplate = `Overall task: {{.Task}}

Your role: {{.Role}}
Your subtask: {{.Subtask}}

Complete your subtask and reply with your result.`

const synthesisTemplate = `Task: {{.Task}}

The agents produced these results:
{{range .Agents}}
## {{.Config.Name}} ({{.Config.Role}})
{{if .Err}}Error: {{.Err}}{{else}}{{.Result}}{{end}}
{{end}}
Synthesize these results into one cohesive answer to the task.`

const reportTemplate = `# Orchestration Report

Task: {{.Plan.Task}}
Agents: {{.Plan.AgentCount}}
Reasoning: {{.Plan.Reasoning}}
{{range .Agents}}
## {{.Config.Name}} ({{.Config.Role}})
Subtask: {{.Subtask}}
{{if .Err}}Error: {{.Err}}{{else}}Result: {{.Result}}{{end}}
{{end}}`

func planningPrompt(task string, maxAgents int, tools []tool.Tool) (string, error) {
	return util.RenderTemplate(planningTemplate, map[string]any{
		"Task":      task,
		"MaxAgents": maxAgents,
		"Tools":     tools,
	})
}

func subtaskPrompt(task string, s *SpawnedAgent) (string, error) {
	return util.RenderTemplate(subtaskTemplate, map[string]any{
		"Task":    task,
		"Role":    s.Config.Role,
		"Subtask": s.Subtask,
	})
}

func synthesisPrompt(task string, spawned []*SpawnedAgent) (string, error) {
	return util.RenderTemplate(synthesisTemplate, map[string]any{
		"Task":   task,
		"Agents": spawned,
	})
}

func report(plan *Plan, spawned []*SpawnedAgent) (string, error) {
	return util.RenderTemplate(reportTemplate, map[string]any{
		"Plan":   plan,
		"Agents": spawned,
	})
}
