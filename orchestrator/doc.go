// Package orchestrator implements the Auto-Orchestrator: a planning agent
// decides how many specialised agents a task needs, the orchestrator spawns
// them, runs their subtasks concurrently and aggregates the results into one
// report, synthesised by the planner when more than one agent ran.
package orchestrator
