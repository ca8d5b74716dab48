// Command agentforest runs single agents, collaborating forests and the
// auto-orchestrator from the command line.
package main

func main() {
	Execute()
}
