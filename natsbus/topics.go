package natsbus

import "fmt"

// Subject patterns for forest events.

// SubjectMessages carries every message put on the named forest's bus.
func SubjectMessages(forest string) string {
	return fmt.Sprintf("agentforest.%s.messages", forest)
}

// SubjectTasks carries plan task status updates for the named forest.
func SubjectTasks(forest string) string {
	return fmt.Sprintf("agentforest.%s.tasks", forest)
}

// SubjectAllMessages matches message subjects of every forest.
const SubjectAllMessages = "agentforest.*.messages"

// SubjectAllTasks matches task subjects of every forest.
const SubjectAllTasks = "agentforest.*.tasks"
