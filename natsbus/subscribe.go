package natsbus

import (
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/hupe1980/agentforest/forest"
)

// SubscribeMessages decodes forest messages published on subject (for
// example SubjectMessages("f") or SubjectAllMessages). Undecodable payloads
// are passed to onError when it is non-nil.
func SubscribeMessages(conn *nats.Conn, subject string, handler func(subject string, msg forest.Message), onError func(error)) (*nats.Subscription, error) {
	return conn.Subscribe(subject, func(m *nats.Msg) {
		var msg forest.Message
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		handler(m.Subject, msg)
	})
}

// SubscribeTasks decodes task updates published on subject.
func SubscribeTasks(conn *nats.Conn, subject string, handler func(subject string, task forest.TaskItem), onError func(error)) (*nats.Subscription, error) {
	return conn.Subscribe(subject, func(m *nats.Msg) {
		var task forest.TaskItem
		if err := json.Unmarshal(m.Data, &task); err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		handler(m.Subject, task)
	})
}
