package natsbus

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/hupe1980/agentforest/forest"
)

// Publisher implements forest.Publisher over a NATS connection.
type Publisher struct {
	conn  *nats.Conn
	owned bool
}

var _ forest.Publisher = (*Publisher)(nil)

// Connect dials url and returns a Publisher that owns the connection.
func Connect(url string, opts ...nats.Option) (*Publisher, error) {
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &Publisher{conn: conn, owned: true}, nil
}

// NewPublisher wraps an existing connection. Close leaves it open.
func NewPublisher(conn *nats.Conn) *Publisher {
	return &Publisher{conn: conn}
}

// Conn exposes the underlying connection.
func (p *Publisher) Conn() *nats.Conn { return p.conn }

// PublishMessage publishes msg as JSON on SubjectMessages(forestName).
func (p *Publisher) PublishMessage(forestName string, msg forest.Message) error {
	return p.publishJSON(SubjectMessages(forestName), msg)
}

// PublishTaskUpdate publishes task as JSON on SubjectTasks(forestName).
func (p *Publisher) PublishTaskUpdate(forestName string, task forest.TaskItem) error {
	return p.publishJSON(SubjectTasks(forestName), task)
}

func (p *Publisher) publishJSON(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return p.conn.Publish(subject, data)
}

// Flush blocks until buffered publishes reached the server.
func (p *Publisher) Flush() error {
	return p.conn.Flush()
}

// Close drains the connection if the publisher owns it.
func (p *Publisher) Close() error {
	if !p.owned {
		return nil
	}
	return p.conn.Drain()
}
