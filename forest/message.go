package forest

import (
	"fmt"
	"maps"
	"time"

	"github.com/hupe1980/agentforest/core"
)

// Metadata keys attached to bus messages by the coordination tools.
const (
	MetaType     = "type"
	MetaPriority = "priority"
	MetaTask     = "task"

	TypeDelegation = "task_delegation"
)

// Message is an inter-agent message on the forest bus. An empty To marks a
// broadcast. Messages are immutable once sent.
type Message struct {
	ID        string         `json:"id"`
	From      string         `json:"from"`
	To        string         `json:"to,omitempty"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewMessage creates a message stamped with a fresh id and the current time.
func NewMessage(from, to, content string, metadata map[string]any) Message {
	return Message{
		ID:        core.NewID(),
		From:      from,
		To:        to,
		Content:   content,
		Metadata:  maps.Clone(metadata),
		Timestamp: time.Now(),
	}
}

// IsBroadcast reports whether the message has no recipient.
func (m Message) IsBroadcast() bool { return m.To == "" }

// Kind returns "broadcast" or "direct".
func (m Message) Kind() string {
	if m.IsBroadcast() {
		return "broadcast"
	}
	return "direct"
}

// Framed renders the text delivered into a recipient's conversation.
func (m Message) Framed() string {
	if m.IsBroadcast() {
		return fmt.Sprintf("Broadcast from %s: %s", m.From, m.Content)
	}
	return fmt.Sprintf("Message from %s: %s", m.From, m.Content)
}
