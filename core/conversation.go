package core

import "sync"

// Conversation is an ordered, append-only message history plus an optional
// system prompt that is prepended on read.
//
// A conversation is owned by one agent, but forest message delivery appends
// synthetic user turns from the coordinating goroutine, so all access is
// guarded by an RWMutex. Readers always receive defensive copies.
type Conversation struct {
	mu           sync.RWMutex
	systemPrompt string
	messages     []Message
}

// NewConversation creates a conversation with the given (possibly empty) system prompt.
func NewConversation(systemPrompt string) *Conversation {
	return &Conversation{systemPrompt: systemPrompt}
}

// SystemPrompt returns the current system prompt.
func (c *Conversation) SystemPrompt() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.systemPrompt
}

// SetSystemPrompt replaces the system prompt.
func (c *Conversation) SetSystemPrompt(prompt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.systemPrompt = prompt
}

// Append adds messages to the end of the history.
func (c *Conversation) Append(msgs ...Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range msgs {
		c.messages = append(c.messages, m.Clone())
	}
}

// Messages returns the full request view: the system prompt (if any)
// followed by the history.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, 0, len(c.messages)+1)
	if c.systemPrompt != "" {
		out = append(out, NewSystemMessage(c.systemPrompt))
	}
	for _, m := range c.messages {
		out = append(out, m.Clone())
	}
	return out
}

// History returns the messages without the system prompt.
func (c *Conversation) History() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.Clone()
	}
	return out
}

// Len returns the number of history messages (system prompt excluded).
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Last returns the most recent history message.
func (c *Conversation) Last() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1].Clone(), true
}

// Clear drops the history but keeps the system prompt.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}
