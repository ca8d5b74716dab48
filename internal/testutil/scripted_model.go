package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/agentforest/core"
	"github.com/hupe1980/agentforest/model"
)

// ErrScriptExhausted is returned when a ScriptedModel runs out of turns.
var ErrScriptExhausted = errors.New("scripted model: no turns left")

// Turn is one scripted assistant reply.
type Turn struct {
	Text  string
	Calls []core.ToolCall
	Err   error
}

// Reply builds a plain text turn.
func Reply(text string) Turn { return Turn{Text: text} }

// CallTurn builds a turn requesting tool calls.
func CallTurn(text string, calls ...core.ToolCall) Turn { return Turn{Text: text, Calls: calls} }

// Fail builds a turn that fails with err.
func Fail(err error) Turn { return Turn{Err: err} }

// Call builds a tool call with the given id, tool name and raw JSON args.
func Call(id, name, args string) core.ToolCall {
	return core.ToolCall{ID: id, Name: name, Arguments: args}
}

// ResponderFunc computes the reply for a request dynamically.
type ResponderFunc func(ctx context.Context, req model.Request) Turn

// ScriptedModel is a model.Model returning scripted turns in order (or the
// result of a ResponderFunc). It records every request and is safe for
// concurrent use.
//
// Example:
//
//	m := NewScriptedModel(
//	  CallTurn("", Call("c1", "sum", `{"a":1,"b":2}`)),
//	  Reply("3"),
//	)
type ScriptedModel struct {
	mu        sync.Mutex
	name      string
	turns     []Turn
	responder ResponderFunc
	requests  []model.Request
}

// NewScriptedModel returns a model that replays turns in order.
func NewScriptedModel(turns ...Turn) *ScriptedModel {
	return &ScriptedModel{name: "scripted", turns: turns}
}

// NewResponderModel returns a model whose replies are computed by fn.
func NewResponderModel(fn ResponderFunc) *ScriptedModel {
	return &ScriptedModel{name: "responder", responder: fn}
}

// Named overrides the model name reported by Info (chainable).
func (m *ScriptedModel) Named(name string) *ScriptedModel {
	m.mu.Lock()
	m.name = name
	m.mu.Unlock()
	return m
}

// Generate implements model.Model. Streaming requests receive the turn text
// as word-sized partial responses before the final one.
func (m *ScriptedModel) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	errCh := make(chan error, 1)
	defer close(errCh)

	turn, err := m.next(ctx, req)

	var chunks []string
	if req.Stream && turn.Text != "" {
		chunks = strings.SplitAfter(turn.Text, " ")
	}

	out := make(chan model.Response, len(chunks)+1)
	defer close(out)

	if err != nil {
		errCh <- err
		return out, errCh
	}
	if turn.Err != nil {
		errCh <- turn.Err
		return out, errCh
	}

	finish := "stop"
	if len(turn.Calls) > 0 {
		finish = "tool_calls"
	}

	id := core.NewID()
	for _, c := range chunks {
		out <- model.Response{ID: id, Partial: true, Message: core.NewAssistantMessage(c)}
	}

	out <- model.Response{
		ID:           id,
		Message:      core.NewAssistantMessage(turn.Text, turn.Calls...),
		FinishReason: finish,
	}

	return out, errCh
}

func (m *ScriptedModel) next(ctx context.Context, req model.Request) (Turn, error) {
	m.mu.Lock()
	snapshot := model.Request{Messages: cloneMessages(req.Messages), Tools: req.Tools, Stream: req.Stream}
	m.requests = append(m.requests, snapshot)
	responder := m.responder
	if responder == nil {
		if len(m.turns) == 0 {
			n := len(m.requests)
			m.mu.Unlock()
			return Turn{}, fmt.Errorf("%w (request %d)", ErrScriptExhausted, n)
		}
		turn := m.turns[0]
		m.turns = m.turns[1:]
		m.mu.Unlock()
		return turn, nil
	}
	m.mu.Unlock()

	return responder(ctx, snapshot), nil
}

// Info implements model.Model.
func (m *ScriptedModel) Info() model.Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.Info{Name: m.name, Provider: "test", SupportsTools: true}
}

// Requests returns a copy of every request received so far.
func (m *ScriptedModel) Requests() []model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns the number of Generate calls.
func (m *ScriptedModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Remaining returns the number of unconsumed scripted turns.
func (m *ScriptedModel) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}

func cloneMessages(msgs []core.Message) []core.Message {
	out := make([]core.Message, len(msgs))
	for i, msg := range msgs {
		out[i] = msg.Clone()
	}
	return out
}
