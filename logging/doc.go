// Package logging provides a minimal logging interface and slog adapters for
// agentforest.
//
// The Logger interface defines the leveled, key/value logging methods that
// agents, forests and orchestrators use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - New for building a JSON or text slog handler from a Config
//   - NoOpLogger for silent operation (the default everywhere)
//
// Usage:
//
//	logger := logging.New(logging.Config{Level: logging.LogLevelDebug, Format: "text"})
//	a, _ := agent.New("researcher", llm, func(o *agent.Options) { o.Logger = logger })
//
// Event names follow a dotted component.subject.action scheme such as
// "agent.tool.executed" or "forest.task.completed".
package logging
