// Package core provides the foundational conversation types shared by agents,
// forests and orchestrators:
//
//   - Message / ToolCall (role based conversation turns)
//   - Conversation (ordered, append-only message history with an optional system prompt)
//   - ToolContext (scoped execution surface handed to tool implementations)
//   - IterationLimiter (hard cap on model round-trips per turn)
//
// The package keeps implementation concerns (model transports, tool backends,
// orchestration) out of scope so higher layers can depend on it freely.
package core
