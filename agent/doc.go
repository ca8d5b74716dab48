// Package agent implements the single-agent reasoning loop used by every
// higher level coordinator in agentforest.
//
// An Agent owns a conversation, an independent tool registry and an
// iteration cap. Chat appends the user turn and then alternates between
// asking the model for the next assistant turn and executing the tool calls
// that turn requests, until the model answers without tool calls or the cap
// is reached.
//
// Design principles:
//   - Tool failures never abort the loop; they are fed back as "Error: ..." text
//   - Transport errors from the model are returned unchanged
//   - Tool results are appended in call order even when executed in parallel
//   - Chat calls on one agent are serialised; separate agents run concurrently
package agent
