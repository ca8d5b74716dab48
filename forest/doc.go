// Package forest coordinates a fixed set of named agents that share state,
// exchange messages and jointly execute a dependency-ordered TaskPlan.
//
// A Forest owns:
//   - a SharedContext (key/value data, message history and queue, metadata, plan)
//   - a message bus with direct and broadcast delivery into agent conversations
//   - the coordination tools every member agent receives on AddAgent
//   - the three phase collaborative protocol (plan, execute, synthesise)
//
// Shared state is guarded by one lock that is never held across a model call,
// so a slow agent never blocks reads by the others.
package forest
