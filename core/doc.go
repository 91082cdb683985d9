// Package core provides the foundational domain types and store contracts used
// by Switchboard. It defines the core abstractions for:
//
//   - Requests and Responses (one orchestrated exchange per call)
//   - Conversation turns (bounded per-session transcripts)
//   - Contexts (named configurations scoping agents, skills and system prompt)
//   - Pluggable stores for contexts and per-user / per-session memory
//
// The package intentionally keeps implementation concerns (persistence,
// dispatch orchestration, concrete agents, model transports) out of scope,
// exposing small interfaces to enable custom backends and extensions.
package core
