// Package dispatch implements the orchestration engine. One Process call
// resolves the context, computes the eligible agent set, assembles the prompt
// with a bounded window of user memory, runs a two-round tool-calling
// protocol against the model gateway (or falls back to direct keyword routing
// when no gateway is configured), and persists the session transcript.
//
// Process never fails past its input validation: every gateway and agent
// failure is folded into response text plus diagnostic log entries, trading
// strict correctness for availability.
package dispatch
