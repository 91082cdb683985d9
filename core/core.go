package core

import "strings"

// Conversation roles used in transcripts and model prompts.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// DefaultGUID identifies the built-in user and context records. Requests that
// omit a user or context GUID resolve to it.
const DefaultGUID = "default"

// Turn is a single conversational exchange entry (one user or assistant
// message). Transcripts are ordered sequences of turns.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one inbound orchestration request, channel-agnostic. Channel
// adapters construct a Request from their medium (HTTP body, polled row,
// webhook payload) and hand it to the dispatcher.
//
// ConversationHistory is the caller-supplied prior exchange, independent of
// any transcript persisted under SessionGUID; the dispatcher reconciles the
// two when it saves the session.
type Request struct {
	UserInput           string `json:"user_input"`
	UserGUID            string `json:"user_guid,omitempty"`
	SessionGUID         string `json:"session_guid,omitempty"`
	ContextGUID         string `json:"context_guid,omitempty"`
	ConversationHistory []Turn `json:"conversation_history,omitempty"`
}

// Normalize applies the documented defaults for omitted identity fields.
// It does not touch SessionGUID; session generation is the dispatcher's job.
func (r *Request) Normalize() {
	if r.UserGUID == "" {
		r.UserGUID = DefaultGUID
	}
	if r.ContextGUID == "" {
		r.ContextGUID = DefaultGUID
	}
}

// Validate reports whether the request carries the one required field.
// A missing or blank UserInput is the only caller-level failure the
// dispatcher ever surfaces as an error.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.UserInput) == "" {
		return &ValidationError{Field: "user_input", Message: "required field is missing"}
	}
	return nil
}

// Response is the structured result of one orchestrated exchange.
//
// VoiceResponse is an optional shorter variant of Response, carried as its own
// field rather than smuggled inside the primary text. AgentLogs holds one
// diagnostic entry per agent invocation attempt; AgentsUsed lists the ids of
// agents actually invoked.
type Response struct {
	Response      string   `json:"response"`
	VoiceResponse string   `json:"voice_response"`
	AgentLogs     []string `json:"agent_logs"`
	AgentsUsed    []string `json:"agents_used"`
	SessionGUID   string   `json:"session_guid"`
	ContextGUID   string   `json:"context_guid"`
}
