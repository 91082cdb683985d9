package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider
// branching.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"` // JSON string of arguments
}

// Args decodes the call arguments into a map. Empty or absent arguments
// decode to an empty map rather than an error.
func (tc ToolCall) Args() (map[string]any, error) {
	if len(tc.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(tc.Arguments, &args); err != nil {
		return nil, fmt.Errorf("decode tool call arguments: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// ToolDefinition declaratively exposes a callable agent to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Message is one prompt entry in provider-neutral form. An assistant message
// that requested a tool carries ToolCall; the matching result message uses
// RoleTool with ToolCallID set for correlation.
type Message struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	ToolCall   *ToolCall `json:"tool_call,omitempty"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
}

// Request captures the normalized gateway input produced by the dispatcher.
type Request struct {
	Messages []Message        `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

// Completion is the normalized result of one completion call: either plain
// assistant text, or a request to invoke one tool (in which case Text may
// still carry preamble content).
type Completion struct {
	Text     string    `json:"text"`
	ToolCall *ToolCall `json:"tool_call,omitempty"`
}

// Info contains metadata about a gateway implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Gateway is the minimal interface the dispatcher requires from a completion
// service. Complete blocks until the provider answers or ctx expires; the
// dispatcher bounds each call with a caller-supplied timeout and treats a
// deadline error like any other gateway failure.
type Gateway interface {
	Complete(ctx context.Context, req Request) (*Completion, error)

	// Info returns information about the gateway implementation.
	Info() Info
}

// MockGateway is a lightweight scripted Gateway useful for tests & examples.
// Completions are consumed in FIFO order; every received request is recorded
// for assertions. Safe for concurrent use.
type MockGateway struct {
	mu       sync.Mutex
	info     Info
	scripted []scriptedReply
	requests []Request
}

type scriptedReply struct {
	completion *Completion
	err        error
}

// NewMockGateway constructs a MockGateway with basic tool support enabled.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		info: Info{Name: "mock", Provider: "mock", SupportsTools: true},
	}
}

// EnqueueText scripts a plain-text completion.
func (m *MockGateway) EnqueueText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripted = append(m.scripted, scriptedReply{completion: &Completion{Text: text}})
}

// EnqueueToolCall scripts a completion requesting invocation of one tool.
func (m *MockGateway) EnqueueToolCall(name string, args map[string]any) {
	raw, _ := json.Marshal(args)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripted = append(m.scripted, scriptedReply{completion: &Completion{
		ToolCall: &ToolCall{ID: fmt.Sprintf("call_%d", len(m.scripted)), Name: name, Arguments: raw},
	}})
}

// EnqueueError scripts a gateway failure.
func (m *MockGateway) EnqueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripted = append(m.scripted, scriptedReply{err: err})
}

// Complete implements Gateway; it pops the next scripted reply.
func (m *MockGateway) Complete(ctx context.Context, req Request) (*Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if len(m.scripted) == 0 {
		return &Completion{Text: "mock completion"}, nil
	}
	next := m.scripted[0]
	m.scripted = m.scripted[1:]
	if next.err != nil {
		return nil, next.err
	}
	return next.completion, nil
}

// Requests returns a copy of every request received so far.
func (m *MockGateway) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	reqs := make([]Request, len(m.requests))
	copy(reqs, m.requests)
	return reqs
}

// Info implements Gateway.
func (m *MockGateway) Info() Info { return m.info }
