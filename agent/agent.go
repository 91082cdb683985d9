package agent

import (
	"fmt"

	"github.com/skritek/switchboard/internal/schema"
)

// Descriptor is the immutable identity of a registered agent: a unique id,
// a human description shown to models, and a JSON-schema-like parameter
// specification (typed properties, required subset, optional enums).
// Descriptors are never mutated after registration; a reload replaces the
// registered set wholesale.
type Descriptor struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Agent is the capability contract every pluggable unit must satisfy.
//
// Invoke executes the capability with structured arguments and returns text.
// An Invoke error never propagates past the dispatcher; it is caught and
// converted into a diagnostic log entry plus response text.
//
// Implementations must be safe for concurrent use: the same agent instance
// may be invoked from multiple in-flight requests.
type Agent interface {
	// Descriptor returns the agent's identity and parameter schema.
	Descriptor() Descriptor

	// Invoke executes the capability with the given arguments.
	Invoke(args map[string]any) (string, error)
}

// Factory produces a ready-to-register agent instance. Registries call
// factories during Load/Reload; a factory returning an error is skipped.
type Factory func() (Agent, error)

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = schema.ValidationError

// InvocationError wraps a failure inside an agent's Invoke for uniform
// downstream handling.
type InvocationError struct {
	Agent   string `json:"agent"`   // Id of the agent that failed
	Message string `json:"message"` // Error message
	Code    string `json:"code"`    // Error code for categorization
}

func (e *InvocationError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("agent error [%s] in %s: %s", e.Code, e.Agent, e.Message)
	}
	return fmt.Sprintf("agent error in %s: %s", e.Agent, e.Message)
}

// NewInvocationError creates a new InvocationError with the specified details.
func NewInvocationError(agent, message, code string) *InvocationError {
	return &InvocationError{
		Agent:   agent,
		Message: message,
		Code:    code,
	}
}
