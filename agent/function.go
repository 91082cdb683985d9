package agent

import (
	"fmt"

	"github.com/skritek/switchboard/internal/schema"
)

// FuncAgent is a generic adapter that exposes a plain Go function as a
// Switchboard agent.
//
// Responsibilities:
//   - Holds a lightweight JSON-Schema-like parameter specification
//   - Validates model supplied arguments against that schema before execution
//   - Normalizes error handling so callers receive *InvocationError with
//     consistent codes:
//     VALIDATION_ERROR  -> schema / argument mismatch
//     EXECUTION_ERROR   -> underlying function returned an error
//     (custom codes preserved if the function returns *InvocationError directly)
//
// A FuncAgent has no internal mutable state after construction and is safe
// for concurrent use by multiple goroutines.
type FuncAgent struct {
	// Agent identifier, unique within a registry
	id string
	// Human-readable description shown to models
	description string
	// JSON schema describing accepted arguments
	parameters map[string]any
	// User supplied implementation
	fn func(args map[string]any) (string, error)
}

// NewFuncAgent constructs a FuncAgent from explicit schema and function.
//
// Example:
//
//	weather := NewFuncAgent(
//	  "Weather",
//	  "Look up the current weather for a city",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "city": map[string]any{"type": "string"},
//	    },
//	    "required": []string{"city"},
//	  },
//	  func(args map[string]any) (string, error) {
//	    return lookup(args["city"].(string))
//	  },
//	)
func NewFuncAgent(
	id, description string,
	parameters map[string]any,
	fn func(args map[string]any) (string, error),
) *FuncAgent {
	return &FuncAgent{
		id:          id,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFuncAgentFromStruct derives the parameter schema from a struct using
// reflection. It is a convenience for simple argument containers.
func NewFuncAgentFromStruct(
	id, description string,
	structType any,
	fn func(args map[string]any) (string, error),
) *FuncAgent {
	return NewFuncAgent(id, description, schema.Create(structType), fn)
}

// Descriptor returns the agent identity used in tool declarations and routing.
func (a *FuncAgent) Descriptor() Descriptor {
	return Descriptor{ID: a.id, Description: a.description, Parameters: a.parameters}
}

// Invoke validates the provided args against the declared schema then calls
// the underlying function. Validation or execution failures are wrapped (or
// passed through) as *InvocationError for uniform downstream handling.
func (a *FuncAgent) Invoke(args map[string]any) (string, error) {
	if err := schema.Validate(args, a.parameters); err != nil {
		return "", &InvocationError{
			Agent:   a.id,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    "VALIDATION_ERROR",
		}
	}

	result, err := a.fn(args)
	if err != nil {
		if invErr, ok := err.(*InvocationError); ok {
			return "", invErr
		}
		return "", &InvocationError{
			Agent:   a.id,
			Message: err.Error(),
			Code:    "EXECUTION_ERROR",
		}
	}

	return result, nil
}
