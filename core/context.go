package core

import "slices"

// Wildcard is the sentinel entry meaning "all agents" (or "all skills") when
// it appears in a context's allow-list.
const Wildcard = "*"

// Context is a named configuration scoping which agents and skills are
// eligible for a conversation and which system prompt applies. Contexts are
// addressed by GUID; the store guarantees a context named "default" always
// exists and is never deleted.
type Context struct {
	GUID         string         `json:"guid"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Agents       []string       `json:"agents"`
	Skills       []string       `json:"skills"`
	SystemPrompt string         `json:"system_prompt"`
	Config       map[string]any `json:"config"`
}

// AllowsAllAgents reports whether the agent allow-list contains the wildcard.
func (c *Context) AllowsAllAgents() bool {
	return slices.Contains(c.Agents, Wildcard)
}

// AllowsAgent reports whether the given agent id is eligible under this
// context, either via the wildcard or an explicit allow-list entry.
func (c *Context) AllowsAgent(id string) bool {
	return c.AllowsAllAgents() || slices.Contains(c.Agents, id)
}

// ContextSummary is the listing projection of a context.
type ContextSummary struct {
	GUID        string `json:"guid"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ContextOptions carries the optional fields of a context creation.
type ContextOptions struct {
	Description  string
	SystemPrompt string
	Skills       []string
	Config       map[string]any
}

// ContextStore manages named contexts keyed by GUID.
//
// Get never reports "not found": an unknown or empty GUID resolves to the
// default context, so callers never need a nil check. Implementations must
// publish consistent snapshots; a reader concurrent with Load or Create
// observes either the old set or the new set in full.
type ContextStore interface {
	// Load (re)reads all persisted contexts. A failure to parse one record
	// is isolated: it is logged and skipped, the rest still load.
	Load() error

	// Get returns the context for the GUID, falling back to the default
	// context when the GUID is unknown or empty.
	Get(guid string) *Context

	// Create persists a new context under a freshly generated GUID and
	// returns it.
	Create(name string, agents []string, optFns ...func(o *ContextOptions)) (*Context, error)

	// List returns a summary of every known context.
	List() []ContextSummary
}
