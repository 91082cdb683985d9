package store

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/skritek/switchboard/core"
)

// InMemoryContextStore is a volatile core.ContextStore implementation keeping
// contexts in a process local snapshot. The default context always exists.
// Best suited for tests or ephemeral demo servers.
type InMemoryContextStore struct {
	mu       sync.Mutex
	contexts atomic.Pointer[map[string]*core.Context]
}

var _ core.ContextStore = (*InMemoryContextStore)(nil)

// NewInMemoryContextStore constructs a context store seeded with the default
// context.
func NewInMemoryContextStore() *InMemoryContextStore {
	s := &InMemoryContextStore{}
	seed := map[string]*core.Context{core.DefaultGUID: builtinDefaultContext()}
	s.contexts.Store(&seed)
	return s
}

// Load re-seeds the default context if it was never stored. There is no
// durable backing to read from.
func (s *InMemoryContextStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := *s.contexts.Load()
	if _, ok := current[core.DefaultGUID]; ok {
		return nil
	}
	next := make(map[string]*core.Context, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	next[core.DefaultGUID] = builtinDefaultContext()
	s.contexts.Store(&next)
	return nil
}

// Get returns the context for the GUID, falling back to the default context.
func (s *InMemoryContextStore) Get(guid string) *core.Context {
	snap := *s.contexts.Load()
	if ctx, ok := snap[guid]; ok {
		return ctx
	}
	if ctx, ok := snap[core.DefaultGUID]; ok {
		return ctx
	}
	return builtinDefaultContext()
}

// Create registers a new context under a freshly generated GUID.
func (s *InMemoryContextStore) Create(name string, agents []string, optFns ...func(o *core.ContextOptions)) (*core.Context, error) {
	opts := core.ContextOptions{
		Skills: []string{core.Wildcard},
		Config: map[string]any{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config == nil {
		opts.Config = map[string]any{}
	}

	ctx := &core.Context{
		GUID:         uuid.NewString(),
		Name:         name,
		Description:  opts.Description,
		Agents:       agents,
		Skills:       opts.Skills,
		SystemPrompt: opts.SystemPrompt,
		Config:       opts.Config,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current := *s.contexts.Load()
	next := make(map[string]*core.Context, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	next[ctx.GUID] = ctx
	s.contexts.Store(&next)
	return ctx, nil
}

// List returns a summary of every known context.
func (s *InMemoryContextStore) List() []core.ContextSummary {
	snap := *s.contexts.Load()
	summaries := make([]core.ContextSummary, 0, len(snap))
	for _, ctx := range snap {
		summaries = append(summaries, core.ContextSummary{
			GUID:        ctx.GUID,
			Name:        ctx.Name,
			Description: ctx.Description,
		})
	}
	return summaries
}

// InMemoryMemoryStore is a volatile core.MemoryStore keeping user notes and
// session transcripts in process local maps. Safe for concurrent access.
type InMemoryMemoryStore struct {
	mu       sync.RWMutex
	users    map[string][]string
	sessions map[string][]core.Turn
}

var _ core.MemoryStore = (*InMemoryMemoryStore)(nil)

// NewInMemoryMemoryStore constructs an empty in-memory memory store.
func NewInMemoryMemoryStore() *InMemoryMemoryStore {
	return &InMemoryMemoryStore{
		users:    make(map[string][]string),
		sessions: make(map[string][]core.Turn),
	}
}

// UserMemory returns the accumulated notes for a user.
func (s *InMemoryMemoryStore) UserMemory(userGUID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := s.users[userGUID]
	if len(lines) == 0 {
		return "", nil
	}
	out := lines[0]
	for _, line := range lines[1:] {
		out += "\n" + line
	}
	return out, nil
}

// AppendUserMemory appends one timestamped note line.
func (s *InMemoryMemoryStore) AppendUserMemory(userGUID, content string) error {
	line := fmt.Sprintf("[%s] %s", time.Now().UTC().Format(memoryTimestamp), content)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userGUID] = append(s.users[userGUID], line)
	return nil
}

// SessionMemory returns a copy of the persisted transcript for a session.
func (s *InMemoryMemoryStore) SessionMemory(sessionGUID string) ([]core.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.sessions[sessionGUID]
	turns := make([]core.Turn, len(stored))
	copy(turns, stored)
	return turns, nil
}

// SaveSessionMemory overwrites the stored transcript with a copy of the given
// turns.
func (s *InMemoryMemoryStore) SaveSessionMemory(sessionGUID string, turns []core.Turn) error {
	stored := make([]core.Turn, len(turns))
	copy(stored, turns)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionGUID] = stored
	return nil
}
