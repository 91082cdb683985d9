package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/skritek/switchboard/core"
)

// Built-in default context values, used both when seeding an empty database
// and as the last-resort fallback when the snapshot is unavailable.
const (
	defaultContextName        = "Default Context"
	defaultContextDescription = "Default context with all agents enabled"
	defaultSystemPrompt       = "You are a helpful AI assistant."
)

func builtinDefaultContext() *core.Context {
	return &core.Context{
		GUID:         core.DefaultGUID,
		Name:         defaultContextName,
		Description:  defaultContextDescription,
		Agents:       []string{core.Wildcard},
		Skills:       []string{core.Wildcard},
		SystemPrompt: defaultSystemPrompt,
		Config:       map[string]any{},
	}
}

// ensureDefaultContext persists the default context record if absent.
func (s *SQLiteStore) ensureDefaultContext() error {
	var exists int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM contexts WHERE guid = ?`, core.DefaultGUID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return nil
	}
	return s.insertContext(builtinDefaultContext())
}

func (s *SQLiteStore) insertContext(ctx *core.Context) error {
	agents, err := json.Marshal(ctx.Agents)
	if err != nil {
		return err
	}
	skills, err := json.Marshal(ctx.Skills)
	if err != nil {
		return err
	}
	config, err := json.Marshal(ctx.Config)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(`
		INSERT INTO contexts (guid, name, description, agents, skills, system_prompt, config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ctx.GUID, ctx.Name, ctx.Description, string(agents), string(skills), ctx.SystemPrompt, string(config), now, now,
	)
	return err
}

// Load re-reads every persisted context into a fresh snapshot and publishes
// it atomically. A row whose JSON columns fail to parse is logged and
// skipped; the rest still load.
func (s *SQLiteStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT guid, name, description, agents, skills, system_prompt, config FROM contexts`)
	if err != nil {
		return err
	}
	defer rows.Close()

	next := make(map[string]*core.Context)
	for rows.Next() {
		var guid, name, description, agents, skills, systemPrompt, config string
		if err := rows.Scan(&guid, &name, &description, &agents, &skills, &systemPrompt, &config); err != nil {
			s.logger.Warn("context row scan failed, skipping", "error", err.Error())
			continue
		}
		ctx, err := decodeContext(guid, name, description, agents, skills, systemPrompt, config)
		if err != nil {
			s.logger.Warn("context record parse failed, skipping", "guid", guid, "error", err.Error())
			continue
		}
		next[ctx.GUID] = ctx
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.contexts.Store(&next)
	s.logger.Info("contexts loaded", "count", len(next))
	return nil
}

func decodeContext(guid, name, description, agents, skills, systemPrompt, config string) (*core.Context, error) {
	ctx := &core.Context{
		GUID:         guid,
		Name:         name,
		Description:  description,
		SystemPrompt: systemPrompt,
	}
	if err := json.Unmarshal([]byte(agents), &ctx.Agents); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(skills), &ctx.Skills); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(config), &ctx.Config); err != nil {
		return nil, err
	}
	if ctx.Config == nil {
		ctx.Config = map[string]any{}
	}
	return ctx, nil
}

// Get returns the context for the GUID, or the default context when the GUID
// is unknown or empty. It never returns nil.
func (s *SQLiteStore) Get(guid string) *core.Context {
	snap := *s.contexts.Load()
	if ctx, ok := snap[guid]; ok {
		return ctx
	}
	if ctx, ok := snap[core.DefaultGUID]; ok {
		return ctx
	}
	return builtinDefaultContext()
}

// Create persists a new context under a freshly generated GUID, registers it
// in the snapshot and returns it.
func (s *SQLiteStore) Create(name string, agents []string, optFns ...func(o *core.ContextOptions)) (*core.Context, error) {
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

	if err := s.insertContext(ctx); err != nil {
		return nil, err
	}

	// Copy-then-swap so concurrent readers keep a consistent view.
	current := *s.contexts.Load()
	next := make(map[string]*core.Context, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	next[ctx.GUID] = ctx
	s.contexts.Store(&next)

	s.logger.Info("context created", "guid", ctx.GUID, "name", ctx.Name)
	return ctx, nil
}

// List returns a summary of every known context. Order is unspecified.
func (s *SQLiteStore) List() []core.ContextSummary {
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

// errNoRows aliases the database sentinel for readability at call sites.
var errNoRows = sql.ErrNoRows

func isNoRows(err error) bool {
	return errors.Is(err, errNoRows)
}
