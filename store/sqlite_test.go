package store

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skritek/switchboard/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteDefaultContext(t *testing.T) {
	s := newTestStore(t)

	ctx := s.Get(core.DefaultGUID)
	assert.Equal(t, core.DefaultGUID, ctx.GUID)
	assert.Equal(t, "Default Context", ctx.Name)
	assert.True(t, ctx.AllowsAllAgents())
	assert.Equal(t, "You are a helpful AI assistant.", ctx.SystemPrompt)
}

func TestSQLiteGetFallsBackToDefault(t *testing.T) {
	s := newTestStore(t)

	ctx := s.Get("no-such-guid")
	assert.Equal(t, core.DefaultGUID, ctx.GUID)

	ctx = s.Get("")
	assert.Equal(t, core.DefaultGUID, ctx.GUID)
}

func TestSQLiteCreateAndGet(t *testing.T) {
	s := newTestStore(t)

	created, err := s.Create("Work", []string{"Files", "Email"}, func(o *core.ContextOptions) {
		o.Description = "Work stuff"
		o.SystemPrompt = "You are a work assistant."
		o.Config = map[string]any{"tone": "formal"}
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.GUID)
	assert.NotEqual(t, core.DefaultGUID, created.GUID)

	got := s.Get(created.GUID)
	assert.Equal(t, "Work", got.Name)
	assert.Equal(t, "Work stuff", got.Description)
	assert.Equal(t, []string{"Files", "Email"}, got.Agents)
	assert.Equal(t, []string{core.Wildcard}, got.Skills)
	assert.Equal(t, "You are a work assistant.", got.SystemPrompt)
	assert.Equal(t, "formal", got.Config["tone"])
	assert.False(t, got.AllowsAgent("Weather"))
	assert.True(t, got.AllowsAgent("Files"))
}

func TestSQLiteCreateSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "persist.db")

	s1, err := NewSQLiteStore(path)
	require.NoError(t, err)
	created, err := s1.Create("Home", []string{core.Wildcard})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()

	got := s2.Get(created.GUID)
	assert.Equal(t, "Home", got.Name)
	assert.Len(t, s2.List(), 2)
}

func TestSQLiteLoadSkipsCorruptRow(t *testing.T) {
	s := newTestStore(t)

	created, err := s.Create("Good", []string{core.Wildcard})
	require.NoError(t, err)

	// Break one record's JSON column; Load must skip it and keep the rest.
	_, err = s.db.Exec(`
		INSERT INTO contexts (guid, name, agents, skills, config, created_at, updated_at)
		VALUES ('broken', 'Broken', 'not json', '["*"]', '{}', datetime('now'), datetime('now'))`)
	require.NoError(t, err)

	require.NoError(t, s.Load())

	assert.Equal(t, "Good", s.Get(created.GUID).Name)
	assert.Equal(t, core.DefaultGUID, s.Get("broken").GUID)
	assert.Len(t, s.List(), 2)
}

func TestSQLiteUserMemory(t *testing.T) {
	s := newTestStore(t)

	memory, err := s.UserMemory("u1")
	assert.NoError(t, err)
	assert.Empty(t, memory)

	require.NoError(t, s.AppendUserMemory("u1", "likes coffee"))
	require.NoError(t, s.AppendUserMemory("u1", "works remotely"))
	require.NoError(t, s.AppendUserMemory("u2", "other user"))

	memory, err = s.UserMemory("u1")
	assert.NoError(t, err)

	lines := strings.Split(memory, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "["))
	assert.True(t, strings.HasSuffix(lines[0], "] likes coffee"))
	assert.True(t, strings.HasSuffix(lines[1], "] works remotely"))
}

func TestSQLiteSessionMemory(t *testing.T) {
	s := newTestStore(t)

	turns, err := s.SessionMemory("unknown")
	assert.NoError(t, err)
	assert.Empty(t, turns)

	first := []core.Turn{
		{Role: core.RoleUser, Content: "hi"},
		{Role: core.RoleAssistant, Content: "hello"},
	}
	require.NoError(t, s.SaveSessionMemory("sess1", first))

	got, err := s.SessionMemory("sess1")
	assert.NoError(t, err)
	assert.Equal(t, first, got)

	// Saving again overwrites, not appends.
	second := append(first, core.Turn{Role: core.RoleUser, Content: "more"})
	require.NoError(t, s.SaveSessionMemory("sess1", second))

	got, err = s.SessionMemory("sess1")
	assert.NoError(t, err)
	assert.Equal(t, second, got)
}
