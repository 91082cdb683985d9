package store

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skritek/switchboard/core"
)

func TestInMemoryContextStoreDefaults(t *testing.T) {
	s := NewInMemoryContextStore()

	ctx := s.Get(core.DefaultGUID)
	assert.Equal(t, core.DefaultGUID, ctx.GUID)
	assert.True(t, ctx.AllowsAllAgents())

	// Unknown and empty GUIDs resolve to the default context.
	assert.Equal(t, core.DefaultGUID, s.Get("nope").GUID)
	assert.Equal(t, core.DefaultGUID, s.Get("").GUID)

	assert.NoError(t, s.Load())
	assert.Len(t, s.List(), 1)
}

func TestInMemoryContextStoreCreate(t *testing.T) {
	s := NewInMemoryContextStore()

	created, err := s.Create("Scoped", []string{"Files"}, func(o *core.ContextOptions) {
		o.SystemPrompt = "Scoped prompt"
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.GUID)

	got := s.Get(created.GUID)
	assert.Equal(t, "Scoped", got.Name)
	assert.Equal(t, []string{"Files"}, got.Agents)
	assert.Equal(t, []string{core.Wildcard}, got.Skills)
	assert.Len(t, s.List(), 2)
}

func TestInMemoryContextStoreConcurrentCreate(t *testing.T) {
	s := NewInMemoryContextStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := s.Create(fmt.Sprintf("ctx-%d", n), []string{core.Wildcard})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.List(), 21)
}

func TestInMemoryMemoryStoreUserMemory(t *testing.T) {
	s := NewInMemoryMemoryStore()

	memory, err := s.UserMemory("u1")
	assert.NoError(t, err)
	assert.Empty(t, memory)

	require.NoError(t, s.AppendUserMemory("u1", "likes tea"))
	require.NoError(t, s.AppendUserMemory("u1", "night owl"))

	memory, err = s.UserMemory("u1")
	assert.NoError(t, err)
	lines := strings.Split(memory, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "] likes tea"))
	assert.True(t, strings.HasSuffix(lines[1], "] night owl"))
}

func TestInMemoryMemoryStoreSessions(t *testing.T) {
	s := NewInMemoryMemoryStore()

	turns, err := s.SessionMemory("none")
	assert.NoError(t, err)
	assert.Empty(t, turns)

	saved := []core.Turn{{Role: core.RoleUser, Content: "hi"}}
	require.NoError(t, s.SaveSessionMemory("s1", saved))

	got, err := s.SessionMemory("s1")
	assert.NoError(t, err)
	assert.Equal(t, saved, got)

	// The returned transcript is a copy; mutating it never leaks back.
	got[0].Content = "mutated"
	fresh, err := s.SessionMemory("s1")
	assert.NoError(t, err)
	assert.Equal(t, "hi", fresh[0].Content)
}
