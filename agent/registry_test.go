package agent

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestAgent(id string) Agent {
	return NewFuncAgent(
		id,
		"test agent "+id,
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(args map[string]any) (string, error) { return id + " result", nil },
	)
}

func factoryFor(id string) Factory {
	return func() (Agent, error) { return newTestAgent(id), nil }
}

func TestRegistryLoad(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Len())

	r.Register(factoryFor("Files"), factoryFor("Weather"))

	// Registration alone instantiates nothing.
	assert.Equal(t, 0, r.Len())

	r.Load()
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"Files", "Weather"}, r.IDs())

	a, ok := r.Get("Files")
	assert.True(t, ok)
	assert.Equal(t, "Files", a.Descriptor().ID)

	_, ok = r.Get("Email")
	assert.False(t, ok)
}

func TestRegistryLoadIsolatesFailures(t *testing.T) {
	r := NewRegistry()
	r.Register(
		factoryFor("Files"),
		func() (Agent, error) { return nil, errors.New("missing credential") },
		factoryFor("Weather"),
	)

	r.Load()

	// The failing unit is skipped, the rest still load.
	assert.Equal(t, []string{"Files", "Weather"}, r.IDs())
}

func TestRegistrySkipsEmptyID(t *testing.T) {
	r := NewRegistry()
	r.Register(factoryFor(""), factoryFor("Files"))
	r.Load()
	assert.Equal(t, []string{"Files"}, r.IDs())
}

func TestRegistryDuplicateIDReplaces(t *testing.T) {
	r := NewRegistry()
	r.Register(factoryFor("Files"))
	r.Register(func() (Agent, error) {
		return NewFuncAgent(
			"Files",
			"replacement",
			map[string]any{"type": "object", "properties": map[string]any{}},
			func(args map[string]any) (string, error) { return "new", nil },
		), nil
	})
	r.Load()

	assert.Equal(t, 1, r.Len())
	a, _ := r.Get("Files")
	assert.Equal(t, "replacement", a.Descriptor().Description)
}

func TestRegistryReloadReplacesSet(t *testing.T) {
	r := NewRegistry()
	r.Register(factoryFor("Files"))
	r.Load()
	assert.Equal(t, []string{"Files"}, r.IDs())

	before := r.Snapshot()

	r.Register(factoryFor("Weather"))
	r.Reload()
	assert.Equal(t, []string{"Files", "Weather"}, r.IDs())

	// The old snapshot is untouched; readers holding it saw a stable set.
	assert.Len(t, before, 1)
}

func TestRegistryConcurrentReload(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 10; i++ {
		r.Register(factoryFor(fmt.Sprintf("Agent%02d", i)))
	}
	r.Load()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Reload()
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snap := r.Snapshot()
				// Every observed snapshot is complete, never partial.
				assert.Len(t, snap, 10)
			}
		}()
	}
	wg.Wait()
}
