package agent

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/skritek/switchboard/logging"
)

// RegistryOptions configures a Registry instance.
type RegistryOptions struct {
	// Logger receives per-unit load failures. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Registry holds the set of invocable agents. The registered set lives behind
// an atomically swapped snapshot: Load and Reload build a complete new map
// from the registered factories and publish it in one step, so readers
// concurrent with a reload observe either the old set or the new set in full,
// never a partial mix.
type Registry struct {
	mu        sync.Mutex // guards factories and serializes Load
	factories []Factory
	snapshot  atomic.Pointer[map[string]Agent]
	logger    logging.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Registry{logger: opts.Logger}
	empty := map[string]Agent{}
	r.snapshot.Store(&empty)
	return r
}

// Register adds agent factories to the registry. Factories take effect on the
// next Load or Reload; registration itself does not instantiate anything.
func (r *Registry) Register(factories ...Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = append(r.factories, factories...)
}

// Load instantiates every registered factory and atomically publishes the
// resulting set. A factory that returns an error is logged and skipped; it
// never prevents the remaining units from loading. An agent whose id collides
// with an earlier one replaces it.
func (r *Registry) Load() {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]Agent, len(r.factories))
	for _, factory := range r.factories {
		a, err := factory()
		if err != nil {
			r.logger.Warn("agent load failed, skipping unit", "error", err.Error())
			continue
		}
		id := a.Descriptor().ID
		if id == "" {
			r.logger.Warn("agent load produced empty id, skipping unit")
			continue
		}
		next[id] = a
		r.logger.Info("loaded agent", "agent", id)
	}

	r.snapshot.Store(&next)
}

// Reload atomically replaces the entire registered set by re-running every
// factory. Equivalent to Load; the separate name mirrors the operational
// intent at call sites.
func (r *Registry) Reload() {
	r.Load()
}

// Get returns the agent registered under id, if any.
func (r *Registry) Get(id string) (Agent, bool) {
	snap := *r.snapshot.Load()
	a, ok := snap[id]
	return a, ok
}

// List returns every registered agent from the current snapshot. Order is
// unspecified.
func (r *Registry) List() []Agent {
	snap := *r.snapshot.Load()
	agents := make([]Agent, 0, len(snap))
	for _, a := range snap {
		agents = append(agents, a)
	}
	return agents
}

// IDs returns the ids of all registered agents in lexicographic order.
func (r *Registry) IDs() []string {
	snap := *r.snapshot.Load()
	ids := make([]string, 0, len(snap))
	for id := range snap {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns the current id-to-agent map. The returned map is the
// published snapshot itself and must not be mutated.
func (r *Registry) Snapshot() map[string]Agent {
	return *r.snapshot.Load()
}

// Len returns the number of registered agents in the current snapshot.
func (r *Registry) Len() int {
	return len(*r.snapshot.Load())
}
