// Package switchboard provides a high-level façade over the dispatcher and
// its collaborators (agent registry, context store, memory store, model
// gateway) enabling rapid construction of a GUID-addressed orchestration
// endpoint. Most applications interact with this package by:
//  1. Creating a Switchboard via New() (optionally overriding default in-memory stores)
//  2. Registering one or more agent factories and calling Load()
//  3. Answering requests through Process()
//
// The façade replaces any global singleton: construct it once at process
// start and pass it by reference to every channel adapter. Lifecycle (load,
// reload) is an explicit method call on the object. All defaults are safe for
// local development and testing; production deployments typically supply the
// durable SQLite stores and a structured logger.
package switchboard

import (
	"context"
	"time"

	"github.com/skritek/switchboard/agent"
	"github.com/skritek/switchboard/core"
	"github.com/skritek/switchboard/dispatch"
	"github.com/skritek/switchboard/logging"
	"github.com/skritek/switchboard/model"
	"github.com/skritek/switchboard/store"
)

// Options configures the Switchboard instance.
type Options struct {
	// Stores (default to in-memory implementations if not provided)
	Contexts core.ContextStore
	Memory   core.MemoryStore

	// Gateway is the completion service. Nil runs in degraded mode where
	// requests are answered by direct keyword routing.
	Gateway model.Gateway

	// GatewayTimeout bounds each completion call.
	GatewayTimeout time.Duration

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Switchboard is the high-level façade aggregating the dispatcher and its
// collaborators.
type Switchboard struct {
	registry   *agent.Registry
	contexts   core.ContextStore
	memory     core.MemoryStore
	dispatcher *dispatch.Dispatcher
}

// New creates a new Switchboard instance with optional overrides. Any unset
// store is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Switchboard {
	opts := Options{
		Contexts: store.NewInMemoryContextStore(),
		Memory:   store.NewInMemoryMemoryStore(),
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	registry := agent.NewRegistry(func(o *agent.RegistryOptions) {
		o.Logger = opts.Logger
	})

	dispatcher := dispatch.New(registry, opts.Contexts, opts.Memory, func(o *dispatch.Options) {
		o.Gateway = opts.Gateway
		o.GatewayTimeout = opts.GatewayTimeout
		o.Logger = opts.Logger
	})

	return &Switchboard{
		registry:   registry,
		contexts:   opts.Contexts,
		memory:     opts.Memory,
		dispatcher: dispatcher,
	}
}

// RegisterAgents adds agent factories to the underlying registry. Call Load
// (or Reload) afterwards to instantiate them.
func (s *Switchboard) RegisterAgents(factories ...agent.Factory) {
	s.registry.Register(factories...)
}

// Load instantiates all registered agent factories and reads persisted
// contexts into memory.
func (s *Switchboard) Load() error {
	s.registry.Load()
	return s.contexts.Load()
}

// Reload atomically replaces the agent set and re-reads all contexts.
func (s *Switchboard) Reload() error {
	s.registry.Reload()
	return s.contexts.Load()
}

// Process answers one request through the dispatcher.
func (s *Switchboard) Process(ctx context.Context, req core.Request) (*core.Response, error) {
	return s.dispatcher.Process(ctx, req)
}

// Registry returns the agent registry.
func (s *Switchboard) Registry() *agent.Registry { return s.registry }

// Contexts returns the context store.
func (s *Switchboard) Contexts() core.ContextStore { return s.contexts }

// Memory returns the memory store.
func (s *Switchboard) Memory() core.MemoryStore { return s.memory }

// Dispatcher returns the orchestration engine, for adapters that need it
// directly.
func (s *Switchboard) Dispatcher() *dispatch.Dispatcher { return s.dispatcher }
