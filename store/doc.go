// Package store provides the persistence backends for contexts and memory:
// a durable SQLite implementation (modernc.org/sqlite, pure Go) and volatile
// in-memory implementations suited to tests and ephemeral demo servers.
//
// Both context store implementations publish immutable snapshots behind an
// atomic pointer, so request handlers concurrent with Load or Create always
// observe a complete context set.
package store
