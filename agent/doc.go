// Package agent implements the capability-provider subsystem: the Agent
// interface, a schema-validated function adapter, and the Registry that holds
// the set of invocable agents behind an atomically swapped snapshot.
//
// Agents are registered explicitly through factories; there is no filesystem
// scanning or reflective discovery. A factory that fails during Load is
// logged and skipped so one broken unit never prevents the rest from loading.
package agent
