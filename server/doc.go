// Package server exposes the dispatcher over HTTP for desktop front-ends and
// external integrations. It is a thin channel adapter: every handler either
// calls Dispatcher.Process or reads from the registry and context store, and
// relays the result as JSON. No core state lives here.
package server
