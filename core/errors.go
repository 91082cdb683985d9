package core

import "github.com/skritek/switchboard/internal/schema"

// ValidationError signals a missing or malformed caller-supplied field. It is
// the only failure Process surfaces to its caller instead of folding into the
// response text; HTTP adapters map it to a client-error status.
type ValidationError = schema.ValidationError
