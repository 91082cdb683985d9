package core

// MemoryStore persists long-term per-user notes and bounded per-session
// transcripts.
//
// User memory is append-only free text: AppendUserMemory adds a timestamped
// line and never truncates. Session memory is rewritten wholesale on every
// turn; the store does not enforce the transcript cap. Truncation to the
// most recent turns is the dispatcher's responsibility before the save.
type MemoryStore interface {
	// UserMemory returns the accumulated notes for a user, or the empty
	// string when nothing has been recorded.
	UserMemory(userGUID string) (string, error)

	// AppendUserMemory durably appends one timestamped free-text line.
	AppendUserMemory(userGUID, content string) error

	// SessionMemory returns the persisted transcript for a session, or an
	// empty slice when the session is unknown.
	SessionMemory(sessionGUID string) ([]Turn, error)

	// SaveSessionMemory overwrites the stored transcript with the given
	// turns, already truncated by the caller.
	SaveSessionMemory(sessionGUID string, turns []Turn) error
}
