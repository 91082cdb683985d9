package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/skritek/switchboard/core"
)

// memoryTimestamp is the layout for user memory lines, matching the
// bracketed-ISO format long-term notes have always used.
const memoryTimestamp = time.RFC3339

// UserMemory returns the accumulated notes for a user as timestamped lines in
// append order, or the empty string when nothing has been recorded.
func (s *SQLiteStore) UserMemory(userGUID string) (string, error) {
	rows, err := s.db.Query(
		`SELECT content, created_at FROM user_memory WHERE user_guid = ? ORDER BY id`,
		userGUID,
	)
	if err != nil {
		return "", fmt.Errorf("reading user memory: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var content string
		var createdAt time.Time
		if err := rows.Scan(&content, &createdAt); err != nil {
			return "", fmt.Errorf("reading user memory: %w", err)
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s] %s", createdAt.UTC().Format(memoryTimestamp), content)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("reading user memory: %w", err)
	}
	return b.String(), nil
}

// AppendUserMemory durably appends one timestamped note line. Notes are
// append-only and never truncated.
func (s *SQLiteStore) AppendUserMemory(userGUID, content string) error {
	_, err := s.db.Exec(
		`INSERT INTO user_memory (user_guid, content, created_at) VALUES (?, ?, ?)`,
		userGUID, content, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("appending user memory: %w", err)
	}
	return nil
}

// SessionMemory returns the persisted transcript for a session, or an empty
// slice when the session is unknown.
func (s *SQLiteStore) SessionMemory(sessionGUID string) ([]core.Turn, error) {
	var transcript string
	err := s.db.QueryRow(
		`SELECT transcript FROM session_memory WHERE session_guid = ?`,
		sessionGUID,
	).Scan(&transcript)
	if isNoRows(err) {
		return []core.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session memory: %w", err)
	}

	var turns []core.Turn
	if err := json.Unmarshal([]byte(transcript), &turns); err != nil {
		return nil, fmt.Errorf("decoding session transcript: %w", err)
	}
	return turns, nil
}

// SaveSessionMemory overwrites the stored transcript for a session. The
// caller truncates to the transcript cap before the save.
func (s *SQLiteStore) SaveSessionMemory(sessionGUID string, turns []core.Turn) error {
	payload, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encoding session transcript: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO session_memory (session_guid, transcript, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_guid) DO UPDATE SET
			transcript = excluded.transcript,
			updated_at = excluded.updated_at`,
		sessionGUID, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving session memory: %w", err)
	}
	return nil
}
