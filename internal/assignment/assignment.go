// Package assignment owns the conversation -> persona bindings. It is the
// single source of truth: the dispatcher re-reads on every event and never
// caches across events.
package assignment

import (
	"context"
	"database/sql"
	"fmt"
)

// Store persists the active persona per chat with last-writer-wins upsert
// semantics. Each call is one short-lived statement; the single-connection
// sqlite pool makes reads and writes for the same chat atomic relative to
// each other.
type Store struct {
	db *sql.DB
}

// NewStore creates an assignment store backed by the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Set binds the chat to the given persona id, replacing any previous
// binding and bumping the timestamp.
func (s *Store) Set(ctx context.Context, chatID int64, personaID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO active_personality (chat_id, personality) VALUES (?, ?)
		 ON CONFLICT(chat_id) DO UPDATE SET personality = excluded.personality, updated_at = CURRENT_TIMESTAMP`,
		chatID, personaID,
	)
	if err != nil {
		return fmt.Errorf("set personality for chat %d: %w", chatID, err)
	}
	return nil
}

// Get returns the persona id bound to the chat. ok is false when the chat
// has no persona selected.
func (s *Store) Get(ctx context.Context, chatID int64) (personaID string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT personality FROM active_personality WHERE chat_id = ?`, chatID,
	).Scan(&personaID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get personality for chat %d: %w", chatID, err)
	}
	return personaID, true, nil
}
