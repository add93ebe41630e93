package db

import (
	"context"
	"database/sql"
	"fmt"
)

// PromptEntry represents a row in the prompt_history table.
type PromptEntry struct {
	ID          int64   `json:"id"`
	Prompt      string  `json:"prompt"`
	ProjectPath *string `json:"project_path"`
	Timestamp   *string `json:"timestamp"`
	TimestampMS int64   `json:"timestamp_ms"`
}

// MaxPromptTimestamp returns the newest timestamp_ms stored in
// prompt_history, or 0 when the table is empty.
func (db *DB) MaxPromptTimestamp(ctx context.Context) (int64, error) {
	var ms int64
	err := db.reader.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(timestamp_ms), 0) FROM prompt_history",
	).Scan(&ms)
	if err != nil {
		return 0, fmt.Errorf("reading prompt watermark: %w", err)
	}
	return ms, nil
}

// InsertPrompts appends prompt history entries in a single
// transaction.
func (db *DB) InsertPrompts(entries []PromptEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return db.Update(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO prompt_history
				(prompt, project_path, timestamp, timestamp_ms)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing prompt insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range entries {
			if _, err := stmt.Exec(
				e.Prompt, e.ProjectPath, e.Timestamp,
				e.TimestampMS,
			); err != nil {
				return fmt.Errorf("inserting prompt: %w", err)
			}
		}
		return nil
	})
}
