package db

import (
	"context"
	"database/sql"
	"fmt"
)

// TokenUsage represents a row in the token_usage table.
type TokenUsage struct {
	ID                  int64   `json:"id"`
	SessionID           string  `json:"session_id"`
	MessageSequence     int     `json:"message_sequence"`
	Timestamp           *string `json:"timestamp"`
	Model               string  `json:"model"`
	InputTokens         int64   `json:"input_tokens"`
	OutputTokens        int64   `json:"output_tokens"`
	CacheReadTokens     int64   `json:"cache_read_tokens"`
	CacheCreationTokens int64   `json:"cache_creation_tokens"`
}

// GetTokenUsage returns the per-message token usage of a
// session ordered by message sequence.
func (db *DB) GetTokenUsage(
	ctx context.Context, sessionID string,
) ([]TokenUsage, error) {
	rows, err := db.reader.QueryContext(ctx, `
		SELECT id, session_id, message_sequence, timestamp,
			model, input_tokens, output_tokens,
			cache_read_tokens, cache_creation_tokens
		FROM token_usage
		WHERE session_id = ?
		ORDER BY message_sequence, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying token usage: %w", err)
	}
	defer rows.Close()

	var out []TokenUsage
	for rows.Next() {
		var u TokenUsage
		if err := rows.Scan(
			&u.ID, &u.SessionID, &u.MessageSequence,
			&u.Timestamp, &u.Model, &u.InputTokens,
			&u.OutputTokens, &u.CacheReadTokens,
			&u.CacheCreationTokens,
		); err != nil {
			return nil, fmt.Errorf("scanning token usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func insertTokenUsageTx(
	tx *sql.Tx, sessionID string, usage []TokenUsage,
) error {
	if len(usage) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`
		INSERT INTO token_usage
			(session_id, message_sequence, timestamp, model,
			 input_tokens, output_tokens,
			 cache_read_tokens, cache_creation_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing token_usage insert: %w", err)
	}
	defer stmt.Close()

	for _, u := range usage {
		if _, err := stmt.Exec(
			sessionID, u.MessageSequence, u.Timestamp, u.Model,
			u.InputTokens, u.OutputTokens,
			u.CacheReadTokens, u.CacheCreationTokens,
		); err != nil {
			return fmt.Errorf(
				"inserting token usage for message %d: %w",
				u.MessageSequence, err,
			)
		}
	}
	return nil
}
