package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Todo represents a row in the session_todos table.
type Todo struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
	Status    string `json:"status"`
	Sequence  int    `json:"sequence"`
}

// InsertTodos stores the todo list of a session. A session that
// already has todos is left untouched and 0 is returned.
func (db *DB) InsertTodos(
	sessionID string, todos []Todo,
) (int, error) {
	if len(todos) == 0 {
		return 0, nil
	}
	inserted := 0
	err := db.Update(func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRow(
			"SELECT count(*) FROM session_todos WHERE session_id = ?",
			sessionID,
		).Scan(&n); err != nil {
			return fmt.Errorf("checking todos for %s: %w", sessionID, err)
		}
		if n > 0 {
			return nil
		}

		stmt, err := tx.Prepare(`
			INSERT INTO session_todos
				(session_id, content, status, sequence)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing todo insert: %w", err)
		}
		defer stmt.Close()

		for _, t := range todos {
			if _, err := stmt.Exec(
				sessionID, t.Content, t.Status, t.Sequence,
			); err != nil {
				return fmt.Errorf("inserting todo: %w", err)
			}
		}
		inserted = len(todos)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// GetTodos returns the todos of a session ordered by sequence.
func (db *DB) GetTodos(
	ctx context.Context, sessionID string,
) ([]Todo, error) {
	rows, err := db.reader.QueryContext(ctx, `
		SELECT id, session_id, COALESCE(content, ''),
			COALESCE(status, ''), sequence
		FROM session_todos
		WHERE session_id = ? ORDER BY sequence`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying todos: %w", err)
	}
	defer rows.Close()

	var out []Todo
	for rows.Next() {
		var t Todo
		if err := rows.Scan(
			&t.ID, &t.SessionID, &t.Content, &t.Status,
			&t.Sequence,
		); err != nil {
			return nil, fmt.Errorf("scanning todo: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
