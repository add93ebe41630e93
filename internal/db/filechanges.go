package db

import (
	"context"
	"database/sql"
	"fmt"
)

// FileChange records a file written or edited by a tool call.
// Sequence is the owning message's sequence and is resolved to
// message_id on insert.
type FileChange struct {
	ID          int64   `json:"id"`
	SessionID   string  `json:"session_id"`
	MessageID   *int64  `json:"message_id"`
	Sequence    int     `json:"-"`
	FilePath    string  `json:"file_path"`
	ChangeType  string  `json:"change_type"`
	DiffSummary *string `json:"diff_summary,omitempty"`
}

// GetFileChanges returns the file changes of a session in
// insertion order.
func (db *DB) GetFileChanges(
	ctx context.Context, sessionID string,
) ([]FileChange, error) {
	rows, err := db.reader.QueryContext(ctx, `
		SELECT id, session_id, message_id, file_path,
			change_type, diff_summary
		FROM file_changes
		WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying file changes: %w", err)
	}
	defer rows.Close()

	var out []FileChange
	for rows.Next() {
		var fc FileChange
		var changeType sql.NullString
		if err := rows.Scan(
			&fc.ID, &fc.SessionID, &fc.MessageID, &fc.FilePath,
			&changeType, &fc.DiffSummary,
		); err != nil {
			return nil, fmt.Errorf("scanning file change: %w", err)
		}
		fc.ChangeType = changeType.String
		out = append(out, fc)
	}
	return out, rows.Err()
}

func insertFileChangesTx(
	tx *sql.Tx, sessionID string,
	changes []FileChange, msgIDs map[int]int64,
) error {
	if len(changes) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`
		INSERT INTO file_changes
			(session_id, message_id, file_path,
			 change_type, diff_summary)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing file_changes insert: %w", err)
	}
	defer stmt.Close()

	for _, fc := range changes {
		var msgID any
		if id, ok := msgIDs[fc.Sequence]; ok {
			msgID = id
		}
		if _, err := stmt.Exec(
			sessionID, msgID, fc.FilePath,
			nilIfEmpty(fc.ChangeType), fc.DiffSummary,
		); err != nil {
			return fmt.Errorf(
				"inserting file change %s: %w", fc.FilePath, err,
			)
		}
	}
	return nil
}
