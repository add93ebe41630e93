package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Tag is a label attached to a session.
type Tag struct {
	Tag           string `json:"tag"`
	AutoGenerated bool   `json:"auto_generated"`
}

// GetTags returns the tags of a session sorted by name.
func (db *DB) GetTags(
	ctx context.Context, sessionID string,
) ([]Tag, error) {
	rows, err := db.reader.QueryContext(ctx, `
		SELECT tag, auto_generated FROM session_tags
		WHERE session_id = ? ORDER BY tag`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.Tag, &t.AutoGenerated); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// AddTag attaches a manual tag to a session. Adding an existing
// tag is a no-op.
func (db *DB) AddTag(sessionID, tag string) error {
	return db.Update(func(tx *sql.Tx) error {
		return insertTagsTx(tx, sessionID, []Tag{{Tag: tag}})
	})
}

// insertTagsTx inserts tags, ignoring ones the session already
// carries.
func insertTagsTx(tx *sql.Tx, sessionID string, tags []Tag) error {
	if len(tags) == 0 {
		return nil
	}
	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO session_tags
			(session_id, tag, auto_generated)
		VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing tags insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tags {
		if _, err := stmt.Exec(
			sessionID, t.Tag, t.AutoGenerated,
		); err != nil {
			return fmt.Errorf("inserting tag %q: %w", t.Tag, err)
		}
	}
	return nil
}
