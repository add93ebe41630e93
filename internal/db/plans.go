package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Plan represents a row in the plans table.
type Plan struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	CreatedAt *string `json:"created_at"`
	FileHash  string  `json:"file_hash"`
}

// SavePlan stores a plan keyed by name. It reports false
// without writing when a plan with the same name and hash is
// already stored.
func (db *DB) SavePlan(p Plan) (bool, error) {
	saved := false
	err := db.Update(func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRow(
			"SELECT 1 FROM plans WHERE name = ? AND file_hash = ?",
			p.Name, p.FileHash,
		).Scan(&one)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking plan %s: %w", p.Name, err)
		}

		if _, err := tx.Exec(`
			INSERT INTO plans
				(name, title, content, created_at, file_hash)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				title = excluded.title,
				content = excluded.content,
				created_at = excluded.created_at,
				file_hash = excluded.file_hash`,
			p.Name, p.Title, p.Content, p.CreatedAt, p.FileHash,
		); err != nil {
			return fmt.Errorf("saving plan %s: %w", p.Name, err)
		}
		saved = true
		return nil
	})
	return saved, err
}

// ListPlans returns all plans ordered by name.
func (db *DB) ListPlans(ctx context.Context) ([]Plan, error) {
	rows, err := db.reader.QueryContext(ctx, `
		SELECT id, name, COALESCE(title, ''),
			COALESCE(content, ''), created_at,
			COALESCE(file_hash, '')
		FROM plans ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	var out []Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Title, &p.Content,
			&p.CreatedAt, &p.FileHash,
		); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
