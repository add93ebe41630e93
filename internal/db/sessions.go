package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// sessionCols is the column list for session queries. Keep in
// sync with scanSessionRow.
const sessionCols = `id, project_path, started_at, ended_at,
	total_messages, total_tokens_in, total_tokens_out,
	file_hash, imported_at, raw_metadata,
	file_path, source_format`

const (
	// DefaultSessionLimit is the default number of sessions returned.
	DefaultSessionLimit = 200
	// MaxSessionLimit is the maximum number of sessions returned.
	MaxSessionLimit = 500
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows,
// allowing a single scan helper for both.
type rowScanner interface {
	Scan(dest ...any) error
}

// Session represents a row in the sessions table.
type Session struct {
	ID             string  `json:"id"`
	ProjectPath    *string `json:"project_path"`
	StartedAt      *string `json:"started_at"`
	EndedAt        *string `json:"ended_at"`
	TotalMessages  int     `json:"total_messages"`
	TotalTokensIn  int64   `json:"total_tokens_in"`
	TotalTokensOut int64   `json:"total_tokens_out"`
	FileHash       *string `json:"file_hash,omitempty"`
	ImportedAt     *string `json:"imported_at"`
	RawMetadata    *string `json:"raw_metadata,omitempty"`
	FilePath       *string `json:"file_path,omitempty"`
	SourceFormat   *string `json:"source_format,omitempty"`
}

func scanSessionRow(rs rowScanner) (Session, error) {
	var s Session
	err := rs.Scan(
		&s.ID, &s.ProjectPath, &s.StartedAt, &s.EndedAt,
		&s.TotalMessages, &s.TotalTokensIn, &s.TotalTokensOut,
		&s.FileHash, &s.ImportedAt, &s.RawMetadata,
		&s.FilePath, &s.SourceFormat,
	)
	return s, err
}

// upsertSessionTx inserts a session or replaces every scalar
// field of an existing one.
func upsertSessionTx(tx *sql.Tx, s Session) error {
	_, err := tx.Exec(`
		INSERT INTO sessions (`+sessionCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_path = excluded.project_path,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			total_messages = excluded.total_messages,
			total_tokens_in = excluded.total_tokens_in,
			total_tokens_out = excluded.total_tokens_out,
			file_hash = excluded.file_hash,
			imported_at = excluded.imported_at,
			raw_metadata = excluded.raw_metadata,
			file_path = excluded.file_path,
			source_format = excluded.source_format`,
		s.ID, s.ProjectPath, s.StartedAt, s.EndedAt,
		s.TotalMessages, s.TotalTokensIn, s.TotalTokensOut,
		s.FileHash, s.ImportedAt, s.RawMetadata,
		s.FilePath, s.SourceFormat,
	)
	if err != nil {
		return fmt.Errorf("upserting session %s: %w", s.ID, err)
	}
	return nil
}

// HasFileHash reports whether any session was imported from
// content with the given hash.
func (db *DB) HasFileHash(
	ctx context.Context, hash string,
) (bool, error) {
	var one int
	err := db.reader.QueryRowContext(ctx,
		"SELECT 1 FROM sessions WHERE file_hash = ? LIMIT 1",
		hash,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking file hash: %w", err)
	}
	return true, nil
}

// GetSession returns a single session by ID, or nil if absent.
func (db *DB) GetSession(
	ctx context.Context, id string,
) (*Session, error) {
	row := db.reader.QueryRowContext(ctx,
		"SELECT "+sessionCols+" FROM sessions WHERE id = ?", id,
	)
	s, err := scanSessionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session %s: %w", id, err)
	}
	return &s, nil
}

// SessionFilter narrows ListSessions.
type SessionFilter struct {
	ProjectPath string
	Limit       int
}

// ListSessions returns sessions ordered by start time, newest
// first. Sessions without a start time sort last.
func (db *DB) ListSessions(
	ctx context.Context, f SessionFilter,
) ([]Session, error) {
	if f.Limit <= 0 || f.Limit > MaxSessionLimit {
		f.Limit = DefaultSessionLimit
	}

	query := "SELECT " + sessionCols + " FROM sessions"
	var args []any
	if f.ProjectPath != "" {
		query += " WHERE project_path = ?"
		args = append(args, f.ProjectPath)
	}
	query += " ORDER BY started_at IS NULL, started_at DESC, id" +
		" LIMIT ?"
	args = append(args, f.Limit)

	rows, err := db.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSessionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
