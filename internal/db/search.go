package db

import (
	"context"
	"fmt"
	"strings"
)

const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 500
	snippetTokenLength = 32
)

// SearchResult holds a message match with session context.
type SearchResult struct {
	SessionID   string  `json:"session_id"`
	ProjectPath *string `json:"project_path"`
	Sequence    int     `json:"sequence"`
	Role        string  `json:"role"`
	Timestamp   *string `json:"timestamp"`
	Snippet     string  `json:"snippet"`
	Rank        float64 `json:"rank"`
}

// SearchFilter specifies search parameters.
type SearchFilter struct {
	Query       string
	ProjectPath string
	Cursor      int // offset for pagination
	Limit       int
}

// SearchPage holds paginated search results.
type SearchPage struct {
	Results    []SearchResult `json:"results"`
	NextCursor int            `json:"next_cursor,omitempty"`
}

func (f *SearchFilter) clamp() {
	if f.Limit <= 0 || f.Limit > MaxSearchLimit {
		f.Limit = DefaultSearchLimit
	}
	if f.Cursor < 0 {
		f.Cursor = 0
	}
}

// Search performs FTS5 full-text search across messages.
func (db *DB) Search(
	ctx context.Context, f SearchFilter,
) (SearchPage, error) {
	f.clamp()

	whereClauses := []string{"messages_fts MATCH ?"}
	args := []any{f.Query}

	if f.ProjectPath != "" {
		whereClauses = append(whereClauses, "s.project_path = ?")
		args = append(args, f.ProjectPath)
	}

	query := fmt.Sprintf(`
		SELECT m.session_id, s.project_path, m.sequence, m.role,
			m.timestamp,
			snippet(messages_fts, 0, '<mark>', '</mark>',
				'...', %d) as snippet,
			rank
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.id
		JOIN sessions s ON m.session_id = s.id
		WHERE %s
		ORDER BY rank
		LIMIT ? OFFSET ?`,
		snippetTokenLength,
		strings.Join(whereClauses, " AND "),
	)
	args = append(args, f.Limit+1, f.Cursor)

	rows, err := db.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return SearchPage{}, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(
			&r.SessionID, &r.ProjectPath, &r.Sequence, &r.Role,
			&r.Timestamp, &r.Snippet, &r.Rank,
		); err != nil {
			return SearchPage{},
				fmt.Errorf("scanning result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return SearchPage{}, err
	}

	page := SearchPage{Results: results}
	if len(results) > f.Limit {
		page.Results = results[:f.Limit]
		page.NextCursor = f.Cursor + f.Limit
	}
	return page, nil
}

// PromptResult holds a prompt history match.
type PromptResult struct {
	ID          int64   `json:"id"`
	ProjectPath *string `json:"project_path"`
	Timestamp   *string `json:"timestamp"`
	Snippet     string  `json:"snippet"`
	Rank        float64 `json:"rank"`
}

// PromptPage holds paginated prompt search results.
type PromptPage struct {
	Results    []PromptResult `json:"results"`
	NextCursor int            `json:"next_cursor,omitempty"`
}

// SearchPrompts performs FTS5 full-text search across the
// prompt history.
func (db *DB) SearchPrompts(
	ctx context.Context, f SearchFilter,
) (PromptPage, error) {
	f.clamp()

	whereClauses := []string{"prompt_history_fts MATCH ?"}
	args := []any{f.Query}
	if f.ProjectPath != "" {
		whereClauses = append(whereClauses, "p.project_path = ?")
		args = append(args, f.ProjectPath)
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.project_path, p.timestamp,
			snippet(prompt_history_fts, 0, '<mark>', '</mark>',
				'...', %d) as snippet,
			rank
		FROM prompt_history_fts
		JOIN prompt_history p ON prompt_history_fts.rowid = p.id
		WHERE %s
		ORDER BY rank
		LIMIT ? OFFSET ?`,
		snippetTokenLength,
		strings.Join(whereClauses, " AND "),
	)
	args = append(args, f.Limit+1, f.Cursor)

	rows, err := db.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return PromptPage{}, fmt.Errorf("searching prompts: %w", err)
	}
	defer rows.Close()

	var results []PromptResult
	for rows.Next() {
		var r PromptResult
		if err := rows.Scan(
			&r.ID, &r.ProjectPath, &r.Timestamp,
			&r.Snippet, &r.Rank,
		); err != nil {
			return PromptPage{},
				fmt.Errorf("scanning prompt result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return PromptPage{}, err
	}

	page := PromptPage{Results: results}
	if len(results) > f.Limit {
		page.Results = results[:f.Limit]
		page.NextCursor = f.Cursor + f.Limit
	}
	return page, nil
}
