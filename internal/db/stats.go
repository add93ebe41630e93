package db

import (
	"context"
	"fmt"
)

// Stats holds aggregate counts over the store.
type Stats struct {
	SessionCount  int   `json:"session_count"`
	MessageCount  int   `json:"message_count"`
	ToolCallCount int   `json:"tool_call_count"`
	ProjectCount  int   `json:"project_count"`
	PromptCount   int   `json:"prompt_count"`
	PlanCount     int   `json:"plan_count"`
	TokensIn      int64 `json:"tokens_in"`
	TokensOut     int64 `json:"tokens_out"`
}

// GetStats returns aggregate counts for the whole store.
func (db *DB) GetStats(ctx context.Context) (Stats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM sessions),
			(SELECT COUNT(*) FROM messages),
			(SELECT COUNT(*) FROM tool_calls),
			(SELECT COUNT(DISTINCT project_path) FROM sessions),
			(SELECT COUNT(*) FROM prompt_history),
			(SELECT COUNT(*) FROM plans),
			(SELECT COALESCE(SUM(total_tokens_in), 0) FROM sessions),
			(SELECT COALESCE(SUM(total_tokens_out), 0) FROM sessions)`

	var s Stats
	err := db.reader.QueryRowContext(ctx, query).Scan(
		&s.SessionCount,
		&s.MessageCount,
		&s.ToolCallCount,
		&s.ProjectCount,
		&s.PromptCount,
		&s.PlanCount,
		&s.TokensIn,
		&s.TokensOut,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("fetching stats: %w", err)
	}
	return s, nil
}
