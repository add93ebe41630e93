package db

import (
	"context"
	"database/sql"
	"fmt"
)

// UsageStat is the aggregate token usage of one model on one
// day, as reported by the client's stats cache.
type UsageStat struct {
	StatDate            string `json:"stat_date"`
	Model               string `json:"model"`
	InputTokens         int64  `json:"input_tokens"`
	OutputTokens        int64  `json:"output_tokens"`
	CacheReadTokens     int64  `json:"cache_read_tokens"`
	CacheCreationTokens int64  `json:"cache_creation_tokens"`
	UpdatedAt           string `json:"updated_at"`
}

// UpsertUsageStats inserts or replaces usage stats keyed by
// (stat_date, model) in a single transaction.
func (db *DB) UpsertUsageStats(stats []UsageStat) error {
	if len(stats) == 0 {
		return nil
	}
	return db.Update(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO usage_stats
				(stat_date, model, input_tokens, output_tokens,
				 cache_read_tokens, cache_creation_tokens,
				 updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(stat_date, model) DO UPDATE SET
				input_tokens = excluded.input_tokens,
				output_tokens = excluded.output_tokens,
				cache_read_tokens = excluded.cache_read_tokens,
				cache_creation_tokens = excluded.cache_creation_tokens,
				updated_at = excluded.updated_at`)
		if err != nil {
			return fmt.Errorf("preparing usage upsert: %w", err)
		}
		defer stmt.Close()

		for _, s := range stats {
			if _, err := stmt.Exec(
				s.StatDate, s.Model, s.InputTokens,
				s.OutputTokens, s.CacheReadTokens,
				s.CacheCreationTokens, s.UpdatedAt,
			); err != nil {
				return fmt.Errorf(
					"upserting usage for %s/%s: %w",
					s.StatDate, s.Model, err,
				)
			}
		}
		return nil
	})
}

// ListUsageStats returns all usage stats ordered by date and
// model.
func (db *DB) ListUsageStats(
	ctx context.Context,
) ([]UsageStat, error) {
	rows, err := db.reader.QueryContext(ctx, `
		SELECT stat_date, model, input_tokens, output_tokens,
			cache_read_tokens, cache_creation_tokens,
			COALESCE(updated_at, '')
		FROM usage_stats
		ORDER BY stat_date, model`)
	if err != nil {
		return nil, fmt.Errorf("querying usage stats: %w", err)
	}
	defer rows.Close()

	var out []UsageStat
	for rows.Next() {
		var s UsageStat
		if err := rows.Scan(
			&s.StatDate, &s.Model, &s.InputTokens,
			&s.OutputTokens, &s.CacheReadTokens,
			&s.CacheCreationTokens, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning usage stat: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
