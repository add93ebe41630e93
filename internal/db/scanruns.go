package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ScanRun records the counters of one completed scan cycle.
type ScanRun struct {
	ID         string `json:"id"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	Processed  int    `json:"processed"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Empty      int    `json:"empty"`
	TooSmall   int    `json:"too_small"`
	AuxErrors  int    `json:"aux_errors"`
}

// InsertScanRun appends a scan_runs row.
func (db *DB) InsertScanRun(r ScanRun) error {
	return db.Update(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO scan_runs
				(id, started_at, finished_at, processed,
				 skipped, failed, empty, too_small, aux_errors)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.StartedAt, r.FinishedAt, r.Processed,
			r.Skipped, r.Failed, r.Empty, r.TooSmall,
			r.AuxErrors,
		)
		if err != nil {
			return fmt.Errorf("inserting scan run: %w", err)
		}
		return nil
	})
}

// LastScanRun returns the most recently finished scan cycle, or
// nil if none has been recorded.
func (db *DB) LastScanRun(ctx context.Context) (*ScanRun, error) {
	var r ScanRun
	err := db.reader.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, processed, skipped,
			failed, empty, too_small, aux_errors
		FROM scan_runs
		ORDER BY finished_at DESC, rowid DESC
		LIMIT 1`,
	).Scan(
		&r.ID, &r.StartedAt, &r.FinishedAt, &r.Processed,
		&r.Skipped, &r.Failed, &r.Empty, &r.TooSmall,
		&r.AuxErrors,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading last scan run: %w", err)
	}
	return &r, nil
}
