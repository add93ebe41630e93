package db

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const schemaFTS = `
CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    content,
    content='messages',
    content_rowid='id',
    tokenize='porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, content) VALUES (new.id, new.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, content)
        VALUES('delete', old.id, old.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, content)
        VALUES('delete', old.id, old.content);
    INSERT INTO messages_fts(rowid, content) VALUES (new.id, new.content);
END;

CREATE VIRTUAL TABLE IF NOT EXISTS prompt_history_fts USING fts5(
    prompt,
    content='prompt_history',
    content_rowid='id',
    tokenize='porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS prompt_history_ai AFTER INSERT ON prompt_history BEGIN
    INSERT INTO prompt_history_fts(rowid, prompt) VALUES (new.id, new.prompt);
END;

CREATE TRIGGER IF NOT EXISTS prompt_history_ad AFTER DELETE ON prompt_history BEGIN
    INSERT INTO prompt_history_fts(prompt_history_fts, rowid, prompt)
        VALUES('delete', old.id, old.prompt);
END;

CREATE TRIGGER IF NOT EXISTS prompt_history_au AFTER UPDATE ON prompt_history BEGIN
    INSERT INTO prompt_history_fts(prompt_history_fts, rowid, prompt)
        VALUES('delete', old.id, old.prompt);
    INSERT INTO prompt_history_fts(rowid, prompt) VALUES (new.id, new.prompt);
END;
`

// ftsTables lists the external-content FTS tables created by
// schemaFTS.
var ftsTables = []string{"messages_fts", "prompt_history_fts"}

// DB manages a write connection and a read-only pool.
type DB struct {
	writer *sql.DB
	reader *sql.DB
	mu     sync.Mutex // serializes writes
}

// makeDSN builds a SQLite connection string with shared pragmas.
func makeDSN(path string, readOnly bool) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "ON")
	params.Set("_cache_size", "-16000")
	if readOnly {
		params.Set("mode", "ro")
	} else {
		params.Set("_synchronous", "NORMAL")
	}
	return path + "?" + params.Encode()
}

// Open creates or opens a SQLite database at the given path.
// The returned DB has a single writer connection and a small
// read-only pool, both in WAL mode.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	writer, err := sql.Open("sqlite3", makeDSN(path, false))
	if err != nil {
		return nil, fmt.Errorf("opening writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	reader, err := sql.Open("sqlite3", makeDSN(path, true))
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("opening reader: %w", err)
	}
	reader.SetMaxOpenConns(4)

	db := &DB{writer: writer, reader: reader}
	if err := db.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return db, nil
}

// HasFTS checks if Full Text Search is available.
func (db *DB) HasFTS() bool {
	// The table can exist in sqlite_master yet fail to load when
	// the running binary was built without fts5.
	_, err := db.reader.Exec("SELECT 1 FROM messages_fts LIMIT 1")
	return err == nil
}

// ensureColumn adds a column if it doesn't already exist.
func (db *DB) ensureColumn(
	table, column, definition string,
) error {
	exists, err := db.hasColumn(table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = db.writer.Exec(fmt.Sprintf(
		"ALTER TABLE %s ADD COLUMN %s %s",
		table, column, definition,
	))
	if err == nil {
		return nil
	}
	if ok, checkErr := db.hasColumn(table, column); checkErr == nil && ok {
		return nil
	}
	return err
}

func (db *DB) hasColumn(table, column string) (bool, error) {
	var count int
	err := db.writer.QueryRow(
		fmt.Sprintf(
			"SELECT count(*) FROM pragma_table_info('%s')"+
				" WHERE name='%s'",
			table, column,
		),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf(
			"checking column %s.%s: %w", table, column, err,
		)
	}
	return count > 0, nil
}

func (db *DB) init() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, err := db.writer.Exec(schemaSQL); err != nil {
		return err
	}

	hadFTS := make(map[string]bool, len(ftsTables))
	for _, name := range ftsTables {
		var n int
		if err := db.writer.QueryRow(
			"SELECT count(*) FROM sqlite_master"+
				" WHERE type='table' AND name=?",
			name,
		).Scan(&n); err != nil {
			return fmt.Errorf("checking fts table: %w", err)
		}
		hadFTS[name] = n > 0
	}

	// FTS is optional: a driver built without fts5 reports
	// "no such module" and search is simply unavailable.
	if _, err := db.writer.Exec(schemaFTS); err != nil {
		if !strings.Contains(err.Error(), "no such module") {
			return fmt.Errorf("initializing FTS: %w", err)
		}
	} else {
		for _, name := range ftsTables {
			if hadFTS[name] {
				continue
			}
			if _, err := db.writer.Exec(fmt.Sprintf(
				"INSERT INTO %s(%s) VALUES('rebuild')",
				name, name,
			)); err != nil {
				return fmt.Errorf("backfilling %s: %w", name, err)
			}
		}
	}

	// Additive columns for databases created before they existed.
	for _, col := range []struct{ name, def string }{
		{"file_path", "TEXT"},
		{"source_format", "TEXT"},
	} {
		if err := db.ensureColumn(
			"sessions", col.name, col.def,
		); err != nil {
			return fmt.Errorf(
				"adding %s column: %w", col.name, err,
			)
		}
	}
	return nil
}

// Close closes both writer and reader connections.
func (db *DB) Close() error {
	return errors.Join(db.writer.Close(), db.reader.Close())
}

// Update executes fn within a write lock and transaction.
// The transaction is committed if fn returns nil, rolled back
// otherwise.
func (db *DB) Update(fn func(tx *sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.writer.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Reader returns the read-only connection pool.
func (db *DB) Reader() *sql.DB {
	return db.reader
}

// nilIfEmpty maps "" to SQL NULL.
func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nilIfZero maps 0 to SQL NULL.
func nilIfZero(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}
