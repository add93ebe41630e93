package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"

	"github.com/wesm/agentsdb/internal/db"
	"github.com/wesm/agentsdb/internal/logging"
	"github.com/wesm/agentsdb/internal/parser"
	"github.com/wesm/agentsdb/internal/timeutil"
)

// ImportPromptHistory appends entries of history.jsonl newer
// than the newest stored prompt. Lines that are not JSON objects
// are skipped.
func ImportPromptHistory(
	ctx context.Context, d *db.DB, root string, logger *log.Logger,
) (int, error) {
	logger = logging.OrDiscard(logger)
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	path := filepath.Join(root, HistoryFile)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("opening prompt history: %w", err)
	}
	defer f.Close()

	watermark, err := d.MaxPromptTimestamp(ctx)
	if err != nil {
		return 0, err
	}

	var entries []db.PromptEntry
	bad := 0
	err = parser.EachLine(f, func(line string) {
		if !gjson.Valid(line) {
			bad++
			return
		}
		entry := gjson.Parse(line)
		if !entry.IsObject() {
			bad++
			return
		}
		ms := entry.Get("timestamp").Int()
		if ms <= watermark {
			return
		}
		entries = append(entries, promptEntry(entry, ms))
	})
	if err != nil {
		return 0, fmt.Errorf("reading prompt history: %w", err)
	}
	if bad > 0 {
		logger.Debug("skipped invalid history lines",
			"path", path, "count", bad)
	}

	if err := d.InsertPrompts(entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func promptEntry(entry gjson.Result, ms int64) db.PromptEntry {
	e := db.PromptEntry{
		Prompt:      entry.Get("display").String(),
		TimestampMS: ms,
		Timestamp:   timeutil.Ptr(timeutil.FromMillis(ms)),
	}
	if p := entry.Get("project"); p.Exists() && p.Type != gjson.Null {
		s := p.String()
		e.ProjectPath = &s
	}
	return e
}
