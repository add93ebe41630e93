package sources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tidwall/gjson"

	"github.com/wesm/agentsdb/internal/db"
	"github.com/wesm/agentsdb/internal/logging"
	"github.com/wesm/agentsdb/internal/timeutil"
)

// unknownDate is stored when the stats cache carries no
// lastComputedDate.
const unknownDate = "unknown"

// ImportUsageStats upserts the per-model token totals of
// stats-cache.json. Every row it touches gets a fresh
// updated_at, even when the counts did not change.
func ImportUsageStats(
	ctx context.Context, d *db.DB, root string, logger *log.Logger,
) (int, error) {
	logger = logging.OrDiscard(logger)
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	path := filepath.Join(root, StatsFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading stats cache: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return 0, fmt.Errorf("parsing stats cache %s: invalid JSON", path)
	}

	stats := usageStats(gjson.ParseBytes(data), now())
	if len(stats) == 0 {
		logger.Debug("stats cache has no model usage", "path", path)
		return 0, nil
	}
	if err := d.UpsertUsageStats(stats); err != nil {
		return 0, err
	}
	return len(stats), nil
}

func usageStats(root gjson.Result, at time.Time) []db.UsageStat {
	date := root.Get("lastComputedDate").String()
	if date == "" {
		date = unknownDate
	}
	updated := timeutil.Format(at)

	var stats []db.UsageStat
	root.Get("modelUsage").ForEach(func(model, usage gjson.Result) bool {
		if !usage.IsObject() {
			return true
		}
		stats = append(stats, db.UsageStat{
			StatDate:            date,
			Model:               model.String(),
			InputTokens:         usage.Get("inputTokens").Int(),
			OutputTokens:        usage.Get("outputTokens").Int(),
			CacheReadTokens:     usage.Get("cacheReadInputTokens").Int(),
			CacheCreationTokens: usage.Get("cacheCreationInputTokens").Int(),
			UpdatedAt:           updated,
		})
		return true
	})
	return stats
}
