package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	gosync "sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/wesm/agentsdb/internal/db"
	"github.com/wesm/agentsdb/internal/logging"
	"github.com/wesm/agentsdb/internal/parser"
	"github.com/wesm/agentsdb/internal/sources"
	"github.com/wesm/agentsdb/internal/timeutil"
)

// MinFileSize is the smallest session file worth opening.
// Anything shorter cannot hold a conversation.
const MinFileSize = 50

// EngineConfig configures a scan engine.
type EngineConfig struct {
	// Root is the watched log root.
	Root string
	// Exclude holds doublestar globs relative to Root.
	Exclude []string
	// Importers run before session files on every scan. Nil
	// means sources.All().
	Importers []sources.Importer
	Logger    *log.Logger
	// OnProgress, if set, receives progress updates.
	OnProgress ProgressFunc
}

// Engine scans the log root and imports what changed.
type Engine struct {
	db         *db.DB
	root       string
	exclude    []string
	importers  []sources.Importer
	logger     *log.Logger
	onProgress ProgressFunc
	now        func() time.Time

	scanMu    gosync.Mutex // serializes scans
	mu        gosync.RWMutex
	lastScan  time.Time
	lastStats SyncStats
	// skipCache holds files that normalized to no messages,
	// keyed by path with the mtime at caching time. A file is
	// retried once its mtime changes.
	skipMu    gosync.RWMutex
	skipCache map[string]int64
}

// NewEngine creates a scan engine. The in-memory skip cache is
// seeded from the database so empty files found by an earlier
// process are not re-read.
func NewEngine(database *db.DB, cfg EngineConfig) *Engine {
	logger := logging.OrDiscard(cfg.Logger)

	skipCache := make(map[string]int64)
	if loaded, err := database.LoadSkippedFiles(); err == nil {
		skipCache = loaded
	} else {
		logger.Warn("loading skip cache", "err", err)
	}

	importers := cfg.Importers
	if importers == nil {
		importers = sources.All()
	}

	return &Engine{
		db:         database,
		root:       cfg.Root,
		exclude:    cfg.Exclude,
		importers:  importers,
		logger:     logger,
		onProgress: cfg.OnProgress,
		now:        time.Now,
		skipCache:  skipCache,
	}
}

// LastScan returns the time the last scan finished.
func (e *Engine) LastScan() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastScan
}

// LastScanStats returns the counters of the last scan.
func (e *Engine) LastScanStats() SyncStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastStats
}

// ScanOnce runs the auxiliary importers and then imports every
// new or changed session file under the root, one file at a
// time. Cancellation is checked between importers and between
// files; work already committed stays.
func (e *Engine) ScanOnce(ctx context.Context) SyncStats {
	e.scanMu.Lock()
	defer e.scanMu.Unlock()

	started := e.now()
	var stats SyncStats

	e.runImporters(ctx, &stats)

	e.progress(Progress{Phase: PhaseDiscovering})
	files, err := DiscoverSessionFiles(e.root, e.exclude)
	if err != nil {
		e.logger.Error("discovery failed", "root", e.root, "err", err)
	}
	stats.Discovered = len(files)
	e.logger.Debug("discovered session files",
		"count", len(files), "root", e.root)

	for i, path := range files {
		if ctx.Err() != nil {
			e.logger.Info("scan canceled",
				"done", i, "total", len(files))
			break
		}
		outcome, err := e.processFile(ctx, path)
		if err != nil {
			e.logger.Error("session import failed",
				"path", path, "err", err)
		}
		stats.record(outcome)
		e.progress(Progress{
			Phase:      PhaseSyncing,
			FilesTotal: len(files),
			FilesDone:  i + 1,
		})
	}

	e.persistSkipCache()
	finished := e.now()
	e.recordRun(started, finished, stats)

	e.logger.Info("scan complete",
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"empty", stats.Empty,
		"too_small", stats.TooSmall,
		"aux_errors", stats.AuxErrors,
		"elapsed", finished.Sub(started).Round(time.Millisecond),
	)
	e.progress(Progress{
		Phase:      PhaseDone,
		FilesTotal: len(files),
		FilesDone:  stats.total(),
	})

	e.mu.Lock()
	e.lastScan = finished
	e.lastStats = stats
	e.mu.Unlock()
	return stats
}

func (e *Engine) runImporters(ctx context.Context, stats *SyncStats) {
	for _, imp := range e.importers {
		if ctx.Err() != nil {
			return
		}
		e.progress(Progress{Phase: PhaseAuxiliary, Source: imp.Name})
		n, err := imp.Run(ctx, e.db, e.root, e.logger)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			stats.AuxErrors++
			e.logger.Error("auxiliary import failed",
				"source", imp.Name, "err", err)
			continue
		}
		if n > 0 {
			e.logger.Info("auxiliary import",
				"source", imp.Name, "rows", n)
		}
	}
}

// processFile runs one session file through the size filter,
// skip cache, dedup check, parser and importer.
func (e *Engine) processFile(
	ctx context.Context, path string,
) (fileOutcome, error) {
	info, err := os.Stat(path)
	if err != nil {
		return outcomeFailed, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() < MinFileSize {
		return outcomeTooSmall, nil
	}

	// Capture mtime once so every cache operation agrees.
	mtime := info.ModTime().UnixNano()
	e.skipMu.RLock()
	cachedMtime, cached := e.skipCache[path]
	e.skipMu.RUnlock()
	if cached && cachedMtime == mtime {
		return outcomeEmpty, nil
	}

	data, err := parser.ReadFile(path)
	if err != nil {
		return outcomeFailed, fmt.Errorf("reading %s: %w", path, err)
	}
	hash, err := ComputeHash(bytes.NewReader(data))
	if err != nil {
		return outcomeFailed, err
	}
	seen, err := e.db.HasFileHash(ctx, hash)
	if err != nil {
		return outcomeFailed, err
	}
	if seen {
		return outcomeSkipped, nil
	}

	res, err := parser.Parse(data, parser.Source{
		Path: path, ModTime: info.ModTime(),
	})
	if err != nil {
		return outcomeFailed, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(res.Messages) == 0 {
		e.logger.Debug("no messages in session file", "path", path)
		e.cacheSkip(path, mtime)
		return outcomeEmpty, nil
	}

	w, err := toSessionWrite(res, path, hash, e.now())
	if err != nil {
		return outcomeFailed, err
	}
	if err := e.db.WriteSession(w); err != nil {
		return outcomeFailed, err
	}
	e.clearSkip(path)
	e.logger.Debug("imported session",
		"path", path, "session", res.SessionID,
		"format", res.Format, "messages", len(res.Messages))
	return outcomeProcessed, nil
}

// cacheSkip records a file so it won't be re-read until its
// mtime changes.
func (e *Engine) cacheSkip(path string, mtime int64) {
	e.skipMu.Lock()
	e.skipCache[path] = mtime
	e.skipMu.Unlock()
}

// clearSkip removes a skip-cache entry when a file produces a
// session.
func (e *Engine) clearSkip(path string) {
	e.skipMu.Lock()
	_, ok := e.skipCache[path]
	delete(e.skipCache, path)
	e.skipMu.Unlock()
	if !ok {
		return
	}
	if err := e.db.DeleteSkippedFile(path); err != nil {
		e.logger.Warn("clearing skip cache entry",
			"path", path, "err", err)
	}
}

// persistSkipCache writes the in-memory skip cache to the
// database so it survives restarts.
func (e *Engine) persistSkipCache() {
	e.skipMu.RLock()
	snapshot := make(map[string]int64, len(e.skipCache))
	maps.Copy(snapshot, e.skipCache)
	e.skipMu.RUnlock()

	if err := e.db.ReplaceSkippedFiles(snapshot); err != nil {
		e.logger.Error("persisting skip cache", "err", err)
	}
}

func (e *Engine) recordRun(started, finished time.Time, s SyncStats) {
	err := e.db.InsertScanRun(db.ScanRun{
		ID:         uuid.NewString(),
		StartedAt:  timeutil.Format(started),
		FinishedAt: timeutil.Format(finished),
		Processed:  s.Processed,
		Skipped:    s.Skipped,
		Failed:     s.Failed,
		Empty:      s.Empty,
		TooSmall:   s.TooSmall,
		AuxErrors:  s.AuxErrors,
	})
	if err != nil {
		e.logger.Error("recording scan run", "err", err)
	}
}

func (e *Engine) progress(p Progress) {
	if e.onProgress != nil {
		e.onProgress(p)
	}
}
