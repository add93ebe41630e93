package sync_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wesm/agentsdb/internal/db"
	"github.com/wesm/agentsdb/internal/sources"
	"github.com/wesm/agentsdb/internal/sync"
)

// Timestamp constants for test data.
const (
	tsZero    = "2024-01-01T00:00:00Z"
	tsZeroS1  = "2024-01-01T00:00:01Z"
	tsZeroS2  = "2024-01-01T00:00:02Z"
	tsZeroS3  = "2024-01-01T00:00:03Z"
	tsEarly   = "2024-01-01T10:00:00Z"
	tsEarlyS5 = "2024-01-01T10:00:05Z"
)

const testProject = "-home-dev-app"

type testEnv struct {
	root   string
	db     *db.DB
	engine *sync.Engine
}

type envOption func(*sync.EngineConfig)

func withImporters(imps ...sources.Importer) envOption {
	return func(c *sync.EngineConfig) { c.Importers = imps }
}

func withExclude(patterns ...string) envOption {
	return func(c *sync.EngineConfig) { c.Exclude = patterns }
}

func setupTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	root := t.TempDir()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	cfg := sync.EngineConfig{Root: root}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &testEnv{
		root:   root,
		db:     d,
		engine: sync.NewEngine(d, cfg),
	}
}

// writeFile writes content below the log root and returns the
// full path.
func (e *testEnv) writeFile(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(e.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// writeSession writes a session log into the test project.
func (e *testEnv) writeSession(t *testing.T, name, content string) string {
	t.Helper()
	return e.writeFile(t, "projects/"+testProject+"/"+name, content)
}

// touch moves a file's mtime forward so the skip cache sees a
// change.
func touch(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	later := info.ModTime().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))
}

func (e *testEnv) scan(t *testing.T) sync.SyncStats {
	t.Helper()
	return e.engine.ScanOnce(context.Background())
}

func (e *testEnv) session(t *testing.T, id string) *db.Session {
	t.Helper()
	sess, err := e.db.GetSession(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, sess, "session %q not found", id)
	return sess
}

func (e *testEnv) messages(t *testing.T, id string) []db.Message {
	t.Helper()
	msgs, err := e.db.GetMessages(context.Background(), id)
	require.NoError(t, err)
	return msgs
}
