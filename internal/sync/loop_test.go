package sync_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesm/agentsdb/internal/db"
	"github.com/wesm/agentsdb/internal/sources"
)

// countingImporter counts scans and calls onRun with the scan
// number, starting at 1.
func countingImporter(onRun func(n int64)) sources.Importer {
	var calls atomic.Int64
	return sources.Importer{Name: "count", Run: func(
		context.Context, *db.DB, string, *log.Logger,
	) (int, error) {
		onRun(calls.Add(1))
		return 0, nil
	}}
}

func runInBackground(
	ctx context.Context, env *testEnv,
	interval time.Duration, wake <-chan struct{},
) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		env.engine.Run(ctx, interval, wake)
	}()
	return done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	scanned := make(chan struct{}, 10)
	env := setupTestEnv(t, withImporters(countingImporter(func(int64) {
		scanned <- struct{}{}
	})))
	ctx, cancel := context.WithCancel(context.Background())

	done := runInBackground(ctx, env, time.Hour, nil)
	select {
	case <-scanned:
	case <-time.After(5 * time.Second):
		t.Fatal("first scan did not run")
	}
	cancel()
	waitDone(t, done)
}

func TestRunWakesEarly(t *testing.T) {
	var scans atomic.Int64
	env := setupTestEnv(t, withImporters(countingImporter(func(n int64) {
		scans.Store(n)
	})))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wake := make(chan struct{}, 1)
	done := runInBackground(ctx, env, time.Hour, wake)

	require.Eventually(t, func() bool { return scans.Load() >= 1 },
		5*time.Second, 10*time.Millisecond)
	wake <- struct{}{}
	require.Eventually(t, func() bool { return scans.Load() >= 2 },
		5*time.Second, 10*time.Millisecond)

	cancel()
	waitDone(t, done)
}

func TestRunRecoversFromPanic(t *testing.T) {
	var scans atomic.Int64
	env := setupTestEnv(t, withImporters(countingImporter(func(n int64) {
		scans.Store(n)
		if n == 1 {
			panic("boom")
		}
	})))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := runInBackground(ctx, env, 10*time.Millisecond, nil)
	require.Eventually(t, func() bool { return scans.Load() >= 3 },
		5*time.Second, 10*time.Millisecond)

	cancel()
	waitDone(t, done)

	// The lock held by the panicking scan was released.
	stats := env.scan(t)
	assert.Zero(t, stats.Failed)
}
