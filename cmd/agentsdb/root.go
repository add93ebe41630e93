package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/wesm/agentsdb/internal/config"
	"github.com/wesm/agentsdb/internal/db"
	"github.com/wesm/agentsdb/internal/logging"
	"github.com/wesm/agentsdb/internal/sync"
)

const watcherDebounce = 500 * time.Millisecond

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configFile string
	interval   int
	logLevel   string
}

func newRootCommand() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "agentsdb",
		Short: "Ingest assistant session logs into SQLite",
		Long: `agentsdb polls a session log directory and imports every new or
changed session, plus prompt history, usage stats, plans and todo
lists, into a full-text searchable SQLite database.

Running without a subcommand starts the scan loop, which stops on
SIGINT or SIGTERM.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoop(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "",
		"config file (default $AGENTSDB_CONFIG or <data dir>/config.toml)")
	pf.IntVar(&flags.interval, "interval",
		int(config.DefaultWatchInterval/time.Second),
		"seconds between scans")
	pf.StringVar(&flags.logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")

	root.AddCommand(
		newScanCommand(&flags),
		newSearchCommand(&flags),
		newSessionsCommand(&flags),
		newTagCommand(&flags),
		newVersionCommand(),
	)
	return root
}

// loadConfig layers explicitly set flags over the file and
// environment configuration.
func loadConfig(cmd *cobra.Command, flags globalFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("interval") {
		cfg.WatchInterval = time.Duration(flags.interval) * time.Second
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openStore loads the configuration, builds the logger and
// opens the database.
func openStore(
	cmd *cobra.Command, flags globalFlags,
) (config.Config, *log.Logger, *db.DB, error) {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return cfg, nil, nil, err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return cfg, nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return cfg, nil, nil, fmt.Errorf("creating data dir: %w", err)
	}
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if !database.HasFTS() {
		logger.Warn("sqlite built without FTS5, search is unavailable")
	}
	return cfg, logger, database, nil
}

func newEngine(
	cfg config.Config, database *db.DB, logger *log.Logger,
	onProgress sync.ProgressFunc,
) *sync.Engine {
	return sync.NewEngine(database, sync.EngineConfig{
		Root:       cfg.LogPath,
		Exclude:    cfg.Exclude,
		Logger:     logger,
		OnProgress: onProgress,
	})
}

func runLoop(cmd *cobra.Command, flags globalFlags) error {
	cfg, logger, database, err := openStore(cmd, flags)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(
		commandContext(cmd), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	engine := newEngine(cfg, database, logger, nil)

	var wake chan struct{}
	if cfg.WatchFS {
		wake = make(chan struct{}, 1)
		stopWatcher := startWatcher(cfg.LogPath, wake, logger)
		defer stopWatcher()
	}

	logger.Info("agentsdb starting",
		"version", version, "db", cfg.DBPath, "root", cfg.LogPath)
	engine.Run(ctx, cfg.WatchInterval, wake)
	return nil
}

// startWatcher wakes the scan loop when anything below root
// changes. A watcher that cannot start only costs latency.
func startWatcher(
	root string, wake chan<- struct{}, logger *log.Logger,
) func() {
	w, err := sync.NewWatcher(
		watcherDebounce, sync.WakeOnChange(wake), logger,
	)
	if err != nil {
		logger.Warn("file watcher unavailable", "err", err)
		return func() {}
	}
	watched, unwatched, err := w.WatchRecursive(root)
	if err != nil {
		logger.Warn("watching log root", "root", root, "err", err)
	}
	logger.Debug("file watcher started",
		"watched", watched, "unwatched", unwatched)
	w.Start()
	return w.Stop
}

// commandContext returns the command's context, falling back to
// Background for commands executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
