package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"task-tracker/internal/config"
	"task-tracker/internal/logger"
	"task-tracker/internal/storage"
	"task-tracker/internal/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.NewTheme(os.Stderr).Bad.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// newRootCmd copies every task from one store to another, e.g.
//
//	migrate --from json:tasks.json --to sqlite:data/tasks.db
func newRootCmd() *cobra.Command {
	var configPath, from, to, logLevel string

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Copy every task from one store to another",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			closeLog, err := configureLogging(configPath, logLevel)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx := cmd.Context()
			n, err := migrate(ctx, from, to)
			if err != nil {
				logger.Error(ctx, err, "migration failed", "from", from, "to", to)
				return err
			}
			logger.Info(ctx, "tasks migrated", "count", n, "from", from, "to", to)
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tasks from %s to %s\n", n, from, to)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "json:"+storage.DefaultJSONPath, "source store as driver:path")
	cmd.Flags().StringVar(&to, "to", "sqlite:"+storage.DefaultSQLitePath, "destination store as driver:path")
	cmd.Flags().StringVar(&configPath, "config", "", "config file for logging (default: ./task-tracker.toml if present)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "override the configured log level")
	return cmd
}

// configureLogging applies the [log] section of the config. The returned
// func closes the log file, if one was opened.
func configureLogging(configPath, level string) (func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if level == "" {
		level = cfg.Log.Level
	}

	var out io.Writer = os.Stderr
	closeLog := func() {}
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeLog = func() { _ = f.Close() }
	}

	if err := logger.Configure(out, level, cfg.Log.Format); err != nil {
		closeLog()
		return nil, err
	}
	return closeLog, nil
}

func migrate(ctx context.Context, from, to string) (int, error) {
	src, err := openStore(from)
	if err != nil {
		return 0, fmt.Errorf("source: %w", err)
	}
	defer src.Close()

	dst, err := openStore(to)
	if err != nil {
		return 0, fmt.Errorf("destination: %w", err)
	}
	defer dst.Close()

	tasks, err := src.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", from, err)
	}
	logger.Debug(ctx, "source loaded", "store", from, "count", len(tasks))

	if err := dst.Save(ctx, tasks); err != nil {
		return 0, fmt.Errorf("save %s: %w", to, err)
	}
	return len(tasks), nil
}

// openStore opens a "driver:path" reference.
func openStore(ref string) (storage.Storage, error) {
	driver, path, ok := strings.Cut(ref, ":")
	if !ok || path == "" {
		return nil, fmt.Errorf("invalid store %q: expected driver:path", ref)
	}
	return storage.Open(driver, path)
}
