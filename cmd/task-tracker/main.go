package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"task-tracker/internal/config"
	"task-tracker/internal/logger"
	"task-tracker/internal/manager"
	"task-tracker/internal/menu"
	"task-tracker/internal/storage"
	"task-tracker/internal/ui"
)

const Version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.NewTheme(os.Stderr).Bad.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "task-tracker",
		Short:         "Personal task tracker",
		Long:          "task-tracker keeps a personal to-do list in tasks.json. Run it without arguments for the interactive menu.",
		Args:          cobra.NoArgs,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			exitOnInterrupt(cmd.OutOrStdout())
			return menu.New(a.tm, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
		},
	}
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./task-tracker.toml if present)")

	cmd.AddCommand(
		newServeCmd(&configPath),
		newExportCmd(&configPath),
	)
	return cmd
}

// exitOnInterrupt ends the process with status 0 on SIGINT or SIGTERM. The
// menu blocks on stdin, so the signal cannot be delivered through a context.
func exitOnInterrupt(out io.Writer) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Fprintln(out, "\nExiting Task Tracker. Goodbye!")
		os.Exit(0)
	}()
}

type app struct {
	cfg     *config.Config
	store   storage.Storage
	tm      *manager.TaskManager
	logFile *os.File
}

// setup loads the config, configures logging and loads the task collection.
func setup(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	var logOut io.Writer = os.Stderr
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		logOut = f
	}
	if err := logger.Configure(logOut, cfg.Log.Level, cfg.Log.Format); err != nil {
		a.Close()
		return nil, err
	}
	logger.Debug(ctx, "config loaded", "source", cfg.Source, "driver", cfg.Storage.Driver, "path", cfg.Storage.Path)

	a.store, err = storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.tm, err = manager.NewTaskManager(ctx, a.store)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load tasks from %s: %w", cfg.Storage.Path, err)
	}
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Error(context.Background(), err, "close store")
		}
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}
