package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/btlib"
	"github.com/aretw0/btlib/internal/config"
	"github.com/aretw0/btlib/internal/logging"
	"github.com/spf13/cobra"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "btview",
		Short: "btview inspects behavior trees and their execution traces",
		Long: `btview reads behavior trees from XML definitions or .fbl traces, compiles them
into finite-state automata and reports execution coverage across runs.`,
		SilenceUsage: true,
	}

	// Persistent flags (available to all commands)
	root.PersistentFlags().String("config", "", "Config file (default ./"+config.DefaultFile+" when present)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringP("format", "f", "", "Output format (command specific)")

	root.AddCommand(
		newFsmCmd(),
		newTreeCmd(),
		newCoverageCmd(),
		newGraphCmd(),
		newValidateCmd(),
		newServeCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)
	return root
}

// env is what every command needs: settings, a logger and an analyzer bound
// to the configured store.
type env struct {
	cfg      config.Config
	logger   *slog.Logger
	analyzer *btlib.Analyzer
	backend  *config.Backend
}

func (e *env) Close() error {
	return e.backend.Close()
}

func setup(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	// Logs go to stderr so stdout stays parseable.
	var w io.Writer = cmd.ErrOrStderr()
	logger := logging.NewWithWriter(w, level, cfg.LogFormat == "json")

	backend, err := config.OpenStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	opts := []btlib.Option{
		btlib.WithLogger(logger),
		btlib.WithStore(backend.Store),
		btlib.WithLockTTL(cfg.Store.LockTTL),
	}
	if backend.Locker != nil {
		opts = append(opts, btlib.WithLocker(backend.Locker))
	}

	logger.Debug("Configuration loaded", "store", cfg.Store.Backend, "level", cfg.LogLevel)
	return &env{
		cfg:      cfg,
		logger:   logger,
		analyzer: btlib.New(opts...),
		backend:  backend,
	}, nil
}
