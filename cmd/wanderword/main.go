package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pbaille/wanderword/internal/archive"
	"github.com/pbaille/wanderword/internal/config"
	"github.com/pbaille/wanderword/internal/resolver"
	"github.com/pbaille/wanderword/internal/store"
)

type globalFlags struct {
	configPath string
	dbPath     string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:          "wanderword",
		Short:        "Trace the journey of a word across languages and centuries",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", config.DefaultPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&flags.dbPath, "db", "", "database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	rootCmd.AddCommand(traceCmd(flags))
	rootCmd.AddCommand(playCmd(flags))
	rootCmd.AddCommand(serveCmd(flags))
	rootCmd.AddCommand(cacheCmd(flags))
	rootCmd.AddCommand(favCmd(flags))
	rootCmd.AddCommand(exportCmd(flags))
	rootCmd.AddCommand(archiveCmd())
	rootCmd.AddCommand(configCmd(flags))

	return rootCmd
}

// env is everything a command needs once config is loaded
type env struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *store.Store
	archive  *archive.Archive
	resolver *resolver.Resolver
	closers  []io.Closer
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i].Close()
	}
}

func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if flags.dbPath != "" {
		cfg.DB = flags.dbPath
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	return cfg, nil
}

// setupLogger builds the logger. fileOnly routes logs away from the
// terminal, which the player owns.
func setupLogger(cfg config.Config, stderr io.Writer, fileOnly bool) (*slog.Logger, io.Closer, error) {
	if fileOnly && cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(filepath.Dir(config.DefaultPath()), "wanderword.log")
	}
	logger, closer, err := cfg.NewLogger(stderr)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return logger, closer, nil
}

func getStore(dbPath string) (*store.Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	return store.New(dbPath)
}

// openStore loads config and opens only the database
func openStore(cmd *cobra.Command, flags *globalFlags) (*env, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	logger, closer, err := setupLogger(cfg, cmd.ErrOrStderr(), false)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: logger, closers: []io.Closer{closer}}
	if err := e.openStore(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// openEnv loads config and wires archive, cache and provider chain into a resolver
func openEnv(cmd *cobra.Command, flags *globalFlags, fileLogs bool) (*env, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	logger, closer, err := setupLogger(cfg, cmd.ErrOrStderr(), fileLogs)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: logger, closers: []io.Closer{closer}}
	if err := e.openResolver(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *env) openStore() error {
	s, err := getStore(e.cfg.DB)
	if err != nil {
		return err
	}
	e.store = s
	e.closers = append(e.closers, s)
	return nil
}

func (e *env) openResolver() error {
	if err := e.openStore(); err != nil {
		return err
	}
	e.archive = archive.Default()

	chain := e.cfg.Chain(e.logger)
	if len(chain) == 0 {
		e.logger.Warn("no generation providers available; only archived and cached words will resolve")
	}
	r, err := resolver.New(e.archive, e.store, chain,
		resolver.WithDelays(e.cfg.Delays.Archive, e.cfg.Delays.Cache),
		resolver.WithNotFoundPolicy(e.cfg.Policy()),
		resolver.WithLogger(e.logger),
	)
	if err != nil {
		return err
	}
	e.resolver = r
	return nil
}
