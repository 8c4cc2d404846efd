package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"codearch/internal/config"
	"codearch/internal/model"
	"codearch/internal/storage"
)

var (
	rootCmd = &cobra.Command{
		Use:           "codearch",
		Short:         "Code architecture analysis for Python and JavaScript/TypeScript repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("db") {
				cfg.Database.Path = dbPath
			}
			setupLogging(cfg)
			return nil
		},
	}

	dbPath     string
	configPath string
	cfg        *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "codearch.db", "Path to the analysis database (SQLite)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML configuration file")

	rootCmd.AddCommand(addCmd, analyzeCmd, requeueCmd, statusCmd, listCmd)
	rootCmd.AddCommand(graphCmd, depsCmd, cyclesCmd, impactCmd, searchCmd)
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Log.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// initStore opens the SQLite store named by the configuration.
func initStore() (*storage.SQLiteStore, error) {
	store, err := storage.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

// resolveRepository accepts either a repository id or its URL.
func resolveRepository(ctx context.Context, store storage.RepositoryStore, ref string) (*model.Repository, error) {
	repo, err := store.GetRepository(ctx, ref)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	repo, err = store.GetRepositoryByURL(ctx, ref)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("repository %q: %w", ref, model.ErrNotFound)
	}
	return repo, err
}
