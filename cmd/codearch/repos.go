package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"codearch/internal/analysis"
	"codearch/internal/crawler"
	"codearch/internal/git"
	"codearch/internal/knowledge"
	"codearch/internal/model"
	"codearch/internal/pipeline"
	"codearch/internal/storage"
)

var metricsAddr string

func init() {
	analyzeCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the analysis runs (e.g. :9090)")
}

// newOrchestrator wires the pipeline from the loaded configuration.
func newOrchestrator(ctx context.Context, store *storage.SQLiteStore, reg prometheus.Registerer) (*pipeline.Orchestrator, error) {
	c, err := crawler.NewCrawler(
		crawler.WithIgnorePatterns(cfg.Ingest.Ignore...),
		crawler.WithMaxFileSize(cfg.Ingest.MaxFileSizeBytes),
	)
	if err != nil {
		return nil, err
	}
	ingester := pipeline.NewSourceIngester(git.NewFetcher(cfg.Ingest.CloneDir, cfg.Ingest.GitHubToken), c)

	completer, err := knowledge.NewCompleter(ctx, knowledge.CompleterOptions{
		Provider:    cfg.AI.Provider,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		BaseURL:     cfg.AI.BaseURL,
		Temperature: cfg.AI.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create completer: %w", err)
	}
	embedder, err := newEmbedder(ctx)
	if err != nil {
		return nil, err
	}

	return pipeline.NewOrchestrator(store, ingester, knowledge.NewLLMGenerator(completer), embedder,
		pipeline.OptionsFromConfig(cfg), pipeline.NewMetrics(reg)), nil
}

// registryOnly is enough for Register and Requeue, which touch only the store.
func registryOnly(store *storage.SQLiteStore) *pipeline.Orchestrator {
	return pipeline.NewOrchestrator(store, nil, nil, nil, pipeline.OptionsFromConfig(cfg), nil)
}

func newEmbedder(ctx context.Context) (knowledge.Embedder, error) {
	embedder, err := knowledge.NewEmbedder(ctx, knowledge.EmbedderOptions{
		Provider:  cfg.EmbeddingProvider(),
		APIKey:    cfg.AI.APIKey,
		Model:     cfg.AI.EmbeddingModel,
		Dimension: cfg.AI.EmbeddingDimension,
		BaseURL:   cfg.AI.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

var addCmd = &cobra.Command{
	Use:   "add <url-or-path>",
	Short: "Register a repository for analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := initStore()
		if err != nil {
			return err
		}
		defer store.Close()

		repo, created, err := registryOnly(store).Register(ctx, args[0])
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("➕ Registered %s/%s (%s)\n", repo.Owner, repo.Name, repo.ID)
		} else {
			fmt.Printf("ℹ️  Already registered: %s/%s (%s, %s)\n", repo.Owner, repo.Name, repo.ID, repo.Status)
		}
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <repo-id|url-or-path>",
	Short: "Run the full analysis pipeline for a repository",
	Long: `Runs scan, extraction, enrichment, relationship detection and embedding.
Unknown URLs are registered first; completed or failed repositories are re-queued.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := initStore()
		if err != nil {
			return err
		}
		defer store.Close()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if metricsAddr != "" {
			srv := serveMetrics(metricsAddr, reg)
			defer srv.Close()
		}

		orch, err := newOrchestrator(ctx, store, reg)
		if err != nil {
			return err
		}

		repo, err := resolveRepository(ctx, store, args[0])
		if errors.Is(err, model.ErrNotFound) {
			repo, _, err = orch.Register(ctx, args[0])
		}
		if err != nil {
			return err
		}
		if repo.Status.Terminal() {
			fmt.Printf("🔁 Re-queueing %s (was %s)\n", repo.ID, repo.Status)
			if err := orch.Requeue(ctx, repo.ID); err != nil {
				return err
			}
		}

		fmt.Printf("🚀 Analyzing %s/%s (%s)...\n", repo.Owner, repo.Name, repo.ID)
		start := time.Now()
		if err := orch.Run(ctx, repo.ID); err != nil {
			return err
		}

		st, err := analysis.NewService(store).Status(ctx, repo.ID)
		if err != nil {
			return err
		}
		fmt.Printf("✅ %s in %v (%s, %.0f%%)\n", st.Message, time.Since(start).Round(time.Millisecond), st.Status, st.Progress)
		return nil
	},
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	fmt.Printf("📈 Serving metrics on %s/metrics\n", addr)
	return srv
}

var requeueCmd = &cobra.Command{
	Use:   "requeue <repo-id|url>",
	Short: "Move a completed or failed repository back to pending",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := initStore()
		if err != nil {
			return err
		}
		defer store.Close()

		repo, err := resolveRepository(ctx, store, args[0])
		if err != nil {
			return err
		}
		if err := registryOnly(store).Requeue(ctx, repo.ID); err != nil {
			return err
		}
		fmt.Printf("🔁 %s is pending\n", repo.ID)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <repo-id|url>",
	Short: "Show the analysis status of a repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := initStore()
		if err != nil {
			return err
		}
		defer store.Close()

		repo, err := resolveRepository(ctx, store, args[0])
		if err != nil {
			return err
		}
		st, err := analysis.NewService(store).Status(ctx, repo.ID)
		if err != nil {
			return err
		}
		fmt.Printf("📊 %s/%s\n", repo.Owner, repo.Name)
		fmt.Printf("  -> Status:   %s\n", st.Status)
		fmt.Printf("  -> Progress: %.0f%%\n", st.Progress)
		fmt.Printf("  -> Message:  %s\n", st.Message)
		if repo.FileCount > 0 {
			fmt.Printf("  -> Files:    %d %v\n", repo.FileCount, repo.LanguageBreakdown)
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered repositories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := initStore()
		if err != nil {
			return err
		}
		defer store.Close()

		repos, err := store.ListRepositories(cmd.Context())
		if err != nil {
			return err
		}
		if len(repos) == 0 {
			fmt.Println("No repositories registered.")
			return nil
		}
		for _, r := range repos {
			fmt.Printf("%s  %-12s %5.0f%%  %s\n", r.ID, r.Status, r.Progress, r.URL)
		}
		return nil
	},
}
