// Package pipeline runs repository analysis as a sequence of committed phases.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codearch/internal/config"
	"codearch/internal/crawler"
	"codearch/internal/extractor"
	"codearch/internal/git"
	"codearch/internal/knowledge"
	"codearch/internal/model"
	"codearch/internal/resolver"
	"codearch/internal/storage"
)

// Progress recorded when each phase starts.
const (
	progressScan    = 5
	progressExtract = 20
	progressEnrich  = 40
	progressRelate  = 70
	progressEmbed   = 85
	progressDone    = 100
)

// Store is the persistence a run needs.
type Store interface {
	storage.RepositoryStore
	storage.CodeStore
	storage.RelationshipStore
	SaveEmbeddings(ctx context.Context, items []model.Embedding) error
}

// Options tunes batching and the optional phases.
type Options struct {
	SummaryBatchSize            int
	ExplainBatchSize            int
	MaxConcurrent               int
	EmbedBatchSize              int
	SnippetMaxChars             int
	EnableRelationshipDetection bool
	PreciseParsing              bool
}

func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SummaryBatchSize:            cfg.Analysis.SummaryBatchSize,
		ExplainBatchSize:            cfg.Analysis.ExplainBatchSize,
		MaxConcurrent:               cfg.Analysis.MaxConcurrent,
		EmbedBatchSize:              cfg.Analysis.EmbedBatchSize,
		SnippetMaxChars:             cfg.Analysis.SnippetMaxChars,
		EnableRelationshipDetection: cfg.Analysis.EnableRelationshipDetection,
		PreciseParsing:              cfg.Analysis.PreciseParsing,
	}
}

// Orchestrator drives repositories through PENDING, IN_PROGRESS and then
// COMPLETED or FAILED. It holds no per-run state, so runs of different
// repositories may proceed concurrently.
type Orchestrator struct {
	store     Store
	ingester  Ingester
	generator knowledge.Generator
	embedder  knowledge.Embedder
	extractor *extractor.Extractor
	detector  *resolver.Detector
	opts      Options
	metrics   *Metrics
}

func NewOrchestrator(store Store, ingester Ingester, gen knowledge.Generator, emb knowledge.Embedder, opts Options, metrics *Metrics) *Orchestrator {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Orchestrator{
		store:     store,
		ingester:  ingester,
		generator: gen,
		embedder:  emb,
		extractor: extractor.NewExtractor(extractor.WithPreciseParsing(opts.PreciseParsing)),
		detector:  resolver.NewDetector(),
		opts:      opts,
		metrics:   metrics,
	}
}

// Register records a repository as PENDING, or returns the existing record for
// the same URL. The boolean reports whether a new record was created.
func (o *Orchestrator) Register(ctx context.Context, url string) (*model.Repository, bool, error) {
	existing, err := o.store.GetRepositoryByURL(ctx, url)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, false, err
	}

	owner, name, err := git.ParseRepoURL(url)
	if err != nil {
		return nil, false, err
	}
	repo := &model.Repository{URL: url, Owner: owner, Name: name, Status: model.StatusPending}
	if err := o.store.CreateRepository(ctx, repo); err != nil {
		return nil, false, fmt.Errorf("failed to create repository: %w", err)
	}
	return repo, true, nil
}

// Requeue moves a COMPLETED or FAILED repository back to PENDING.
func (o *Orchestrator) Requeue(ctx context.Context, repoID string) error {
	if _, err := o.store.GetRepository(ctx, repoID); err != nil {
		return err
	}
	return o.store.TransitionStatus(ctx, repoID, model.StatusPending, "Queued for analysis", 0)
}

// Run analyses a PENDING repository. A failure in any phase leaves the
// repository FAILED with the error in its status message, and is returned.
func (o *Orchestrator) Run(ctx context.Context, repoID string) error {
	repo, err := o.store.GetRepository(ctx, repoID)
	if err != nil {
		return err
	}
	if repo.Status != model.StatusPending {
		return fmt.Errorf("%w: repository %s is %s", model.ErrInvalidTransition, repoID, repo.Status)
	}
	if err := o.store.TransitionStatus(ctx, repoID, model.StatusInProgress, "Starting analysis", 0); err != nil {
		return err
	}

	r := &analysisRun{
		Orchestrator: o,
		repo:         repo,
		log:          slog.With("repo_id", repoID),
	}
	start := time.Now()
	r.log.Info("analysis started", "url", repo.URL)

	err = r.execute(ctx)
	if err == nil {
		err = r.finish(ctx)
	}
	if err != nil {
		o.metrics.observeRun("failed")
		r.log.Error("analysis failed", "error", err)
		msg := "Analysis failed: " + err.Error()
		if terr := o.store.TransitionStatus(context.WithoutCancel(ctx), repoID, model.StatusFailed, msg, r.progress); terr != nil {
			r.log.Error("failed to record failure", "error", terr)
		}
		return fmt.Errorf("analysis of %s failed: %w", repoID, err)
	}

	o.metrics.observeRun("completed")
	r.log.Info("analysis complete", "elapsed", time.Since(start), "files", len(r.files), "entities", len(r.entities))
	return nil
}

// finish records COMPLETED. A cancellation that arrives after the last phase
// still fails the run.
func (r *analysisRun) finish(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.store.TransitionStatus(ctx, r.repo.ID, model.StatusCompleted, "Analysis complete", progressDone); err != nil {
		return fmt.Errorf("failed to record completion: %w", err)
	}
	return nil
}

// analysisRun carries the state of one Run between phases.
type analysisRun struct {
	*Orchestrator
	repo     *model.Repository
	log      *slog.Logger
	progress float64

	checkout *git.Checkout
	files    []*model.File
	absPaths map[string]string // file id -> path on disk
	entities []*model.Entity

	summaryFiles    []*model.File
	summaryInputs   []knowledge.FileInput
	explainInputs   []knowledge.EntityInput
	explainEntities []*model.Entity
}

type phase struct {
	name     string
	message  string
	progress float64
	run      func(context.Context) error
}

func (r *analysisRun) execute(ctx context.Context) error {
	defer func() {
		if r.checkout == nil {
			return
		}
		if err := r.checkout.Close(); err != nil {
			r.log.Warn("failed to remove checkout", "dir", r.checkout.Dir, "error", err)
		}
	}()

	phases := []phase{
		{"scan", "Scanning repository files", progressScan, r.scan},
		{"extract", "Extracting code entities", progressExtract, r.extract},
		{"enrich", "Generating summaries and explanations", progressEnrich, r.enrich},
		{"relate", "Detecting relationships", progressRelate, r.relate},
		{"embed", "Generating embeddings", progressEmbed, r.embed},
	}
	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.store.UpdateProgress(ctx, r.repo.ID, p.message, p.progress); err != nil {
			return err
		}
		r.progress = p.progress

		start := time.Now()
		err := p.run(ctx)
		r.metrics.observePhase(p.name, time.Since(start))
		if err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
		r.log.Debug("phase done", "phase", p.name, "elapsed", time.Since(start))
	}
	return nil
}

func (r *analysisRun) scan(ctx context.Context) error {
	co, err := r.ingester.Fetch(ctx, r.repo.URL)
	if err != nil {
		return err
	}
	r.checkout = co

	infos, err := r.ingester.Scan(ctx, co.Dir)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", co.Dir, err)
	}

	r.files = make([]*model.File, 0, len(infos))
	for _, info := range infos {
		r.files = append(r.files, &model.File{
			RepoID:    r.repo.ID,
			Path:      info.Path,
			Extension: info.Extension,
			Language:  info.Language,
			SizeBytes: info.SizeBytes,
		})
	}
	if err := r.store.UpsertFiles(ctx, r.files); err != nil {
		return err
	}

	r.absPaths = make(map[string]string, len(infos))
	for i, f := range r.files {
		r.absPaths[f.ID] = infos[i].AbsPath
	}

	r.log.Info("files scanned", "phase", "scan", "files", len(r.files), "branch", co.Branch)
	return r.store.UpdateRepositoryStats(ctx, r.repo.ID, len(infos), crawler.LanguageBreakdown(infos))
}

func (r *analysisRun) extract(ctx context.Context) error {
	for _, f := range r.files {
		if !f.Language.Supported() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		content := crawler.ReadFile(r.absPaths[f.ID])
		f.LineCount = countLines(content)
		if err := r.store.UpdateLineCount(ctx, f.ID, f.LineCount); err != nil {
			return err
		}

		units, mode := r.extractor.ExtractFile(f.Path, content, f.Language)
		if len(units) == 0 {
			continue
		}
		r.log.Debug("file extracted", "phase", "extract", "path", f.Path, "mode", mode, "units", len(units))

		entities := make([]*model.Entity, 0, len(units))
		for _, u := range units {
			entities = append(entities, &model.Entity{
				RepoID:    r.repo.ID,
				FileID:    f.ID,
				Name:      u.Name,
				Kind:      u.Kind,
				StartLine: u.StartLine,
				EndLine:   u.EndLine,
				Snippet:   knowledge.TruncateRunes(u.Content, r.opts.SnippetMaxChars),
			})
		}
		if err := r.store.UpsertEntities(ctx, entities); err != nil {
			return err
		}
		r.entities = append(r.entities, entities...)

		r.summaryFiles = append(r.summaryFiles, f)
		r.summaryInputs = append(r.summaryInputs, knowledge.FileInput{Path: f.Path, Language: f.Language, Code: content})
		for _, e := range entities {
			r.explainEntities = append(r.explainEntities, e)
			r.explainInputs = append(r.explainInputs, knowledge.EntityInput{
				Name:     e.Name,
				Kind:     e.Kind,
				Language: f.Language,
				Code:     e.Snippet,
			})
		}
	}

	r.log.Info("entities extracted", "phase", "extract", "entities", len(r.entities))
	return nil
}

func (r *analysisRun) enrich(ctx context.Context) error {
	summaries, err := knowledge.RunGroups(ctx, r.batchRunner("summary"), r.summaryInputs,
		r.opts.SummaryBatchSize, knowledge.PlaceholderSummaryFailed, r.generator.SummarizeFiles)
	if err != nil {
		return err
	}
	bySummaryFile := make(map[string]string, len(summaries))
	for i, s := range summaries {
		r.summaryFiles[i].Summary = s
		bySummaryFile[r.summaryFiles[i].ID] = s
	}
	if err := r.store.UpdateFileSummaries(ctx, bySummaryFile); err != nil {
		return err
	}

	explanations, err := knowledge.RunGroups(ctx, r.batchRunner("explanation"), r.explainInputs,
		r.opts.ExplainBatchSize, knowledge.PlaceholderExplainFailed, r.generator.ExplainEntities)
	if err != nil {
		return err
	}
	byEntity := make(map[string]string, len(explanations))
	for i, s := range explanations {
		r.explainEntities[i].Explanation = s
		byEntity[r.explainEntities[i].ID] = s
	}
	return r.store.UpdateExplanations(ctx, byEntity)
}

func (r *analysisRun) batchRunner(kind string) *knowledge.BatchRunner {
	return knowledge.NewBatchRunner(r.opts.MaxConcurrent, knowledge.WithFailureHook(func(f knowledge.GroupFailure) {
		r.metrics.groupFailed(kind)
		r.log.Warn("enrichment group failed", "phase", "enrich", "kind", kind, "group", f.Group, "size", f.Size, "error", f.Err)
	}))
}

func (r *analysisRun) relate(ctx context.Context) error {
	if !r.opts.EnableRelationshipDetection {
		r.log.Info("relationship detection disabled", "phase", "relate")
		return nil
	}

	entities := make([]model.Entity, 0, len(r.entities))
	byFile := make(map[string][]model.Entity)
	for _, e := range r.entities {
		entities = append(entities, *e)
		byFile[e.FileID] = append(byFile[e.FileID], *e)
	}
	files := make([]model.File, 0, len(r.files))
	for _, f := range r.files {
		files = append(files, *f)
	}

	rels, stages := r.detector.DetectRelationships(entities)
	for _, st := range stages {
		r.log.Debug("resolver stage", "phase", "relate", "resolver", st.Resolver,
			"attempted", st.Stats.Attempted, "resolved", st.Stats.Resolved, "edges", st.EdgeCount)
	}
	rels = append(rels, r.detector.DetectImports(files, byFile)...)

	r.log.Info("relationships detected", "phase", "relate", "relationships", len(rels))
	return r.store.InsertRelationships(ctx, rels)
}

func (r *analysisRun) embed(ctx context.Context) error {
	paths := make(map[string]string, len(r.files))
	for _, f := range r.files {
		paths[f.ID] = f.Path
	}

	size := max(r.opts.EmbedBatchSize, 1)
	for start := 0; start < len(r.entities); start += size {
		chunk := r.entities[start:min(start+size, len(r.entities))]

		texts := make([]string, len(chunk))
		for i, e := range chunk {
			texts[i] = embeddingText(e)
		}
		vectors, err := r.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(vectors) != len(chunk) {
			return fmt.Errorf("embed batch at %d: got %d vectors for %d texts", start, len(vectors), len(chunk))
		}

		items := make([]model.Embedding, len(chunk))
		for i, e := range chunk {
			items[i] = model.Embedding{
				ID:       model.VectorID(e.ID),
				RepoID:   r.repo.ID,
				EntityID: e.ID,
				Code:     texts[i],
				Vector:   vectors[i],
				Metadata: model.EmbeddingMetadata{
					FilePath:   paths[e.FileID],
					EntityName: e.Name,
					EntityKind: e.Kind,
					RepoID:     r.repo.ID,
					LineRange:  [2]int{e.StartLine, e.EndLine},
				},
			}
			e.VectorID = items[i].ID
		}
		if err := r.store.SaveEmbeddings(ctx, items); err != nil {
			return err
		}
	}
	return nil
}

func embeddingText(e *model.Entity) string {
	if e.Snippet != "" {
		return e.Snippet
	}
	return e.Explanation
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(content, "\n"), "\n") + 1
}
