package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codearch/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedRepo(t *testing.T, store *SQLiteStore) *model.Repository {
	t.Helper()
	repo := &model.Repository{URL: "https://github.com/acme/widgets", Owner: "acme", Name: "widgets"}
	require.NoError(t, store.CreateRepository(context.Background(), repo))
	return repo
}

func seedCode(t *testing.T, store *SQLiteStore, repoID string) (*model.File, []*model.Entity) {
	t.Helper()
	ctx := context.Background()
	f := &model.File{RepoID: repoID, Path: "app/main.py", Extension: ".py", Language: model.LanguagePython, SizeBytes: 42}
	require.NoError(t, store.UpsertFiles(ctx, []*model.File{f}))

	entities := []*model.Entity{
		{RepoID: repoID, FileID: f.ID, Name: "main", Kind: model.KindFunction, StartLine: 1, EndLine: 3, Snippet: "def main():\n    helper()"},
		{RepoID: repoID, FileID: f.ID, Name: "helper", Kind: model.KindFunction, StartLine: 5, EndLine: 6, Snippet: "def helper():\n    pass"},
	}
	require.NoError(t, store.UpsertEntities(ctx, entities))
	return f, entities
}

func TestSQLiteStore_RepositoryLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := seedRepo(t, store)

	assert.NotEmpty(t, repo.ID)
	assert.Equal(t, model.StatusPending, repo.Status)

	got, err := store.GetRepository(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, "widgets", got.Name)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Empty(t, got.LanguageBreakdown)
	assert.True(t, got.LastSyncedAt.IsZero())

	byURL, err := store.GetRepositoryByURL(ctx, repo.URL)
	require.NoError(t, err)
	assert.Equal(t, repo.ID, byURL.ID)

	require.NoError(t, store.TransitionStatus(ctx, repo.ID, model.StatusInProgress, "Starting analysis", 0))
	require.NoError(t, store.UpdateProgress(ctx, repo.ID, "Extracting entities", 20))
	require.NoError(t, store.UpdateRepositoryStats(ctx, repo.ID, 3, map[string]int{"python": 2, "other": 1}))
	require.NoError(t, store.TransitionStatus(ctx, repo.ID, model.StatusCompleted, "Analysis complete", 100))

	got, err = store.GetRepository(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, "Analysis complete", got.StatusMessage)
	assert.Equal(t, 100.0, got.Progress)
	assert.Equal(t, 3, got.FileCount)
	assert.Equal(t, map[string]int{"python": 2, "other": 1}, got.LanguageBreakdown)
	assert.False(t, got.LastSyncedAt.IsZero())

	list, err := store.ListRepositories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestSQLiteStore_StatusTransitions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := seedRepo(t, store)

	err := store.TransitionStatus(ctx, repo.ID, model.StatusCompleted, "", 100)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	require.NoError(t, store.TransitionStatus(ctx, repo.ID, model.StatusInProgress, "", 0))
	err = store.TransitionStatus(ctx, repo.ID, model.StatusPending, "", 0)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	require.NoError(t, store.TransitionStatus(ctx, repo.ID, model.StatusFailed, "Analysis failed: boom", 40))
	require.NoError(t, store.TransitionStatus(ctx, repo.ID, model.StatusPending, "Queued", 0))

	got, err := store.GetRepository(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetRepository(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, store.TransitionStatus(ctx, "missing", model.StatusInProgress, "", 0), model.ErrNotFound)
	assert.ErrorIs(t, store.UpdateProgress(ctx, "missing", "", 0), model.ErrNotFound)
	assert.ErrorIs(t, store.UpdateLineCount(ctx, "missing", 1), model.ErrNotFound)
}

func TestSQLiteStore_UpsertKeepsIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := seedRepo(t, store)
	f, entities := seedCode(t, store, repo.ID)

	require.NoError(t, store.UpdateExplanations(ctx, map[string]string{entities[0].ID: "Entry point."}))

	// Re-scan: same path and natural keys, fresh structs without IDs.
	again := &model.File{RepoID: repo.ID, Path: "app/main.py", Extension: ".py", Language: model.LanguagePython, SizeBytes: 50}
	require.NoError(t, store.UpsertFiles(ctx, []*model.File{again}))
	assert.Equal(t, f.ID, again.ID)

	reEntity := &model.Entity{RepoID: repo.ID, FileID: f.ID, Name: "main", Kind: model.KindFunction, StartLine: 1, EndLine: 4, Snippet: "def main():\n    helper()\n    return 0"}
	require.NoError(t, store.UpsertEntities(ctx, []*model.Entity{reEntity}))
	assert.Equal(t, entities[0].ID, reEntity.ID)
	assert.Equal(t, "Entry point.", reEntity.Explanation)

	files, err := store.ListFiles(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, int64(50), files[0].SizeBytes)

	list, err := store.ListEntities(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "main", list[0].Name)
	assert.Equal(t, 4, list[0].EndLine)
	assert.Equal(t, "helper", list[1].Name)
}

func TestSQLiteStore_FileUpdates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := seedRepo(t, store)
	f, _ := seedCode(t, store, repo.ID)

	require.NoError(t, store.UpdateLineCount(ctx, f.ID, 12))
	require.NoError(t, store.UpdateFileSummaries(ctx, map[string]string{f.ID: "Runs the app."}))

	files, err := store.ListFiles(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, 12, files[0].LineCount)
	assert.Equal(t, "Runs the app.", files[0].Summary)
	assert.Equal(t, model.LanguagePython, files[0].Language)
}

func TestSQLiteStore_Relationships(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := seedRepo(t, store)
	_, entities := seedCode(t, store, repo.ID)

	rels := []model.Relationship{
		{RepoID: repo.ID, SourceID: entities[0].ID, TargetID: entities[1].ID, Kind: model.RelationCalls},
		{RepoID: repo.ID, SourceID: entities[0].ID, Kind: model.RelationImports, Metadata: &model.ImportMetadata{
			SourceFile: "app/main.py", TargetFile: "app/util.py", ImportName: "app.util",
		}},
	}
	require.NoError(t, store.InsertRelationships(ctx, rels))
	// A second analysis appends rather than replaces.
	require.NoError(t, store.InsertRelationships(ctx, rels[:1]))

	all, err := store.ListRelationships(ctx, repo.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	calls, err := store.ListRelationships(ctx, repo.ID, model.RelationCalls)
	require.NoError(t, err)
	assert.Len(t, calls, 2)
	assert.Equal(t, entities[1].ID, calls[0].TargetID)
	assert.False(t, calls[0].CreatedAt.IsZero())

	imports, err := store.ListRelationships(ctx, repo.ID, model.RelationImports)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.False(t, imports[0].HasTarget())
	require.NotNil(t, imports[0].Metadata)
	assert.Equal(t, "app/util.py", imports[0].Metadata.TargetFile)
}

func TestSQLiteStore_RelationshipRequiresKnownEntities(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := seedRepo(t, store)
	_, entities := seedCode(t, store, repo.ID)

	err := store.InsertRelationships(ctx, []model.Relationship{
		{RepoID: repo.ID, SourceID: entities[0].ID, TargetID: "ghost", Kind: model.RelationCalls},
	})
	assert.Error(t, err)
}

func TestSQLiteStore_Embeddings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	repo := seedRepo(t, store)
	_, entities := seedCode(t, store, repo.ID)

	items := []model.Embedding{
		{ID: model.VectorID(entities[0].ID), RepoID: repo.ID, EntityID: entities[0].ID, Code: entities[0].Snippet,
			Metadata: model.EmbeddingMetadata{FilePath: "app/main.py", EntityName: "main", EntityKind: model.KindFunction, RepoID: repo.ID, LineRange: [2]int{1, 3}},
			Vector:   []float32{1, 0, 0}},
		{ID: model.VectorID(entities[1].ID), RepoID: repo.ID, EntityID: entities[1].ID, Code: entities[1].Snippet,
			Metadata: model.EmbeddingMetadata{FilePath: "app/main.py", EntityName: "helper", EntityKind: model.KindFunction, RepoID: repo.ID, LineRange: [2]int{5, 6}},
			Vector:   []float32{0.6, 0.8, 0}},
	}
	require.NoError(t, store.SaveEmbeddings(ctx, items))

	res, err := store.SearchSimilar(ctx, repo.ID, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "helper", res[0].Metadata.EntityName)
	assert.InDelta(t, 0.8, res[0].Similarity, 1e-6)
	assert.Equal(t, [2]int{5, 6}, res[0].Metadata.LineRange)
	assert.Equal(t, []float32{0.6, 0.8, 0}, res[0].Vector)

	res, err = store.SearchSimilar(ctx, "other-repo", []float32{0, 1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, res)

	list, err := store.ListEntities(ctx, repo.ID)
	require.NoError(t, err)
	for _, e := range list {
		assert.Equal(t, model.VectorID(e.ID), e.VectorID)
	}
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 2}, []float32{1}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
