package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codearch/internal/model"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	c.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (c *countingEmbedder) Dimension() int { return 2 }

type fakeVectorStore struct {
	repoID string
	limit  int
}

func (f *fakeVectorStore) SearchSimilar(_ context.Context, repoID string, _ []float32, limit int) ([]model.ScoredEmbedding, error) {
	f.repoID, f.limit = repoID, limit
	return []model.ScoredEmbedding{
		{Embedding: model.Embedding{ID: "entity_a", Code: "def a(): pass", Metadata: model.EmbeddingMetadata{EntityName: "a"}}, Similarity: 0.75},
	}, nil
}

func TestSearcher_Search(t *testing.T) {
	emb := &countingEmbedder{}
	store := &fakeVectorStore{}
	s, err := NewSearcher(emb, store, 4)
	require.NoError(t, err)

	res, err := s.Search(context.Background(), "repo-1", "where is a defined", 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "entity_a", res[0].SnippetID)
	assert.InDelta(t, 0.25, res[0].Distance, 1e-9)
	assert.Equal(t, "repo-1", store.repoID)
	assert.Equal(t, 5, store.limit)

	_, err = s.Search(context.Background(), "repo-1", "where is a defined", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, emb.calls, "repeated queries reuse the cached vector")
}
