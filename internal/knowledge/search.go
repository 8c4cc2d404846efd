package knowledge

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"codearch/internal/model"
)

// VectorStore ranks stored embeddings of a repository against a query vector.
type VectorStore interface {
	SearchSimilar(ctx context.Context, repoID string, query []float32, limit int) ([]model.ScoredEmbedding, error)
}

// SearchResult is one snippet matching a query. Distance is 1 - cosine similarity.
type SearchResult struct {
	SnippetID string                  `json:"snippet_id"`
	Code      string                  `json:"code"`
	Metadata  model.EmbeddingMetadata `json:"metadata"`
	Distance  float64                 `json:"distance"`
}

// Searcher answers natural-language queries over stored entity embeddings.
type Searcher struct {
	embedder Embedder
	store    VectorStore
	cache    *lru.Cache[string, []float32]
}

func NewSearcher(embedder Embedder, store VectorStore, cacheSize int) (*Searcher, error) {
	if cacheSize < 1 {
		cacheSize = 1
	}
	cache, err := lru.New[string, []float32](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}
	return &Searcher{embedder: embedder, store: store, cache: cache}, nil
}

func (s *Searcher) Search(ctx context.Context, repoID, query string, limit int) ([]SearchResult, error) {
	vec, err := s.queryVector(ctx, query)
	if err != nil {
		return nil, err
	}

	scored, err := s.store.SearchSimilar(ctx, repoID, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]SearchResult, 0, len(scored))
	for _, se := range scored {
		results = append(results, SearchResult{
			SnippetID: se.ID,
			Code:      se.Code,
			Metadata:  se.Metadata,
			Distance:  1 - se.Similarity,
		})
	}
	return results, nil
}

func (s *Searcher) queryVector(ctx context.Context, query string) ([]float32, error) {
	if vec, ok := s.cache.Get(query); ok {
		return vec, nil
	}
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vecs))
	}
	s.cache.Add(query, vecs[0])
	return vecs[0], nil
}
