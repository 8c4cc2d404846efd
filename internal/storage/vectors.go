package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"codearch/internal/model"
)

func (s *SQLiteStore) SaveEmbeddings(ctx context.Context, items []model.Embedding) error {
	if len(items) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO embeddings (id, repo_id, entity_id, code, metadata, embedding) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET code=excluded.code, metadata=excluded.metadata, embedding=excluded.embedding
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		link, err := tx.PrepareContext(ctx, "UPDATE entities SET vector_id = ? WHERE id = ?")
		if err != nil {
			return err
		}
		defer link.Close()

		for _, item := range items {
			meta, err := json.Marshal(item.Metadata)
			if err != nil {
				return err
			}
			blob, err := encodeVector(item.Vector)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, item.ID, item.RepoID, item.EntityID, item.Code, string(meta), blob); err != nil {
				return fmt.Errorf("save embedding %s: %w", item.ID, err)
			}
			if _, err := link.ExecContext(ctx, item.ID, item.EntityID); err != nil {
				return err
			}
		}
		return nil
	})
}

// SearchSimilar scores every vector of the repository in memory. Vectors whose
// dimension differs from the query score zero.
func (s *SQLiteStore) SearchSimilar(ctx context.Context, repoID string, vector []float32, limit int) ([]model.ScoredEmbedding, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, repo_id, entity_id, code, metadata, embedding FROM embeddings WHERE repo_id = ?", repoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []model.ScoredEmbedding
	for rows.Next() {
		var (
			e    model.Embedding
			meta string
			blob []byte
		)
		if err := rows.Scan(&e.ID, &e.RepoID, &e.EntityID, &e.Code, &meta, &blob); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(meta), &e.Metadata); err != nil {
			continue
		}
		vec, err := decodeVector(blob)
		if err != nil {
			continue
		}
		e.Vector = vec
		candidates = append(candidates, model.ScoredEmbedding{
			Embedding:  e,
			Similarity: cosineSimilarity(vector, vec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func encodeVector(v []float32) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector blob of %d bytes", len(blob))
	}
	v := make([]float32, len(blob)/4)
	if err := binary.Read(bytes.NewReader(blob), binary.LittleEndian, v); err != nil {
		return nil, err
	}
	return v, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
