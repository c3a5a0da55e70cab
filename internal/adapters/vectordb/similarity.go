package vectordb

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/0xcro3dile/islandguide/internal/domain/entities"
	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

// embedMissing fills in embeddings for chunks that have none. The input
// slice is not modified.
func embedMissing(ctx context.Context, embedder ports.EmbeddingService, chunks []entities.Chunk) ([]entities.Chunk, error) {
	out := make([]entities.Chunk, len(chunks))
	copy(out, chunks)

	var texts []string
	var positions []int
	for i, c := range out {
		if len(c.Embedding) == 0 {
			texts = append(texts, c.Text)
			positions = append(positions, i)
		}
	}
	if len(texts) == 0 {
		return out, nil
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ports.ErrEmbeddingUnavailable, len(vectors), len(texts))
	}
	for j, pos := range positions {
		out[pos].Embedding = vectors[j]
	}
	return out, nil
}

// topK sorts by score descending, ties broken by id, and keeps k.
func topK(results []entities.ScoredChunk, k int) []entities.ScoredChunk {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// cosineSimilarity calculates cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
