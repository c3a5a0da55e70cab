package vectordb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/0xcro3dile/islandguide/internal/domain/entities"
	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

// MemoryIndex is a non-durable ports.DocumentIndex. Same ordering and
// matching rules as SQLiteIndex.
type MemoryIndex struct {
	mu       sync.RWMutex
	chunks   map[string]entities.Chunk // chunkID -> chunk
	embedder ports.EmbeddingService
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex(embedder ports.EmbeddingService) *MemoryIndex {
	return &MemoryIndex{
		chunks:   make(map[string]entities.Chunk),
		embedder: embedder,
	}
}

func (s *MemoryIndex) Upsert(ctx context.Context, chunks ...entities.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	chunks, err := embedMissing(ctx, s.embedder, chunks)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

func (s *MemoryIndex) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func (s *MemoryIndex) GetBySubstring(ctx context.Context, needle string) ([]entities.Chunk, error) {
	if needle == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []entities.Chunk
	for _, chunk := range s.chunks {
		if strings.Contains(chunk.Text, needle) {
			hits = append(hits, chunk)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return lessByPosition(hits[i], hits[j]) })
	return hits, nil
}

func (s *MemoryIndex) QueryBySimilarity(ctx context.Context, text string, k int) ([]entities.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	query, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrEmbeddingUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]entities.ScoredChunk, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		results = append(results, entities.ScoredChunk{
			Chunk: chunk,
			Score: cosineSimilarity(query, chunk.Embedding),
		})
	}
	return topK(results, k), nil
}

func (s *MemoryIndex) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chunks = make(map[string]entities.Chunk)
	return nil
}

// lessByPosition orders by source file, then page (non-paginated first), then sequence.
func lessByPosition(a, b entities.Chunk) bool {
	if a.SourceFile != b.SourceFile {
		return a.SourceFile < b.SourceFile
	}
	pa, pb := -1, -1
	if a.PageIndex != nil {
		pa = *a.PageIndex
	}
	if b.PageIndex != nil {
		pb = *b.PageIndex
	}
	if pa != pb {
		return pa < pb
	}
	return a.SequenceIndex < b.SequenceIndex
}
