package vectordb

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/islandguide/internal/domain/entities"
	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

// axisEmbedder maps texts onto fixed axes by keyword so similarity is predictable.
type axisEmbedder struct {
	calls int
	err   error
}

func (e *axisEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	v := []float32{0, 0, 0}
	switch {
	case strings.Contains(text, "ferry"):
		v[0] = 1
	case strings.Contains(text, "festival"):
		v[1] = 1
	default:
		v[2] = 1
	}
	return v, nil
}

func (e *axisEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

type indexFactory func(t *testing.T, emb ports.EmbeddingService) ports.DocumentIndex

func factories() map[string]indexFactory {
	return map[string]indexFactory{
		"sqlite": func(t *testing.T, emb ports.EmbeddingService) ports.DocumentIndex {
			idx, err := NewSQLiteIndex(t.TempDir(), emb)
			require.NoError(t, err)
			t.Cleanup(func() { idx.Close() })
			return idx
		},
		"memory": func(t *testing.T, emb ports.EmbeddingService) ports.DocumentIndex {
			return NewMemoryIndex(emb)
		},
	}
}

func page(n int) *int { return &n }

func sampleChunks() []entities.Chunk {
	return []entities.Chunk{
		{ID: "notes.txt-c0", SourceFile: "notes.txt", SequenceIndex: 0, Text: "The ferry leaves Fukue at 8:00"},
		{ID: "guide.pdf-p1-c0", SourceFile: "guide.pdf", PageIndex: page(1), SequenceIndex: 0, Text: "Camellia festival in February"},
		{ID: "guide.pdf-p0-c1", SourceFile: "guide.pdf", PageIndex: page(0), SequenceIndex: 1, Text: "Ferry Schedule: Fukue to Nagasaki"},
		{ID: "guide.pdf-p0-c0", SourceFile: "guide.pdf", PageIndex: page(0), SequenceIndex: 0, Text: "Churches of the islands"},
	}
}

func TestIndex_UpsertAndCount(t *testing.T) {
	for name, newIndex := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			idx := newIndex(t, &axisEmbedder{})

			require.NoError(t, idx.Upsert(ctx, sampleChunks()...))

			count, err := idx.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 4, count)
		})
	}
}

func TestIndex_UpsertOverwritesByID(t *testing.T) {
	for name, newIndex := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			idx := newIndex(t, &axisEmbedder{})

			require.NoError(t, idx.Upsert(ctx, sampleChunks()...))
			require.NoError(t, idx.Upsert(ctx, sampleChunks()...))
			require.NoError(t, idx.Upsert(ctx, entities.Chunk{ID: "notes.txt-c0", SourceFile: "notes.txt", Text: "rewritten text"}))

			count, _ := idx.Count(ctx)
			assert.Equal(t, 4, count)

			hits, err := idx.GetBySubstring(ctx, "rewritten")
			require.NoError(t, err)
			require.Len(t, hits, 1)
			assert.Equal(t, "notes.txt-c0", hits[0].ID)
		})
	}
}

func TestIndex_GetBySubstringOrderAndCase(t *testing.T) {
	for name, newIndex := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			idx := newIndex(t, &axisEmbedder{})
			require.NoError(t, idx.Upsert(ctx, sampleChunks()...))

			hits, err := idx.GetBySubstring(ctx, "Fukue")
			require.NoError(t, err)
			require.Len(t, hits, 2)
			assert.Equal(t, "guide.pdf-p0-c1", hits[0].ID)
			assert.Equal(t, "notes.txt-c0", hits[1].ID)
			require.NotNil(t, hits[0].PageIndex)
			assert.Equal(t, 0, *hits[0].PageIndex)
			assert.Nil(t, hits[1].PageIndex)

			hits, err = idx.GetBySubstring(ctx, "fukue")
			require.NoError(t, err)
			assert.Empty(t, hits, "match is case-sensitive")

			hits, err = idx.GetBySubstring(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, hits)
		})
	}
}

func TestIndex_QueryBySimilarity(t *testing.T) {
	for name, newIndex := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			idx := newIndex(t, &axisEmbedder{})
			require.NoError(t, idx.Upsert(ctx, sampleChunks()...))

			results, err := idx.QueryBySimilarity(ctx, "when is the festival", 1)
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, "guide.pdf-p1-c0", results[0].Chunk.ID)
			assert.InDelta(t, 1.0, results[0].Score, 1e-9)

			results, err = idx.QueryBySimilarity(ctx, "ferry times", 10)
			require.NoError(t, err)
			assert.Len(t, results, 4)
			assert.Equal(t, "notes.txt-c0", results[0].Chunk.ID)
		})
	}
}

func TestIndex_EmbeddingFailureSurfaces(t *testing.T) {
	for name, newIndex := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			emb := &axisEmbedder{err: errors.New("connection refused")}
			idx := newIndex(t, emb)

			err := idx.Upsert(ctx, sampleChunks()...)
			assert.ErrorIs(t, err, ports.ErrEmbeddingUnavailable)

			count, _ := idx.Count(ctx)
			assert.Equal(t, 0, count, "no chunk is silently dropped or half-written")

			_, err = idx.QueryBySimilarity(ctx, "ferry", 1)
			assert.ErrorIs(t, err, ports.ErrEmbeddingUnavailable)
		})
	}
}

func TestIndex_UpsertKeepsPrecomputedEmbeddings(t *testing.T) {
	for name, newIndex := range factories() {
		t.Run(name, func(t *testing.T) {
			emb := &axisEmbedder{}
			idx := newIndex(t, emb)

			err := idx.Upsert(context.Background(), entities.Chunk{ID: "a", SourceFile: "a.txt", Text: "x", Embedding: []float32{1, 0, 0}})
			require.NoError(t, err)
			assert.Equal(t, 0, emb.calls)
		})
	}
}

func TestIndex_Clear(t *testing.T) {
	for name, newIndex := range factories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			idx := newIndex(t, &axisEmbedder{})
			require.NoError(t, idx.Upsert(ctx, sampleChunks()...))

			require.NoError(t, idx.Clear(ctx))

			count, _ := idx.Count(ctx)
			assert.Equal(t, 0, count)
		})
	}
}

func TestSQLiteIndex_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	idx, err := NewSQLiteIndex(dir, &axisEmbedder{})
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(ctx, sampleChunks()...))
	require.NoError(t, idx.Close())

	reopened, err := NewSQLiteIndex(dir, &axisEmbedder{})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	c := []float32{0, 1, 0}

	assert.Equal(t, 1.0, cosineSimilarity(a, b))
	assert.Equal(t, 0.0, cosineSimilarity(a, c))
	assert.Equal(t, 0.0, cosineSimilarity(a, []float32{1, 0}), "mismatched dimensions")
}
