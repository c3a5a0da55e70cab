package usecases

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/islandguide/internal/domain/chunker"
	"github.com/0xcro3dile/islandguide/internal/domain/entities"
	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

// mockIndex implements ports.DocumentIndex for testing. Similarity results
// are scripted through similar.
type mockIndex struct {
	mu          sync.Mutex
	chunks      map[string]entities.Chunk
	similar     []entities.ScoredChunk
	upsertErr   error
	similarErr  error
	upserts     int
	clears      int
	similarCall int
}

func newMockIndex() *mockIndex {
	return &mockIndex{chunks: make(map[string]entities.Chunk)}
}

func (m *mockIndex) Upsert(ctx context.Context, chunks ...entities.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	for _, c := range chunks {
		m.chunks[c.ID] = c
	}
	return nil
}

func (m *mockIndex) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks), nil
}

func (m *mockIndex) GetBySubstring(ctx context.Context, needle string) ([]entities.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var hits []entities.Chunk
	for _, c := range m.chunks {
		if needle != "" && strings.Contains(c.Text, needle) {
			hits = append(hits, c)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
	return hits, nil
}

func (m *mockIndex) QueryBySimilarity(ctx context.Context, text string, k int) ([]entities.ScoredChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.similarCall++
	if m.similarErr != nil {
		return nil, m.similarErr
	}
	if len(m.similar) > k {
		return m.similar[:k], nil
	}
	return m.similar, nil
}

func (m *mockIndex) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	m.chunks = make(map[string]entities.Chunk)
	return nil
}

func (m *mockIndex) snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.chunks))
	for id, c := range m.chunks {
		out[id] = c.Text
	}
	return out
}

// mockSource implements ports.DocumentSource for testing
type mockSource struct {
	docs    []*entities.Document
	skipped []ports.SkippedDocument
	err     error
	calls   int
}

func (m *mockSource) Documents(ctx context.Context) ([]*entities.Document, []ports.SkippedDocument, error) {
	m.calls++
	return m.docs, m.skipped, m.err
}

// mockLocker implements ports.Locker for testing
type mockLocker struct {
	err      error
	locked   int
	unlocked int
}

func (m *mockLocker) Lock(ctx context.Context) (func() error, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.locked++
	return func() error { m.unlocked++; return nil }, nil
}

func guideLines(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "福江港から長崎港までジェットフォイルで約一時間半です。"
	}
	return strings.Join(lines, "\n")
}

func sampleDocs() []*entities.Document {
	return []*entities.Document{
		{Name: "notes.txt", Path: "docs/notes.txt", Content: guideLines(12)},
		{Name: "guide.pdf", Path: "docs/guide.pdf", Pages: []string{guideLines(3), "", guideLines(7)}},
	}
}

func TestIngestUseCase_IngestChunksEveryUnit(t *testing.T) {
	index := newMockIndex()
	uc := NewIngestUseCase(index, chunker.New(chunker.Config{}), &mockSource{}, nil)

	stats, err := uc.Ingest(context.Background(), sampleDocs())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 6, stats.Chunks) // notes: 0,5,10; page0: 0; page2: 0,5
	ids := index.snapshot()
	assert.Contains(t, ids, "notes.txt-c2")
	assert.Contains(t, ids, "guide.pdf-p0-c0")
	assert.Contains(t, ids, "guide.pdf-p2-c1")
	assert.NotContains(t, ids, "guide.pdf-p1-c0")
}

func TestIngestUseCase_EmptyDocumentSkipped(t *testing.T) {
	index := newMockIndex()
	uc := NewIngestUseCase(index, nil, &mockSource{}, nil)

	stats, err := uc.Ingest(context.Background(), []*entities.Document{{Name: "empty.txt", Path: "empty.txt"}})

	require.NoError(t, err)
	assert.Equal(t, 0, stats.Documents)
	assert.Len(t, stats.Skipped, 1)
	assert.Equal(t, 0, index.upserts)
}

func TestIngestUseCase_EmbeddingFailureAborts(t *testing.T) {
	index := newMockIndex()
	index.upsertErr = ports.ErrEmbeddingUnavailable
	uc := NewIngestUseCase(index, nil, &mockSource{}, nil)

	_, err := uc.Ingest(context.Background(), sampleDocs())

	assert.ErrorIs(t, err, ports.ErrEmbeddingUnavailable)
	assert.Equal(t, 1, index.upserts)
}

func TestIngestUseCase_BootstrapOnlyWhenEmpty(t *testing.T) {
	index := newMockIndex()
	source := &mockSource{docs: sampleDocs()}
	uc := NewIngestUseCase(index, nil, source, nil)

	stats, ran, err := uc.Bootstrap(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 6, stats.Chunks)

	_, ran, err = uc.Bootstrap(context.Background())
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, 1, source.calls)
}

func TestIngestUseCase_ReloadIsIdempotent(t *testing.T) {
	index := newMockIndex()
	locker := &mockLocker{}
	uc := NewIngestUseCase(index, nil, &mockSource{docs: sampleDocs()}, locker)

	_, err := uc.Reload(context.Background())
	require.NoError(t, err)
	first := index.snapshot()

	_, err = uc.Reload(context.Background())
	require.NoError(t, err)
	second := index.snapshot()

	assert.Equal(t, first, second)
	count, _ := index.Count(context.Background())
	assert.Equal(t, len(first), count)
	assert.Equal(t, 2, index.clears)
	assert.Equal(t, 2, locker.locked)
	assert.Equal(t, 2, locker.unlocked)
}

func TestIngestUseCase_ReloadBusyLockLeavesIndex(t *testing.T) {
	index := newMockIndex()
	require.NoError(t, index.Upsert(context.Background(), entities.Chunk{ID: "keep", Text: "keep me"}))
	uc := NewIngestUseCase(index, nil, &mockSource{docs: sampleDocs()}, &mockLocker{err: ports.ErrReloadInProgress})

	_, err := uc.Reload(context.Background())

	assert.ErrorIs(t, err, ports.ErrReloadInProgress)
	assert.Equal(t, 0, index.clears)
	assert.Contains(t, index.snapshot(), "keep")
}

func TestIngestUseCase_ReloadSourceFailureLeavesIndexEmpty(t *testing.T) {
	index := newMockIndex()
	require.NoError(t, index.Upsert(context.Background(), entities.Chunk{ID: "old", Text: "old text"}))
	uc := NewIngestUseCase(index, nil, &mockSource{err: errors.New("permission denied")}, nil)

	_, err := uc.Reload(context.Background())

	require.Error(t, err)
	count, _ := index.Count(context.Background())
	assert.Equal(t, 0, count, "reload is not atomic")
}

func TestIngestUseCase_ReloadReportsSkipped(t *testing.T) {
	source := &mockSource{
		docs:    sampleDocs(),
		skipped: []ports.SkippedDocument{{Path: "photo.jpg", Reason: "unsupported file type"}},
	}
	uc := NewIngestUseCase(newMockIndex(), nil, source, nil)

	stats, err := uc.Reload(context.Background())

	require.NoError(t, err)
	require.Len(t, stats.Skipped, 1)
	assert.Equal(t, "photo.jpg", stats.Skipped[0].Path)
}
