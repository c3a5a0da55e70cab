// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces.
// They contain NO framework code, NO external dependencies - just pure business logic.
package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/0xcro3dile/islandguide/internal/domain/chunker"
	"github.com/0xcro3dile/islandguide/internal/domain/entities"
	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

// IngestStats summarizes one ingestion run.
type IngestStats struct {
	Documents int
	Chunks    int
	Skipped   []ports.SkippedDocument
}

// IngestUseCase populates the document index.
// Single Responsibility: Only ingestion and index lifecycle.
type IngestUseCase struct {
	index   ports.DocumentIndex
	chunker *chunker.Chunker
	source  ports.DocumentSource
	locker  ports.Locker
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
// locker may be nil when the caller serializes reloads itself.
func NewIngestUseCase(
	index ports.DocumentIndex,
	ch *chunker.Chunker,
	source ports.DocumentSource,
	locker ports.Locker,
) *IngestUseCase {
	if ch == nil {
		ch = chunker.New(chunker.Config{})
	}
	return &IngestUseCase{
		index:   index,
		chunker: ch,
		source:  source,
		locker:  locker,
	}
}

// Ingest chunks every unit of every document and upserts the chunks with
// their metadata. An index failure aborts the run: when the embedding
// service is down every later document would fail the same way.
func (uc *IngestUseCase) Ingest(ctx context.Context, docs []*entities.Document) (IngestStats, error) {
	var stats IngestStats
	for _, doc := range docs {
		chunks := uc.chunker.ChunkDocument(doc)
		if len(chunks) == 0 {
			slog.Warn("document produced no chunks", "file", doc.Name)
			stats.Skipped = append(stats.Skipped, ports.SkippedDocument{Path: doc.Path, Reason: "no text above minimum length"})
			continue
		}

		if err := uc.index.Upsert(ctx, chunks...); err != nil {
			return stats, fmt.Errorf("indexing %s: %w", doc.Name, err)
		}

		stats.Documents++
		stats.Chunks += len(chunks)
		slog.Info("indexed document", "file", doc.Name, "chunks", len(chunks))
	}
	return stats, nil
}

// Bootstrap ingests the document source only when the index is empty.
// It reports whether ingestion ran.
func (uc *IngestUseCase) Bootstrap(ctx context.Context) (IngestStats, bool, error) {
	count, err := uc.index.Count(ctx)
	if err != nil {
		return IngestStats{}, false, fmt.Errorf("counting index: %w", err)
	}
	if count > 0 {
		slog.Info("index already populated, skipping bootstrap", "chunks", count)
		return IngestStats{}, false, nil
	}

	slog.Info("index empty, bootstrapping from documents")
	stats, err := uc.ingestSource(ctx)
	return stats, true, err
}

// Reload clears the index and re-ingests the source. Not atomic: if
// ingestion fails midway the index stays empty or partially populated
// until the next successful reload.
func (uc *IngestUseCase) Reload(ctx context.Context) (IngestStats, error) {
	if uc.locker != nil {
		unlock, err := uc.locker.Lock(ctx)
		if err != nil {
			return IngestStats{}, err
		}
		defer func() {
			if err := unlock(); err != nil {
				slog.Warn("releasing reload lock", "error", err)
			}
		}()
	}

	if err := uc.index.Clear(ctx); err != nil {
		return IngestStats{}, fmt.Errorf("clearing index: %w", err)
	}
	slog.Info("index cleared for reload")

	return uc.ingestSource(ctx)
}

// Count exposes the index size for health reporting.
func (uc *IngestUseCase) Count(ctx context.Context) (int, error) {
	return uc.index.Count(ctx)
}

func (uc *IngestUseCase) ingestSource(ctx context.Context) (IngestStats, error) {
	docs, skipped, err := uc.source.Documents(ctx)
	if err != nil {
		return IngestStats{Skipped: skipped}, fmt.Errorf("loading documents: %w", err)
	}

	stats, err := uc.Ingest(ctx, docs)
	stats.Skipped = append(skipped, stats.Skipped...)
	if err != nil {
		return stats, err
	}

	slog.Info("ingestion complete",
		"documents", stats.Documents,
		"chunks", stats.Chunks,
		"skipped", len(stats.Skipped),
	)
	return stats, nil
}
