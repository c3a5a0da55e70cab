// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
package ports

import (
	"context"

	"github.com/0xcro3dile/islandguide/internal/domain/entities"
)

// EmbeddingService generates vector embeddings for text.
// Interface Segregation: Only embedding responsibility, nothing else.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMService generates text from a language model.
// Single Responsibility: Only inference, no embedding or grounding logic.
type LLMService interface {
	// Complete sends a system instruction and a user message and returns
	// the raw model output.
	Complete(ctx context.Context, system, user string) (string, error)
}

// DocumentIndex persists chunks and answers exact and similarity lookups.
// Implementations own the EmbeddingService used for both writes and queries.
type DocumentIndex interface {
	// Upsert inserts or overwrites chunks by id.
	Upsert(ctx context.Context, chunks ...entities.Chunk) error

	// Count returns the number of indexed chunks. Zero means "needs bootstrap".
	Count(ctx context.Context) (int, error)

	// GetBySubstring returns chunks whose text contains needle (case-sensitive),
	// in a stable order. Empty when nothing matches.
	GetBySubstring(ctx context.Context, needle string) ([]entities.Chunk, error)

	// QueryBySimilarity returns the top k chunks by embedding similarity to text.
	QueryBySimilarity(ctx context.Context, text string, k int) ([]entities.ScoredChunk, error)

	// Clear drops every entry.
	Clear(ctx context.Context) error
}

// DocumentLoader reads and parses documents from various formats.
type DocumentLoader interface {
	// Load reads a document from the given path.
	Load(ctx context.Context, path string) (*entities.Document, error)

	// SupportedExtensions returns file extensions this loader handles.
	SupportedExtensions() []string
}

// DocumentParser extracts per-page text from binary formats (PDF).
type DocumentParser interface {
	// Parse extracts page texts from document bytes.
	Parse(ctx context.Context, data []byte, filename string) ([]string, error)

	// SupportedFormats returns formats this parser handles (e.g., "pdf").
	SupportedFormats() []string
}

// SkippedDocument is a source file ingestion could not use.
type SkippedDocument struct {
	Path   string
	Reason string
}

// DocumentSource yields the document collection to ingest.
type DocumentSource interface {
	// Documents returns every loadable document plus the files it skipped.
	Documents(ctx context.Context) ([]*entities.Document, []SkippedDocument, error)
}

// PageFetcher retrieves the HTML of a page. Tiers of the transit-status
// lookup implement this.
type PageFetcher interface {
	Name() string
	Fetch(ctx context.Context, url string) (string, error)
}

// StatusExtractor walks a status page and returns its rows. It returns
// ErrStatusAreaNotFound when the status container is absent.
type StatusExtractor interface {
	Extract(page string) (entities.TransitSnapshot, error)
}

// FetchObserver is notified of each tier attempt.
type FetchObserver interface {
	ObserveFetch(tier, result string)
}

// Locker serializes destructive maintenance (reload) across processes.
type Locker interface {
	// Lock blocks until the lock is held or ctx is done.
	Lock(ctx context.Context) (unlock func() error, err error)
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
