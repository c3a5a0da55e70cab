package ports

import "errors"

var (
	// ErrEmbeddingUnavailable is returned when the embedding service cannot
	// produce a vector. Index writes and similarity queries wrap it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationFailed wraps text-generation failures.
	ErrGenerationFailed = errors.New("generation failed")

	ErrUnsupportedDocument = errors.New("unsupported document")

	// ErrStatusAreaNotFound means the page parsed but the status container
	// was not in it.
	ErrStatusAreaNotFound = errors.New("status area not found")

	ErrReloadInProgress = errors.New("reload already in progress")
	ErrInvalidInput     = errors.New("invalid input")
)
