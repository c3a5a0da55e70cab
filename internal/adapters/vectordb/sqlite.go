// Package vectordb provides document index adapters.
// Clean Architecture: Adapters implementing ports.DocumentIndex.
// SQLiteIndex is the durable, path-addressed store; MemoryIndex serves tests
// and throwaway runs.
package vectordb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/0xcro3dile/islandguide/internal/domain/entities"
	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

// DBFile is the index filename inside the data directory.
const DBFile = "index.db"

// SQLiteIndex implements ports.DocumentIndex with SQLite persistence.
// Similarity is brute-force cosine over every stored embedding, which is
// fine for a brochure-sized corpus.
type SQLiteIndex struct {
	mu       sync.RWMutex
	db       *sql.DB
	embedder ports.EmbeddingService
	dataPath string
}

// NewSQLiteIndex opens (or creates) the index under dataPath.
func NewSQLiteIndex(dataPath string, embedder ports.EmbeddingService) (*SQLiteIndex, error) {
	if dataPath == "" {
		dataPath = "./data"
	}

	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataPath, DBFile)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	idx := &SQLiteIndex{
		db:       db,
		embedder: embedder,
		dataPath: dataPath,
	}

	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return idx, nil
}

func (s *SQLiteIndex) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		source_file TEXT NOT NULL,
		page_index INTEGER,
		seq_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_source_file ON chunks(source_file);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Upsert embeds chunks that carry no vector yet and writes them in one
// transaction, overwriting rows with the same id. Nothing is written if
// embedding fails.
func (s *SQLiteIndex) Upsert(ctx context.Context, chunks ...entities.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	chunks, err := embedMissing(ctx, s.embedder, chunks)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO chunks (id, source_file, page_index, seq_index, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		embeddingJSON, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return fmt.Errorf("encoding embedding: %w", err)
		}

		var page sql.NullInt64
		if chunk.PageIndex != nil {
			page = sql.NullInt64{Int64: int64(*chunk.PageIndex), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx,
			chunk.ID,
			chunk.SourceFile,
			page,
			chunk.SequenceIndex,
			chunk.Text,
			embeddingJSON,
		); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", chunk.ID, err)
		}
	}

	return tx.Commit()
}

// Count returns the number of stored chunks.
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count)
	return count, err
}

// GetBySubstring uses instr(), which is case-sensitive, unlike LIKE.
func (s *SQLiteIndex) GetBySubstring(ctx context.Context, needle string) ([]entities.Chunk, error) {
	if needle == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_file, page_index, seq_index, content
		FROM chunks
		WHERE instr(content, ?) > 0
		ORDER BY source_file, COALESCE(page_index, -1), seq_index
	`, needle)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []entities.Chunk
	for rows.Next() {
		var chunk entities.Chunk
		var page sql.NullInt64
		if err := rows.Scan(&chunk.ID, &chunk.SourceFile, &page, &chunk.SequenceIndex, &chunk.Text); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		chunk.PageIndex = pageIndex(page)
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// QueryBySimilarity embeds text and ranks every stored chunk against it.
func (s *SQLiteIndex) QueryBySimilarity(ctx context.Context, text string, k int) ([]entities.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	query, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrEmbeddingUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_file, page_index, seq_index, content, embedding
		FROM chunks
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var results []entities.ScoredChunk
	for rows.Next() {
		var chunk entities.Chunk
		var page sql.NullInt64
		var embeddingJSON []byte

		if err := rows.Scan(&chunk.ID, &chunk.SourceFile, &page, &chunk.SequenceIndex, &chunk.Text, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal(embeddingJSON, &chunk.Embedding); err != nil {
			slog.Warn("skipping chunk with corrupt embedding", "id", chunk.ID, "error", err)
			continue
		}
		chunk.PageIndex = pageIndex(page)

		results = append(results, entities.ScoredChunk{
			Chunk: chunk,
			Score: cosineSimilarity(query, chunk.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return topK(results, k), nil
}

// Clear removes all data from the index.
func (s *SQLiteIndex) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM chunks")
	return err
}

// Close closes the database connection.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

func pageIndex(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	p := int(v.Int64)
	return &p
}
