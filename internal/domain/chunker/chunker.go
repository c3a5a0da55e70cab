// Package chunker splits document units into overlapping line windows.
// Pure business logic: no I/O, deterministic for identical input.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/0xcro3dile/islandguide/internal/domain/entities"
)

const (
	DefaultWindow    = 10
	DefaultStep      = 5
	DefaultMinLength = 30
)

// Config holds window sizes in lines and the minimum chunk length in runes.
type Config struct {
	Window    int
	Step      int
	MinLength int
}

// Chunker produces chunks from text units.
type Chunker struct {
	cfg Config
}

// New creates a Chunker, falling back to defaults for non-positive values.
func New(cfg Config) *Chunker {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Step <= 0 {
		cfg.Step = DefaultStep
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinLength
	}
	return &Chunker{cfg: cfg}
}

// Config returns the effective configuration.
func (c *Chunker) Config() Config {
	return c.cfg
}

// Split slides a window of Window lines over text, advancing Step lines at a
// time. A window is kept iff its trimmed text is at least MinLength runes.
// Trailing partial windows are kept under the same rule.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := strings.Split(text, "\n")

	var out []string
	for start := 0; start < len(lines); start += c.cfg.Step {
		end := start + c.cfg.Window
		if end > len(lines) {
			end = len(lines)
		}
		window := strings.TrimSpace(strings.Join(lines[start:end], "\n"))
		if utf8.RuneCountInString(window) >= c.cfg.MinLength {
			out = append(out, window)
		}
	}
	return out
}

// Chunk splits a unit and attaches identity and metadata. SequenceIndex
// counts emitted chunks within the unit.
func (c *Chunker) Chunk(unit entities.Unit) []entities.Chunk {
	texts := c.Split(unit.Text)
	if len(texts) == 0 {
		return nil
	}
	chunks := make([]entities.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = entities.Chunk{
			ID:            entities.ChunkID(unit.SourceFile, unit.PageIndex, i),
			Text:          text,
			SourceFile:    unit.SourceFile,
			PageIndex:     unit.PageIndex,
			SequenceIndex: i,
		}
	}
	return chunks
}

// ChunkDocument chunks every unit of doc. Chunks never span units.
func (c *Chunker) ChunkDocument(doc *entities.Document) []entities.Chunk {
	var chunks []entities.Chunk
	for _, unit := range doc.Units() {
		chunks = append(chunks, c.Chunk(unit)...)
	}
	return chunks
}
