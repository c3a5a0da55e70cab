// Package entities contains core business entities.
// These are pure domain objects with no knowledge of storage, transport or
// the model services behind them.
package entities

import (
	"fmt"
	"strings"
	"time"
)

// Document represents a source document (brochure PDF, HTML page, text note).
// Identity is the source filename. Paginated sources carry Pages; everything
// else carries Content.
type Document struct {
	Name      string // source filename, e.g. "notes.txt"
	Path      string
	Content   string   // whole text for non-paginated sources
	Pages     []string // per-page text for paginated sources (PDF)
	UpdatedAt time.Time
}

// Paginated reports whether the document was extracted page by page.
func (d *Document) Paginated() bool {
	return d.Pages != nil
}

// Unit is one independently chunked slice of a document: a page, or the
// whole text. Chunks never span units.
type Unit struct {
	SourceFile string
	PageIndex  *int
	Text       string
}

// Units splits the document into its chunkable units.
func (d *Document) Units() []Unit {
	if !d.Paginated() {
		return []Unit{{SourceFile: d.Name, Text: d.Content}}
	}
	units := make([]Unit, len(d.Pages))
	for i, page := range d.Pages {
		idx := i
		units[i] = Unit{SourceFile: d.Name, PageIndex: &idx, Text: page}
	}
	return units
}

// Chunk represents a bounded, length-filtered slice of a document unit.
type Chunk struct {
	ID            string
	Text          string
	SourceFile    string
	PageIndex     *int // nil for non-paginated sources
	SequenceIndex int  // position within its source unit
	Embedding     []float32
}

// ChunkID builds the deterministic chunk identity from its position.
// Unchanged content re-ingested yields the same id, so upserts overwrite.
func ChunkID(sourceFile string, pageIndex *int, sequenceIndex int) string {
	if pageIndex == nil {
		return fmt.Sprintf("%s-c%d", sourceFile, sequenceIndex)
	}
	return fmt.Sprintf("%s-p%d-c%d", sourceFile, *pageIndex, sequenceIndex)
}

// ScoredChunk is a similarity search hit.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// RetrievalPhase records which retrieval phase produced the evidence.
type RetrievalPhase string

const (
	PhaseNone       RetrievalPhase = ""
	PhaseExact      RetrievalPhase = "exact"
	PhaseSimilarity RetrievalPhase = "similarity"
)

// Evidence is the single best grounding passage for a question, or empty.
type Evidence struct {
	Text    string
	ChunkID string
	Phase   RetrievalPhase
}

// Empty reports whether no passage was found.
func (e Evidence) Empty() bool {
	return strings.TrimSpace(e.Text) == ""
}

// Answer is the grounded generator's structured result.
type Answer struct {
	Grounded bool
	Text     string
	Source   string // chunk id the answer was grounded on, if any
}

// Route is the router's classification of a question.
type Route string

const (
	RouteTransitStatus Route = "transit_status"
	RouteMapLookup     Route = "map_lookup"
	RouteKnowledge     Route = "knowledge"
)

// Reply is what the core hands back to the inbound transport.
type Reply struct {
	Route    Route
	Text     string
	Grounded bool
}

// StatusRow is one (section, port, time, status) tuple of a transit snapshot.
type StatusRow struct {
	Section string
	Port    string
	Time    string
	Status  string
}

// TransitSnapshot is an ephemeral, ordered walk result of the status page.
type TransitSnapshot struct {
	Rows []StatusRow
}

// Report serializes the snapshot as "{section}\n{port}: {time} {status}\n...".
// A section title is written once, before its first row.
func (s TransitSnapshot) Report() string {
	var sb strings.Builder
	current := ""
	started := false
	for _, r := range s.Rows {
		if !started || r.Section != current {
			sb.WriteString(r.Section)
			sb.WriteString("\n")
			current = r.Section
			started = true
		}
		fmt.Fprintf(&sb, "%s: %s %s\n", r.Port, r.Time, r.Status)
	}
	return sb.String()
}
