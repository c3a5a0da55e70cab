// Package usecases - retrieve.go selects the single best grounding passage.
package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/0xcro3dile/islandguide/internal/domain/entities"
	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

// Trailing request phrases removed to form the title query. Longer phrases
// come first so "について教えて" wins over "教えて".
var titleSuffixes = []string{
	"について教えてください",
	"について教えて",
	"を教えてください",
	"を教えて",
	"教えてください",
	"教えて",
	"について",
	"って何ですか",
	"って何",
	"とは何ですか",
	"とは",
	" information",
	" info",
}

// Leading request phrases, matched case-insensitively.
var titlePrefixes = []string{
	"tell me about ",
	"what is ",
	"about ",
}

// RetrieveUseCase runs the two-phase lookup: exact title containment
// first, embedding similarity second.
type RetrieveUseCase struct {
	index         ports.DocumentIndex
	minTitleRunes int
}

// NewRetrieveUseCase creates a RetrieveUseCase. Title queries shorter than
// minTitleRunes skip the exact phase; 1 keeps every non-empty query.
func NewRetrieveUseCase(index ports.DocumentIndex, minTitleRunes int) *RetrieveUseCase {
	if minTitleRunes < 1 {
		minTitleRunes = 1
	}
	return &RetrieveUseCase{
		index:         index,
		minTitleRunes: minTitleRunes,
	}
}

// NormalizeTitleQuery strips boilerplate around the subject of a question.
func NormalizeTitleQuery(question string) string {
	q := strings.TrimSpace(question)
	for {
		before := q
		q = strings.TrimRight(q, "?？!！。 　")
		for _, suffix := range titleSuffixes {
			if strings.HasSuffix(q, suffix) {
				q = strings.TrimSpace(strings.TrimSuffix(q, suffix))
				break
			}
		}
		for _, prefix := range titlePrefixes {
			if len(q) >= len(prefix) && strings.EqualFold(q[:len(prefix)], prefix) {
				q = strings.TrimSpace(q[len(prefix):])
				break
			}
		}
		if q == before {
			return q
		}
	}
}

// Retrieve returns the best evidence for question, or empty evidence.
// An exact hit is authoritative and never replaced by a similarity hit.
func (uc *RetrieveUseCase) Retrieve(ctx context.Context, question string) (entities.Evidence, error) {
	title := NormalizeTitleQuery(question)

	if utf8.RuneCountInString(title) >= uc.minTitleRunes {
		hits, err := uc.index.GetBySubstring(ctx, title)
		if err != nil {
			return entities.Evidence{}, fmt.Errorf("exact lookup: %w", err)
		}
		if len(hits) > 0 {
			slog.Debug("exact match", "title_query", title, "chunk", hits[0].ID, "hits", len(hits))
			return entities.Evidence{Text: hits[0].Text, ChunkID: hits[0].ID, Phase: entities.PhaseExact}, nil
		}
	}

	results, err := uc.index.QueryBySimilarity(ctx, question, 1)
	if err != nil {
		return entities.Evidence{}, fmt.Errorf("similarity lookup: %w", err)
	}
	if len(results) > 0 {
		top := results[0]
		slog.Debug("similarity match", "chunk", top.Chunk.ID, "score", top.Score)
		return entities.Evidence{Text: top.Chunk.Text, ChunkID: top.Chunk.ID, Phase: entities.PhaseSimilarity}, nil
	}

	return entities.Evidence{}, nil
}
