package usecases

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/0xcro3dile/islandguide/internal/domain/entities"
	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

// DefaultMinEvidenceLength is the shortest evidence, in runes, worth sending
// to the model.
const DefaultMinEvidenceLength = 10

// Retriever is the part of RetrieveUseCase the generator needs.
type Retriever interface {
	Retrieve(ctx context.Context, question string) (entities.Evidence, error)
}

// AnswerUseCase produces answers grounded in one retrieved passage.
// The grounding gate runs before the model is called: weak evidence never
// reaches the LLM.
type AnswerUseCase struct {
	retriever   Retriever
	llm         ports.LLMService
	minEvidence int
}

// NewAnswerUseCase creates an AnswerUseCase.
func NewAnswerUseCase(retriever Retriever, llm ports.LLMService, minEvidence int) *AnswerUseCase {
	if minEvidence <= 0 {
		minEvidence = DefaultMinEvidenceLength
	}
	return &AnswerUseCase{
		retriever:   retriever,
		llm:         llm,
		minEvidence: minEvidence,
	}
}

// Answer retrieves evidence and generates a reply from it. It never
// returns an error: every failure maps to a canned message.
func (uc *AnswerUseCase) Answer(ctx context.Context, question string) entities.Answer {
	evidence, err := uc.retriever.Retrieve(ctx, question)
	if err != nil {
		slog.Error("retrieval failed", "error", err)
		return entities.Answer{Grounded: false, Text: MsgRetrievalFailed}
	}
	return uc.AnswerFromEvidence(ctx, question, evidence)
}

// AnswerFromEvidence applies the grounding gate and, if it passes, asks the
// model to answer strictly from evidence.
func (uc *AnswerUseCase) AnswerFromEvidence(ctx context.Context, question string, evidence entities.Evidence) entities.Answer {
	text := strings.TrimSpace(evidence.Text)
	if utf8.RuneCountInString(text) < uc.minEvidence {
		slog.Info("refusing: insufficient evidence", "evidence_runes", utf8.RuneCountInString(text))
		return entities.Answer{Grounded: false, Text: MsgRefusal}
	}

	out, err := uc.llm.Complete(ctx, BuildInstruction(text), question)
	if err != nil {
		slog.Error("generation failed", "chunk", evidence.ChunkID, "error", err)
		return entities.Answer{Grounded: false, Text: MsgGenerationFailed}
	}

	out = strings.TrimSpace(out)
	if out == "" || strings.Contains(out, NoInfoMarker) {
		return entities.Answer{Grounded: false, Text: MsgNoCurrentInfo}
	}

	return entities.Answer{Grounded: true, Text: out, Source: evidence.ChunkID}
}

// BuildInstruction binds the model to the evidence and to the no-info marker.
func BuildInstruction(evidence string) string {
	var sb strings.Builder
	sb.WriteString(Persona)
	sb.WriteString("\n以下の「資料」に書かれている内容だけを根拠に、質問に日本語で簡潔に答えてください。")
	sb.WriteString("資料に書かれていないことは推測で補わないでください。\n")
	sb.WriteString("資料から答えられない場合は、ほかの文章を付けずに ")
	sb.WriteString(NoInfoMarker)
	sb.WriteString(" とだけ出力してください。\n\n資料:\n")
	sb.WriteString(evidence)
	return sb.String()
}
