// File: internal/usecase/rag_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"masumi-rag-agent/internal/domain"
	"masumi-rag-agent/internal/domain/ports/adapter"
	"masumi-rag-agent/internal/domain/ports/repository"
)

// Compile-time check
var _ RAGUseCase = (*ragUC)(nil)

// RAGUseCase answers a question from the indexed document fragments.
type RAGUseCase interface {
	Answer(ctx context.Context, input map[string]string) (string, error)
}

type ragUC struct {
	ai    adapter.AIServiceAdapter
	index repository.VectorIndex
	topK  int
	log   *zerolog.Logger
}

func NewRAGUseCase(ai adapter.AIServiceAdapter, index repository.VectorIndex, topK int, logger *zerolog.Logger) *ragUC {
	if topK <= 0 {
		topK = 5
	}
	return &ragUC{ai: ai, index: index, topK: topK, log: logger}
}

// Answer embeds the question, retrieves the nearest fragments, asks the
// generation model and sanitizes its output into the answer envelope.
func (u *ragUC) Answer(ctx context.Context, input map[string]string) (string, error) {
	question := strings.TrimSpace(input["question"])
	if question == "" {
		return "", fmt.Errorf("question missing from input data: %w", domain.ErrInvalidArgument)
	}

	emb, err := u.ai.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	fragments, err := u.index.Search(emb, u.topK)
	if err != nil {
		return "", fmt.Errorf("search index: %w", err)
	}
	u.log.Debug().Int("fragments", len(fragments)).Msg("retrieved context")

	raw, err := u.ai.Generate(ctx, buildPrompt(strings.Join(fragments, "\n\n"), question))
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	return SanitizeAnswer(raw), nil
}

func buildPrompt(context, question string) string {
	return fmt.Sprintf(`
You are a helpful assistant. Use ONLY the following PDF context:

%s

Question: %s

Required output format and rules:
- Return ONLY a single valid JSON object and nothing else (no markdown, no backticks, no commentary).
- The JSON must contain exactly one key: "answer" whose value is a string.
- The answer string MUST NOT contain newline characters (\n), bullet characters ("*", "-", "•"), or any markdown formatting (no **, __, etc.).
- Do NOT use currency symbols. Replace the rupee symbol '₹' with the word " ruppees" (note the leading space) so amounts look like: "6,00,000 ruppees".
- Keep the answer concise and factual, based strictly on the provided PDF context.

Return the JSON only.
`, context, question)
}
