//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"masumi-rag-agent/internal/domain"
	"masumi-rag-agent/internal/infra/vector"
	"masumi-rag-agent/internal/usecase"
)

func TestRAGAnswer(t *testing.T) {
	t.Run("retrieved fragments reach the prompt", func(t *testing.T) {
		// Arrange
		index := vector.NewIndex(3)
		if err := index.Add([]float64{1, 0, 0}, "Paris is the capital of France."); err != nil {
			t.Fatalf("add: %v", err)
		}
		if err := index.Add([]float64{0, 1, 0}, "Berlin is the capital of Germany."); err != nil {
			t.Fatalf("add: %v", err)
		}

		var prompt string
		ai := &mockAI{
			EmbedFunc: func(context.Context, string) ([]float64, error) {
				return []float64{0.9, 0.1, 0}, nil
			},
			GenerateFunc: func(_ context.Context, p string) (string, error) {
				prompt = p
				return `{"answer": "Paris"}`, nil
			},
		}
		uc := usecase.NewRAGUseCase(ai, index, 1, nopLogger())

		// Act
		got, err := uc.Answer(context.Background(), map[string]string{"question": "capital of France?"})

		// Assert
		if err != nil {
			t.Fatalf("answer: %v", err)
		}
		if !strings.Contains(prompt, "Paris is the capital of France.") {
			t.Errorf("expected the nearest fragment in the prompt, got:\n%s", prompt)
		}
		if strings.Contains(prompt, "Berlin") {
			t.Errorf("expected only the top fragment with k=1, got:\n%s", prompt)
		}
		if !strings.Contains(got, `"answer"`) {
			t.Errorf("expected the answer envelope, got %s", got)
		}
	})

	t.Run("rejects an empty question", func(t *testing.T) {
		uc := usecase.NewRAGUseCase(&mockAI{}, vector.NewIndex(3), 5, nopLogger())

		_, err := uc.Answer(context.Background(), map[string]string{"question": "   "})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("an empty index still yields an answer", func(t *testing.T) {
		ai := &mockAI{GenerateFunc: func(_ context.Context, p string) (string, error) {
			return `{"answer": "I do not know."}`, nil
		}}
		uc := usecase.NewRAGUseCase(ai, vector.NewIndex(3), 5, nopLogger())

		got, err := uc.Answer(context.Background(), map[string]string{"question": "anything?"})
		if err != nil {
			t.Fatalf("answer: %v", err)
		}
		if !strings.Contains(got, "I do not know.") {
			t.Errorf("unexpected answer: %s", got)
		}
	})

	t.Run("a generation failure propagates", func(t *testing.T) {
		ai := &mockAI{GenerateFunc: func(context.Context, string) (string, error) {
			return "", errors.New("quota exceeded")
		}}
		uc := usecase.NewRAGUseCase(ai, vector.NewIndex(3), 5, nopLogger())

		if _, err := uc.Answer(context.Background(), map[string]string{"question": "q"}); err == nil {
			t.Fatal("expected an error")
		}
	})
}
