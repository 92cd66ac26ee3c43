//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"masumi-rag-agent/internal/domain/model"
	"masumi-rag-agent/internal/domain/ports/adapter"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// mockGateway records calls and delegates to overridable funcs, defaulting to
// a happy-path provider.
type mockGateway struct {
	mu sync.Mutex

	CreatePaymentFunc   func(ctx context.Context, params adapter.CreatePaymentParams) (*model.PaymentSession, error)
	CheckStatusFunc     func(ctx context.Context, blockchainID string) (string, error)
	CompletePaymentFunc func(ctx context.Context, blockchainID, result string) error

	createCalls   int
	checkCalls    int
	completeCalls int
	lastResult    string
}

func (m *mockGateway) CreatePayment(ctx context.Context, params adapter.CreatePaymentParams) (*model.PaymentSession, error) {
	m.mu.Lock()
	m.createCalls++
	m.mu.Unlock()
	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(ctx, params)
	}
	now := time.Now()
	return &model.PaymentSession{
		BlockchainID:              "bc-test-1",
		Status:                    model.PaymentStatusPending,
		PayByTime:                 now.Add(time.Hour),
		SubmitResultTime:          now.Add(2 * time.Hour),
		UnlockTime:                now.Add(3 * time.Hour),
		ExternalDisputeUnlockTime: now.Add(4 * time.Hour),
		CreatedAt:                 now,
	}, nil
}

func (m *mockGateway) CheckStatus(ctx context.Context, blockchainID string) (string, error) {
	m.mu.Lock()
	m.checkCalls++
	m.mu.Unlock()
	if m.CheckStatusFunc != nil {
		return m.CheckStatusFunc(ctx, blockchainID)
	}
	return model.PaymentStatusPending, nil
}

func (m *mockGateway) CompletePayment(ctx context.Context, blockchainID, result string) error {
	m.mu.Lock()
	m.completeCalls++
	m.lastResult = result
	m.mu.Unlock()
	if m.CompletePaymentFunc != nil {
		return m.CompletePaymentFunc(ctx, blockchainID, result)
	}
	return nil
}

func (m *mockGateway) counts() (create, check, complete int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls, m.checkCalls, m.completeCalls
}

// mockRAG stands in for the retrieval+generation pipeline.
type mockRAG struct {
	AnswerFunc func(ctx context.Context, input map[string]string) (string, error)
}

func (m *mockRAG) Answer(ctx context.Context, input map[string]string) (string, error) {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, input)
	}
	return `{"answer": "stub"}`, nil
}

// mockAI is used by the RAG pipeline tests.
type mockAI struct {
	EmbedFunc    func(ctx context.Context, text string) ([]float64, error)
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
}

func (m *mockAI) Embed(ctx context.Context, text string) ([]float64, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return []float64{0, 0, 0}, nil
}

func (m *mockAI) Generate(ctx context.Context, prompt string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return `{"answer": "stub"}`, nil
}
