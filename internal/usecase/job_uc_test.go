//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"masumi-rag-agent/internal/config"
	"masumi-rag-agent/internal/domain"
	"masumi-rag-agent/internal/domain/model"
	"masumi-rag-agent/internal/domain/ports/adapter"
	"masumi-rag-agent/internal/infra/memory"
	"masumi-rag-agent/internal/infra/worker"
	"masumi-rag-agent/internal/usecase"
)

func newTestJobUC(t *testing.T, gw *mockGateway, rag usecase.RAGUseCase) (usecase.JobUseCase, *memory.JobStore) {
	t.Helper()
	store := memory.NewJobStore()
	pool := worker.NewPool(2, nopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	cfg := config.PaymentConfig{
		Network:         "Preprod",
		Amount:          "10000000",
		Unit:            "lovelace",
		AgentIdentifier: "agent-test",
		SellerVKey:      "vkey-test",
		PollInterval:    time.Hour, // monitors must never tick during tests
	}
	uc := usecase.NewJobUseCase(store, rag, gw, pool, cfg, nopLogger())
	t.Cleanup(func() {
		uc.StopAll()
		cancel()
		pool.Stop()
	})
	return uc, store
}

func waitForStatus(t *testing.T, store *memory.JobStore, jobID string, want model.JobStatus) *model.Job {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		job, err := store.Get(jobID)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if job.Status == want {
			return job
		}
		select {
		case <-deadline:
			t.Fatalf("job %s never reached %s (stuck at %s)", jobID, want, job.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestJobSubmit(t *testing.T) {
	t.Run("rejects a missing question before contacting the provider", func(t *testing.T) {
		// Arrange
		gw := &mockGateway{}
		uc, _ := newTestJobUC(t, gw, &mockRAG{})

		// Act
		_, err := uc.Submit(context.Background(), "purchaser-1", map[string]string{"question": "  "})

		// Assert
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
		if create, _, _ := gw.counts(); create != 0 {
			t.Errorf("expected no payment request for invalid input, got %d", create)
		}
	})

	t.Run("rejects an empty purchaser identifier", func(t *testing.T) {
		gw := &mockGateway{}
		uc, _ := newTestJobUC(t, gw, &mockRAG{})

		_, err := uc.Submit(context.Background(), "", map[string]string{"question": "q"})
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("creates an awaiting job bound to the payment session", func(t *testing.T) {
		gw := &mockGateway{}
		uc, store := newTestJobUC(t, gw, &mockRAG{})

		job, err := uc.Submit(context.Background(), "purchaser-1", map[string]string{"question": "q"})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if job.Status != model.JobStatusAwaitingPayment {
			t.Errorf("expected awaiting_payment, got %s", job.Status)
		}

		stored, err := store.Get(job.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if stored.Session == nil || stored.Session.BlockchainID != "bc-test-1" {
			t.Errorf("expected stored job to carry the payment session, got %+v", stored.Session)
		}
		if stored.Session.JobID != job.ID {
			t.Errorf("expected session bound to job, got %q", stored.Session.JobID)
		}
	})

	t.Run("propagates a provider failure", func(t *testing.T) {
		gw := &mockGateway{
			CreatePaymentFunc: func(context.Context, adapter.CreatePaymentParams) (*model.PaymentSession, error) {
				return nil, domain.ErrPaymentService
			},
		}
		uc, _ := newTestJobUC(t, gw, &mockRAG{})

		_, err := uc.Submit(context.Background(), "purchaser-1", map[string]string{"question": "q"})
		if !errors.Is(err, domain.ErrPaymentService) {
			t.Fatalf("expected ErrPaymentService, got %v", err)
		}
	})
}

func TestJobConfirmation(t *testing.T) {
	t.Run("runs the task to completion after confirmation", func(t *testing.T) {
		// Arrange
		gw := &mockGateway{}
		rag := &mockRAG{AnswerFunc: func(context.Context, map[string]string) (string, error) {
			return `{"answer": "Paris"}`, nil
		}}
		uc, store := newTestJobUC(t, gw, rag)
		job, err := uc.Submit(context.Background(), "purchaser-1", map[string]string{"question": "capital?"})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}

		// Act
		uc.HandlePaymentConfirmed(job.ID)

		// Assert
		done := waitForStatus(t, store, job.ID, model.JobStatusCompleted)
		if done.Result == nil || *done.Result != `{"answer": "Paris"}` {
			t.Errorf("expected recorded result, got %v", done.Result)
		}
		if done.PaymentStatus != model.PaymentStatusCompleted {
			t.Errorf("expected payment status completed, got %s", done.PaymentStatus)
		}
		if _, _, complete := gw.counts(); complete != 1 {
			t.Errorf("expected exactly one CompletePayment, got %d", complete)
		}
	})

	t.Run("a duplicate confirmation runs the task once", func(t *testing.T) {
		gw := &mockGateway{}
		var answers atomic.Int32
		rag := &mockRAG{AnswerFunc: func(context.Context, map[string]string) (string, error) {
			answers.Add(1)
			return `{"answer": "once"}`, nil
		}}
		uc, store := newTestJobUC(t, gw, rag)
		job, _ := uc.Submit(context.Background(), "purchaser-1", map[string]string{"question": "q"})

		uc.HandlePaymentConfirmed(job.ID)
		uc.HandlePaymentConfirmed(job.ID)

		waitForStatus(t, store, job.ID, model.JobStatusCompleted)
		// Give a hypothetical second execution a moment to surface.
		time.Sleep(50 * time.Millisecond)
		if got := answers.Load(); got != 1 {
			t.Errorf("expected the task to run exactly once, ran %d times", got)
		}
		if _, _, complete := gw.counts(); complete != 1 {
			t.Errorf("expected exactly one CompletePayment, got %d", complete)
		}
	})

	t.Run("a failing task records the error and skips result submission", func(t *testing.T) {
		gw := &mockGateway{}
		rag := &mockRAG{AnswerFunc: func(context.Context, map[string]string) (string, error) {
			return "", errors.New("model unavailable")
		}}
		uc, store := newTestJobUC(t, gw, rag)
		job, _ := uc.Submit(context.Background(), "purchaser-1", map[string]string{"question": "q"})

		uc.HandlePaymentConfirmed(job.ID)

		failed := waitForStatus(t, store, job.ID, model.JobStatusFailed)
		if failed.Error == nil {
			t.Fatal("expected an error message on the job")
		}
		if failed.Result != nil {
			t.Errorf("expected no result on a failed job, got %q", *failed.Result)
		}
		if _, _, complete := gw.counts(); complete != 0 {
			t.Errorf("expected CompletePayment skipped on task failure, got %d calls", complete)
		}
	})

	t.Run("a result submission failure fails the job", func(t *testing.T) {
		gw := &mockGateway{
			CompletePaymentFunc: func(context.Context, string, string) error {
				return domain.ErrPaymentService
			},
		}
		uc, store := newTestJobUC(t, gw, &mockRAG{})
		job, _ := uc.Submit(context.Background(), "purchaser-1", map[string]string{"question": "q"})

		uc.HandlePaymentConfirmed(job.ID)

		failed := waitForStatus(t, store, job.ID, model.JobStatusFailed)
		if failed.Error == nil {
			t.Fatal("expected an error message on the job")
		}
	})
}

func TestJobExpiry(t *testing.T) {
	t.Run("an expired payment window fails the job", func(t *testing.T) {
		gw := &mockGateway{}
		uc, store := newTestJobUC(t, gw, &mockRAG{})
		job, _ := uc.Submit(context.Background(), "purchaser-1", map[string]string{"question": "q"})

		uc.HandlePaymentExpired(job.ID)

		failed := waitForStatus(t, store, job.ID, model.JobStatusFailed)
		if failed.Error == nil || *failed.Error != "payment window expired" {
			t.Errorf("expected expiry message, got %v", failed.Error)
		}
	})

	t.Run("expiry after completion is ignored", func(t *testing.T) {
		gw := &mockGateway{}
		uc, store := newTestJobUC(t, gw, &mockRAG{})
		job, _ := uc.Submit(context.Background(), "purchaser-1", map[string]string{"question": "q"})

		uc.HandlePaymentConfirmed(job.ID)
		waitForStatus(t, store, job.ID, model.JobStatusCompleted)

		uc.HandlePaymentExpired(job.ID)

		got, _ := store.Get(job.ID)
		if got.Status != model.JobStatusCompleted {
			t.Errorf("expected job to stay completed, got %s", got.Status)
		}
	})
}

func TestJobStatus(t *testing.T) {
	t.Run("unknown job returns not found", func(t *testing.T) {
		uc, _ := newTestJobUC(t, &mockGateway{}, &mockRAG{})

		_, err := uc.Status(context.Background(), "nope")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("refreshes the mirrored payment status while the monitor is live", func(t *testing.T) {
		gw := &mockGateway{
			CheckStatusFunc: func(context.Context, string) (string, error) {
				return model.PaymentStatusFundsLocked, nil
			},
		}
		uc, _ := newTestJobUC(t, gw, &mockRAG{})
		job, _ := uc.Submit(context.Background(), "purchaser-1", map[string]string{"question": "q"})

		got, err := uc.Status(context.Background(), job.ID)
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if got.PaymentStatus != model.PaymentStatusFundsLocked {
			t.Errorf("expected refreshed payment status, got %s", got.PaymentStatus)
		}
	})

	t.Run("a provider error degrades the payment status without failing the read", func(t *testing.T) {
		gw := &mockGateway{
			CheckStatusFunc: func(context.Context, string) (string, error) {
				return "", domain.ErrPaymentService
			},
		}
		uc, _ := newTestJobUC(t, gw, &mockRAG{})
		job, _ := uc.Submit(context.Background(), "purchaser-1", map[string]string{"question": "q"})

		got, err := uc.Status(context.Background(), job.ID)
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if got.PaymentStatus != model.PaymentStatusError {
			t.Errorf("expected degraded status %q, got %q", model.PaymentStatusError, got.PaymentStatus)
		}
	})

	t.Run("stops polling the provider once the job is terminal", func(t *testing.T) {
		gw := &mockGateway{}
		uc, store := newTestJobUC(t, gw, &mockRAG{})
		job, _ := uc.Submit(context.Background(), "purchaser-1", map[string]string{"question": "q"})
		uc.HandlePaymentConfirmed(job.ID)
		waitForStatus(t, store, job.ID, model.JobStatusCompleted)

		_, before, _ := gw.counts()
		if _, err := uc.Status(context.Background(), job.ID); err != nil {
			t.Fatalf("status: %v", err)
		}
		if _, after, _ := gw.counts(); after != before {
			t.Errorf("expected no status poll for a terminal job, got %d extra", after-before)
		}
	})
}
