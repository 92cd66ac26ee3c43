// File: internal/usecase/job_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"masumi-rag-agent/internal/config"
	"masumi-rag-agent/internal/domain"
	"masumi-rag-agent/internal/domain/model"
	"masumi-rag-agent/internal/domain/ports/adapter"
	"masumi-rag-agent/internal/domain/ports/repository"
	"masumi-rag-agent/internal/infra/metrics"
	"masumi-rag-agent/internal/infra/sched"
	"masumi-rag-agent/internal/infra/worker"
)

// Compile-time check
var _ JobUseCase = (*jobUC)(nil)

// JobUseCase orchestrates the paid question-answering lifecycle: job +
// payment session creation, background confirmation monitoring, one-shot task
// execution and race-free status reads.
type JobUseCase interface {
	// Submit validates the input, opens a payment request and registers the
	// job in awaiting_payment state with a monitor attached.
	Submit(ctx context.Context, purchaserID string, input map[string]string) (*model.Job, error)

	// Status returns the job, opportunistically refreshing the mirrored
	// payment status while a monitor is still attached.
	Status(ctx context.Context, jobID string) (*model.Job, error)

	// HandlePaymentConfirmed is the monitor's confirmation callback. Safe to
	// invoke more than once; only the first call wins the job store's CAS.
	HandlePaymentConfirmed(jobID string)

	// HandlePaymentExpired fails a job whose pay-by window passed unconfirmed.
	HandlePaymentExpired(jobID string)

	// StopAll tears down every live monitor; used on shutdown.
	StopAll()
}

type jobUC struct {
	jobs    repository.JobRepository
	rag     RAGUseCase
	gateway adapter.PaymentGateway
	pool    *worker.Pool
	cfg     config.PaymentConfig
	log     *zerolog.Logger

	mu       sync.Mutex
	monitors map[string]*sched.PaymentMonitor
}

func NewJobUseCase(
	jobs repository.JobRepository,
	rag RAGUseCase,
	gateway adapter.PaymentGateway,
	pool *worker.Pool,
	cfg config.PaymentConfig,
	logger *zerolog.Logger,
) *jobUC {
	return &jobUC{
		jobs:     jobs,
		rag:      rag,
		gateway:  gateway,
		pool:     pool,
		cfg:      cfg,
		log:      logger,
		monitors: make(map[string]*sched.PaymentMonitor),
	}
}

func (u *jobUC) Submit(ctx context.Context, purchaserID string, input map[string]string) (*model.Job, error) {
	if purchaserID == "" {
		return nil, fmt.Errorf("identifier_from_purchaser is required: %w", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(input["question"]) == "" {
		// Validation happens before any payment request is made.
		return nil, fmt.Errorf("missing required field: question: %w", domain.ErrInvalidArgument)
	}

	session, err := u.gateway.CreatePayment(ctx, adapter.CreatePaymentParams{
		AgentIdentifier: u.cfg.AgentIdentifier,
		PurchaserID:     purchaserID,
		InputData:       input,
		Network:         u.cfg.Network,
		Amounts:         []model.Amount{{Amount: u.cfg.Amount, Unit: u.cfg.Unit}},
	})
	if err != nil {
		return nil, fmt.Errorf("create payment request: %w", err)
	}
	metrics.IncPayment("created")

	job, err := u.jobs.Create(input, purchaserID, session)
	if err != nil {
		return nil, err
	}
	log := u.log.With().Str("job_id", job.ID).Str("blockchain_id", session.BlockchainID).Logger()
	log.Info().Msg("job created, awaiting payment")

	monitor := sched.NewPaymentMonitor(
		u.gateway,
		*session,
		u.cfg.PollInterval,
		func(string) { u.HandlePaymentConfirmed(job.ID) },
		func(string) { u.HandlePaymentExpired(job.ID) },
		u.log,
	)
	u.mu.Lock()
	u.monitors[job.ID] = monitor
	u.mu.Unlock()
	// Monitors outlive the request; their lifetime is bounded by Stop/StopAll.
	monitor.Start(context.Background())

	return job, nil
}

func (u *jobUC) Status(ctx context.Context, jobID string) (*model.Job, error) {
	job, err := u.jobs.Get(jobID)
	if err != nil {
		return nil, err
	}

	if u.monitorActive(jobID) && job.Session != nil {
		status, cerr := u.gateway.CheckStatus(ctx, job.Session.BlockchainID)
		if cerr != nil {
			// A degraded payment status never fails the whole read.
			u.log.Warn().Err(cerr).Str("job_id", jobID).Msg("payment status refresh failed")
			status = model.PaymentStatusError
		}
		u.jobs.SetPaymentStatus(jobID, status)
		job.PaymentStatus = status
	}
	return job, nil
}

// HandlePaymentConfirmed moves the job to running and hands the RAG task to
// the worker pool. The CAS on the job store is the at-most-once gate: a
// duplicate confirmation simply loses the compare and is dropped.
func (u *jobUC) HandlePaymentConfirmed(jobID string) {
	if !u.jobs.Transition(jobID, model.JobStatusAwaitingPayment, model.JobStatusRunning, nil) {
		u.log.Warn().Str("job_id", jobID).Msg("duplicate or stale payment confirmation ignored")
		u.stopMonitor(jobID)
		return
	}
	u.jobs.SetPaymentStatus(jobID, model.PaymentStatusFundsLocked)
	metrics.IncPayment("confirmed")
	u.log.Info().Str("job_id", jobID).Msg("payment confirmed, executing task")

	if err := u.pool.Submit(func(ctx context.Context) error {
		u.execute(ctx, jobID)
		return nil
	}); err != nil {
		u.failJob(jobID, fmt.Sprintf("queue task: %v", err))
		u.stopMonitor(jobID)
	}
}

func (u *jobUC) HandlePaymentExpired(jobID string) {
	msg := "payment window expired"
	if u.jobs.Transition(jobID, model.JobStatusAwaitingPayment, model.JobStatusFailed, func(j *model.Job) {
		j.Error = &msg
	}) {
		metrics.IncPayment("expired")
		metrics.IncJob(string(model.JobStatusFailed))
		u.log.Warn().Str("job_id", jobID).Msg("job failed: payment window expired")
	}
	u.stopMonitor(jobID)
}

// execute runs the retrieval+generation task for a job already in running
// state. Every failure is captured onto the job; nothing propagates back into
// the monitor or the pool.
func (u *jobUC) execute(ctx context.Context, jobID string) {
	defer u.stopMonitor(jobID)

	job, err := u.jobs.Get(jobID)
	if err != nil {
		u.log.Error().Err(err).Str("job_id", jobID).Msg("job vanished before execution")
		return
	}

	start := time.Now()
	result, err := u.rag.Answer(ctx, job.Input)
	metrics.ObserveRAGTask(int(time.Since(start) / time.Millisecond))
	if err != nil {
		u.failJob(jobID, fmt.Errorf("%w: %v", domain.ErrTaskExecution, err).Error())
		return
	}

	// Report the result to the provider before flipping the job: a job is only
	// completed once the payment side knows about the result.
	if job.Session != nil {
		if err := u.gateway.CompletePayment(ctx, job.Session.BlockchainID, result); err != nil {
			u.failJob(jobID, fmt.Sprintf("complete payment: %v", err))
			return
		}
	}

	if u.jobs.Transition(jobID, model.JobStatusRunning, model.JobStatusCompleted, func(j *model.Job) {
		j.Result = &result
		j.PaymentStatus = model.PaymentStatusCompleted
	}) {
		metrics.IncJob(string(model.JobStatusCompleted))
		metrics.IncPayment("completed")
		u.log.Info().Str("job_id", jobID).Dur("took", time.Since(start)).Msg("job completed")
	}
}

// failJob records the error on whichever pre-terminal state the job is in.
func (u *jobUC) failJob(jobID, msg string) {
	mutate := func(j *model.Job) { j.Error = &msg }
	if u.jobs.Transition(jobID, model.JobStatusRunning, model.JobStatusFailed, mutate) ||
		u.jobs.Transition(jobID, model.JobStatusAwaitingPayment, model.JobStatusFailed, mutate) {
		metrics.IncJob(string(model.JobStatusFailed))
		u.log.Error().Str("job_id", jobID).Str("error", msg).Msg("job failed")
	}
}

func (u *jobUC) monitorActive(jobID string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.monitors[jobID]
	return ok
}

// stopMonitor is the single teardown path for a job's monitor. Idempotent:
// every terminal route (success, failure, expiry, shutdown) may call it.
func (u *jobUC) stopMonitor(jobID string) {
	u.mu.Lock()
	m := u.monitors[jobID]
	delete(u.monitors, jobID)
	u.mu.Unlock()
	if m != nil {
		m.Stop()
	}
}

func (u *jobUC) StopAll() {
	u.mu.Lock()
	ms := make([]*sched.PaymentMonitor, 0, len(u.monitors))
	for id, m := range u.monitors {
		ms = append(ms, m)
		delete(u.monitors, id)
	}
	u.mu.Unlock()
	for _, m := range ms {
		m.Stop()
	}
}
