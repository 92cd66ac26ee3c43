package repository

import (
	"masumi-rag-agent/internal/domain/model"
)

// JobRepository is a concurrency-safe registry of jobs. Transition is the only
// way a job's status changes after creation; callers never mutate a job they
// hold, since Get returns a copy.
type JobRepository interface {
	// Create stores a new job in awaiting_payment/pending state and returns it.
	Create(input map[string]string, purchaserID string, session *model.PaymentSession) (*model.Job, error)

	// Get returns a copy of the job or domain.ErrNotFound.
	Get(id string) (*model.Job, error)

	// Transition atomically moves a job from expected to next, applying mutate
	// (may be nil) under the same critical section. Returns false without error
	// when the stored status differs from expected or the move is illegal.
	Transition(id string, expected, next model.JobStatus, mutate func(*model.Job)) bool

	// SetPaymentStatus updates the mirrored provider status.
	SetPaymentStatus(id string, status string)
}
