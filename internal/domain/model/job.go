package model

import "time"

type JobStatus string

const (
	JobStatusAwaitingPayment JobStatus = "awaiting_payment"
	JobStatusRunning         JobStatus = "running"
	JobStatusCompleted       JobStatus = "completed"
	JobStatusFailed          JobStatus = "failed"
)

// legalTransitions is the monotonic job lifecycle. awaiting_payment -> failed
// covers payment-window expiry, where the task never starts.
var legalTransitions = map[JobStatus][]JobStatus{
	JobStatusAwaitingPayment: {JobStatusRunning, JobStatusFailed},
	JobStatusRunning:         {JobStatusCompleted, JobStatusFailed},
}

// CanTransition reports whether moving from -> to follows the lifecycle order.
func CanTransition(from, to JobStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status has no outgoing transitions.
func (s JobStatus) Terminal() bool {
	return len(legalTransitions[s]) == 0
}

// Job is a single purchased unit of question-answering work.
// Exactly one of Result/Error is set once the job leaves running.
type Job struct {
	ID            string
	Status        JobStatus
	PaymentStatus string // mirrored from the payment provider
	Input         map[string]string
	Result        *string
	Error         *string
	PurchaserID   string
	Session       *PaymentSession
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
