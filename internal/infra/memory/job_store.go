package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"masumi-rag-agent/internal/domain"
	"masumi-rag-agent/internal/domain/model"
	"masumi-rag-agent/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.JobRepository = (*JobStore)(nil)

// JobStore is the process-wide job registry. One mutex covers the whole map;
// Transition is the single compare-and-set primitive every status change goes
// through, so concurrent callbacks and status reads cannot interleave into a
// double run.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*model.Job)}
}

func (s *JobStore) Create(input map[string]string, purchaserID string, session *model.PaymentSession) (*model.Job, error) {
	now := time.Now()
	job := &model.Job{
		ID:            uuid.NewString(),
		Status:        model.JobStatusAwaitingPayment,
		PaymentStatus: model.PaymentStatusPending,
		Input:         cloneInput(input),
		PurchaserID:   purchaserID,
		Session:       session,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if session != nil {
		session.JobID = job.ID
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return copyJob(job), nil
}

func (s *JobStore) Get(id string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyJob(job), nil
}

// Transition moves the job from expected to next and applies mutate while the
// store lock is held. The false return is deliberate on a mismatch: the caller
// that loses a race must treat it as "someone else won", not as an error.
func (s *JobStore) Transition(id string, expected, next model.JobStatus, mutate func(*model.Job)) bool {
	if !model.CanTransition(expected, next) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.Status != expected {
		return false
	}
	job.Status = next
	job.UpdatedAt = time.Now()
	if mutate != nil {
		mutate(job)
	}
	return true
}

func (s *JobStore) SetPaymentStatus(id string, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		job.PaymentStatus = status
		job.UpdatedAt = time.Now()
	}
}

func cloneInput(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyJob(j *model.Job) *model.Job {
	cp := *j
	cp.Input = cloneInput(j.Input)
	if j.Session != nil {
		sess := *j.Session
		cp.Session = &sess
	}
	return &cp
}
