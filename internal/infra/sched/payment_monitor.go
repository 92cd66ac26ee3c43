package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"masumi-rag-agent/internal/domain/model"
	"masumi-rag-agent/internal/domain/ports/adapter"
	"masumi-rag-agent/internal/infra/metrics"
)

// PaymentMonitor polls one payment session until a terminal outcome, then
// invokes exactly one of the bound callbacks at most once. One instance exists
// per open job, independent of the request that created it.
//
// Transport errors are tolerated: the loop logs and keeps polling until the
// session's pay-by window passes. Stop cancels the in-flight poll wait and
// never blocks the caller; whichever of stop and confirm the job store's
// compare-and-set accepts first is authoritative.
type PaymentMonitor struct {
	gateway  adapter.PaymentGateway
	session  model.PaymentSession
	interval time.Duration

	onConfirmed func(blockchainID string)
	onExpired   func(blockchainID string)

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
	fired     atomic.Bool
	log       *zerolog.Logger
}

func NewPaymentMonitor(
	gateway adapter.PaymentGateway,
	session model.PaymentSession,
	interval time.Duration,
	onConfirmed func(blockchainID string),
	onExpired func(blockchainID string),
	logger *zerolog.Logger,
) *PaymentMonitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &PaymentMonitor{
		gateway:     gateway,
		session:     session,
		interval:    interval,
		onConfirmed: onConfirmed,
		onExpired:   onExpired,
		done:        make(chan struct{}),
		log:         logger,
	}
}

// Start launches the polling goroutine. Calling Start twice has no effect.
func (m *PaymentMonitor) Start(parentCtx context.Context) {
	m.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(parentCtx)
		m.cancel = cancel
		go m.loop(ctx)
	})
}

// Stop requests cancellation and returns immediately. Safe to call any number
// of times, including after the monitor already stopped on its own.
func (m *PaymentMonitor) Stop() {
	m.stopOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
	})
}

// Done is closed once the polling loop has exited.
func (m *PaymentMonitor) Done() <-chan struct{} { return m.done }

func (m *PaymentMonitor) loop(ctx context.Context) {
	defer close(m.done)

	log := m.log.With().Str("blockchain_id", m.session.BlockchainID).Str("job_id", m.session.JobID).Logger()
	log.Debug().Dur("interval", m.interval).Msg("payment monitor started")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("payment monitor stopped")
			return
		case <-ticker.C:
		}

		checkCtx, cancel := context.WithTimeout(ctx, m.interval)
		status, err := m.gateway.CheckStatus(checkCtx, m.session.BlockchainID)
		cancel()

		if ctx.Err() != nil {
			// Stop won the race against the in-flight poll.
			return
		}

		now := time.Now()
		if err != nil {
			metrics.IncPaymentCheck(false)
			log.Warn().Err(err).Msg("payment status check failed; will retry")
			if m.session.Expired(now) {
				m.fireExpired(log)
				return
			}
			continue
		}
		metrics.IncPaymentCheck(true)

		if model.Confirmed(status) {
			if m.fired.CompareAndSwap(false, true) {
				log.Info().Str("status", status).Msg("payment confirmed")
				m.onConfirmed(m.session.BlockchainID)
			}
			return
		}
		if m.session.Expired(now) {
			m.fireExpired(log)
			return
		}
		log.Debug().Str("status", status).Msg("payment not confirmed yet")
	}
}

func (m *PaymentMonitor) fireExpired(log zerolog.Logger) {
	if m.fired.CompareAndSwap(false, true) {
		log.Warn().Time("pay_by", m.session.PayByTime).Msg("payment window expired")
		if m.onExpired != nil {
			m.onExpired(m.session.BlockchainID)
		}
	}
}
