package model

import "time"

// Provider-reported payment states we act on. The provider may report more;
// anything unrecognized is mirrored onto the job as-is.
const (
	PaymentStatusPending     = "pending"
	PaymentStatusFundsLocked = "FundsLocked" // purchaser funds escrowed; work may begin
	PaymentStatusCompleted   = "completed"
	PaymentStatusUnknown     = "unknown" // provider response unreadable
	PaymentStatusError       = "error"   // transport or provider failure during refresh
)

// Confirmed reports whether a provider status means the payment is locked in
// and the purchased work should be executed.
func Confirmed(status string) bool {
	return status == PaymentStatusFundsLocked
}

// PaymentSession records one payment request on the external provider.
// It is owned by exactly one job for its whole lifetime.
type PaymentSession struct {
	BlockchainID              string // provider-assigned identifier
	JobID                     string
	Status                    string
	PayByTime                 time.Time // purchaser must lock funds before this
	SubmitResultTime          time.Time // seller must submit the result before this
	UnlockTime                time.Time
	ExternalDisputeUnlockTime time.Time
	InputHash                 string
	CreatedAt                 time.Time
}

// Expired reports whether the pay-by window has passed.
func (s *PaymentSession) Expired(now time.Time) bool {
	return !s.PayByTime.IsZero() && now.After(s.PayByTime)
}

// Amount is a single payment amount in the provider's smallest unit.
type Amount struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}
