package adapter

import (
	"context"

	"masumi-rag-agent/internal/domain/model"
)

// CreatePaymentParams carries everything the provider needs to open a payment
// request for one job.
type CreatePaymentParams struct {
	AgentIdentifier string
	PurchaserID     string
	InputData       map[string]string
	Network         string
	Amounts         []model.Amount
}

// PaymentGateway is the port for the external payment provider.
// All errors are transport/provider failures and wrap domain.ErrPaymentService.
type PaymentGateway interface {
	// CreatePayment issues a payment request and returns the provider-assigned
	// session (blockchain identifier plus time-window fields).
	CreatePayment(ctx context.Context, params CreatePaymentParams) (*model.PaymentSession, error)

	// CheckStatus queries the provider for the session's current status.
	// A transport failure means "unknown", not a terminal session failure.
	CheckStatus(ctx context.Context, blockchainID string) (string, error)

	// CompletePayment tells the provider the purchased work is finished and
	// attaches the result payload.
	CompletePayment(ctx context.Context, blockchainID string, result string) error
}
