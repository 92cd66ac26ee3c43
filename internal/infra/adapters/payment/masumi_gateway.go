package payment

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"masumi-rag-agent/internal/domain"
	"masumi-rag-agent/internal/domain/model"
	"masumi-rag-agent/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.PaymentGateway = (*MasumiGateway)(nil)

// MasumiGateway implements adapter.PaymentGateway against the Masumi payment
// service HTTP API. Every failure wraps domain.ErrPaymentService so callers
// can treat the whole class as transient.
type MasumiGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewMasumiGateway(baseURL, apiKey string) (*MasumiGateway, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("masumi: empty service url")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("masumi: empty api key")
	}
	return &MasumiGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// createResponse mirrors the provider's payment-request payload.
type createResponse struct {
	Status string `json:"status"`
	Data   struct {
		BlockchainIdentifier      string `json:"blockchainIdentifier"`
		PayByTime                 string `json:"payByTime"`
		SubmitResultTime          string `json:"submitResultTime"`
		UnlockTime                string `json:"unlockTime"`
		ExternalDisputeUnlockTime string `json:"externalDisputeUnlockTime"`
	} `json:"data"`
}

type statusResponse struct {
	Data struct {
		Status string `json:"status"`
	} `json:"data"`
}

func (g *MasumiGateway) CreatePayment(ctx context.Context, params adapter.CreatePaymentParams) (*model.PaymentSession, error) {
	inputHash := hashInput(params.InputData)
	body := map[string]interface{}{
		"agentIdentifier":         params.AgentIdentifier,
		"network":                 params.Network,
		"identifierFromPurchaser": params.PurchaserID,
		"inputHash":               inputHash,
		"requestedFunds":          params.Amounts,
		"paymentType":             "Web3CardanoV1",
	}

	var resp createResponse
	if err := g.do(ctx, http.MethodPost, "/payment/", body, &resp); err != nil {
		return nil, err
	}
	if resp.Data.BlockchainIdentifier == "" {
		return nil, fmt.Errorf("masumi: create payment: missing blockchainIdentifier: %w", domain.ErrPaymentService)
	}

	return &model.PaymentSession{
		BlockchainID:              resp.Data.BlockchainIdentifier,
		Status:                    model.PaymentStatusPending,
		PayByTime:                 parseProviderTime(resp.Data.PayByTime),
		SubmitResultTime:          parseProviderTime(resp.Data.SubmitResultTime),
		UnlockTime:                parseProviderTime(resp.Data.UnlockTime),
		ExternalDisputeUnlockTime: parseProviderTime(resp.Data.ExternalDisputeUnlockTime),
		InputHash:                 inputHash,
		CreatedAt:                 time.Now(),
	}, nil
}

func (g *MasumiGateway) CheckStatus(ctx context.Context, blockchainID string) (string, error) {
	var resp statusResponse
	if err := g.do(ctx, http.MethodGet, "/payment/"+blockchainID, nil, &resp); err != nil {
		return "", err
	}
	if resp.Data.Status == "" {
		return model.PaymentStatusUnknown, nil
	}
	return resp.Data.Status, nil
}

func (g *MasumiGateway) CompletePayment(ctx context.Context, blockchainID string, result string) error {
	sum := sha256.Sum256([]byte(result))
	body := map[string]interface{}{
		"blockchainIdentifier": blockchainID,
		"submitResultHash":     hex.EncodeToString(sum[:]),
	}
	return g.do(ctx, http.MethodPost, "/payment/submit-result", body, nil)
}

// do performs one JSON round-trip against the provider.
func (g *MasumiGateway) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("masumi: marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("masumi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("token", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("masumi: %s %s: %v: %w", method, path, err, domain.ErrPaymentService)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("masumi: read response: %v: %w", err, domain.ErrPaymentService)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("masumi: %s %s: http %d: %s: %w", method, path, resp.StatusCode, truncate(raw, 256), domain.ErrPaymentService)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("masumi: unmarshal response: %v: %w", err, domain.ErrPaymentService)
		}
	}
	return nil
}

// hashInput produces the input_hash the provider expects: sha256 over the
// canonical JSON of the input map (Go marshals map keys sorted).
func hashInput(input map[string]string) string {
	b, _ := json.Marshal(input)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// parseProviderTime accepts RFC3339 or unix milliseconds, the two formats the
// provider has been observed to emit.
func parseProviderTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	var ms int64
	if _, err := fmt.Sscanf(s, "%d", &ms); err == nil && ms > 0 {
		return time.UnixMilli(ms)
	}
	return time.Time{}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
