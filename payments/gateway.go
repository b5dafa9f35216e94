package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

type ChargeStatus string

const (
	ChargePending   ChargeStatus = "pending"
	ChargeSucceeded ChargeStatus = "succeeded"
	ChargeFailed    ChargeStatus = "failed"
)

var ErrChargeNotFound = errors.New("charge not found")

// ChargeRecord - состояние списания на стороне платёжного провайдера.
type ChargeRecord struct {
	ID            string          `json:"id"`
	CompetitionID int             `json:"competition_id"`
	Amount        decimal.Decimal `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
	Total         decimal.Decimal `json:"total"`
	Status        ChargeStatus    `json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type CreateChargeInput struct {
	CompetitionID   int               `json:"competition_id"`
	Amount          decimal.Decimal   `json:"amount"`
	Fee             decimal.Decimal   `json:"fee"`
	PoolMode        string            `json:"pool_mode"`
	PayoutStructure []decimal.Decimal `json:"payout_structure"`
	PaymentToken    string            `json:"payment_token"`
	IdempotencyKey  string            `json:"-"`
}

type Gateway interface {
	CreateCharge(ctx context.Context, input CreateChargeInput) (*ChargeRecord, error)
	GetCharge(ctx context.Context, chargeID string) (*ChargeRecord, error)
}

// HTTPGateway ходит в платёжный сервис по REST. Отклонённое списание - это
// не ошибка транспорта: возвращается запись со статусом failed и причиной.
type HTTPGateway struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewHTTPGateway(baseURL, apiKey string) *HTTPGateway {
	return &HTTPGateway{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (g *HTTPGateway) CreateCharge(ctx context.Context, input CreateChargeInput) (*ChargeRecord, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/v1/charges", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build charge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)
	if input.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", input.IdempotencyKey)
	}

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("charge request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusPaymentRequired:
		// 402 приходит вместе с записью failed и причиной отказа.
		var record ChargeRecord
		if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode charge response: %w", err)
		}
		return &record, nil
	default:
		return nil, fmt.Errorf("payment provider returned unexpected status %d", resp.StatusCode)
	}
}

func (g *HTTPGateway) GetCharge(ctx context.Context, chargeID string) (*ChargeRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/v1/charges/"+chargeID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build charge lookup request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("charge lookup failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var record ChargeRecord
		if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode charge response: %w", err)
		}
		return &record, nil
	case http.StatusNotFound:
		return nil, ErrChargeNotFound
	default:
		return nil, fmt.Errorf("payment provider returned unexpected status %d", resp.StatusCode)
	}
}
