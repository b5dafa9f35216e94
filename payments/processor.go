package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaySheet показывает системную платёжную шторку и возвращает одноразовый
// платёжный токен. ok=false означает, что пользователь закрыл шторку сам.
type PaySheet interface {
	Present(ctx context.Context, total decimal.Decimal, label string) (token string, ok bool, err error)
}

// CardEntry собирает данные карты через форму ручного ввода.
type CardEntry interface {
	Collect(ctx context.Context, total decimal.Decimal) (token string, ok bool, err error)
}

type ChargeOutcome int

const (
	ChargeOutcomeSucceeded ChargeOutcome = iota
	ChargeOutcomeCancelled
	ChargeOutcomeFailed
)

type ChargeRequest struct {
	CompetitionID   int
	Amount          decimal.Decimal
	PoolMode        string
	PayoutStructure []decimal.Decimal
	Label           string
}

// ChargeResult - размеченный исход списания. Cancelled - тихий отказ
// пользователя, Failed несёт причину для показа на экране.
type ChargeResult struct {
	Outcome   ChargeOutcome
	ChargeRef string
	Reason    string
}

type Processor interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) ChargeResult
}

type platformPayProcessor struct {
	sheet   PaySheet
	gateway Gateway
}

func NewPlatformPayProcessor(sheet PaySheet, gateway Gateway) Processor {
	return &platformPayProcessor{sheet: sheet, gateway: gateway}
}

func (p *platformPayProcessor) Name() string { return "platform_pay" }

func (p *platformPayProcessor) Charge(ctx context.Context, req ChargeRequest) ChargeResult {
	token, ok, err := p.sheet.Present(ctx, TotalWithFee(req.Amount), req.Label)
	if err != nil {
		return ChargeResult{Outcome: ChargeOutcomeFailed, Reason: err.Error()}
	}
	if !ok {
		return ChargeResult{Outcome: ChargeOutcomeCancelled}
	}
	return submitCharge(ctx, p.gateway, req, token)
}

type cardEntryProcessor struct {
	entry   CardEntry
	gateway Gateway
}

func NewCardEntryProcessor(entry CardEntry, gateway Gateway) Processor {
	return &cardEntryProcessor{entry: entry, gateway: gateway}
}

func (p *cardEntryProcessor) Name() string { return "card_entry" }

func (p *cardEntryProcessor) Charge(ctx context.Context, req ChargeRequest) ChargeResult {
	token, ok, err := p.entry.Collect(ctx, TotalWithFee(req.Amount))
	if err != nil {
		return ChargeResult{Outcome: ChargeOutcomeFailed, Reason: err.Error()}
	}
	if !ok {
		return ChargeResult{Outcome: ChargeOutcomeCancelled}
	}
	return submitCharge(ctx, p.gateway, req, token)
}

func submitCharge(ctx context.Context, gateway Gateway, req ChargeRequest, token string) ChargeResult {
	record, err := gateway.CreateCharge(ctx, CreateChargeInput{
		CompetitionID:   req.CompetitionID,
		Amount:          req.Amount,
		Fee:             ComputeFee(req.Amount),
		PoolMode:        req.PoolMode,
		PayoutStructure: req.PayoutStructure,
		PaymentToken:    token,
		IdempotencyKey:  uuid.NewString(),
	})
	if err != nil {
		return ChargeResult{Outcome: ChargeOutcomeFailed, Reason: err.Error()}
	}

	switch record.Status {
	case ChargeSucceeded:
		return ChargeResult{Outcome: ChargeOutcomeSucceeded, ChargeRef: record.ID}
	case ChargeFailed:
		reason := record.FailureReason
		if reason == "" {
			reason = "payment was declined"
		}
		return ChargeResult{Outcome: ChargeOutcomeFailed, Reason: reason}
	default:
		return ChargeResult{Outcome: ChargeOutcomeFailed, Reason: "payment is still pending confirmation"}
	}
}
