package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PoolMode определяет, кто вносит деньги в призовой фонд.
type PoolMode string

const (
	// PoolCreatorFunded: создатель вносит весь фонд сам.
	PoolCreatorFunded PoolMode = "creator_funded"
	// PoolBuyIn: каждый участник фонда вносит одинаковый взнос.
	PoolBuyIn PoolMode = "buy_in"
)

// Границы сумм в долларах, проверяются и клиентом, и сервером.
const (
	MinCreatorFundedAmount = 5
	MaxCreatorFundedAmount = 500
	MinBuyInAmount         = 1
	MaxBuyInAmount         = 100
)

// PayoutStructure хранит проценты по местам, например [70, 30].
// В БД сериализуется как JSONB.
type PayoutStructure []decimal.Decimal

func (p PayoutStructure) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PayoutStructure) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("payout structure: unexpected type %T", src)
	}
	return json.Unmarshal(b, p)
}

var ErrInvalidPayoutStructure = errors.New("payout structure must contain 1 to 3 positive percentages summing to 100")

func (p PayoutStructure) Validate() error {
	if len(p) < 1 || len(p) > 3 {
		return ErrInvalidPayoutStructure
	}
	sum := decimal.Zero
	for _, pct := range p {
		if pct.LessThanOrEqual(decimal.Zero) {
			return ErrInvalidPayoutStructure
		}
		sum = sum.Add(pct)
	}
	if !sum.Equal(decimal.NewFromInt(100)) {
		return ErrInvalidPayoutStructure
	}
	return nil
}

// PrizePool представляет призовой фонд соревнования.
type PrizePool struct {
	ID              int             `json:"id" db:"id"`
	CompetitionID   int             `json:"competition_id" db:"competition_id"`
	Mode            PoolMode        `json:"mode" db:"mode"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	PayoutStructure PayoutStructure `json:"payout_structure" db:"payout_structure"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`

	TotalCollected decimal.Decimal `json:"total_collected" db:"-"`
}

// ValidateAmount проверяет границы суммы для режима фонда.
func ValidateAmount(mode PoolMode, amount decimal.Decimal) error {
	var min, max int64
	switch mode {
	case PoolCreatorFunded:
		min, max = MinCreatorFundedAmount, MaxCreatorFundedAmount
	case PoolBuyIn:
		min, max = MinBuyInAmount, MaxBuyInAmount
	default:
		return fmt.Errorf("unknown pool mode: %s", mode)
	}
	if amount.LessThan(decimal.NewFromInt(min)) || amount.GreaterThan(decimal.NewFromInt(max)) {
		return fmt.Errorf("amount for %s pool must be between %d and %d", mode, min, max)
	}
	return nil
}

// Contribution фиксирует один подтверждённый платёж в фонд.
type Contribution struct {
	ID        int             `json:"id" db:"id"`
	PoolID    int             `json:"pool_id" db:"pool_id"`
	UserID    int             `json:"user_id" db:"user_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	ChargeRef string          `json:"charge_ref" db:"charge_ref"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
