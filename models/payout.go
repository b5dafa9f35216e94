package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payout struct {
	ID            int             `json:"id" db:"id"`
	CompetitionID int             `json:"competition_id" db:"competition_id"`
	UserID        int             `json:"user_id" db:"user_id"`
	Place         int             `json:"place" db:"place"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	SettledAt     time.Time       `json:"settled_at" db:"settled_at"`

	User *User `json:"user,omitempty" db:"-"`
}
