package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeEvent is one billable occurrence recorded by the purchase/registration
// flow. It is immutable: this service only ever reads fee events.
type FeeEvent struct {
	ID            uuid.UUID       `json:"id"`
	RefCode       string          `json:"ref_code"` // paying member's reference code
	Name          *string         `json:"name,omitempty"`
	WalletAddress *string         `json:"wallet_address,omitempty"`
	FeeCommission decimal.Decimal `json:"fee_commission"`
	FeeTuition    decimal.Decimal `json:"fee_tuition"`
	CenterID      *uuid.UUID      `json:"center_id,omitempty"`
	RefBy1        *string         `json:"ref_by1,omitempty"` // level-1 referrer reference code
	RefBy2        *string         `json:"ref_by2,omitempty"` // level-2 referrer reference code
	RewardDate    string          `json:"reward_date"`       // YYYY-MM-DD in the reporting timezone
	CreatedAt     time.Time       `json:"created_at"`
}

// HasCommission reports whether the event carries a positive commission amount.
func (f *FeeEvent) HasCommission() bool {
	return f.FeeCommission.IsPositive()
}
