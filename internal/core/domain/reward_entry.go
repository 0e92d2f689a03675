package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AmountPrecision is the decimal precision of every ledger amount.
const AmountPrecision = 6

// Commission reward levels.
const (
	LevelSelf = 0 // the paying member's own share
	LevelRef1 = 1 // direct referrer
	LevelRef2 = 2 // referrer's referrer
)

// CommissionRewardEntry is one append-only reward ledger row: a single
// (fee event, level) credit. The (fee_event_id, level) pair is unique in the
// store, which is what makes recomputation idempotent.
type CommissionRewardEntry struct {
	ID            uuid.UUID       `json:"id"`
	FeeEventID    uuid.UUID       `json:"fee_event_id"`
	RefCode       string          `json:"ref_code"` // beneficiary reference code
	Name          *string         `json:"name,omitempty"`
	WalletAddress *string         `json:"wallet_address,omitempty"`
	RewardDate    string          `json:"reward_date"` // copied from the fee event
	Amount        decimal.Decimal `json:"amount"`
	Level         int             `json:"level"`
	Memo          string          `json:"memo"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CenterRewardEntry is one aggregated center ledger row per
// (beneficiary center, reward date), with fee and tuition overrides computed
// independently.
type CenterRewardEntry struct {
	ID            uuid.UUID       `json:"id"`
	RefCode       string          `json:"ref_code"` // beneficiary center reference code
	CenterID      uuid.UUID       `json:"center_id"`
	Name          *string         `json:"name,omitempty"`
	WalletAddress *string         `json:"wallet_address,omitempty"`
	RewardDate    string          `json:"reward_date"` // copied from the fee events
	AmountFee     decimal.Decimal `json:"amount_fee"`
	AmountTuition decimal.Decimal `json:"amount_tuition"`
	Memo          string          `json:"memo"`
	CreatedAt     time.Time       `json:"created_at"`
}

// HasAmount reports whether the entry carries any positive amount and is
// therefore worth persisting.
func (e *CenterRewardEntry) HasAmount() bool {
	return e.AmountFee.IsPositive() || e.AmountTuition.IsPositive()
}
