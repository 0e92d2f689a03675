package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayableStatus is the lifecycle state of a payable record.
type PayableStatus string

const (
	PayableStatusPending    PayableStatus = "pending"
	PayableStatusProcessing PayableStatus = "processing" // claimed by a disbursement run
	PayableStatusSuccess    PayableStatus = "success"
	PayableStatusFailed     PayableStatus = "failed"
)

// MaxErrorReasonLen bounds the persisted transfer error reason.
const MaxErrorReasonLen = 100

// PayableRecord is the per-recipient-per-day unit of disbursement. Created
// once by the transfer aggregator; afterwards only its status, transaction
// hash, and error reason are mutated by the disbursement engine.
type PayableRecord struct {
	ID                  uuid.UUID       `json:"id"`
	RefCode             string          `json:"ref_code"`
	Name                *string         `json:"name,omitempty"`
	WalletAddress       *string         `json:"wallet_address,omitempty"`
	AmountInvite        decimal.Decimal `json:"amount_invite"`
	AmountCenterFee     decimal.Decimal `json:"amount_center_fee"`
	AmountCenterTuition decimal.Decimal `json:"amount_center_tuition"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	RewardDate          string          `json:"reward_date"` // the aggregation run's day (KST)
	Status              PayableStatus   `json:"status"`
	TxHash              *string         `json:"tx_hash,omitempty"`
	ErrorReason         *string         `json:"error_reason,omitempty"`
	AttemptID           *uuid.UUID      `json:"attempt_id,omitempty"` // last disbursement attempt
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Disbursable reports whether the record's status allows a transfer
// attempt. Success and in-flight records are never re-paid. The engine
// additionally requires a positive total and a usable destination.
func (p *PayableRecord) Disbursable() bool {
	return p.Status == PayableStatusPending || p.Status == PayableStatusFailed
}

// HasDestination reports whether the record carries a non-empty destination
// wallet address.
func (p *PayableRecord) HasDestination() bool {
	return p.WalletAddress != nil && *p.WalletAddress != ""
}

// TruncateReason bounds a transfer error reason to MaxErrorReasonLen
// characters. RPC errors can carry non-ASCII text, so the cut is made on a
// rune boundary, never mid-character.
func TruncateReason(reason string) string {
	runes := []rune(reason)
	if len(runes) <= MaxErrorReasonLen {
		return reason
	}
	return string(runes[:MaxErrorReasonLen])
}
