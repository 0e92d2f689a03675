package ports

import (
	"context"
	"time"

	"github.com/RSAC2025/rsac/internal/core/domain"

	"github.com/shopspring/decimal"
)

// AssetTransferClient wraps on-chain stablecoin transfer submission. The
// amount is denominated in the asset's human unit; the client is responsible
// for base-unit scaling. Transfer returns the transaction hash on success.
type AssetTransferClient interface {
	Transfer(ctx context.Context, destination string, amount decimal.Decimal) (string, error)
	// ValidAddress reports whether destination is a well-formed address for
	// the underlying chain.
	ValidAddress(destination string) bool
}

// CalcRequest scopes a calculator run. A nil RewardDate means all fee events.
type CalcRequest struct {
	RewardDate *string
}

// CalcResult summarises a calculator run. PartialError carries the detail of
// a bulk-insert failure; Inserted then reflects the durably committed prefix.
type CalcResult struct {
	Events       int    `json:"events"`   // fee events examined
	Computed     int    `json:"computed"` // reward rows computed
	Inserted     int    `json:"inserted"` // reward rows durably written
	PartialError string `json:"partial_error,omitempty"`
}

// CommissionCalculator computes per-(fee event, level) referral commission
// reward entries.
type CommissionCalculator interface {
	Calculate(ctx context.Context, req CalcRequest) (*CalcResult, error)
}

// CenterCalculator computes center override reward entries aggregated by
// (center, reward date).
type CenterCalculator interface {
	Calculate(ctx context.Context, req CalcRequest) (*CalcResult, error)
}

// AggregateResult summarises a transfer aggregation run. An empty run is a
// success with zero recipients.
type AggregateResult struct {
	Recipients int    `json:"recipients"` // distinct recipients merged
	Inserted   int    `json:"inserted"`   // payable records written
	RewardDate string `json:"reward_date"`
}

// TransferAggregator merges the two reward ledgers into one pending payable
// record per recipient for the run date.
type TransferAggregator interface {
	Aggregate(ctx context.Context, rewardDate *string) (*AggregateResult, error)
}

// DisburseOutcome is the per-record result of a disbursement attempt.
type DisburseOutcome struct {
	RefCode       string               `json:"ref_code"`
	WalletAddress string               `json:"wallet_address,omitempty"`
	Amount        decimal.Decimal      `json:"amount"`
	Status        domain.PayableStatus `json:"status"`
	TxHash        string               `json:"tx_hash,omitempty"`
	Reason        string               `json:"reason,omitempty"`
}

// DisburseResult aggregates a disbursement run. Alerts counts successful
// transfers whose status write failed; those need operator attention, never
// an automatic retry.
type DisburseResult struct {
	RewardDate string            `json:"reward_date"`
	Selected   int               `json:"selected"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	Alerts     int               `json:"alerts"`
	Outcomes   []DisburseOutcome `json:"outcomes"`
}

// DisbursementEngine drives idempotent, retryable payouts for one reward
// date.
type DisbursementEngine interface {
	Disburse(ctx context.Context, rewardDate string) (*DisburseResult, error)
}

// TokenService issues and validates operator bearer tokens for the trigger
// endpoints.
type TokenService interface {
	Generate(subject string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed operator token claims.
type TokenClaims struct {
	Subject string
}
