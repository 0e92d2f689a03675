package ports

import (
	"context"
	"time"

	"github.com/RSAC2025/rsac/internal/core/domain"

	"github.com/google/uuid"
)

// FeeEventRepository reads the fee ledger owned by the purchase/registration
// subsystem. Read-only: this service never writes fee events.
type FeeEventRepository interface {
	// List returns fee events, optionally scoped to a single reward date.
	List(ctx context.Context, rewardDate *string) ([]domain.FeeEvent, error)
}

// RewardSettingRepository reads the externally administered reward rates.
type RewardSettingRepository interface {
	// Get returns the setting for a category, or nil when none is configured.
	Get(ctx context.Context, category string) (*domain.RewardSetting, error)
}

// CenterRepository reads the center hierarchy.
type CenterRepository interface {
	List(ctx context.Context) ([]domain.Center, error)
}

// CommissionRewardRepository persists commission reward ledger rows.
type CommissionRewardRepository interface {
	// BulkInsert writes entries in bounded batches, ignoring rows whose
	// (fee_event_id, level) pair already exists. It returns the number of
	// rows durably handled before any failing batch, so callers can report
	// the committed prefix alongside the error.
	BulkInsert(ctx context.Context, entries []domain.CommissionRewardEntry, batchSize int) (int, error)
	// ListForAggregation returns entries for the transfer aggregator,
	// optionally scoped to a reward date.
	ListForAggregation(ctx context.Context, rewardDate *string) ([]domain.CommissionRewardEntry, error)
}

// CenterRewardRepository persists center reward ledger rows.
type CenterRewardRepository interface {
	// ReplaceForDates atomically deletes the existing rows for the given
	// reward dates and writes the recomputed entries in bounded batches
	// within one database transaction. Returns the number of rows written.
	ReplaceForDates(ctx context.Context, dates []string, entries []domain.CenterRewardEntry, batchSize int) (int, error)
	ListForAggregation(ctx context.Context, rewardDate *string) ([]domain.CenterRewardEntry, error)
}

// PayableRepository persists per-recipient-per-day payable records and their
// status transitions.
type PayableRepository interface {
	// BulkInsert writes records, ignoring (ref_code, reward_date) pairs that
	// already exist so a re-run of the aggregator does not duplicate.
	// Returns the number of rows actually inserted.
	BulkInsert(ctx context.Context, records []domain.PayableRecord) (int, error)
	// ListDisbursable returns the pending and failed records for a date.
	ListDisbursable(ctx context.Context, rewardDate string) ([]domain.PayableRecord, error)
	// ListByDate returns records for a date with an optional status filter.
	ListByDate(ctx context.Context, rewardDate string, status *domain.PayableStatus) ([]domain.PayableRecord, error)
	// Claim conditionally transitions pending|failed -> processing, stamping
	// the attempt id. Exactly one concurrent caller wins; the others see
	// false.
	Claim(ctx context.Context, id uuid.UUID, attemptID uuid.UUID) (bool, error)
	// MarkSuccess records a completed transfer and its transaction hash.
	MarkSuccess(ctx context.Context, id uuid.UUID, txHash string) error
	// MarkFailed records a failed transfer with a bounded reason, making the
	// record eligible for the next run.
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

// RunLocker provides cross-run mutual exclusion for the disbursement engine.
type RunLocker interface {
	// Acquire takes the named lock if free. Returns false when another run
	// already holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
