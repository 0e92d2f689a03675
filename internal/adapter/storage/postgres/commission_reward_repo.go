package postgres

import (
	"context"
	"fmt"

	"github.com/RSAC2025/rsac/internal/core/domain"
)

const defaultBatchSize = 1000

// CommissionRewardRepo implements ports.CommissionRewardRepository.
type CommissionRewardRepo struct {
	pool Pool
}

// NewCommissionRewardRepo creates a new CommissionRewardRepo.
func NewCommissionRewardRepo(pool Pool) *CommissionRewardRepo {
	return &CommissionRewardRepo{pool: pool}
}

const insertCommissionRewardSQL = `INSERT INTO commission_rewards
	(id, fee_event_id, ref_code, name, wallet_address, reward_date, amount, level, memo, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (fee_event_id, level) DO NOTHING`

// BulkInsert writes entries in bounded per-transaction batches. Rows whose
// (fee_event_id, level) already exists are ignored, which makes recomputation
// over the same fee events safe. On a batch failure the returned count is the
// durably committed prefix.
func (r *CommissionRewardRepo) BulkInsert(ctx context.Context, entries []domain.CommissionRewardEntry, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	inserted := 0
	for start := 0; start < len(entries); start += batchSize {
		end := min(start+batchSize, len(entries))
		if err := r.insertBatch(ctx, entries[start:end]); err != nil {
			return inserted, fmt.Errorf("insert commission rewards from row %d: %w", start, err)
		}
		inserted = end
	}
	return inserted, nil
}

func (r *CommissionRewardRepo) insertBatch(ctx context.Context, batch []domain.CommissionRewardEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for i := range batch {
		e := &batch[i]
		_, err := tx.Exec(ctx, insertCommissionRewardSQL,
			e.ID, e.FeeEventID, e.RefCode, e.Name, e.WalletAddress,
			e.RewardDate, e.Amount, e.Level, e.Memo, e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert commission reward: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// ListForAggregation fetches entries for the transfer aggregator, optionally
// scoped to one reward date.
func (r *CommissionRewardRepo) ListForAggregation(ctx context.Context, rewardDate *string) ([]domain.CommissionRewardEntry, error) {
	query := `SELECT id, fee_event_id, ref_code, name, wallet_address, reward_date, amount, level, memo, created_at
		FROM commission_rewards`
	var args []any
	if rewardDate != nil {
		query += ` WHERE reward_date = $1`
		args = append(args, *rewardDate)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list commission rewards: %w", err)
	}
	defer rows.Close()

	var entries []domain.CommissionRewardEntry
	for rows.Next() {
		var e domain.CommissionRewardEntry
		err := rows.Scan(
			&e.ID, &e.FeeEventID, &e.RefCode, &e.Name, &e.WalletAddress,
			&e.RewardDate, &e.Amount, &e.Level, &e.Memo, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan commission reward row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commission reward rows: %w", err)
	}
	return entries, nil
}
