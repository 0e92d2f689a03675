package postgres

import (
	"context"
	"fmt"

	"github.com/RSAC2025/rsac/internal/core/domain"
)

// CenterRewardRepo implements ports.CenterRewardRepository.
type CenterRewardRepo struct {
	pool Pool
}

// NewCenterRewardRepo creates a new CenterRewardRepo.
func NewCenterRewardRepo(pool Pool) *CenterRewardRepo {
	return &CenterRewardRepo{pool: pool}
}

const insertCenterRewardSQL = `INSERT INTO center_rewards
	(id, ref_code, center_id, name, wallet_address, reward_date, amount_fee, amount_tuition, memo, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// ReplaceForDates deletes the existing rows for the given reward dates and
// writes the recomputed entries, all in one database transaction. The center
// ledger holds at most one row per (center, date), so recomputation replaces
// rather than appends. Inserts run in bounded chunks to keep statements
// small.
func (r *CenterRewardRepo) ReplaceForDates(ctx context.Context, dates []string, entries []domain.CenterRewardEntry, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if len(dates) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM center_rewards WHERE reward_date = ANY($1)`, dates); err != nil {
			return 0, fmt.Errorf("delete center rewards for dates: %w", err)
		}
	}

	for start := 0; start < len(entries); start += batchSize {
		end := min(start+batchSize, len(entries))
		for i := start; i < end; i++ {
			e := &entries[i]
			_, err := tx.Exec(ctx, insertCenterRewardSQL,
				e.ID, e.RefCode, e.CenterID, e.Name, e.WalletAddress,
				e.RewardDate, e.AmountFee, e.AmountTuition, e.Memo, e.CreatedAt,
			)
			if err != nil {
				return 0, fmt.Errorf("insert center reward at row %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit replace: %w", err)
	}
	return len(entries), nil
}

// ListForAggregation fetches entries for the transfer aggregator, optionally
// scoped to one reward date.
func (r *CenterRewardRepo) ListForAggregation(ctx context.Context, rewardDate *string) ([]domain.CenterRewardEntry, error) {
	query := `SELECT id, ref_code, center_id, name, wallet_address, reward_date, amount_fee, amount_tuition, memo, created_at
		FROM center_rewards`
	var args []any
	if rewardDate != nil {
		query += ` WHERE reward_date = $1`
		args = append(args, *rewardDate)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list center rewards: %w", err)
	}
	defer rows.Close()

	var entries []domain.CenterRewardEntry
	for rows.Next() {
		var e domain.CenterRewardEntry
		err := rows.Scan(
			&e.ID, &e.RefCode, &e.CenterID, &e.Name, &e.WalletAddress,
			&e.RewardDate, &e.AmountFee, &e.AmountTuition, &e.Memo, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan center reward row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate center reward rows: %w", err)
	}
	return entries, nil
}
