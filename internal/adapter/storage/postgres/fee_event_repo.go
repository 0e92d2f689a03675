package postgres

import (
	"context"
	"fmt"

	"github.com/RSAC2025/rsac/internal/core/domain"
)

// FeeEventRepo implements ports.FeeEventRepository. The fee ledger is owned
// by the purchase/registration subsystem; only SELECTs live here.
type FeeEventRepo struct {
	pool Pool
}

// NewFeeEventRepo creates a new FeeEventRepo.
func NewFeeEventRepo(pool Pool) *FeeEventRepo {
	return &FeeEventRepo{pool: pool}
}

const feeEventColumns = `id, ref_code, name, wallet_address, fee_commission, fee_tuition,
		center_id, ref_by1, ref_by2, reward_date, created_at`

// List fetches fee events, optionally scoped to one reward date.
func (r *FeeEventRepo) List(ctx context.Context, rewardDate *string) ([]domain.FeeEvent, error) {
	query := `SELECT ` + feeEventColumns + ` FROM fee_events`
	var args []any
	if rewardDate != nil {
		query += ` WHERE reward_date = $1`
		args = append(args, *rewardDate)
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list fee events: %w", err)
	}
	defer rows.Close()

	var events []domain.FeeEvent
	for rows.Next() {
		var e domain.FeeEvent
		err := rows.Scan(
			&e.ID, &e.RefCode, &e.Name, &e.WalletAddress,
			&e.FeeCommission, &e.FeeTuition, &e.CenterID,
			&e.RefBy1, &e.RefBy2, &e.RewardDate, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan fee event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fee event rows: %w", err)
	}
	return events, nil
}
