package postgres

import (
	"context"
	"fmt"

	"github.com/RSAC2025/rsac/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PayableRepo implements ports.PayableRepository. Records are created once
// by the aggregator; afterwards only status transitions happen here.
type PayableRepo struct {
	pool Pool
}

// NewPayableRepo creates a new PayableRepo.
func NewPayableRepo(pool Pool) *PayableRepo {
	return &PayableRepo{pool: pool}
}

const payableColumns = `id, ref_code, name, wallet_address, amount_invite, amount_center_fee,
		amount_center_tuition, total_amount, reward_date, status, tx_hash, error_reason,
		attempt_id, created_at, updated_at`

const insertPayableSQL = `INSERT INTO payables
	(id, ref_code, name, wallet_address, amount_invite, amount_center_fee, amount_center_tuition,
	total_amount, reward_date, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (ref_code, reward_date) DO NOTHING`

// BulkInsert writes payable records, ignoring (ref_code, reward_date) pairs
// that already exist. Returns the number of rows actually inserted.
func (r *PayableRepo) BulkInsert(ctx context.Context, records []domain.PayableRecord) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin payables insert: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	inserted := 0
	for i := range records {
		p := &records[i]
		tag, err := tx.Exec(ctx, insertPayableSQL,
			p.ID, p.RefCode, p.Name, p.WalletAddress,
			p.AmountInvite, p.AmountCenterFee, p.AmountCenterTuition, p.TotalAmount,
			p.RewardDate, p.Status, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("insert payable: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit payables insert: %w", err)
	}
	return inserted, nil
}

// ListDisbursable returns the pending and failed records for a date.
func (r *PayableRepo) ListDisbursable(ctx context.Context, rewardDate string) ([]domain.PayableRecord, error) {
	query := `SELECT ` + payableColumns + ` FROM payables
		WHERE reward_date = $1 AND status IN ('pending', 'failed') ORDER BY ref_code`

	rows, err := r.pool.Query(ctx, query, rewardDate)
	if err != nil {
		return nil, fmt.Errorf("list disbursable payables: %w", err)
	}
	return scanPayables(rows)
}

// ListByDate returns records for a date with an optional status filter.
func (r *PayableRepo) ListByDate(ctx context.Context, rewardDate string, status *domain.PayableStatus) ([]domain.PayableRecord, error) {
	query := `SELECT ` + payableColumns + ` FROM payables WHERE reward_date = $1`
	args := []any{rewardDate}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY ref_code`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payables: %w", err)
	}
	return scanPayables(rows)
}

// Claim conditionally transitions pending|failed -> processing, stamping the
// attempt id. The status predicate makes the claim atomic: a concurrent run
// updating the same row sees zero rows affected.
func (r *PayableRepo) Claim(ctx context.Context, id uuid.UUID, attemptID uuid.UUID) (bool, error) {
	query := `UPDATE payables SET status = 'processing', attempt_id = $2, updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'failed')`

	tag, err := r.pool.Exec(ctx, query, id, attemptID)
	if err != nil {
		return false, fmt.Errorf("claim payable: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkSuccess records a completed transfer and its transaction hash.
func (r *PayableRepo) MarkSuccess(ctx context.Context, id uuid.UUID, txHash string) error {
	query := `UPDATE payables SET status = 'success', tx_hash = $2, error_reason = NULL, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, txHash)
	if err != nil {
		return fmt.Errorf("mark payable success: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payable not found: %s", id)
	}
	return nil
}

// MarkFailed records a failed transfer with a bounded reason. The record
// stays selectable for the next run.
func (r *PayableRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `UPDATE payables SET status = 'failed', error_reason = $2, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, domain.TruncateReason(reason))
	if err != nil {
		return fmt.Errorf("mark payable failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payable not found: %s", id)
	}
	return nil
}

func scanPayables(rows pgx.Rows) ([]domain.PayableRecord, error) {
	defer rows.Close()

	var records []domain.PayableRecord
	for rows.Next() {
		var p domain.PayableRecord
		err := rows.Scan(
			&p.ID, &p.RefCode, &p.Name, &p.WalletAddress,
			&p.AmountInvite, &p.AmountCenterFee, &p.AmountCenterTuition, &p.TotalAmount,
			&p.RewardDate, &p.Status, &p.TxHash, &p.ErrorReason,
			&p.AttemptID, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan payable row: %w", err)
		}
		records = append(records, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payable rows: %w", err)
	}
	return records, nil
}
