package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/RSAC2025/rsac/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPayable(refCode string) domain.PayableRecord {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.PayableRecord{
		ID:                  uuid.New(),
		RefCode:             refCode,
		Name:                strPtr("Recipient"),
		WalletAddress:       strPtr("0x1111111111111111111111111111111111111111"),
		AmountInvite:        dec("15"),
		AmountCenterFee:     dec("2"),
		AmountCenterTuition: dec("1"),
		TotalAmount:         dec("18"),
		RewardDate:          "2026-08-21",
		Status:              domain.PayableStatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func payableCols() []string {
	return []string{"id", "ref_code", "name", "wallet_address", "amount_invite", "amount_center_fee",
		"amount_center_tuition", "total_amount", "reward_date", "status", "tx_hash", "error_reason",
		"attempt_id", "created_at", "updated_at"}
}

func payableRow(p domain.PayableRecord) *pgxmock.Rows {
	return pgxmock.NewRows(payableCols()).AddRow(
		p.ID, p.RefCode, p.Name, p.WalletAddress,
		p.AmountInvite, p.AmountCenterFee, p.AmountCenterTuition, p.TotalAmount,
		p.RewardDate, p.Status, p.TxHash, p.ErrorReason,
		p.AttemptID, p.CreatedAt, p.UpdatedAt,
	)
}

func TestPayableRepo_BulkInsertCountsConflicts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPayableRepo(mock)
	fresh := newTestPayable("ALICE")
	dup := newTestPayable("BOB")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payables").
		WithArgs(
			fresh.ID, fresh.RefCode, fresh.Name, fresh.WalletAddress,
			fresh.AmountInvite, fresh.AmountCenterFee, fresh.AmountCenterTuition, fresh.TotalAmount,
			fresh.RewardDate, fresh.Status, fresh.CreatedAt, fresh.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// The (ref_code, reward_date) conflict is silently skipped.
	mock.ExpectExec("INSERT INTO payables").
		WithArgs(
			dup.ID, dup.RefCode, dup.Name, dup.WalletAddress,
			dup.AmountInvite, dup.AmountCenterFee, dup.AmountCenterTuition, dup.TotalAmount,
			dup.RewardDate, dup.Status, dup.CreatedAt, dup.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectCommit()

	inserted, err := repo.BulkInsert(context.Background(), []domain.PayableRecord{fresh, dup})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayableRepo_ListDisbursable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPayableRepo(mock)
	p := newTestPayable("ALICE")

	mock.ExpectQuery("SELECT (.+) FROM payables\\s+WHERE reward_date = \\$1 AND status IN \\('pending', 'failed'\\)").
		WithArgs("2026-08-21").
		WillReturnRows(payableRow(p))

	records, err := repo.ListDisbursable(context.Background(), "2026-08-21")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ALICE", records[0].RefCode)
	assert.True(t, dec("18").Equal(records[0].TotalAmount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayableRepo_ListByDateWithStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPayableRepo(mock)
	p := newTestPayable("ALICE")
	p.Status = domain.PayableStatusFailed

	mock.ExpectQuery("SELECT (.+) FROM payables WHERE reward_date = \\$1 AND status = \\$2").
		WithArgs("2026-08-21", domain.PayableStatusFailed).
		WillReturnRows(payableRow(p))

	status := domain.PayableStatusFailed
	records, err := repo.ListByDate(context.Background(), "2026-08-21", &status)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.PayableStatusFailed, records[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayableRepo_Claim(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPayableRepo(mock)
	id := uuid.New()
	attemptID := uuid.New()

	mock.ExpectExec("UPDATE payables SET status = 'processing'").
		WithArgs(id, attemptID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	claimed, err := repo.Claim(context.Background(), id, attemptID)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayableRepo_ClaimLosesRace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPayableRepo(mock)
	id := uuid.New()
	attemptID := uuid.New()

	// Another run moved the row out of pending|failed first.
	mock.ExpectExec("UPDATE payables SET status = 'processing'").
		WithArgs(id, attemptID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	claimed, err := repo.Claim(context.Background(), id, attemptID)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayableRepo_MarkSuccess(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPayableRepo(mock)
	id := uuid.New()

	mock.ExpectExec("UPDATE payables SET status = 'success'").
		WithArgs(id, "0xabc").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.MarkSuccess(context.Background(), id, "0xabc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayableRepo_MarkFailedTruncatesReason(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPayableRepo(mock)
	id := uuid.New()
	long := strings.Repeat("x", 300)

	mock.ExpectExec("UPDATE payables SET status = 'failed'").
		WithArgs(id, long[:domain.MaxErrorReasonLen]).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.MarkFailed(context.Background(), id, long))
	assert.NoError(t, mock.ExpectationsWereMet())
}
