package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RSAC2025/rsac/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommissionEntry(refCode string, level int) domain.CommissionRewardEntry {
	return domain.CommissionRewardEntry{
		ID:         uuid.New(),
		FeeEventID: uuid.New(),
		RefCode:    refCode,
		RewardDate: "2026-08-20",
		Amount:     dec("5"),
		Level:      level,
		Memo:       "fee self reward",
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

func expectCommissionInsert(mock pgxmock.PgxPoolIface, e domain.CommissionRewardEntry, affected int64) {
	mock.ExpectExec("INSERT INTO commission_rewards").
		WithArgs(
			e.ID, e.FeeEventID, e.RefCode, e.Name, e.WalletAddress,
			e.RewardDate, e.Amount, e.Level, e.Memo, e.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", affected))
}

func TestCommissionRewardRepo_BulkInsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCommissionRewardRepo(mock)
	entries := []domain.CommissionRewardEntry{
		newTestCommissionEntry("A", domain.LevelSelf),
		newTestCommissionEntry("B", domain.LevelRef1),
	}

	mock.ExpectBegin()
	expectCommissionInsert(mock, entries[0], 1)
	expectCommissionInsert(mock, entries[1], 1)
	mock.ExpectCommit()

	inserted, err := repo.BulkInsert(context.Background(), entries, 1000)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommissionRewardRepo_BulkInsertChunks(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCommissionRewardRepo(mock)
	entries := []domain.CommissionRewardEntry{
		newTestCommissionEntry("A", domain.LevelSelf),
		newTestCommissionEntry("B", domain.LevelSelf),
		newTestCommissionEntry("C", domain.LevelSelf),
	}

	// Batch size 2: two transactions, the second with one row.
	mock.ExpectBegin()
	expectCommissionInsert(mock, entries[0], 1)
	expectCommissionInsert(mock, entries[1], 1)
	mock.ExpectCommit()
	mock.ExpectBegin()
	expectCommissionInsert(mock, entries[2], 1)
	mock.ExpectCommit()

	inserted, err := repo.BulkInsert(context.Background(), entries, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommissionRewardRepo_BulkInsertReportsCommittedPrefix(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCommissionRewardRepo(mock)
	entries := []domain.CommissionRewardEntry{
		newTestCommissionEntry("A", domain.LevelSelf),
		newTestCommissionEntry("B", domain.LevelSelf),
	}

	mock.ExpectBegin()
	expectCommissionInsert(mock, entries[0], 1)
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO commission_rewards").
		WithArgs(
			entries[1].ID, entries[1].FeeEventID, entries[1].RefCode, entries[1].Name,
			entries[1].WalletAddress, entries[1].RewardDate, entries[1].Amount,
			entries[1].Level, entries[1].Memo, entries[1].CreatedAt,
		).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	inserted, err := repo.BulkInsert(context.Background(), entries, 1)
	require.Error(t, err)
	assert.Equal(t, 1, inserted, "the first batch stays committed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommissionRewardRepo_ListForAggregation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCommissionRewardRepo(mock)
	e := newTestCommissionEntry("A", domain.LevelSelf)

	cols := []string{"id", "fee_event_id", "ref_code", "name", "wallet_address",
		"reward_date", "amount", "level", "memo", "created_at"}
	mock.ExpectQuery("SELECT (.+) FROM commission_rewards WHERE reward_date = \\$1").
		WithArgs("2026-08-20").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(
			e.ID, e.FeeEventID, e.RefCode, e.Name, e.WalletAddress,
			e.RewardDate, e.Amount, e.Level, e.Memo, e.CreatedAt,
		))

	date := "2026-08-20"
	entries, err := repo.ListForAggregation(context.Background(), &date)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "A", entries[0].RefCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}
