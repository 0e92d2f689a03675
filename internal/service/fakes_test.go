package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/RSAC2025/rsac/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// In-memory port implementations shared by the service tests.

type fakeFeeEventRepo struct {
	events []domain.FeeEvent
	err    error
}

func (f *fakeFeeEventRepo) List(_ context.Context, rewardDate *string) ([]domain.FeeEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	if rewardDate == nil {
		return f.events, nil
	}
	var out []domain.FeeEvent
	for _, e := range f.events {
		if e.RewardDate == *rewardDate {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeSettingRepo struct {
	setting *domain.RewardSetting
	err     error
}

func (f *fakeSettingRepo) Get(_ context.Context, _ string) (*domain.RewardSetting, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.setting, nil
}

type fakeCenterRepo struct {
	centers []domain.Center
	err     error
}

func (f *fakeCenterRepo) List(_ context.Context) ([]domain.Center, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.centers, nil
}

type fakeCommissionRewardRepo struct {
	entries    []domain.CommissionRewardEntry
	seen       map[string]struct{}
	insertErr  error
	failAfter  int // entries accepted before insertErr is returned
	listErr    error
}

func commissionKey(e *domain.CommissionRewardEntry) string {
	return fmt.Sprintf("%s|%d", e.FeeEventID, e.Level)
}

func (f *fakeCommissionRewardRepo) BulkInsert(_ context.Context, entries []domain.CommissionRewardEntry, _ int) (int, error) {
	if f.seen == nil {
		f.seen = make(map[string]struct{})
	}
	for i, e := range entries {
		if f.insertErr != nil && i >= f.failAfter {
			return i, f.insertErr
		}
		key := commissionKey(&e)
		if _, dup := f.seen[key]; dup {
			continue
		}
		f.seen[key] = struct{}{}
		f.entries = append(f.entries, e)
	}
	return len(entries), nil
}

func (f *fakeCommissionRewardRepo) ListForAggregation(_ context.Context, rewardDate *string) ([]domain.CommissionRewardEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if rewardDate == nil {
		return f.entries, nil
	}
	var out []domain.CommissionRewardEntry
	for _, e := range f.entries {
		if e.RewardDate == *rewardDate {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeCenterRewardRepo struct {
	entries    []domain.CenterRewardEntry
	replaceErr error
	listErr    error
	replaced   [][]string // dates passed to each ReplaceForDates call
}

func (f *fakeCenterRewardRepo) ReplaceForDates(_ context.Context, dates []string, entries []domain.CenterRewardEntry, _ int) (int, error) {
	if f.replaceErr != nil {
		return 0, f.replaceErr
	}
	f.replaced = append(f.replaced, dates)
	drop := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		drop[d] = struct{}{}
	}
	kept := f.entries[:0]
	for _, e := range f.entries {
		if _, gone := drop[e.RewardDate]; !gone {
			kept = append(kept, e)
		}
	}
	f.entries = append(kept, entries...)
	return len(entries), nil
}

func (f *fakeCenterRewardRepo) ListForAggregation(_ context.Context, rewardDate *string) ([]domain.CenterRewardEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if rewardDate == nil {
		return f.entries, nil
	}
	var out []domain.CenterRewardEntry
	for _, e := range f.entries {
		if e.RewardDate == *rewardDate {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakePayableRepo struct {
	records        []domain.PayableRecord
	insertErr      error
	listErr        error
	claimErr       error
	markSuccessErr error
	markFailedErr  error
	claims         int
}

func (f *fakePayableRepo) BulkInsert(_ context.Context, records []domain.PayableRecord) (int, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	existing := make(map[string]struct{}, len(f.records))
	for _, r := range f.records {
		existing[r.RefCode+"|"+r.RewardDate] = struct{}{}
	}
	inserted := 0
	for _, r := range records {
		key := r.RefCode + "|" + r.RewardDate
		if _, dup := existing[key]; dup {
			continue
		}
		existing[key] = struct{}{}
		f.records = append(f.records, r)
		inserted++
	}
	return inserted, nil
}

func (f *fakePayableRepo) ListDisbursable(_ context.Context, rewardDate string) ([]domain.PayableRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.PayableRecord
	for _, r := range f.records {
		if r.RewardDate == rewardDate && r.Disbursable() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakePayableRepo) ListByDate(_ context.Context, rewardDate string, status *domain.PayableStatus) ([]domain.PayableRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.PayableRecord
	for _, r := range f.records {
		if r.RewardDate != rewardDate {
			continue
		}
		if status != nil && r.Status != *status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakePayableRepo) find(id uuid.UUID) *domain.PayableRecord {
	for i := range f.records {
		if f.records[i].ID == id {
			return &f.records[i]
		}
	}
	return nil
}

func (f *fakePayableRepo) Claim(_ context.Context, id uuid.UUID, attemptID uuid.UUID) (bool, error) {
	if f.claimErr != nil {
		return false, f.claimErr
	}
	r := f.find(id)
	if r == nil || !r.Disbursable() {
		return false, nil
	}
	f.claims++
	r.Status = domain.PayableStatusProcessing
	r.AttemptID = &attemptID
	r.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (f *fakePayableRepo) MarkSuccess(_ context.Context, id uuid.UUID, txHash string) error {
	if f.markSuccessErr != nil {
		return f.markSuccessErr
	}
	r := f.find(id)
	if r == nil {
		return fmt.Errorf("payable %s not found", id)
	}
	r.Status = domain.PayableStatusSuccess
	r.TxHash = &txHash
	r.ErrorReason = nil
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakePayableRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	if f.markFailedErr != nil {
		return f.markFailedErr
	}
	r := f.find(id)
	if r == nil {
		return fmt.Errorf("payable %s not found", id)
	}
	r.Status = domain.PayableStatusFailed
	r.ErrorReason = &reason
	r.UpdatedAt = time.Now().UTC()
	return nil
}

type transferCall struct {
	destination string
	amount      decimal.Decimal
}

type fakeTransferClient struct {
	calls   []transferCall
	failFor map[string]error // destination -> error
	next    int
}

func (f *fakeTransferClient) Transfer(_ context.Context, destination string, amount decimal.Decimal) (string, error) {
	f.calls = append(f.calls, transferCall{destination: destination, amount: amount})
	if err, bad := f.failFor[destination]; bad {
		return "", err
	}
	f.next++
	return fmt.Sprintf("0xhash%04d", f.next), nil
}

func (f *fakeTransferClient) ValidAddress(destination string) bool {
	return len(destination) == 42 && strings.HasPrefix(destination, "0x")
}

type fakeRunLocker struct {
	held       map[string]bool
	acquireErr error
	releases   int
}

func (f *fakeRunLocker) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	if f.held == nil {
		f.held = make(map[string]bool)
	}
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true
	return true, nil
}

func (f *fakeRunLocker) Release(_ context.Context, key string) error {
	f.releases++
	delete(f.held, key)
	return nil
}

func strptr(s string) *string { return &s }

func uuidptr(u uuid.UUID) *uuid.UUID { return &u }

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
