// Package integration wires the full reward pipeline against in-memory
// adapters, mirroring the store semantics the SQL layer relies on: the
// commission ledger's (fee_event_id, level) uniqueness, the center ledger's
// replace-by-date, the payables' (ref_code, reward_date) uniqueness and
// status-gated claim.
package integration

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/RSAC2025/rsac/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type memFeeEventRepo struct {
	mu     sync.Mutex
	events []domain.FeeEvent
}

func (r *memFeeEventRepo) List(_ context.Context, rewardDate *string) ([]domain.FeeEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.FeeEvent
	for _, e := range r.events {
		if rewardDate == nil || e.RewardDate == *rewardDate {
			out = append(out, e)
		}
	}
	return out, nil
}

type memSettingRepo struct {
	setting *domain.RewardSetting
}

func (r *memSettingRepo) Get(_ context.Context, _ string) (*domain.RewardSetting, error) {
	return r.setting, nil
}

type memCenterRepo struct {
	centers []domain.Center
}

func (r *memCenterRepo) List(_ context.Context) ([]domain.Center, error) {
	return r.centers, nil
}

type memCommissionRewardRepo struct {
	mu      sync.Mutex
	entries []domain.CommissionRewardEntry
	keys    map[string]struct{}
}

func (r *memCommissionRewardRepo) BulkInsert(_ context.Context, entries []domain.CommissionRewardEntry, _ int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.keys == nil {
		r.keys = make(map[string]struct{})
	}
	for _, e := range entries {
		key := fmt.Sprintf("%s|%d", e.FeeEventID, e.Level)
		if _, dup := r.keys[key]; dup {
			continue
		}
		r.keys[key] = struct{}{}
		r.entries = append(r.entries, e)
	}
	return len(entries), nil
}

func (r *memCommissionRewardRepo) ListForAggregation(_ context.Context, rewardDate *string) ([]domain.CommissionRewardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CommissionRewardEntry
	for _, e := range r.entries {
		if rewardDate == nil || e.RewardDate == *rewardDate {
			out = append(out, e)
		}
	}
	return out, nil
}

type memCenterRewardRepo struct {
	mu      sync.Mutex
	entries []domain.CenterRewardEntry
}

func (r *memCenterRewardRepo) ReplaceForDates(_ context.Context, dates []string, entries []domain.CenterRewardEntry, _ int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	drop := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		drop[d] = struct{}{}
	}
	kept := r.entries[:0]
	for _, e := range r.entries {
		if _, gone := drop[e.RewardDate]; !gone {
			kept = append(kept, e)
		}
	}
	r.entries = append(kept, entries...)
	return len(entries), nil
}

func (r *memCenterRewardRepo) ListForAggregation(_ context.Context, rewardDate *string) ([]domain.CenterRewardEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CenterRewardEntry
	for _, e := range r.entries {
		if rewardDate == nil || e.RewardDate == *rewardDate {
			out = append(out, e)
		}
	}
	return out, nil
}

type memPayableRepo struct {
	mu      sync.Mutex
	records []domain.PayableRecord
}

func (r *memPayableRepo) BulkInsert(_ context.Context, records []domain.PayableRecord) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing := make(map[string]struct{}, len(r.records))
	for _, rec := range r.records {
		existing[rec.RefCode+"|"+rec.RewardDate] = struct{}{}
	}
	inserted := 0
	for _, rec := range records {
		key := rec.RefCode + "|" + rec.RewardDate
		if _, dup := existing[key]; dup {
			continue
		}
		existing[key] = struct{}{}
		r.records = append(r.records, rec)
		inserted++
	}
	return inserted, nil
}

func (r *memPayableRepo) ListDisbursable(_ context.Context, rewardDate string) ([]domain.PayableRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PayableRecord
	for _, rec := range r.records {
		if rec.RewardDate == rewardDate && rec.Disbursable() {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memPayableRepo) ListByDate(_ context.Context, rewardDate string, status *domain.PayableStatus) ([]domain.PayableRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PayableRecord
	for _, rec := range r.records {
		if rec.RewardDate != rewardDate {
			continue
		}
		if status != nil && rec.Status != *status {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *memPayableRepo) Claim(_ context.Context, id uuid.UUID, attemptID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].ID != id {
			continue
		}
		if !r.records[i].Disbursable() {
			return false, nil
		}
		r.records[i].Status = domain.PayableStatusProcessing
		r.records[i].AttemptID = &attemptID
		r.records[i].UpdatedAt = time.Now().UTC()
		return true, nil
	}
	return false, nil
}

func (r *memPayableRepo) MarkSuccess(_ context.Context, id uuid.UUID, txHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].ID == id {
			r.records[i].Status = domain.PayableStatusSuccess
			r.records[i].TxHash = &txHash
			r.records[i].ErrorReason = nil
			r.records[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("payable %s not found", id)
}

func (r *memPayableRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].ID == id {
			r.records[i].Status = domain.PayableStatusFailed
			r.records[i].ErrorReason = &reason
			r.records[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("payable %s not found", id)
}

func (r *memPayableRepo) byRefCode(refCode string) *domain.PayableRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].RefCode == refCode {
			return &r.records[i]
		}
	}
	return nil
}

type memRunLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *memRunLocker) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = make(map[string]bool)
	}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *memRunLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

type memTransferClient struct {
	mu      sync.Mutex
	failFor map[string]error // destination -> error
	calls   int
}

func (c *memTransferClient) Transfer(_ context.Context, destination string, _ decimal.Decimal) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, bad := c.failFor[destination]; bad {
		return "", err
	}
	c.calls++
	return fmt.Sprintf("0xtx%06d", c.calls), nil
}

func (c *memTransferClient) ValidAddress(destination string) bool {
	return len(destination) == 42 && strings.HasPrefix(destination, "0x")
}

func (c *memTransferClient) setFailure(destination string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failFor == nil {
		c.failFor = make(map[string]error)
	}
	if err == nil {
		delete(c.failFor, destination)
		return
	}
	c.failFor[destination] = err
}
