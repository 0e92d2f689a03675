package service

import (
	"context"
	"sort"
	"time"

	"github.com/RSAC2025/rsac/internal/core/domain"
	"github.com/RSAC2025/rsac/internal/core/ports"
	"github.com/RSAC2025/rsac/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const memoCenterReward = "center reward"

// CenterCalcService implements ports.CenterCalculator. It walks the bounded
// center hierarchy (direct, master, grand) for each fee event and accumulates
// overrides keyed by (beneficiary center, reward date): the direct center
// earns on commission and tuition, the upper tiers on commission only.
type CenterCalcService struct {
	feeRepo     ports.FeeEventRepository
	settingRepo ports.RewardSettingRepository
	centerRepo  ports.CenterRepository
	rewardRepo  ports.CenterRewardRepository
	batchSize   int
	log         zerolog.Logger
}

// NewCenterCalcService creates a new CenterCalcService.
func NewCenterCalcService(
	feeRepo ports.FeeEventRepository,
	settingRepo ports.RewardSettingRepository,
	centerRepo ports.CenterRepository,
	rewardRepo ports.CenterRewardRepository,
	batchSize int,
	log zerolog.Logger,
) *CenterCalcService {
	return &CenterCalcService{
		feeRepo:     feeRepo,
		settingRepo: settingRepo,
		centerRepo:  centerRepo,
		rewardRepo:  rewardRepo,
		batchSize:   batchSize,
		log:         log,
	}
}

type centerAccum struct {
	center        *domain.Center
	rewardDate    string
	amountFee     decimal.Decimal
	amountTuition decimal.Decimal
}

// Calculate computes and persists center reward entries. The ledger is
// replaced per reward date, so recomputing a date is idempotent.
func (s *CenterCalcService) Calculate(ctx context.Context, req ports.CalcRequest) (*ports.CalcResult, error) {
	if req.RewardDate != nil && !domain.ValidRewardDate(*req.RewardDate) {
		return nil, apperror.ErrInvalidRewardDate(*req.RewardDate)
	}

	setting, err := s.settingRepo.Get(ctx, domain.RewardSettingCommission)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if setting == nil {
		return nil, apperror.ErrRewardSettingMissing(domain.RewardSettingCommission)
	}

	events, err := s.feeRepo.List(ctx, req.RewardDate)
	if err != nil {
		return nil, apperror.ErrFeeLedgerLoad(err)
	}

	centers, err := s.centerRepo.List(ctx)
	if err != nil {
		return nil, apperror.ErrCenterLoad(err)
	}
	index := domain.NewCenterIndex(centers)

	// Accumulate per (beneficiary ref code, reward date) across all events.
	accums := make(map[string]*centerAccum)
	dates := make(map[string]struct{})
	for i := range events {
		f := &events[i]
		if f.CenterID == nil || f.RewardDate == "" {
			continue
		}
		if !f.FeeCommission.IsPositive() && !f.FeeTuition.IsPositive() {
			continue
		}

		chain := index.Lineage(*f.CenterID)
		if chain == nil {
			// Unresolvable center code: expected steady state, skip.
			continue
		}
		dates[f.RewardDate] = struct{}{}

		for depth, center := range chain {
			feeRate, tuitionRate := tierRates(setting, depth)
			key := center.RefCode + "|" + f.RewardDate
			acc := accums[key]
			if acc == nil {
				acc = &centerAccum{
					center:        center,
					rewardDate:    f.RewardDate,
					amountFee:     decimal.Zero,
					amountTuition: decimal.Zero,
				}
				accums[key] = acc
			}
			acc.amountFee = acc.amountFee.Add(f.FeeCommission.Mul(feeRate).Div(decimal.NewFromInt(100)))
			acc.amountTuition = acc.amountTuition.Add(f.FeeTuition.Mul(tuitionRate).Div(decimal.NewFromInt(100)))
		}
	}

	now := time.Now().UTC()
	var entries []domain.CenterRewardEntry
	for _, acc := range accums {
		e := domain.CenterRewardEntry{
			ID:            uuid.New(),
			RefCode:       acc.center.RefCode,
			CenterID:      acc.center.ID,
			Name:          acc.center.Name,
			WalletAddress: acc.center.WalletAddress,
			RewardDate:    acc.rewardDate,
			AmountFee:     acc.amountFee.Round(domain.AmountPrecision),
			AmountTuition: acc.amountTuition.Round(domain.AmountPrecision),
			Memo:          memoCenterReward,
			CreatedAt:     now,
		}
		if e.HasAmount() {
			entries = append(entries, e)
		}
	}
	// Deterministic write order regardless of map iteration.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].RewardDate != entries[j].RewardDate {
			return entries[i].RewardDate < entries[j].RewardDate
		}
		return entries[i].RefCode < entries[j].RefCode
	})

	result := &ports.CalcResult{Events: len(events), Computed: len(entries)}
	if len(entries) == 0 {
		s.log.Info().Int("events", len(events)).Msg("center calculation produced no rewards")
		return result, nil
	}

	affectedDates := make([]string, 0, len(dates))
	for d := range dates {
		affectedDates = append(affectedDates, d)
	}
	sort.Strings(affectedDates)

	inserted, err := s.rewardRepo.ReplaceForDates(ctx, affectedDates, entries, s.batchSize)
	result.Inserted = inserted
	if err != nil {
		result.PartialError = err.Error()
		s.log.Error().Err(err).
			Int("computed", len(entries)).
			Int("inserted", inserted).
			Msg("center reward replace failed")
		return result, nil
	}

	s.log.Info().
		Int("events", len(events)).
		Int("inserted", inserted).
		Strs("dates", affectedDates).
		Msg("center rewards calculated")
	return result, nil
}

// tierRates returns the (commission, tuition) rates for a hierarchy depth:
// the direct center earns both, master and grand centers earn the commission
// override only.
func tierRates(setting *domain.RewardSetting, depth int) (decimal.Decimal, decimal.Decimal) {
	switch depth {
	case 0:
		return setting.CenterRate, setting.TuitionCenterRate
	case 1:
		return setting.MasterCenterRate, decimal.Zero
	default:
		return setting.GrandCenterRate, decimal.Zero
	}
}
