package service

import (
	"context"
	"time"

	"github.com/RSAC2025/rsac/internal/core/domain"
	"github.com/RSAC2025/rsac/internal/core/ports"
	"github.com/RSAC2025/rsac/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	memoSelfReward = "fee self reward"
	memoRef1Reward = "fee invite-1 reward"
	memoRef2Reward = "fee invite-2 reward"
)

// CommissionCalcService implements ports.CommissionCalculator. For each fee
// event with a positive commission it credits the payer (level 0) and up to
// two referrers (levels 1 and 2) at the configured rates. Entries carry the
// fee event's reward date, not the run date.
type CommissionCalcService struct {
	feeRepo     ports.FeeEventRepository
	settingRepo ports.RewardSettingRepository
	rewardRepo  ports.CommissionRewardRepository
	batchSize   int
	log         zerolog.Logger
}

// NewCommissionCalcService creates a new CommissionCalcService.
func NewCommissionCalcService(
	feeRepo ports.FeeEventRepository,
	settingRepo ports.RewardSettingRepository,
	rewardRepo ports.CommissionRewardRepository,
	batchSize int,
	log zerolog.Logger,
) *CommissionCalcService {
	return &CommissionCalcService{
		feeRepo:     feeRepo,
		settingRepo: settingRepo,
		rewardRepo:  rewardRepo,
		batchSize:   batchSize,
		log:         log,
	}
}

// Calculate computes and persists commission reward entries.
func (s *CommissionCalcService) Calculate(ctx context.Context, req ports.CalcRequest) (*ports.CalcResult, error) {
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

	now := time.Now().UTC()
	var entries []domain.CommissionRewardEntry
	for i := range events {
		f := &events[i]
		if !f.HasCommission() {
			continue
		}

		if setting.SelfRate.IsPositive() {
			entries = append(entries, domain.CommissionRewardEntry{
				ID:            uuid.New(),
				FeeEventID:    f.ID,
				RefCode:       f.RefCode,
				Name:          f.Name,
				WalletAddress: f.WalletAddress,
				RewardDate:    f.RewardDate,
				Amount:        domain.ApplyRate(f.FeeCommission, setting.SelfRate),
				Level:         domain.LevelSelf,
				Memo:          memoSelfReward,
				CreatedAt:     now,
			})
		}
		if f.RefBy1 != nil && *f.RefBy1 != "" && setting.Ref1Rate.IsPositive() {
			entries = append(entries, domain.CommissionRewardEntry{
				ID:         uuid.New(),
				FeeEventID: f.ID,
				RefCode:    *f.RefBy1,
				RewardDate: f.RewardDate,
				Amount:     domain.ApplyRate(f.FeeCommission, setting.Ref1Rate),
				Level:      domain.LevelRef1,
				Memo:       memoRef1Reward,
				CreatedAt:  now,
			})
		}
		if f.RefBy2 != nil && *f.RefBy2 != "" && setting.Ref2Rate.IsPositive() {
			entries = append(entries, domain.CommissionRewardEntry{
				ID:         uuid.New(),
				FeeEventID: f.ID,
				RefCode:    *f.RefBy2,
				RewardDate: f.RewardDate,
				Amount:     domain.ApplyRate(f.FeeCommission, setting.Ref2Rate),
				Level:      domain.LevelRef2,
				Memo:       memoRef2Reward,
				CreatedAt:  now,
			})
		}
	}

	result := &ports.CalcResult{Events: len(events), Computed: len(entries)}
	if len(entries) == 0 {
		s.log.Info().Int("events", len(events)).Msg("commission calculation produced no rewards")
		return result, nil
	}

	inserted, err := s.rewardRepo.BulkInsert(ctx, entries, s.batchSize)
	result.Inserted = inserted
	if err != nil {
		// The committed prefix stays durable; the operator decides whether
		// to re-run (recomputation is conflict-safe).
		result.PartialError = err.Error()
		s.log.Error().Err(err).
			Int("computed", len(entries)).
			Int("inserted", inserted).
			Msg("commission reward bulk insert failed partway")
		return result, nil
	}

	s.log.Info().
		Int("events", len(events)).
		Int("inserted", inserted).
		Msg("commission rewards calculated")
	return result, nil
}
