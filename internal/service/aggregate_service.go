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

// TransferAggregatorService implements ports.TransferAggregator. It merges
// the commission and center reward ledgers on recipient reference code and
// writes one pending payable record per recipient, stamped with the run date.
type TransferAggregatorService struct {
	commissionRepo ports.CommissionRewardRepository
	centerRepo     ports.CenterRewardRepository
	payableRepo    ports.PayableRepository
	now            func() time.Time
	log            zerolog.Logger
}

// NewTransferAggregatorService creates a new TransferAggregatorService.
func NewTransferAggregatorService(
	commissionRepo ports.CommissionRewardRepository,
	centerRepo ports.CenterRewardRepository,
	payableRepo ports.PayableRepository,
	log zerolog.Logger,
) *TransferAggregatorService {
	return &TransferAggregatorService{
		commissionRepo: commissionRepo,
		centerRepo:     centerRepo,
		payableRepo:    payableRepo,
		now:            time.Now,
		log:            log,
	}
}

type payableAccum struct {
	refCode             string
	name                *string
	walletAddress       *string
	amountInvite        decimal.Decimal
	amountCenterFee     decimal.Decimal
	amountCenterTuition decimal.Decimal
}

// Aggregate merges both reward ledgers (optionally date-scoped) into payable
// records for today's run date. An empty merge is a success with zero rows.
func (s *TransferAggregatorService) Aggregate(ctx context.Context, rewardDate *string) (*ports.AggregateResult, error) {
	if rewardDate != nil && !domain.ValidRewardDate(*rewardDate) {
		return nil, apperror.ErrInvalidRewardDate(*rewardDate)
	}

	invites, err := s.commissionRepo.ListForAggregation(ctx, rewardDate)
	if err != nil {
		return nil, apperror.ErrRewardLedgerLoad(err)
	}
	centers, err := s.centerRepo.ListForAggregation(ctx, rewardDate)
	if err != nil {
		return nil, apperror.ErrRewardLedgerLoad(err)
	}

	accums := make(map[string]*payableAccum)
	get := func(refCode string, name, wallet *string) *payableAccum {
		acc := accums[refCode]
		if acc == nil {
			acc = &payableAccum{
				refCode:             refCode,
				amountInvite:        decimal.Zero,
				amountCenterFee:     decimal.Zero,
				amountCenterTuition: decimal.Zero,
			}
			accums[refCode] = acc
		}
		// First non-empty value wins, whichever ledger supplies it.
		if acc.name == nil && name != nil && *name != "" {
			acc.name = name
		}
		if acc.walletAddress == nil && wallet != nil && *wallet != "" {
			acc.walletAddress = wallet
		}
		return acc
	}

	for i := range invites {
		e := &invites[i]
		acc := get(e.RefCode, e.Name, e.WalletAddress)
		acc.amountInvite = acc.amountInvite.Add(e.Amount)
	}
	for i := range centers {
		e := &centers[i]
		acc := get(e.RefCode, e.Name, e.WalletAddress)
		acc.amountCenterFee = acc.amountCenterFee.Add(e.AmountFee)
		acc.amountCenterTuition = acc.amountCenterTuition.Add(e.AmountTuition)
	}

	runDate := domain.RewardDateOf(s.now())
	result := &ports.AggregateResult{Recipients: len(accums), RewardDate: runDate}
	if len(accums) == 0 {
		s.log.Info().Str("reward_date", runDate).Msg("transfer aggregation found nothing to pay")
		return result, nil
	}

	now := s.now().UTC()
	records := make([]domain.PayableRecord, 0, len(accums))
	for _, acc := range accums {
		invite := acc.amountInvite.Round(domain.AmountPrecision)
		centerFee := acc.amountCenterFee.Round(domain.AmountPrecision)
		centerTuition := acc.amountCenterTuition.Round(domain.AmountPrecision)
		records = append(records, domain.PayableRecord{
			ID:                  uuid.New(),
			RefCode:             acc.refCode,
			Name:                acc.name,
			WalletAddress:       acc.walletAddress,
			AmountInvite:        invite,
			AmountCenterFee:     centerFee,
			AmountCenterTuition: centerTuition,
			TotalAmount:         invite.Add(centerFee).Add(centerTuition).Round(domain.AmountPrecision),
			RewardDate:          runDate,
			Status:              domain.PayableStatusPending,
			CreatedAt:           now,
			UpdatedAt:           now,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].RefCode < records[j].RefCode })

	inserted, err := s.payableRepo.BulkInsert(ctx, records)
	if err != nil {
		return nil, apperror.ErrPayableWrite(err)
	}
	result.Inserted = inserted

	s.log.Info().
		Str("reward_date", runDate).
		Int("recipients", len(records)).
		Int("inserted", inserted).
		Msg("payable records aggregated")
	return result, nil
}
