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

const disburseLockKey = "disburse"

// DisbursementService implements ports.DisbursementEngine. It drains the
// pending and failed payables for one reward date, claims each record before
// transferring so concurrent runs cannot double-pay, and records the outcome
// per record. One record's failure never aborts the batch.
type DisbursementService struct {
	payableRepo     ports.PayableRepository
	transfer        ports.AssetTransferClient
	locker          ports.RunLocker
	lockEnabled     bool
	lockTTL         time.Duration
	transferTimeout time.Duration
	log             zerolog.Logger
}

// NewDisbursementService creates a new DisbursementService.
func NewDisbursementService(
	payableRepo ports.PayableRepository,
	transfer ports.AssetTransferClient,
	locker ports.RunLocker,
	lockEnabled bool,
	lockTTL time.Duration,
	transferTimeout time.Duration,
	log zerolog.Logger,
) *DisbursementService {
	return &DisbursementService{
		payableRepo:     payableRepo,
		transfer:        transfer,
		locker:          locker,
		lockEnabled:     lockEnabled,
		lockTTL:         lockTTL,
		transferTimeout: transferTimeout,
		log:             log,
	}
}

// Disburse pays out the disbursable records for rewardDate. Records with a
// non-positive total or a missing/malformed destination are skipped and left
// untouched. Re-running after a fully successful run selects nothing.
func (s *DisbursementService) Disburse(ctx context.Context, rewardDate string) (*ports.DisburseResult, error) {
	if !domain.ValidRewardDate(rewardDate) {
		return nil, apperror.ErrInvalidRewardDate(rewardDate)
	}

	if s.lockEnabled {
		ok, err := s.locker.Acquire(ctx, disburseLockKey, s.lockTTL)
		if err != nil {
			return nil, apperror.InternalError(err)
		}
		if !ok {
			return nil, apperror.ErrDisburseRunning(rewardDate)
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), disburseLockKey); err != nil {
				s.log.Warn().Err(err).Msg("failed to release disbursement run lock")
			}
		}()
	}

	records, err := s.payableRepo.ListDisbursable(ctx, rewardDate)
	if err != nil {
		return nil, apperror.ErrPayableLoad(err)
	}

	result := &ports.DisburseResult{
		RewardDate: rewardDate,
		Selected:   len(records),
		Outcomes:   make([]ports.DisburseOutcome, 0, len(records)),
	}
	if len(records) == 0 {
		s.log.Info().Str("reward_date", rewardDate).Msg("no disbursable payables")
		return result, nil
	}

	for i := range records {
		outcome := s.disburseOne(ctx, &records[i], result)
		result.Outcomes = append(result.Outcomes, outcome)
	}

	s.log.Info().
		Str("reward_date", rewardDate).
		Int("selected", result.Selected).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Int("alerts", result.Alerts).
		Msg("disbursement run finished")
	return result, nil
}

func (s *DisbursementService) disburseOne(ctx context.Context, rec *domain.PayableRecord, result *ports.DisburseResult) ports.DisburseOutcome {
	outcome := ports.DisburseOutcome{
		RefCode: rec.RefCode,
		Amount:  rec.TotalAmount,
		Status:  rec.Status,
	}
	if rec.WalletAddress != nil {
		outcome.WalletAddress = *rec.WalletAddress
	}

	// Skipped records keep their current status so a later run can still
	// pick them up once the data is fixed. The status gate lives in the
	// listing query and the claim transition; the amount gate is here.
	if !rec.TotalAmount.IsPositive() {
		result.Skipped++
		outcome.Reason = "non-positive total amount"
		s.log.Warn().Str("ref_code", rec.RefCode).Str("reward_date", rec.RewardDate).
			Msg("skipping payable with non-positive total")
		return outcome
	}
	if !rec.HasDestination() || !s.transfer.ValidAddress(*rec.WalletAddress) {
		result.Skipped++
		outcome.Reason = "missing or invalid wallet address"
		s.log.Warn().Str("ref_code", rec.RefCode).Str("reward_date", rec.RewardDate).
			Msg("skipping payable without usable wallet address")
		return outcome
	}

	attemptID := uuid.New()
	claimed, err := s.payableRepo.Claim(ctx, rec.ID, attemptID)
	if err != nil {
		result.Failed++
		outcome.Status = domain.PayableStatusFailed
		outcome.Reason = domain.TruncateReason(err.Error())
		s.log.Error().Err(err).Str("ref_code", rec.RefCode).Msg("failed to claim payable")
		return outcome
	}
	if !claimed {
		// Another attempt already holds this record.
		result.Skipped++
		outcome.Status = domain.PayableStatusProcessing
		outcome.Reason = "already claimed by another attempt"
		return outcome
	}

	transferCtx := ctx
	if s.transferTimeout > 0 {
		var cancel context.CancelFunc
		transferCtx, cancel = context.WithTimeout(ctx, s.transferTimeout)
		defer cancel()
	}

	txHash, err := s.transfer.Transfer(transferCtx, *rec.WalletAddress, rec.TotalAmount)
	if err != nil {
		reason := domain.TruncateReason(err.Error())
		if markErr := s.payableRepo.MarkFailed(ctx, rec.ID, reason); markErr != nil {
			s.log.Error().Err(markErr).Str("ref_code", rec.RefCode).
				Str("attempt_id", attemptID.String()).
				Msg("failed to record transfer failure")
		}
		result.Failed++
		outcome.Status = domain.PayableStatusFailed
		outcome.Reason = reason
		s.log.Error().Err(err).
			Str("ref_code", rec.RefCode).
			Str("amount", rec.TotalAmount.String()).
			Msg("transfer failed")
		return outcome
	}

	if err := s.payableRepo.MarkSuccess(ctx, rec.ID, txHash); err != nil {
		// Funds have moved but the ledger still says processing. This must
		// never be retried automatically; flag it for the operator.
		result.Alerts++
		result.Succeeded++
		outcome.Status = domain.PayableStatusSuccess
		outcome.TxHash = txHash
		outcome.Reason = "transfer succeeded but status write failed"
		s.log.Error().Err(err).
			Bool("alert", true).
			Str("ref_code", rec.RefCode).
			Str("tx_hash", txHash).
			Str("attempt_id", attemptID.String()).
			Msg("transfer succeeded but status write failed; manual reconciliation required")
		return outcome
	}

	result.Succeeded++
	outcome.Status = domain.PayableStatusSuccess
	outcome.TxHash = txHash
	s.log.Info().
		Str("ref_code", rec.RefCode).
		Str("amount", rec.TotalAmount.String()).
		Str("tx_hash", txHash).
		Msg("payable disbursed")
	return outcome
}
