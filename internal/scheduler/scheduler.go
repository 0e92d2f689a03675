package scheduler

import (
	"context"

	"github.com/RSAC2025/rsac/internal/core/domain"
	"github.com/RSAC2025/rsac/internal/core/ports"

	"github.com/jasonlvhit/gocron"
	"github.com/rs/zerolog"
)

// DailyRunner drives the full pipeline once a day: commission calculation,
// center calculation, transfer aggregation, then disbursement. Stage errors
// are logged and the run continues with whatever the earlier stages managed
// to persist; the next day's run picks up the remainder.
type DailyRunner struct {
	commission ports.CommissionCalculator
	center     ports.CenterCalculator
	aggregator ports.TransferAggregator
	disburser  ports.DisbursementEngine
	runAt      string // HH:MM:SS in the reporting timezone
	log        zerolog.Logger
}

// NewDailyRunner creates a new DailyRunner.
func NewDailyRunner(
	commission ports.CommissionCalculator,
	center ports.CenterCalculator,
	aggregator ports.TransferAggregator,
	disburser ports.DisbursementEngine,
	runAt string,
	log zerolog.Logger,
) *DailyRunner {
	return &DailyRunner{
		commission: commission,
		center:     center,
		aggregator: aggregator,
		disburser:  disburser,
		runAt:      runAt,
		log:        log,
	}
}

// Start blocks, firing RunOnce daily at the configured time. Call it from its
// own goroutine.
func (r *DailyRunner) Start() {
	s := gocron.NewScheduler()
	s.ChangeLoc(domain.ReportingZone)
	if err := s.Every(1).Day().At(r.runAt).Do(r.runScheduled); err != nil {
		r.log.Error().Err(err).Str("run_at", r.runAt).Msg("failed to schedule daily reward run")
		return
	}
	r.log.Info().Str("run_at", r.runAt).Msg("daily reward pipeline scheduled")
	<-s.Start()
}

func (r *DailyRunner) runScheduled() {
	r.RunOnce(context.Background())
}

// RunOnce executes the four pipeline stages in order for the current day.
func (r *DailyRunner) RunOnce(ctx context.Context) {
	today := domain.TodayKST()
	log := r.log.With().Str("reward_date", today).Logger()
	log.Info().Msg("daily reward pipeline starting")

	if res, err := r.commission.Calculate(ctx, ports.CalcRequest{RewardDate: &today}); err != nil {
		log.Error().Err(err).Msg("commission calculation failed")
	} else {
		log.Info().Int("inserted", res.Inserted).Str("partial_error", res.PartialError).
			Msg("commission calculation done")
	}

	if res, err := r.center.Calculate(ctx, ports.CalcRequest{RewardDate: &today}); err != nil {
		log.Error().Err(err).Msg("center calculation failed")
	} else {
		log.Info().Int("inserted", res.Inserted).Str("partial_error", res.PartialError).
			Msg("center calculation done")
	}

	if res, err := r.aggregator.Aggregate(ctx, &today); err != nil {
		log.Error().Err(err).Msg("transfer aggregation failed")
		// Without fresh payables there is nothing new to pay, but failed
		// records from earlier runs may still be retryable.
	} else {
		log.Info().Int("recipients", res.Recipients).Int("inserted", res.Inserted).
			Msg("transfer aggregation done")
	}

	if res, err := r.disburser.Disburse(ctx, today); err != nil {
		log.Error().Err(err).Msg("disbursement failed")
	} else {
		log.Info().
			Int("selected", res.Selected).
			Int("succeeded", res.Succeeded).
			Int("failed", res.Failed).
			Int("skipped", res.Skipped).
			Int("alerts", res.Alerts).
			Msg("disbursement done")
	}

	log.Info().Msg("daily reward pipeline finished")
}
