package cron

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/garagio/garagio-backend/internal/payouts"
	"github.com/garagio/garagio-backend/pkg/logger"
)

type payoutScheduler interface {
	SchedulePayouts(ctx context.Context, input payouts.SchedulePayoutsInput) (int, error)
}

// PayoutScheduleJobParams configures the payout scheduling sweep.
type PayoutScheduleJobParams struct {
	Logger         *logger.Logger
	Payouts        payoutScheduler
	CommissionRate decimal.Decimal
	BatchSize      int
}

// NewPayoutScheduleJob constructs the job that creates standard payouts for
// settled orders.
func NewPayoutScheduleJob(params PayoutScheduleJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payouts == nil {
		return nil, fmt.Errorf("payouts service required")
	}
	if params.CommissionRate.IsNegative() || params.CommissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("commission rate must be in [0, 1), got %s", params.CommissionRate)
	}
	return &payoutScheduleJob{
		logg:  params.Logger,
		svc:   params.Payouts,
		rate:  params.CommissionRate,
		batch: params.BatchSize,
	}, nil
}

type payoutScheduleJob struct {
	logg  *logger.Logger
	svc   payoutScheduler
	rate  decimal.Decimal
	batch int
}

func (j *payoutScheduleJob) Name() string { return "payout-schedule" }

func (j *payoutScheduleJob) Run(ctx context.Context) error {
	scheduled, err := j.svc.SchedulePayouts(ctx, payouts.SchedulePayoutsInput{
		CommissionRate: j.rate,
		BatchSize:      j.batch,
	})
	if err != nil {
		return fmt.Errorf("payout schedule: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"payouts_scheduled": scheduled,
		"commission_rate":   j.rate,
	})
	j.logg.Info(logCtx, "payout schedule sweep complete")
	return nil
}
