package cron

import (
	"context"
	"fmt"

	"github.com/garagio/garagio-backend/internal/payouts"
	"github.com/garagio/garagio-backend/pkg/logger"
)

type payoutDisputeSweeper interface {
	SweepDisputeHolds(ctx context.Context) (payouts.SweepResult, error)
}

// PayoutDisputeSweepJobParams configures the dispute hold/release sweep.
type PayoutDisputeSweepJobParams struct {
	Logger  *logger.Logger
	Payouts payoutDisputeSweeper
}

// NewPayoutDisputeSweepJob constructs the job that keeps administrative holds
// in sync with blocking disputes.
func NewPayoutDisputeSweepJob(params PayoutDisputeSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payouts == nil {
		return nil, fmt.Errorf("payouts service required")
	}
	return &payoutDisputeSweepJob{
		logg: params.Logger,
		svc:  params.Payouts,
	}, nil
}

type payoutDisputeSweepJob struct {
	logg *logger.Logger
	svc  payoutDisputeSweeper
}

func (j *payoutDisputeSweepJob) Name() string { return "payout-dispute-sweep" }

func (j *payoutDisputeSweepJob) Run(ctx context.Context) error {
	result, err := j.svc.SweepDisputeHolds(ctx)
	if err != nil {
		return fmt.Errorf("payout dispute sweep: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"payouts_held":     result.Held,
		"payouts_released": result.Released,
	})
	j.logg.Info(logCtx, "payout dispute sweep complete")
	return nil
}
