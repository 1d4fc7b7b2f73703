package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/garagio/garagio-backend/internal/payouts"
	"github.com/garagio/garagio-backend/pkg/db"
	"github.com/garagio/garagio-backend/pkg/logger"
)

const autoConfirmMaxRetries = 3

type payoutAutoConfirmer interface {
	AutoConfirmDue(ctx context.Context, input payouts.AutoConfirmInput) (int, error)
}

// PayoutAutoConfirmJobParams configures the scheduled auto-confirm sweep.
type PayoutAutoConfirmJobParams struct {
	Logger  *logger.Logger
	Payouts payoutAutoConfirmer
}

// NewPayoutAutoConfirmJob constructs the auto-confirm cron job.
func NewPayoutAutoConfirmJob(params PayoutAutoConfirmJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payouts == nil {
		return nil, fmt.Errorf("payouts service required")
	}
	return &payoutAutoConfirmJob{
		logg:    params.Logger,
		payouts: params.Payouts,
	}, nil
}

type payoutAutoConfirmJob struct {
	logg    *logger.Logger
	payouts payoutAutoConfirmer
}

func (j *payoutAutoConfirmJob) Name() string { return "payout-auto-confirm" }

// Run confirms every payout that sat unconfirmed past the complaint window.
// The sweep runs at serializable isolation, so serialization failures are
// retried a few times before giving up.
func (j *payoutAutoConfirmJob) Run(ctx context.Context) error {
	var (
		count int
		err   error
	)
	for attempt := 1; attempt <= autoConfirmMaxRetries; attempt++ {
		count, err = j.payouts.AutoConfirmDue(ctx, payouts.AutoConfirmInput{})
		if err == nil || !db.IsSerializationFailure(err) {
			break
		}
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{
			"attempt": attempt,
		}), "auto-confirm sweep hit a serialization failure; retrying")
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	if err != nil {
		return fmt.Errorf("payout auto-confirm: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"payouts_confirmed": count,
	})
	j.logg.Info(logCtx, "payout auto-confirm sweep complete")
	return nil
}
