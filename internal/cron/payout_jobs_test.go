package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/garagio/garagio-backend/internal/payouts"
	"github.com/garagio/garagio-backend/pkg/logger"
)

type fakePayoutService struct {
	autoConfirmed int
	autoErrs      []error
	autoCalls     int

	scheduleInput *payouts.SchedulePayoutsInput
	scheduled     int
	scheduleErr   error

	sweepResult payouts.SweepResult
	sweepErr    error
}

func (f *fakePayoutService) AutoConfirmDue(ctx context.Context, input payouts.AutoConfirmInput) (int, error) {
	f.autoCalls++
	if len(f.autoErrs) > 0 {
		err := f.autoErrs[0]
		f.autoErrs = f.autoErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	return f.autoConfirmed, nil
}

func (f *fakePayoutService) SchedulePayouts(ctx context.Context, input payouts.SchedulePayoutsInput) (int, error) {
	f.scheduleInput = &input
	return f.scheduled, f.scheduleErr
}

func (f *fakePayoutService) SweepDisputeHolds(ctx context.Context) (payouts.SweepResult, error) {
	return f.sweepResult, f.sweepErr
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test"})
}

func TestPayoutAutoConfirmJobRetriesSerializationFailures(t *testing.T) {
	svc := &fakePayoutService{
		autoConfirmed: 4,
		autoErrs: []error{
			errors.New("ERROR: could not serialize access due to concurrent update (SQLSTATE 40001)"),
			nil,
		},
	}
	job, err := NewPayoutAutoConfirmJob(PayoutAutoConfirmJobParams{Logger: testLogger(), Payouts: svc})
	if err != nil {
		t.Fatalf("NewPayoutAutoConfirmJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if svc.autoCalls != 2 {
		t.Fatalf("expected 2 attempts, got %d", svc.autoCalls)
	}
}

func TestPayoutAutoConfirmJobPropagatesOtherErrors(t *testing.T) {
	svc := &fakePayoutService{autoErrs: []error{errors.New("boom")}}
	job, err := NewPayoutAutoConfirmJob(PayoutAutoConfirmJobParams{Logger: testLogger(), Payouts: svc})
	if err != nil {
		t.Fatalf("NewPayoutAutoConfirmJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if svc.autoCalls != 1 {
		t.Fatalf("expected a single attempt, got %d", svc.autoCalls)
	}
}

func TestPayoutScheduleJobPassesConfig(t *testing.T) {
	svc := &fakePayoutService{scheduled: 7}
	job, err := NewPayoutScheduleJob(PayoutScheduleJobParams{
		Logger:         testLogger(),
		Payouts:        svc,
		CommissionRate: decimal.RequireFromString("0.15"),
		BatchSize:      50,
	})
	if err != nil {
		t.Fatalf("NewPayoutScheduleJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if svc.scheduleInput == nil {
		t.Fatal("expected SchedulePayouts call")
	}
	if !svc.scheduleInput.CommissionRate.Equal(decimal.RequireFromString("0.15")) {
		t.Fatalf("unexpected commission rate %s", svc.scheduleInput.CommissionRate)
	}
	if svc.scheduleInput.BatchSize != 50 {
		t.Fatalf("unexpected batch size %d", svc.scheduleInput.BatchSize)
	}
}

func TestPayoutScheduleJobRejectsBadRate(t *testing.T) {
	_, err := NewPayoutScheduleJob(PayoutScheduleJobParams{
		Logger:         testLogger(),
		Payouts:        &fakePayoutService{},
		CommissionRate: decimal.RequireFromString("1.5"),
	})
	if err == nil {
		t.Fatal("expected rate validation error")
	}
}

func TestPayoutDisputeSweepJob(t *testing.T) {
	svc := &fakePayoutService{sweepResult: payouts.SweepResult{Held: 2, Released: 1}}
	job, err := NewPayoutDisputeSweepJob(PayoutDisputeSweepJobParams{Logger: testLogger(), Payouts: svc})
	if err != nil {
		t.Fatalf("NewPayoutDisputeSweepJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestPayoutDisputeSweepJobPropagatesErrors(t *testing.T) {
	svc := &fakePayoutService{sweepErr: errors.New("deadlock")}
	job, err := NewPayoutDisputeSweepJob(PayoutDisputeSweepJobParams{Logger: testLogger(), Payouts: svc})
	if err != nil {
		t.Fatalf("NewPayoutDisputeSweepJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
