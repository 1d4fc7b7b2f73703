package payouts

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/garagio/garagio-backend/pkg/db/models"
	"github.com/garagio/garagio-backend/pkg/enums"
	pkgerrors "github.com/garagio/garagio-backend/pkg/errors"
	"github.com/garagio/garagio-backend/pkg/outbox"
	"github.com/garagio/garagio-backend/pkg/outbox/payloads"
)

// disputeHoldReason marks holds placed by the dispute sweep, so the sweep only
// releases its own holds and never an operator's.
const disputeHoldReason = "blocking dispute open"

// SchedulePayoutsInput configures one scheduling sweep.
type SchedulePayoutsInput struct {
	// CommissionRate is the marketplace cut as a fraction in [0, 1).
	CommissionRate decimal.Decimal
	BatchSize      int
}

// SweepResult reports what a dispute sweep changed.
type SweepResult struct {
	Held     int
	Released int
}

// SchedulePayouts creates one standard payout per completed, paid order that
// lacks one. The unique index on (order_id, payout_type) backstops the NOT
// EXISTS filter against concurrent schedulers.
func (s *service) SchedulePayouts(ctx context.Context, input SchedulePayoutsInput) (int, error) {
	if input.CommissionRate.IsNegative() || input.CommissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "commission rate must be in [0, 1)")
	}
	batch := input.BatchSize
	if batch <= 0 {
		batch = 200
	}

	var scheduled int
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		scheduled = 0

		orders, err := repo.ListOrdersAwaitingScheduleForUpdate(ctx, batch)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders awaiting payout")
		}

		for _, order := range orders {
			commission := order.TotalAmount.Mul(input.CommissionRate).Round(2)
			payout := &models.GaragePayout{
				OrderID:          order.ID,
				GarageID:         order.GarageID,
				Status:           enums.PayoutStatusPending,
				PayoutType:       enums.PayoutTypeStandard,
				GrossAmount:      order.TotalAmount,
				CommissionAmount: commission,
				NetAmount:        order.TotalAmount.Sub(commission),
				Currency:         order.Currency,
			}
			if err := repo.Create(ctx, payout); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout")
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPayoutScheduled,
				AggregateType: enums.AggregatePayout,
				AggregateID:   payout.ID,
				Version:       1,
				Data: payloads.PayoutScheduledEvent{
					PayoutID:  payout.ID,
					OrderID:   order.ID,
					GarageID:  order.GarageID,
					NetAmount: payout.NetAmount,
				},
			}); err != nil {
				return err
			}
			scheduled++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return scheduled, nil
}

// SweepDisputeHolds freezes pending payouts that gained a blocking dispute and
// lifts sweep-placed holds whose dispute has resolved.
func (s *service) SweepDisputeHolds(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		result = SweepResult{}

		toHold, err := repo.ListPendingWithBlockingDisputeForUpdate(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list disputed payouts")
		}
		for i := range toHold {
			payout := &toHold[i]
			if err := TransitionHold.Apply(payout); err != nil {
				return err
			}
			if err := repo.Update(ctx, payout.ID, map[string]any{
				"status":      payout.Status,
				"hold_reason": disputeHoldReason,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "hold payout")
			}
			result.Held++
		}

		candidates, err := repo.ListHeldByReasonForUpdate(ctx, disputeHoldReason)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list held payouts")
		}
		for i := range candidates {
			payout := &candidates[i]
			dispute, err := repo.FindBlockingDisputeByPayout(ctx, payout.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check disputes")
			}
			if dispute != nil {
				continue
			}
			if err := TransitionRelease.Apply(payout); err != nil {
				return err
			}
			if err := repo.Update(ctx, payout.ID, map[string]any{
				"status":      payout.Status,
				"hold_reason": nil,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release payout")
			}
			result.Released++
		}
		return nil
	})
	if err != nil {
		return SweepResult{}, err
	}
	return result, nil
}
