package payouts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garagio/garagio-backend/pkg/db/models"
	"github.com/garagio/garagio-backend/pkg/enums"
	pkgerrors "github.com/garagio/garagio-backend/pkg/errors"
)

func (fx *payoutFixture) seedSettledOrderWithoutPayout(total string) *models.Order {
	completed := fx.now.AddDate(0, 0, -1)
	order := &models.Order{
		ID:            uuid.New(),
		CustomerID:    uuid.New(),
		GarageID:      uuid.New(),
		Status:        enums.OrderStatusCompleted,
		PaymentStatus: enums.PaymentStatusPaid,
		TotalAmount:   decimal.RequireFromString(total),
		Currency:      enums.CurrencyQAR,
		CompletedAt:   &completed,
	}
	fx.repo.orders[order.ID] = order
	return order
}

func TestSchedulePayouts(t *testing.T) {
	fx := newFixture(t)
	order := fx.seedSettledOrderWithoutPayout("500.00")

	// Already scheduled and not-yet-settled orders are skipped.
	scheduled := fx.seedPayout(enums.PayoutStatusPending)
	fx.seedPaidOrder(scheduled, 1)
	fx.repo.orders[uuid.New()] = &models.Order{
		ID:            uuid.New(),
		Status:        enums.OrderStatusInDelivery,
		PaymentStatus: enums.PaymentStatusPaid,
		TotalAmount:   decimal.RequireFromString("100.00"),
		Currency:      enums.CurrencyQAR,
	}

	count, err := fx.svc.SchedulePayouts(context.Background(), SchedulePayoutsInput{
		CommissionRate: decimal.RequireFromString("0.15"),
	})
	if err != nil {
		t.Fatalf("SchedulePayouts error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 payout scheduled, got %d", count)
	}

	var created *models.GaragePayout
	for _, payout := range fx.repo.payouts {
		if payout.OrderID == order.ID {
			created = payout
		}
	}
	if created == nil {
		t.Fatal("expected a payout for the settled order")
	}
	if created.Status != enums.PayoutStatusPending || created.PayoutType != enums.PayoutTypeStandard {
		t.Fatalf("unexpected payout %+v", created)
	}
	if !created.CommissionAmount.Equal(decimal.RequireFromString("75.00")) {
		t.Fatalf("commission = %s", created.CommissionAmount)
	}
	if !created.NetAmount.Equal(decimal.RequireFromString("425.00")) {
		t.Fatalf("net = %s", created.NetAmount)
	}

	if len(fx.emitter.events) != 1 || fx.emitter.events[0].EventType != enums.EventPayoutScheduled {
		t.Fatalf("expected payout scheduled event, got %+v", fx.emitter.events)
	}
}

func TestSchedulePayoutsRejectsBadRate(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.SchedulePayouts(context.Background(), SchedulePayoutsInput{
		CommissionRate: decimal.RequireFromString("1.10"),
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestSweepDisputeHolds(t *testing.T) {
	fx := newFixture(t)

	// Pending payout with a blocking dispute gets held.
	disputed := fx.seedPayout(enums.PayoutStatusPending)
	fx.repo.disputes[uuid.New()] = &models.PayoutDispute{
		ID:       uuid.New(),
		PayoutID: disputed.ID,
		Status:   enums.DisputeStatusPending,
	}

	// Sweep-held payout whose dispute resolved gets released.
	resolved := fx.seedPayout(enums.PayoutStatusHeld)
	reason := disputeHoldReason
	resolved.HoldReason = &reason

	// An operator hold is never touched.
	operator := fx.seedPayout(enums.PayoutStatusHeld)
	operatorReason := "manual fraud review"
	operator.HoldReason = &operatorReason

	result, err := fx.svc.SweepDisputeHolds(context.Background())
	if err != nil {
		t.Fatalf("SweepDisputeHolds error: %v", err)
	}
	if result.Held != 1 || result.Released != 1 {
		t.Fatalf("unexpected sweep result %+v", result)
	}
	if disputed.Status != enums.PayoutStatusHeld {
		t.Fatalf("disputed payout status = %s", disputed.Status)
	}
	if got := fx.repo.updates[disputed.ID]["hold_reason"]; got != disputeHoldReason {
		t.Fatalf("hold_reason = %v", got)
	}
	if resolved.Status != enums.PayoutStatusPending {
		t.Fatalf("released payout status = %s", resolved.Status)
	}
	if operator.Status != enums.PayoutStatusHeld {
		t.Fatal("operator hold must stay in place")
	}
}

func TestSweepDisputeHoldsKeepsHoldWhileDisputeOpen(t *testing.T) {
	fx := newFixture(t)

	held := fx.seedPayout(enums.PayoutStatusHeld)
	reason := disputeHoldReason
	held.HoldReason = &reason
	fx.repo.disputes[uuid.New()] = &models.PayoutDispute{
		ID:       uuid.New(),
		PayoutID: held.ID,
		Status:   enums.DisputeStatusUnderReview,
	}

	result, err := fx.svc.SweepDisputeHolds(context.Background())
	if err != nil {
		t.Fatalf("SweepDisputeHolds error: %v", err)
	}
	if result.Released != 0 {
		t.Fatalf("expected no releases, got %d", result.Released)
	}
	if held.Status != enums.PayoutStatusHeld {
		t.Fatalf("payout status = %s", held.Status)
	}
}
