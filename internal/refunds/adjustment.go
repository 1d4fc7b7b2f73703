package refunds

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/garagio/garagio-backend/pkg/db/models"
	"github.com/garagio/garagio-backend/pkg/enums"
	pkgerrors "github.com/garagio/garagio-backend/pkg/errors"
)

// PayoutAdjustment reports how a refund touched the garage's settlement.
type PayoutAdjustment string

const (
	PayoutAdjustmentNone     PayoutAdjustment = "none"
	PayoutAdjustmentReduced  PayoutAdjustment = "reduced_in_place"
	PayoutAdjustmentReversal PayoutAdjustment = "reversal_created"
)

// applyPayoutAdjustment keeps the garage's settlement consistent with a refund.
// A payout that has not left the platform is reduced in place; a payout that
// already reached the garage gets a reversal row clawing the money back. Never
// both for the same refund.
func (s *service) applyPayoutAdjustment(ctx context.Context, repo Repository, order *models.Order, refund *models.Refund) (PayoutAdjustment, error) {
	payout, err := repo.FindStandardPayoutByOrderForUpdate(ctx, order.ID)
	if err != nil {
		return PayoutAdjustmentNone, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
	}
	if payout == nil {
		return PayoutAdjustmentNone, nil
	}

	reduction := proportionalReduction(payout.NetAmount, refund.Amount, order.TotalAmount)
	if reduction.IsZero() {
		return PayoutAdjustmentNone, nil
	}

	switch payout.Status {
	case enums.PayoutStatusPending, enums.PayoutStatusProcessing, enums.PayoutStatusHeld:
		newNet := payout.NetAmount.Sub(reduction)
		if newNet.IsNegative() {
			newNet = decimal.Zero
		}
		if err := repo.UpdatePayout(ctx, payout.ID, map[string]any{
			"net_amount": newNet,
		}); err != nil {
			return PayoutAdjustmentNone, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reduce payout")
		}
		return PayoutAdjustmentReduced, nil

	case enums.PayoutStatusAwaitingConfirmation, enums.PayoutStatusConfirmed,
		enums.PayoutStatusCompleted, enums.PayoutStatusDisputed:
		reversal := &models.GaragePayout{
			OrderID:          payout.OrderID,
			GarageID:         payout.GarageID,
			Status:           enums.PayoutStatusPending,
			PayoutType:       enums.PayoutTypeReversal,
			GrossAmount:      reduction.Neg(),
			CommissionAmount: decimal.Zero,
			NetAmount:        reduction.Neg(),
			Currency:         payout.Currency,
		}
		if err := repo.CreatePayout(ctx, reversal); err != nil {
			return PayoutAdjustmentNone, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reversal payout")
		}
		return PayoutAdjustmentReversal, nil
	}

	// Cancelled payouts carry no money to claw back.
	return PayoutAdjustmentNone, nil
}

// proportionalReduction is the slice of the payout's net matching the refunded
// share of the order total, rounded half-up to two decimal places.
func proportionalReduction(payoutNet, refundAmount, orderTotal decimal.Decimal) decimal.Decimal {
	if !orderTotal.IsPositive() || !payoutNet.IsPositive() {
		return decimal.Zero
	}
	return payoutNet.Mul(refundAmount).Div(orderTotal).Round(2)
}
