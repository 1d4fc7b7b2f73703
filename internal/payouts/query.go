package payouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garagio/garagio-backend/pkg/db/models"
	"github.com/garagio/garagio-backend/pkg/enums"
	pkgerrors "github.com/garagio/garagio-backend/pkg/errors"
	"github.com/garagio/garagio-backend/pkg/pagination"
)

func (s *service) GetPayout(ctx context.Context, payoutID uuid.UUID) (*PayoutResponse, error) {
	if payoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}

	payout, err := s.repo.FindByID(ctx, payoutID)
	if err != nil {
		return nil, mapPayoutLookupErr(err)
	}
	return toPayoutResponse(payout), nil
}

func (s *service) ListPayouts(ctx context.Context, params ListPayoutsParams) (*ListPayoutsResult, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payout status filter")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	payouts, next, err := s.repo.List(ctx, listPayoutsParams{
		GarageID: params.GarageID,
		Status:   params.Status,
		Limit:    params.Limit,
		Cursor:   cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}

	result := &ListPayoutsResult{Payouts: make([]PayoutResponse, 0, len(payouts))}
	for i := range payouts {
		result.Payouts = append(result.Payouts, *toPayoutResponse(&payouts[i]))
	}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) Summary(ctx context.Context, garageID uuid.UUID) (*PayoutSummary, error) {
	if garageID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "garage id required")
	}

	rows, err := s.repo.SummaryByGarage(ctx, garageID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate payouts")
	}

	summary := &PayoutSummary{
		GarageID:       garageID,
		PendingTotal:   decimal.Zero,
		AwaitingTotal:  decimal.Zero,
		ConfirmedTotal: decimal.Zero,
		CompletedTotal: decimal.Zero,
	}
	for _, row := range rows {
		switch row.Status {
		case enums.PayoutStatusPending, enums.PayoutStatusProcessing, enums.PayoutStatusHeld:
			summary.PendingTotal = summary.PendingTotal.Add(row.Total)
			summary.PendingCount += row.Count
		case enums.PayoutStatusAwaitingConfirmation:
			summary.AwaitingTotal = summary.AwaitingTotal.Add(row.Total)
			summary.AwaitingCount += row.Count
		case enums.PayoutStatusConfirmed:
			summary.ConfirmedTotal = summary.ConfirmedTotal.Add(row.Total)
			summary.ConfirmedCount += row.Count
		case enums.PayoutStatusCompleted:
			summary.CompletedTotal = summary.CompletedTotal.Add(row.Total)
			summary.CompletedCount += row.Count
		}
	}
	return summary, nil
}

func (s *service) AwaitingConfirmation(ctx context.Context, garageID uuid.UUID) ([]AwaitingPayout, error) {
	if garageID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "garage id required")
	}

	payouts, err := s.repo.ListAwaitingByGarage(ctx, garageID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list awaiting payouts")
	}

	now := s.now()
	out := make([]AwaitingPayout, 0, len(payouts))
	for i := range payouts {
		payout := &payouts[i]
		out = append(out, AwaitingPayout{
			PayoutResponse:       *toPayoutResponse(payout),
			DaysUntilAutoConfirm: daysUntilAutoConfirm(payout.SentAt, now),
		})
	}
	return out, nil
}

// daysUntilAutoConfirm counts whole days (rounded up, floored at zero) before
// the sweep confirms an unacknowledged payout.
func daysUntilAutoConfirm(sentAt *time.Time, now time.Time) int {
	if sentAt == nil {
		return models.WarrantyDays
	}
	deadline := sentAt.AddDate(0, 0, models.WarrantyDays)
	if !now.Before(deadline) {
		return 0
	}
	left := deadline.Sub(now)
	days := int(left / (24 * time.Hour))
	if left%(24*time.Hour) > 0 {
		days++
	}
	return days
}
