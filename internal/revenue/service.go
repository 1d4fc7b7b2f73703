package revenue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/garagio/garagio-backend/pkg/errors"
	"github.com/garagio/garagio-backend/pkg/logger"
	"github.com/garagio/garagio-backend/pkg/pagination"
)

// ReportPeriod is a rolling window the revenue report can cover.
type ReportPeriod string

const (
	Period7d  ReportPeriod = "7d"
	Period30d ReportPeriod = "30d"
	Period90d ReportPeriod = "90d"
)

var periodDays = map[ReportPeriod]int{
	Period7d:  7,
	Period30d: 30,
	Period90d: 90,
}

// RevenueReport summarizes platform money movement over a rolling window.
// NetRevenue is what the platform keeps: collected order money minus settled
// refunds minus the net amount owed to garages.
type RevenueReport struct {
	Period            ReportPeriod    `json:"period"`
	From              time.Time       `json:"from"`
	To                time.Time       `json:"to"`
	GrossOrderVolume  decimal.Decimal `json:"gross_order_volume"`
	OrderCount        int64           `json:"order_count"`
	RefundTotal       decimal.Decimal `json:"refund_total"`
	RefundCount       int64           `json:"refund_count"`
	CommissionRevenue decimal.Decimal `json:"commission_revenue"`
	PayoutGrossTotal  decimal.Decimal `json:"payout_gross_total"`
	PayoutNetTotal    decimal.Decimal `json:"payout_net_total"`
	PayoutCount       int64           `json:"payout_count"`
	NetRevenue        decimal.Decimal `json:"net_revenue"`
}

// Transaction is one entry in the merged movement feed.
type Transaction struct {
	ID             uuid.UUID       `json:"id"`
	Kind           string          `json:"kind"`
	OrderID        uuid.UUID       `json:"order_id"`
	CounterpartyID uuid.UUID       `json:"counterparty_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	Detail         string          `json:"detail"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// FeedResult is a cursor-paginated page of the transaction feed.
type FeedResult struct {
	Transactions []Transaction `json:"transactions"`
	NextCursor   string        `json:"next_cursor,omitempty"`
}

// Service exposes the operations-facing revenue read-side.
type Service interface {
	Report(ctx context.Context, period ReportPeriod) (*RevenueReport, error)
	TransactionFeed(ctx context.Context, params pagination.Params) (*FeedResult, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the revenue read-side service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("revenue repository required")
	}
	return &service{
		repo: repo,
		logg: logg,
		now:  time.Now,
	}, nil
}

func (s *service) Report(ctx context.Context, period ReportPeriod) (*RevenueReport, error) {
	days, ok := periodDays[period]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid report period %q, expected 7d, 30d, or 90d", period))
	}

	to := s.now()
	from := to.AddDate(0, 0, -days)

	orders, err := s.repo.OrderTotals(ctx, from)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate orders")
	}
	refunds, err := s.repo.RefundTotals(ctx, from)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate refunds")
	}
	payouts, err := s.repo.PayoutTotals(ctx, from)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate payouts")
	}

	return &RevenueReport{
		Period:            period,
		From:              from,
		To:                to,
		GrossOrderVolume:  orders.Gross,
		OrderCount:        orders.Count,
		RefundTotal:       refunds.Total,
		RefundCount:       refunds.Count,
		CommissionRevenue: payouts.Commission,
		PayoutGrossTotal:  payouts.Gross,
		PayoutNetTotal:    payouts.Net,
		PayoutCount:       payouts.Count,
		NetRevenue:        orders.Gross.Sub(refunds.Total).Sub(payouts.Net),
	}, nil
}

func (s *service) TransactionFeed(ctx context.Context, params pagination.Params) (*FeedResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListTransactions(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}

	result := &FeedResult{Transactions: make([]Transaction, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for _, row := range rows {
		result.Transactions = append(result.Transactions, Transaction{
			ID:             row.ID,
			Kind:           row.Kind,
			OrderID:        row.OrderID,
			CounterpartyID: row.CounterpartyID,
			Amount:         row.Amount,
			Currency:       row.Currency,
			Status:         row.Status,
			Detail:         row.Detail,
			OccurredAt:     row.OccurredAt,
		})
	}
	if hasMore {
		last := rows[len(rows)-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.OccurredAt,
			ID:        last.ID,
		})
	}
	return result, nil
}
