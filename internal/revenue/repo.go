package revenue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/garagio/garagio-backend/pkg/pagination"
)

// orderTotalsRow aggregates collected order money since a cutoff.
type orderTotalsRow struct {
	Gross decimal.Decimal
	Count int64
}

// refundTotalsRow aggregates settled refunds since a cutoff.
type refundTotalsRow struct {
	Total decimal.Decimal
	Count int64
}

// payoutTotalsRow aggregates garage payout money since a cutoff. Reversal rows
// carry negative amounts, so the sums already net out claw-backs.
type payoutTotalsRow struct {
	Gross      decimal.Decimal
	Commission decimal.Decimal
	Net        decimal.Decimal
	Count      int64
}

// transactionRow is one movement in the merged payout + refund feed.
type transactionRow struct {
	ID             uuid.UUID
	Kind           string
	OrderID        uuid.UUID
	CounterpartyID uuid.UUID
	Amount         decimal.Decimal
	Currency       string
	Status         string
	Detail         string
	OccurredAt     time.Time
}

// Repository is the read-side over orders, refunds, and payouts.
type Repository interface {
	OrderTotals(ctx context.Context, since time.Time) (*orderTotalsRow, error)
	RefundTotals(ctx context.Context, since time.Time) (*refundTotalsRow, error)
	PayoutTotals(ctx context.Context, since time.Time) (*payoutTotalsRow, error)
	ListTransactions(ctx context.Context, limit int, cursor *pagination.Cursor) ([]transactionRow, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a revenue repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

const orderTotalsQuery = `
SELECT
    COALESCE(SUM(total_amount), 0) AS gross,
    COUNT(*)                       AS count
FROM orders
WHERE payment_status <> 'unpaid'
  AND created_at >= ?`

const refundTotalsQuery = `
SELECT
    COALESCE(SUM(amount), 0) AS total,
    COUNT(*)                 AS count
FROM refunds
WHERE status = 'completed'
  AND processed_at >= ?`

const payoutTotalsQuery = `
SELECT
    COALESCE(SUM(gross_amount), 0)      AS gross,
    COALESCE(SUM(commission_amount), 0) AS commission,
    COALESCE(SUM(net_amount), 0)        AS net,
    COUNT(*)                            AS count
FROM garage_payouts
WHERE created_at >= ?`

const transactionFeedBase = `
SELECT * FROM (
    SELECT p.id,
           'payout'            AS kind,
           p.order_id,
           p.garage_id         AS counterparty_id,
           p.net_amount        AS amount,
           p.currency,
           p.status::text      AS status,
           p.payout_type::text AS detail,
           p.created_at        AS occurred_at
    FROM garage_payouts p
    UNION ALL
    SELECT r.id,
           'refund',
           r.order_id,
           r.customer_id,
           r.amount,
           r.currency,
           r.status::text,
           r.refund_type::text,
           r.created_at
    FROM refunds r
) movements`

const transactionFeedQuery = transactionFeedBase + `
ORDER BY occurred_at DESC, id DESC
LIMIT ?`

const transactionFeedAfterQuery = transactionFeedBase + `
WHERE (occurred_at, id) < (?, ?)
ORDER BY occurred_at DESC, id DESC
LIMIT ?`

func (r *repository) OrderTotals(ctx context.Context, since time.Time) (*orderTotalsRow, error) {
	var row orderTotalsRow
	if err := r.db.WithContext(ctx).Raw(orderTotalsQuery, since).Scan(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) RefundTotals(ctx context.Context, since time.Time) (*refundTotalsRow, error) {
	var row refundTotalsRow
	if err := r.db.WithContext(ctx).Raw(refundTotalsQuery, since).Scan(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) PayoutTotals(ctx context.Context, since time.Time) (*payoutTotalsRow, error) {
	var row payoutTotalsRow
	if err := r.db.WithContext(ctx).Raw(payoutTotalsQuery, since).Scan(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListTransactions(ctx context.Context, limit int, cursor *pagination.Cursor) ([]transactionRow, error) {
	var rows []transactionRow
	query := r.db.WithContext(ctx)
	var err error
	if cursor != nil {
		err = query.Raw(transactionFeedAfterQuery, cursor.CreatedAt, cursor.ID, limit).Scan(&rows).Error
	} else {
		err = query.Raw(transactionFeedQuery, limit).Scan(&rows).Error
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}
