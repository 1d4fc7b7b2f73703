package payouts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/garagio/garagio-backend/pkg/db/models"
	"github.com/garagio/garagio-backend/pkg/enums"
	"github.com/garagio/garagio-backend/pkg/pagination"
)

// Repository exposes persistence for payouts, disputes, and the admin audit trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, payout *models.GaragePayout) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.GaragePayout, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.GaragePayout, error)
	FindStandardByOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.GaragePayout, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, params listPayoutsParams) ([]models.GaragePayout, *pagination.Cursor, error)
	ListAwaitingOlderThanForUpdate(ctx context.Context, cutoff time.Time) ([]models.GaragePayout, error)
	ListAwaitingByGarage(ctx context.Context, garageID uuid.UUID) ([]models.GaragePayout, error)
	ListAwaitingByGarageForUpdate(ctx context.Context, garageID uuid.UUID) ([]models.GaragePayout, error)
	ListPendingWithBlockingDisputeForUpdate(ctx context.Context) ([]models.GaragePayout, error)
	ListHeldByReasonForUpdate(ctx context.Context, reason string) ([]models.GaragePayout, error)
	SummaryByGarage(ctx context.Context, garageID uuid.UUID) ([]payoutStatusAggregate, error)

	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOrdersAwaitingScheduleForUpdate(ctx context.Context, limit int) ([]models.Order, error)

	CreateDispute(ctx context.Context, dispute *models.PayoutDispute) error
	FindDisputeByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.PayoutDispute, error)
	FindBlockingDisputeByPayout(ctx context.Context, payoutID uuid.UUID) (*models.PayoutDispute, error)
	UpdateDispute(ctx context.Context, id uuid.UUID, updates map[string]any) error

	CreateAuditLog(ctx context.Context, entry *models.AdminAuditLog) error
}

type listPayoutsParams struct {
	GarageID *uuid.UUID
	Status   *enums.PayoutStatus
	Limit    int
	Cursor   *pagination.Cursor
}

// payoutStatusAggregate is one GROUP BY status row for a garage.
type payoutStatusAggregate struct {
	Status enums.PayoutStatus `gorm:"column:status"`
	Count  int64              `gorm:"column:count"`
	Total  decimal.Decimal    `gorm:"column:total"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payouts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payout *models.GaragePayout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.GaragePayout, error) {
	var payout models.GaragePayout
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&payout).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.GaragePayout, error) {
	var payout models.GaragePayout
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&payout).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) FindStandardByOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.GaragePayout, error) {
	var payout models.GaragePayout
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ? AND payout_type = ?", orderID, enums.PayoutTypeStandard).
		First(&payout).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.GaragePayout{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) List(ctx context.Context, params listPayoutsParams) ([]models.GaragePayout, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.GaragePayout{})
	if params.GarageID != nil {
		query = query.Where("garage_id = ?", *params.GarageID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var payouts []models.GaragePayout
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&payouts).Error; err != nil {
		return nil, nil, err
	}

	if len(payouts) > normalized {
		next := payouts[normalized]
		payouts = payouts[:normalized]
		return payouts, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return payouts, nil, nil
}

func (r *repository) ListAwaitingOlderThanForUpdate(ctx context.Context, cutoff time.Time) ([]models.GaragePayout, error) {
	var payouts []models.GaragePayout
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ? AND sent_at IS NOT NULL AND sent_at < ?", enums.PayoutStatusAwaitingConfirmation, cutoff).
		Order("sent_at ASC").
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *repository) ListAwaitingByGarage(ctx context.Context, garageID uuid.UUID) ([]models.GaragePayout, error) {
	var payouts []models.GaragePayout
	err := r.db.WithContext(ctx).
		Where("garage_id = ? AND status = ?", garageID, enums.PayoutStatusAwaitingConfirmation).
		Order("sent_at ASC").
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *repository) ListAwaitingByGarageForUpdate(ctx context.Context, garageID uuid.UUID) ([]models.GaragePayout, error) {
	var payouts []models.GaragePayout
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("garage_id = ? AND status = ?", garageID, enums.PayoutStatusAwaitingConfirmation).
		Order("sent_at ASC").
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *repository) ListPendingWithBlockingDisputeForUpdate(ctx context.Context) ([]models.GaragePayout, error) {
	var payouts []models.GaragePayout
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "garage_payouts"}}).
		Where("status = ?", enums.PayoutStatusPending).
		Where("EXISTS (SELECT 1 FROM payout_disputes pd WHERE pd.payout_id = garage_payouts.id AND pd.status IN ?)",
			enums.BlockingDisputeStatuses()).
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *repository) ListHeldByReasonForUpdate(ctx context.Context, reason string) ([]models.GaragePayout, error) {
	var payouts []models.GaragePayout
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ? AND hold_reason = ?", enums.PayoutStatusHeld, reason).
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *repository) SummaryByGarage(ctx context.Context, garageID uuid.UUID) ([]payoutStatusAggregate, error) {
	var rows []payoutStatusAggregate
	err := r.db.WithContext(ctx).
		Model(&models.GaragePayout{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(net_amount), 0) AS total").
		Where("garage_id = ?", garageID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrdersAwaitingScheduleForUpdate returns completed, paid orders that do
// not yet have a standard payout.
func (r *repository) ListOrdersAwaitingScheduleForUpdate(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "orders"}}).
		Where("status = ? AND payment_status = ?", enums.OrderStatusCompleted, enums.PaymentStatusPaid).
		Where("NOT EXISTS (SELECT 1 FROM garage_payouts gp WHERE gp.order_id = orders.id AND gp.payout_type = ?)",
			enums.PayoutTypeStandard).
		Order("completed_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) CreateDispute(ctx context.Context, dispute *models.PayoutDispute) error {
	return r.db.WithContext(ctx).Create(dispute).Error
}

func (r *repository) FindDisputeByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.PayoutDispute, error) {
	var dispute models.PayoutDispute
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&dispute).Error
	if err != nil {
		return nil, err
	}
	return &dispute, nil
}

func (r *repository) FindBlockingDisputeByPayout(ctx context.Context, payoutID uuid.UUID) (*models.PayoutDispute, error) {
	var dispute models.PayoutDispute
	err := r.db.WithContext(ctx).
		Where("payout_id = ? AND status IN ?", payoutID, enums.BlockingDisputeStatuses()).
		Order("created_at DESC").
		First(&dispute).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dispute, nil
}

func (r *repository) UpdateDispute(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PayoutDispute{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CreateAuditLog(ctx context.Context, entry *models.AdminAuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
