package support

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/garagio/garagio-backend/pkg/db/models"
	"github.com/garagio/garagio-backend/pkg/enums"
)

// Repository exposes the order, delivery, payout, and audit rows support
// actions operate on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	CreateStatusHistory(ctx context.Context, entry *models.OrderStatusHistory) error

	FindActiveAssignmentForUpdate(ctx context.Context, orderID uuid.UUID) (*models.DeliveryAssignment, error)
	UpdateAssignment(ctx context.Context, id uuid.UUID, updates map[string]any) error

	FindStandardPayoutByOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.GaragePayout, error)
	UpdatePayout(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CreatePayout(ctx context.Context, payout *models.GaragePayout) error

	CreateResolutionLog(ctx context.Context, entry *models.ResolutionLog) error
	CreateEscalation(ctx context.Context, escalation *models.SupportEscalation) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a support repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) CreateStatusHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindActiveAssignmentForUpdate(ctx context.Context, orderID uuid.UUID) (*models.DeliveryAssignment, error) {
	var assignment models.DeliveryAssignment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ? AND status IN ?", orderID, []enums.AssignmentStatus{
			enums.AssignmentStatusAssigned,
			enums.AssignmentStatusPickedUp,
		}).
		Order("assigned_at DESC").
		First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) UpdateAssignment(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.DeliveryAssignment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) FindStandardPayoutByOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.GaragePayout, error) {
	var payout models.GaragePayout
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ? AND payout_type = ?", orderID, enums.PayoutTypeStandard).
		First(&payout).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) UpdatePayout(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.GaragePayout{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CreatePayout(ctx context.Context, payout *models.GaragePayout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *repository) CreateResolutionLog(ctx context.Context, entry *models.ResolutionLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) CreateEscalation(ctx context.Context, escalation *models.SupportEscalation) error {
	return r.db.WithContext(ctx).Create(escalation).Error
}
