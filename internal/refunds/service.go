package refunds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/garagio/garagio-backend/pkg/db"
	"github.com/garagio/garagio-backend/pkg/db/models"
	"github.com/garagio/garagio-backend/pkg/enums"
	pkgerrors "github.com/garagio/garagio-backend/pkg/errors"
	"github.com/garagio/garagio-backend/pkg/logger"
	"github.com/garagio/garagio-backend/pkg/outbox"
	"github.com/garagio/garagio-backend/pkg/outbox/payloads"
	stripeclient "github.com/garagio/garagio-backend/pkg/stripe"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// RefundGateway charges refunds back to the customer's payment method.
type RefundGateway interface {
	CreateRefund(ctx context.Context, params stripeclient.RefundCreateParams) (*stripeclient.RefundResult, error)
}

// Service owns refund rows and the payout adjustments they trigger.
type Service interface {
	CreateRefund(ctx context.Context, input CreateRefundInput) (*RefundResponse, error)
	CreateRefundIn(ctx context.Context, tx *gorm.DB, input CreateRefundInput) (*RefundResponse, error)
	ProcessCustomerRefund(ctx context.Context, input ProcessCustomerRefundInput) (*RefundResponse, error)
	ProcessApprovedRefund(ctx context.Context, input ProcessApprovedRefundInput) (*RefundResponse, error)
	GetRefund(ctx context.Context, refundID uuid.UUID) (*RefundResponse, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]RefundResponse, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	gateway RefundGateway
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires the refund service.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, gateway RefundGateway, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("refunds repository required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, errors.New("outbox publisher required")
	}
	if gateway == nil {
		return nil, errors.New("refund gateway required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  outboxSvc,
		gateway: gateway,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// CreateRefundInput raises a refund without touching the payment gateway.
type CreateRefundInput struct {
	OrderID     uuid.UUID
	RefundType  enums.RefundType
	Amount      decimal.Decimal
	Reason      string
	RequestedBy uuid.UUID
}

// ProcessCustomerRefundInput charges the gateway immediately.
type ProcessCustomerRefundInput struct {
	OrderID    uuid.UUID
	RefundType enums.RefundType
	Amount     decimal.Decimal
	Reason     string
	AgentID    uuid.UUID
}

// ProcessApprovedRefundInput completes a previously created pending refund.
// OnCompleted, when set, runs inside the transaction that records a successful
// gateway refund; returning an error rolls that record back. The gateway charge
// itself stays safe to retry because the stored idempotency key is reused.
type ProcessApprovedRefundInput struct {
	RefundID    uuid.UUID
	AgentID     uuid.UUID
	OnCompleted func(tx *gorm.DB, refund *models.Refund) error
}

// RefundResponse is the API-facing projection of a refund row.
type RefundResponse struct {
	ID              uuid.UUID          `json:"id"`
	OrderID         uuid.UUID          `json:"order_id"`
	CustomerID      uuid.UUID          `json:"customer_id"`
	RefundType      enums.RefundType   `json:"refund_type"`
	Status          enums.RefundStatus `json:"status"`
	Amount          decimal.Decimal    `json:"amount"`
	Currency        enums.Currency     `json:"currency"`
	Reason          string             `json:"reason"`
	GatewayRefundID *string            `json:"gateway_refund_id,omitempty"`
	FailureReason   *string            `json:"failure_reason,omitempty"`
	ProcessedAt     *time.Time         `json:"processed_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`

	// PayoutAdjustment is only populated by CreateRefund.
	PayoutAdjustment PayoutAdjustment `json:"payout_adjustment,omitempty"`
}

func (s *service) CreateRefund(ctx context.Context, input CreateRefundInput) (*RefundResponse, error) {
	if err := validateRefundInput(input.OrderID, input.RefundType, input.Amount, input.Reason, input.RequestedBy); err != nil {
		return nil, err
	}

	var response *RefundResponse
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		response, err = s.createRefundTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "refund created", map[string]any{
		"refund_id":         response.ID.String(),
		"refund_type":       response.RefundType,
		"payout_adjustment": response.PayoutAdjustment,
	})
	return response, nil
}

// CreateRefundIn raises a refund inside the caller's transaction, so callers
// can make the refund row atomic with their own writes.
func (s *service) CreateRefundIn(ctx context.Context, tx *gorm.DB, input CreateRefundInput) (*RefundResponse, error) {
	if err := validateRefundInput(input.OrderID, input.RefundType, input.Amount, input.Reason, input.RequestedBy); err != nil {
		return nil, err
	}
	return s.createRefundTx(ctx, tx, input)
}

func (s *service) createRefundTx(ctx context.Context, tx *gorm.DB, input CreateRefundInput) (*RefundResponse, error) {
	repo := s.repo.WithTx(tx)

	order, err := repo.FindOrderForUpdate(ctx, input.OrderID)
	if err != nil {
		return nil, mapOrderLookupErr(err)
	}
	if input.Amount.GreaterThan(order.TotalAmount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount exceeds order total").
			WithDetails(map[string]any{
				"amount":      input.Amount.String(),
				"order_total": order.TotalAmount.String(),
			})
	}
	if !order.Status.IsRefundable() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not refundable").
			WithDetails(map[string]any{
				"order_id":     order.ID.String(),
				"order_status": order.Status,
			})
	}

	refund := &models.Refund{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		RefundType:  input.RefundType,
		Status:      enums.RefundStatusPending,
		Amount:      input.Amount,
		Currency:    order.Currency,
		Reason:      input.Reason,
		RequestedBy: input.RequestedBy,
	}
	if err := repo.Create(ctx, refund); err != nil {
		if dbpkg.IsUniqueViolation(err, "idx_refunds_order_type") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "refund of this type already exists for order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund")
	}

	adjustment, err := s.applyPayoutAdjustment(ctx, repo, order, refund)
	if err != nil {
		return nil, err
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventRefundRequested,
		AggregateType: enums.AggregateRefund,
		AggregateID:   refund.ID,
		Actor:         &outbox.ActorRef{UserID: input.RequestedBy, Role: enums.ActorRoleSupport.String()},
		Version:       1,
		Data: payloads.RefundRequestedEvent{
			RefundID:   refund.ID,
			OrderID:    refund.OrderID,
			CustomerID: refund.CustomerID,
			RefundType: refund.RefundType,
			Amount:     refund.Amount,
			Reason:     refund.Reason,
		},
	}); err != nil {
		return nil, err
	}

	response := toRefundResponse(refund)
	response.PayoutAdjustment = adjustment
	return response, nil
}

// ProcessCustomerRefund creates the refund row and charges the gateway with an
// idempotency key, so a retried call can never refund the customer twice. The
// gateway outcome is committed locally either way; a gateway failure is still
// returned to the caller.
func (s *service) ProcessCustomerRefund(ctx context.Context, input ProcessCustomerRefundInput) (*RefundResponse, error) {
	refundType := input.RefundType
	if refundType == "" {
		refundType = enums.RefundTypeSupportRefund
	}
	if err := validateRefundInput(input.OrderID, refundType, input.Amount, input.Reason, input.AgentID); err != nil {
		return nil, err
	}

	var (
		refund *models.Refund
		order  *models.Order
	)
	idempotencyKey := fmt.Sprintf("refund-%s-%s", input.OrderID, uuid.NewString())

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		order, err = repo.FindOrderForUpdate(ctx, input.OrderID)
		if err != nil {
			return mapOrderLookupErr(err)
		}
		if order.PaymentStatus != enums.PaymentStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no settled payment to refund").
				WithDetails(map[string]any{"payment_status": order.PaymentStatus})
		}
		if order.PaymentIntentID == nil || *order.PaymentIntentID == "" {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no payment intent on file")
		}
		if input.Amount.GreaterThan(order.TotalAmount) {
			return pkgerrors.New(pkgerrors.CodeValidation, "refund amount exceeds order total")
		}

		refund = &models.Refund{
			OrderID:        order.ID,
			CustomerID:     order.CustomerID,
			RefundType:     refundType,
			Status:         enums.RefundStatusProcessing,
			Amount:         input.Amount,
			Currency:       order.Currency,
			Reason:         input.Reason,
			IdempotencyKey: &idempotencyKey,
			RequestedBy:    input.AgentID,
		}
		if err := repo.Create(ctx, refund); err != nil {
			if dbpkg.IsUniqueViolation(err, "idx_refunds_order_type") {
				return pkgerrors.New(pkgerrors.CodeConflict, "refund of this type already exists for order")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.chargeGateway(ctx, refund, order, idempotencyKey, nil)
}

// ProcessApprovedRefund runs the gateway charge for a pending refund that
// finance has approved, completing the two-phase support refund flow.
func (s *service) ProcessApprovedRefund(ctx context.Context, input ProcessApprovedRefundInput) (*RefundResponse, error) {
	if input.RefundID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund id required")
	}
	if input.AgentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "agent identity missing")
	}

	var (
		refund *models.Refund
		order  *models.Order
	)
	var idempotencyKey string

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		refund, err = repo.FindByIDForUpdate(ctx, input.RefundID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "refund not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund")
		}
		if refund.Status != enums.RefundStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "refund is not pending approval").
				WithDetails(map[string]any{"refund_status": refund.Status.String()})
		}

		order, err = repo.FindOrderForUpdate(ctx, refund.OrderID)
		if err != nil {
			return mapOrderLookupErr(err)
		}
		if order.PaymentIntentID == nil || *order.PaymentIntentID == "" {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no payment intent on file")
		}

		// Reuse the stored key when a prior attempt already reached the gateway.
		if refund.IdempotencyKey != nil {
			idempotencyKey = *refund.IdempotencyKey
		} else {
			idempotencyKey = fmt.Sprintf("refund-%s-%s", refund.OrderID, uuid.NewString())
			refund.IdempotencyKey = &idempotencyKey
		}

		refund.Status = enums.RefundStatusProcessing
		return repo.Update(ctx, refund.ID, map[string]any{
			"status":          enums.RefundStatusProcessing,
			"idempotency_key": idempotencyKey,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.chargeGateway(ctx, refund, order, idempotencyKey, input.OnCompleted)
}

// chargeGateway performs the gateway call and commits the outcome. Local state
// is persisted for both success and failure before any error is returned.
// onCompleted, when non-nil, runs inside the success transaction.
func (s *service) chargeGateway(ctx context.Context, refund *models.Refund, order *models.Order, idempotencyKey string, onCompleted func(tx *gorm.DB, refund *models.Refund) error) (*RefundResponse, error) {
	result, gatewayErr := s.gateway.CreateRefund(ctx, stripeclient.RefundCreateParams{
		PaymentIntentID: *order.PaymentIntentID,
		Amount:          refund.Amount,
		Currency:        refund.Currency,
		Reason:          refund.Reason,
		IdempotencyKey:  idempotencyKey,
		Metadata: map[string]string{
			"order_id":  refund.OrderID.String(),
			"refund_id": refund.ID.String(),
		},
	})

	now := s.now()
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if gatewayErr != nil {
			failure := gatewayErr.Error()
			refund.Status = enums.RefundStatusFailed
			refund.FailureReason = &failure
			if err := repo.Update(ctx, refund.ID, map[string]any{
				"status":         enums.RefundStatusFailed,
				"failure_reason": failure,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update refund")
			}
			if err := repo.UpdateOrder(ctx, refund.OrderID, map[string]any{
				"payment_status": enums.PaymentStatusRefundFailed,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
			}
			return s.emitSettled(ctx, tx, refund, enums.EventRefundFailed)
		}

		refund.Status = enums.RefundStatusCompleted
		refund.GatewayRefundID = &result.ID
		refund.ProcessedAt = &now
		if err := repo.Update(ctx, refund.ID, map[string]any{
			"status":            enums.RefundStatusCompleted,
			"gateway_refund_id": result.ID,
			"processed_at":      now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update refund")
		}
		if err := repo.UpdateOrder(ctx, refund.OrderID, map[string]any{
			"payment_status": enums.PaymentStatusRefunded,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		if onCompleted != nil {
			if err := onCompleted(tx, refund); err != nil {
				return err
			}
		}
		return s.emitSettled(ctx, tx, refund, enums.EventRefundCompleted)
	})
	if err != nil {
		return nil, err
	}

	if gatewayErr != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "gateway refund failed", gatewayErr)
		}
		return toRefundResponse(refund), pkgerrors.Wrap(pkgerrors.CodeDependency, gatewayErr, "gateway refund failed")
	}

	s.log(ctx, "refund processed", map[string]any{
		"refund_id":         refund.ID.String(),
		"gateway_refund_id": result.ID,
	})
	return toRefundResponse(refund), nil
}

func (s *service) emitSettled(ctx context.Context, tx *gorm.DB, refund *models.Refund, eventType enums.OutboxEventType) error {
	event := payloads.RefundSettledEvent{
		RefundID:   refund.ID,
		OrderID:    refund.OrderID,
		CustomerID: refund.CustomerID,
		Status:     refund.Status,
		Amount:     refund.Amount,
	}
	if refund.GatewayRefundID != nil {
		event.GatewayRefundID = *refund.GatewayRefundID
	}
	if refund.FailureReason != nil {
		event.FailureReason = *refund.FailureReason
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateRefund,
		AggregateID:   refund.ID,
		Version:       1,
		Data:          event,
	})
}

func (s *service) GetRefund(ctx context.Context, refundID uuid.UUID) (*RefundResponse, error) {
	if refundID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund id required")
	}
	refund, err := s.repo.FindByID(ctx, refundID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "refund not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund")
	}
	return toRefundResponse(refund), nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]RefundResponse, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	refunds, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list refunds")
	}
	out := make([]RefundResponse, 0, len(refunds))
	for i := range refunds {
		out = append(out, *toRefundResponse(&refunds[i]))
	}
	return out, nil
}

func (s *service) log(ctx context.Context, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), msg)
}

func validateRefundInput(orderID uuid.UUID, refundType enums.RefundType, amount decimal.Decimal, reason string, actorID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !refundType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid refund type")
	}
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	if reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "refund reason required")
	}
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	return nil
}

func toRefundResponse(refund *models.Refund) *RefundResponse {
	if refund == nil {
		return nil
	}
	return &RefundResponse{
		ID:              refund.ID,
		OrderID:         refund.OrderID,
		CustomerID:      refund.CustomerID,
		RefundType:      refund.RefundType,
		Status:          refund.Status,
		Amount:          refund.Amount,
		Currency:        refund.Currency,
		Reason:          refund.Reason,
		GatewayRefundID: refund.GatewayRefundID,
		FailureReason:   refund.FailureReason,
		ProcessedAt:     refund.ProcessedAt,
		CreatedAt:       refund.CreatedAt,
	}
}

func mapOrderLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
