package support

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/garagio/garagio-backend/internal/notifications"
	"github.com/garagio/garagio-backend/internal/payouts"
	"github.com/garagio/garagio-backend/internal/refunds"
	"github.com/garagio/garagio-backend/pkg/db/models"
	"github.com/garagio/garagio-backend/pkg/enums"
	pkgerrors "github.com/garagio/garagio-backend/pkg/errors"
	"github.com/garagio/garagio-backend/pkg/logger"
	"github.com/garagio/garagio-backend/pkg/outbox"
	"github.com/garagio/garagio-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// refundOperations is the slice of the refund service support actions use.
type refundOperations interface {
	CreateRefundIn(ctx context.Context, tx *gorm.DB, input refunds.CreateRefundInput) (*refunds.RefundResponse, error)
	ProcessCustomerRefund(ctx context.Context, input refunds.ProcessCustomerRefundInput) (*refunds.RefundResponse, error)
	ProcessApprovedRefund(ctx context.Context, input refunds.ProcessApprovedRefundInput) (*refunds.RefundResponse, error)
}

// ActionResult is the structured outcome of a support action. Actions never
// return an error; every failure is converted into a result with Success false.
type ActionResult struct {
	Success      bool                    `json:"success"`
	Action       enums.SupportActionType `json:"action"`
	OrderID      uuid.UUID               `json:"order_id"`
	Message      string                  `json:"message"`
	PayoutEffect string                  `json:"payout_effect,omitempty"`
	RefundID     *uuid.UUID              `json:"refund_id,omitempty"`
	Err          string                  `json:"error,omitempty"`
}

// Service orchestrates multi-step support interventions on orders.
type Service interface {
	ExecuteFullRefund(ctx context.Context, input FullRefundInput) *ActionResult
	ExecuteCancelOrder(ctx context.Context, input CancelOrderInput) *ActionResult
	ExecuteReassignDriver(ctx context.Context, input ReassignDriverInput) *ActionResult
	ExecuteEscalateToOps(ctx context.Context, input EscalateInput) *ActionResult
	ProcessApprovedRefund(ctx context.Context, input ApprovedRefundInput) *ActionResult
}

// FullRefundInput raises a pending full refund for finance approval.
type FullRefundInput struct {
	OrderID uuid.UUID
	AgentID uuid.UUID
	Reason  string
}

// CancelOrderInput cancels an order that has not been picked up yet.
type CancelOrderInput struct {
	OrderID uuid.UUID
	AgentID uuid.UUID
	Reason  string
}

// ReassignDriverInput requests a replacement driver for the active delivery.
type ReassignDriverInput struct {
	OrderID uuid.UUID
	AgentID uuid.UUID
	Reason  string
}

// EscalateInput hands the order to the operations queue.
type EscalateInput struct {
	OrderID  uuid.UUID
	AgentID  uuid.UUID
	Reason   string
	Priority enums.EscalationPriority
}

// ApprovedRefundInput completes a finance-approved refund.
type ApprovedRefundInput struct {
	RefundID uuid.UUID
	OrderID  uuid.UUID
	AgentID  uuid.UUID
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	refunds  refundOperations
	notifier notifications.Notifier
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the support action orchestrator.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, refundSvc refundOperations, notifier notifications.Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, errors.New("support repository required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, errors.New("outbox publisher required")
	}
	if refundSvc == nil {
		return nil, errors.New("refund service required")
	}
	if notifier == nil {
		return nil, errors.New("notifier required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outboxSvc,
		refunds:  refundSvc,
		notifier: notifier,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// ExecuteFullRefund opens the two-phase refund flow: a pending
// support_refund_request is created now and finance settles it later through
// ProcessApprovedRefund. Eligibility is checked on the row-locked order, and
// the refund and the resolution log commit or roll back together.
func (s *service) ExecuteFullRefund(ctx context.Context, input FullRefundInput) *ActionResult {
	action := enums.SupportActionFullRefund
	if msg := validateActionInput(input.OrderID, input.AgentID, input.Reason); msg != "" {
		return failure(action, input.OrderID, msg, nil)
	}

	var (
		order  *models.Order
		refund *refunds.RefundResponse
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		order, err = repo.FindOrderForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.PaymentStatus != enums.PaymentStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order payment status %s leaves nothing to refund", order.PaymentStatus))
		}
		if !order.Status.IsRefundable() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in status %s is not eligible for a refund", order.Status))
		}
		if order.WarrantyElapsed(s.now()) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("complaint window of %d days has passed", models.WarrantyDays))
		}
		if order.PaymentIntentID == nil || *order.PaymentIntentID == "" {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no payment intent on file")
		}

		refund, err = s.refunds.CreateRefundIn(ctx, tx, refunds.CreateRefundInput{
			OrderID:     order.ID,
			RefundType:  enums.RefundTypeSupportRequest,
			Amount:      order.TotalAmount,
			Reason:      input.Reason,
			RequestedBy: input.AgentID,
		})
		if err != nil {
			return err
		}

		return s.appendResolutionLogTx(ctx, repo, order.ID, order.CustomerID, input.AgentID, action, map[string]any{
			"refund_id":         refund.ID.String(),
			"amount":            refund.Amount.String(),
			"payout_adjustment": refund.PayoutAdjustment,
		}, input.Reason)
	})
	if err != nil {
		return failureFromErr(action, input.OrderID, "could not create refund request", err)
	}

	s.notify(ctx,
		notifications.Input{
			RecipientID: &order.CustomerID,
			Role:        enums.ActorRoleCustomer,
			Type:        enums.NotificationTypeRefundRequested,
			Title:       "Refund requested",
			Message:     "Your full refund request has been submitted and is pending approval.",
			Data:        map[string]any{"order_id": order.ID.String(), "refund_id": refund.ID.String()},
		},
		notifications.Input{
			RecipientID: &order.GarageID,
			Role:        enums.ActorRoleGarage,
			Type:        enums.NotificationTypeRefundRequested,
			Title:       "Refund raised on order",
			Message:     "Support opened a full refund on one of your orders. The payout was adjusted accordingly.",
			Data:        map[string]any{"order_id": order.ID.String(), "payout_adjustment": refund.PayoutAdjustment},
		},
	)

	refundID := refund.ID
	return &ActionResult{
		Success:      true,
		Action:       action,
		OrderID:      order.ID,
		Message:      "full refund request created, pending finance approval",
		PayoutEffect: string(refund.PayoutAdjustment),
		RefundID:     &refundID,
	}
}

// ExecuteCancelOrder cancels a not-yet-picked-up order, unwinds its payout,
// refunds the customer through the gateway when the order was paid, and stands
// down the active driver.
func (s *service) ExecuteCancelOrder(ctx context.Context, input CancelOrderInput) *ActionResult {
	action := enums.SupportActionCancelOrder
	if msg := validateActionInput(input.OrderID, input.AgentID, input.Reason); msg != "" {
		return failure(action, input.OrderID, msg, nil)
	}

	var (
		order        *models.Order
		payoutEffect string
		wasPaid      bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		order, err = repo.FindOrderForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !order.Status.IsCancellable() {
			if order.Status.IsRefundable() {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("order in status %s has already reached the customer; use the full refund action instead", order.Status))
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in status %s can no longer be cancelled", order.Status))
		}
		wasPaid = order.PaymentStatus == enums.PaymentStatusPaid

		now := s.now()
		fromStatus := order.Status
		if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
			"status":       enums.OrderStatusCancelledByOps,
			"cancelled_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if err := repo.CreateStatusHistory(ctx, &models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: fromStatus,
			ToStatus:   enums.OrderStatusCancelledByOps,
			ActorID:    &input.AgentID,
			ActorRole:  enums.ActorRoleSupport,
			Note:       &input.Reason,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write status history")
		}

		payoutEffect, err = s.unwindPayout(ctx, repo, order)
		if err != nil {
			return err
		}

		assignment, err := repo.FindActiveAssignmentForUpdate(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery assignment")
		}
		if assignment != nil {
			if err := repo.UpdateAssignment(ctx, assignment.ID, map[string]any{
				"status": enums.AssignmentStatusCancelled,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel delivery assignment")
			}
		}

		if err := s.appendResolutionLogTx(ctx, repo, order.ID, order.CustomerID, input.AgentID, action, map[string]any{
			"from_status":   fromStatus,
			"payout_effect": payoutEffect,
			"was_paid":      wasPaid,
		}, input.Reason); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.AgentID, Role: enums.ActorRoleSupport.String()},
			Version:       1,
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				CustomerID:  order.CustomerID,
				GarageID:    order.GarageID,
				FromStatus:  fromStatus,
				Reason:      input.Reason,
				CancelledAt: now,
			},
		})
	})
	if err != nil {
		return failureFromErr(action, input.OrderID, "order cancellation failed", err)
	}

	result := &ActionResult{
		Success:      true,
		Action:       action,
		OrderID:      order.ID,
		Message:      "order cancelled",
		PayoutEffect: payoutEffect,
	}

	// The gateway refund happens after the cancellation committed so a gateway
	// outage never rolls back the cancel. A failed charge-back is recorded on
	// the refund row and surfaced on the result.
	if wasPaid {
		refund, refundErr := s.refunds.ProcessCustomerRefund(ctx, refunds.ProcessCustomerRefundInput{
			OrderID:    order.ID,
			RefundType: enums.RefundTypeOrderCancellation,
			Amount:     order.TotalAmount,
			Reason:     input.Reason,
			AgentID:    input.AgentID,
		})
		if refund != nil {
			refundID := refund.ID
			result.RefundID = &refundID
		}
		if refundErr != nil {
			result.Message = "order cancelled, but the customer refund failed and needs finance follow-up"
			result.Err = refundErr.Error()
		} else {
			result.Message = "order cancelled and customer refunded"
		}
	}

	s.notify(ctx,
		notifications.Input{
			RecipientID: &order.CustomerID,
			Role:        enums.ActorRoleCustomer,
			Type:        enums.NotificationTypeOrderCancelled,
			Title:       "Order cancelled",
			Message:     "Your order was cancelled by support." + paidSuffix(wasPaid, result.Err == ""),
			Data:        map[string]any{"order_id": order.ID.String()},
		},
		notifications.Input{
			RecipientID: &order.GarageID,
			Role:        enums.ActorRoleGarage,
			Type:        enums.NotificationTypeOrderCancelled,
			Title:       "Order cancelled",
			Message:     "An order assigned to your garage was cancelled by support.",
			Data:        map[string]any{"order_id": order.ID.String(), "payout_effect": payoutEffect},
		},
		notifications.Input{
			Role:    enums.ActorRoleDriver,
			Type:    enums.NotificationTypeOrderCancelled,
			Title:   "Delivery cancelled",
			Message: "The delivery for a cancelled order has been called off.",
			Data:    map[string]any{"order_id": order.ID.String()},
		},
	)

	return result
}

// ExecuteReassignDriver flags the active assignment for reassignment and asks
// dispatch for a replacement.
func (s *service) ExecuteReassignDriver(ctx context.Context, input ReassignDriverInput) *ActionResult {
	action := enums.SupportActionReassignDriver
	if msg := validateActionInput(input.OrderID, input.AgentID, input.Reason); msg != "" {
		return failure(action, input.OrderID, msg, nil)
	}

	var (
		order      *models.Order
		assignment *models.DeliveryAssignment
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		order, err = repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		assignment, err = repo.FindActiveAssignmentForUpdate(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery assignment")
		}
		if assignment == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no active delivery assignment")
		}

		if err := repo.UpdateAssignment(ctx, assignment.ID, map[string]any{
			"status": enums.AssignmentStatusReassignmentPending,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag assignment for reassignment")
		}

		if err := s.appendResolutionLogTx(ctx, repo, order.ID, order.CustomerID, input.AgentID, action, map[string]any{
			"assignment_id": assignment.ID.String(),
			"driver_id":     assignment.DriverID.String(),
		}, input.Reason); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDriverReassignment,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.AgentID, Role: enums.ActorRoleSupport.String()},
			Version:       1,
			Data: payloads.DriverReassignmentEvent{
				OrderID:      order.ID,
				AssignmentID: assignment.ID,
				DriverID:     assignment.DriverID,
				Reason:       input.Reason,
			},
		})
	})
	if err != nil {
		return failure(action, input.OrderID, "driver reassignment failed", err)
	}

	s.notify(ctx,
		notifications.Input{
			RecipientID: &assignment.DriverID,
			Role:        enums.ActorRoleDriver,
			Type:        enums.NotificationTypeDriverReassignment,
			Title:       "Delivery reassigned",
			Message:     "You have been unassigned from a delivery. Please stand by.",
			Data:        map[string]any{"order_id": order.ID.String()},
		},
		notifications.Input{
			RecipientID: &order.CustomerID,
			Role:        enums.ActorRoleCustomer,
			Type:        enums.NotificationTypeDriverReassignment,
			Title:       "New driver on the way",
			Message:     "We are assigning a new driver to your order.",
			Data:        map[string]any{"order_id": order.ID.String()},
		},
	)

	return &ActionResult{
		Success: true,
		Action:  action,
		OrderID: order.ID,
		Message: "driver reassignment requested",
	}
}

// ExecuteEscalateToOps records the escalation and alerts the operations queue.
func (s *service) ExecuteEscalateToOps(ctx context.Context, input EscalateInput) *ActionResult {
	action := enums.SupportActionEscalate
	if msg := validateActionInput(input.OrderID, input.AgentID, input.Reason); msg != "" {
		return failure(action, input.OrderID, msg, nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = enums.EscalationPriorityNormal
	}
	if !priority.IsValid() {
		return failure(action, input.OrderID, fmt.Sprintf("invalid priority %q", input.Priority), nil)
	}

	var (
		order      *models.Order
		escalation *models.SupportEscalation
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		order, err = repo.FindOrder(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		escalation = &models.SupportEscalation{
			OrderID:  order.ID,
			AgentID:  input.AgentID,
			Reason:   input.Reason,
			Priority: priority,
			Status:   enums.EscalationStatusOpen,
		}
		if err := repo.CreateEscalation(ctx, escalation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create escalation")
		}

		if err := s.appendResolutionLogTx(ctx, repo, order.ID, order.CustomerID, input.AgentID, action, map[string]any{
			"escalation_id": escalation.ID.String(),
			"priority":      priority,
		}, input.Reason); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSupportEscalated,
			AggregateType: enums.AggregateSupport,
			AggregateID:   escalation.ID,
			Actor:         &outbox.ActorRef{UserID: input.AgentID, Role: enums.ActorRoleSupport.String()},
			Version:       1,
			Data: payloads.SupportEscalatedEvent{
				EscalationID: escalation.ID,
				OrderID:      order.ID,
				AgentID:      input.AgentID,
				Priority:     priority,
				Reason:       input.Reason,
			},
		})
	})
	if err != nil {
		return failure(action, input.OrderID, "escalation failed", err)
	}

	s.notify(ctx, notifications.Input{
		Role:    enums.ActorRoleOperations,
		Type:    enums.NotificationTypeSupportEscalation,
		Title:   fmt.Sprintf("Escalation (%s)", priority),
		Message: input.Reason,
		Data: map[string]any{
			"order_id":      order.ID.String(),
			"escalation_id": escalation.ID.String(),
			"priority":      priority,
		},
	})

	return &ActionResult{
		Success: true,
		Action:  action,
		OrderID: order.ID,
		Message: fmt.Sprintf("escalated to operations with %s priority", priority),
	}
}

// ProcessApprovedRefund settles a pending refund request through the gateway
// once finance has approved it. The resolution log is written inside the
// transaction that records the settlement, so the action is never recorded as
// done without its audit trail.
func (s *service) ProcessApprovedRefund(ctx context.Context, input ApprovedRefundInput) *ActionResult {
	action := enums.SupportActionProcessRefund
	if input.RefundID == uuid.Nil || input.AgentID == uuid.Nil {
		return failure(action, input.OrderID, "refund id and agent id are required", nil)
	}

	refund, err := s.refunds.ProcessApprovedRefund(ctx, refunds.ProcessApprovedRefundInput{
		RefundID: input.RefundID,
		AgentID:  input.AgentID,
		OnCompleted: func(tx *gorm.DB, completed *models.Refund) error {
			return s.appendResolutionLogTx(ctx, s.repo.WithTx(tx), completed.OrderID, completed.CustomerID, input.AgentID, action, map[string]any{
				"refund_id":         completed.ID.String(),
				"gateway_refund_id": completed.GatewayRefundID,
			}, "finance approved refund processed")
		},
	})
	if err != nil {
		result := failureFromErr(action, input.OrderID, "approved refund processing failed", err)
		if refund != nil {
			refundID := refund.ID
			result.RefundID = &refundID
			result.OrderID = refund.OrderID
		}
		return result
	}

	s.notify(ctx, notifications.Input{
		RecipientID: &refund.CustomerID,
		Role:        enums.ActorRoleCustomer,
		Type:        enums.NotificationTypeRefundCompleted,
		Title:       "Refund completed",
		Message:     fmt.Sprintf("Your refund of %s %s has been processed.", refund.Amount, refund.Currency),
		Data:        map[string]any{"order_id": refund.OrderID.String(), "refund_id": refund.ID.String()},
	})

	refundID := refund.ID
	return &ActionResult{
		Success:  true,
		Action:   action,
		OrderID:  refund.OrderID,
		Message:  "approved refund processed",
		RefundID: &refundID,
	}
}

// unwindPayout cancels a payout that never left the platform or claws back one
// that did, mirroring the refund adjustment rules for a full cancellation.
func (s *service) unwindPayout(ctx context.Context, repo Repository, order *models.Order) (string, error) {
	payout, err := repo.FindStandardPayoutByOrderForUpdate(ctx, order.ID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
	}
	if payout == nil {
		return "none", nil
	}

	if payouts.TransitionCancel.Allows(payout.Status) {
		if err := payouts.TransitionCancel.Apply(payout); err != nil {
			return "", err
		}
		if err := repo.UpdatePayout(ctx, payout.ID, map[string]any{"status": payout.Status}); err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel payout")
		}
		return "payout_cancelled", nil
	}

	// Cancelled payouts carry no money to claw back.
	if payout.Status == enums.PayoutStatusCancelled {
		return "none", nil
	}

	reversal := &models.GaragePayout{
		OrderID:          payout.OrderID,
		GarageID:         payout.GarageID,
		Status:           enums.PayoutStatusPending,
		PayoutType:       enums.PayoutTypeReversal,
		GrossAmount:      payout.NetAmount.Neg(),
		CommissionAmount: decimal.Zero,
		NetAmount:        payout.NetAmount.Neg(),
		Currency:         payout.Currency,
	}
	if err := repo.CreatePayout(ctx, reversal); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reversal payout")
	}
	return "reversal_created", nil
}

func (s *service) appendResolutionLogTx(ctx context.Context, repo Repository, orderID, customerID, agentID uuid.UUID, action enums.SupportActionType, details map[string]any, notes string) error {
	encoded, err := json.Marshal(details)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding action details")
	}
	entry := &models.ResolutionLog{
		OrderID:       orderID,
		CustomerID:    customerID,
		AgentID:       agentID,
		ActionType:    action,
		ActionDetails: encoded,
	}
	if notes != "" {
		entry.Notes = &notes
	}
	if err := repo.CreateResolutionLog(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write resolution log")
	}
	return nil
}

func (s *service) notify(ctx context.Context, inputs ...notifications.Input) {
	for _, input := range inputs {
		if err := s.notifier.Send(ctx, input); err != nil {
			s.warn(ctx, "notification send failed", err)
		}
	}
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Error(ctx, msg, err)
}

func validateActionInput(orderID, agentID uuid.UUID, reason string) string {
	if orderID == uuid.Nil {
		return "order id is required"
	}
	if agentID == uuid.Nil {
		return "agent id is required"
	}
	if reason == "" {
		return "a reason is required"
	}
	return ""
}

func failure(action enums.SupportActionType, orderID uuid.UUID, msg string, err error) *ActionResult {
	result := &ActionResult{
		Success: false,
		Action:  action,
		OrderID: orderID,
		Message: msg,
	}
	if err != nil {
		result.Err = err.Error()
	}
	return result
}

// failureFromErr prefers the typed error's message, so the caller sees the
// precise reason the action was rejected rather than a generic one.
func failureFromErr(action enums.SupportActionType, orderID uuid.UUID, fallback string, err error) *ActionResult {
	msg := fallback
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		msg = typed.Message()
	}
	result := &ActionResult{
		Success: false,
		Action:  action,
		OrderID: orderID,
		Message: msg,
	}
	if err != nil {
		result.Err = err.Error()
	}
	return result
}

func paidSuffix(wasPaid, refunded bool) string {
	if !wasPaid {
		return ""
	}
	if refunded {
		return " Your payment has been refunded."
	}
	return " Your refund is being processed."
}
