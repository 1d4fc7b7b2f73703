package payouts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/garagio/garagio-backend/internal/notifications"
	"github.com/garagio/garagio-backend/pkg/db/models"
	"github.com/garagio/garagio-backend/pkg/enums"
	pkgerrors "github.com/garagio/garagio-backend/pkg/errors"
	"github.com/garagio/garagio-backend/pkg/outbox"
	"github.com/garagio/garagio-backend/pkg/outbox/payloads"
)

func (s *service) HoldPayout(ctx context.Context, input HoldPayoutInput) (*PayoutResponse, error) {
	if input.PayoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hold reason required")
	}

	var payout *models.GaragePayout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		payout, err = repo.FindByIDForUpdate(ctx, input.PayoutID)
		if err != nil {
			return mapPayoutLookupErr(err)
		}

		if err := TransitionHold.Apply(payout); err != nil {
			return err
		}
		payout.HoldReason = &input.Reason
		if err := repo.Update(ctx, payout.ID, map[string]any{
			"status":      payout.Status,
			"hold_reason": input.Reason,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
		}

		if err := s.audit(ctx, repo, input.ActorID, enums.AdminPayoutActionHold, payout.ID, map[string]any{
			"reason": input.Reason,
		}); err != nil {
			return err
		}

		return s.emitStatusEvent(ctx, tx, payout, enums.EventPayoutHeld, input.ActorID, input.Reason)
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "payout held", map[string]any{"payout_id": payout.ID.String()})
	return toPayoutResponse(payout), nil
}

func (s *service) ReleasePayout(ctx context.Context, input AdminActionInput) (*PayoutResponse, error) {
	if input.PayoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	var payout *models.GaragePayout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		payout, err = repo.FindByIDForUpdate(ctx, input.PayoutID)
		if err != nil {
			return mapPayoutLookupErr(err)
		}

		if err := TransitionRelease.Apply(payout); err != nil {
			return err
		}
		payout.HoldReason = nil
		if err := repo.Update(ctx, payout.ID, map[string]any{
			"status":      payout.Status,
			"hold_reason": nil,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
		}

		if err := s.audit(ctx, repo, input.ActorID, enums.AdminPayoutActionRelease, payout.ID, nil); err != nil {
			return err
		}

		return s.emitStatusEvent(ctx, tx, payout, enums.EventPayoutReleased, input.ActorID, "")
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "payout released", map[string]any{"payout_id": payout.ID.String()})
	return toPayoutResponse(payout), nil
}

// ForceProcessPayout completes a payout by operations fiat, bypassing
// confirmation and the warranty and dispute gates. The override reason is
// recorded on the row and in the audit trail so a forced completion is never
// mistaken for a normal one. Terminal payouts stay put.
func (s *service) ForceProcessPayout(ctx context.Context, input ForceProcessInput) (*PayoutResponse, error) {
	if input.PayoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "force-process reason required")
	}

	var (
		payout *models.GaragePayout
		queued []notifications.Input
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		payout, err = repo.FindByIDForUpdate(ctx, input.PayoutID)
		if err != nil {
			return mapPayoutLookupErr(err)
		}
		fromStatus := payout.Status
		if err := TransitionForceProcess.Apply(payout); err != nil {
			return err
		}

		now := s.now()
		payout.CompletedAt = &now
		note := "Force-processed: " + input.Reason
		payout.Notes = &note
		if err := repo.Update(ctx, payout.ID, map[string]any{
			"status":       payout.Status,
			"completed_at": now,
			"notes":        note,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
		}

		if err := s.audit(ctx, repo, input.ActorID, enums.AdminPayoutActionForceProcess, payout.ID, map[string]any{
			"from_status":     fromStatus,
			"reason":          input.Reason,
			"bypassed_checks": []string{"garage_confirmation", "warranty_window", "dispute_block"},
		}); err != nil {
			return err
		}

		queued = append(queued, notifications.Input{
			RecipientID: &payout.GarageID,
			Role:        enums.ActorRoleGarage,
			Type:        enums.NotificationTypePayoutCompleted,
			Title:       "Payout completed",
			Message:     fmt.Sprintf("Payout %s was completed by operations.", payout.ID),
			Data:        payoutNotificationData(payout),
		})

		return s.emitStatusEvent(ctx, tx, payout, enums.EventPayoutCompleted, input.ActorID, input.Reason)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, queued)
	s.log(ctx, "payout force-processed", map[string]any{"payout_id": payout.ID.String()})
	return toPayoutResponse(payout), nil
}

// SendReminder nudges the garage about a payout still awaiting its
// confirmation. Pure side effect; the payout row is never written.
func (s *service) SendReminder(ctx context.Context, input SendReminderInput) (*PayoutResponse, error) {
	if input.PayoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	payout, err := s.repo.FindByID(ctx, input.PayoutID)
	if err != nil {
		return nil, mapPayoutLookupErr(err)
	}
	if payout.Status != enums.PayoutStatusAwaitingConfirmation {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payout is not awaiting confirmation").
			WithDetails(map[string]any{
				"payout_id":      payout.ID.String(),
				"current_status": payout.Status.String(),
			})
	}

	s.notify(ctx, []notifications.Input{{
		RecipientID: &payout.GarageID,
		Role:        enums.ActorRoleGarage,
		Type:        enums.NotificationTypePayoutSent,
		Title:       "Payout awaiting confirmation",
		Message:     fmt.Sprintf("Reminder: a payout of %s %s is still awaiting your confirmation.", payout.NetAmount, payout.Currency),
		Data:        payoutNotificationData(payout),
	}})
	s.log(ctx, "payout reminder sent", map[string]any{"payout_id": payout.ID.String()})
	return toPayoutResponse(payout), nil
}

func (s *service) ProcessPayout(ctx context.Context, input ProcessPayoutInput) (*PayoutResponse, error) {
	if input.PayoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	var (
		payout *models.GaragePayout
		queued []notifications.Input
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		payout, err = repo.FindByIDForUpdate(ctx, input.PayoutID)
		if err != nil {
			return mapPayoutLookupErr(err)
		}

		if err := TransitionComplete.Apply(payout); err != nil {
			return err
		}

		now := s.now()
		payout.CompletedAt = &now
		updates := map[string]any{
			"status":       payout.Status,
			"completed_at": now,
		}
		if input.PaymentReference != "" {
			payout.PaymentReference = &input.PaymentReference
			updates["payment_reference"] = input.PaymentReference
		}
		if err := repo.Update(ctx, payout.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
		}

		if err := s.audit(ctx, repo, input.ActorID, enums.AdminPayoutActionProcess, payout.ID, map[string]any{
			"payment_reference": input.PaymentReference,
		}); err != nil {
			return err
		}

		queued = append(queued, notifications.Input{
			RecipientID: &payout.GarageID,
			Role:        enums.ActorRoleGarage,
			Type:        enums.NotificationTypePayoutCompleted,
			Title:       "Payout completed",
			Message:     fmt.Sprintf("Payout %s has been finalized.", payout.ID),
			Data:        payoutNotificationData(payout),
		})

		return s.emitStatusEvent(ctx, tx, payout, enums.EventPayoutCompleted, input.ActorID, "")
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, queued)
	s.log(ctx, "payout completed", map[string]any{"payout_id": payout.ID.String()})
	return toPayoutResponse(payout), nil
}

func (s *service) audit(ctx context.Context, repo Repository, actorID uuid.UUID, action enums.AdminPayoutAction, payoutID uuid.UUID, detail map[string]any) error {
	entry := &models.AdminAuditLog{
		ActorID:  actorID,
		Action:   action,
		PayoutID: payoutID,
	}
	if detail != nil {
		encoded, err := json.Marshal(detail)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding audit detail")
		}
		entry.Detail = encoded
	}
	if err := repo.CreateAuditLog(ctx, entry); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write audit log")
	}
	return nil
}

func (s *service) emitStatusEvent(ctx context.Context, tx *gorm.DB, payout *models.GaragePayout, eventType enums.OutboxEventType, actorID uuid.UUID, reason string) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePayout,
		AggregateID:   payout.ID,
		Actor:         &outbox.ActorRef{UserID: actorID, Role: enums.ActorRoleOperations.String()},
		Version:       1,
		Data: payloads.PayoutStatusEvent{
			PayoutID: payout.ID,
			OrderID:  payout.OrderID,
			GarageID: payout.GarageID,
			Status:   payout.Status,
			Reason:   reason,
		},
	})
}
