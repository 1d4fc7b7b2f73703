package payouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/garagio/garagio-backend/internal/notifications"
	"github.com/garagio/garagio-backend/pkg/db/models"
	"github.com/garagio/garagio-backend/pkg/enums"
	pkgerrors "github.com/garagio/garagio-backend/pkg/errors"
	"github.com/garagio/garagio-backend/pkg/outbox"
	"github.com/garagio/garagio-backend/pkg/outbox/payloads"
)

// autoConfirmNote is written on payouts the sweep confirms on the garage's behalf.
const autoConfirmNote = "Auto-confirmed after 7 days"

// bulkConfirmNote marks payouts confirmed through the one-shot bulk action.
const bulkConfirmNote = "Bulk confirmation"

func (s *service) SendPayment(ctx context.Context, input SendPaymentInput) (*PayoutResponse, error) {
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

		dispute, err := repo.FindBlockingDisputeByPayout(ctx, payout.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout disputes")
		}
		if dispute != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout has an open dispute").
				WithDetails(map[string]any{
					"payout_id":      payout.ID.String(),
					"dispute_id":     dispute.ID.String(),
					"dispute_status": dispute.Status.String(),
				})
		}

		order, err := repo.FindOrder(ctx, payout.OrderID)
		if err != nil {
			return mapOrderLookupErr(err)
		}
		if order.PaymentStatus != enums.PaymentStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid").
				WithDetails(map[string]any{
					"order_id":       order.ID.String(),
					"payment_status": order.PaymentStatus,
				})
		}

		now := s.now()
		if !order.WarrantyElapsed(now) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "complaint window still open").
				WithDetails(map[string]any{
					"order_id":       order.ID.String(),
					"days_remaining": order.WarrantyDaysLeft(now),
				})
		}

		if err := TransitionSend.Apply(payout); err != nil {
			return err
		}

		updates := map[string]any{
			"status":  payout.Status,
			"sent_at": now,
		}
		payout.SentAt = &now
		if input.PaymentReference != "" {
			updates["payment_reference"] = input.PaymentReference
			payout.PaymentReference = &input.PaymentReference
		}
		if err := repo.Update(ctx, payout.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
		}

		queued = append(queued, notifications.Input{
			RecipientID: &payout.GarageID,
			Role:        enums.ActorRoleGarage,
			Type:        enums.NotificationTypePayoutSent,
			Title:       "Payout sent",
			Message:     fmt.Sprintf("A payout of %s %s was sent for your order. Please confirm receipt.", payout.NetAmount, payout.Currency),
			Data:        payoutNotificationData(payout),
		})

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutSent,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: enums.ActorRoleOperations.String()},
			Version:       1,
			Data: payloads.PayoutSentEvent{
				PayoutID:         payout.ID,
				OrderID:          payout.OrderID,
				GarageID:         payout.GarageID,
				NetAmount:        payout.NetAmount,
				Currency:         payout.Currency,
				PaymentReference: input.PaymentReference,
				SentAt:           now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, queued)
	s.log(ctx, "payout sent", map[string]any{"payout_id": payout.ID.String()})
	return toPayoutResponse(payout), nil
}

func (s *service) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*PayoutResponse, error) {
	if input.PayoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	if input.GarageID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "garage context missing")
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
		if payout.GarageID != input.GarageID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "payout does not belong to garage")
		}

		if err := TransitionConfirm.Apply(payout); err != nil {
			return err
		}

		now := s.now()
		payout.ConfirmedAt = &now
		if err := repo.Update(ctx, payout.ID, map[string]any{
			"status":       payout.Status,
			"confirmed_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
		}

		queued = append(queued, notifications.Input{
			Role:    enums.ActorRoleOperations,
			Type:    enums.NotificationTypePayoutConfirmed,
			Title:   "Payout confirmed",
			Message: fmt.Sprintf("Garage confirmed receipt of payout %s.", payout.ID),
			Data:    payoutNotificationData(payout),
		})

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutConfirmed,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Actor:         &outbox.ActorRef{UserID: input.GarageID, Role: enums.ActorRoleGarage.String()},
			Version:       1,
			Data: payloads.PayoutConfirmedEvent{
				PayoutID:    payout.ID,
				OrderID:     payout.OrderID,
				GarageID:    payout.GarageID,
				ConfirmedAt: now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, queued)
	s.log(ctx, "payout confirmed", map[string]any{"payout_id": payout.ID.String()})
	return toPayoutResponse(payout), nil
}

// ConfirmAllPayouts confirms every payout awaiting the garage's
// acknowledgement in one shot. The whole batch runs at serializable isolation
// so a concurrent dispute or single confirm forces a retry instead of a
// partial confirmation.
func (s *service) ConfirmAllPayouts(ctx context.Context, input ConfirmAllInput) (*BulkConfirmResult, error) {
	if input.GarageID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "garage context missing")
	}

	var (
		result BulkConfirmResult
		queued []notifications.Input
	)
	err := s.tx.WithSerializableTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		result = BulkConfirmResult{TotalAmount: decimal.Zero, Currency: enums.CurrencyQAR}
		queued = queued[:0]

		awaiting, err := repo.ListAwaitingByGarageForUpdate(ctx, input.GarageID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list awaiting payouts")
		}

		now := s.now()
		for i := range awaiting {
			payout := &awaiting[i]
			if err := TransitionConfirm.Apply(payout); err != nil {
				return err
			}
			payout.ConfirmedAt = &now
			if err := repo.Update(ctx, payout.ID, map[string]any{
				"status":       payout.Status,
				"confirmed_at": now,
				"notes":        bulkConfirmNote,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
			}

			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPayoutConfirmed,
				AggregateType: enums.AggregatePayout,
				AggregateID:   payout.ID,
				Actor:         &outbox.ActorRef{UserID: input.GarageID, Role: enums.ActorRoleGarage.String()},
				Version:       1,
				Data: payloads.PayoutConfirmedEvent{
					PayoutID:    payout.ID,
					OrderID:     payout.OrderID,
					GarageID:    payout.GarageID,
					ConfirmedAt: now,
				},
			}); err != nil {
				return err
			}

			result.ConfirmedCount++
			result.TotalAmount = result.TotalAmount.Add(payout.NetAmount)
			result.Currency = payout.Currency
		}

		if result.ConfirmedCount > 0 {
			queued = append(queued, notifications.Input{
				RecipientID: &input.GarageID,
				Role:        enums.ActorRoleGarage,
				Type:        enums.NotificationTypePayoutConfirmed,
				Title:       "Payouts confirmed",
				Message: fmt.Sprintf("You confirmed %d payouts totaling %s %s.",
					result.ConfirmedCount, result.TotalAmount, result.Currency),
				Data: map[string]any{
					"count":        result.ConfirmedCount,
					"total_amount": result.TotalAmount.String(),
				},
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, queued)
	if result.ConfirmedCount > 0 {
		s.log(ctx, "payouts bulk-confirmed", map[string]any{
			"garage_id": input.GarageID.String(),
			"confirmed": result.ConfirmedCount,
		})
	}
	return &result, nil
}

func (s *service) DisputePayment(ctx context.Context, input DisputePaymentInput) (*DisputeResponse, error) {
	if input.PayoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	if input.GarageID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "garage context missing")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute reason required")
	}

	var (
		dispute *models.PayoutDispute
		queued  []notifications.Input
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payout, err := repo.FindByIDForUpdate(ctx, input.PayoutID)
		if err != nil {
			return mapPayoutLookupErr(err)
		}
		if payout.GarageID != input.GarageID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "payout does not belong to garage")
		}

		existing, err := repo.FindBlockingDisputeByPayout(ctx, payout.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout disputes")
		}
		if existing != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "payout already has an open dispute").
				WithDetails(map[string]any{"dispute_id": existing.ID.String()})
		}

		if err := TransitionDispute.Apply(payout); err != nil {
			return err
		}
		if err := repo.Update(ctx, payout.ID, map[string]any{"status": payout.Status}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
		}

		dispute = &models.PayoutDispute{
			PayoutID: payout.ID,
			GarageID: payout.GarageID,
			Reason:   input.Reason,
			Status:   enums.DisputeStatusPending,
		}
		if err := repo.CreateDispute(ctx, dispute); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create dispute")
		}

		queued = append(queued, notifications.Input{
			Role:    enums.ActorRoleOperations,
			Type:    enums.NotificationTypePayoutDisputed,
			Title:   "Payout disputed",
			Message: fmt.Sprintf("Garage disputed payout %s: %s", payout.ID, input.Reason),
			Data: map[string]any{
				"payout_id":  payout.ID.String(),
				"dispute_id": dispute.ID.String(),
				"priority":   enums.EscalationPriorityHigh,
			},
		})

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutDisputed,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Actor:         &outbox.ActorRef{UserID: input.GarageID, Role: enums.ActorRoleGarage.String()},
			Version:       1,
			Data: payloads.PayoutDisputedEvent{
				PayoutID:  payout.ID,
				DisputeID: dispute.ID,
				OrderID:   payout.OrderID,
				GarageID:  payout.GarageID,
				Reason:    input.Reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, queued)
	s.log(ctx, "payout disputed", map[string]any{"dispute_id": dispute.ID.String()})
	return toDisputeResponse(dispute), nil
}

func (s *service) ResolveDispute(ctx context.Context, input ResolveDisputeInput) (*PayoutResponse, error) {
	if input.DisputeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute id required")
	}
	if input.ResolverID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "resolver identity missing")
	}
	if !input.Resolution.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid dispute resolution")
	}
	if input.NewAmount != nil && !input.NewAmount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "corrected amount must be positive")
	}

	var (
		payout *models.GaragePayout
		queued []notifications.Input
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		dispute, err := repo.FindDisputeByIDForUpdate(ctx, input.DisputeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dispute")
		}
		if !dispute.Status.IsBlocking() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "dispute already settled").
				WithDetails(map[string]any{"dispute_status": dispute.Status.String()})
		}

		payout, err = repo.FindByIDForUpdate(ctx, dispute.PayoutID)
		if err != nil {
			return mapPayoutLookupErr(err)
		}

		now := s.now()
		payoutUpdates := map[string]any{}
		switch input.Resolution {
		case enums.DisputeResolutionReSent:
			if err := TransitionResolveResend.Apply(payout); err != nil {
				return err
			}
			payout.SentAt = &now
			payout.ConfirmedAt = nil
			payout.AutoConfirmed = false
			payoutUpdates["sent_at"] = now
			payoutUpdates["confirmed_at"] = nil
			payoutUpdates["auto_confirmed"] = false
			if input.NewAmount != nil {
				payout.NetAmount = *input.NewAmount
				payoutUpdates["net_amount"] = *input.NewAmount
			}
			if input.PaymentReference != nil {
				payout.PaymentReference = input.PaymentReference
				payoutUpdates["payment_reference"] = *input.PaymentReference
			}
		case enums.DisputeResolutionConfirmed:
			if err := TransitionResolveConfirm.Apply(payout); err != nil {
				return err
			}
			payout.ConfirmedAt = &now
			payoutUpdates["confirmed_at"] = now
		case enums.DisputeResolutionCancelled:
			if err := TransitionResolveCancel.Apply(payout); err != nil {
				return err
			}
		}
		payoutUpdates["status"] = payout.Status
		if err := repo.Update(ctx, payout.ID, payoutUpdates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
		}

		resolution := input.Resolution
		disputeUpdates := map[string]any{
			"status":      enums.DisputeStatusResolved,
			"resolution":  resolution,
			"resolved_by": input.ResolverID,
			"resolved_at": now,
		}
		if input.Note != "" {
			disputeUpdates["notes"] = input.Note
		}
		if err := repo.UpdateDispute(ctx, dispute.ID, disputeUpdates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update dispute")
		}

		queued = append(queued, notifications.Input{
			RecipientID: &payout.GarageID,
			Role:        enums.ActorRoleGarage,
			Type:        enums.NotificationTypePayoutDisputeResolved,
			Title:       "Dispute resolved",
			Message:     fmt.Sprintf("Your dispute on payout %s was resolved: %s.", payout.ID, resolution),
			Data: map[string]any{
				"payout_id":  payout.ID.String(),
				"dispute_id": dispute.ID.String(),
				"resolution": resolution,
			},
		})

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutDisputeResolved,
			AggregateType: enums.AggregatePayout,
			AggregateID:   payout.ID,
			Actor:         &outbox.ActorRef{UserID: input.ResolverID, Role: enums.ActorRoleOperations.String()},
			Version:       1,
			Data: payloads.PayoutDisputeResolvedEvent{
				PayoutID:   payout.ID,
				DisputeID:  dispute.ID,
				GarageID:   payout.GarageID,
				Resolution: resolution,
				NewStatus:  payout.Status,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, queued)
	s.log(ctx, "payout dispute resolved", map[string]any{
		"dispute_id": input.DisputeID.String(),
		"resolution": input.Resolution,
	})
	return toPayoutResponse(payout), nil
}

// AutoConfirmDue confirms every payout that has sat in awaiting_confirmation
// past the complaint window. The whole sweep runs at serializable isolation so
// concurrent confirms or disputes force a retry instead of a double write.
func (s *service) AutoConfirmDue(ctx context.Context, input AutoConfirmInput) (int, error) {
	cutoff := s.now().AddDate(0, 0, -models.WarrantyDays)

	var (
		confirmed int
		queued    []notifications.Input
	)
	err := s.tx.WithSerializableTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		confirmed = 0
		queued = queued[:0]

		due, err := repo.ListAwaitingOlderThanForUpdate(ctx, cutoff)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list due payouts")
		}

		now := s.now()
		for i := range due {
			payout := &due[i]
			if err := TransitionAutoConfirm.Apply(payout); err != nil {
				return err
			}
			payout.ConfirmedAt = &now
			payout.AutoConfirmed = true
			if err := repo.Update(ctx, payout.ID, map[string]any{
				"status":         payout.Status,
				"confirmed_at":   now,
				"auto_confirmed": true,
				"notes":          autoConfirmNote,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
			}

			if input.ActorID != uuid.Nil {
				detail, _ := json.Marshal(map[string]any{"note": autoConfirmNote})
				if err := repo.CreateAuditLog(ctx, &models.AdminAuditLog{
					ActorID:  input.ActorID,
					Action:   enums.AdminPayoutActionAutoConfirm,
					PayoutID: payout.ID,
					Detail:   detail,
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write audit log")
				}
			}

			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPayoutAutoConfirmed,
				AggregateType: enums.AggregatePayout,
				AggregateID:   payout.ID,
				Version:       1,
				Data: payloads.PayoutConfirmedEvent{
					PayoutID:      payout.ID,
					OrderID:       payout.OrderID,
					GarageID:      payout.GarageID,
					AutoConfirmed: true,
					ConfirmedAt:   now,
				},
			}); err != nil {
				return err
			}

			queued = append(queued, notifications.Input{
				RecipientID: &payout.GarageID,
				Role:        enums.ActorRoleGarage,
				Type:        enums.NotificationTypePayoutAutoConfirmed,
				Title:       "Payout auto-confirmed",
				Message:     fmt.Sprintf("Payout %s was automatically confirmed after %d days.", payout.ID, models.WarrantyDays),
				Data:        payoutNotificationData(payout),
			})
			confirmed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.notify(ctx, queued)
	if confirmed > 0 {
		s.log(ctx, "payout auto-confirm sweep", map[string]any{"confirmed": confirmed})
	}
	return confirmed, nil
}

func payoutNotificationData(payout *models.GaragePayout) map[string]any {
	return map[string]any{
		"payout_id":  payout.ID.String(),
		"order_id":   payout.OrderID.String(),
		"net_amount": payout.NetAmount.String(),
		"currency":   payout.Currency,
	}
}

func mapPayoutLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
}

func mapOrderLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}
