package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/garagio/garagio-backend/api/middleware"
	"github.com/garagio/garagio-backend/api/responses"
	"github.com/garagio/garagio-backend/api/validators"
	"github.com/garagio/garagio-backend/internal/payouts"
	"github.com/garagio/garagio-backend/pkg/enums"
	pkgerrors "github.com/garagio/garagio-backend/pkg/errors"
	"github.com/garagio/garagio-backend/pkg/logger"
)

type sendPayoutRequest struct {
	PaymentReference string `json:"payment_reference" validate:"required,min=3,max=255"`
}

// AdminSendPayout records that operations wired the payout to the garage.
func AdminSendPayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		payoutID, err := parsePayoutID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload sendPayoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.SendPayment(r.Context(), payouts.SendPaymentInput{
			PayoutID:         payoutID,
			ActorID:          middleware.ActorIDFromContext(r.Context()),
			PaymentReference: validators.SanitizeString(payload.PaymentReference, 255),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

type holdPayoutRequest struct {
	Reason string `json:"reason" validate:"required,min=5,max=2000"`
}

// AdminHoldPayout freezes a payout pending investigation.
func AdminHoldPayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		payoutID, err := parsePayoutID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload holdPayoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.HoldPayout(r.Context(), payouts.HoldPayoutInput{
			PayoutID: payoutID,
			ActorID:  middleware.ActorIDFromContext(r.Context()),
			Reason:   validators.SanitizeString(payload.Reason, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

func adminPayoutAction(
	logg *logger.Logger,
	action func(r *http.Request, input payouts.AdminActionInput) (*payouts.PayoutResponse, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payoutID, err := parsePayoutID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := action(r, payouts.AdminActionInput{
			PayoutID: payoutID,
			ActorID:  middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// AdminReleasePayout lifts a hold, returning the payout to the pending queue.
func AdminReleasePayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "payout service unavailable")
	}
	return adminPayoutAction(logg, func(r *http.Request, input payouts.AdminActionInput) (*payouts.PayoutResponse, error) {
		return svc.ReleasePayout(r.Context(), input)
	})
}

type forceProcessPayoutRequest struct {
	Reason string `json:"reason" validate:"required,min=5,max=2000"`
}

// AdminForceProcessPayout completes a payout outright without garage
// confirmation. The override reason is mandatory.
func AdminForceProcessPayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		payoutID, err := parsePayoutID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload forceProcessPayoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.ForceProcessPayout(r.Context(), payouts.ForceProcessInput{
			PayoutID: payoutID,
			ActorID:  middleware.ActorIDFromContext(r.Context()),
			Reason:   validators.SanitizeString(payload.Reason, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// AdminRemindPayout re-notifies the garage about an unconfirmed payout.
func AdminRemindPayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		payoutID, err := parsePayoutID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.SendReminder(r.Context(), payouts.SendReminderInput{
			PayoutID: payoutID,
			ActorID:  middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

type processPayoutRequest struct {
	PaymentReference string `json:"payment_reference" validate:"omitempty,min=3,max=255"`
}

// AdminProcessPayout finalizes a confirmed payout.
func AdminProcessPayout(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		payoutID, err := parsePayoutID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload processPayoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.ProcessPayout(r.Context(), payouts.ProcessPayoutInput{
			PayoutID:         payoutID,
			ActorID:          middleware.ActorIDFromContext(r.Context()),
			PaymentReference: validators.SanitizeString(payload.PaymentReference, 255),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// AdminListPayouts lists payouts across all garages, with optional filters.
func AdminListPayouts(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		var params payouts.ListPayoutsParams

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit
		params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

		if raw := strings.TrimSpace(r.URL.Query().Get("garage_id")); raw != "" {
			garageID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid garage id"))
				return
			}
			params.GarageID = &garageID
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParsePayoutStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payout status filter"))
				return
			}
			params.Status = &status
		}

		resp, err := svc.ListPayouts(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

type resolveDisputeRequest struct {
	Resolution       string  `json:"resolution" validate:"required"`
	NewAmount        *string `json:"new_amount"`
	PaymentReference *string `json:"payment_reference" validate:"omitempty,min=3,max=255"`
	Note             string  `json:"note" validate:"omitempty,max=2000"`
}

// AdminResolveDispute settles a payout dispute by re-sending, confirming, or
// cancelling the underlying payout.
func AdminResolveDispute(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		disputeID, err := uuid.Parse(chi.URLParam(r, "disputeId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dispute id"))
			return
		}

		var payload resolveDisputeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resolution, err := enums.ParseDisputeResolution(strings.TrimSpace(payload.Resolution))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid dispute resolution"))
			return
		}

		input := payouts.ResolveDisputeInput{
			DisputeID:  disputeID,
			ResolverID: middleware.ActorIDFromContext(r.Context()),
			Resolution: resolution,
			Note:       validators.SanitizeString(payload.Note, 2000),
		}
		if payload.NewAmount != nil {
			amount, err := decimal.NewFromString(strings.TrimSpace(*payload.NewAmount))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid new_amount"))
				return
			}
			input.NewAmount = &amount
		}
		if payload.PaymentReference != nil {
			ref := validators.SanitizeString(*payload.PaymentReference, 255)
			input.PaymentReference = &ref
		}

		resp, err := svc.ResolveDispute(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

func serviceUnavailable(logg *logger.Logger, msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, msg))
	}
}
