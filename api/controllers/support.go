package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/garagio/garagio-backend/api/middleware"
	"github.com/garagio/garagio-backend/api/responses"
	"github.com/garagio/garagio-backend/api/validators"
	"github.com/garagio/garagio-backend/internal/support"
	"github.com/garagio/garagio-backend/pkg/enums"
	pkgerrors "github.com/garagio/garagio-backend/pkg/errors"
	"github.com/garagio/garagio-backend/pkg/logger"
)

type supportActionRequest struct {
	Reason string `json:"reason" validate:"required,min=5,max=2000"`
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}

// Support action outcomes are reported in the result payload, not as HTTP
// errors. A failed action is still a handled request.
func writeActionResult(w http.ResponseWriter, result *support.ActionResult) {
	responses.WriteSuccess(w, result)
}

// SupportFullRefund refunds a delivered order in full while its complaint
// window is open.
func SupportFullRefund(svc support.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "support service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload supportActionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result := svc.ExecuteFullRefund(r.Context(), support.FullRefundInput{
			OrderID: orderID,
			AgentID: middleware.ActorIDFromContext(r.Context()),
			Reason:  validators.SanitizeString(payload.Reason, 2000),
		})
		writeActionResult(w, result)
	}
}

// SupportCancelOrder cancels an order that has not left the garage yet.
func SupportCancelOrder(svc support.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "support service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload supportActionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result := svc.ExecuteCancelOrder(r.Context(), support.CancelOrderInput{
			OrderID: orderID,
			AgentID: middleware.ActorIDFromContext(r.Context()),
			Reason:  validators.SanitizeString(payload.Reason, 2000),
		})
		writeActionResult(w, result)
	}
}

// SupportReassignDriver requests a replacement driver for the active delivery.
func SupportReassignDriver(svc support.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "support service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload supportActionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result := svc.ExecuteReassignDriver(r.Context(), support.ReassignDriverInput{
			OrderID: orderID,
			AgentID: middleware.ActorIDFromContext(r.Context()),
			Reason:  validators.SanitizeString(payload.Reason, 2000),
		})
		writeActionResult(w, result)
	}
}

type escalateRequest struct {
	Reason   string `json:"reason" validate:"required,min=5,max=2000"`
	Priority string `json:"priority" validate:"omitempty"`
}

// SupportEscalate hands the order to the operations queue.
func SupportEscalate(svc support.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "support service unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload escalateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result := svc.ExecuteEscalateToOps(r.Context(), support.EscalateInput{
			OrderID:  orderID,
			AgentID:  middleware.ActorIDFromContext(r.Context()),
			Reason:   validators.SanitizeString(payload.Reason, 2000),
			Priority: enums.EscalationPriority(strings.TrimSpace(payload.Priority)),
		})
		writeActionResult(w, result)
	}
}

type processRefundRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// SupportProcessRefund completes a finance-approved refund and records the
// resolution against the order.
func SupportProcessRefund(svc support.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "support service unavailable"))
			return
		}

		refundID, err := uuid.Parse(chi.URLParam(r, "refundId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid refund id"))
			return
		}

		var payload processRefundRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuid.Parse(strings.TrimSpace(payload.OrderID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_id"))
			return
		}

		result := svc.ProcessApprovedRefund(r.Context(), support.ApprovedRefundInput{
			RefundID: refundID,
			OrderID:  orderID,
			AgentID:  middleware.ActorIDFromContext(r.Context()),
		})
		writeActionResult(w, result)
	}
}
