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
	"github.com/garagio/garagio-backend/internal/refunds"
	"github.com/garagio/garagio-backend/pkg/enums"
	pkgerrors "github.com/garagio/garagio-backend/pkg/errors"
	"github.com/garagio/garagio-backend/pkg/logger"
)

type createRefundRequest struct {
	OrderID    string `json:"order_id" validate:"required"`
	RefundType string `json:"refund_type" validate:"required"`
	Amount     string `json:"amount" validate:"required"`
	Reason     string `json:"reason" validate:"required,min=5,max=2000"`
}

func (req createRefundRequest) toInput(requestedBy uuid.UUID) (refunds.CreateRefundInput, error) {
	orderID, err := uuid.Parse(strings.TrimSpace(req.OrderID))
	if err != nil {
		return refunds.CreateRefundInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_id")
	}

	refundType, err := enums.ParseRefundType(strings.TrimSpace(req.RefundType))
	if err != nil {
		return refunds.CreateRefundInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid refund type")
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return refunds.CreateRefundInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount")
	}

	return refunds.CreateRefundInput{
		OrderID:     orderID,
		RefundType:  refundType,
		Amount:      amount,
		Reason:      validators.SanitizeString(req.Reason, 2000),
		RequestedBy: requestedBy,
	}, nil
}

// CreateRefund records a refund request against a settled order.
func CreateRefund(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refund service unavailable"))
			return
		}

		var payload createRefundRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(middleware.ActorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.CreateRefund(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

// GetRefund returns one refund by id.
func GetRefund(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refund service unavailable"))
			return
		}

		refundID, err := uuid.Parse(chi.URLParam(r, "refundId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid refund id"))
			return
		}

		resp, err := svc.GetRefund(r.Context(), refundID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// ListOrderRefunds returns every refund recorded against an order.
func ListOrderRefunds(svc refunds.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "refund service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		resp, err := svc.ListByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
