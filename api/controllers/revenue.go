package controllers

import (
	"net/http"
	"strings"

	"github.com/garagio/garagio-backend/api/responses"
	"github.com/garagio/garagio-backend/api/validators"
	"github.com/garagio/garagio-backend/internal/revenue"
	pkgerrors "github.com/garagio/garagio-backend/pkg/errors"
	"github.com/garagio/garagio-backend/pkg/logger"
	"github.com/garagio/garagio-backend/pkg/pagination"
)

// RevenueReport aggregates platform revenue over a trailing window.
func RevenueReport(svc revenue.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "revenue service unavailable"))
			return
		}

		period := revenue.ReportPeriod(strings.TrimSpace(r.URL.Query().Get("period")))
		if period == "" {
			period = revenue.Period30d
		}

		resp, err := svc.Report(r.Context(), period)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// RevenueTransactions returns the unified payout and refund feed, newest first.
func RevenueTransactions(svc revenue.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "revenue service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.TransactionFeed(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
