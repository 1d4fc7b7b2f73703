package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/garagio/garagio-backend/api/controllers"
	"github.com/garagio/garagio-backend/api/middleware"
	"github.com/garagio/garagio-backend/internal/notifications"
	"github.com/garagio/garagio-backend/internal/payouts"
	"github.com/garagio/garagio-backend/internal/refunds"
	"github.com/garagio/garagio-backend/internal/revenue"
	"github.com/garagio/garagio-backend/internal/support"
	"github.com/garagio/garagio-backend/pkg/config"
	"github.com/garagio/garagio-backend/pkg/db"
	"github.com/garagio/garagio-backend/pkg/enums"
	"github.com/garagio/garagio-backend/pkg/logger"
	"github.com/garagio/garagio-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	idemStore redis.IdempotencyStore,
	payoutService payouts.Service,
	refundService refunds.Service,
	supportService support.Service,
	revenueService revenue.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Get("/api/public/ping", controllers.PublicPing())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ActorContext(logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/payouts", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.ActorRoleGarage))
				r.Get("/", controllers.ListPayouts(payoutService, logg))
				r.Get("/summary", controllers.PayoutSummary(payoutService, logg))
				r.Get("/awaiting-confirmation", controllers.AwaitingPayouts(payoutService, logg))
				r.Post("/confirm-all", controllers.ConfirmAllPayouts(payoutService, logg))
				r.Post("/{payoutId}/confirm", controllers.ConfirmPayout(payoutService, logg))
				r.Post("/{payoutId}/dispute", controllers.DisputePayout(payoutService, logg))
			})
			r.With(middleware.RequireRole(logg, enums.ActorRoleGarage, enums.ActorRoleSupport, enums.ActorRoleOperations)).
				Get("/{payoutId}", controllers.GetPayout(payoutService, logg))
		})

		r.Route("/refunds", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, enums.ActorRoleSupport)).
				Post("/", controllers.CreateRefund(refundService, logg))
			r.With(middleware.RequireRole(logg, enums.ActorRoleSupport, enums.ActorRoleOperations)).
				Get("/{refundId}", controllers.GetRefund(refundService, logg))
			r.With(middleware.RequireRole(logg, enums.ActorRoleSupport, enums.ActorRoleOperations)).
				Post("/{refundId}/process", controllers.SupportProcessRefund(supportService, logg))
		})

		r.With(middleware.RequireRole(logg, enums.ActorRoleSupport, enums.ActorRoleOperations)).
			Get("/orders/{orderId}/refunds", controllers.ListOrderRefunds(refundService, logg))

		r.Route("/support/orders/{orderId}", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleSupport))
			r.Post("/full-refund", controllers.SupportFullRefund(supportService, logg))
			r.Post("/cancel", controllers.SupportCancelOrder(supportService, logg))
			r.Post("/reassign-driver", controllers.SupportReassignDriver(supportService, logg))
			r.Post("/escalate", controllers.SupportEscalate(supportService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.ActorContext(logg))
		r.Use(middleware.RequireRole(logg, enums.ActorRoleOperations))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/payouts", func(r chi.Router) {
			r.Get("/", controllers.AdminListPayouts(payoutService, logg))
			r.Get("/{payoutId}", controllers.GetPayout(payoutService, logg))
			r.Post("/{payoutId}/send", controllers.AdminSendPayout(payoutService, logg))
			r.Post("/{payoutId}/hold", controllers.AdminHoldPayout(payoutService, logg))
			r.Post("/{payoutId}/release", controllers.AdminReleasePayout(payoutService, logg))
			r.Post("/{payoutId}/force-process", controllers.AdminForceProcessPayout(payoutService, logg))
			r.Post("/{payoutId}/process", controllers.AdminProcessPayout(payoutService, logg))
			r.Post("/{payoutId}/remind", controllers.AdminRemindPayout(payoutService, logg))
			r.Post("/disputes/{disputeId}/resolve", controllers.AdminResolveDispute(payoutService, logg))
		})

		r.Route("/revenue", func(r chi.Router) {
			r.Get("/report", controllers.RevenueReport(revenueService, logg))
			r.Get("/transactions", controllers.RevenueTransactions(revenueService, logg))
		})
	})

	return r
}
