package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kerjalink/kerjalink-backend/api/controllers"
	webhookcontrollers "github.com/kerjalink/kerjalink-backend/api/controllers/webhooks"
	"github.com/kerjalink/kerjalink-backend/api/middleware"
	"github.com/kerjalink/kerjalink-backend/internal/reports"
	"github.com/kerjalink/kerjalink-backend/internal/topup"
	"github.com/kerjalink/kerjalink-backend/internal/wallet"
	"github.com/kerjalink/kerjalink-backend/internal/withdrawals"
	"github.com/kerjalink/kerjalink-backend/pkg/config"
	"github.com/kerjalink/kerjalink-backend/pkg/db"
	"github.com/kerjalink/kerjalink-backend/pkg/logger"
)

// NewRouter assembles the HTTP surface: public health and payment
// callbacks, the authenticated user wallet routes, and the admin
// review surface.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger db.Pinger,
	walletService wallet.Service,
	topupService topup.Service,
	withdrawService withdrawals.Service,
	reportsService reports.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Get("/healthz", controllers.Healthz(logg, dbPinger))

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Post("/midtrans/callback", webhookcontrollers.MidtransCallback(topupService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.GetWallet(walletService, logg))
			r.Get("/transactions", controllers.GetWalletStatement(walletService, logg))
			r.Post("/topup", controllers.CreateTopup(topupService, logg))
		})

		r.Route("/withdraw-methods", func(r chi.Router) {
			r.Get("/", controllers.ListWithdrawMethods(withdrawService, logg))
			r.Post("/", controllers.AddWithdrawMethod(withdrawService, logg))
			r.Delete("/{methodID}", controllers.RemoveWithdrawMethod(withdrawService, logg))
		})

		r.Route("/withdraw-requests", func(r chi.Router) {
			r.Get("/", controllers.ListWithdrawRequests(withdrawService, logg))
			r.Post("/", controllers.CreateWithdrawRequest(withdrawService, logg))
			r.Get("/{requestID}", controllers.GetWithdrawRequest(withdrawService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))

			r.Post("/wallets/{userID}/balance", controllers.AddWalletBalance(topupService, logg))

			r.Route("/withdraw-requests", func(r chi.Router) {
				r.Get("/", controllers.ListWithdrawQueue(withdrawService, logg))
				r.Post("/{requestID}/lock", controllers.LockWithdrawRequest(withdrawService, logg))
				r.Post("/{requestID}/unlock", controllers.UnlockWithdrawRequest(withdrawService, logg))
				r.Post("/{requestID}/approve", controllers.ApproveWithdrawRequest(withdrawService, logg))
				r.Post("/{requestID}/reject", controllers.RejectWithdrawRequest(withdrawService, logg))
				r.Post("/{requestID}/send", controllers.SendWithdrawRequest(withdrawService, logg))
			})

			r.Get("/reports/dashboard", controllers.GetDashboardReport(reportsService, logg))
		})
	})

	return r
}
