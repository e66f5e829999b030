package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/veedsify/mightyshare-api/internal/auth"
	"github.com/veedsify/mightyshare-api/internal/complaint"
	"github.com/veedsify/mightyshare-api/internal/payment"
	"github.com/veedsify/mightyshare-api/internal/settlement"
	"github.com/veedsify/mightyshare-api/internal/thrift"
	"github.com/veedsify/mightyshare-api/internal/transport/middleware"
	"github.com/veedsify/mightyshare-api/internal/transport/swagger"
	"github.com/veedsify/mightyshare-api/internal/user"
	"github.com/veedsify/mightyshare-api/internal/wallet"
)

// Handlers bundles every HTTP handler the router needs. Nil handlers
// simply leave their routes unregistered, which keeps partial wiring
// possible in tests.
type Handlers struct {
	Auth       *auth.Handler
	RBAC       *auth.RBACAuthorization
	User       *user.Handler
	Thrift     *thrift.Handler
	Payment    *payment.Handler
	Webhook    *payment.WebhookHandler
	Wallet     *wallet.Handler
	Settlement *settlement.Handler
	Complaint  *complaint.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", h.Auth.Login)
				sr.Post("/refresh", h.Auth.RefreshToken)
				sr.Post("/logout", h.Auth.Logout)
			})
		}

		// Public routes: registration, package listing, gateway webhook
		if h.User != nil {
			r.Post("/users/register", h.User.Register)
		}
		if h.Thrift != nil {
			r.Get("/packages", h.Thrift.GetPackages)
		}
		if h.Webhook != nil {
			r.Post("/payments/callback", h.Webhook.HandleCallback)
		}

		if h.Auth != nil {
			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(h.Auth.AuthMiddleware)

				if h.User != nil {
					pr.Get("/users/me", h.User.GetCurrentUser)
				}

				if h.Thrift != nil {
					pr.Post("/packages/{id}/subscribe", h.Thrift.Subscribe)

					if h.RBAC != nil {
						pr.Group(func(mr chi.Router) {
							mr.Use(h.RBAC.RequireAdmin())
							mr.Post("/packages", h.Thrift.CreatePackage)
							mr.Patch("/packages/{id}", h.Thrift.UpdatePackage)
						})
					}
				}

				if h.Payment != nil {
					pr.Route("/payments", func(pmr chi.Router) {
						pmr.Post("/", h.Payment.InitiatePayment)
						pmr.Get("/{orderID}", h.Payment.GetPayment)
						pmr.Get("/{orderID}/verify", h.Payment.VerifyPayment)
						pmr.Get("/{orderID}/verify-topup", h.Payment.VerifyTopup)
					})
				}

				if h.Wallet != nil {
					pr.Get("/wallet", h.Wallet.GetWallet)
				}

				if h.Settlement != nil {
					pr.Route("/settlements", func(sr chi.Router) {
						sr.Post("/", h.Settlement.RequestSettlement)
						sr.Get("/", h.Settlement.ListSettlements)

						if h.RBAC != nil {
							sr.Group(func(mr chi.Router) {
								mr.Use(h.RBAC.RequireApproveSettlement())
								mr.Patch("/{id}/approve", h.Settlement.ApproveSettlement)
								mr.Patch("/{id}/reject", h.Settlement.RejectSettlement)
							})
						}
					})
				}

				if h.Complaint != nil {
					pr.Route("/complaints", func(cr chi.Router) {
						cr.Post("/", h.Complaint.OpenComplaint)
						cr.Get("/", h.Complaint.ListComplaints)

						if h.RBAC != nil {
							cr.Group(func(mr chi.Router) {
								mr.Use(h.RBAC.RequireResolveComplaint())
								mr.Patch("/{id}/resolve", h.Complaint.ResolveComplaint)
							})
						}
					})
				}
			})
		}
	})
}
