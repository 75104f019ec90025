package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/tenant-access-gate/app"
	"github.com/upb/tenant-access-gate/clerk"
	"github.com/upb/tenant-access-gate/handlers"
	"github.com/upb/tenant-access-gate/middleware"
	"github.com/upb/tenant-access-gate/services/usersync"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger, deps.Metrics))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware; cors treats an empty origin list as any origin, so no
	// origins configured means no cross-origin access at all
	if origins := deps.Config.Server.AllowedOrigins; len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Route gate runs on every request and skips excluded paths itself
	var validator middleware.SessionValidator
	if deps.SessionValidator != nil {
		validator = deps.SessionValidator
	}
	gate := middleware.NewRouteGate(validator, deps.Config.Gate, deps.Logger, deps.Metrics)
	r.Use(gate.Handler)

	// Health check endpoints
	var ledger handlers.Pinger
	if deps.Ledger != nil {
		ledger = deps.Ledger
	}
	var db handlers.DatabaseChecker
	if deps.DB != nil {
		db = deps.DB
	}
	health := handlers.NewHealthHandler(db, ledger, deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// Identity provider webhooks, authenticated by signature
	var deliveryLedger handlers.DeliveryLedger
	if deps.Ledger != nil {
		deliveryLedger = deps.Ledger
	}
	r.Route("/api/webhooks/clerk", func(r chi.Router) {
		r.Method(http.MethodPost, "/staff", handlers.NewWebhookHandler(
			usersync.AudienceStaff, verifier(deps.StaffWebhook), deps.UserSync, deliveryLedger, deps.Logger, deps.Metrics))
		r.Method(http.MethodPost, "/student", handlers.NewWebhookHandler(
			usersync.AudienceStudent, verifier(deps.StudentWebhook), deps.UserSync, deliveryLedger, deps.Logger, deps.Metrics))
	})

	// Admin API; the gate has already required a signed-in session
	r.Method(http.MethodPost, "/api/admin/assign-role",
		handlers.NewAssignRoleHandler(deps.RoleAssign, deps.Logger, deps.Metrics))
	r.Method(http.MethodGet, "/api/admin/role-history",
		handlers.NewRoleHistoryHandler(deps.RoleAssign, deps.Logger))

	// Pages
	pages := handlers.NewPageHandler(deps.Config.Clerk.SignInURL, deps.Logger)
	r.Get("/admin/assign-role", pages.AssignRole)
	r.Get("/staff", pages.StaffHome)
	r.Get("/student", pages.StudentHome)
	r.Get("/no-access", pages.NoAccess)
	r.Get(middleware.SignInPath, pages.SignIn)

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}

// verifier keeps an unset secret a nil interface so the handler rejects deliveries
func verifier(v *clerk.WebhookVerifier) handlers.EventVerifier {
	if v == nil {
		return nil
	}
	return v
}
