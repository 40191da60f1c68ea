package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/flowhq/flow-api/internal/handlers"
)

// NewRouter sets up the API routes
func NewRouter(
	auth *handlers.AuthHandler,
	invoice *handlers.InvoiceHandler,
	dashboard *handlers.DashboardHandler,
	settings *handlers.SettingsHandler,
	template *handlers.TemplateHandler,
	unsubscribe *handlers.UnsubscribeHandler,
) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Public endpoints
	router.HandleFunc("/api/signup", auth.SignUp).Methods(http.MethodPost)
	router.HandleFunc("/api/login", auth.Login).Methods(http.MethodPost)
	router.HandleFunc("/api/unsubscribe", unsubscribe.Unsubscribe).Methods(http.MethodGet)

	// Authenticated API
	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.JWTMiddleware)

	api.HandleFunc("/invoices", invoice.List).Methods(http.MethodGet)
	api.HandleFunc("/invoices", invoice.Create).Methods(http.MethodPost)
	api.HandleFunc("/invoices/{invoiceID}/mark-paid", invoice.MarkPaid).Methods(http.MethodPatch)
	api.HandleFunc("/invoices/{invoiceID}/nudge-logs", invoice.NudgeLogs).Methods(http.MethodGet)

	api.HandleFunc("/dashboard/stats", dashboard.Stats).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/upcoming-nudges", dashboard.UpcomingNudges).Methods(http.MethodGet)

	api.HandleFunc("/settings", settings.Get).Methods(http.MethodGet)
	api.HandleFunc("/settings", settings.Update).Methods(http.MethodPatch)

	api.HandleFunc("/templates", template.List).Methods(http.MethodGet)
	api.HandleFunc("/templates", template.Upsert).Methods(http.MethodPut)

	return router
}
