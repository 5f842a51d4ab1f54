/*
server.go - HTTP router and middleware configuration

PURPOSE:

	Configures the HTTP router (chi), middleware stack, and route definitions.
	This is the wiring layer that connects URLs to handlers.

ROUTER: chi

	Chi was chosen for:
	- Lightweight and fast
	- Context-based
	- Middleware support
	- RESTful route patterns

MIDDLEWARE STACK:
 1. Logger:     Request logging
 2. Recoverer:  Panic recovery (500 instead of crash)
 3. RequestID:  Unique ID per request for tracing
 4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:

	/api/customers/*         Customer management
	/api/contracts/*         Contract management + computed metrics
	/api/price-increases/*   Price increase rules
	/api/commission-rates/*  Commission rate schedules
	/api/settings            Commission/payout settings document
	/api/analytics/*         Dashboard, forecast, customer detail
	/api/scenarios/*         Demo scenarios

SECURITY NOTE:

	No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Customer routes
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.ListCustomers)
			r.Post("/", h.CreateCustomer)
			r.Get("/{id}", h.GetCustomer)
			r.Put("/{id}", h.UpdateCustomer)
			r.Delete("/{id}", h.DeleteCustomer)
		})

		// Contract routes
		r.Route("/contracts", func(r chi.Router) {
			r.Get("/", h.ListContracts)
			r.Post("/", h.CreateContract)
			r.Get("/{id}", h.GetContract)
			r.Put("/{id}", h.UpdateContract)
			r.Delete("/{id}", h.DeleteContract)
			r.Get("/{id}/metrics", h.GetContractMetrics)
		})

		// Price increase routes
		r.Route("/price-increases", func(r chi.Router) {
			r.Get("/", h.ListPriceIncreases)
			r.Post("/", h.CreatePriceIncrease)
			r.Delete("/{id}", h.DeletePriceIncrease)
		})

		// Commission rate routes
		r.Route("/commission-rates", func(r chi.Router) {
			r.Get("/", h.ListRateSchedules)
			r.Post("/", h.CreateRateSchedule)
			r.Delete("/{id}", h.DeleteRateSchedule)
		})

		// Settings routes
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.GetSettings)
			r.Put("/", h.UpdateSettings)
		})

		// Analytics routes
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/dashboard", h.GetDashboard)
			r.Get("/forecast", h.GetForecast)
			r.Get("/customer/{id}", h.GetCustomerAnalytics)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	// Landing page with endpoint index
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Contract Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Contract Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/customers">/api/customers</a> - List customers</li>
<li><a href="/api/contracts">/api/contracts</a> - List contracts</li>
<li><a href="/api/price-increases">/api/price-increases</a> - List price increase rules</li>
<li><a href="/api/commission-rates">/api/commission-rates</a> - List commission rate schedules</li>
<li><a href="/api/settings">/api/settings</a> - Commission settings</li>
<li><a href="/api/analytics/dashboard">/api/analytics/dashboard</a> - Dashboard</li>
<li><a href="/api/analytics/forecast">/api/analytics/forecast</a> - Monthly forecast</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
