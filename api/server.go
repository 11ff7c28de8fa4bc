/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

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
  4. CORS:       Cross-origin requests for the frontend
  5. requireToken: Shared-secret auth on everything under /api

AUTHENTICATION:
  Single-user deployments authenticate with a shared secret in the
  X-App-Token header. An empty secret disables the check (local dev).
  GET /health is always open so load balancers can reach it.

ROUTE GROUPS:
  /health                   Liveness check (unauthenticated)
  /api/accounts/*           Account management
  /api/transactions/*       Transaction lifecycle + line items
  /api/transaction-items/*  Line-item edits by ID
  /api/debts/*              Debt attach/settle/delete
  /api/categories/*         Category catalog
  /api/merchants/*          Merchant catalog
  /api/items/*              Item catalog
  /api/analytics/*          Summaries, breakdowns, trends

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Options configures the router.
type Options struct {
	// AllowedOrigins for CORS. Empty means same-origin only.
	AllowedOrigins []string
	// AppSecret is the shared X-App-Token value. Empty disables auth.
	AppSecret string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-App-Token"},
			AllowCredentials: true,
		}))
	}

	r.Get("/health", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(requireToken(opts.AppSecret))

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Get("/{id}", h.GetAccount)
			r.Patch("/{id}", h.UpdateAccount)
			r.Delete("/{id}", h.DeleteAccount)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Post("/", h.CreateTransaction)
			r.Get("/{id}", h.GetTransaction)
			r.Patch("/{id}", h.UpdateTransaction)
			r.Delete("/{id}", h.DeleteTransaction)
			r.Get("/{id}/items", h.ListTransactionItems)
			r.Post("/{id}/items", h.AddTransactionItem)
		})

		r.Route("/transaction-items", func(r chi.Router) {
			r.Patch("/{id}", h.UpdateTransactionItem)
			r.Delete("/{id}", h.DeleteTransactionItem)
		})

		r.Route("/debts", func(r chi.Router) {
			r.Get("/", h.ListDebts)
			r.Post("/", h.CreateDebt)
			r.Get("/{id}", h.GetDebt)
			r.Patch("/{id}/settle", h.SettleDebt)
			r.Delete("/{id}", h.DeleteDebt)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Get("/{id}", h.GetCategory)
			r.Patch("/{id}", h.UpdateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})

		r.Route("/merchants", func(r chi.Router) {
			r.Get("/", h.ListMerchants)
			r.Post("/", h.CreateMerchant)
			r.Get("/{id}", h.GetMerchant)
			r.Patch("/{id}", h.UpdateMerchant)
			r.Delete("/{id}", h.DeleteMerchant)
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.Post("/", h.CreateItem)
			r.Patch("/{id}", h.UpdateItem)
			r.Delete("/{id}", h.DeleteItem)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/summary", h.Summary)
			r.Get("/by-category", h.SpendingByCategory)
			r.Get("/by-merchant", h.SpendingByMerchant)
			r.Get("/trends", h.Trends)
		})
	})

	return r
}

// requireToken rejects requests whose X-App-Token doesn't match the
// configured secret. Constant-time comparison; an empty secret disables
// the check entirely.
func requireToken(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret != "" {
				token := r.Header.Get("X-App-Token")
				if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
					writeError(w, http.StatusUnauthorized, "invalid or missing token", nil)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
