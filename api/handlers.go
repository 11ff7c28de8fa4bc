/*
handlers.go - HTTP handlers: dependencies, error mapping, accounts

PURPOSE:
  Exposes the ledger engine and catalog via REST. Handles HTTP
  request/response and JSON serialization; every mutation of ledger
  state goes through ledger.Engine, never straight to SQL.

ERROR HANDLING:
  Domain errors map onto HTTP status via writeDomainError:
  - 400: validation (bad shape, bad enum, bad reference kind)
  - 404: missing or soft-deleted resources
  - 409: state-machine refusals (settled debt, duplicate debt, ...)
  - 500: persistence failures (the scope was rolled back)

SEE ALSO:
  - dto.go:          Request/response data structures
  - transactions.go: Transaction, debt and line-item handlers
  - catalog.go:      Category, merchant and item handlers
  - server.go:       Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/balanceflow/balanceflow/ledger"
	"github.com/balanceflow/balanceflow/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *ledger.Engine
}

// NewHandler wires the store and the lifecycle engine.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:  store,
		Engine: ledger.NewEngine(store),
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps a ledger error onto the HTTP failure taxonomy.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case ledger.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case ledger.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// parseAmount parses a money string, rejecting garbage with a field name.
func parseAmount(field, s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ledger.ValidationError{Field: field, Message: "must be a decimal number"}
	}
	return v, nil
}

// parseDate parses an RFC 3339 timestamp or a bare YYYY-MM-DD day.
func parseDate(field, s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, &ledger.ValidationError{Field: field, Message: "must be RFC 3339 or YYYY-MM-DD"}
}

func newID() string {
	return uuid.NewString()
}

// =============================================================================
// HEALTH
// =============================================================================

// Health is the only unauthenticated endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"app":       "balanceflow",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("include_inactive") == "true"
	accounts, err := h.Store.ListAccounts(r.Context(), includeInactive)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list accounts", err)
		return
	}

	dtos := make([]AccountDTO, 0, len(accounts))
	for _, a := range accounts {
		dtos = append(dtos, toAccountDTO(a))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := h.Store.GetAccount(r.Context(), ledger.AccountID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(acct))
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if !ledger.ValidAccountType(ledger.AccountType(req.Type)) {
		writeError(w, http.StatusBadRequest, "type must be cash, bank or wallet", nil)
		return
	}

	balance := decimal.Zero
	if req.Balance != "" {
		var err error
		if balance, err = parseAmount("balance", req.Balance); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	now := time.Now().UTC()
	acct := &ledger.Account{
		ID:        ledger.AccountID(newID()),
		Name:      req.Name,
		Type:      ledger.AccountType(req.Type),
		Balance:   balance,
		Currency:  currency,
		Color:     req.Color,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Store.CreateAccount(r.Context(), acct); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(acct))
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req UpdateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	acct, err := h.Store.GetAccount(r.Context(), ledger.AccountID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if req.Name != "" {
		acct.Name = req.Name
	}
	if req.Type != "" {
		if !ledger.ValidAccountType(ledger.AccountType(req.Type)) {
			writeError(w, http.StatusBadRequest, "type must be cash, bank or wallet", nil)
			return
		}
		acct.Type = ledger.AccountType(req.Type)
	}
	if req.Currency != "" {
		acct.Currency = req.Currency
	}
	if req.Color != "" {
		acct.Color = req.Color
	}
	acct.UpdatedAt = time.Now().UTC()

	if err := h.Store.UpdateAccount(r.Context(), acct); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(acct))
}

// DeleteAccount deactivates; history referencing the account survives.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeactivateAccount(r.Context(), ledger.AccountID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// =============================================================================
// ANALYTICS
// =============================================================================

// analyticsQuery reads the period (default month) and optional account
// filter shared by all analytics endpoints.
func analyticsQuery(r *http.Request) (period string, from, to time.Time, accountID ledger.AccountID, err error) {
	period = r.URL.Query().Get("period")
	if period == "" {
		period = "month"
	}
	to = time.Now().UTC()
	from, err = sqlite.PeriodWindow(period, to)
	if err != nil {
		return "", time.Time{}, time.Time{}, "", err
	}
	accountID = ledger.AccountID(r.URL.Query().Get("account_id"))
	return period, from, to, accountID, nil
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	period, from, to, accountID, err := analyticsQuery(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s, err := h.Store.Summarize(r.Context(), from, to, accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize", err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryDTO{
		TotalIncome:  s.TotalIncome,
		TotalExpense: s.TotalExpense,
		Net:          s.Net,
		TotalBalance: s.TotalBalance,
		Count:        s.Count,
		Period:       period,
		From:         from,
		To:           to,
	})
}

func (h *Handler) SpendingByCategory(w http.ResponseWriter, r *http.Request) {
	_, from, to, accountID, err := analyticsQuery(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	totals, err := h.Store.SpendingByCategory(r.Context(), from, to, accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to aggregate by category", err)
		return
	}

	dtos := make([]CategoryTotalDTO, 0, len(totals))
	for _, ct := range totals {
		dtos = append(dtos, CategoryTotalDTO{
			CategoryID: string(ct.CategoryID),
			Name:       ct.Name,
			Icon:       ct.Icon,
			Color:      ct.Color,
			Count:      ct.Count,
			Total:      ct.Total,
			Percent:    ct.Percent,
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SpendingByMerchant(w http.ResponseWriter, r *http.Request) {
	_, from, to, accountID, err := analyticsQuery(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	totals, err := h.Store.SpendingByMerchant(r.Context(), from, to, accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to aggregate by merchant", err)
		return
	}

	dtos := make([]MerchantTotalDTO, 0, len(totals))
	for _, mt := range totals {
		dtos = append(dtos, MerchantTotalDTO{
			MerchantID: string(mt.MerchantID),
			Name:       mt.Name,
			Count:      mt.Count,
			Total:      mt.Total,
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "month"
	}
	accountID := ledger.AccountID(r.URL.Query().Get("account_id"))
	points, err := h.Store.Trends(r.Context(), period, accountID)
	if err != nil {
		if ledger.IsValidation(err) {
			writeDomainError(w, err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to compute trends", err)
		return
	}

	dtos := make([]TrendPointDTO, 0, len(points))
	for _, tp := range points {
		dtos = append(dtos, TrendPointDTO{Bucket: tp.Bucket, Income: tp.Income, Expense: tp.Expense, Net: tp.Net})
	}
	writeJSON(w, http.StatusOK, dtos)
}
