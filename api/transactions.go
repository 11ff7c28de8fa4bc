/*
transactions.go - Transaction, debt and line-item handlers

PURPOSE:
  The write side of the API. Every endpoint here delegates to
  ledger.Engine so the (status, deleted) state machine and the
  exactly-once balance rules cannot be bypassed from HTTP.

SEE ALSO:
  - handlers.go:      Handler context and response helpers
  - ledger/engine.go: The state machine behind these endpoints
*/
package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/balanceflow/balanceflow/ledger"
	"github.com/balanceflow/balanceflow/store/sqlite"
)

// =============================================================================
// TRANSACTIONS
// =============================================================================

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	filter := sqlite.TransactionFilter{
		AccountID:  ledger.AccountID(qs.Get("account_id")),
		Type:       ledger.TransactionType(qs.Get("type")),
		Status:     ledger.TransactionStatus(qs.Get("status")),
		CategoryID: ledger.CategoryID(qs.Get("category_id")),
		MerchantID: ledger.MerchantID(qs.Get("merchant_id")),
	}
	if s := qs.Get("from"); s != "" {
		t, err := parseDate("from", s)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		filter.From = &t
	}
	if s := qs.Get("to"); s != "" {
		t, err := parseDate("to", s)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		filter.To = &t
	}
	if s := qs.Get("limit"); s != "" {
		filter.Limit, _ = strconv.Atoi(s)
	}
	if s := qs.Get("offset"); s != "" {
		filter.Offset, _ = strconv.Atoi(s)
	}

	txs, err := h.Store.ListTransactions(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}

	dtos := make([]TransactionDTO, 0, len(txs))
	for _, t := range txs {
		dtos = append(dtos, toTransactionDTO(t))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Store.GetTransaction(r.Context(), ledger.TransactionID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if tx.IsDeleted {
		writeError(w, http.StatusNotFound, ledger.ErrTransactionNotFound.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	in := ledger.CreateInput{
		Type:      ledger.TransactionType(req.Type),
		Amount:    amount,
		AccountID: ledger.AccountID(req.AccountID),
		Note:      req.Note,
		Status:    ledger.TransactionStatus(req.Status),
	}
	if req.ToAccountID != nil {
		id := ledger.AccountID(*req.ToAccountID)
		in.ToAccountID = &id
	}
	if req.CategoryID != nil {
		id := ledger.CategoryID(*req.CategoryID)
		in.CategoryID = &id
	}
	if req.MerchantID != nil {
		id := ledger.MerchantID(*req.MerchantID)
		in.MerchantID = &id
	}
	if req.Date != "" {
		t, err := parseDate("date", req.Date)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		in.Date = t
	}

	tx, err := h.Engine.Create(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req UpdateTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in := ledger.UpdateInput{Note: req.Note}
	if req.CategoryID != nil {
		id := ledger.CategoryID(*req.CategoryID)
		in.CategoryID = &id
	}
	if req.MerchantID != nil {
		id := ledger.MerchantID(*req.MerchantID)
		in.MerchantID = &id
	}
	if req.Date != nil {
		t, err := parseDate("date", *req.Date)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		in.Date = &t
	}

	tx, err := h.Engine.Update(r.Context(), ledger.TransactionID(chi.URLParam(r, "id")), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.Delete(r.Context(), ledger.TransactionID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// LINE ITEMS
// =============================================================================

func (h *Handler) ListTransactionItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListTransactionItems(r.Context(), ledger.TransactionID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transaction items", err)
		return
	}

	dtos := make([]TransactionItemDTO, 0, len(items))
	for _, li := range items {
		dtos = append(dtos, toTransactionItemDTO(li))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) AddTransactionItem(w http.ResponseWriter, r *http.Request) {
	var req AddTransactionItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	in := ledger.ItemInput{
		ItemID:  ledger.ItemID(req.ItemID),
		Amount:  amount,
		Remarks: req.Remarks,
	}
	if req.Quantity != "" {
		if in.Quantity, err = parseAmount("quantity", req.Quantity); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	li, err := h.Engine.AddItem(r.Context(), ledger.TransactionID(chi.URLParam(r, "id")), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionItemDTO(li))
}

func (h *Handler) UpdateTransactionItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateTransactionItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var patch ledger.ItemPatch
	if req.Amount != nil {
		v, err := parseAmount("amount", *req.Amount)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		patch.Amount = &v
	}
	if req.Quantity != nil {
		v, err := parseAmount("quantity", *req.Quantity)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		patch.Quantity = &v
	}
	patch.Remarks = req.Remarks

	li, err := h.Engine.UpdateItem(r.Context(), ledger.TransactionItemID(chi.URLParam(r, "id")), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionItemDTO(li))
}

func (h *Handler) DeleteTransactionItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.RemoveItem(r.Context(), ledger.TransactionItemID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// DEBTS
// =============================================================================

func (h *Handler) ListDebts(w http.ResponseWriter, r *http.Request) {
	var settled *bool
	if s := r.URL.Query().Get("settled"); s != "" {
		v := s == "true"
		settled = &v
	}

	debts, err := h.Store.ListDebts(r.Context(), settled)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list debts", err)
		return
	}

	dtos := make([]DebtDTO, 0, len(debts))
	for _, d := range debts {
		dtos = append(dtos, toDebtRecordDTO(d))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetDebt(w http.ResponseWriter, r *http.Request) {
	debt, err := h.Store.GetDebt(r.Context(), ledger.DebtID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDebtDTO(debt))
}

func (h *Handler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	var req CreateDebtRequest
	if !decodeBody(w, r, &req) {
		return
	}

	debt, err := h.Engine.AttachDebt(r.Context(),
		ledger.TransactionID(req.TransactionID),
		req.PersonName,
		ledger.DebtDirection(req.Direction),
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDebtDTO(debt))
}

func (h *Handler) SettleDebt(w http.ResponseWriter, r *http.Request) {
	id := ledger.DebtID(chi.URLParam(r, "id"))
	if err := h.Engine.SettleDebt(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	debt, err := h.Store.GetDebt(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDebtDTO(debt))
}

func (h *Handler) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DeleteDebt(r.Context(), ledger.DebtID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
