/*
catalog.go - Category, merchant and item handlers

PURPOSE:
  CRUD for the reference data around the ledger: spending categories,
  merchants (with their usage counter) and the item catalog (created
  lazily by name, guarded against deletion while referenced).

SEE ALSO:
  - handlers.go: Handler context and response helpers
  - store/sqlite/catalog.go: The queries behind these endpoints
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/balanceflow/balanceflow/ledger"
)

// =============================================================================
// CATEGORIES
// =============================================================================

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	typ := ledger.CategoryType(r.URL.Query().Get("type"))
	if typ != "" && !ledger.ValidCategoryType(typ) {
		writeError(w, http.StatusBadRequest, "type must be expense, income or both", nil)
		return
	}

	categories, err := h.Store.ListCategories(r.Context(), typ)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list categories", err)
		return
	}

	dtos := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		dtos = append(dtos, toCategoryDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetCategory(r.Context(), ledger.CategoryID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTO(c))
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if req.Type == "" {
		req.Type = string(ledger.CategoryBoth)
	}
	if !ledger.ValidCategoryType(ledger.CategoryType(req.Type)) {
		writeError(w, http.StatusBadRequest, "type must be expense, income or both", nil)
		return
	}

	now := time.Now().UTC()
	c := &ledger.Category{
		ID:        ledger.CategoryID(newID()),
		Name:      req.Name,
		Icon:      req.Icon,
		Color:     req.Color,
		Type:      ledger.CategoryType(req.Type),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Store.CreateCategory(r.Context(), c); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(c))
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.Store.GetCategory(r.Context(), ledger.CategoryID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if req.Name != "" {
		c.Name = req.Name
	}
	if req.Icon != "" {
		c.Icon = req.Icon
	}
	if req.Color != "" {
		c.Color = req.Color
	}
	if req.Type != "" {
		if !ledger.ValidCategoryType(ledger.CategoryType(req.Type)) {
			writeError(w, http.StatusBadRequest, "type must be expense, income or both", nil)
			return
		}
		c.Type = ledger.CategoryType(req.Type)
	}
	c.UpdatedAt = time.Now().UTC()

	if err := h.Store.UpdateCategory(r.Context(), c); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTO(c))
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteCategory(r.Context(), ledger.CategoryID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// MERCHANTS
// =============================================================================

func (h *Handler) ListMerchants(w http.ResponseWriter, r *http.Request) {
	regular := r.URL.Query().Get("regular") == "true"
	merchants, err := h.Store.ListMerchants(r.Context(), regular)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list merchants", err)
		return
	}

	dtos := make([]MerchantDTO, 0, len(merchants))
	for _, m := range merchants {
		dtos = append(dtos, toMerchantDTO(m))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetMerchant(w http.ResponseWriter, r *http.Request) {
	m, err := h.Store.GetMerchant(r.Context(), ledger.MerchantID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMerchantDTO(m))
}

func (h *Handler) CreateMerchant(w http.ResponseWriter, r *http.Request) {
	var req MerchantRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	now := time.Now().UTC()
	m := &ledger.Merchant{
		ID:        ledger.MerchantID(newID()),
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.DefaultCategoryID != nil {
		id := ledger.CategoryID(*req.DefaultCategoryID)
		m.DefaultCategoryID = &id
	}

	if err := h.Store.CreateMerchant(r.Context(), m); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMerchantDTO(m))
}

func (h *Handler) UpdateMerchant(w http.ResponseWriter, r *http.Request) {
	var req MerchantRequest
	if !decodeBody(w, r, &req) {
		return
	}

	m, err := h.Store.GetMerchant(r.Context(), ledger.MerchantID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if req.Name != "" {
		m.Name = req.Name
	}
	if req.DefaultCategoryID != nil {
		id := ledger.CategoryID(*req.DefaultCategoryID)
		m.DefaultCategoryID = &id
	}
	m.UpdatedAt = time.Now().UTC()

	if err := h.Store.UpdateMerchant(r.Context(), m); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMerchantDTO(m))
}

func (h *Handler) DeleteMerchant(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteMerchant(r.Context(), ledger.MerchantID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// ITEMS
// =============================================================================

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListItems(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list items", err)
		return
	}

	dtos := make([]ItemDTO, 0, len(items))
	for _, u := range items {
		dtos = append(dtos, toItemUsageDTO(u))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateItem finds-or-creates by name; posting an existing name returns
// the existing item with 200 instead of 201.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	var categoryID *ledger.CategoryID
	if req.CategoryID != nil {
		id := ledger.CategoryID(*req.CategoryID)
		categoryID = &id
	}

	it, created, err := h.Store.FindOrCreateItem(r.Context(), req.Name, categoryID, ledger.ItemID(newID()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create item", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toItemDTO(it))
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	it, err := h.Store.GetItem(r.Context(), ledger.ItemID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if req.Name != "" {
		it.Name = req.Name
	}
	if req.CategoryID != nil {
		id := ledger.CategoryID(*req.CategoryID)
		it.CategoryID = &id
	}
	it.UpdatedAt = time.Now().UTC()

	if err := h.Store.UpdateItem(r.Context(), it); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(it))
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteItem(r.Context(), ledger.ItemID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
