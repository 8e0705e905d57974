package web

import (
	"net/http"

	"varehus/internal/app"

	"github.com/go-chi/chi/v5"
)

// listItems handles GET /api/varer?q=term.
func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.SearchItems(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// lowStock handles GET /api/varer/lav-beholdning?grense=N.
func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	threshold, err := queryInt(r, "grense")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	result, err := h.svc.LowStock(r.Context(), threshold)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// getItem handles GET /api/varer/{vnr}.
func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetItem(r.Context(), chi.URLParam(r, "vnr"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, item)
}

// createItem handles POST /api/varer.
// Body: { vnr, betegnelse, pris, antall }
func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req app.SaveItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Create = true
	item, err := h.svc.SaveItem(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, item)
}

// updateItem handles PUT /api/varer/{vnr}. The item number comes from the path.
func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req app.SaveItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ItemID = chi.URLParam(r, "vnr")
	req.Create = false
	item, err := h.svc.SaveItem(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, item)
}

// deleteItem handles DELETE /api/varer/{vnr}.
func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteItem(r.Context(), chi.URLParam(r, "vnr")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listCustomers handles GET /api/kunder?q=term. Without q only active
// customers are listed.
func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.SearchCustomers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// getCustomer handles GET /api/kunder/{knr}.
func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := customerID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	c, err := h.svc.GetCustomer(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, c)
}

// createCustomer handles POST /api/kunder. Any knr in the body is ignored.
func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req app.SaveCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = 0
	c, err := h.svc.SaveCustomer(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, c)
}

// updateCustomer handles PUT /api/kunder/{knr}.
func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := customerID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req app.SaveCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = id
	c, err := h.svc.SaveCustomer(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, c)
}

// setCustomerActive handles PUT /api/kunder/{knr}/aktiv.
// Body: { "aktiv": bool }
func (h *Handler) setCustomerActive(w http.ResponseWriter, r *http.Request) {
	id, err := customerID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var body struct {
		Active *bool `json:"aktiv"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Active == nil {
		writeError(w, r, "aktiv is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.SetCustomerActive(r.Context(), id, *body.Active); err != nil {
		writeServiceError(w, r, err)
		return
	}
	c, err := h.svc.GetCustomer(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, c)
}
