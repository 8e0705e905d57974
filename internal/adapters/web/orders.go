package web

import (
	"net/http"
	"path/filepath"
	"strconv"

	"varehus/internal/app"

	"github.com/go-chi/chi/v5"
)

// listOrders handles GET /api/ordrer?q=term.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.SearchOrders(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// getOrder handles GET /api/ordrer/{id}.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// createOrder handles POST /api/ordrer.
// Body: { knr, ordredato, linjer: [{vnr, antall}] }
// Unit prices are always taken from the catalogue.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req app.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.CreateOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/ordrer/"+strconv.FormatInt(result.Order.ID, 10))
	writeJSONStatus(w, http.StatusCreated, result)
}

// issueInvoice handles POST /api/ordrer/{id}/faktura.
// When the invoice is saved but its document cannot be rendered, the error
// body carries the saved invoice under "faktura".
func (h *Handler) issueInvoice(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.IssueInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		resp, status := classify(err)
		resp.Invoice = result
		if status >= http.StatusInternalServerError {
			loggerFrom(r.Context()).Error("invoice issue failed", "code", resp.Code, "err", err)
		}
		writeErrorResponse(w, r, resp, status)
		return
	}
	w.Header().Set("Location", "/api/fakturaer/"+strconv.FormatInt(result.Invoice.ID, 10))
	writeJSONStatus(w, http.StatusCreated, result)
}

// listInvoices handles GET /api/ordrer/{id}/fakturaer.
func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.svc.ListInvoices(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, invoices)
}

// getInvoice handles GET /api/fakturaer/{id}. The id may be "12" or "FA-12".
func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// invoicePDF handles GET /api/fakturaer/{id}/pdf. The document is rendered
// afresh on every request and served from the output directory.
func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RenderInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+filepath.Base(result.DocumentPath)+`"`)
	http.ServeFile(w, r, result.DocumentPath)
}

// dashboard handles GET /api/statistikk?aar=YYYY.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "aar")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	d, err := h.svc.Dashboard(r.Context(), year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, d)
}
