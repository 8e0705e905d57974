package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"varehus/internal/app"
	"varehus/internal/core"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService the routes call.
type Handler struct {
	svc app.ApplicationService
}

// NewHandler creates and wires the chi router with all routes.
// An empty allowedOrigins disables CORS.
func NewHandler(svc app.ApplicationService, allowedOrigins []string, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	r.Get("/api/health", h.health)

	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB
		r.Use(requireJSON)

		// Catalogue
		r.Get("/api/varer", h.listItems)
		r.Post("/api/varer", h.createItem)
		r.Get("/api/varer/lav-beholdning", h.lowStock)
		r.Get("/api/varer/{vnr}", h.getItem)
		r.Put("/api/varer/{vnr}", h.updateItem)
		r.Delete("/api/varer/{vnr}", h.deleteItem)

		// Customers
		r.Get("/api/kunder", h.listCustomers)
		r.Post("/api/kunder", h.createCustomer)
		r.Get("/api/kunder/{knr}", h.getCustomer)
		r.Put("/api/kunder/{knr}", h.updateCustomer)
		r.Put("/api/kunder/{knr}/aktiv", h.setCustomerActive)

		// Orders and invoices
		r.Get("/api/ordrer", h.listOrders)
		r.Post("/api/ordrer", h.createOrder)
		r.Get("/api/ordrer/{id}", h.getOrder)
		r.Post("/api/ordrer/{id}/faktura", h.issueInvoice)
		r.Get("/api/ordrer/{id}/fakturaer", h.listInvoices)
		r.Get("/api/fakturaer/{id}", h.getInvoice)
		r.Get("/api/fakturaer/{id}/pdf", h.invoicePDF)

		r.Get("/api/statistikk", h.dashboard)
	})

	return r
}

// health reports the schema status. It answers 503 until migrations are applied.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.SchemaStatus(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	type response struct {
		Status        string   `json:"status"`
		Dialect       string   `json:"dialect"`
		Version       uint     `json:"version"`
		Latest        uint     `json:"latest"`
		MissingTables []string `json:"missing_tables,omitempty"`
	}
	resp := response{
		Status:        "ok",
		Dialect:       string(status.Dialect),
		Version:       status.Version,
		Latest:        status.Latest,
		MissingTables: status.MissingTables,
	}
	if !status.UpToDate() {
		resp.Status = "migration required"
		writeJSONStatus(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, resp)
}

// customerID parses the {knr} URL parameter.
func customerID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "knr")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Field: "knr", Message: "must be a positive number, got " + strconv.Quote(raw)}
	}
	return id, nil
}

// queryInt reads an optional integer query parameter. Missing means zero.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &core.ValidationError{Field: name, Message: "must be a non-negative whole number"}
	}
	return n, nil
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
