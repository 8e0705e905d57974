package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"varehus/internal/app"
	"varehus/internal/core"
	"varehus/internal/db"
)

type errorResponse struct {
	Error     string             `json:"error"`
	Code      string             `json:"code"`
	Field     string             `json:"field,omitempty"`
	Step      string             `json:"step,omitempty"`
	Invoice   *app.InvoiceResult `json:"faktura,omitempty"`
	RequestID string             `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, errorResponse{Error: message, Code: code}, status)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, resp errorResponse, status int) {
	resp.RequestID = requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// classify maps a service error to an error code and HTTP status.
func classify(err error) (errorResponse, int) {
	resp := errorResponse{Error: core.UserMessage(err)}

	var (
		validation *core.ValidationError
		notFound   *core.NotFoundError
		conflict   *core.ConflictError
		orderErr   *core.OrderPersistenceError
		invoiceErr *core.InvoicePersistenceError
		asset      *core.RenderAssetMissingError
		renderErr  *core.RenderError
		dbErr      *db.DatabaseError
	)
	switch {
	case errors.As(err, &validation):
		resp.Code, resp.Field = "VALIDATION_FAILED", validation.Field
		return resp, http.StatusBadRequest
	case errors.As(err, &notFound):
		resp.Code = "NOT_FOUND"
		return resp, http.StatusNotFound
	case errors.As(err, &conflict):
		resp.Code = "CONFLICT"
		return resp, http.StatusConflict
	case errors.As(err, &orderErr):
		resp.Code, resp.Step = "ORDER_NOT_SAVED", orderErr.Step
		return resp, http.StatusInternalServerError
	case errors.As(err, &invoiceErr):
		resp.Code, resp.Step = "INVOICE_NOT_SAVED", invoiceErr.Step
		return resp, http.StatusInternalServerError
	case errors.As(err, &asset):
		resp.Code = "RENDER_ASSET_MISSING"
		return resp, http.StatusFailedDependency
	case errors.As(err, &renderErr):
		resp.Code = "RENDER_FAILED"
		return resp, http.StatusInternalServerError
	case errors.As(err, &dbErr):
		resp.Code, resp.Step = "DATABASE_ERROR", dbErr.Op
		return resp, http.StatusInternalServerError
	default:
		resp.Code = "INTERNAL_ERROR"
		return resp, http.StatusInternalServerError
	}
}

// writeServiceError writes err with the status its category maps to.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	resp, status := classify(err)
	if status >= http.StatusInternalServerError {
		loggerFrom(r.Context()).Error("request failed", "code", resp.Code, "err", err)
	}
	writeErrorResponse(w, r, resp, status)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
