package core

import (
	"errors"
	"fmt"

	"varehus/internal/db"
)

// UserMessage turns a workflow error into a one-line message for the operator.
// Each failure category gets its own wording and names the step that failed.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		validation *ValidationError
		notFound   *NotFoundError
		conflict   *ConflictError
		orderErr   *OrderPersistenceError
		invoiceErr *InvoicePersistenceError
		asset      *RenderAssetMissingError
		renderErr  *RenderError
		dbErr      *db.DatabaseError
	)
	switch {
	case errors.As(err, &validation):
		if validation.Field == "" {
			return "Invalid input: " + validation.Message
		}
		return fmt.Sprintf("Invalid input for %s: %s", validation.Field, validation.Message)
	case errors.As(err, &notFound):
		return fmt.Sprintf("Not found: %s %v does not exist", notFound.Entity, notFound.Key)
	case errors.As(err, &conflict):
		return fmt.Sprintf("Conflict: %s %v %s", conflict.Entity, conflict.Key, conflict.Reason)
	case errors.As(err, &orderErr):
		return fmt.Sprintf("The order was not saved (failed while trying to %s). No changes were kept.", orderErr.Step)
	case errors.As(err, &invoiceErr):
		return fmt.Sprintf("The invoice for order %d was not created (failed while trying to %s).", invoiceErr.OrderID, invoiceErr.Step)
	case errors.As(err, &asset):
		id := int64(0)
		if errors.As(err, &renderErr) {
			id = renderErr.InvoiceID
		}
		if id > 0 {
			return fmt.Sprintf("Invoice FA-%d was saved, but the document could not be made: missing file %s", id, asset.Asset)
		}
		return "The document could not be made: missing file " + asset.Asset
	case errors.As(err, &renderErr):
		return fmt.Sprintf("Invoice FA-%d was saved, but the document could not be made: %v", renderErr.InvoiceID, renderErr.Err)
	case errors.As(err, &dbErr):
		return fmt.Sprintf("Database error during %s: %v", dbErr.Op, dbErr.Err)
	default:
		return "Unexpected error: " + err.Error()
	}
}
