package core

import (
	"fmt"
	"strings"
)

// ValidationError is returned before any database write when input is rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError is returned when a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	Key    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.Key)
}

// ConflictError is returned when a write collides with existing data, such as a
// duplicate item number or deleting an item that order lines reference.
type ConflictError struct {
	Entity string
	Key    any
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %v: %s", e.Entity, e.Key, e.Reason)
}

// OrderPersistenceError means the order transaction failed at Step and was
// rolled back. RollbackErr is set when the rollback itself also failed.
type OrderPersistenceError struct {
	Step        string
	Err         error
	RollbackErr error
}

func (e *OrderPersistenceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to save order at step %q: %v", e.Step, e.Err)
	if e.RollbackErr != nil {
		fmt.Fprintf(&b, " (rollback also failed: %v)", e.RollbackErr)
	}
	return b.String()
}

func (e *OrderPersistenceError) Unwrap() error { return e.Err }

// InvoicePersistenceError means the invoice insert did not produce exactly one
// row with a generated id.
type InvoicePersistenceError struct {
	OrderID     int64
	Step        string
	Err         error
	RollbackErr error
}

func (e *InvoicePersistenceError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to create invoice for order %d at step %q", e.OrderID, e.Step)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.RollbackErr != nil {
		fmt.Fprintf(&b, " (rollback also failed: %v)", e.RollbackErr)
	}
	return b.String()
}

func (e *InvoicePersistenceError) Unwrap() error { return e.Err }

// RenderAssetMissingError is returned by a Renderer when a file the document
// needs (the logo) is missing. The invoice row is kept.
type RenderAssetMissingError struct {
	Asset string
}

func (e *RenderAssetMissingError) Error() string {
	return fmt.Sprintf("render asset missing: %s", e.Asset)
}

// RenderError wraps any renderer failure that happens after an invoice was
// committed.
type RenderError struct {
	InvoiceID int64
	Err       error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("invoice FA-%d was created but its document could not be rendered: %v", e.InvoiceID, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
