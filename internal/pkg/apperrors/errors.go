// internal/pkg/apperrors/errors.go
package apperrors

import (
	"fmt"
	"strings"
)

// NotFoundError indicates a referenced entity does not exist or does not
// belong to the calling tenant.
type NotFoundError struct {
	Entity string
	ID     interface{}
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

// NewNotFound creates a NotFoundError for an entity and id
func NewNotFound(entity string, id interface{}) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// StockShortfall names one product whose on-hand stock cannot cover a
// requirement. Amounts are strings so integer stock and fractional recipe
// requirements render without loss.
type StockShortfall struct {
	ProductName string `json:"product_name"`
	Available   string `json:"available"`
	Required    string `json:"required"`
}

// InsufficientStockError indicates one or more products lack enough on-hand
// quantity. Shortfalls are kept as structured fields so the HTTP layer can
// render a precise message.
type InsufficientStockError struct {
	Shortfalls []StockShortfall
}

func (e *InsufficientStockError) Error() string {
	if len(e.Shortfalls) == 1 {
		sf := e.Shortfalls[0]
		return fmt.Sprintf("insufficient stock for '%s': available %s, required %s",
			sf.ProductName, sf.Available, sf.Required)
	}
	parts := make([]string, 0, len(e.Shortfalls))
	for _, sf := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("'%s' (available %s, required %s)", sf.ProductName, sf.Available, sf.Required))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

// NewInsufficientStock creates an InsufficientStockError for one product
func NewInsufficientStock(productName, available, required string) *InsufficientStockError {
	return &InsufficientStockError{
		Shortfalls: []StockShortfall{{ProductName: productName, Available: available, Required: required}},
	}
}

// InvalidStateError indicates an operation attempted on a batch in an
// incompatible status.
type InvalidStateError struct {
	CurrentStatus string
	Attempted     string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s: batch is in status '%s'", e.Attempted, e.CurrentStatus)
}

// InvalidInputError indicates malformed caller input (non-positive quantity,
// empty item list, missing recipe reference, ...).
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewInvalidInput creates an InvalidInputError for a field
func NewInvalidInput(field, reason string) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: reason}
}
