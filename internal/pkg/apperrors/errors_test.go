// internal/pkg/apperrors/errors_test.go
package apperrors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsufficientStockError_SingleShortfall(t *testing.T) {
	err := NewInsufficientStock("Milk 1L", "5", "6")
	assert.Equal(t, "insufficient stock for 'Milk 1L': available 5, required 6", err.Error())
}

func TestInsufficientStockError_MultipleShortfalls(t *testing.T) {
	err := &InsufficientStockError{Shortfalls: []StockShortfall{
		{ProductName: "Flour", Available: "3", Required: "10"},
		{ProductName: "Sugar", Available: "1", Required: "5"},
	}}
	assert.Equal(t, "insufficient stock: 'Flour' (available 3, required 10), 'Sugar' (available 1, required 5)", err.Error())
}

func TestInvalidStateError(t *testing.T) {
	err := &InvalidStateError{CurrentStatus: "completed", Attempted: "cancel batch"}
	assert.Equal(t, "cannot cancel batch: batch is in status 'completed'", err.Error())
}

func TestNotFoundError(t *testing.T) {
	assert.Equal(t, "product 42 not found", NewNotFound("product", 42).Error())
	assert.Equal(t, "recipe not found", NewNotFound("recipe", nil).Error())
}

func TestInvalidInputError(t *testing.T) {
	assert.Equal(t, "invalid quantity: must be positive", NewInvalidInput("quantity", "must be positive").Error())
	assert.Equal(t, "must not be empty", NewInvalidInput("", "must not be empty").Error())
}
