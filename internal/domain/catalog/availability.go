// internal/domain/catalog/availability.go
package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/muralla-backend/internal/pkg/apperrors"
)

// CheckAvailability answers whether quantity units of a product can be
// fulfilled right now. It is a read-only projection: the result is advisory
// and the sale/production write paths re-validate with conditional decrements
// before touching stock. A missing product is signaled in the result rather
// than as an error, since this is a query, not a command.
func (s *Service) CheckAvailability(productID uint, quantity int, tenantID string) (*AvailabilityResult, error) {
	if quantity <= 0 {
		return nil, apperrors.NewInvalidInput("quantity", "must be positive")
	}

	product, err := FindProduct(s.db, productID, tenantID)
	if err != nil {
		var notFound *apperrors.NotFoundError
		if errors.As(err, &notFound) {
			return &AvailabilityResult{Available: false, Reason: "Product not found"}, nil
		}
		return nil, err
	}

	switch product.FulfillmentType {
	case FulfillmentPreStocked, FulfillmentManufactured:
		if product.Quantity < quantity {
			return &AvailabilityResult{
				Available: false,
				Reason:    fmt.Sprintf("Insufficient stock for '%s': available %d, required %d", product.Name, product.Quantity, quantity),
			}, nil
		}
		return &AvailabilityResult{Available: true}, nil

	case FulfillmentMadeToOrder:
		recipe, err := ResolveDefaultRecipe(s.db, productID, tenantID)
		if err != nil {
			var notFound *apperrors.NotFoundError
			if errors.As(err, &notFound) {
				return &AvailabilityResult{Available: false, Reason: "No recipe configured"}, nil
			}
			return nil, err
		}

		shortfalls, err := IngredientShortfalls(s.db, recipe, decimal.NewFromInt(int64(quantity)))
		if err != nil {
			return nil, err
		}
		if len(shortfalls) > 0 {
			sf := shortfalls[0]
			return &AvailabilityResult{
				Available: false,
				Reason: fmt.Sprintf("Insufficient ingredient '%s': available %s, required %s",
					sf.IngredientName, sf.Available.String(), sf.Required.String()),
			}, nil
		}
		return &AvailabilityResult{Available: true}, nil

	case FulfillmentService:
		// No physical stock to check
		return &AvailabilityResult{Available: true}, nil

	default:
		return nil, apperrors.NewInvalidInput("fulfillment_type", fmt.Sprintf("unknown value '%s'", product.FulfillmentType))
	}
}
