// internal/domain/production/costing.go
package production

import "github.com/shopspring/decimal"

// rollUpCosts combines a batch's accumulated ingredient cost with the labor
// and overhead reported at completion time.
func rollUpCosts(ingredientCost, laborCost, overheadCost decimal.Decimal) decimal.Decimal {
	return ingredientCost.Add(laborCost).Add(overheadCost)
}

// costPerUnit divides total cost over realized units. A non-positive quantity
// yields zero rather than dividing by zero; completion rejects such
// quantities before this runs, the guard here keeps the arithmetic total.
func costPerUnit(totalCost decimal.Decimal, actualQuantity int) decimal.Decimal {
	if actualQuantity <= 0 {
		return decimal.Zero
	}
	return totalCost.Div(decimal.NewFromInt(int64(actualQuantity)))
}
