// internal/domain/sales/service_test.go
package sales

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/muralla-backend/internal/config"
	"github.com/your-org/muralla-backend/internal/domain/catalog"
	"github.com/your-org/muralla-backend/internal/domain/inventory"
	"github.com/your-org/muralla-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&catalog.Product{}, &catalog.Recipe{}, &catalog.RecipeLine{},
		&inventory.Movement{},
		&Transaction{}, &TransactionItem{}, &IngredientConsumption{},
	))
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Sales: config.SalesConfig{
			TaxRate:  decimal.NewFromFloat(0.19),
			Currency: "CLP",
		},
	}
}

func seedProduct(t *testing.T, db *gorm.DB, tenantID, sku string, ft catalog.FulfillmentType, qty int, unitCost int64) *catalog.Product {
	t.Helper()
	product := &catalog.Product{
		TenantID:        tenantID,
		SKU:             sku,
		Name:            sku,
		FulfillmentType: ft,
		Quantity:        qty,
		InitialQuantity: qty,
		UnitCost:        decimal.NewFromInt(unitCost),
		UnitPrice:       decimal.NewFromInt(unitCost * 3),
		IsActive:        true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedRecipe(t *testing.T, db *gorm.DB, tenantID string, productID uint, lines []catalog.RecipeLine) *catalog.Recipe {
	t.Helper()
	recipe := &catalog.Recipe{
		TenantID:  tenantID,
		ProductID: productID,
		IsActive:  true,
		IsDefault: true,
	}
	require.NoError(t, db.Create(recipe).Error)
	for i := range lines {
		lines[i].RecipeID = recipe.ID
		require.NoError(t, db.Create(&lines[i]).Error)
	}
	return recipe
}

func productQuantity(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var product catalog.Product
	require.NoError(t, db.First(&product, id).Error)
	return product.Quantity
}

func TestProcessSale_PreStockedDecrementsAndLedgers(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()
	milk := seedProduct(t, db, tenantID, "MILK-1L", catalog.FulfillmentPreStocked, 10, 10)

	tx, err := svc.ProcessSale(tenantID, &ProcessSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: milk.ID, ProductName: "Milk 1L", Quantity: 4, UnitPrice: decimal.NewFromInt(30)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, TransactionStatusCompleted, tx.Status)
	assert.Equal(t, 6, productQuantity(t, db, milk.ID))

	var movements []inventory.Movement
	require.NoError(t, db.Where("product_id = ?", milk.ID).Find(&movements).Error)
	require.Len(t, movements, 1)
	assert.Equal(t, inventory.MovementTypeSale, movements[0].Type)
	assert.Equal(t, -4, movements[0].Quantity)
	assert.Equal(t, inventory.ReferenceTypeTransaction, movements[0].ReferenceType)
	assert.Equal(t, tx.ID, movements[0].ReferenceID)
}

func TestProcessSale_TaxArithmetic(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()
	milk := seedProduct(t, db, tenantID, "MILK-1L", catalog.FulfillmentPreStocked, 10, 10)

	// 5 units at 100 each: subtotal 500, 19% tax 95, total 595
	tx, err := svc.ProcessSale(tenantID, &ProcessSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: milk.ID, ProductName: "Milk 1L", Quantity: 5, UnitPrice: decimal.NewFromInt(100)},
		},
	})
	require.NoError(t, err)
	assert.True(t, tx.Subtotal.Equal(decimal.NewFromInt(500)), "subtotal = %s", tx.Subtotal)
	assert.True(t, tx.Tax.Equal(decimal.NewFromInt(95)), "tax = %s", tx.Tax)
	assert.True(t, tx.Total.Equal(decimal.NewFromInt(595)), "total = %s", tx.Total)
	assert.Equal(t, "CLP", tx.Currency)
}

func TestProcessSale_MadeToOrderConsumesIngredients(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()

	milk := seedProduct(t, db, tenantID, "MILK-1L", catalog.FulfillmentPreStocked, 10, 10)
	latte := seedProduct(t, db, tenantID, "LATTE", catalog.FulfillmentMadeToOrder, 0, 0)
	seedRecipe(t, db, tenantID, latte.ID, []catalog.RecipeLine{
		{IngredientID: milk.ID, Quantity: decimal.NewFromInt(2)},
	})

	tx, err := svc.ProcessSale(tenantID, &ProcessSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: latte.ID, ProductName: "Latte", Quantity: 3, UnitPrice: decimal.NewFromInt(50)},
		},
	})
	require.NoError(t, err)

	// 3 lattes x 2 milk each
	assert.Equal(t, 4, productQuantity(t, db, milk.ID))
	// The finished good itself carries no stock
	assert.Equal(t, 0, productQuantity(t, db, latte.ID))

	consumptions, err := svc.GetConsumptions(tx.ID, tenantID)
	require.NoError(t, err)
	require.Len(t, consumptions, 1)
	assert.Equal(t, milk.ID, consumptions[0].IngredientID)
	assert.Equal(t, 6, consumptions[0].AppliedQuantity)
	assert.True(t, consumptions[0].Quantity.Equal(decimal.NewFromInt(6)))

	var movements []inventory.Movement
	require.NoError(t, db.Where("product_id = ?", milk.ID).Find(&movements).Error)
	require.Len(t, movements, 1)
	assert.Equal(t, inventory.MovementTypeSaleConsumption, movements[0].Type)
	assert.Equal(t, -6, movements[0].Quantity)
}

func TestProcessSale_FractionalRequirementFloorsDeduction(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()

	milk := seedProduct(t, db, tenantID, "MILK-1L", catalog.FulfillmentPreStocked, 10, 10)
	latte := seedProduct(t, db, tenantID, "LATTE", catalog.FulfillmentMadeToOrder, 0, 0)
	seedRecipe(t, db, tenantID, latte.ID, []catalog.RecipeLine{
		{IngredientID: milk.ID, Quantity: decimal.NewFromFloat(0.2)},
	})

	// 7 lattes require 1.4 units of milk; whole-unit stock drops by 1
	tx, err := svc.ProcessSale(tenantID, &ProcessSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: latte.ID, ProductName: "Latte", Quantity: 7, UnitPrice: decimal.NewFromInt(50)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 9, productQuantity(t, db, milk.ID))

	consumptions, err := svc.GetConsumptions(tx.ID, tenantID)
	require.NoError(t, err)
	require.Len(t, consumptions, 1)
	assert.True(t, consumptions[0].Quantity.Equal(decimal.NewFromFloat(1.4)), "exact quantity = %s", consumptions[0].Quantity)
	assert.Equal(t, 1, consumptions[0].AppliedQuantity)
}

func TestProcessSale_MadeToOrderWithoutRecipeFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()
	latte := seedProduct(t, db, tenantID, "LATTE", catalog.FulfillmentMadeToOrder, 0, 0)

	_, err := svc.ProcessSale(tenantID, &ProcessSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: latte.ID, ProductName: "Latte", Quantity: 1, UnitPrice: decimal.NewFromInt(50)},
		},
	})
	require.Error(t, err)

	var notFound *apperrors.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestProcessSale_ShortfallRollsBackWholeSale(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()

	milk := seedProduct(t, db, tenantID, "MILK-1L", catalog.FulfillmentPreStocked, 10, 10)
	cookie := seedProduct(t, db, tenantID, "COOKIE", catalog.FulfillmentManufactured, 2, 5)

	// First item would succeed; second overdraws. Nothing may persist.
	_, err := svc.ProcessSale(tenantID, &ProcessSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: milk.ID, ProductName: "Milk 1L", Quantity: 4, UnitPrice: decimal.NewFromInt(30)},
			{ProductID: cookie.ID, ProductName: "Cookie", Quantity: 3, UnitPrice: decimal.NewFromInt(15)},
		},
	})
	require.Error(t, err)

	var stockErr *apperrors.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "COOKIE", stockErr.Shortfalls[0].ProductName)

	assert.Equal(t, 10, productQuantity(t, db, milk.ID))
	assert.Equal(t, 2, productQuantity(t, db, cookie.ID))

	var txCount, itemCount, movementCount int64
	require.NoError(t, db.Model(&Transaction{}).Count(&txCount).Error)
	require.NoError(t, db.Model(&TransactionItem{}).Count(&itemCount).Error)
	require.NoError(t, db.Model(&inventory.Movement{}).Count(&movementCount).Error)
	assert.Zero(t, txCount)
	assert.Zero(t, itemCount)
	assert.Zero(t, movementCount)
}

func TestProcessSale_ServiceItemHasNoStockEffect(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()
	delivery := seedProduct(t, db, tenantID, "DELIVERY", catalog.FulfillmentService, 0, 0)

	tx, err := svc.ProcessSale(tenantID, &ProcessSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: delivery.ID, ProductName: "Delivery", Quantity: 1, UnitPrice: decimal.NewFromInt(20)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, TransactionStatusCompleted, tx.Status)

	var movementCount int64
	require.NoError(t, db.Model(&inventory.Movement{}).Count(&movementCount).Error)
	assert.Zero(t, movementCount)
}

func TestProcessSale_IdempotencyKeyDeduplicates(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()
	milk := seedProduct(t, db, tenantID, "MILK-1L", catalog.FulfillmentPreStocked, 10, 10)

	req := &ProcessSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: milk.ID, ProductName: "Milk 1L", Quantity: 2, UnitPrice: decimal.NewFromInt(30)},
		},
		IdempotencyKey: "retry-abc-123",
	}

	first, err := svc.ProcessSale(tenantID, req)
	require.NoError(t, err)

	second, err := svc.ProcessSale(tenantID, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Sold once, not twice
	assert.Equal(t, 8, productQuantity(t, db, milk.ID))

	var txCount int64
	require.NoError(t, db.Model(&Transaction{}).Count(&txCount).Error)
	assert.Equal(t, int64(1), txCount)
}

func TestProcessSale_ValidatesRequest(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()
	milk := seedProduct(t, db, tenantID, "MILK-1L", catalog.FulfillmentPreStocked, 10, 10)

	_, err := svc.ProcessSale(tenantID, &ProcessSaleRequest{})
	assert.Error(t, err)

	_, err = svc.ProcessSale(tenantID, &ProcessSaleRequest{
		Items: []SaleItemRequest{{ProductID: milk.ID, ProductName: "Milk 1L", Quantity: 0, UnitPrice: decimal.NewFromInt(30)}},
	})
	assert.Error(t, err)

	_, err = svc.ProcessSale(tenantID, &ProcessSaleRequest{
		Items: []SaleItemRequest{{ProductID: milk.ID, ProductName: "Milk 1L", Quantity: 1, UnitPrice: decimal.NewFromInt(-5)}},
	})
	assert.Error(t, err)
}

func TestProcessSale_DiscountReducesSubtotal(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()
	milk := seedProduct(t, db, tenantID, "MILK-1L", catalog.FulfillmentPreStocked, 10, 10)

	tx, err := svc.ProcessSale(tenantID, &ProcessSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: milk.ID, ProductName: "Milk 1L", Quantity: 2, UnitPrice: decimal.NewFromInt(100), Discount: decimal.NewFromInt(50)},
		},
	})
	require.NoError(t, err)
	assert.True(t, tx.Subtotal.Equal(decimal.NewFromInt(150)), "subtotal = %s", tx.Subtotal)
}

func TestGetTransaction_TenantIsolation(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()
	milk := seedProduct(t, db, tenantID, "MILK-1L", catalog.FulfillmentPreStocked, 10, 10)

	tx, err := svc.ProcessSale(tenantID, &ProcessSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: milk.ID, ProductName: "Milk 1L", Quantity: 1, UnitPrice: decimal.NewFromInt(30)},
		},
	})
	require.NoError(t, err)

	_, err = svc.GetTransaction(tx.ID, uuid.New().String())
	assert.Error(t, err)

	found, err := svc.GetTransaction(tx.ID, tenantID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
}
