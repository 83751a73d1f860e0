// internal/domain/catalog/service_test.go
package catalog

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/muralla-backend/internal/config"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Product{}, &Recipe{}, &RecipeLine{}))
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

func seedProduct(t *testing.T, db *gorm.DB, tenantID, sku string, ft FulfillmentType, qty int) *Product {
	t.Helper()
	product := &Product{
		TenantID:        tenantID,
		SKU:             sku,
		Name:            sku,
		FulfillmentType: ft,
		Quantity:        qty,
		InitialQuantity: qty,
		UnitCost:        decimal.NewFromInt(10),
		UnitPrice:       decimal.NewFromInt(25),
		IsActive:        true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestCreateProduct_DuplicateSKUPerTenant(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantA := uuid.New().String()
	tenantB := uuid.New().String()

	req := &CreateProductRequest{
		SKU:             "MILK-1L",
		Name:            "Milk 1L",
		FulfillmentType: FulfillmentPreStocked,
		InitialQuantity: 10,
	}

	_, err := svc.CreateProduct(tenantA, req)
	require.NoError(t, err)

	_, err = svc.CreateProduct(tenantA, req)
	assert.Error(t, err)

	// Same SKU in another tenant is fine
	_, err = svc.CreateProduct(tenantB, req)
	assert.NoError(t, err)
}

func TestCreateProduct_RejectsUnknownFulfillmentType(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())

	_, err := svc.CreateProduct(uuid.New().String(), &CreateProductRequest{
		SKU:             "X-1",
		Name:            "X",
		FulfillmentType: "teleported",
	})
	assert.Error(t, err)
}

func TestCheckAvailability_PreStocked(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()
	product := seedProduct(t, db, tenantID, "MILK-1L", FulfillmentPreStocked, 5)

	result, err := svc.CheckAvailability(product.ID, 5, tenantID)
	require.NoError(t, err)
	assert.True(t, result.Available)

	result, err = svc.CheckAvailability(product.ID, 6, tenantID)
	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Contains(t, result.Reason, "Insufficient stock")
}

func TestCheckAvailability_ServiceAlwaysAvailable(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()
	product := seedProduct(t, db, tenantID, "DELIVERY", FulfillmentService, 0)

	result, err := svc.CheckAvailability(product.ID, 1000, tenantID)
	require.NoError(t, err)
	assert.True(t, result.Available)
}

func TestCheckAvailability_MissingProductIsResultNotError(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())

	result, err := svc.CheckAvailability(9999, 1, uuid.New().String())
	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, "Product not found", result.Reason)
}

func TestCheckAvailability_MadeToOrderWithoutRecipe(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()
	product := seedProduct(t, db, tenantID, "LATTE", FulfillmentMadeToOrder, 0)

	result, err := svc.CheckAvailability(product.ID, 1, tenantID)
	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, "No recipe configured", result.Reason)
}

func TestCheckAvailability_MadeToOrderIgnoresOptionalLines(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()

	milk := seedProduct(t, db, tenantID, "MILK-1L", FulfillmentPreStocked, 10)
	syrup := seedProduct(t, db, tenantID, "SYRUP", FulfillmentPreStocked, 0)
	latte := seedProduct(t, db, tenantID, "LATTE", FulfillmentMadeToOrder, 0)

	_, err := svc.CreateRecipe(latte.ID, tenantID, &CreateRecipeRequest{
		Name:      "Standard latte",
		IsDefault: true,
		Lines: []CreateRecipeLineRequest{
			{IngredientID: milk.ID, Quantity: decimal.NewFromFloat(0.2)},
			{IngredientID: syrup.ID, Quantity: decimal.NewFromInt(1), IsOptional: true},
		},
	})
	require.NoError(t, err)

	// The syrup is out of stock but optional, so availability holds
	result, err := svc.CheckAvailability(latte.ID, 3, tenantID)
	require.NoError(t, err)
	assert.True(t, result.Available)
}

func TestCheckAvailability_MadeToOrderIngredientShortfall(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()

	milk := seedProduct(t, db, tenantID, "MILK-1L", FulfillmentPreStocked, 1)
	latte := seedProduct(t, db, tenantID, "LATTE", FulfillmentMadeToOrder, 0)

	_, err := svc.CreateRecipe(latte.ID, tenantID, &CreateRecipeRequest{
		IsDefault: true,
		Lines: []CreateRecipeLineRequest{
			{IngredientID: milk.ID, Quantity: decimal.NewFromFloat(0.2)},
		},
	})
	require.NoError(t, err)

	// 10 lattes require 2.0 units of milk; only 1 on hand
	result, err := svc.CheckAvailability(latte.ID, 10, tenantID)
	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Contains(t, result.Reason, "MILK-1L")
}

func TestCheckAvailability_RejectsNonPositiveQuantity(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()
	product := seedProduct(t, db, tenantID, "MILK-1L", FulfillmentPreStocked, 5)

	_, err := svc.CheckAvailability(product.ID, 0, tenantID)
	assert.Error(t, err)

	_, err = svc.CheckAvailability(product.ID, -1, tenantID)
	assert.Error(t, err)
}

func TestCheckAvailability_IsReadOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()
	product := seedProduct(t, db, tenantID, "MILK-1L", FulfillmentPreStocked, 5)

	for i := 0; i < 3; i++ {
		_, err := svc.CheckAvailability(product.ID, 2, tenantID)
		require.NoError(t, err)
	}

	var reloaded Product
	require.NoError(t, db.First(&reloaded, product.ID).Error)
	assert.Equal(t, 5, reloaded.Quantity)
}

func TestCreateRecipe_NewDefaultDisplacesPrevious(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()

	milk := seedProduct(t, db, tenantID, "MILK-1L", FulfillmentPreStocked, 10)
	latte := seedProduct(t, db, tenantID, "LATTE", FulfillmentMadeToOrder, 0)

	first, err := svc.CreateRecipe(latte.ID, tenantID, &CreateRecipeRequest{
		Name:      "v1",
		IsDefault: true,
		Lines:     []CreateRecipeLineRequest{{IngredientID: milk.ID, Quantity: decimal.NewFromFloat(0.2)}},
	})
	require.NoError(t, err)

	second, err := svc.CreateRecipe(latte.ID, tenantID, &CreateRecipeRequest{
		Name:      "v2",
		IsDefault: true,
		Lines:     []CreateRecipeLineRequest{{IngredientID: milk.ID, Quantity: decimal.NewFromFloat(0.3)}},
	})
	require.NoError(t, err)

	resolved, err := svc.ResolveDefaultRecipe(latte.ID, tenantID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, resolved.ID)

	var old Recipe
	require.NoError(t, db.First(&old, first.ID).Error)
	assert.False(t, old.IsDefault)
}

func TestResolveDefaultRecipe_MostRecentWinsOnDuplicateDefaults(t *testing.T) {
	db := newTestDB(t)
	tenantID := uuid.New().String()
	latte := seedProduct(t, db, tenantID, "LATTE", FulfillmentMadeToOrder, 0)

	// Two active defaults should never coexist, but resolution must still be
	// deterministic when the data is bad
	older := &Recipe{TenantID: tenantID, ProductID: latte.ID, Name: "old", IsActive: true, IsDefault: true}
	require.NoError(t, db.Create(older).Error)
	newer := &Recipe{TenantID: tenantID, ProductID: latte.ID, Name: "new", IsActive: true, IsDefault: true}
	require.NoError(t, db.Create(newer).Error)

	resolved, err := ResolveDefaultRecipe(db, latte.ID, tenantID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, resolved.ID)
}

func TestCreateRecipe_RejectsProductsWithoutRecipes(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()

	milk := seedProduct(t, db, tenantID, "MILK-1L", FulfillmentPreStocked, 10)

	_, err := svc.CreateRecipe(milk.ID, tenantID, &CreateRecipeRequest{
		Lines: []CreateRecipeLineRequest{{IngredientID: milk.ID, Quantity: decimal.NewFromInt(1)}},
	})
	assert.Error(t, err)
}

func TestCreateRecipe_RejectsNonPositiveLineQuantity(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, newTestConfig())
	tenantID := uuid.New().String()

	milk := seedProduct(t, db, tenantID, "MILK-1L", FulfillmentPreStocked, 10)
	latte := seedProduct(t, db, tenantID, "LATTE", FulfillmentMadeToOrder, 0)

	_, err := svc.CreateRecipe(latte.ID, tenantID, &CreateRecipeRequest{
		Lines: []CreateRecipeLineRequest{{IngredientID: milk.ID, Quantity: decimal.Zero}},
	})
	assert.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&Recipe{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "failed recipe creation must not persist anything")
}

func TestFindProduct_TenantIsolation(t *testing.T) {
	db := newTestDB(t)
	tenantA := uuid.New().String()
	product := seedProduct(t, db, tenantA, "MILK-1L", FulfillmentPreStocked, 5)

	_, err := FindProduct(db, product.ID, uuid.New().String())
	assert.Error(t, err)

	found, err := FindProduct(db, product.ID, tenantA)
	require.NoError(t, err)
	assert.Equal(t, product.SKU, found.SKU)
}
