// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/muralla-backend/internal/domain/catalog"
	"github.com/your-org/muralla-backend/internal/domain/inventory"
	"github.com/your-org/muralla-backend/internal/domain/production"
	"github.com/your-org/muralla-backend/internal/domain/sales"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// Models returns all models needing migration in dependency order. Shared
// with the test helpers so test schemas never drift from production.
func Models() []interface{} {
	return []interface{}{
		// Catalog domain - base tables
		&catalog.Product{},
		&catalog.Recipe{},
		&catalog.RecipeLine{},

		// Stock ledger
		&inventory.Movement{},

		// Sales domain - dependent tables
		&sales.Transaction{},
		&sales.TransactionItem{},
		&sales.IngredientConsumption{},

		// Production domain
		&production.Batch{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	for _, model := range Models() {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_tenant_type ON products(tenant_id, fulfillment_type)",
		"CREATE INDEX IF NOT EXISTS idx_products_tenant_active ON products(tenant_id, is_active)",

		// Recipe indexes
		"CREATE INDEX IF NOT EXISTS idx_recipes_product_default ON recipes(tenant_id, product_id, is_active, is_default)",
		"CREATE INDEX IF NOT EXISTS idx_recipe_lines_recipe ON recipe_lines(recipe_id, sort_order)",

		// Ledger indexes
		"CREATE INDEX IF NOT EXISTS idx_movements_tenant_product ON product_movements(tenant_id, product_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_movements_reference ON product_movements(reference_type, reference_id)",

		// Transaction indexes
		"CREATE INDEX IF NOT EXISTS idx_transactions_tenant_created ON transactions(tenant_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_transaction_items_transaction ON transaction_items(transaction_id)",
		"CREATE INDEX IF NOT EXISTS idx_consumptions_transaction ON ingredient_consumptions(tenant_id, transaction_id)",

		// Batch indexes
		"CREATE INDEX IF NOT EXISTS idx_batches_tenant_status ON production_batches(tenant_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_batches_tenant_completed ON production_batches(tenant_id, completed_at DESC)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts a demo tenant with one product of each fulfillment
// type so development environments are immediately usable.
func (m *Migration) SeedInitialData() error {
	log.Println("🌱 Seeding initial data...")

	var count int64
	if err := m.db.Model(&catalog.Product{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check existing products: %w", err)
	}
	if count > 0 {
		log.Println("Products already present, skipping seed")
		return nil
	}

	tenantID := uuid.NewString()
	log.Printf("🏢 Demo tenant: %s", tenantID)

	milk := catalog.Product{
		TenantID:        tenantID,
		SKU:             "ING-MILK",
		Name:            "Milk (liter)",
		FulfillmentType: catalog.FulfillmentPreStocked,
		Quantity:        100,
		InitialQuantity: 100,
		UnitCost:        decimal.NewFromInt(900),
		UnitPrice:       decimal.NewFromInt(1500),
		UnitOfMeasure:   "L",
		IsActive:        true,
	}
	flour := catalog.Product{
		TenantID:        tenantID,
		SKU:             "ING-FLOUR",
		Name:            "Flour (kg)",
		FulfillmentType: catalog.FulfillmentPreStocked,
		Quantity:        50,
		InitialQuantity: 50,
		UnitCost:        decimal.NewFromInt(1200),
		UnitPrice:       decimal.NewFromInt(2000),
		UnitOfMeasure:   "kg",
		IsActive:        true,
	}
	if err := m.db.Create(&milk).Error; err != nil {
		return fmt.Errorf("failed to seed ingredients: %w", err)
	}
	if err := m.db.Create(&flour).Error; err != nil {
		return fmt.Errorf("failed to seed ingredients: %w", err)
	}

	products := []catalog.Product{
		{
			TenantID:        tenantID,
			SKU:             "PRD-COOKIE",
			Name:            "Cookie Box",
			FulfillmentType: catalog.FulfillmentManufactured,
			UnitPrice:       decimal.NewFromInt(4500),
			IsActive:        true,
		},
		{
			TenantID:        tenantID,
			SKU:             "PRD-LATTE",
			Name:            "Latte",
			FulfillmentType: catalog.FulfillmentMadeToOrder,
			UnitPrice:       decimal.NewFromInt(3200),
			IsActive:        true,
		},
		{
			TenantID:        tenantID,
			SKU:             "SRV-DELIVERY",
			Name:            "Delivery",
			FulfillmentType: catalog.FulfillmentService,
			UnitPrice:       decimal.NewFromInt(2500),
			IsActive:        true,
		},
	}
	for i := range products {
		if err := m.db.Create(&products[i]).Error; err != nil {
			return fmt.Errorf("failed to seed products: %w", err)
		}
	}

	latteRecipe := catalog.Recipe{
		TenantID:  tenantID,
		ProductID: products[1].ID,
		Name:      "Latte (default)",
		IsActive:  true,
		IsDefault: true,
	}
	if err := m.db.Create(&latteRecipe).Error; err != nil {
		return fmt.Errorf("failed to seed recipe: %w", err)
	}
	line := catalog.RecipeLine{
		RecipeID:      latteRecipe.ID,
		IngredientID:  milk.ID,
		Quantity:      decimal.NewFromFloat(0.2),
		UnitOfMeasure: "L",
	}
	if err := m.db.Create(&line).Error; err != nil {
		return fmt.Errorf("failed to seed recipe line: %w", err)
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}

// GetTableInfo logs row counts for the core tables
func (m *Migration) GetTableInfo() error {
	log.Println("📋 Table information:")

	tables := []string{
		"products", "recipes", "recipe_lines", "product_movements",
		"transactions", "transaction_items", "ingredient_consumptions",
		"production_batches",
	}
	for _, table := range tables {
		var count int64
		if err := m.db.Table(table).Count(&count).Error; err != nil {
			log.Printf("  %s: error (%v)", table, err)
			continue
		}
		log.Printf("  %s: %d rows", table, count)
	}
	return nil
}
