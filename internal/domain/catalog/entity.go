// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FulfillmentType represents how a product is fulfilled at sale time
type FulfillmentType string

const (
	FulfillmentPreStocked   FulfillmentType = "pre_stocked"   // Sold from on-hand stock
	FulfillmentManufactured FulfillmentType = "manufactured"  // Produced in batches, sold from stock
	FulfillmentMadeToOrder  FulfillmentType = "made_to_order" // Assembled at sale time from recipe ingredients
	FulfillmentService      FulfillmentType = "service"       // No physical stock
)

// IsValid reports whether the fulfillment type is one of the known variants
func (ft FulfillmentType) IsValid() bool {
	switch ft {
	case FulfillmentPreStocked, FulfillmentManufactured, FulfillmentMadeToOrder, FulfillmentService:
		return true
	}
	return false
}

// TracksStock reports whether on-hand quantity semantics apply to this type
func (ft FulfillmentType) TracksStock() bool {
	return ft == FulfillmentPreStocked || ft == FulfillmentManufactured
}

// Product represents a sellable or consumable catalog item
type Product struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	TenantID        string          `gorm:"not null;size:36;index;uniqueIndex:idx_products_tenant_sku" json:"tenant_id"`
	SKU             string          `gorm:"not null;size:100;uniqueIndex:idx_products_tenant_sku" json:"sku"`
	Name            string          `gorm:"not null;size:255" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	FulfillmentType FulfillmentType `gorm:"not null;size:20;index" json:"fulfillment_type"`
	Quantity        int             `gorm:"default:0" json:"quantity"`
	InitialQuantity int             `gorm:"default:0" json:"initial_quantity"` // Seed stock at creation; immutable, anchors ledger reconciliation
	UnitCost        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	UnitOfMeasure   string          `gorm:"size:20" json:"unit_of_measure"`
	IsActive        bool            `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Recipes []Recipe `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"recipes,omitempty"`
}

// Recipe represents a bill of materials producing one unit of its product
type Recipe struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	TenantID  string         `gorm:"not null;size:36;index" json:"tenant_id"`
	ProductID uint           `gorm:"not null;index" json:"product_id"`
	Name      string         `gorm:"size:255" json:"name"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	IsDefault bool           `gorm:"default:false" json:"is_default"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Lines []RecipeLine `gorm:"foreignKey:RecipeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"lines,omitempty"`
}

// RecipeLine represents one ingredient requirement per unit of output.
// Optional lines are informational only: they are excluded from availability
// checks and from stock consumption.
type RecipeLine struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	RecipeID      uint            `gorm:"not null;index" json:"recipe_id"`
	IngredientID  uint            `gorm:"not null;index" json:"ingredient_id"`
	Quantity      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"` // Per one unit of output
	UnitOfMeasure string          `gorm:"size:20" json:"unit_of_measure"`
	IsOptional    bool            `gorm:"default:false" json:"is_optional"`
	SortOrder     int             `gorm:"default:0" json:"sort_order"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Relationships
	Ingredient Product `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
}

// AvailabilityResult is the advisory answer to "can N units be fulfilled now".
// The consuming write path re-validates with conditional decrements; callers
// must not treat this as a reservation.
type AvailabilityResult struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// RequiredLines returns the non-optional lines of a recipe
func (r *Recipe) RequiredLines() []RecipeLine {
	required := make([]RecipeLine, 0, len(r.Lines))
	for _, line := range r.Lines {
		if !line.IsOptional {
			required = append(required, line)
		}
	}
	return required
}

// TableName overrides
func (Product) TableName() string    { return "products" }
func (Recipe) TableName() string     { return "recipes" }
func (RecipeLine) TableName() string { return "recipe_lines" }
