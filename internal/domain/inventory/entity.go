// internal/domain/inventory/entity.go
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType represents the type of stock movement
type MovementType string

const (
	MovementTypeSale             MovementType = "sale"              // Finished-good stock sold
	MovementTypeSaleConsumption  MovementType = "sale_consumption"  // Recipe ingredient consumed by a made-to-order sale
	MovementTypeProductionInput  MovementType = "production_input"  // Ingredient consumed by a production batch
	MovementTypeProductionOutput MovementType = "production_output" // Finished goods realized by a completed batch
	MovementTypeAdjustment       MovementType = "adjustment"        // Manual correction or batch-cancellation restitution
)

// Reference types movements point back to
const (
	ReferenceTypeTransaction     = "transaction"
	ReferenceTypeProductionBatch = "production_batch"
	ReferenceTypeManual          = "manual"
)

// Movement is one append-only stock ledger row. Movements are never mutated
// after creation; the signed sum of a product's movements, plus its initial
// seed quantity, must equal its current on-hand quantity.
type Movement struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	TenantID      string          `gorm:"not null;size:36;index" json:"tenant_id"`
	ProductID     uint            `gorm:"not null;index" json:"product_id"`
	Type          MovementType    `gorm:"not null;size:30;index" json:"type"`
	Quantity      int             `gorm:"not null" json:"quantity"` // Signed delta applied to on-hand stock
	Cost          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost"`
	ReferenceType string          `gorm:"size:50;index" json:"reference_type"`
	ReferenceID   uint            `gorm:"index" json:"reference_id"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedBy     string          `gorm:"size:100" json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ReconciliationResult compares a product's ledger against its on-hand stock
type ReconciliationResult struct {
	ProductID       uint  `json:"product_id"`
	InitialQuantity int   `json:"initial_quantity"`
	MovementSum     int64 `json:"movement_sum"`
	OnHand          int   `json:"on_hand"`
	Balanced        bool  `json:"balanced"`
}

// TableName override
func (Movement) TableName() string { return "product_movements" }
