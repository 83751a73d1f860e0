// internal/domain/production/entity.go
package production

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus represents the production batch lifecycle state.
//
// Legal transitions:
//
//	PLANNED -> IN_PROGRESS -> COMPLETED
//	PLANNED | IN_PROGRESS -> CANCELLED
//
// COMPLETED and CANCELLED are terminal.
type BatchStatus string

const (
	BatchStatusPlanned    BatchStatus = "planned"
	BatchStatusInProgress BatchStatus = "in_progress"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusCancelled  BatchStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusCompleted || s == BatchStatusCancelled
}

// Batch represents one manufacturing run. Batches are never deleted;
// cancellation is a terminal status, not a deletion.
type Batch struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	TenantID    string `gorm:"not null;size:36;index;uniqueIndex:idx_batches_tenant_number" json:"tenant_id"`
	BatchNumber string `gorm:"not null;size:30;uniqueIndex:idx_batches_tenant_number" json:"batch_number"`

	RecipeID        uint        `gorm:"not null;index" json:"recipe_id"`
	ProductID       uint        `gorm:"not null;index" json:"product_id"` // Target product realized on completion
	PlannedQuantity int         `gorm:"not null" json:"planned_quantity"`
	ActualQuantity  int         `gorm:"default:0" json:"actual_quantity"` // Set only on completion
	Status          BatchStatus `gorm:"not null;size:20;default:'planned';index" json:"status"`

	// Cost fields, zero until computed by the owning transition
	IngredientCost decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"ingredient_cost"`
	LaborCost      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"labor_cost"`
	OverheadCost   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"overhead_cost"`
	TotalCost      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_cost"`
	CostPerUnit    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_per_unit"`

	Notes     string `gorm:"type:text" json:"notes"`
	CreatedBy string `gorm:"size:100" json:"created_by"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName override
func (Batch) TableName() string { return "production_batches" }
