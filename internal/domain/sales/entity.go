// internal/domain/sales/entity.go
package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of transaction
type TransactionType string

const (
	TransactionTypeSale TransactionType = "sale"
)

// TransactionStatus represents the transaction status
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPending PaymentStatus = "pending"
)

// Transaction represents a completed sale. It is created atomically with its
// items and all downstream stock effects; once created it is immutable except
// for status transitions.
type Transaction struct {
	ID       uint              `gorm:"primaryKey" json:"id"`
	TenantID string            `gorm:"not null;size:36;index;uniqueIndex:idx_transactions_tenant_idem" json:"tenant_id"`
	Type     TransactionType   `gorm:"not null;size:20;default:'sale'" json:"type"`
	Status   TransactionStatus `gorm:"not null;size:20;default:'completed'" json:"status"`

	// Financial information
	Subtotal decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	Tax      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax"`
	Discount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	Total    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	Currency string          `gorm:"size:3;default:'CLP'" json:"currency"`

	PaymentMethod string        `gorm:"size:50" json:"payment_method"`
	PaymentStatus PaymentStatus `gorm:"size:20;default:'paid'" json:"payment_status"`

	CustomerID *string `gorm:"size:36;index" json:"customer_id,omitempty"`
	Notes      string  `gorm:"type:text" json:"notes"`
	CreatedBy  string  `gorm:"size:100" json:"created_by"`

	// Caller-supplied key deduplicating retried sale requests. Unique per
	// tenant; NULL when the caller did not send one.
	IdempotencyKey *string `gorm:"size:64;uniqueIndex:idx_transactions_tenant_idem" json:"idempotency_key,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Items []TransactionItem `gorm:"foreignKey:TransactionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// TransactionItem represents one line of a sale. ProductName is a
// denormalized snapshot so history stays accurate if the product is renamed.
type TransactionItem struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	TransactionID uint            `gorm:"not null;index" json:"transaction_id"`
	ProductID     uint            `gorm:"not null;index" json:"product_id"`
	ProductName   string          `gorm:"not null;size:255" json:"product_name"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	Discount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	LineTotal     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"line_total"`
	CreatedAt     time.Time       `json:"created_at"`
}

// IngredientConsumption traces one ingredient deduction caused by a
// made-to-order line item. Created only on success, never mutated afterwards.
// Quantity keeps the exact fractional requirement; AppliedQuantity is the
// whole-unit amount actually deducted from stock.
type IngredientConsumption struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	TenantID        string          `gorm:"not null;size:36;index" json:"tenant_id"`
	TransactionID   uint            `gorm:"not null;index" json:"transaction_id"`
	ProductID       uint            `gorm:"not null;index" json:"product_id"` // Finished good
	RecipeID        uint            `gorm:"not null;index" json:"recipe_id"`
	IngredientID    uint            `gorm:"not null;index" json:"ingredient_id"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	AppliedQuantity int             `gorm:"not null" json:"applied_quantity"`
	Cost            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost"` // Ingredient cost basis at deduction time
	CreatedAt       time.Time       `json:"created_at"`
}

// TableName overrides
func (Transaction) TableName() string           { return "transactions" }
func (TransactionItem) TableName() string       { return "transaction_items" }
func (IngredientConsumption) TableName() string { return "ingredient_consumptions" }
