// internal/domain/inventory/service.go
package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/muralla-backend/internal/config"
	"github.com/your-org/muralla-backend/internal/domain/catalog"
	"github.com/your-org/muralla-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Service handles the stock ledger
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new inventory service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// AdjustmentRequest represents a manual stock adjustment
type AdjustmentRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"` // Signed: positive adds, negative removes
	Notes     string `json:"notes"`
	CreatedBy string `json:"created_by"`
}

// MovementListRequest represents movement list query parameters
type MovementListRequest struct {
	ProductID uint         `form:"product_id"`
	Type      MovementType `form:"type"`
	Page      int          `form:"page,default=1"`
	Limit     int          `form:"limit,default=50"`
}

// Record appends a ledger row using the caller's transaction handle. The sale
// processor and the production batch engine call this so the movement commits
// or rolls back together with the stock change it describes.
func Record(tx *gorm.DB, movement *Movement) error {
	if err := tx.Create(movement).Error; err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}
	return nil
}

// ApplyDelta applies a signed quantity change to a product's on-hand stock
// with a conditional update: a negative delta only succeeds when enough stock
// remains, so concurrent writers cannot drive stock below zero. Returns
// InsufficientStock when the guard rejects the change.
func ApplyDelta(tx *gorm.DB, product *catalog.Product, delta int) error {
	if delta == 0 {
		return nil
	}

	query := tx.Model(&catalog.Product{}).
		Where("id = ? AND tenant_id = ?", product.ID, product.TenantID)
	if delta < 0 {
		query = query.Where("quantity >= ?", -delta)
	}

	result := query.UpdateColumn("quantity", gorm.Expr("quantity + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("failed to update stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Re-read for an accurate availability figure in the error
		var current catalog.Product
		available := product.Quantity
		if err := tx.Where("id = ? AND tenant_id = ?", product.ID, product.TenantID).First(&current).Error; err == nil {
			available = current.Quantity
		}
		return apperrors.NewInsufficientStock(product.Name,
			fmt.Sprintf("%d", available), fmt.Sprintf("%d", -delta))
	}
	return nil
}

// RecordAdjustment applies a manual stock correction and its ledger row
// atomically. The same no-negative-stock guard used by sales applies.
func (s *Service) RecordAdjustment(tenantID string, req *AdjustmentRequest) (*Movement, error) {
	if req.Quantity == 0 {
		return nil, apperrors.NewInvalidInput("quantity", "must not be zero")
	}

	var movement *Movement
	err := s.db.Transaction(func(tx *gorm.DB) error {
		product, err := catalog.FindProduct(tx, req.ProductID, tenantID)
		if err != nil {
			return err
		}
		if !product.FulfillmentType.TracksStock() {
			return apperrors.NewInvalidInput("product_id",
				fmt.Sprintf("product '%s' is %s and has no stock to adjust", product.Name, product.FulfillmentType))
		}

		if err := ApplyDelta(tx, product, req.Quantity); err != nil {
			return err
		}

		movement = &Movement{
			TenantID:      tenantID,
			ProductID:     product.ID,
			Type:          MovementTypeAdjustment,
			Quantity:      req.Quantity,
			Cost:          product.UnitCost.Mul(decimal.NewFromInt(int64(abs(req.Quantity)))),
			ReferenceType: ReferenceTypeManual,
			Notes:         req.Notes,
			CreatedBy:     req.CreatedBy,
		}
		return Record(tx, movement)
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// GetMovements retrieves ledger rows with filtering and pagination
func (s *Service) GetMovements(tenantID string, req *MovementListRequest) ([]Movement, int64, error) {
	var movements []Movement
	var total int64

	query := s.db.Model(&Movement{}).Where("tenant_id = ?", tenantID)
	if req.ProductID > 0 {
		query = query.Where("product_id = ?", req.ProductID)
	}
	if req.Type != "" {
		query = query.Where("type = ?", req.Type)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count movements: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at desc, id desc").Offset(offset).Limit(req.Limit).Find(&movements).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve movements: %w", err)
	}

	return movements, total, nil
}

// Reconcile checks the core auditability contract for one product: initial
// seed quantity plus the signed sum of all its movements must equal its
// current on-hand quantity.
func (s *Service) Reconcile(productID uint, tenantID string) (*ReconciliationResult, error) {
	product, err := catalog.FindProduct(s.db, productID, tenantID)
	if err != nil {
		return nil, err
	}

	var sum int64
	if err := s.db.Model(&Movement{}).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).Error; err != nil {
		return nil, fmt.Errorf("failed to sum movements: %w", err)
	}

	return &ReconciliationResult{
		ProductID:       productID,
		InitialQuantity: product.InitialQuantity,
		MovementSum:     sum,
		OnHand:          product.Quantity,
		Balanced:        int64(product.InitialQuantity)+sum == int64(product.Quantity),
	}, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
