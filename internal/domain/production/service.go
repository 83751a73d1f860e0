// internal/domain/production/service.go
package production

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/muralla-backend/internal/config"
	"github.com/your-org/muralla-backend/internal/domain/catalog"
	"github.com/your-org/muralla-backend/internal/domain/inventory"
	"github.com/your-org/muralla-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// batchNumberRetries bounds retries when concurrent creates collide on the
// per-tenant-per-day sequence; the unique index turns the race into a
// duplicate-key error we can retry.
const batchNumberRetries = 3

// Service handles the production batch lifecycle
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new production service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateBatchRequest represents batch creation data
type CreateBatchRequest struct {
	RecipeID        uint   `json:"recipe_id" binding:"required"`
	ProductID       uint   `json:"product_id" binding:"required"`
	PlannedQuantity int    `json:"planned_quantity" binding:"required"`
	Notes           string `json:"notes"`
	CreatedBy       string `json:"created_by"`
}

// CompleteBatchRequest represents batch completion data
type CompleteBatchRequest struct {
	ActualQuantity int             `json:"actual_quantity" binding:"required"`
	LaborCost      decimal.Decimal `json:"labor_cost"`
	OverheadCost   decimal.Decimal `json:"overhead_cost"`
}

// BatchListRequest represents batch list query parameters
type BatchListRequest struct {
	Status    BatchStatus `form:"status"`
	ProductID uint        `form:"product_id"`
	Page      int         `form:"page,default=1"`
	Limit     int         `form:"limit,default=20"`
	DateFrom  string      `form:"date_from"`
	DateTo    string      `form:"date_to"`
}

// ProductionStats aggregates completed batches for a tenant
type ProductionStats struct {
	TotalBatches   int64               `json:"total_batches"`
	TotalUnits     int64               `json:"total_units"`
	TotalCost      decimal.Decimal     `json:"total_cost"`
	AvgCostPerUnit decimal.Decimal     `json:"avg_cost_per_unit"`
	ByProduct      []ProductionProduct `json:"by_product"`
}

// ProductionProduct is one product's rollup within ProductionStats
type ProductionProduct struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Batches     int64           `json:"batches"`
	Units       int64           `json:"units"`
	TotalCost   decimal.Decimal `json:"total_cost"`
}

// CreateBatch plans a new production run. Ingredient sufficiency is checked
// up front (every shortfall reported, not just the first) and the batch
// number is derived from a per-tenant-per-day sequence protected by a unique
// index, with retries absorbing concurrent-create collisions.
func (s *Service) CreateBatch(tenantID string, req *CreateBatchRequest) (*Batch, error) {
	if req.PlannedQuantity <= 0 {
		return nil, apperrors.NewInvalidInput("planned_quantity", "must be positive")
	}

	var batch *Batch
	var err error
	for attempt := 0; attempt < batchNumberRetries; attempt++ {
		batch, err = s.tryCreateBatch(tenantID, req)
		if err == nil {
			return batch, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("failed to allocate batch number after %d attempts: %w", batchNumberRetries, err)
}

func (s *Service) tryCreateBatch(tenantID string, req *CreateBatchRequest) (*Batch, error) {
	var batch *Batch
	err := s.db.Transaction(func(tx *gorm.DB) error {
		recipe, err := catalog.FindRecipe(tx, req.RecipeID, tenantID)
		if err != nil {
			return err
		}
		product, err := catalog.FindProduct(tx, req.ProductID, tenantID)
		if err != nil {
			return err
		}
		if recipe.ProductID != product.ID {
			return apperrors.NewInvalidInput("recipe_id",
				fmt.Sprintf("recipe %d does not produce product %d", recipe.ID, product.ID))
		}

		shortfalls, err := catalog.IngredientShortfalls(tx, recipe, decimal.NewFromInt(int64(req.PlannedQuantity)))
		if err != nil {
			return err
		}
		if len(shortfalls) > 0 {
			stockErr := &apperrors.InsufficientStockError{}
			for _, sf := range shortfalls {
				stockErr.Shortfalls = append(stockErr.Shortfalls, apperrors.StockShortfall{
					ProductName: sf.IngredientName,
					Available:   sf.Available.String(),
					Required:    sf.Required.String(),
				})
			}
			return stockErr
		}

		number, err := nextBatchNumber(tx, tenantID, time.Now().UTC())
		if err != nil {
			return err
		}

		batch = &Batch{
			TenantID:        tenantID,
			BatchNumber:     number,
			RecipeID:        recipe.ID,
			ProductID:       product.ID,
			PlannedQuantity: req.PlannedQuantity,
			Status:          BatchStatusPlanned,
			Notes:           req.Notes,
			CreatedBy:       req.CreatedBy,
		}
		if err := tx.Create(batch).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// nextBatchNumber produces BATCH-YYMMDD-NNNN where NNNN counts the tenant's
// batches created that day, starting at 0001. The count-then-insert is racy
// on its own; the (tenant_id, batch_number) unique index makes collisions
// fail loudly so CreateBatch can retry with a fresh count.
func nextBatchNumber(tx *gorm.DB, tenantID string, now time.Time) (string, error) {
	prefix := fmt.Sprintf("BATCH-%s-", now.Format("060102"))

	var count int64
	if err := tx.Model(&Batch{}).
		Where("tenant_id = ? AND batch_number LIKE ?", tenantID, prefix+"%").
		Count(&count).Error; err != nil {
		return "", fmt.Errorf("failed to count today's batches: %w", err)
	}

	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

// StartProduction consumes the recipe's non-optional ingredients and moves
// the batch to IN_PROGRESS. Sufficiency is re-validated here by the
// conditional decrements: stock may have moved since the batch was planned,
// and a concurrent shortfall must fail loudly, not go negative.
func (s *Service) StartProduction(batchID uint, tenantID string) (*Batch, error) {
	var batch *Batch
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		batch, err = findBatch(tx, batchID, tenantID)
		if err != nil {
			return err
		}
		if batch.Status != BatchStatusPlanned {
			return &apperrors.InvalidStateError{CurrentStatus: string(batch.Status), Attempted: "start production"}
		}

		// Claim the transition before touching stock so two concurrent
		// starts cannot both consume ingredients.
		now := time.Now().UTC()
		claim := tx.Model(&Batch{}).
			Where("id = ? AND tenant_id = ? AND status = ?", batch.ID, tenantID, BatchStatusPlanned).
			Updates(map[string]interface{}{
				"status":     BatchStatusInProgress,
				"started_at": now,
			})
		if claim.Error != nil {
			return fmt.Errorf("failed to start batch: %w", claim.Error)
		}
		if claim.RowsAffected == 0 {
			return &apperrors.InvalidStateError{CurrentStatus: string(batch.Status), Attempted: "start production"}
		}

		recipe, err := catalog.FindRecipe(tx, batch.RecipeID, tenantID)
		if err != nil {
			return err
		}

		plannedQty := decimal.NewFromInt(int64(batch.PlannedQuantity))
		ingredientCost := decimal.Zero
		for _, line := range recipe.RequiredLines() {
			qtyNeeded := line.Quantity.Mul(plannedQty)
			applied := int(qtyNeeded.IntPart())

			ingredient, err := catalog.FindProduct(tx, line.IngredientID, tenantID)
			if err != nil {
				return err
			}
			if err := inventory.ApplyDelta(tx, ingredient, -applied); err != nil {
				return err
			}

			lineCost := ingredient.UnitCost.Mul(qtyNeeded)
			ingredientCost = ingredientCost.Add(lineCost)

			if err := inventory.Record(tx, &inventory.Movement{
				TenantID:      tenantID,
				ProductID:     ingredient.ID,
				Type:          inventory.MovementTypeProductionInput,
				Quantity:      -applied,
				Cost:          lineCost,
				ReferenceType: inventory.ReferenceTypeProductionBatch,
				ReferenceID:   batch.ID,
				Notes:         fmt.Sprintf("Batch %s", batch.BatchNumber),
				CreatedBy:     batch.CreatedBy,
			}); err != nil {
				return err
			}
		}

		if err := tx.Model(&Batch{}).Where("id = ?", batch.ID).
			Update("ingredient_cost", ingredientCost).Error; err != nil {
			return fmt.Errorf("failed to store ingredient cost: %w", err)
		}

		batch.Status = BatchStatusInProgress
		batch.StartedAt = &now
		batch.IngredientCost = ingredientCost
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// CompleteProduction realizes the batch: target product stock is incremented
// by the actual quantity, its cost basis is overwritten with the batch's
// realized cost per unit, and the batch becomes COMPLETED.
func (s *Service) CompleteProduction(batchID uint, tenantID string, req *CompleteBatchRequest) (*Batch, error) {
	if req.ActualQuantity <= 0 {
		return nil, apperrors.NewInvalidInput("actual_quantity", "must be positive")
	}
	if req.LaborCost.IsNegative() || req.OverheadCost.IsNegative() {
		return nil, apperrors.NewInvalidInput("costs", "must not be negative")
	}

	var batch *Batch
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		batch, err = findBatch(tx, batchID, tenantID)
		if err != nil {
			return err
		}
		if batch.Status != BatchStatusInProgress {
			return &apperrors.InvalidStateError{CurrentStatus: string(batch.Status), Attempted: "complete production"}
		}

		totalCost := rollUpCosts(batch.IngredientCost, req.LaborCost, req.OverheadCost)
		perUnit := costPerUnit(totalCost, req.ActualQuantity)

		now := time.Now().UTC()
		claim := tx.Model(&Batch{}).
			Where("id = ? AND tenant_id = ? AND status = ?", batch.ID, tenantID, BatchStatusInProgress).
			Updates(map[string]interface{}{
				"status":          BatchStatusCompleted,
				"actual_quantity": req.ActualQuantity,
				"labor_cost":      req.LaborCost,
				"overhead_cost":   req.OverheadCost,
				"total_cost":      totalCost,
				"cost_per_unit":   perUnit,
				"completed_at":    now,
			})
		if claim.Error != nil {
			return fmt.Errorf("failed to complete batch: %w", claim.Error)
		}
		if claim.RowsAffected == 0 {
			return &apperrors.InvalidStateError{CurrentStatus: string(batch.Status), Attempted: "complete production"}
		}

		product, err := catalog.FindProduct(tx, batch.ProductID, tenantID)
		if err != nil {
			return err
		}
		if err := inventory.ApplyDelta(tx, product, req.ActualQuantity); err != nil {
			return err
		}

		// The latest batch's realized cost overwrites the cost basis; no
		// averaging against previous batches.
		if err := tx.Model(&catalog.Product{}).
			Where("id = ? AND tenant_id = ?", product.ID, tenantID).
			Update("unit_cost", perUnit).Error; err != nil {
			return fmt.Errorf("failed to update product cost basis: %w", err)
		}

		if err := inventory.Record(tx, &inventory.Movement{
			TenantID:      tenantID,
			ProductID:     product.ID,
			Type:          inventory.MovementTypeProductionOutput,
			Quantity:      req.ActualQuantity,
			Cost:          totalCost,
			ReferenceType: inventory.ReferenceTypeProductionBatch,
			ReferenceID:   batch.ID,
			Notes:         fmt.Sprintf("Batch %s completed", batch.BatchNumber),
			CreatedBy:     batch.CreatedBy,
		}); err != nil {
			return err
		}

		batch.Status = BatchStatusCompleted
		batch.ActualQuantity = req.ActualQuantity
		batch.LaborCost = req.LaborCost
		batch.OverheadCost = req.OverheadCost
		batch.TotalCost = totalCost
		batch.CostPerUnit = perUnit
		batch.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// CancelBatch aborts a batch. An IN_PROGRESS batch gets its consumed
// ingredients restituted through ADJUSTMENT movements; a PLANNED batch has
// consumed nothing, so only the status changes. Terminal batches cannot be
// cancelled.
func (s *Service) CancelBatch(batchID uint, tenantID string, reason string) (*Batch, error) {
	var batch *Batch
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		batch, err = findBatch(tx, batchID, tenantID)
		if err != nil {
			return err
		}
		if batch.Status.IsTerminal() {
			return &apperrors.InvalidStateError{CurrentStatus: string(batch.Status), Attempted: "cancel batch"}
		}

		previousStatus := batch.Status

		notes := batch.Notes
		if reason != "" {
			if notes != "" {
				notes += "\n"
			}
			notes += fmt.Sprintf("Cancelled: %s", reason)
		}

		claim := tx.Model(&Batch{}).
			Where("id = ? AND tenant_id = ? AND status IN ?", batch.ID, tenantID,
				[]BatchStatus{BatchStatusPlanned, BatchStatusInProgress}).
			Updates(map[string]interface{}{
				"status": BatchStatusCancelled,
				"notes":  notes,
			})
		if claim.Error != nil {
			return fmt.Errorf("failed to cancel batch: %w", claim.Error)
		}
		if claim.RowsAffected == 0 {
			return &apperrors.InvalidStateError{CurrentStatus: string(batch.Status), Attempted: "cancel batch"}
		}

		if previousStatus == BatchStatusInProgress {
			if err := s.restituteIngredients(tx, batch, reason); err != nil {
				return err
			}
		}

		batch.Status = BatchStatusCancelled
		batch.Notes = notes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// restituteIngredients returns the whole-unit quantities consumed at start
// time back onto each ingredient's stock.
func (s *Service) restituteIngredients(tx *gorm.DB, batch *Batch, reason string) error {
	recipe, err := catalog.FindRecipe(tx, batch.RecipeID, batch.TenantID)
	if err != nil {
		return err
	}

	plannedQty := decimal.NewFromInt(int64(batch.PlannedQuantity))
	for _, line := range recipe.RequiredLines() {
		applied := int(line.Quantity.Mul(plannedQty).IntPart())

		ingredient, err := catalog.FindProduct(tx, line.IngredientID, batch.TenantID)
		if err != nil {
			return err
		}
		if err := inventory.ApplyDelta(tx, ingredient, applied); err != nil {
			return err
		}

		note := fmt.Sprintf("Batch %s cancelled", batch.BatchNumber)
		if reason != "" {
			note += ": " + reason
		}
		if err := inventory.Record(tx, &inventory.Movement{
			TenantID:      batch.TenantID,
			ProductID:     ingredient.ID,
			Type:          inventory.MovementTypeAdjustment,
			Quantity:      applied,
			Cost:          ingredient.UnitCost.Mul(decimal.NewFromInt(int64(applied))),
			ReferenceType: inventory.ReferenceTypeProductionBatch,
			ReferenceID:   batch.ID,
			Notes:         note,
			CreatedBy:     batch.CreatedBy,
		}); err != nil {
			return err
		}
	}
	return nil
}

// GetBatch retrieves a single batch for a tenant
func (s *Service) GetBatch(batchID uint, tenantID string) (*Batch, error) {
	return findBatch(s.db, batchID, tenantID)
}

// GetBatches retrieves batches with filtering and pagination
func (s *Service) GetBatches(tenantID string, req *BatchListRequest) ([]Batch, int64, error) {
	var batches []Batch
	var total int64

	query := s.db.Model(&Batch{}).Where("tenant_id = ?", tenantID)
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.ProductID > 0 {
		query = query.Where("product_id = ?", req.ProductID)
	}
	if req.DateFrom != "" {
		query = query.Where("created_at >= ?", req.DateFrom)
	}
	if req.DateTo != "" {
		query = query.Where("created_at <= ?", req.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count batches: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at desc").Offset(offset).Limit(req.Limit).Find(&batches).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve batches: %w", err)
	}

	return batches, total, nil
}

// GetProductionStats rolls up completed batches, optionally within a date
// range. Read-only; not part of the transactional core.
func (s *Service) GetProductionStats(tenantID string, dateFrom, dateTo string) (*ProductionStats, error) {
	var batches []Batch
	query := s.db.Where("tenant_id = ? AND status = ?", tenantID, BatchStatusCompleted)
	if dateFrom != "" {
		query = query.Where("completed_at >= ?", dateFrom)
	}
	if dateTo != "" {
		query = query.Where("completed_at <= ?", dateTo)
	}
	if err := query.Find(&batches).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve completed batches: %w", err)
	}

	stats := &ProductionStats{
		TotalCost:      decimal.Zero,
		AvgCostPerUnit: decimal.Zero,
	}
	perProduct := make(map[uint]*ProductionProduct)
	for _, b := range batches {
		stats.TotalBatches++
		stats.TotalUnits += int64(b.ActualQuantity)
		stats.TotalCost = stats.TotalCost.Add(b.TotalCost)

		entry, ok := perProduct[b.ProductID]
		if !ok {
			entry = &ProductionProduct{ProductID: b.ProductID, TotalCost: decimal.Zero}
			perProduct[b.ProductID] = entry
		}
		entry.Batches++
		entry.Units += int64(b.ActualQuantity)
		entry.TotalCost = entry.TotalCost.Add(b.TotalCost)
	}
	if stats.TotalUnits > 0 {
		stats.AvgCostPerUnit = stats.TotalCost.Div(decimal.NewFromInt(stats.TotalUnits))
	}

	for productID, entry := range perProduct {
		var product catalog.Product
		if err := s.db.Select("name").Where("id = ? AND tenant_id = ?", productID, tenantID).First(&product).Error; err == nil {
			entry.ProductName = product.Name
		}
		stats.ByProduct = append(stats.ByProduct, *entry)
	}
	sort.Slice(stats.ByProduct, func(i, j int) bool {
		return stats.ByProduct[i].ProductID < stats.ByProduct[j].ProductID
	})

	return stats, nil
}

func findBatch(db *gorm.DB, batchID uint, tenantID string) (*Batch, error) {
	var batch Batch
	if err := db.Where("id = ? AND tenant_id = ?", batchID, tenantID).First(&batch).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFound("production batch", batchID)
		}
		return nil, fmt.Errorf("failed to retrieve batch: %w", err)
	}
	return &batch, nil
}
