// internal/interfaces/http/handlers/inventory.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/muralla-backend/internal/config"
	"github.com/your-org/muralla-backend/internal/domain/inventory"
	"github.com/your-org/muralla-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// InventoryHandler handles stock ledger endpoints
type InventoryHandler struct {
	inventoryService *inventory.Service
	config           *config.Config
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(db *gorm.DB, cfg *config.Config) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventory.NewService(db, cfg),
		config:           cfg,
	}
}

// GetMovements handles GET /inventory/movements
func (h *InventoryHandler) GetMovements(c *gin.Context) {
	var req inventory.MovementListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 200 {
		req.Limit = 50
	}

	movements, total, err := h.inventoryService.GetMovements(middleware.GetTenantID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Movements retrieved successfully",
		"data": gin.H{
			"movements": movements,
			"total":     total,
			"page":      req.Page,
			"limit":     req.Limit,
		},
	})
}

// RecordAdjustment handles POST /inventory/adjustments
func (h *InventoryHandler) RecordAdjustment(c *gin.Context) {
	var req inventory.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	movement, err := h.inventoryService.RecordAdjustment(middleware.GetTenantID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Adjustment recorded successfully",
		"data":    movement,
	})
}

// Reconcile handles GET /inventory/reconciliation/:productId
func (h *InventoryHandler) Reconcile(c *gin.Context) {
	id, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}

	result, err := h.inventoryService.Reconcile(id, middleware.GetTenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Reconciliation computed successfully",
		"data":    result,
	})
}
