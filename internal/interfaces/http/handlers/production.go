// internal/interfaces/http/handlers/production.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/muralla-backend/internal/config"
	"github.com/your-org/muralla-backend/internal/domain/production"
	"github.com/your-org/muralla-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// ProductionHandler handles production batch endpoints
type ProductionHandler struct {
	productionService *production.Service
	config            *config.Config
}

// NewProductionHandler creates a new production handler
func NewProductionHandler(db *gorm.DB, cfg *config.Config) *ProductionHandler {
	return &ProductionHandler{
		productionService: production.NewService(db, cfg),
		config:            cfg,
	}
}

// CreateBatch handles POST /production/batches
func (h *ProductionHandler) CreateBatch(c *gin.Context) {
	var req production.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	batch, err := h.productionService.CreateBatch(middleware.GetTenantID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Production batch created successfully",
		"data":    batch,
	})
}

// GetBatches handles GET /production/batches
func (h *ProductionHandler) GetBatches(c *gin.Context) {
	var req production.BatchListRequest
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
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}

	batches, total, err := h.productionService.GetBatches(middleware.GetTenantID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Batches retrieved successfully",
		"data": gin.H{
			"batches": batches,
			"total":   total,
			"page":    req.Page,
			"limit":   req.Limit,
		},
	})
}

// GetBatch handles GET /production/batches/:id
func (h *ProductionHandler) GetBatch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.productionService.GetBatch(id, middleware.GetTenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Batch retrieved successfully",
		"data":    batch,
	})
}

// StartProduction handles POST /production/batches/:id/start
func (h *ProductionHandler) StartProduction(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.productionService.StartProduction(id, middleware.GetTenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Production started successfully",
		"data":    batch,
	})
}

// CompleteProduction handles POST /production/batches/:id/complete
func (h *ProductionHandler) CompleteProduction(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req production.CompleteBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	batch, err := h.productionService.CompleteProduction(id, middleware.GetTenantID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Production completed successfully",
		"data":    batch,
	})
}

// CancelBatch handles POST /production/batches/:id/cancel
func (h *ProductionHandler) CancelBatch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional on cancel
	_ = c.ShouldBindJSON(&req)

	batch, err := h.productionService.CancelBatch(id, middleware.GetTenantID(c), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Batch cancelled successfully",
		"data":    batch,
	})
}

// GetProductionStats handles GET /production/stats
func (h *ProductionHandler) GetProductionStats(c *gin.Context) {
	stats, err := h.productionService.GetProductionStats(middleware.GetTenantID(c),
		c.Query("date_from"), c.Query("date_to"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Production stats retrieved successfully",
		"data":    stats,
	})
}
