// internal/interfaces/http/handlers/sales.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/muralla-backend/internal/config"
	"github.com/your-org/muralla-backend/internal/domain/sales"
	"github.com/your-org/muralla-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SalesHandler handles sale transaction endpoints
type SalesHandler struct {
	salesService *sales.Service
	config       *config.Config
}

// NewSalesHandler creates a new sales handler
func NewSalesHandler(db *gorm.DB, cfg *config.Config) *SalesHandler {
	return &SalesHandler{
		salesService: sales.NewService(db, cfg),
		config:       cfg,
	}
}

// ProcessSale handles POST /sales
func (h *SalesHandler) ProcessSale(c *gin.Context) {
	var req sales.ProcessSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	// Retried requests carrying the same key return the original transaction
	req.IdempotencyKey = c.GetHeader("Idempotency-Key")

	transaction, err := h.salesService.ProcessSale(middleware.GetTenantID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Sale processed successfully",
		"data":    transaction,
	})
}

// GetTransactions handles GET /sales
func (h *SalesHandler) GetTransactions(c *gin.Context) {
	var req sales.TransactionListRequest
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

	transactions, total, err := h.salesService.GetTransactions(middleware.GetTenantID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Transactions retrieved successfully",
		"data": gin.H{
			"transactions": transactions,
			"total":        total,
			"page":         req.Page,
			"limit":        req.Limit,
		},
	})
}

// GetTransaction handles GET /sales/:id
func (h *SalesHandler) GetTransaction(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	transaction, err := h.salesService.GetTransaction(id, middleware.GetTenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Transaction retrieved successfully",
		"data":    transaction,
	})
}

// GetConsumptions handles GET /sales/:id/consumptions
func (h *SalesHandler) GetConsumptions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	consumptions, err := h.salesService.GetConsumptions(id, middleware.GetTenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Consumptions retrieved successfully",
		"data":    consumptions,
	})
}
