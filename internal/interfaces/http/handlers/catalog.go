// internal/interfaces/http/handlers/catalog.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/muralla-backend/internal/config"
	"github.com/your-org/muralla-backend/internal/domain/catalog"
	"github.com/your-org/muralla-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// CatalogHandler handles product and recipe endpoints
type CatalogHandler struct {
	catalogService *catalog.Service
	config         *config.Config
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(db *gorm.DB, cfg *config.Config) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalog.NewService(db, cfg),
		config:         cfg,
	}
}

// CreateProduct handles POST /products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req catalog.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	product, err := h.catalogService.CreateProduct(middleware.GetTenantID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"data":    product,
	})
}

// GetProducts handles GET /products
func (h *CatalogHandler) GetProducts(c *gin.Context) {
	var req catalog.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	// Set default values
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}

	products, total, err := h.catalogService.GetProducts(middleware.GetTenantID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products retrieved successfully",
		"data": gin.H{
			"products": products,
			"total":    total,
			"page":     req.Page,
			"limit":    req.Limit,
		},
	})
}

// GetProduct handles GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(id, middleware.GetTenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product retrieved successfully",
		"data":    product,
	})
}

// DeactivateProduct handles DELETE /products/:id
func (h *CatalogHandler) DeactivateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeactivateProduct(id, middleware.GetTenantID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deactivated successfully",
	})
}

// CheckAvailability handles GET /products/:id/availability
func (h *CatalogHandler) CheckAvailability(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	quantity := 1
	if qParam := c.Query("quantity"); qParam != "" {
		q, err := strconv.Atoi(qParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid quantity",
			})
			return
		}
		quantity = q
	}

	result, err := h.catalogService.CheckAvailability(id, quantity, middleware.GetTenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Availability checked successfully",
		"data":    result,
	})
}

// CreateRecipe handles POST /products/:id/recipes
func (h *CatalogHandler) CreateRecipe(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req catalog.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	recipe, err := h.catalogService.CreateRecipe(id, middleware.GetTenantID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Recipe created successfully",
		"data":    recipe,
	})
}

// GetRecipes handles GET /products/:id/recipes
func (h *CatalogHandler) GetRecipes(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	recipes, err := h.catalogService.GetRecipes(id, middleware.GetTenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recipes retrieved successfully",
		"data":    recipes,
	})
}
