// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/muralla-backend/internal/config"
	"github.com/your-org/muralla-backend/internal/interfaces/http/handlers"
	"github.com/your-org/muralla-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// SetupRoutes wires all API v1 routes. Every business endpoint is
// tenant-scoped through the X-Tenant-ID header.
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	rg.Use(middleware.Tenant())

	SetupCatalogRoutes(rg, db, cfg)
	SetupSalesRoutes(rg, db, cfg)
	SetupProductionRoutes(rg, db, cfg)
	SetupInventoryRoutes(rg, db, cfg)
}

// SetupCatalogRoutes sets up product and recipe routes
func SetupCatalogRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	catalogHandler := handlers.NewCatalogHandler(db, cfg)

	products := rg.Group("/products")
	{
		products.GET("", catalogHandler.GetProducts)
		products.POST("", catalogHandler.CreateProduct)
		products.GET("/:id", catalogHandler.GetProduct)
		products.DELETE("/:id", catalogHandler.DeactivateProduct)
		products.GET("/:id/availability", catalogHandler.CheckAvailability)

		products.GET("/:id/recipes", catalogHandler.GetRecipes)
		products.POST("/:id/recipes", catalogHandler.CreateRecipe)
	}
}

// SetupSalesRoutes sets up sale transaction routes
func SetupSalesRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	salesHandler := handlers.NewSalesHandler(db, cfg)

	sales := rg.Group("/sales")
	{
		sales.GET("", salesHandler.GetTransactions)
		sales.POST("", salesHandler.ProcessSale)
		sales.GET("/:id", salesHandler.GetTransaction)
		sales.GET("/:id/consumptions", salesHandler.GetConsumptions)
	}
}

// SetupProductionRoutes sets up production batch routes
func SetupProductionRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	productionHandler := handlers.NewProductionHandler(db, cfg)

	production := rg.Group("/production")
	{
		batches := production.Group("/batches")
		{
			batches.GET("", productionHandler.GetBatches)
			batches.POST("", productionHandler.CreateBatch)
			batches.GET("/:id", productionHandler.GetBatch)
			batches.POST("/:id/start", productionHandler.StartProduction)
			batches.POST("/:id/complete", productionHandler.CompleteProduction)
			batches.POST("/:id/cancel", productionHandler.CancelBatch)
		}

		production.GET("/stats", productionHandler.GetProductionStats)
	}
}

// SetupInventoryRoutes sets up stock ledger routes
func SetupInventoryRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	inventoryHandler := handlers.NewInventoryHandler(db, cfg)

	inv := rg.Group("/inventory")
	{
		inv.GET("/movements", inventoryHandler.GetMovements)
		inv.POST("/adjustments", inventoryHandler.RecordAdjustment)
		inv.GET("/reconciliation/:productId", inventoryHandler.Reconcile)
	}
}
