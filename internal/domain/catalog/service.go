// internal/domain/catalog/service.go
package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/muralla-backend/internal/config"
	"github.com/your-org/muralla-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Service handles catalog business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new catalog service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateProductRequest represents product creation data
type CreateProductRequest struct {
	SKU             string          `json:"sku" binding:"required"`
	Name            string          `json:"name" binding:"required"`
	Description     string          `json:"description"`
	FulfillmentType FulfillmentType `json:"fulfillment_type" binding:"required"`
	InitialQuantity int             `json:"initial_quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	UnitOfMeasure   string          `json:"unit_of_measure"`
}

// CreateRecipeRequest represents recipe creation data
type CreateRecipeRequest struct {
	Name      string                     `json:"name"`
	IsDefault bool                       `json:"is_default"`
	Lines     []CreateRecipeLineRequest  `json:"lines" binding:"required,min=1"`
}

// CreateRecipeLineRequest represents one ingredient line of a new recipe
type CreateRecipeLineRequest struct {
	IngredientID  uint            `json:"ingredient_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	IsOptional    bool            `json:"is_optional"`
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page            int             `form:"page,default=1"`
	Limit           int             `form:"limit,default=20"`
	FulfillmentType FulfillmentType `form:"fulfillment_type"`
	Search          string          `form:"search"`
}

// PRODUCT MANAGEMENT

// CreateProduct creates a new catalog product
func (s *Service) CreateProduct(tenantID string, req *CreateProductRequest) (*Product, error) {
	if !req.FulfillmentType.IsValid() {
		return nil, apperrors.NewInvalidInput("fulfillment_type", fmt.Sprintf("unknown value '%s'", req.FulfillmentType))
	}
	if req.InitialQuantity < 0 {
		return nil, apperrors.NewInvalidInput("initial_quantity", "must not be negative")
	}

	// Check if SKU already exists for this tenant
	var existing Product
	if err := s.db.Where("tenant_id = ? AND sku = ?", tenantID, req.SKU).First(&existing).Error; err == nil {
		return nil, apperrors.NewInvalidInput("sku", fmt.Sprintf("product with SKU '%s' already exists", req.SKU))
	}

	product := &Product{
		TenantID:        tenantID,
		SKU:             req.SKU,
		Name:            req.Name,
		Description:     req.Description,
		FulfillmentType: req.FulfillmentType,
		Quantity:        req.InitialQuantity,
		InitialQuantity: req.InitialQuantity,
		UnitCost:        req.UnitCost,
		UnitPrice:       req.UnitPrice,
		UnitOfMeasure:   req.UnitOfMeasure,
		IsActive:        true,
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// GetProduct retrieves a single product for a tenant
func (s *Service) GetProduct(productID uint, tenantID string) (*Product, error) {
	return FindProduct(s.db, productID, tenantID)
}

// GetProducts retrieves products with filtering and pagination
func (s *Service) GetProducts(tenantID string, req *ProductListRequest) ([]Product, int64, error) {
	var products []Product
	var total int64

	query := s.db.Model(&Product{}).Where("tenant_id = ?", tenantID)

	if req.FulfillmentType != "" {
		query = query.Where("fulfillment_type = ?", req.FulfillmentType)
	}
	if req.Search != "" {
		query = query.Where("name LIKE ? OR sku LIKE ?", "%"+req.Search+"%", "%"+req.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Order("name asc").Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return products, total, nil
}

// DeactivateProduct soft-deactivates a product. Products are never physically
// deleted; their movement history must stay reconcilable.
func (s *Service) DeactivateProduct(productID uint, tenantID string) error {
	product, err := FindProduct(s.db, productID, tenantID)
	if err != nil {
		return err
	}

	if err := s.db.Model(product).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
	}
	return nil
}

// RECIPE MANAGEMENT

// CreateRecipe creates a recipe for a product
func (s *Service) CreateRecipe(productID uint, tenantID string, req *CreateRecipeRequest) (*Recipe, error) {
	product, err := FindProduct(s.db, productID, tenantID)
	if err != nil {
		return nil, err
	}
	if product.FulfillmentType != FulfillmentMadeToOrder && product.FulfillmentType != FulfillmentManufactured {
		return nil, apperrors.NewInvalidInput("product_id",
			fmt.Sprintf("product '%s' is %s and cannot have recipes", product.Name, product.FulfillmentType))
	}

	recipe := &Recipe{
		TenantID:  tenantID,
		ProductID: productID,
		Name:      req.Name,
		IsActive:  true,
		IsDefault: req.IsDefault,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// A newly created default displaces any previous default
		if req.IsDefault {
			if err := tx.Model(&Recipe{}).
				Where("tenant_id = ? AND product_id = ? AND is_default = ?", tenantID, productID, true).
				Update("is_default", false).Error; err != nil {
				return fmt.Errorf("failed to clear previous default recipe: %w", err)
			}
		}

		if err := tx.Create(recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}

		for i, lineReq := range req.Lines {
			if !lineReq.Quantity.IsPositive() {
				return apperrors.NewInvalidInput("lines", fmt.Sprintf("line %d quantity must be positive", i+1))
			}
			if _, err := FindProduct(tx, lineReq.IngredientID, tenantID); err != nil {
				return err
			}
			line := RecipeLine{
				RecipeID:      recipe.ID,
				IngredientID:  lineReq.IngredientID,
				Quantity:      lineReq.Quantity,
				UnitOfMeasure: lineReq.UnitOfMeasure,
				IsOptional:    lineReq.IsOptional,
				SortOrder:     i,
			}
			if err := tx.Create(&line).Error; err != nil {
				return fmt.Errorf("failed to create recipe line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Preload("Lines.Ingredient").First(recipe, recipe.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	return recipe, nil
}

// GetRecipes lists the recipes of a product
func (s *Service) GetRecipes(productID uint, tenantID string) ([]Recipe, error) {
	if _, err := FindProduct(s.db, productID, tenantID); err != nil {
		return nil, err
	}

	var recipes []Recipe
	if err := s.db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc")
	}).Preload("Lines.Ingredient").
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		Order("created_at desc").
		Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve recipes: %w", err)
	}
	return recipes, nil
}

// ResolveDefaultRecipe resolves the active default recipe for a product
func (s *Service) ResolveDefaultRecipe(productID uint, tenantID string) (*Recipe, error) {
	return ResolveDefaultRecipe(s.db, productID, tenantID)
}

// SHARED LOOKUPS
//
// Package-level functions taking the caller's *gorm.DB so the sale processor
// and the production batch engine can run them inside their own transactions.

// FindProduct resolves a product scoped to a tenant
func FindProduct(db *gorm.DB, productID uint, tenantID string) (*Product, error) {
	var product Product
	if err := db.Where("id = ? AND tenant_id = ?", productID, tenantID).First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &product, nil
}

// ResolveDefaultRecipe resolves the active default recipe of a product with
// its ingredient lines. If more than one active default exists (a data
// quality violation) the most recently created wins, deterministically.
func ResolveDefaultRecipe(db *gorm.DB, productID uint, tenantID string) (*Recipe, error) {
	var recipe Recipe
	err := db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc")
	}).Preload("Lines.Ingredient").
		Where("tenant_id = ? AND product_id = ? AND is_active = ? AND is_default = ?", tenantID, productID, true, true).
		Order("created_at desc, id desc").
		First(&recipe).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFound("recipe", nil)
		}
		return nil, fmt.Errorf("failed to resolve recipe: %w", err)
	}
	return &recipe, nil
}

// FindRecipe resolves a recipe by id scoped to a tenant, with lines
func FindRecipe(db *gorm.DB, recipeID uint, tenantID string) (*Recipe, error) {
	var recipe Recipe
	err := db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order asc")
	}).Preload("Lines.Ingredient").
		Where("id = ? AND tenant_id = ?", recipeID, tenantID).
		First(&recipe).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFound("recipe", recipeID)
		}
		return nil, fmt.Errorf("failed to retrieve recipe: %w", err)
	}
	return &recipe, nil
}

// Shortfall describes one ingredient whose stock cannot cover a requirement
type Shortfall struct {
	IngredientID   uint
	IngredientName string
	Available      decimal.Decimal
	Required       decimal.Decimal
}

// IngredientShortfalls computes, for every non-optional line of a recipe, the
// quantity required to produce outputQty units and returns the lines whose
// ingredient stock falls short. Reads current stock through db, so callers
// inside a transaction see their own uncommitted decrements.
func IngredientShortfalls(db *gorm.DB, recipe *Recipe, outputQty decimal.Decimal) ([]Shortfall, error) {
	var shortfalls []Shortfall
	for _, line := range recipe.RequiredLines() {
		required := line.Quantity.Mul(outputQty)

		var ingredient Product
		if err := db.Where("id = ? AND tenant_id = ?", line.IngredientID, recipe.TenantID).First(&ingredient).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, apperrors.NewNotFound("ingredient", line.IngredientID)
			}
			return nil, fmt.Errorf("failed to retrieve ingredient: %w", err)
		}

		available := decimal.NewFromInt(int64(ingredient.Quantity))
		if available.LessThan(required) {
			shortfalls = append(shortfalls, Shortfall{
				IngredientID:   ingredient.ID,
				IngredientName: ingredient.Name,
				Available:      available,
				Required:       required,
			})
		}
	}
	return shortfalls, nil
}
