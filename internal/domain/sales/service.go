// internal/domain/sales/service.go
package sales

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/muralla-backend/internal/config"
	"github.com/your-org/muralla-backend/internal/domain/catalog"
	"github.com/your-org/muralla-backend/internal/domain/inventory"
	"github.com/your-org/muralla-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Service handles sale processing
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new sales service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// SaleItemRequest represents one line of a sale request
type SaleItemRequest struct {
	ProductID   uint            `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"required"`
	Quantity    int             `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
}

// ProcessSaleRequest represents sale creation data
type ProcessSaleRequest struct {
	Items          []SaleItemRequest `json:"items" binding:"required,min=1"`
	CustomerID     *string           `json:"customer_id,omitempty"`
	PaymentMethod  string            `json:"payment_method"`
	Notes          string            `json:"notes"`
	CreatedBy      string            `json:"created_by"`
	IdempotencyKey string            `json:"-"` // Set from the Idempotency-Key header, not the body
}

// TransactionListRequest represents transaction list query parameters
type TransactionListRequest struct {
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
}

// ProcessSale records a multi-item sale: totals are computed, the transaction
// and its items are persisted, and each line dispatches to the stock-mutation
// strategy of its product's fulfillment type. Everything happens in one
// atomic unit of work; any line failure rolls back the entire sale.
func (s *Service) ProcessSale(tenantID string, req *ProcessSaleRequest) (*Transaction, error) {
	if err := validateSaleRequest(req); err != nil {
		return nil, err
	}

	// A retried request carrying the same idempotency key returns the
	// transaction it already created instead of selling twice.
	if req.IdempotencyKey != "" {
		if existing, err := s.findByIdempotencyKey(tenantID, req.IdempotencyKey); err == nil {
			return existing, nil
		}
	}

	subtotal := decimal.Zero
	for _, item := range req.Items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Sub(item.Discount)
		subtotal = subtotal.Add(lineTotal)
	}
	tax := subtotal.Mul(s.config.Sales.TaxRate)
	total := subtotal.Add(tax)

	transaction := &Transaction{
		TenantID:      tenantID,
		Type:          TransactionTypeSale,
		Status:        TransactionStatusCompleted,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         total,
		Currency:      s.config.Sales.Currency,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: PaymentStatusPaid,
		CustomerID:    req.CustomerID,
		Notes:         req.Notes,
		CreatedBy:     req.CreatedBy,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		transaction.IdempotencyKey = &key
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(transaction).Error; err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}

		for _, itemReq := range req.Items {
			item := TransactionItem{
				TransactionID: transaction.ID,
				ProductID:     itemReq.ProductID,
				ProductName:   itemReq.ProductName,
				Quantity:      itemReq.Quantity,
				UnitPrice:     itemReq.UnitPrice,
				Discount:      itemReq.Discount,
				LineTotal:     itemReq.UnitPrice.Mul(decimal.NewFromInt(int64(itemReq.Quantity))).Sub(itemReq.Discount),
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("failed to create transaction item: %w", err)
			}

			if err := s.applyStockEffects(tx, transaction, &itemReq); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// A concurrent request with the same key may have won the unique
		// index race; surface its transaction instead of the conflict.
		if req.IdempotencyKey != "" && errors.Is(err, gorm.ErrDuplicatedKey) {
			if existing, lookupErr := s.findByIdempotencyKey(tenantID, req.IdempotencyKey); lookupErr == nil {
				return existing, nil
			}
		}
		return nil, err
	}

	if err := s.db.Preload("Items").First(transaction, transaction.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	return transaction, nil
}

// applyStockEffects dispatches one sale line to the stock-mutation strategy
// of its product's fulfillment type, inside the sale's transaction.
func (s *Service) applyStockEffects(tx *gorm.DB, transaction *Transaction, item *SaleItemRequest) error {
	product, err := catalog.FindProduct(tx, item.ProductID, transaction.TenantID)
	if err != nil {
		return err
	}

	switch product.FulfillmentType {
	case catalog.FulfillmentPreStocked, catalog.FulfillmentManufactured:
		// The conditional decrement re-checks stock at write time; the
		// earlier availability check is advisory only.
		if err := inventory.ApplyDelta(tx, product, -item.Quantity); err != nil {
			return err
		}
		return inventory.Record(tx, &inventory.Movement{
			TenantID:      transaction.TenantID,
			ProductID:     product.ID,
			Type:          inventory.MovementTypeSale,
			Quantity:      -item.Quantity,
			Cost:          product.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity))),
			ReferenceType: inventory.ReferenceTypeTransaction,
			ReferenceID:   transaction.ID,
			CreatedBy:     transaction.CreatedBy,
		})

	case catalog.FulfillmentMadeToOrder:
		return s.consumeRecipeIngredients(tx, transaction, product, item.Quantity)

	case catalog.FulfillmentService:
		// No physical stock effect
		return nil

	default:
		return apperrors.NewInvalidInput("fulfillment_type",
			fmt.Sprintf("unknown value '%s' on product %d", product.FulfillmentType, product.ID))
	}
}

// consumeRecipeIngredients explodes a made-to-order line into its recipe's
// non-optional ingredient deductions. All ingredients are checked before any
// is consumed so a shortfall leaves every ingredient untouched.
func (s *Service) consumeRecipeIngredients(tx *gorm.DB, transaction *Transaction, product *catalog.Product, saleQty int) error {
	recipe, err := catalog.ResolveDefaultRecipe(tx, product.ID, transaction.TenantID)
	if err != nil {
		return err
	}

	outputQty := decimal.NewFromInt(int64(saleQty))
	shortfalls, err := catalog.IngredientShortfalls(tx, recipe, outputQty)
	if err != nil {
		return err
	}
	if len(shortfalls) > 0 {
		sf := shortfalls[0]
		return apperrors.NewInsufficientStock(sf.IngredientName, sf.Available.String(), sf.Required.String())
	}

	for _, line := range recipe.RequiredLines() {
		required := line.Quantity.Mul(outputQty)
		// Stock is integral; fractional requirements are truncated when
		// applied. The consumption row keeps the exact figure.
		applied := int(required.IntPart())

		ingredient, err := catalog.FindProduct(tx, line.IngredientID, transaction.TenantID)
		if err != nil {
			return err
		}

		if err := inventory.ApplyDelta(tx, ingredient, -applied); err != nil {
			return err
		}

		consumption := IngredientConsumption{
			TenantID:        transaction.TenantID,
			TransactionID:   transaction.ID,
			ProductID:       product.ID,
			RecipeID:        recipe.ID,
			IngredientID:    ingredient.ID,
			Quantity:        required,
			AppliedQuantity: applied,
			Cost:            ingredient.UnitCost.Mul(required),
		}
		if err := tx.Create(&consumption).Error; err != nil {
			return fmt.Errorf("failed to create ingredient consumption: %w", err)
		}

		if err := inventory.Record(tx, &inventory.Movement{
			TenantID:      transaction.TenantID,
			ProductID:     ingredient.ID,
			Type:          inventory.MovementTypeSaleConsumption,
			Quantity:      -applied,
			Cost:          ingredient.UnitCost.Mul(required),
			ReferenceType: inventory.ReferenceTypeTransaction,
			ReferenceID:   transaction.ID,
			Notes:         fmt.Sprintf("Consumed for '%s' x%d", product.Name, saleQty),
			CreatedBy:     transaction.CreatedBy,
		}); err != nil {
			return err
		}
	}
	return nil
}

// GetTransaction retrieves a single transaction for a tenant
func (s *Service) GetTransaction(transactionID uint, tenantID string) (*Transaction, error) {
	var transaction Transaction
	err := s.db.Preload("Items").
		Where("id = ? AND tenant_id = ?", transactionID, tenantID).
		First(&transaction).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFound("transaction", transactionID)
		}
		return nil, fmt.Errorf("failed to retrieve transaction: %w", err)
	}
	return &transaction, nil
}

// GetTransactions retrieves transactions with filtering and pagination
func (s *Service) GetTransactions(tenantID string, req *TransactionListRequest) ([]Transaction, int64, error) {
	var transactions []Transaction
	var total int64

	query := s.db.Model(&Transaction{}).Preload("Items").Where("tenant_id = ?", tenantID)
	if req.DateFrom != "" {
		query = query.Where("created_at >= ?", req.DateFrom)
	}
	if req.DateTo != "" {
		query = query.Where("created_at <= ?", req.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at desc").Offset(offset).Limit(req.Limit).Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve transactions: %w", err)
	}

	return transactions, total, nil
}

// GetConsumptions retrieves the ingredient consumptions of a transaction
func (s *Service) GetConsumptions(transactionID uint, tenantID string) ([]IngredientConsumption, error) {
	var consumptions []IngredientConsumption
	if err := s.db.Where("tenant_id = ? AND transaction_id = ?", tenantID, transactionID).
		Order("id asc").
		Find(&consumptions).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve consumptions: %w", err)
	}
	return consumptions, nil
}

func (s *Service) findByIdempotencyKey(tenantID, key string) (*Transaction, error) {
	var existing Transaction
	err := s.db.Preload("Items").
		Where("tenant_id = ? AND idempotency_key = ?", tenantID, key).
		First(&existing).Error
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

func validateSaleRequest(req *ProcessSaleRequest) error {
	if len(req.Items) == 0 {
		return apperrors.NewInvalidInput("items", "must not be empty")
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return apperrors.NewInvalidInput("items", fmt.Sprintf("item %d quantity must be positive", i+1))
		}
		if item.UnitPrice.IsNegative() {
			return apperrors.NewInvalidInput("items", fmt.Sprintf("item %d unit price must not be negative", i+1))
		}
		if item.Discount.IsNegative() {
			return apperrors.NewInvalidInput("items", fmt.Sprintf("item %d discount must not be negative", i+1))
		}
	}
	return nil
}
