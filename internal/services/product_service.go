package services

import (
	"context"

	"cafe/internal/models"
	"cafe/internal/repositories"

	"github.com/pkg/errors"
)

// ProductService serves the catalog reads the admin console needs and routes
// restocking through the inventory ledger.
type ProductService struct {
	repo      repositories.ProductRepository
	ledger    *InventoryLedger
	threshold int
}

// NewProductService creates a new ProductService. Products with stock at or
// below threshold are reported as low.
func NewProductService(repo repositories.ProductRepository, ledger *InventoryLedger, threshold int) *ProductService {
	return &ProductService{
		repo:      repo,
		ledger:    ledger,
		threshold: threshold,
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return product, err
}

// CreateProduct creates a new product.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.Stock < 0 {
		return ErrInvalidQuantity
	}
	return s.repo.Create(ctx, product)
}

// Restock adds quantity units to a product.
func (s *ProductService) Restock(ctx context.Context, id string, quantity int) (*models.Product, error) {
	return s.ledger.Restock(ctx, id, quantity)
}

// LowStock lists the products at or below the low-stock threshold.
func (s *ProductService) LowStock(ctx context.Context) ([]models.Product, error) {
	return s.repo.LowStock(ctx, s.threshold)
}

// Threshold returns the low-stock threshold.
func (s *ProductService) Threshold() int { return s.threshold }
