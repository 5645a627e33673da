package repositories

import (
	"context"

	"cafe/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	// AdjustStock adds delta to the product's stock in one statement. It
	// fails with ErrStockUnavailable instead of letting stock go negative.
	AdjustStock(ctx context.Context, id string, delta int) error
	// LowStock returns products whose stock is at or below threshold.
	LowStock(ctx context.Context, threshold int) ([]models.Product, error)
}
