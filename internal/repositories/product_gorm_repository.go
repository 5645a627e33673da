package repositories

import (
	"context"
	"time"

	"cafe/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products ordered by name.
func (r *GORMProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("name").Find(&products).Error; err != nil {
		return nil, errors.Wrap(err, "failed to get all products")
	}
	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "product with ID %s", id)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return errors.Wrap(err, "failed to create product")
	}
	return nil
}

// AdjustStock applies delta only when the result stays non-negative, so two
// writers can never both spend the same units.
func (r *GORMProductRepository) AdjustStock(ctx context.Context, id string, delta int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		UpdateColumns(map[string]any{
			"stock":      gorm.Expr("stock + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "failed to adjust stock of product %s", id)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	// Nothing matched: tell a missing product apart from a short one.
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return errors.Wrapf(err, "failed to look up product %s", id)
	}
	if count == 0 {
		return errors.Wrapf(ErrNotFound, "product with ID %s", id)
	}
	return errors.Wrapf(ErrStockUnavailable, "product %s by %d", id, delta)
}

// LowStock returns products at or below threshold, lowest stock first.
func (r *GORMProductRepository) LowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("stock <= ?", threshold).
		Order("stock, name").
		Find(&products).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get low stock products")
	}
	return products, nil
}
