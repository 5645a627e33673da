package repositories

import (
	"context"

	"cafe/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetByUserID retrieves the live cart of a user with its items.
func (r *GORMCartRepository) GetByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", itemsInOrder).
		First(&cart, "user_id = ?", userID).Error
	if err != nil {
		return nil, notFound(err, "cart of user %s", userID)
	}
	return &cart, nil
}

// AddItem implements CartRepository.
func (r *GORMCartRepository) AddItem(ctx context.Context, userID, productID string, quantity int, price float64) (*models.Cart, error) {
	db := r.db.WithContext(ctx)

	var cart models.Cart
	err := db.Where(models.Cart{UserID: userID}).
		Attrs(models.Cart{ID: uuid.New().String()}).
		FirstOrCreate(&cart).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open cart of user %s", userID)
	}

	var item models.CartItem
	err = db.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity, Price: price}
		err = db.Create(&item).Error
	case err == nil:
		err = db.Model(&item).UpdateColumn("quantity", gorm.Expr("quantity + ?", quantity)).Error
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to add product %s to cart", productID)
	}

	return r.GetByUserID(ctx, userID)
}

// Delete implements CartRepository.
func (r *GORMCartRepository) Delete(ctx context.Context, cartID string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return errors.Wrapf(err, "failed to delete items of cart %s", cartID)
	}
	res := db.Where("id = ?", cartID).Delete(&models.Cart{})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "failed to delete cart %s", cartID)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "cart %s", cartID)
	}
	return nil
}
