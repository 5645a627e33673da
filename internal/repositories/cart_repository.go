package repositories

import (
	"context"

	"cafe/internal/models"
)

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Cart, error)
	// AddItem puts quantity units of a product into the user's cart, creating
	// the cart on first use. The price is kept from the first add.
	AddItem(ctx context.Context, userID, productID string, quantity int, price float64) (*models.Cart, error)
	// Delete removes a cart and its items. A cart that is already gone yields
	// ErrNotFound, so a cart is consumed at most once.
	Delete(ctx context.Context, cartID string) error
}
