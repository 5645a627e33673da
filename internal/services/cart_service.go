package services

import (
	"context"

	"cafe/internal/models"
	"cafe/internal/repositories"

	"github.com/pkg/errors"
)

// CartService is a thin stand-in for the storefront's cart. It exists so a
// cart can be filled before checkout.
type CartService struct {
	store repositories.Store
}

// NewCartService creates a new CartService.
func NewCartService(store repositories.Store) *CartService {
	return &CartService{store: store}
}

// GetCart returns the user's cart, or an empty one.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.store.Carts().GetByUserID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
	}
	return cart, err
}

// AddItem adds a product to the cart at its current catalog price.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var cart *models.Cart
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		product, err := tx.Products().GetByID(ctx, productID)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}
		cart, err = tx.Carts().AddItem(ctx, userID, productID, quantity, product.Price)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}
