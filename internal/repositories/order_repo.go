package repositories

import (
	"context"

	"cafe/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	// GetByID loads an order with its items. With resolve set, the user and
	// each item's product are loaded as well.
	GetByID(ctx context.Context, id string, resolve bool) (*models.Order, error)
	// ListByUser returns a user's orders, newest first, either the terminal
	// ones (history) or the rest (ongoing).
	ListByUser(ctx context.Context, userID string, terminal bool) ([]models.Order, error)
	All(ctx context.Context) ([]models.Order, error)
	// Transition moves the order to status if nobody changed it since it was
	// read. On success order.Version is bumped; otherwise ErrStaleVersion.
	Transition(ctx context.Context, order *models.Order, status models.OrderStatus, stockCommitted bool) error
	SetAdminLocation(ctx context.Context, id string, point *models.GeoPoint) error
}
