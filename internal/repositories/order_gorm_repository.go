package repositories

import (
	"context"
	"time"

	"cafe/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

func itemsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

func (r *GORMOrderRepository) query(ctx context.Context, resolve bool) *gorm.DB {
	q := r.db.WithContext(ctx).Preload("Items", itemsInOrder)
	if resolve {
		q = q.Preload("User").Preload("Items.Product")
	}
	return q
}

// Create stores an order together with its items.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return errors.Wrap(err, "failed to create order")
	}
	return nil
}

// GetByID retrieves an order by its ID.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string, resolve bool) (*models.Order, error) {
	var order models.Order
	if err := r.query(ctx, resolve).First(&order, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "order with ID %s", id)
	}
	return &order, nil
}

// ListByUser retrieves the history or ongoing orders of a user.
func (r *GORMOrderRepository) ListByUser(ctx context.Context, userID string, terminal bool) ([]models.Order, error) {
	cond := "user_id = ? AND status NOT IN ?"
	if terminal {
		cond = "user_id = ? AND status IN ?"
	}

	var orders []models.Order
	err := r.query(ctx, true).
		Where(cond, userID, models.TerminalStatuses).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list orders of user %s", userID)
	}
	return orders, nil
}

// All retrieves every order, newest first.
func (r *GORMOrderRepository) All(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.query(ctx, true).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, errors.Wrap(err, "failed to get all orders")
	}
	return orders, nil
}

// Transition implements OrderRepository.
func (r *GORMOrderRepository) Transition(ctx context.Context, order *models.Order, status models.OrderStatus, stockCommitted bool) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		UpdateColumns(map[string]any{
			"status":          string(status),
			"stock_committed": stockCommitted,
			"version":         order.Version + 1,
			"updated_at":      now,
		})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "failed to update status of order %s", order.ID)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrStaleVersion, "order %s at version %d", order.ID, order.Version)
	}

	order.Status = status
	order.StockCommitted = stockCommitted
	order.Version++
	order.UpdatedAt = now
	return nil
}

// SetAdminLocation overwrites the staff location of an order.
func (r *GORMOrderRepository) SetAdminLocation(ctx context.Context, id string, point *models.GeoPoint) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"admin_location": point,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "failed to update location of order %s", id)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "order with ID %s", id)
	}
	return nil
}
