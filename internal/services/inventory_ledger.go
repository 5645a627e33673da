package services

import (
	"context"
	"sort"

	"cafe/internal/models"
	"cafe/internal/repositories"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// InventoryLedger is the only writer of product stock. Every change goes
// through ProductRepository.AdjustStock so concurrent writers cannot lose
// updates or drive stock below zero.
type InventoryLedger struct {
	store repositories.Store
}

// NewInventoryLedger creates a new InventoryLedger.
func NewInventoryLedger(store repositories.Store) *InventoryLedger {
	return &InventoryLedger{store: store}
}

// DecrementForFulfillment takes the items' quantities out of stock. Either
// every product is decremented or none is.
func (l *InventoryLedger) DecrementForFulfillment(ctx context.Context, items []models.OrderItem) error {
	return l.store.WithTx(ctx, func(tx repositories.Store) error {
		return l.decrement(ctx, tx, items)
	})
}

// decrement runs inside the caller's transaction so the stock change commits
// or rolls back with the status change that triggered it.
func (l *InventoryLedger) decrement(ctx context.Context, tx repositories.Store, items []models.OrderItem) error {
	want := make(map[string]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return errors.Wrapf(ErrInvalidQuantity, "product %s has quantity %d", item.ProductID, item.Quantity)
		}
		want[item.ProductID] += item.Quantity
	}

	// A fixed order keeps two fulfillments sharing products from deadlocking.
	ids := make([]string, 0, len(want))
	for id := range want {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		err := tx.Products().AdjustStock(ctx, id, -want[id])
		switch {
		case err == nil:
		case errors.Is(err, repositories.ErrNotFound):
			log.WithFields(log.Fields{
				"productId": id,
				"quantity":  want[id],
			}).Warn("Product no longer exists, skipping stock decrement")
		case errors.Is(err, repositories.ErrStockUnavailable):
			product, getErr := tx.Products().GetByID(ctx, id)
			if getErr != nil {
				return errors.Wrap(getErr, "failed to read product after stock check")
			}
			return &InsufficientStockError{
				ProductID:   id,
				ProductName: product.Name,
				Requested:   want[id],
				Available:   product.Stock,
			}
		default:
			return err
		}
	}
	return nil
}

// Restock adds quantity units to a product's stock.
func (l *InventoryLedger) Restock(ctx context.Context, productID string, quantity int) (*models.Product, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if err := l.store.Products().AdjustStock(ctx, productID, quantity); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	product, err := l.store.Products().GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"productId": productID,
		"added":     quantity,
		"stock":     product.Stock,
	}).Info("Product restocked")
	return product, nil
}
