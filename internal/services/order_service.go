package services

import (
	"context"

	"cafe/internal/events"
	"cafe/internal/models"
	"cafe/internal/repositories"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// StatusChange is the payload of a routine order-status-changed event.
type StatusChange struct {
	ID     string             `json:"id"`
	Status models.OrderStatus `json:"status"`
}

// OrderService owns the order lifecycle: checkout, cancellation, staff status
// updates and the queries behind the customer and staff views.
type OrderService struct {
	store     repositories.Store
	ledger    *InventoryLedger
	builder   *CartSnapshotBuilder
	publisher events.Publisher
	locks     keyedMutex
}

// NewOrderService creates a new OrderService. A nil publisher drops events.
func NewOrderService(store repositories.Store, ledger *InventoryLedger, builder *CartSnapshotBuilder, publisher events.Publisher) *OrderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &OrderService{
		store:     store,
		ledger:    ledger,
		builder:   builder,
		publisher: publisher,
	}
}

// PlaceOrder turns the user's cart into a Pending order. Storing the order and
// deleting the cart happen in one transaction.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, params CheckoutParams) (*models.Order, error) {
	var orderID string
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		draft, err := s.builder.BuildOrderFromCart(ctx, tx, userID, params)
		if err != nil {
			return err
		}
		if err := tx.Orders().Create(ctx, draft.Order); err != nil {
			return err
		}
		if err := tx.Carts().Delete(ctx, draft.CartID); err != nil {
			// Someone else checked this cart out first.
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrEmptyCart
			}
			return err
		}
		orderID = draft.Order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.ByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"orderId":      order.ID,
		"userId":       userID,
		"purchaseType": order.PurchaseType,
		"total":        order.TotalAmount,
	}).Info("Order placed")

	s.publish(ctx, events.NewOrder, order.ID, order)
	return order, nil
}

// Cancel cancels an order that is still Pending or Preparing.
func (s *OrderService) Cancel(ctx context.Context, orderID string) (*models.Order, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.Cancelable() {
		return nil, errors.Wrapf(ErrInvalidTransition, "order %s is %s", orderID, order.Status)
	}

	if err := s.store.Orders().Transition(ctx, order, models.StatusCanceled, order.StockCommitted); err != nil {
		return nil, transitionError(err)
	}

	resolved, err := s.ByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	log.WithField("orderId", orderID).Info("Order canceled")

	s.publish(ctx, events.OrderCanceled, orderID, resolved)
	s.publish(ctx, events.OrderStatusChanged, orderID, resolved)
	return resolved, nil
}

// SetStatus moves an order to status on behalf of staff. Entering the first
// fulfillment status takes the order's items out of stock; if any product is
// short the status stays as it was and no stock changes.
func (s *OrderService) SetStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, errors.Wrapf(ErrInvalidStatus, "%q", status)
	}
	if status == models.StatusCanceled {
		return s.Cancel(ctx, orderID)
	}

	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return s.ByID(ctx, orderID)
	}
	if !models.CanTransition(order.Status, status) {
		return nil, errors.Wrapf(ErrInvalidTransition, "order %s from %s to %s", orderID, order.Status, status)
	}

	commit := status.IsFulfillment() && !order.StockCommitted
	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		if commit {
			if err := s.ledger.decrement(ctx, tx, order.Items); err != nil {
				return err
			}
		}
		return tx.Orders().Transition(ctx, order, status, order.StockCommitted || commit)
	})
	if err != nil {
		return nil, transitionError(err)
	}

	log.WithFields(log.Fields{
		"orderId":        orderID,
		"status":         status,
		"stockCommitted": commit,
	}).Info("Order status updated")

	s.publish(ctx, events.OrderStatusChanged, orderID, StatusChange{ID: orderID, Status: status})
	return s.ByID(ctx, orderID)
}

// History returns the user's delivered and canceled orders, newest first.
func (s *OrderService) History(ctx context.Context, userID string) ([]models.Order, error) {
	return s.store.Orders().ListByUser(ctx, userID, true)
}

// Ongoing returns the user's orders that are still in progress, newest first.
func (s *OrderService) Ongoing(ctx context.Context, userID string) ([]models.Order, error) {
	return s.store.Orders().ListByUser(ctx, userID, false)
}

// All returns every order for the staff view.
func (s *OrderService) All(ctx context.Context) ([]models.Order, error) {
	return s.store.Orders().All(ctx)
}

// ByID returns one order with its user and products resolved.
func (s *OrderService) ByID(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.store.Orders().GetByID(ctx, orderID, true)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

func (s *OrderService) load(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.store.Orders().GetByID(ctx, orderID, false)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

func (s *OrderService) publish(ctx context.Context, name, orderID string, data any) {
	publish(ctx, s.publisher, name, orderID, data)
}

func publish(ctx context.Context, p events.Publisher, name, orderID string, data any) {
	e, err := events.New(name, orderID, data)
	if err == nil {
		err = p.Publish(ctx, e)
	}
	if err != nil {
		log.WithFields(log.Fields{
			"event":   name,
			"orderId": orderID,
		}).WithError(err).Error("Failed to publish event")
	}
}

func transitionError(err error) error {
	if errors.Is(err, repositories.ErrStaleVersion) {
		return errors.Wrap(ErrConcurrentUpdate, err.Error())
	}
	return err
}
