package services

import (
	"context"
	"math"
	"strings"

	"cafe/internal/geo"
	"cafe/internal/models"
	"cafe/internal/repositories"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// CheckoutParams is what the customer sends at checkout.
type CheckoutParams struct {
	PaymentMethod string              `json:"paymentMethod" validate:"required,max=50"`
	PurchaseType  models.PurchaseType `json:"purchaseType"`
	GPSLocation   *models.GeoPoint    `json:"gpsLocation"`
	ManualAddress string              `json:"manualAddress" validate:"max=500"`
}

// OrderDraft is an order built from a cart that has not been stored yet.
type OrderDraft struct {
	CartID string
	Order  *models.Order
}

// CartSnapshotBuilder turns a live cart into an order with frozen prices.
type CartSnapshotBuilder struct {
	prepaid map[string]bool
}

// NewCartSnapshotBuilder creates a builder. Orders paid with one of
// prepaidMethods start out Paid.
func NewCartSnapshotBuilder(prepaidMethods []string) *CartSnapshotBuilder {
	b := &CartSnapshotBuilder{prepaid: make(map[string]bool, len(prepaidMethods))}
	for _, m := range prepaidMethods {
		if m = strings.TrimSpace(m); m != "" {
			b.prepaid[strings.ToLower(m)] = true
		}
	}
	return b
}

// PaymentStatusFor derives the payment status of a new order.
func (b *CartSnapshotBuilder) PaymentStatusFor(method string) models.PaymentStatus {
	if b.prepaid[strings.ToLower(strings.TrimSpace(method))] {
		return models.PaymentPaid
	}
	return models.PaymentPending
}

// BuildOrderFromCart reads the user's cart through tx and snapshots it. The
// cart is left in place; the caller deletes it in the same transaction that
// stores the order.
func (b *CartSnapshotBuilder) BuildOrderFromCart(ctx context.Context, tx repositories.Store, userID string, params CheckoutParams) (*OrderDraft, error) {
	cart, err := tx.Carts().GetByUserID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	purchaseType := params.PurchaseType
	if purchaseType == "" {
		purchaseType = models.PurchaseDelivery
	}

	order := &models.Order{
		ID:            uuid.New().String(),
		UserID:        userID,
		PurchaseType:  purchaseType,
		PaymentMethod: params.PaymentMethod,
		PaymentStatus: b.PaymentStatusFor(params.PaymentMethod),
		Status:        models.StatusPending,
	}

	switch purchaseType {
	case models.PurchaseDelivery:
		point, err := validPoint(params.GPSLocation)
		if err != nil {
			return nil, err
		}
		address := params.ManualAddress
		order.DeliveryLocation = point
		order.ManualAddress = &address
	case models.PurchaseDineIn:
		// Delivery fields mean nothing here; whatever was sent is dropped.
		order.DeliveryLocation = nil
		order.ManualAddress = nil
	default:
		return nil, ErrInvalidPurchaseType
	}

	var total float64
	order.Items = make([]models.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		if item.Quantity <= 0 {
			return nil, errors.Wrapf(ErrInvalidQuantity, "cart item for product %s", item.ProductID)
		}
		order.Items = append(order.Items, models.OrderItem{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
		total += item.Price * float64(item.Quantity)
	}
	order.TotalAmount = math.Round(total*100) / 100

	return &OrderDraft{CartID: cart.ID, Order: order}, nil
}

// validPoint checks a GeoJSON point and returns a copy of it.
func validPoint(p *models.GeoPoint) (*models.GeoPoint, error) {
	if p == nil || p.Type != models.GeoTypePoint {
		return nil, ErrInvalidLocation
	}
	if err := geo.ValidateLonLat(p.Coordinates); err != nil {
		return nil, errors.Wrap(ErrInvalidLocation, err.Error())
	}
	return models.NewPoint(p.Coordinates[0], p.Coordinates[1]), nil
}
