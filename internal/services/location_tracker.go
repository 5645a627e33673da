package services

import (
	"context"
	"math"

	"cafe/internal/events"
	"cafe/internal/geo"
	"cafe/internal/models"
	"cafe/internal/repositories"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// LocationUpdate is the payload of an order-location-updated event.
type LocationUpdate struct {
	ID            string           `json:"id"`
	AdminLocation *models.GeoPoint `json:"adminLocation"`
	DistanceKm    *float64         `json:"distanceKm,omitempty"`
}

// LocationTracker stores the live position of the staff member handling an
// order.
type LocationTracker struct {
	store     repositories.Store
	publisher events.Publisher
}

// NewLocationTracker creates a new LocationTracker. A nil publisher drops
// events.
func NewLocationTracker(store repositories.Store, publisher events.Publisher) *LocationTracker {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &LocationTracker{store: store, publisher: publisher}
}

// UpdateAdminLocation overwrites the order's admin location with coords, given
// as [longitude, latitude]. Any order status is accepted.
func (t *LocationTracker) UpdateAdminLocation(ctx context.Context, orderID string, coords []float64) (*models.Order, error) {
	order, err := t.store.Orders().GetByID(ctx, orderID, false)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := geo.ValidateLonLat(coords); err != nil {
		return nil, errors.Wrap(ErrInvalidLocation, err.Error())
	}
	point := models.NewPoint(coords[0], coords[1])

	if err := t.store.Orders().SetAdminLocation(ctx, orderID, point); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	update := LocationUpdate{ID: orderID, AdminLocation: point}
	if order.DeliveryLocation != nil && geo.ValidateLonLat(order.DeliveryLocation.Coordinates) == nil {
		d := geo.HaversineKm(point.Lon(), point.Lat(), order.DeliveryLocation.Lon(), order.DeliveryLocation.Lat())
		d = math.Round(d*1000) / 1000
		update.DistanceKm = &d
	}
	log.WithFields(log.Fields{
		"orderId": orderID,
		"lon":     point.Lon(),
		"lat":     point.Lat(),
	}).Debug("Admin location updated")

	publish(ctx, t.publisher, events.OrderLocationUpdated, orderID, update)

	resolved, err := t.store.Orders().GetByID(ctx, orderID, true)
	if err != nil {
		return nil, err
	}
	return resolved, nil
}
