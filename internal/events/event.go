package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Names of the events pushed to the admin console.
const (
	NewOrder             = "new-order"
	OrderCanceled        = "order-canceled"
	OrderStatusChanged   = "order-status-changed"
	OrderLocationUpdated = "order-location-updated"
	LowStock             = "low-stock"
)

// Event is the envelope every sink receives.
type Event struct {
	ID         string          `json:"id"`
	Name       string          `json:"event"`
	OrderID    string          `json:"orderId,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// New wraps data into an event envelope.
func New(name, orderID string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, errors.Wrapf(err, "encode %s payload", name)
	}
	return Event{
		ID:         uuid.New().String(),
		Name:       name,
		OrderID:    orderID,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	return errors.Wrapf(json.Unmarshal(e.Data, v), "decode %s payload", e.Name)
}

// Publisher delivers events. Delivery is best effort: callers log a failed
// Publish and carry on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e Event) error

func (f PublisherFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
