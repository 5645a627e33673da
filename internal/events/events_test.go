package events_test

import (
	"context"
	"errors"
	"testing"

	"cafe/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestNew(t *testing.T) {
	e, err := events.New(events.OrderStatusChanged, "order-1", map[string]string{"id": "order-1", "status": "Preparing"})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, events.OrderStatusChanged, e.Name)
	assert.Equal(t, "order-1", e.OrderID)
	assert.False(t, e.OccurredAt.IsZero())

	var payload struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, e.Decode(&payload))
	assert.Equal(t, "Preparing", payload.Status)
}

func TestNew_Unencodable(t *testing.T) {
	_, err := events.New(events.NewOrder, "", make(chan int))
	assert.Error(t, err)
}

func TestFanout_DeliversToEverySink(t *testing.T) {
	errA := errors.New("sink a down")
	errB := errors.New("sink b down")
	failA := events.PublisherFunc(func(context.Context, events.Event) error { return errA })
	failB := events.PublisherFunc(func(context.Context, events.Event) error { return errB })
	rec := &events.Recorder{}

	f := events.NewFanout(failA, nil, rec, failB)
	assert.Equal(t, 3, f.Len())

	e, err := events.New(events.NewOrder, "order-1", struct{}{})
	require.NoError(t, err)

	err = f.Publish(context.Background(), e)
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, []string{events.NewOrder}, rec.Names(), "a failing sink must not starve the others")
}

func TestFanout_Empty(t *testing.T) {
	e, err := events.New(events.LowStock, "", struct{}{})
	require.NoError(t, err)
	assert.NoError(t, events.NewFanout().Publish(context.Background(), e))
	assert.NoError(t, events.Nop{}.Publish(context.Background(), e))
}
