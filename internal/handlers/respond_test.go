package handlers

import (
	"errors"
	"testing"

	"cafe/internal/services"

	"github.com/gofiber/fiber/v2"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"wrapped not found", pkgerrors.Wrap(services.ErrOrderNotFound, "lookup"), fiber.StatusNotFound, "Order not found."},
		{"short stock", &services.InsufficientStockError{ProductName: "Latte"}, fiber.StatusBadRequest, "Insufficient stock for product: Latte"},
		{"conflict", pkgerrors.Wrap(services.ErrConcurrentUpdate, "stale"), fiber.StatusConflict, "Order was modified by another request, please retry."},
		{"empty cart", services.ErrEmptyCart, fiber.StatusBadRequest, "Cart is empty"},
		{"unexpected", errors.New("connection refused"), fiber.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, message)
		})
	}
}
