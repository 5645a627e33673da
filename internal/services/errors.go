package services

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidLocation     = errors.New("invalid GPS location, must be [longitude, latitude]")
	ErrInvalidPurchaseType = errors.New("purchase type must be Delivery or Dine In")
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrOrderNotFound       = errors.New("order not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrInvalidQuantity     = errors.New("quantity must be a positive number")
	ErrConcurrentUpdate    = errors.New("order was modified by another request")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrUnauthorized        = errors.New("unauthorized")
)

// InsufficientStockError names the product that stopped a fulfillment.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product: %s", e.ProductName)
}

// Is makes errors.Is(err, ErrInsufficientStock) hold.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
