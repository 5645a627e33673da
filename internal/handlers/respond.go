package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"cafe/internal/services"
)

// clientErrors maps business errors to the status and message the client
// sees. Anything not listed is a server fault.
var clientErrors = []struct {
	target  error
	status  int
	message string
}{
	{services.ErrEmptyCart, fiber.StatusBadRequest, "Cart is empty"},
	{services.ErrInvalidLocation, fiber.StatusBadRequest, "Invalid GPS location format. Must be [longitude, latitude]."},
	{services.ErrInvalidPurchaseType, fiber.StatusBadRequest, "Purchase type must be 'Delivery' or 'Dine In'."},
	{services.ErrInvalidStatus, fiber.StatusBadRequest, "Invalid order status."},
	{services.ErrInvalidTransition, fiber.StatusBadRequest, "Order cannot move to the requested status."},
	{services.ErrInvalidQuantity, fiber.StatusBadRequest, "Quantity must be a positive number."},
	{services.ErrOrderNotFound, fiber.StatusNotFound, "Order not found."},
	{services.ErrProductNotFound, fiber.StatusNotFound, "Product not found."},
	{services.ErrConcurrentUpdate, fiber.StatusConflict, "Order was modified by another request, please retry."},
	{services.ErrUnauthorized, fiber.StatusUnauthorized, "Unauthorized"},
}

// classify returns the response status and message for err.
func classify(err error) (int, string) {
	var short *services.InsufficientStockError
	if errors.As(err, &short) {
		return fiber.StatusBadRequest, "Insufficient stock for product: " + short.ProductName
	}
	for _, ce := range clientErrors {
		if errors.Is(err, ce.target) {
			return ce.status, ce.message
		}
	}
	return fiber.StatusInternalServerError, "Internal server error"
}

// respondError writes err to the client. Server faults are logged in full
// and reported with a generic message.
func respondError(c *fiber.Ctx, err error, extra fiber.Map) error {
	status, message := classify(err)
	entry := log.WithFields(log.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"status": status,
	}).WithError(err)
	if status >= fiber.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	body := fiber.Map{"message": message}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, err error) error {
	body := fiber.Map{"message": "Invalid request body"}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]fiber.Map, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fiber.Map{"field": fe.Field(), "rule": fe.Tag()})
		}
		body["errors"] = fields
	} else {
		body["error"] = err.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}
