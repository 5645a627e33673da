package handlers

import (
	"cafe/internal/models"
	"cafe/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	tracker  *services.LocationTracker
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, tracker *services.LocationTracker) *OrderHandler {
	return &OrderHandler{
		service:  service,
		tracker:  tracker,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app. The fixed
// paths come before /:orderId so they are not taken for an id.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/checkout/:userId", h.HandleCheckout)
	orderRoutes.Get("/history/:userId", h.HandleHistory)
	orderRoutes.Get("/ongoing/:userId", h.HandleOngoing)
	orderRoutes.Put("/cancel/:orderId", h.HandleCancel)
	orderRoutes.Put("/update-location/:orderId", h.HandleUpdateLocation)
	orderRoutes.Put("/update-status/:orderId", h.HandleUpdateStatus)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:orderId", h.HandleGetOrderByID)
}

// HandleCheckout places an order from the user's cart.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	var params services.CheckoutParams
	if err := c.BodyParser(&params); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(params); err != nil {
		return badRequest(c, err)
	}

	order, err := h.service.PlaceOrder(c.UserContext(), c.Params("userId"), params)
	if err != nil {
		return respondError(c, err, nil)
	}
	return c.JSON(fiber.Map{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// HandleHistory lists the user's delivered and canceled orders.
func (h *OrderHandler) HandleHistory(c *fiber.Ctx) error {
	orders, err := h.service.History(c.UserContext(), c.Params("userId"))
	if err != nil {
		return respondError(c, err, nil)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// HandleOngoing lists the user's orders that are still in progress.
func (h *OrderHandler) HandleOngoing(c *fiber.Ctx) error {
	orders, err := h.service.Ongoing(c.UserContext(), c.Params("userId"))
	if err != nil {
		return respondError(c, err, nil)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// HandleCancel cancels a Pending or Preparing order.
func (h *OrderHandler) HandleCancel(c *fiber.Ctx) error {
	order, err := h.service.Cancel(c.UserContext(), c.Params("orderId"))
	if errors.Is(err, services.ErrInvalidTransition) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Only orders in 'Preparing' or 'Pending' stage can be canceled.",
		})
	}
	if err != nil {
		return respondError(c, err, fiber.Map{"success": false})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Order canceled successfully.",
		"order":   order,
	})
}

type updateLocationRequest struct {
	AdminLocation *struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"adminLocation"`
}

// HandleUpdateLocation stores the live position of the staff member.
func (h *OrderHandler) HandleUpdateLocation(c *fiber.Ctx) error {
	var req updateLocationRequest
	// A body that does not parse counts as missing coordinates, so an unknown
	// order still answers 404.
	var coords []float64
	if err := c.BodyParser(&req); err == nil && req.AdminLocation != nil {
		coords = req.AdminLocation.Coordinates
	}

	order, err := h.tracker.UpdateAdminLocation(c.UserContext(), c.Params("orderId"), coords)
	if err != nil {
		return respondError(c, err, nil)
	}
	return c.JSON(fiber.Map{
		"message": "Admin location updated successfully",
		"order":   order,
	})
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

// HandleUpdateStatus moves an order to a new status on behalf of staff.
func (h *OrderHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err)
	}

	order, err := h.service.SetStatus(c.UserContext(), c.Params("orderId"), req.Status)
	if err != nil {
		return respondError(c, err, nil)
	}
	return c.JSON(fiber.Map{
		"message": "Order status updated successfully",
		"order":   order,
	})
}

// HandleGetOrders retrieves all orders for the staff view.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.All(c.UserContext())
	if err != nil {
		return respondError(c, err, nil)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.ByID(c.UserContext(), c.Params("orderId"))
	if err != nil {
		return respondError(c, err, nil)
	}
	return c.JSON(fiber.Map{"order": order})
}
