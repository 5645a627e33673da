package handlers

import (
	"cafe/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler exposes the minimal cart needed to reach checkout.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/:userId", h.HandleGetCart)
	cartRoutes.Post("/:userId/items", h.HandleAddItem)
}

// HandleGetCart returns the user's cart.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.service.GetCart(c.UserContext(), c.Params("userId"))
	if err != nil {
		return respondError(c, err, nil)
	}
	return c.JSON(fiber.Map{"cart": cart})
}

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// HandleAddItem adds a product to the user's cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req addItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err)
	}

	cart, err := h.service.AddItem(c.UserContext(), c.Params("userId"), req.ProductID, req.Quantity)
	if err != nil {
		return respondError(c, err, nil)
	}
	return c.JSON(fiber.Map{
		"message": "Item added to cart",
		"cart":    cart,
	})
}
