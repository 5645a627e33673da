package handlers

import (
	"cafe/internal/middleware"
	"cafe/internal/models"
	"cafe/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler serves the catalog reads and stock tools of the admin
// console.
type ProductHandler struct {
	service  *services.ProductService
	auth     *services.AuthService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, auth *services.AuthService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		auth:     auth,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/low-stock", h.HandleLowStock)
	productRoutes.Get("/:id", h.HandleGetProductByID)

	admin := []fiber.Handler{middleware.AuthRequired(h.auth), middleware.AdminOnly()}
	productRoutes.Post("/", append(admin, h.HandleCreateProduct)...)
	productRoutes.Put("/restock/:id", append(admin, h.HandleRestock)...)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return respondError(c, err, nil)
	}
	return c.JSON(fiber.Map{"products": products})
}

// HandleLowStock lists products at or below the low-stock threshold.
func (h *ProductHandler) HandleLowStock(c *fiber.Ctx) error {
	products, err := h.service.LowStock(c.UserContext())
	if err != nil {
		return respondError(c, err, nil)
	}
	return c.JSON(fiber.Map{
		"threshold": h.service.Threshold(),
		"products":  products,
	})
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, nil)
	}
	return c.JSON(fiber.Map{"product": product})
}

// HandleCreateProduct adds a product to the catalog.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(product); err != nil {
		return badRequest(c, err)
	}

	if err := h.service.CreateProduct(c.UserContext(), &product); err != nil {
		return respondError(c, err, nil)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"product": product,
	})
}

type restockRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// HandleRestock adds units to a product's stock.
func (h *ProductHandler) HandleRestock(c *fiber.Ctx) error {
	var req restockRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, err)
	}

	product, err := h.service.Restock(c.UserContext(), c.Params("id"), req.Quantity)
	if err != nil {
		return respondError(c, err, nil)
	}
	return c.JSON(fiber.Map{
		"message": "Product restocked successfully",
		"product": product,
	})
}
