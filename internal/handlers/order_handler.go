package handlers

import (
	"fmt"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service   *services.OrderService
	lifecycle *services.LifecycleService
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, lifecycle *services.LifecycleService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service:   service,
		lifecycle: lifecycle,
		validate:  validator.New(),
		logger:    logger,
	}
}

// RegisterRoutes registers the customer order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Post("/quote", h.HandleQuoteOrder)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
}

// RegisterAdminRoutes registers the order management routes.
func (h *OrderHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/orders", h.HandleListAllOrders)
	router.Patch("/orders/:id/status", h.HandleUpdateOrderStatus)
	router.Patch("/order-status", h.HandleUpdateAnyOrderStatus)
}

// HandleGetOrders returns the caller's orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListMyOrders(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.UserContext(), middleware.ActorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, fmt.Sprintf("Could not retrieve order %s", c.Params("id")))
	}
	return c.JSON(order)
}

// HandleQuoteOrder prices a checkout request without placing it.
func (h *OrderHandler) HandleQuoteOrder(c *fiber.Ctx) error {
	var input services.CreateOrderInput
	if ok, err := parseAndValidate(c, h.validate, &input); !ok {
		return err
	}
	quote, err := h.service.Quote(c.UserContext(), middleware.ActorFrom(c), input)
	if err != nil {
		return respondError(c, h.logger, err, "Could not price order")
	}
	return c.JSON(quote)
}

// HandleCreateOrder creates a new order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var input services.CreateOrderInput
	if ok, err := parseAndValidate(c, h.validate, &input); !ok {
		return err
	}
	order, err := h.service.CreateOrder(c.UserContext(), middleware.ActorFrom(c), input)
	if err != nil {
		return respondError(c, h.logger, err, "Could not create order")
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleListAllOrders returns a page of all orders.
func (h *OrderHandler) HandleListAllOrders(c *fiber.Ctx) error {
	filter := listFilter(c)
	orders, total, err := h.service.ListOrders(c.UserContext(), middleware.ActorFrom(c), filter)
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve orders")
	}
	return c.JSON(pageBody(orders, total, filter))
}

// StatusUpdateRequest is the body of status update requests.
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req StatusUpdateRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	orderID := c.Params("id")
	order, err := h.lifecycle.UpdateOrderStatus(c.UserContext(), middleware.ActorFrom(c), orderID, models.OrderStatus(req.Status))
	if err != nil {
		return respondError(c, h.logger, err, fmt.Sprintf("Could not update status of order %s", orderID))
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s status is %s", orderID, order.Status),
		"order":   order,
	})
}

// AnyStatusUpdateRequest addresses an order of either kind.
type AnyStatusUpdateRequest struct {
	Order  models.OrderRef `json:"order"`
	Status string          `json:"status" validate:"required"`
}

// HandleUpdateAnyOrderStatus updates the status of a standard or custom order.
func (h *OrderHandler) HandleUpdateAnyOrderStatus(c *fiber.Ctx) error {
	var req AnyStatusUpdateRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	order, err := h.lifecycle.UpdateStatus(c.UserContext(), middleware.ActorFrom(c), req.Order, req.Status)
	if err != nil {
		return respondError(c, h.logger, err, fmt.Sprintf("Could not update status of %s order %s", req.Order.Kind, req.Order.ID))
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s status is %s", order.OrderID(), order.StatusValue()),
		"kind":    order.Kind(),
		"order":   order,
	})
}
