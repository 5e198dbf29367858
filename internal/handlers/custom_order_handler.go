package handlers

import (
	"fmt"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CustomOrderHandler handles HTTP requests for custom orders.
type CustomOrderHandler struct {
	service   *services.CustomOrderService
	lifecycle *services.LifecycleService
	invoices  *services.InvoiceService
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewCustomOrderHandler creates a new CustomOrderHandler.
func NewCustomOrderHandler(service *services.CustomOrderService, lifecycle *services.LifecycleService,
	invoices *services.InvoiceService, logger zerolog.Logger) *CustomOrderHandler {
	return &CustomOrderHandler{
		service:   service,
		lifecycle: lifecycle,
		invoices:  invoices,
		validate:  validator.New(),
		logger:    logger,
	}
}

// RegisterRoutes registers the customer custom order routes.
func (h *CustomOrderHandler) RegisterRoutes(router fiber.Router) {
	routes := router.Group("/custom-orders")
	routes.Get("/", h.HandleGetCustomOrders)
	routes.Post("/", h.HandleCreateCustomOrder)
	routes.Get("/:id", h.HandleGetCustomOrder)
	routes.Post("/:id/accept", h.HandleAccept)
	routes.Post("/:id/pay", h.HandlePay)
}

// RegisterAdminRoutes registers the custom order management routes.
func (h *CustomOrderHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/custom-orders", h.HandleListAll)
	router.Patch("/custom-orders/:id/status", h.HandleUpdateStatus)
	router.Post("/custom-orders/:id/invoice", h.HandleSendInvoice)
}

// HandleGetCustomOrders returns the caller's custom orders.
func (h *CustomOrderHandler) HandleGetCustomOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListMine(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve custom orders")
	}
	return c.JSON(orders)
}

// HandleCreateCustomOrder files a custom order request.
func (h *CustomOrderHandler) HandleCreateCustomOrder(c *fiber.Ctx) error {
	var input services.CreateCustomOrderInput
	if ok, err := parseAndValidate(c, h.validate, &input); !ok {
		return err
	}
	order, err := h.service.Create(c.UserContext(), middleware.ActorFrom(c), input)
	if err != nil {
		return respondError(c, h.logger, err, "Could not create custom order")
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetCustomOrder returns one custom order with its invoice.
func (h *CustomOrderHandler) HandleGetCustomOrder(c *fiber.Ctx) error {
	order, err := h.service.Get(c.UserContext(), middleware.ActorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve custom order")
	}
	return c.JSON(order)
}

// HandleAccept accepts the quote of a custom order.
func (h *CustomOrderHandler) HandleAccept(c *fiber.Ctx) error {
	order, err := h.service.Accept(c.UserContext(), middleware.ActorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not accept quote")
	}
	return c.JSON(order)
}

// HandlePay pays the invoice of a custom order from the wallet.
func (h *CustomOrderHandler) HandlePay(c *fiber.Ctx) error {
	order, err := h.service.Pay(c.UserContext(), middleware.ActorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not pay invoice")
	}
	return c.JSON(order)
}

// HandleListAll returns a page of all custom orders.
func (h *CustomOrderHandler) HandleListAll(c *fiber.Ctx) error {
	filter := listFilter(c)
	orders, total, err := h.service.List(c.UserContext(), middleware.ActorFrom(c), filter)
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve custom orders")
	}
	return c.JSON(pageBody(orders, total, filter))
}

// HandleUpdateStatus updates the status of a custom order.
func (h *CustomOrderHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	var req StatusUpdateRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	id := c.Params("id")
	order, err := h.lifecycle.UpdateCustomOrderStatus(c.UserContext(), middleware.ActorFrom(c), id, models.CustomOrderStatus(req.Status))
	if err != nil {
		return respondError(c, h.logger, err, fmt.Sprintf("Could not update status of custom order %s", id))
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Custom order %s status is %s", id, order.Status),
		"order":   order,
	})
}

// InvoiceRequest is the body of a send invoice request. Amount is in the
// custom order's payment currency.
type InvoiceRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"omitempty,max=1000"`
}

// HandleSendInvoice issues the invoice of a custom order.
func (h *CustomOrderHandler) HandleSendInvoice(c *fiber.Ctx) error {
	var req InvoiceRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	id := c.Params("id")
	invoice, err := h.invoices.SendInvoice(c.UserContext(), middleware.ActorFrom(c), id, req.Amount, req.Description)
	if err != nil {
		return respondError(c, h.logger, err, fmt.Sprintf("Invoice for custom order %s was not sent", id))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Invoice sent successfully",
		"invoice": invoice,
	})
}
