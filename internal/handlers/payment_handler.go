package handlers

import (
	"crypto/subtle"
	"errors"
	"strings"

	"storefront/internal/middleware"
	"storefront/internal/payments"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// PaymentHandler exposes payment sessions and the hosted checkout page.
type PaymentHandler struct {
	service  *services.PaymentService
	bridge   *payments.Bridge
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService, bridge *payments.Bridge, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:  service,
		bridge:   bridge,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterRoutes registers the authenticated payment routes.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/payments/sessions", h.HandleStart)
	router.Get("/payments/sessions/:reference", h.HandleGetSession)
}

// RegisterPublicRoutes registers the routes the embedded web view calls.
// They are authorised by the session token instead of a bearer token.
func (h *PaymentHandler) RegisterPublicRoutes(router fiber.Router) {
	router.Get("/payments/sessions/:reference/checkout", h.HandleCheckout)
	router.Post("/payments/sessions/:reference/result", h.HandleResult)
}

// HandleStart opens a payment session and returns the checkout setup.
func (h *PaymentHandler) HandleStart(c *fiber.Ctx) error {
	var input services.StartPaymentInput
	if ok, err := parseAndValidate(c, h.validate, &input); !ok {
		return err
	}
	session, err := h.service.Start(c.UserContext(), middleware.ActorFrom(c), input)
	if err != nil {
		return respondError(c, h.logger, err, "Could not start payment")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session":      session,
		"setup":        h.bridge.Setup(session),
		"checkout_url": strings.TrimSuffix(c.Path(), "/") + "/" + session.Reference + "/checkout?token=" + session.Token,
	})
}

// HandleGetSession returns a session, resolving it first if it expired.
func (h *PaymentHandler) HandleGetSession(c *fiber.Ctx) error {
	session, err := h.service.Session(c.UserContext(), middleware.ActorFrom(c), c.Params("reference"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve payment session")
	}
	return c.JSON(session)
}

// HandleCheckout renders the hosted checkout page.
func (h *PaymentHandler) HandleCheckout(c *fiber.Ctx) error {
	session, err := h.bridge.Get(c.UserContext(), c.Params("reference"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not load payment session")
	}
	if subtle.ConstantTimeCompare([]byte(session.Token), []byte(c.Query("token"))) != 1 {
		return respondError(c, h.logger, payments.ErrInvalidToken, "Could not load payment session")
	}
	if session.Resolved() {
		return respondError(c, h.logger, payments.ErrSessionResolved, "Payment session is closed")
	}

	resultURL := strings.TrimSuffix(c.Path(), "/checkout") + "/result"
	page, err := h.bridge.RenderCheckout(session, resultURL)
	if err != nil {
		return respondError(c, h.logger, err, "Could not render checkout")
	}
	c.Type("html")
	return c.Send(page)
}

// ResultRequest is the single result posted by the checkout page.
type ResultRequest struct {
	Token   string           `json:"token" validate:"required"`
	Outcome payments.Outcome `json:"outcome"`
}

// HandleResult resolves the session with the posted result.
func (h *PaymentHandler) HandleResult(c *fiber.Ctx) error {
	var req ResultRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	session, err := h.bridge.Resolve(c.UserContext(), c.Params("reference"), req.Token, req.Outcome)
	if session != nil && (errors.Is(err, payments.ErrSessionResolved) || errors.Is(err, payments.ErrSessionExpired)) {
		// The page already closed; tell it which outcome won.
		return c.Status(statusFor(err)).JSON(fiber.Map{
			"message": "Payment session is closed",
			"error":   err.Error(),
			"outcome": session.Outcome,
		})
	}
	if err != nil {
		return respondError(c, h.logger, err, "Could not record payment result")
	}
	return c.JSON(fiber.Map{
		"reference": session.Reference,
		"outcome":   session.Outcome,
	})
}
