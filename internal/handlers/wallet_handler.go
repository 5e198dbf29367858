package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// WalletHandler handles HTTP requests for the wallet.
type WalletHandler struct {
	service  *services.WalletService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(service *services.WalletService, logger zerolog.Logger) *WalletHandler {
	return &WalletHandler{service: service, validate: validator.New(), logger: logger}
}

// RegisterRoutes registers the wallet routes.
func (h *WalletHandler) RegisterRoutes(router fiber.Router) {
	walletRoutes := router.Group("/wallet")
	walletRoutes.Get("/", h.HandleGetWallet)
	walletRoutes.Post("/fund", h.HandleFundWallet)
}

// HandleGetWallet returns the balance and ledger of the caller.
func (h *WalletHandler) HandleGetWallet(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve wallet")
	}
	return c.JSON(summary)
}

// FundRequest names the settled payment session to credit.
type FundRequest struct {
	Reference string `json:"reference" validate:"required"`
}

// HandleFundWallet credits the wallet from a successful payment session.
func (h *WalletHandler) HandleFundWallet(c *fiber.Ctx) error {
	var req FundRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	txn, err := h.service.Fund(c.UserContext(), middleware.ActorFrom(c), req.Reference)
	if err != nil {
		return respondError(c, h.logger, err, "Wallet funding failed")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Wallet funded successfully",
		"transaction": txn,
	})
}
