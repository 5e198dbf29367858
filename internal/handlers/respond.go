package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"storefront/internal/payments"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{services.ErrForbidden, fiber.StatusForbidden},
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{payments.ErrInvalidToken, fiber.StatusUnauthorized},

	{services.ErrOrderNotFound, fiber.StatusNotFound},
	{services.ErrCustomOrderNotFound, fiber.StatusNotFound},
	{services.ErrProductNotFound, fiber.StatusNotFound},
	{services.ErrProfileNotFound, fiber.StatusNotFound},
	{services.ErrNotificationNotFound, fiber.StatusNotFound},
	{payments.ErrSessionNotFound, fiber.StatusNotFound},

	{services.ErrInvoiceAlreadySent, fiber.StatusConflict},
	{services.ErrPaymentAlreadyUsed, fiber.StatusConflict},
	{services.ErrUsernameTaken, fiber.StatusConflict},
	{services.ErrEmailTaken, fiber.StatusConflict},
	{services.ErrInsufficientStock, fiber.StatusConflict},
	{payments.ErrSessionResolved, fiber.StatusConflict},
	{payments.ErrSessionExpired, fiber.StatusGone},

	{services.ErrInsufficientFunds, fiber.StatusPaymentRequired},
	{services.ErrPaymentNotSettled, fiber.StatusPaymentRequired},
	{services.ErrPaymentMismatch, fiber.StatusPaymentRequired},

	{services.ErrInvalidTransition, fiber.StatusUnprocessableEntity},
	{services.ErrInvoiceNotAllowed, fiber.StatusUnprocessableEntity},
	{services.ErrInvoiceMissing, fiber.StatusUnprocessableEntity},

	{services.ErrInvalidStatus, fiber.StatusBadRequest},
	{services.ErrInvalidAmount, fiber.StatusBadRequest},
	{services.ErrInvalidPromoCode, fiber.StatusBadRequest},
	{services.ErrInvalidOffer, fiber.StatusBadRequest},
	{services.ErrUnsupportedCurrency, fiber.StatusBadRequest},
	{payments.ErrInvalidAmount, fiber.StatusBadRequest},
	{payments.ErrInvalidOutcome, fiber.StatusBadRequest},
}

func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return fiber.StatusInternalServerError
}

// respondError writes the error body for err. Unexpected errors are logged.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, message string) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.Path()).Msg(message)
	}
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// parseAndValidate decodes the body into v and runs its validate tags. It
// writes the error response itself and reports whether the caller may go on.
func parseAndValidate(c *fiber.Ctx, validate *validator.Validate, v any) (bool, error) {
	if err := c.BodyParser(v); err != nil {
		return false, badRequest(c, "Invalid request body", err)
	}
	if err := validate.Struct(v); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return false, badRequest(c, "Validation failed", err)
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return true, nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// listFilter reads ?status=&page=&limit= into a repository filter.
func listFilter(c *fiber.Ctx) repositories.ListFilter {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	return repositories.ListFilter{
		Status: c.Query("status"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

func pageBody(items any, total int64, filter repositories.ListFilter) fiber.Map {
	return fiber.Map{
		"items": items,
		"total": total,
		"page":  filter.Offset/filter.Limit + 1,
		"limit": filter.Limit,
	}
}
