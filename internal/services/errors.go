package services

import (
	"errors"
	"fmt"

	"storefront/internal/currency"
	"storefront/internal/repositories"
)

var (
	ErrForbidden            = errors.New("forbidden")
	ErrOrderNotFound        = errors.New("order not found")
	ErrCustomOrderNotFound  = errors.New("custom order not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrInvoiceAlreadySent   = errors.New("invoice already sent")
	ErrInvoiceNotAllowed    = errors.New("invoice not allowed for this order status")
	ErrInvoiceMissing       = errors.New("custom order has no open invoice")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidPromoCode     = errors.New("invalid or expired promo code")
	ErrInvalidOffer         = errors.New("invalid special offer")
	ErrPaymentNotSettled    = errors.New("payment has not succeeded")
	ErrPaymentMismatch      = errors.New("payment does not match")
	ErrPaymentAlreadyUsed   = errors.New("payment reference already used")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid credentials")

	ErrInsufficientFunds   = repositories.ErrInsufficientFunds
	ErrInsufficientStock   = repositories.ErrInsufficientStock
	ErrUnsupportedCurrency = currency.ErrUnsupportedCurrency
)

// notFound replaces a repository not-found error with the service sentinel.
func notFound(err, sentinel error, id string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %s", sentinel, id)
	}
	return err
}
