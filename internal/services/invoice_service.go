package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

const EventCustomOrderInvoiced = "custom_order.invoiced"

// InvoiceService issues quotations for custom orders.
type InvoiceService struct {
	deps Deps
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(deps Deps) *InvoiceService {
	return &InvoiceService{deps: deps}
}

// SendInvoice issues the single invoice of a custom order. amount is given
// in the order's payment currency and stored alongside its base currency
// equivalent. The order moves to quoted and its owner is notified.
func (s *InvoiceService) SendInvoice(ctx context.Context, actor models.Actor, customOrderID string, amount decimal.Decimal, description string) (*models.Invoice, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var (
		invoice *models.Invoice
		note    *models.Notification
	)
	err := s.deps.sideEffects(ctx, func(repos repositories.Repositories) error {
		order, err := repos.CustomOrders.GetByID(ctx, customOrderID)
		if err != nil {
			return notFound(err, ErrCustomOrderNotFound, customOrderID)
		}
		if !order.Status.AcceptsInvoice() {
			return fmt.Errorf("%w: %s", ErrInvoiceNotAllowed, order.Status)
		}
		if order.InvoiceSent || order.Invoice != nil {
			return ErrInvoiceAlreadySent
		}

		code := order.PaymentCurrency
		if code == "" {
			code = s.deps.Formatter.Base()
		}
		base, err := s.deps.Formatter.ConvertToBase(amount, code)
		if err != nil {
			return err
		}

		invoice = &models.Invoice{
			CustomOrderID:  order.ID,
			Amount:         base.Round(2),
			OriginalAmount: amount,
			Currency:       code,
			Description:    description,
			Status:         models.InvoiceStatusSent,
		}
		if err := repos.Invoices.Create(ctx, invoice); err != nil {
			if repositories.IsUniqueViolation(err) {
				return ErrInvoiceAlreadySent
			}
			return err
		}
		if err := repos.CustomOrders.MarkQuoted(ctx, order.ID); err != nil {
			return fmt.Errorf("failed to mark custom order %s quoted: %w", order.ID, err)
		}

		note, err = notify(ctx, repos, order.UserID, models.NotificationCustomOrder, "New Invoice",
			fmt.Sprintf("An invoice of %s has been sent for your custom order %q.",
				s.deps.Formatter.Format(amount, code), order.Title))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.Info().Str("custom_order_id", customOrderID).Str("invoice_id", invoice.ID).
		Str("amount", invoice.Amount.String()).Msg("invoice sent")
	s.deps.publish(EventCustomOrderInvoiced, invoice)
	s.deps.publishNotification(note)
	return invoice, nil
}
