package services

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

const (
	EventCustomOrderCreated = "custom_order.created"
	EventCustomOrderPaid    = "custom_order.paid"
)

// CreateCustomOrderInput is a bespoke product request.
type CreateCustomOrderInput struct {
	Title           string     `json:"title" validate:"required,max=150"`
	Description     string     `json:"description" validate:"required,max=2000"`
	Quantity        int        `json:"quantity" validate:"required,min=1"`
	BudgetRange     string     `json:"budget_range" validate:"omitempty,max=100"`
	BusinessName    string     `json:"business_name" validate:"omitempty,max=150"`
	LogoURL         string     `json:"logo_url" validate:"omitempty,url"`
	BrandColors     string     `json:"brand_colors" validate:"omitempty,max=100"`
	LogoPlacement   string     `json:"logo_placement" validate:"omitempty,max=100"`
	Deadline        *time.Time `json:"deadline"`
	DeliveryAddress string     `json:"delivery_address" validate:"omitempty,max=500"`
	Notes           string     `json:"notes" validate:"omitempty,max=2000"`
}

// CustomOrderService handles the customer side of custom orders.
type CustomOrderService struct {
	deps Deps
}

// NewCustomOrderService creates a new CustomOrderService.
func NewCustomOrderService(deps Deps) *CustomOrderService {
	return &CustomOrderService{deps: deps}
}

// Create files a custom order request priced later in the actor's
// preferred currency.
func (s *CustomOrderService) Create(ctx context.Context, actor models.Actor, input CreateCustomOrderInput) (*models.CustomOrder, error) {
	repos := s.deps.Store.Repositories()
	order := &models.CustomOrder{
		UserID:          actor.UserID,
		Title:           input.Title,
		Description:     input.Description,
		Quantity:        input.Quantity,
		BudgetRange:     input.BudgetRange,
		Status:          models.CustomOrderStatusPending,
		PaymentCurrency: s.deps.preferredCurrency(ctx, repos, actor.UserID),
		BusinessName:    input.BusinessName,
		LogoURL:         input.LogoURL,
		BrandColors:     input.BrandColors,
		LogoPlacement:   input.LogoPlacement,
		Deadline:        input.Deadline,
		DeliveryAddress: input.DeliveryAddress,
		Notes:           input.Notes,
	}
	if err := repos.CustomOrders.Create(ctx, order); err != nil {
		return nil, err
	}
	s.deps.publish(EventCustomOrderCreated, order)
	return order, nil
}

// Get returns a custom order visible to the actor, invoice included.
func (s *CustomOrderService) Get(ctx context.Context, actor models.Actor, id string) (*models.CustomOrder, error) {
	order, err := s.deps.Store.Repositories().CustomOrders.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrCustomOrderNotFound, id)
	}
	if !actor.Owns(order.UserID) && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: %s", ErrCustomOrderNotFound, id)
	}
	return order, nil
}

// ListMine returns the actor's custom orders.
func (s *CustomOrderService) ListMine(ctx context.Context, actor models.Actor) ([]models.CustomOrder, error) {
	return s.deps.Store.Repositories().CustomOrders.ListByUser(ctx, actor.UserID)
}

// List returns a page of all custom orders for admins.
func (s *CustomOrderService) List(ctx context.Context, actor models.Actor, filter repositories.ListFilter) ([]models.CustomOrder, int64, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	return s.deps.Store.Repositories().CustomOrders.List(ctx, filter)
}

// Accept records the owner's acceptance of a quote.
func (s *CustomOrderService) Accept(ctx context.Context, actor models.Actor, id string) (*models.CustomOrder, error) {
	var note *models.Notification
	order, err := s.ownerStep(ctx, actor, id, models.CustomOrderStatusQuoted, models.CustomOrderStatusAccepted,
		func(repos repositories.Repositories, order *models.CustomOrder) error {
			var err error
			note, err = notify(ctx, repos, order.UserID, models.NotificationCustomOrder, "Custom Order Update",
				customOrderMessage(order))
			return err
		})
	if err != nil {
		return nil, err
	}
	s.deps.publish(EventCustomOrderStatusChanged, StatusChange{Kind: models.OrderKindCustom, OrderID: order.ID,
		UserID: order.UserID, From: string(models.CustomOrderStatusQuoted), To: string(order.Status)})
	s.deps.publishNotification(note)
	return order, nil
}

// Pay settles the invoice of an accepted custom order from the wallet.
func (s *CustomOrderService) Pay(ctx context.Context, actor models.Actor, id string) (*models.CustomOrder, error) {
	var note *models.Notification
	order, err := s.ownerStep(ctx, actor, id, models.CustomOrderStatusAccepted, models.CustomOrderStatusPaymentMade,
		func(repos repositories.Repositories, order *models.CustomOrder) error {
			invoice := order.Invoice
			if invoice == nil || invoice.Status != models.InvoiceStatusSent {
				return ErrInvoiceMissing
			}
			if err := repos.Profiles.AdjustWalletBalance(ctx, order.UserID, invoice.Amount.Neg()); err != nil {
				return err
			}
			err := repos.Transactions.Create(ctx, &models.Transaction{
				UserID:      order.UserID,
				Type:        models.TransactionDebit,
				Amount:      invoice.Amount,
				Description: fmt.Sprintf("Payment for custom order %q", order.Title),
				Reference:   invoice.ID,
			})
			if err != nil {
				if repositories.IsUniqueViolation(err) {
					return fmt.Errorf("%w: invoice %s", ErrPaymentAlreadyUsed, invoice.ID)
				}
				return err
			}
			if err := repos.Invoices.UpdateStatus(ctx, invoice.ID, models.InvoiceStatusPaid); err != nil {
				return err
			}
			invoice.Status = models.InvoiceStatusPaid

			note, err = notify(ctx, repos, order.UserID, models.NotificationCustomOrder, "Custom Order Update",
				customOrderMessage(order))
			return err
		})
	if err != nil {
		return nil, err
	}
	s.deps.Logger.Info().Str("custom_order_id", order.ID).Msg("custom order paid")
	s.deps.publish(EventCustomOrderPaid, order)
	s.deps.publishNotification(note)
	return order, nil
}

// ownerStep moves an order owned by the actor from one status to the next
// and runs then inside the same transaction.
func (s *CustomOrderService) ownerStep(ctx context.Context, actor models.Actor, id string, from, to models.CustomOrderStatus,
	then func(repos repositories.Repositories, order *models.CustomOrder) error) (*models.CustomOrder, error) {
	var order *models.CustomOrder
	err := s.deps.Store.Transaction(ctx, func(repos repositories.Repositories) error {
		var err error
		order, err = repos.CustomOrders.GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrCustomOrderNotFound, id)
		}
		if !actor.Owns(order.UserID) {
			return fmt.Errorf("%w: %s", ErrCustomOrderNotFound, id)
		}
		if order.Status != from || !from.CanTransitionTo(to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, to)
		}
		if err := repos.CustomOrders.UpdateStatus(ctx, order.ID, to); err != nil {
			return err
		}
		order.Status = to
		return then(repos, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
