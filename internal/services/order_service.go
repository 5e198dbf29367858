package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/models"
	"storefront/internal/payments"
	"storefront/internal/repositories"
)

const EventOrderCreated = "order.created"

var hundred = decimal.NewFromInt(100)

// Fees are added to every standard order, in the base currency.
type Fees struct {
	Service  decimal.Decimal
	Delivery decimal.Decimal
}

// OrderItemInput is one requested line of an order.
type OrderItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Size      string `json:"size,omitempty" validate:"omitempty,max=20"`
	Color     string `json:"color,omitempty" validate:"omitempty,max=30"`
}

// CreateOrderInput is a checkout request.
type CreateOrderInput struct {
	Items            []OrderItemInput     `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress  string               `json:"delivery_address" validate:"required,max=500"`
	PaymentMethod    models.PaymentMethod `json:"payment_method" validate:"required,oneof=wallet paystack"`
	PaymentReference string               `json:"payment_reference,omitempty"`
	PromoCode        string               `json:"promo_code,omitempty" validate:"omitempty,max=32"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	deps   Deps
	bridge PaymentBridge
	fees   Fees
	now    func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(deps Deps, bridge PaymentBridge, fees Fees) *OrderService {
	return &OrderService{deps: deps, bridge: bridge, fees: fees, now: time.Now}
}

// Quote prices a checkout request without placing it.
func (s *OrderService) Quote(ctx context.Context, actor models.Actor, input CreateOrderInput) (*models.Order, error) {
	return s.price(ctx, s.deps.Store.Repositories(), actor.UserID, input)
}

// price builds the unsaved order for input from current catalog prices.
func (s *OrderService) price(ctx context.Context, repos repositories.Repositories, userID string, input CreateOrderInput) (*models.Order, error) {
	order := &models.Order{
		UserID:          userID,
		Status:          models.OrderStatusPending,
		PaymentMethod:   input.PaymentMethod,
		PaymentStatus:   models.PaymentStatusPending,
		DeliveryAddress: input.DeliveryAddress,
		ServiceFee:      s.fees.Service,
		DeliveryFee:     s.fees.Delivery,
		DiscountAmount:  decimal.Zero,
	}

	subtotal := decimal.Zero
	for _, item := range input.Items {
		product, err := repos.Products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, notFound(err, ErrProductNotFound, item.ProductID)
		}
		if product.Stock < item.Quantity {
			return nil, fmt.Errorf("%w for product %s (requested: %d, available: %d)",
				ErrInsufficientStock, product.Name, item.Quantity, product.Stock)
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
		})
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	order.Subtotal = subtotal

	if code := strings.TrimSpace(input.PromoCode); code != "" {
		offer, err := repos.Offers.GetActive(ctx, s.now())
		if err != nil {
			return nil, err
		}
		if offer == nil || offer.Code == "" || !strings.EqualFold(offer.Code, code) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPromoCode, code)
		}
		order.PromoCode = offer.Code
		order.DiscountAmount = subtotal.Mul(offer.DiscountPercent).Div(hundred).Round(2)
	}

	total := subtotal.Add(order.ServiceFee).Add(order.DeliveryFee).Sub(order.DiscountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	order.Total = total

	order.PaymentCurrency = s.deps.preferredCurrency(ctx, repos, userID)
	original, err := s.deps.Formatter.ConvertFromBase(total, order.PaymentCurrency)
	if err != nil {
		return nil, err
	}
	order.OriginalAmount = original.Round(2)
	return order, nil
}

// CreateOrder places and pays for an order. Wallet orders debit the wallet;
// paystack orders consume a successful payment session that covers the
// total in the payment currency. Stock, payment and order are written in
// one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, actor models.Actor, input CreateOrderInput) (*models.Order, error) {
	var session *payments.Session
	switch input.PaymentMethod {
	case models.PaymentMethodWallet:
	case models.PaymentMethodPaystack:
		var err error
		session, err = settledSession(ctx, s.bridge, actor, input.PaymentReference, PurposeOrder)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported payment method %q", input.PaymentMethod)
	}

	var (
		order *models.Order
		note  *models.Notification
	)
	err := s.deps.Store.Transaction(ctx, func(repos repositories.Repositories) error {
		var err error
		order, err = s.price(ctx, repos, actor.UserID, input)
		if err != nil {
			return err
		}
		order.ID = uuid.New().String()

		for _, item := range order.Items {
			if err := repos.Products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if session != nil {
			if !strings.EqualFold(session.Currency, order.PaymentCurrency) || session.Amount.LessThan(order.OriginalAmount) {
				return fmt.Errorf("%w: paid %s %s, due %s %s", ErrPaymentMismatch,
					session.Amount, session.Currency, order.OriginalAmount, order.PaymentCurrency)
			}
			reference := session.Reference
			order.PaymentReference = &reference
		} else {
			if err := repos.Profiles.AdjustWalletBalance(ctx, actor.UserID, order.Total.Neg()); err != nil {
				return err
			}
			err := repos.Transactions.Create(ctx, &models.Transaction{
				UserID:      actor.UserID,
				Type:        models.TransactionDebit,
				Amount:      order.Total,
				Description: fmt.Sprintf("Payment for order #%s", shortID(order.ID)),
				Reference:   order.ID,
			})
			if err != nil {
				return err
			}
		}
		order.PaymentStatus = models.PaymentStatusPaid

		if err := repos.Orders.Create(ctx, order); err != nil {
			if repositories.IsUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrPaymentAlreadyUsed, input.PaymentReference)
			}
			return err
		}

		note, err = notify(ctx, repos, actor.UserID, models.NotificationOrder, "Order Placed",
			fmt.Sprintf("Your order #%s has been placed and is now %s.", shortID(order.ID), models.StatusLabel(order.Status)))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.deps.Logger.Info().Str("order_id", order.ID).Str("payment_method", string(order.PaymentMethod)).
		Str("total", order.Total.String()).Msg("order created")
	s.deps.publish(EventOrderCreated, map[string]any{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
		"total":    order.Total,
		"items":    len(order.Items),
	})
	s.deps.publishNotification(note)
	return order, nil
}

// GetOrder returns an order visible to the actor.
func (s *OrderService) GetOrder(ctx context.Context, actor models.Actor, id string) (*models.Order, error) {
	order, err := s.deps.Store.Repositories().Orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound, id)
	}
	if !actor.Owns(order.UserID) && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	return order, nil
}

// ListMyOrders returns the actor's orders.
func (s *OrderService) ListMyOrders(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	return s.deps.Store.Repositories().Orders.ListByUser(ctx, actor.UserID)
}

// ListOrders returns a page of all orders for admins.
func (s *OrderService) ListOrders(ctx context.Context, actor models.Actor, filter repositories.ListFilter) ([]models.Order, int64, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	return s.deps.Store.Repositories().Orders.List(ctx, filter)
}
