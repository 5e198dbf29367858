package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

const (
	EventOrderStatusChanged       = "order.status_changed"
	EventOrderRefunded            = "order.refunded"
	EventCustomOrderStatusChanged = "custom_order.status_changed"
)

// StatusChange is published whenever an order of either kind changes status.
type StatusChange struct {
	Kind     models.OrderKind `json:"kind"`
	OrderID  string           `json:"order_id"`
	UserID   string           `json:"user_id"`
	From     string           `json:"from"`
	To       string           `json:"to"`
	Refunded *decimal.Decimal `json:"refunded,omitempty"`
}

// LifecycleService moves orders through their status sequences on behalf of
// admins and informs the owners.
type LifecycleService struct {
	deps Deps
}

// NewLifecycleService creates a new LifecycleService.
func NewLifecycleService(deps Deps) *LifecycleService {
	return &LifecycleService{deps: deps}
}

// UpdateStatus changes the status of the order ref points at.
func (s *LifecycleService) UpdateStatus(ctx context.Context, actor models.Actor, ref models.OrderRef, status string) (models.AnyOrder, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	switch ref.Kind {
	case models.OrderKindStandard:
		order, err := s.UpdateOrderStatus(ctx, actor, ref.ID, models.OrderStatus(status))
		if err != nil {
			return nil, err
		}
		return order, nil
	case models.OrderKindCustom:
		order, err := s.UpdateCustomOrderStatus(ctx, actor, ref.ID, models.CustomOrderStatus(status))
		if err != nil {
			return nil, err
		}
		return order, nil
	}
	return nil, fmt.Errorf("%w: unknown order kind %q", ErrInvalidStatus, ref.Kind)
}

// UpdateOrderStatus changes the status of a standard order. Cancelling a
// paid order refunds its total to the owner's wallet before the status is
// written; if the refund fails the status is left unchanged.
func (s *LifecycleService) UpdateOrderStatus(ctx context.Context, actor models.Actor, orderID string, status models.OrderStatus) (*models.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var (
		order    *models.Order
		from     models.OrderStatus
		refunded *decimal.Decimal
		note     *models.Notification
	)
	err := s.deps.sideEffects(ctx, func(repos repositories.Repositories) error {
		var err error
		order, err = repos.Orders.GetByID(ctx, orderID)
		if err != nil {
			return notFound(err, ErrOrderNotFound, orderID)
		}
		from = order.Status
		if from == status {
			return nil
		}
		if !from.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, status)
		}

		if status == models.OrderStatusCancelled && order.PaymentStatus == models.PaymentStatusPaid {
			if err := s.refund(ctx, repos, order); err != nil {
				return fmt.Errorf("failed to refund order %s: %w", order.ID, err)
			}
			total := order.Total
			refunded = &total
		}

		if err := repos.Orders.UpdateStatus(ctx, order.ID, status); err != nil {
			return fmt.Errorf("failed to update status of order %s: %w", order.ID, err)
		}
		order.Status = status

		note, err = notify(ctx, repos, order.UserID, models.NotificationOrder, "Order Update",
			s.orderMessage(ctx, repos, order, refunded))
		return err
	})
	if err != nil {
		return nil, err
	}
	if from == status {
		return order, nil
	}

	s.deps.Logger.Info().Str("order_id", order.ID).Str("from", string(from)).Str("to", string(status)).
		Bool("refunded", refunded != nil).Msg("order status updated")
	change := StatusChange{Kind: models.OrderKindStandard, OrderID: order.ID, UserID: order.UserID,
		From: string(from), To: string(status), Refunded: refunded}
	s.deps.publish(EventOrderStatusChanged, change)
	if refunded != nil {
		s.deps.publish(EventOrderRefunded, change)
	}
	s.deps.publishNotification(note)
	return order, nil
}

// refund credits the order total to the owner, books the credit and marks
// the order refunded, in that order.
func (s *LifecycleService) refund(ctx context.Context, repos repositories.Repositories, order *models.Order) error {
	if err := repos.Profiles.AdjustWalletBalance(ctx, order.UserID, order.Total); err != nil {
		return err
	}
	err := repos.Transactions.Create(ctx, &models.Transaction{
		UserID:      order.UserID,
		Type:        models.TransactionCredit,
		Amount:      order.Total,
		Description: fmt.Sprintf("Refund for order #%s", shortID(order.ID)),
		Reference:   order.ID,
	})
	if err != nil {
		return err
	}
	if err := repos.Orders.UpdatePaymentStatus(ctx, order.ID, models.PaymentStatusRefunded); err != nil {
		return err
	}
	order.PaymentStatus = models.PaymentStatusRefunded
	return nil
}

func (s *LifecycleService) orderMessage(ctx context.Context, repos repositories.Repositories, order *models.Order, refunded *decimal.Decimal) string {
	msg := fmt.Sprintf("Your order #%s is now %s.", shortID(order.ID), models.StatusLabel(order.Status))
	if refunded != nil {
		code := s.deps.preferredCurrency(ctx, repos, order.UserID)
		msg += fmt.Sprintf(" %s has been refunded to your wallet.", s.deps.Formatter.FormatFromBase(*refunded, code))
	}
	return msg
}

// UpdateCustomOrderStatus changes the status of a custom order.
func (s *LifecycleService) UpdateCustomOrderStatus(ctx context.Context, actor models.Actor, id string, status models.CustomOrderStatus) (*models.CustomOrder, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var (
		order *models.CustomOrder
		from  models.CustomOrderStatus
		note  *models.Notification
	)
	err := s.deps.sideEffects(ctx, func(repos repositories.Repositories) error {
		var err error
		order, err = repos.CustomOrders.GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrCustomOrderNotFound, id)
		}
		from = order.Status
		if from == status {
			return nil
		}
		if !from.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, status)
		}
		if err := repos.CustomOrders.UpdateStatus(ctx, order.ID, status); err != nil {
			return fmt.Errorf("failed to update status of custom order %s: %w", order.ID, err)
		}
		order.Status = status

		note, err = notify(ctx, repos, order.UserID, models.NotificationCustomOrder, "Custom Order Update",
			customOrderMessage(order))
		return err
	})
	if err != nil {
		return nil, err
	}
	if from == status {
		return order, nil
	}

	s.deps.Logger.Info().Str("custom_order_id", order.ID).Str("from", string(from)).Str("to", string(status)).
		Msg("custom order status updated")
	s.deps.publish(EventCustomOrderStatusChanged, StatusChange{Kind: models.OrderKindCustom, OrderID: order.ID,
		UserID: order.UserID, From: string(from), To: string(status)})
	s.deps.publishNotification(note)
	return order, nil
}

func customOrderMessage(order *models.CustomOrder) string {
	return fmt.Sprintf("Your custom order %q is now %s.", order.Title, models.StatusLabel(order.Status))
}
