package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

func TestLifecycle_CancelPaidOrderRefunds(t *testing.T) {
	for _, atomic := range []bool{true, false} {
		e := newEnv(t, atomic)
		svc := services.NewLifecycleService(e.deps)
		owner := e.customer(t, "NGN", "0")
		order := e.order(t, owner.UserID, "15000", models.OrderStatusConfirmed, models.PaymentStatusPaid)

		updated, err := svc.UpdateOrderStatus(context.Background(), admin, order.ID, models.OrderStatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, updated.Status)
		assert.Equal(t, models.PaymentStatusRefunded, updated.PaymentStatus)

		stored, err := e.repos.Orders.GetByID(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCancelled, stored.Status)
		assert.Equal(t, models.PaymentStatusRefunded, stored.PaymentStatus)

		assert.True(t, dec("15000").Equal(e.balance(t, owner.UserID)))

		txns := e.transactions(t, owner.UserID)
		require.Len(t, txns, 1)
		assert.Equal(t, models.TransactionCredit, txns[0].Type)
		assert.True(t, dec("15000").Equal(txns[0].Amount))
		assert.Equal(t, order.ID, txns[0].Reference)

		notes := e.notifications(t, owner.UserID)
		require.Len(t, notes, 1)
		assert.Equal(t, "Order Update", notes[0].Title)
		assert.Contains(t, notes[0].Message, "Cancelled")
		assert.Contains(t, notes[0].Message, "₦15,000.00")

		assert.Equal(t, 1, e.events.count(services.EventOrderRefunded))
		assert.Equal(t, 1, e.events.count(services.EventNotificationCreated))
	}
}

func TestLifecycle_RefundMessageUsesPreferredCurrency(t *testing.T) {
	e := newEnv(t, true)
	svc := services.NewLifecycleService(e.deps)
	owner := e.customer(t, "USD", "0")
	order := e.order(t, owner.UserID, "15000", models.OrderStatusPending, models.PaymentStatusPaid)

	_, err := svc.UpdateOrderStatus(context.Background(), admin, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)

	notes := e.notifications(t, owner.UserID)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "$10.00")
}

func TestLifecycle_CancelUnpaidOrderDoesNotRefund(t *testing.T) {
	e := newEnv(t, true)
	svc := services.NewLifecycleService(e.deps)
	owner := e.customer(t, "NGN", "0")
	order := e.order(t, owner.UserID, "15000", models.OrderStatusPending, models.PaymentStatusPending)

	updated, err := svc.UpdateOrderStatus(context.Background(), admin, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, updated.PaymentStatus)
	assert.True(t, e.balance(t, owner.UserID).IsZero())
	assert.Empty(t, e.transactions(t, owner.UserID))
	assert.Len(t, e.notifications(t, owner.UserID), 1)
}

func TestLifecycle_ForwardTransitionNotifiesOnce(t *testing.T) {
	e := newEnv(t, true)
	svc := services.NewLifecycleService(e.deps)
	owner := e.customer(t, "NGN", "0")
	order := e.order(t, owner.UserID, "5000", models.OrderStatusPending, models.PaymentStatusPaid)

	_, err := svc.UpdateOrderStatus(context.Background(), admin, order.ID, models.OrderStatusShipped)
	require.NoError(t, err)

	notes := e.notifications(t, owner.UserID)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "is now Shipped.")
	assert.Equal(t, models.NotificationOrder, notes[0].Type)
	assert.Equal(t, 1, e.events.count(services.EventOrderStatusChanged))
}

func TestLifecycle_SameStatusIsNoop(t *testing.T) {
	e := newEnv(t, true)
	svc := services.NewLifecycleService(e.deps)
	owner := e.customer(t, "NGN", "0")
	order := e.order(t, owner.UserID, "5000", models.OrderStatusProcessing, models.PaymentStatusPaid)

	updated, err := svc.UpdateOrderStatus(context.Background(), admin, order.ID, models.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, updated.Status)
	assert.Empty(t, e.notifications(t, owner.UserID))
	assert.Equal(t, 0, e.events.count(services.EventOrderStatusChanged))
}

func TestLifecycle_RejectsInvalidTransitions(t *testing.T) {
	e := newEnv(t, true)
	svc := services.NewLifecycleService(e.deps)
	owner := e.customer(t, "NGN", "0")
	delivered := e.order(t, owner.UserID, "5000", models.OrderStatusDelivered, models.PaymentStatusPaid)
	shipped := e.order(t, owner.UserID, "5000", models.OrderStatusShipped, models.PaymentStatusPaid)
	ctx := context.Background()

	_, err := svc.UpdateOrderStatus(ctx, admin, delivered.ID, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	_, err = svc.UpdateOrderStatus(ctx, admin, shipped.ID, models.OrderStatusConfirmed)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	_, err = svc.UpdateOrderStatus(ctx, admin, shipped.ID, models.OrderStatus("lost"))
	assert.ErrorIs(t, err, services.ErrInvalidStatus)

	_, err = svc.UpdateOrderStatus(ctx, admin, "missing", models.OrderStatusShipped)
	assert.ErrorIs(t, err, services.ErrOrderNotFound)

	assert.Empty(t, e.notifications(t, owner.UserID))
	assert.True(t, e.balance(t, owner.UserID).IsZero())
}

func TestLifecycle_NonAdminIsRejectedBeforeAnyRead(t *testing.T) {
	spy := &spyStore{}
	deps := services.Deps{Store: spy, Formatter: newFormatter(t)}
	svc := services.NewLifecycleService(deps)
	customer := models.Actor{UserID: "user-1", Role: models.RoleCustomer}
	ctx := context.Background()

	_, err := svc.UpdateOrderStatus(ctx, customer, "order-1", models.OrderStatusCancelled)
	assert.ErrorIs(t, err, services.ErrForbidden)
	_, err = svc.UpdateCustomOrderStatus(ctx, customer, "order-1", models.CustomOrderStatusRejected)
	assert.ErrorIs(t, err, services.ErrForbidden)
	_, err = svc.UpdateStatus(ctx, customer, models.OrderRef{Kind: models.OrderKindStandard, ID: "order-1"}, "cancelled")
	assert.ErrorIs(t, err, services.ErrForbidden)
	_, err = svc.UpdateStatus(ctx, models.Actor{}, models.OrderRef{Kind: models.OrderKindCustom, ID: "order-1"}, "cancelled")
	assert.ErrorIs(t, err, services.ErrForbidden)

	assert.Equal(t, 0, spy.calls)
}

func TestLifecycle_NonAdminLeavesOrderUntouched(t *testing.T) {
	e := newEnv(t, true)
	svc := services.NewLifecycleService(e.deps)
	owner := e.customer(t, "NGN", "0")
	order := e.order(t, owner.UserID, "15000", models.OrderStatusConfirmed, models.PaymentStatusPaid)

	_, err := svc.UpdateOrderStatus(context.Background(), owner, order.ID, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, services.ErrForbidden)

	stored, err := e.repos.Orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, stored.Status)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	assert.True(t, e.balance(t, owner.UserID).IsZero())
	assert.Empty(t, e.notifications(t, owner.UserID))
}

func TestLifecycle_RefundFailureAbortsStatusWrite(t *testing.T) {
	for _, atomic := range []bool{true, false} {
		e := newEnv(t, atomic)
		profiles := new(MockProfileRepository)
		profiles.On("AdjustWalletBalance", mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("wallet unavailable"))
		e.deps.Store = faultyStore{GORMStore: e.store, wrap: func(r repositories.Repositories) repositories.Repositories {
			r.Profiles = profiles
			return r
		}}
		svc := services.NewLifecycleService(e.deps)
		owner := e.customer(t, "NGN", "0")
		order := e.order(t, owner.UserID, "15000", models.OrderStatusConfirmed, models.PaymentStatusPaid)

		_, err := svc.UpdateOrderStatus(context.Background(), admin, order.ID, models.OrderStatusCancelled)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "wallet unavailable")

		stored, err := e.repos.Orders.GetByID(context.Background(), order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusConfirmed, stored.Status)
		assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
		assert.Empty(t, e.transactions(t, owner.UserID))
		assert.Empty(t, e.notifications(t, owner.UserID))
		profiles.AssertExpectations(t)
	}
}

func TestLifecycle_AtomicModeRollsBackRefundWhenNotificationFails(t *testing.T) {
	e := newEnv(t, true)
	notes := new(MockNotificationRepository)
	notes.On("Create", mock.Anything, mock.Anything).Return(errors.New("notifications down"))
	e.deps.Store = faultyStore{GORMStore: e.store, wrap: func(r repositories.Repositories) repositories.Repositories {
		r.Notifications = notes
		return r
	}}
	svc := services.NewLifecycleService(e.deps)
	owner := e.customer(t, "NGN", "0")
	order := e.order(t, owner.UserID, "15000", models.OrderStatusConfirmed, models.PaymentStatusPaid)

	_, err := svc.UpdateOrderStatus(context.Background(), admin, order.ID, models.OrderStatusCancelled)
	require.Error(t, err)

	stored, err := e.repos.Orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, stored.Status)
	assert.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	assert.True(t, e.balance(t, owner.UserID).IsZero())
	assert.Empty(t, e.transactions(t, owner.UserID))
}

func TestLifecycle_CustomOrderStatus(t *testing.T) {
	e := newEnv(t, true)
	svc := services.NewLifecycleService(e.deps)
	owner := e.customer(t, "NGN", "0")
	order := e.customOrder(t, owner.UserID, "Logo Mugs", "NGN", models.CustomOrderStatusPending)
	ctx := context.Background()

	updated, err := svc.UpdateCustomOrderStatus(ctx, admin, order.ID, models.CustomOrderStatusUnderReview)
	require.NoError(t, err)
	assert.Equal(t, models.CustomOrderStatusUnderReview, updated.Status)

	notes := e.notifications(t, owner.UserID)
	require.Len(t, notes, 1)
	assert.Equal(t, "Custom Order Update", notes[0].Title)
	assert.Equal(t, `Your custom order "Logo Mugs" is now Under Review.`, notes[0].Message)
	assert.Equal(t, models.NotificationCustomOrder, notes[0].Type)

	_, err = svc.UpdateCustomOrderStatus(ctx, admin, order.ID, models.CustomOrderStatusUnderReview)
	require.NoError(t, err)
	assert.Len(t, e.notifications(t, owner.UserID), 1)

	_, err = svc.UpdateCustomOrderStatus(ctx, admin, order.ID, models.CustomOrderStatusRejected)
	require.NoError(t, err)
	_, err = svc.UpdateCustomOrderStatus(ctx, admin, order.ID, models.CustomOrderStatusQuoted)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
	assert.Len(t, e.notifications(t, owner.UserID), 2)
}

func TestLifecycle_UpdateStatusDispatchesOnKind(t *testing.T) {
	e := newEnv(t, true)
	svc := services.NewLifecycleService(e.deps)
	owner := e.customer(t, "NGN", "0")
	order := e.order(t, owner.UserID, "5000", models.OrderStatusPending, models.PaymentStatusPaid)
	custom := e.customOrder(t, owner.UserID, "Caps", "NGN", models.CustomOrderStatusPending)
	ctx := context.Background()

	got, err := svc.UpdateStatus(ctx, admin, models.OrderRef{Kind: models.OrderKindStandard, ID: order.ID}, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, models.OrderKindStandard, got.Kind())
	assert.Equal(t, "confirmed", got.StatusValue())

	got, err = svc.UpdateStatus(ctx, admin, models.OrderRef{Kind: models.OrderKindCustom, ID: custom.ID}, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.OrderKindCustom, got.Kind())
	assert.Equal(t, "cancelled", got.StatusValue())

	_, err = svc.UpdateStatus(ctx, admin, models.OrderRef{Kind: models.OrderKindCustom, ID: order.ID}, "cancelled")
	assert.ErrorIs(t, err, services.ErrCustomOrderNotFound)
}
