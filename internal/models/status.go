package models

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// OrderStatus is the fulfilment status of a standard order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderStatusSequence = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
}

// Valid reports whether s is a known standard order status.
func (s OrderStatus) Valid() bool {
	return s == OrderStatusCancelled || slices.Contains(orderStatusSequence, s)
}

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether an order in status s may move to next.
// Orders move forward along the fulfilment sequence (skipping is allowed)
// and may be cancelled from any non-terminal status.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	return advances(orderStatusSequence, s, next)
}

// CustomOrderStatus is the status of a custom (bespoke) order request.
type CustomOrderStatus string

const (
	CustomOrderStatusPending     CustomOrderStatus = "pending"
	CustomOrderStatusUnderReview CustomOrderStatus = "under_review"
	CustomOrderStatusQuoted      CustomOrderStatus = "quoted"
	CustomOrderStatusAccepted    CustomOrderStatus = "accepted"
	CustomOrderStatusPaymentMade CustomOrderStatus = "payment_made"
	CustomOrderStatusCompleted   CustomOrderStatus = "completed"
	CustomOrderStatusRejected    CustomOrderStatus = "rejected"
	CustomOrderStatusCancelled   CustomOrderStatus = "cancelled"
)

var customOrderStatusSequence = []CustomOrderStatus{
	CustomOrderStatusPending,
	CustomOrderStatusUnderReview,
	CustomOrderStatusQuoted,
	CustomOrderStatusAccepted,
	CustomOrderStatusPaymentMade,
	CustomOrderStatusCompleted,
}

// Valid reports whether s is a known custom order status.
func (s CustomOrderStatus) Valid() bool {
	return s == CustomOrderStatusRejected || s == CustomOrderStatusCancelled ||
		slices.Contains(customOrderStatusSequence, s)
}

// Terminal reports whether no further transition is allowed from s.
func (s CustomOrderStatus) Terminal() bool {
	switch s {
	case CustomOrderStatusCompleted, CustomOrderStatusRejected, CustomOrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a custom order in status s may move to next.
func (s CustomOrderStatus) CanTransitionTo(next CustomOrderStatus) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() {
		return false
	}
	if next == CustomOrderStatusRejected || next == CustomOrderStatusCancelled {
		return true
	}
	return advances(customOrderStatusSequence, s, next)
}

// AcceptsInvoice reports whether an invoice may still be issued in status s.
// Issuing moves the order to quoted, so only statuses up to quoted qualify.
func (s CustomOrderStatus) AcceptsInvoice() bool {
	return s == CustomOrderStatusQuoted || s.CanTransitionTo(CustomOrderStatusQuoted)
}

func advances[S comparable](sequence []S, from, to S) bool {
	i, j := slices.Index(sequence, from), slices.Index(sequence, to)
	return i >= 0 && j > i
}

// PaymentStatus is the payment state of a standard order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// PaymentMethod is how a standard order was paid for.
type PaymentMethod string

const (
	PaymentMethodWallet   PaymentMethod = "wallet"
	PaymentMethodPaystack PaymentMethod = "paystack"
)

// StatusLabel renders a status value for display, e.g. "under_review"
// becomes "Under Review".
func StatusLabel[S ~string](status S) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(status), "_", " "))
}
