package models

import "time"

// InvoiceStatus is the state of a custom order invoice.
type InvoiceStatus string

const (
	InvoiceStatusSent InvoiceStatus = "sent"
	InvoiceStatusPaid InvoiceStatus = "paid"
)

// Invoice is the admin issued quotation for a custom order. At most one
// invoice exists per custom order.
type Invoice struct {
	ID             string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomOrderID  string        `json:"custom_order_id" gorm:"uniqueIndex;type:varchar(36);not null"`
	Amount         Money         `json:"amount" gorm:"type:decimal(14,2)"`          // Base currency
	OriginalAmount Money         `json:"original_amount" gorm:"type:decimal(14,2)"` // Payment currency
	Currency       string        `json:"currency" gorm:"type:varchar(3)"`
	Description    string        `json:"description"`
	Status         InvoiceStatus `json:"status" gorm:"type:varchar(20)"`
	CreatedAt      time.Time     `json:"created_at"`
}

// TransactionType is the direction of a wallet ledger entry.
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// TransactionStatus is the state of a wallet ledger entry.
type TransactionStatus string

const TransactionCompleted TransactionStatus = "completed"

// Transaction is an append-only wallet ledger entry. A reference appears at
// most once per direction, so a payment or refund is never booked twice.
type Transaction struct {
	ID          string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string            `json:"user_id" gorm:"index;type:varchar(36)"`
	Type        TransactionType   `json:"type" gorm:"type:varchar(10);uniqueIndex:idx_transactions_reference_type"`
	Amount      Money             `json:"amount" gorm:"type:decimal(14,2)"`
	Description string            `json:"description"`
	Reference   string            `json:"reference" gorm:"type:varchar(64);uniqueIndex:idx_transactions_reference_type"`
	Status      TransactionStatus `json:"status" gorm:"type:varchar(20)"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NotificationType groups notifications for the client.
type NotificationType string

const (
	NotificationOrder       NotificationType = "order"
	NotificationCustomOrder NotificationType = "custom_order"
	NotificationWallet      NotificationType = "wallet"
)

// Notification is a message addressed to a single user.
type Notification struct {
	ID        string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string           `json:"user_id" gorm:"index;type:varchar(36)"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type" gorm:"type:varchar(20)"`
	IsRead    bool             `json:"is_read" gorm:"not null;default:false"`
	CreatedAt time.Time        `json:"created_at"`
}
