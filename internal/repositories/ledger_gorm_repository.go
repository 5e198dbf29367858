package repositories

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMInvoiceRepository is a GORM implementation of InvoiceRepository.
type GORMInvoiceRepository struct {
	db *gorm.DB
}

// NewGORMInvoiceRepository creates a new instance of GORMInvoiceRepository.
func NewGORMInvoiceRepository(db *gorm.DB) *GORMInvoiceRepository {
	return &GORMInvoiceRepository{db: db}
}

// Create inserts an invoice. A second invoice for the same custom order
// fails with an error recognised by IsUniqueViolation.
func (r *GORMInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// GetByCustomOrderID returns the invoice issued for a custom order.
func (r *GORMInvoiceRepository) GetByCustomOrderID(ctx context.Context, customOrderID string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).First(&invoice, "custom_order_id = ?", customOrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invoice for custom order %s not found: %w", customOrderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get invoice for custom order %s: %w", customOrderID, err)
	}
	return &invoice, nil
}

// UpdateStatus updates the status of an invoice.
func (r *GORMInvoiceRepository) UpdateStatus(ctx context.Context, id string, status models.InvoiceStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Invoice{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update invoice %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("invoice with ID %s not found for update: %w", id, ErrNotFound)
	}
	return nil
}

// GORMTransactionRepository is a GORM implementation of TransactionRepository.
type GORMTransactionRepository struct {
	db *gorm.DB
}

// NewGORMTransactionRepository creates a new instance of GORMTransactionRepository.
func NewGORMTransactionRepository(db *gorm.DB) *GORMTransactionRepository {
	return &GORMTransactionRepository{db: db}
}

// Create appends a ledger entry.
func (r *GORMTransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.Status == "" {
		txn.Status = models.TransactionCompleted
	}
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListByUser returns the ledger of userID, newest first.
func (r *GORMTransactionRepository) ListByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions of user %s: %w", userID, err)
	}
	return txns, nil
}

// ExistsByReference reports whether a ledger entry of txnType references reference.
func (r *GORMTransactionRepository) ExistsByReference(ctx context.Context, reference string, txnType models.TransactionType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("reference = ? AND type = ?", reference, txnType).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up transactions by reference %s: %w", reference, err)
	}
	return count > 0, nil
}

// GORMNotificationRepository is a GORM implementation of NotificationRepository.
type GORMNotificationRepository struct {
	db *gorm.DB
}

// NewGORMNotificationRepository creates a new instance of GORMNotificationRepository.
func NewGORMNotificationRepository(db *gorm.DB) *GORMNotificationRepository {
	return &GORMNotificationRepository{db: db}
}

// Create inserts a notification.
func (r *GORMNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListByUser returns the notifications addressed to userID, newest first.
func (r *GORMNotificationRepository) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	var list []models.Notification
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications of user %s: %w", userID, err)
	}
	return list, nil
}

// MarkRead flags a notification of userID as read.
func (r *GORMNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification %s read: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notification with ID %s not found: %w", id, ErrNotFound)
	}
	return nil
}
