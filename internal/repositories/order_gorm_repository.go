package repositories

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// Create inserts the order together with its items.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID returns an order by its ID, items included.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// ListByUser returns the orders owned by userID, newest first.
func (r *GORMOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders of user %s: %w", userID, err)
	}
	return orders, nil
}

// List returns a page of orders and the total number matching the filter.
func (r *GORMOrderRepository) List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	if err := paginate(q, filter).Preload("Items").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// UpdateStatus updates the fulfilment status of an order.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	return r.update(ctx, id, "status", status)
}

// UpdatePaymentStatus updates the payment status of an order.
func (r *GORMOrderRepository) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	return r.update(ctx, id, "payment_status", status)
}

func (r *GORMOrderRepository) update(ctx context.Context, id, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("failed to update %s of order %s: %w", column, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s not found for %s update: %w", id, column, ErrNotFound)
	}
	return nil
}

// GORMCustomOrderRepository is a GORM implementation of CustomOrderRepository.
type GORMCustomOrderRepository struct {
	db *gorm.DB
}

// NewGORMCustomOrderRepository creates a new instance of GORMCustomOrderRepository.
func NewGORMCustomOrderRepository(db *gorm.DB) *GORMCustomOrderRepository {
	return &GORMCustomOrderRepository{db: db}
}

// Create inserts a custom order request.
func (r *GORMCustomOrderRepository) Create(ctx context.Context, order *models.CustomOrder) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit("Invoice").Create(order).Error; err != nil {
		return fmt.Errorf("failed to create custom order: %w", err)
	}
	return nil
}

// GetByID returns a custom order by its ID with its invoice, if any.
func (r *GORMCustomOrderRepository) GetByID(ctx context.Context, id string) (*models.CustomOrder, error) {
	var order models.CustomOrder
	if err := r.db.WithContext(ctx).Preload("Invoice").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("custom order with ID %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get custom order by ID %s: %w", id, err)
	}
	return &order, nil
}

// ListByUser returns the custom orders owned by userID, newest first.
func (r *GORMCustomOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.CustomOrder, error) {
	var orders []models.CustomOrder
	err := r.db.WithContext(ctx).Preload("Invoice").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list custom orders of user %s: %w", userID, err)
	}
	return orders, nil
}

// List returns a page of custom orders and the total number matching the filter.
func (r *GORMCustomOrderRepository) List(ctx context.Context, filter ListFilter) ([]models.CustomOrder, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.CustomOrder{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count custom orders: %w", err)
	}

	var orders []models.CustomOrder
	if err := paginate(q, filter).Preload("Invoice").Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list custom orders: %w", err)
	}
	return orders, total, nil
}

// UpdateStatus updates the status of a custom order.
func (r *GORMCustomOrderRepository) UpdateStatus(ctx context.Context, id string, status models.CustomOrderStatus) error {
	return r.updates(ctx, id, map[string]any{"status": status})
}

// MarkQuoted sets the status to quoted and invoice_sent to true.
func (r *GORMCustomOrderRepository) MarkQuoted(ctx context.Context, id string) error {
	return r.updates(ctx, id, map[string]any{
		"status":       models.CustomOrderStatusQuoted,
		"invoice_sent": true,
	})
}

func (r *GORMCustomOrderRepository) updates(ctx context.Context, id string, values map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.CustomOrder{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("failed to update custom order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("custom order with ID %s not found for update: %w", id, ErrNotFound)
	}
	return nil
}
