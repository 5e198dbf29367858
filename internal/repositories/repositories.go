package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is wrapped by every lookup that matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientFunds is returned when a wallet debit would overdraw the balance.
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	// ErrInsufficientStock is returned when a product has fewer units than requested.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// IsUniqueViolation reports whether err was caused by a unique constraint.
// Drivers without error translation are recognised by SQLSTATE or message.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// ListFilter narrows list queries. Zero values mean no filtering and no limit.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ProfileRepository defines the interface for profile and wallet data access.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	// AdjustWalletBalance adds delta to the balance. A negative delta fails
	// with ErrInsufficientFunds instead of overdrawing.
	AdjustWalletBalance(ctx context.Context, userID string, delta decimal.Decimal) error
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, id string, quantity int) error
}

// SpecialOfferRepository defines the interface for special offer data access.
type SpecialOfferRepository interface {
	Create(ctx context.Context, offer *models.SpecialOffer) error
	// GetActive returns the most recent offer live at now, or nil when none is.
	GetActive(ctx context.Context, now time.Time) (*models.SpecialOffer, error)
}

// OrderRepository defines the interface for standard order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error
}

// CustomOrderRepository defines the interface for custom order data access.
type CustomOrderRepository interface {
	Create(ctx context.Context, order *models.CustomOrder) error
	GetByID(ctx context.Context, id string) (*models.CustomOrder, error)
	ListByUser(ctx context.Context, userID string) ([]models.CustomOrder, error)
	List(ctx context.Context, filter ListFilter) ([]models.CustomOrder, int64, error)
	UpdateStatus(ctx context.Context, id string, status models.CustomOrderStatus) error
	// MarkQuoted sets the status to quoted and flags the invoice as sent.
	MarkQuoted(ctx context.Context, id string) error
}

// InvoiceRepository defines the interface for invoice data access.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByCustomOrderID(ctx context.Context, customOrderID string) (*models.Invoice, error)
	UpdateStatus(ctx context.Context, id string, status models.InvoiceStatus) error
}

// TransactionRepository defines the interface for the append-only wallet ledger.
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	ListByUser(ctx context.Context, userID string) ([]models.Transaction, error)
	ExistsByReference(ctx context.Context, reference string, txnType models.TransactionType) (bool, error)
}

// NotificationRepository defines the interface for notification data access.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}

// Repositories groups the repositories bound to one database handle.
type Repositories struct {
	Users         UserRepository
	Profiles      ProfileRepository
	Products      ProductRepository
	Offers        SpecialOfferRepository
	Orders        OrderRepository
	CustomOrders  CustomOrderRepository
	Invoices      InvoiceRepository
	Transactions  TransactionRepository
	Notifications NotificationRepository
}

// Transactor runs fn with repositories bound to a single database
// transaction. Returning an error from fn rolls the transaction back.
type Transactor interface {
	Transaction(ctx context.Context, fn func(repos Repositories) error) error
}
