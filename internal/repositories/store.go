package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database selected by driver ("postgres" or "sqlite").
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Product{},
		&models.SpecialOffer{},
		&models.Order{},
		&models.OrderItem{},
		&models.CustomOrder{},
		&models.Invoice{},
		&models.Transaction{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// GORMStore hands out GORM backed repositories and runs transactions.
type GORMStore struct {
	db *gorm.DB
}

// NewGORMStore creates a new instance of GORMStore.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db}
}

// Repositories returns repositories bound to the store's connection pool.
func (s *GORMStore) Repositories() Repositories {
	return newGORMRepositories(s.db)
}

// Transaction implements Transactor.
func (s *GORMStore) Transaction(ctx context.Context, fn func(repos Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newGORMRepositories(tx))
	})
}

func newGORMRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:         NewGORMUserRepository(db),
		Profiles:      NewGORMProfileRepository(db),
		Products:      NewGORMProductRepository(db),
		Offers:        NewGORMSpecialOfferRepository(db),
		Orders:        NewGORMOrderRepository(db),
		CustomOrders:  NewGORMCustomOrderRepository(db),
		Invoices:      NewGORMInvoiceRepository(db),
		Transactions:  NewGORMTransactionRepository(db),
		Notifications: NewGORMNotificationRepository(db),
	}
}

func paginate(q *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	return q
}
