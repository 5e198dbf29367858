package services_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"storefront/internal/currency"
	"storefront/internal/models"
	"storefront/internal/payments"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/testutil"
)

var (
	admin = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) PublishEvent(routingKey string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) count(routingKey string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, k := range p.keys {
		if k == routingKey {
			n++
		}
	}
	return n
}

type env struct {
	store  *repositories.GORMStore
	repos  repositories.Repositories
	events *recordingPublisher
	deps   services.Deps
}

func newFormatter(t testing.TB) *currency.Formatter {
	t.Helper()
	f, err := currency.NewFormatter("NGN", language.English, map[string]decimal.Decimal{
		"USD": dec("1500"),
		"GBP": dec("1900"),
	})
	require.NoError(t, err)
	return f
}

func newEnv(t *testing.T, atomic bool) *env {
	t.Helper()
	store := repositories.NewGORMStore(testutil.NewDB(t))
	events := &recordingPublisher{}
	return &env{
		store:  store,
		repos:  store.Repositories(),
		events: events,
		deps: services.Deps{
			Store:             store,
			Formatter:         newFormatter(t),
			Events:            events,
			Logger:            zerolog.New(io.Discard),
			AtomicSideEffects: atomic,
		},
	}
}

func (e *env) customer(t *testing.T, preferred, balance string) models.Actor {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()
	require.NoError(t, e.repos.Users.Create(ctx, &models.User{
		ID: id, Username: "u" + id[:8], Email: id[:8] + "@example.com", Password: "x", Role: models.RoleCustomer,
	}))
	require.NoError(t, e.repos.Profiles.Create(ctx, &models.Profile{
		UserID: id, DisplayName: "Buyer", WalletBalance: dec(balance), PreferredCurrency: preferred,
	}))
	return models.Actor{UserID: id, Role: models.RoleCustomer}
}

func (e *env) balance(t *testing.T, userID string) decimal.Decimal {
	t.Helper()
	p, err := e.repos.Profiles.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	return p.WalletBalance
}

func (e *env) notifications(t *testing.T, userID string) []models.Notification {
	t.Helper()
	list, err := e.repos.Notifications.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	return list
}

func (e *env) transactions(t *testing.T, userID string) []models.Transaction {
	t.Helper()
	list, err := e.repos.Transactions.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	return list
}

func (e *env) product(t *testing.T, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: "Tote bag", Price: dec(price), Stock: stock}
	require.NoError(t, e.repos.Products.Create(context.Background(), p))
	return p
}

func (e *env) order(t *testing.T, userID, total string, status models.OrderStatus, payment models.PaymentStatus) *models.Order {
	t.Helper()
	o := &models.Order{
		UserID:          userID,
		Subtotal:        dec(total),
		Total:           dec(total),
		PaymentMethod:   models.PaymentMethodWallet,
		PaymentStatus:   payment,
		Status:          status,
		PaymentCurrency: "NGN",
		OriginalAmount:  dec(total),
	}
	require.NoError(t, e.repos.Orders.Create(context.Background(), o))
	return o
}

func (e *env) customOrder(t *testing.T, userID, title, code string, status models.CustomOrderStatus) *models.CustomOrder {
	t.Helper()
	o := &models.CustomOrder{
		UserID: userID, Title: title, Description: "Branded", Quantity: 50,
		Status: status, PaymentCurrency: code,
	}
	require.NoError(t, e.repos.CustomOrders.Create(context.Background(), o))
	return o
}

// faultyStore swaps repositories handed to services, in and out of transactions.
type faultyStore struct {
	*repositories.GORMStore
	wrap func(repositories.Repositories) repositories.Repositories
}

func (s faultyStore) Repositories() repositories.Repositories {
	return s.wrap(s.GORMStore.Repositories())
}

func (s faultyStore) Transaction(ctx context.Context, fn func(repos repositories.Repositories) error) error {
	return s.GORMStore.Transaction(ctx, func(repos repositories.Repositories) error {
		return fn(s.wrap(repos))
	})
}

// spyStore counts every access to persistence.
type spyStore struct {
	calls int
}

func (s *spyStore) Repositories() repositories.Repositories {
	s.calls++
	return repositories.Repositories{}
}

func (s *spyStore) Transaction(context.Context, func(repos repositories.Repositories) error) error {
	s.calls++
	return nil
}

// MockProfileRepository is a mock implementation of repositories.ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *MockProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) AdjustWalletBalance(ctx context.Context, userID string, delta decimal.Decimal) error {
	return m.Called(ctx, userID, delta).Error(0)
}

// MockInvoiceRepository is a mock implementation of repositories.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *MockInvoiceRepository) GetByCustomOrderID(ctx context.Context, id string) (*models.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) UpdateStatus(ctx context.Context, id string, status models.InvoiceStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

// MockNotificationRepository is a mock implementation of repositories.NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotificationRepository) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

// MockPaymentBridge is a mock implementation of services.PaymentBridge
type MockPaymentBridge struct {
	mock.Mock
}

func (m *MockPaymentBridge) Present(ctx context.Context, req payments.PresentRequest) (*payments.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Session), args.Error(1)
}

func (m *MockPaymentBridge) Get(ctx context.Context, reference string) (*payments.Session, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Session), args.Error(1)
}

func settled(userID, reference, purpose, amount, code string) *payments.Session {
	outcome := payments.Success(map[string]any{"reference": reference})
	return &payments.Session{
		Reference: reference,
		UserID:    userID,
		Amount:    dec(amount),
		Currency:  code,
		Metadata:  map[string]string{"purpose": purpose},
		Outcome:   &outcome,
	}
}
