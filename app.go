package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"storefront/internal/config"
	"storefront/internal/currency"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/payments"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"
)

// App is the wired HTTP application together with the connections it owns.
type App struct {
	Fiber  *fiber.App
	Auth   *services.AuthService
	Bridge *payments.Bridge

	mq      *rabbitmq.Client
	closers []func() error
}

// NewApp connects every backing service named by cfg and registers the routes.
// RabbitMQ and Redis are optional: without them events are not published and
// payment sessions are kept in memory.
func NewApp(cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{}

	// --- Database ---
	db, err := repositories.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := repositories.AutoMigrate(db); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	store := repositories.NewGORMStore(db)

	formatter, err := currency.NewFormatter(cfg.BaseCurrency, cfg.CurrencyLocale, cfg.CurrencyRates)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to build currency formatter: %w", err)
	}

	// --- Event bus ---
	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		a.mq = mq
		a.closers = append(a.closers, mq.Close)
		events = mq
	} else {
		log.Warn().Msg("RABBITMQ_URL not set, domain events will not be published")
	}

	// --- Payment sessions ---
	var sessions payments.SessionStore = payments.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			a.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		sessions = payments.NewRedisStore(rdb)
	}

	var verifier payments.Verifier
	if cfg.Paystack.SecretKey != "" {
		verifier = payments.NewPaystackClient(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey,
			cfg.Paystack.VerifyRetries, cfg.Paystack.VerifyTimeout)
	} else if cfg.Paystack.AllowUnverified {
		log.Warn().Msg("PAYSTACK_SECRET_KEY not set, payment results are accepted unverified")
	} else {
		log.Warn().Msg("PAYSTACK_SECRET_KEY not set, successful payments will be rejected")
	}
	a.Bridge = payments.NewBridge(sessions, verifier, payments.Config{
		PublicKey:       cfg.Paystack.PublicKey,
		ReferencePrefix: cfg.Paystack.ReferencePrefix,
		SessionTTL:      cfg.Paystack.SessionTTL,
		AllowUnverified: cfg.Paystack.AllowUnverified,
	}, log)

	// --- Services ---
	deps := services.Deps{
		Store:             store,
		Formatter:         formatter,
		Events:            events,
		Logger:            log,
		AtomicSideEffects: cfg.AtomicSideEffects,
	}
	a.Auth = services.NewAuthService(deps, cfg.JWTSecret, cfg.AdminEmails).WithDefaultCurrency(cfg.DefaultCurrency)
	catalogService := services.NewCatalogService(deps)
	orderService := services.NewOrderService(deps, a.Bridge, services.Fees{Service: cfg.ServiceFee, Delivery: cfg.DeliveryFee})
	lifecycleService := services.NewLifecycleService(deps)
	invoiceService := services.NewInvoiceService(deps)
	customOrderService := services.NewCustomOrderService(deps)
	walletService := services.NewWalletService(deps, a.Bridge)
	notificationService := services.NewNotificationService(deps)
	paymentService := services.NewPaymentService(deps, a.Bridge)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(a.Auth, log)
	productHandler := handlers.NewProductHandler(catalogService, log)
	orderHandler := handlers.NewOrderHandler(orderService, lifecycleService, log)
	customOrderHandler := handlers.NewCustomOrderHandler(customOrderService, lifecycleService, invoiceService, log)
	walletHandler := handlers.NewWalletHandler(walletService, log)
	notificationHandler := handlers.NewNotificationHandler(notificationService, log)
	paymentHandler := handlers.NewPaymentHandler(paymentService, a.Bridge, log)

	// --- Fiber App ---
	app := fiber.New(fiber.Config{AppName: "storefront"})
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"rabbitMQ": a.mq != nil,
			"currency": formatter.Base(),
		})
	})

	// --- API Routes ---
	apiV1 := app.Group("/api/v1", limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	// Public routes
	authHandler.RegisterRoutes(apiV1)
	paymentHandler.RegisterPublicRoutes(apiV1)

	// Protected routes (require JWT authentication)
	protected := apiV1.Group("", middleware.AuthRequired(a.Auth, log))
	productHandler.RegisterRoutes(protected)
	orderHandler.RegisterRoutes(protected)
	customOrderHandler.RegisterRoutes(protected)
	walletHandler.RegisterRoutes(protected)
	notificationHandler.RegisterRoutes(protected)
	paymentHandler.RegisterRoutes(protected)

	admin := protected.Group("/admin", middleware.AdminRequired())
	productHandler.RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)
	customOrderHandler.RegisterAdminRoutes(admin)

	a.Fiber = app
	return a, nil
}

// ConsumeEvents logs every event published on the bus. It is a no-op when
// RabbitMQ is not configured.
func (a *App) ConsumeEvents(log zerolog.Logger) error {
	if a.mq == nil {
		return nil
	}
	return a.mq.ConsumeEvents(rabbitmq.DefaultQueue, func(msg amqp.Delivery) error {
		log.Info().Str("routing_key", msg.RoutingKey).RawJSON("event", msg.Body).Msg("event received")
		return nil
	})
}

// Close releases the connections owned by the app in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
