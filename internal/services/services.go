package services

import (
	"context"

	"github.com/rs/zerolog"

	"storefront/internal/currency"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// Store is the persistence the services run on.
type Store interface {
	repositories.Transactor
	Repositories() repositories.Repositories
}

// EventPublisher publishes domain events. Publishing is fire-and-forget:
// failures are logged and never fail the operation that produced the event.
type EventPublisher interface {
	PublishEvent(routingKey string, payload any) error
}

// Deps are shared by every service.
type Deps struct {
	Store     Store
	Formatter *currency.Formatter
	Events    EventPublisher
	Logger    zerolog.Logger
	// AtomicSideEffects runs multi-step status changes in one transaction.
	// When false the steps run one after another and stop at the first failure.
	AtomicSideEffects bool
}

func (d Deps) sideEffects(ctx context.Context, fn func(repos repositories.Repositories) error) error {
	if d.AtomicSideEffects {
		return d.Store.Transaction(ctx, fn)
	}
	return fn(d.Store.Repositories())
}

func (d Deps) publish(routingKey string, payload any) {
	if d.Events == nil {
		return
	}
	if err := d.Events.PublishEvent(routingKey, payload); err != nil {
		d.Logger.Warn().Err(err).Str("routing_key", routingKey).Msg("failed to publish event")
	}
}

// preferredCurrency returns the display currency of userID, falling back to
// the base currency.
func (d Deps) preferredCurrency(ctx context.Context, repos repositories.Repositories, userID string) string {
	profile, err := repos.Profiles.GetByUserID(ctx, userID)
	if err != nil || !d.Formatter.Supported(profile.PreferredCurrency) {
		return d.Formatter.Base()
	}
	return profile.PreferredCurrency
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func requireAdmin(actor models.Actor) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
