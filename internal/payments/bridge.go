package payments

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront/internal/currency"
)

const (
	expiredMessage          = "payment session expired"
	unverifiedMessage       = "payment could not be verified"
	defaultSessionTTL       = 15 * time.Minute
	defaultReferenceTries   = 5
	defaultAwaitPollTimeout = 500 * time.Millisecond
)

// Config holds the bridge settings.
type Config struct {
	PublicKey            string
	ReferencePrefix      string
	SessionTTL           time.Duration
	MaxReferenceAttempts int
	// AllowUnverified accepts reported success results when no verifier is
	// configured. Without it such results resolve to an error.
	AllowUnverified bool
}

// PresentRequest describes the payment to collect.
type PresentRequest struct {
	UserID   string
	Email    string
	Amount   decimal.Decimal
	Currency string
	Metadata map[string]string
}

// Bridge hands a payment to the hosted checkout and turns its asynchronous
// callbacks into a single outcome per session.
type Bridge struct {
	store    SessionStore
	verifier Verifier
	cfg      Config
	logger   zerolog.Logger
	now      func() time.Time
	nextRef  func() string
}

// Option customises a Bridge.
type Option func(*Bridge)

// WithClock replaces the bridge's time source.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) { b.now = now }
}

// WithReferenceGenerator replaces the random reference generator.
func WithReferenceGenerator(next func() string) Option {
	return func(b *Bridge) { b.nextRef = next }
}

// NewBridge creates a Bridge. With a nil verifier success results are only
// accepted when cfg.AllowUnverified is set.
func NewBridge(store SessionStore, verifier Verifier, cfg Config, logger zerolog.Logger, opts ...Option) *Bridge {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.MaxReferenceAttempts < 1 {
		cfg.MaxReferenceAttempts = defaultReferenceTries
	}
	b := &Bridge{
		store:    store,
		verifier: verifier,
		cfg:      cfg,
		logger:   logger.With().Str("component", "payments").Logger(),
		now:      time.Now,
	}
	b.nextRef = func() string {
		return fmt.Sprintf("%s%d", b.cfg.ReferencePrefix, rand.Int63n(1_000_000_000_000))
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Present opens a new payment session.
func (b *Bridge) Present(ctx context.Context, req PresentRequest) (*Session, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	now := b.now()
	session := &Session{
		Token:       uuid.NewString(),
		UserID:      req.UserID,
		Email:       req.Email,
		Amount:      req.Amount,
		AmountMinor: currency.ToMinorUnits(req.Amount),
		Currency:    strings.ToUpper(req.Currency),
		Metadata:    req.Metadata,
		CreatedAt:   now,
		ExpiresAt:   now.Add(b.cfg.SessionTTL),
	}

	for attempt := 1; attempt <= b.cfg.MaxReferenceAttempts; attempt++ {
		session.Reference = b.nextRef()
		err := b.store.Create(ctx, session)
		if err == nil {
			b.logger.Info().Str("reference", session.Reference).Int64("amount_minor", session.AmountMinor).
				Str("currency", session.Currency).Msg("payment session opened")
			return session, nil
		}
		if !errors.Is(err, ErrReferenceTaken) {
			return nil, err
		}
		b.logger.Warn().Str("reference", session.Reference).Int("attempt", attempt).Msg("payment reference collision")
	}
	return nil, fmt.Errorf("failed to reserve a payment reference after %d attempts: %w",
		b.cfg.MaxReferenceAttempts, ErrReferenceTaken)
}

// Setup returns the payload handed to the provider's inline checkout.
func (b *Bridge) Setup(session *Session) SetupPayload {
	return SetupPayload{
		Key:              b.cfg.PublicKey,
		Email:            session.Email,
		AmountMinorUnits: session.AmountMinor,
		Currency:         session.Currency,
		Reference:        session.Reference,
		Metadata:         session.Metadata,
	}
}

// Get returns the session. Open sessions past their deadline are resolved to
// the expired error outcome first.
func (b *Bridge) Get(ctx context.Context, reference string) (*Session, error) {
	session, err := b.store.Get(ctx, reference)
	if err != nil {
		return nil, err
	}
	if session.Expired(b.now()) {
		return b.expire(ctx, reference)
	}
	return session, nil
}

func (b *Bridge) expire(ctx context.Context, reference string) (*Session, error) {
	session, err := b.store.Resolve(ctx, reference, Failure(expiredMessage), b.now())
	if errors.Is(err, ErrSessionResolved) {
		return session, nil
	}
	if err != nil {
		return nil, err
	}
	b.logger.Info().Str("reference", reference).Msg("payment session expired")
	return session, nil
}

// Resolve records the result posted by the checkout page. Success results are
// verified with the provider before they are latched.
func (b *Bridge) Resolve(ctx context.Context, reference, token string, outcome Outcome) (*Session, error) {
	if !outcome.Kind.Valid() {
		return nil, ErrInvalidOutcome
	}
	session, err := b.store.Get(ctx, reference)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(session.Token), []byte(token)) != 1 {
		return nil, ErrInvalidToken
	}
	if session.Resolved() {
		return session, ErrSessionResolved
	}
	if session.Expired(b.now()) {
		expired, err := b.expire(ctx, reference)
		if err != nil {
			return nil, err
		}
		return expired, ErrSessionExpired
	}

	if outcome.Kind == OutcomeSuccess {
		outcome = b.verify(ctx, session, outcome)
	}

	resolved, err := b.store.Resolve(ctx, reference, outcome, b.now())
	if err != nil {
		return resolved, err
	}
	b.logger.Info().Str("reference", reference).Str("outcome", string(resolved.Outcome.Kind)).
		Msg("payment session resolved")
	return resolved, nil
}

func (b *Bridge) verify(ctx context.Context, session *Session, outcome Outcome) Outcome {
	if b.verifier == nil {
		if !b.cfg.AllowUnverified {
			b.logger.Error().Str("reference", session.Reference).Msg("no payment verifier configured, rejecting reported success")
			return Failure(unverifiedMessage)
		}
		b.logger.Warn().Str("reference", session.Reference).Msg("no payment verifier configured, accepting reported success")
		return outcome
	}
	v, err := b.verifier.Verify(ctx, session.Reference)
	if err != nil {
		b.logger.Error().Err(err).Str("reference", session.Reference).Msg("payment verification failed")
		return Failure(unverifiedMessage)
	}
	if !v.Paid() {
		return Failure(fmt.Sprintf("payment not completed: %s", v.Status))
	}
	if v.AmountMinor != session.AmountMinor || !strings.EqualFold(v.Currency, session.Currency) {
		b.logger.Error().Str("reference", session.Reference).Int64("expected", session.AmountMinor).
			Int64("got", v.AmountMinor).Str("currency", v.Currency).Msg("payment amount mismatch")
		return Failure("payment amount mismatch")
	}

	response := make(map[string]any, len(outcome.Response)+2)
	for k, v := range outcome.Response {
		response[k] = v
	}
	response["verified"] = true
	response["gateway_response"] = v.GatewayResponse
	return Success(response)
}

// Await blocks until the session has an outcome. It never outlives the
// session deadline because expiry resolves the session to an error.
func (b *Bridge) Await(ctx context.Context, reference string, poll time.Duration) (Outcome, error) {
	if poll <= 0 {
		poll = defaultAwaitPollTimeout
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		session, err := b.Get(ctx, reference)
		if err != nil {
			return Outcome{}, err
		}
		if session.Resolved() {
			return *session.Outcome, nil
		}
		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case <-ticker.C:
		}
	}
}
