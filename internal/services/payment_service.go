package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
	"storefront/internal/payments"
)

// Payment purposes recorded in session metadata. A session only settles the
// purpose it was opened for.
const (
	PurposeOrder         = "order"
	PurposeWalletFunding = "wallet_funding"
)

// PaymentBridge is the part of the payment bridge services depend on.
type PaymentBridge interface {
	Present(ctx context.Context, req payments.PresentRequest) (*payments.Session, error)
	Get(ctx context.Context, reference string) (*payments.Session, error)
}

// StartPaymentInput describes a payment the client wants to make.
type StartPaymentInput struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"omitempty,len=3,alpha"`
	Purpose  string          `json:"purpose" validate:"required,oneof=order wallet_funding"`
}

// PaymentService opens payment sessions for authenticated users.
type PaymentService struct {
	deps   Deps
	bridge PaymentBridge
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(deps Deps, bridge PaymentBridge) *PaymentService {
	return &PaymentService{deps: deps, bridge: bridge}
}

// Start opens a payment session for the actor. The currency defaults to the
// actor's preferred currency.
func (s *PaymentService) Start(ctx context.Context, actor models.Actor, input StartPaymentInput) (*payments.Session, error) {
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	repos := s.deps.Store.Repositories()
	user, err := repos.Users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFound(err, ErrProfileNotFound, actor.UserID)
	}

	code := strings.ToUpper(input.Currency)
	if code == "" {
		code = s.deps.preferredCurrency(ctx, repos, actor.UserID)
	}
	if !s.deps.Formatter.Supported(code) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, code)
	}

	return s.bridge.Present(ctx, payments.PresentRequest{
		UserID:   user.ID,
		Email:    user.Email,
		Amount:   input.Amount,
		Currency: code,
		Metadata: map[string]string{
			"purpose": input.Purpose,
			"user_id": user.ID,
		},
	})
}

// Session returns a session owned by the actor.
func (s *PaymentService) Session(ctx context.Context, actor models.Actor, reference string) (*payments.Session, error) {
	session, err := s.bridge.Get(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(session.UserID) && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: %s", payments.ErrSessionNotFound, reference)
	}
	return session, nil
}

// settledSession returns the session behind reference if it belongs to the
// actor, was opened for purpose and resolved to success.
func settledSession(ctx context.Context, bridge PaymentBridge, actor models.Actor, reference, purpose string) (*payments.Session, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: payment reference is required", ErrPaymentNotSettled)
	}
	session, err := bridge.Get(ctx, reference)
	if err != nil {
		if errors.Is(err, payments.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: unknown reference %s", ErrPaymentNotSettled, reference)
		}
		return nil, err
	}
	if !actor.Owns(session.UserID) {
		return nil, fmt.Errorf("%w: reference %s belongs to another user", ErrPaymentMismatch, reference)
	}
	if session.Metadata["purpose"] != purpose {
		return nil, fmt.Errorf("%w: reference %s was not opened for %s", ErrPaymentMismatch, reference, purpose)
	}
	if !session.Succeeded() {
		return nil, fmt.Errorf("%w: %s", ErrPaymentNotSettled, reference)
	}
	return session, nil
}
