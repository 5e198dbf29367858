package payments

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrSessionNotFound is returned for unknown payment references.
	ErrSessionNotFound = errors.New("payments: session not found")
	// ErrSessionResolved is returned when a session already has an outcome.
	ErrSessionResolved = errors.New("payments: session already resolved")
	// ErrSessionExpired is returned when a result arrives after the session expired.
	ErrSessionExpired = errors.New("payments: session expired")
	// ErrReferenceTaken is returned by stores when a reference already exists.
	ErrReferenceTaken = errors.New("payments: reference already exists")
	// ErrInvalidToken is returned when a result is posted with the wrong session token.
	ErrInvalidToken = errors.New("payments: invalid session token")
	// ErrInvalidAmount is returned for non-positive payment amounts.
	ErrInvalidAmount = errors.New("payments: amount must be positive")
	// ErrInvalidOutcome is returned for unknown outcome kinds.
	ErrInvalidOutcome = errors.New("payments: invalid outcome")
	// ErrVerificationFailed is returned when the provider could not confirm a payment.
	ErrVerificationFailed = errors.New("payments: verification failed")
)

// OutcomeKind is the terminal result of a payment presentation.
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeCancel  OutcomeKind = "cancel"
	OutcomeError   OutcomeKind = "error"
)

// Valid reports whether k is one of the three outcomes.
func (k OutcomeKind) Valid() bool {
	return k == OutcomeSuccess || k == OutcomeCancel || k == OutcomeError
}

// Outcome is the single result a payment session resolves to.
type Outcome struct {
	Kind     OutcomeKind    `json:"kind" validate:"required,oneof=success cancel error"`
	Response map[string]any `json:"response,omitempty"`
	Message  string         `json:"message,omitempty"`
}

// Success builds a success outcome carrying the provider response.
func Success(response map[string]any) Outcome {
	return Outcome{Kind: OutcomeSuccess, Response: response}
}

// Cancel builds a cancel outcome.
func Cancel() Outcome {
	return Outcome{Kind: OutcomeCancel}
}

// Failure builds an error outcome.
func Failure(message string) Outcome {
	return Outcome{Kind: OutcomeError, Message: message}
}

// Session is one presentation of the hosted checkout.
type Session struct {
	Reference   string            `json:"reference"`
	Token       string            `json:"token"`
	UserID      string            `json:"user_id"`
	Email       string            `json:"email"`
	Amount      decimal.Decimal   `json:"amount"`
	AmountMinor int64             `json:"amount_minor"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Outcome     *Outcome          `json:"outcome,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
	ResolvedAt  *time.Time        `json:"resolved_at,omitempty"`
}

// Resolved reports whether the session has its outcome.
func (s *Session) Resolved() bool {
	return s.Outcome != nil
}

// Succeeded reports whether the session resolved to success.
func (s *Session) Succeeded() bool {
	return s.Outcome != nil && s.Outcome.Kind == OutcomeSuccess
}

// Expired reports whether an open session outlived its deadline at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.Resolved() && !now.Before(s.ExpiresAt)
}

func (s *Session) clone() *Session {
	c := *s
	if s.Metadata != nil {
		c.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			c.Metadata[k] = v
		}
	}
	if s.Outcome != nil {
		o := *s.Outcome
		c.Outcome = &o
	}
	if s.ResolvedAt != nil {
		t := *s.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

// SetupPayload is handed to the provider's inline checkout setup call.
type SetupPayload struct {
	Key              string            `json:"key"`
	Email            string            `json:"email"`
	AmountMinorUnits int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Reference        string            `json:"ref"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}
