package payments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Verification is the provider's view of a transaction.
type Verification struct {
	Reference       string
	Status          string
	AmountMinor     int64
	Currency        string
	GatewayResponse string
}

// Paid reports whether the provider settled the transaction.
func (v *Verification) Paid() bool {
	return v.Status == "success"
}

// Verifier confirms a transaction with the payment provider.
type Verifier interface {
	Verify(ctx context.Context, reference string) (*Verification, error)
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Reference       string `json:"reference"`
		Status          string `json:"status"`
		Amount          int64  `json:"amount"`
		Currency        string `json:"currency"`
		GatewayResponse string `json:"gateway_response"`
	} `json:"data"`
}

// PaystackClient verifies transactions against the Paystack REST API.
type PaystackClient struct {
	baseURL   string
	secretKey string
	retries   int
	timeout   time.Duration
	backoff   time.Duration
}

// NewPaystackClient creates a client. retries bounds the number of attempts
// made for transient failures.
func NewPaystackClient(baseURL, secretKey string, retries int, timeout time.Duration) *PaystackClient {
	if retries < 1 {
		retries = 1
	}
	return &PaystackClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		retries:   retries,
		timeout:   timeout,
		backoff:   200 * time.Millisecond,
	}
}

// WithBackoff overrides the delay between attempts.
func (c *PaystackClient) WithBackoff(d time.Duration) *PaystackClient {
	c.backoff = d
	return c
}

// attemptTimeout caps the configured timeout by the context deadline.
func (c *PaystackClient) attemptTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); timeout <= 0 || left < timeout {
			timeout = left
		}
	}
	return timeout
}

// Verify calls GET /transaction/verify/:reference. Transport errors and 5xx
// answers are retried; anything else fails immediately.
func (c *PaystackClient) Verify(ctx context.Context, reference string) (*Verification, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, retryable, err := c.verifyOnce(ctx, reference)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !retryable || attempt == c.retries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrVerificationFailed, lastErr)
}

func (c *PaystackClient) verifyOnce(ctx context.Context, reference string) (*Verification, bool, error) {
	agent := fiber.Get(c.baseURL + "/transaction/verify/" + url.PathEscape(reference))
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.secretKey)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.Timeout(c.attemptTimeout(ctx))

	var resp verifyResponse
	code, _, errs := agent.Struct(&resp)
	if code == 0 || code >= fiber.StatusInternalServerError {
		if len(errs) > 0 {
			return nil, true, errors.Join(errs...)
		}
		return nil, true, fmt.Errorf("provider answered %d", code)
	}
	if code != fiber.StatusOK {
		return nil, false, fmt.Errorf("provider answered %d: %s", code, resp.Message)
	}
	if len(errs) > 0 {
		return nil, false, fmt.Errorf("failed to decode provider response: %w", errors.Join(errs...))
	}
	if !resp.Status {
		return nil, false, fmt.Errorf("provider rejected verification: %s", resp.Message)
	}

	return &Verification{
		Reference:       resp.Data.Reference,
		Status:          resp.Data.Status,
		AmountMinor:     resp.Data.Amount,
		Currency:        resp.Data.Currency,
		GatewayResponse: resp.Data.GatewayResponse,
	}, false, nil
}
