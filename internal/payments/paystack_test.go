package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaystackClient_Verify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/TOKO_42", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"reference":"TOKO_42","status":"success","amount":100000,"currency":"NGN","gateway_response":"Successful"}}`))
	}))
	defer srv.Close()

	client := NewPaystackClient(srv.URL, "sk_test", 3, 2*time.Second)
	v, err := client.Verify(context.Background(), "TOKO_42")
	require.NoError(t, err)
	assert.True(t, v.Paid())
	assert.Equal(t, int64(100000), v.AmountMinor)
	assert.Equal(t, "NGN", v.Currency)
}

func TestPaystackClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"reference":"R","status":"success","amount":500,"currency":"NGN"}}`))
	}))
	defer srv.Close()

	client := NewPaystackClient(srv.URL, "sk_test", 3, 2*time.Second).WithBackoff(time.Millisecond)
	v, err := client.Verify(context.Background(), "R")
	require.NoError(t, err)
	assert.Equal(t, int64(500), v.AmountMinor)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestPaystackClient_GivesUpAfterRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewPaystackClient(srv.URL, "sk_test", 2, 2*time.Second).WithBackoff(time.Millisecond)
	_, err := client.Verify(context.Background(), "R")
	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPaystackClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	}))
	defer srv.Close()

	client := NewPaystackClient(srv.URL, "sk_test", 3, 2*time.Second).WithBackoff(time.Millisecond)
	_, err := client.Verify(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPaystackClient_StopsOnCancelledContext(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := NewPaystackClient(srv.URL, "sk_test", 3, 2*time.Second).WithBackoff(time.Millisecond)
	_, err := client.Verify(ctx, "R")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestPaystackClient_AttemptBoundByContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	client := NewPaystackClient(srv.URL, "sk_test", 1, 10*time.Second)

	start := time.Now()
	_, err := client.Verify(ctx, "R")
	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.Less(t, time.Since(start), 2*time.Second)
}
