package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("JWT_SECRET", "test_jwt_secret")
	v.Set("DATABASE_DSN", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	v.Set("ADMIN_EMAILS", "admin@example.com")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	app, err := NewApp(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func doJSON(t *testing.T, app *App, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Fiber.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"healthy"`)
	assert.Contains(t, string(body), `"rabbitMQ":false`)
}

func TestUnauthenticatedAccess(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/admin/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	app := newTestApp(t)

	login := func(username, email string) string {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"username": username, "email": email, "password": "password123",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"username": username, "password": "password123",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(body, &out))
		return out.Token
	}

	customer := login("customer", "customer@example.com")
	admin := login("admin", "admin@example.com")

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/admin/orders", customer, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/api/v1/admin/orders", admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"total":0`)
}
