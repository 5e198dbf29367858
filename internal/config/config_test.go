package config_test

import (
	"os"
	"testing"
	"time"

	"storefront/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("JWT_SECRET", "secret")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "NGN", cfg.BaseCurrency)
	assert.True(t, cfg.AtomicSideEffects)
	assert.Equal(t, "1500", cfg.CurrencyRates["USD"].String())
	assert.Equal(t, 15*time.Minute, cfg.Paystack.SessionTTL)
	assert.Equal(t, 3, cfg.Paystack.VerifyRetries)
	assert.Equal(t, "500", cfg.ServiceFee.String())
	assert.False(t, cfg.Paystack.AllowUnverified)
	assert.Empty(t, cfg.AdminEmails)
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("JWT_SECRET", "secret")
	v.Set("CURRENCY_RATES", `{"usd": "1600.5"}`)
	v.Set("ADMIN_EMAILS", "ops@example.com admin@example.com")
	v.Set("ATOMIC_SIDE_EFFECTS", "false")
	v.Set("PAYMENT_VERIFY_RETRIES", 0)

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "1600.5", cfg.CurrencyRates["USD"].String())
	assert.Equal(t, []string{"ops@example.com", "admin@example.com"}, cfg.AdminEmails)
	assert.False(t, cfg.AtomicSideEffects)
	assert.Equal(t, 1, cfg.Paystack.VerifyRetries)
}

func TestLoad_ListsFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ADMIN_EMAILS", "a@example.com, b@example.com")
	t.Setenv("CURRENCY_RATES", "USD=1500,gbp=1900.5")
	t.Setenv("PAYMENT_ALLOW_UNVERIFIED", "true")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.AdminEmails)
	require.Len(t, cfg.CurrencyRates, 2)
	assert.Equal(t, "1500", cfg.CurrencyRates["USD"].String())
	assert.Equal(t, "1900.5", cfg.CurrencyRates["GBP"].String())
	assert.True(t, cfg.Paystack.AllowUnverified)
}

func TestLoad_RejectsMalformedRates(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "secret")

	for _, rates := range []string{"USD:1500", "USD=abc", "USD=0", `{"USD": "x"}`, "=12"} {
		t.Setenv("CURRENCY_RATES", rates)
		_, err := config.Load()
		assert.ErrorContains(t, err, "invalid", rates)
	}
}

func TestFromViper_Invalid(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	_, err := config.FromViper(v)
	assert.ErrorContains(t, err, "JWT_SECRET")

	v.Set("JWT_SECRET", "secret")
	v.Set("DATABASE_DRIVER", "mysql")
	_, err = config.FromViper(v)
	assert.ErrorContains(t, err, "DATABASE_DRIVER")

	v.Set("DATABASE_DRIVER", "postgres")
	v.Set("SERVICE_FEE", "abc")
	_, err = config.FromViper(v)
	assert.ErrorContains(t, err, "SERVICE_FEE")
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
