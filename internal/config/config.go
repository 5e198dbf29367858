package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// Config holds the application settings.
type Config struct {
	AppPort           string
	DatabaseDriver    string
	DatabaseDSN       string
	JWTSecret         string
	AdminEmails       []string
	RabbitMQURL       string
	RedisAddr         string
	LogLevel          string
	LogPretty         bool
	AtomicSideEffects bool

	BaseCurrency    string
	DefaultCurrency string
	CurrencyLocale  language.Tag
	CurrencyRates   map[string]decimal.Decimal
	ServiceFee      decimal.Decimal
	DeliveryFee     decimal.Decimal

	Paystack PaystackConfig
}

// PaystackConfig holds the payment provider settings.
type PaystackConfig struct {
	PublicKey       string
	SecretKey       string
	BaseURL         string
	ReferencePrefix string
	SessionTTL      time.Duration
	VerifyRetries   int
	VerifyTimeout   time.Duration
	// AllowUnverified accepts payment results without a secret key. Development only.
	AllowUnverified bool
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:storefront.db?cache=shared")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ADMIN_EMAILS", []string{})
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("ATOMIC_SIDE_EFFECTS", true)

	v.SetDefault("BASE_CURRENCY", "NGN")
	v.SetDefault("DEFAULT_CURRENCY", "NGN")
	v.SetDefault("CURRENCY_LOCALE", "en")
	v.SetDefault("CURRENCY_RATES", map[string]string{
		"USD": "1500",
		"GBP": "1900",
		"EUR": "1650",
		"GHS": "100",
	})
	v.SetDefault("SERVICE_FEE", "500")
	v.SetDefault("DELIVERY_FEE", "1500")

	v.SetDefault("PAYSTACK_PUBLIC_KEY", "")
	v.SetDefault("PAYSTACK_SECRET_KEY", "")
	v.SetDefault("PAYSTACK_BASE_URL", "https://api.paystack.co")
	v.SetDefault("PAYMENT_REFERENCE_PREFIX", "TOKO_")
	v.SetDefault("PAYMENT_SESSION_TTL", 15*time.Minute)
	v.SetDefault("PAYMENT_VERIFY_RETRIES", 3)
	v.SetDefault("PAYMENT_VERIFY_TIMEOUT", 10*time.Second)
	v.SetDefault("PAYMENT_ALLOW_UNVERIFIED", false)
}

// Load reads the configuration from defaults, an optional config.yaml in the
// working directory, and environment variables, in increasing precedence.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:           v.GetString("APP_PORT"),
		DatabaseDriver:    strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		AdminEmails:       stringList(v, "ADMIN_EMAILS"),
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogPretty:         v.GetBool("LOG_PRETTY"),
		AtomicSideEffects: v.GetBool("ATOMIC_SIDE_EFFECTS"),
		BaseCurrency:      strings.ToUpper(v.GetString("BASE_CURRENCY")),
		DefaultCurrency:   strings.ToUpper(v.GetString("DEFAULT_CURRENCY")),
		Paystack: PaystackConfig{
			PublicKey:       v.GetString("PAYSTACK_PUBLIC_KEY"),
			SecretKey:       v.GetString("PAYSTACK_SECRET_KEY"),
			BaseURL:         strings.TrimRight(v.GetString("PAYSTACK_BASE_URL"), "/"),
			ReferencePrefix: v.GetString("PAYMENT_REFERENCE_PREFIX"),
			SessionTTL:      v.GetDuration("PAYMENT_SESSION_TTL"),
			VerifyRetries:   v.GetInt("PAYMENT_VERIFY_RETRIES"),
			VerifyTimeout:   v.GetDuration("PAYMENT_VERIFY_TIMEOUT"),
			AllowUnverified: v.GetBool("PAYMENT_ALLOW_UNVERIFIED"),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}
	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}

	locale, err := language.Parse(v.GetString("CURRENCY_LOCALE"))
	if err != nil {
		return nil, fmt.Errorf("invalid CURRENCY_LOCALE: %w", err)
	}
	cfg.CurrencyLocale = locale

	if cfg.CurrencyRates, err = currencyRates(v); err != nil {
		return nil, err
	}

	if cfg.ServiceFee, err = decimal.NewFromString(v.GetString("SERVICE_FEE")); err != nil {
		return nil, fmt.Errorf("invalid SERVICE_FEE: %w", err)
	}
	if cfg.DeliveryFee, err = decimal.NewFromString(v.GetString("DELIVERY_FEE")); err != nil {
		return nil, fmt.Errorf("invalid DELIVERY_FEE: %w", err)
	}
	if cfg.Paystack.VerifyRetries < 1 {
		cfg.Paystack.VerifyRetries = 1
	}

	return cfg, nil
}

// stringList reads key as a list. Environment values may separate items with
// commas or whitespace.
func stringList(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// currencyRates reads CURRENCY_RATES from a config map, a JSON object or a
// list of CODE=rate pairs such as "USD=1500,GBP=1900".
func currencyRates(v *viper.Viper) (map[string]decimal.Decimal, error) {
	raw := make(map[string]string)
	if s, ok := v.Get("CURRENCY_RATES").(string); ok {
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "{") {
			var obj map[string]json.Number
			if err := json.Unmarshal([]byte(s), &obj); err != nil {
				return nil, fmt.Errorf("invalid CURRENCY_RATES: %w", err)
			}
			for code, rate := range obj {
				raw[code] = rate.String()
			}
		} else {
			pairs := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
			for _, pair := range pairs {
				code, rate, found := strings.Cut(pair, "=")
				if !found || strings.TrimSpace(code) == "" {
					return nil, fmt.Errorf("invalid CURRENCY_RATES entry %q, want CODE=rate", pair)
				}
				raw[code] = rate
			}
		}
	} else {
		raw = v.GetStringMapString("CURRENCY_RATES")
	}

	rates := make(map[string]decimal.Decimal, len(raw))
	for code, value := range raw {
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %w", code, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("invalid rate for %s: must be positive", code)
		}
		rates[strings.ToUpper(strings.TrimSpace(code))] = rate
	}
	return rates, nil
}
