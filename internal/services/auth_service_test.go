package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/models"
	"storefront/internal/services"
)

const testSecret = "test-secret"

func TestAuthService_RegisterUser(t *testing.T) {
	e := newEnv(t, true)
	svc := services.NewAuthService(e.deps, testSecret, []string{"Boss@Example.com"})
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, services.RegisterInput{
		Username: "ada", Email: "ada@example.com", Password: "password123", PreferredCurrency: "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))

	profile, err := e.repos.Profiles.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "USD", profile.PreferredCurrency)
	assert.Equal(t, "ada", profile.DisplayName)
	assert.True(t, profile.WalletBalance.IsZero())

	boss, err := svc.RegisterUser(ctx, services.RegisterInput{Username: "boss", Email: "boss@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, boss.Role)

	_, err = svc.RegisterUser(ctx, services.RegisterInput{Username: "ada", Email: "other@example.com", Password: "password123"})
	assert.ErrorIs(t, err, services.ErrUsernameTaken)
	_, err = svc.RegisterUser(ctx, services.RegisterInput{Username: "ada2", Email: "ada@example.com", Password: "password123"})
	assert.ErrorIs(t, err, services.ErrEmailTaken)
	_, err = svc.RegisterUser(ctx, services.RegisterInput{Username: "yen", Email: "yen@example.com", Password: "password123", PreferredCurrency: "JPY"})
	assert.ErrorIs(t, err, services.ErrUnsupportedCurrency)
}

func TestAuthService_RegisterUser_DefaultCurrency(t *testing.T) {
	e := newEnv(t, true)
	svc := services.NewAuthService(e.deps, testSecret, nil).WithDefaultCurrency("gbp")
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, services.RegisterInput{Username: "lin", Email: "lin@example.com", Password: "password123"})
	require.NoError(t, err)
	profile, err := e.repos.Profiles.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "GBP", profile.PreferredCurrency)
}

func TestAuthService_LoginAndValidate(t *testing.T) {
	e := newEnv(t, true)
	svc := services.NewAuthService(e.deps, testSecret, []string{"root@example.com"})
	ctx := context.Background()

	_, err := svc.RegisterUser(ctx, services.RegisterInput{Username: "root", Email: "root@example.com", Password: "password123"})
	require.NoError(t, err)

	token, err := svc.LoginUser(ctx, "root", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "root", claims["username"])

	actor, err := services.ActorFromClaims(claims)
	require.NoError(t, err)
	assert.True(t, actor.IsAdmin())

	_, err = svc.LoginUser(ctx, "root", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	_, err = svc.LoginUser(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestAuthService_ValidateToken_Invalid(t *testing.T) {
	e := newEnv(t, true)
	svc := services.NewAuthService(e.deps, testSecret, nil)

	_, err := svc.ValidateToken("invalid.token.string")
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)

	wrongKey := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u1"})
	signed, err = wrongKey.SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)
}

func TestActorFromClaims(t *testing.T) {
	actor, err := services.ActorFromClaims(jwt.MapClaims{"user_id": "u1", "role": "superuser"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, actor.Role)

	_, err = services.ActorFromClaims(jwt.MapClaims{"role": "admin"})
	assert.Error(t, err)
}
