package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/currency"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput is the data needed to open an account.
type RegisterInput struct {
	Username          string `json:"username" validate:"required,min=3,max=100"`
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=6"`
	DisplayName       string `json:"display_name" validate:"omitempty,max=100"`
	PreferredCurrency string `json:"preferred_currency" validate:"omitempty,len=3,alpha"`
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	store       Store
	formatter   *currency.Formatter
	jwtSecret   []byte
	tokenDurat  time.Duration // Duration for which JWT is valid
	adminEmails map[string]struct{}
	defaultCurr string
	logger      zerolog.Logger
}

// NewAuthService creates a new AuthService. Accounts registered with one of
// adminEmails get the admin role.
func NewAuthService(deps Deps, jwtSecret string, adminEmails []string) *AuthService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &AuthService{
		store:       deps.Store,
		formatter:   deps.Formatter,
		jwtSecret:   []byte(jwtSecret),
		tokenDurat:  24 * time.Hour, // Token valid for 24 hours
		adminEmails: admins,
		logger:      deps.Logger,
	}
}

// WithDefaultCurrency sets the preferred currency of accounts registered
// without one. The base currency is used otherwise.
func (s *AuthService) WithDefaultCurrency(code string) *AuthService {
	s.defaultCurr = strings.ToUpper(code)
	return s
}

// RegisterUser registers a new user with an empty wallet.
func (s *AuthService) RegisterUser(ctx context.Context, input RegisterInput) (*models.User, error) {
	repos := s.store.Repositories()
	// Check if username or email already exists
	if existing, err := repos.Users.GetByUsername(ctx, input.Username); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrUsernameTaken, input.Username)
	}
	if existing, err := repos.Users.GetByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrEmailTaken, input.Email)
	}

	preferred := strings.ToUpper(input.PreferredCurrency)
	if preferred == "" {
		preferred = s.defaultCurr
	}
	if preferred == "" {
		preferred = s.formatter.Base()
	}
	if !s.formatter.Supported(preferred) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, preferred)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: string(hashedPassword),
		Role:     models.RoleCustomer,
	}
	if _, ok := s.adminEmails[strings.ToLower(input.Email)]; ok {
		user.Role = models.RoleAdmin
	}

	err = s.store.Transaction(ctx, func(tx repositories.Repositories) error {
		if err := tx.Users.Create(ctx, user); err != nil {
			if repositories.IsUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrUsernameTaken, input.Username)
			}
			return err
		}
		displayName := input.DisplayName
		if displayName == "" {
			displayName = input.Username
		}
		return tx.Profiles.Create(ctx, &models.Profile{
			UserID:            user.ID,
			DisplayName:       displayName,
			PreferredCurrency: preferred,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

// LoginUser authenticates a user and returns a JWT token if successful.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.Repositories().Users.GetByUsername(ctx, username)
	if err != nil {
		// Unknown usernames and wrong passwords are indistinguishable.
		if !errors.Is(err, repositories.ErrNotFound) {
			s.logger.Error().Err(err).Str("username", username).Msg("failed to look up user")
		}
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	role := user.Role
	if role == "" {
		role = models.RoleCustomer
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     string(role),
		"exp":      now.Add(s.tokenDurat).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// ActorFromClaims turns validated claims into the actor passed to services.
func ActorFromClaims(claims jwt.MapClaims) (models.Actor, error) {
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return models.Actor{}, errors.New("token has no user_id claim")
	}
	role, _ := claims["role"].(string)
	if role != string(models.RoleAdmin) {
		role = string(models.RoleCustomer)
	}
	return models.Actor{UserID: userID, Role: models.Role(role)}, nil
}
