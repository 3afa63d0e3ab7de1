package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/vovakirdan/messagely/internal/core"
	"github.com/vovakirdan/messagely/internal/service/users"
	"github.com/vovakirdan/messagely/internal/store"
)

// Username and password constraints for new accounts.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
	MinPasswordLength = 6
)

// Service provides authentication operations.
type Service struct {
	users     *users.Service
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(userService *users.Service, jwtConfig *JWTConfig) *Service {
	return &Service{
		users:     userService,
		jwtConfig: jwtConfig,
	}
}

// Register creates a new user and returns a session token with the profile.
func (s *Service) Register(ctx context.Context, in users.RegisterInput) (string, *store.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if n := len([]rune(in.Username)); n < MinUsernameLength || n > MaxUsernameLength {
		return "", nil, core.Validation("username must be %d to %d characters", MinUsernameLength, MaxUsernameLength)
	}
	if len(in.Password) < MinPasswordLength {
		return "", nil, core.Validation("password must be at least %d characters", MinPasswordLength)
	}

	user, err := s.users.Register(ctx, in)
	if err != nil {
		return "", nil, err
	}

	token, err := GenerateToken(s.jwtConfig, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	return token, user, nil
}

// Login validates credentials and returns a session token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	ok, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", core.Unauthenticated("invalid username or password")
	}

	token, err := GenerateToken(s.jwtConfig, username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return token, nil
}

// ValidateToken validates a session token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := ValidateToken(s.jwtConfig, tokenString)
	if err != nil {
		return nil, core.Wrap(core.ErrCodeUnauthorized, err, "invalid or expired token")
	}
	return claims, nil
}
