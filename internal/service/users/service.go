package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/messagely/internal/core"
	"github.com/vovakirdan/messagely/internal/store"
)

// PasswordHasher turns passwords into stored credentials and checks them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) (bool, error)
}

// RegisterInput holds the fields of a new account.
type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// Option configures a Service.
type Option func(*Service)

// WithStoreTimeout bounds every store round trip made by one call.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.clock = now }
}

// Service provides user account operations.
type Service struct {
	store   store.Store
	hasher  PasswordHasher
	timeout time.Duration
	clock   func() time.Time
}

// New creates a user service.
func New(st store.Store, hasher PasswordHasher, opts ...Option) *Service {
	s := &Service{
		store:  st,
		hasher: hasher,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user and records the registration as its first login.
// Both writes happen in one transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*store.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, core.Validation("username is required")
	}
	if in.Password == "" {
		return nil, core.Validation("password is required")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &store.User{
		Username:  username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		JoinAt:    now,
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.store.WithTx(ctx, func(ctx context.Context, q store.Queries) error {
		if err := q.CreateUser(ctx, user, hash); err != nil {
			return err
		}
		return q.UpdateLastLogin(ctx, username, now)
	})
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", username, err)
	}

	user.LastLoginAt = &now
	return user, nil
}

// Authenticate checks the password for username. An unknown user or a wrong
// password yields false without an error. Success updates last_login_at.
func (s *Service) Authenticate(ctx context.Context, username, password string) (bool, error) {
	hash, err := s.passwordHash(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("authenticate %q: %w", username, err)
	}

	ok, err := s.hasher.Verify(hash, password)
	if err != nil {
		return false, fmt.Errorf("authenticate %q: %w", username, err)
	}
	if !ok {
		return false, nil
	}

	// The hash compare runs outside any store deadline.
	if err := s.UpdateLoginTimestamp(ctx, username); err != nil {
		return false, fmt.Errorf("authenticate %q: %w", username, err)
	}
	return true, nil
}

func (s *Service) passwordHash(ctx context.Context, username string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.GetPasswordHash(ctx, username)
}

// UpdateLoginTimestamp sets last_login_at to now.
func (s *Service) UpdateLoginTimestamp(ctx context.Context, username string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.UpdateLastLogin(ctx, username, s.now())
}

// All lists every user.
func (s *Service) All(ctx context.Context) ([]*store.UserSummary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.ListUsers(ctx)
}

// Get returns the profile of username.
func (s *Service) Get(ctx context.Context, username string) (*store.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.GetUser(ctx, username)
}

// MessagesFrom lists messages sent by username. An unknown user is not found;
// a known user without messages gets an empty list.
func (s *Service) MessagesFrom(ctx context.Context, username string) ([]*store.MailboxMessage, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.mustExist(ctx, username); err != nil {
		return nil, err
	}
	return s.store.ListMessagesFrom(ctx, username)
}

// MessagesTo lists messages received by username.
func (s *Service) MessagesTo(ctx context.Context, username string) ([]*store.MailboxMessage, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.mustExist(ctx, username); err != nil {
		return nil, err
	}
	return s.store.ListMessagesTo(ctx, username)
}

func (s *Service) mustExist(ctx context.Context, username string) error {
	exists, err := s.store.UserExists(ctx, username)
	if err != nil {
		return err
	}
	if !exists {
		return core.NotFound("no user %q", username)
	}
	return nil
}

// now is UTC with microsecond precision, the finest both dialects store.
func (s *Service) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
