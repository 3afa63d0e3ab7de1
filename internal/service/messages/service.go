package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vovakirdan/messagely/internal/core"
	"github.com/vovakirdan/messagely/internal/store"
)

// MaxBodyLength bounds a message body in characters.
const MaxBodyLength = 4096

// Publisher receives live notifications. core.Hub implements it.
type Publisher interface {
	Publish(ev *core.Event)
}

// CreateInput holds the fields of a new message.
type CreateInput struct {
	FromUsername string
	ToUsername   string
	Body         string
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

// WithPublisher enables live notifications.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// Service provides message operations.
type Service struct {
	store     store.Store
	publisher Publisher
	timeout   time.Duration
	clock     func() time.Time
}

// New creates a message service.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new unread message and notifies the recipient.
func (s *Service) Create(ctx context.Context, in CreateInput) (*store.Message, error) {
	if strings.TrimSpace(in.Body) == "" {
		return nil, core.Validation("message body is required")
	}
	if len([]rune(in.Body)) > MaxBodyLength {
		return nil, core.Validation("message body exceeds %d characters", MaxBodyLength)
	}
	if in.FromUsername == "" || in.ToUsername == "" {
		return nil, core.Validation("sender and recipient are required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.requireUser(ctx, in.ToUsername, "recipient does not exist"); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, in.FromUsername, "sender does not exist"); err != nil {
		return nil, err
	}

	msg := &store.Message{
		FromUsername: in.FromUsername,
		ToUsername:   in.ToUsername,
		Body:         in.Body,
		SentAt:       s.now(),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		if errors.Is(err, core.ErrValidation) {
			// A participant vanished between the check and the insert.
			err = core.WithMessage(err, "recipient does not exist")
		}
		return nil, fmt.Errorf("create message: %w", err)
	}

	if s.publisher != nil {
		if detail, err := s.store.GetMessage(ctx, msg.ID); err == nil {
			s.publisher.Publish(&core.Event{
				Kind:    core.EventMessageReceived,
				User:    detail.ToUser.Username,
				Message: detail,
			})
		}
	}

	return msg, nil
}

// Get returns a message with both participants expanded.
func (s *Service) Get(ctx context.Context, id int64) (*store.MessageDetail, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.GetMessage(ctx, id)
}

// GetFor returns a message if viewer is one of its participants.
func (s *Service) GetFor(ctx context.Context, id int64, viewer string) (*store.MessageDetail, error) {
	msg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := core.AuthorizeView(msg, viewer); err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkRead sets read_at to now. A message that is already read is a
// conflict and keeps its original read_at.
func (s *Service) MarkRead(ctx context.Context, id int64) (*store.ReadReceipt, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.store.MarkRead(ctx, id, s.now())
}

// MarkReadBy marks a message read on behalf of its recipient and notifies
// the sender.
func (s *Service) MarkReadBy(ctx context.Context, id int64, reader string) (*store.ReadReceipt, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	msg, err := s.store.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := core.AuthorizeMarkRead(msg, reader); err != nil {
		return nil, err
	}

	receipt, err := s.store.MarkRead(ctx, id, s.now())
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.Publish(&core.Event{
			Kind:    core.EventMessageRead,
			User:    msg.FromUser.Username,
			Receipt: receipt,
		})
	}

	return receipt, nil
}

func (s *Service) requireUser(ctx context.Context, username, msg string) error {
	exists, err := s.store.UserExists(ctx, username)
	if err != nil {
		return err
	}
	if !exists {
		return core.Validation("%s", msg)
	}
	return nil
}

func (s *Service) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
