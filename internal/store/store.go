package store

import (
	"context"
	"time"
)

// User is a user profile. It never carries the password hash.
type User struct {
	Username    string
	FirstName   string
	LastName    string
	Phone       string
	JoinAt      time.Time
	LastLoginAt *time.Time // nil until the first login is recorded
}

// UserSummary is the public subset of a profile used in listings and
// message expansions.
type UserSummary struct {
	Username  string
	FirstName string
	LastName  string
	Phone     string
}

// Summary returns the listing view of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

// Message is a persisted message row.
type Message struct {
	ID           int64
	FromUsername string
	ToUsername   string
	Body         string
	SentAt       time.Time
	ReadAt       *time.Time // nil until the recipient marks it read
}

// MessageDetail is a message with both participants expanded.
type MessageDetail struct {
	ID       int64
	FromUser UserSummary
	ToUser   UserSummary
	Body     string
	SentAt   time.Time
	ReadAt   *time.Time
}

// MailboxMessage is a message as listed in a user's inbox or outbox.
// Peer is the recipient for sent messages and the sender for received ones.
type MailboxMessage struct {
	ID     int64
	Peer   UserSummary
	Body   string
	SentAt time.Time
	ReadAt *time.Time
}

// ReadReceipt is the result of marking a message read.
type ReadReceipt struct {
	ID     int64
	ReadAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser inserts a new user. The hash is stored but never read back
	// into a User.
	CreateUser(ctx context.Context, user *User, passwordHash string) error

	// GetUser retrieves a profile by username.
	GetUser(ctx context.Context, username string) (*User, error)

	// GetPasswordHash retrieves the stored credential for username.
	GetPasswordHash(ctx context.Context, username string) (string, error)

	// ListUsers lists all users in natural store order.
	ListUsers(ctx context.Context) ([]*UserSummary, error)

	// UserExists reports whether username is registered.
	UserExists(ctx context.Context, username string) (bool, error)

	// UpdateLastLogin sets last_login_at for username.
	UpdateLastLogin(ctx context.Context, username string, at time.Time) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// CreateMessage persists msg and sets its ID.
	CreateMessage(ctx context.Context, msg *Message) error

	// GetMessage retrieves a message with both participants expanded.
	GetMessage(ctx context.Context, id int64) (*MessageDetail, error)

	// MarkRead sets read_at once. A message that is already read is a conflict.
	MarkRead(ctx context.Context, id int64, at time.Time) (*ReadReceipt, error)

	// ListMessagesFrom lists messages sent by username, peers are recipients.
	ListMessagesFrom(ctx context.Context, username string) ([]*MailboxMessage, error)

	// ListMessagesTo lists messages received by username, peers are senders.
	ListMessagesTo(ctx context.Context, username string) ([]*MailboxMessage, error)
}

// Queries is the set of operations available inside and outside a transaction.
type Queries interface {
	UserStore
	MessageStore
}

// Store aggregates all storage interfaces.
type Store interface {
	Queries

	// WithTx runs fn in one transaction. It commits when fn returns nil and
	// rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, q Queries) error) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close closes the underlying database connection.
	Close() error
}
