package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vovakirdan/messagely/internal/core"
	"github.com/vovakirdan/messagely/internal/store"
)

// CreateUser inserts a new user row.
func (q *queries) CreateUser(ctx context.Context, user *store.User, passwordHash string) error {
	query := `
		INSERT INTO users (username, password, first_name, last_name, phone, join_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := q.db.ExecContext(ctx, q.rebind(query),
		user.Username,
		passwordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.JoinAt,
	)
	if err != nil {
		err = classify(ctx, err, "insert user")
		if errors.Is(err, core.ErrConflict) {
			return core.WithMessage(err, "username already taken")
		}
		return err
	}

	return nil
}

// GetUser retrieves a profile by username.
func (q *queries) GetUser(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT username, first_name, last_name, phone, join_at, last_login_at
		FROM users
		WHERE username = ?
	`
	var user store.User
	var lastLogin sql.NullTime
	err := q.db.QueryRowContext(ctx, q.rebind(query), username).Scan(
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.JoinAt,
		&lastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NotFound("no user %q", username)
		}
		return nil, classify(ctx, err, "query user")
	}

	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Time
	}

	return &user, nil
}

// GetPasswordHash retrieves the stored hash for username.
func (q *queries) GetPasswordHash(ctx context.Context, username string) (string, error) {
	query := `SELECT password FROM users WHERE username = ?`

	var hash string
	err := q.db.QueryRowContext(ctx, q.rebind(query), username).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", core.NotFound("no user %q", username)
		}
		return "", classify(ctx, err, "query password")
	}

	return hash, nil
}

// ListUsers lists all users in natural store order.
func (q *queries) ListUsers(ctx context.Context) ([]*store.UserSummary, error) {
	query := `SELECT username, first_name, last_name, phone FROM users`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify(ctx, err, "query users")
	}
	defer rows.Close()

	users := make([]*store.UserSummary, 0)
	for rows.Next() {
		var u store.UserSummary
		if err := rows.Scan(&u.Username, &u.FirstName, &u.LastName, &u.Phone); err != nil {
			return nil, classify(ctx, err, "scan user")
		}
		users = append(users, &u)
	}

	return users, classify(ctx, rows.Err(), "iterate users")
}

// UserExists reports whether username is registered.
func (q *queries) UserExists(ctx context.Context, username string) (bool, error) {
	query := `SELECT 1 FROM users WHERE username = ?`

	var exists int
	err := q.db.QueryRowContext(ctx, q.rebind(query), username).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, classify(ctx, err, "query user existence")
	}

	return true, nil
}

// UpdateLastLogin sets last_login_at for username.
func (q *queries) UpdateLastLogin(ctx context.Context, username string, at time.Time) error {
	query := `UPDATE users SET last_login_at = ? WHERE username = ?`

	result, err := q.db.ExecContext(ctx, q.rebind(query), at, username)
	if err != nil {
		return classify(ctx, err, "update last login")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return classify(ctx, err, "get rows affected")
	}
	if rows == 0 {
		return core.NotFound("no user %q", username)
	}
	return nil
}
