package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/messagely/internal/dbx"
	"github.com/vovakirdan/messagely/internal/store"
)

// Dialect selects the SQL flavour and driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore implements store.Store on database/sql for SQLite and PostgreSQL.
type SQLStore struct {
	*queries
	db *sql.DB
}

var _ store.Store = (*SQLStore)(nil)

// queries runs statements against either the pool or an open transaction.
type queries struct {
	db      dbx.DBTX
	dialect Dialect
}

// Open connects to the database described by dialect and dsn.
// For SQLite dsn is a file path or ":memory:".
func Open(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	var (
		db  *sql.DB
		err error
	)

	switch dialect {
	case DialectSQLite:
		db, err = sql.Open("sqlite3", sqliteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// SQLite works best with a single connection; it also keeps
		// ":memory:" databases alive across calls.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	case DialectPostgres:
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dialect)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, classify(ctx, err, "ping database")
	}

	return New(db, dialect), nil
}

// New wraps an existing connection pool.
func New(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{
		queries: &queries{db: db, dialect: dialect},
		db:      db,
	}
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
}

// DB returns the underlying pool.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Dialect returns the active SQL dialect.
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

// WithTx runs fn inside a single transaction.
func (s *SQLStore) WithTx(ctx context.Context, fn func(ctx context.Context, q store.Queries) error) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &queries{db: tx, dialect: s.dialect})
	})
	return classify(ctx, err, "transaction")
}

// Ping checks connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return classify(ctx, s.db.PingContext(ctx), "ping database")
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites "?" placeholders to "$n" for PostgreSQL.
// Statements in this package never contain a literal "?".
func (q *queries) rebind(query string) string {
	if q.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
