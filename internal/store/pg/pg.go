// Package pg is the Postgres persistence layer. It rides the pgx stdlib
// driver through database/sql and translates constraint violations into the
// domain's sentinel errors.
package pg

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"campusboard.org/internal/auth"
	"campusboard.org/internal/notice"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrations exposes the embedded SQL migrations for the migrate manager.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Store bundles the identity and notice stores over one pool.
type Store struct {
	db *sql.DB
}

var (
	_ auth.IdentityStore = (*Store)(nil)
	_ notice.Store       = (*noticeStore)(nil)
)

// Open connects to Postgres and tunes the pool.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Ping verifies connectivity, for readiness probes.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Constraint names from the migrations, used to tell the two duplicate
// cases apart on insert.
const (
	constraintUsername = "identities_username_key"
	constraintEmail    = "identities_email_key"
)

// translateUnique maps a 23505 unique violation onto the matching domain
// sentinel; any other error passes through.
func translateUnique(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case constraintUsername:
			return auth.ErrDuplicateUsername
		case constraintEmail:
			return auth.ErrDuplicateEmail
		}
	}
	return err
}
