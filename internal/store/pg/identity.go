package pg

import (
	"context"
	"database/sql"
	"errors"

	"campusboard.org/internal/auth"
)

const identityColumns = `id, username, email, phone, role, branch, password_hash, created_at, updated_at`

// Create inserts an identity. Username and email uniqueness is enforced by
// the database; collisions come back as ErrDuplicateUsername/ErrDuplicateEmail.
func (s *Store) Create(ctx context.Context, id *auth.Identity) error {
	_, err := s.db.ExecContext(ctx, `
		insert into identities(id, username, email, phone, role, branch, password_hash, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, id.ID, id.Username, id.Email, id.Phone, id.Role, id.Branch, id.PasswordHash, id.CreatedAt, id.UpdatedAt)
	if err != nil {
		return translateUnique(err)
	}
	return nil
}

// FindByID returns the identity or auth.ErrNotFound.
func (s *Store) FindByID(ctx context.Context, id string) (*auth.Identity, error) {
	return s.scanIdentity(s.db.QueryRowContext(ctx,
		`select `+identityColumns+` from identities where id=$1`, id))
}

// FindByUsername looks up by case-insensitive username.
func (s *Store) FindByUsername(ctx context.Context, username string) (*auth.Identity, error) {
	return s.scanIdentity(s.db.QueryRowContext(ctx,
		`select `+identityColumns+` from identities where lower(username)=lower($1)`, username))
}

// FindByEmail looks up by normalized email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	return s.scanIdentity(s.db.QueryRowContext(ctx,
		`select `+identityColumns+` from identities where email=$1`, auth.NormalizeEmail(email)))
}

// ListEmails returns every registered email for notification fan-out.
func (s *Store) ListEmails(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `select email from identities order by email asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}

// Count reports identities, optionally restricted to one role.
func (s *Store) Count(ctx context.Context, role string) (int64, error) {
	var n int64
	var err error
	if role == "" {
		err = s.db.QueryRowContext(ctx, `select count(*) from identities`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `select count(*) from identities where role=$1`, role).Scan(&n)
	}
	return n, err
}

func (s *Store) scanIdentity(row *sql.Row) (*auth.Identity, error) {
	var id auth.Identity
	err := row.Scan(&id.ID, &id.Username, &id.Email, &id.Phone, &id.Role, &id.Branch,
		&id.PasswordHash, &id.CreatedAt, &id.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}
