package auth

import (
	"context"
	"errors"
	"time"

	"campusboard.org/internal/ids"
)

// Session is the result of a successful authentication: the bearer token and
// enough of the identity for the login response.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Identity  *Identity
}

// Service is the authenticator: credential registration, verification and
// token issuance over an IdentityStore.
type Service struct {
	store  IdentityStore
	tokens *TokenIssuer
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithServiceClock overrides the time source (useful for tests).
func WithServiceClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the authenticator.
func NewService(store IdentityStore, tokens *TokenIssuer, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("identity store is required")
	}
	if tokens == nil {
		return nil, errors.New("token issuer is required")
	}
	s := &Service{store: store, tokens: tokens, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register validates the input, hashes the secret and persists a new
// identity. Duplicate username/email surface as the store's sentinel errors.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Identity, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return nil, errs
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	identity := &Identity{
		ID:           ids.New(),
		Username:     in.Username,
		Email:        NormalizeEmail(in.Email),
		Phone:        in.Phone,
		Role:         in.Role,
		Branch:       in.Branch,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// Authenticate verifies an email/password pair and issues a token. Unknown
// email and wrong password both return ErrInvalidCredentials so responses
// never reveal whether an account exists.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	identity, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := VerifyPassword(identity.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	token, expiresAt, err := s.tokens.Issue(identity)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expiresAt, Identity: identity}, nil
}

// Verify validates a bearer token and returns its principal.
func (s *Service) Verify(token string) (Principal, error) {
	return s.tokens.Verify(token)
}

// Count reports registered identities, optionally restricted to one role.
func (s *Service) Count(ctx context.Context, role string) (int64, error) {
	return s.store.Count(ctx, role)
}
