// Package memory provides in-process stores with the same semantics as the
// Postgres ones: uniqueness by constraint, stable creation order, copies out.
// The API server falls back to it when no database is configured, and tests
// use it directly.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"campusboard.org/internal/auth"
)

// IdentityStore is a mutex-guarded map of identities with unique username
// and email, matching the database constraints.
type IdentityStore struct {
	mu         sync.RWMutex
	byID       map[string]*auth.Identity
	byUsername map[string]string
	byEmail    map[string]string
}

// NewIdentityStore returns an empty IdentityStore.
func NewIdentityStore() *IdentityStore {
	return &IdentityStore{
		byID:       make(map[string]*auth.Identity),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

// Create inserts the identity, rejecting duplicate usernames and emails
// under the lock so concurrent registrations cannot both succeed.
func (s *IdentityStore) Create(_ context.Context, id *auth.Identity) error {
	uname := strings.ToLower(id.Username)
	email := auth.NormalizeEmail(id.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUsername[uname]; ok {
		return auth.ErrDuplicateUsername
	}
	if _, ok := s.byEmail[email]; ok {
		return auth.ErrDuplicateEmail
	}
	cp := *id
	s.byID[id.ID] = &cp
	s.byUsername[uname] = id.ID
	s.byEmail[email] = id.ID
	return nil
}

// FindByID returns a copy of the identity or auth.ErrNotFound.
func (s *IdentityStore) FindByID(_ context.Context, id string) (*auth.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(id)
}

// FindByUsername looks up by case-insensitive username.
func (s *IdentityStore) FindByUsername(_ context.Context, username string) (*auth.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[strings.ToLower(username)]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return s.get(id)
}

// FindByEmail looks up by normalized email.
func (s *IdentityStore) FindByEmail(_ context.Context, email string) (*auth.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[auth.NormalizeEmail(email)]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return s.get(id)
}

// ListEmails returns every registered email, sorted for determinism.
func (s *IdentityStore) ListEmails(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.byID))
	for _, ident := range s.byID {
		out = append(out, ident.Email)
	}
	sort.Strings(out)
	return out, nil
}

// Count reports the number of identities, optionally filtered by role.
func (s *IdentityStore) Count(_ context.Context, role string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if role == "" {
		return int64(len(s.byID)), nil
	}
	var n int64
	for _, ident := range s.byID {
		if ident.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *IdentityStore) get(id string) (*auth.Identity, error) {
	ident, ok := s.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *ident
	return &cp, nil
}
