package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"campusboard.org/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// Paths reachable without a token. Reads under /api/notices are public too,
// but a valid token still attaches a principal so the listing can widen to
// the caller's audience.
var publicPaths = []string{
	"/healthz",
	"/readyz",
	"/metrics",
	"/api/register",
	"/api/admin/register",
	"/api/login",
	"/api/admin/login",
	"/api/logout",
	"/api/notices",
	"/api/stream",
	"/",
}

var publicPrefixes = []string{
	"/api/notices/",
}

// withAuth verifies bearer tokens. Public paths pass through, with the
// principal attached opportunistically when a valid token is present.
// Everything else requires a token.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			if token, err := extractBearerToken(r.Header.Get(authHeader)); err == nil {
				if principal, err := a.auth.Verify(token); err == nil {
					r = r.WithContext(auth.ContextWithPrincipal(r.Context(), principal))
				}
			}
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		principal, err := a.auth.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				writeError(w, http.StatusUnauthorized, "invalid token")
			} else {
				writeError(w, http.StatusInternalServerError, "authentication error")
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), principal)))
	})
}

// requirePrincipal returns the caller's principal or writes 401.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return auth.Principal{}, false
	}
	return p, true
}

// requireRole returns the principal when it carries the given role; wrong
// role writes 403, missing principal 401.
func requireRole(w http.ResponseWriter, r *http.Request, role string) (auth.Principal, bool) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return auth.Principal{}, false
	}
	if p.Role != role {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return auth.Principal{}, false
	}
	return p, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
