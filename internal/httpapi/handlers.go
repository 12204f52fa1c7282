// Package httpapi is the HTTP layer: routing, auth middleware, request
// plumbing and the JSON envelope shared by every endpoint.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"campusboard.org/internal/audit"
	"campusboard.org/internal/auth"
	"campusboard.org/internal/media"
	"campusboard.org/internal/notice"
	"campusboard.org/internal/obs"
	"campusboard.org/internal/stream"
)

// ReadyProbe checks backing-store readiness (database ping when present).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config carries the API dependencies and tunables.
type Config struct {
	Auth    *auth.Service
	Notices *notice.Service
	Media   media.Store
	Events  *stream.Hub
	Audit   *audit.Log
	Logger  *zap.Logger

	Ready      ReadyProbe
	Version    string
	CORSOrigin string
	// MaxUploadBytes bounds multipart notice uploads; zero means 10 MiB.
	MaxUploadBytes int64
	RateBurst      int
	RatePerSec     int
	// MaxBodyBytes bounds every request body; zero means 1 MiB.
	MaxBodyBytes int64
}

// API is the HTTP layer.
type API struct {
	mux     *http.ServeMux
	auth    *auth.Service
	notices *notice.Service
	media   media.Store
	events  *stream.Hub
	audit   *audit.Log
	logger  *zap.Logger

	ready          ReadyProbe
	version        string
	corsOrigin     string
	maxUploadBytes int64
	rateBurst      int
	ratePerSec     int
	maxBodyBytes   int64
}

// New wires the routes. Auth and Notices are required; everything else has
// a working default.
func New(cfg Config) (*API, error) {
	if cfg.Auth == nil {
		return nil, errors.New("httpapi: auth service is required")
	}
	if cfg.Notices == nil {
		return nil, errors.New("httpapi: notice service is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Media == nil {
		cfg.Media = media.Disabled{}
	}
	if cfg.Audit == nil {
		cfg.Audit = audit.New(cfg.Logger)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	a := &API{
		mux:            http.NewServeMux(),
		auth:           cfg.Auth,
		notices:        cfg.Notices,
		media:          cfg.Media,
		events:         cfg.Events,
		audit:          cfg.Audit,
		logger:         cfg.Logger,
		ready:          cfg.Ready,
		version:        cfg.Version,
		corsOrigin:     cfg.CORSOrigin,
		maxUploadBytes: cfg.MaxUploadBytes,
		rateBurst:      cfg.RateBurst,
		ratePerSec:     cfg.RatePerSec,
		maxBodyBytes:   cfg.MaxBodyBytes,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/api/register", a.handleRegister)
	a.mux.HandleFunc("/api/admin/register", a.handleAdminRegister)
	a.mux.HandleFunc("/api/login", a.handleLogin)
	a.mux.HandleFunc("/api/admin/login", a.handleAdminLogin)
	a.mux.HandleFunc("/api/logout", a.handleLogout)
	a.mux.HandleFunc("/api/check-auth", a.handleCheckAuth)

	a.mux.HandleFunc("/api/notices", a.handleNoticesCollection)
	a.mux.HandleFunc("/api/notices/", a.handleNoticeResource)
	a.mux.HandleFunc("/api/student/", a.handleStudentNotices)
	a.mux.HandleFunc("/api/faculty/", a.handleFacultyNotices)

	a.mux.HandleFunc("/api/admin/post", a.handleAdminPost)
	a.mux.HandleFunc("/api/admin/post/", a.handleAdminPostResource)
	a.mux.HandleFunc("/api/admin/notices", a.handleAdminNotices)
	a.mux.HandleFunc("/api/admin/dashboard", a.handleAdminDashboard)

	a.mux.HandleFunc("/api/stream", a.Stream)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "resource not found")
	})

	return a, nil
}

// Handler returns the full middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	if a.rateBurst > 0 && a.ratePerSec > 0 {
		h = RateLimit(h, a.rateBurst, a.ratePerSec)
	}
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = a.cors(h)
	h = SecurityHeaders(h)
	h = a.requestID(h)
	h = a.logging(h)
	return obs.Instrument(h)
}

// Healthz reports liveness.
func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "campusboard-api",
		"version": a.version,
	})
}

// Ready reports readiness of the backing store.
func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.ready.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the shared failure envelope.
func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{
		"success": false,
		"message": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleDomainError maps service errors onto status codes and the failure
// envelope.
func (a *API) handleDomainError(w http.ResponseWriter, err error) {
	var verrs auth.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeError(w, http.StatusBadRequest, verrs.Error())
	case errors.Is(err, auth.ErrDuplicateUsername):
		writeError(w, http.StatusBadRequest, "username is already taken")
	case errors.Is(err, auth.ErrDuplicateEmail):
		writeError(w, http.StatusBadRequest, "email is already registered")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, auth.ErrNotFound), errors.Is(err, notice.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	default:
		a.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
