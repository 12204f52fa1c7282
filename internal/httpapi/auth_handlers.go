package httpapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"campusboard.org/internal/auth"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Branch   string `json:"branch"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      auth.Principal `json:"user"`
}

// handleRegister creates a student or faculty account.
func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	role := req.Role
	if role == "" {
		role = auth.RoleStudent
	}
	if role == auth.RoleAdmin {
		writeError(w, http.StatusBadRequest, "admin accounts are created via the admin endpoint")
		return
	}
	a.register(w, r, auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     role,
		Branch:   req.Branch,
	})
}

// handleAdminRegister creates an admin account. The role is fixed server
// side; a branch is not accepted for admins.
func (a *API) handleAdminRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.register(w, r, auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     auth.RoleAdmin,
	})
}

func (a *API) register(w http.ResponseWriter, r *http.Request, in auth.RegisterInput) {
	identity, err := a.auth.Register(r.Context(), in)
	if err != nil {
		a.handleDomainError(w, err)
		return
	}
	a.audit.Event(r.Context(), "auth.register",
		zap.String("identity_id", identity.ID),
		zap.String("role", identity.Role),
	)
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Registration successful!",
		"user":    principalOf(identity),
	})
}

// handleLogin authenticates any account by email and password.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	a.login(w, r, "")
}

// handleAdminLogin authenticates and additionally requires the admin role.
func (a *API) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	a.login(w, r, auth.RoleAdmin)
}

func (a *API) login(w http.ResponseWriter, r *http.Request, requiredRole string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := a.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		a.handleDomainError(w, err)
		return
	}
	if requiredRole != "" && session.Identity.Role != requiredRole {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}
	a.audit.Event(r.Context(), "auth.login",
		zap.String("identity_id", session.Identity.ID),
		zap.String("role", session.Identity.Role),
	)
	writeJSON(w, http.StatusOK, sessionResponse{
		Success:   true,
		Message:   welcomeMessage(session.Identity.Role),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      principalOf(session.Identity),
	})
}

// handleLogout acknowledges the logout. Tokens are stateless and simply
// expire; the client discards its copy.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		a.audit.Event(r.Context(), "auth.logout", zap.String("identity_id", p.ID))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully!",
	})
}

// handleCheckAuth reports the principal behind the presented token.
func (a *API) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    p,
	})
}

func principalOf(id *auth.Identity) auth.Principal {
	return auth.Principal{
		ID:       id.ID,
		Username: id.Username,
		Email:    id.Email,
		Role:     id.Role,
		Branch:   id.Branch,
	}
}

func welcomeMessage(role string) string {
	switch role {
	case auth.RoleAdmin:
		return "Welcome back, admin!"
	case auth.RoleFaculty:
		return "Welcome back, professor!"
	default:
		return "Login successful!"
	}
}
