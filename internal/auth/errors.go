package auth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("auth: not found")
	ErrDuplicateUsername  = errors.New("auth: username already taken")
	ErrDuplicateEmail     = errors.New("auth: email already registered")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrMissingSecret      = errors.New("auth: signing secret is not configured")
)

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors aggregates field errors for one entity. It is returned by
// the per-entity Validate functions and mapped to a 400 at the API boundary.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(parts, "; ")
}

// Validate checks a registration request. It does not consult storage;
// uniqueness is the store's job.
func (in RegisterInput) Validate() ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(in.Username) == "" {
		errs = append(errs, FieldError{Field: "username", Message: "is required"})
	}
	email := NormalizeEmail(in.Email)
	if email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "is required"})
	} else if !strings.Contains(email, "@") {
		errs = append(errs, FieldError{Field: "email", Message: "is not a valid address"})
	}
	if strings.TrimSpace(in.Phone) == "" {
		errs = append(errs, FieldError{Field: "phone", Message: "is required"})
	}
	if in.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "is required"})
	} else if len(in.Password) < 8 {
		errs = append(errs, FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	if !ValidRole(in.Role) {
		errs = append(errs, FieldError{Field: "role", Message: "must be student, faculty or admin"})
	}
	switch in.Role {
	case RoleAdmin:
		if in.Branch != "" {
			errs = append(errs, FieldError{Field: "branch", Message: "must be empty for admins"})
		}
	case RoleStudent, RoleFaculty:
		if !ValidBranch(in.Branch) {
			errs = append(errs, FieldError{Field: "branch", Message: "must be CSE, CSM or CSD"})
		}
	}
	return errs
}
