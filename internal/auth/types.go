package auth

import (
	"strings"
	"time"
)

// Roles gate access to route classes. A role is assigned at registration and
// never changes; there is deliberately no promotion flow.
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleAdmin   = "admin"
)

// Branches recognised by the campus. Admins carry no branch.
const (
	BranchCSE = "CSE"
	BranchCSM = "CSM"
	BranchCSD = "CSD"
)

// Identity is a registered user record. PasswordHash is a bcrypt hash; the
// plaintext secret never touches storage or logs.
type Identity struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	Branch       string    `json:"branch,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is the authenticated requester attached to a request context.
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Branch   string `json:"branch,omitempty"`
}

// RegisterInput carries the fields of a registration request prior to
// validation and hashing.
type RegisterInput struct {
	Username string
	Email    string
	Phone    string
	Password string
	Role     string
	Branch   string
}

// ValidRole reports whether role is one of the recognised roles.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

// ValidBranch reports whether branch is one of the recognised branches.
func ValidBranch(branch string) bool {
	switch branch {
	case BranchCSE, BranchCSM, BranchCSD:
		return true
	}
	return false
}

// NormalizeEmail lowercases and trims an email identifier. All lookups and
// uniqueness checks run on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
