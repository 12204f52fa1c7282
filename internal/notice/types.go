package notice

import (
	"errors"
	"strings"
	"time"

	"campusboard.org/internal/auth"
)

// Audience categories. "all" is the public audience; the other values match
// roles.
const (
	CategoryAll     = "all"
	CategoryStudent = "student"
	CategoryFaculty = "faculty"
)

// BranchAll marks a notice addressed to every branch.
const BranchAll = "all"

var (
	ErrNotFound = errors.New("notice: not found")
)

// Notice is a published announcement with audience tags. Comments are
// embedded; vote counters are monotonic and not deduplicated per user,
// matching the product's behavior.
type Notice struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`

	// Image/Video are durable URLs served by the media provider. MediaRef is
	// the provider-side reference used to delete the asset with the notice.
	Image    string `json:"image,omitempty"`
	MediaRef string `json:"-"`
	Video    string `json:"video,omitempty"`

	Category string `json:"category"`
	Branch   string `json:"branch"`

	AuthorID       string `json:"author_id"`
	AuthorUsername string `json:"author_username,omitempty"`
	AuthorEmail    string `json:"author_email,omitempty"`

	Upvotes   int64     `json:"upvotes"`
	Downvotes int64     `json:"downvotes"`
	Comments  []Comment `json:"comments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment is an embedded remark on a notice.
type Comment struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateInput carries the fields of a notice creation request.
type CreateInput struct {
	Title       string
	Description string
	Image       string
	MediaRef    string
	Video       string
	Category    string
	Branch      string
}

// Update is a partial notice update; nil fields are left untouched. Every
// applied update refreshes the updated_at timestamp.
type Update struct {
	Title       *string
	Description *string
	Image       *string
	MediaRef    *string
	Video       *string
	Category    *string
	Branch      *string
}

// ValidCategory reports whether category is a recognised audience category.
func ValidCategory(category string) bool {
	switch category {
	case CategoryAll, CategoryStudent, CategoryFaculty:
		return true
	}
	return false
}

// ValidBranchTag reports whether branch is "all" or a recognised branch.
func ValidBranchTag(branch string) bool {
	return branch == BranchAll || auth.ValidBranch(branch)
}

// Validate checks a creation request and normalizes defaults: empty category
// and branch fall back to "all", mirroring the product's behavior.
func (in *CreateInput) Validate() auth.ValidationErrors {
	var errs auth.ValidationErrors
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		errs = append(errs, auth.FieldError{Field: "title", Message: "is required"})
	}
	if in.Description == "" {
		errs = append(errs, auth.FieldError{Field: "description", Message: "is required"})
	}
	if in.Category == "" {
		in.Category = CategoryAll
	}
	if !ValidCategory(in.Category) {
		errs = append(errs, auth.FieldError{Field: "category", Message: "must be all, student or faculty"})
	}
	if in.Branch == "" {
		in.Branch = BranchAll
	}
	if !ValidBranchTag(in.Branch) {
		errs = append(errs, auth.FieldError{Field: "branch", Message: "must be all, CSE, CSM or CSD"})
	}
	return errs
}

// Validate checks a partial update without touching absent fields.
func (u Update) Validate() auth.ValidationErrors {
	var errs auth.ValidationErrors
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs = append(errs, auth.FieldError{Field: "title", Message: "must not be empty"})
	}
	if u.Description != nil && strings.TrimSpace(*u.Description) == "" {
		errs = append(errs, auth.FieldError{Field: "description", Message: "must not be empty"})
	}
	if u.Category != nil && !ValidCategory(*u.Category) {
		errs = append(errs, auth.FieldError{Field: "category", Message: "must be all, student or faculty"})
	}
	if u.Branch != nil && !ValidBranchTag(*u.Branch) {
		errs = append(errs, auth.FieldError{Field: "branch", Message: "must be all, CSE, CSM or CSD"})
	}
	return errs
}
