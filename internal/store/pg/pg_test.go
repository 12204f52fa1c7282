package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"campusboard.org/internal/auth"
	"campusboard.org/internal/notice"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &Store{db: db}, mock
}

func TestCreateIdentityTranslatesDuplicates(t *testing.T) {
	cases := []struct {
		constraint string
		want       error
	}{
		{constraintUsername, auth.ErrDuplicateUsername},
		{constraintEmail, auth.ErrDuplicateEmail},
	}
	for _, tc := range cases {
		t.Run(tc.constraint, func(t *testing.T) {
			s, mock := newMockStore(t)
			mock.ExpectExec("insert into identities").
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tc.constraint})

			err := s.Create(context.Background(), &auth.Identity{
				ID:       "id-1",
				Username: "ananya",
				Email:    "ananya@example.com",
				Role:     auth.RoleStudent,
				Branch:   auth.BranchCSE,
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("expectations: %v", err)
			}
		})
	}
}

func TestCreateIdentityPassesOtherErrorsThrough(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("connection reset")
	mock.ExpectExec("insert into identities").WillReturnError(boom)

	err := s.Create(context.Background(), &auth.Identity{ID: "id-1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected passthrough error, got %v", err)
	}
}

func TestFindByEmail(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "username", "email", "phone", "role", "branch", "password_hash", "created_at", "updated_at",
	}).AddRow("id-1", "ananya", "ananya@example.com", "999", "student", "CSE", "hash", now, now)

	mock.ExpectQuery("select .* from identities where email=").
		WithArgs("ananya@example.com").
		WillReturnRows(rows)

	got, err := s.FindByEmail(context.Background(), "ANANYA@Example.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if got.ID != "id-1" || got.Branch != "CSE" {
		t.Fatalf("unexpected identity: %+v", got)
	}
}

func TestFindByEmailNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("select .* from identities where email=").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.FindByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListEmails(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("select email from identities").
		WillReturnRows(sqlmock.NewRows([]string{"email"}).
			AddRow("a@example.com").
			AddRow("b@example.com"))

	emails, err := s.ListEmails(context.Background())
	if err != nil {
		t.Fatalf("ListEmails: %v", err)
	}
	if len(emails) != 2 || emails[0] != "a@example.com" {
		t.Fatalf("unexpected emails: %v", emails)
	}
}

func TestCountByRole(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("select count\\(\\*\\) from identities where role=").
		WithArgs("student").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := s.Count(context.Background(), "student")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 7 {
		t.Fatalf("expected 7, got %d", n)
	}
}

func TestVoteUnknownNotice(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("update notices set upvotes = upvotes \\+ 1").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Notices().Vote(context.Background(), "missing", true)
	if !errors.Is(err, notice.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVoteDown(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("update notices set downvotes = downvotes \\+ 1").
		WithArgs("n-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.Notices().Vote(context.Background(), "n-1", false); err != nil {
		t.Fatalf("Vote: %v", err)
	}
}

func TestAddCommentUnknownNotice(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("insert into notice_comments").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Notices().AddComment(context.Background(), "missing", notice.Comment{ID: "c-1"})
	if !errors.Is(err, notice.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteNoticeReturnsFinalState(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "title", "description", "image", "media_ref", "video", "category", "branch",
		"author_id", "author_username", "author_email", "upvotes", "downvotes", "created_at", "updated_at",
	}).AddRow("n-1", "t", "d", "", "asset-9", "", "all", "all", "a-1", "boss", "boss@example.com", 0, 0, now, now)

	mock.ExpectQuery("delete from notices where id=.* returning").
		WithArgs("n-1").
		WillReturnRows(rows)

	got, err := s.Notices().Delete(context.Background(), "n-1")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got.MediaRef != "asset-9" {
		t.Fatalf("expected media ref back, got %+v", got)
	}
}

func TestDeleteNoticeNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("delete from notices where id=.* returning").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.Notices().Delete(context.Background(), "missing")
	if !errors.Is(err, notice.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
