package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusboard.org/internal/auth"
	"campusboard.org/internal/ids"
	"campusboard.org/internal/notice"
)

func identity(username, email string) *auth.Identity {
	return &auth.Identity{
		ID:       ids.New(),
		Username: username,
		Email:    email,
		Role:     auth.RoleStudent,
		Branch:   auth.BranchCSE,
	}
}

func TestIdentityStoreUniqueness(t *testing.T) {
	s := NewIdentityStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, identity("ananya", "ananya@example.com")))

	err := s.Create(ctx, identity("ANANYA", "other@example.com"))
	assert.ErrorIs(t, err, auth.ErrDuplicateUsername, "usernames are case-insensitive")

	err = s.Create(ctx, identity("someone", "ananya@example.com"))
	assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
}

func TestIdentityStoreLookups(t *testing.T) {
	s := NewIdentityStore()
	ctx := context.Background()

	id := identity("ananya", "ananya@example.com")
	require.NoError(t, s.Create(ctx, id))

	got, err := s.FindByUsername(ctx, "Ananya")
	require.NoError(t, err)
	assert.Equal(t, id.ID, got.ID)

	got, err = s.FindByEmail(ctx, "ANANYA@example.com")
	require.NoError(t, err)
	assert.Equal(t, id.ID, got.ID)

	_, err = s.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, auth.ErrNotFound)

	// Mutating the returned copy must not affect the store.
	got.Username = "hacked"
	again, err := s.FindByID(ctx, id.ID)
	require.NoError(t, err)
	assert.Equal(t, "ananya", again.Username)
}

// Two concurrent registrations of the same email must produce exactly one
// account.
func TestIdentityStoreConcurrentDuplicateRegistration(t *testing.T) {
	s := NewIdentityStore()
	ctx := context.Background()

	const attempts = 32
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Create(ctx, identity(fmt.Sprintf("user%d", i), "same@example.com"))
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, auth.ErrDuplicateEmail) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)

	n, err := s.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestIdentityStoreCountByRole(t *testing.T) {
	s := NewIdentityStore()
	ctx := context.Background()

	a := identity("a", "a@example.com")
	b := identity("b", "b@example.com")
	b.Role = auth.RoleFaculty
	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.Create(ctx, b))

	students, err := s.Count(ctx, auth.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, int64(1), students)

	admins, err := s.Count(ctx, auth.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(0), admins)
}

func sampleNotice(title string) *notice.Notice {
	return &notice.Notice{
		ID:          ids.New(),
		Title:       title,
		Description: "body",
		Category:    notice.CategoryAll,
		Branch:      notice.BranchAll,
		AuthorID:    "admin-1",
	}
}

func TestNoticeStoreListOrder(t *testing.T) {
	s := NewNoticeStore()
	ctx := context.Background()

	first := sampleNotice("first")
	second := sampleNotice("second")
	third := sampleNotice("third")
	for _, n := range []*notice.Notice{first, second, third} {
		require.NoError(t, s.Create(ctx, n))
	}

	items, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "first", items[0].Title)
	assert.Equal(t, "third", items[2].Title)

	_, err = s.Delete(ctx, second.ID)
	require.NoError(t, err)
	items, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Title)
	assert.Equal(t, "third", items[1].Title)
}

func TestNoticeStoreUpdate(t *testing.T) {
	s := NewNoticeStore()
	ctx := context.Background()

	n := sampleNotice("before")
	require.NoError(t, s.Create(ctx, n))

	title := "after"
	category := notice.CategoryStudent
	got, err := s.Update(ctx, n.ID, notice.Update{Title: &title, Category: &category})
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)
	assert.Equal(t, notice.CategoryStudent, got.Category)
	assert.Equal(t, "body", got.Description, "absent fields stay untouched")
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))

	_, err = s.Update(ctx, "missing", notice.Update{Title: &title})
	assert.ErrorIs(t, err, notice.ErrNotFound)
}

func TestNoticeStoreDeleteReturnsFinalState(t *testing.T) {
	s := NewNoticeStore()
	ctx := context.Background()

	n := sampleNotice("to delete")
	n.MediaRef = "asset-7"
	require.NoError(t, s.Create(ctx, n))

	got, err := s.Delete(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "asset-7", got.MediaRef)

	_, err = s.Delete(ctx, n.ID)
	assert.ErrorIs(t, err, notice.ErrNotFound)
}

func TestNoticeStoreCommentsAndVotes(t *testing.T) {
	s := NewNoticeStore()
	ctx := context.Background()

	n := sampleNotice("thread")
	require.NoError(t, s.Create(ctx, n))

	require.NoError(t, s.AddComment(ctx, n.ID, notice.Comment{ID: ids.New(), Text: "hi"}))
	require.NoError(t, s.Vote(ctx, n.ID, true))
	require.NoError(t, s.Vote(ctx, n.ID, false))

	got, err := s.Get(ctx, n.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, int64(1), got.Upvotes)
	assert.Equal(t, int64(1), got.Downvotes)

	assert.ErrorIs(t, s.AddComment(ctx, "missing", notice.Comment{}), notice.ErrNotFound)
	assert.ErrorIs(t, s.Vote(ctx, "missing", true), notice.ErrNotFound)
}

// Concurrent creates must all land and keep a consistent listing.
func TestNoticeStoreConcurrentCreates(t *testing.T) {
	s := NewNoticeStore()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Create(ctx, sampleNotice(fmt.Sprintf("notice %d", i)))
		}(i)
	}
	wg.Wait()

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, workers)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), count)
}
