package notice

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campusboard.org/internal/auth"
	"campusboard.org/internal/media"
)

// fakeNoticeStore is a map-backed Store for service tests.
type fakeNoticeStore struct {
	mu    sync.Mutex
	byID  map[string]*Notice
	order []string
}

func newFakeNoticeStore() *fakeNoticeStore {
	return &fakeNoticeStore{byID: make(map[string]*Notice)}
}

func (f *fakeNoticeStore) Create(_ context.Context, n *Notice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *n
	f.byID[n.ID] = &cp
	f.order = append(f.order, n.ID)
	return nil
}

func (f *fakeNoticeStore) Get(_ context.Context, id string) (*Notice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (f *fakeNoticeStore) List(_ context.Context) ([]*Notice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Notice, 0, len(f.order))
	for _, id := range f.order {
		cp := *f.byID[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeNoticeStore) Update(_ context.Context, id string, upd Update) (*Notice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Title != nil {
		n.Title = *upd.Title
	}
	if upd.Description != nil {
		n.Description = *upd.Description
	}
	if upd.Category != nil {
		n.Category = *upd.Category
	}
	if upd.Branch != nil {
		n.Branch = *upd.Branch
	}
	n.UpdatedAt = time.Now().UTC()
	cp := *n
	return &cp, nil
}

func (f *fakeNoticeStore) Delete(_ context.Context, id string) (*Notice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(f.byID, id)
	return n, nil
}

func (f *fakeNoticeStore) AddComment(_ context.Context, noticeID string, c Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[noticeID]
	if !ok {
		return ErrNotFound
	}
	n.Comments = append(n.Comments, c)
	return nil
}

func (f *fakeNoticeStore) Vote(_ context.Context, noticeID string, up bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[noticeID]
	if !ok {
		return ErrNotFound
	}
	if up {
		n.Upvotes++
	} else {
		n.Downvotes++
	}
	return nil
}

func (f *fakeNoticeStore) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.byID)), nil
}

// fakeIdentities satisfies auth.IdentityStore for fan-out tests.
type fakeIdentities struct {
	emails []string
}

func (f *fakeIdentities) Create(context.Context, *auth.Identity) error { return nil }
func (f *fakeIdentities) FindByID(context.Context, string) (*auth.Identity, error) {
	return nil, auth.ErrNotFound
}
func (f *fakeIdentities) FindByUsername(context.Context, string) (*auth.Identity, error) {
	return nil, auth.ErrNotFound
}
func (f *fakeIdentities) FindByEmail(context.Context, string) (*auth.Identity, error) {
	return nil, auth.ErrNotFound
}
func (f *fakeIdentities) ListEmails(context.Context) ([]string, error) { return f.emails, nil }
func (f *fakeIdentities) Count(context.Context, string) (int64, error) {
	return int64(len(f.emails)), nil
}

// recordingMedia counts Delete calls and can be told to fail.
type recordingMedia struct {
	mu      sync.Mutex
	deleted []string
	fail    bool
}

func (m *recordingMedia) Upload(context.Context, string, io.Reader) (media.Asset, error) {
	return media.Asset{}, media.ErrDisabled
}

func (m *recordingMedia) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, ref)
	if m.fail {
		return errors.New("provider unavailable")
	}
	return nil
}

func admin() auth.Principal {
	return auth.Principal{ID: "admin-1", Username: "boss", Email: "boss@example.com", Role: auth.RoleAdmin}
}

func newTestNoticeService(t *testing.T, mediaStore media.Store) (*Service, *fakeNoticeStore) {
	t.Helper()
	store := newFakeNoticeStore()
	svc, err := NewService(store, &fakeIdentities{}, mediaStore, zap.NewNop())
	require.NoError(t, err)
	return svc, store
}

func TestCreateAppliesDefaultsAndAuthor(t *testing.T) {
	svc, _ := newTestNoticeService(t, nil)

	n, err := svc.Create(context.Background(), CreateInput{
		Title:       "Holiday tomorrow",
		Description: "campus closed",
	}, admin())
	require.NoError(t, err)

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, CategoryAll, n.Category)
	assert.Equal(t, BranchAll, n.Branch)
	assert.Equal(t, "admin-1", n.AuthorID)
	assert.Equal(t, "boss", n.AuthorUsername)
	assert.False(t, n.CreatedAt.IsZero())
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc, store := newTestNoticeService(t, nil)

	_, err := svc.Create(context.Background(), CreateInput{Title: "no description"}, admin())
	var verrs auth.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	items, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items, "invalid input must not be persisted")
}

func TestDeleteReleasesMediaExactlyOnce(t *testing.T) {
	rec := &recordingMedia{}
	svc, _ := newTestNoticeService(t, rec)

	n, err := svc.Create(context.Background(), CreateInput{
		Title:       "with attachment",
		Description: "has a file",
		MediaRef:    "asset-42",
	}, admin())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), n.ID))
	assert.Equal(t, []string{"asset-42"}, rec.deleted)

	// A second delete finds no record and must not touch the provider again.
	err = svc.Delete(context.Background(), n.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, rec.deleted, 1)
}

func TestDeleteSurvivesMediaFailure(t *testing.T) {
	rec := &recordingMedia{fail: true}
	svc, store := newTestNoticeService(t, rec)

	n, err := svc.Create(context.Background(), CreateInput{
		Title:       "with attachment",
		Description: "has a file",
		MediaRef:    "asset-43",
	}, admin())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), n.ID), "record deletion must succeed despite provider failure")
	_, err = store.Get(context.Background(), n.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteWithoutMediaSkipsProvider(t *testing.T) {
	rec := &recordingMedia{}
	svc, _ := newTestNoticeService(t, rec)

	n, err := svc.Create(context.Background(), CreateInput{
		Title:       "plain",
		Description: "no file",
	}, admin())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), n.ID))
	assert.Empty(t, rec.deleted)
}

func TestCommentValidation(t *testing.T) {
	svc, _ := newTestNoticeService(t, nil)

	n, err := svc.Create(context.Background(), CreateInput{
		Title:       "open thread",
		Description: "discuss",
	}, admin())
	require.NoError(t, err)

	_, err = svc.Comment(context.Background(), n.ID, admin(), "   ")
	var verrs auth.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	c, err := svc.Comment(context.Background(), n.ID, admin(), "first!")
	require.NoError(t, err)
	assert.Equal(t, "first!", c.Text)

	_, err = svc.Comment(context.Background(), "missing", admin(), "text")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVoteCounters(t *testing.T) {
	svc, store := newTestNoticeService(t, nil)

	n, err := svc.Create(context.Background(), CreateInput{
		Title:       "poll",
		Description: "vote now",
	}, admin())
	require.NoError(t, err)

	require.NoError(t, svc.Vote(context.Background(), n.ID, true))
	require.NoError(t, svc.Vote(context.Background(), n.ID, true))
	require.NoError(t, svc.Vote(context.Background(), n.ID, false))

	got, err := store.Get(context.Background(), n.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Upvotes)
	assert.Equal(t, int64(1), got.Downvotes)

	assert.ErrorIs(t, svc.Vote(context.Background(), "missing", true), ErrNotFound)
}
