package memory

import (
	"context"
	"sync"
	"time"

	"campusboard.org/internal/notice"
)

// NoticeStore keeps notices in creation order behind a mutex.
type NoticeStore struct {
	mu    sync.RWMutex
	byID  map[string]*notice.Notice
	order []string
	now   func() time.Time
}

// NewNoticeStore returns an empty NoticeStore.
func NewNoticeStore() *NoticeStore {
	return &NoticeStore{
		byID: make(map[string]*notice.Notice),
		now:  time.Now,
	}
}

// Create inserts the notice and appends it to the listing order.
func (s *NoticeStore) Create(_ context.Context, n *notice.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneNotice(n)
	s.byID[n.ID] = cp
	s.order = append(s.order, n.ID)
	return nil
}

// Get returns one notice by id.
func (s *NoticeStore) Get(_ context.Context, id string) (*notice.Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.byID[id]
	if !ok {
		return nil, notice.ErrNotFound
	}
	return cloneNotice(n), nil
}

// List returns every notice in creation order.
func (s *NoticeStore) List(_ context.Context) ([]*notice.Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*notice.Notice, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneNotice(s.byID[id]))
	}
	return out, nil
}

// Update applies non-nil fields and refreshes updated_at.
func (s *NoticeStore) Update(_ context.Context, id string, upd notice.Update) (*notice.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	if !ok {
		return nil, notice.ErrNotFound
	}
	if upd.Title != nil {
		n.Title = *upd.Title
	}
	if upd.Description != nil {
		n.Description = *upd.Description
	}
	if upd.Image != nil {
		n.Image = *upd.Image
	}
	if upd.MediaRef != nil {
		n.MediaRef = *upd.MediaRef
	}
	if upd.Video != nil {
		n.Video = *upd.Video
	}
	if upd.Category != nil {
		n.Category = *upd.Category
	}
	if upd.Branch != nil {
		n.Branch = *upd.Branch
	}
	n.UpdatedAt = s.now().UTC()
	return cloneNotice(n), nil
}

// Delete removes the notice and returns its final state so the caller can
// release any attached media.
func (s *NoticeStore) Delete(_ context.Context, id string) (*notice.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	if !ok {
		return nil, notice.ErrNotFound
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return n, nil
}

// AddComment appends the comment to the notice.
func (s *NoticeStore) AddComment(_ context.Context, noticeID string, c notice.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[noticeID]
	if !ok {
		return notice.ErrNotFound
	}
	n.Comments = append(n.Comments, c)
	n.UpdatedAt = s.now().UTC()
	return nil
}

// Vote bumps the matching counter.
func (s *NoticeStore) Vote(_ context.Context, noticeID string, up bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[noticeID]
	if !ok {
		return notice.ErrNotFound
	}
	if up {
		n.Upvotes++
	} else {
		n.Downvotes++
	}
	return nil
}

// Count reports the number of stored notices.
func (s *NoticeStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}

func cloneNotice(n *notice.Notice) *notice.Notice {
	cp := *n
	if n.Comments != nil {
		cp.Comments = make([]notice.Comment, len(n.Comments))
		copy(cp.Comments, n.Comments)
	}
	return &cp
}
