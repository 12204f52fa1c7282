package notice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"campusboard.org/internal/auth"
	"campusboard.org/internal/ids"
	"campusboard.org/internal/mail"
	"campusboard.org/internal/media"
	"campusboard.org/internal/stream"
)

const mediaDeleteTimeout = 15 * time.Second

// Service implements notice operations: admin CRUD, comments, votes,
// audience-filtered reads, media cleanup and notification fan-out.
type Service struct {
	store      Store
	identities auth.IdentityStore
	media      media.Store
	notifier   *mail.Notifier
	events     *stream.Hub
	logger     *zap.Logger
	now        func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithNotifier enables email fan-out on notice creation.
func WithNotifier(n *mail.Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// WithEvents publishes lifecycle events to the hub.
func WithEvents(h *stream.Hub) ServiceOption {
	return func(s *Service) { s.events = h }
}

// NewService constructs the notice service. The media store may be
// media.Disabled{} when no provider is configured.
func NewService(store Store, identities auth.IdentityStore, mediaStore media.Store, logger *zap.Logger, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("notice store is required")
	}
	if identities == nil {
		return nil, errors.New("identity store is required")
	}
	if mediaStore == nil {
		mediaStore = media.Disabled{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:      store,
		identities: identities,
		media:      mediaStore,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create validates and persists a notice, then fans out the notification
// email on a detached goroutine so delivery can never block or fail the
// request.
func (s *Service) Create(ctx context.Context, in CreateInput, author auth.Principal) (*Notice, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return nil, errs
	}
	now := s.now().UTC()
	n := &Notice{
		ID:             ids.New(),
		Title:          in.Title,
		Description:    in.Description,
		Image:          in.Image,
		MediaRef:       in.MediaRef,
		Video:          in.Video,
		Category:       in.Category,
		Branch:         in.Branch,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		AuthorEmail:    author.Email,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, err
	}

	s.publish(EventForCreate(n))
	if s.notifier != nil {
		go s.notifyAll(n)
	}
	return n, nil
}

// Update applies a partial update. The store refreshes updated_at.
func (s *Service) Update(ctx context.Context, id string, upd Update) (*Notice, error) {
	if errs := upd.Validate(); len(errs) > 0 {
		return nil, errs
	}
	n, err := s.store.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.publish(stream.Event{Type: stream.EventUpdated, NoticeID: n.ID, Title: n.Title, Category: n.Category, Branch: n.Branch})
	return n, nil
}

// Delete removes the record, then asks the media provider to drop any
// attached asset. Media deletion is best-effort: a provider failure is
// logged and swallowed, the notice stays deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n.MediaRef != "" {
		mediaCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mediaDeleteTimeout)
		defer cancel()
		if err := s.media.Delete(mediaCtx, n.MediaRef); err != nil {
			s.logger.Warn("media delete failed, record removed anyway",
				zap.String("notice_id", id),
				zap.String("media_ref", n.MediaRef),
				zap.Error(err),
			)
		}
	}
	s.publish(stream.Event{Type: stream.EventDeleted, NoticeID: n.ID, Title: n.Title, Category: n.Category, Branch: n.Branch})
	return nil
}

// Get returns one notice by id.
func (s *Service) Get(ctx context.Context, id string) (*Notice, error) {
	return s.store.Get(ctx, id)
}

// ListAll returns every notice in creation order (admin listing).
func (s *Service) ListAll(ctx context.Context) ([]*Notice, error) {
	return s.store.List(ctx)
}

// ListVisible returns the notices visible to a requester with the given role
// and branch. Empty role means anonymous: only fully generic notices.
func (s *Service) ListVisible(ctx context.Context, requesterRole, requesterBranch string) ([]*Notice, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterVisible(all, requesterRole, requesterBranch), nil
}

// Comment appends a comment by the authenticated principal.
func (s *Service) Comment(ctx context.Context, noticeID string, author auth.Principal, text string) (*Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, auth.ValidationErrors{{Field: "text", Message: "is required"}}
	}
	c := Comment{
		ID:             ids.New(),
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Text:           text,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.AddComment(ctx, noticeID, c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Vote bumps the up or down counter. Votes are monotonic; there is no
// per-user deduplication, matching the product's behavior.
func (s *Service) Vote(ctx context.Context, noticeID string, up bool) error {
	return s.store.Vote(ctx, noticeID, up)
}

// Count reports the number of stored notices.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.store.Count(ctx)
}

// EventForCreate builds the hub event for a freshly created notice.
func EventForCreate(n *Notice) stream.Event {
	return stream.Event{
		Type:     stream.EventCreated,
		NoticeID: n.ID,
		Title:    n.Title,
		Category: n.Category,
		Branch:   n.Branch,
	}
}

func (s *Service) publish(evt stream.Event) {
	if s.events != nil {
		s.events.Publish(evt)
	}
}

// notifyAll runs detached from the request. It resolves the recipient list
// itself because the originating request context may already be gone.
func (s *Service) notifyAll(n *Notice) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	recipients, err := s.identities.ListEmails(ctx)
	cancel()
	if err != nil {
		s.logger.Warn("notification fan-out skipped: listing recipients failed",
			zap.String("notice_id", n.ID),
			zap.Error(err),
		)
		return
	}
	subject := "New notice: " + n.Title
	body := fmt.Sprintf("%s\n\n%s\n\nCategory: %s | Branch: %s\n", n.Title, n.Description, n.Category, n.Branch)
	s.notifier.Notify(recipients, subject, body)
}
