package notice

import "context"

// Store persists notice records. Each mutation is independently atomic per
// record; concurrent edits of the same notice are last-writer-wins. List
// returns notices in creation order.
type Store interface {
	Create(ctx context.Context, n *Notice) error
	Get(ctx context.Context, id string) (*Notice, error)
	List(ctx context.Context) ([]*Notice, error)
	// Update applies a partial update, refreshes updated_at and returns the
	// new state. ErrNotFound for unknown ids.
	Update(ctx context.Context, id string, upd Update) (*Notice, error)
	// Delete removes the record and returns the deleted state so callers can
	// release any attached media.
	Delete(ctx context.Context, id string) (*Notice, error)
	AddComment(ctx context.Context, noticeID string, c Comment) error
	// Vote increments the up or down counter.
	Vote(ctx context.Context, noticeID string, up bool) error
	// Count reports the number of stored notices.
	Count(ctx context.Context) (int64, error)
}
