package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"campusboard.org/internal/notice"
)

const noticeColumns = `id, title, description, image, media_ref, video, category, branch,
	author_id, author_username, author_email, upvotes, downvotes, created_at, updated_at`

// Notices returns the notice.Store view of the pool. The separate receiver
// type keeps the identity Create and the notice Create from clashing.
func (s *Store) Notices() notice.Store { return (*noticeStore)(s) }

type noticeStore Store

func (s *noticeStore) Create(ctx context.Context, n *notice.Notice) error {
	_, err := s.db.ExecContext(ctx, `
		insert into notices(id, title, description, image, media_ref, video, category, branch,
			author_id, author_username, author_email, upvotes, downvotes, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, n.ID, n.Title, n.Description, n.Image, n.MediaRef, n.Video, n.Category, n.Branch,
		n.AuthorID, n.AuthorUsername, n.AuthorEmail, n.Upvotes, n.Downvotes, n.CreatedAt, n.UpdatedAt)
	return err
}

func (s *noticeStore) Get(ctx context.Context, id string) (*notice.Notice, error) {
	n, err := scanNotice(s.db.QueryRowContext(ctx,
		`select `+noticeColumns+` from notices where id=$1`, id))
	if err != nil {
		return nil, err
	}
	comments, err := s.comments(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	n.Comments = comments[id]
	return n, nil
}

func (s *noticeStore) List(ctx context.Context) ([]*notice.Notice, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+noticeColumns+` from notices order by created_at asc, id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*notice.Notice
	var ids []string
	for rows.Next() {
		n, err := scanNoticeRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		ids = append(ids, n.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	comments, err := s.comments(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, n := range out {
		n.Comments = comments[n.ID]
	}
	return out, nil
}

// Update applies only the provided fields in one statement and returns the
// new row.
func (s *noticeStore) Update(ctx context.Context, id string, upd notice.Update) (*notice.Notice, error) {
	n, err := scanNotice(s.db.QueryRowContext(ctx, `
		update notices set
			title = coalesce($2, title),
			description = coalesce($3, description),
			image = coalesce($4, image),
			media_ref = coalesce($5, media_ref),
			video = coalesce($6, video),
			category = coalesce($7, category),
			branch = coalesce($8, branch),
			updated_at = $9
		where id = $1
		returning `+noticeColumns+`
	`, id, upd.Title, upd.Description, upd.Image, upd.MediaRef, upd.Video,
		upd.Category, upd.Branch, time.Now().UTC()))
	if err != nil {
		return nil, err
	}
	comments, err := s.comments(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	n.Comments = comments[id]
	return n, nil
}

// Delete removes the row and returns its final state; comments go with it
// via the foreign key cascade.
func (s *noticeStore) Delete(ctx context.Context, id string) (*notice.Notice, error) {
	return scanNotice(s.db.QueryRowContext(ctx,
		`delete from notices where id=$1 returning `+noticeColumns, id))
}

func (s *noticeStore) AddComment(ctx context.Context, noticeID string, c notice.Comment) error {
	res, err := s.db.ExecContext(ctx, `
		insert into notice_comments(id, notice_id, author_id, author_username, text, created_at)
		select $1, id, $3, $4, $5, $6 from notices where id = $2
	`, c.ID, noticeID, c.AuthorID, c.AuthorUsername, c.Text, c.CreatedAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notice.ErrNotFound
	}
	return nil
}

func (s *noticeStore) Vote(ctx context.Context, noticeID string, up bool) error {
	column := "downvotes"
	if up {
		column = "upvotes"
	}
	res, err := s.db.ExecContext(ctx,
		`update notices set `+column+` = `+column+` + 1 where id=$1`, noticeID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notice.ErrNotFound
	}
	return nil
}

func (s *noticeStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `select count(*) from notices`).Scan(&n)
	return n, err
}

// comments loads comments for the given notice ids in creation order.
func (s *noticeStore) comments(ctx context.Context, ids []string) (map[string][]notice.Comment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		select notice_id, id, author_id, author_username, text, created_at
		from notice_comments
		where notice_id = any($1)
		order by created_at asc, id asc
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]notice.Comment)
	for rows.Next() {
		var noticeID string
		var c notice.Comment
		if err := rows.Scan(&noticeID, &c.ID, &c.AuthorID, &c.AuthorUsername, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		out[noticeID] = append(out[noticeID], c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotice(row *sql.Row) (*notice.Notice, error) {
	n, err := scanNoticeFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notice.ErrNotFound
	}
	return n, err
}

func scanNoticeRows(rows *sql.Rows) (*notice.Notice, error) {
	return scanNoticeFrom(rows)
}

func scanNoticeFrom(sc rowScanner) (*notice.Notice, error) {
	var n notice.Notice
	err := sc.Scan(&n.ID, &n.Title, &n.Description, &n.Image, &n.MediaRef, &n.Video,
		&n.Category, &n.Branch, &n.AuthorID, &n.AuthorUsername, &n.AuthorEmail,
		&n.Upvotes, &n.Downvotes, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
