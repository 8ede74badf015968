package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"

	"github.com/tahircanyildiz/blog-website/internal/apperror"
	"github.com/tahircanyildiz/blog-website/internal/model"
	"github.com/tahircanyildiz/blog-website/internal/repository"
)

var _ repository.BlogRepository = (*BlogStore)(nil)

// msgDuplicateSlug is returned when two titles produce the same slug.
const msgDuplicateSlug = "a blog post with this title already exists"

// BlogStore persists blog posts in the blogs table.
type BlogStore struct {
	conn *sql.DB
}

const blogColumns = `id, title, content, short_description, publish_date, slug, tags, view_count, created_at, updated_at`

// Create inserts a new post and fills in its ID and timestamps.
// The caller sets Slug; a slug that is already taken yields apperror.ErrConflict.
func (s *BlogStore) Create(ctx context.Context, post *model.BlogPost) error {
	tags, err := encodeList(post.Tags)
	if err != nil {
		return err
	}

	post.ID = xid.New().String()
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	post.ViewCount = 0
	if post.Tags == nil {
		post.Tags = []string{}
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO blogs (`+blogColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.Title,
		post.Content,
		post.ShortDescription,
		post.PublishDate.UTC(),
		post.Slug,
		tags,
		post.ViewCount,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(msgDuplicateSlug)
		}
		return errors.Wrapf(err, "sqlite: creating blog post %q", post.Slug)
	}

	return nil
}

// GetByID retrieves a single post without touching its view count.
func (s *BlogStore) GetByID(ctx context.Context, id string) (*model.BlogPost, error) {
	if !validID(id) {
		return nil, apperror.NotFound("blog post", id)
	}
	return s.get(ctx, s.conn, id)
}

func (s *BlogStore) get(ctx context.Context, q queryer, id string) (*model.BlogPost, error) {
	row := q.QueryRowContext(ctx, `SELECT `+blogColumns+` FROM blogs WHERE id = ?`, id)

	post, err := scanBlog(row)
	if err != nil {
		return nil, notFoundOr(err, apperror.NotFound("blog post", id), "sqlite: getting blog post %s", id)
	}
	return post, nil
}

// List returns every post as a summary, newest publish date first.
func (s *BlogStore) List(ctx context.Context) ([]model.BlogSummary, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, title, short_description, publish_date, slug, tags, view_count
		 FROM blogs
		 ORDER BY publish_date DESC, rowid DESC`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: listing blog posts")
	}
	defer rows.Close()

	summaries := make([]model.BlogSummary, 0)
	for rows.Next() {
		var (
			b    model.BlogSummary
			tags string
		)
		if err := rows.Scan(&b.ID, &b.Title, &b.ShortDescription, &b.PublishDate, &b.Slug, &tags, &b.ViewCount); err != nil {
			return nil, errors.Wrap(err, "sqlite: scanning blog summary")
		}
		if b.Tags, err = decodeList[string](tags); err != nil {
			return nil, err
		}
		summaries = append(summaries, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "sqlite: iterating blog posts")
	}

	return summaries, nil
}

// IncrementViewCount adds one view and returns the post as stored afterwards.
//
// The increment happens inside SQLite (view_count = view_count + 1), so
// concurrent readers never lose a count to a read-modify-write race. The
// update and the read share a transaction so the returned count is the one
// this call produced.
func (s *BlogStore) IncrementViewCount(ctx context.Context, id string) (*model.BlogPost, error) {
	if !validID(id) {
		return nil, apperror.NotFound("blog post", id)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: beginning view count transaction")
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE blogs SET view_count = view_count + 1 WHERE id = ?`, id)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite: incrementing view count of %s", id)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: checking rows affected")
	}
	if n == 0 {
		return nil, apperror.NotFound("blog post", id)
	}

	post, err := s.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "sqlite: committing view count")
	}
	return post, nil
}

// Update overwrites the editable fields of a post and bumps UpdatedAt.
// ViewCount and CreatedAt are never written here.
func (s *BlogStore) Update(ctx context.Context, post *model.BlogPost) error {
	if !validID(post.ID) {
		return apperror.NotFound("blog post", post.ID)
	}
	tags, err := encodeList(post.Tags)
	if err != nil {
		return err
	}

	post.UpdatedAt = time.Now().UTC()

	result, err := s.conn.ExecContext(ctx,
		`UPDATE blogs
		 SET title = ?, content = ?, short_description = ?, publish_date = ?, slug = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		post.Title,
		post.Content,
		post.ShortDescription,
		post.PublishDate.UTC(),
		post.Slug,
		tags,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict(msgDuplicateSlug)
		}
		return errors.Wrapf(err, "sqlite: updating blog post %s", post.ID)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "sqlite: checking rows affected")
	}
	if n == 0 {
		return apperror.NotFound("blog post", post.ID)
	}

	return nil
}

// Delete removes a post by ID.
func (s *BlogStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return apperror.NotFound("blog post", id)
	}
	result, err := s.conn.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "sqlite: deleting blog post %s", id)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "sqlite: checking rows affected")
	}
	if n == 0 {
		return apperror.NotFound("blog post", id)
	}

	return nil
}

// queryer is the part of *sql.DB and *sql.Tx used for single-row reads.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanBlog(row rowScanner) (*model.BlogPost, error) {
	var (
		p    model.BlogPost
		tags string
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Content, &p.ShortDescription, &p.PublishDate,
		&p.Slug, &tags, &p.ViewCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Tags, err = decodeList[string](tags); err != nil {
		return nil, err
	}
	return &p, nil
}
