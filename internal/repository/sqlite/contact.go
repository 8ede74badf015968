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

var _ repository.ContactRepository = (*ContactStore)(nil)

// ContactStore persists contact form messages.
type ContactStore struct {
	conn *sql.DB
}

const contactColumns = `id, name, email, message, is_read, created_at, updated_at`

// Create inserts a new, unread message.
func (s *ContactStore) Create(ctx context.Context, msg *model.ContactMessage) error {
	msg.ID = xid.New().String()
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	msg.IsRead = false

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO contacts (`+contactColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.Name, msg.Email, msg.Message, msg.IsRead, msg.CreatedAt, msg.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "sqlite: creating contact message")
	}
	return nil
}

// List returns every message, newest first.
func (s *ContactStore) List(ctx context.Context) ([]model.ContactMessage, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: listing contact messages")
	}
	defer rows.Close()

	messages := make([]model.ContactMessage, 0)
	for rows.Next() {
		m, err := scanContact(rows)
		if err != nil {
			return nil, errors.Wrap(err, "sqlite: scanning contact message")
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "sqlite: iterating contact messages")
	}

	return messages, nil
}

// MarkRead flags the message as read and returns it.
//
// The UPDATE only matches unread rows, so updated_at records the first read
// and a read message is never flipped back.
func (s *ContactStore) MarkRead(ctx context.Context, id string) (*model.ContactMessage, error) {
	if !validID(id) {
		return nil, apperror.NotFound("contact message", id)
	}

	_, err := s.conn.ExecContext(ctx,
		`UPDATE contacts SET is_read = 1, updated_at = ? WHERE id = ? AND is_read = 0`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite: marking contact message %s read", id)
	}

	row := s.conn.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id)
	m, err := scanContact(row)
	if err != nil {
		return nil, notFoundOr(err, apperror.NotFound("contact message", id), "sqlite: getting contact message %s", id)
	}
	return m, nil
}

// Delete removes a message by ID.
func (s *ContactStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return apperror.NotFound("contact message", id)
	}
	result, err := s.conn.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "sqlite: deleting contact message %s", id)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "sqlite: checking rows affected")
	}
	if n == 0 {
		return apperror.NotFound("contact message", id)
	}
	return nil
}

func scanContact(row rowScanner) (*model.ContactMessage, error) {
	var m model.ContactMessage
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.IsRead, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
