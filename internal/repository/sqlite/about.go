package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/tahircanyildiz/blog-website/internal/apperror"
	"github.com/tahircanyildiz/blog-website/internal/model"
	"github.com/tahircanyildiz/blog-website/internal/repository"
)

var _ repository.AboutRepository = (*AboutStore)(nil)

// AboutStore persists the about profile as the single row of the about table.
type AboutStore struct {
	conn *sql.DB
}

// Get returns the profile, or apperror.ErrNotFound if none was saved yet.
func (s *AboutStore) Get(ctx context.Context) (*model.About, error) {
	var (
		a            model.About
		experiences  string
		technologies string
	)
	err := s.conn.QueryRowContext(ctx,
		`SELECT name, title, description, experiences, technologies, created_at, updated_at
		 FROM about WHERE id = 1`,
	).Scan(&a.Name, &a.Title, &a.Description, &experiences, &technologies, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, notFoundOr(err, apperror.NotFoundMessage("about information not found"), "sqlite: getting about profile")
	}

	if a.Experiences, err = decodeList[string](experiences); err != nil {
		return nil, err
	}
	if a.Technologies, err = decodeList[string](technologies); err != nil {
		return nil, err
	}
	return &a, nil
}

// Save writes the profile, creating the row on first use.
//
// ON CONFLICT(id) DO UPDATE keeps the original created_at, which is read back
// into about afterwards.
func (s *AboutStore) Save(ctx context.Context, about *model.About) error {
	experiences, err := encodeList(about.Experiences)
	if err != nil {
		return err
	}
	technologies, err := encodeList(about.Technologies)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO about (id, name, title, description, experiences, technologies, created_at, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			title = excluded.title,
			description = excluded.description,
			experiences = excluded.experiences,
			technologies = excluded.technologies,
			updated_at = excluded.updated_at`,
		about.Name, about.Title, about.Description, experiences, technologies, now, now,
	)
	if err != nil {
		return errors.Wrap(err, "sqlite: saving about profile")
	}

	err = s.conn.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM about WHERE id = 1`,
	).Scan(&about.CreatedAt, &about.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "sqlite: reading about timestamps")
	}

	if about.Experiences == nil {
		about.Experiences = []string{}
	}
	if about.Technologies == nil {
		about.Technologies = []string{}
	}
	return nil
}
