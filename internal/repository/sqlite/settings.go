package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/tahircanyildiz/blog-website/internal/model"
	"github.com/tahircanyildiz/blog-website/internal/repository"
)

var _ repository.SettingsRepository = (*SettingsStore)(nil)

// SettingsStore persists the site settings as the single row of the settings table.
type SettingsStore struct {
	conn *sql.DB
}

// GetOrCreate returns the settings row, inserting the defaults first if the
// table is empty. INSERT OR IGNORE against the id = 1 primary key means two
// concurrent first requests still end up with one row.
func (s *SettingsStore) GetOrCreate(ctx context.Context) (*model.Settings, error) {
	now := time.Now().UTC()
	_, err := s.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (id, social_media, contact_email, contact_location, created_at, updated_at)
		 VALUES (1, '[]', '', '', ?, ?)`,
		now, now,
	)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: creating default settings")
	}

	var (
		st     model.Settings
		social string
	)
	err = s.conn.QueryRowContext(ctx,
		`SELECT social_media, contact_email, contact_location, created_at, updated_at
		 FROM settings WHERE id = 1`,
	).Scan(&social, &st.ContactInfo.Email, &st.ContactInfo.Location, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: getting settings")
	}

	if st.SocialMedia, err = decodeList[model.SocialLink](social); err != nil {
		return nil, err
	}
	return &st, nil
}

// Save overwrites the settings row. GetOrCreate must have run first.
func (s *SettingsStore) Save(ctx context.Context, settings *model.Settings) error {
	social, err := encodeList(settings.SocialMedia)
	if err != nil {
		return err
	}

	settings.UpdatedAt = time.Now().UTC()
	_, err = s.conn.ExecContext(ctx,
		`UPDATE settings
		 SET social_media = ?, contact_email = ?, contact_location = ?, updated_at = ?
		 WHERE id = 1`,
		social, settings.ContactInfo.Email, settings.ContactInfo.Location, settings.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "sqlite: saving settings")
	}

	if settings.SocialMedia == nil {
		settings.SocialMedia = []model.SocialLink{}
	}
	return nil
}
