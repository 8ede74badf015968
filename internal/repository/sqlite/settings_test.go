package sqlite

import (
	"context"
	"sync"
	"testing"

	"github.com/tahircanyildiz/blog-website/internal/model"
)

func mustSettings(t *testing.T, db *DB) *model.Settings {
	t.Helper()
	st, err := db.Settings().GetOrCreate(context.Background())
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	return st
}

func TestSettingsGetOrCreate_Defaults(t *testing.T) {
	db := newTestDB(t)

	st := mustSettings(t, db)

	if st.SocialMedia == nil || len(st.SocialMedia) != 0 {
		t.Errorf("SocialMedia = %#v, want empty list", st.SocialMedia)
	}
	if st.ContactInfo.Email != "" || st.ContactInfo.Location != "" {
		t.Errorf("ContactInfo = %+v, want empty", st.ContactInfo)
	}
	if st.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestSettingsGetOrCreate_SingleRow(t *testing.T) {
	db := newTestDB(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := db.Settings().GetOrCreate(context.Background()); err != nil {
				t.Errorf("GetOrCreate() error = %v", err)
			}
		}()
	}
	wg.Wait()

	var rows int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM settings`).Scan(&rows); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if rows != 1 {
		t.Errorf("settings has %d rows, want 1", rows)
	}
}

func TestSettingsSave(t *testing.T) {
	db := newTestDB(t)
	st := mustSettings(t, db)

	st.SocialMedia = []model.SocialLink{
		{Platform: model.PlatformGitHub, URL: "https://github.com/x", IsActive: true},
		{Platform: model.PlatformEmail, URL: "mailto:x@example.com", IsActive: false},
	}
	st.ContactInfo = model.ContactInfo{Email: "me@example.com", Location: "Istanbul"}
	if err := db.Settings().Save(context.Background(), st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got := mustSettings(t, db)
	if len(got.SocialMedia) != 2 {
		t.Fatalf("SocialMedia = %v, want 2 links", got.SocialMedia)
	}
	if got.SocialMedia[0].Platform != model.PlatformGitHub || !got.SocialMedia[0].IsActive {
		t.Errorf("SocialMedia[0] = %+v", got.SocialMedia[0])
	}
	if got.SocialMedia[1].IsActive {
		t.Error("SocialMedia[1].IsActive = true, want false")
	}
	if got.ContactInfo.Location != "Istanbul" {
		t.Errorf("Location = %q, want Istanbul", got.ContactInfo.Location)
	}
}
