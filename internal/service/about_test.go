package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tahircanyildiz/blog-website/internal/apperror"
)

func TestAboutGet_BeforeFirstSave(t *testing.T) {
	svc := NewAboutService(&fakeAboutRepo{}, discardLogger())

	_, err := svc.Get(context.Background())
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
	if err.Error() != "about information not found" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestAboutUpsert_CreateRequiresCoreFields(t *testing.T) {
	repo := &fakeAboutRepo{}
	svc := NewAboutService(repo, discardLogger())

	_, _, err := svc.Upsert(context.Background(), AboutInput{Name: strPtr("Tahir")})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Upsert() error = %v, want ErrValidation", err)
	}
	fields := fieldsOf(err)
	if len(fields) != 2 || fields[0] != "description" || fields[1] != "title" {
		t.Errorf("failing fields = %v, want [description title]", fields)
	}
	if repo.saves != 0 {
		t.Error("nothing should be saved when validation fails")
	}
}

func TestAboutUpsert_CreateThenUpdate(t *testing.T) {
	repo := &fakeAboutRepo{}
	svc := NewAboutService(repo, discardLogger())

	about, created, err := svc.Upsert(context.Background(), AboutInput{
		Name:         strPtr(" Tahir "),
		Title:        strPtr("Developer"),
		Description:  strPtr("Writes Go."),
		Technologies: &[]string{"Go", " ", "SQLite"},
	})
	if err != nil {
		t.Fatalf("Upsert() create error = %v", err)
	}
	if !created {
		t.Error("first Upsert() should report created")
	}
	if about.Name != "Tahir" {
		t.Errorf("Name = %q, want trimmed", about.Name)
	}
	if len(about.Technologies) != 2 {
		t.Errorf("Technologies = %v, want blanks dropped", about.Technologies)
	}

	// A partial update keeps everything it does not mention.
	about, created, err = svc.Upsert(context.Background(), AboutInput{Title: strPtr("Engineer")})
	if err != nil {
		t.Fatalf("Upsert() update error = %v", err)
	}
	if created {
		t.Error("second Upsert() should report an update")
	}
	if about.Title != "Engineer" || about.Name != "Tahir" || about.Description != "Writes Go." {
		t.Errorf("about after update = %+v", about)
	}
	if len(about.Technologies) != 2 {
		t.Errorf("Technologies = %v, want them kept", about.Technologies)
	}
	if repo.saves != 2 {
		t.Errorf("saves = %d, want 2", repo.saves)
	}
}

func TestAboutUpsert_BlankFieldRejected(t *testing.T) {
	repo := &fakeAboutRepo{}
	svc := NewAboutService(repo, discardLogger())
	if _, _, err := svc.Upsert(context.Background(), AboutInput{
		Name: strPtr("a"), Title: strPtr("b"), Description: strPtr("c"),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, _, err := svc.Upsert(context.Background(), AboutInput{Name: strPtr("  ")})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Upsert() error = %v, want ErrValidation", err)
	}
}

func TestAboutUpsert_StoreFailure(t *testing.T) {
	repo := &fakeAboutRepo{err: errors.New("disk I/O error")}
	svc := NewAboutService(repo, discardLogger())

	_, _, err := svc.Upsert(context.Background(), AboutInput{Title: strPtr("x")})
	if err == nil || errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Upsert() error = %v, want an internal error", err)
	}
}
