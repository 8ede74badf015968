// Package repository declares the storage contracts the services depend on.
//
// Services only see these interfaces; internal/repository/sqlite provides the
// implementation and service tests provide in-memory fakes.
package repository

import (
	"context"

	"github.com/tahircanyildiz/blog-website/internal/model"
)

// UserRepository stores user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	LinkGitHub(ctx context.Context, id string, githubID int64) error
}

// BlogRepository stores blog posts.
type BlogRepository interface {
	Create(ctx context.Context, post *model.BlogPost) error
	GetByID(ctx context.Context, id string) (*model.BlogPost, error)
	// List returns summaries ordered by publish date, newest first.
	List(ctx context.Context) ([]model.BlogSummary, error)
	// IncrementViewCount adds one to the view counter and returns the updated post.
	IncrementViewCount(ctx context.Context, id string) (*model.BlogPost, error)
	Update(ctx context.Context, post *model.BlogPost) error
	Delete(ctx context.Context, id string) error
}

// AboutRepository stores the singleton about profile.
type AboutRepository interface {
	// Get returns apperror.ErrNotFound until the profile has been saved once.
	Get(ctx context.Context) (*model.About, error)
	Save(ctx context.Context, about *model.About) error
}

// ContactRepository stores contact form messages.
type ContactRepository interface {
	Create(ctx context.Context, msg *model.ContactMessage) error
	// List returns every message, newest first.
	List(ctx context.Context) ([]model.ContactMessage, error)
	// MarkRead sets isRead (a no-op when already read) and returns the message.
	MarkRead(ctx context.Context, id string) (*model.ContactMessage, error)
	Delete(ctx context.Context, id string) error
}

// SettingsRepository stores the singleton site settings.
type SettingsRepository interface {
	// GetOrCreate returns the settings, creating the default document on first use.
	GetOrCreate(ctx context.Context) (*model.Settings, error)
	Save(ctx context.Context, settings *model.Settings) error
}
