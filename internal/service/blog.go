// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, never *sqlite.DB. Tests pass in-memory
// fakes, and nothing here imports net/http: every rule is a plain Go call.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/tahircanyildiz/blog-website/internal/apperror"
	"github.com/tahircanyildiz/blog-website/internal/model"
	"github.com/tahircanyildiz/blog-website/internal/repository"
)

// MaxShortDescriptionLength caps the teaser shown in blog listings.
const MaxShortDescriptionLength = 200

// BlogService handles business logic for blog posts.
type BlogService struct {
	repo   repository.BlogRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewBlogService creates a new BlogService.
func NewBlogService(repo repository.BlogRepository, logger *slog.Logger) *BlogService {
	return &BlogService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// CreateBlogInput is the body of POST /api/blogs.
// PublishDate accepts RFC 3339 or a plain YYYY-MM-DD date; empty means now.
type CreateBlogInput struct {
	Title            string   `json:"title"`
	Content          string   `json:"content"`
	ShortDescription string   `json:"shortDescription"`
	PublishDate      string   `json:"publishDate"`
	Tags             []string `json:"tags"`
}

// UpdateBlogInput is the body of PUT /api/blogs/{id}. Nil fields are left as they are.
type UpdateBlogInput struct {
	Title            *string   `json:"title"`
	Content          *string   `json:"content"`
	ShortDescription *string   `json:"shortDescription"`
	PublishDate      *string   `json:"publishDate"`
	Tags             *[]string `json:"tags"`
}

// List returns every post as a summary, newest first.
func (s *BlogService) List(ctx context.Context) ([]model.BlogSummary, error) {
	posts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing blog posts: %w", err)
	}
	return posts, nil
}

// Get returns a post and counts the read: every successful call raises the
// view count by exactly one.
func (s *BlogService) Get(ctx context.Context, id string) (*model.BlogPost, error) {
	post, err := s.repo.IncrementViewCount(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Create validates and saves a new post. The slug is derived from the title.
func (s *BlogService) Create(ctx context.Context, in CreateBlogInput) (*model.BlogPost, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.ShortDescription = strings.TrimSpace(in.ShortDescription)
	in.PublishDate = strings.TrimSpace(in.PublishDate)

	err := validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required.Error("title is required")),
		validation.Field(&in.Content, validation.Required.Error("content is required")),
		validation.Field(&in.ShortDescription,
			validation.Required.Error("short description is required"),
			validation.RuneLength(0, MaxShortDescriptionLength).Error("short description must be at most 200 characters"),
		),
		validation.Field(&in.PublishDate, validation.By(dateRule)),
	)
	if err := validationError(err); err != nil {
		return nil, err
	}

	slug := Slugify(in.Title)
	if slug == "" {
		return nil, apperror.ValidationFailed("title", "title must contain at least one letter or digit")
	}

	published := s.now()
	if in.PublishDate != "" {
		published, _ = parseDate(in.PublishDate)
	}

	post := &model.BlogPost{
		Title:            in.Title,
		Content:          in.Content,
		ShortDescription: in.ShortDescription,
		PublishDate:      published,
		Slug:             slug,
		Tags:             cleanList(in.Tags),
	}

	if err := s.repo.Create(ctx, post); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create blog post",
			slog.String("slug", slug),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating blog post: %w", err)
	}

	s.logger.Info("blog post created",
		slog.String("id", post.ID),
		slog.String("slug", post.Slug),
	)
	return post, nil
}

// Update applies a partial update. Supplied text fields must not be blank.
// When the title changes the slug is regenerated from the new title.
func (s *BlogService) Update(ctx context.Context, id string, in UpdateBlogInput) (*model.BlogPost, error) {
	trimPtr(in.Title)
	trimPtr(in.Content)
	trimPtr(in.ShortDescription)
	trimPtr(in.PublishDate)

	err := validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.NilOrNotEmpty.Error("title cannot be empty")),
		validation.Field(&in.Content, validation.NilOrNotEmpty.Error("content cannot be empty")),
		validation.Field(&in.ShortDescription,
			validation.NilOrNotEmpty.Error("short description cannot be empty"),
			validation.RuneLength(0, MaxShortDescriptionLength).Error("short description must be at most 200 characters"),
		),
		validation.Field(&in.PublishDate, validation.By(dateRule)),
	)
	if err := validationError(err); err != nil {
		return nil, err
	}

	post, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}

	if in.Title != nil && *in.Title != post.Title {
		slug := Slugify(*in.Title)
		if slug == "" {
			return nil, apperror.ValidationFailed("title", "title must contain at least one letter or digit")
		}
		post.Title = *in.Title
		post.Slug = slug
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.ShortDescription != nil {
		post.ShortDescription = *in.ShortDescription
	}
	if in.PublishDate != nil && *in.PublishDate != "" {
		post.PublishDate, _ = parseDate(*in.PublishDate)
	}
	if in.Tags != nil {
		post.Tags = cleanList(*in.Tags)
	}

	if err := s.repo.Update(ctx, post); err != nil {
		if errors.Is(err, apperror.ErrConflict) || errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating blog post %s: %w", post.ID, err)
	}

	s.logger.Info("blog post updated",
		slog.String("id", post.ID),
		slog.String("slug", post.Slug),
	)
	return post, nil
}

// Delete removes a post.
func (s *BlogService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, strings.TrimSpace(id)); err != nil {
		return err
	}
	s.logger.Info("blog post deleted", slog.String("id", id))
	return nil
}

// dateLayouts are tried in order by parseDate.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// dateRule is an ozzo rule accepting an empty value or anything parseDate understands.
func dateRule(value any) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	if _, err := parseDate(s); err != nil {
		return validation.NewError("validation_date", "publish date must be a valid date")
	}
	return nil
}
