package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/tahircanyildiz/blog-website/internal/apperror"
	"github.com/tahircanyildiz/blog-website/internal/model"
	"github.com/tahircanyildiz/blog-website/internal/repository"
)

// AboutService manages the singleton about profile.
type AboutService struct {
	repo   repository.AboutRepository
	logger *slog.Logger
}

func NewAboutService(repo repository.AboutRepository, logger *slog.Logger) *AboutService {
	return &AboutService{repo: repo, logger: logger}
}

// AboutInput is the body of PUT /api/about. Nil fields are left as they are.
type AboutInput struct {
	Name         *string   `json:"name"`
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	Experiences  *[]string `json:"experiences"`
	Technologies *[]string `json:"technologies"`
}

// Get returns the profile, or apperror.ErrNotFound before the first save.
func (s *AboutService) Get(ctx context.Context) (*model.About, error) {
	return s.repo.Get(ctx)
}

// Upsert updates the profile, creating it on first use. created reports which
// of the two happened.
//
// Creating requires name, title and description; updating only requires that
// fields which are supplied are not blank.
func (s *AboutService) Upsert(ctx context.Context, in AboutInput) (about *model.About, created bool, err error) {
	trimPtr(in.Name)
	trimPtr(in.Title)
	trimPtr(in.Description)

	err = validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.NilOrNotEmpty.Error("name cannot be empty")),
		validation.Field(&in.Title, validation.NilOrNotEmpty.Error("title cannot be empty")),
		validation.Field(&in.Description, validation.NilOrNotEmpty.Error("description cannot be empty")),
	)
	if err := validationError(err); err != nil {
		return nil, false, err
	}

	about, err = s.repo.Get(ctx)
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrNotFound):
		created = true
		about = &model.About{}
		err = validation.ValidateStruct(&in,
			validation.Field(&in.Name, validation.Required.Error("name is required")),
			validation.Field(&in.Title, validation.Required.Error("title is required")),
			validation.Field(&in.Description, validation.Required.Error("description is required")),
		)
		if err := validationError(err); err != nil {
			return nil, false, err
		}
	default:
		return nil, false, fmt.Errorf("loading about profile: %w", err)
	}

	if in.Name != nil {
		about.Name = *in.Name
	}
	if in.Title != nil {
		about.Title = *in.Title
	}
	if in.Description != nil {
		about.Description = *in.Description
	}
	if in.Experiences != nil {
		about.Experiences = cleanList(*in.Experiences)
	}
	if in.Technologies != nil {
		about.Technologies = cleanList(*in.Technologies)
	}

	if err := s.repo.Save(ctx, about); err != nil {
		return nil, false, fmt.Errorf("saving about profile: %w", err)
	}

	s.logger.Info("about profile saved", slog.Bool("created", created))
	return about, created, nil
}
