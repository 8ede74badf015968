package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/tahircanyildiz/blog-website/internal/model"
	"github.com/tahircanyildiz/blog-website/internal/repository"
)

// MinContactMessageLength is the shortest message the contact form accepts.
const MinContactMessageLength = 10

// ContactService handles contact form submissions and the admin inbox.
type ContactService struct {
	repo   repository.ContactRepository
	logger *slog.Logger
}

func NewContactService(repo repository.ContactRepository, logger *slog.Logger) *ContactService {
	return &ContactService{repo: repo, logger: logger}
}

// ContactInput is the body of POST /api/contact.
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Create validates a submission and stores it unread.
// Nothing is written when validation fails.
func (s *ContactService) Create(ctx context.Context, in ContactInput) (*model.ContactMessage, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Message = strings.TrimSpace(in.Message)

	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required.Error("name is required")),
		validation.Field(&in.Email,
			validation.Required.Error("email is required"),
			is.EmailFormat.Error("please enter a valid email address"),
		),
		validation.Field(&in.Message,
			validation.Required.Error("message is required"),
			validation.RuneLength(MinContactMessageLength, 0).Error("message must be at least 10 characters"),
		),
	)
	if err := validationError(err); err != nil {
		return nil, err
	}

	msg := &model.ContactMessage{Name: in.Name, Email: in.Email, Message: in.Message}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating contact message: %w", err)
	}

	s.logger.Info("contact message received", slog.String("id", msg.ID))
	return msg, nil
}

// List returns the inbox, newest first.
func (s *ContactService) List(ctx context.Context) ([]model.ContactMessage, error) {
	msgs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing contact messages: %w", err)
	}
	return msgs, nil
}

// Get opens a message, marking it read.
func (s *ContactService) Get(ctx context.Context, id string) (*model.ContactMessage, error) {
	return s.repo.MarkRead(ctx, strings.TrimSpace(id))
}

// Delete removes a message.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, strings.TrimSpace(id)); err != nil {
		return err
	}
	s.logger.Info("contact message deleted", slog.String("id", id))
	return nil
}
