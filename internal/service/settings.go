package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/tahircanyildiz/blog-website/internal/apperror"
	"github.com/tahircanyildiz/blog-website/internal/model"
	"github.com/tahircanyildiz/blog-website/internal/repository"
)

// SettingsService manages the singleton site settings.
type SettingsService struct {
	repo   repository.SettingsRepository
	logger *slog.Logger
}

func NewSettingsService(repo repository.SettingsRepository, logger *slog.Logger) *SettingsService {
	return &SettingsService{repo: repo, logger: logger}
}

// SocialLinkInput is one incoming social media entry. IsActive defaults to true.
type SocialLinkInput struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	IsActive *bool  `json:"isActive"`
}

// Validate implements validation.Validatable so ozzo checks every list item.
func (l SocialLinkInput) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Platform,
			validation.Required.Error("platform is required"),
			validation.By(platformRule),
		),
		validation.Field(&l.URL, validation.By(notBlankRule("url is required"))),
	)
}

// ContactInfoInput is a partial contact block; nil fields are left as they are.
type ContactInfoInput struct {
	Email    *string `json:"email"`
	Location *string `json:"location"`
}

// SocialMediaInput is the body of PUT /api/settings/social-media.
type SocialMediaInput struct {
	SocialMedia *[]SocialLinkInput `json:"socialMedia"`
}

// SettingsInput is the body of PUT /api/settings.
type SettingsInput struct {
	SocialMedia *[]SocialLinkInput `json:"socialMedia"`
	ContactInfo *ContactInfoInput  `json:"contactInfo"`
}

// Get returns the settings, creating the defaults on first access.
func (s *SettingsService) Get(ctx context.Context) (*model.Settings, error) {
	st, err := s.repo.GetOrCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return st, nil
}

// UpdateSocialMedia replaces the whole social media list.
func (s *SettingsService) UpdateSocialMedia(ctx context.Context, in SocialMediaInput) (*model.Settings, error) {
	if in.SocialMedia == nil {
		return nil, apperror.ValidationFailed("socialMedia", "socialMedia must be an array")
	}
	return s.Update(ctx, SettingsInput{SocialMedia: in.SocialMedia})
}

// UpdateContactInfo applies a partial contact block.
func (s *SettingsService) UpdateContactInfo(ctx context.Context, in ContactInfoInput) (*model.Settings, error) {
	return s.Update(ctx, SettingsInput{ContactInfo: &in})
}

// Update applies the supplied parts of the settings document.
func (s *SettingsService) Update(ctx context.Context, in SettingsInput) (*model.Settings, error) {
	if in.ContactInfo != nil {
		trimPtr(in.ContactInfo.Email)
		trimPtr(in.ContactInfo.Location)
		if in.ContactInfo.Email != nil {
			*in.ContactInfo.Email = strings.ToLower(*in.ContactInfo.Email)
		}
	}

	err := validation.ValidateStruct(&in,
		validation.Field(&in.SocialMedia),
		validation.Field(&in.ContactInfo),
	)
	if err := validationError(err); err != nil {
		return nil, err
	}

	st, err := s.repo.GetOrCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	if in.SocialMedia != nil {
		links := make([]model.SocialLink, 0, len(*in.SocialMedia))
		for _, l := range *in.SocialMedia {
			active := true
			if l.IsActive != nil {
				active = *l.IsActive
			}
			links = append(links, model.SocialLink{
				Platform: model.Platform(strings.ToLower(strings.TrimSpace(l.Platform))),
				URL:      strings.TrimSpace(l.URL),
				IsActive: active,
			})
		}
		st.SocialMedia = links
	}
	if in.ContactInfo != nil {
		if in.ContactInfo.Email != nil {
			st.ContactInfo.Email = *in.ContactInfo.Email
		}
		if in.ContactInfo.Location != nil {
			st.ContactInfo.Location = *in.ContactInfo.Location
		}
	}

	if err := s.repo.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}

	s.logger.Info("settings updated",
		slog.Int("socialLinks", len(st.SocialMedia)),
	)
	return st, nil
}

// Validate implements validation.Validatable. A blank email clears the field;
// anything else must look like an address.
func (c ContactInfoInput) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, is.EmailFormat.Error("please enter a valid email address")),
	)
}

func platformRule(value any) error {
	s, _ := value.(string)
	if !model.Platform(strings.ToLower(strings.TrimSpace(s))).Valid() {
		return validation.NewError("validation_platform", "platform is not supported")
	}
	return nil
}

func notBlankRule(message string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return validation.NewError("validation_required", message)
		}
		return nil
	}
}
