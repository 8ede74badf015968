// Authentication business logic.
//
// AuthService is the business logic layer for authentication. It sits between
// the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// KEY RESPONSIBILITIES:
//   - Register password accounts and log them in
//   - Sign in (and, on first visit, create) GitHub accounts
//   - Keep every auth rule in one place, away from HTTP concerns

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/tahircanyildiz/blog-website/internal/apperror"
	"github.com/tahircanyildiz/blog-website/internal/auth"
	"github.com/tahircanyildiz/blog-website/internal/model"
	"github.com/tahircanyildiz/blog-website/internal/repository"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6

	msgCredentialsTaken = "username or email already in use"
	msgBadCredentials   = "invalid email or password"
)

// unusablePasswordHash is stored for accounts created through GitHub. It is not
// a bcrypt hash, so password login for them always fails.
const unusablePasswordHash = "!github"

// AuthService handles the authentication business logic.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → generate JWTs
//   - passwords  *auth.PasswordService      → bcrypt hashing
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// RegisterInput is the body of POST /api/auth/register.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginInput is the body of POST /api/auth/login.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register validates the input, creates the account and issues a token.
//
// Username and email uniqueness is checked up front so both collisions get the
// same message; the UNIQUE indexes catch the race where two registrations for
// the same name arrive together.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.TrimSpace(in.Role)

	err := validation.ValidateStruct(&in,
		validation.Field(&in.Username,
			validation.Required.Error("username is required"),
			validation.RuneLength(MinUsernameLength, 0).Error("username must be at least 3 characters"),
		),
		validation.Field(&in.Email,
			validation.Required.Error("email is required"),
			is.EmailFormat.Error("please enter a valid email address"),
		),
		validation.Field(&in.Password,
			validation.Required.Error("password is required"),
			validation.RuneLength(MinPasswordLength, 0).Error("password must be at least 6 characters"),
			validation.Length(0, auth.MaxPasswordBytes).Error("password must be 72 bytes or fewer"),
		),
		validation.Field(&in.Role,
			validation.In(string(model.RoleAdmin), string(model.RoleUser)).Error("role must be admin or user"),
		),
	)
	if err := validationError(err); err != nil {
		return nil, err
	}

	role, err := model.ParseRole(in.Role)
	if err != nil {
		return nil, apperror.ValidationFailed("role", "role must be admin or user")
	}

	taken, err := s.users.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: checking existing users: %w", err)
	}
	if taken {
		return nil, apperror.Conflict(msgCredentialsTaken)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.Conflict(msgCredentialsTaken)
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
		slog.String("role", string(user.Role)),
	)

	return s.issue(user)
}

// Login verifies an email/password pair and issues a token.
//
// An unknown email and a wrong password produce the same error, so the
// endpoint cannot be used to discover which addresses have accounts.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	err := validation.ValidateStruct(&in,
		validation.Field(&in.Email,
			validation.Required.Error("email is required"),
			is.EmailFormat.Error("please enter a valid email address"),
		),
		validation.Field(&in.Password,
			validation.Required.Error("password is required"),
		),
	)
	if err := validationError(err); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized(msgBadCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, in.Password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) && user.GitHubID == 0 {
			// A corrupt stored hash is worth knowing about; the caller still
			// just sees bad credentials.
			s.logger.Warn("stored password hash unreadable",
				slog.String("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.Unauthorized(msgBadCredentials)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return s.issue(user)
}

// LoginWithGitHub signs in the owner of a GitHub account.
//
// Lookup order:
//  1. a user already linked to this GitHub id
//  2. a user with the same email, which gets linked
//  3. otherwise a new "user" role account named after the GitHub login
func (s *AuthService) LoginWithGitHub(ctx context.Context, gh *auth.GitHubUser) (*AuthResult, error) {
	if gh == nil || gh.ID == 0 {
		return nil, errors.New("service/auth: GitHub user must not be empty")
	}

	user, err := s.users.FindByGitHubID(ctx, gh.ID)
	if err == nil {
		return s.issue(user)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up GitHub user %d: %w", gh.ID, err)
	}

	if gh.Email == "" {
		return nil, apperror.ValidationFailed("email", "GitHub account has no verified email address")
	}

	user, err = s.users.FindByEmail(ctx, gh.Email)
	switch {
	case err == nil:
		if err := s.users.LinkGitHub(ctx, user.ID, gh.ID); err != nil {
			return nil, fmt.Errorf("service/auth: linking GitHub account: %w", err)
		}
		user.GitHubID = gh.ID
		s.logger.Info("GitHub account linked",
			slog.String("userID", user.ID),
			slog.Int64("githubID", gh.ID),
		)
		return s.issue(user)

	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("service/auth: looking up user by email: %w", err)
	}

	user = &model.User{
		Username:     githubUsername(gh),
		Email:        gh.Email,
		PasswordHash: unusablePasswordHash,
		Role:         model.RoleUser,
		GitHubID:     gh.ID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, apperror.ErrConflict) {
			return nil, fmt.Errorf("service/auth: creating GitHub user: %w", err)
		}
		// The login is taken by a password account; the id suffix is unique.
		user.Username = fmt.Sprintf("%s-%d", githubUsername(gh), gh.ID)
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: creating GitHub user: %w", err)
		}
	}

	s.logger.Info("user registered via GitHub",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func githubUsername(gh *auth.GitHubUser) string {
	name := strings.TrimSpace(gh.Login)
	if len([]rune(name)) < MinUsernameLength {
		name = fmt.Sprintf("github-%d", gh.ID)
	}
	return name
}
