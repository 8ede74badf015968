package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"

	"github.com/tahircanyildiz/blog-website/internal/apperror"
	"github.com/tahircanyildiz/blog-website/internal/model"
	"github.com/tahircanyildiz/blog-website/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// If *UserStore stops satisfying repository.UserRepository the build fails here,
// not at the place where the store is handed to the service.
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore persists user accounts in the users table.
type UserStore struct {
	conn *sql.DB
}

const userColumns = `id, username, email, password_hash, role, github_id, created_at`

// Create inserts a new user and fills in its ID and CreatedAt.
// A duplicate username, email or GitHub id yields apperror.ErrConflict.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, github_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		nullInt(user.GitHubID),
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("username or email already in use")
		}
		return errors.Wrapf(err, "sqlite: inserting user %q", user.Username)
	}

	return nil
}

// FindByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (s *UserStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	if !validID(id) {
		return nil, apperror.NotFound("user", id)
	}
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		return nil, notFoundOr(err, apperror.NotFound("user", id), "sqlite: getting user %s", id)
	}
	return u, nil
}

// FindByEmail retrieves a user by (already lowercased) email address.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	u, err := scanUser(row)
	if err != nil {
		return nil, notFoundOr(err, apperror.NotFoundMessage("user not found"), "sqlite: getting user by email")
	}
	return u, nil
}

// FindByGitHubID retrieves the user linked to a GitHub account.
func (s *UserStore) FindByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE github_id = ?`, githubID)

	u, err := scanUser(row)
	if err != nil {
		return nil, notFoundOr(err, apperror.NotFoundMessage("user not found"), "sqlite: getting user by github id %d", githubID)
	}
	return u, nil
}

// ExistsByUsernameOrEmail reports whether either value is already taken.
func (s *UserStore) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := s.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = ? OR email = ?)`,
		username, email,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "sqlite: checking user uniqueness")
	}
	return exists, nil
}

// LinkGitHub attaches a GitHub account to an existing user.
func (s *UserStore) LinkGitHub(ctx context.Context, id string, githubID int64) error {
	if !validID(id) {
		return apperror.NotFound("user", id)
	}
	result, err := s.conn.ExecContext(ctx,
		`UPDATE users SET github_id = ? WHERE id = ?`, githubID, id)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("GitHub account already linked to another user")
		}
		return errors.Wrapf(err, "sqlite: linking github account to user %s", id)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "sqlite: checking rows affected")
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u        model.User
		role     string
		githubID sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &githubID, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	u.GitHubID = githubID.Int64
	return &u, nil
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
