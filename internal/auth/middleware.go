package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tahircanyildiz/blog-website/internal/apperror"
	"github.com/tahircanyildiz/blog-website/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "user", u), ANY package that knows the string "user"
// can read or shadow your value. Using a package-private type prevents collisions:
// only THIS package can create a key of type contextKey.
type contextKey string

const userKey contextKey = "user"

// Guard failure messages, shown verbatim in the response envelope.
const (
	MsgNoToken      = "not authorized, no token"
	MsgInvalidToken = "not authorized, token invalid or expired"
	MsgUserNotFound = "user not found"
	MsgAdminOnly    = "admin privileges required"
)

// UserLoader looks up the account a token belongs to.
// The sqlite UserStore satisfies it.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// ErrorWriter renders a guard failure. The handler package passes its
// envelope writer so guard errors look like every other API error.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the JWT from the "Authorization: Bearer <token>" header, validates it,
// loads the user it names and stores the user in the request context.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler. The new handler "wraps" the original:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... do stuff before the handler ...
//	        next.ServeHTTP(w, r)
//	        // ... do stuff after the handler ...
//	    })
//	}
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(tokens *TokenService, users UserLoader, onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				onError(w, r, apperror.Unauthorized(MsgNoToken))
				return
			}

			userID, err := tokens.Validate(raw)
			if err != nil {
				onError(w, r, apperror.Unauthorized(MsgInvalidToken))
				return
			}

			// The token may outlive the account it was issued for.
			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, apperror.ErrNotFound) {
					onError(w, r, apperror.Unauthorized(MsgUserNotFound))
					return
				}
				onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin lets the request through only when the identity attached by
// RequireAuth has the admin role. It must be mounted after RequireAuth.
func RequireAdmin(onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				onError(w, r, apperror.Unauthorized(MsgNoToken))
				return
			}
			if !user.IsAdmin() {
				onError(w, r, apperror.Forbidden(MsgAdminOnly))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext retrieves the authenticated user from the request context.
//
// Returns (nil, false) if no guard ran or the request is anonymous.
//
// Usage in handlers:
//
//	user, ok := auth.UserFromContext(r.Context())
//	if !ok {
//	    // anonymous request
//	}
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// bearerToken pulls the token out of "Authorization: Bearer <token>".
// The scheme is matched case-insensitively; anything else counts as no token.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
