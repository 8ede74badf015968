package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tahircanyildiz/blog-website/internal/apperror"
	"github.com/tahircanyildiz/blog-website/internal/model"
)

// fakeUsers is an in-memory UserLoader.
type fakeUsers map[string]*model.User

func (f fakeUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, apperror.NotFound("user", id)
}

// recordError captures the error passed to the ErrorWriter and maps it to a status
// the same way the handler package does for the sentinels the guard uses.
func recordError(got *error) ErrorWriter {
	return func(w http.ResponseWriter, _ *http.Request, err error) {
		*got = err
		switch {
		case errors.Is(err, apperror.ErrUnauthorized):
			w.WriteHeader(http.StatusUnauthorized)
		case errors.Is(err, apperror.ErrForbidden):
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
}

func messageOf(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}

// okHandler reports the user the guard attached.
func okHandler(seen **model.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := UserFromContext(r.Context())
		*seen = u
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)
	users := fakeUsers{
		"u1": {ID: "u1", Username: "alice", Role: model.RoleUser},
	}

	valid, _ := ts.Generate("u1")
	expired, _ := ts.GenerateWithDuration("u1", -time.Minute)
	orphan, _ := ts.Generate("deleted-user")

	cases := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{"no header", "", http.StatusUnauthorized, MsgNoToken},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, MsgNoToken},
		{"bearer without token", "Bearer ", http.StatusUnauthorized, MsgNoToken},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized, MsgInvalidToken},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, MsgInvalidToken},
		{"unknown user", "Bearer " + orphan, http.StatusUnauthorized, MsgUserNotFound},
		{"valid token", "Bearer " + valid, http.StatusOK, ""},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotErr error
			var seen *model.User

			h := RequireAuth(ts, users, recordError(&gotErr))(okHandler(&seen))

			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantStatus == http.StatusOK {
				if seen == nil || seen.ID != "u1" {
					t.Errorf("handler saw user %+v, want u1", seen)
				}
				return
			}
			if got := messageOf(gotErr); got != tc.wantMsg {
				t.Errorf("message = %q, want %q", got, tc.wantMsg)
			}
		})
	}
}

func TestRequireAuth_StoreFailureIsNotUnauthorized(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate("u1")

	broken := loaderFunc(func(context.Context, string) (*model.User, error) {
		return nil, errors.New("disk on fire")
	})

	var gotErr error
	var seen *model.User
	h := RequireAuth(ts, broken, recordError(&gotErr))(okHandler(&seen))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

type loaderFunc func(context.Context, string) (*model.User, error)

func (f loaderFunc) FindByID(ctx context.Context, id string) (*model.User, error) {
	return f(ctx, id)
}

func TestRequireAdmin(t *testing.T) {
	cases := []struct {
		name       string
		user       *model.User
		wantStatus int
		wantMsg    string
	}{
		{"anonymous", nil, http.StatusUnauthorized, MsgNoToken},
		{"regular user", &model.User{ID: "u1", Role: model.RoleUser}, http.StatusForbidden, MsgAdminOnly},
		{"admin", &model.User{ID: "a1", Role: model.RoleAdmin}, http.StatusOK, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotErr error
			var seen *model.User
			h := RequireAdmin(recordError(&gotErr))(okHandler(&seen))

			req := httptest.NewRequest(http.MethodPost, "/api/blogs", nil)
			if tc.user != nil {
				req = req.WithContext(WithUser(req.Context(), tc.user))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantMsg != "" && messageOf(gotErr) != tc.wantMsg {
				t.Errorf("message = %q, want %q", messageOf(gotErr), tc.wantMsg)
			}
		})
	}
}

func TestUserFromContext_Empty(t *testing.T) {
	if u, ok := UserFromContext(context.Background()); ok || u != nil {
		t.Errorf("UserFromContext() on empty context = (%v, %v), want (nil, false)", u, ok)
	}
}
