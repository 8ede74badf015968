package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahircanyildiz/blog-website/internal/config"
)

// These tests drive the fully wired router (real SQLite, real services) the
// way the frontend does: JSON in, envelope out.

func testConfig() *config.Config {
	return &config.Config{
		Port:            5000,
		Env:             "test",
		DBPath:          ":memory:",
		JWTSecret:       "server-test-secret-0123456789",
		JWTExpire:       time.Hour,
		LogLevel:        slog.LevelError,
		AllowedOrigins:  []string{"http://localhost:5173"},
		RequestTimeout:  5 * time.Second,
		LoginRateLimit:  3,
		LoginRateWindow: time.Minute,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv.Handler()
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

type client struct {
	t *testing.T
	h http.Handler
}

func (c client) do(method, path, token string, body any) (int, envelope) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	c.h.ServeHTTP(rr, req)

	var env envelope
	if rr.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	}
	return rr.Code, env
}

func (c client) data(env envelope, dst any) {
	c.t.Helper()
	require.NoError(c.t, json.Unmarshal(env.Data, dst))
}

// register creates an account and returns its token.
func (c client) register(username, email, role string) string {
	c.t.Helper()
	status, env := c.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "email": email, "password": "secret123", "role": role,
	})
	require.Equal(c.t, http.StatusCreated, status, env.Message)

	var out struct {
		Token string `json:"token"`
	}
	c.data(env, &out)
	return out.Token
}

func TestAuthFlow(t *testing.T) {
	c := client{t, newTestServer(t, testConfig())}

	token := c.register("reader", "reader@example.com", "")

	status, env := c.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "reader", "email": "other@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "username or email already in use", env.Message)

	status, env = c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "reader@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid email or password", env.Message)

	status, env = c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid email or password", env.Message)

	status, _ = c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "READER@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusOK, status)

	t.Run("me", func(t *testing.T) {
		status, env := c.do(http.MethodGet, "/api/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "not authorized, no token", env.Message)

		status, env = c.do(http.MethodGet, "/api/auth/me", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "not authorized, token invalid or expired", env.Message)

		status, env = c.do(http.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, http.StatusOK, status)
		var out struct {
			User struct {
				Username  string `json:"username"`
				Role      string `json:"role"`
				CreatedAt string `json:"createdAt"`
			} `json:"user"`
		}
		c.data(env, &out)
		assert.Equal(t, "reader", out.User.Username)
		assert.Equal(t, "user", out.User.Role)
		assert.NotEmpty(t, out.User.CreatedAt)
	})
}

func TestLoginRateLimit(t *testing.T) {
	c := client{t, newTestServer(t, testConfig())}
	c.register("reader", "reader@example.com", "")

	for i := 0; i < 3; i++ {
		status, _ := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "reader@example.com", "password": "wrong-pass"})
		require.Equal(t, http.StatusUnauthorized, status)
	}

	status, env := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "reader@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.False(t, env.Success)
}

// wrongLogin posts a wrong password from the given X-Forwarded-For address.
func wrongLogin(h http.Handler, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"reader@example.com","password":"wrong-pass"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func TestLoginRateLimitIgnoresForwardedFor(t *testing.T) {
	h := newTestServer(t, testConfig())
	client{t, h}.register("reader", "reader@example.com", "")

	got := map[int]int{}
	for i := 0; i < 10; i++ {
		got[wrongLogin(h, fmt.Sprintf("198.51.100.%d", i+1))]++
	}
	assert.Equal(t, map[int]int{http.StatusUnauthorized: 3, http.StatusTooManyRequests: 7}, got)
}

func TestLoginRateLimitTrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.TrustProxy = true
	h := newTestServer(t, cfg)
	client{t, h}.register("reader", "reader@example.com", "")

	// Behind a proxy every forwarded client has its own bucket.
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusUnauthorized, wrongLogin(h, "198.51.100.1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, wrongLogin(h, "198.51.100.1"))
	assert.Equal(t, http.StatusUnauthorized, wrongLogin(h, "198.51.100.2"))
}

func TestLoginRateLimitConcurrent(t *testing.T) {
	h := newTestServer(t, testConfig())
	client{t, h}.register("reader", "reader@example.com", "")

	const attempts = 20
	codes := make(chan int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- wrongLogin(h, "")
		}()
	}
	wg.Wait()
	close(codes)

	got := map[int]int{}
	for code := range codes {
		got[code]++
	}
	assert.Equal(t, map[int]int{http.StatusUnauthorized: 3, http.StatusTooManyRequests: attempts - 3}, got)
}

func TestBlogLifecycle(t *testing.T) {
	c := client{t, newTestServer(t, testConfig())}
	admin := c.register("admin", "admin@example.com", "admin")
	reader := c.register("reader", "reader@example.com", "user")

	post := map[string]any{
		"title":            "Merhaba Dünya",
		"content":          "First post.",
		"shortDescription": "Hello world in Turkish.",
		"publishDate":      "2024-01-15",
		"tags":             []string{"intro"},
	}

	status, env := c.do(http.MethodPost, "/api/blogs", "", post)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = c.do(http.MethodPost, "/api/blogs", reader, post)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "admin privileges required", env.Message)

	status, env = c.do(http.MethodPost, "/api/blogs", admin, post)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var created struct {
		ID        string `json:"id"`
		Slug      string `json:"slug"`
		ViewCount int    `json:"viewCount"`
	}
	c.data(env, &created)
	assert.Equal(t, "merhaba-dunya", created.Slug)

	status, env = c.do(http.MethodPost, "/api/blogs", admin, post)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "a blog post with this title already exists", env.Message)

	status, env = c.do(http.MethodPost, "/api/blogs", admin, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Len(t, env.Errors, 2)

	t.Run("list", func(t *testing.T) {
		status, env := c.do(http.MethodGet, "/api/blogs", "", nil)
		require.Equal(t, http.StatusOK, status)
		require.NotNil(t, env.Count)
		assert.Equal(t, 1, *env.Count)
		assert.NotContains(t, string(env.Data), "First post.", "summaries carry no content")
	})

	t.Run("detail counts views", func(t *testing.T) {
		for want := 1; want <= 2; want++ {
			status, env := c.do(http.MethodGet, "/api/blogs/"+created.ID, "", nil)
			require.Equal(t, http.StatusOK, status)
			var got struct {
				ViewCount int `json:"viewCount"`
			}
			c.data(env, &got)
			assert.Equal(t, want, got.ViewCount)
		}

		status, _ := c.do(http.MethodGet, "/api/blogs/not-an-id", "", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("update regenerates slug", func(t *testing.T) {
		status, env := c.do(http.MethodPut, "/api/blogs/"+created.ID, admin, map[string]any{"title": "Yeni Başlık"})
		require.Equal(t, http.StatusOK, status, env.Message)
		var got struct {
			Slug      string `json:"slug"`
			Content   string `json:"content"`
			ViewCount int    `json:"viewCount"`
		}
		c.data(env, &got)
		assert.Equal(t, "yeni-baslik", got.Slug)
		assert.Equal(t, "First post.", got.Content)
		assert.Equal(t, 2, got.ViewCount)
	})

	t.Run("delete", func(t *testing.T) {
		status, env := c.do(http.MethodDelete, "/api/blogs/"+created.ID, admin, nil)
		require.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{}`, string(env.Data))

		status, _ = c.do(http.MethodDelete, "/api/blogs/"+created.ID, admin, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestAboutSingleton(t *testing.T) {
	c := client{t, newTestServer(t, testConfig())}
	admin := c.register("admin", "admin@example.com", "admin")

	status, env := c.do(http.MethodGet, "/api/about", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "about information not found", env.Message)

	status, env = c.do(http.MethodPut, "/api/about", admin, map[string]any{"title": "Developer"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = c.do(http.MethodPut, "/api/about", admin, map[string]any{
		"name": "Tahir", "title": "Developer", "description": "Builds things.",
		"technologies": []string{"Go"},
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "about information created", env.Message)

	status, env = c.do(http.MethodPut, "/api/about", admin, map[string]any{"title": "Engineer"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "about information updated", env.Message)

	status, env = c.do(http.MethodGet, "/api/about", "", nil)
	require.Equal(t, http.StatusOK, status)
	var about struct {
		Name         string   `json:"name"`
		Title        string   `json:"title"`
		Technologies []string `json:"technologies"`
	}
	c.data(env, &about)
	assert.Equal(t, "Tahir", about.Name)
	assert.Equal(t, "Engineer", about.Title)
	assert.Equal(t, []string{"Go"}, about.Technologies)
}

func TestContactInbox(t *testing.T) {
	c := client{t, newTestServer(t, testConfig())}
	admin := c.register("admin", "admin@example.com", "admin")

	status, env := c.do(http.MethodPost, "/api/contact", "", map[string]string{"name": "Ayşe", "email": "ayse@example.com", "message": "short"})
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "message", env.Errors[0].Field)

	status, env = c.do(http.MethodPost, "/api/contact", "", map[string]string{"name": "Ayşe", "email": "ayse@example.com", "message": "I enjoyed your last post."})
	require.Equal(t, http.StatusCreated, status)
	var msg struct {
		ID     string `json:"id"`
		IsRead bool   `json:"isRead"`
	}
	c.data(env, &msg)
	assert.False(t, msg.IsRead)

	status, _ = c.do(http.MethodGet, "/api/contact", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = c.do(http.MethodGet, "/api/contact", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, *env.Count)

	status, env = c.do(http.MethodGet, "/api/contact/"+msg.ID, admin, nil)
	require.Equal(t, http.StatusOK, status)
	c.data(env, &msg)
	assert.True(t, msg.IsRead)

	status, _ = c.do(http.MethodDelete, "/api/contact/"+msg.ID, admin, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = c.do(http.MethodGet, "/api/contact/"+msg.ID, admin, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSettings(t *testing.T) {
	c := client{t, newTestServer(t, testConfig())}
	admin := c.register("admin", "admin@example.com", "admin")

	status, env := c.do(http.MethodGet, "/api/settings", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"socialMedia":[]`)

	status, env = c.do(http.MethodPut, "/api/settings/social-media", admin, map[string]any{"socialMedia": "github"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "socialMedia must be an array", env.Message)

	status, env = c.do(http.MethodPut, "/api/settings/social-media", admin, map[string]any{
		"socialMedia": []map[string]any{{"platform": "github", "url": "https://github.com/tahir"}},
	})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = c.do(http.MethodPut, "/api/settings/contact-info", admin, map[string]any{"email": "hi@example.com"})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = c.do(http.MethodGet, "/api/settings", "", nil)
	require.Equal(t, http.StatusOK, status)
	var st struct {
		SocialMedia []struct {
			Platform string `json:"platform"`
			IsActive bool   `json:"isActive"`
		} `json:"socialMedia"`
		ContactInfo struct {
			Email string `json:"email"`
		} `json:"contactInfo"`
	}
	c.data(env, &st)
	require.Len(t, st.SocialMedia, 1)
	assert.True(t, st.SocialMedia[0].IsActive)
	assert.Equal(t, "hi@example.com", st.ContactInfo.Email)
}

func TestSiteEndpoints(t *testing.T) {
	h := newTestServer(t, testConfig())
	c := client{t, h}

	status, env := c.do(http.MethodGet, "/api", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	status, env = c.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "route not found", env.Message)

	status, _ = c.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "blog_http_requests_total")

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/blogs", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestSPAFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>spa</html>"), 0o644))

	cfg := testConfig()
	cfg.StaticDir = dir
	h := newTestServer(t, cfg)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/blog/some-post", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "<html>spa</html>", rr.Body.String())

	// API misses still get JSON.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "route not found")
}

func TestNew_FileDatabase(t *testing.T) {
	cfg := testConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "nested", "blog.db")

	h := newTestServer(t, cfg)
	status, _ := client{t, h}.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)

	_, err := os.Stat(cfg.DBPath)
	assert.NoError(t, err)
}
