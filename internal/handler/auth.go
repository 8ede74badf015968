package handler

import (
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/rs/xid"

	"github.com/tahircanyildiz/blog-website/internal/apperror"
	"github.com/tahircanyildiz/blog-website/internal/auth"
	"github.com/tahircanyildiz/blog-website/internal/metrics"
	"github.com/tahircanyildiz/blog-website/internal/model"
	"github.com/tahircanyildiz/blog-website/internal/service"
)

const (
	stateCookieName = "oauth_state"
	msgTooManyTries = "too many login attempts, please try again later"
)

// AuthHandler serves the account endpoints: register, login, me and the
// optional GitHub sign-in.
//
// DEPENDENCY CHAIN:
//   - auth    *service.AuthService  → all credential rules
//   - github  *auth.GitHubProvider  → OAuth code exchange (nil when not configured)
//   - limiter *auth.LoginLimiter    → throttles failed logins per IP
type AuthHandler struct {
	auth    *service.AuthService
	github  *auth.GitHubProvider
	limiter *auth.LoginLimiter
	resp    *Responder
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil, in which case the
// GitHub routes are simply not registered.
func NewAuthHandler(
	authService *service.AuthService,
	github *auth.GitHubProvider,
	limiter *auth.LoginLimiter,
	resp *Responder,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:    authService,
		github:  github,
		limiter: limiter,
		resp:    resp,
		logger:  logger,
	}
}

// authPayload is the data of every successful register/login response.
type authPayload struct {
	User  model.PublicUser `json:"user"`
	Token string           `json:"token"`
}

func newAuthPayload(res *service.AuthResult) authPayload {
	return authPayload{User: res.User.Public(false), Token: res.Token}
}

// HandleRegister creates an account.
//
// HTTP: POST /api/auth/register
// REQUEST BODY: {"username": "...", "email": "...", "password": "...", "role": "user"}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	res, err := h.auth.Register(r.Context(), in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	h.resp.JSON(w, http.StatusCreated, success("user registered successfully", newAuthPayload(res)))
}

// HandleLogin exchanges an email/password pair for a token.
//
// HTTP: POST /api/auth/login
//
// RATE LIMITING:
// The limiter holds a token for the attempt before the password is verified.
// The token is spent only when the credentials are wrong, so a legitimate user
// is never locked out by their own successful logins.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	finish, allowed := h.limiter.Begin(ip)
	if !allowed {
		h.logger.Warn("login throttled", slog.String("ip", ip))
		metrics.ObserveLogin("password", metrics.ResultThrottled)
		h.resp.Error(w, r, apperror.TooManyRequests(msgTooManyTries))
		return
	}
	failed := false
	defer func() { finish(failed) }()

	var in service.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	res, err := h.auth.Login(r.Context(), in)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			failed = true
			metrics.ObserveLogin("password", metrics.ResultFailure)
		}
		h.resp.Error(w, r, err)
		return
	}

	metrics.ObserveLogin("password", metrics.ResultSuccess)
	h.resp.JSON(w, http.StatusOK, success("login successful", newAuthPayload(res)))
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /api/auth/me
// Auth: Required (RequireAuth has already loaded the user into the context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, found := auth.UserFromContext(r.Context())
	if !found {
		// Only reachable if the route is mounted without RequireAuth.
		h.resp.Error(w, r, apperror.Unauthorized(auth.MsgNoToken))
		return
	}

	h.resp.JSON(w, http.StatusOK, success("", map[string]model.PublicUser{"user": user.Public(true)}))
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /api/auth/github/login
//
// CSRF PROTECTION VIA STATE:
// We generate a random state string and store it in a short-lived cookie.
// When GitHub calls back, HandleGitHubCallback verifies the state matches.
// This proves the callback was initiated by this server, not a CSRF attacker.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/api/auth/github",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow and responds with the
// same {user, token} payload as a password login.
//
// HTTP: GET /api/auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub user profile
//  3. Find, link or create the local account
//  4. Issue a JWT
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	// --- Step 1: Validate CSRF state ---
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		h.resp.Error(w, r, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/api/auth/github",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		h.resp.Error(w, r, apperror.Unauthorized("GitHub authorization was denied"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.resp.Error(w, r, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	// --- Step 2: Exchange code for GitHub user profile ---
	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		metrics.ObserveLogin("github", metrics.ResultFailure)
		h.resp.Error(w, r, apperror.Unauthorized("GitHub authentication failed"))
		return
	}

	// --- Steps 3 and 4 ---
	res, err := h.auth.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		metrics.ObserveLogin("github", metrics.ResultFailure)
		h.resp.Error(w, r, err)
		return
	}

	metrics.ObserveLogin("github", metrics.ResultSuccess)
	h.resp.JSON(w, http.StatusOK, success("login successful", newAuthPayload(res)))
}

// clientIP returns the caller's address without the port. When TRUST_PROXY is
// set, chi's RealIP middleware has already replaced RemoteAddr with the
// forwarded address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
