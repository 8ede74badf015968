package handler

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SiteHandler serves the endpoints that belong to no resource: the API welcome
// document, the health check and the JSON 404.
type SiteHandler struct {
	db      Pinger
	version string
	resp    *Responder
}

func NewSiteHandler(db Pinger, version string, resp *Responder) *SiteHandler {
	return &SiteHandler{db: db, version: version, resp: resp}
}

type welcome struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// HandleWelcome lists the resource roots of the API.
//
// HTTP: GET /api
func (h *SiteHandler) HandleWelcome(w http.ResponseWriter, r *http.Request) {
	h.resp.JSON(w, http.StatusOK, welcome{
		Success: true,
		Message: "welcome to the blog API",
		Version: h.version,
		Endpoints: map[string]string{
			"auth":     "/api/auth",
			"about":    "/api/about",
			"blogs":    "/api/blogs",
			"contact":  "/api/contact",
			"settings": "/api/settings",
		},
	})
}

// HandleHealth pings the database.
//
// HTTP: GET /health
func (h *SiteHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.resp.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	h.resp.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleNotFound answers unknown API routes with the standard envelope.
func (h *SiteHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.resp.JSON(w, http.StatusNotFound, Envelope{Message: "route not found"})
}

// HandleMethodNotAllowed answers a known API path used with the wrong method.
func (h *SiteHandler) HandleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.resp.JSON(w, http.StatusMethodNotAllowed, Envelope{Message: "method not allowed"})
}

// SPAHandler serves a built single-page app.
//
// Existing files are served as they are. Any other path gets index.html so the
// frontend router can handle deep links like /blog/my-post on a full reload.
type SPAHandler struct {
	root  string
	files http.Handler
}

// NewSPAHandler serves the bundle in dir. dir must contain index.html.
func NewSPAHandler(dir string) (*SPAHandler, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(root, "index.html")); err != nil {
		return nil, err
	}
	return &SPAHandler{root: root, files: http.FileServer(http.Dir(root))}, nil
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := path.Clean("/" + r.URL.Path)
	if name != "/" && !strings.HasSuffix(name, "/") {
		info, err := os.Stat(filepath.Join(h.root, filepath.FromSlash(name)))
		if err == nil && !info.IsDir() {
			h.files.ServeHTTP(w, r)
			return
		}
	}
	http.ServeFile(w, r, filepath.Join(h.root, "index.html"))
}
