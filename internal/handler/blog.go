package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tahircanyildiz/blog-website/internal/metrics"
	"github.com/tahircanyildiz/blog-website/internal/service"
)

// BlogHandler serves the blog post endpoints.
//
// The handler only decodes requests and writes envelopes; slug generation,
// validation and view counting all live in service.BlogService.
type BlogHandler struct {
	blogs *service.BlogService
	resp  *Responder
}

// NewBlogHandler creates a new BlogHandler.
func NewBlogHandler(blogs *service.BlogService, resp *Responder) *BlogHandler {
	return &BlogHandler{blogs: blogs, resp: resp}
}

// HandleList returns every post as a summary, newest first.
//
// HTTP: GET /api/blogs
func (h *BlogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.blogs.List(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, listOf(posts))
}

// HandleGetByID returns one post and counts the view.
//
// HTTP: GET /api/blogs/{id}
//
// URL PARAMETERS:
// chi.URLParam(r, "id") reads the {id} segment of the matched route pattern.
func (h *BlogHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	post, err := h.blogs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	metrics.BlogViewsTotal.Inc()
	h.resp.JSON(w, http.StatusOK, success("", post))
}

// HandleCreate saves a new post.
//
// HTTP: POST /api/blogs (admin)
// REQUEST BODY: {"title": "...", "content": "...", "shortDescription": "...", "tags": ["go"]}
func (h *BlogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateBlogInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	post, err := h.blogs.Create(r.Context(), in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusCreated, success("blog post created", post))
}

// HandleUpdate applies a partial update.
//
// HTTP: PUT /api/blogs/{id} (admin)
func (h *BlogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateBlogInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	post, err := h.blogs.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, success("blog post updated", post))
}

// HandleDelete removes a post.
//
// HTTP: DELETE /api/blogs/{id} (admin)
func (h *BlogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.blogs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, success("blog post deleted", struct{}{}))
}
