package handler

import (
	"net/http"

	"github.com/tahircanyildiz/blog-website/internal/service"
)

// AboutHandler serves the singleton about profile.
type AboutHandler struct {
	about *service.AboutService
	resp  *Responder
}

func NewAboutHandler(about *service.AboutService, resp *Responder) *AboutHandler {
	return &AboutHandler{about: about, resp: resp}
}

// HandleGet returns the profile, 404 until an admin has saved one.
//
// HTTP: GET /api/about
func (h *AboutHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	about, err := h.about.Get(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, success("", about))
}

// HandleUpsert creates the profile on first use (201) and updates it afterwards (200).
//
// HTTP: PUT /api/about (admin)
func (h *AboutHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	var in service.AboutInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	about, created, err := h.about.Upsert(r.Context(), in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	if created {
		h.resp.JSON(w, http.StatusCreated, success("about information created", about))
		return
	}
	h.resp.JSON(w, http.StatusOK, success("about information updated", about))
}
