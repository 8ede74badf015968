package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tahircanyildiz/blog-website/internal/metrics"
	"github.com/tahircanyildiz/blog-website/internal/service"
)

// ContactHandler serves the public contact form and the admin inbox.
type ContactHandler struct {
	contacts *service.ContactService
	resp     *Responder
}

func NewContactHandler(contacts *service.ContactService, resp *Responder) *ContactHandler {
	return &ContactHandler{contacts: contacts, resp: resp}
}

// HandleCreate stores a message from the contact form.
//
// HTTP: POST /api/contact
// REQUEST BODY: {"name": "...", "email": "...", "message": "..."}
func (h *ContactHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.ContactInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	msg, err := h.contacts.Create(r.Context(), in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	metrics.ContactMessagesTotal.Inc()
	h.resp.JSON(w, http.StatusCreated, success("your message has been sent", msg))
}

// HandleList returns the inbox, newest first.
//
// HTTP: GET /api/contact (admin)
func (h *ContactHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.contacts.List(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, listOf(msgs))
}

// HandleGetByID opens a message and marks it read.
//
// HTTP: GET /api/contact/{id} (admin)
func (h *ContactHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	msg, err := h.contacts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, success("", msg))
}

// HandleDelete removes a message.
//
// HTTP: DELETE /api/contact/{id} (admin)
func (h *ContactHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.contacts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, success("message deleted", struct{}{}))
}
