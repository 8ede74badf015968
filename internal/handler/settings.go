package handler

import (
	"net/http"

	"github.com/tahircanyildiz/blog-website/internal/service"
)

// SettingsHandler serves the singleton site settings.
type SettingsHandler struct {
	settings *service.SettingsService
	resp     *Responder
}

func NewSettingsHandler(settings *service.SettingsService, resp *Responder) *SettingsHandler {
	return &SettingsHandler{settings: settings, resp: resp}
}

// HandleGet returns the settings, creating the defaults on first access.
//
// HTTP: GET /api/settings
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	st, err := h.settings.Get(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, success("", st))
}

// HandleUpdateSocialMedia replaces the social media list.
//
// HTTP: PUT /api/settings/social-media (admin)
// REQUEST BODY: {"socialMedia": [{"platform": "github", "url": "...", "isActive": true}]}
func (h *SettingsHandler) HandleUpdateSocialMedia(w http.ResponseWriter, r *http.Request) {
	var in service.SocialMediaInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	st, err := h.settings.UpdateSocialMedia(r.Context(), in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, success("social media settings updated", st))
}

// HandleUpdateContactInfo applies a partial contact block.
//
// HTTP: PUT /api/settings/contact-info (admin)
func (h *SettingsHandler) HandleUpdateContactInfo(w http.ResponseWriter, r *http.Request) {
	var in service.ContactInfoInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	st, err := h.settings.UpdateContactInfo(r.Context(), in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, success("contact information updated", st))
}

// HandleUpdate applies any combination of socialMedia and contactInfo.
//
// HTTP: PUT /api/settings (admin)
func (h *SettingsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in service.SettingsInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	st, err := h.settings.Update(r.Context(), in)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, http.StatusOK, success("settings updated", st))
}
