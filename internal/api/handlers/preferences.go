package handlers

import (
	"dispatch-board-service/internal/api/dto"
	"dispatch-board-service/internal/services"
	"net/http"
)

type PreferenceHandler struct {
	Prefs *services.PreferenceService
}

func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)
}

func (h *PreferenceHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req dto.PreferencesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	scope := scopeOf(r)
	if req.DispatchGroupID != nil {
		if err := h.Prefs.SetDispatchGroup(r.Context(), scope, *req.DispatchGroupID); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	if req.HideBookings != nil {
		if err := h.Prefs.SetHideBookings(r.Context(), scope, *req.HideBookings); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	h.respond(w, r)
}

func (h *PreferenceHandler) respond(w http.ResponseWriter, r *http.Request) {
	p, err := h.Prefs.Get(r.Context(), scopeOf(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.PreferencesResponse{
		DispatchGroupID: p.DispatchGroupID,
		HideBookings:    p.HideBookings,
	})
}
