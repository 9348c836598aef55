package handlers

import (
	"dispatch-board-service/internal/api/dto"
	"dispatch-board-service/internal/ports"
	"dispatch-board-service/internal/services"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type TripHandler struct {
	Backend ports.FleetBackend
	Watcher *services.BoardWatcher
}

// Draft resolves the resource rows for dropping a booking on a board row.
func (h *TripHandler) Draft(w http.ResponseWriter, r *http.Request) {
	var req dto.DraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	draft, err := services.PrepareDraft(r.Context(), h.Backend, h.Watcher, req.Assign())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromDraft(draft))
}

// Create rebuilds the draft server side, replays the submitted rows and
// stops over it and creates the trip.
func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTripRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	draft, err := services.PrepareDraft(r.Context(), h.Backend, h.Watcher, req.Assign())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := draft.ApplyResources(req.ResourceRefs()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	for i, s := range req.Stops {
		if err := draft.AddStop(s.NewStop()); err != nil {
			writeServiceError(w, r, fmt.Errorf("stop %d: %w", i, err))
			return
		}
	}

	trip, err := services.CreateTrip(r.Context(), h.Backend, h.Watcher, draft)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.CreateTripResponse{Trip: dto.FromTrip(trip)})
}

// Delete unassigns a trip; its bookings become available again.
func (h *TripHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "trip id is required")
		return
	}

	if err := services.UnassignTrip(r.Context(), h.Backend, h.Watcher, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
