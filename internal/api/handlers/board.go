package handlers

import (
	"dispatch-board-service/internal/api/dto"
	"dispatch-board-service/internal/domain"
	"dispatch-board-service/internal/services"
	"net/http"
	"strconv"
)

type BoardHandler struct {
	Watcher *services.BoardWatcher
	// Optional. Supplies the dispatch group when the query names none.
	Prefs *services.PreferenceService
}

// Get renders the board rows for one entity type.
func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rawType := q.Get("entity_type")
	if rawType == "" {
		rawType = string(domain.ResourceVehicle)
	}
	entityType, ok := domain.ParseResourceType(rawType)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "entity_type must be Vehicle or Driver")
		return
	}

	refresh := false
	if v := q.Get("refresh"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "refresh must be a boolean")
			return
		}
		refresh = b
	}

	query, ok := boardQuery(w, r, h.Prefs)
	if !ok {
		return
	}

	board, err := h.Watcher.Board(r.Context(), query, refresh)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := dto.FromBoard(board, entityType)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// boardQuery reads tab and dispatch_group_id. Without a dispatch_group_id
// parameter the user's saved group applies.
func boardQuery(w http.ResponseWriter, r *http.Request, prefs *services.PreferenceService) (services.BoardQuery, bool) {
	q := r.URL.Query()

	tab := domain.TabPlan
	if v := q.Get("tab"); v != "" {
		tab = domain.BoardTab(v)
	}
	if !tab.Valid() {
		writeError(w, r, http.StatusBadRequest, "tab must be one of Plan, Current, Complete")
		return services.BoardQuery{}, false
	}

	query := services.BoardQuery{Tab: tab, DispatchGroupID: q.Get("dispatch_group_id")}
	if !q.Has("dispatch_group_id") && prefs != nil {
		p, err := prefs.Get(r.Context(), scopeOf(r))
		if err != nil {
			writeServiceError(w, r, err)
			return services.BoardQuery{}, false
		}
		query.DispatchGroupID = p.DispatchGroupID
	}
	return query, true
}
