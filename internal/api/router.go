package api

import (
	"dispatch-board-service/internal/adapters/push"
	"dispatch-board-service/internal/api/handlers"
	"dispatch-board-service/internal/ports"
	"dispatch-board-service/internal/services"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Backend ports.FleetBackend
	Watcher *services.BoardWatcher
	Prefs   *services.PreferenceService
	Hub     *push.Hub

	// Extra origins allowed on the board websocket.
	OriginPatterns []string
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers stay unaware of concrete adapters.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)

	board := &handlers.BoardHandler{Watcher: d.Watcher, Prefs: d.Prefs}
	ws := &handlers.BoardWSHandler{Hub: d.Hub, Watcher: d.Watcher, Prefs: d.Prefs, OriginPatterns: d.OriginPatterns}
	bookings := &handlers.BookingHandler{Backend: d.Backend}
	trips := &handlers.TripHandler{Backend: d.Backend, Watcher: d.Watcher}
	prefs := &handlers.PreferenceHandler{Prefs: d.Prefs}

	r.Get("/health", handlers.Health)

	r.Get("/board", board.Get)
	r.Get("/board/ws", ws.Serve)
	r.Get("/bookings", bookings.List)

	r.Post("/drafts", trips.Draft)
	r.Post("/trips", trips.Create)
	r.Delete("/trips/{id}", trips.Delete)

	r.Get("/preferences", prefs.Get)
	r.Put("/preferences", prefs.Put)

	return r
}
