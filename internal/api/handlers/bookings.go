package handlers

import (
	"dispatch-board-service/internal/api/dto"
	"dispatch-board-service/internal/domain"
	"dispatch-board-service/internal/ports"
	"dispatch-board-service/internal/services"
	"net/http"
)

type BookingHandler struct {
	Backend ports.FleetBackend
}

// List returns the bookings in ?status= (default Available), stops ordered.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		raw = string(domain.BookingAvailable)
	}
	status, ok := domain.ParseBookingStatus(raw)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "status must be one of Available, Dispatched, Completed, All")
		return
	}

	bookings, err := services.LoadBookings(r.Context(), h.Backend, status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListBookingsResponse{Bookings: make([]dto.BookingResponse, 0, len(bookings))}
	for _, b := range bookings {
		res.Bookings = append(res.Bookings, dto.FromBooking(b))
	}
	writeJSON(w, r, http.StatusOK, res)
}
