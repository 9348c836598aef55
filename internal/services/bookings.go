package services

import (
	"context"
	"dispatch-board-service/internal/domain"
	"dispatch-board-service/internal/platform/obs"
	"dispatch-board-service/internal/ports"
	"errors"
	"fmt"
)

var ErrInvalidStatus = errors.New("invalid booking status")

// LoadBookings returns the bookings in the given status, each with its stops
// ordered, in the backend's order.
func LoadBookings(ctx context.Context, backend ports.FleetBackend, status domain.BookingStatus) (_ []*domain.Booking, err error) {
	defer obs.Time(ctx, "bookings.Load")(&err)

	if _, ok := domain.ParseBookingStatus(string(status)); !ok {
		return nil, fmt.Errorf("load bookings: %q: %w", status, ErrInvalidStatus)
	}

	bookings, err := backend.ListBookings(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	out := make([]*domain.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b == nil {
			continue
		}
		out = append(out, b.WithOrderedStops())
	}
	return out, nil
}
