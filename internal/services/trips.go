package services

import (
	"context"
	"dispatch-board-service/internal/domain"
	"dispatch-board-service/internal/platform/obs"
	"dispatch-board-service/internal/ports"
	"fmt"
)

// Everything needed to turn a booking into a trip on one board row.
type AssignRequest struct {
	BookingID  string
	EntityType domain.ResourceType
	EntityID   string
	Board      BoardQuery
}

// PrepareDraft loads the booking and the board row it is dropped on and
// returns a draft with the resource rows resolved.
func PrepareDraft(ctx context.Context, backend ports.FleetBackend, watcher *BoardWatcher, req AssignRequest) (_ *TripDraft, err error) {
	defer obs.Time(ctx, "trips.PrepareDraft")(&err)

	if !req.EntityType.Valid() {
		return nil, fmt.Errorf("prepare draft: %q: %w", req.EntityType, ErrUnknownResourceType)
	}

	booking, err := backend.GetBooking(ctx, req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("prepare draft: get booking %s: %w", req.BookingID, err)
	}

	board, err := watcher.Board(ctx, req.Board, false)
	if err != nil {
		return nil, fmt.Errorf("prepare draft: %w", err)
	}

	item, err := board.Handler.FindItem(req.EntityType, req.EntityID)
	if err != nil {
		return nil, fmt.Errorf("prepare draft: %w", err)
	}

	return NewTripDraft(booking.WithOrderedStops(), item, board.Vehicles, board.Drivers), nil
}

// CreateTrip submits the draft and refreshes every open board.
func CreateTrip(ctx context.Context, backend ports.FleetBackend, watcher *BoardWatcher, draft *TripDraft) (_ *domain.Trip, err error) {
	defer obs.Time(ctx, "trips.Create")(&err)

	req, err := draft.Request()
	if err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}

	trip, err := backend.CreateTrip(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create trip: booking %s: %w", draft.Booking.ID, err)
	}

	watcher.ReloadAll(ctx)
	return trip, nil
}

// UnassignTrip deletes the trip, which returns its bookings to Available,
// and refreshes every open board.
func UnassignTrip(ctx context.Context, backend ports.FleetBackend, watcher *BoardWatcher, tripID string) (err error) {
	defer obs.Time(ctx, "trips.Unassign")(&err)

	if err := backend.DeleteTrip(ctx, tripID); err != nil {
		return fmt.Errorf("unassign trip %s: %w", tripID, err)
	}

	watcher.ReloadAll(ctx)
	return nil
}
