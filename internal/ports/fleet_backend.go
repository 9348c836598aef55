package ports

import (
	"context"
	"dispatch-board-service/internal/domain"
	"errors"
	"time"
)

// ErrNotFound is returned by a FleetBackend when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// Filter for the trips collection.
type TripQuery struct {
	Statuses        []domain.TripStatus
	DispatchGroupID string
}

// A resource binding requested for a new trip.
type ResourceRef struct {
	EntityType domain.ResourceType
	EntityID   string
}

// A stop appended to the booking's stops when the trip is created.
// Exactly one of LocationID or Address is set.
type NewStop struct {
	StopOrder               int
	ArriveDate              time.Time
	LoadedType              domain.StopLoadType
	RequiredFeedbackTypeIDs []string
	LocationID              string
	Address                 *domain.Address
}

// Payload for converting bookings into a dispatched trip.
type CreateTripRequest struct {
	BookingIDs    []string
	DispatchOrder int
	Resources     []ResourceRef
	Stops         []NewStop
}

// Port: the fleet back office. Collections come back in the backend's own
// order (vehicles and drivers by remote id ascending, trips and bookings by
// creation time descending); callers rely on that order.
type FleetBackend interface {
	ListTrips(ctx context.Context, q TripQuery) ([]*domain.Trip, error)
	ListBookings(ctx context.Context, status domain.BookingStatus) ([]*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	ListVehicles(ctx context.Context) ([]*domain.Vehicle, error)
	ListDrivers(ctx context.Context) ([]*domain.Driver, error)
	ListDispatchGroups(ctx context.Context) ([]*domain.DispatchGroup, error)
	CreateTrip(ctx context.Context, req CreateTripRequest) (*domain.Trip, error)
	DeleteTrip(ctx context.Context, id string) error
}
