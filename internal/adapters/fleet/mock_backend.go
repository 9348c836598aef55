package fleet

import (
	"context"
	"dispatch-board-service/internal/domain"
	"dispatch-board-service/internal/ports"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"
)

// MockBackend is an in-memory fleet backend for tests and local runs.
type MockBackend struct {
	mu sync.Mutex

	vehicles []*domain.Vehicle
	drivers  []*domain.Driver
	groups   []*domain.DispatchGroup
	trips    []*domain.Trip
	bookings []*domain.Booking

	tripBookings map[string][]string
	nextTrip     int

	// Err, when set, is returned by every call.
	Err error
	// Calls counts calls per method name.
	Calls map[string]int
}

type MockData struct {
	Vehicles       []*domain.Vehicle
	Drivers        []*domain.Driver
	DispatchGroups []*domain.DispatchGroup
	Trips          []*domain.Trip
	Bookings       []*domain.Booking
}

func NewMockBackend(data MockData) *MockBackend {
	return &MockBackend{
		vehicles:     data.Vehicles,
		drivers:      data.Drivers,
		groups:       data.DispatchGroups,
		trips:        data.Trips,
		bookings:     data.Bookings,
		tripBookings: make(map[string][]string),
		nextTrip:     1,
		Calls:        make(map[string]int),
	}
}

func (m *MockBackend) enter(name string) error {
	m.Calls[name]++
	return m.Err
}

func (m *MockBackend) ListTrips(ctx context.Context, q ports.TripQuery) ([]*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListTrips"); err != nil {
		return nil, err
	}

	out := make([]*domain.Trip, 0, len(m.trips))
	for _, t := range m.trips {
		if len(q.Statuses) > 0 && !t.HasOneOfStatuses(q.Statuses) {
			continue
		}
		if q.DispatchGroupID != "" && !m.tripInGroup(t, q.DispatchGroupID) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// A trip belongs to a group when any dispatched entity does.
func (m *MockBackend) tripInGroup(t *domain.Trip, groupID string) bool {
	for _, d := range t.Dispatches {
		var e domain.Reportable
		switch d.Resource.EntityType {
		case domain.ResourceVehicle:
			if i := slices.IndexFunc(m.vehicles, func(v *domain.Vehicle) bool { return v.ID == d.Resource.EntityID }); i >= 0 {
				e = m.vehicles[i]
			}
		case domain.ResourceDriver:
			if i := slices.IndexFunc(m.drivers, func(v *domain.Driver) bool { return v.ID == d.Resource.EntityID }); i >= 0 {
				e = m.drivers[i]
			}
		}
		if e != nil && domain.InDispatchGroup(e, groupID) {
			return true
		}
	}
	return false
}

func (m *MockBackend) ListBookings(ctx context.Context, status domain.BookingStatus) ([]*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListBookings"); err != nil {
		return nil, err
	}

	out := make([]*domain.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		if status == domain.BookingAll || b.Status == status {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *MockBackend) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("GetBooking"); err != nil {
		return nil, err
	}

	for _, b := range m.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, fmt.Errorf("booking %s: %w", id, ports.ErrNotFound)
}

func (m *MockBackend) ListVehicles(ctx context.Context) ([]*domain.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListVehicles"); err != nil {
		return nil, err
	}
	return slices.Clone(m.vehicles), nil
}

func (m *MockBackend) ListDrivers(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListDrivers"); err != nil {
		return nil, err
	}
	return slices.Clone(m.drivers), nil
}

func (m *MockBackend) ListDispatchGroups(ctx context.Context) ([]*domain.DispatchGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListDispatchGroups"); err != nil {
		return nil, err
	}
	return slices.Clone(m.groups), nil
}

// CreateTrip builds a PREASSIGNED trip from the bookings' stops plus the new
// stops and marks the bookings Dispatched.
func (m *MockBackend) CreateTrip(ctx context.Context, req ports.CreateTripRequest) (*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("CreateTrip"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	id := "trip-" + strconv.Itoa(m.nextTrip)
	trip := &domain.Trip{
		ID:            id,
		TripNo:        strconv.Itoa(m.nextTrip),
		Status:        domain.TripPreassigned,
		DispatchOrder: req.DispatchOrder,
		CreatedAt:     now,
	}

	var booked []*domain.Booking
	for _, bid := range req.BookingIDs {
		i := slices.IndexFunc(m.bookings, func(b *domain.Booking) bool { return b.ID == bid })
		if i < 0 {
			return nil, fmt.Errorf("booking %s: %w", bid, ports.ErrNotFound)
		}
		booked = append(booked, m.bookings[i])
	}

	for _, b := range booked {
		trip.Stops = append(trip.Stops, b.Stops...)
		b.Status = domain.BookingDispatched
	}
	for i, s := range req.Stops {
		stop := domain.Stop{
			ID:              fmt.Sprintf("%s-stop-%d", id, i+1),
			StopOrder:       s.StopOrder,
			LoadedType:      s.LoadedType,
			AppointmentFrom: s.ArriveDate,
			ArriveDate:      s.ArriveDate,
			CreatedAt:       now,
			Address:         s.Address,
		}
		if s.LocationID != "" {
			stop.Location = &domain.Location{ID: s.LocationID}
		}
		trip.Stops = append(trip.Stops, stop)
	}
	for i, r := range req.Resources {
		trip.Dispatches = append(trip.Dispatches, domain.Dispatch{
			ID:        fmt.Sprintf("%s-dispatch-%d", id, i+1),
			Resource:  domain.Resource{EntityType: r.EntityType, EntityID: r.EntityID},
			CreatedAt: now,
		})
	}

	m.nextTrip++
	m.trips = append([]*domain.Trip{trip}, m.trips...)
	m.tripBookings[id] = slices.Clone(req.BookingIDs)
	return trip, nil
}

// DeleteTrip removes the trip and returns its bookings to Available.
func (m *MockBackend) DeleteTrip(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteTrip"); err != nil {
		return err
	}

	i := slices.IndexFunc(m.trips, func(t *domain.Trip) bool { return t.ID == id })
	if i < 0 {
		return fmt.Errorf("trip %s: %w", id, ports.ErrNotFound)
	}
	m.trips = slices.Delete(m.trips, i, i+1)

	for _, bid := range m.tripBookings[id] {
		for _, b := range m.bookings {
			if b.ID == bid {
				b.Status = domain.BookingAvailable
			}
		}
	}
	delete(m.tripBookings, id)
	return nil
}
