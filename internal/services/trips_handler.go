package services

import (
	"dispatch-board-service/internal/domain"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrNotInitialized is returned when grouped items are requested before InitWith.
	ErrNotInitialized = errors.New("trips handler: InitWith must be called first")
	// ErrUnknownResourceType is returned for an entity type other than Vehicle or Driver.
	ErrUnknownResourceType = errors.New("unknown resource type")
)

// One board row: a single vehicle or driver and the trips dispatched to it,
// in ranked order. Exactly one of Vehicle and Driver is set.
type TripsHandlerItem struct {
	Vehicle *domain.Vehicle
	Driver  *domain.Driver
	Trips   []*domain.Trip
}

func newTripsHandlerItem(entity domain.Reportable, trips []*domain.Trip) (TripsHandlerItem, bool) {
	switch e := entity.(type) {
	case *domain.Vehicle:
		return TripsHandlerItem{Vehicle: e, Trips: trips}, e != nil
	case *domain.Driver:
		return TripsHandlerItem{Driver: e, Trips: trips}, e != nil
	}
	return TripsHandlerItem{}, false
}

// Entity returns the vehicle or driver the item groups trips for.
func (i TripsHandlerItem) Entity() domain.Reportable {
	if i.Vehicle != nil {
		return i.Vehicle
	}
	return i.Driver
}

// TripsHandler groups a ranked trip collection by the vehicle or driver each
// trip is dispatched to.
//
// It is built in two steps: NewTripsHandler ranks the trips, InitWith groups
// them against the vehicle and driver pools. A handler is never updated after
// InitWith; a refresh builds a new one.
type TripsHandler struct {
	trips        []*domain.Trip
	vehicleItems []TripsHandlerItem
	driverItems  []TripsHandlerItem
	initialized  bool
}

// NewTripsHandler ranks copies of the given trips with their stops ordered.
// The input trips are not modified.
func NewTripsHandler(trips []*domain.Trip) *TripsHandler {
	ranked := make([]*domain.Trip, 0, len(trips))
	for _, t := range trips {
		if t == nil {
			continue
		}
		ranked = append(ranked, t.WithOrderedStops())
	}
	domain.SortTrips(ranked)

	return &TripsHandler{trips: ranked}
}

// InitWith groups the trips per vehicle and per driver. The order of the pools
// decides the order of the items, apart from items led by a dispatched trip,
// which float to the top.
func (h *TripsHandler) InitWith(vehicles []*domain.Vehicle, drivers []*domain.Driver) {
	h.vehicleItems = groupTrips(h.trips, vehicles, domain.ResourceVehicle)
	h.driverItems = groupTrips(h.trips, drivers, domain.ResourceDriver)
	h.initialized = true
}

func (h *TripsHandler) Initialized() bool { return h.initialized }

// Trips returns the ranked trips.
func (h *TripsHandler) Trips() []*domain.Trip { return h.trips }

// Items returns the grouped rows for one resource type.
func (h *TripsHandler) Items(entityType domain.ResourceType) ([]TripsHandlerItem, error) {
	if !h.initialized {
		return nil, ErrNotInitialized
	}

	switch entityType {
	case domain.ResourceVehicle:
		return h.vehicleItems, nil
	case domain.ResourceDriver:
		return h.driverItems, nil
	}
	return nil, fmt.Errorf("trips handler: items for %q: %w", entityType, ErrUnknownResourceType)
}

// FindItem returns the row of the given entity, if it has any trips.
func (h *TripsHandler) FindItem(entityType domain.ResourceType, entityID string) (*TripsHandlerItem, error) {
	items, err := h.Items(entityType)
	if err != nil {
		return nil, err
	}

	i := slices.IndexFunc(items, func(it TripsHandlerItem) bool {
		return it.Entity().EntityID() == entityID
	})
	if i < 0 {
		return nil, nil
	}
	return &items[i], nil
}

// groupTrips maps every trip to the entities its dispatches of entityType
// reference. Dispatches of any other type, including unknown ones, are skipped.
func groupTrips[E domain.Reportable](trips []*domain.Trip, entities []E, entityType domain.ResourceType) []TripsHandlerItem {
	tripsByID := make(map[string][]*domain.Trip)
	for _, trip := range trips {
		for _, d := range trip.Dispatches {
			if d.Resource.EntityType != entityType {
				continue
			}
			tripsByID[d.Resource.EntityID] = append(tripsByID[d.Resource.EntityID], trip)
		}
	}

	items := make([]TripsHandlerItem, 0, len(tripsByID))
	for _, e := range entities {
		item, ok := newTripsHandlerItem(e, nil)
		if !ok {
			continue
		}
		item.Trips = tripsByID[e.EntityID()]
		if len(item.Trips) == 0 {
			continue
		}
		items = append(items, item)
	}

	// Rows led by a dispatched trip go first; otherwise the pool order stays.
	slices.SortStableFunc(items, func(a, b TripsHandlerItem) int {
		da := a.Trips[0].Status == domain.TripDispatched
		db := b.Trips[0].Status == domain.TripDispatched
		switch {
		case da == db:
			return 0
		case da:
			return -1
		}
		return 1
	})

	return items
}
