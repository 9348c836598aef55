package domain

import (
	"slices"
	"time"
)

// TripStatus is driven by the fleet backend; the board only reads it.
type TripStatus string

const (
	TripPreassigned TripStatus = "PREASSIGNED"
	TripDispatched  TripStatus = "DISPATCHED"
	TripOnHold      TripStatus = "ON HOLD"
	TripApproved    TripStatus = "APPROVED"
	TripComplete    TripStatus = "COMPLETE"
)

// BoardTab selects which trip statuses the board shows.
type BoardTab string

const (
	TabPlan     BoardTab = "Plan"
	TabCurrent  BoardTab = "Current"
	TabComplete BoardTab = "Complete"
)

var tabStatuses = map[BoardTab][]TripStatus{
	TabPlan:     {TripPreassigned, TripDispatched},
	TabCurrent:  {TripDispatched, TripOnHold, TripApproved},
	TabComplete: {TripComplete},
}

// Statuses returns the trip statuses shown on the tab, or nil for an unknown tab.
func (t BoardTab) Statuses() []TripStatus {
	return slices.Clone(tabStatuses[t])
}

func (t BoardTab) Valid() bool {
	_, ok := tabStatuses[t]
	return ok
}

// Reference from a Dispatch to a Vehicle or Driver by identifier.
// EntityType is kept as the raw wire value: anything but the two known
// resource types is ignored by grouping.
type Resource struct {
	EntityType    ResourceType
	EntityID      string
	ServiceStatus string
	LoadStatus    string
}

// Binds a Trip to one Resource. Immutable once created.
type Dispatch struct {
	ID        string
	Resource  Resource
	CreatedAt time.Time
}

type Trip struct {
	ID            string
	TripNo        string
	Status        TripStatus
	DispatchOrder int
	CreatedAt     time.Time
	CompletedAt   *time.Time
	ApprovedAt    *time.Time
	Stops         []Stop
	Dispatches    []Dispatch
}

func (t *Trip) HasOneOfStatuses(statuses []TripStatus) bool {
	return slices.Contains(statuses, t.Status)
}

func (t *Trip) FilterStops(stopType string) []Stop { return FilterStops(t.Stops, stopType) }

func (t *Trip) FirstStop(stopType string) (Stop, bool) { return FirstStop(t.Stops, stopType) }

func (t *Trip) LastStop(stopType string) (Stop, bool) { return LastStop(t.Stops, stopType) }

// WithOrderedStops returns a shallow copy of the trip whose stops are ordered.
// The receiver is left untouched.
func (t *Trip) WithOrderedStops() *Trip {
	c := *t
	c.Stops = OrderStops(t.Stops)
	return &c
}
