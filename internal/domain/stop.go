package domain

import (
	"slices"
	"time"
)

// Stop types used by the ranking rules. The backend may send others.
const (
	StopTypePickup  = "PICKUP"
	StopTypeDropoff = "DROPOFF"
)

// StopLoadType tells whether the vehicle leaves a stop empty or loaded.
type StopLoadType string

const (
	StopEmpty  StopLoadType = "EMPTY"
	StopLoaded StopLoadType = "LOADED"
)

// StopLoadTypes lists the load types in form order.
var StopLoadTypes = []StopLoadType{StopEmpty, StopLoaded}

func (t StopLoadType) Valid() bool { return t == StopEmpty || t == StopLoaded }

type FeedbackType struct {
	ID   string
	Name string
	Type string
}

// Represents a single pickup or drop-off point of a Trip or Booking.
// Either Location or Address is set.
type Stop struct {
	ID                    string
	StopOrder             int
	Type                  string
	LoadedType            StopLoadType
	AppointmentFrom       time.Time
	ArriveDate            time.Time
	CreatedAt             time.Time
	Location              *Location
	Address               *Address
	RequiredFeedbackTypes []FeedbackType
}

func (s Stop) IsLocation() bool {
	return s.Location != nil && s.Location.ID != ""
}

// OrderStops returns a new slice with the stops ascending by appointment time.
// Stops with equal appointments keep their relative order.
func OrderStops(stops []Stop) []Stop {
	out := slices.Clone(stops)
	slices.SortStableFunc(out, func(a, b Stop) int {
		return a.AppointmentFrom.Compare(b.AppointmentFrom)
	})
	return out
}

// FilterStops returns the stops of the given type, or all stops if stopType is empty.
func FilterStops(stops []Stop, stopType string) []Stop {
	out := make([]Stop, 0, len(stops))
	for _, s := range stops {
		if stopType == "" || s.Type == stopType {
			out = append(out, s)
		}
	}
	return out
}

// FirstStop returns the filtered stop with the earliest appointment.
// The first one encountered wins a tie.
func FirstStop(stops []Stop, stopType string) (Stop, bool) {
	return pickStop(FilterStops(stops, stopType), func(candidate, best time.Time) bool {
		return candidate.Before(best)
	})
}

// LastStop returns the filtered stop with the latest appointment.
func LastStop(stops []Stop, stopType string) (Stop, bool) {
	return pickStop(FilterStops(stops, stopType), func(candidate, best time.Time) bool {
		return candidate.After(best)
	})
}

func pickStop(stops []Stop, better func(candidate, best time.Time) bool) (Stop, bool) {
	if len(stops) == 0 {
		return Stop{}, false
	}

	best := stops[0]
	for _, s := range stops[1:] {
		if better(s.AppointmentFrom, best.AppointmentFrom) {
			best = s
		}
	}
	return best, true
}

// MaxStopOrder returns the highest StopOrder among stops, or 0 when empty.
func MaxStopOrder(stops []Stop) int {
	highest := 0
	for _, s := range stops {
		if s.StopOrder > highest {
			highest = s.StopOrder
		}
	}
	return highest
}
