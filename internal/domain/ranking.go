package domain

import "slices"

// CompareTrips orders trips for the dispatch board.
//
// A DISPATCHED trip sorts before any trip with a different status; all other
// statuses share one tier. Within a tier trips are ordered by their earliest
// PICKUP appointment, and a trip without a PICKUP stop sorts after one that
// has it. Two trips without PICKUP stops compare equal.
func CompareTrips(a, b *Trip) int {
	if a.Status != b.Status {
		if a.Status == TripDispatched {
			return -1
		}
		if b.Status == TripDispatched {
			return 1
		}
	}

	pa, okA := a.FirstStop(StopTypePickup)
	pb, okB := b.FirstStop(StopTypePickup)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}

	return pa.AppointmentFrom.Compare(pb.AppointmentFrom)
}

// SortTrips ranks trips in place with CompareTrips. Equal trips keep their order.
func SortTrips(trips []*Trip) {
	slices.SortStableFunc(trips, CompareTrips)
}
