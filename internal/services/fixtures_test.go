package services

import (
	"dispatch-board-service/internal/domain"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 8, 0, 0, 0, time.UTC)
}

func vehicle(id string) *domain.Vehicle {
	return &domain.Vehicle{ID: id, RemoteID: id, Status: domain.StatusActive}
}

func driver(id string) *domain.Driver {
	return &domain.Driver{ID: id, RemoteID: id, Status: domain.StatusActive, FirstName: id}
}

func dispatch(rt domain.ResourceType, id string) domain.Dispatch {
	return domain.Dispatch{ID: "d-" + id, Resource: domain.Resource{EntityType: rt, EntityID: id}}
}

func trip(id string, status domain.TripStatus, pickupDay int, dispatches ...domain.Dispatch) *domain.Trip {
	t := &domain.Trip{ID: id, Status: status, Dispatches: dispatches}
	if pickupDay > 0 {
		t.Stops = []domain.Stop{
			{ID: id + "-d", Type: domain.StopTypeDropoff, AppointmentFrom: day(pickupDay + 1)},
			{ID: id + "-p", Type: domain.StopTypePickup, AppointmentFrom: day(pickupDay)},
		}
	}
	return t
}

func tripIDs(trips []*domain.Trip) []string {
	ids := make([]string, 0, len(trips))
	for _, t := range trips {
		ids = append(ids, t.ID)
	}
	return ids
}

func itemIDs(items []TripsHandlerItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.Entity().EntityID())
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
