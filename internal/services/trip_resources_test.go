package services

import (
	"dispatch-board-service/internal/domain"
	"testing"
)

func TestResolveSlotsWithoutItem(t *testing.T) {
	slots := ResolveSlots(nil,
		[]*domain.Vehicle{vehicle("V1"), vehicle("V2")},
		[]*domain.Driver{driver("D1")},
	)

	if len(slots) != 2 {
		t.Fatalf("slots = %d, want 2", len(slots))
	}
	want := []struct {
		rt domain.ResourceType
		id string
	}{
		{domain.ResourceVehicle, "V1"},
		{domain.ResourceDriver, "D1"},
	}
	for i, w := range want {
		s := slots[i]
		if s.EntityType != w.rt || s.EntityID != w.id {
			t.Fatalf("slot %d = %s/%s, want %s/%s", i, s.EntityType, s.EntityID, w.rt, w.id)
		}
		if !s.Editable || s.Removable {
			t.Fatalf("slot %d editable=%v removable=%v, want true/false", i, s.Editable, s.Removable)
		}
		if s.Entity == nil || s.Entity.EntityID() != w.id {
			t.Fatalf("slot %d entity = %v, want %s", i, s.Entity, w.id)
		}
	}
}

func TestResolveSlotsLocksDispatchedResources(t *testing.T) {
	item := &TripsHandlerItem{
		Vehicle: vehicle("V2"),
		Trips: []*domain.Trip{
			trip("T1", domain.TripDispatched, 1,
				dispatch(domain.ResourceVehicle, "V2"),
				dispatch(domain.ResourceVehicle, "V1"),
				dispatch("Trailer", "X1")),
			trip("T2", domain.TripPreassigned, 2, dispatch(domain.ResourceDriver, "D2")),
		},
	}

	slots := ResolveSlots(item,
		[]*domain.Vehicle{vehicle("V1"), vehicle("V2")},
		[]*domain.Driver{driver("D1"), driver("D2")},
	)

	if len(slots) != 2 {
		t.Fatalf("slots = %d, want 2", len(slots))
	}
	if s := slots[0]; s.EntityType != domain.ResourceVehicle || s.EntityID != "V2" || s.Editable || s.Removable {
		t.Fatalf("slot 0 = %+v, want locked V2", s)
	}
	// Only the first trip's dispatches lock; D2 is on the second trip.
	if s := slots[1]; s.EntityType != domain.ResourceDriver || s.EntityID != "D1" || !s.Editable {
		t.Fatalf("slot 1 = %+v, want editable D1", s)
	}
}

func TestResolveSlotsSkipsMissingEntities(t *testing.T) {
	item := &TripsHandlerItem{
		Driver: driver("D9"),
		Trips:  []*domain.Trip{trip("T1", domain.TripPreassigned, 1, dispatch(domain.ResourceDriver, "D9"))},
	}

	slots := ResolveSlots(item, nil, nil)

	if len(slots) != 2 {
		t.Fatalf("slots = %d, want 2", len(slots))
	}
	for i, s := range slots {
		if !s.Editable || s.Entity != nil || s.EntityID != "" {
			t.Fatalf("slot %d = %+v, want empty editable placeholder", i, s)
		}
	}
	if slots[0].EntityType != domain.ResourceVehicle || slots[1].EntityType != domain.ResourceDriver {
		t.Fatalf("slot types = %s, %s, want Vehicle, Driver", slots[0].EntityType, slots[1].EntityType)
	}
}

func TestResolveSlotsSkipsNilPoolEntries(t *testing.T) {
	var nilVehicle *domain.Vehicle
	var nilDriver *domain.Driver
	slots := ResolveSlots(nil,
		[]*domain.Vehicle{nilVehicle, vehicle("V2")},
		[]*domain.Driver{nilDriver},
	)

	if len(slots) != 2 {
		t.Fatalf("slots = %d, want 2", len(slots))
	}
	if slots[0].EntityID != "V2" {
		t.Fatalf("vehicle row = %q, want V2", slots[0].EntityID)
	}
	if slots[1].EntityID != "" || slots[1].Entity != nil {
		t.Fatalf("driver row = %q/%v, want empty", slots[1].EntityID, slots[1].Entity)
	}
}
