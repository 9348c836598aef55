package services

import (
	"dispatch-board-service/internal/domain"
)

// One resource row of the trip creation form.
//
// A row that is neither editable nor removable is locked to an existing
// dispatch. An editable, non-removable row only lets the user pick another
// entity of the same type. Editable and removable rows are free.
type SlotDescriptor struct {
	EntityID   string
	EntityType domain.ResourceType
	Editable   bool
	Removable  bool
	// Nil when the pool for EntityType is empty.
	Entity domain.Reportable
}

// ResolveSlots seeds the resource rows for assigning a booking to a board row.
//
// Resources already dispatched on the item's first trip are returned locked,
// at most one per resource type. Each type not covered that way gets an
// editable placeholder seeded from the first entity of its pool. The result
// always holds exactly one row per resource type.
func ResolveSlots(item *TripsHandlerItem, vehicles []*domain.Vehicle, drivers []*domain.Driver) []SlotDescriptor {
	result := make([]SlotDescriptor, 0, len(domain.ResourceTypes))
	satisfied := make(map[domain.ResourceType]bool, len(domain.ResourceTypes))

	if item != nil && len(item.Trips) > 0 {
		for _, d := range item.Trips[0].Dispatches {
			rt := d.Resource.EntityType
			if satisfied[rt] {
				continue
			}

			entity := lookupEntity(rt, d.Resource.EntityID, vehicles, drivers)
			if entity == nil {
				continue
			}

			satisfied[rt] = true
			result = append(result, SlotDescriptor{
				EntityID:   d.Resource.EntityID,
				EntityType: rt,
				Entity:     entity,
			})
		}
	}

	for _, rt := range domain.ResourceTypes {
		if satisfied[rt] {
			continue
		}
		result = append(result, defaultSlot(rt, vehicles, drivers, false))
	}

	return result
}

// defaultSlot returns an editable row seeded with the first entity of the pool.
func defaultSlot(rt domain.ResourceType, vehicles []*domain.Vehicle, drivers []*domain.Driver, removable bool) SlotDescriptor {
	slot := SlotDescriptor{
		EntityType: rt,
		Editable:   true,
		Removable:  removable,
	}
	if e := firstEntity(rt, vehicles, drivers); e != nil {
		slot.EntityID = e.EntityID()
		slot.Entity = e
	}
	return slot
}

func firstEntity(rt domain.ResourceType, vehicles []*domain.Vehicle, drivers []*domain.Driver) domain.Reportable {
	switch rt {
	case domain.ResourceVehicle:
		for _, v := range vehicles {
			if v != nil {
				return v
			}
		}
	case domain.ResourceDriver:
		for _, d := range drivers {
			if d != nil {
				return d
			}
		}
	}
	return nil
}

// lookupEntity finds id in the pool of the given type. Unknown types find nothing.
func lookupEntity(rt domain.ResourceType, id string, vehicles []*domain.Vehicle, drivers []*domain.Driver) domain.Reportable {
	switch rt {
	case domain.ResourceVehicle:
		for _, v := range vehicles {
			if v != nil && v.ID == id {
				return v
			}
		}
	case domain.ResourceDriver:
		for _, d := range drivers {
			if d != nil && d.ID == id {
				return d
			}
		}
	}
	return nil
}
