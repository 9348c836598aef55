package services

import (
	"dispatch-board-service/internal/domain"
	"dispatch-board-service/internal/ports"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrLockedResource = errors.New("resource row is locked")
	ErrUnknownEntity  = errors.New("entity is not available for this resource type")
	ErrMissingEntity  = errors.New("resource row has no entity selected")
	ErrRowNotFound    = errors.New("resource row not found")
	ErrInvalidStop    = errors.New("invalid stop")
)

// A resource row of the draft. RowID is stable for the life of the draft and
// never reused, so a client can key its rendering on it.
type ResourceRow struct {
	RowID int
	SlotDescriptor
}

// TripDraft is the state of the "assign booking" form: the booking being
// converted, the resource rows and the extra stops entered by the user.
type TripDraft struct {
	Booking        *domain.Booking
	StopsBegin     int
	FixedResources int
	Resources      []ResourceRow
	Stops          []ports.NewStop

	vehicles  []*domain.Vehicle
	drivers   []*domain.Driver
	nextRowID int
}

// NewTripDraft prepares a draft for assigning booking to the board row item.
// item may be nil when the target entity has no trips yet.
func NewTripDraft(booking *domain.Booking, item *TripsHandlerItem, vehicles []*domain.Vehicle, drivers []*domain.Driver) *TripDraft {
	d := &TripDraft{
		Booking:    booking,
		StopsBegin: domain.MaxStopOrder(booking.Stops),
		vehicles:   ApplicableVehicles(vehicles, booking.VehicleType),
		drivers:    ActiveDrivers(drivers),
		nextRowID:  1,
	}

	for _, slot := range ResolveSlots(item, d.vehicles, d.drivers) {
		d.Resources = append(d.Resources, ResourceRow{RowID: d.nextRowID, SlotDescriptor: slot})
		d.nextRowID++
	}
	d.FixedResources = len(d.Resources)

	return d
}

// ApplicableVehicles returns the vehicles of the booking's vehicle type, or all
// vehicles when the booking does not ask for one.
func ApplicableVehicles(vehicles []*domain.Vehicle, vt *domain.VehicleType) []*domain.Vehicle {
	if vt == nil || vt.ID == "" {
		return vehicles
	}
	out := make([]*domain.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if v != nil && v.HasType(vt.ID) {
			out = append(out, v)
		}
	}
	return out
}

func ActiveDrivers(drivers []*domain.Driver) []*domain.Driver {
	out := make([]*domain.Driver, 0, len(drivers))
	for _, d := range drivers {
		if d != nil && d.IsActive() {
			out = append(out, d)
		}
	}
	return out
}

// Vehicles returns the pool vehicle rows pick from.
func (d *TripDraft) Vehicles() []*domain.Vehicle { return d.vehicles }

// Drivers returns the pool driver rows pick from.
func (d *TripDraft) Drivers() []*domain.Driver { return d.drivers }

// AddResource appends a free vehicle row seeded with the first applicable vehicle.
func (d *TripDraft) AddResource() ResourceRow {
	row := ResourceRow{
		RowID:          d.nextRowID,
		SlotDescriptor: defaultSlot(domain.ResourceVehicle, d.vehicles, d.drivers, true),
	}
	d.nextRowID++
	d.Resources = append(d.Resources, row)
	return row
}

func (d *TripDraft) RemoveResource(rowID int) error {
	i, err := d.rowIndex(rowID)
	if err != nil {
		return err
	}
	if !d.Resources[i].Removable {
		return fmt.Errorf("remove resource row %d: %w", rowID, ErrLockedResource)
	}
	d.Resources = slices.Delete(d.Resources, i, i+1)
	return nil
}

// ChangeResourceType switches a free row to another type and reseeds its entity.
func (d *TripDraft) ChangeResourceType(rowID int, rt domain.ResourceType) error {
	if !rt.Valid() {
		return fmt.Errorf("change resource row %d: %q: %w", rowID, rt, ErrUnknownResourceType)
	}
	i, err := d.rowIndex(rowID)
	if err != nil {
		return err
	}
	if !d.Resources[i].Removable {
		return fmt.Errorf("change resource row %d type: %w", rowID, ErrLockedResource)
	}
	d.Resources[i].SlotDescriptor = defaultSlot(rt, d.vehicles, d.drivers, true)
	return nil
}

// SelectResource picks another entity of the row's type.
func (d *TripDraft) SelectResource(rowID int, entityID string) error {
	i, err := d.rowIndex(rowID)
	if err != nil {
		return err
	}
	row := &d.Resources[i]
	if !row.Editable {
		return fmt.Errorf("select resource row %d: %w", rowID, ErrLockedResource)
	}

	entity := lookupEntity(row.EntityType, entityID, d.vehicles, d.drivers)
	if entity == nil {
		return fmt.Errorf("select resource row %d: %s %q: %w", rowID, row.EntityType, entityID, ErrUnknownEntity)
	}
	row.EntityID = entityID
	row.Entity = entity
	return nil
}

// ApplyResources replays a submitted resource list over the draft. The first
// FixedResources entries must match the fixed rows' types, and locked rows
// must keep their entity. Entries past them become free rows.
func (d *TripDraft) ApplyResources(selections []ports.ResourceRef) error {
	if len(selections) < d.FixedResources {
		return fmt.Errorf("apply resources: got %d rows, want at least %d: %w",
			len(selections), d.FixedResources, ErrLockedResource)
	}

	for _, row := range slices.Clone(d.Resources[d.FixedResources:]) {
		if err := d.RemoveResource(row.RowID); err != nil {
			return fmt.Errorf("apply resources: %w", err)
		}
	}

	for i, sel := range selections[:d.FixedResources] {
		row := d.Resources[i]
		if sel.EntityType != row.EntityType {
			return fmt.Errorf("apply resources: row %d is %s: %w", row.RowID, row.EntityType, ErrLockedResource)
		}
		if sel.EntityID == row.EntityID {
			continue
		}
		if err := d.SelectResource(row.RowID, sel.EntityID); err != nil {
			return fmt.Errorf("apply resources: %w", err)
		}
	}

	for _, sel := range selections[d.FixedResources:] {
		row := d.AddResource()
		if sel.EntityType != row.EntityType {
			if err := d.ChangeResourceType(row.RowID, sel.EntityType); err != nil {
				return fmt.Errorf("apply resources: %w", err)
			}
		}
		if err := d.SelectResource(row.RowID, sel.EntityID); err != nil {
			return fmt.Errorf("apply resources: %w", err)
		}
	}

	return nil
}

// AddStop appends a stop after the booking's own stops.
func (d *TripDraft) AddStop(s ports.NewStop) error {
	if !s.LoadedType.Valid() {
		return fmt.Errorf("add stop: loaded type %q: %w", s.LoadedType, ErrInvalidStop)
	}

	hasLocation := strings.TrimSpace(s.LocationID) != ""
	if hasLocation == (s.Address != nil) {
		return fmt.Errorf("add stop: exactly one of location or address is required: %w", ErrInvalidStop)
	}

	d.Stops = append(d.Stops, s)
	return nil
}

func (d *TripDraft) RemoveStop(index int) error {
	if index < 0 || index >= len(d.Stops) {
		return fmt.Errorf("remove stop %d: %w", index, ErrInvalidStop)
	}
	d.Stops = slices.Delete(d.Stops, index, index+1)
	return nil
}

// Request builds the create-trip payload. New stops are numbered after the
// booking's highest stop order.
func (d *TripDraft) Request() (ports.CreateTripRequest, error) {
	req := ports.CreateTripRequest{
		BookingIDs:    []string{d.Booking.ID},
		DispatchOrder: 1,
		Resources:     make([]ports.ResourceRef, 0, len(d.Resources)),
		Stops:         make([]ports.NewStop, 0, len(d.Stops)),
	}

	for _, row := range d.Resources {
		if row.Entity == nil || row.EntityID == "" {
			return ports.CreateTripRequest{}, fmt.Errorf("trip request: row %d (%s): %w", row.RowID, row.EntityType, ErrMissingEntity)
		}
		req.Resources = append(req.Resources, ports.ResourceRef{EntityType: row.EntityType, EntityID: row.EntityID})
	}

	for i, s := range d.Stops {
		s.StopOrder = d.StopsBegin + i + 1
		req.Stops = append(req.Stops, s)
	}

	return req, nil
}

func (d *TripDraft) rowIndex(rowID int) (int, error) {
	i := slices.IndexFunc(d.Resources, func(r ResourceRow) bool { return r.RowID == rowID })
	if i < 0 {
		return -1, fmt.Errorf("resource row %d: %w", rowID, ErrRowNotFound)
	}
	return i, nil
}
