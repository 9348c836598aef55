package services

import (
	"dispatch-board-service/internal/domain"
	"dispatch-board-service/internal/ports"
	"errors"
	"testing"
)

func draftBooking() *domain.Booking {
	return &domain.Booking{
		ID:     "B1",
		Status: domain.BookingAvailable,
		Stops: []domain.Stop{
			{ID: "s1", StopOrder: 1, Type: domain.StopTypePickup, AppointmentFrom: day(1)},
			{ID: "s2", StopOrder: 4, Type: domain.StopTypeDropoff, AppointmentFrom: day(2)},
		},
	}
}

func TestTripDraftRequestContinuesStopOrder(t *testing.T) {
	d := NewTripDraft(draftBooking(), nil,
		[]*domain.Vehicle{vehicle("V1")}, []*domain.Driver{driver("D1")})

	if d.StopsBegin != 4 {
		t.Fatalf("StopsBegin = %d, want 4", d.StopsBegin)
	}
	for _, s := range []ports.NewStop{
		{LoadedType: domain.StopEmpty, LocationID: "L1", ArriveDate: day(3)},
		{LoadedType: domain.StopLoaded, Address: &domain.Address{Line1: "1 Main St"}, ArriveDate: day(4)},
	} {
		if err := d.AddStop(s); err != nil {
			t.Fatalf("AddStop: %v", err)
		}
	}

	req, err := d.Request()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.BookingIDs) != 1 || req.BookingIDs[0] != "B1" {
		t.Fatalf("booking ids = %v, want [B1]", req.BookingIDs)
	}
	if req.Stops[0].StopOrder != 5 || req.Stops[1].StopOrder != 6 {
		t.Fatalf("stop orders = %d, %d, want 5, 6", req.Stops[0].StopOrder, req.Stops[1].StopOrder)
	}
	if len(req.Resources) != 2 || req.Resources[0].EntityID != "V1" || req.Resources[1].EntityID != "D1" {
		t.Fatalf("resources = %+v, want V1, D1", req.Resources)
	}
}

func TestTripDraftAddStopValidation(t *testing.T) {
	d := NewTripDraft(draftBooking(), nil, nil, nil)

	bad := []ports.NewStop{
		{LoadedType: "HALF", LocationID: "L1"},
		{LoadedType: domain.StopEmpty},
		{LoadedType: domain.StopEmpty, LocationID: "L1", Address: &domain.Address{Line1: "x"}},
	}
	for i, s := range bad {
		if err := d.AddStop(s); !errors.Is(err, ErrInvalidStop) {
			t.Fatalf("case %d: err = %v, want ErrInvalidStop", i, err)
		}
	}
	if err := d.RemoveStop(0); !errors.Is(err, ErrInvalidStop) {
		t.Fatalf("RemoveStop on empty draft: err = %v, want ErrInvalidStop", err)
	}
}

func TestTripDraftLockedRows(t *testing.T) {
	item := &TripsHandlerItem{
		Vehicle: vehicle("V2"),
		Trips:   []*domain.Trip{trip("T1", domain.TripDispatched, 1, dispatch(domain.ResourceVehicle, "V2"))},
	}
	d := NewTripDraft(draftBooking(), item,
		[]*domain.Vehicle{vehicle("V1"), vehicle("V2")}, []*domain.Driver{driver("D1"), driver("D2")})

	if d.FixedResources != 2 {
		t.Fatalf("FixedResources = %d, want 2", d.FixedResources)
	}
	locked := d.Resources[0]
	if locked.EntityID != "V2" || locked.Editable {
		t.Fatalf("row 0 = %+v, want locked V2", locked)
	}

	if err := d.SelectResource(locked.RowID, "V1"); !errors.Is(err, ErrLockedResource) {
		t.Fatalf("select on locked row: err = %v, want ErrLockedResource", err)
	}
	if err := d.RemoveResource(d.Resources[1].RowID); !errors.Is(err, ErrLockedResource) {
		t.Fatalf("remove fixed row: err = %v, want ErrLockedResource", err)
	}
	if err := d.ChangeResourceType(d.Resources[1].RowID, domain.ResourceVehicle); !errors.Is(err, ErrLockedResource) {
		t.Fatalf("change type of fixed row: err = %v, want ErrLockedResource", err)
	}

	if err := d.SelectResource(d.Resources[1].RowID, "D2"); err != nil {
		t.Fatalf("select D2: %v", err)
	}
	if err := d.SelectResource(d.Resources[1].RowID, "V1"); !errors.Is(err, ErrUnknownEntity) {
		t.Fatalf("select vehicle on driver row: err = %v, want ErrUnknownEntity", err)
	}
}

func TestTripDraftFreeRows(t *testing.T) {
	d := NewTripDraft(draftBooking(), nil,
		[]*domain.Vehicle{vehicle("V1")}, []*domain.Driver{driver("D1"), driver("D2")})

	row := d.AddResource()
	if !row.Removable || row.EntityType != domain.ResourceVehicle || row.EntityID != "V1" {
		t.Fatalf("added row = %+v, want removable V1", row)
	}
	if err := d.ChangeResourceType(row.RowID, domain.ResourceDriver); err != nil {
		t.Fatalf("change type: %v", err)
	}
	if got := d.Resources[2]; got.EntityType != domain.ResourceDriver || got.EntityID != "D1" {
		t.Fatalf("changed row = %s/%s, want Driver/D1", got.EntityType, got.EntityID)
	}
	if err := d.RemoveResource(row.RowID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(d.Resources) != 2 {
		t.Fatalf("rows = %d, want 2", len(d.Resources))
	}
	if err := d.RemoveResource(row.RowID); !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("remove twice: err = %v, want ErrRowNotFound", err)
	}

	// Row ids are not reused.
	if next := d.AddResource(); next.RowID == row.RowID {
		t.Fatalf("row id %d reused", next.RowID)
	}
}

func TestTripDraftApplyResources(t *testing.T) {
	item := &TripsHandlerItem{
		Vehicle: vehicle("V2"),
		Trips:   []*domain.Trip{trip("T1", domain.TripDispatched, 1, dispatch(domain.ResourceVehicle, "V2"))},
	}
	d := NewTripDraft(draftBooking(), item,
		[]*domain.Vehicle{vehicle("V1"), vehicle("V2")}, []*domain.Driver{driver("D1"), driver("D2")})

	err := d.ApplyResources([]ports.ResourceRef{
		{EntityType: domain.ResourceVehicle, EntityID: "V2"},
		{EntityType: domain.ResourceDriver, EntityID: "D2"},
		{EntityType: domain.ResourceDriver, EntityID: "D1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, err := d.Request()
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var got []string
	for _, r := range req.Resources {
		got = append(got, string(r.EntityType)+":"+r.EntityID)
	}
	if !equalIDs(got, []string{"Vehicle:V2", "Driver:D2", "Driver:D1"}) {
		t.Fatalf("resources = %v", got)
	}

	cases := [][]ports.ResourceRef{
		{{EntityType: domain.ResourceVehicle, EntityID: "V2"}},
		{{EntityType: domain.ResourceVehicle, EntityID: "V1"}, {EntityType: domain.ResourceDriver, EntityID: "D1"}},
		{{EntityType: domain.ResourceDriver, EntityID: "D1"}, {EntityType: domain.ResourceVehicle, EntityID: "V2"}},
	}
	for i, c := range cases {
		if err := d.ApplyResources(c); !errors.Is(err, ErrLockedResource) {
			t.Fatalf("case %d: err = %v, want ErrLockedResource", i, err)
		}
	}
}

func TestTripDraftMissingEntity(t *testing.T) {
	d := NewTripDraft(draftBooking(), nil, nil, []*domain.Driver{driver("D1")})

	if _, err := d.Request(); !errors.Is(err, ErrMissingEntity) {
		t.Fatalf("err = %v, want ErrMissingEntity", err)
	}
}

func TestTripDraftFiltersPools(t *testing.T) {
	box := &domain.VehicleType{ID: "box"}
	v1 := vehicle("V1")
	v2 := vehicle("V2")
	v2.Type = box
	inactive := driver("D1")
	inactive.Status = domain.StatusDeleted

	b := draftBooking()
	b.VehicleType = box

	d := NewTripDraft(b, nil, []*domain.Vehicle{v1, v2}, []*domain.Driver{inactive, driver("D2")})

	if len(d.Vehicles()) != 1 || d.Vehicles()[0].ID != "V2" {
		t.Fatalf("vehicles = %v, want [V2]", d.Vehicles())
	}
	if len(d.Drivers()) != 1 || d.Drivers()[0].ID != "D2" {
		t.Fatalf("drivers = %v, want [D2]", d.Drivers())
	}
	if d.Resources[0].EntityID != "V2" || d.Resources[1].EntityID != "D2" {
		t.Fatalf("rows = %s, %s, want V2, D2", d.Resources[0].EntityID, d.Resources[1].EntityID)
	}
}

func TestTripDraftIgnoresNilPoolEntries(t *testing.T) {
	box := &domain.VehicleType{ID: "box"}
	v1 := vehicle("V1")
	v1.Type = box
	b := draftBooking()
	b.VehicleType = box

	var nilVehicle *domain.Vehicle
	var nilDriver *domain.Driver
	d := NewTripDraft(b, nil, []*domain.Vehicle{nilVehicle, v1}, []*domain.Driver{nilDriver, driver("D1")})

	if len(d.Vehicles()) != 1 || len(d.Drivers()) != 1 {
		t.Fatalf("pools = %d vehicles, %d drivers, want 1 and 1", len(d.Vehicles()), len(d.Drivers()))
	}
	if d.Resources[0].EntityID != "V1" || d.Resources[1].EntityID != "D1" {
		t.Fatalf("rows = %s, %s, want V1, D1", d.Resources[0].EntityID, d.Resources[1].EntityID)
	}
}
