package fleetapi

import (
	"dispatch-board-service/internal/domain"
	"dispatch-board-service/internal/ports"
	"strings"
	"time"
)

// Timestamp layout the fleet backend expects on writes (UTC, no zone).
const backendLayout = "2006-01-02T15:04:05"

// Layouts accepted on reads, most specific first.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	backendLayout,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// wireTime decodes any of the backend's timestamp shapes. Empty and null
// values decode to the zero time.
type wireTime struct{ time.Time }

func (t *wireTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := parseTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func parseTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func (t *wireTime) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

type page[T any] struct {
	Results     []T `json:"results"`
	ResultCount int `json:"resultCount"`
}

type wireRef struct {
	ID string `json:"id"`
}

type wireDispatchGroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type wireVehicleType struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type wireCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type wireLocation struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Coordinates *wireCoordinates `json:"coordinates"`
}

type wireAddress struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	Zip     string `json:"zip"`
}

type wireFeedbackType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type wireStop struct {
	ID                    string             `json:"id"`
	StopOrder             int                `json:"stopOrder"`
	Type                  string             `json:"type"`
	LoadedType            string             `json:"loadedType"`
	AppointmentFrom       wireTime           `json:"appointmentFrom"`
	ArriveDate            wireTime           `json:"arriveDate"`
	CreatedAt             wireTime           `json:"createdAt"`
	Location              *wireLocation      `json:"location"`
	Address               *wireAddress       `json:"address"`
	RequiredFeedbackTypes []wireFeedbackType `json:"requiredFeedbackTypes"`
}

type wireResource struct {
	EntityType    string `json:"entityType"`
	EntityID      string `json:"entityId"`
	ServiceStatus string `json:"serviceStatus"`
	LoadStatus    string `json:"loadStatus"`
}

type wireDispatch struct {
	ID        string       `json:"id"`
	Resource  wireResource `json:"resource"`
	CreatedAt wireTime     `json:"createdAt"`
}

type wireTrip struct {
	ID            string         `json:"id"`
	TripNo        string         `json:"tripNo"`
	Status        string         `json:"status"`
	DispatchOrder int            `json:"dispatchOrder"`
	CreatedAt     wireTime       `json:"createdAt"`
	CompletedAt   *wireTime      `json:"completedAt"`
	ApprovedAt    *wireTime      `json:"approvedAt"`
	Stops         []wireStop     `json:"stops"`
	Dispatches    []wireDispatch `json:"dispatches"`
}

type wireBooking struct {
	ID          string           `json:"id"`
	BookNo      string           `json:"bookNo"`
	Status      string           `json:"status"`
	BillingName string           `json:"billingName"`
	Hold        bool             `json:"hold"`
	CreatedAt   wireTime         `json:"createdAt"`
	VehicleType *wireVehicleType `json:"vehicleType"`
	Stops       []wireStop       `json:"stops"`
}

type wireVehicle struct {
	ID            string             `json:"id"`
	RemoteID      string             `json:"remoteId"`
	Status        string             `json:"status"`
	Make          string             `json:"make"`
	Model         string             `json:"model"`
	Year          int                `json:"year"`
	VIN           string             `json:"vin"`
	VehicleType   *wireVehicleType   `json:"vehicleType"`
	DispatchGroup *wireDispatchGroup `json:"dispatchGroup"`
}

type wireDriver struct {
	ID            string             `json:"id"`
	RemoteID      string             `json:"remoteId"`
	Status        string             `json:"status"`
	FirstName     string             `json:"firstName"`
	LastName      string             `json:"lastName"`
	Username      string             `json:"username"`
	DispatchGroup *wireDispatchGroup `json:"dispatchGroup"`
}

type wireNewStop struct {
	StopOrder             int          `json:"stopOrder"`
	ArriveDate            string       `json:"arriveDate,omitempty"`
	LoadedType            string       `json:"loadedType"`
	RequiredFeedbackTypes []wireRef    `json:"requiredFeedbackTypes"`
	Location              *wireRef     `json:"location"`
	Address               *wireAddress `json:"address"`
}

type wireResourceRef struct {
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
}

type wireCreateTrip struct {
	BookingIDs    []string          `json:"bookingIds"`
	DispatchOrder int               `json:"dispatchOrder"`
	Resources     []wireResourceRef `json:"resources"`
	Stops         []wireNewStop     `json:"stops"`
}

func (g *wireDispatchGroup) toDomain() *domain.DispatchGroup {
	if g == nil {
		return nil
	}
	return &domain.DispatchGroup{ID: g.ID, Name: g.Name}
}

func (vt *wireVehicleType) toDomain() *domain.VehicleType {
	if vt == nil {
		return nil
	}
	return &domain.VehicleType{ID: vt.ID, Type: vt.Type, Description: vt.Description}
}

func (a *wireAddress) toDomain() *domain.Address {
	if a == nil {
		return nil
	}
	return &domain.Address{Line1: a.Line1, Line2: a.Line2, City: a.City, State: a.State, Country: a.Country, Zip: a.Zip}
}

func fromAddress(a *domain.Address) *wireAddress {
	if a == nil {
		return nil
	}
	return &wireAddress{Line1: a.Line1, Line2: a.Line2, City: a.City, State: a.State, Country: a.Country, Zip: a.Zip}
}

func (s wireStop) toDomain() domain.Stop {
	out := domain.Stop{
		ID:              s.ID,
		StopOrder:       s.StopOrder,
		Type:            s.Type,
		LoadedType:      domain.StopLoadType(s.LoadedType),
		AppointmentFrom: s.AppointmentFrom.Time,
		ArriveDate:      s.ArriveDate.Time,
		CreatedAt:       s.CreatedAt.Time,
		Address:         s.Address.toDomain(),
	}
	if s.Location != nil {
		out.Location = &domain.Location{ID: s.Location.ID, Name: s.Location.Name}
		if c := s.Location.Coordinates; c != nil {
			out.Location.Coords = &domain.Coordinates{Lat: c.Latitude, Lon: c.Longitude}
		}
	}
	for _, ft := range s.RequiredFeedbackTypes {
		out.RequiredFeedbackTypes = append(out.RequiredFeedbackTypes, domain.FeedbackType{ID: ft.ID, Name: ft.Name, Type: ft.Type})
	}
	return out
}

func toStops(in []wireStop) []domain.Stop {
	out := make([]domain.Stop, 0, len(in))
	for _, s := range in {
		out = append(out, s.toDomain())
	}
	return out
}

func (t wireTrip) toDomain() *domain.Trip {
	out := &domain.Trip{
		ID:            t.ID,
		TripNo:        t.TripNo,
		Status:        domain.TripStatus(t.Status),
		DispatchOrder: t.DispatchOrder,
		CreatedAt:     t.CreatedAt.Time,
		CompletedAt:   t.CompletedAt.ptr(),
		ApprovedAt:    t.ApprovedAt.ptr(),
		Stops:         toStops(t.Stops),
	}
	for _, d := range t.Dispatches {
		out.Dispatches = append(out.Dispatches, domain.Dispatch{
			ID: d.ID,
			Resource: domain.Resource{
				// Unknown types pass through unchanged and are ignored by grouping.
				EntityType:    domain.ResourceType(d.Resource.EntityType),
				EntityID:      d.Resource.EntityID,
				ServiceStatus: d.Resource.ServiceStatus,
				LoadStatus:    d.Resource.LoadStatus,
			},
			CreatedAt: d.CreatedAt.Time,
		})
	}
	return out
}

func (b wireBooking) toDomain() *domain.Booking {
	status, ok := domain.ParseBookingStatus(b.Status)
	if !ok {
		status = domain.BookingStatus(b.Status)
	}
	return &domain.Booking{
		ID:          b.ID,
		BookNo:      b.BookNo,
		Status:      status,
		BillingName: b.BillingName,
		Hold:        b.Hold,
		CreatedAt:   b.CreatedAt.Time,
		VehicleType: b.VehicleType.toDomain(),
		Stops:       toStops(b.Stops),
	}
}

func (v wireVehicle) toDomain() *domain.Vehicle {
	return &domain.Vehicle{
		ID:            v.ID,
		RemoteID:      v.RemoteID,
		Status:        v.Status,
		Make:          v.Make,
		Model:         v.Model,
		Year:          v.Year,
		VIN:           v.VIN,
		Type:          v.VehicleType.toDomain(),
		DispatchGroup: v.DispatchGroup.toDomain(),
	}
}

func (d wireDriver) toDomain() *domain.Driver {
	return &domain.Driver{
		ID:            d.ID,
		RemoteID:      d.RemoteID,
		Status:        d.Status,
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		Username:      d.Username,
		DispatchGroup: d.DispatchGroup.toDomain(),
	}
}

func fromCreateTrip(req ports.CreateTripRequest) wireCreateTrip {
	out := wireCreateTrip{
		BookingIDs:    req.BookingIDs,
		DispatchOrder: req.DispatchOrder,
		Resources:     make([]wireResourceRef, 0, len(req.Resources)),
		Stops:         make([]wireNewStop, 0, len(req.Stops)),
	}
	for _, r := range req.Resources {
		out.Resources = append(out.Resources, wireResourceRef{EntityType: string(r.EntityType), EntityID: r.EntityID})
	}
	for _, s := range req.Stops {
		ns := wireNewStop{
			StopOrder:             s.StopOrder,
			LoadedType:            string(s.LoadedType),
			RequiredFeedbackTypes: make([]wireRef, 0, len(s.RequiredFeedbackTypeIDs)),
		}
		if !s.ArriveDate.IsZero() {
			ns.ArriveDate = s.ArriveDate.UTC().Format(backendLayout)
		}
		for _, id := range s.RequiredFeedbackTypeIDs {
			ns.RequiredFeedbackTypes = append(ns.RequiredFeedbackTypes, wireRef{ID: id})
		}
		if s.LocationID != "" {
			ns.Location = &wireRef{ID: s.LocationID}
		} else {
			ns.Address = fromAddress(s.Address)
		}
		out.Stops = append(out.Stops, ns)
	}
	return out
}
