package dto

import (
	"dispatch-board-service/internal/domain"
	"time"
)

type LocationResponse struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Coords []float64 `json:"coords,omitempty"`
}

type AddressResponse struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	Zip     string `json:"zip"`
}

type StopResponse struct {
	ID              string            `json:"id"`
	StopOrder       int               `json:"stop_order"`
	Type            string            `json:"type"`
	LoadedType      string            `json:"loaded_type,omitempty"`
	AppointmentFrom *time.Time        `json:"appointment_from"`
	ArriveDate      *time.Time        `json:"arrive_date"`
	Location        *LocationResponse `json:"location,omitempty"`
	Address         *AddressResponse  `json:"address,omitempty"`
}

type DispatchResponse struct {
	ID         string `json:"id"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
}

type TripResponse struct {
	ID            string             `json:"id"`
	TripNo        string             `json:"trip_no"`
	Status        string             `json:"status"`
	DispatchOrder int                `json:"dispatch_order"`
	CreatedAt     *time.Time         `json:"created_at"`
	FirstPickupAt *time.Time         `json:"first_pickup_at"`
	LastDropoffAt *time.Time         `json:"last_dropoff_at"`
	DropoffCount  int                `json:"dropoff_count"`
	Stops         []StopResponse     `json:"stops"`
	Dispatches    []DispatchResponse `json:"dispatches"`
}

type BookingResponse struct {
	ID            string         `json:"id"`
	BookNo        string         `json:"book_no"`
	Status        string         `json:"status"`
	BillingName   string         `json:"billing_name"`
	Hold          bool           `json:"hold"`
	VehicleTypeID string         `json:"vehicle_type_id,omitempty"`
	FirstPickupAt *time.Time     `json:"first_pickup_at"`
	LastDropoffAt *time.Time     `json:"last_dropoff_at"`
	DropoffCount  int            `json:"dropoff_count"`
	Stops         []StopResponse `json:"stops"`
}

type ListBookingsResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Zero times are rendered as null.
func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// stopWindow is implemented by trips and bookings.
type stopWindow interface {
	FirstStop(stopType string) (domain.Stop, bool)
	LastStop(stopType string) (domain.Stop, bool)
	FilterStops(stopType string) []domain.Stop
}

// summarize returns the earliest pickup, the latest dropoff and the dropoff count.
func summarize(w stopWindow) (firstPickup, lastDropoff *time.Time, dropoffs int) {
	if s, ok := w.FirstStop(domain.StopTypePickup); ok {
		firstPickup = timePtr(s.AppointmentFrom)
	}
	if s, ok := w.LastStop(domain.StopTypeDropoff); ok {
		lastDropoff = timePtr(s.AppointmentFrom)
	}
	return firstPickup, lastDropoff, len(w.FilterStops(domain.StopTypeDropoff))
}

func FromStops(stops []domain.Stop) []StopResponse {
	out := make([]StopResponse, 0, len(stops))
	for _, s := range stops {
		res := StopResponse{
			ID:              s.ID,
			StopOrder:       s.StopOrder,
			Type:            s.Type,
			LoadedType:      string(s.LoadedType),
			AppointmentFrom: timePtr(s.AppointmentFrom),
			ArriveDate:      timePtr(s.ArriveDate),
		}
		if s.Location != nil {
			res.Location = &LocationResponse{ID: s.Location.ID, Name: s.Location.Name}
			if s.Location.Coords != nil {
				res.Location.Coords = s.Location.Coords.CoordsToList()
			}
		}
		if s.Address != nil {
			res.Address = &AddressResponse{
				Line1:   s.Address.Line1,
				Line2:   s.Address.Line2,
				City:    s.Address.City,
				State:   s.Address.State,
				Country: s.Address.Country,
				Zip:     s.Address.Zip,
			}
		}
		out = append(out, res)
	}
	return out
}

func FromTrip(t *domain.Trip) TripResponse {
	res := TripResponse{
		ID:            t.ID,
		TripNo:        t.TripNo,
		Status:        string(t.Status),
		DispatchOrder: t.DispatchOrder,
		CreatedAt:     timePtr(t.CreatedAt),
		Stops:         FromStops(t.Stops),
		Dispatches:    make([]DispatchResponse, 0, len(t.Dispatches)),
	}
	res.FirstPickupAt, res.LastDropoffAt, res.DropoffCount = summarize(t)
	for _, d := range t.Dispatches {
		res.Dispatches = append(res.Dispatches, DispatchResponse{
			ID:         d.ID,
			EntityType: string(d.Resource.EntityType),
			EntityID:   d.Resource.EntityID,
		})
	}
	return res
}

func FromTrips(trips []*domain.Trip) []TripResponse {
	out := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		out = append(out, FromTrip(t))
	}
	return out
}

func FromBooking(b *domain.Booking) BookingResponse {
	res := BookingResponse{
		ID:          b.ID,
		BookNo:      b.BookNo,
		Status:      string(b.Status),
		BillingName: b.BillingName,
		Hold:        b.Hold,
		Stops:       FromStops(b.Stops),
	}
	res.FirstPickupAt, res.LastDropoffAt, res.DropoffCount = summarize(b)
	if b.VehicleType != nil {
		res.VehicleTypeID = b.VehicleType.ID
	}
	return res
}
