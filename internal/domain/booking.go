package domain

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingAvailable  BookingStatus = "Available"
	BookingDispatched BookingStatus = "Dispatched"
	BookingCompleted  BookingStatus = "Completed"
	// BookingAll is a query filter only; no booking carries it.
	BookingAll BookingStatus = "All"
)

// ParseBookingStatus accepts the wire value case-insensitively.
func ParseBookingStatus(s string) (BookingStatus, bool) {
	for _, st := range []BookingStatus{BookingAvailable, BookingDispatched, BookingCompleted, BookingAll} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

// A customer request awaiting conversion into a Trip.
type Booking struct {
	ID          string
	BookNo      string
	Status      BookingStatus
	BillingName string
	Hold        bool
	CreatedAt   time.Time
	VehicleType *VehicleType
	Stops       []Stop
}

func (b *Booking) FilterStops(stopType string) []Stop { return FilterStops(b.Stops, stopType) }

func (b *Booking) FirstStop(stopType string) (Stop, bool) { return FirstStop(b.Stops, stopType) }

func (b *Booking) LastStop(stopType string) (Stop, bool) { return LastStop(b.Stops, stopType) }

// WithOrderedStops returns a shallow copy of the booking whose stops are ordered.
func (b *Booking) WithOrderedStops() *Booking {
	c := *b
	c.Stops = OrderStops(b.Stops)
	return &c
}
