package fleetapi

import (
	"context"
	"dispatch-board-service/internal/domain"
	"dispatch-board-service/internal/ports"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const tripsBody = `{
  "results": [
    {
      "id": "T1",
      "tripNo": "1001",
      "status": "ON HOLD",
      "createdAt": "2024-01-03T10:00:00",
      "completedAt": null,
      "stops": [
        {"id": "s1", "type": "PICKUP", "stopOrder": 1, "appointmentFrom": "2024-01-02T08:00:00Z",
         "location": {"id": "L1", "name": "Yard", "coordinates": {"latitude": 45.5, "longitude": -122.6}}},
        {"id": "s2", "type": "DROPOFF", "stopOrder": 2, "appointmentFrom": "2024-01-02",
         "address": {"line1": "1 Main St", "city": "Portland"}}
      ],
      "dispatches": [
        {"id": "d1", "resource": {"entityType": "Vehicle", "entityId": "V1"}},
        {"id": "d2", "resource": {"entityType": "Trailer", "entityId": "X1"}}
      ]
    }
  ],
  "resultCount": 1
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/", "secret", 5*time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestListTrips(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/web/dispatching/trips" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query()
		if got := q["statuses[]"]; len(got) != 2 || got[0] != "PREASSIGNED" || got[1] != "DISPATCHED" {
			t.Errorf("statuses = %v", got)
		}
		if q.Get("dispatchGroupId") != "G1" || q.Get("sort") != "createdAt.DESC" || q.Get("limit") != "1000" {
			t.Errorf("query = %v", q)
		}
		io.WriteString(w, tripsBody)
	})

	trips, err := c.ListTrips(context.Background(), ports.TripQuery{
		Statuses:        domain.TabPlan.Statuses(),
		DispatchGroupID: "G1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trips) != 1 {
		t.Fatalf("trips = %d, want 1", len(trips))
	}

	tr := trips[0]
	if tr.Status != domain.TripOnHold || tr.CompletedAt != nil {
		t.Fatalf("trip = %+v", tr)
	}
	if want := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC); !tr.CreatedAt.Equal(want) {
		t.Fatalf("createdAt = %v, want %v", tr.CreatedAt, want)
	}
	if !tr.Stops[0].IsLocation() || tr.Stops[0].Location.Coords.Lat != 45.5 {
		t.Fatalf("stop 0 location = %+v", tr.Stops[0].Location)
	}
	if tr.Stops[1].Address == nil || tr.Stops[1].Address.City != "Portland" {
		t.Fatalf("stop 1 address = %+v", tr.Stops[1].Address)
	}
	if got := tr.Stops[1].AppointmentFrom; !got.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date-only appointment = %v", got)
	}
	if tr.Dispatches[1].Resource.EntityType.Valid() {
		t.Fatal("unknown entity type should pass through as invalid")
	}
}

func TestListBookingsPath(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		io.WriteString(w, `{"results":[{"id":"B1","status":"Available","vehicleType":{"id":"box"}}],"resultCount":1}`)
	})

	bookings, err := c.ListBookings(context.Background(), domain.BookingAvailable)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bookings[0].Status != domain.BookingAvailable || bookings[0].VehicleType.ID != "box" {
		t.Fatalf("booking = %+v", bookings[0])
	}
	if _, err := c.ListBookings(context.Background(), domain.BookingAll); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"/api/web/dispatching/bookings/Available", "/api/web/dispatching/bookings"}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
}

func TestCreateTripPayload(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		io.WriteString(w, `{"id":"T9","status":"PREASSIGNED"}`)
	})

	trip, err := c.CreateTrip(context.Background(), ports.CreateTripRequest{
		BookingIDs:    []string{"B1"},
		DispatchOrder: 1,
		Resources:     []ports.ResourceRef{{EntityType: domain.ResourceVehicle, EntityID: "V1"}},
		Stops: []ports.NewStop{
			{StopOrder: 3, LoadedType: domain.StopEmpty, LocationID: "L1",
				ArriveDate: time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC), RequiredFeedbackTypeIDs: []string{"F1"}},
			{StopOrder: 4, LoadedType: domain.StopLoaded, Address: &domain.Address{Line1: "1 Main St"}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.ID != "T9" {
		t.Fatalf("trip id = %s, want T9", trip.ID)
	}

	stops := body["stops"].([]any)
	first := stops[0].(map[string]any)
	if first["arriveDate"] != "2024-01-05T09:30:00" {
		t.Fatalf("arriveDate = %v", first["arriveDate"])
	}
	if first["location"].(map[string]any)["id"] != "L1" || first["address"] != nil {
		t.Fatalf("first stop = %v", first)
	}
	second := stops[1].(map[string]any)
	if second["location"] != nil || second["address"].(map[string]any)["line1"] != "1 Main St" {
		t.Fatalf("second stop = %v", second)
	}
	res := body["resources"].([]any)[0].(map[string]any)
	if res["entityType"] != "Vehicle" || res["entityId"] != "V1" {
		t.Fatalf("resource = %v", res)
	}
}

func TestStatusErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/web/vehicles" {
			http.Error(w, "upstream broke", http.StatusBadGateway)
			return
		}
		http.Error(w, "no such trip", http.StatusNotFound)
	})

	_, err := c.ListVehicles(context.Background())
	var he *HTTPStatusError
	if !errors.As(err, &he) || he.Code != http.StatusBadGateway || he.Body != "upstream broke" {
		t.Fatalf("err = %v, want 502 HTTPStatusError", err)
	}
	if errors.Is(err, ports.ErrNotFound) {
		t.Fatal("502 must not match ErrNotFound")
	}

	if err := c.DeleteTrip(context.Background(), "T404"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestNewClientRequiresURL(t *testing.T) {
	if _, err := NewClient("", "", time.Second); err == nil {
		t.Fatal("NewClient(\"\") error = nil, want error")
	}
}

func TestStatusErrorBodyIsBounded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, strings.Repeat("x", 4*maxErrorBody))
	})

	_, err := c.ListVehicles(context.Background())
	var he *HTTPStatusError
	if !errors.As(err, &he) || he.Code != http.StatusInternalServerError {
		t.Fatalf("err = %v, want 500 HTTPStatusError", err)
	}
	if len(he.Body) != maxErrorBody {
		t.Fatalf("body length = %d, want %d", len(he.Body), maxErrorBody)
	}
}
