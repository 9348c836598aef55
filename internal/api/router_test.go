package api

import (
	"context"
	"dispatch-board-service/internal/adapters/cache"
	"dispatch-board-service/internal/adapters/fleet"
	"dispatch-board-service/internal/adapters/push"
	"dispatch-board-service/internal/api/dto"
	"dispatch-board-service/internal/domain"
	"dispatch-board-service/internal/services"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 8, 0, 0, 0, time.UTC)
}

func resourceDispatch(rt domain.ResourceType, id string) domain.Dispatch {
	return domain.Dispatch{ID: "d-" + id, Resource: domain.Resource{EntityType: rt, EntityID: id}}
}

func pickupTrip(id string, status domain.TripStatus, pickupDay int, dispatches ...domain.Dispatch) *domain.Trip {
	return &domain.Trip{
		ID:         id,
		Status:     status,
		Dispatches: dispatches,
		Stops: []domain.Stop{
			{ID: id + "-d", Type: domain.StopTypeDropoff, AppointmentFrom: day(pickupDay + 1)},
			{ID: id + "-p", Type: domain.StopTypePickup, AppointmentFrom: day(pickupDay)},
		},
	}
}

type testServer struct {
	handler http.Handler
	backend *fleet.MockBackend
	hub     *push.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithOrigins(t, nil)
}

func newTestServerWithOrigins(t *testing.T, origins []string) *testServer {
	t.Helper()

	group := &domain.DispatchGroup{ID: "G1", Name: "North"}
	backend := fleet.NewMockBackend(fleet.MockData{
		Vehicles: []*domain.Vehicle{
			{ID: "V1", RemoteID: "V1", Status: domain.StatusActive, DispatchGroup: group},
			{ID: "V2", RemoteID: "V2", Status: domain.StatusActive},
		},
		Drivers: []*domain.Driver{
			{ID: "D1", RemoteID: "D1", Status: domain.StatusActive, FirstName: "Dana", LastName: "Reyes"},
		},
		DispatchGroups: []*domain.DispatchGroup{group},
		Bookings: []*domain.Booking{{
			ID:     "B1",
			BookNo: "1001",
			Status: domain.BookingAvailable,
			Stops: []domain.Stop{
				{ID: "B1-d", StopOrder: 2, Type: domain.StopTypeDropoff, AppointmentFrom: day(6)},
				{ID: "B1-p", StopOrder: 1, Type: domain.StopTypePickup, AppointmentFrom: day(5)},
			},
		}},
		Trips: []*domain.Trip{
			pickupTrip("T1", domain.TripPreassigned, 2, resourceDispatch(domain.ResourceVehicle, "V1")),
			pickupTrip("T2", domain.TripDispatched, 3,
				resourceDispatch(domain.ResourceVehicle, "V2"), resourceDispatch(domain.ResourceDriver, "D1")),
		},
	})

	hub := push.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	watcher := services.NewBoardWatcher(backend, hub, dto.EncodeBoard, time.Hour)
	prefs := services.NewPreferenceService(cache.NewMemoryPreferenceStore(), backend)

	return &testServer{
		handler: NewRouter(Deps{Backend: backend, Watcher: watcher, Prefs: prefs, Hub: hub, OriginPatterns: origins}),
		backend: backend,
		hub:     hub,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Board-User", "alice")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func entityIDs(items []dto.BoardItemResponse) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.Entity.ID)
	}
	return ids
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID header")
	}
}

func TestBoard(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/board?entity_type=Vehicle&tab=Plan", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	res := decode[dto.BoardResponse](t, rec)
	if got := strings.Join(entityIDs(res.Items), ","); got != "V2,V1" {
		t.Fatalf("items = %s, want V2,V1", got)
	}

	rec = s.do(t, http.MethodGet, "/board?entity_type=Driver", "")
	res = decode[dto.BoardResponse](t, rec)
	if len(res.Items) != 1 || res.Items[0].Entity.Name != "Dana Reyes" {
		t.Fatalf("driver items = %+v, want one row for Dana Reyes", res.Items)
	}
	tr := res.Items[0].Trips[0]
	if got := tr.Stops[0].ID; got != "T2-p" {
		t.Fatalf("first stop = %s, want T2-p", got)
	}
	if tr.FirstPickupAt == nil || !tr.FirstPickupAt.Equal(day(3)) {
		t.Fatalf("first pickup = %v, want %v", tr.FirstPickupAt, day(3))
	}
	if tr.LastDropoffAt == nil || !tr.LastDropoffAt.Equal(day(4)) {
		t.Fatalf("last dropoff = %v, want %v", tr.LastDropoffAt, day(4))
	}
	if tr.DropoffCount != 1 {
		t.Fatalf("dropoff count = %d, want 1", tr.DropoffCount)
	}
}

func TestBoardUnknownDispatchGroup(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/board?tab=Plan&dispatch_group_id=G404", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusUnprocessableEntity, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/board?tab=Plan&dispatch_group_id=G1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestBoardRejectsBadQuery(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{
		"/board?tab=Archive",
		"/board?entity_type=Trailer",
		"/board?refresh=maybe",
	} {
		if rec := s.do(t, http.MethodGet, path, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want %d", path, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestBookings(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/bookings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	res := decode[dto.ListBookingsResponse](t, rec)
	if len(res.Bookings) != 1 {
		t.Fatalf("bookings = %d, want 1", len(res.Bookings))
	}
	b := res.Bookings[0]
	if got := b.Stops[0].ID; got != "B1-p" {
		t.Fatalf("first stop = %s, want B1-p", got)
	}
	if b.FirstPickupAt == nil || !b.FirstPickupAt.Equal(day(5)) || b.LastDropoffAt == nil || !b.LastDropoffAt.Equal(day(6)) {
		t.Fatalf("window = %v..%v, want %v..%v", b.FirstPickupAt, b.LastDropoffAt, day(5), day(6))
	}

	if rec := s.do(t, http.MethodGet, "/bookings?status=Lost", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestDraft(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/drafts",
		`{"booking_id":"B1","entity_type":"Vehicle","entity_id":"V1","tab":"Plan"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	res := decode[dto.DraftResponse](t, rec)
	if res.StopsBegin != 2 || res.FixedResources != 2 {
		t.Fatalf("stops_begin = %d, fixed = %d, want 2, 2", res.StopsBegin, res.FixedResources)
	}
	locked := res.Resources[0]
	if locked.EntityID != "V1" || locked.Editable || locked.Removable {
		t.Fatalf("row 0 = %+v, want locked V1", locked)
	}
	free := res.Resources[1]
	if free.EntityType != "Driver" || free.EntityID != "D1" || !free.Editable {
		t.Fatalf("row 1 = %+v, want editable D1", free)
	}
}

func TestDraftValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/drafts", `{"entity_type":"Vehicle","entity_id":"V1","tab":"Plan"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	res := decode[errorBody](t, rec)
	if len(res.Details) != 1 || res.Details[0].Code != "required" {
		t.Fatalf("details = %+v, want one required error", res.Details)
	}

	if rec := s.do(t, http.MethodPost, "/drafts", `{"booking_id":"B1","extra":1}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = s.do(t, http.MethodPost, "/drafts",
		`{"booking_id":"B404","entity_type":"Vehicle","entity_id":"V1","tab":"Plan"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing booking status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Details []struct {
		Field string `json:"field"`
		Code  string `json:"code"`
	} `json:"details"`
}

func TestCreateAndDeleteTrip(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/trips", `{
		"booking_id": "B1", "entity_type": "Vehicle", "entity_id": "V1", "tab": "Plan",
		"resources": [
			{"entity_type": "Vehicle", "entity_id": "V1"},
			{"entity_type": "Driver", "entity_id": "D1"}
		],
		"stops": [
			{"arrive_date": "2024-01-07T08:00:00Z", "loaded_type": "EMPTY", "location_id": "L9"}
		]
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	created := decode[dto.CreateTripResponse](t, rec).Trip
	if len(created.Dispatches) != 2 {
		t.Fatalf("dispatches = %d, want 2", len(created.Dispatches))
	}
	last := created.Stops[len(created.Stops)-1]
	if last.StopOrder != 3 || last.Location == nil || last.Location.ID != "L9" {
		t.Fatalf("new stop = %+v, want order 3 at L9", last)
	}

	board := decode[dto.BoardResponse](t, s.do(t, http.MethodGet, "/board?entity_type=Vehicle", ""))
	v1 := board.Items[1]
	if v1.Entity.ID != "V1" || len(v1.Trips) != 2 {
		t.Fatalf("V1 row = %s with %d trips, want V1 with 2", v1.Entity.ID, len(v1.Trips))
	}

	bookings := decode[dto.ListBookingsResponse](t, s.do(t, http.MethodGet, "/bookings", ""))
	if len(bookings.Bookings) != 0 {
		t.Fatalf("available bookings = %d, want 0", len(bookings.Bookings))
	}

	if rec := s.do(t, http.MethodDelete, "/trips/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	bookings = decode[dto.ListBookingsResponse](t, s.do(t, http.MethodGet, "/bookings", ""))
	if len(bookings.Bookings) != 1 {
		t.Fatalf("available bookings = %d, want 1", len(bookings.Bookings))
	}

	if rec := s.do(t, http.MethodDelete, "/trips/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("delete missing status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCreateTripRejectsChangedLockedRow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/trips", `{
		"booking_id": "B1", "entity_type": "Vehicle", "entity_id": "V1", "tab": "Plan",
		"resources": [
			{"entity_type": "Vehicle", "entity_id": "V2"},
			{"entity_type": "Driver", "entity_id": "D1"}
		]
	}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusUnprocessableEntity, rec.Body.String())
	}
	if n := s.backend.Calls["CreateTrip"]; n != 0 {
		t.Fatalf("CreateTrip calls = %d, want 0", n)
	}
}

func TestPreferences(t *testing.T) {
	s := newTestServer(t)

	res := decode[dto.PreferencesResponse](t, s.do(t, http.MethodGet, "/preferences", ""))
	if res != (dto.PreferencesResponse{}) {
		t.Fatalf("defaults = %+v, want zero", res)
	}

	rec := s.do(t, http.MethodPut, "/preferences", `{"dispatch_group_id":"G1","hide_bookings":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	res = decode[dto.PreferencesResponse](t, rec)
	if res.DispatchGroupID != "G1" || !res.HideBookings {
		t.Fatalf("preferences = %+v, want G1 and hidden bookings", res)
	}

	if rec := s.do(t, http.MethodPut, "/preferences", `{"dispatch_group_id":"G404"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown group status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}

	// The saved group now scopes the board when the query names none.
	board := decode[dto.BoardResponse](t, s.do(t, http.MethodGet, "/board", ""))
	if board.DispatchGroupID != "G1" {
		t.Fatalf("board group = %q, want G1", board.DispatchGroupID)
	}
	if got := strings.Join(entityIDs(board.Items), ","); got != "V1" {
		t.Fatalf("items = %s, want V1", got)
	}
}

func TestBoardWebsocket(t *testing.T) {
	s := newTestServer(t)

	srv := httptest.NewServer(s.handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/board/ws?tab=Plan&dispatch_group_id="
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	readPush := func() dto.BoardPush {
		t.Helper()
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg dto.BoardPush
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode push: %v", err)
		}
		return msg
	}

	snapshot := readPush()
	if snapshot.Type != "board" || len(snapshot.Vehicles) != 2 || len(snapshot.Drivers) != 1 {
		t.Fatalf("snapshot = %+v, want 2 vehicle rows and 1 driver row", snapshot)
	}

	for s.hub.ClientCount() != 1 {
		select {
		case <-ctx.Done():
			t.Fatalf("client never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if rec := s.do(t, http.MethodGet, "/board?tab=Plan&dispatch_group_id=&refresh=true", ""); rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d", rec.Code)
	}

	pushed := readPush()
	if pushed.LoadedAt.Before(snapshot.LoadedAt) {
		t.Fatalf("pushed board loaded at %v, before snapshot %v", pushed.LoadedAt, snapshot.LoadedAt)
	}
	if pushed.Tab != "Plan" {
		t.Fatalf("pushed tab = %q, want Plan", pushed.Tab)
	}
}

func TestBoardWebsocketOrigin(t *testing.T) {
	s := newTestServerWithOrigins(t, []string{"board.example.com"})

	srv := httptest.NewServer(s.handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/board/ws?tab=Plan&dispatch_group_id="
	dial := func(origin string) (*websocket.Conn, *http.Response, error) {
		return websocket.Dial(ctx, url, &websocket.DialOptions{
			HTTPHeader: http.Header{"Origin": []string{origin}},
		})
	}

	conn, resp, err := dial("http://evil.example.net")
	if err == nil {
		conn.Close(websocket.StatusNormalClosure, "")
		t.Fatal("dial from foreign origin succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign origin response = %v, want %d", resp, http.StatusForbidden)
	}

	conn, _, err = dial("https://board.example.com")
	if err != nil {
		t.Fatalf("dial from allowed origin: %v", err)
	}
	conn.Close(websocket.StatusNormalClosure, "")
}
