package repositories

import (
	"context"
	"database/sql"
	"dispatch-board-service/internal/domain"
	"dispatch-board-service/internal/platform/obs"
	"dispatch-board-service/internal/ports"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// SQLite-backed implementation of the FleetBackend port, used for offline
// and demo runs against a seeded snapshot.
type SqliteFleetRepository struct{ DB *sql.DB }

func NewSqliteFleetRepository(db *sql.DB) *SqliteFleetRepository {
	return &SqliteFleetRepository{DB: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SqliteFleetRepository) check() error {
	if s.DB == nil {
		return errors.New("sqlite fleet repository: DB is nil")
	}
	return nil
}

func (s *SqliteFleetRepository) ListDispatchGroups(ctx context.Context) ([]*domain.DispatchGroup, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, name FROM dispatch_groups ORDER BY name;`)
	if err != nil {
		return nil, fmt.Errorf("list dispatch groups: query: %w", err)
	}
	defer rows.Close()

	groups := make([]*domain.DispatchGroup, 0, 16)
	for rows.Next() {
		var g domain.DispatchGroup
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("list dispatch groups: scan row: %w", err)
		}
		groups = append(groups, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list dispatch groups: row iteration: %w", err)
	}
	return groups, nil
}

func (s *SqliteFleetRepository) ListVehicles(ctx context.Context) (_ []*domain.Vehicle, err error) {
	defer obs.Time(ctx, "sqlite.ListVehicles")(&err)
	if err := s.check(); err != nil {
		return nil, err
	}

	query := `
	SELECT
		v.id, v.remote_id, v.status, v.make, v.model, v.year, v.vin,
		vt.id, vt.type, vt.description,
		g.id, g.name
	FROM vehicles v
	LEFT JOIN vehicle_types vt ON vt.id = v.vehicle_type_id
	LEFT JOIN dispatch_groups g ON g.id = v.dispatch_group_id
	ORDER BY v.remote_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: query: %w", err)
	}
	defer rows.Close()

	vehicles := make([]*domain.Vehicle, 0, 64)
	for rows.Next() {
		var v domain.Vehicle
		var vtID, vtType, vtDesc, gID, gName sql.NullString
		if err := rows.Scan(&v.ID, &v.RemoteID, &v.Status, &v.Make, &v.Model, &v.Year, &v.VIN,
			&vtID, &vtType, &vtDesc, &gID, &gName); err != nil {
			return nil, fmt.Errorf("list vehicles: scan row: %w", err)
		}
		if vtID.Valid {
			v.Type = &domain.VehicleType{ID: vtID.String, Type: vtType.String, Description: vtDesc.String}
		}
		v.DispatchGroup = group(gID, gName)
		vehicles = append(vehicles, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vehicles: row iteration: %w", err)
	}
	return vehicles, nil
}

func (s *SqliteFleetRepository) ListDrivers(ctx context.Context) (_ []*domain.Driver, err error) {
	defer obs.Time(ctx, "sqlite.ListDrivers")(&err)
	if err := s.check(); err != nil {
		return nil, err
	}

	query := `
	SELECT
		d.id, d.remote_id, d.status, d.first_name, d.last_name, d.username,
		g.id, g.name
	FROM drivers d
	LEFT JOIN dispatch_groups g ON g.id = d.dispatch_group_id
	ORDER BY d.remote_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list drivers: query: %w", err)
	}
	defer rows.Close()

	drivers := make([]*domain.Driver, 0, 64)
	for rows.Next() {
		var d domain.Driver
		var gID, gName sql.NullString
		if err := rows.Scan(&d.ID, &d.RemoteID, &d.Status, &d.FirstName, &d.LastName, &d.Username, &gID, &gName); err != nil {
			return nil, fmt.Errorf("list drivers: scan row: %w", err)
		}
		d.DispatchGroup = group(gID, gName)
		drivers = append(drivers, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list drivers: row iteration: %w", err)
	}
	return drivers, nil
}

func group(id, name sql.NullString) *domain.DispatchGroup {
	if !id.Valid {
		return nil
	}
	return &domain.DispatchGroup{ID: id.String, Name: name.String}
}

func (s *SqliteFleetRepository) ListBookings(ctx context.Context, status domain.BookingStatus) (_ []*domain.Booking, err error) {
	defer obs.Time(ctx, "sqlite.ListBookings")(&err)
	if err := s.check(); err != nil {
		return nil, err
	}

	where := ""
	var args []any
	if status != domain.BookingAll && status != "" {
		where = "WHERE b.status = ?"
		args = append(args, string(status))
	}

	bookings, err := s.bookingsWhere(ctx, s.DB, where, args)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

func (s *SqliteFleetRepository) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	bookings, err := s.bookingsWhere(ctx, s.DB, "WHERE b.id = ?", []any{id})
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", id, err)
	}
	if len(bookings) == 0 {
		return nil, fmt.Errorf("get booking %s: %w", id, ports.ErrNotFound)
	}
	return bookings[0], nil
}

func (s *SqliteFleetRepository) bookingsWhere(ctx context.Context, q queryer, where string, args []any) ([]*domain.Booking, error) {
	query := `
	SELECT
		b.id, b.book_no, b.status, b.billing_name, b.hold, b.created_at,
		vt.id, vt.type, vt.description
	FROM bookings b
	LEFT JOIN vehicle_types vt ON vt.id = b.vehicle_type_id
	` + where + `
	ORDER BY b.created_at DESC;
	`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0, 64)
	ids := make([]string, 0, 64)
	for rows.Next() {
		var b domain.Booking
		var createdAt, vtID, vtType, vtDesc sql.NullString
		if err := rows.Scan(&b.ID, &b.BookNo, &b.Status, &b.BillingName, &b.Hold, &createdAt,
			&vtID, &vtType, &vtDesc); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		b.CreatedAt = parseStoredTime(createdAt)
		if vtID.Valid {
			b.VehicleType = &domain.VehicleType{ID: vtID.String, Type: vtType.String, Description: vtDesc.String}
		}
		bookings = append(bookings, &b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking row iteration: %w", err)
	}
	rows.Close()

	stops, err := loadStops(ctx, q, ownerBooking, ids)
	if err != nil {
		return nil, err
	}
	for _, b := range bookings {
		b.Stops = stops[b.ID]
	}
	return bookings, nil
}

func (s *SqliteFleetRepository) ListTrips(ctx context.Context, tq ports.TripQuery) (_ []*domain.Trip, err error) {
	defer obs.Time(ctx, "sqlite.ListTrips")(&err)
	if err := s.check(); err != nil {
		return nil, err
	}

	where := "WHERE 1 = 1"
	var args []any
	if len(tq.Statuses) > 0 {
		statuses := make([]string, 0, len(tq.Statuses))
		for _, st := range tq.Statuses {
			statuses = append(statuses, string(st))
		}
		where += " AND t.status IN (" + placeholders(len(statuses)) + ")"
		args = append(args, stringArgs(statuses)...)
	}
	if tq.DispatchGroupID != "" {
		// A trip is in a group when any dispatched vehicle or driver is.
		where += `
		AND EXISTS (
			SELECT 1 FROM dispatches d
			LEFT JOIN vehicles v ON d.entity_type = 'Vehicle' AND v.id = d.entity_id
			LEFT JOIN drivers r ON d.entity_type = 'Driver' AND r.id = d.entity_id
			WHERE d.trip_id = t.id
			AND (v.dispatch_group_id = ? OR r.dispatch_group_id = ?)
		)`
		args = append(args, tq.DispatchGroupID, tq.DispatchGroupID)
	}

	trips, err := tripsWhere(ctx, s.DB, where, args)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	return trips, nil
}

func tripsWhere(ctx context.Context, q queryer, where string, args []any) ([]*domain.Trip, error) {
	query := `
	SELECT
		t.id, t.trip_no, t.status, t.dispatch_order, t.created_at, t.completed_at, t.approved_at
	FROM trips t
	` + where + `
	ORDER BY t.created_at DESC;
	`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trips: %w", err)
	}
	defer rows.Close()

	trips := make([]*domain.Trip, 0, 64)
	ids := make([]string, 0, 64)
	for rows.Next() {
		var t domain.Trip
		var createdAt, completedAt, approvedAt sql.NullString
		if err := rows.Scan(&t.ID, &t.TripNo, &t.Status, &t.DispatchOrder, &createdAt, &completedAt, &approvedAt); err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		t.CreatedAt = parseStoredTime(createdAt)
		t.CompletedAt = parseStoredTimePtr(completedAt)
		t.ApprovedAt = parseStoredTimePtr(approvedAt)
		trips = append(trips, &t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trip row iteration: %w", err)
	}
	rows.Close()

	stops, err := loadStops(ctx, q, ownerTrip, ids)
	if err != nil {
		return nil, err
	}
	dispatches, err := loadDispatches(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for _, t := range trips {
		t.Stops = stops[t.ID]
		t.Dispatches = dispatches[t.ID]
	}
	return trips, nil
}

func loadStops(ctx context.Context, q queryer, ownerKind string, ownerIDs []string) (map[string][]domain.Stop, error) {
	out := make(map[string][]domain.Stop, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}

	query := `
	SELECT
		id, owner_id, stop_order, type, loaded_type, appointment_from, arrive_date, created_at,
		location_id, location_name, line1, line2, city, state, country, zip
	FROM stops
	WHERE owner_kind = ? AND owner_id IN (` + placeholders(len(ownerIDs)) + `)
	ORDER BY owner_id, stop_order, id;
	`
	args := append([]any{ownerKind}, stringArgs(ownerIDs)...)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s stops: %w", ownerKind, err)
	}
	defer rows.Close()

	for rows.Next() {
		var st domain.Stop
		var ownerID string
		var loaded string
		var appt, arrive, created, locID, locName sql.NullString
		var line1, line2, city, state, country, zip sql.NullString
		if err := rows.Scan(&st.ID, &ownerID, &st.StopOrder, &st.Type, &loaded, &appt, &arrive, &created,
			&locID, &locName, &line1, &line2, &city, &state, &country, &zip); err != nil {
			return nil, fmt.Errorf("scan %s stop: %w", ownerKind, err)
		}
		st.LoadedType = domain.StopLoadType(loaded)
		st.AppointmentFrom = parseStoredTime(appt)
		st.ArriveDate = parseStoredTime(arrive)
		st.CreatedAt = parseStoredTime(created)
		if locID.Valid {
			st.Location = &domain.Location{ID: locID.String, Name: locName.String}
		}
		if line1.Valid || city.Valid || zip.Valid {
			st.Address = &domain.Address{
				Line1: line1.String, Line2: line2.String, City: city.String,
				State: state.String, Country: country.String, Zip: zip.String,
			}
		}
		out[ownerID] = append(out[ownerID], st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s stop row iteration: %w", ownerKind, err)
	}
	return out, nil
}

func loadDispatches(ctx context.Context, q queryer, tripIDs []string) (map[string][]domain.Dispatch, error) {
	out := make(map[string][]domain.Dispatch, len(tripIDs))
	if len(tripIDs) == 0 {
		return out, nil
	}

	query := `
	SELECT id, trip_id, entity_type, entity_id, service_status, load_status, created_at
	FROM dispatches
	WHERE trip_id IN (` + placeholders(len(tripIDs)) + `)
	ORDER BY trip_id, rowid;
	`
	rows, err := q.QueryContext(ctx, query, stringArgs(tripIDs)...)
	if err != nil {
		return nil, fmt.Errorf("query dispatches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d domain.Dispatch
		var tripID, entityType string
		var createdAt sql.NullString
		if err := rows.Scan(&d.ID, &tripID, &entityType, &d.Resource.EntityID,
			&d.Resource.ServiceStatus, &d.Resource.LoadStatus, &createdAt); err != nil {
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		d.Resource.EntityType = domain.ResourceType(entityType)
		d.CreatedAt = parseStoredTime(createdAt)
		out[tripID] = append(out[tripID], d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dispatch row iteration: %w", err)
	}
	return out, nil
}

// CreateTrip copies the bookings' stops onto a new PREASSIGNED trip, appends
// the requested stops and dispatches, and marks the bookings Dispatched.
func (s *SqliteFleetRepository) CreateTrip(ctx context.Context, req ports.CreateTripRequest) (_ *domain.Trip, err error) {
	defer obs.Time(ctx, "sqlite.CreateTrip")(&err)
	if err := s.check(); err != nil {
		return nil, err
	}
	if len(req.BookingIDs) == 0 {
		return nil, errors.New("create trip: no bookings")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create trip: begin tx: %w", err)
	}
	defer tx.Rollback()

	bookings, err := s.bookingsWhere(ctx, tx, "WHERE b.id IN ("+placeholders(len(req.BookingIDs))+")", stringArgs(req.BookingIDs))
	if err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}
	if len(bookings) != len(req.BookingIDs) {
		return nil, fmt.Errorf("create trip: bookings %v: %w", req.BookingIDs, ports.ErrNotFound)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM trips;`).Scan(&count); err != nil {
		return nil, fmt.Errorf("create trip: count trips: %w", err)
	}

	now := time.Now().UTC()
	tripID := uuid.NewString()

	insertTrip := `
	INSERT INTO trips (id, trip_no, status, dispatch_order, created_at)
	VALUES (?, ?, ?, ?, ?);
	`
	if _, err := tx.ExecContext(ctx, insertTrip, tripID, strconv.Itoa(count+1), string(domain.TripPreassigned),
		req.DispatchOrder, formatTime(now)); err != nil {
		return nil, fmt.Errorf("create trip: insert trip: %w", err)
	}

	insertStop := `
	INSERT INTO stops (
		id, owner_kind, owner_id, stop_order, type, loaded_type,
		appointment_from, arrive_date, created_at, location_id, location_name,
		line1, line2, city, state, country, zip
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	addStop := func(st domain.Stop) error {
		var locID, locName any
		if st.Location != nil {
			locID, locName = nullString(st.Location.ID), nullString(st.Location.Name)
		}
		var a domain.Address
		hasAddr := st.Address != nil
		if hasAddr {
			a = *st.Address
		}
		_, err := tx.ExecContext(ctx, insertStop, uuid.NewString(), ownerTrip, tripID, st.StopOrder, st.Type,
			string(st.LoadedType), nullTime(&st.AppointmentFrom), nullTime(&st.ArriveDate), formatTime(now),
			locID, locName,
			nullIf(hasAddr, a.Line1), nullIf(hasAddr, a.Line2), nullIf(hasAddr, a.City),
			nullIf(hasAddr, a.State), nullIf(hasAddr, a.Country), nullIf(hasAddr, a.Zip))
		return err
	}

	for _, b := range bookings {
		for _, st := range b.Stops {
			if err := addStop(st); err != nil {
				return nil, fmt.Errorf("create trip: copy stop %s: %w", st.ID, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO trip_bookings (trip_id, booking_id) VALUES (?, ?);`, tripID, b.ID); err != nil {
			return nil, fmt.Errorf("create trip: link booking %s: %w", b.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?;`, string(domain.BookingDispatched), b.ID); err != nil {
			return nil, fmt.Errorf("create trip: update booking %s: %w", b.ID, err)
		}
	}

	for _, ns := range req.Stops {
		st := domain.Stop{
			StopOrder:       ns.StopOrder,
			LoadedType:      ns.LoadedType,
			AppointmentFrom: ns.ArriveDate,
			ArriveDate:      ns.ArriveDate,
			Address:         ns.Address,
		}
		if ns.LocationID != "" {
			st.Location = &domain.Location{ID: ns.LocationID}
			st.Address = nil
		}
		if err := addStop(st); err != nil {
			return nil, fmt.Errorf("create trip: insert stop %d: %w", ns.StopOrder, err)
		}
	}

	insertDispatch := `
	INSERT INTO dispatches (id, trip_id, entity_type, entity_id, created_at)
	VALUES (?, ?, ?, ?, ?);
	`
	for _, r := range req.Resources {
		if _, err := tx.ExecContext(ctx, insertDispatch, uuid.NewString(), tripID, string(r.EntityType), r.EntityID, formatTime(now)); err != nil {
			return nil, fmt.Errorf("create trip: insert dispatch %s %s: %w", r.EntityType, r.EntityID, err)
		}
	}

	trips, err := tripsWhere(ctx, tx, "WHERE t.id = ?", []any{tripID})
	if err != nil {
		return nil, fmt.Errorf("create trip: reload: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("create trip: commit tx: %w", err)
	}

	return trips[0], nil
}

// DeleteTrip removes the trip and returns its bookings to Available.
func (s *SqliteFleetRepository) DeleteTrip(ctx context.Context, id string) (err error) {
	defer obs.Time(ctx, "sqlite.DeleteTrip")(&err)
	if err := s.check(); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete trip %s: begin tx: %w", id, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM trips WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete trip %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete trip %s: rows affected: %w", id, err)
	} else if n == 0 {
		return fmt.Errorf("delete trip %s: %w", id, ports.ErrNotFound)
	}

	statements := []struct {
		query string
		args  []any
	}{
		{`UPDATE bookings SET status = ? WHERE id IN (SELECT booking_id FROM trip_bookings WHERE trip_id = ?);`,
			[]any{string(domain.BookingAvailable), id}},
		{`DELETE FROM trip_bookings WHERE trip_id = ?;`, []any{id}},
		{`DELETE FROM dispatches WHERE trip_id = ?;`, []any{id}},
		{`DELETE FROM stops WHERE owner_kind = ? AND owner_id = ?;`, []any{ownerTrip, id}},
	}
	for i, st := range statements {
		if _, err := tx.ExecContext(ctx, st.query, st.args...); err != nil {
			return fmt.Errorf("delete trip %s: exec statement #%d: %w", id, i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete trip %s: commit tx: %w", id, err)
	}
	return nil
}
