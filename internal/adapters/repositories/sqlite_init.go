package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the SQLite snapshot schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createDispatchGroupsQuery := `
	CREATE TABLE IF NOT EXISTS dispatch_groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);
	`

	createVehicleTypesQuery := `
	CREATE TABLE IF NOT EXISTS vehicle_types (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	);
	`

	createVehiclesQuery := `
	CREATE TABLE IF NOT EXISTS vehicles (
		id TEXT PRIMARY KEY,
		remote_id TEXT NOT NULL,
		status TEXT NOT NULL,
		make TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0,
		vin TEXT NOT NULL DEFAULT '',
		vehicle_type_id TEXT REFERENCES vehicle_types(id),
		dispatch_group_id TEXT REFERENCES dispatch_groups(id)
	);
	`

	createDriversQuery := `
	CREATE TABLE IF NOT EXISTS drivers (
		id TEXT PRIMARY KEY,
		remote_id TEXT NOT NULL,
		status TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL DEFAULT '',
		dispatch_group_id TEXT REFERENCES dispatch_groups(id)
	);
	`

	createBookingsQuery := `
	CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		book_no TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		billing_name TEXT NOT NULL DEFAULT '',
		hold INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		vehicle_type_id TEXT REFERENCES vehicle_types(id)
	);
	`

	createTripsQuery := `
	CREATE TABLE IF NOT EXISTS trips (
		id TEXT PRIMARY KEY,
		trip_no TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		dispatch_order INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		completed_at TEXT,
		approved_at TEXT
	);
	`

	createTripBookingsQuery := `
	CREATE TABLE IF NOT EXISTS trip_bookings (
		trip_id TEXT NOT NULL,
		booking_id TEXT NOT NULL,
		PRIMARY KEY (trip_id, booking_id)
	);
	`

	// A stop belongs to either a trip or a booking (owner_kind).
	createStopsQuery := `
	CREATE TABLE IF NOT EXISTS stops (
		id TEXT PRIMARY KEY,
		owner_kind TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		stop_order INTEGER NOT NULL DEFAULT 0,
		type TEXT NOT NULL DEFAULT '',
		loaded_type TEXT NOT NULL DEFAULT '',
		appointment_from TEXT,
		arrive_date TEXT,
		created_at TEXT,
		location_id TEXT,
		location_name TEXT,
		line1 TEXT,
		line2 TEXT,
		city TEXT,
		state TEXT,
		country TEXT,
		zip TEXT
	);
	`

	createDispatchesQuery := `
	CREATE TABLE IF NOT EXISTS dispatches (
		id TEXT PRIMARY KEY,
		trip_id TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		service_status TEXT NOT NULL DEFAULT '',
		load_status TEXT NOT NULL DEFAULT '',
		created_at TEXT
	);
	`

	createPreferencesQuery := `
	CREATE TABLE IF NOT EXISTS preferences (
		scope TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (scope, key)
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_stops_owner
	ON stops(owner_kind, owner_id);
	`

	createDispatchIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_dispatches_trip
	ON dispatches(trip_id);
	`

	statements := []string{
		createDispatchGroupsQuery,
		createVehicleTypesQuery,
		createVehiclesQuery,
		createDriversQuery,
		createBookingsQuery,
		createTripsQuery,
		createTripBookingsQuery,
		createStopsQuery,
		createDispatchesQuery,
		createPreferencesQuery,
		createIndexQuery,
		createDispatchIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Initialize the PostgreSQL preferences table.
func InitPostgresSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init postgres schema: DB is nil")
	}

	query := `
	CREATE TABLE IF NOT EXISTS preferences (
		scope TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (scope, key)
	);
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("init postgres schema: %w", err)
	}
	return nil
}
