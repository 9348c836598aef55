package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

type AddressSeed struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	Zip     string `json:"zip"`
}

type StopSeed struct {
	ID              string       `json:"id"`
	StopOrder       int          `json:"stop_order"`
	Type            string       `json:"type"`
	LoadedType      string       `json:"loaded_type"`
	AppointmentFrom *time.Time   `json:"appointment_from"`
	ArriveDate      *time.Time   `json:"arrive_date"`
	LocationID      string       `json:"location_id"`
	LocationName    string       `json:"location_name"`
	Address         *AddressSeed `json:"address"`
}

type DispatchSeed struct {
	ID            string `json:"id"`
	EntityType    string `json:"entity_type"`
	EntityID      string `json:"entity_id"`
	ServiceStatus string `json:"service_status"`
	LoadStatus    string `json:"load_status"`
}

type TripSeed struct {
	ID            string         `json:"id"`
	TripNo        string         `json:"trip_no"`
	Status        string         `json:"status"`
	DispatchOrder int            `json:"dispatch_order"`
	CreatedAt     time.Time      `json:"created_at"`
	CompletedAt   *time.Time     `json:"completed_at"`
	ApprovedAt    *time.Time     `json:"approved_at"`
	BookingIDs    []string       `json:"booking_ids"`
	Stops         []StopSeed     `json:"stops"`
	Dispatches    []DispatchSeed `json:"dispatches"`
}

type BookingSeed struct {
	ID            string     `json:"id"`
	BookNo        string     `json:"book_no"`
	Status        string     `json:"status"`
	BillingName   string     `json:"billing_name"`
	Hold          bool       `json:"hold"`
	CreatedAt     time.Time  `json:"created_at"`
	VehicleTypeID string     `json:"vehicle_type_id"`
	Stops         []StopSeed `json:"stops"`
}

type VehicleSeed struct {
	ID              string `json:"id"`
	RemoteID        string `json:"remote_id"`
	Status          string `json:"status"`
	Make            string `json:"make"`
	Model           string `json:"model"`
	Year            int    `json:"year"`
	VIN             string `json:"vin"`
	VehicleTypeID   string `json:"vehicle_type_id"`
	DispatchGroupID string `json:"dispatch_group_id"`
}

type DriverSeed struct {
	ID              string `json:"id"`
	RemoteID        string `json:"remote_id"`
	Status          string `json:"status"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Username        string `json:"username"`
	DispatchGroupID string `json:"dispatch_group_id"`
}

type NamedSeed struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Shape of the snapshot seed file.
type FleetSeed struct {
	DispatchGroups []NamedSeed   `json:"dispatch_groups"`
	VehicleTypes   []NamedSeed   `json:"vehicle_types"`
	Vehicles       []VehicleSeed `json:"vehicles"`
	Drivers        []DriverSeed  `json:"drivers"`
	Bookings       []BookingSeed `json:"bookings"`
	Trips          []TripSeed    `json:"trips"`
}

// Populate the snapshot with fleet data from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed fleet: read %q: %w", jsonPath, err)
	}

	var data FleetSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed fleet: parse json: %w", err)
	}

	return Seed(db, data)
}

// Seed writes the snapshot in one transaction, replacing rows with the same ids.
func Seed(db *sql.DB, data FleetSeed) error {
	if err := validateSeed(data); err != nil {
		return fmt.Errorf("seed fleet: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed fleet: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, g := range data.DispatchGroups {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO dispatch_groups (id, name) VALUES (?, ?);`, g.ID, g.Name); err != nil {
			return fmt.Errorf("seed fleet: insert dispatch group %s: %w", g.ID, err)
		}
	}

	for _, vt := range data.VehicleTypes {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO vehicle_types (id, type, description) VALUES (?, ?, ?);`,
			vt.ID, vt.Type, vt.Description); err != nil {
			return fmt.Errorf("seed fleet: insert vehicle type %s: %w", vt.ID, err)
		}
	}

	for _, v := range data.Vehicles {
		query := `
		INSERT OR REPLACE INTO vehicles (
			id, remote_id, status, make, model, year, vin, vehicle_type_id, dispatch_group_id
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
		`
		if _, err := tx.Exec(query, v.ID, v.RemoteID, v.Status, v.Make, v.Model, v.Year, v.VIN,
			nullString(v.VehicleTypeID), nullString(v.DispatchGroupID)); err != nil {
			return fmt.Errorf("seed fleet: insert vehicle %s: %w", v.ID, err)
		}
	}

	for _, d := range data.Drivers {
		query := `
		INSERT OR REPLACE INTO drivers (
			id, remote_id, status, first_name, last_name, username, dispatch_group_id
		)
		VALUES (?, ?, ?, ?, ?, ?, ?);
		`
		if _, err := tx.Exec(query, d.ID, d.RemoteID, d.Status, d.FirstName, d.LastName, d.Username,
			nullString(d.DispatchGroupID)); err != nil {
			return fmt.Errorf("seed fleet: insert driver %s: %w", d.ID, err)
		}
	}

	for _, b := range data.Bookings {
		query := `
		INSERT OR REPLACE INTO bookings (
			id, book_no, status, billing_name, hold, created_at, vehicle_type_id
		)
		VALUES (?, ?, ?, ?, ?, ?, ?);
		`
		if _, err := tx.Exec(query, b.ID, b.BookNo, b.Status, b.BillingName, b.Hold,
			formatTime(b.CreatedAt), nullString(b.VehicleTypeID)); err != nil {
			return fmt.Errorf("seed fleet: insert booking %s: %w", b.ID, err)
		}
		if err := insertSeedStops(tx, ownerBooking, b.ID, b.Stops); err != nil {
			return fmt.Errorf("seed fleet: %w", err)
		}
	}

	for _, t := range data.Trips {
		query := `
		INSERT OR REPLACE INTO trips (
			id, trip_no, status, dispatch_order, created_at, completed_at, approved_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?);
		`
		if _, err := tx.Exec(query, t.ID, t.TripNo, t.Status, t.DispatchOrder,
			formatTime(t.CreatedAt), nullTime(t.CompletedAt), nullTime(t.ApprovedAt)); err != nil {
			return fmt.Errorf("seed fleet: insert trip %s: %w", t.ID, err)
		}
		for _, bid := range t.BookingIDs {
			if _, err := tx.Exec(`INSERT OR REPLACE INTO trip_bookings (trip_id, booking_id) VALUES (?, ?);`, t.ID, bid); err != nil {
				return fmt.Errorf("seed fleet: link trip %s to booking %s: %w", t.ID, bid, err)
			}
		}
		if err := insertSeedStops(tx, ownerTrip, t.ID, t.Stops); err != nil {
			return fmt.Errorf("seed fleet: %w", err)
		}
		for _, d := range t.Dispatches {
			query := `
			INSERT OR REPLACE INTO dispatches (
				id, trip_id, entity_type, entity_id, service_status, load_status, created_at
			)
			VALUES (?, ?, ?, ?, ?, ?, ?);
			`
			if _, err := tx.Exec(query, d.ID, t.ID, d.EntityType, d.EntityID, d.ServiceStatus, d.LoadStatus,
				formatTime(t.CreatedAt)); err != nil {
				return fmt.Errorf("seed fleet: insert dispatch %s: %w", d.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed fleet: commit tx: %w", err)
	}

	return nil
}

func validateSeed(data FleetSeed) error {
	check := func(kind string, i int, id string) error {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%s at index %d: id cannot be empty", kind, i+1)
		}
		return nil
	}

	for i, g := range data.DispatchGroups {
		if err := check("dispatch group", i, g.ID); err != nil {
			return err
		}
	}
	for i, vt := range data.VehicleTypes {
		if err := check("vehicle type", i, vt.ID); err != nil {
			return err
		}
	}
	for i, v := range data.Vehicles {
		if err := check("vehicle", i, v.ID); err != nil {
			return err
		}
	}
	for i, d := range data.Drivers {
		if err := check("driver", i, d.ID); err != nil {
			return err
		}
	}
	for i, b := range data.Bookings {
		if err := check("booking", i, b.ID); err != nil {
			return err
		}
		for j, s := range b.Stops {
			if err := check("booking "+b.ID+" stop", j, s.ID); err != nil {
				return err
			}
		}
	}
	for i, t := range data.Trips {
		if err := check("trip", i, t.ID); err != nil {
			return err
		}
		for j, s := range t.Stops {
			if err := check("trip "+t.ID+" stop", j, s.ID); err != nil {
				return err
			}
		}
		for j, d := range t.Dispatches {
			if err := check("trip "+t.ID+" dispatch", j, d.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func insertSeedStops(tx *sql.Tx, ownerKind, ownerID string, stops []StopSeed) error {
	for _, s := range stops {
		var addr AddressSeed
		hasAddr := s.Address != nil
		if hasAddr {
			addr = *s.Address
		}

		query := `
		INSERT OR REPLACE INTO stops (
			id, owner_kind, owner_id, stop_order, type, loaded_type,
			appointment_from, arrive_date, created_at, location_id, location_name,
			line1, line2, city, state, country, zip
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
		`
		_, err := tx.Exec(query, s.ID, ownerKind, ownerID, s.StopOrder, s.Type, s.LoadedType,
			nullTime(s.AppointmentFrom), nullTime(s.ArriveDate), nil,
			nullString(s.LocationID), nullString(s.LocationName),
			nullIf(hasAddr, addr.Line1), nullIf(hasAddr, addr.Line2), nullIf(hasAddr, addr.City),
			nullIf(hasAddr, addr.State), nullIf(hasAddr, addr.Country), nullIf(hasAddr, addr.Zip))
		if err != nil {
			return fmt.Errorf("insert stop %s of %s %s: %w", s.ID, ownerKind, ownerID, err)
		}
	}
	return nil
}
