package domain

// Immutable geographic coordinates (longitude, latitude).
type Coordinates struct {
	Lon float64
	Lat float64
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// A named domicile location a stop can reference instead of a free-form address.
type Location struct {
	ID     string
	Name   string
	Coords *Coordinates
}

// Postal address of a stop that is not bound to a known location.
type Address struct {
	Line1   string
	Line2   string
	City    string
	State   string
	Country string
	Zip     string
}
