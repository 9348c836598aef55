package domain

import "strings"

// ResourceType names the role an entity plays in a dispatch.
type ResourceType string

const (
	ResourceVehicle ResourceType = "Vehicle"
	ResourceDriver  ResourceType = "Driver"
)

// ResourceTypes lists the known resource types in board order.
var ResourceTypes = []ResourceType{ResourceVehicle, ResourceDriver}

// Valid reports whether t is one of the two known resource types.
func (t ResourceType) Valid() bool {
	return t == ResourceVehicle || t == ResourceDriver
}

// ParseResourceType accepts the wire value case-insensitively.
func ParseResourceType(s string) (ResourceType, bool) {
	for _, t := range ResourceTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, true
		}
	}
	return "", false
}

// Entity status values as the fleet backend reports them.
const (
	StatusActive  = "(active)"
	StatusDeleted = "(deleted)"
)

type VehicleType struct {
	ID          string
	Type        string
	Description string
}

type DispatchGroup struct {
	ID   string
	Name string
}

// Reportable is either a *Vehicle or a *Driver. The set is closed: only
// types in this package can satisfy it.
type Reportable interface {
	EntityID() string
	ResourceType() ResourceType
	reportable()
}

type Vehicle struct {
	ID            string
	RemoteID      string
	Status        string
	Make          string
	Model         string
	Year          int
	VIN           string
	Type          *VehicleType
	DispatchGroup *DispatchGroup
}

func (v *Vehicle) EntityID() string           { return v.ID }
func (v *Vehicle) ResourceType() ResourceType { return ResourceVehicle }
func (v *Vehicle) reportable()                {}

func (v *Vehicle) IsActive() bool { return v.Status == StatusActive }

// HasType reports whether the vehicle is of the given vehicle type.
func (v *Vehicle) HasType(typeID string) bool {
	return v.Type != nil && v.Type.ID == typeID
}

type Driver struct {
	ID            string
	RemoteID      string
	Status        string
	FirstName     string
	LastName      string
	Username      string
	DispatchGroup *DispatchGroup
}

func (d *Driver) EntityID() string           { return d.ID }
func (d *Driver) ResourceType() ResourceType { return ResourceDriver }
func (d *Driver) reportable()                {}

func (d *Driver) IsActive() bool { return d.Status == StatusActive }

func (d *Driver) Name() string {
	return d.FirstName + " " + d.LastName
}

// InDispatchGroup reports whether the entity belongs to the group.
func InDispatchGroup(e Reportable, groupID string) bool {
	var g *DispatchGroup
	switch v := e.(type) {
	case *Vehicle:
		g = v.DispatchGroup
	case *Driver:
		g = v.DispatchGroup
	}
	return g != nil && g.ID == groupID
}
