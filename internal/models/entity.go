package models

import "time"

type EntityType string

const (
	EntityTypeVehicle   EntityType = "vehicle"
	EntityTypeVolunteer EntityType = "volunteer"
)

// Operational statuses that make an entity a candidate for geofence sweeps.
const (
	VehicleStatusAvailable = "available"
	VehicleStatusInUse     = "in_use"
	VehicleStatusOffline   = "offline"

	VolunteerStatusIdle    = "idle"
	VolunteerStatusEnRoute = "en_route"
	VolunteerStatusOffDuty = "off_duty"
)

// EntityKey identifies a tracked entity across sweeps.
type EntityKey struct {
	Type EntityType
	ID   string
}

// TrackedEntity is one candidate produced by a sweep's entity listing.
// Position is nil when the entity has not reported a location; such
// entities are skipped for that sweep.
type TrackedEntity struct {
	Type      EntityType
	ID        string
	Label     string
	Status    string
	Position  *Coordinates
	UpdatedAt time.Time
}

func (e *TrackedEntity) Key() EntityKey {
	return EntityKey{Type: e.Type, ID: e.ID}
}
