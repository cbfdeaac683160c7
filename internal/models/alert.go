package models

import "time"

type AlertType string

const (
	AlertTypeExit AlertType = "exit"
	// AlertTypeEnter is reserved in the schema for re-entry events; the
	// monitor does not currently emit it.
	AlertTypeEnter AlertType = "enter"
)

type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
)

// GeofenceAlert records a detected boundary-exit transition.
// Lifecycle: active -> acknowledged or active -> resolved, both terminal.
type GeofenceAlert struct {
	ID             string
	EntityType     EntityType
	EntityID       string
	EntityLabel    string
	Latitude       float64
	Longitude      float64
	AlertType      AlertType
	Status         AlertStatus
	CreatedAt      time.Time
	AcknowledgedAt *time.Time
}

func (a *GeofenceAlert) EntityKey() EntityKey {
	return EntityKey{Type: a.EntityType, ID: a.EntityID}
}
