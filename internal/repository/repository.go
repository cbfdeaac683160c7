package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/models"
)

// ErrAlertNotActive is returned by UpdateAlertStatus when the target row
// does not exist or has already left the required prior status.
var ErrAlertNotActive = errors.New("alert is not in a transitionable status")

// AlertFilter narrows ListAlerts. Zero-valued fields are ignored.
type AlertFilter struct {
	Limit        int
	Status       models.AlertStatus
	EntityType   models.EntityType
	EntityID     string
	CreatedAfter *time.Time
}

type BoundaryRepository interface {
	// GetBoundary returns the configured boundary, or an unset boundary
	// (nil corners) when none has been stored.
	GetBoundary(ctx context.Context) (*models.OperationalBoundary, error)
	SetBoundary(ctx context.Context, b *models.OperationalBoundary) error
	ClearBoundary(ctx context.Context) error
}

type EntityRepository interface {
	// ListActiveVehicles returns vehicles whose status is in the
	// operational set (available, in_use).
	ListActiveVehicles(ctx context.Context) ([]models.TrackedEntity, error)
	// ListActiveVolunteers returns volunteers whose status is in the
	// operational set (idle, en_route).
	ListActiveVolunteers(ctx context.Context) ([]models.TrackedEntity, error)
	UpsertEntity(ctx context.Context, e *models.TrackedEntity) error
}

type AlertRepository interface {
	AddAlert(ctx context.Context, a *models.GeofenceAlert) error
	GetAlertByID(ctx context.Context, id string) (*models.GeofenceAlert, error)
	ListAlerts(ctx context.Context, opts AlertFilter) ([]models.GeofenceAlert, error)
	// UpdateAlertStatus transitions an active alert to the given status,
	// stamping acknowledgedAt when provided. Returns ErrAlertNotActive
	// if the row is missing or no longer active.
	UpdateAlertStatus(ctx context.Context, id string, status models.AlertStatus, acknowledgedAt *time.Time) error
	// PurgeFinishedAlerts deletes acknowledged/resolved alerts created
	// before the cutoff, returning the number removed.
	PurgeFinishedAlerts(ctx context.Context, cutoff time.Time) (int64, error)
}
