package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/models"
)

func (s *SQLiteDB) ListActiveVehicles(ctx context.Context) ([]models.TrackedEntity, error) {
	return s.listEntities(ctx, models.EntityTypeVehicle,
		models.VehicleStatusAvailable, models.VehicleStatusInUse)
}

func (s *SQLiteDB) ListActiveVolunteers(ctx context.Context) ([]models.TrackedEntity, error) {
	return s.listEntities(ctx, models.EntityTypeVolunteer,
		models.VolunteerStatusIdle, models.VolunteerStatusEnRoute)
}

func (s *SQLiteDB) listEntities(ctx context.Context, entityType models.EntityType, statuses ...string) ([]models.TrackedEntity, error) {
	query := `
		SELECT entity_type, entity_id, label, status, latitude, longitude, updated_at
		FROM entities
		WHERE entity_type = ? AND status IN (?` + strings.Repeat(", ?", len(statuses)-1) + `)
		ORDER BY entity_id
	`
	args := make([]any, 0, len(statuses)+1)
	args = append(args, string(entityType))
	for _, st := range statuses {
		args = append(args, st)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing entities: %w", err)
	}
	defer rows.Close()

	var entities []models.TrackedEntity
	for rows.Next() {
		var (
			e        models.TrackedEntity
			lat, lng sql.NullFloat64
		)
		if err := rows.Scan(&e.Type, &e.ID, &e.Label, &e.Status, &lat, &lng, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning entity: %w", err)
		}
		if lat.Valid && lng.Valid {
			e.Position = &models.Coordinates{Latitude: lat.Float64, Longitude: lng.Float64}
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func (s *SQLiteDB) UpsertEntity(ctx context.Context, e *models.TrackedEntity) error {
	var lat, lng any
	if e.Position != nil {
		lat, lng = e.Position.Latitude, e.Position.Longitude
	}

	updatedAt := e.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entities (entity_type, entity_id, label, status, latitude, longitude, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_type, entity_id) DO UPDATE SET
			label = excluded.label,
			status = excluded.status,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			updated_at = excluded.updated_at
	`, string(e.Type), e.ID, e.Label, e.Status, lat, lng, updatedAt)
	if err != nil {
		return fmt.Errorf("error upserting entity %s/%s: %w", e.Type, e.ID, err)
	}
	return nil
}
