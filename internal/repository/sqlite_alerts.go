package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/models"
)

func (s *SQLiteDB) AddAlert(ctx context.Context, a *models.GeofenceAlert) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO geofence_alerts
			(id, entity_type, entity_id, entity_label, latitude, longitude, alert_type, status, created_at, acknowledged_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, string(a.EntityType), a.EntityID, a.EntityLabel, a.Latitude, a.Longitude,
		string(a.AlertType), string(a.Status), a.CreatedAt.UTC(), a.AcknowledgedAt)
	if err != nil {
		return fmt.Errorf("error inserting alert %s: %w", a.ID, err)
	}
	return nil
}

func (s *SQLiteDB) GetAlertByID(ctx context.Context, id string) (*models.GeofenceAlert, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, entity_type, entity_id, entity_label, latitude, longitude, alert_type, status, created_at, acknowledged_at
		FROM geofence_alerts
		WHERE id = ?
	`, id)

	a, err := scanAlert(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading alert %s: %w", id, err)
	}
	return a, nil
}

func (s *SQLiteDB) ListAlerts(ctx context.Context, opts AlertFilter) ([]models.GeofenceAlert, error) {
	query := `
		SELECT id, entity_type, entity_id, entity_label, latitude, longitude, alert_type, status, created_at, acknowledged_at
		FROM geofence_alerts
		WHERE 1=1
	`
	var args []any

	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, string(opts.Status))
	}
	if opts.EntityType != "" {
		query += " AND entity_type = ?"
		args = append(args, string(opts.EntityType))
	}
	if opts.EntityID != "" {
		query += " AND entity_id = ?"
		args = append(args, opts.EntityID)
	}
	if opts.CreatedAfter != nil {
		// Timestamps are stored as UTC text; normalize the bound so the
		// comparison never mixes zone offsets.
		query += " AND created_at >= ?"
		args = append(args, opts.CreatedAfter.UTC())
	}

	query += " ORDER BY created_at DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.GeofenceAlert
	for rows.Next() {
		a, err := scanAlert(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("error scanning alert: %w", err)
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

func (s *SQLiteDB) UpdateAlertStatus(ctx context.Context, id string, status models.AlertStatus, acknowledgedAt *time.Time) error {
	// Only rows still in active may transition; acknowledged and
	// resolved are terminal.
	res, err := s.db.ExecContext(ctx, `
		UPDATE geofence_alerts
		SET status = ?, acknowledged_at = COALESCE(?, acknowledged_at)
		WHERE id = ? AND status = ?
	`, string(status), acknowledgedAt, id, string(models.AlertStatusActive))
	if err != nil {
		return fmt.Errorf("error updating alert %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking alert update %s: %w", id, err)
	}
	if affected == 0 {
		return ErrAlertNotActive
	}
	return nil
}

func (s *SQLiteDB) PurgeFinishedAlerts(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM geofence_alerts
		WHERE status IN (?, ?) AND created_at < ?
	`, string(models.AlertStatusAcknowledged), string(models.AlertStatusResolved), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("error purging alerts: %w", err)
	}
	return res.RowsAffected()
}

func scanAlert(scan func(dest ...any) error) (*models.GeofenceAlert, error) {
	var (
		a     models.GeofenceAlert
		ackAt sql.NullTime
	)
	err := scan(&a.ID, &a.EntityType, &a.EntityID, &a.EntityLabel, &a.Latitude, &a.Longitude,
		&a.AlertType, &a.Status, &a.CreatedAt, &ackAt)
	if err != nil {
		return nil, err
	}
	if ackAt.Valid {
		a.AcknowledgedAt = &ackAt.Time
	}
	return &a, nil
}
