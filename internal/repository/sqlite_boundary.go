package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/models"
)

func (s *SQLiteDB) GetBoundary(ctx context.Context) (*models.OperationalBoundary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT sw_lat, sw_lng, ne_lat, ne_lng FROM boundary WHERE id = 1
	`)

	var swLat, swLng, neLat, neLng sql.NullFloat64
	err := row.Scan(&swLat, &swLng, &neLat, &neLng)
	if err == sql.ErrNoRows {
		return &models.OperationalBoundary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading boundary: %w", err)
	}

	b := &models.OperationalBoundary{}
	if swLat.Valid && swLng.Valid {
		b.SouthWest = &models.Coordinates{Latitude: swLat.Float64, Longitude: swLng.Float64}
	}
	if neLat.Valid && neLng.Valid {
		b.NorthEast = &models.Coordinates{Latitude: neLat.Float64, Longitude: neLng.Float64}
	}
	return b, nil
}

func (s *SQLiteDB) SetBoundary(ctx context.Context, b *models.OperationalBoundary) error {
	if !b.IsSet() {
		return fmt.Errorf("boundary requires both southwest and northeast corners")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO boundary (id, sw_lat, sw_lng, ne_lat, ne_lng, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sw_lat = excluded.sw_lat,
			sw_lng = excluded.sw_lng,
			ne_lat = excluded.ne_lat,
			ne_lng = excluded.ne_lng,
			updated_at = excluded.updated_at
	`, b.SouthWest.Latitude, b.SouthWest.Longitude, b.NorthEast.Latitude, b.NorthEast.Longitude, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("error storing boundary: %w", err)
	}
	return nil
}

func (s *SQLiteDB) ClearBoundary(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE boundary
		SET sw_lat = NULL, sw_lng = NULL, ne_lat = NULL, ne_lng = NULL, updated_at = ?
		WHERE id = 1
	`, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("error clearing boundary: %w", err)
	}
	return nil
}
