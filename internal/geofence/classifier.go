package geofence

import "github.com/rohithe00001-web/quantum-aid-network-sub000/internal/models"

// Contains reports whether the coordinate lies within the boundary.
// An unset boundary means no constraint, so everything is inside.
// The test is a plain axis-aligned rectangle with inclusive edges; it
// is only valid for boundaries that do not wrap the antimeridian,
// which configuration validation rejects.
func Contains(b *models.OperationalBoundary, lat, lng float64) bool {
	if !b.IsSet() {
		return true
	}
	return lat >= b.SouthWest.Latitude && lat <= b.NorthEast.Latitude &&
		lng >= b.SouthWest.Longitude && lng <= b.NorthEast.Longitude
}
