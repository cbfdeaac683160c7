package api

import (
	"github.com/rohithe00001-web/quantum-aid-network-sub000/internal/models"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON renders positioned entities for the map view. Entities
// without a reported position have nothing to plot and are omitted.
func toGeoJSON(entities []models.TrackedEntity) FeatureCollection {
	features := make([]Feature, 0, len(entities))

	for _, e := range entities {
		if e.Position == nil {
			continue
		}
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{e.Position.Longitude, e.Position.Latitude},
			},
			Properties: map[string]any{
				"entity_type": string(e.Type),
				"entity_id":   e.ID,
				"label":       e.Label,
				"status":      e.Status,
				"updated_at":  e.UpdatedAt,
			},
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
