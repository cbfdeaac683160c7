package models

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// OperationalBoundary is the configured rectangular operational area.
// Corner pointers are nil when no boundary has been configured; an
// unset boundary means nothing is considered out-of-bounds.
type OperationalBoundary struct {
	SouthWest *Coordinates
	NorthEast *Coordinates
}

func (b *OperationalBoundary) IsSet() bool {
	return b != nil && b.SouthWest != nil && b.NorthEast != nil
}
