package models

// Radius is the declared broadcast scope of a post or alert: a metric
// band around the item's location, or the whole quartier.
type Radius string

const (
	Radius300m     Radius = "300m"
	Radius600m     Radius = "600m"
	Radius1km      Radius = "1km"
	RadiusQuartier Radius = "quartier"
)

// defaultRadiusMeters is applied to any unrecognized radius value.
const defaultRadiusMeters = 1000

// Meters returns the metric band for the radius. RadiusQuartier has no
// metric band; callers must check IsQuartierWide first.
func (r Radius) Meters() float64 {
	switch r {
	case Radius300m:
		return 300
	case Radius600m:
		return 600
	case Radius1km:
		return 1000
	default:
		return defaultRadiusMeters
	}
}

func (r Radius) IsQuartierWide() bool {
	return r == RadiusQuartier
}

func IsValidRadius(r Radius) bool {
	switch r {
	case Radius300m, Radius600m, Radius1km, RadiusQuartier:
		return true
	}
	return false
}
