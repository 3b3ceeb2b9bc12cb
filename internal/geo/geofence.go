// Package geo decides whether a recipient is in scope for an alert,
// based on the alert's declared radius and great-circle distance.
package geo

import (
	"math"

	"quartier-watch/internal/models"
)

// EarthRadiusMeters is the mean Earth radius used for haversine distance.
const EarthRadiusMeters = 6371000

// Distance returns the great-circle distance in meters between two
// coordinate pairs (haversine formula).
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// InRadius reports whether a subscriber at the given location should be
// considered in scope for the alert.
//
// Quartier-wide alerts are always in scope. An alert without a location,
// or a subscriber with an unknown location, is also in scope: dropping an
// urgent alert silently is worse than over-notifying, so the filter fails
// open on missing data.
func InRadius(alert *models.Alert, subscriber *models.Location) bool {
	if alert.Radius.IsQuartierWide() {
		return true
	}
	if alert.Location == nil || subscriber == nil {
		return true
	}

	distance := Distance(
		subscriber.Latitude, subscriber.Longitude,
		alert.Location.Latitude, alert.Location.Longitude,
	)
	return distance <= alert.Radius.Meters()
}
