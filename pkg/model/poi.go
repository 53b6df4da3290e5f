package model

// POI is a point of interest (spec §3).
type POI struct {
	ID       string
	Name     string
	Lat, Lon float64
	Category string
	Icon     string
}

// POIWithETA adds derived projection/ETA fields to a POI (spec §3, §4.8).
type POIWithETA struct {
	POI
	DistanceM                float64
	BearingDeg               float64
	ETASeconds               float64
	ETAType                  ETAMode
	IsOnActiveRoute          bool
	ProjectedWaypointIndex   *int
	ProjectedRouteProgressPct *float64
	CourseStatus             CourseStatus
}
