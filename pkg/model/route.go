package model

import "time"

// RoutePoint is one ordered sample along a route (spec §3).
type RoutePoint struct {
	Lat                       float64 // degrees, [-90, 90]
	Lon                       float64 // degrees, [-180, 180]
	AltM                      float64
	Seq                       int
	ExpectedArrival           *time.Time
	ExpectedSegmentSpeedKnots *float64
}

// Waypoint names a subset of route points with a role.
type Waypoint struct {
	Name            string
	Role            WaypointRole
	ExpectedArrival *time.Time
	// PointIndex is the index into Route.Points this waypoint corresponds
	// to.
	PointIndex int
}

// TimingProfile is derived from a route at ingestion time.
type TimingProfile struct {
	DepartureTime         *time.Time
	ArrivalTime           *time.Time
	TotalExpectedDuration *time.Duration
	HasTimingData         bool
}

// Route is an immutable, ordered sequence of points plus named waypoints.
// Routes are replaced atomically on update (spec §3 ownership).
type Route struct {
	ID        string
	Version   int
	Points    []RoutePoint
	Waypoints []Waypoint
	Timing    TimingProfile
	// POIs are points of interest tracked for ETA/distance/course-status
	// projection alongside the route (spec §4.8 "POI ETA"); nil for routes
	// with none configured.
	POIs []POI
}

// DeriveTimingProfile computes a TimingProfile from route points, enforcing
// the "untimed point" rule: if two consecutive timed points do not strictly
// increase, the later one is treated as untimed for timing-data purposes.
func DeriveTimingProfile(points []RoutePoint) TimingProfile {
	var profile TimingProfile
	var lastTimed *time.Time
	var first, last *time.Time
	timedCount := 0
	for i := range points {
		p := &points[i]
		if p.ExpectedArrival == nil {
			continue
		}
		if lastTimed != nil && !p.ExpectedArrival.After(*lastTimed) {
			// Non-monotonic: this point is treated as untimed.
			p.ExpectedArrival = nil
			continue
		}
		if first == nil {
			first = p.ExpectedArrival
		}
		last = p.ExpectedArrival
		lastTimed = p.ExpectedArrival
		timedCount++
	}
	profile.DepartureTime = first
	profile.ArrivalTime = last
	profile.HasTimingData = timedCount >= 2
	if profile.HasTimingData {
		d := last.Sub(*first)
		profile.TotalExpectedDuration = &d
	}
	return profile
}

// NewRoute builds a Route and derives its TimingProfile.
func NewRoute(id string, points []RoutePoint, waypoints []Waypoint) Route {
	return Route{
		ID:        id,
		Points:    points,
		Waypoints: waypoints,
		Timing:    DeriveTimingProfile(points),
	}
}

// AdjustedArrival returns p.ExpectedArrival shifted by delta, or nil if the
// point carries no timing data. All time-based projector queries operate on
// adjusted timestamps (spec §4.1).
func (p RoutePoint) AdjustedArrival(delta time.Duration) *time.Time {
	if p.ExpectedArrival == nil {
		return nil
	}
	t := p.ExpectedArrival.Add(delta)
	return &t
}
