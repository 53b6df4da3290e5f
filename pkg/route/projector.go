// Package route implements the Route Model & Projector (spec §4.1):
// position-at-time, point-onto-polyline projection, and time-at-projected-
// position, all IDL-safe and operating on adjusted timestamps.
package route

import (
	"sort"
	"time"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/errs"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/geo"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

// Projector answers position/time/projection queries against one immutable
// Route, using a uniform time delta for adjusted-departure-time support
// (spec §4.1 "Time adjustment").
//
// A Projector holds no mutable cache today; a config change to
// adjusted_departure_time is handled by constructing a new Projector, which
// is equivalent to "invalidating all cached projector state" per spec.
type Projector struct {
	route *model.Route
	delta time.Duration
}

// New builds a Projector for route, applying delta to every point's
// ExpectedArrival before any time-based query.
func New(route *model.Route, delta time.Duration) (*Projector, error) {
	if len(route.Points) < 2 {
		return nil, errs.InvalidInput("route.New", "route %s has fewer than 2 points", route.ID)
	}
	return &Projector{route: route, delta: delta}, nil
}

func (p *Projector) point(i int) geo.Point {
	rp := p.route.Points[i]
	return geo.Point{Lat: rp.Lat, Lon: rp.Lon}
}

func (p *Projector) adjustedArrival(i int) *time.Time {
	return p.route.Points[i].AdjustedArrival(p.delta)
}

// PositionAtTime returns position, altitude and heading at wall-clock time
// t, using slerp between the bracketing timed points (spec §4.1).
func (p *Projector) PositionAtTime(t time.Time) (pos geo.Point, altM, headingDeg float64, err error) {
	if !p.route.Timing.HasTimingData {
		return geo.Point{}, 0, 0, errs.InvalidInput("route.PositionAtTime", "route %s has no timing data", p.route.ID)
	}

	idx, ferr := p.bracketIndex(t)
	if ferr != nil {
		return geo.Point{}, 0, 0, ferr
	}

	return p.interpolateAt(idx, t)
}

// PositionAtTimeWithSpeed falls back to distance-based interpolation using a
// caller-supplied ground speed (m/s) when the route has no timing data
// (spec §4.1).
func (p *Projector) PositionAtTimeWithSpeed(elapsed time.Duration, speedMps float64) (pos geo.Point, altM float64, err error) {
	if speedMps <= 0 {
		return geo.Point{}, 0, errs.InvalidInput("route.PositionAtTimeWithSpeed", "speed must be positive")
	}
	targetDist := elapsed.Seconds() * speedMps

	cum := 0.0
	for i := 0; i < len(p.route.Points)-1; i++ {
		a, b := p.point(i), p.point(i+1)
		segLen := geo.HaversineDistance(a, b)
		if cum+segLen >= targetDist || i == len(p.route.Points)-2 {
			f := 0.0
			if segLen > 0 {
				f = clamp((targetDist-cum)/segLen, 0, 1)
			}
			interp, alt := geo.Slerp(a, b, p.route.Points[i].AltM, p.route.Points[i+1].AltM, f)
			return interp, alt, nil
		}
		cum += segLen
	}
	last := p.route.Points[len(p.route.Points)-1]
	return geo.Point{Lat: last.Lat, Lon: last.Lon}, last.AltM, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// bracketIndex binary-searches for the index i such that
// points[i].arrival <= t <= points[i+1].arrival, restricting to points with
// timing data.
func (p *Projector) bracketIndex(t time.Time) (int, error) {
	timed := p.timedIndices()
	if len(timed) < 2 {
		return 0, errs.InvalidInput("route.bracketIndex", "insufficient timed points")
	}
	first := p.adjustedArrival(timed[0])
	last := p.adjustedArrival(timed[len(timed)-1])
	if t.Before(*first) || t.After(*last) {
		return 0, errs.InvalidInput("route.bracketIndex", "time %v out of range [%v,%v]", t, *first, *last)
	}

	lo, hi := 0, len(timed)-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		midArr := p.adjustedArrival(timed[mid])
		if midArr.After(t) {
			hi = mid
		} else {
			lo = mid
		}
	}
	return timed[lo], nil
}

func (p *Projector) timedIndices() []int {
	var out []int
	for i := range p.route.Points {
		if p.route.Points[i].ExpectedArrival != nil {
			out = append(out, i)
		}
	}
	return out
}

// interpolateAt slerps between the timed point at idx and the next timed
// point, at time t.
func (p *Projector) interpolateAt(idx int, t time.Time) (geo.Point, float64, float64, error) {
	timed := p.timedIndices()
	pos := sort.SearchInts(timed, idx)
	if pos >= len(timed)-1 {
		last := p.point(timed[len(timed)-1])
		return last, p.route.Points[timed[len(timed)-1]].AltM, 0, nil
	}
	i, j := timed[pos], timed[pos+1]
	tA, tB := p.adjustedArrival(i), p.adjustedArrival(j)
	total := tB.Sub(*tA)
	var f float64
	if total > 0 {
		f = clamp(t.Sub(*tA).Seconds()/total.Seconds(), 0, 1)
	}
	a, b := p.point(i), p.point(j)
	interp, alt := geo.Slerp(a, b, p.route.Points[i].AltM, p.route.Points[j].AltM, f)
	heading := geo.InitialBearing(a, b)
	return interp, alt, heading, nil
}

// ProjectionOutcome is the result of projecting a geographic point onto the
// route polyline (spec §4.1).
type ProjectionOutcome struct {
	WaypointIndex      int // index of the segment's starting point
	Progress           float64
	AlongTrackM        float64
	CrossTrackM        float64
	ProjectedPoint     geo.Point
	TimeAtProjection   *time.Time
}

// Project finds the polyline segment minimizing cross-track distance to q,
// tie-breaking by smaller waypoint index (spec §4.1).
func (p *Projector) Project(q geo.Point) ProjectionOutcome {
	best := ProjectionOutcome{CrossTrackM: -1}
	for i := 0; i < len(p.route.Points)-1; i++ {
		a, b := p.point(i), p.point(i+1)
		res := geo.ProjectOntoSegment(a, b, q)
		absXt := absF(res.CrossTrackM)
		if best.CrossTrackM < 0 || absXt < best.CrossTrackM {
			interp, _ := geo.Slerp(a, b, 0, 0, res.Progress)
			best = ProjectionOutcome{
				WaypointIndex:  i,
				Progress:       res.Progress,
				AlongTrackM:    res.AlongTrackM,
				CrossTrackM:    absXt,
				ProjectedPoint: interp,
			}
		}
	}
	if p.route.Timing.HasTimingData {
		if t, err := p.timeAtProjection(best.WaypointIndex, best.Progress); err == nil {
			best.TimeAtProjection = &t
		}
	}
	return best
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// timeAtProjection inverts the time-at-index mapping by linear
// interpolation on the projected segment (spec §4.1 "Time at projected
// position").
func (p *Projector) timeAtProjection(segIdx int, progress float64) (time.Time, error) {
	a := p.adjustedArrival(segIdx)
	b := p.adjustedArrival(segIdx + 1)
	if a == nil || b == nil {
		return time.Time{}, errs.InvalidInput("route.timeAtProjection", "segment %d is untimed", segIdx)
	}
	delta := b.Sub(*a)
	return a.Add(time.Duration(float64(delta) * progress)), nil
}

// TotalDistance returns the full polyline length in meters.
func (p *Projector) TotalDistance() float64 {
	total := 0.0
	for i := 0; i < len(p.route.Points)-1; i++ {
		total += geo.HaversineDistance(p.point(i), p.point(i+1))
	}
	return total
}

// DistanceAlongRoute returns the cumulative along-track distance from the
// start of the route to waypoint index idx at fractional progress f within
// that segment.
func (p *Projector) DistanceAlongRoute(idx int, f float64) float64 {
	total := 0.0
	for i := 0; i < idx && i < len(p.route.Points)-1; i++ {
		total += geo.HaversineDistance(p.point(i), p.point(i+1))
	}
	if idx < len(p.route.Points)-1 {
		total += geo.HaversineDistance(p.point(idx), p.point(idx+1)) * f
	}
	return total
}
