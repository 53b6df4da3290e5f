package flightphase

import (
	"math"
	"time"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/geo"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/route"
)

const knotsToMpsFactor = 0.514444
const speedFloorMps = 1.0 // v_floor guard (spec §4.8)

func knotsToMps(kn float64) float64 {
	return kn * knotsToMpsFactor
}

// WaypointETA is the ETA result for a single waypoint query (spec §4.8
// "ETA to a waypoint").
type WaypointETA struct {
	ETASeconds float64
	ETATimeGMT time.Time
	Mode       model.ETAMode
}

// ComputeWaypointETA implements the ANTICIPATED/ESTIMATED blending formula
// (spec §4.8): ANTICIPATED uses the waypoint's own expected arrival and
// falls back to ESTIMATED when that is missing; ESTIMATED blends
// distance/speed against remaining scheduled time when timing data exists,
// or falls back to a pure distance/speed estimate floored at v_floor.
func ComputeWaypointETA(now time.Time, phase model.FlightPhase, expectedArrival *time.Time, distanceAlongM, smoothedSpeedKn, alpha float64) WaypointETA {
	seconds, mode := blendETA(now, model.ETAModeForPhase(phase), expectedArrival, distanceAlongM, smoothedSpeedKn, alpha)
	return WaypointETA{ETASeconds: seconds, ETATimeGMT: now.Add(time.Duration(seconds * float64(time.Second))), Mode: mode}
}

// blendETA is the shared core of waypoint and on-route POI ETA: it
// implements the three-way branch in spec §4.8 (ANTICIPATED with data,
// ESTIMATED with data, ESTIMATED without data).
func blendETA(now time.Time, mode model.ETAMode, targetTime *time.Time, d, speedKn, alpha float64) (float64, model.ETAMode) {
	if mode == model.Anticipated {
		if targetTime != nil {
			return math.Max(0, targetTime.Sub(now).Seconds()), model.Anticipated
		}
		mode = model.Estimated
	}

	v := knotsToMps(speedKn)
	if targetTime != nil {
		vv := v
		if vv <= 0 {
			vv = speedFloorMps
		}
		distTerm := d / vv
		timeTerm := targetTime.Sub(now).Seconds()
		return alpha*distTerm + (1-alpha)*timeTerm, model.Estimated
	}

	vv := v
	if vv < speedFloorMps {
		vv = speedFloorMps
	}
	return d / vv, model.Estimated
}

const (
	courseOnThresholdDeg       = 15
	courseSlightlyOffThreshold = 30
	courseOffThresholdDeg      = 90
	reachedRadiusM             = 100
)

// ComputePOIETA implements the POI ETA & course-status derivation (spec
// §4.8 "POI ETA"). currentProgressM is the current along-route distance
// from ProjectOntoSegment-style projection of the platform's own position.
func ComputePOIETA(
	now time.Time,
	phase model.FlightPhase,
	proj *route.Projector,
	poi model.POI,
	currentPos geo.Point,
	currentHeadingDeg float64,
	currentProgressM float64,
	smoothedSpeedKn float64,
	cfg Config,
) model.POIWithETA {
	q := geo.Point{Lat: poi.Lat, Lon: poi.Lon}
	outcome := proj.Project(q)
	onRoute := outcome.CrossTrackM <= cfg.OnRouteToleranceM

	distAlongPOI := proj.DistanceAlongRoute(outcome.WaypointIndex, outcome.Progress)
	progressDelta := distAlongPOI - currentProgressM
	greatCircleDist := geo.HaversineDistance(currentPos, q)

	var etaSeconds float64
	var mode model.ETAMode
	if onRoute {
		etaSeconds, mode = blendETA(now, model.ETAModeForPhase(phase), outcome.TimeAtProjection, progressDelta, smoothedSpeedKn, cfg.ETABlendingAlpha)
	} else {
		v := knotsToMps(smoothedSpeedKn)
		if v < speedFloorMps {
			v = speedFloorMps
		}
		etaSeconds = greatCircleDist / v
		mode = model.ETAModeForPhase(phase)
	}

	bearing := geo.InitialBearing(currentPos, q)
	status := courseStatusFromHeading(currentHeadingDeg, bearing)
	switch {
	case greatCircleDist <= reachedRadiusM:
		status = model.Reached
	case progressDelta < 0:
		status = model.Passed
	}

	idx := outcome.WaypointIndex
	total := proj.TotalDistance()
	var progressPct *float64
	if total > 0 {
		pct := distAlongPOI / total * 100
		progressPct = &pct
	}

	return model.POIWithETA{
		POI:                       poi,
		DistanceM:                 greatCircleDist,
		BearingDeg:                bearing,
		ETASeconds:                etaSeconds,
		ETAType:                   mode,
		IsOnActiveRoute:           onRoute,
		ProjectedWaypointIndex:    &idx,
		ProjectedRouteProgressPct: progressPct,
		CourseStatus:              status,
	}
}

// courseStatusFromHeading classifies the angular difference between the
// platform's current heading and the great-circle bearing to a target
// (spec §4.8 course-status thresholds).
func courseStatusFromHeading(headingDeg, bearingDeg float64) model.CourseStatus {
	diff := angularDiff(headingDeg, bearingDeg)
	switch {
	case diff <= courseOnThresholdDeg:
		return model.OnCourse
	case diff <= courseSlightlyOffThreshold:
		return model.SlightlyOff
	case diff <= courseOffThresholdDeg:
		return model.OffCourse
	default:
		return model.Departing
	}
}

// angularDiff returns the unsigned difference between two bearings in
// [0, 180] degrees.
func angularDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}
