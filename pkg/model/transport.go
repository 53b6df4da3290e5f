package model

import "time"

// XTransition is a manual handoff point for the steered X link (spec §3).
type XTransition struct {
	Lat, Lon          float64
	TargetSatelliteID string
	PreBufferS        int // default 900
	PostBufferS       int // default 900
}

// AzimuthInterval is one interval over compass azimuth degrees, [0,360).
// Wraps when Start > End (e.g. 350..10 covers the 0/360 seam).
type AzimuthInterval struct {
	StartDeg, EndDeg float64
}

// Contains reports whether az (normalized to [0,360)) lies within the
// interval, handling the wraparound case.
func (a AzimuthInterval) Contains(az float64) bool {
	az = normalizeAzimuth(az)
	s := normalizeAzimuth(a.StartDeg)
	e := normalizeAzimuth(a.EndDeg)
	if s <= e {
		return az >= s && az <= e
	}
	// wraps through 0/360
	return az >= s || az <= e
}

func normalizeAzimuth(deg float64) float64 {
	const full = 360.0
	d := deg
	for d < 0 {
		d += full
	}
	for d >= full {
		d -= full
	}
	return d
}

// AzimuthDeadZone is a union of azimuth intervals.
type AzimuthDeadZone struct {
	Intervals []AzimuthInterval
}

// Contains reports whether az falls in any interval of the dead zone.
func (z AzimuthDeadZone) Contains(az float64) bool {
	for _, iv := range z.Intervals {
		if iv.Contains(az) {
			return true
		}
	}
	return false
}

// FootprintSpec describes a Ka satellite's coverage footprint (spec §3).
type FootprintSpec struct {
	SatelliteID string
	// PolygonGeoJSON is a raw GeoJSON Polygon or MultiPolygon payload.
	PolygonGeoJSON []byte
	ValidFrom      *time.Time
	ValidUntil     *time.Time
}

// TimeWindow is a closed [Start, End] interval (used for outages, overrides,
// AAR resolution before being cut into half-open timeline intervals).
type TimeWindow struct {
	Start, End time.Time
}

// Duration reports the window's length.
func (w TimeWindow) Duration() time.Duration { return w.End.Sub(w.Start) }

// KuOverride is a manual Ku availability override (spec §3).
type KuOverride struct {
	Window TimeWindow
	Reason string
}

// AARWindow identifies an air-to-air refueling window by the named
// waypoints that bound it (spec §3); resolved to a TimeWindow downstream.
type AARWindow struct {
	StartWaypointName string
	EndWaypointName   string
}

// TransportConfig is the per-mission-leg configuration for all three
// transports (spec §3), all times UTC.
type TransportConfig struct {
	InitialXSatelliteID string
	XTransitions        []XTransition
	XAzimuthDeadZone    AzimuthDeadZone

	KaInitialSatelliteIDs []string
	KaOutages             []TimeWindow
	KaFootprints          map[string]FootprintSpec

	KuOverrides []KuOverride

	AARWindows []AARWindow

	// AdjustedDepartureTime, when set, shifts every waypoint time used for
	// timeline calculation by a uniform delta; route geometry is
	// unchanged (spec §3).
	AdjustedDepartureTime *time.Time
}

// DepartureDelta returns the Δ to add to every waypoint time, given the
// route's original departure time. Returns 0 if no adjustment is set.
func (c TransportConfig) DepartureDelta(originalDeparture *time.Time) time.Duration {
	if c.AdjustedDepartureTime == nil || originalDeparture == nil {
		return 0
	}
	return c.AdjustedDepartureTime.Sub(*originalDeparture)
}
