// Package xtransport implements the X-Transport State Builder (spec §4.3):
// manual handoffs with pre/post degraded buffers, azimuth dead zones, and
// AAR masking, composed by taking the maximum severity across all
// contributing interval sources.
//
// Grounded on the teacher's src/rtksvr.go Update* methods (discrete event
// sources mutating shared receiver state), generalized from per-epoch
// mutation to interval-building.
package xtransport

import (
	"sort"
	"time"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/errs"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/geo"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/route"
)

const (
	defaultPreBufferS  = 900
	defaultPostBufferS = 900
	defaultSamplingS   = 30
)

// EphemerisProvider resolves the relative azimuth from the platform to a
// named satellite at time t (spec §4.3 inputs).
type EphemerisProvider interface {
	AzimuthFromPlatform(platform geo.Point, satelliteID string, t time.Time) (float64, error)
}

// WaypointResolver resolves a named waypoint to a route point index, for
// AAR window resolution (spec §4.3 step 3).
type WaypointResolver func(name string) (idx int, arrival time.Time, ok bool)

// Builder builds the X-transport interval series.
type Builder struct {
	Config           model.TransportConfig
	Projector        *route.Projector
	Ephemeris        EphemerisProvider
	ResolveWaypoint  WaypointResolver
	SamplingPeriodS  int
}

// resolvedTransition is an XTransition with its handoff instant resolved.
type resolvedTransition struct {
	model.XTransition
	at time.Time
}

// Build computes the X-transport TransportInterval series over
// [missionStart, missionEnd) (spec §4.3).
func (b *Builder) Build(missionStart, missionEnd time.Time) ([]model.TransportInterval, error) {
	sampling := b.SamplingPeriodS
	if sampling <= 0 {
		sampling = defaultSamplingS
	}

	transitions, err := b.resolveTransitions()
	if err != nil {
		return nil, err
	}

	var intervals []model.TransportInterval

	// Step 2: DEGRADED handoff windows.
	for _, tr := range transitions {
		pre := tr.PreBufferS
		if pre <= 0 {
			pre = defaultPreBufferS
		}
		post := tr.PostBufferS
		if post <= 0 {
			post = defaultPostBufferS
		}
		start := tr.at.Add(-time.Duration(pre) * time.Second)
		end := tr.at.Add(time.Duration(post) * time.Second)
		intervals = append(intervals, snap(model.TransportInterval{
			Start: start, End: end, State: model.Degraded, Reasons: []string{"x_transition"},
		}))
	}

	// Step 3: AAR DEGRADED windows.
	aarIntervals, err := b.resolveAARWindows(missionStart, missionEnd)
	if err != nil {
		return nil, err
	}
	intervals = append(intervals, aarIntervals...)

	// Step 4: azimuth dead-zone sampling.
	dzIntervals, err := b.sampleDeadZone(missionStart, missionEnd, transitions, sampling)
	if err != nil {
		// Azimuth evaluation failures degrade the transport rather than
		// aborting the whole timeline (spec §7 propagation policy).
		intervals = append(intervals, snap(model.TransportInterval{
			Start: missionStart, End: missionEnd, State: model.Offline, Reasons: []string{"evaluator_error"},
		}))
	} else {
		intervals = append(intervals, dzIntervals...)
	}

	// Step 5: compose via max-severity.
	merged := composeMaxSeverity(missionStart, missionEnd, intervals)
	b.attachActiveSatellite(merged, transitions)
	return merged, nil
}

func snap(iv model.TransportInterval) model.TransportInterval {
	iv.Start = iv.Start.Truncate(time.Second)
	iv.End = iv.End.Truncate(time.Second)
	return iv
}

func (b *Builder) resolveTransitions() ([]resolvedTransition, error) {
	out := make([]resolvedTransition, 0, len(b.Config.XTransitions))
	for _, tr := range b.Config.XTransitions {
		proj := b.Projector.Project(geo.Point{Lat: tr.Lat, Lon: tr.Lon})
		if proj.TimeAtProjection == nil {
			return nil, errs.InvalidInput("xtransport.resolveTransitions", "transition at (%f,%f) has no resolvable time", tr.Lat, tr.Lon)
		}
		out = append(out, resolvedTransition{XTransition: tr, at: *proj.TimeAtProjection})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].at.Before(out[j].at) })
	return out, nil
}

func (b *Builder) activeSatelliteAt(t time.Time, transitions []resolvedTransition) string {
	active := b.Config.InitialXSatelliteID
	for _, tr := range transitions {
		if !tr.at.After(t) {
			active = tr.TargetSatelliteID
		}
	}
	return active
}

func (b *Builder) attachActiveSatellite(intervals []model.TransportInterval, transitions []resolvedTransition) {
	for i := range intervals {
		mid := intervals[i].Start.Add(intervals[i].End.Sub(intervals[i].Start) / 2)
		intervals[i].ActiveSatelliteID = b.activeSatelliteAt(mid, transitions)
	}
}

// resolveAARWindows resolves each AAR window to a time interval using
// waypoint timestamps and marks it DEGRADED with reason aar_refuel. AAR
// uses closed-interval (tie-break) semantics at its edges (spec §4.3).
func (b *Builder) resolveAARWindows(missionStart, missionEnd time.Time) ([]model.TransportInterval, error) {
	var out []model.TransportInterval
	for _, aar := range b.Config.AARWindows {
		_, startArr, ok1 := b.ResolveWaypoint(aar.StartWaypointName)
		_, endArr, ok2 := b.ResolveWaypoint(aar.EndWaypointName)
		if !ok1 || !ok2 {
			return nil, errs.InvalidInput("xtransport.resolveAARWindows", "unknown AAR waypoint in (%s,%s)", aar.StartWaypointName, aar.EndWaypointName)
		}
		if !endArr.After(startArr) {
			// Zero-length AAR windows are discarded (spec §8 boundary
			// behaviors).
			continue
		}
		out = append(out, snap(model.TransportInterval{
			Start: startArr, End: endArr, State: model.Degraded, Reasons: []string{"aar_refuel"},
		}))
	}
	return out, nil
}

// sampleDeadZone samples the route at a fixed cadence, flags OFFLINE samples
// where relative azimuth to the active X satellite falls in the dead zone,
// and merges adjacent identical-state samples into intervals, expanding by
// half-sample on each side to avoid jitter (spec §4.3 step 4).
func (b *Builder) sampleDeadZone(missionStart, missionEnd time.Time, transitions []resolvedTransition, samplingS int) ([]model.TransportInterval, error) {
	if b.Ephemeris == nil || len(b.Config.XAzimuthDeadZone.Intervals) == 0 {
		return nil, nil
	}
	period := time.Duration(samplingS) * time.Second
	half := period / 2

	type sample struct {
		t      time.Time
		inZone bool
	}
	var samples []sample
	for t := missionStart; t.Before(missionEnd); t = t.Add(period) {
		pos, _, _, perr := b.positionAt(t, missionStart, missionEnd)
		if perr != nil {
			continue
		}
		sat := b.activeSatelliteAt(t, transitions)
		az, err := b.Ephemeris.AzimuthFromPlatform(pos, sat, t)
		if err != nil {
			return nil, errs.WrapComputationFailed("xtransport.sampleDeadZone", err)
		}
		samples = append(samples, sample{t: t, inZone: b.Config.XAzimuthDeadZone.Contains(az)})
	}
	if len(samples) == 0 {
		return nil, nil
	}

	var out []model.TransportInterval
	i := 0
	for i < len(samples) {
		j := i
		for j+1 < len(samples) && samples[j+1].inZone == samples[i].inZone {
			j++
		}
		if samples[i].inZone {
			start := samples[i].t.Add(-half)
			end := samples[j].t.Add(half)
			out = append(out, snap(model.TransportInterval{
				Start: start, End: end, State: model.Offline, Reasons: []string{"azimuth_conflict"},
			}))
		}
		i = j + 1
	}
	return out, nil
}

func (b *Builder) positionAt(t, missionStart, missionEnd time.Time) (geo.Point, float64, float64, error) {
	return b.Projector.PositionAtTime(t)
}

// composeMaxSeverity merges a flat list of state intervals over
// [missionStart, missionEnd) into the maximal constant-state series, where
// the state at any instant is the maximum severity of all contributing
// intervals (spec §4.3 step 5) and AVAILABLE is the background default.
func composeMaxSeverity(missionStart, missionEnd time.Time, intervals []model.TransportInterval) []model.TransportInterval {
	type breakpoint struct {
		t      time.Time
		starts []int
		ends   []int
	}
	bps := map[int64]*breakpoint{}
	get := func(t time.Time) *breakpoint {
		key := t.UnixNano()
		if bp, ok := bps[key]; ok {
			return bp
		}
		bp := &breakpoint{t: t}
		bps[key] = bp
		return bp
	}
	get(missionStart)
	get(missionEnd)
	for idx, iv := range intervals {
		s := iv.Start
		if s.Before(missionStart) {
			s = missionStart
		}
		e := iv.End
		if e.After(missionEnd) {
			e = missionEnd
		}
		if !e.After(s) {
			continue
		}
		get(s).starts = append(get(s).starts, idx)
		get(e).ends = append(get(e).ends, idx)
	}

	var times []time.Time
	for _, bp := range bps {
		times = append(times, bp.t)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	active := map[int]bool{}
	var out []model.TransportInterval
	for i := 0; i < len(times)-1; i++ {
		t := times[i]
		bp := bps[t.UnixNano()]
		for _, idx := range bp.starts {
			active[idx] = true
		}
		for _, idx := range bp.ends {
			delete(active, idx)
		}
		next := times[i+1]
		state := model.Available
		var reasons []string
		seen := map[string]bool{}
		for idx := range active {
			state = model.MaxState(state, intervals[idx].State)
			for _, r := range intervals[idx].Reasons {
				if !seen[r] {
					seen[r] = true
					reasons = append(reasons, r)
				}
			}
		}
		sort.Strings(reasons)
		out = append(out, model.TransportInterval{Start: t, End: next, State: state, Reasons: reasons})
	}
	return coalesce(out)
}

func coalesce(intervals []model.TransportInterval) []model.TransportInterval {
	if len(intervals) == 0 {
		return intervals
	}
	var out []model.TransportInterval
	cur := intervals[0]
	for _, iv := range intervals[1:] {
		if cur.State == iv.State && sameReasons(cur.Reasons, iv.Reasons) {
			cur.End = iv.End
			continue
		}
		out = append(out, cur)
		cur = iv
	}
	out = append(out, cur)
	return out
}

func sameReasons(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
