// Package merger implements the Segment Merger (spec §4.6): it takes the
// three independent per-transport piecewise-constant interval series and
// produces the combined TimelineSegment series, with severity, reasons, and
// the X-Ku anti-correlation advisory downgrade rule.
package merger

import (
	"sort"
	"time"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

// Result is the output of Merge.
type Result struct {
	Segments []model.TimelineSegment
}

// AntiCorrelationDowngrade reports whether seg satisfies the X-Ku
// anti-correlation condition (spec §4.6 step 3): X is non-AVAILABLE solely
// due to azimuth_conflict (DESIGN.md Open Questions #3: azimuth_conflict is
// the sole reason X is non-AVAILABLE, so this must match OFFLINE as well as
// DEGRADED — xtransport emits azimuth_conflict as OFFLINE, never DEGRADED)
// while Ka and Ku are both AVAILABLE. This downgrades advisory severity to
// WARNING only — segment status is untouched.
func AntiCorrelationDowngrade(seg model.TimelineSegment) bool {
	return seg.XState.Bad() &&
		len(seg.Reasons) == 1 && seg.Reasons[0] == "azimuth_conflict" &&
		seg.KaState == model.Available &&
		seg.KuState == model.Available
}

type transportPoint struct {
	state   model.TransportState
	reasons []string
	xSat    string
	kaSet   []string
}

// Merge computes the combined segment series over [missionStart, missionEnd)
// from the three builders' interval series (spec §4.6).
func Merge(missionStart, missionEnd time.Time, xIntervals, kaIntervals, kuIntervals []model.TransportInterval) Result {
	times := collectBreakpoints(missionStart, missionEnd, xIntervals, kaIntervals, kuIntervals)

	var segments []model.TimelineSegment

	for i := 0; i+1 < len(times); i++ {
		start, end := times[i], times[i+1]
		mid := start.Add(end.Sub(start) / 2)

		x := pointAt(xIntervals, mid)
		ka := pointAt(kaIntervals, mid)
		ku := pointAt(kuIntervals, mid)

		k := 0
		var impacted []model.Transport
		if x.state.Bad() {
			k++
			impacted = append(impacted, model.TransportX)
		}
		if ka.state.Bad() {
			k++
			impacted = append(impacted, model.TransportKa)
		}
		if ku.state.Bad() {
			k++
			impacted = append(impacted, model.TransportKu)
		}

		reasons := unionReasons(x.reasons, ka.reasons, ku.reasons)

		seg := model.TimelineSegment{
			Start:              start,
			End:                end,
			XState:             x.state,
			KaState:            ka.state,
			KuState:            ku.state,
			Status:             model.StatusFromBadCount(k),
			ImpactedTransports: impacted,
			Reasons:            reasons,
			Metadata: model.SegmentMetadata{
				ActiveXSatellite: x.xSat,
				ActiveKaSet:      ka.kaSet,
			},
		}

		segments = append(segments, seg)
	}

	return Result{Segments: coalesce(segments)}
}

func collectBreakpoints(missionStart, missionEnd time.Time, series ...[]model.TransportInterval) []time.Time {
	seen := map[int64]bool{}
	var times []time.Time
	add := func(t time.Time) {
		k := t.UnixNano()
		if !seen[k] {
			seen[k] = true
			times = append(times, t)
		}
	}
	add(missionStart)
	add(missionEnd)
	for _, s := range series {
		for _, iv := range s {
			if iv.Start.After(missionStart) && iv.Start.Before(missionEnd) {
				add(iv.Start)
			}
			if iv.End.After(missionStart) && iv.End.Before(missionEnd) {
				add(iv.End)
			}
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times
}

func pointAt(intervals []model.TransportInterval, t time.Time) transportPoint {
	for _, iv := range intervals {
		if !iv.Start.After(t) && iv.End.After(t) {
			return transportPoint{state: iv.State, reasons: iv.Reasons, xSat: iv.ActiveSatelliteID, kaSet: iv.ActiveSatelliteSet}
		}
	}
	return transportPoint{state: model.Available}
}

func unionReasons(sets ...[]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, set := range sets {
		for _, r := range set {
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	sort.Strings(out)
	return out
}

// coalesce collapses adjacent segments whose labeled fields are identical
// (spec §4.6 step 4, §3 invariant: adjacent segments differ in at least one
// labeled field).
func coalesce(segments []model.TimelineSegment) []model.TimelineSegment {
	if len(segments) == 0 {
		return segments
	}
	var out []model.TimelineSegment
	cur := segments[0]
	for i := 1; i < len(segments); i++ {
		if cur.SameLabels(segments[i]) {
			cur.End = segments[i].End
			continue
		}
		out = append(out, cur)
		cur = segments[i]
	}
	out = append(out, cur)
	return out
}
