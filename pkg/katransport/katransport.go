// Package katransport implements the Ka-Transport State Builder (spec §4.4):
// footprint coverage gaps, scheduled outages, and handoff micro-degradation,
// collapsed into maximal constant-state intervals with active-set metadata.
package katransport

import (
	"sort"
	"time"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/coverage"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/route"
)

const defaultSamplingS = 30
const defaultHandoffDegradationS = 1

// Builder builds the Ka-transport interval series.
type Builder struct {
	Config               model.TransportConfig
	Projector            *route.Projector
	Evaluator            *coverage.Evaluator
	SamplingPeriodS      int
	HandoffDegradationS  int
}

type sample struct {
	t        time.Time
	covering []string
}

// Build computes the Ka-transport TransportInterval series over
// [missionStart, missionEnd) (spec §4.4).
func (b *Builder) Build(missionStart, missionEnd time.Time) ([]model.TransportInterval, error) {
	sampling := b.SamplingPeriodS
	if sampling <= 0 {
		sampling = defaultSamplingS
	}
	handoffS := b.HandoffDegradationS
	if handoffS <= 0 {
		handoffS = defaultHandoffDegradationS
	}

	samples, err := b.sampleCoverage(missionStart, missionEnd, sampling)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, nil
	}

	base := b.baseIntervals(samples)
	base = b.applyOutages(base)
	handoffs := b.handoffMicroDegradations(samples, handoffS)

	merged := mergeOverlayingHandoffs(base, handoffs)
	return coalesce(merged), nil
}

func (b *Builder) sampleCoverage(missionStart, missionEnd time.Time, samplingS int) ([]sample, error) {
	period := time.Duration(samplingS) * time.Second
	ids := b.Config.KaInitialSatelliteIDs
	var out []sample
	for t := missionStart; t.Before(missionEnd); t = t.Add(period) {
		pos, _, _, err := b.Projector.PositionAtTime(t)
		if err != nil {
			continue
		}
		set := b.Evaluator.CoveringSet(ids, pos.Lat, pos.Lon, t)
		out = append(out, sample{t: t, covering: set})
	}
	if len(out) == 0 {
		return nil, nil
	}
	if out[len(out)-1].t.Before(missionEnd) {
		// Ensure the last sample reaches missionEnd's coverage state too.
		pos, _, _, err := b.Projector.PositionAtTime(missionEnd.Add(-time.Second))
		if err == nil {
			set := b.Evaluator.CoveringSet(ids, pos.Lat, pos.Lon, missionEnd)
			out = append(out, sample{t: missionEnd, covering: set})
		}
	}
	return out, nil
}

// baseIntervals classifies each sample run as AVAILABLE (covering != ∅) or
// OFFLINE with reason ka_no_coverage (spec §4.4 step 2).
func (b *Builder) baseIntervals(samples []sample) []model.TransportInterval {
	var out []model.TransportInterval
	i := 0
	for i < len(samples)-1 {
		j := i
		covered := len(samples[i].covering) > 0
		for j+1 < len(samples)-1 && (len(samples[j+1].covering) > 0) == covered {
			j++
		}
		iv := model.TransportInterval{Start: samples[i].t, End: samples[j+1].t}
		if covered {
			iv.State = model.Available
			iv.ActiveSatelliteSet = samples[i].covering
		} else {
			iv.State = model.Offline
			iv.Reasons = []string{"ka_no_coverage"}
		}
		out = append(out, snap(iv))
		i = j + 1
	}
	return out
}

// applyOutages intersects ka_outages with the base series, forcing OFFLINE
// with reason ka_outage over the overlap (spec §4.4 step 3).
func (b *Builder) applyOutages(base []model.TransportInterval) []model.TransportInterval {
	if len(b.Config.KaOutages) == 0 {
		return base
	}
	var out []model.TransportInterval
	for _, iv := range base {
		segments := []model.TransportInterval{iv}
		for _, outage := range b.Config.KaOutages {
			if outage.Duration() <= 0 {
				continue
			}
			var next []model.TransportInterval
			for _, seg := range segments {
				next = append(next, splitByOutage(seg, outage)...)
			}
			segments = next
		}
		out = append(out, segments...)
	}
	return out
}

func splitByOutage(seg model.TransportInterval, outage model.TimeWindow) []model.TransportInterval {
	os, oe := outage.Start, outage.End
	if !oe.After(seg.Start) || !os.Before(seg.End) {
		return []model.TransportInterval{seg}
	}
	var out []model.TransportInterval
	if os.After(seg.Start) {
		out = append(out, model.TransportInterval{Start: seg.Start, End: os, State: seg.State, Reasons: seg.Reasons, ActiveSatelliteSet: seg.ActiveSatelliteSet})
	}
	overlapStart, overlapEnd := maxTime(os, seg.Start), minTime(oe, seg.End)
	out = append(out, model.TransportInterval{
		Start: overlapStart, End: overlapEnd, State: model.Offline, Reasons: []string{"ka_outage"},
	})
	if oe.Before(seg.End) {
		out = append(out, model.TransportInterval{Start: oe, End: seg.End, State: seg.State, Reasons: seg.Reasons, ActiveSatelliteSet: seg.ActiveSatelliteSet})
	}
	return out
}

// handoffMicroDegradations marks a handoffDegradationS-duration DEGRADED
// burst centered at each covering-set crossing (spec §4.4 step 4, §4.2 "Ka
// transition rule").
func (b *Builder) handoffMicroDegradations(samples []sample, handoffS int) []model.TransportInterval {
	half := time.Duration(handoffS) * time.Second / 2
	var out []model.TransportInterval
	for i := 0; i+1 < len(samples); i++ {
		cur, next := samples[i].covering, samples[i+1].covering
		if len(cur) == 0 || len(next) == 0 {
			continue
		}
		if coverage.Disjoint(cur, next) {
			mid := samples[i].t.Add(samples[i+1].t.Sub(samples[i].t) / 2)
			out = append(out, snap(model.TransportInterval{
				Start: mid.Add(-half), End: mid.Add(half), State: model.Degraded, Reasons: []string{"ka_handoff"},
			}))
		}
	}
	return out
}

func snap(iv model.TransportInterval) model.TransportInterval {
	iv.Start = iv.Start.Truncate(time.Second)
	iv.End = iv.End.Truncate(time.Second)
	return iv
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// mergeOverlayingHandoffs overlays handoff bursts on top of base using
// max-severity composition, consistent with the "maximum of contributing
// intervals" rule applied across the whole module (spec §4.3 step 5,
// reused here for Ka's own overlay).
func mergeOverlayingHandoffs(base, handoffs []model.TransportInterval) []model.TransportInterval {
	if len(handoffs) == 0 {
		return base
	}
	all := append(append([]model.TransportInterval{}, base...), handoffs...)
	sort.Slice(all, func(i, j int) bool { return all[i].Start.Before(all[j].Start) })

	breakSet := map[int64]bool{}
	var times []time.Time
	addTime := func(t time.Time) {
		k := t.UnixNano()
		if !breakSet[k] {
			breakSet[k] = true
			times = append(times, t)
		}
	}
	for _, iv := range all {
		addTime(iv.Start)
		addTime(iv.End)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	var out []model.TransportInterval
	for i := 0; i+1 < len(times); i++ {
		t, next := times[i], times[i+1]
		state := model.Available
		var reasons []string
		var activeSet []string
		seen := map[string]bool{}
		for _, iv := range all {
			if !iv.Start.After(t) && iv.End.After(t) {
				state = model.MaxState(state, iv.State)
				for _, r := range iv.Reasons {
					if !seen[r] {
						seen[r] = true
						reasons = append(reasons, r)
					}
				}
				if iv.ActiveSatelliteSet != nil {
					activeSet = iv.ActiveSatelliteSet
				}
			}
		}
		sort.Strings(reasons)
		out = append(out, model.TransportInterval{Start: t, End: next, State: state, Reasons: reasons, ActiveSatelliteSet: activeSet})
	}
	return out
}

func coalesce(intervals []model.TransportInterval) []model.TransportInterval {
	if len(intervals) == 0 {
		return intervals
	}
	var out []model.TransportInterval
	cur := intervals[0]
	for _, iv := range intervals[1:] {
		if cur.State == iv.State && sameStrSlice(cur.Reasons, iv.Reasons) && sameStrSlice(cur.ActiveSatelliteSet, iv.ActiveSatelliteSet) {
			cur.End = iv.End
			continue
		}
		out = append(out, cur)
		cur = iv
	}
	out = append(out, cur)
	return out
}

func sameStrSlice(a, b []string) bool {
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
