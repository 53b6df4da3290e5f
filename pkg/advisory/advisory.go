// Package advisory implements the Advisory Generator (spec §4.7): it walks
// a merged TimelineSegment series and emits TimelineAdvisory events at
// transition, coverage, outage, AAR, Ku override, azimuth conflict, and
// severity-change boundaries.
package advisory

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/merger"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

// reasonClass describes how a reason string maps onto an advisory event
// type pair. instantaneous reasons (x_transition, ka_handoff) fire the same
// event type on both entry and exit, always at info severity (spec §4.7:
// "x_transition with severity=info at enter, info at exit").
type reasonClass struct {
	begin         model.AdvisoryEventType
	end           model.AdvisoryEventType
	transport     model.Transport
	instantaneous bool
}

var reasonClasses = map[string]reasonClass{
	"x_transition":    {begin: model.EventXTransition, end: model.EventXTransition, transport: model.TransportX, instantaneous: true},
	"ka_handoff":      {begin: model.EventKaHandoff, end: model.EventKaHandoff, transport: model.TransportKa, instantaneous: true},
	"ka_no_coverage":  {begin: model.EventKaOutageBegin, end: model.EventKaOutageEnd, transport: model.TransportKa},
	"ka_outage":       {begin: model.EventKaOutageBegin, end: model.EventKaOutageEnd, transport: model.TransportKa},
	"aar_refuel":      {begin: model.EventAARBegin, end: model.EventAAREnd, transport: model.TransportX},
	"azimuth_conflict": {begin: model.EventAzimuthConflictBegin, end: model.EventAzimuthConflictEnd, transport: model.TransportX},
}

// unknownKuClass is the fallback classification for any reason string not
// recognized above — Ku overrides carry an operator-supplied free-text
// reason (spec.md §3 KuOverride.Reason), so it cannot be matched literally.
var unknownKuClass = reasonClass{begin: model.EventKuOverrideBegin, end: model.EventKuOverrideEnd, transport: model.TransportKu}

func classify(reason string) reasonClass {
	if c, ok := reasonClasses[reason]; ok {
		return c
	}
	return unknownKuClass
}

// idFunc generates advisory IDs; overridable in tests for determinism.
var idFunc = func() string { return uuid.New().String() }

// Generate derives the advisory series for a coalesced segment series
// (spec §4.7). Advisories are only emitted at boundaries between two
// adjacent segments — neither mission start nor mission end is itself a
// transition.
func Generate(segments []model.TimelineSegment) []model.TimelineAdvisory {
	var out []model.TimelineAdvisory

	for i := 0; i+1 < len(segments); i++ {
		prev, next := segments[i], segments[i+1]
		boundary := prev.End

		out = append(out, reasonAdvisories(boundary, prev, next)...)

		if prev.Status != next.Status {
			out = append(out, model.TimelineAdvisory{
				ID:        idFunc(),
				Timestamp: boundary,
				EventType: model.EventSeverityChange,
				Severity:  severityForStatus(higherStatus(prev.Status, next.Status)),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.EventType != b.EventType {
			return a.EventType < b.EventType
		}
		return a.Transport < b.Transport
	})
	return out
}

func reasonAdvisories(boundary time.Time, prev, next model.TimelineSegment) []model.TimelineAdvisory {
	prevSet := toSet(prev.Reasons)
	nextSet := toSet(next.Reasons)

	var out []model.TimelineAdvisory
	for reason := range union(prevSet, nextSet) {
		was, is := prevSet[reason], nextSet[reason]
		if was == is {
			continue
		}
		c := classify(reason)

		if c.instantaneous {
			out = append(out, model.TimelineAdvisory{
				ID:        idFunc(),
				Timestamp: boundary,
				EventType: c.begin,
				Transport: c.transport,
				Severity:  model.SeverityInfo,
			})
			continue
		}

		if !was && is {
			out = append(out, model.TimelineAdvisory{
				ID:        idFunc(),
				Timestamp: boundary,
				EventType: c.begin,
				Transport: c.transport,
				Severity:  beginSeverity(reason, c, next),
			})
		} else {
			out = append(out, model.TimelineAdvisory{
				ID:        idFunc(),
				Timestamp: boundary,
				EventType: c.end,
				Transport: c.transport,
				Severity:  model.SeverityInfo,
			})
		}
	}
	return out
}

// beginSeverity derives the severity a newly-begun reason should carry. The
// X-Ku anti-correlation rule (spec §4.6 step 3) downgrades an
// azimuth_conflict-only non-AVAILABLE (DEGRADED or OFFLINE) X segment to
// WARNING even though OFFLINE would otherwise map to CRITICAL.
func beginSeverity(reason string, c reasonClass, seg model.TimelineSegment) model.AdvisorySeverity {
	if reason == "azimuth_conflict" && merger.AntiCorrelationDowngrade(seg) {
		return model.SeverityWarning
	}
	state := stateForTransport(seg, c.transport)
	switch state {
	case model.Offline:
		return model.SeverityCritical
	case model.Degraded:
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}

func stateForTransport(seg model.TimelineSegment, t model.Transport) model.TransportState {
	switch t {
	case model.TransportX:
		return seg.XState
	case model.TransportKa:
		return seg.KaState
	case model.TransportKu:
		return seg.KuState
	default:
		return model.Available
	}
}

func higherStatus(a, b model.TimelineStatus) model.TimelineStatus {
	if a > b {
		return a
	}
	return b
}

func severityForStatus(s model.TimelineStatus) model.AdvisorySeverity {
	switch s {
	case model.Critical:
		return model.SeverityCritical
	case model.StatusDegraded:
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}

func toSet(reasons []string) map[string]bool {
	out := make(map[string]bool, len(reasons))
	for _, r := range reasons {
		out[r] = true
	}
	return out
}

func union(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool, len(a)+len(b))
	for r := range a {
		out[r] = true
	}
	for r := range b {
		out[r] = true
	}
	return out
}
