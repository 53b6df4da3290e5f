package model

import "time"

// TransportInterval is one maximal constant-state interval produced by a
// single per-transport builder, before merging (spec §4.3-§4.5).
type TransportInterval struct {
	Start, End time.Time // half-open [Start, End)
	State      TransportState
	Reasons    []string
	// ActiveSatelliteID is the active X satellite, or empty for Ka/Ku.
	ActiveSatelliteID string
	// ActiveSatelliteSet is the covering Ka satellite set, or nil for X/Ku.
	ActiveSatelliteSet []string
}

// SegmentMetadata carries the active-satellite bookkeeping a segment was
// computed with (spec §3).
type SegmentMetadata struct {
	ActiveXSatellite string
	ActiveKaSet      []string
}

// TimelineSegment is a maximal half-open interval with constant per-transport
// state (spec §3).
type TimelineSegment struct {
	Start, End          time.Time
	XState              TransportState
	KaState             TransportState
	KuState             TransportState
	Status              TimelineStatus
	ImpactedTransports  []Transport
	Reasons             []string
	Metadata            SegmentMetadata
}

// coalesceKey returns the tuple that two adjacent segments must differ in to
// avoid being coalesced (spec §3, §4.6 step 4).
func (s TimelineSegment) coalesceKey() string {
	return s.XState.String() + "|" + s.KaState.String() + "|" + s.KuState.String() + "|" +
		s.Metadata.ActiveXSatellite + "|" + join(s.Metadata.ActiveKaSet) + "|" + join(s.Reasons)
}

// SameLabels reports whether s and other carry identical labeled fields,
// i.e. whether they are eligible to be coalesced into one segment.
func (s TimelineSegment) SameLabels(other TimelineSegment) bool {
	return s.coalesceKey() == other.coalesceKey()
}

// join concatenates ss with commas; it does not sort. Safe for coalesceKey
// only because Reasons and ActiveKaSet are always produced in a stable
// order upstream.
func join(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}

// Timeline is the full, contiguous segmentation of mission time.
type Timeline struct {
	LegID        string
	MissionStart time.Time
	MissionEnd   time.Time
	Segments     []TimelineSegment
	Advisories   []TimelineAdvisory
}

// TimelineAdvisory is one derived event (spec §3).
type TimelineAdvisory struct {
	ID        string
	Timestamp time.Time
	EventType AdvisoryEventType
	Transport Transport
	Severity  AdvisorySeverity
	Message   string
	Metadata  map[string]string
}
