package merger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

func at(minutes int) time.Time {
	return time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
}

// S1: all three transports AVAILABLE for the whole mission collapses to a
// single NOMINAL segment.
func TestMerge_AllNominal(t *testing.T) {
	start, end := at(0), at(60)
	x := []model.TransportInterval{{Start: start, End: end, State: model.Available}}
	ka := []model.TransportInterval{{Start: start, End: end, State: model.Available}}
	ku := []model.TransportInterval{{Start: start, End: end, State: model.Available}}

	result := Merge(start, end, x, ka, ku)

	require.Len(t, result.Segments, 1)
	seg := result.Segments[0]
	assert.Equal(t, model.Nominal, seg.Status)
	assert.Empty(t, seg.ImpactedTransports)
	assert.Empty(t, seg.Reasons)
	assert.Equal(t, start, seg.Start)
	assert.Equal(t, end, seg.End)
}

// S2: a single X handoff window produces a DEGRADED segment bracketed by
// NOMINAL segments, with Ka/Ku unaffected.
func TestMerge_SingleXHandoff(t *testing.T) {
	start, end := at(0), at(60)
	x := []model.TransportInterval{
		{Start: start, End: at(20), State: model.Available},
		{Start: at(20), End: at(30), State: model.Degraded, Reasons: []string{"x_transition"}},
		{Start: at(30), End: end, State: model.Available},
	}
	ka := []model.TransportInterval{{Start: start, End: end, State: model.Available}}
	ku := []model.TransportInterval{{Start: start, End: end, State: model.Available}}

	result := Merge(start, end, x, ka, ku)

	require.Len(t, result.Segments, 3)
	assert.Equal(t, model.Nominal, result.Segments[0].Status)
	assert.Equal(t, model.StatusDegraded, result.Segments[1].Status)
	assert.Equal(t, []model.Transport{model.TransportX}, result.Segments[1].ImpactedTransports)
	assert.Equal(t, []string{"x_transition"}, result.Segments[1].Reasons)
	assert.Equal(t, model.Nominal, result.Segments[2].Status)
}

// S3: an overlapping Ka outage and X handoff produces a CRITICAL segment
// whose reasons union both causes, sorted.
func TestMerge_OverlappingKaOutageAndXHandoff(t *testing.T) {
	start, end := at(0), at(60)
	x := []model.TransportInterval{
		{Start: start, End: at(20), State: model.Available},
		{Start: at(20), End: at(40), State: model.Degraded, Reasons: []string{"x_transition"}},
		{Start: at(40), End: end, State: model.Available},
	}
	ka := []model.TransportInterval{
		{Start: start, End: at(25), State: model.Available},
		{Start: at(25), End: at(35), State: model.Offline, Reasons: []string{"ka_outage"}},
		{Start: at(35), End: end, State: model.Available},
	}
	ku := []model.TransportInterval{{Start: start, End: end, State: model.Available}}

	result := Merge(start, end, x, ka, ku)

	var critical *model.TimelineSegment
	for i := range result.Segments {
		if result.Segments[i].Status == model.Critical {
			critical = &result.Segments[i]
			break
		}
	}
	require.NotNil(t, critical, "expected a CRITICAL segment in %+v", result.Segments)
	assert.Equal(t, []string{"ka_outage", "x_transition"}, critical.Reasons)
	assert.ElementsMatch(t, []model.Transport{model.TransportX, model.TransportKa}, critical.ImpactedTransports)
	assert.Equal(t, at(25), critical.Start)
	assert.Equal(t, at(35), critical.End)
}

func TestMerge_EmptyMissionProducesNoSegments(t *testing.T) {
	start := at(0)
	result := Merge(start, start, nil, nil, nil)
	assert.Empty(t, result.Segments)
}

func TestAntiCorrelationDowngrade(t *testing.T) {
	seg := model.TimelineSegment{
		XState:  model.Degraded,
		KaState: model.Available,
		KuState: model.Available,
		Reasons: []string{"azimuth_conflict"},
	}
	assert.True(t, AntiCorrelationDowngrade(seg))

	segWithOtherReason := seg
	segWithOtherReason.Reasons = []string{"azimuth_conflict", "x_transition"}
	assert.False(t, AntiCorrelationDowngrade(segWithOtherReason))

	segKaDown := seg
	segKaDown.KaState = model.Degraded
	assert.False(t, AntiCorrelationDowngrade(segKaDown))

	// xtransport emits azimuth_conflict as OFFLINE, not DEGRADED (spec §4.3
	// step 4) — this is the case that actually fires in practice.
	segOffline := seg
	segOffline.XState = model.Offline
	assert.True(t, AntiCorrelationDowngrade(segOffline))
}
