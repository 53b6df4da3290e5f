package coordinator

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/flightphase"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/geo"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/metricssink"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/route"
)

// Run drives the 1 Hz tick loop (spec §4.9 step 1-4, §6 "tick_interval_ms"):
// ingest position, advance the flight-phase state machine, publish a fresh
// snapshot with updated gauges, and request a recompute when the phase
// transitions. Run blocks until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context, interval time.Duration) {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "position-source:" + c.legID,
		Timeout: 30 * time.Second,
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx, breaker)
		}
	}
}

func (c *Coordinator) tick(ctx context.Context, breaker *gobreaker.CircuitBreaker) {
	res, err := breaker.Execute(func() (interface{}, error) {
		lat, lon, alt, ts, err := c.source.NextPosition(ctx)
		if err != nil {
			return nil, err
		}
		return positionSample{geo.Point{Lat: lat, Lon: lon}, alt, ts}, nil
	})
	if err != nil {
		c.log.Warnw("tick: position source unavailable", "leg_id", c.legID, "error", err)
		return
	}
	sample := res.(positionSample)

	snap := c.Snapshot()
	distToLastWpt := distanceToLastWaypoint(snap.Route, sample.pos)

	var speedKn float64
	c.mu.Lock()
	speedKn = c.phase.SmoothedSpeedKn()
	prevPhase := c.phase.Phase()
	event := c.phase.Tick(sample.ts, instantaneousSpeedKn(snap.Position, sample.pos, snap.UpdatedAt, sample.ts), distToLastWpt)
	newPhase := c.phase.Phase()
	proj := c.proj
	c.mu.Unlock()

	heading := headingBetween(snap.Position, sample.pos)

	c.publish(func(s *Snapshot) {
		s.Position = sample.pos
		s.AltM = sample.alt
		s.HeadingDeg = heading
		s.SpeedKn = speedKn
		s.Phase = newPhase
	})

	c.emitGauges(sample, speedKn, heading, newPhase, snap.Route, snap.Timeline, proj)

	if event != nil || newPhase != prevPhase {
		c.RequestRecompute()
	}
}

type positionSample struct {
	pos geo.Point
	alt float64
	ts  time.Time
}

// emitGauges publishes the full per-tick gauge taxonomy (spec §4.9 step 3,
// §6): position/speed/heading/phase, route progress and distance/ETA to
// the next waypoint and to each configured POI, per-transport state as
// 0/1/2, and the current timeline's next-degradation and per-status
// segment totals.
func (c *Coordinator) emitGauges(sample positionSample, speedKn, heading float64, phase model.FlightPhase, rt model.Route, tl model.Timeline, proj *route.Projector) {
	labels := map[string]string{"leg_id": c.legID}
	c.sink.SetGauge(metricssink.GaugeLatitude, sample.pos.Lat, labels)
	c.sink.SetGauge(metricssink.GaugeLongitude, sample.pos.Lon, labels)
	c.sink.SetGauge(metricssink.GaugeAltitude, sample.alt, labels)
	c.sink.SetGauge(metricssink.GaugeSpeedKnots, speedKn, labels)
	c.sink.SetGauge(metricssink.GaugeHeadingDegrees, heading, labels)
	c.sink.SetGauge(metricssink.GaugePhase, float64(phase), labels)

	if proj == nil {
		return
	}

	outcome := proj.Project(sample.pos)
	progressPct := routeProgressPercent(proj, outcome)
	c.sink.SetGauge(metricssink.GaugeRouteProgressPct, progressPct, labels)

	if wpt, ok := nextNamedWaypoint(rt, outcome.WaypointIndex); ok {
		wptLabels := map[string]string{"leg_id": c.legID, "waypoint": wpt.Name}
		wptPos := geo.Point{Lat: rt.Points[wpt.PointIndex].Lat, Lon: rt.Points[wpt.PointIndex].Lon}
		c.sink.SetGauge(metricssink.GaugeDistanceToWpt, geo.HaversineDistance(sample.pos, wptPos), wptLabels)
	}

	now := sample.ts
	currentProgressM := proj.DistanceAlongRoute(outcome.WaypointIndex, outcome.Progress)
	for _, poi := range rt.POIs {
		result := flightphase.ComputePOIETA(now, phase, proj, poi, sample.pos, heading, currentProgressM, speedKn, c.phaseCfg)
		poiLabels := map[string]string{"leg_id": c.legID, "poi_id": poi.ID}
		c.sink.SetGauge(metricssink.GaugeETAPOISeconds, result.ETASeconds, poiLabels)
		c.sink.SetGauge(metricssink.GaugeDistanceToPOI, result.DistanceM, poiLabels)
	}

	emitTransportStateGauges(c.sink, c.legID, now, tl)
	emitSegmentTotalsGauges(c.sink, c.legID, tl)
}

// emitTransportStateGauges publishes mission_status{transport} as the 0/1/2
// TransportState encoding for the segment containing now, and
// mission_next_conflict_seconds as the time until the next non-nominal
// segment begins (spec §6).
func emitTransportStateGauges(sink metricssink.Sink, legID string, now time.Time, tl model.Timeline) {
	idx, ok := segmentAt(tl, now)
	if !ok {
		return
	}
	seg := tl.Segments[idx]
	sink.SetGauge(metricssink.GaugeMissionStatus, float64(seg.XState), map[string]string{"leg_id": legID, "transport": "x"})
	sink.SetGauge(metricssink.GaugeMissionStatus, float64(seg.KaState), map[string]string{"leg_id": legID, "transport": "ka"})
	sink.SetGauge(metricssink.GaugeMissionStatus, float64(seg.KuState), map[string]string{"leg_id": legID, "transport": "ku"})

	for i := idx; i < len(tl.Segments); i++ {
		if tl.Segments[i].Status != model.Nominal {
			labels := map[string]string{"leg_id": legID}
			if tl.Segments[i].Start.After(now) {
				sink.SetGauge(metricssink.GaugeNextConflictSecs, tl.Segments[i].Start.Sub(now).Seconds(), labels)
			} else {
				sink.SetGauge(metricssink.GaugeNextConflictSecs, 0, labels)
			}
			return
		}
	}
}

// emitSegmentTotalsGauges publishes the total seconds the mission spends in
// each TimelineStatus across the full timeline, labeled by status.
func emitSegmentTotalsGauges(sink metricssink.Sink, legID string, tl model.Timeline) {
	totals := map[model.TimelineStatus]time.Duration{}
	for _, seg := range tl.Segments {
		totals[seg.Status] += seg.End.Sub(seg.Start)
	}
	for status, d := range totals {
		sink.SetGauge(metricssink.GaugeSegmentTotalsSecs, d.Seconds(), map[string]string{"leg_id": legID, "status": status.String()})
	}
}

// segmentAt finds the index of the timeline segment containing t, or the
// final segment if t is past the mission end.
func segmentAt(tl model.Timeline, t time.Time) (int, bool) {
	if len(tl.Segments) == 0 {
		return 0, false
	}
	for i, seg := range tl.Segments {
		if !t.Before(seg.Start) && t.Before(seg.End) {
			return i, true
		}
	}
	if !t.Before(tl.Segments[len(tl.Segments)-1].End) {
		return len(tl.Segments) - 1, true
	}
	return 0, false
}

// routeProgressPercent is the platform's own along-route progress, using
// the same distance-along-route/total-distance ratio ComputePOIETA uses
// for a POI's progress percent.
func routeProgressPercent(proj *route.Projector, outcome route.ProjectionOutcome) float64 {
	total := proj.TotalDistance()
	if total <= 0 {
		return 0
	}
	return proj.DistanceAlongRoute(outcome.WaypointIndex, outcome.Progress) / total * 100
}

// nextNamedWaypoint returns the first named waypoint at or after
// fromSegmentIdx, i.e. the next waypoint still ahead of the platform.
func nextNamedWaypoint(rt model.Route, fromSegmentIdx int) (model.Waypoint, bool) {
	best := -1
	for i, wpt := range rt.Waypoints {
		if wpt.PointIndex >= fromSegmentIdx && (best == -1 || wpt.PointIndex < rt.Waypoints[best].PointIndex) {
			best = i
		}
	}
	if best == -1 {
		return model.Waypoint{}, false
	}
	return rt.Waypoints[best], true
}

func distanceToLastWaypoint(rt model.Route, pos geo.Point) float64 {
	if len(rt.Points) == 0 {
		return 0
	}
	last := rt.Points[len(rt.Points)-1]
	return geo.HaversineDistance(pos, geo.Point{Lat: last.Lat, Lon: last.Lon})
}

func instantaneousSpeedKn(prev, cur geo.Point, prevT, curT time.Time) float64 {
	dt := curT.Sub(prevT).Seconds()
	if dt <= 0 || (prev.Lat == 0 && prev.Lon == 0) {
		return 0
	}
	distM := geo.HaversineDistance(prev, cur)
	mps := distM / dt
	return mps / 0.514444
}

func headingBetween(prev, cur geo.Point) float64 {
	if prev.Lat == 0 && prev.Lon == 0 {
		return 0
	}
	return geo.InitialBearing(prev, cur)
}
