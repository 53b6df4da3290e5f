// Package metricssink implements the Metrics Sink collaborator (spec §6):
// set_gauge(name, value, labels) / inc_counter(name, labels), with a
// Prometheus-backed default implementation and an InfluxDB line-protocol
// alternate for long-term mission telemetry history.
package metricssink

// Sink is the narrow interface the Coordinator's tick loop depends on
// (spec §6 "Metrics sink").
type Sink interface {
	SetGauge(name string, value float64, labels map[string]string)
	IncCounter(name string, labels map[string]string)
	Close() error
}

// Gauge names published on every tick (spec §6, names are exemplary there —
// these are the concrete names this implementation uses).
const (
	GaugeLatitude          = "dish_latitude_degrees"
	GaugeLongitude         = "dish_longitude_degrees"
	GaugeAltitude          = "dish_altitude_meters"
	GaugeSpeedKnots        = "dish_speed_knots"
	GaugeHeadingDegrees    = "dish_heading_degrees"
	GaugePhase             = "mission_flight_phase" // 0=PRE_DEPARTURE, 1=IN_FLIGHT, 2=POST_ARRIVAL
	GaugeETAPOISeconds     = "eta_poi_seconds"
	GaugeDistanceToPOI     = "distance_to_poi_meters"
	GaugeRouteProgressPct  = "route_progress_percent"
	GaugeDistanceToWpt     = "distance_to_waypoint_meters"
	GaugeMissionStatus     = "mission_status" // 0=AVAILABLE, 1=DEGRADED, 2=OFFLINE, per transport label
	GaugeNextConflictSecs  = "mission_next_conflict_seconds"
	GaugeSegmentTotalsSecs = "mission_segment_totals_seconds"
)
