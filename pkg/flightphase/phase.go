// Package flightphase implements the Flight Phase & ETA Engine (spec §4.8):
// the PRE_DEPARTURE/IN_FLIGHT/POST_ARRIVAL state machine, ground-speed
// smoothing, ANTICIPATED/ESTIMATED ETA blending, POI ETA with course
// status, and the bounded LRU ETACache held by each Engine. ComputePOIETA
// computes every ETA afresh; it neither reads nor fills the cache.
package flightphase

import (
	"sync"
	"time"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

// Config holds the tunable thresholds for the phase state machine and ETA
// blending (spec §6 defaults).
type Config struct {
	DepartureThresholdKn float64
	DepartureDwellS      float64
	ArrivalRadiusM       float64
	ArrivalDwellS        float64
	ETABlendingAlpha     float64
	OnRouteToleranceM    float64
	ETACacheSize         int
}

// DefaultConfig returns the spec's §6 defaults.
func DefaultConfig() Config {
	return Config{
		DepartureThresholdKn: 40,
		DepartureDwellS:      5,
		ArrivalRadiusM:       100,
		ArrivalDwellS:        60,
		ETABlendingAlpha:     0.5,
		OnRouteToleranceM:    5000,
		ETACacheSize:         100,
	}
}

// PhaseChangeEvent records one phase state machine transition.
type PhaseChangeEvent struct {
	From model.FlightPhase
	To   model.FlightPhase
	At   time.Time
}

// Engine is the mutable per-leg flight phase tracker (spec §4.8). Every
// method holds its internal mutex (the cache has its own), so an Engine is
// safe for concurrent use; the Coordinator owns serialization of Tick calls
// per leg (spec §5 "Across legs... serialized per leg_id").
type Engine struct {
	cfg Config

	mu              sync.Mutex
	phase           model.FlightPhase
	actualDeparture *time.Time
	actualArrival   *time.Time
	speed           *SpeedSmoother
	departureSince  *time.Time
	arrivalSince    *time.Time

	cache *ETACache
}

// New builds an Engine in PRE_DEPARTURE with no recorded departure/arrival.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:   cfg,
		phase: model.PreDeparture,
		speed: NewSpeedSmoother(0),
		cache: NewETACache(cfg.ETACacheSize),
	}
}

// Phase returns the current flight phase.
func (e *Engine) Phase() model.FlightPhase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// ETAMode returns the ETA mode implied by the current phase.
func (e *Engine) ETAMode() model.ETAMode {
	return model.ETAModeForPhase(e.Phase())
}

// SmoothedSpeedKn returns the current exponentially smoothed ground speed.
func (e *Engine) SmoothedSpeedKn() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed.Value()
}

// Depart forces an explicit PRE_DEPARTURE -> IN_FLIGHT transition (spec §4.8
// "explicit depart()"), stamping actual_departure.
func (e *Engine) Depart(now time.Time) *PhaseChangeEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != model.PreDeparture {
		return nil
	}
	return e.transitionLocked(model.InFlight, now, &now, nil)
}

// Arrive forces an explicit IN_FLIGHT -> POST_ARRIVAL transition, stamping
// actual_arrival.
func (e *Engine) Arrive(now time.Time) *PhaseChangeEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != model.InFlight {
		return nil
	}
	return e.transitionLocked(model.PostArrival, now, nil, &now)
}

// Reset returns to PRE_DEPARTURE, clearing actual departure/arrival (spec
// §4.8: "explicit reset() or route deactivated").
func (e *Engine) Reset() *PhaseChangeEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	from := e.phase
	e.phase = model.PreDeparture
	e.actualDeparture = nil
	e.actualArrival = nil
	e.departureSince = nil
	e.arrivalSince = nil
	e.speed.Reset()
	e.cache.Clear()
	if from == model.PreDeparture {
		return nil
	}
	return &PhaseChangeEvent{From: from, To: model.PreDeparture, At: time.Now().UTC()}
}

func (e *Engine) transitionLocked(to model.FlightPhase, now time.Time, departure, arrival *time.Time) *PhaseChangeEvent {
	from := e.phase
	e.phase = to
	if departure != nil {
		e.actualDeparture = departure
	}
	if arrival != nil {
		e.actualArrival = arrival
	}
	e.departureSince = nil
	e.arrivalSince = nil
	e.cache.Clear()
	return &PhaseChangeEvent{From: from, To: to, At: now}
}

// Tick folds in one position/speed sample and evaluates dwell-gated
// automatic phase transitions (spec §4.8 phase state machine table).
// distanceToLastWaypointM is only consulted while IN_FLIGHT.
func (e *Engine) Tick(now time.Time, groundSpeedKn, distanceToLastWaypointM float64) *PhaseChangeEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	smoothed := e.speed.Add(now, groundSpeedKn)

	switch e.phase {
	case model.PreDeparture:
		if smoothed > e.cfg.DepartureThresholdKn {
			if e.departureSince == nil {
				t := now
				e.departureSince = &t
			}
			if now.Sub(*e.departureSince).Seconds() >= e.cfg.DepartureDwellS {
				return e.transitionLocked(model.InFlight, now, &now, nil)
			}
		} else {
			e.departureSince = nil
		}
	case model.InFlight:
		if distanceToLastWaypointM <= e.cfg.ArrivalRadiusM {
			if e.arrivalSince == nil {
				t := now
				e.arrivalSince = &t
			}
			if now.Sub(*e.arrivalSince).Seconds() >= e.cfg.ArrivalDwellS {
				return e.transitionLocked(model.PostArrival, now, nil, &now)
			}
		} else {
			e.arrivalSince = nil
		}
	case model.PostArrival:
		// Stays until an explicit Reset() or route deactivation.
	}
	return nil
}

// ActualDeparture and ActualArrival return the stamped wall-clock times, or
// nil if not yet reached.
func (e *Engine) ActualDeparture() *time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.actualDeparture
}

func (e *Engine) ActualArrival() *time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.actualArrival
}

// ClearCache drops all memoized ETA entries (spec §4.8 "Caching"). Phase
// transitions and Reset clear the cache on their own; a route version or
// adjusted departure change clears it only when a caller invokes ClearCache.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}
