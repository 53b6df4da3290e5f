// Package coordinator implements the Coordinator/Scheduler (spec §4.9,
// §5): it owns the single mutable view of
// {active_route, active_mission_leg_config, current_position, current_speed,
// phase_state, last_timeline}, drives a periodic tick, and serializes
// timeline recomputation with cooperative cancellation.
//
// Grounded directly on the teacher's src/rtksvr.go RtkSvr struct: a
// mutex-guarded shared-state struct, a cycle-driven server thread
// (rtksvrthread), and Lock/Unlock helper methods gating every reader and
// writer — the clearest structural match anywhere in the retrieval pack.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/advisory"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/errs"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/flightphase"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/geo"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/logging"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/merger"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/metricssink"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/route"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/storage"
)

// PositionSource is the Position Source collaborator (spec §6):
// next_position() → {lat, lon, alt, timestamp}. Implementations must
// reject non-monotonic timestamps by returning an error; the Coordinator
// does not re-validate monotonicity itself.
type PositionSource interface {
	NextPosition(ctx context.Context) (lat, lon, altM float64, ts time.Time, err error)
}

// Snapshot is the Coordinator's immutable published view (spec §5: readers
// take the RWMutex only long enough to copy this pointer; no torn reads).
type Snapshot struct {
	LegID      string
	Route      model.Route
	Config     model.TransportConfig
	Timeline   model.Timeline
	Phase      model.FlightPhase
	Position   geo.Point
	AltM       float64
	SpeedKn    float64
	HeadingDeg float64
	UpdatedAt  time.Time
}

// BuilderFactory constructs the three per-transport builders for the
// current route/config pair. The Coordinator depends on this indirection
// rather than concrete builder types so recomputation can be driven purely
// off the narrow interfaces merger.Recompute expects.
type BuilderFactory func(rt model.Route, cfg model.TransportConfig, proj *route.Projector) (merger.XBuilder, merger.KaBuilder, merger.KuBuilder, error)

// Coordinator is the single per-leg scheduling/ownership object (spec
// §4.9). One Coordinator instance exists per mission leg; different legs
// recompute concurrently and independently (spec §5 "serialized per
// leg_id").
type Coordinator struct {
	legID   string
	builder BuilderFactory
	source  PositionSource
	store   storage.Store
	sink    metricssink.Sink
	log     logging.Logger

	phase    *flightphase.Engine
	phaseCfg flightphase.Config

	snapMu sync.RWMutex
	snap   *Snapshot

	mu        sync.Mutex // guards the fields below, serializing mutations
	proj      *route.Projector
	cancelMu  sync.Mutex
	cancelCur context.CancelFunc

	jobs chan struct{} // depth-1 latest-wins recompute trigger
}

// New builds a Coordinator for one mission leg, starting from an initial
// route/config pair.
func New(legID string, rt model.Route, cfg model.TransportConfig, builder BuilderFactory, source PositionSource, store storage.Store, sink metricssink.Sink, phaseCfg flightphase.Config, log logging.Logger) (*Coordinator, error) {
	proj, err := route.New(&rt, cfg.DepartureDelta(rt.Timing.DepartureTime))
	if err != nil {
		return nil, err
	}
	c := &Coordinator{
		legID:    legID,
		builder:  builder,
		source:   source,
		store:    store,
		sink:     sink,
		log:      log,
		phase:    flightphase.New(phaseCfg),
		phaseCfg: phaseCfg,
		proj:     proj,
		jobs:     make(chan struct{}, 1),
	}
	c.snap = &Snapshot{LegID: legID, Route: rt, Config: cfg, Phase: c.phase.Phase()}
	return c, nil
}

// Snapshot returns the current published snapshot. Safe for concurrent use
// by any number of readers; never blocks on recomputation.
func (c *Coordinator) Snapshot() *Snapshot {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snap
}

func (c *Coordinator) publish(mutate func(*Snapshot)) {
	c.snapMu.Lock()
	defer c.snapMu.Unlock()
	next := *c.snap
	mutate(&next)
	next.UpdatedAt = time.Now().UTC()
	c.snap = &next
}

// RequestRecompute enqueues a recomputation trigger with latest-wins
// semantics (spec §4.9 step 4, §5): if a job is already queued it is
// replaced rather than queued twice; an in-flight recomputation is
// cancelled cooperatively so the newest trigger always wins.
func (c *Coordinator) RequestRecompute() {
	c.cancelMu.Lock()
	if c.cancelCur != nil {
		c.cancelCur()
	}
	c.cancelMu.Unlock()

	select {
	case c.jobs <- struct{}{}:
	default:
		select {
		case <-c.jobs:
		default:
		}
		select {
		case c.jobs <- struct{}{}:
		default:
		}
	}
}

// RunRecomputeWorker processes recompute triggers until ctx is cancelled.
// Intended to run on its own goroutine, off the tick path (spec §5
// "timeline recomputation runs on a background worker").
func (c *Coordinator) RunRecomputeWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.jobs:
			c.recomputeOnce(ctx)
		}
	}
}

func (c *Coordinator) recomputeOnce(parent context.Context) {
	jobCtx, cancel := context.WithCancel(parent)
	c.cancelMu.Lock()
	c.cancelCur = cancel
	c.cancelMu.Unlock()
	defer cancel()

	c.mu.Lock()
	snap := c.Snapshot()
	rt, cfg, proj := snap.Route, snap.Config, c.proj
	c.mu.Unlock()

	xb, kab, kub, err := c.builder(rt, cfg, proj)
	if err != nil {
		c.log.Errorw("recompute: builder factory failed", "leg_id", c.legID, "error", err)
		return
	}

	missionStart, missionEnd := rt.Timing.DepartureTime, rt.Timing.ArrivalTime
	if missionStart == nil || missionEnd == nil {
		c.log.Warnw("recompute: route has no timing data, skipping", "leg_id", c.legID)
		return
	}

	result, err := merger.Recompute(jobCtx, *missionStart, *missionEnd, xb, kab, kub)
	if err != nil {
		// A cancelled or failed recomputation leaves the prior good
		// snapshot untouched (spec §7 propagation policy).
		if jobCtx.Err() == nil {
			c.log.Errorw("recompute failed, retaining prior snapshot", "leg_id", c.legID, "error", err)
		}
		return
	}

	advisories := advisory.Generate(result.Segments)
	timeline := model.Timeline{
		LegID:        c.legID,
		MissionStart: *missionStart,
		MissionEnd:   *missionEnd,
		Segments:     result.Segments,
		Advisories:   advisories,
	}

	c.publish(func(s *Snapshot) { s.Timeline = timeline })
}

// Preview computes a timeline for the given route/config pair without
// publishing it or touching storage (spec §6 "Preview timeline... does not
// persist"; spec §7 "Preview never mutates persistent state even on
// success"). Concurrent identical preview requests are collapsed by the
// caller via golang.org/x/sync/singleflight (see preview.go).
func (c *Coordinator) Preview(ctx context.Context, rt model.Route, cfg model.TransportConfig) (model.Timeline, error) {
	proj, err := route.New(&rt, cfg.DepartureDelta(rt.Timing.DepartureTime))
	if err != nil {
		return model.Timeline{}, err
	}
	if !rt.Timing.HasTimingData {
		return model.Timeline{}, errs.InvalidInput("coordinator.Preview", "route %s has no timing data", rt.ID)
	}
	xb, kab, kub, err := c.builder(rt, cfg, proj)
	if err != nil {
		return model.Timeline{}, err
	}
	result, err := merger.Recompute(ctx, *rt.Timing.DepartureTime, *rt.Timing.ArrivalTime, xb, kab, kub)
	if err != nil {
		return model.Timeline{}, err
	}
	return model.Timeline{
		LegID:        c.legID,
		MissionStart: *rt.Timing.DepartureTime,
		MissionEnd:   *rt.Timing.ArrivalTime,
		Segments:     result.Segments,
		Advisories:   advisory.Generate(result.Segments),
	}, nil
}
