package main

import (
	"context"
	"sync"
	"time"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/coordinator"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/errs"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/flightphase"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/logging"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/metricssink"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/storage"
)

// registry owns one Coordinator per mission leg (spec §5: "different legs
// may recompute concurrently" — each leg gets its own Coordinator instance
// and its own serialization domain; the registry itself only guards the
// map of which legs exist).
type registry struct {
	mu     sync.Mutex
	coords map[string]*coordinator.Coordinator

	store        storage.Store
	sink         metricssink.Sink
	log          logging.Logger
	phaseCfg     flightphase.Config
	builderFac   coordinator.BuilderFactory
	source       coordinator.PositionSource
	tickInterval time.Duration

	runCtx context.Context
}

func newRegistry(runCtx context.Context, store storage.Store, sink metricssink.Sink, log logging.Logger, phaseCfg flightphase.Config, builderFac coordinator.BuilderFactory, source coordinator.PositionSource, tickInterval time.Duration) *registry {
	return &registry{
		coords:       make(map[string]*coordinator.Coordinator),
		store:        store,
		sink:         sink,
		log:          log,
		phaseCfg:     phaseCfg,
		builderFac:   builderFac,
		source:       source,
		tickInterval: tickInterval,
		runCtx:       runCtx,
	}
}

// getOrCreate returns the Coordinator for legID, constructing one and
// launching its tick + recompute-worker goroutines on first use.
func (r *registry) getOrCreate(legID string, rt model.Route, cfg model.TransportConfig) (*coordinator.Coordinator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.coords[legID]; ok {
		return c, nil
	}
	c, err := coordinator.New(legID, rt, cfg, r.builderFac, r.source, r.store, r.sink, r.phaseCfg, r.log.Named(legID))
	if err != nil {
		return nil, err
	}
	r.coords[legID] = c
	go c.Run(r.runCtx, r.tickInterval)
	go c.RunRecomputeWorker(r.runCtx)
	return c, nil
}

func (r *registry) get(legID string) (*coordinator.Coordinator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coords[legID]
	if !ok {
		return nil, errs.NotFound("registry.get", "leg %s has not been initialized", legID)
	}
	return c, nil
}
