package coordinator

import (
	"context"
	"time"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/route"
)

// SetRoute replaces the active route for this leg and recomputes the
// timeline synchronously before returning (spec §5: "the API returns only
// after the new snapshot has been published"; spec §6 "Replace route").
// Any AAR window naming a waypoint absent from the new route is dropped
// from cfg by the caller before invoking SetRoute — this method does not
// silently drop AAR windows itself.
func (c *Coordinator) SetRoute(ctx context.Context, rt model.Route) error {
	c.mu.Lock()
	snap := c.Snapshot()
	proj, err := route.New(&rt, snap.Config.DepartureDelta(rt.Timing.DepartureTime))
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.proj = proj
	c.mu.Unlock()

	c.publish(func(s *Snapshot) { s.Route = rt })
	c.recomputeOnce(ctx)
	return nil
}

// SetLegConfig replaces the active transport config for this leg and
// recomputes synchronously (spec §6 "Update leg config").
func (c *Coordinator) SetLegConfig(ctx context.Context, cfg model.TransportConfig) error {
	c.mu.Lock()
	snap := c.Snapshot()
	proj, err := route.New(&snap.Route, cfg.DepartureDelta(snap.Route.Timing.DepartureTime))
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.proj = proj
	c.mu.Unlock()

	c.publish(func(s *Snapshot) { s.Config = cfg })
	c.recomputeOnce(ctx)
	return nil
}

// Depart forces an early transition to IN_FLIGHT (spec §4.8 "flight status
// override: depart").
func (c *Coordinator) Depart(ctx context.Context, now time.Time) error {
	c.mu.Lock()
	event := c.phase.Depart(now)
	phase := c.phase.Phase()
	c.mu.Unlock()
	c.publish(func(s *Snapshot) { s.Phase = phase })
	if event != nil {
		c.recomputeOnce(ctx)
	}
	return nil
}

// Arrive forces an early transition to POST_ARRIVAL (spec §4.8 "flight
// status override: arrive").
func (c *Coordinator) Arrive(ctx context.Context, now time.Time) error {
	c.mu.Lock()
	event := c.phase.Arrive(now)
	phase := c.phase.Phase()
	c.mu.Unlock()
	c.publish(func(s *Snapshot) { s.Phase = phase })
	if event != nil {
		c.recomputeOnce(ctx)
	}
	return nil
}

// ResetPhase clears any override and returns the phase state machine to its
// dwell-gated automatic behavior (spec §4.8 "flight status override:
// reset").
func (c *Coordinator) ResetPhase(ctx context.Context) error {
	c.mu.Lock()
	event := c.phase.Reset()
	phase := c.phase.Phase()
	c.mu.Unlock()
	c.publish(func(s *Snapshot) { s.Phase = phase })
	if event != nil {
		c.recomputeOnce(ctx)
	}
	return nil
}
