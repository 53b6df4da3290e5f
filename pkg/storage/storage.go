// Package storage defines the Storage collaborator (spec §6): load/save
// routes, leg configs, and timelines. Timelines are persisted only on
// explicit save; preview computations never touch storage.
package storage

import (
	"context"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

// RouteStore persists Route documents keyed by id.
type RouteStore interface {
	LoadRoute(ctx context.Context, id string) (model.Route, error)
	SaveRoute(ctx context.Context, route model.Route) error
	DeleteRoute(ctx context.Context, id string) error
}

// LegConfigStore persists per-leg TransportConfig documents keyed by
// leg id.
type LegConfigStore interface {
	LoadLegConfig(ctx context.Context, legID string) (model.TransportConfig, error)
	SaveLegConfig(ctx context.Context, legID string, cfg model.TransportConfig) error
}

// TimelineStore persists computed Timeline documents keyed by leg id, for
// archival and the next-startup "last good snapshot" (spec §7 propagation
// policy: a failed recomputation must not evict what was last saved).
type TimelineStore interface {
	LoadTimeline(ctx context.Context, legID string) (model.Timeline, error)
	SaveTimeline(ctx context.Context, legID string, timeline model.Timeline) error
}

// Store composes the three collaborator interfaces the Coordinator depends
// on (spec §6).
type Store interface {
	RouteStore
	LegConfigStore
	TimelineStore
}
