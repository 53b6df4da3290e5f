package main

import (
	"time"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/xtransport"
)

// waypointResolver adapts a model.Route's named waypoints to
// xtransport.WaypointResolver.
func waypointResolver(rt model.Route) xtransport.WaypointResolver {
	byName := make(map[string]model.Waypoint, len(rt.Waypoints))
	for _, wp := range rt.Waypoints {
		byName[wp.Name] = wp
	}
	return func(name string) (int, time.Time, bool) {
		wp, ok := byName[name]
		if !ok || wp.ExpectedArrival == nil {
			return 0, time.Time{}, false
		}
		return wp.PointIndex, *wp.ExpectedArrival, true
	}
}

// dropOrphanedAARWindows removes AAR windows whose start or end waypoint
// name no longer exists on rt, returning the surviving windows plus a
// warning per dropped window (spec §6 "Replace route... removes those whose
// referenced waypoints no longer exist, returning them in a warnings[]
// array").
func dropOrphanedAARWindows(rt model.Route, windows []model.AARWindow) (kept []model.AARWindow, warnings []string) {
	names := make(map[string]bool, len(rt.Waypoints))
	for _, wp := range rt.Waypoints {
		names[wp.Name] = true
	}
	for _, w := range windows {
		if names[w.StartWaypointName] && names[w.EndWaypointName] {
			kept = append(kept, w)
			continue
		}
		warnings = append(warnings, "AAR window "+w.StartWaypointName+"->"+w.EndWaypointName+" dropped: waypoint no longer exists on replacement route")
	}
	return kept, warnings
}
