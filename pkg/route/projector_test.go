package route_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/geo"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/route"
)

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func timePtr(t time.Time) *time.Time { return &t }

func simpleTimedRoute() model.Route {
	dep := mustTime("2025-10-27T16:45:00Z")
	arr := mustTime("2025-10-27T17:45:00Z")
	points := []model.RoutePoint{
		{Lat: 40.0, Lon: -73.0, Seq: 0, ExpectedArrival: timePtr(dep)},
		{Lat: 41.0, Lon: -72.0, Seq: 1, ExpectedArrival: timePtr(arr)},
	}
	return model.NewRoute("r1", points, nil)
}

func TestProjector_PositionAtTime_Midpoint(t *testing.T) {
	r := simpleTimedRoute()
	p, err := route.New(&r, 0)
	require.NoError(t, err)

	mid := mustTime("2025-10-27T17:15:00Z")
	pos, _, _, err := p.PositionAtTime(mid)
	require.NoError(t, err)
	require.InDelta(t, 40.5, pos.Lat, 0.01)
}

func TestProjector_TimeAdjustment_ShiftsQueries(t *testing.T) {
	r := simpleTimedRoute()
	delta := -40 * time.Minute
	p, err := route.New(&r, delta)
	require.NoError(t, err)

	shiftedMid := mustTime("2025-10-27T16:35:00Z")
	pos, _, _, err := p.PositionAtTime(shiftedMid)
	require.NoError(t, err)
	require.InDelta(t, 40.5, pos.Lat, 0.01)
}

func TestProjector_OutOfRangeTime(t *testing.T) {
	r := simpleTimedRoute()
	p, err := route.New(&r, 0)
	require.NoError(t, err)

	_, _, _, err = p.PositionAtTime(mustTime("2025-10-27T18:00:00Z"))
	require.Error(t, err)
}

func TestProjector_EmptyRoute(t *testing.T) {
	r := model.NewRoute("empty", []model.RoutePoint{{Lat: 0, Lon: 0, Seq: 0}}, nil)
	_, err := route.New(&r, 0)
	require.Error(t, err)
}

func TestProjector_Project_OnSegment(t *testing.T) {
	r := simpleTimedRoute()
	p, err := route.New(&r, 0)
	require.NoError(t, err)

	q := geo.Point{Lat: 40.5, Lon: -72.5}
	out := p.Project(q)
	require.Equal(t, 0, out.WaypointIndex)
	require.InDelta(t, 0.5, out.Progress, 0.05)
	require.NotNil(t, out.TimeAtProjection)
}

func TestProjector_IDLCrossing(t *testing.T) {
	dep := mustTime("2025-10-27T00:00:00Z")
	arr := mustTime("2025-10-27T01:00:00Z")
	points := []model.RoutePoint{
		{Lat: 0, Lon: 170, Seq: 0, ExpectedArrival: timePtr(dep)},
		{Lat: 0, Lon: -170, Seq: 1, ExpectedArrival: timePtr(arr)},
	}
	r := model.NewRoute("idl", points, nil)
	p, err := route.New(&r, 0)
	require.NoError(t, err)

	mid := mustTime("2025-10-27T00:30:00Z")
	pos, _, _, err := p.PositionAtTime(mid)
	require.NoError(t, err)
	require.True(t, pos.Lon > 179 || pos.Lon < -179)
}
