package flightphase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/geo"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/route"
)

func TestComputeWaypointETA_AnticipatedUsesExpectedArrival(t *testing.T) {
	now := tAt(0)
	expected := now.Add(10 * time.Minute)
	res := ComputeWaypointETA(now, model.PreDeparture, &expected, 50000, 100, 0.5)
	assert.Equal(t, model.Anticipated, res.Mode)
	assert.InDelta(t, 600, res.ETASeconds, 0.01)
}

func TestComputeWaypointETA_AnticipatedFallsBackWithoutExpectedArrival(t *testing.T) {
	now := tAt(0)
	res := ComputeWaypointETA(now, model.PreDeparture, nil, 10000, 100, 0.5)
	assert.Equal(t, model.Estimated, res.Mode)
	assert.Greater(t, res.ETASeconds, 0.0)
}

func TestComputeWaypointETA_EstimatedBlendsDistanceAndSchedule(t *testing.T) {
	now := tAt(0)
	expected := now.Add(100 * time.Second)
	// d/v with v = 100kn ~ 51.44 m/s over 5000m ~ 97.2s; blended 50/50 with
	// the 100s schedule term should land between the two.
	res := ComputeWaypointETA(now, model.InFlight, &expected, 5000, 100, 0.5)
	assert.Equal(t, model.Estimated, res.Mode)
	assert.Greater(t, res.ETASeconds, 90.0)
	assert.Less(t, res.ETASeconds, 110.0)
}

func TestComputeWaypointETA_EstimatedWithoutTimingFloorsSpeed(t *testing.T) {
	now := tAt(0)
	res := ComputeWaypointETA(now, model.InFlight, nil, 1000, 0, 0.5)
	assert.Equal(t, model.Estimated, res.Mode)
	assert.InDelta(t, 1000, res.ETASeconds, 0.01, "zero speed should be floored at 1 m/s")
}

func testProjector(t *testing.T) *route.Projector {
	t.Helper()
	start := tAt(0)
	r := model.NewRoute("r1", []model.RoutePoint{
		{Lat: 0, Lon: 0, Seq: 0, ExpectedArrival: timePtr(start)},
		{Lat: 0, Lon: 1, Seq: 1, ExpectedArrival: timePtr(start.Add(time.Hour))},
	}, nil)
	p, err := route.New(&r, 0)
	require.NoError(t, err)
	return p
}

func timePtr(t time.Time) *time.Time { return &t }

func TestComputePOIETA_OnRoutePOI(t *testing.T) {
	p := testProjector(t)
	poi := model.POI{ID: "poi1", Name: "Checkpoint", Lat: 0, Lon: 0.5}
	now := tAt(0).Add(10 * time.Minute)

	result := ComputePOIETA(now, model.InFlight, p, poi, geo.Point{Lat: 0, Lon: 0}, 90, 0, 200, DefaultConfig())

	assert.True(t, result.IsOnActiveRoute)
	assert.NotNil(t, result.ProjectedWaypointIndex)
	assert.NotNil(t, result.ProjectedRouteProgressPct)
}

func TestComputePOIETA_ReachedWhenClose(t *testing.T) {
	p := testProjector(t)
	poi := model.POI{ID: "poi1", Name: "Here", Lat: 0, Lon: 0.0001}
	now := tAt(0)

	result := ComputePOIETA(now, model.InFlight, p, poi, geo.Point{Lat: 0, Lon: 0}, 90, 0, 200, DefaultConfig())

	assert.Equal(t, model.Reached, result.CourseStatus)
}

func TestComputePOIETA_OffRouteUsesGreatCircle(t *testing.T) {
	p := testProjector(t)
	poi := model.POI{ID: "poi2", Name: "FarOff", Lat: 10, Lon: 0.5}
	now := tAt(0)

	result := ComputePOIETA(now, model.InFlight, p, poi, geo.Point{Lat: 0, Lon: 0}, 0, 0, 200, DefaultConfig())

	assert.False(t, result.IsOnActiveRoute)
	assert.Greater(t, result.DistanceM, 0.0)
}

func TestCourseStatusFromHeading(t *testing.T) {
	assert.Equal(t, model.OnCourse, courseStatusFromHeading(10, 12))
	assert.Equal(t, model.SlightlyOff, courseStatusFromHeading(0, 25))
	assert.Equal(t, model.OffCourse, courseStatusFromHeading(0, 60))
	assert.Equal(t, model.Departing, courseStatusFromHeading(0, 170))
}
