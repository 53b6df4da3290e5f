package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/flightphase"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/logging"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/merger"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/route"
)

type stubBuilder struct{ ivs []model.TransportInterval }

func (s stubBuilder) Build(start, end time.Time) ([]model.TransportInterval, error) {
	return s.ivs, nil
}

type stubKuBuilder struct{ ivs []model.TransportInterval }

func (s stubKuBuilder) Build(start, end time.Time) []model.TransportInterval {
	return s.ivs
}

type noopSink struct{}

func (noopSink) SetGauge(string, float64, map[string]string) {}
func (noopSink) IncCounter(string, map[string]string)         {}
func (noopSink) Close() error                                 { return nil }

type fakeSource struct {
	lat, lon, alt float64
	ts            time.Time
}

func (f *fakeSource) NextPosition(ctx context.Context) (float64, float64, float64, time.Time, error) {
	return f.lat, f.lon, f.alt, f.ts, nil
}

func testRoute(t *testing.T) model.Route {
	t.Helper()
	start := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	t1 := start.Add(time.Hour)
	points := []model.RoutePoint{
		{Lat: 10, Lon: 10, Seq: 0, ExpectedArrival: &start},
		{Lat: 11, Lon: 11, Seq: 1, ExpectedArrival: &t1},
	}
	return model.NewRoute("route-1", points, nil)
}

func testFactory(nominal model.TransportInterval) BuilderFactory {
	return func(rt model.Route, cfg model.TransportConfig, proj *route.Projector) (merger.XBuilder, merger.KaBuilder, merger.KuBuilder, error) {
		return stubBuilder{[]model.TransportInterval{nominal}},
			stubBuilder{[]model.TransportInterval{nominal}},
			stubKuBuilder{[]model.TransportInterval{nominal}},
			nil
	}
}

func TestNew_BuildsInitialSnapshot(t *testing.T) {
	rt := testRoute(t)
	start := *rt.Timing.DepartureTime
	end := *rt.Timing.ArrivalTime
	nominal := model.TransportInterval{Start: start, End: end, State: model.Available}

	c, err := New("leg-1", rt, model.TransportConfig{}, testFactory(nominal), &fakeSource{}, nil, noopSink{}, flightphase.DefaultConfig(), logging.NewNop())
	require.NoError(t, err)

	snap := c.Snapshot()
	require.Equal(t, "leg-1", snap.LegID)
	require.Equal(t, model.PreDeparture, snap.Phase)
}

func TestRecomputeOnce_PublishesTimeline(t *testing.T) {
	rt := testRoute(t)
	start := *rt.Timing.DepartureTime
	end := *rt.Timing.ArrivalTime
	nominal := model.TransportInterval{Start: start, End: end, State: model.Available}

	c, err := New("leg-1", rt, model.TransportConfig{}, testFactory(nominal), &fakeSource{}, nil, noopSink{}, flightphase.DefaultConfig(), logging.NewNop())
	require.NoError(t, err)

	c.recomputeOnce(context.Background())

	snap := c.Snapshot()
	require.NotEmpty(t, snap.Timeline.Segments)
	require.Equal(t, model.Nominal, snap.Timeline.Segments[0].Status)
}

func TestPreview_DoesNotMutateSnapshot(t *testing.T) {
	rt := testRoute(t)
	start := *rt.Timing.DepartureTime
	end := *rt.Timing.ArrivalTime
	nominal := model.TransportInterval{Start: start, End: end, State: model.Available}

	c, err := New("leg-1", rt, model.TransportConfig{}, testFactory(nominal), &fakeSource{}, nil, noopSink{}, flightphase.DefaultConfig(), logging.NewNop())
	require.NoError(t, err)

	before := c.Snapshot()
	tl, err := c.Preview(context.Background(), rt, model.TransportConfig{})
	require.NoError(t, err)
	require.NotEmpty(t, tl.Segments)

	after := c.Snapshot()
	require.Empty(t, after.Timeline.Segments)
	require.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestRequestRecompute_LatestWinsDoesNotBlock(t *testing.T) {
	rt := testRoute(t)
	nominal := model.TransportInterval{Start: *rt.Timing.DepartureTime, End: *rt.Timing.ArrivalTime, State: model.Available}
	c, err := New("leg-1", rt, model.TransportConfig{}, testFactory(nominal), &fakeSource{}, nil, noopSink{}, flightphase.DefaultConfig(), logging.NewNop())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		c.RequestRecompute()
		c.RequestRecompute()
		c.RequestRecompute()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RequestRecompute blocked")
	}
}

func TestDepartArriveReset(t *testing.T) {
	rt := testRoute(t)
	nominal := model.TransportInterval{Start: *rt.Timing.DepartureTime, End: *rt.Timing.ArrivalTime, State: model.Available}
	c, err := New("leg-1", rt, model.TransportConfig{}, testFactory(nominal), &fakeSource{}, nil, noopSink{}, flightphase.DefaultConfig(), logging.NewNop())
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, c.Depart(context.Background(), now))
	require.Equal(t, model.InFlight, c.Snapshot().Phase)

	require.NoError(t, c.Arrive(context.Background(), now.Add(time.Hour)))
	require.Equal(t, model.PostArrival, c.Snapshot().Phase)

	require.NoError(t, c.ResetPhase(context.Background()))
	require.Equal(t, model.PreDeparture, c.Snapshot().Phase)
}
