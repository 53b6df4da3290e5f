package flightphase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

func tAt(s int) time.Time {
	return time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC).Add(time.Duration(s) * time.Second)
}

func TestEngine_DepartureAfterDwell(t *testing.T) {
	e := New(DefaultConfig())
	assert.Equal(t, model.PreDeparture, e.Phase())

	assert.Nil(t, e.Tick(tAt(0), 50, 99999))
	assert.Equal(t, model.PreDeparture, e.Phase(), "dwell not yet satisfied")

	ev := e.Tick(tAt(6), 50, 99999)
	require.NotNil(t, ev)
	assert.Equal(t, model.PreDeparture, ev.From)
	assert.Equal(t, model.InFlight, ev.To)
	assert.Equal(t, model.InFlight, e.Phase())
	require.NotNil(t, e.ActualDeparture())
}

func TestEngine_DepartureDwellResetsOnDrop(t *testing.T) {
	e := New(DefaultConfig())
	e.Tick(tAt(0), 41, 99999)
	e.Tick(tAt(3), 0, 99999) // smoothed speed drops below threshold, resets dwell
	ev := e.Tick(tAt(8), 50, 99999)
	assert.Nil(t, ev, "dwell timer should have reset on the speed drop")
}

func TestEngine_ArrivalAfterDwell(t *testing.T) {
	e := New(DefaultConfig())
	e.Depart(tAt(0))
	require.Equal(t, model.InFlight, e.Phase())

	assert.Nil(t, e.Tick(tAt(10), 200, 50))
	ev := e.Tick(tAt(71), 200, 50)
	require.NotNil(t, ev)
	assert.Equal(t, model.PostArrival, ev.To)
	require.NotNil(t, e.ActualArrival())
}

func TestEngine_ExplicitDepartAndArriveAndReset(t *testing.T) {
	e := New(DefaultConfig())
	ev := e.Depart(tAt(0))
	require.NotNil(t, ev)
	assert.Equal(t, model.InFlight, e.Phase())

	ev = e.Arrive(tAt(100))
	require.NotNil(t, ev)
	assert.Equal(t, model.PostArrival, e.Phase())

	ev = e.Reset()
	require.NotNil(t, ev)
	assert.Equal(t, model.PreDeparture, e.Phase())
	assert.Nil(t, e.ActualDeparture())
	assert.Nil(t, e.ActualArrival())
}

func TestEngine_DepartNoopWhenNotPreDeparture(t *testing.T) {
	e := New(DefaultConfig())
	e.Depart(tAt(0))
	assert.Nil(t, e.Depart(tAt(1)))
}

func TestSpeedSmoother_IgnoresCloseSamples(t *testing.T) {
	s := NewSpeedSmoother(120)
	s.Add(tAt(0), 0)
	v := s.Add(tAt(0).Add(500*time.Millisecond), 100)
	assert.Equal(t, 0.0, v, "sample under 1s apart must be ignored")
}

func TestSpeedSmoother_ConvergesTowardSteadyInput(t *testing.T) {
	s := NewSpeedSmoother(120)
	v := s.Add(tAt(0), 0)
	for i := 1; i <= 600; i++ {
		v = s.Add(tAt(0).Add(time.Duration(i)*time.Second), 100)
	}
	assert.InDelta(t, 100, v, 1.0)
}
