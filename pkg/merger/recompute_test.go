package merger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

type fakeXKaBuilder struct {
	intervals []model.TransportInterval
	err       error
	delay     time.Duration
}

func (f fakeXKaBuilder) Build(missionStart, missionEnd time.Time) ([]model.TransportInterval, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.intervals, f.err
}

type fakeKuBuilder struct {
	intervals []model.TransportInterval
}

func (f fakeKuBuilder) Build(missionStart, missionEnd time.Time) []model.TransportInterval {
	return f.intervals
}

func TestRecompute_MergesAllThreeBuilders(t *testing.T) {
	start, end := at(0), at(60)
	full := []model.TransportInterval{{Start: start, End: end, State: model.Available}}

	result, err := Recompute(context.Background(), start, end,
		fakeXKaBuilder{intervals: full},
		fakeXKaBuilder{intervals: full},
		fakeKuBuilder{intervals: full},
	)

	require.NoError(t, err)
	require.Len(t, result.Segments, 1)
	assert.Equal(t, model.Nominal, result.Segments[0].Status)
}

func TestRecompute_PropagatesBuilderError(t *testing.T) {
	start, end := at(0), at(60)
	boom := assert.AnError

	_, err := Recompute(context.Background(), start, end,
		fakeXKaBuilder{err: boom},
		fakeXKaBuilder{},
		fakeKuBuilder{},
	)

	assert.ErrorIs(t, err, boom)
}

func TestRecompute_HonorsCancellation(t *testing.T) {
	start, end := at(0), at(60)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Recompute(ctx, start, end,
		fakeXKaBuilder{delay: 10 * time.Millisecond},
		fakeXKaBuilder{},
		fakeKuBuilder{},
	)

	assert.ErrorIs(t, err, context.Canceled)
}
