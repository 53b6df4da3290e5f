package merger

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

// XBuilder, KaBuilder, KuBuilder are the narrow interfaces recompute depends
// on, so callers can pass *xtransport.Builder etc. without an import cycle.
type XBuilder interface {
	Build(missionStart, missionEnd time.Time) ([]model.TransportInterval, error)
}

type KaBuilder interface {
	Build(missionStart, missionEnd time.Time) ([]model.TransportInterval, error)
}

type KuBuilder interface {
	Build(missionStart, missionEnd time.Time) []model.TransportInterval
}

// Recompute runs the three per-transport builders concurrently (spec §5:
// "timeline segments are monotone... different legs may recompute
// concurrently"; spec §9: "recomputation checks a cancellation flag between
// builders") and merges their output. ctx cancellation is checked both
// before merging and is honored by returning ctx.Err() if it has already
// fired by the time all three builders finish — a recomputation superseded
// by a newer config change is expected to have its context cancelled by the
// caller (spec §5 "Cancellation").
func Recompute(ctx context.Context, missionStart, missionEnd time.Time, xb XBuilder, kab KaBuilder, kub KuBuilder) (Result, error) {
	var xIntervals, kaIntervals []model.TransportInterval
	var kuIntervals []model.TransportInterval

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ivs, err := xb.Build(missionStart, missionEnd)
		if err != nil {
			return err
		}
		xIntervals = ivs
		return gctx.Err()
	})
	g.Go(func() error {
		ivs, err := kab.Build(missionStart, missionEnd)
		if err != nil {
			return err
		}
		kaIntervals = ivs
		return gctx.Err()
	})
	g.Go(func() error {
		kuIntervals = kub.Build(missionStart, missionEnd)
		return gctx.Err()
	})

	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	// Cooperative cancellation check before the (cheap but non-trivial for
	// long missions) merge pass.
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	return Merge(missionStart, missionEnd, xIntervals, kaIntervals, kuIntervals), nil
}
