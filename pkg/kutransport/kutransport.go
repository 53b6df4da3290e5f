// Package kutransport implements the Ku-Transport State Builder (spec §4.5):
// AVAILABLE by default, OFFLINE over each configured override window.
package kutransport

import (
	"sort"
	"time"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

// Builder builds the Ku-transport interval series.
type Builder struct {
	Config model.TransportConfig
}

// Build computes the Ku-transport TransportInterval series over
// [missionStart, missionEnd). Yields at most 1 + 2*|overrides| intervals
// (spec §4.5).
func (b *Builder) Build(missionStart, missionEnd time.Time) []model.TransportInterval {
	overrides := make([]model.KuOverride, 0, len(b.Config.KuOverrides))
	for _, o := range b.Config.KuOverrides {
		if o.Window.Duration() <= 0 {
			// Zero-length override windows are discarded (spec §8).
			continue
		}
		overrides = append(overrides, o)
	}
	sort.Slice(overrides, func(i, j int) bool { return overrides[i].Window.Start.Before(overrides[j].Window.Start) })

	var out []model.TransportInterval
	cursor := missionStart
	for _, o := range overrides {
		start := clampTime(o.Window.Start, missionStart, missionEnd)
		end := clampTime(o.Window.End, missionStart, missionEnd)
		if !end.After(start) {
			continue
		}
		if start.After(cursor) {
			out = append(out, snap(model.TransportInterval{Start: cursor, End: start, State: model.Available}))
		}
		out = append(out, snap(model.TransportInterval{Start: start, End: end, State: model.Offline, Reasons: []string{o.Reason}}))
		cursor = end
	}
	if cursor.Before(missionEnd) {
		out = append(out, snap(model.TransportInterval{Start: cursor, End: missionEnd, State: model.Available}))
	}
	return out
}

func clampTime(t, lo, hi time.Time) time.Time {
	if t.Before(lo) {
		return lo
	}
	if t.After(hi) {
		return hi
	}
	return t
}

func snap(iv model.TransportInterval) model.TransportInterval {
	iv.Start = iv.Start.Truncate(time.Second)
	iv.End = iv.End.Truncate(time.Second)
	return iv
}
