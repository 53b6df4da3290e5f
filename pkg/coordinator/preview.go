package coordinator

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

// previewGroup collapses concurrent identical preview requests (spec §6
// "Preview timeline" is read-only and side-effect free, so duplicate
// in-flight requests for the same route+config can safely share one
// computation rather than recomputing N times).
var previewGroup singleflight.Group

// PreviewShared is the collapsed entry point for the preview HTTP handler:
// concurrent callers presenting the same (leg, route version, config
// content hash) key share a single in-flight computation.
func (c *Coordinator) PreviewShared(ctx context.Context, rt model.Route, cfg model.TransportConfig) (model.Timeline, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return model.Timeline{}, err
	}
	key := fmt.Sprintf("%s:%d:%x", c.legID, rt.Version, sha256.Sum256(cfgJSON))
	v, err, _ := previewGroup.Do(key, func() (interface{}, error) {
		return c.Preview(ctx, rt, cfg)
	})
	if err != nil {
		return model.Timeline{}, err
	}
	return v.(model.Timeline), nil
}
