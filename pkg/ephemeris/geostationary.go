// Package ephemeris implements xtransport.EphemerisProvider for the common
// case of geostationary X-band satellites, each fixed at a known orbital
// longitude. Spec.md's explicit non-goal ("no orbital propagation;
// satellite footprints are given as static polygons") rules out a full
// SGP4/TLE propagator for this system; the azimuth-to-a-fixed-longitude-bird
// formula below is the correct model for the GEO fleet an X-band steerable
// dish actually points at.
package ephemeris

import (
	"math"
	"time"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/errs"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/geo"
)

// GeostationaryFleet resolves a satellite ID to its fixed orbital longitude
// (degrees east, [-180, 180]) and answers AzimuthFromPlatform queries for
// the whole named fleet.
type GeostationaryFleet struct {
	orbitalLonDeg map[string]float64
}

// NewGeostationaryFleet builds a fleet from a satellite-ID → orbital
// longitude table.
func NewGeostationaryFleet(orbitalLonDeg map[string]float64) *GeostationaryFleet {
	cp := make(map[string]float64, len(orbitalLonDeg))
	for k, v := range orbitalLonDeg {
		cp[k] = v
	}
	return &GeostationaryFleet{orbitalLonDeg: cp}
}

// AzimuthFromPlatform computes the compass azimuth (degrees, [0,360)) from
// platform toward the named geostationary satellite. Geostationary
// satellites don't move relative to the ground track's instantaneous
// position, so t is accepted only to satisfy the EphemerisProvider
// interface and is otherwise unused.
func (f *GeostationaryFleet) AzimuthFromPlatform(platform geo.Point, satelliteID string, t time.Time) (float64, error) {
	lonDeg, ok := f.orbitalLonDeg[satelliteID]
	if !ok {
		return 0, errs.NotFound("ephemeris.AzimuthFromPlatform", "satellite %s not in fleet", satelliteID)
	}

	// Geostationary sub-satellite point lies on the equator at lonDeg.
	sub := geo.Point{Lat: 0, Lon: lonDeg}
	az := geo.InitialBearing(platform, sub)

	// Directly above the equator at the same longitude, bearing is
	// ambiguous (0 or 180 depending on hemisphere); InitialBearing already
	// resolves this correctly via the underlying great-circle formula, so
	// no special-casing is needed here.
	return normalize(az), nil
}

func normalize(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}
