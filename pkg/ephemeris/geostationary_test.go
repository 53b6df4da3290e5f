package ephemeris

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/geo"
)

func TestAzimuthFromPlatform_KnownSatellite(t *testing.T) {
	fleet := NewGeostationaryFleet(map[string]float64{"SAT-101": -100})
	az, err := fleet.AzimuthFromPlatform(geo.Point{Lat: 40, Lon: -95}, "SAT-101", time.Now())
	require.NoError(t, err)
	require.GreaterOrEqual(t, az, 0.0)
	require.Less(t, az, 360.0)
}

func TestAzimuthFromPlatform_UnknownSatellite(t *testing.T) {
	fleet := NewGeostationaryFleet(map[string]float64{"SAT-101": -100})
	_, err := fleet.AzimuthFromPlatform(geo.Point{Lat: 40, Lon: -95}, "SAT-999", time.Now())
	require.Error(t, err)
}

func TestAzimuthFromPlatform_DueSouthObserverOnEquator(t *testing.T) {
	fleet := NewGeostationaryFleet(map[string]float64{"SAT-1": 0})
	az, err := fleet.AzimuthFromPlatform(geo.Point{Lat: 30, Lon: 0}, "SAT-1", time.Now())
	require.NoError(t, err)
	require.InDelta(t, 180.0, az, 1.0)
}
