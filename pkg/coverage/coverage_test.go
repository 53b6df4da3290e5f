package coverage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/coverage"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

func squareFootprint() []byte {
	return []byte(`{"type":"Polygon","coordinates":[[[-10,-10],[10,-10],[10,10],[-10,10],[-10,-10]]]}`)
}

// idlFootprint straddles the date line: lon from 170 to -170 (i.e. 170..190).
func idlFootprint() []byte {
	return []byte(`{"type":"Polygon","coordinates":[[[170,-10],[-170,-10],[-170,10],[170,10],[170,-10]]]}`)
}

func TestEvaluator_IsCovered_Inside(t *testing.T) {
	specs := map[string]model.FootprintSpec{
		"SAT1": {SatelliteID: "SAT1", PolygonGeoJSON: squareFootprint()},
	}
	ev, err := coverage.New(specs)
	require.NoError(t, err)

	require.True(t, ev.IsCovered("SAT1", 0, 0, time.Now()))
	require.False(t, ev.IsCovered("SAT1", 50, 50, time.Now()))
}

func TestEvaluator_ValidityWindow(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	specs := map[string]model.FootprintSpec{
		"SAT1": {SatelliteID: "SAT1", PolygonGeoJSON: squareFootprint(), ValidFrom: &from, ValidUntil: &until},
	}
	ev, err := coverage.New(specs)
	require.NoError(t, err)

	require.True(t, ev.IsCovered("SAT1", 0, 0, from.Add(time.Hour)))
	require.False(t, ev.IsCovered("SAT1", 0, 0, from.Add(-time.Hour)))
	require.False(t, ev.IsCovered("SAT1", 0, 0, until.Add(time.Hour)))
}

func TestEvaluator_IDLFootprint(t *testing.T) {
	specs := map[string]model.FootprintSpec{
		"SAT2": {SatelliteID: "SAT2", PolygonGeoJSON: idlFootprint()},
	}
	ev, err := coverage.New(specs)
	require.NoError(t, err)

	require.True(t, ev.IsCovered("SAT2", 0, 180, time.Now()))
	require.True(t, ev.IsCovered("SAT2", 0, -179, time.Now()))
	require.True(t, ev.IsCovered("SAT2", 0, 179, time.Now()))
	require.False(t, ev.IsCovered("SAT2", 0, 0, time.Now()))
}

func TestEvaluator_CoveringSet_StableOrder(t *testing.T) {
	specs := map[string]model.FootprintSpec{
		"SATB": {SatelliteID: "SATB", PolygonGeoJSON: squareFootprint()},
		"SATA": {SatelliteID: "SATA", PolygonGeoJSON: squareFootprint()},
	}
	ev, err := coverage.New(specs)
	require.NoError(t, err)

	set := ev.CoveringSet([]string{"SATB", "SATA"}, 0, 0, time.Now())
	require.Equal(t, []string{"SATA", "SATB"}, set)
}

func TestDisjointAndSameSet(t *testing.T) {
	require.True(t, coverage.Disjoint([]string{"A"}, []string{"B"}))
	require.False(t, coverage.Disjoint([]string{"A"}, []string{"A", "B"}))
	require.True(t, coverage.SameSet([]string{"A", "B"}, []string{"B", "A"}))
}
