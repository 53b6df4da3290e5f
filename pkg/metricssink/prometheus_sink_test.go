package metricssink

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusSink_SetGaugeRegistersAndUpdates(t *testing.T) {
	sink := NewPrometheusSink()
	sink.SetGauge(GaugeSpeedKnots, 123.4, map[string]string{"leg_id": "leg-1"})
	sink.SetGauge(GaugeSpeedKnots, 150.0, map[string]string{"leg_id": "leg-1"})

	families, err := sink.Registry().Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == GaugeSpeedKnots {
			found = f
		}
	}
	require.NotNil(t, found)
	require.Len(t, found.Metric, 1)
	assert.Equal(t, 150.0, found.Metric[0].GetGauge().GetValue())
}

func TestPrometheusSink_IncCounter(t *testing.T) {
	sink := NewPrometheusSink()
	sink.IncCounter("mission_recompute_total", map[string]string{"leg_id": "leg-1"})
	sink.IncCounter("mission_recompute_total", map[string]string{"leg_id": "leg-1"})

	families, err := sink.Registry().Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "mission_recompute_total" {
			found = f
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, 2.0, found.Metric[0].GetCounter().GetValue())
}
