package metricssink

import (
	"context"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// InfluxSink writes the same gauge/counter taxonomy as line-protocol points,
// for long-term mission telemetry history rather than live scraping.
// Grounded on the teacher's app/plot/plot.go influxdb2.NewClient /
// NewPointWithMeasurement usage, generalized from GNSS solution ENU
// residuals to the mission gauge set.
type InfluxSink struct {
	client influxdb2.Client
	writer api.WriteAPI
	bucket string
	org    string
}

// NewInfluxSink opens a non-blocking write API against the given server.
func NewInfluxSink(serverURL, token, org, bucket string) *InfluxSink {
	client := influxdb2.NewClient(serverURL, token)
	return &InfluxSink{
		client: client,
		writer: client.WriteAPI(org, bucket),
		bucket: bucket,
		org:    org,
	}
}

func (s *InfluxSink) SetGauge(name string, value float64, labels map[string]string) {
	p := write.NewPoint(name, labels, map[string]interface{}{"value": value}, nowUTC())
	s.writer.WritePoint(p)
}

func (s *InfluxSink) IncCounter(name string, labels map[string]string) {
	p := write.NewPoint(name, labels, map[string]interface{}{"count": 1}, nowUTC())
	s.writer.WritePoint(p)
}

func (s *InfluxSink) Close() error {
	s.writer.Flush()
	s.client.Close()
	return nil
}

// Flush blocks until buffered points are written. It does not report write
// errors from the non-blocking API, and ctx is not consulted.
func (s *InfluxSink) Flush(ctx context.Context) {
	s.writer.Flush()
}
