//go:build windows
// +build windows

// Package simconnect implements coordinator.PositionSource against a
// running Microsoft Flight Simulator instance, for ground-testing a mission
// leg against a simulated aircraft instead of live telemetry. Grounded
// directly on mrlm-net/simconnect's airplane-state example: a single
// float64 data definition (altitude, ground velocity, latitude, longitude,
// all in SimConnect's native units), requested once per sim frame and
// parsed by struct-pointer casting over the raw SIMOBJECT_DATA payload.
package simconnect

import (
	"context"
	"math"
	"time"
	"unsafe"

	"github.com/mrlm-net/simconnect/pkg/client"
	"github.com/mrlm-net/simconnect/pkg/types"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/errs"
)

const positionDefinition = 1

// rawPosition mirrors the exact order and count of variables registered in
// Source.setupDataDefinition; SimConnect returns them packed in this order.
type rawPosition struct {
	AltitudeFt     float64
	GroundSpeedKts float64
	LatRad         float64
	LonRad         float64
}

// Source adapts a connected SimConnect client to coordinator.PositionSource.
type Source struct {
	client *client.Engine
	stream <-chan client.ParsedMessage
	lastTS time.Time
}

// Dial connects to a running simulator instance under appName and sets up
// the single per-sim-frame position request.
func Dial(appName string) (*Source, error) {
	c := client.New(appName)
	if c == nil {
		return nil, errs.ComputationFailed("simconnect.Dial", "failed to create SimConnect client")
	}
	if err := c.Connect(); err != nil {
		return nil, errs.WrapComputationFailed("simconnect.Dial", err)
	}
	s := &Source{client: c, stream: c.Stream()}
	if err := s.setupDataDefinition(); err != nil {
		c.Disconnect()
		return nil, err
	}
	if err := s.client.RequestDataOnSimObject(
		1, positionDefinition, 0,
		types.SIMCONNECT_PERIOD_SIM_FRAME,
		types.SIMCONNECT_DATA_REQUEST_FLAG_CHANGED,
		0, 0, 0,
	); err != nil {
		c.Disconnect()
		return nil, errs.WrapComputationFailed("simconnect.Dial", err)
	}
	return s, nil
}

func (s *Source) setupDataDefinition() error {
	defs := []struct {
		name, units string
	}{
		{"PLANE ALTITUDE", "feet"},
		{"GROUND VELOCITY", "knots"},
		{"PLANE LATITUDE", "radians"},
		{"PLANE LONGITUDE", "radians"},
	}
	for i, d := range defs {
		if err := s.client.AddToDataDefinition(positionDefinition, d.name, d.units, types.SIMCONNECT_DATATYPE_FLOAT64, 0.0, uint32(i)); err != nil {
			return errs.WrapComputationFailed("simconnect.setupDataDefinition", err)
		}
	}
	return nil
}

// Close disconnects from the simulator.
func (s *Source) Close() error {
	s.client.Disconnect()
	return nil
}

// NextPosition blocks until the next SIMOBJECT_DATA message carrying the
// position definition arrives, or ctx is cancelled. Each sample is stamped
// with the wall-clock receive time, and a stamp not after the previous one
// is rejected per the PositionSource contract (spec §6: "Timestamps must be
// monotonic or are rejected"); a sim reset/rewind is not detected.
func (s *Source) NextPosition(ctx context.Context) (lat, lon, altM float64, ts time.Time, err error) {
	for {
		select {
		case <-ctx.Done():
			return 0, 0, 0, time.Time{}, ctx.Err()
		case msg, ok := <-s.stream:
			if !ok {
				return 0, 0, 0, time.Time{}, errs.ComputationFailed("simconnect.NextPosition", "stream closed")
			}
			if msg.Error != nil || !msg.IsSimObjectData() {
				continue
			}
			data, ok := msg.GetSimObjectData()
			if !ok || data.DwDefineID != positionDefinition {
				continue
			}
			raw := (*rawPosition)(unsafe.Pointer(&data.DwData))
			now := time.Now().UTC()
			if !now.After(s.lastTS) {
				return 0, 0, 0, time.Time{}, errs.InvalidInput("simconnect.NextPosition", "non-monotonic sample timestamp")
			}
			s.lastTS = now
			latDeg := raw.LatRad * 180 / math.Pi
			lonDeg := raw.LonRad * 180 / math.Pi
			altFt := raw.AltitudeFt
			return latDeg, lonDeg, altFt * 0.3048, now, nil
		}
	}
}
