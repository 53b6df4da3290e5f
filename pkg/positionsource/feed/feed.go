// Package feed implements the production-default coordinator.PositionSource:
// a newline-delimited JSON position stream read over a plain net.Conn (TCP
// or Unix socket), matching whatever onboard avionics bridge publishes
// aircraft state to the mission planner.
//
// No example repo in the retrieval pack ships a telemetry-feed-protocol
// client library (ARINC 429/629, ADS-B decoders, and similar are hardware
// integrations, not something installed from a Go module), so this
// collaborator is built directly on net + encoding/json rather than
// adapting a third-party package; see DESIGN.md for the justification.
package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/errs"
)

// sample is the wire shape published by the avionics bridge, one JSON
// object per line.
type sample struct {
	LatDeg float64   `json:"lat_deg"`
	LonDeg float64   `json:"lon_deg"`
	AltM   float64   `json:"alt_m"`
	TS     time.Time `json:"ts"`
}

// Source reads position samples from a long-lived connection, reconnecting
// on read failure. It implements coordinator.PositionSource.
type Source struct {
	network, address string
	dialTimeout       time.Duration

	conn    net.Conn
	scanner *bufio.Scanner
	lastTS  time.Time
}

// New builds a feed Source. Dialing is lazy: the first NextPosition call
// establishes the connection.
func New(network, address string, dialTimeout time.Duration) *Source {
	return &Source{network: network, address: address, dialTimeout: dialTimeout}
}

func (s *Source) ensureConnected(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}
	d := net.Dialer{Timeout: s.dialTimeout}
	conn, err := d.DialContext(ctx, s.network, s.address)
	if err != nil {
		return errs.WrapComputationFailed("feed.ensureConnected", err)
	}
	s.conn = conn
	s.scanner = bufio.NewScanner(conn)
	return nil
}

// NextPosition blocks until the next line-delimited sample is read, ctx is
// cancelled, or the connection fails (in which case it is torn down so the
// next call reconnects).
func (s *Source) NextPosition(ctx context.Context) (lat, lon, altM float64, ts time.Time, err error) {
	if err := s.ensureConnected(ctx); err != nil {
		return 0, 0, 0, time.Time{}, err
	}

	type result struct {
		sm  sample
		err error
	}
	done := make(chan result, 1)
	go func() {
		if !s.scanner.Scan() {
			done <- result{err: s.scanErr()}
			return
		}
		var sm sample
		if jsonErr := json.Unmarshal(s.scanner.Bytes(), &sm); jsonErr != nil {
			done <- result{err: errs.WrapInvalidInput("feed.NextPosition", jsonErr)}
			return
		}
		done <- result{sm: sm}
	}()

	select {
	case <-ctx.Done():
		return 0, 0, 0, time.Time{}, ctx.Err()
	case res := <-done:
		if res.err != nil {
			s.reset()
			return 0, 0, 0, time.Time{}, res.err
		}
		if !res.sm.TS.After(s.lastTS) {
			return 0, 0, 0, time.Time{}, errs.InvalidInput("feed.NextPosition", "non-monotonic sample timestamp")
		}
		s.lastTS = res.sm.TS
		return res.sm.LatDeg, res.sm.LonDeg, res.sm.AltM, res.sm.TS, nil
	}
}

func (s *Source) scanErr() error {
	if err := s.scanner.Err(); err != nil {
		return errs.WrapComputationFailed("feed.NextPosition", err)
	}
	return errs.ComputationFailed("feed.NextPosition", "connection closed")
}

func (s *Source) reset() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.conn = nil
	s.scanner = nil
}

// Close releases the underlying connection, if any.
func (s *Source) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.scanner = nil
	return err
}
