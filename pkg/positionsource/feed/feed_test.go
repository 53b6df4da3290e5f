package feed

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"
)

func serveOneConn(t *testing.T, ln net.Listener, samples []sample) {
	t.Helper()
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	enc := json.NewEncoder(conn)
	for _, s := range samples {
		if err := enc.Encode(s); err != nil {
			return
		}
	}
	time.Sleep(50 * time.Millisecond)
}

func TestNextPosition_ReadsSamplesInOrder(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := []sample{
		{LatDeg: 10, LonDeg: 20, AltM: 9000, TS: base},
		{LatDeg: 11, LonDeg: 21, AltM: 9100, TS: base.Add(time.Second)},
	}
	go serveOneConn(t, ln, samples)

	src := New("tcp", ln.Addr().String(), 2*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	lat, lon, alt, ts, err := src.NextPosition(ctx)
	if err != nil {
		t.Fatalf("first NextPosition: %v", err)
	}
	if lat != 10 || lon != 20 || alt != 9000 || !ts.Equal(base) {
		t.Fatalf("unexpected first sample: %v %v %v %v", lat, lon, alt, ts)
	}

	lat, lon, alt, ts, err = src.NextPosition(ctx)
	if err != nil {
		t.Fatalf("second NextPosition: %v", err)
	}
	if lat != 11 || lon != 21 || alt != 9100 || !ts.Equal(base.Add(time.Second)) {
		t.Fatalf("unexpected second sample: %v %v %v %v", lat, lon, alt, ts)
	}
}

func TestNextPosition_RejectsNonMonotonicTimestamp(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	samples := []sample{
		{LatDeg: 10, LonDeg: 20, AltM: 9000, TS: base},
		{LatDeg: 11, LonDeg: 21, AltM: 9100, TS: base.Add(-time.Second)},
	}
	go serveOneConn(t, ln, samples)

	src := New("tcp", ln.Addr().String(), 2*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, _, _, _, err := src.NextPosition(ctx); err != nil {
		t.Fatalf("first NextPosition: %v", err)
	}
	if _, _, _, _, err := src.NextPosition(ctx); err == nil {
		t.Fatal("expected error for non-monotonic sample, got nil")
	}
}

func TestNextPosition_ContextCancellation(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		time.Sleep(500 * time.Millisecond)
	}()

	src := New("tcp", ln.Addr().String(), 2*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, _, _, _, err := src.NextPosition(ctx); err == nil {
		t.Fatal("expected context deadline error, got nil")
	}
}
