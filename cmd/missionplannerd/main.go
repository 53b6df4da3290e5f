// Command missionplannerd serves the mission communication planner HTTP
// API: per-leg X/Ka/Ku transport timelines, route projection, and flight
// phase tracking for mobile satellite terminals.
//
// Flag and signal-handling style grounded on the teacher's
// app/rtkrcv/rtkrcv.go main(): flag.*Var into local variables followed by
// flag.Parse(), then a signal.Notify loop driving graceful shutdown.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/config"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/coordinator"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/coverage"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/ephemeris"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/flightphase"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/katransport"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/kutransport"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/logging"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/merger"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/metricssink"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/positionsource/feed"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/route"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/storage"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/storage/clickhouse"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/storage/postgres"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/xtransport"
)

const defaultOptsFile = "missionplannerd.yaml"

func main() {
	var (
		addr          string
		optsFile      string
		postgresDSN   string
		clickhouseDSN string
		fleetFile     string
		feedNetwork   string
		feedAddress   string
		debug         bool
	)

	flag.StringVar(&addr, "a", ":8088", "HTTP listen address")
	flag.StringVar(&optsFile, "o", defaultOptsFile, "configuration file")
	flag.StringVar(&postgresDSN, "postgres", "", "postgres DSN for route/leg-config storage")
	flag.StringVar(&clickhouseDSN, "clickhouse", "", "clickhouse DSN for timeline archive storage")
	flag.StringVar(&fleetFile, "fleet", "fleet.json", "satellite orbital-longitude fleet table (JSON)")
	flag.StringVar(&feedNetwork, "feed-network", "tcp", "position feed network (tcp|unix)")
	flag.StringVar(&feedAddress, "feed-address", "", "position feed address; empty disables live position ingest")
	flag.BoolVar(&debug, "v", false, "verbose logging")
	flag.Parse()

	log, err := logging.New(debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "missionplannerd: logging init failed: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Default()
	if _, statErr := os.Stat(optsFile); statErr == nil {
		cfg, err = config.Load(optsFile)
		if err != nil {
			log.Errorw("config load failed, using defaults", "error", err)
			cfg = config.Default()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if postgresDSN == "" || clickhouseDSN == "" {
		log.Errorw("missing required storage DSN(s)", "postgres_set", postgresDSN != "", "clickhouse_set", clickhouseDSN != "")
		os.Exit(1)
	}
	routeStore, err := postgres.Open(ctx, postgresDSN)
	if err != nil {
		log.Errorw("postgres store open failed", "error", err)
		os.Exit(1)
	}
	defer routeStore.Close()
	timelineStore, err := clickhouse.Open(ctx, clickhouseDSN)
	if err != nil {
		log.Errorw("clickhouse store open failed", "error", err)
		os.Exit(1)
	}
	defer timelineStore.Close()
	store := storage.Composite{
		RouteStore:     routeStore,
		LegConfigStore: routeStore,
		TimelineStore:  timelineStore,
	}

	fleet, err := loadFleet(fleetFile)
	if err != nil {
		log.Errorw("fleet table load failed", "error", err, "file", fleetFile)
		os.Exit(1)
	}
	ephemerisProvider := ephemeris.NewGeostationaryFleet(fleet)

	sink := metricssink.NewPrometheusSink()
	defer sink.Close()

	phaseCfg := flightphase.Config{
		DepartureThresholdKn: cfg.DepartureThresholdKn,
		ArrivalRadiusM:       cfg.ArrivalRadiusM,
		ArrivalDwellS:        cfg.ArrivalDwellS,
		ETABlendingAlpha:     cfg.ETABlendingAlpha,
		OnRouteToleranceM:    cfg.OnRouteToleranceM,
		ETACacheSize:         cfg.ETACacheSize,
	}

	builderFac := missionBuilderFactory(ephemerisProvider, cfg)

	var source coordinator.PositionSource
	if feedAddress != "" {
		source = feed.New(feedNetwork, feedAddress, 5*time.Second)
	} else {
		source = noopPositionSource{}
	}

	reg := newRegistry(ctx, store, sink, log, phaseCfg, builderFac, source, cfg.TickInterval())

	a := &api{reg: reg, cfg: cfg, log: log.Named("api")}
	server := &http.Server{
		Addr:    addr,
		Handler: newRouter(a, sink),
	}

	go func() {
		log.Infow("missionplannerd listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("http server stopped", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	sig := <-sigCh
	log.Infow("shutting down", "signal", sig.String())

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("http server shutdown error", "error", err)
	}
}

// missionBuilderFactory closes over process-wide config defaults and the
// shared ephemeris collaborator to build a coordinator.BuilderFactory; each
// call constructs fresh per-leg builders (Ka's coverage.Evaluator depends
// on the leg's own Ka footprint specs, which differ per route/config).
func missionBuilderFactory(ephemerisProvider xtransport.EphemerisProvider, cfg config.MissionPlannerConfig) coordinator.BuilderFactory {
	return func(rt model.Route, legCfg model.TransportConfig, proj *route.Projector) (merger.XBuilder, merger.KaBuilder, merger.KuBuilder, error) {
		evaluator, err := coverage.New(legCfg.KaFootprints)
		if err != nil {
			return nil, nil, nil, err
		}

		xBuilder := &xtransport.Builder{
			Config:          legCfg,
			Projector:       proj,
			Ephemeris:       ephemerisProvider,
			ResolveWaypoint: waypointResolver(rt),
			SamplingPeriodS: cfg.XSamplingPeriodS,
		}
		kaBuilder := &katransport.Builder{
			Config:              legCfg,
			Projector:           proj,
			Evaluator:           evaluator,
			SamplingPeriodS:     cfg.XSamplingPeriodS,
			HandoffDegradationS: cfg.KaHandoffDegradationS,
		}
		kuBuilder := &kutransport.Builder{Config: legCfg}

		return xBuilder, kaBuilder, kuBuilder, nil
	}
}

// loadFleet reads a satelliteID -> orbital longitude (degrees) table from a
// JSON file.
func loadFleet(path string) (map[string]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fleet := make(map[string]float64)
	if err := json.Unmarshal(raw, &fleet); err != nil {
		return nil, err
	}
	return fleet, nil
}

// noopPositionSource is used when no live feed address is configured; every
// call blocks until ctx is cancelled, so legs run with phase tracking
// disabled rather than spinning on manufactured samples.
type noopPositionSource struct{}

func (noopPositionSource) NextPosition(ctx context.Context) (lat, lon, altM float64, ts time.Time, err error) {
	<-ctx.Done()
	return 0, 0, 0, time.Time{}, ctx.Err()
}
