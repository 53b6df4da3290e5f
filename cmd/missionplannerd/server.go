package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/config"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/errs"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/logging"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/metricssink"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

// api is the thin chi HTTP surface translating spec §6's Request DTOs to
// Coordinator calls. No pkg/... package imports net/http; this is the one
// layer that does.
type api struct {
	reg *registry
	cfg config.MissionPlannerConfig
	log logging.Logger
}

func newRouter(a *api, promSink *metricssink.PrometheusSink) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Handle("/metrics", promhttp.HandlerFor(promSink.Registry(), promhttp.HandlerOpts{}))

	r.Route("/legs/{legID}", func(r chi.Router) {
		r.Post("/preview", a.preview)
		r.Post("/config", a.updateConfig)
		r.Put("/route", a.replaceRoute)
		r.Post("/flight-status", a.flightStatus)
		r.Get("/timeline", a.getTimeline)
	})

	return r
}

func (a *api) preview(w http.ResponseWriter, r *http.Request) {
	legID := chi.URLParam(r, "legID")
	var req legConfigRequest
	if !a.decode(w, r, &req) {
		return
	}
	cfg := req.Transports
	if req.AdjustedDepartureTime != nil {
		cfg.AdjustedDepartureTime = req.AdjustedDepartureTime
	}

	c, err := a.reg.getOrCreate(legID, req.Route, cfg)
	if err != nil {
		a.writeErr(w, err)
		return
	}

	tl, err := c.PreviewShared(r.Context(), req.Route, cfg)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, tl)
}

func (a *api) updateConfig(w http.ResponseWriter, r *http.Request) {
	legID := chi.URLParam(r, "legID")
	var req legConfigRequest
	if !a.decode(w, r, &req) {
		return
	}
	cfg := req.Transports
	var warnings []string
	if req.AdjustedDepartureTime != nil {
		cfg.AdjustedDepartureTime = req.AdjustedDepartureTime
		if wasAdjusted(req.Route, cfg, a.cfg.TimeAdjustmentWarnThreshold()) {
			warnings = append(warnings, "adjusted_departure_time shifts schedule by more than the warning threshold")
		}
	}

	c, err := a.reg.getOrCreate(legID, req.Route, cfg)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	if err := c.SetLegConfig(r.Context(), cfg); err != nil {
		a.writeErr(w, err)
		return
	}
	if err := a.reg.store.SaveLegConfig(r.Context(), legID, cfg); err != nil {
		a.writeErr(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, resourceResponse{Resource: cfg, Warnings: warnings})
}

func (a *api) replaceRoute(w http.ResponseWriter, r *http.Request) {
	legID := chi.URLParam(r, "legID")
	var req replaceRouteRequest
	if !a.decode(w, r, &req) {
		return
	}

	c, err := a.reg.get(legID)
	if err != nil {
		a.writeErr(w, err)
		return
	}

	snap := c.Snapshot()
	kept, warnings := dropOrphanedAARWindows(req.RoutePayload, snap.Config.AARWindows)
	newCfg := snap.Config
	newCfg.AARWindows = kept
	newCfg.AdjustedDepartureTime = nil // spec §6: replacing the route clears any adjustment

	if err := c.SetRoute(r.Context(), req.RoutePayload); err != nil {
		a.writeErr(w, err)
		return
	}
	if err := c.SetLegConfig(r.Context(), newCfg); err != nil {
		a.writeErr(w, err)
		return
	}
	if err := a.reg.store.SaveRoute(r.Context(), req.RoutePayload); err != nil {
		a.writeErr(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, resourceResponse{Resource: req.RoutePayload, Warnings: warnings})
}

func (a *api) flightStatus(w http.ResponseWriter, r *http.Request) {
	legID := chi.URLParam(r, "legID")
	var req flightStatusRequest
	if !a.decode(w, r, &req) {
		return
	}
	c, err := a.reg.get(legID)
	if err != nil {
		a.writeErr(w, err)
		return
	}

	now := time.Now().UTC()
	switch req.Action {
	case "depart":
		err = c.Depart(r.Context(), now)
	case "arrive":
		err = c.Arrive(r.Context(), now)
	case "reset":
		err = c.ResetPhase(r.Context())
	default:
		err = errs.InvalidInput("flightStatus", "unknown action %q", req.Action)
	}
	if err != nil {
		a.writeErr(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, resourceResponse{Resource: c.Snapshot().Phase.String(), Warnings: nil})
}

func (a *api) getTimeline(w http.ResponseWriter, r *http.Request) {
	legID := chi.URLParam(r, "legID")
	c, err := a.reg.get(legID)
	if err != nil {
		a.writeErr(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, c.Snapshot().Timeline)
}

// wasAdjusted reports whether cfg's adjusted_departure_time shifts the
// route's original departure by more than threshold (spec §6 "Time
// adjustment warning threshold: any |Δ| > 8 h returns a non-blocking
// warning").
func wasAdjusted(rt model.Route, cfg model.TransportConfig, threshold time.Duration) bool {
	delta := cfg.DepartureDelta(rt.Timing.DepartureTime)
	if delta < 0 {
		delta = -delta
	}
	return delta > threshold
}

func (a *api) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return false
	}
	return true
}

func (a *api) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *api) writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if cat, ok := errs.CategoryOf(err); ok {
		switch cat {
		case errs.CategoryInvalidInput:
			status = http.StatusBadRequest
		case errs.CategoryNotFound:
			status = http.StatusNotFound
		case errs.CategoryConflict:
			status = http.StatusConflict
		case errs.CategoryComputationFailed:
			status = http.StatusServiceUnavailable
		case errs.CategoryWarning:
			status = http.StatusOK
		}
	}
	a.log.Warnw("request failed", "error", err)
	a.writeJSON(w, status, errorResponse{Error: err.Error()})
}
