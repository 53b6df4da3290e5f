// Package config loads the mission planner's process-wide configuration
// (spec §6 "Configuration (enumerated, with defaults)") from YAML.
// Grounded on the teacher's src/options.go LoadOpts/SaveOpts pattern
// (read-with-defaults into a flat struct), format switched to
// gopkg.in/yaml.v3 per the ambient-stack rule in SPEC_FULL.md §4.10.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// MissionPlannerConfig holds every tunable enumerated in spec §6.
type MissionPlannerConfig struct {
	TickIntervalMS               int     `yaml:"tick_interval_ms"`
	XHandoffPreS                 int     `yaml:"x_handoff_pre_s"`
	XHandoffPostS                int     `yaml:"x_handoff_post_s"`
	XSamplingPeriodS             int     `yaml:"x_sampling_period_s"`
	KaHandoffDegradationS        int     `yaml:"ka_handoff_degradation_s"`
	DepartureThresholdKn         float64 `yaml:"departure_threshold_kn"`
	ArrivalRadiusM               float64 `yaml:"arrival_radius_m"`
	ArrivalDwellS                float64 `yaml:"arrival_dwell_s"`
	ETABlendingAlpha             float64 `yaml:"eta_blending_alpha"`
	OnRouteToleranceM            float64 `yaml:"on_route_tolerance_m"`
	TimeAdjustmentWarnThresholdS int     `yaml:"time_adjustment_warn_threshold_s"`
	RouteCacheSize               int     `yaml:"route_cache_size"`
	TimelineCacheSize            int     `yaml:"timeline_cache_size"`
	ETACacheSize                 int     `yaml:"eta_cache_size"`
	ETACacheTTLS                 int     `yaml:"eta_cache_ttl_s"`
}

// Default returns the spec §6 defaults.
func Default() MissionPlannerConfig {
	return MissionPlannerConfig{
		TickIntervalMS:               1000,
		XHandoffPreS:                 900,
		XHandoffPostS:                900,
		XSamplingPeriodS:             30,
		KaHandoffDegradationS:        1,
		DepartureThresholdKn:         40,
		ArrivalRadiusM:               100,
		ArrivalDwellS:                60,
		ETABlendingAlpha:             0.5,
		OnRouteToleranceM:            5000,
		TimeAdjustmentWarnThresholdS: 28800,
		RouteCacheSize:               32,
		TimelineCacheSize:            32,
		ETACacheSize:                 100,
		ETACacheTTLS:                 5,
	}
}

// TickInterval returns TickIntervalMS as a time.Duration.
func (c MissionPlannerConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// ETACacheTTL returns ETACacheTTLS as a time.Duration.
func (c MissionPlannerConfig) ETACacheTTL() time.Duration {
	return time.Duration(c.ETACacheTTLS) * time.Second
}

// TimeAdjustmentWarnThreshold returns TimeAdjustmentWarnThresholdS as a
// time.Duration.
func (c MissionPlannerConfig) TimeAdjustmentWarnThreshold() time.Duration {
	return time.Duration(c.TimeAdjustmentWarnThresholdS) * time.Second
}

// Load reads a YAML config file, starting from Default() so any field the
// file omits keeps its spec default rather than zeroing out.
func Load(path string) (MissionPlannerConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "config: reading %s", path)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config: parsing %s", path)
	}
	return cfg, nil
}
