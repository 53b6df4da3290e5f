package main

import (
	"time"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

// legConfigRequest is the body shared by the preview and update-leg-config
// endpoints (spec §6 "same body" for both).
type legConfigRequest struct {
	MissionID             string                `json:"mission_id"`
	LegID                 string                `json:"leg_id"`
	Route                 model.Route           `json:"route"`
	Transports            model.TransportConfig `json:"transports"`
	AdjustedDepartureTime *time.Time            `json:"adjusted_departure_time,omitempty"`
}

// replaceRouteRequest is the body for PUT /legs/{legID}/route.
type replaceRouteRequest struct {
	LegID        string      `json:"leg_id"`
	RoutePayload model.Route `json:"route_payload"`
}

// flightStatusRequest is the body for POST /legs/{legID}/flight-status.
type flightStatusRequest struct {
	Action string `json:"action"` // "depart" | "arrive" | "reset"
}

// resourceResponse is the envelope every mutating endpoint returns (spec §7
// "Every mutating endpoint returns {resource, warnings[]}").
type resourceResponse struct {
	Resource interface{} `json:"resource"`
	Warnings []string    `json:"warnings"`
}

// errorResponse is the envelope for failed requests.
type errorResponse struct {
	Error string `json:"error"`
}
