package route

import (
	"time"

	"github.com/shopspring/decimal"
)

// PointKind tags a leg endpoint: the shipment's own origin or destination,
// or an intermediate deposit.
type PointKind string

const (
	PointOrigin      PointKind = "origin"
	PointDestination PointKind = "destination"
	PointDeposit     PointKind = "deposit"
)

// Point is one endpoint of a leg. RefID is only set for deposit points.
type Point struct {
	Kind    PointKind `json:"kind"`
	RefID   *int64    `json:"ref_id,omitempty"`
	Address string    `json:"address"`
	Lat     float64   `json:"lat"`
	Lon     float64   `json:"lon"`
}

// LegState is the lifecycle state of a leg. Transitions only move forward:
// ESTIMATED -> ASSIGNED -> IN_PROGRESS -> FINISHED.
type LegState string

const (
	LegEstimated  LegState = "ESTIMATED"
	LegAssigned   LegState = "ASSIGNED"
	LegInProgress LegState = "IN_PROGRESS"
	LegFinished   LegState = "FINISHED"
)

type LegType string

// LegOriginDestination is the only leg type produced while deposit routing
// remains unsupported.
const LegOriginDestination LegType = "origin_destination"

// Leg is one directed segment of a route, lifecycle-tracked on its own.
type Leg struct {
	ID              int64               `json:"id"`
	RouteID         int64               `json:"route_id"`
	Seq             int                 `json:"seq"`
	Origin          Point               `json:"origin"`
	Destination     Point               `json:"destination"`
	Type            LegType             `json:"type"`
	State           LegState            `json:"state"`
	DistanceKm      decimal.Decimal     `json:"distance_km"`
	PlannedCost     decimal.Decimal     `json:"planned_cost"`
	RealCost        decimal.NullDecimal `json:"real_cost"`
	PlannedStartAt  *time.Time          `json:"planned_start_at,omitempty"`
	PlannedFinishAt *time.Time          `json:"planned_finish_at,omitempty"`
	StartedAt       *time.Time          `json:"started_at,omitempty"`
	FinishedAt      *time.Time          `json:"finished_at,omitempty"`
	VehicleID       *int64              `json:"vehicle_id,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// Route is the ordered, costed plan computed for one shipment request.
type Route struct {
	ID                int64               `json:"id"`
	ShipmentRequestID int64               `json:"shipment_request_id"`
	LegCount          int                 `json:"leg_count"`
	DepositCount      int                 `json:"deposit_count"`
	TotalDistanceKm   decimal.Decimal     `json:"total_distance_km"`
	EstimatedCost     decimal.Decimal     `json:"estimated_cost"`
	RealCost          decimal.NullDecimal `json:"real_cost"`
	EstimatedHours    int                 `json:"estimated_hours"`
	Active            bool                `json:"active"`
	Legs              []Leg               `json:"legs"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}
