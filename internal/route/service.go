package route

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"backend-logistics/internal/clients"
	"backend-logistics/internal/db"
	"backend-logistics/internal/distance"
	"backend-logistics/internal/stream"

	"github.com/shopspring/decimal"
)

// DistanceEstimator produces a distance/time estimate for a coordinate pair.
type DistanceEstimator interface {
	Estimate(ctx context.Context, lat1, lon1, lat2, lon2 float64) distance.Estimate
}

// CostEstimator prices a distance with an optional tariff.
type CostEstimator interface {
	EstimateCost(ctx context.Context, distanceKm decimal.Decimal, tariffID *int64) decimal.Decimal
}

// ShipmentDirectory resolves shipment requests and receives cost/time
// updates.
type ShipmentDirectory interface {
	GetRequest(ctx context.Context, id int64) (clients.Shipment, error)
	UpdateCostsTimes(ctx context.Context, id int64, update clients.CostsTimesUpdate) error
}

// VehicleRegistry confirms vehicle existence and availability.
type VehicleRegistry interface {
	GetVehicle(ctx context.Context, id int64) (clients.Vehicle, error)
}

// Service orchestrates route computation and the leg lifecycle.
type Service struct {
	db        db.Querier
	distances DistanceEstimator
	costs     CostEstimator
	shipments ShipmentDirectory
	vehicles  VehicleRegistry
	hub       *stream.Hub
	now       func() time.Time
}

func NewService(
	q db.Querier,
	distances DistanceEstimator,
	costs CostEstimator,
	shipments ShipmentDirectory,
	vehicles VehicleRegistry,
	hub *stream.Hub,
) *Service {
	return &Service{
		db:        q,
		distances: distances,
		costs:     costs,
		shipments: shipments,
		vehicles:  vehicles,
		hub:       hub,
		now:       time.Now,
	}
}

// ComputeTentativeRoute builds, prices, and persists the route for a
// shipment request, then pushes the estimates back to the shipment
// directory (best effort).
func (s *Service) ComputeTentativeRoute(ctx context.Context, shipmentRequestID int64, depositIDs []int64) (Route, error) {
	if len(depositIDs) > 0 {
		return Route{}, ErrDepositsNotSupported
	}

	shipment, err := s.shipments.GetRequest(ctx, shipmentRequestID)
	if err != nil {
		log.Printf("shipment request %d lookup failed: %v", shipmentRequestID, err)
		return Route{}, fmt.Errorf("%w: id %d", ErrShipmentNotFound, shipmentRequestID)
	}
	if shipment.Container == nil {
		return Route{}, fmt.Errorf("%w: request %d has no container", ErrShipmentNotFound, shipmentRequestID)
	}
	container := shipment.Container

	est := s.distances.Estimate(ctx,
		container.OriginLat, container.OriginLon,
		container.DestLat, container.DestLon)
	cost := s.costs.EstimateCost(ctx, est.DistanceKm, shipment.TariffID)

	hours := (est.DurationMin + 59) / 60
	if hours < 1 {
		hours = 1
	}

	rt := Route{
		ShipmentRequestID: shipmentRequestID,
		LegCount:          1,
		DepositCount:      0,
		TotalDistanceKm:   est.DistanceKm,
		EstimatedCost:     cost,
		EstimatedHours:    hours,
		Active:            true,
	}
	leg := Leg{
		Seq: 1,
		Origin: Point{
			Kind:    PointOrigin,
			Address: container.OriginAddress,
			Lat:     container.OriginLat,
			Lon:     container.OriginLon,
		},
		Destination: Point{
			Kind:    PointDestination,
			Address: container.DestAddress,
			Lat:     container.DestLat,
			Lon:     container.DestLon,
		},
		Type:        LegOriginDestination,
		State:       LegEstimated,
		DistanceKm:  est.DistanceKm,
		PlannedCost: cost,
	}

	saved, err := s.insertRoute(ctx, rt, []Leg{leg})
	if err != nil {
		return Route{}, err
	}

	// Side effect only; a directory outage must not fail the computation.
	update := clients.CostsTimesUpdate{
		EstimatedCost:  &saved.EstimatedCost,
		EstimatedHours: &saved.EstimatedHours,
		RouteID:        &saved.ID,
	}
	if err := s.shipments.UpdateCostsTimes(ctx, shipmentRequestID, update); err != nil {
		log.Printf("shipment request %d estimate notification failed: %v", shipmentRequestID, err)
	}

	s.publish("route_computed", saved.ID, &saved.Legs[0])
	return saved, nil
}

// insertRoute persists the route and its legs in one transaction.
func (s *Service) insertRoute(ctx context.Context, rt Route, legs []Leg) (Route, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Route{}, fmt.Errorf("begin route insert: %w", err)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO routes (shipment_request_id, leg_count, deposit_count, total_distance_km, estimated_cost, estimated_hours, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at
	`, rt.ShipmentRequestID, rt.LegCount, rt.DepositCount, rt.TotalDistanceKm, rt.EstimatedCost, rt.EstimatedHours, rt.Active)
	if err := row.Scan(&rt.ID, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		_ = tx.Rollback(ctx)
		return Route{}, fmt.Errorf("insert route: %w", err)
	}

	for i := range legs {
		leg := &legs[i]
		leg.RouteID = rt.ID
		row := tx.QueryRow(ctx, `
			INSERT INTO legs (route_id, seq, origin_kind, origin_ref_id, origin_address, origin_lat, origin_lon,
				dest_kind, dest_ref_id, dest_address, dest_lat, dest_lon, leg_type, state, distance_km, planned_cost, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
			RETURNING id, created_at, updated_at
		`, leg.RouteID, leg.Seq,
			string(leg.Origin.Kind), leg.Origin.RefID, leg.Origin.Address, leg.Origin.Lat, leg.Origin.Lon,
			string(leg.Destination.Kind), leg.Destination.RefID, leg.Destination.Address, leg.Destination.Lat, leg.Destination.Lon,
			string(leg.Type), string(leg.State), leg.DistanceKm, leg.PlannedCost, leg.Notes)
		if err := row.Scan(&leg.ID, &leg.CreatedAt, &leg.UpdatedAt); err != nil {
			_ = tx.Rollback(ctx)
			return Route{}, fmt.Errorf("insert leg %d: %w", leg.Seq, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Route{}, fmt.Errorf("commit route insert: %w", err)
	}

	rt.Legs = legs
	return rt, nil
}

// AssignVehicle validates the vehicle against the registry and moves the
// leg to ASSIGNED.
func (s *Service) AssignVehicle(ctx context.Context, legID, vehicleID int64) (Leg, error) {
	leg, err := s.getLeg(ctx, legID)
	if err != nil {
		return Leg{}, err
	}

	vehicle, err := s.vehicles.GetVehicle(ctx, vehicleID)
	if err != nil {
		log.Printf("vehicle %d validation failed: %v", vehicleID, err)
		return Leg{}, fmt.Errorf("%w: id %d", ErrVehicleUnavailable, vehicleID)
	}
	if !vehicle.Available {
		return Leg{}, fmt.Errorf("%w: id %d", ErrVehicleUnavailable, vehicleID)
	}

	prev := leg.State
	if err := leg.Assign(vehicleID); err != nil {
		return Leg{}, err
	}

	if err := s.transition(ctx, &leg, prev, `
		UPDATE legs SET vehicle_id=$2, state=$3, updated_at=now()
		WHERE id=$1 AND state=$4
	`, leg.ID, leg.VehicleID, string(leg.State), string(prev)); err != nil {
		return Leg{}, err
	}

	s.publish("leg_assigned", leg.RouteID, &leg)
	return leg, nil
}

// StartLeg records the actual start of an assigned leg.
func (s *Service) StartLeg(ctx context.Context, legID int64) (Leg, error) {
	leg, err := s.getLeg(ctx, legID)
	if err != nil {
		return Leg{}, err
	}

	prev := leg.State
	if err := leg.Start(s.now()); err != nil {
		return Leg{}, err
	}

	if err := s.transition(ctx, &leg, prev, `
		UPDATE legs SET state=$2, started_at=$3, updated_at=now()
		WHERE id=$1 AND state=$4
	`, leg.ID, string(leg.State), leg.StartedAt, string(prev)); err != nil {
		return Leg{}, err
	}

	s.publish("leg_started", leg.RouteID, &leg)
	return leg, nil
}

// FinishLeg completes a leg, refreshes the route's real-cost rollup, and
// notifies the shipment directory with the final figures (best effort).
func (s *Service) FinishLeg(ctx context.Context, legID int64) (Leg, error) {
	leg, err := s.getLeg(ctx, legID)
	if err != nil {
		return Leg{}, err
	}

	prev := leg.State
	if err := leg.Finish(s.now()); err != nil {
		return Leg{}, err
	}

	if err := s.transition(ctx, &leg, prev, `
		UPDATE legs SET state=$2, finished_at=$3, real_cost=$4, updated_at=now()
		WHERE id=$1 AND state=$5
	`, leg.ID, string(leg.State), leg.FinishedAt, leg.RealCost, string(prev)); err != nil {
		return Leg{}, err
	}

	if err := s.recomputeRealCost(ctx, leg.RouteID); err != nil {
		return Leg{}, err
	}

	// The lookup only feeds the best-effort notification; the leg is
	// already finished and rolled up, so a failure here is not the caller's
	// problem.
	var shipmentRequestID int64
	if err := s.db.QueryRow(ctx, `
		SELECT shipment_request_id FROM routes WHERE id=$1
	`, leg.RouteID).Scan(&shipmentRequestID); err != nil {
		log.Printf("route %d lookup for final-cost notification failed: %v", leg.RouteID, err)
	} else {
		realHours := leg.ElapsedHours()
		update := clients.CostsTimesUpdate{
			FinalCost: &leg.RealCost.Decimal,
			RealHours: &realHours,
		}
		if err := s.shipments.UpdateCostsTimes(ctx, shipmentRequestID, update); err != nil {
			log.Printf("shipment request %d final-cost notification failed: %v", shipmentRequestID, err)
		}
	}

	s.publish("leg_finished", leg.RouteID, &leg)
	return leg, nil
}

// transition applies a conditional state update. Zero affected rows means a
// concurrent writer got there first; the storage row is the arbiter.
func (s *Service) transition(ctx context.Context, leg *Leg, prev LegState, sql string, args ...any) error {
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update leg %d: %w", leg.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: leg %d no longer in state %s", ErrInvalidState, leg.ID, prev)
	}
	leg.UpdatedAt = s.now()
	return nil
}

// recomputeRealCost derives the rollup purely from current leg states so a
// retried or reordered update cannot corrupt the total.
func (s *Service) recomputeRealCost(ctx context.Context, routeID int64) error {
	_, err := s.db.Exec(ctx, `
		UPDATE routes SET real_cost = (
			SELECT SUM(real_cost) FROM legs WHERE route_id=$1 AND state='FINISHED'
		), updated_at = now()
		WHERE id=$1
	`, routeID)
	if err != nil {
		return fmt.Errorf("recompute real cost for route %d: %w", routeID, err)
	}
	return nil
}

// GetRoute loads one route with its legs in order.
func (s *Service) GetRoute(ctx context.Context, id int64) (Route, error) {
	rt, err := s.scanRoute(s.db.QueryRow(ctx, `
		SELECT id, shipment_request_id, leg_count, deposit_count, total_distance_km, estimated_cost, real_cost, estimated_hours, active, created_at, updated_at
		FROM routes WHERE id=$1
	`, id))
	if err != nil {
		return Route{}, fmt.Errorf("%w: id %d", ErrRouteNotFound, id)
	}

	legs, err := s.legsForRoute(ctx, rt.ID)
	if err != nil {
		return Route{}, err
	}
	rt.Legs = legs
	return rt, nil
}

// RouteByRequest returns the latest active route for a shipment request.
func (s *Service) RouteByRequest(ctx context.Context, shipmentRequestID int64) (Route, error) {
	rt, err := s.scanRoute(s.db.QueryRow(ctx, `
		SELECT id, shipment_request_id, leg_count, deposit_count, total_distance_km, estimated_cost, real_cost, estimated_hours, active, created_at, updated_at
		FROM routes WHERE shipment_request_id=$1 AND active
		ORDER BY created_at DESC LIMIT 1
	`, shipmentRequestID))
	if err != nil {
		return Route{}, fmt.Errorf("%w: shipment request %d", ErrRouteNotFound, shipmentRequestID)
	}

	legs, err := s.legsForRoute(ctx, rt.ID)
	if err != nil {
		return Route{}, err
	}
	rt.Legs = legs
	return rt, nil
}

// ListRoutes returns all active routes with their legs.
func (s *Service) ListRoutes(ctx context.Context) ([]Route, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, shipment_request_id, leg_count, deposit_count, total_distance_km, estimated_cost, real_cost, estimated_hours, active, created_at, updated_at
		FROM routes WHERE active
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	defer rows.Close()

	var routes []Route
	for rows.Next() {
		rt, err := s.scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("list routes: %w", err)
		}
		routes = append(routes, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}

	for i := range routes {
		legs, err := s.legsForRoute(ctx, routes[i].ID)
		if err != nil {
			return nil, err
		}
		routes[i].Legs = legs
	}
	return routes, nil
}

// ListLegsForVehicle returns every leg assigned to the vehicle.
func (s *Service) ListLegsForVehicle(ctx context.Context, vehicleID int64) ([]Leg, error) {
	rows, err := s.db.Query(ctx, legSelect+`WHERE vehicle_id=$1 ORDER BY route_id, seq`, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("list legs for vehicle %d: %w", vehicleID, err)
	}
	defer rows.Close()
	return scanLegs(rows)
}

// DeactivateRoute retires a route. Refused while any leg is in progress.
func (s *Service) DeactivateRoute(ctx context.Context, id int64) error {
	if _, err := s.GetRoute(ctx, id); err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE routes SET active=FALSE, updated_at=now()
		WHERE id=$1 AND NOT EXISTS (
			SELECT 1 FROM legs WHERE route_id=$1 AND state='IN_PROGRESS'
		)
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate route %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: route %d has a leg in progress", ErrInvalidState, id)
	}
	log.Printf("route %d deactivated", id)
	return nil
}

const legSelect = `
	SELECT id, route_id, seq, origin_kind, origin_ref_id, origin_address, origin_lat, origin_lon,
		dest_kind, dest_ref_id, dest_address, dest_lat, dest_lon, leg_type, state,
		distance_km, planned_cost, real_cost, planned_start_at, planned_finish_at,
		started_at, finished_at, vehicle_id, COALESCE(notes,''), created_at, updated_at
	FROM legs
`

func (s *Service) getLeg(ctx context.Context, id int64) (Leg, error) {
	leg, err := scanLeg(s.db.QueryRow(ctx, legSelect+`WHERE id=$1`, id))
	if err != nil {
		return Leg{}, fmt.Errorf("%w: id %d", ErrLegNotFound, id)
	}
	return leg, nil
}

func (s *Service) legsForRoute(ctx context.Context, routeID int64) ([]Leg, error) {
	rows, err := s.db.Query(ctx, legSelect+`WHERE route_id=$1 ORDER BY seq`, routeID)
	if err != nil {
		return nil, fmt.Errorf("legs for route %d: %w", routeID, err)
	}
	defer rows.Close()
	return scanLegs(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Service) scanRoute(row scanner) (Route, error) {
	var rt Route
	err := row.Scan(&rt.ID, &rt.ShipmentRequestID, &rt.LegCount, &rt.DepositCount,
		&rt.TotalDistanceKm, &rt.EstimatedCost, &rt.RealCost, &rt.EstimatedHours,
		&rt.Active, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return Route{}, err
	}
	return rt, nil
}

func scanLeg(row scanner) (Leg, error) {
	var leg Leg
	var originKind, destKind, legType, state string
	err := row.Scan(&leg.ID, &leg.RouteID, &leg.Seq,
		&originKind, &leg.Origin.RefID, &leg.Origin.Address, &leg.Origin.Lat, &leg.Origin.Lon,
		&destKind, &leg.Destination.RefID, &leg.Destination.Address, &leg.Destination.Lat, &leg.Destination.Lon,
		&legType, &state, &leg.DistanceKm, &leg.PlannedCost, &leg.RealCost,
		&leg.PlannedStartAt, &leg.PlannedFinishAt, &leg.StartedAt, &leg.FinishedAt,
		&leg.VehicleID, &leg.Notes, &leg.CreatedAt, &leg.UpdatedAt)
	if err != nil {
		return Leg{}, err
	}
	leg.Origin.Kind = PointKind(originKind)
	leg.Destination.Kind = PointKind(destKind)
	leg.Type = LegType(legType)
	leg.State = LegState(state)
	return leg, nil
}

func scanLegs(rows interface {
	scanner
	Next() bool
	Err() error
}) ([]Leg, error) {
	var legs []Leg
	for rows.Next() {
		leg, err := scanLeg(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leg: %w", err)
		}
		legs = append(legs, leg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate legs: %w", err)
	}
	return legs, nil
}

// legEvent is the payload broadcast to route subscribers on lifecycle
// transitions.
type legEvent struct {
	Type      string    `json:"type"`
	RouteID   int64     `json:"route_id"`
	LegID     int64     `json:"leg_id,omitempty"`
	State     LegState  `json:"state,omitempty"`
	VehicleID *int64    `json:"vehicle_id,omitempty"`
	TS        time.Time `json:"ts"`
}

func (s *Service) publish(eventType string, routeID int64, leg *Leg) {
	if s.hub == nil {
		return
	}
	ev := legEvent{Type: eventType, RouteID: routeID, TS: s.now()}
	if leg != nil {
		ev.LegID = leg.ID
		ev.State = leg.State
		ev.VehicleID = leg.VehicleID
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	s.hub.Broadcast(strconv.FormatInt(routeID, 10), payload)
}
