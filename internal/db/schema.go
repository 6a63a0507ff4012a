package db

import (
	"context"
	"fmt"
)

// InitSchema creates the route tables when they do not exist yet.
// Intended for local runs; production deployments manage migrations
// out of band.
func InitSchema(ctx context.Context, q Querier) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS routes (
			id                  BIGSERIAL PRIMARY KEY,
			shipment_request_id BIGINT NOT NULL,
			leg_count           INT NOT NULL DEFAULT 0,
			deposit_count       INT NOT NULL DEFAULT 0,
			total_distance_km   NUMERIC(10,2),
			estimated_cost      NUMERIC(10,2),
			real_cost           NUMERIC(10,2),
			estimated_hours     INT,
			active              BOOLEAN NOT NULL DEFAULT TRUE,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS legs (
			id                 BIGSERIAL PRIMARY KEY,
			route_id           BIGINT NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
			seq                INT NOT NULL,
			origin_kind        VARCHAR(20) NOT NULL,
			origin_ref_id      BIGINT,
			origin_address     VARCHAR(500) NOT NULL,
			origin_lat         DOUBLE PRECISION NOT NULL,
			origin_lon         DOUBLE PRECISION NOT NULL,
			dest_kind          VARCHAR(20) NOT NULL,
			dest_ref_id        BIGINT,
			dest_address       VARCHAR(500) NOT NULL,
			dest_lat           DOUBLE PRECISION NOT NULL,
			dest_lon           DOUBLE PRECISION NOT NULL,
			leg_type           VARCHAR(30) NOT NULL,
			state              VARCHAR(20) NOT NULL,
			distance_km        NUMERIC(10,2),
			planned_cost       NUMERIC(10,2),
			real_cost          NUMERIC(10,2),
			planned_start_at   TIMESTAMPTZ,
			planned_finish_at  TIMESTAMPTZ,
			started_at         TIMESTAMPTZ,
			finished_at        TIMESTAMPTZ,
			vehicle_id         BIGINT,
			notes              TEXT,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (route_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_legs_vehicle ON legs (vehicle_id)`,
	}

	for _, stmt := range ddl {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
