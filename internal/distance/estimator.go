package distance

import (
	"context"
	"log"
	"math"

	"backend-logistics/internal/maps"
	"backend-logistics/internal/shared/geo"

	"github.com/shopspring/decimal"
)

const (
	// Average driving speed assumed when the provider cannot supply a
	// travel time.
	fallbackSpeedKmh = 50
	// Floor for fallback travel-time estimates. Avoids degenerate
	// near-zero durations on very short legs.
	minFallbackMinutes = 30
)

// Estimate pairs a driving distance in kilometers (2 decimals) with a
// travel-time estimate in minutes.
type Estimate struct {
	DistanceKm  decimal.Decimal `json:"distance_km"`
	DurationMin int             `json:"duration_min"`
}

// Provider resolves road-network distance and duration between two points.
type Provider interface {
	Distance(ctx context.Context, lat1, lon1, lat2, lon2 float64) (maps.Result, error)
}

// Estimator produces distance/time estimates. It consults the mapping
// provider when enabled and always falls back to a haversine calculation,
// so Estimate never fails.
type Estimator struct {
	provider Provider
	enabled  bool
	cache    *Cache
}

func NewEstimator(provider Provider, enabled bool, cache *Cache) *Estimator {
	return &Estimator{provider: provider, enabled: enabled, cache: cache}
}

// Estimate returns a usable distance/time estimate for the given pair of
// coordinates. Provider failures degrade to the haversine fallback and are
// only logged.
func (e *Estimator) Estimate(ctx context.Context, lat1, lon1, lat2, lon2 float64) Estimate {
	if e.enabled && e.provider != nil {
		if e.cache != nil {
			if est, ok := e.cache.Get(ctx, lat1, lon1, lat2, lon2); ok {
				return est
			}
		}

		res, err := e.provider.Distance(ctx, lat1, lon1, lat2, lon2)
		if err == nil {
			est := Estimate{DistanceKm: res.DistanceKm, DurationMin: res.DurationMin}
			if e.cache != nil {
				e.cache.Put(ctx, lat1, lon1, lat2, lon2, est)
			}
			return est
		}
		log.Printf("mapping provider failed, using haversine fallback: %v", err)
	}

	return e.fallback(lat1, lon1, lat2, lon2)
}

// fallback computes great-circle distance and estimates travel time at a
// constant average speed.
func (e *Estimator) fallback(lat1, lon1, lat2, lon2 float64) Estimate {
	km := decimal.NewFromFloat(geo.HaversineKm(lat1, lon1, lat2, lon2)).Round(2)

	kmFloat, _ := km.Float64()
	minutes := int(math.Ceil(kmFloat / fallbackSpeedKmh * 60))
	if minutes < minFallbackMinutes {
		minutes = minFallbackMinutes
	}

	return Estimate{DistanceKm: km, DurationMin: minutes}
}
