package pricing

import (
	"context"
	"log"

	"github.com/shopspring/decimal"
)

// DefaultRatePerKm is applied when the tariff table cannot supply a usable
// rate. Tariff failures degrade rather than abort route computation.
var DefaultRatePerKm = decimal.RequireFromString("100.00")

// TariffLookup resolves a per-kilometer rate by tariff id.
type TariffLookup interface {
	RatePerKm(ctx context.Context, tariffID int64) (decimal.Decimal, error)
}

// Estimator converts distances into monetary cost using tariff rates.
type Estimator struct {
	tariffs TariffLookup
}

func NewEstimator(tariffs TariffLookup) *Estimator {
	return &Estimator{tariffs: tariffs}
}

// EstimateCost prices a distance with the given tariff. A missing,
// non-positive, or unreachable tariff falls back to the default rate;
// a nil tariffID skips the lookup entirely.
func (e *Estimator) EstimateCost(ctx context.Context, distanceKm decimal.Decimal, tariffID *int64) decimal.Decimal {
	if tariffID == nil || e.tariffs == nil {
		return distanceKm.Mul(DefaultRatePerKm)
	}

	rate, err := e.tariffs.RatePerKm(ctx, *tariffID)
	if err != nil {
		log.Printf("tariff %d lookup failed, using default rate: %v", *tariffID, err)
		return distanceKm.Mul(DefaultRatePerKm)
	}
	if !rate.IsPositive() {
		log.Printf("tariff %d has non-positive rate, using default rate", *tariffID)
		return distanceKm.Mul(DefaultRatePerKm)
	}

	return distanceKm.Mul(rate)
}
