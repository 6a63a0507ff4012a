package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

type stubTariffs struct {
	rate decimal.Decimal
	err  error
}

func (s *stubTariffs) RatePerKm(_ context.Context, _ int64) (decimal.Decimal, error) {
	return s.rate, s.err
}

func int64Ptr(v int64) *int64 { return &v }

func TestEstimateCostWithTariff(t *testing.T) {
	e := NewEstimator(&stubTariffs{rate: decimal.RequireFromString("50.00")})

	cost := e.EstimateCost(context.Background(), decimal.NewFromInt(100), int64Ptr(7))
	if !cost.Equal(decimal.RequireFromString("5000.00")) {
		t.Fatalf("cost = %s, want 5000.00", cost)
	}
}

func TestEstimateCostTariffLookupFails(t *testing.T) {
	e := NewEstimator(&stubTariffs{err: errors.New("tariff service down")})

	cost := e.EstimateCost(context.Background(), decimal.NewFromInt(100), int64Ptr(7))
	if !cost.Equal(decimal.RequireFromString("10000.00")) {
		t.Fatalf("cost = %s, want 10000.00 (default rate)", cost)
	}
}

func TestEstimateCostNonPositiveRate(t *testing.T) {
	e := NewEstimator(&stubTariffs{rate: decimal.Zero})

	cost := e.EstimateCost(context.Background(), decimal.NewFromInt(10), int64Ptr(3))
	if !cost.Equal(decimal.RequireFromString("1000.00")) {
		t.Fatalf("cost = %s, want 1000.00", cost)
	}
}

func TestEstimateCostNoTariffID(t *testing.T) {
	e := NewEstimator(&stubTariffs{rate: decimal.RequireFromString("50.00")})

	cost := e.EstimateCost(context.Background(), decimal.NewFromInt(10), nil)
	if !cost.Equal(decimal.RequireFromString("1000.00")) {
		t.Fatalf("cost = %s, want 1000.00", cost)
	}
}
