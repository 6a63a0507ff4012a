package distance

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-logistics/internal/maps"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type stubProvider struct {
	result maps.Result
	err    error
	calls  int
}

func (s *stubProvider) Distance(_ context.Context, _, _, _, _ float64) (maps.Result, error) {
	s.calls++
	return s.result, s.err
}

func TestEstimateUsesProvider(t *testing.T) {
	p := &stubProvider{result: maps.Result{DistanceKm: decimal.RequireFromString("14.20"), DurationMin: 22}}
	est := NewEstimator(p, true, nil).Estimate(context.Background(), -34.6, -58.4, -34.7, -58.5)

	if est.DistanceKm.String() != "14.2" {
		t.Fatalf("distance = %s, want 14.2", est.DistanceKm)
	}
	if est.DurationMin != 22 {
		t.Fatalf("duration = %d, want 22", est.DurationMin)
	}
}

func TestEstimateFallbackOnProviderError(t *testing.T) {
	p := &stubProvider{err: errors.New("provider down")}
	est := NewEstimator(p, true, nil).Estimate(context.Background(), -34.603722, -58.381592, -34.6037, -58.500)

	km, _ := est.DistanceKm.Float64()
	if km < 10.5 || km > 11.5 {
		t.Fatalf("fallback distance = %v, want ~11 km", km)
	}
	// 11 km at 50 km/h is ~14 min, below the 30-minute floor.
	if est.DurationMin != 30 {
		t.Fatalf("fallback duration = %d, want 30", est.DurationMin)
	}
}

func TestEstimateDisabledProviderNeverCalled(t *testing.T) {
	p := &stubProvider{result: maps.Result{DistanceKm: decimal.RequireFromString("99.99"), DurationMin: 1}}
	est := NewEstimator(p, false, nil).Estimate(context.Background(), -34.6, -58.4, -31.4, -64.2)

	if p.calls != 0 {
		t.Fatalf("provider should not be called when disabled")
	}
	if est.DistanceKm.IsZero() {
		t.Fatalf("expected fallback distance")
	}
	if est.DurationMin < 30 {
		t.Fatalf("fallback duration %d below floor", est.DurationMin)
	}
}

func TestEstimateFallbackSymmetry(t *testing.T) {
	e := NewEstimator(nil, false, nil)
	a := e.Estimate(context.Background(), -34.6, -58.4, -31.4, -64.2)
	b := e.Estimate(context.Background(), -31.4, -64.2, -34.6, -58.4)
	if !a.DistanceKm.Equal(b.DistanceKm) {
		t.Fatalf("fallback not symmetric: %s vs %s", a.DistanceKm, b.DistanceKm)
	}
}

func TestEstimateCachesProviderResults(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Hour)

	p := &stubProvider{result: maps.Result{DistanceKm: decimal.RequireFromString("20.50"), DurationMin: 35}}
	e := NewEstimator(p, true, cache)

	first := e.Estimate(context.Background(), -34.6, -58.4, -34.7, -58.5)
	second := e.Estimate(context.Background(), -34.6, -58.4, -34.7, -58.5)

	if p.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", p.calls)
	}
	if !first.DistanceKm.Equal(second.DistanceKm) || first.DurationMin != second.DurationMin {
		t.Fatalf("cached estimate differs: %+v vs %+v", first, second)
	}
}

func TestFallbackNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Hour)

	p := &stubProvider{err: errors.New("provider down")}
	e := NewEstimator(p, true, cache)

	e.Estimate(context.Background(), -34.6, -58.4, -34.7, -58.5)
	e.Estimate(context.Background(), -34.6, -58.4, -34.7, -58.5)

	if p.calls != 2 {
		t.Fatalf("fallback results must not be cached, provider calls = %d", p.calls)
	}
}
