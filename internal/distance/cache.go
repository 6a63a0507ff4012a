package distance

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Cache stores provider-sourced estimates in redis so repeated route
// computations over the same pair do not re-bill the mapping provider.
// Fallback estimates are never cached.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCache(redisClient *redis.Client, ttl time.Duration) *Cache {
	if redisClient == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{redis: redisClient, ttl: ttl}
}

func cacheKey(lat1, lon1, lat2, lon2 float64) string {
	return fmt.Sprintf("distance:%.6f,%.6f|%.6f,%.6f", lat1, lon1, lat2, lon2)
}

func (c *Cache) Get(ctx context.Context, lat1, lon1, lat2, lon2 float64) (Estimate, bool) {
	val, err := c.redis.Get(ctx, cacheKey(lat1, lon1, lat2, lon2)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("distance cache read failed: %v", err)
		}
		return Estimate{}, false
	}

	km, minutes, ok := decodeEstimate(val)
	if !ok {
		return Estimate{}, false
	}
	return Estimate{DistanceKm: km, DurationMin: minutes}, true
}

func (c *Cache) Put(ctx context.Context, lat1, lon1, lat2, lon2 float64, est Estimate) {
	val := est.DistanceKm.String() + "|" + strconv.Itoa(est.DurationMin)
	if err := c.redis.Set(ctx, cacheKey(lat1, lon1, lat2, lon2), val, c.ttl).Err(); err != nil {
		log.Printf("distance cache write failed: %v", err)
	}
}

func decodeEstimate(val string) (decimal.Decimal, int, bool) {
	parts := strings.SplitN(val, "|", 2)
	if len(parts) != 2 {
		return decimal.Decimal{}, 0, false
	}
	km, err := decimal.NewFromString(parts[0])
	if err != nil {
		return decimal.Decimal{}, 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return decimal.Decimal{}, 0, false
	}
	return km, minutes, true
}
