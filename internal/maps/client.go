package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Client calls the mapping provider's distance matrix API for driving
// distance and travel time between two coordinate pairs.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// distanceMatrixResponse mirrors the provider's payload. Both the top-level
// status and the element status must read "OK" before the result is trusted.
type distanceMatrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value int64 `json:"value"` // meters
			} `json:"distance"`
			Duration struct {
				Value int64 `json:"value"` // seconds
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// Result is one resolved origin->destination measurement.
type Result struct {
	DistanceKm  decimal.Decimal
	DurationMin int
}

func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Distance queries the distance matrix endpoint in driving mode with metric
// units. Distance is converted from meters to kilometers (2 decimals,
// half-up) and duration from seconds to whole minutes.
func (c *Client) Distance(ctx context.Context, lat1, lon1, lat2, lon2 float64) (Result, error) {
	params := url.Values{}
	params.Set("origins", fmt.Sprintf("%f,%f", lat1, lon1))
	params.Set("destinations", fmt.Sprintf("%f,%f", lat2, lon2))
	params.Set("mode", "driving")
	params.Set("units", "metric")
	params.Set("key", c.apiKey)

	endpoint := c.baseURL + "/distancematrix/json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, fmt.Errorf("distance matrix: create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("distance matrix: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("distance matrix: unexpected status %d", resp.StatusCode)
	}

	var decoded distanceMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, fmt.Errorf("distance matrix: decode response: %w", err)
	}

	if decoded.Status != "OK" {
		return Result{}, fmt.Errorf("distance matrix: provider status %q", decoded.Status)
	}
	if len(decoded.Rows) == 0 || len(decoded.Rows[0].Elements) == 0 {
		return Result{}, fmt.Errorf("distance matrix: empty result set")
	}

	element := decoded.Rows[0].Elements[0]
	if element.Status != "OK" {
		return Result{}, fmt.Errorf("distance matrix: element status %q", element.Status)
	}

	km := decimal.NewFromInt(element.Distance.Value).
		DivRound(decimal.NewFromInt(1000), 2)

	return Result{
		DistanceKm:  km,
		DurationMin: int(element.Duration.Value / 60),
	}, nil
}
