package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Tariff is a per-kilometer rate from the tariff table.
type Tariff struct {
	ID     int64           `json:"id"`
	Type   string          `json:"type"`
	Rate   decimal.Decimal `json:"rate"`
	Active bool            `json:"active"`
}

// TariffClient talks to the tariff table service. It satisfies
// pricing.TariffLookup.
type TariffClient struct {
	baseURL string
	client  *http.Client
}

func NewTariffClient(baseURL string, timeout time.Duration) *TariffClient {
	return &TariffClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// RatePerKm resolves a tariff's per-kilometer rate by id.
func (c *TariffClient) RatePerKm(ctx context.Context, tariffID int64) (decimal.Decimal, error) {
	req, err := newRequest(ctx, http.MethodGet, fmt.Sprintf("%s/tariffs/%d", c.baseURL, tariffID), nil)
	if err != nil {
		return decimal.Decimal{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("get tariff %d: %w", tariffID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return decimal.Decimal{}, fmt.Errorf("tariff %d: %w", tariffID, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("get tariff %d: unexpected status %d", tariffID, resp.StatusCode)
	}

	var tariff Tariff
	if err := json.NewDecoder(resp.Body).Decode(&tariff); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode tariff %d: %w", tariffID, err)
	}
	return tariff.Rate, nil
}
