package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Container carries the physical load plus its origin/destination points.
type Container struct {
	ID             int64           `json:"id"`
	Identification string          `json:"identification"`
	WeightKg       decimal.Decimal `json:"weight_kg"`
	VolumeM3       decimal.Decimal `json:"volume_m3"`
	OriginAddress  string          `json:"origin_address"`
	OriginLat      float64         `json:"origin_lat"`
	OriginLon      float64         `json:"origin_lon"`
	DestAddress    string          `json:"dest_address"`
	DestLat        float64         `json:"dest_lat"`
	DestLon        float64         `json:"dest_lon"`
}

// Shipment is the shipment-request record owned by the shipment directory.
type Shipment struct {
	ID        int64      `json:"id"`
	Number    string     `json:"number"`
	ClientID  int64      `json:"client_id"`
	TariffID  *int64     `json:"tariff_id"`
	Container *Container `json:"container"`
	Status    string     `json:"status"`
}

// CostsTimesUpdate is a partial update of a shipment's cost/time fields.
// Nil fields are omitted from the payload.
type CostsTimesUpdate struct {
	EstimatedCost  *decimal.Decimal `json:"estimated_cost,omitempty"`
	EstimatedHours *int             `json:"estimated_hours,omitempty"`
	FinalCost      *decimal.Decimal `json:"final_cost,omitempty"`
	RealHours      *int             `json:"real_hours,omitempty"`
	RouteID        *int64           `json:"route_id,omitempty"`
}

// ShipmentClient talks to the shipment directory service.
type ShipmentClient struct {
	baseURL string
	client  *http.Client
}

func NewShipmentClient(baseURL string, timeout time.Duration) *ShipmentClient {
	return &ShipmentClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// GetRequest fetches one shipment request by id.
func (c *ShipmentClient) GetRequest(ctx context.Context, id int64) (Shipment, error) {
	req, err := newRequest(ctx, http.MethodGet, fmt.Sprintf("%s/requests/%d", c.baseURL, id), nil)
	if err != nil {
		return Shipment{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Shipment{}, fmt.Errorf("get shipment request %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Shipment{}, fmt.Errorf("shipment request %d: %w", id, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return Shipment{}, fmt.Errorf("get shipment request %d: unexpected status %d", id, resp.StatusCode)
	}

	var shipment Shipment
	if err := json.NewDecoder(resp.Body).Decode(&shipment); err != nil {
		return Shipment{}, fmt.Errorf("decode shipment request %d: %w", id, err)
	}
	return shipment, nil
}

// UpdateCostsTimes patches the shipment's cost/time fields. Callers treat
// this as best effort; failures are theirs to swallow.
func (c *ShipmentClient) UpdateCostsTimes(ctx context.Context, id int64, update CostsTimesUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal costs update: %w", err)
	}

	req, err := newRequest(ctx, http.MethodPatch, fmt.Sprintf("%s/requests/%d/costs-times", c.baseURL, id), bytes.NewReader(payload))
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("patch shipment request %d costs: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("patch shipment request %d costs: unexpected status %d", id, resp.StatusCode)
	}
	log.Printf("shipment request %d costs-times updated", id)
	return nil
}
