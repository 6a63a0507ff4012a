package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Vehicle is the vehicle registry's view of a carrier truck.
type Vehicle struct {
	ID        int64  `json:"id"`
	Plate     string `json:"plate"`
	Available bool   `json:"available"`
}

// VehicleClient talks to the vehicle registry service.
type VehicleClient struct {
	baseURL string
	client  *http.Client
}

func NewVehicleClient(baseURL string, timeout time.Duration) *VehicleClient {
	return &VehicleClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// GetVehicle confirms a vehicle exists and reports its availability.
func (c *VehicleClient) GetVehicle(ctx context.Context, id int64) (Vehicle, error) {
	req, err := newRequest(ctx, http.MethodGet, fmt.Sprintf("%s/vehicles/%d", c.baseURL, id), nil)
	if err != nil {
		return Vehicle{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Vehicle{}, fmt.Errorf("get vehicle %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Vehicle{}, fmt.Errorf("vehicle %d: %w", id, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return Vehicle{}, fmt.Errorf("get vehicle %d: unexpected status %d", id, resp.StatusCode)
	}

	var vehicle Vehicle
	if err := json.NewDecoder(resp.Body).Decode(&vehicle); err != nil {
		return Vehicle{}, fmt.Errorf("decode vehicle %d: %w", id, err)
	}
	return vehicle, nil
}
