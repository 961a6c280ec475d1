// Package mock provides a mock shipper implementation for testing.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/tournevent/shipbridge/pkg/shipper"
)

// Client is a mock shipper for testing. Hooks override the default
// behavior; Calls counts every invocation per operation.
type Client struct {
	carrier shipper.CarrierID

	OnGetRates       func(ctx context.Context, req *shipper.ShippingRequest) ([]shipper.RateQuote, error)
	OnCreateShipment func(ctx context.Context, req *shipper.CreateShipmentRequest) (*shipper.ShipmentResult, error)
	OnSchedulePickup func(ctx context.Context, req *shipper.PickupRequest) (*shipper.PickupResult, error)
	OnTrackShipment  func(ctx context.Context, trackingNumber string) (*shipper.TrackingResult, error)
	OnCancelShipment func(ctx context.Context, trackingNumber string) (*shipper.CancelResult, error)
	OnCancelPickup   func(ctx context.Context, req *shipper.CancelPickupRequest) (*shipper.CancelResult, error)

	mu    sync.Mutex
	calls map[string]int
	seq   int
}

// New creates a new mock shipper.
func New(carrier shipper.CarrierID) *Client {
	return &Client{carrier: carrier, calls: make(map[string]int)}
}

// Factory returns a registry factory that always hands out c.
func (c *Client) Factory() shipper.Factory {
	return func(*shipper.CarrierSettings, shipper.Deps) (shipper.Shipper, error) {
		return c, nil
	}
}

// Calls returns how many times op was invoked.
func (c *Client) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// TotalCalls returns the number of invocations across all operations.
func (c *Client) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.calls {
		total += n
	}
	return total
}

func (c *Client) record(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[op]++
	c.seq++
	return c.seq
}

// Carrier returns the carrier identifier.
func (c *Client) Carrier() shipper.CarrierID {
	return c.carrier
}

// GetRates returns mock quotes.
func (c *Client) GetRates(ctx context.Context, req *shipper.ShippingRequest) ([]shipper.RateQuote, error) {
	c.record("GetRates")
	if c.OnGetRates != nil {
		return c.OnGetRates(ctx, req)
	}

	eta := time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	return []shipper.RateQuote{
		{ServiceCode: "GROUND", ServiceName: fmt.Sprintf("%s Ground", c.carrier), Cost: 12.50, Currency: "USD", EstimatedDelivery: eta},
		{ServiceCode: "EXPRESS", ServiceName: fmt.Sprintf("%s Express", c.carrier), Cost: 29.95, Currency: "USD", EstimatedDelivery: eta},
		{ServiceCode: "OVERNIGHT", ServiceName: fmt.Sprintf("%s Overnight", c.carrier), Cost: 54.00, Currency: "USD", EstimatedDelivery: shipper.EstimateUnavailable},
	}, nil
}

// CreateShipment returns a mock label.
func (c *Client) CreateShipment(ctx context.Context, req *shipper.CreateShipmentRequest) (*shipper.ShipmentResult, error) {
	n := c.record("CreateShipment")
	if c.OnCreateShipment != nil {
		return c.OnCreateShipment(ctx, req)
	}

	trackingNumber := fmt.Sprintf("%s-TRK-%06d", c.carrier, n)
	raw, _ := json.Marshal(map[string]string{"trackingNumber": trackingNumber})
	return &shipper.ShipmentResult{
		TrackingNumber: trackingNumber,
		TrackingURL:    fmt.Sprintf("https://track.%s.mock/%s", c.carrier, trackingNumber),
		Label:          shipper.Label{Format: shipper.LabelPDF, Data: "JVBERi0xLjQK"},
		ServiceCode:    req.ServiceCode,
		ServiceName:    fmt.Sprintf("%s %s", c.carrier, req.ServiceCode),
		ShippingCost:   12.50,
		TotalCost:      14.13,
		Currency:       "USD",
		RawResponse:    raw,
	}, nil
}

// SchedulePickup returns a mock confirmation.
func (c *Client) SchedulePickup(ctx context.Context, req *shipper.PickupRequest) (*shipper.PickupResult, error) {
	n := c.record("SchedulePickup")
	if c.OnSchedulePickup != nil {
		return c.OnSchedulePickup(ctx, req)
	}
	return &shipper.PickupResult{ConfirmationNumber: fmt.Sprintf("PU-%06d", n), Location: "MOCK"}, nil
}

// TrackShipment returns a mock in-transit state.
func (c *Client) TrackShipment(ctx context.Context, trackingNumber string) (*shipper.TrackingResult, error) {
	c.record("TrackShipment")
	if c.OnTrackShipment != nil {
		return c.OnTrackShipment(ctx, trackingNumber)
	}
	return &shipper.TrackingResult{
		TrackingNumber:    trackingNumber,
		Status:            shipper.StatusInTransit,
		StatusDescription: "In Transit",
		Events:            []shipper.TrackingEvent{{Description: "In Transit", Status: shipper.StatusInTransit}},
	}, nil
}

// CancelShipment returns a mock void confirmation.
func (c *Client) CancelShipment(ctx context.Context, trackingNumber string) (*shipper.CancelResult, error) {
	c.record("CancelShipment")
	if c.OnCancelShipment != nil {
		return c.OnCancelShipment(ctx, trackingNumber)
	}
	return &shipper.CancelResult{Success: true}, nil
}

// CancelPickup returns a mock cancellation.
func (c *Client) CancelPickup(ctx context.Context, req *shipper.CancelPickupRequest) (*shipper.CancelResult, error) {
	c.record("CancelPickup")
	if c.OnCancelPickup != nil {
		return c.OnCancelPickup(ctx, req)
	}
	return &shipper.CancelResult{Success: true}, nil
}

// Ensure Client implements shipper.Shipper interface
var _ shipper.Shipper = (*Client)(nil)
