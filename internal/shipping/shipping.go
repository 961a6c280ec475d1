// Package shipping orchestrates carrier calls and the local side effects
// that follow them: shipment records, order status and pickup metadata.
package shipping

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tournevent/shipbridge/pkg/shipper"
)

// Shipment record statuses owned by the orchestrator. Tracking updates
// overwrite them with the shipper.TrackingStatus vocabulary.
const (
	StatusLabelCreated    = "label_created"
	StatusPickupScheduled = "pickup_scheduled"
)

// Order statuses the orchestrator is allowed to write.
const (
	OrderStatusShipped     = "shipped"
	OrderStatusReadyToShip = "ready_to_ship"
)

// ShipmentRecord is the persisted outcome of a purchased label.
type ShipmentRecord struct {
	ID             string            `json:"id"`
	OrderID        string            `json:"orderId"`
	Carrier        shipper.CarrierID `json:"carrier"`
	ServiceCode    string            `json:"serviceCode"`
	ServiceName    string            `json:"serviceName"`
	TrackingNumber string            `json:"trackingNumber"`
	TrackingURL    string            `json:"trackingUrl"`
	LabelFormat    string            `json:"labelFormat"`
	LabelData      string            `json:"labelData,omitempty"`
	LabelURL       string            `json:"labelUrl,omitempty"`

	// Package as shipped, pounds and inches.
	Weight float64 `json:"weight"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	ShippingCost float64    `json:"shippingCost"`
	TotalCost    float64    `json:"totalCost"`
	Currency     string     `json:"currency"`
	Status       string     `json:"status"`
	DeliveredAt  *time.Time `json:"deliveredAt,omitempty"`

	PickupConfirmation string `json:"pickupConfirmation,omitempty"`
	PickupDate         string `json:"pickupDate,omitempty"`
	PickupReadyTime    string `json:"pickupReadyTime,omitempty"`
	PickupCloseTime    string `json:"pickupCloseTime,omitempty"`
	PickupLocation     string `json:"pickupLocation,omitempty"`

	RawCarrierResponse json.RawMessage `json:"-"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// HasPickup reports whether a pickup is currently booked for the shipment.
func (r *ShipmentRecord) HasPickup() bool {
	return r.PickupConfirmation != ""
}

// clearPickup resets the pickup fields and returns the record to label_created.
func (r *ShipmentRecord) clearPickup() {
	r.PickupConfirmation = ""
	r.PickupDate = ""
	r.PickupReadyTime = ""
	r.PickupCloseTime = ""
	r.PickupLocation = ""
	r.Status = StatusLabelCreated
}

// SettingsStore reads carrier settings. It returns an error wrapping
// shipper.ErrNotFound when no active settings exist for the carrier.
type SettingsStore interface {
	GetActiveCarrierSettings(ctx context.Context, carrier shipper.CarrierID) (*shipper.CarrierSettings, error)
}

// ShipmentStore persists shipment records. Get, Update and Delete return an
// error wrapping shipper.ErrNotFound for unknown ids.
type ShipmentStore interface {
	Insert(ctx context.Context, rec *ShipmentRecord) error
	Get(ctx context.Context, id string) (*ShipmentRecord, error)
	Update(ctx context.Context, rec *ShipmentRecord) error
	Delete(ctx context.Context, id string) error
	FindByOrder(ctx context.Context, orderID string) ([]*ShipmentRecord, error)
	CountByOrder(ctx context.Context, orderID string) (int, error)
}

// OrderProjection writes the shipment-driven fields of an order. A nil
// trackingNumber clears the stored one.
type OrderProjection interface {
	UpdateStatus(ctx context.Context, orderID, status string, trackingNumber *string) error
}
