package shipping

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tournevent/shipbridge/pkg/shipper"
)

// EventType names a shipment lifecycle transition.
type EventType string

const (
	EventLabelCreated      EventType = "label_created"
	EventPickupScheduled   EventType = "pickup_scheduled"
	EventPickupCancelled   EventType = "pickup_cancelled"
	EventTrackingUpdated   EventType = "tracking_updated"
	EventShipmentCancelled EventType = "shipment_cancelled"
)

// ShipmentEvent is published after every successful carrier call.
type ShipmentEvent struct {
	Type           EventType         `json:"type"`
	ShipmentID     string            `json:"shipmentId"`
	OrderID        string            `json:"orderId"`
	Carrier        shipper.CarrierID `json:"carrier"`
	TrackingNumber string            `json:"trackingNumber"`
	Status         string            `json:"status,omitempty"`
	RawResponse    json.RawMessage   `json:"rawResponse,omitempty"`
	OccurredAt     time.Time         `json:"occurredAt"`
}

// EventPublisher delivers lifecycle events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev ShipmentEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, ShipmentEvent) error { return nil }

func newEvent(typ EventType, rec *ShipmentRecord, at time.Time) ShipmentEvent {
	return ShipmentEvent{
		Type:           typ,
		ShipmentID:     rec.ID,
		OrderID:        rec.OrderID,
		Carrier:        rec.Carrier,
		TrackingNumber: rec.TrackingNumber,
		Status:         rec.Status,
		OccurredAt:     at,
	}
}
