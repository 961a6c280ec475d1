package shipping

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tournevent/shipbridge/pkg/shipper"
)

// Action is one of the orchestration entry points.
type Action string

const (
	ActionGetRates       Action = "get_rates"
	ActionCreateShipment Action = "create_shipment"
	ActionSchedulePickup Action = "schedule_pickup"
	ActionTrackShipment  Action = "track_shipment"
	ActionCancelShipment Action = "cancel_shipment"
	ActionCancelPickup   Action = "cancel_pickup"
)

// Actions lists every supported action.
var Actions = []Action{
	ActionGetRates,
	ActionCreateShipment,
	ActionSchedulePickup,
	ActionTrackShipment,
	ActionCancelShipment,
	ActionCancelPickup,
}

// Command is the inbound orchestration envelope.
type Command struct {
	Carrier string          `json:"carrier"`
	Action  Action          `json:"action"`
	Data    json.RawMessage `json:"data"`
}

// CreateShipmentInput is the create_shipment payload. Shipper defaults to the
// carrier settings' shipper and ServiceCode to their default service.
type CreateShipmentInput struct {
	OrderID     string            `json:"orderId" validate:"notblank"`
	ServiceCode string            `json:"serviceCode"`
	Shipper     shipper.Party     `json:"shipper"`
	Recipient   shipper.Party     `json:"recipient"`
	Packages    []shipper.Package `json:"packages" validate:"required,min=1,dive"`
	Reference   string            `json:"reference,omitempty"`
}

// SchedulePickupInput is the schedule_pickup payload.
type SchedulePickupInput struct {
	ShipmentID string `json:"shipmentId" validate:"notblank"`
	PickupDate string `json:"pickupDate" validate:"required,datetime=2006-01-02"`
	ReadyTime  string `json:"readyTime" validate:"required,datetime=15:04"`
	CloseTime  string `json:"closeTime" validate:"required,datetime=15:04"`
}

// ShipmentRef is the payload of actions addressing an existing shipment.
type ShipmentRef struct {
	ShipmentID string `json:"shipmentId" validate:"notblank"`
}

// CancelShipmentResult reports a voided label and its effect on the order.
type CancelShipmentResult struct {
	ShipmentID         string `json:"shipmentId"`
	OrderID            string `json:"orderId"`
	RemainingShipments int    `json:"remainingShipments"`
	OrderStatus        string `json:"orderStatus,omitempty"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", shipper.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func decode(data json.RawMessage, v any) error {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return invalid("missing data")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return invalid("malformed data: %v", err)
	}
	return nil
}
