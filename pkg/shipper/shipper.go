// Package shipper provides an abstraction layer for shipping carriers.
package shipper

import (
	"context"
	"fmt"
	"strings"
)

// CarrierID is the canonical uppercase identifier of a carrier.
type CarrierID string

const (
	CarrierUPS   CarrierID = "UPS"
	CarrierFedEx CarrierID = "FEDEX"
)

// knownCarriers is the closed set of carrier identifiers. Adding a carrier
// means adding it here and registering a Factory for it.
var knownCarriers = map[CarrierID]struct{}{
	CarrierUPS:   {},
	CarrierFedEx: {},
}

// ParseCarrierID normalizes s and checks it against the known carriers.
func ParseCarrierID(s string) (CarrierID, error) {
	id := CarrierID(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := knownCarriers[id]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCarrier, s)
	}
	return id, nil
}

// String implements fmt.Stringer.
func (c CarrierID) String() string {
	return string(c)
}

// Shipper defines the interface that all shipping carriers must implement.
// Implementations only ever accept and return the canonical types of this
// package; carrier wire shapes never cross this boundary.
type Shipper interface {
	// Carrier returns the carrier identifier.
	Carrier() CarrierID

	// GetRates returns rate quotes for a shipment.
	GetRates(ctx context.Context, req *ShippingRequest) ([]RateQuote, error)

	// CreateShipment purchases a label with the carrier.
	CreateShipment(ctx context.Context, req *CreateShipmentRequest) (*ShipmentResult, error)

	// SchedulePickup books a carrier visit for an already labelled shipment.
	SchedulePickup(ctx context.Context, req *PickupRequest) (*PickupResult, error)

	// TrackShipment returns the normalized tracking state.
	TrackShipment(ctx context.Context, trackingNumber string) (*TrackingResult, error)

	// CancelShipment voids a label with the carrier.
	CancelShipment(ctx context.Context, trackingNumber string) (*CancelResult, error)

	// CancelPickup cancels a scheduled pickup.
	CancelPickup(ctx context.Context, req *CancelPickupRequest) (*CancelResult, error)
}
