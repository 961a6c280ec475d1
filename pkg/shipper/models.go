package shipper

import (
	"encoding/json"
	"time"
)

// TrackingStatus represents the normalized status of a shipment in transit.
type TrackingStatus string

const (
	StatusUnknown        TrackingStatus = "unknown"
	StatusPickedUp       TrackingStatus = "picked_up"
	StatusInTransit      TrackingStatus = "in_transit"
	StatusOutForDelivery TrackingStatus = "out_for_delivery"
	StatusDelivered      TrackingStatus = "delivered"
	StatusException      TrackingStatus = "exception"
)

// LabelFormat represents the format of shipping labels.
type LabelFormat string

const (
	LabelPDF LabelFormat = "pdf"
	LabelPNG LabelFormat = "png"
	LabelGIF LabelFormat = "gif"
	LabelZPL LabelFormat = "zpl"
)

// EstimateUnavailable is reported when a carrier omits transit-time data.
const EstimateUnavailable = "N/A"

// Unit tokens. Weights are always pounds and dimensions inches.
const (
	WeightUnit    = "lb"
	DimensionUnit = "in"
)

// Address represents a postal address.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"` // ISO 3166-1 alpha-2
}

// Party is a shipper or recipient.
type Party struct {
	Name    string  `json:"name"`
	Company string  `json:"company,omitempty"`
	Phone   string  `json:"phone,omitempty"`
	Email   string  `json:"email,omitempty"`
	Address Address `json:"address"`
}

// IsZero reports whether no identifying field of the party is set.
func (p Party) IsZero() bool {
	return p.Name == "" && p.Address.Line1 == "" && p.Address.PostalCode == ""
}

// Package represents a package to be shipped, in pounds and inches.
type Package struct {
	Weight float64 `json:"weight" validate:"gt=0"`
	Length float64 `json:"length" validate:"gte=0"`
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

// TotalWeight sums the weight of all packages.
func TotalWeight(pkgs []Package) float64 {
	var total float64
	for _, p := range pkgs {
		total += p.Weight
	}
	return total
}

// RateQuote is a priced service offer.
type RateQuote struct {
	ServiceCode       string  `json:"serviceCode"`
	ServiceName       string  `json:"serviceName"`
	Cost              float64 `json:"cost"`
	Currency          string  `json:"currency"`
	EstimatedDelivery string  `json:"estimatedDelivery"`
}

// Label is a purchased shipping label.
type Label struct {
	Format LabelFormat `json:"format"`
	Data   string      `json:"data,omitempty"` // base64
	URL    string      `json:"url,omitempty"`
}

// ShipmentResult is the canonical result of a label purchase.
type ShipmentResult struct {
	TrackingNumber string          `json:"trackingNumber"`
	TrackingURL    string          `json:"trackingUrl"`
	Label          Label           `json:"label"`
	ServiceCode    string          `json:"serviceCode"`
	ServiceName    string          `json:"serviceName"`
	ShippingCost   float64         `json:"shippingCost"`
	TotalCost      float64         `json:"totalCost"`
	Currency       string          `json:"currency"`
	RawResponse    json.RawMessage `json:"-"`
}

// PickupResult is the canonical result of scheduling a pickup.
type PickupResult struct {
	ConfirmationNumber string          `json:"confirmationNumber"`
	Location           string          `json:"location,omitempty"`
	RawResponse        json.RawMessage `json:"-"`
}

// TrackingEvent represents a tracking scan.
type TrackingEvent struct {
	Timestamp   *time.Time     `json:"timestamp,omitempty"`
	Description string         `json:"description"`
	Location    string         `json:"location,omitempty"`
	Status      TrackingStatus `json:"status"`
}

// TrackingResult is the canonical tracking state of a shipment.
type TrackingResult struct {
	TrackingNumber    string          `json:"trackingNumber"`
	Status            TrackingStatus  `json:"status"`
	StatusDescription string          `json:"statusDescription"`
	DeliveredAt       *time.Time      `json:"deliveredAt,omitempty"`
	Events            []TrackingEvent `json:"events"`
	RawResponse       json.RawMessage `json:"-"`
}

// CancelResult reports a void or cancellation.
type CancelResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ============================================================================
// Request Types
// ============================================================================

// ShippingRequest is the carrier-agnostic description of a shipment.
type ShippingRequest struct {
	Shipper   Party     `json:"shipper"`
	Recipient Party     `json:"recipient"`
	Packages  []Package `json:"packages" validate:"required,min=1,dive"`
}

// CreateShipmentRequest asks a carrier to purchase a label.
type CreateShipmentRequest struct {
	ShippingRequest
	ServiceCode string `json:"serviceCode"`
	Reference   string `json:"reference,omitempty"`
}

// PickupRequest asks a carrier to collect a labelled shipment.
type PickupRequest struct {
	TrackingNumber string    `json:"trackingNumber"`
	ServiceCode    string    `json:"serviceCode"`
	PickupDate     string    `json:"pickupDate"` // YYYY-MM-DD
	ReadyTime      string    `json:"readyTime"`  // HH:MM
	CloseTime      string    `json:"closeTime"`  // HH:MM
	Address        Party     `json:"address"`
	Packages       []Package `json:"packages"`
}

// CancelPickupRequest identifies a scheduled pickup to cancel.
type CancelPickupRequest struct {
	ConfirmationNumber string `json:"confirmationNumber"`
	PickupDate         string `json:"pickupDate,omitempty"`
	ServiceCode        string `json:"serviceCode,omitempty"`
	Location           string `json:"location,omitempty"`
}
