package ups

import (
	"bytes"
	"context"
	"encoding/json"
)

// APIClient defines the UPS REST operations used by the adapter.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GetRates calls Rating in Shoptimeintransit mode
	GetRates(ctx context.Context, req *RateRequestEnvelope) (*RateResponseEnvelope, error)

	// CreateShipment purchases a label
	CreateShipment(ctx context.Context, req *ShipmentRequestEnvelope) (*ShipmentResponseEnvelope, error)

	// SchedulePickup books a pickup and returns its PRN
	SchedulePickup(ctx context.Context, req *PickupCreationRequestEnvelope) (*PickupCreationResponseEnvelope, error)

	// Track retrieves tracking details
	Track(ctx context.Context, trackingNumber string) (*TrackResponseEnvelope, error)

	// CancelPickup cancels a pickup by PRN
	CancelPickup(ctx context.Context, prn string) (*PickupCancelResponseEnvelope, error)
}

// OneOrMany decodes a JSON value that UPS sends as an object when there is
// a single element and as an array otherwise.
type OneOrMany[T any] []T

// UnmarshalJSON implements json.Unmarshaler.
func (o *OneOrMany[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*o = nil
		return nil
	}
	if b[0] == '[' {
		var many []T
		if err := json.Unmarshal(b, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}
	var one T
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*o = OneOrMany[T]{one}
	return nil
}

// ============================================================================
// Shared types
// ============================================================================

// CodeDescription is the UPS {Code, Description} pair.
type CodeDescription struct {
	Code        string `json:"Code"`
	Description string `json:"Description,omitempty"`
}

// Address is a UPS postal address.
type Address struct {
	AddressLine       []string `json:"AddressLine"`
	City              string   `json:"City"`
	StateProvinceCode string   `json:"StateProvinceCode"`
	PostalCode        string   `json:"PostalCode"`
	CountryCode       string   `json:"CountryCode"`
}

// Phone is a UPS phone number.
type Phone struct {
	Number string `json:"Number"`
}

// Party is a UPS shipper, ship-to or ship-from block.
type Party struct {
	Name          string  `json:"Name"`
	AttentionName string  `json:"AttentionName,omitempty"`
	ShipperNumber string  `json:"ShipperNumber,omitempty"`
	Phone         *Phone  `json:"Phone,omitempty"`
	EMailAddress  string  `json:"EMailAddress,omitempty"`
	Address       Address `json:"Address"`
}

// UnitOfMeasurement is a UPS unit code (LBS, IN).
type UnitOfMeasurement struct {
	Code string `json:"Code"`
}

// Dimensions holds package dimensions as strings, as UPS expects.
type Dimensions struct {
	UnitOfMeasurement UnitOfMeasurement `json:"UnitOfMeasurement"`
	Length            string            `json:"Length"`
	Width             string            `json:"Width"`
	Height            string            `json:"Height"`
}

// Weight is a UPS weight.
type Weight struct {
	UnitOfMeasurement UnitOfMeasurement `json:"UnitOfMeasurement"`
	Weight            string            `json:"Weight"`
}

// Package is a UPS package block. Rating names the packaging field
// PackagingType while Shipping names it Packaging.
type Package struct {
	PackagingType *CodeDescription `json:"PackagingType,omitempty"`
	Packaging     *CodeDescription `json:"Packaging,omitempty"`
	Dimensions    Dimensions       `json:"Dimensions"`
	PackageWeight Weight           `json:"PackageWeight"`
}

// BillShipper bills the shipper's account.
type BillShipper struct {
	AccountNumber string `json:"AccountNumber"`
}

// ShipmentCharge is one payment line.
type ShipmentCharge struct {
	Type        string      `json:"Type"`
	BillShipper BillShipper `json:"BillShipper"`
}

// Charges is a monetary amount.
type Charges struct {
	CurrencyCode  string `json:"CurrencyCode"`
	MonetaryValue string `json:"MonetaryValue"`
}

// ResponseStatus is the UPS response status block.
type ResponseStatus struct {
	Code        string `json:"Code"`
	Description string `json:"Description"`
}

// Response is the common UPS response header.
type Response struct {
	ResponseStatus ResponseStatus `json:"ResponseStatus"`
}

// ============================================================================
// Rating (POST /api/rating/v2409/Shoptimeintransit)
// ============================================================================

// RateRequestEnvelope wraps a rate request.
type RateRequestEnvelope struct {
	RateRequest RateRequest `json:"RateRequest"`
}

// RateRequest is a UPS rating request.
type RateRequest struct {
	Request  RequestInfo  `json:"Request"`
	Shipment RateShipment `json:"Shipment"`
}

// RequestInfo carries the request option and caller context.
type RequestInfo struct {
	RequestOption        string                `json:"RequestOption,omitempty"`
	TransactionReference *TransactionReference `json:"TransactionReference,omitempty"`
}

// TransactionReference echoes caller context.
type TransactionReference struct {
	CustomerContext string `json:"CustomerContext"`
}

// RateShipment describes the shipment to rate.
type RateShipment struct {
	Shipper                 Party                    `json:"Shipper"`
	ShipTo                  Party                    `json:"ShipTo"`
	ShipFrom                Party                    `json:"ShipFrom"`
	PaymentDetails          PaymentDetails           `json:"PaymentDetails"`
	ShipmentRatingOptions   *ShipmentRatingOptions   `json:"ShipmentRatingOptions,omitempty"`
	DeliveryTimeInformation *DeliveryTimeInformation `json:"DeliveryTimeInformation,omitempty"`
	ShipmentTotalWeight     *Weight                  `json:"ShipmentTotalWeight,omitempty"`
	Package                 []Package                `json:"Package"`
}

// PaymentDetails lists shipment charges on a rate request.
type PaymentDetails struct {
	ShipmentCharge []ShipmentCharge `json:"ShipmentCharge"`
}

// ShipmentRatingOptions requests negotiated rates.
type ShipmentRatingOptions struct {
	NegotiatedRatesIndicator string `json:"NegotiatedRatesIndicator,omitempty"`
}

// DeliveryTimeInformation asks for time-in-transit data.
type DeliveryTimeInformation struct {
	PackageBillType string      `json:"PackageBillType"`
	Pickup          *PickupDate `json:"Pickup,omitempty"`
}

// PickupDate is a YYYYMMDD date.
type PickupDate struct {
	Date string `json:"Date"`
}

// RateResponseEnvelope wraps a rate response.
type RateResponseEnvelope struct {
	RateResponse RateResponse    `json:"RateResponse"`
	Raw          json.RawMessage `json:"-"`
}

// RateResponse lists the rated services.
type RateResponse struct {
	Response      Response                 `json:"Response"`
	RatedShipment OneOrMany[RatedShipment] `json:"RatedShipment"`
}

// RatedShipment is one priced service.
type RatedShipment struct {
	Service               CodeDescription        `json:"Service"`
	TotalCharges          Charges                `json:"TotalCharges"`
	NegotiatedRateCharges *NegotiatedRateCharges `json:"NegotiatedRateCharges,omitempty"`
	GuaranteedDelivery    *GuaranteedDelivery    `json:"GuaranteedDelivery,omitempty"`
	TimeInTransit         *TimeInTransit         `json:"TimeInTransit,omitempty"`
}

// NegotiatedRateCharges holds account-specific pricing.
type NegotiatedRateCharges struct {
	TotalCharge Charges `json:"TotalCharge"`
}

// GuaranteedDelivery carries the guaranteed transit time.
type GuaranteedDelivery struct {
	BusinessDaysInTransit string `json:"BusinessDaysInTransit"`
	DeliveryByTime        string `json:"DeliveryByTime,omitempty"`
}

// TimeInTransit carries the estimated arrival.
type TimeInTransit struct {
	ServiceSummary OneOrMany[ServiceSummary] `json:"ServiceSummary"`
}

// ServiceSummary is the time-in-transit summary for one service.
type ServiceSummary struct {
	EstimatedArrival EstimatedArrival `json:"EstimatedArrival"`
}

// EstimatedArrival is the arrival estimate.
type EstimatedArrival struct {
	Arrival               ArrivalTime `json:"Arrival"`
	BusinessDaysInTransit string      `json:"BusinessDaysInTransit"`
}

// ArrivalTime is a YYYYMMDD date and HHMMSS time.
type ArrivalTime struct {
	Date string `json:"Date"`
	Time string `json:"Time"`
}

// ============================================================================
// Shipping (POST /api/shipments/v2409/ship)
// ============================================================================

// ShipmentRequestEnvelope wraps a ship request.
type ShipmentRequestEnvelope struct {
	ShipmentRequest ShipmentRequest `json:"ShipmentRequest"`
}

// ShipmentRequest is a UPS ship request.
type ShipmentRequest struct {
	Request            RequestInfo        `json:"Request"`
	Shipment           Shipment           `json:"Shipment"`
	LabelSpecification LabelSpecification `json:"LabelSpecification"`
}

// Shipment describes the shipment to purchase.
type Shipment struct {
	Description        string             `json:"Description,omitempty"`
	Shipper            Party              `json:"Shipper"`
	ShipTo             Party              `json:"ShipTo"`
	ShipFrom           Party              `json:"ShipFrom"`
	PaymentInformation PaymentInformation `json:"PaymentInformation"`
	Service            CodeDescription    `json:"Service"`
	ReferenceNumber    *ReferenceNumber   `json:"ReferenceNumber,omitempty"`
	Package            []Package          `json:"Package"`
}

// PaymentInformation lists shipment charges on a ship request.
type PaymentInformation struct {
	ShipmentCharge []ShipmentCharge `json:"ShipmentCharge"`
}

// ReferenceNumber is a caller reference printed on the label.
type ReferenceNumber struct {
	Value string `json:"Value"`
}

// LabelSpecification selects the label image format.
type LabelSpecification struct {
	LabelImageFormat CodeDescription `json:"LabelImageFormat"`
	HTTPUserAgent    string          `json:"HTTPUserAgent,omitempty"`
}

// ShipmentResponseEnvelope wraps a ship response.
type ShipmentResponseEnvelope struct {
	ShipmentResponse ShipmentResponse `json:"ShipmentResponse"`
	Raw              json.RawMessage  `json:"-"`
}

// ShipmentResponse carries the shipment results.
type ShipmentResponse struct {
	Response        Response        `json:"Response"`
	ShipmentResults ShipmentResults `json:"ShipmentResults"`
}

// ShipmentResults is the purchased shipment.
type ShipmentResults struct {
	ShipmentCharges              ShipmentCharges          `json:"ShipmentCharges"`
	NegotiatedRateCharges        *NegotiatedRateCharges   `json:"NegotiatedRateCharges,omitempty"`
	ShipmentIdentificationNumber string                   `json:"ShipmentIdentificationNumber"`
	PackageResults               OneOrMany[PackageResult] `json:"PackageResults"`
}

// ShipmentCharges breaks down the shipment cost.
type ShipmentCharges struct {
	TransportationCharges Charges `json:"TransportationCharges"`
	TotalCharges          Charges `json:"TotalCharges"`
}

// PackageResult is one labelled package.
type PackageResult struct {
	TrackingNumber string        `json:"TrackingNumber"`
	ShippingLabel  ShippingLabel `json:"ShippingLabel"`
}

// ShippingLabel is the base64 label image.
type ShippingLabel struct {
	ImageFormat  CodeDescription `json:"ImageFormat"`
	GraphicImage string          `json:"GraphicImage"`
}

// ============================================================================
// Pickup (POST /api/pickupcreation/v2409/pickup)
// ============================================================================

// PickupCreationRequestEnvelope wraps a pickup creation request.
type PickupCreationRequestEnvelope struct {
	PickupCreationRequest PickupCreationRequest `json:"PickupCreationRequest"`
}

// PickupCreationRequest books a pickup.
type PickupCreationRequest struct {
	RatePickupIndicator       string         `json:"RatePickupIndicator"`
	Shipper                   PickupShipper  `json:"Shipper"`
	PickupDateInfo            PickupDateInfo `json:"PickupDateInfo"`
	PickupAddress             PickupAddress  `json:"PickupAddress"`
	AlternateAddressIndicator string         `json:"AlternateAddressIndicator"`
	PickupPiece               []PickupPiece  `json:"PickupPiece"`
	TotalWeight               PickupWeight   `json:"TotalWeight"`
	OverweightIndicator       string         `json:"OverweightIndicator"`
	PaymentMethod             string         `json:"PaymentMethod"`
	TrackingData              []TrackingData `json:"TrackingData,omitempty"`
}

// PickupShipper identifies the paying account.
type PickupShipper struct {
	Account PickupAccount `json:"Account"`
}

// PickupAccount is the shipper account.
type PickupAccount struct {
	AccountNumber      string `json:"AccountNumber"`
	AccountCountryCode string `json:"AccountCountryCode"`
}

// PickupDateInfo holds the pickup window: YYYYMMDD and HHMM.
type PickupDateInfo struct {
	CloseTime  string `json:"CloseTime"`
	ReadyTime  string `json:"ReadyTime"`
	PickupDate string `json:"PickupDate"`
}

// PickupAddress is where the driver collects.
type PickupAddress struct {
	CompanyName          string   `json:"CompanyName"`
	ContactName          string   `json:"ContactName"`
	AddressLine          []string `json:"AddressLine"`
	City                 string   `json:"City"`
	StateProvince        string   `json:"StateProvince"`
	PostalCode           string   `json:"PostalCode"`
	CountryCode          string   `json:"CountryCode"`
	ResidentialIndicator string   `json:"ResidentialIndicator"`
	Phone                Phone    `json:"Phone"`
}

// PickupPiece is a count of packages of one service.
type PickupPiece struct {
	ServiceCode            string `json:"ServiceCode"`
	Quantity               string `json:"Quantity"`
	DestinationCountryCode string `json:"DestinationCountryCode"`
	ContainerCode          string `json:"ContainerCode"`
}

// PickupWeight is the total pickup weight.
type PickupWeight struct {
	Weight            string `json:"Weight"`
	UnitOfMeasurement string `json:"UnitOfMeasurement"`
}

// TrackingData links a pickup to a shipment.
type TrackingData struct {
	TrackingNumber string `json:"TrackingNumber"`
}

// PickupCreationResponseEnvelope wraps a pickup creation response.
type PickupCreationResponseEnvelope struct {
	PickupCreationResponse PickupCreationResponse `json:"PickupCreationResponse"`
	Raw                    json.RawMessage        `json:"-"`
}

// PickupCreationResponse carries the pickup request number.
type PickupCreationResponse struct {
	Response Response `json:"Response"`
	PRN      string   `json:"PRN"`
}

// PickupCancelResponseEnvelope wraps a pickup cancel response.
type PickupCancelResponseEnvelope struct {
	PickupCancelResponse PickupCancelResponse `json:"PickupCancelResponse"`
	Raw                  json.RawMessage      `json:"-"`
}

// PickupCancelResponse reports the cancellation.
type PickupCancelResponse struct {
	Response   Response `json:"Response"`
	PickupType string   `json:"PickupType,omitempty"`
}

// ============================================================================
// Tracking (GET /api/track/v1/details/{inquiryNumber})
// ============================================================================

// TrackResponseEnvelope wraps a tracking response.
type TrackResponseEnvelope struct {
	TrackResponse TrackResponse   `json:"trackResponse"`
	Raw           json.RawMessage `json:"-"`
}

// TrackResponse lists tracked shipments.
type TrackResponse struct {
	Shipment []TrackShipment `json:"shipment"`
}

// TrackShipment holds packages of one shipment.
type TrackShipment struct {
	InquiryNumber string         `json:"inquiryNumber"`
	Package       []TrackPackage `json:"package"`
}

// TrackPackage is the tracking state of one package.
type TrackPackage struct {
	TrackingNumber string          `json:"trackingNumber"`
	CurrentStatus  *TrackStatus    `json:"currentStatus,omitempty"`
	DeliveryDate   []DeliveryDate  `json:"deliveryDate,omitempty"`
	DeliveryTime   *DeliveryTime   `json:"deliveryTime,omitempty"`
	Activity       []TrackActivity `json:"activity"`
}

// TrackStatus is a UPS status.
type TrackStatus struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description"`
	Code        string `json:"code"`
}

// DeliveryDate is a typed YYYYMMDD date (DEL for delivered).
type DeliveryDate struct {
	Type string `json:"type"`
	Date string `json:"date"`
}

// DeliveryTime is the delivery time window end, HHMMSS.
type DeliveryTime struct {
	Type    string `json:"type"`
	EndTime string `json:"endTime"`
}

// TrackActivity is one scan.
type TrackActivity struct {
	Location *TrackLocation `json:"location,omitempty"`
	Status   TrackStatus    `json:"status"`
	Date     string         `json:"date"`
	Time     string         `json:"time"`
}

// TrackLocation is where a scan happened.
type TrackLocation struct {
	Address TrackAddress `json:"address"`
}

// TrackAddress is a scan address.
type TrackAddress struct {
	City          string `json:"city"`
	StateProvince string `json:"stateProvince"`
	Country       string `json:"country"`
}
