package fedex

import (
	"context"
	"encoding/json"
)

// APIClient defines the FedEx REST operations used by the adapter.
type APIClient interface {
	// GetRates fetches rate quotes with transit times
	GetRates(ctx context.Context, req *RateRequest) (*RateResponse, error)

	// CreateShipment purchases a label
	CreateShipment(ctx context.Context, req *ShipRequest) (*ShipResponse, error)

	// CreatePickup books a courier pickup
	CreatePickup(ctx context.Context, req *PickupRequest) (*PickupResponse, error)

	// Track retrieves tracking details; authenticates with the tracking credentials
	Track(ctx context.Context, req *TrackRequest) (*TrackResponse, error)

	// CancelShipment voids a shipment
	CancelShipment(ctx context.Context, req *CancelShipmentRequest) (*CancelShipmentResponse, error)

	// CancelPickup cancels a scheduled pickup
	CancelPickup(ctx context.Context, req *CancelPickupRequest) (*CancelPickupResponse, error)
}

// ============================================================================
// Shared types
// ============================================================================

// AccountNumber wraps the FedEx account value.
type AccountNumber struct {
	Value string `json:"value"`
}

// Address is a FedEx postal address.
type Address struct {
	StreetLines         []string `json:"streetLines,omitempty"`
	City                string   `json:"city,omitempty"`
	StateOrProvinceCode string   `json:"stateOrProvinceCode,omitempty"`
	PostalCode          string   `json:"postalCode"`
	CountryCode         string   `json:"countryCode"`
	Residential         bool     `json:"residential,omitempty"`
}

// Contact is the person or company at an address.
type Contact struct {
	PersonName   string `json:"personName,omitempty"`
	CompanyName  string `json:"companyName,omitempty"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// Party is a shipper or recipient.
type Party struct {
	Contact *Contact `json:"contact,omitempty"`
	Address Address  `json:"address"`
}

// Weight is a FedEx weight.
type Weight struct {
	Units string  `json:"units"`
	Value float64 `json:"value"`
}

// Dimensions are package dimensions.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Units  string  `json:"units"`
}

// CustomerReference is printed on the label.
type CustomerReference struct {
	CustomerReferenceType string `json:"customerReferenceType"`
	Value                 string `json:"value"`
}

// PackageLineItem is one package.
type PackageLineItem struct {
	Weight             Weight              `json:"weight"`
	Dimensions         *Dimensions         `json:"dimensions,omitempty"`
	CustomerReferences []CustomerReference `json:"customerReferences,omitempty"`
}

// ============================================================================
// Rates (POST /rate/v1/rates/quotes)
// ============================================================================

// RateRequest is a FedEx rate quote request.
type RateRequest struct {
	AccountNumber                AccountNumber                `json:"accountNumber"`
	RateRequestControlParameters RateRequestControlParameters `json:"rateRequestControlParameters"`
	RequestedShipment            RateRequestedShipment        `json:"requestedShipment"`
}

// RateRequestControlParameters toggles transit time data.
type RateRequestControlParameters struct {
	ReturnTransitTimes bool `json:"returnTransitTimes"`
}

// RateRequestedShipment describes what to rate.
type RateRequestedShipment struct {
	Shipper                   Party             `json:"shipper"`
	Recipient                 Party             `json:"recipient"`
	PickupType                string            `json:"pickupType"`
	RateRequestType           []string          `json:"rateRequestType"`
	RequestedPackageLineItems []PackageLineItem `json:"requestedPackageLineItems"`
}

// RateResponse is the FedEx rate reply.
type RateResponse struct {
	TransactionID string          `json:"transactionId"`
	Output        RateOutput      `json:"output"`
	Raw           json.RawMessage `json:"-"`
}

// RateOutput lists the quoted services.
type RateOutput struct {
	RateReplyDetails []RateReplyDetail `json:"rateReplyDetails"`
}

// RateReplyDetail is one quoted service.
type RateReplyDetail struct {
	ServiceType          string                `json:"serviceType"`
	ServiceName          string                `json:"serviceName"`
	RatedShipmentDetails []RatedShipmentDetail `json:"ratedShipmentDetails"`
	OperationalDetail    *OperationalDetail    `json:"operationalDetail,omitempty"`
	Commit               *Commit               `json:"commit,omitempty"`
}

// RatedShipmentDetail is the price for one rate type (ACCOUNT, LIST).
type RatedShipmentDetail struct {
	RateType        string  `json:"rateType"`
	TotalBaseCharge float64 `json:"totalBaseCharge"`
	TotalNetCharge  float64 `json:"totalNetCharge"`
	Currency        string  `json:"currency"`
}

// OperationalDetail carries the transit time enum (e.g. THREE_DAYS).
type OperationalDetail struct {
	TransitTime string `json:"transitTime"`
}

// Commit carries the committed delivery.
type Commit struct {
	DateDetail  *DateDetail  `json:"dateDetail,omitempty"`
	TransitDays *TransitDays `json:"transitDays,omitempty"`
}

// DateDetail is the committed delivery day.
type DateDetail struct {
	DayOfWeek string `json:"dayOfWeek,omitempty"`
	DayFormat string `json:"dayFormat"`
}

// TransitDays is a human description of transit time.
type TransitDays struct {
	Description string `json:"description"`
}

// ============================================================================
// Ship (POST /ship/v1/shipments)
// ============================================================================

// ShipRequest is a FedEx create shipment request.
type ShipRequest struct {
	LabelResponseOptions string                `json:"labelResponseOptions"`
	AccountNumber        AccountNumber         `json:"accountNumber"`
	RequestedShipment    ShipRequestedShipment `json:"requestedShipment"`
}

// ShipRequestedShipment describes the shipment to purchase.
type ShipRequestedShipment struct {
	Shipper                   Party                  `json:"shipper"`
	Recipients                []Party                `json:"recipients"`
	ShipDatestamp             string                 `json:"shipDatestamp"`
	ServiceType               string                 `json:"serviceType"`
	PackagingType             string                 `json:"packagingType"`
	PickupType                string                 `json:"pickupType"`
	ShippingChargesPayment    ShippingChargesPayment `json:"shippingChargesPayment"`
	LabelSpecification        LabelSpecification     `json:"labelSpecification"`
	RequestedPackageLineItems []PackageLineItem      `json:"requestedPackageLineItems"`
}

// ShippingChargesPayment selects the payer.
type ShippingChargesPayment struct {
	PaymentType string `json:"paymentType"`
}

// LabelSpecification selects the label format.
type LabelSpecification struct {
	ImageType      string `json:"imageType"`
	LabelStockType string `json:"labelStockType"`
}

// ShipResponse is the FedEx ship reply.
type ShipResponse struct {
	TransactionID string          `json:"transactionId"`
	Output        ShipOutput      `json:"output"`
	Raw           json.RawMessage `json:"-"`
}

// ShipOutput lists the created shipments.
type ShipOutput struct {
	TransactionShipments []TransactionShipment `json:"transactionShipments"`
}

// TransactionShipment is a created shipment.
type TransactionShipment struct {
	MasterTrackingNumber    string                   `json:"masterTrackingNumber"`
	ServiceType             string                   `json:"serviceType"`
	ServiceName             string                   `json:"serviceName"`
	PieceResponses          []PieceResponse          `json:"pieceResponses"`
	CompletedShipmentDetail *CompletedShipmentDetail `json:"completedShipmentDetail,omitempty"`
}

// PieceResponse is one labelled package.
type PieceResponse struct {
	TrackingNumber   string            `json:"trackingNumber"`
	PackageDocuments []PackageDocument `json:"packageDocuments"`
}

// PackageDocument is a label document.
type PackageDocument struct {
	ContentType  string `json:"contentType"`
	DocType      string `json:"docType"`
	EncodedLabel string `json:"encodedLabel,omitempty"`
	URL          string `json:"url,omitempty"`
}

// CompletedShipmentDetail carries the final rating.
type CompletedShipmentDetail struct {
	ShipmentRating *ShipmentRating `json:"shipmentRating,omitempty"`
}

// ShipmentRating lists rate details by rate type.
type ShipmentRating struct {
	ShipmentRateDetails []RatedShipmentDetail `json:"shipmentRateDetails"`
}

// ============================================================================
// Pickup (POST /pickup/v1/pickups, PUT /pickup/v1/pickups/cancel)
// ============================================================================

// PickupRequest is a FedEx create pickup request.
type PickupRequest struct {
	AssociatedAccountNumber AccountNumber `json:"associatedAccountNumber"`
	OriginDetail            OriginDetail  `json:"originDetail"`
	CarrierCode             string        `json:"carrierCode"`
	TotalWeight             Weight        `json:"totalWeight"`
	PackageCount            int           `json:"packageCount"`
	TrackingNumber          string        `json:"trackingNumber,omitempty"`
}

// OriginDetail is where and when to collect.
type OriginDetail struct {
	PickupLocation     Party  `json:"pickupLocation"`
	ReadyDateTimestamp string `json:"readyDateTimestamp"`
	CustomerCloseTime  string `json:"customerCloseTime"`
	PackageLocation    string `json:"packageLocation,omitempty"`
}

// PickupResponse is the FedEx pickup reply.
type PickupResponse struct {
	TransactionID string          `json:"transactionId"`
	Output        PickupOutput    `json:"output"`
	Raw           json.RawMessage `json:"-"`
}

// PickupOutput carries the confirmation and location code.
type PickupOutput struct {
	PickupConfirmationCode string `json:"pickupConfirmationCode"`
	Location               string `json:"location"`
}

// CancelPickupRequest cancels a pickup.
type CancelPickupRequest struct {
	AssociatedAccountNumber AccountNumber `json:"associatedAccountNumber"`
	PickupConfirmationCode  string        `json:"pickupConfirmationCode"`
	ScheduledDate           string        `json:"scheduledDate"`
	Location                string        `json:"location,omitempty"`
	CarrierCode             string        `json:"carrierCode"`
}

// CancelPickupResponse is the FedEx cancel pickup reply.
type CancelPickupResponse struct {
	TransactionID string             `json:"transactionId"`
	Output        CancelPickupOutput `json:"output"`
	Raw           json.RawMessage    `json:"-"`
}

// CancelPickupOutput carries the cancellation message.
type CancelPickupOutput struct {
	PickupConfirmationCode    string `json:"pickupConfirmationCode"`
	CancelConfirmationMessage string `json:"cancelConfirmationMessage"`
}

// ============================================================================
// Track (POST /track/v1/trackingnumbers)
// ============================================================================

// TrackRequest is a FedEx tracking request.
type TrackRequest struct {
	IncludeDetailedScans bool           `json:"includeDetailedScans"`
	TrackingInfo         []TrackingInfo `json:"trackingInfo"`
}

// TrackingInfo identifies one tracking number.
type TrackingInfo struct {
	TrackingNumberInfo TrackingNumberInfo `json:"trackingNumberInfo"`
}

// TrackingNumberInfo wraps the tracking number.
type TrackingNumberInfo struct {
	TrackingNumber string `json:"trackingNumber"`
}

// TrackResponse is the FedEx tracking reply.
type TrackResponse struct {
	TransactionID string          `json:"transactionId"`
	Output        TrackOutput     `json:"output"`
	Raw           json.RawMessage `json:"-"`
}

// TrackOutput lists results per tracking number.
type TrackOutput struct {
	CompleteTrackResults []CompleteTrackResult `json:"completeTrackResults"`
}

// CompleteTrackResult holds results for one tracking number.
type CompleteTrackResult struct {
	TrackingNumber string        `json:"trackingNumber"`
	TrackResults   []TrackResult `json:"trackResults"`
}

// TrackResult is the tracking state of one package.
type TrackResult struct {
	LatestStatusDetail *StatusDetail `json:"latestStatusDetail,omitempty"`
	DateAndTimes       []DateAndTime `json:"dateAndTimes,omitempty"`
	ScanEvents         []ScanEvent   `json:"scanEvents,omitempty"`
	Error              *TrackError   `json:"error,omitempty"`
}

// StatusDetail is a FedEx status.
type StatusDetail struct {
	Code           string `json:"code"`
	StatusByLocale string `json:"statusByLocale"`
	Description    string `json:"description"`
}

// DateAndTime is a typed timestamp (ACTUAL_DELIVERY, ...).
type DateAndTime struct {
	Type     string `json:"type"`
	DateTime string `json:"dateTime"`
}

// ScanEvent is one scan.
type ScanEvent struct {
	Date             string        `json:"date"`
	EventType        string        `json:"eventType"`
	EventDescription string        `json:"eventDescription"`
	ScanLocation     *ScanLocation `json:"scanLocation,omitempty"`
}

// ScanLocation is where a scan happened.
type ScanLocation struct {
	City                string `json:"city"`
	StateOrProvinceCode string `json:"stateOrProvinceCode"`
	CountryCode         string `json:"countryCode"`
}

// TrackError reports a per-number tracking failure.
type TrackError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ============================================================================
// Cancel shipment (PUT /ship/v1/shipments/cancel)
// ============================================================================

// CancelShipmentRequest voids a shipment.
type CancelShipmentRequest struct {
	AccountNumber   AccountNumber `json:"accountNumber"`
	TrackingNumber  string        `json:"trackingNumber"`
	DeletionControl string        `json:"deletionControl"`
}

// CancelShipmentResponse is the FedEx cancel reply.
type CancelShipmentResponse struct {
	TransactionID string               `json:"transactionId"`
	Output        CancelShipmentOutput `json:"output"`
	Raw           json.RawMessage      `json:"-"`
}

// CancelShipmentOutput reports whether the void took effect.
type CancelShipmentOutput struct {
	CancelledShipment bool   `json:"cancelledShipment"`
	SuccessMessage    string `json:"successMessage,omitempty"`
	Message           string `json:"message,omitempty"`
}
