// Package fedex provides integration with the FedEx REST APIs.
package fedex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tournevent/shipbridge/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const (
	trackingURLPrefix = "https://www.fedex.com/fedextrack/?trknbr="
	weightUnit        = "LB"
	dimensionUnit     = "IN"
	defaultService    = "FEDEX_GROUND"

	// Pickup carrier codes.
	CarrierCodeGround  = "FDXG"
	CarrierCodeExpress = "FDXE"

	extensionTrackingClientID     = "tracking_client_id"
	extensionTrackingClientSecret = "tracking_client_secret"
)

var serviceNames = map[string]string{
	"FEDEX_GROUND":           "FedEx Ground",
	"GROUND_HOME_DELIVERY":   "FedEx Home Delivery",
	"SMART_POST":             "FedEx Ground Economy",
	"FEDEX_EXPRESS_SAVER":    "FedEx Express Saver",
	"FEDEX_2_DAY":            "FedEx 2Day",
	"FEDEX_2_DAY_AM":         "FedEx 2Day A.M.",
	"STANDARD_OVERNIGHT":     "FedEx Standard Overnight",
	"PRIORITY_OVERNIGHT":     "FedEx Priority Overnight",
	"FIRST_OVERNIGHT":        "FedEx First Overnight",
	"INTERNATIONAL_ECONOMY":  "FedEx International Economy",
	"INTERNATIONAL_PRIORITY": "FedEx International Priority",
}

// ServiceName returns the display name for a FedEx service type.
func ServiceName(serviceType string) string {
	if name, ok := serviceNames[serviceType]; ok {
		return name
	}
	return "FedEx " + strings.ReplaceAll(serviceType, "_", " ")
}

// groundServices are the service fragments collected by FedEx Ground.
var groundServices = []string{"GROUND", "HOME_DELIVERY", "SMART_POST"}

// PickupCarrierCode returns the pickup carrier code for a service code.
// Ground-type services are collected by FDXG; everything else, including
// unknown or empty codes, by FDXE.
func PickupCarrierCode(serviceCode string) string {
	code := strings.ToUpper(strings.TrimSpace(serviceCode))
	for _, s := range groundServices {
		if strings.Contains(code, s) {
			return CarrierCodeGround
		}
	}
	return CarrierCodeExpress
}

// Config holds FedEx configuration.
type Config struct {
	BaseURL              string
	ClientID             string
	ClientSecret         string
	TrackingClientID     string
	TrackingClientSecret string
	AccountNumber        string
	UseMock              bool
	AuthTimeout          time.Duration
	RequestTimeout       time.Duration
}

// ConfigFromSettings derives the adapter configuration from persisted settings.
func ConfigFromSettings(s *shipper.CarrierSettings) Config {
	return Config{
		BaseURL:              s.BaseURL(),
		ClientID:             s.ClientID,
		ClientSecret:         s.ClientSecret,
		TrackingClientID:     s.Extension(extensionTrackingClientID),
		TrackingClientSecret: s.Extension(extensionTrackingClientSecret),
		AccountNumber:        s.AccountNumber,
	}
}

// Client is the FedEx shipper client.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// Factory builds a FedEx adapter for the registry.
func Factory(settings *shipper.CarrierSettings, deps shipper.Deps) (shipper.Shipper, error) {
	cfg := ConfigFromSettings(settings)
	cfg.UseMock = deps.UseMock
	cfg.AuthTimeout = deps.AuthTimeout
	cfg.RequestTimeout = deps.RequestTimeout
	if !cfg.UseMock && (cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.BaseURL == "") {
		return nil, fmt.Errorf("%w: FedEx credentials or API URL missing", shipper.ErrCarrierNotConfigured)
	}
	return New(cfg, deps), nil
}

// New creates a new FedEx client.
func New(cfg Config, deps shipper.Deps) *Client {
	deps = deps.WithDefaults()

	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:              cfg.BaseURL,
			ClientID:             cfg.ClientID,
			ClientSecret:         cfg.ClientSecret,
			TrackingClientID:     cfg.TrackingClientID,
			TrackingClientSecret: cfg.TrackingClientSecret,
			HTTPClient:           deps.HTTPClient,
			TokenCache:           deps.TokenCache,
			Logger:               deps.Logger,
			AuthTimeout:          cfg.AuthTimeout,
			RequestTimeout:       cfg.RequestTimeout,
		})
	}

	return NewWithAPIClient(cfg, apiClient, deps.Logger, deps.Tracer)
}

// NewWithAPIClient creates a new FedEx client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("fedex")
	}
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// Carrier returns the carrier identifier.
func (c *Client) Carrier() shipper.CarrierID {
	return shipper.CarrierFedEx
}

// GetRates returns every service FedEx quotes for the shipment.
func (c *Client) GetRates(ctx context.Context, req *shipper.ShippingRequest) (quotes []shipper.RateQuote, err error) {
	ctx, span := shipper.StartSpan(ctx, c.tracer, shipper.CarrierFedEx, "GetRates")
	defer func() { shipper.EndSpan(span, err) }()

	c.logger.Ctx(ctx).Info("Getting FedEx rates",
		zap.String("origin_postal", req.Shipper.Address.PostalCode),
		zap.String("destination_postal", req.Recipient.Address.PostalCode),
		zap.Int("package_count", len(req.Packages)),
	)

	apiReq := &RateRequest{
		AccountNumber:                AccountNumber{Value: c.config.AccountNumber},
		RateRequestControlParameters: RateRequestControlParameters{ReturnTransitTimes: true},
		RequestedShipment: RateRequestedShipment{
			Shipper:                   Party{Address: addressToAPI(req.Shipper.Address)},
			Recipient:                 Party{Address: addressToAPI(req.Recipient.Address)},
			PickupType:                "DROPOFF_AT_FEDEX_LOCATION",
			RateRequestType:           []string{"ACCOUNT", "LIST"},
			RequestedPackageLineItems: packagesToAPI(req.Packages, ""),
		},
	}

	apiResp, err := c.apiClient.GetRates(ctx, apiReq)
	if err != nil {
		c.logger.Ctx(ctx).Error("FedEx API error", zap.String("operation", "GetRates"), zap.Error(err))
		return nil, err
	}

	quotes = make([]shipper.RateQuote, 0, len(apiResp.Output.RateReplyDetails))
	for _, d := range apiResp.Output.RateReplyDetails {
		quotes = append(quotes, rateDetailToQuote(d))
	}
	return quotes, nil
}

// CreateShipment purchases a FedEx label.
func (c *Client) CreateShipment(ctx context.Context, req *shipper.CreateShipmentRequest) (result *shipper.ShipmentResult, err error) {
	ctx, span := shipper.StartSpan(ctx, c.tracer, shipper.CarrierFedEx, "CreateShipment")
	defer func() { shipper.EndSpan(span, err) }()

	serviceType := req.ServiceCode
	if serviceType == "" {
		serviceType = defaultService
	}

	c.logger.Ctx(ctx).Info("Creating FedEx shipment",
		zap.String("service_code", serviceType),
		zap.String("recipient", req.Recipient.Name),
		zap.Int("package_count", len(req.Packages)),
	)

	apiReq := &ShipRequest{
		LabelResponseOptions: "LABEL",
		AccountNumber:        AccountNumber{Value: c.config.AccountNumber},
		RequestedShipment: ShipRequestedShipment{
			Shipper:                   partyToAPI(req.Shipper),
			Recipients:                []Party{partyToAPI(req.Recipient)},
			ShipDatestamp:             time.Now().Format("2006-01-02"),
			ServiceType:               serviceType,
			PackagingType:             "YOUR_PACKAGING",
			PickupType:                "USE_SCHEDULED_PICKUP",
			ShippingChargesPayment:    ShippingChargesPayment{PaymentType: "SENDER"},
			LabelSpecification:        LabelSpecification{ImageType: "PDF", LabelStockType: "PAPER_85X11_TOP_HALF_LABEL"},
			RequestedPackageLineItems: packagesToAPI(req.Packages, req.Reference),
		},
	}

	apiResp, err := c.apiClient.CreateShipment(ctx, apiReq)
	if err != nil {
		c.logger.Ctx(ctx).Error("FedEx API error", zap.String("operation", "CreateShipment"), zap.Error(err))
		return nil, err
	}

	result, err = shipResponseToShipper(apiResp, serviceType)
	if err != nil {
		return nil, err
	}

	c.logger.Ctx(ctx).Info("FedEx shipment created",
		zap.String("tracking_number", result.TrackingNumber),
		zap.Float64("total_cost", result.TotalCost),
	)
	return result, nil
}

// SchedulePickup books a FedEx pickup. The carrier code follows the
// shipment's service.
func (c *Client) SchedulePickup(ctx context.Context, req *shipper.PickupRequest) (result *shipper.PickupResult, err error) {
	ctx, span := shipper.StartSpan(ctx, c.tracer, shipper.CarrierFedEx, "SchedulePickup")
	defer func() { shipper.EndSpan(span, err) }()

	ready, closing, err := pickupWindow(req)
	if err != nil {
		return nil, err
	}

	carrierCode := PickupCarrierCode(req.ServiceCode)
	c.logger.Ctx(ctx).Info("Scheduling FedEx pickup",
		zap.String("tracking_number", req.TrackingNumber),
		zap.String("pickup_date", req.PickupDate),
		zap.String("carrier_code", carrierCode),
	)

	apiReq := &PickupRequest{
		AssociatedAccountNumber: AccountNumber{Value: c.config.AccountNumber},
		OriginDetail: OriginDetail{
			PickupLocation:     partyToAPI(req.Address),
			ReadyDateTimestamp: ready,
			CustomerCloseTime:  closing,
			PackageLocation:    "FRONT",
		},
		CarrierCode:    carrierCode,
		TotalWeight:    Weight{Units: weightUnit, Value: shipper.TotalWeight(req.Packages)},
		PackageCount:   max(len(req.Packages), 1),
		TrackingNumber: req.TrackingNumber,
	}

	apiResp, err := c.apiClient.CreatePickup(ctx, apiReq)
	if err != nil {
		c.logger.Ctx(ctx).Error("FedEx API error", zap.String("operation", "SchedulePickup"), zap.Error(err))
		return nil, err
	}

	if apiResp.Output.PickupConfirmationCode == "" {
		return nil, shipper.NewAPIError(shipper.CarrierFedEx, http.StatusOK, "FedEx pickup response has no confirmation code")
	}

	return &shipper.PickupResult{
		ConfirmationNumber: apiResp.Output.PickupConfirmationCode,
		Location:           apiResp.Output.Location,
		RawResponse:        rawOrMarshal(apiResp.Raw, apiResp),
	}, nil
}

// TrackShipment returns the normalized tracking state of a FedEx shipment.
func (c *Client) TrackShipment(ctx context.Context, trackingNumber string) (result *shipper.TrackingResult, err error) {
	ctx, span := shipper.StartSpan(ctx, c.tracer, shipper.CarrierFedEx, "TrackShipment")
	defer func() { shipper.EndSpan(span, err) }()

	c.logger.Ctx(ctx).Info("Tracking FedEx shipment", zap.String("tracking_number", trackingNumber))

	apiResp, err := c.apiClient.Track(ctx, &TrackRequest{
		IncludeDetailedScans: true,
		TrackingInfo:         []TrackingInfo{{TrackingNumberInfo: TrackingNumberInfo{TrackingNumber: trackingNumber}}},
	})
	if err != nil {
		c.logger.Ctx(ctx).Error("FedEx API error", zap.String("operation", "TrackShipment"), zap.Error(err))
		return nil, err
	}

	return trackResponseToShipper(apiResp, trackingNumber)
}

// CancelShipment voids a FedEx shipment and all its packages.
func (c *Client) CancelShipment(ctx context.Context, trackingNumber string) (result *shipper.CancelResult, err error) {
	ctx, span := shipper.StartSpan(ctx, c.tracer, shipper.CarrierFedEx, "CancelShipment")
	defer func() { shipper.EndSpan(span, err) }()

	c.logger.Ctx(ctx).Info("Cancelling FedEx shipment", zap.String("tracking_number", trackingNumber))

	apiResp, err := c.apiClient.CancelShipment(ctx, &CancelShipmentRequest{
		AccountNumber:   AccountNumber{Value: c.config.AccountNumber},
		TrackingNumber:  trackingNumber,
		DeletionControl: "DELETE_ALL_PACKAGES",
	})
	if err != nil {
		c.logger.Ctx(ctx).Error("FedEx API error", zap.String("operation", "CancelShipment"), zap.Error(err))
		return nil, err
	}

	if !apiResp.Output.CancelledShipment {
		msg := firstNonEmpty(apiResp.Output.Message, "FedEx did not cancel shipment "+trackingNumber)
		return nil, shipper.NewAPIError(shipper.CarrierFedEx, http.StatusOK, msg)
	}

	return &shipper.CancelResult{Success: true, Message: apiResp.Output.SuccessMessage}, nil
}

// CancelPickup cancels a FedEx pickup.
func (c *Client) CancelPickup(ctx context.Context, req *shipper.CancelPickupRequest) (result *shipper.CancelResult, err error) {
	ctx, span := shipper.StartSpan(ctx, c.tracer, shipper.CarrierFedEx, "CancelPickup")
	defer func() { shipper.EndSpan(span, err) }()

	if req.ConfirmationNumber == "" {
		return nil, fmt.Errorf("%w: pickup confirmation number is required", shipper.ErrInvalidRequest)
	}

	c.logger.Ctx(ctx).Info("Cancelling FedEx pickup",
		zap.String("confirmation", req.ConfirmationNumber),
		zap.String("pickup_date", req.PickupDate),
	)

	apiResp, err := c.apiClient.CancelPickup(ctx, &CancelPickupRequest{
		AssociatedAccountNumber: AccountNumber{Value: c.config.AccountNumber},
		PickupConfirmationCode:  req.ConfirmationNumber,
		ScheduledDate:           req.PickupDate,
		Location:                req.Location,
		CarrierCode:             PickupCarrierCode(req.ServiceCode),
	})
	if err != nil {
		c.logger.Ctx(ctx).Error("FedEx API error", zap.String("operation", "CancelPickup"), zap.Error(err))
		return nil, err
	}

	return &shipper.CancelResult{Success: true, Message: apiResp.Output.CancelConfirmationMessage}, nil
}

// Ensure Client implements shipper.Shipper interface
var _ shipper.Shipper = (*Client)(nil)

// ============================================================================
// Conversion helpers
// ============================================================================

func addressToAPI(a shipper.Address) Address {
	lines := make([]string, 0, 2)
	for _, l := range []string{a.Line1, a.Line2} {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	country := strings.ToUpper(a.Country)
	if country == "" {
		country = "US"
	}
	return Address{
		StreetLines:         lines,
		City:                a.City,
		StateOrProvinceCode: a.State,
		PostalCode:          a.PostalCode,
		CountryCode:         country,
	}
}

func partyToAPI(p shipper.Party) Party {
	return Party{
		Contact: &Contact{
			PersonName:   p.Name,
			CompanyName:  p.Company,
			PhoneNumber:  p.Phone,
			EmailAddress: p.Email,
		},
		Address: addressToAPI(p.Address),
	}
}

func packagesToAPI(pkgs []shipper.Package, reference string) []PackageLineItem {
	out := make([]PackageLineItem, 0, len(pkgs))
	for _, p := range pkgs {
		item := PackageLineItem{Weight: Weight{Units: weightUnit, Value: p.Weight}}
		if p.Length > 0 || p.Width > 0 || p.Height > 0 {
			item.Dimensions = &Dimensions{Length: p.Length, Width: p.Width, Height: p.Height, Units: dimensionUnit}
		}
		if reference != "" {
			item.CustomerReferences = []CustomerReference{{CustomerReferenceType: "CUSTOMER_REFERENCE", Value: reference}}
		}
		out = append(out, item)
	}
	return out
}

// accountRate picks the ACCOUNT rate detail, else the first.
func accountRate(details []RatedShipmentDetail) (RatedShipmentDetail, bool) {
	for _, d := range details {
		if d.RateType == "ACCOUNT" {
			return d, true
		}
	}
	if len(details) > 0 {
		return details[0], true
	}
	return RatedShipmentDetail{}, false
}

func rateDetailToQuote(d RateReplyDetail) shipper.RateQuote {
	q := shipper.RateQuote{
		ServiceCode:       d.ServiceType,
		ServiceName:       firstNonEmpty(d.ServiceName, ServiceName(d.ServiceType)),
		EstimatedDelivery: estimatedDelivery(d),
	}
	if rated, ok := accountRate(d.RatedShipmentDetails); ok {
		q.Cost = rated.TotalNetCharge
		q.Currency = rated.Currency
	}
	return q
}

// estimatedDelivery prefers the committed day, then the transit time enum,
// then the transit days description.
func estimatedDelivery(d RateReplyDetail) string {
	if d.Commit != nil && d.Commit.DateDetail != nil && d.Commit.DateDetail.DayFormat != "" {
		day, _, _ := strings.Cut(d.Commit.DateDetail.DayFormat, "T")
		return day
	}
	if d.OperationalDetail != nil {
		if s := transitTimeText(d.OperationalDetail.TransitTime); s != "" {
			return s
		}
	}
	if d.Commit != nil && d.Commit.TransitDays != nil && d.Commit.TransitDays.Description != "" {
		return d.Commit.TransitDays.Description
	}
	return shipper.EstimateUnavailable
}

var numberWords = map[string]int{
	"ONE": 1, "TWO": 2, "THREE": 3, "FOUR": 4, "FIVE": 5, "SIX": 6, "SEVEN": 7,
	"EIGHT": 8, "NINE": 9, "TEN": 10, "ELEVEN": 11, "TWELVE": 12, "THIRTEEN": 13,
	"FOURTEEN": 14, "FIFTEEN": 15, "SIXTEEN": 16, "SEVENTEEN": 17, "EIGHTEEN": 18,
	"NINETEEN": 19, "TWENTY": 20,
}

// transitTimeText turns THREE_DAYS into "3 days".
func transitTimeText(enum string) string {
	enum = strings.ToUpper(strings.TrimSpace(enum))
	if enum == "" || enum == "UNKNOWN" {
		return ""
	}
	word, ok := strings.CutSuffix(enum, "_DAYS")
	if !ok {
		word, ok = strings.CutSuffix(enum, "_DAY")
	}
	if ok {
		if n, known := numberWords[word]; known {
			if n == 1 {
				return "1 day"
			}
			return fmt.Sprintf("%d days", n)
		}
	}
	return strings.ToLower(strings.ReplaceAll(enum, "_", " "))
}

func shipResponseToShipper(resp *ShipResponse, serviceType string) (*shipper.ShipmentResult, error) {
	if len(resp.Output.TransactionShipments) == 0 {
		return nil, shipper.NewAPIError(shipper.CarrierFedEx, http.StatusOK, "FedEx ship response has no shipment")
	}
	ts := resp.Output.TransactionShipments[0]

	trackingNumber := ts.MasterTrackingNumber
	label := shipper.Label{Format: shipper.LabelPDF}
	if len(ts.PieceResponses) > 0 {
		piece := ts.PieceResponses[0]
		if trackingNumber == "" {
			trackingNumber = piece.TrackingNumber
		}
		for _, doc := range piece.PackageDocuments {
			if doc.EncodedLabel != "" || doc.URL != "" {
				label.Data = doc.EncodedLabel
				label.URL = doc.URL
				if strings.EqualFold(doc.DocType, "ZPLII") {
					label.Format = shipper.LabelZPL
				} else if strings.EqualFold(doc.DocType, "PNG") {
					label.Format = shipper.LabelPNG
				}
				break
			}
		}
	}
	if trackingNumber == "" {
		return nil, shipper.NewAPIError(shipper.CarrierFedEx, http.StatusOK, "FedEx ship response has no tracking number")
	}

	result := &shipper.ShipmentResult{
		TrackingNumber: trackingNumber,
		TrackingURL:    trackingURLPrefix + trackingNumber,
		Label:          label,
		ServiceCode:    firstNonEmpty(ts.ServiceType, serviceType),
		ServiceName:    firstNonEmpty(ts.ServiceName, ServiceName(serviceType)),
		RawResponse:    rawOrMarshal(resp.Raw, resp),
	}
	if ts.CompletedShipmentDetail != nil && ts.CompletedShipmentDetail.ShipmentRating != nil {
		if rated, ok := accountRate(ts.CompletedShipmentDetail.ShipmentRating.ShipmentRateDetails); ok {
			result.ShippingCost = rated.TotalBaseCharge
			result.TotalCost = rated.TotalNetCharge
			result.Currency = rated.Currency
			if result.ShippingCost == 0 {
				result.ShippingCost = rated.TotalNetCharge
			}
		}
	}
	return result, nil
}

func trackResponseToShipper(resp *TrackResponse, trackingNumber string) (*shipper.TrackingResult, error) {
	results := resp.Output.CompleteTrackResults
	if len(results) == 0 || len(results[0].TrackResults) == 0 {
		return nil, shipper.NewAPIError(shipper.CarrierFedEx, http.StatusNotFound, "no tracking information for "+trackingNumber)
	}
	tr := results[0].TrackResults[0]
	if tr.Error != nil {
		msg := tr.Error.Message
		if tr.Error.Code != "" {
			msg = tr.Error.Code + ": " + msg
		}
		return nil, shipper.NewAPIError(shipper.CarrierFedEx, http.StatusNotFound, msg)
	}

	events := make([]shipper.TrackingEvent, 0, len(tr.ScanEvents))
	for _, ev := range tr.ScanEvents {
		e := shipper.TrackingEvent{
			Timestamp:   parseFedExTime(ev.Date),
			Description: ev.EventDescription,
			Status:      shipper.NormalizeTrackingStatus(ev.EventDescription),
		}
		if ev.ScanLocation != nil {
			e.Location = joinNonEmpty(", ", ev.ScanLocation.City, ev.ScanLocation.StateOrProvinceCode, ev.ScanLocation.CountryCode)
		}
		events = append(events, e)
	}

	description := ""
	if tr.LatestStatusDetail != nil {
		description = firstNonEmpty(tr.LatestStatusDetail.Description, tr.LatestStatusDetail.StatusByLocale)
	}
	if description == "" && len(tr.ScanEvents) > 0 {
		description = tr.ScanEvents[0].EventDescription
	}

	result := &shipper.TrackingResult{
		TrackingNumber:    firstNonEmpty(results[0].TrackingNumber, trackingNumber),
		Status:            shipper.NormalizeTrackingStatus(description),
		StatusDescription: description,
		Events:            events,
		RawResponse:       rawOrMarshal(resp.Raw, resp),
	}

	if result.Status == shipper.StatusDelivered {
		for _, dt := range tr.DateAndTimes {
			if dt.Type == "ACTUAL_DELIVERY" {
				result.DeliveredAt = parseFedExTime(dt.DateTime)
				break
			}
		}
		if result.DeliveredAt == nil && len(events) > 0 {
			result.DeliveredAt = events[0].Timestamp
		}
	}
	return result, nil
}

func parseFedExTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// pickupWindow converts YYYY-MM-DD and HH:MM into the FedEx ready timestamp
// and close time.
func pickupWindow(req *shipper.PickupRequest) (ready, closing string, err error) {
	d, err := time.Parse("2006-01-02 15:04", req.PickupDate+" "+req.ReadyTime)
	if err != nil {
		return "", "", fmt.Errorf("%w: pickup date %q and ready time %q must be YYYY-MM-DD and HH:MM",
			shipper.ErrInvalidRequest, req.PickupDate, req.ReadyTime)
	}
	cl, err := time.Parse("15:04", req.CloseTime)
	if err != nil {
		return "", "", fmt.Errorf("%w: close time %q must be HH:MM", shipper.ErrInvalidRequest, req.CloseTime)
	}
	return d.Format("2006-01-02T15:04:05"), cl.Format("15:04:05"), nil
}

func rawOrMarshal(raw json.RawMessage, v any) json.RawMessage {
	if len(raw) > 0 {
		return raw
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}
