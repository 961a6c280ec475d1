// Package ups provides integration with the UPS REST APIs.
package ups

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tournevent/shipbridge/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const (
	trackingURLPrefix = "https://www.ups.com/track?tracknum="
	weightUnit        = "LBS"
	dimensionUnit     = "IN"
	defaultService    = "03"
	// extensionMerchantID overrides the x-merchant-id header, which defaults
	// to the account number.
	extensionMerchantID = "merchant_id"
)

// serviceNames maps UPS service codes to display names.
var serviceNames = map[string]string{
	"01": "UPS Next Day Air",
	"02": "UPS 2nd Day Air",
	"03": "UPS Ground",
	"07": "UPS Worldwide Express",
	"08": "UPS Worldwide Expedited",
	"11": "UPS Standard",
	"12": "UPS 3 Day Select",
	"13": "UPS Next Day Air Saver",
	"14": "UPS Next Day Air Early",
	"59": "UPS 2nd Day Air A.M.",
	"65": "UPS Worldwide Saver",
}

// ServiceName returns the display name for a UPS service code.
func ServiceName(code string) string {
	if name, ok := serviceNames[code]; ok {
		return name
	}
	return "UPS Service " + code
}

// Config holds UPS configuration.
type Config struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	AccountNumber  string
	MerchantID     string
	UseMock        bool
	AuthTimeout    time.Duration
	RequestTimeout time.Duration
}

// ConfigFromSettings derives the adapter configuration from persisted settings.
func ConfigFromSettings(s *shipper.CarrierSettings) Config {
	merchantID := s.Extension(extensionMerchantID)
	if merchantID == "" {
		merchantID = s.AccountNumber
	}
	return Config{
		BaseURL:       s.BaseURL(),
		ClientID:      s.ClientID,
		ClientSecret:  s.ClientSecret,
		AccountNumber: s.AccountNumber,
		MerchantID:    merchantID,
	}
}

// Client is the UPS shipper client.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// Factory builds a UPS adapter for the registry.
func Factory(settings *shipper.CarrierSettings, deps shipper.Deps) (shipper.Shipper, error) {
	cfg := ConfigFromSettings(settings)
	cfg.UseMock = deps.UseMock
	cfg.AuthTimeout = deps.AuthTimeout
	cfg.RequestTimeout = deps.RequestTimeout
	if !cfg.UseMock && (cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.BaseURL == "") {
		return nil, fmt.Errorf("%w: UPS credentials or API URL missing", shipper.ErrCarrierNotConfigured)
	}
	return New(cfg, deps), nil
}

// New creates a new UPS client.
func New(cfg Config, deps shipper.Deps) *Client {
	deps = deps.WithDefaults()

	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:        cfg.BaseURL,
			ClientID:       cfg.ClientID,
			ClientSecret:   cfg.ClientSecret,
			MerchantID:     cfg.MerchantID,
			HTTPClient:     deps.HTTPClient,
			TokenCache:     deps.TokenCache,
			Logger:         deps.Logger,
			AuthTimeout:    cfg.AuthTimeout,
			RequestTimeout: cfg.RequestTimeout,
		})
	}

	return NewWithAPIClient(cfg, apiClient, deps.Logger, deps.Tracer)
}

// NewWithAPIClient creates a new UPS client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("ups")
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
	return shipper.CarrierUPS
}

// GetRates returns the services UPS offers for the shipment.
func (c *Client) GetRates(ctx context.Context, req *shipper.ShippingRequest) (quotes []shipper.RateQuote, err error) {
	ctx, span := shipper.StartSpan(ctx, c.tracer, shipper.CarrierUPS, "GetRates")
	defer func() { shipper.EndSpan(span, err) }()

	c.logger.Ctx(ctx).Info("Getting UPS rates",
		zap.String("origin_postal", req.Shipper.Address.PostalCode),
		zap.String("destination_postal", req.Recipient.Address.PostalCode),
		zap.Int("package_count", len(req.Packages)),
	)

	origin := c.partyToAPI(req.Shipper, true)
	apiReq := &RateRequestEnvelope{RateRequest: RateRequest{
		Request: RequestInfo{RequestOption: "Shoptimeintransit"},
		Shipment: RateShipment{
			Shipper:  origin,
			ShipTo:   c.partyToAPI(req.Recipient, false),
			ShipFrom: c.partyToAPI(req.Shipper, false),
			PaymentDetails: PaymentDetails{
				ShipmentCharge: []ShipmentCharge{c.billShipper()},
			},
			ShipmentRatingOptions: &ShipmentRatingOptions{NegotiatedRatesIndicator: "Y"},
			DeliveryTimeInformation: &DeliveryTimeInformation{
				PackageBillType: "03",
				Pickup:          &PickupDate{Date: time.Now().Format("20060102")},
			},
			ShipmentTotalWeight: &Weight{
				UnitOfMeasurement: UnitOfMeasurement{Code: weightUnit},
				Weight:            formatWeight(shipper.TotalWeight(req.Packages)),
			},
			Package: packagesToAPI(req.Packages, true),
		},
	}}

	apiResp, err := c.apiClient.GetRates(ctx, apiReq)
	if err != nil {
		c.logger.Ctx(ctx).Error("UPS API error", zap.String("operation", "GetRates"), zap.Error(err))
		return nil, err
	}

	quotes = make([]shipper.RateQuote, 0, len(apiResp.RateResponse.RatedShipment))
	for _, rs := range apiResp.RateResponse.RatedShipment {
		quotes = append(quotes, ratedShipmentToQuote(rs))
	}
	return quotes, nil
}

// CreateShipment purchases a UPS label.
func (c *Client) CreateShipment(ctx context.Context, req *shipper.CreateShipmentRequest) (result *shipper.ShipmentResult, err error) {
	ctx, span := shipper.StartSpan(ctx, c.tracer, shipper.CarrierUPS, "CreateShipment")
	defer func() { shipper.EndSpan(span, err) }()

	serviceCode := req.ServiceCode
	if serviceCode == "" {
		serviceCode = defaultService
	}

	c.logger.Ctx(ctx).Info("Creating UPS shipment",
		zap.String("service_code", serviceCode),
		zap.String("recipient", req.Recipient.Name),
		zap.Int("package_count", len(req.Packages)),
	)

	apiReq := &ShipmentRequestEnvelope{ShipmentRequest: ShipmentRequest{
		Request: RequestInfo{RequestOption: "nonvalidate"},
		Shipment: Shipment{
			Description: req.Reference,
			Shipper:     c.partyToAPI(req.Shipper, true),
			ShipTo:      c.partyToAPI(req.Recipient, false),
			ShipFrom:    c.partyToAPI(req.Shipper, false),
			PaymentInformation: PaymentInformation{
				ShipmentCharge: []ShipmentCharge{c.billShipper()},
			},
			Service: CodeDescription{Code: serviceCode, Description: ServiceName(serviceCode)},
			Package: packagesToAPI(req.Packages, false),
		},
		LabelSpecification: LabelSpecification{
			LabelImageFormat: CodeDescription{Code: "GIF", Description: "GIF"},
			HTTPUserAgent:    "Mozilla/4.5",
		},
	}}
	if req.Reference != "" {
		apiReq.ShipmentRequest.Shipment.ReferenceNumber = &ReferenceNumber{Value: req.Reference}
	}

	apiResp, err := c.apiClient.CreateShipment(ctx, apiReq)
	if err != nil {
		c.logger.Ctx(ctx).Error("UPS API error", zap.String("operation", "CreateShipment"), zap.Error(err))
		return nil, err
	}

	result, err = shipmentResponseToShipper(apiResp, serviceCode)
	if err != nil {
		return nil, err
	}

	c.logger.Ctx(ctx).Info("UPS shipment created",
		zap.String("tracking_number", result.TrackingNumber),
		zap.Float64("total_cost", result.TotalCost),
	)
	return result, nil
}

// SchedulePickup books a UPS pickup for a labelled shipment.
func (c *Client) SchedulePickup(ctx context.Context, req *shipper.PickupRequest) (result *shipper.PickupResult, err error) {
	ctx, span := shipper.StartSpan(ctx, c.tracer, shipper.CarrierUPS, "SchedulePickup")
	defer func() { shipper.EndSpan(span, err) }()

	date, ready, closing, err := pickupWindow(req)
	if err != nil {
		return nil, err
	}

	c.logger.Ctx(ctx).Info("Scheduling UPS pickup",
		zap.String("tracking_number", req.TrackingNumber),
		zap.String("pickup_date", req.PickupDate),
	)

	addr := req.Address.Address
	apiReq := &PickupCreationRequestEnvelope{PickupCreationRequest: PickupCreationRequest{
		RatePickupIndicator: "N",
		Shipper: PickupShipper{Account: PickupAccount{
			AccountNumber:      c.config.AccountNumber,
			AccountCountryCode: defaultCountry(addr.Country),
		}},
		PickupDateInfo: PickupDateInfo{CloseTime: closing, ReadyTime: ready, PickupDate: date},
		PickupAddress: PickupAddress{
			CompanyName:          firstNonEmpty(req.Address.Company, req.Address.Name),
			ContactName:          req.Address.Name,
			AddressLine:          addressLines(addr),
			City:                 addr.City,
			StateProvince:        addr.State,
			PostalCode:           addr.PostalCode,
			CountryCode:          defaultCountry(addr.Country),
			ResidentialIndicator: "N",
			Phone:                Phone{Number: req.Address.Phone},
		},
		AlternateAddressIndicator: "N",
		PickupPiece: []PickupPiece{{
			ServiceCode:            pickupServiceCode(req.ServiceCode),
			Quantity:               strconv.Itoa(max(len(req.Packages), 1)),
			DestinationCountryCode: defaultCountry(addr.Country),
			ContainerCode:          "01",
		}},
		TotalWeight: PickupWeight{
			Weight:            formatWeight(shipper.TotalWeight(req.Packages)),
			UnitOfMeasurement: weightUnit,
		},
		OverweightIndicator: "N",
		PaymentMethod:       "01",
		TrackingData:        []TrackingData{{TrackingNumber: req.TrackingNumber}},
	}}

	apiResp, err := c.apiClient.SchedulePickup(ctx, apiReq)
	if err != nil {
		c.logger.Ctx(ctx).Error("UPS API error", zap.String("operation", "SchedulePickup"), zap.Error(err))
		return nil, err
	}

	prn := apiResp.PickupCreationResponse.PRN
	if prn == "" {
		return nil, shipper.NewAPIError(shipper.CarrierUPS, http.StatusOK, "UPS pickup response has no PRN")
	}

	return &shipper.PickupResult{
		ConfirmationNumber: prn,
		RawResponse:        rawOrMarshal(apiResp.Raw, apiResp),
	}, nil
}

// TrackShipment returns the normalized tracking state of a UPS shipment.
func (c *Client) TrackShipment(ctx context.Context, trackingNumber string) (result *shipper.TrackingResult, err error) {
	ctx, span := shipper.StartSpan(ctx, c.tracer, shipper.CarrierUPS, "TrackShipment")
	defer func() { shipper.EndSpan(span, err) }()

	c.logger.Ctx(ctx).Info("Tracking UPS shipment", zap.String("tracking_number", trackingNumber))

	apiResp, err := c.apiClient.Track(ctx, trackingNumber)
	if err != nil {
		c.logger.Ctx(ctx).Error("UPS API error", zap.String("operation", "TrackShipment"), zap.Error(err))
		return nil, err
	}

	return trackResponseToShipper(apiResp, trackingNumber)
}

// CancelShipment is not offered for UPS; no request is sent.
func (c *Client) CancelShipment(ctx context.Context, trackingNumber string) (*shipper.CancelResult, error) {
	c.logger.Ctx(ctx).Warn("UPS shipment void requested", zap.String("tracking_number", trackingNumber))
	return nil, shipper.NewNotSupportedError(shipper.CarrierUPS, "CancelShipment")
}

// CancelPickup cancels a UPS pickup by its PRN.
func (c *Client) CancelPickup(ctx context.Context, req *shipper.CancelPickupRequest) (result *shipper.CancelResult, err error) {
	ctx, span := shipper.StartSpan(ctx, c.tracer, shipper.CarrierUPS, "CancelPickup")
	defer func() { shipper.EndSpan(span, err) }()

	if req.ConfirmationNumber == "" {
		return nil, fmt.Errorf("%w: pickup confirmation number is required", shipper.ErrInvalidRequest)
	}

	c.logger.Ctx(ctx).Info("Cancelling UPS pickup", zap.String("prn", req.ConfirmationNumber))

	apiResp, err := c.apiClient.CancelPickup(ctx, req.ConfirmationNumber)
	if err != nil {
		c.logger.Ctx(ctx).Error("UPS API error", zap.String("operation", "CancelPickup"), zap.Error(err))
		return nil, err
	}

	return &shipper.CancelResult{
		Success: true,
		Message: apiResp.PickupCancelResponse.Response.ResponseStatus.Description,
	}, nil
}

// Ensure Client implements shipper.Shipper interface
var _ shipper.Shipper = (*Client)(nil)

// ============================================================================
// Conversion helpers
// ============================================================================

func (c *Client) billShipper() ShipmentCharge {
	return ShipmentCharge{Type: "01", BillShipper: BillShipper{AccountNumber: c.config.AccountNumber}}
}

func (c *Client) partyToAPI(p shipper.Party, withAccount bool) Party {
	party := Party{
		Name:          firstNonEmpty(p.Company, p.Name),
		AttentionName: p.Name,
		EMailAddress:  p.Email,
		Address: Address{
			AddressLine:       addressLines(p.Address),
			City:              p.Address.City,
			StateProvinceCode: p.Address.State,
			PostalCode:        p.Address.PostalCode,
			CountryCode:       defaultCountry(p.Address.Country),
		},
	}
	if p.Phone != "" {
		party.Phone = &Phone{Number: p.Phone}
	}
	if withAccount {
		party.ShipperNumber = c.config.AccountNumber
	}
	return party
}

func packagesToAPI(pkgs []shipper.Package, rating bool) []Package {
	out := make([]Package, 0, len(pkgs))
	for _, p := range pkgs {
		pkg := Package{
			Dimensions: Dimensions{
				UnitOfMeasurement: UnitOfMeasurement{Code: dimensionUnit},
				Length:            formatMeasure(p.Length),
				Width:             formatMeasure(p.Width),
				Height:            formatMeasure(p.Height),
			},
			PackageWeight: Weight{
				UnitOfMeasurement: UnitOfMeasurement{Code: weightUnit},
				Weight:            formatWeight(p.Weight),
			},
		}
		packaging := &CodeDescription{Code: "02", Description: "Customer Supplied Package"}
		if rating {
			pkg.PackagingType = packaging
		} else {
			pkg.Packaging = packaging
		}
		out = append(out, pkg)
	}
	return out
}

func ratedShipmentToQuote(rs RatedShipment) shipper.RateQuote {
	charges := rs.TotalCharges
	if rs.NegotiatedRateCharges != nil && rs.NegotiatedRateCharges.TotalCharge.MonetaryValue != "" {
		charges = rs.NegotiatedRateCharges.TotalCharge
	}
	return shipper.RateQuote{
		ServiceCode:       rs.Service.Code,
		ServiceName:       ServiceName(rs.Service.Code),
		Cost:              parseMoney(charges.MonetaryValue),
		Currency:          charges.CurrencyCode,
		EstimatedDelivery: estimatedDelivery(rs),
	}
}

// estimatedDelivery prefers the time-in-transit arrival date, then its
// business-day count, then the guaranteed business days.
func estimatedDelivery(rs RatedShipment) string {
	if rs.TimeInTransit != nil && len(rs.TimeInTransit.ServiceSummary) > 0 {
		arrival := rs.TimeInTransit.ServiceSummary[0].EstimatedArrival
		if d := arrival.Arrival.Date; d != "" {
			if t, err := time.Parse("20060102", d); err == nil {
				return t.Format("2006-01-02")
			}
			return d
		}
		if s := businessDays(arrival.BusinessDaysInTransit); s != "" {
			return s
		}
	}
	if rs.GuaranteedDelivery != nil {
		if s := businessDays(rs.GuaranteedDelivery.BusinessDaysInTransit); s != "" {
			return s
		}
	}
	return shipper.EstimateUnavailable
}

func businessDays(v string) string {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return ""
	}
	if n == 1 {
		return "1 business day"
	}
	return fmt.Sprintf("%d business days", n)
}

func shipmentResponseToShipper(resp *ShipmentResponseEnvelope, serviceCode string) (*shipper.ShipmentResult, error) {
	results := resp.ShipmentResponse.ShipmentResults

	trackingNumber := results.ShipmentIdentificationNumber
	var label shipper.Label
	if len(results.PackageResults) > 0 {
		pkg := results.PackageResults[0]
		if trackingNumber == "" {
			trackingNumber = pkg.TrackingNumber
		}
		label = shipper.Label{
			Format: labelFormat(pkg.ShippingLabel.ImageFormat.Code),
			Data:   pkg.ShippingLabel.GraphicImage,
		}
	}
	if trackingNumber == "" {
		return nil, shipper.NewAPIError(shipper.CarrierUPS, http.StatusOK, "UPS ship response has no tracking number")
	}

	total := results.ShipmentCharges.TotalCharges
	if results.NegotiatedRateCharges != nil && results.NegotiatedRateCharges.TotalCharge.MonetaryValue != "" {
		total = results.NegotiatedRateCharges.TotalCharge
	}
	shipping := parseMoney(results.ShipmentCharges.TransportationCharges.MonetaryValue)
	if shipping == 0 {
		shipping = parseMoney(total.MonetaryValue)
	}

	return &shipper.ShipmentResult{
		TrackingNumber: trackingNumber,
		TrackingURL:    trackingURLPrefix + trackingNumber,
		Label:          label,
		ServiceCode:    serviceCode,
		ServiceName:    ServiceName(serviceCode),
		ShippingCost:   shipping,
		TotalCost:      parseMoney(total.MonetaryValue),
		Currency:       total.CurrencyCode,
		RawResponse:    rawOrMarshal(resp.Raw, resp),
	}, nil
}

func trackResponseToShipper(resp *TrackResponseEnvelope, trackingNumber string) (*shipper.TrackingResult, error) {
	if len(resp.TrackResponse.Shipment) == 0 || len(resp.TrackResponse.Shipment[0].Package) == 0 {
		return nil, shipper.NewAPIError(shipper.CarrierUPS, http.StatusNotFound, "no tracking information for "+trackingNumber)
	}
	pkg := resp.TrackResponse.Shipment[0].Package[0]

	events := make([]shipper.TrackingEvent, 0, len(pkg.Activity))
	for _, a := range pkg.Activity {
		ev := shipper.TrackingEvent{
			Timestamp:   parseUPSTime(a.Date, a.Time),
			Description: a.Status.Description,
			Status:      shipper.NormalizeTrackingStatus(a.Status.Description),
		}
		if a.Location != nil {
			ev.Location = joinNonEmpty(", ", a.Location.Address.City, a.Location.Address.StateProvince, a.Location.Address.Country)
		}
		events = append(events, ev)
	}

	description := ""
	if pkg.CurrentStatus != nil {
		description = pkg.CurrentStatus.Description
	}
	if description == "" && len(pkg.Activity) > 0 {
		description = pkg.Activity[0].Status.Description
	}

	result := &shipper.TrackingResult{
		TrackingNumber:    firstNonEmpty(pkg.TrackingNumber, trackingNumber),
		Status:            shipper.NormalizeTrackingStatus(description),
		StatusDescription: description,
		Events:            events,
		RawResponse:       rawOrMarshal(resp.Raw, resp),
	}

	if result.Status == shipper.StatusDelivered {
		result.DeliveredAt = deliveredAt(pkg)
	}
	return result, nil
}

func deliveredAt(pkg TrackPackage) *time.Time {
	for _, d := range pkg.DeliveryDate {
		if d.Type == "DEL" {
			endTime := ""
			if pkg.DeliveryTime != nil {
				endTime = pkg.DeliveryTime.EndTime
			}
			if t := parseUPSTime(d.Date, endTime); t != nil {
				return t
			}
		}
	}
	// Activities are newest first.
	if len(pkg.Activity) > 0 {
		return parseUPSTime(pkg.Activity[0].Date, pkg.Activity[0].Time)
	}
	return nil
}

func parseUPSTime(date, clock string) *time.Time {
	if date == "" {
		return nil
	}
	if len(clock) == 6 {
		if t, err := time.Parse("20060102150405", date+clock); err == nil {
			return &t
		}
	}
	if t, err := time.Parse("20060102", date); err == nil {
		return &t
	}
	return nil
}

// pickupWindow converts YYYY-MM-DD and HH:MM into the UPS YYYYMMDD and HHMM forms.
func pickupWindow(req *shipper.PickupRequest) (date, ready, closing string, err error) {
	d, err := time.Parse("2006-01-02", req.PickupDate)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: pickup date %q must be YYYY-MM-DD", shipper.ErrInvalidRequest, req.PickupDate)
	}
	r, err := time.Parse("15:04", req.ReadyTime)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: ready time %q must be HH:MM", shipper.ErrInvalidRequest, req.ReadyTime)
	}
	cl, err := time.Parse("15:04", req.CloseTime)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: close time %q must be HH:MM", shipper.ErrInvalidRequest, req.CloseTime)
	}
	return d.Format("20060102"), r.Format("1504"), cl.Format("1504"), nil
}

// pickupServiceCode converts a two-digit shipping service code into the
// three-digit form the pickup API expects.
func pickupServiceCode(code string) string {
	if code == "" {
		code = defaultService
	}
	if len(code) < 3 {
		return strings.Repeat("0", 3-len(code)) + code
	}
	return code
}

func labelFormat(code string) shipper.LabelFormat {
	switch strings.ToUpper(code) {
	case "PNG":
		return shipper.LabelPNG
	case "ZPL":
		return shipper.LabelZPL
	case "PDF":
		return shipper.LabelPDF
	default:
		return shipper.LabelGIF
	}
}

func addressLines(a shipper.Address) []string {
	lines := make([]string, 0, 2)
	for _, l := range []string{a.Line1, a.Line2} {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func defaultCountry(c string) string {
	if c == "" {
		return "US"
	}
	return strings.ToUpper(c)
}

// minWeight is the lightest billable UPS weight in pounds.
const minWeight = 0.1

// formatMeasure renders v with the shortest exact decimal form.
func formatMeasure(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatWeight is formatMeasure with UPS's minimum weight applied.
func formatWeight(v float64) string {
	return formatMeasure(max(v, minWeight))
}

func parseMoney(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
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
