package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/shipbridge/internal/telemetry"
	"github.com/tournevent/shipbridge/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// DefaultRateFilters returns the rate curation applied when none is configured.
func DefaultRateFilters() map[shipper.CarrierID]shipper.RateFilter {
	return map[shipper.CarrierID]shipper.RateFilter{
		shipper.CarrierFedEx: shipper.GroundExpressOnly,
	}
}

// DefaultPublishTimeout bounds event delivery when Options leaves it unset.
const DefaultPublishTimeout = 3 * time.Second

// Options configures an Orchestrator.
type Options struct {
	Registry  *shipper.Registry
	Settings  SettingsStore
	Shipments ShipmentStore
	Orders    OrderProjection
	Events    EventPublisher
	Logger    *otelzap.Logger
	Metrics   *telemetry.Metrics

	// PublishTimeout bounds each event delivery. Zero means
	// DefaultPublishTimeout.
	PublishTimeout time.Duration

	// RateFilters post-filters quotes per carrier. Nil uses
	// DefaultRateFilters; an empty map disables filtering.
	RateFilters map[shipper.CarrierID]shipper.RateFilter
}

// Orchestrator drives carrier calls and the local writes that follow them.
// It holds no per-request state.
type Orchestrator struct {
	registry  *shipper.Registry
	settings  SettingsStore
	shipments ShipmentStore
	orders    OrderProjection
	events    EventPublisher
	filters   map[shipper.CarrierID]shipper.RateFilter
	publishTO time.Duration
	logger    *otelzap.Logger
	metrics   *telemetry.Metrics

	now   func() time.Time
	newID func() string
}

// New creates an orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = otelzap.New(zap.NewNop())
	}
	if opts.Events == nil {
		opts.Events = NopPublisher{}
	}
	if opts.RateFilters == nil {
		opts.RateFilters = DefaultRateFilters()
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	return &Orchestrator{
		registry:  opts.Registry,
		settings:  opts.Settings,
		shipments: opts.Shipments,
		orders:    opts.Orders,
		events:    opts.Events,
		filters:   opts.RateFilters,
		publishTO: opts.PublishTimeout,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Execute decodes a command and dispatches it to the matching action.
func (o *Orchestrator) Execute(ctx context.Context, cmd Command) (result any, err error) {
	start := time.Now()
	carrierLabel := strings.ToUpper(strings.TrimSpace(cmd.Carrier))
	if carrierLabel == "" {
		carrierLabel = "unknown"
	}
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			o.metrics.RecordError(carrierLabel, ErrorKind(err))
		}
		o.metrics.RecordRequest(string(cmd.Action), carrierLabel, status, time.Since(start).Seconds())
	}()

	switch cmd.Action {
	case ActionGetRates:
		carrier, err := shipper.ParseCarrierID(cmd.Carrier)
		if err != nil {
			return nil, err
		}
		var req shipper.ShippingRequest
		if err := decode(cmd.Data, &req); err != nil {
			return nil, err
		}
		return o.GetRates(ctx, carrier, &req)

	case ActionCreateShipment:
		carrier, err := shipper.ParseCarrierID(cmd.Carrier)
		if err != nil {
			return nil, err
		}
		var in CreateShipmentInput
		if err := decode(cmd.Data, &in); err != nil {
			return nil, err
		}
		return o.CreateShipment(ctx, carrier, &in)

	case ActionSchedulePickup:
		var in SchedulePickupInput
		if err := decode(cmd.Data, &in); err != nil {
			return nil, err
		}
		return o.SchedulePickup(ctx, &in)

	case ActionTrackShipment, ActionCancelShipment, ActionCancelPickup:
		var ref ShipmentRef
		if err := decode(cmd.Data, &ref); err != nil {
			return nil, err
		}
		if err := check(&ref); err != nil {
			return nil, err
		}
		switch cmd.Action {
		case ActionTrackShipment:
			return o.TrackShipment(ctx, ref.ShipmentID)
		case ActionCancelShipment:
			return o.CancelShipment(ctx, ref.ShipmentID)
		default:
			return o.CancelPickup(ctx, ref.ShipmentID)
		}

	default:
		return nil, invalid("unknown action %q", cmd.Action)
	}
}

// adapter loads active settings for carrier and builds its adapter. No
// adapter is constructed when the settings are missing or inactive.
func (o *Orchestrator) adapter(ctx context.Context, carrier shipper.CarrierID) (shipper.Shipper, *shipper.CarrierSettings, error) {
	settings, err := o.settings.GetActiveCarrierSettings(ctx, carrier)
	if errors.Is(err, shipper.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: no active settings for %s", shipper.ErrCarrierNotConfigured, carrier)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s settings: %w", carrier, err)
	}
	if settings == nil || !settings.IsActive {
		return nil, nil, fmt.Errorf("%w: %s is inactive", shipper.ErrCarrierNotConfigured, carrier)
	}

	s, err := o.registry.Resolve(carrier, settings)
	if err != nil {
		return nil, nil, err
	}
	return s, settings, nil
}

func (o *Orchestrator) loadShipment(ctx context.Context, id string) (*ShipmentRecord, error) {
	rec, err := o.shipments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shipper.ErrNotFound) {
			return nil, fmt.Errorf("shipment %s: %w", id, shipper.ErrNotFound)
		}
		return nil, fmt.Errorf("loading shipment %s: %w", id, err)
	}
	return rec, nil
}

// publish delivers ev within the publish timeout, detached from caller
// cancellation. Failures are logged and never fail the action.
func (o *Orchestrator) publish(ctx context.Context, ev ShipmentEvent) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.publishTO)
	defer cancel()
	if err := o.events.Publish(pubCtx, ev); err != nil {
		o.logger.Ctx(ctx).Error("Failed to publish shipment event",
			zap.String("type", string(ev.Type)),
			zap.String("shipment_id", ev.ShipmentID),
			zap.String("tracking_number", ev.TrackingNumber),
			zap.Error(err),
		)
	}
}

// GetRates quotes a shipment. The request shipper defaults to the carrier
// settings' shipper identity.
func (o *Orchestrator) GetRates(ctx context.Context, carrier shipper.CarrierID, req *shipper.ShippingRequest) ([]shipper.RateQuote, error) {
	s, settings, err := o.adapter(ctx, carrier)
	if err != nil {
		return nil, err
	}

	quoteReq := *req
	if quoteReq.Shipper.IsZero() {
		quoteReq.Shipper = settings.Shipper
	}
	if err := check(&quoteReq); err != nil {
		return nil, err
	}

	quotes, err := s.GetRates(ctx, &quoteReq)
	if err != nil {
		return nil, err
	}
	if filter, ok := o.filters[carrier]; ok && filter != nil {
		quotes = filter(quotes)
	}
	return quotes, nil
}

// CreateShipment purchases a label, records it and marks the order shipped.
// The purchase runs detached from caller cancellation. A label that cannot be
// recorded is reported as shipper.ErrOrphanedLabel.
func (o *Orchestrator) CreateShipment(ctx context.Context, carrier shipper.CarrierID, in *CreateShipmentInput) (*ShipmentRecord, error) {
	if err := check(in); err != nil {
		return nil, err
	}

	s, settings, err := o.adapter(ctx, carrier)
	if err != nil {
		return nil, err
	}

	req := &shipper.CreateShipmentRequest{
		ShippingRequest: shipper.ShippingRequest{
			Shipper:   in.Shipper,
			Recipient: in.Recipient,
			Packages:  in.Packages,
		},
		ServiceCode: in.ServiceCode,
		Reference:   in.Reference,
	}
	if req.Shipper.IsZero() {
		req.Shipper = settings.Shipper
	}
	if req.ServiceCode == "" {
		req.ServiceCode = settings.DefaultServiceCode
	}
	if req.ServiceCode == "" {
		return nil, invalid("serviceCode is required")
	}
	if req.Reference == "" {
		req.Reference = in.OrderID
	}
	if err := check(&req.ShippingRequest); err != nil {
		return nil, err
	}

	detached := context.WithoutCancel(ctx)
	result, err := s.CreateShipment(detached, req)
	if err != nil {
		return nil, err
	}

	now := o.now()
	first := in.Packages[0]
	rec := &ShipmentRecord{
		ID:                 o.newID(),
		OrderID:            in.OrderID,
		Carrier:            carrier,
		ServiceCode:        firstNonEmpty(result.ServiceCode, req.ServiceCode),
		ServiceName:        result.ServiceName,
		TrackingNumber:     result.TrackingNumber,
		TrackingURL:        result.TrackingURL,
		LabelFormat:        string(result.Label.Format),
		LabelData:          result.Label.Data,
		LabelURL:           result.Label.URL,
		Weight:             shipper.TotalWeight(in.Packages),
		Length:             first.Length,
		Width:              first.Width,
		Height:             first.Height,
		ShippingCost:       result.ShippingCost,
		TotalCost:          result.TotalCost,
		Currency:           result.Currency,
		Status:             StatusLabelCreated,
		RawCarrierResponse: result.RawResponse,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	// Saga log: the raw carrier response is recorded before the local write
	// so an orphaned label can be reconciled.
	o.logger.Ctx(ctx).Info("Label purchased",
		zap.String("carrier", string(carrier)),
		zap.String("order_id", rec.OrderID),
		zap.String("shipment_id", rec.ID),
		zap.String("tracking_number", rec.TrackingNumber),
		zap.ByteString("raw_response", result.RawResponse),
	)
	ev := newEvent(EventLabelCreated, rec, now)
	ev.RawResponse = result.RawResponse
	o.publish(detached, ev)

	if err := o.shipments.Insert(detached, rec); err != nil {
		return nil, o.orphaned(ctx, rec, "insert shipment record", err)
	}

	tracking := rec.TrackingNumber
	if err := o.orders.UpdateStatus(detached, rec.OrderID, OrderStatusShipped, &tracking); err != nil {
		return nil, o.orphaned(ctx, rec, "mark order shipped", err)
	}
	return rec, nil
}

func (o *Orchestrator) orphaned(ctx context.Context, rec *ShipmentRecord, step string, err error) error {
	o.logger.Ctx(ctx).Error("Purchased label could not be recorded",
		zap.String("step", step),
		zap.String("carrier", string(rec.Carrier)),
		zap.String("order_id", rec.OrderID),
		zap.String("shipment_id", rec.ID),
		zap.String("tracking_number", rec.TrackingNumber),
		zap.Error(err),
	)
	return fmt.Errorf("%w: %s tracking %s: %s: %w", shipper.ErrOrphanedLabel, rec.Carrier, rec.TrackingNumber, step, err)
}

// SchedulePickup books a pickup for a labelled shipment at the carrier
// settings' shipper address.
func (o *Orchestrator) SchedulePickup(ctx context.Context, in *SchedulePickupInput) (*ShipmentRecord, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	rec, err := o.loadShipment(ctx, in.ShipmentID)
	if err != nil {
		return nil, err
	}
	if rec.TrackingNumber == "" {
		return nil, invalid("shipment %s has no tracking number", rec.ID)
	}
	if rec.HasPickup() {
		return nil, invalid("shipment %s already has pickup %s", rec.ID, rec.PickupConfirmation)
	}

	s, settings, err := o.adapter(ctx, rec.Carrier)
	if err != nil {
		return nil, err
	}

	result, err := s.SchedulePickup(ctx, &shipper.PickupRequest{
		TrackingNumber: rec.TrackingNumber,
		ServiceCode:    rec.ServiceCode,
		PickupDate:     in.PickupDate,
		ReadyTime:      in.ReadyTime,
		CloseTime:      in.CloseTime,
		Address:        settings.Shipper,
		Packages: []shipper.Package{{
			Weight: rec.Weight,
			Length: rec.Length,
			Width:  rec.Width,
			Height: rec.Height,
		}},
	})
	if err != nil {
		return nil, err
	}

	rec.PickupConfirmation = result.ConfirmationNumber
	rec.PickupDate = in.PickupDate
	rec.PickupReadyTime = in.ReadyTime
	rec.PickupCloseTime = in.CloseTime
	rec.PickupLocation = result.Location
	rec.Status = StatusPickupScheduled
	rec.UpdatedAt = o.now()

	if err := o.shipments.Update(context.WithoutCancel(ctx), rec); err != nil {
		o.logger.Ctx(ctx).Error("Scheduled pickup could not be recorded",
			zap.String("shipment_id", rec.ID),
			zap.String("confirmation", result.ConfirmationNumber),
			zap.Error(err),
		)
		return nil, fmt.Errorf("recording pickup %s for shipment %s: %w", result.ConfirmationNumber, rec.ID, err)
	}

	ev := newEvent(EventPickupScheduled, rec, rec.UpdatedAt)
	ev.RawResponse = result.RawResponse
	o.publish(ctx, ev)
	return rec, nil
}

// TrackShipment refreshes the tracking state of a shipment. The order is
// never touched.
func (o *Orchestrator) TrackShipment(ctx context.Context, shipmentID string) (*shipper.TrackingResult, error) {
	rec, err := o.loadShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if rec.TrackingNumber == "" {
		return nil, invalid("shipment %s has no tracking number", rec.ID)
	}

	s, _, err := o.adapter(ctx, rec.Carrier)
	if err != nil {
		return nil, err
	}

	result, err := s.TrackShipment(ctx, rec.TrackingNumber)
	if err != nil {
		return nil, err
	}

	// An unknown status carries no information; keep what is stored.
	if result.Status != shipper.StatusUnknown && result.Status != "" {
		rec.Status = string(result.Status)
	}
	if result.DeliveredAt != nil {
		rec.DeliveredAt = result.DeliveredAt
	}
	rec.UpdatedAt = o.now()

	if err := o.shipments.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("recording tracking for shipment %s: %w", rec.ID, err)
	}

	o.publish(ctx, newEvent(EventTrackingUpdated, rec, rec.UpdatedAt))
	return result, nil
}

// CancelShipment voids the label, deletes the record and reverts the order
// to ready_to_ship once it has no shipments left.
func (o *Orchestrator) CancelShipment(ctx context.Context, shipmentID string) (*CancelShipmentResult, error) {
	rec, err := o.loadShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	s, _, err := o.adapter(ctx, rec.Carrier)
	if err != nil {
		return nil, err
	}

	if _, err := s.CancelShipment(ctx, rec.TrackingNumber); err != nil {
		return nil, err
	}

	persist := context.WithoutCancel(ctx)
	log := o.logger.Ctx(ctx)
	fields := []zap.Field{
		zap.String("shipment_id", rec.ID),
		zap.String("order_id", rec.OrderID),
		zap.String("tracking_number", rec.TrackingNumber),
	}

	if err := o.shipments.Delete(persist, rec.ID); err != nil {
		log.Error("Voided shipment could not be deleted", append(fields, zap.Error(err))...)
		return nil, fmt.Errorf("deleting voided shipment %s: %w", rec.ID, err)
	}

	remaining, err := o.shipments.CountByOrder(persist, rec.OrderID)
	if err != nil {
		log.Error("Remaining shipments could not be counted", append(fields, zap.Error(err))...)
		return nil, fmt.Errorf("counting shipments for order %s: %w", rec.OrderID, err)
	}

	out := &CancelShipmentResult{
		ShipmentID:         rec.ID,
		OrderID:            rec.OrderID,
		RemainingShipments: remaining,
	}
	if remaining == 0 {
		if err := o.orders.UpdateStatus(persist, rec.OrderID, OrderStatusReadyToShip, nil); err != nil {
			log.Error("Order could not be reverted", append(fields, zap.Error(err))...)
			return nil, fmt.Errorf("reverting order %s: %w", rec.OrderID, err)
		}
		out.OrderStatus = OrderStatusReadyToShip
	}

	log.Info("Shipment cancelled", append(fields, zap.Int("remaining_shipments", remaining))...)
	o.publish(ctx, newEvent(EventShipmentCancelled, rec, o.now()))
	return out, nil
}

// CancelPickup cancels the booked pickup and returns the shipment to
// label_created. The stored service code lets the carrier pick the right
// pickup bucket.
func (o *Orchestrator) CancelPickup(ctx context.Context, shipmentID string) (*ShipmentRecord, error) {
	rec, err := o.loadShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if !rec.HasPickup() {
		return nil, invalid("shipment %s has no scheduled pickup", rec.ID)
	}

	s, _, err := o.adapter(ctx, rec.Carrier)
	if err != nil {
		return nil, err
	}

	if _, err := s.CancelPickup(ctx, &shipper.CancelPickupRequest{
		ConfirmationNumber: rec.PickupConfirmation,
		PickupDate:         rec.PickupDate,
		ServiceCode:        rec.ServiceCode,
		Location:           rec.PickupLocation,
	}); err != nil {
		return nil, err
	}

	confirmation := rec.PickupConfirmation
	rec.clearPickup()
	rec.UpdatedAt = o.now()

	if err := o.shipments.Update(context.WithoutCancel(ctx), rec); err != nil {
		o.logger.Ctx(ctx).Error("Cancelled pickup could not be recorded",
			zap.String("shipment_id", rec.ID),
			zap.String("confirmation", confirmation),
			zap.Error(err),
		)
		return nil, fmt.Errorf("clearing pickup for shipment %s: %w", rec.ID, err)
	}

	o.publish(ctx, newEvent(EventPickupCancelled, rec, rec.UpdatedAt))
	return rec, nil
}

// ErrorKind classifies err for metrics labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, shipper.ErrOrphanedLabel):
		return "orphaned_label"
	case errors.Is(err, shipper.ErrAuthenticationFailed):
		return "auth"
	case errors.Is(err, shipper.ErrCarrierAPI):
		return "api"
	case errors.Is(err, shipper.ErrCarrierNotConfigured):
		return "not_configured"
	case errors.Is(err, shipper.ErrUnsupportedCarrier):
		return "unsupported_carrier"
	case errors.Is(err, shipper.ErrNotSupported):
		return "not_supported"
	case errors.Is(err, shipper.ErrNotFound):
		return "not_found"
	case errors.Is(err, shipper.ErrInvalidRequest):
		return "invalid_request"
	default:
		return "internal"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
