package shipping_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/shipbridge/internal/shipping"
	"github.com/tournevent/shipbridge/internal/store/memory"
	"github.com/tournevent/shipbridge/internal/telemetry"
	"github.com/tournevent/shipbridge/pkg/shipper"
	"github.com/tournevent/shipbridge/pkg/shipper/carriers"
	"github.com/tournevent/shipbridge/pkg/shipper/fedex"
	"github.com/tournevent/shipbridge/pkg/shipper/mock"
)

var warehouse = shipper.Party{
	Name:    "Tournevent Warehouse",
	Phone:   "4045550100",
	Address: shipper.Address{Line1: "100 Peachtree St", City: "Atlanta", State: "GA", PostalCode: "30303", Country: "US"},
}

var customer = shipper.Party{
	Name:    "Jane Doe",
	Phone:   "2125550199",
	Address: shipper.Address{Line1: "350 5th Ave", City: "New York", State: "NY", PostalCode: "10118", Country: "US"},
}

var parcel = shipper.Package{Weight: 5, Length: 12, Width: 8, Height: 6}

type recordingPublisher struct {
	mu     sync.Mutex
	events []shipping.ShipmentEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev shipping.ShipmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []shipping.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shipping.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store    *memory.Store
	registry *shipper.Registry
	ups      *mock.Client
	fedex    *mock.Client
	events   *recordingPublisher
	metrics  *telemetry.Metrics
	orch     *shipping.Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    memory.New(),
		registry: shipper.NewRegistry(shipper.Deps{}),
		ups:      mock.New(shipper.CarrierUPS),
		fedex:    mock.New(shipper.CarrierFedEx),
		events:   &recordingPublisher{},
		metrics:  telemetry.NewMetrics(prometheus.NewRegistry()),
	}
	f.registry.Register(shipper.CarrierUPS, f.ups.Factory())
	f.registry.Register(shipper.CarrierFedEx, f.fedex.Factory())

	for _, id := range []shipper.CarrierID{shipper.CarrierUPS, shipper.CarrierFedEx} {
		f.store.PutCarrierSettings(&shipper.CarrierSettings{
			CarrierID:          id,
			IsActive:           true,
			AccountNumber:      "ACCT-" + string(id),
			DefaultServiceCode: "GROUND",
			Shipper:            warehouse,
		})
	}
	f.orch = f.build(shipping.Options{})
	return f
}

func (f *fixture) build(opts shipping.Options) *shipping.Orchestrator {
	if opts.Registry == nil {
		opts.Registry = f.registry
	}
	if opts.Settings == nil {
		opts.Settings = f.store
	}
	if opts.Shipments == nil {
		opts.Shipments = f.store
	}
	if opts.Orders == nil {
		opts.Orders = f.store
	}
	if opts.Events == nil {
		opts.Events = f.events
	}
	if opts.Metrics == nil {
		opts.Metrics = f.metrics
	}
	return shipping.New(opts)
}

// useFedExAPI swaps the FedEx mock shipper for the real adapter driven by api.
func (f *fixture) useFedExAPI(api fedex.APIClient) {
	f.registry.Register(shipper.CarrierFedEx, func(s *shipper.CarrierSettings, _ shipper.Deps) (shipper.Shipper, error) {
		return fedex.NewWithAPIClient(fedex.ConfigFromSettings(s), api, nil, nil), nil
	})
}

func (f *fixture) createShipment(t *testing.T, carrier shipper.CarrierID, orderID string) *shipping.ShipmentRecord {
	t.Helper()
	rec, err := f.orch.CreateShipment(context.Background(), carrier, &shipping.CreateShipmentInput{
		OrderID:     orderID,
		ServiceCode: "GROUND",
		Recipient:   customer,
		Packages:    []shipper.Package{parcel},
	})
	require.NoError(t, err)
	return rec
}

func (f *fixture) order(t *testing.T, id string) memory.Order {
	t.Helper()
	o, ok := f.store.Order(id)
	require.True(t, ok, "order %s not projected", id)
	return o
}

func TestGetRates_CarrierNotConfigured(t *testing.T) {
	f := newFixture(t)
	f.store.PutCarrierSettings(&shipper.CarrierSettings{CarrierID: shipper.CarrierFedEx, IsActive: false})

	_, err := f.orch.GetRates(context.Background(), shipper.CarrierFedEx, &shipper.ShippingRequest{
		Recipient: customer,
		Packages:  []shipper.Package{parcel},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrCarrierNotConfigured))
	assert.Equal(t, 0, f.fedex.TotalCalls())
}

func TestGetRates_FedExCuratedToGroundAndExpress(t *testing.T) {
	f := newFixture(t)
	f.fedex.OnGetRates = func(ctx context.Context, req *shipper.ShippingRequest) ([]shipper.RateQuote, error) {
		return []shipper.RateQuote{
			{ServiceCode: "FEDEX_GROUND", Cost: 13.80},
			{ServiceCode: "FEDEX_EXPRESS_SAVER", Cost: 24.10},
			{ServiceCode: "FEDEX_2_DAY", Cost: 31.40},
			{ServiceCode: "PRIORITY_OVERNIGHT", Cost: 58.25},
		}, nil
	}

	quotes, err := f.orch.GetRates(context.Background(), shipper.CarrierFedEx, &shipper.ShippingRequest{
		Recipient: customer,
		Packages:  []shipper.Package{parcel},
	})

	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "FEDEX_GROUND", quotes[0].ServiceCode)
	assert.Equal(t, "FEDEX_EXPRESS_SAVER", quotes[1].ServiceCode)
}

func TestGetRates_UPSUnfiltered(t *testing.T) {
	f := newFixture(t)

	quotes, err := f.orch.GetRates(context.Background(), shipper.CarrierUPS, &shipper.ShippingRequest{
		Recipient: customer,
		Packages:  []shipper.Package{parcel},
	})

	require.NoError(t, err)
	assert.Len(t, quotes, 3)
}

func TestGetRates_FiltersDisabled(t *testing.T) {
	f := newFixture(t)
	orch := f.build(shipping.Options{RateFilters: map[shipper.CarrierID]shipper.RateFilter{}})

	quotes, err := orch.GetRates(context.Background(), shipper.CarrierFedEx, &shipper.ShippingRequest{
		Recipient: customer,
		Packages:  []shipper.Package{parcel},
	})

	require.NoError(t, err)
	assert.Len(t, quotes, 3)
}

func TestGetRates_ShipperDefaultsToSettings(t *testing.T) {
	f := newFixture(t)
	var got shipper.Party
	f.ups.OnGetRates = func(ctx context.Context, req *shipper.ShippingRequest) ([]shipper.RateQuote, error) {
		got = req.Shipper
		return nil, nil
	}

	_, err := f.orch.GetRates(context.Background(), shipper.CarrierUPS, &shipper.ShippingRequest{
		Recipient: customer,
		Packages:  []shipper.Package{parcel},
	})

	require.NoError(t, err)
	assert.Equal(t, warehouse, got)
}

func TestGetRates_MissingTransitDataDegrades(t *testing.T) {
	f := newFixture(t)
	api := fedex.NewMockAPIClient()
	api.OnGetRates = func(ctx context.Context, req *fedex.RateRequest) (*fedex.RateResponse, error) {
		return &fedex.RateResponse{Output: fedex.RateOutput{RateReplyDetails: []fedex.RateReplyDetail{
			{ServiceType: "FEDEX_GROUND", RatedShipmentDetails: []fedex.RatedShipmentDetail{{RateType: "ACCOUNT", TotalNetCharge: 13.8, Currency: "USD"}}},
			{ServiceType: "FEDEX_EXPRESS_SAVER", RatedShipmentDetails: []fedex.RatedShipmentDetail{{RateType: "ACCOUNT", TotalNetCharge: 24.1, Currency: "USD"}}},
		}}}, nil
	}
	f.useFedExAPI(api)

	quotes, err := f.orch.GetRates(context.Background(), shipper.CarrierFedEx, &shipper.ShippingRequest{
		Recipient: customer,
		Packages:  []shipper.Package{parcel},
	})

	require.NoError(t, err)
	require.Len(t, quotes, 2)
	for _, q := range quotes {
		assert.Equal(t, shipper.EstimateUnavailable, q.EstimatedDelivery)
	}
}

func TestGetRates_LeavesCallerRequestUntouched(t *testing.T) {
	f := newFixture(t)
	var seen shipper.Party
	f.ups.OnGetRates = func(ctx context.Context, req *shipper.ShippingRequest) ([]shipper.RateQuote, error) {
		seen = req.Shipper
		return nil, nil
	}

	req := &shipper.ShippingRequest{Recipient: customer, Packages: []shipper.Package{parcel}}
	_, err := f.orch.GetRates(context.Background(), shipper.CarrierUPS, req)

	require.NoError(t, err)
	assert.Equal(t, warehouse, seen)
	assert.True(t, req.Shipper.IsZero())
}

func TestGetRates_InvalidRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.GetRates(context.Background(), shipper.CarrierUPS, &shipper.ShippingRequest{Recipient: customer})

	assert.True(t, errors.Is(err, shipper.ErrInvalidRequest))
	assert.Equal(t, 0, f.ups.TotalCalls())
}

func TestCreateShipment_FedEx(t *testing.T) {
	f := newFixture(t)
	f.useFedExAPI(fedex.NewMockAPIClient())

	rec, err := f.orch.CreateShipment(context.Background(), shipper.CarrierFedEx, &shipping.CreateShipmentInput{
		OrderID:     "order-1",
		ServiceCode: "FEDEX_GROUND",
		Recipient:   customer,
		Packages:    []shipper.Package{parcel},
	})

	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.NotEmpty(t, rec.TrackingNumber)
	assert.NotEmpty(t, rec.LabelData)
	assert.Equal(t, string(shipper.LabelPDF), rec.LabelFormat)
	assert.Equal(t, shipping.StatusLabelCreated, rec.Status)
	assert.Equal(t, 5.0, rec.Weight)
	assert.Equal(t, 12.0, rec.Length)
	assert.NotEmpty(t, rec.RawCarrierResponse)

	stored, err := f.store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.TrackingNumber, stored.TrackingNumber)

	order := f.order(t, "order-1")
	assert.Equal(t, shipping.OrderStatusShipped, order.Status)
	require.NotNil(t, order.TrackingNumber)
	assert.Equal(t, rec.TrackingNumber, *order.TrackingNumber)

	assert.Equal(t, []shipping.EventType{shipping.EventLabelCreated}, f.events.types())
	assert.NotEmpty(t, f.events.events[0].RawResponse)
}

func TestCreateShipment_DefaultsFromSettings(t *testing.T) {
	f := newFixture(t)
	var got *shipper.CreateShipmentRequest
	f.ups.OnCreateShipment = func(ctx context.Context, req *shipper.CreateShipmentRequest) (*shipper.ShipmentResult, error) {
		got = req
		return &shipper.ShipmentResult{TrackingNumber: "1Z0001", ServiceCode: req.ServiceCode}, nil
	}

	_, err := f.orch.CreateShipment(context.Background(), shipper.CarrierUPS, &shipping.CreateShipmentInput{
		OrderID:   "order-7",
		Recipient: customer,
		Packages:  []shipper.Package{parcel},
	})

	require.NoError(t, err)
	assert.Equal(t, warehouse, got.Shipper)
	assert.Equal(t, "GROUND", got.ServiceCode)
	assert.Equal(t, "order-7", got.Reference)
}

func TestCreateShipment_SurvivesCallerCancellation(t *testing.T) {
	f := newFixture(t)
	f.ups.OnCreateShipment = func(ctx context.Context, req *shipper.CreateShipmentRequest) (*shipper.ShipmentResult, error) {
		require.NoError(t, ctx.Err())
		return &shipper.ShipmentResult{TrackingNumber: "1Z0002"}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, err := f.orch.CreateShipment(ctx, shipper.CarrierUPS, &shipping.CreateShipmentInput{
		OrderID:     "order-2",
		ServiceCode: "03",
		Recipient:   customer,
		Packages:    []shipper.Package{parcel},
	})

	require.NoError(t, err)
	assert.Equal(t, "1Z0002", rec.TrackingNumber)
}

type failingShipments struct {
	shipping.ShipmentStore
	insertErr error
}

func (s failingShipments) Insert(context.Context, *shipping.ShipmentRecord) error {
	return s.insertErr
}

func TestCreateShipment_InsertFailureIsOrphanedLabel(t *testing.T) {
	f := newFixture(t)
	orch := f.build(shipping.Options{Shipments: failingShipments{ShipmentStore: f.store, insertErr: errors.New("db down")}})

	_, err := orch.CreateShipment(context.Background(), shipper.CarrierUPS, &shipping.CreateShipmentInput{
		OrderID:     "order-3",
		ServiceCode: "03",
		Recipient:   customer,
		Packages:    []shipper.Package{parcel},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrOrphanedLabel))
	assert.Contains(t, err.Error(), "UPS-TRK-")
	assert.Contains(t, err.Error(), "db down")

	// The purchase is still on the audit trail.
	assert.Equal(t, []shipping.EventType{shipping.EventLabelCreated}, f.events.types())
	_, projected := f.store.Order("order-3")
	assert.False(t, projected)
}

func TestCreateShipment_CarrierFailureLeavesNoState(t *testing.T) {
	f := newFixture(t)
	f.ups.OnCreateShipment = func(ctx context.Context, req *shipper.CreateShipmentRequest) (*shipper.ShipmentResult, error) {
		return nil, shipper.NewAPIError(shipper.CarrierUPS, 400, "120802: Address Validation Error on ShipTo address")
	}

	_, err := f.orch.CreateShipment(context.Background(), shipper.CarrierUPS, &shipping.CreateShipmentInput{
		OrderID:     "order-4",
		ServiceCode: "03",
		Recipient:   customer,
		Packages:    []shipper.Package{parcel},
	})

	require.Error(t, err)
	assert.Equal(t, "120802: Address Validation Error on ShipTo address", shipper.UserMessage(err))
	n, _ := f.store.CountByOrder(context.Background(), "order-4")
	assert.Zero(t, n)
	_, projected := f.store.Order("order-4")
	assert.False(t, projected)
	assert.Empty(t, f.events.types())
}

func TestCreateShipment_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   shipping.CreateShipmentInput
		msg  string
	}{
		{"missing order", shipping.CreateShipmentInput{Recipient: customer, Packages: []shipper.Package{parcel}}, "orderId is required"},
		{"blank order", shipping.CreateShipmentInput{OrderID: "   ", Recipient: customer, Packages: []shipper.Package{parcel}}, "orderId is required"},
		{"missing recipient", shipping.CreateShipmentInput{OrderID: "o", Packages: []shipper.Package{parcel}}, "recipient is required"},
		{"missing packages", shipping.CreateShipmentInput{OrderID: "o", Recipient: customer}, "packages is required"},
		{"empty packages", shipping.CreateShipmentInput{OrderID: "o", Recipient: customer, Packages: []shipper.Package{}}, "packages needs at least 1"},
		{"zero weight", shipping.CreateShipmentInput{OrderID: "o", Recipient: customer, Packages: []shipper.Package{{Length: 1}}}, "packages[0].weight must be greater than 0"},
		{"negative dimension", shipping.CreateShipmentInput{OrderID: "o", Recipient: customer, Packages: []shipper.Package{parcel, {Weight: 1, Height: -2}}}, "packages[1].height must not be below 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.orch.CreateShipment(context.Background(), shipper.CarrierUPS, &tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, shipper.ErrInvalidRequest))
			assert.Contains(t, err.Error(), tt.msg)
			assert.Equal(t, 0, f.ups.TotalCalls())
		})
	}
}

func TestSchedulePickup(t *testing.T) {
	f := newFixture(t)
	rec := f.createShipment(t, shipper.CarrierUPS, "order-5")

	var got *shipper.PickupRequest
	f.ups.OnSchedulePickup = func(ctx context.Context, req *shipper.PickupRequest) (*shipper.PickupResult, error) {
		got = req
		return &shipper.PickupResult{ConfirmationNumber: "2929602E9CP", Location: "ATL"}, nil
	}

	updated, err := f.orch.SchedulePickup(context.Background(), &shipping.SchedulePickupInput{
		ShipmentID: rec.ID,
		PickupDate: "2026-10-20",
		ReadyTime:  "09:00",
		CloseTime:  "17:00",
	})

	require.NoError(t, err)
	assert.Equal(t, shipping.StatusPickupScheduled, updated.Status)
	assert.Equal(t, "2929602E9CP", updated.PickupConfirmation)
	assert.Equal(t, "ATL", updated.PickupLocation)

	assert.Equal(t, rec.TrackingNumber, got.TrackingNumber)
	assert.Equal(t, "GROUND", got.ServiceCode)
	assert.Equal(t, warehouse, got.Address)
	require.Len(t, got.Packages, 1)
	assert.Equal(t, 5.0, got.Packages[0].Weight)

	stored, err := f.store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-20", stored.PickupDate)
	assert.Equal(t, "09:00", stored.PickupReadyTime)
	assert.Equal(t, "17:00", stored.PickupCloseTime)

	_, err = f.orch.SchedulePickup(context.Background(), &shipping.SchedulePickupInput{
		ShipmentID: rec.ID, PickupDate: "2026-10-21", ReadyTime: "09:00", CloseTime: "17:00",
	})
	assert.True(t, errors.Is(err, shipper.ErrInvalidRequest))
	assert.Equal(t, 1, f.ups.Calls("SchedulePickup"))
}

func TestSchedulePickup_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.SchedulePickup(context.Background(), &shipping.SchedulePickupInput{
		ShipmentID: "missing", PickupDate: "2026-10-20", ReadyTime: "09:00", CloseTime: "17:00",
	})
	assert.True(t, errors.Is(err, shipper.ErrNotFound))

	tests := []struct {
		name string
		in   shipping.SchedulePickupInput
		msg  string
	}{
		{"missing shipment", shipping.SchedulePickupInput{PickupDate: "2026-10-20", ReadyTime: "09:00", CloseTime: "17:00"}, "shipmentId is required"},
		{"date layout", shipping.SchedulePickupInput{ShipmentID: "s", PickupDate: "20/10/2026", ReadyTime: "09:00", CloseTime: "17:00"}, "pickupDate must use the 2006-01-02 layout"},
		{"impossible date", shipping.SchedulePickupInput{ShipmentID: "s", PickupDate: "2026-13-01", ReadyTime: "09:00", CloseTime: "17:00"}, "pickupDate"},
		{"clock layout", shipping.SchedulePickupInput{ShipmentID: "s", PickupDate: "2026-10-20", ReadyTime: "9am", CloseTime: "17:00"}, "readyTime must use the 15:04 layout"},
		{"window reversed", shipping.SchedulePickupInput{ShipmentID: "s", PickupDate: "2026-10-20", ReadyTime: "17:00", CloseTime: "09:00"}, "closeTime must be after readyTime"},
		{"empty window", shipping.SchedulePickupInput{ShipmentID: "s", PickupDate: "2026-10-20", ReadyTime: "09:00", CloseTime: "09:00"}, "closeTime must be after readyTime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orch.SchedulePickup(context.Background(), &tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, shipper.ErrInvalidRequest))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
	assert.Equal(t, 0, f.ups.TotalCalls())
}

func TestTrackShipment_UpdatesRecordNotOrder(t *testing.T) {
	f := newFixture(t)
	rec := f.createShipment(t, shipper.CarrierUPS, "order-6")

	delivered := time.Date(2026, 10, 22, 14, 5, 0, 0, time.UTC)
	f.ups.OnTrackShipment = func(ctx context.Context, trackingNumber string) (*shipper.TrackingResult, error) {
		return &shipper.TrackingResult{
			TrackingNumber: trackingNumber,
			Status:         shipper.NormalizeTrackingStatus("DELIVERED"),
			DeliveredAt:    &delivered,
		}, nil
	}

	result, err := f.orch.TrackShipment(context.Background(), rec.ID)

	require.NoError(t, err)
	assert.Equal(t, shipper.StatusDelivered, result.Status)

	stored, err := f.store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, string(shipper.StatusDelivered), stored.Status)
	require.NotNil(t, stored.DeliveredAt)
	assert.True(t, delivered.Equal(*stored.DeliveredAt))

	assert.Equal(t, shipping.OrderStatusShipped, f.order(t, "order-6").Status)
}

func TestTrackShipment_UnknownKeepsStatus(t *testing.T) {
	f := newFixture(t)
	rec := f.createShipment(t, shipper.CarrierUPS, "order-8")
	f.ups.OnTrackShipment = func(ctx context.Context, trackingNumber string) (*shipper.TrackingResult, error) {
		return &shipper.TrackingResult{TrackingNumber: trackingNumber, Status: shipper.StatusUnknown}, nil
	}

	_, err := f.orch.TrackShipment(context.Background(), rec.ID)
	require.NoError(t, err)

	stored, err := f.store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, shipping.StatusLabelCreated, stored.Status)
}

func TestTrackShipment_CarrierFailureLeavesRecord(t *testing.T) {
	f := newFixture(t)
	rec := f.createShipment(t, shipper.CarrierUPS, "order-9")
	f.ups.OnTrackShipment = func(ctx context.Context, trackingNumber string) (*shipper.TrackingResult, error) {
		return nil, shipper.NewAPIError(shipper.CarrierUPS, 404, "151044: No tracking information available")
	}

	_, err := f.orch.TrackShipment(context.Background(), rec.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrCarrierAPI))

	stored, err := f.store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.UpdatedAt, stored.UpdatedAt)
	assert.Equal(t, shipping.StatusLabelCreated, stored.Status)
}

func TestCancelShipment_LastShipmentRevertsOrder(t *testing.T) {
	f := newFixture(t)
	rec := f.createShipment(t, shipper.CarrierFedEx, "order-10")

	result, err := f.orch.CancelShipment(context.Background(), rec.ID)

	require.NoError(t, err)
	assert.Equal(t, 0, result.RemainingShipments)
	assert.Equal(t, shipping.OrderStatusReadyToShip, result.OrderStatus)

	n, err := f.store.CountByOrder(context.Background(), "order-10")
	require.NoError(t, err)
	assert.Zero(t, n)

	order := f.order(t, "order-10")
	assert.Equal(t, shipping.OrderStatusReadyToShip, order.Status)
	assert.Nil(t, order.TrackingNumber)

	_, err = f.store.Get(context.Background(), rec.ID)
	assert.True(t, errors.Is(err, shipper.ErrNotFound))
	assert.Equal(t, []shipping.EventType{shipping.EventLabelCreated, shipping.EventShipmentCancelled}, f.events.types())
}

func TestCancelShipment_OtherShipmentsKeepOrderShipped(t *testing.T) {
	f := newFixture(t)
	first := f.createShipment(t, shipper.CarrierFedEx, "order-11")
	second := f.createShipment(t, shipper.CarrierFedEx, "order-11")

	result, err := f.orch.CancelShipment(context.Background(), first.ID)

	require.NoError(t, err)
	assert.Equal(t, 1, result.RemainingShipments)
	assert.Empty(t, result.OrderStatus)

	order := f.order(t, "order-11")
	assert.Equal(t, shipping.OrderStatusShipped, order.Status)
	require.NotNil(t, order.TrackingNumber)
	assert.Equal(t, second.TrackingNumber, *order.TrackingNumber)
}

func TestCancelShipment_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.CancelShipment(context.Background(), "missing")

	assert.True(t, errors.Is(err, shipper.ErrNotFound))
	assert.Equal(t, 0, f.fedex.TotalCalls())
}

func TestCancelShipment_UPSNotSupported(t *testing.T) {
	f := newFixture(t)
	registry := carriers.NewDefaultRegistry(shipper.Deps{UseMock: true})
	orch := f.build(shipping.Options{Registry: registry})

	rec, err := orch.CreateShipment(context.Background(), shipper.CarrierUPS, &shipping.CreateShipmentInput{
		OrderID:     "order-12",
		ServiceCode: "03",
		Recipient:   customer,
		Packages:    []shipper.Package{parcel},
	})
	require.NoError(t, err)

	_, err = orch.CancelShipment(context.Background(), rec.ID)

	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrNotSupported))
	_, err = f.store.Get(context.Background(), rec.ID)
	assert.NoError(t, err)
	assert.Equal(t, shipping.OrderStatusShipped, f.order(t, "order-12").Status)
}

func TestCancelPickup_CarrierCodeFollowsStoredService(t *testing.T) {
	tests := []struct {
		serviceCode string
		want        string
	}{
		{"FEDEX_GROUND", fedex.CarrierCodeGround},
		{"GROUND_HOME_DELIVERY", fedex.CarrierCodeGround},
		{"PRIORITY_OVERNIGHT", fedex.CarrierCodeExpress},
		{"FEDEX_2_DAY", fedex.CarrierCodeExpress},
	}

	for _, tt := range tests {
		t.Run(tt.serviceCode, func(t *testing.T) {
			f := newFixture(t)
			api := fedex.NewMockAPIClient()
			var got *fedex.CancelPickupRequest
			api.OnCancelPickup = func(ctx context.Context, req *fedex.CancelPickupRequest) (*fedex.CancelPickupResponse, error) {
				got = req
				return &fedex.CancelPickupResponse{Output: fedex.CancelPickupOutput{PickupConfirmationCode: req.PickupConfirmationCode}}, nil
			}
			f.useFedExAPI(api)

			require.NoError(t, f.store.Insert(context.Background(), &shipping.ShipmentRecord{
				ID:                 "ship-1",
				OrderID:            "order-13",
				Carrier:            shipper.CarrierFedEx,
				ServiceCode:        tt.serviceCode,
				TrackingNumber:     "794612345678",
				Status:             shipping.StatusPickupScheduled,
				PickupConfirmation: "NQAA97",
				PickupDate:         "2026-10-20",
				PickupReadyTime:    "10:00",
				PickupCloseTime:    "18:00",
				PickupLocation:     "NQAA",
			}))

			rec, err := f.orch.CancelPickup(context.Background(), "ship-1")

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.CarrierCode)
			assert.Equal(t, "NQAA97", got.PickupConfirmationCode)
			assert.Equal(t, "NQAA", got.Location)

			assert.Equal(t, shipping.StatusLabelCreated, rec.Status)
			assert.False(t, rec.HasPickup())
			stored, err := f.store.Get(context.Background(), "ship-1")
			require.NoError(t, err)
			assert.Empty(t, stored.PickupDate)
			assert.Empty(t, stored.PickupReadyTime)
			assert.Empty(t, stored.PickupCloseTime)
			assert.Empty(t, stored.PickupLocation)
		})
	}
}

func TestCancelPickup_NoPickupScheduled(t *testing.T) {
	f := newFixture(t)
	rec := f.createShipment(t, shipper.CarrierUPS, "order-14")

	_, err := f.orch.CancelPickup(context.Background(), rec.ID)

	assert.True(t, errors.Is(err, shipper.ErrInvalidRequest))
	assert.Equal(t, 0, f.ups.Calls("CancelPickup"))
}

func TestPickupRoundTrip(t *testing.T) {
	f := newFixture(t)
	rec := f.createShipment(t, shipper.CarrierUPS, "order-15")

	_, err := f.orch.SchedulePickup(context.Background(), &shipping.SchedulePickupInput{
		ShipmentID: rec.ID, PickupDate: "2026-10-20", ReadyTime: "09:00", CloseTime: "17:00",
	})
	require.NoError(t, err)

	var got *shipper.CancelPickupRequest
	f.ups.OnCancelPickup = func(ctx context.Context, req *shipper.CancelPickupRequest) (*shipper.CancelResult, error) {
		got = req
		return &shipper.CancelResult{Success: true}, nil
	}
	cleared, err := f.orch.CancelPickup(context.Background(), rec.ID)
	require.NoError(t, err)

	assert.Equal(t, "GROUND", got.ServiceCode)
	assert.Equal(t, "2026-10-20", got.PickupDate)
	assert.Equal(t, shipping.StatusLabelCreated, cleared.Status)
	assert.Equal(t, []shipping.EventType{
		shipping.EventLabelCreated,
		shipping.EventPickupScheduled,
		shipping.EventPickupCancelled,
	}, f.events.types())
}

// stalledPublisher blocks every delivery until its context ends.
type stalledPublisher struct {
	mu          sync.Mutex
	calls       int
	hadDeadline bool
}

func (p *stalledPublisher) Publish(ctx context.Context, _ shipping.ShipmentEvent) error {
	_, ok := ctx.Deadline()
	p.mu.Lock()
	p.calls++
	p.hadDeadline = p.hadDeadline || ok
	p.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func TestCreateShipment_StalledBrokerDoesNotBlockRecord(t *testing.T) {
	f := newFixture(t)
	stalled := &stalledPublisher{}
	orch := f.build(shipping.Options{Events: stalled, PublishTimeout: 50 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	type outcome struct {
		rec *shipping.ShipmentRecord
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		rec, err := orch.CreateShipment(ctx, shipper.CarrierUPS, &shipping.CreateShipmentInput{
			OrderID:   "order-stall",
			Recipient: customer,
			Packages:  []shipper.Package{parcel},
		})
		done <- outcome{rec, err}
	}()

	var got outcome
	select {
	case got = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("CreateShipment blocked on a stalled publisher")
	}

	require.NoError(t, got.err)
	assert.Equal(t, 1, f.ups.Calls("CreateShipment"))
	stored, err := f.store.Get(context.Background(), got.rec.ID)
	require.NoError(t, err)
	assert.Equal(t, got.rec.TrackingNumber, stored.TrackingNumber)
	assert.Equal(t, shipping.OrderStatusShipped, f.order(t, "order-stall").Status)

	stalled.mu.Lock()
	defer stalled.mu.Unlock()
	assert.Equal(t, 1, stalled.calls)
	assert.True(t, stalled.hadDeadline)
}

func TestPublishFailureDoesNotFailAction(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker unavailable")

	rec := f.createShipment(t, shipper.CarrierUPS, "order-16")

	assert.NotEmpty(t, rec.TrackingNumber)
	assert.Equal(t, shipping.OrderStatusShipped, f.order(t, "order-16").Status)
}

func TestExecute(t *testing.T) {
	f := newFixture(t)

	data, err := json.Marshal(shipper.ShippingRequest{Recipient: customer, Packages: []shipper.Package{parcel}})
	require.NoError(t, err)

	result, err := f.orch.Execute(context.Background(), shipping.Command{
		Carrier: "ups",
		Action:  shipping.ActionGetRates,
		Data:    data,
	})
	require.NoError(t, err)
	quotes, ok := result.([]shipper.RateQuote)
	require.True(t, ok)
	assert.Len(t, quotes, 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RequestsTotal.WithLabelValues("get_rates", "UPS", "success")))
}

func TestExecute_CreateThenCancel(t *testing.T) {
	f := newFixture(t)

	created, err := f.orch.Execute(context.Background(), shipping.Command{
		Carrier: "FEDEX",
		Action:  shipping.ActionCreateShipment,
		Data:    json.RawMessage(`{"orderId":"order-17","serviceCode":"FEDEX_GROUND","recipient":{"name":"Jane Doe","address":{"line1":"350 5th Ave","city":"New York","state":"NY","postalCode":"10118","country":"US"}},"packages":[{"weight":5,"length":12,"width":8,"height":6}]}`),
	})
	require.NoError(t, err)
	rec := created.(*shipping.ShipmentRecord)

	ref, err := json.Marshal(shipping.ShipmentRef{ShipmentID: rec.ID})
	require.NoError(t, err)
	cancelled, err := f.orch.Execute(context.Background(), shipping.Command{Action: shipping.ActionCancelShipment, Data: ref})
	require.NoError(t, err)
	assert.Equal(t, shipping.OrderStatusReadyToShip, cancelled.(*shipping.CancelShipmentResult).OrderStatus)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name string
		cmd  shipping.Command
		want error
	}{
		{"unknown action", shipping.Command{Carrier: "UPS", Action: "void_everything", Data: json.RawMessage(`{}`)}, shipper.ErrInvalidRequest},
		{"unsupported carrier", shipping.Command{Carrier: "DHL", Action: shipping.ActionGetRates, Data: json.RawMessage(`{}`)}, shipper.ErrUnsupportedCarrier},
		{"missing data", shipping.Command{Carrier: "UPS", Action: shipping.ActionGetRates}, shipper.ErrInvalidRequest},
		{"malformed data", shipping.Command{Carrier: "UPS", Action: shipping.ActionCreateShipment, Data: json.RawMessage(`{"packages":"heavy"}`)}, shipper.ErrInvalidRequest},
		{"missing shipment id", shipping.Command{Action: shipping.ActionTrackShipment, Data: json.RawMessage(`{}`)}, shipper.ErrInvalidRequest},
		{"unknown shipment", shipping.Command{Action: shipping.ActionCancelPickup, Data: json.RawMessage(`{"shipmentId":"nope"}`)}, shipper.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.orch.Execute(context.Background(), tt.cmd)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, 0, f.ups.TotalCalls()+f.fedex.TotalCalls())
		})
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{shipper.NewAuthError(shipper.CarrierUPS, "bad creds"), "auth"},
		{shipper.NewAPIError(shipper.CarrierUPS, 400, "bad address"), "api"},
		{shipper.NewNotSupportedError(shipper.CarrierUPS, "CancelShipment"), "not_supported"},
		{shipper.ErrCarrierNotConfigured, "not_configured"},
		{shipper.ErrUnsupportedCarrier, "unsupported_carrier"},
		{shipper.ErrNotFound, "not_found"},
		{shipper.ErrInvalidRequest, "invalid_request"},
		{shipper.ErrOrphanedLabel, "orphaned_label"},
		{errors.New("boom"), "internal"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, shipping.ErrorKind(tt.err))
	}
}
