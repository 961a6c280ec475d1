package ups

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/shipbridge/pkg/shipper"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetRates       func(ctx context.Context, req *RateRequestEnvelope) (*RateResponseEnvelope, error)
	OnCreateShipment func(ctx context.Context, req *ShipmentRequestEnvelope) (*ShipmentResponseEnvelope, error)
	OnSchedulePickup func(ctx context.Context, req *PickupCreationRequestEnvelope) (*PickupCreationResponseEnvelope, error)
	OnTrack          func(ctx context.Context, trackingNumber string) (*TrackResponseEnvelope, error)
	OnCancelPickup   func(ctx context.Context, prn string) (*PickupCancelResponseEnvelope, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

func (m *MockAPIClient) simulate() error {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}
	if m.SimulateErrors {
		return shipper.NewAPIError(shipper.CarrierUPS, 500, "Simulated API error")
	}
	return nil
}

var mockSuccess = Response{ResponseStatus: ResponseStatus{Code: "1", Description: "Success"}}

// GetRates returns mock shipping rates.
func (m *MockAPIClient) GetRates(ctx context.Context, req *RateRequestEnvelope) (*RateResponseEnvelope, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, req)
	}

	arrival := func(days int) *TimeInTransit {
		return &TimeInTransit{ServiceSummary: OneOrMany[ServiceSummary]{{
			EstimatedArrival: EstimatedArrival{
				Arrival:               ArrivalTime{Date: time.Now().AddDate(0, 0, days).Format("20060102"), Time: "233000"},
				BusinessDaysInTransit: fmt.Sprint(days),
			},
		}}}
	}

	return &RateResponseEnvelope{
		RateResponse: RateResponse{
			Response: mockSuccess,
			RatedShipment: OneOrMany[RatedShipment]{
				{
					Service:       CodeDescription{Code: "03"},
					TotalCharges:  Charges{CurrencyCode: "USD", MonetaryValue: "14.50"},
					TimeInTransit: arrival(4),
				},
				{
					Service:            CodeDescription{Code: "02"},
					TotalCharges:       Charges{CurrencyCode: "USD", MonetaryValue: "31.20"},
					GuaranteedDelivery: &GuaranteedDelivery{BusinessDaysInTransit: "2"},
					TimeInTransit:      arrival(2),
				},
				{
					Service:            CodeDescription{Code: "01"},
					TotalCharges:       Charges{CurrencyCode: "USD", MonetaryValue: "62.75"},
					GuaranteedDelivery: &GuaranteedDelivery{BusinessDaysInTransit: "1"},
					TimeInTransit:      arrival(1),
				},
			},
		},
	}, nil
}

// CreateShipment creates a mock shipment.
func (m *MockAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequestEnvelope) (*ShipmentResponseEnvelope, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, req)
	}

	trackingNumber := "1Z" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
	label := base64.StdEncoding.EncodeToString([]byte("GIF89a mock label " + trackingNumber))

	return &ShipmentResponseEnvelope{
		ShipmentResponse: ShipmentResponse{
			Response: mockSuccess,
			ShipmentResults: ShipmentResults{
				ShipmentCharges: ShipmentCharges{
					TransportationCharges: Charges{CurrencyCode: "USD", MonetaryValue: "14.50"},
					TotalCharges:          Charges{CurrencyCode: "USD", MonetaryValue: "16.25"},
				},
				ShipmentIdentificationNumber: trackingNumber,
				PackageResults: OneOrMany[PackageResult]{{
					TrackingNumber: trackingNumber,
					ShippingLabel: ShippingLabel{
						ImageFormat:  CodeDescription{Code: "GIF"},
						GraphicImage: label,
					},
				}},
			},
		},
	}, nil
}

// SchedulePickup returns a mock PRN.
func (m *MockAPIClient) SchedulePickup(ctx context.Context, req *PickupCreationRequestEnvelope) (*PickupCreationResponseEnvelope, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnSchedulePickup != nil {
		return m.OnSchedulePickup(ctx, req)
	}

	return &PickupCreationResponseEnvelope{
		PickupCreationResponse: PickupCreationResponse{
			Response: mockSuccess,
			PRN:      strings.ToUpper(uuid.NewString()[:11]),
		},
	}, nil
}

// Track returns a mock in-transit history.
func (m *MockAPIClient) Track(ctx context.Context, trackingNumber string) (*TrackResponseEnvelope, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnTrack != nil {
		return m.OnTrack(ctx, trackingNumber)
	}

	today := time.Now().Format("20060102")
	return &TrackResponseEnvelope{
		TrackResponse: TrackResponse{
			Shipment: []TrackShipment{{
				InquiryNumber: trackingNumber,
				Package: []TrackPackage{{
					TrackingNumber: trackingNumber,
					CurrentStatus:  &TrackStatus{Code: "IT", Description: "In Transit"},
					Activity: []TrackActivity{
						{
							Location: &TrackLocation{Address: TrackAddress{City: "Louisville", StateProvince: "KY", Country: "US"}},
							Status:   TrackStatus{Type: "I", Code: "DP", Description: "Departed from Facility"},
							Date:     today,
							Time:     "043000",
						},
						{
							Location: &TrackLocation{Address: TrackAddress{City: "Atlanta", StateProvince: "GA", Country: "US"}},
							Status:   TrackStatus{Type: "P", Code: "PU", Description: "Pickup Scan"},
							Date:     today,
							Time:     "010000",
						},
					},
				}},
			}},
		},
	}, nil
}

// CancelPickup returns a mock cancellation.
func (m *MockAPIClient) CancelPickup(ctx context.Context, prn string) (*PickupCancelResponseEnvelope, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCancelPickup != nil {
		return m.OnCancelPickup(ctx, prn)
	}

	return &PickupCancelResponseEnvelope{
		PickupCancelResponse: PickupCancelResponse{Response: mockSuccess, PickupType: "01"},
	}, nil
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
