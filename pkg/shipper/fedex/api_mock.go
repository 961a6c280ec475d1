package fedex

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

	OnGetRates       func(ctx context.Context, req *RateRequest) (*RateResponse, error)
	OnCreateShipment func(ctx context.Context, req *ShipRequest) (*ShipResponse, error)
	OnCreatePickup   func(ctx context.Context, req *PickupRequest) (*PickupResponse, error)
	OnTrack          func(ctx context.Context, req *TrackRequest) (*TrackResponse, error)
	OnCancelShipment func(ctx context.Context, req *CancelShipmentRequest) (*CancelShipmentResponse, error)
	OnCancelPickup   func(ctx context.Context, req *CancelPickupRequest) (*CancelPickupResponse, error)
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
		return shipper.NewAPIError(shipper.CarrierFedEx, 500, "Simulated API error")
	}
	return nil
}

func mockTransactionID() string {
	return "mock-" + uuid.NewString()[:8]
}

// GetRates returns mock rate quotes, including services the default rate
// filter removes.
func (m *MockAPIClient) GetRates(ctx context.Context, req *RateRequest) (*RateResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, req)
	}

	day := func(days int) *Commit {
		return &Commit{DateDetail: &DateDetail{DayFormat: time.Now().AddDate(0, 0, days).Format("2006-01-02") + "T20:00:00"}}
	}
	rated := func(account, list float64) []RatedShipmentDetail {
		return []RatedShipmentDetail{
			{RateType: "LIST", TotalNetCharge: list, Currency: "USD"},
			{RateType: "ACCOUNT", TotalNetCharge: account, Currency: "USD"},
		}
	}

	return &RateResponse{
		TransactionID: mockTransactionID(),
		Output: RateOutput{RateReplyDetails: []RateReplyDetail{
			{
				ServiceType:          "FEDEX_GROUND",
				ServiceName:          "FedEx Ground",
				RatedShipmentDetails: rated(13.80, 15.99),
				OperationalDetail:    &OperationalDetail{TransitTime: "THREE_DAYS"},
			},
			{
				ServiceType:          "FEDEX_EXPRESS_SAVER",
				ServiceName:          "FedEx Express Saver",
				RatedShipmentDetails: rated(24.10, 28.99),
				Commit:               day(3),
			},
			{
				ServiceType:          "FEDEX_2_DAY",
				ServiceName:          "FedEx 2Day",
				RatedShipmentDetails: rated(31.40, 36.50),
				Commit:               day(2),
			},
			{
				ServiceType:          "PRIORITY_OVERNIGHT",
				ServiceName:          "FedEx Priority Overnight",
				RatedShipmentDetails: rated(58.25, 66.00),
				Commit:               day(1),
			},
		}},
	}, nil
}

// CreateShipment creates a mock shipment.
func (m *MockAPIClient) CreateShipment(ctx context.Context, req *ShipRequest) (*ShipResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, req)
	}

	trackingNumber := fmt.Sprintf("7%011d", time.Now().UnixNano()%100000000000)
	serviceType := req.RequestedShipment.ServiceType

	return &ShipResponse{
		TransactionID: mockTransactionID(),
		Output: ShipOutput{TransactionShipments: []TransactionShipment{{
			MasterTrackingNumber: trackingNumber,
			ServiceType:          serviceType,
			ServiceName:          ServiceName(serviceType),
			PieceResponses: []PieceResponse{{
				TrackingNumber: trackingNumber,
				PackageDocuments: []PackageDocument{{
					ContentType:  "LABEL",
					DocType:      "PDF",
					EncodedLabel: base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 mock label " + trackingNumber)),
				}},
			}},
			CompletedShipmentDetail: &CompletedShipmentDetail{ShipmentRating: &ShipmentRating{
				ShipmentRateDetails: []RatedShipmentDetail{
					{RateType: "ACCOUNT", TotalBaseCharge: 12.10, TotalNetCharge: 13.80, Currency: "USD"},
				},
			}},
		}}},
	}, nil
}

// CreatePickup returns a mock confirmation.
func (m *MockAPIClient) CreatePickup(ctx context.Context, req *PickupRequest) (*PickupResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCreatePickup != nil {
		return m.OnCreatePickup(ctx, req)
	}

	return &PickupResponse{
		TransactionID: mockTransactionID(),
		Output: PickupOutput{
			PickupConfirmationCode: strings.ToUpper(uuid.NewString()[:6]),
			Location:               "NQAA",
		},
	}, nil
}

// Track returns a mock in-transit history.
func (m *MockAPIClient) Track(ctx context.Context, req *TrackRequest) (*TrackResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnTrack != nil {
		return m.OnTrack(ctx, req)
	}

	trackingNumber := ""
	if len(req.TrackingInfo) > 0 {
		trackingNumber = req.TrackingInfo[0].TrackingNumberInfo.TrackingNumber
	}
	now := time.Now().UTC()

	return &TrackResponse{
		TransactionID: mockTransactionID(),
		Output: TrackOutput{CompleteTrackResults: []CompleteTrackResult{{
			TrackingNumber: trackingNumber,
			TrackResults: []TrackResult{{
				LatestStatusDetail: &StatusDetail{Code: "IT", StatusByLocale: "In transit", Description: "In transit"},
				ScanEvents: []ScanEvent{
					{
						Date:             now.Add(-2 * time.Hour).Format(time.RFC3339),
						EventType:        "DP",
						EventDescription: "Departed FedEx location",
						ScanLocation:     &ScanLocation{City: "MEMPHIS", StateOrProvinceCode: "TN", CountryCode: "US"},
					},
					{
						Date:             now.Add(-10 * time.Hour).Format(time.RFC3339),
						EventType:        "PU",
						EventDescription: "Picked up",
						ScanLocation:     &ScanLocation{City: "ATLANTA", StateOrProvinceCode: "GA", CountryCode: "US"},
					},
				},
			}},
		}}},
	}, nil
}

// CancelShipment returns a mock void confirmation.
func (m *MockAPIClient) CancelShipment(ctx context.Context, req *CancelShipmentRequest) (*CancelShipmentResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCancelShipment != nil {
		return m.OnCancelShipment(ctx, req)
	}

	return &CancelShipmentResponse{
		TransactionID: mockTransactionID(),
		Output:        CancelShipmentOutput{CancelledShipment: true, SuccessMessage: "Success"},
	}, nil
}

// CancelPickup returns a mock cancellation.
func (m *MockAPIClient) CancelPickup(ctx context.Context, req *CancelPickupRequest) (*CancelPickupResponse, error) {
	if err := m.simulate(); err != nil {
		return nil, err
	}
	if m.OnCancelPickup != nil {
		return m.OnCancelPickup(ctx, req)
	}

	return &CancelPickupResponse{
		TransactionID: mockTransactionID(),
		Output: CancelPickupOutput{
			PickupConfirmationCode:    req.PickupConfirmationCode,
			CancelConfirmationMessage: "Requested pickup has been cancelled Successfully.",
		},
	}, nil
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
