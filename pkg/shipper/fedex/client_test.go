package fedex_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/shipbridge/pkg/shipper"
	"github.com/tournevent/shipbridge/pkg/shipper/fedex"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestClient(mockClient *fedex.MockAPIClient) *fedex.Client {
	logger := otelzap.New(zap.NewNop())
	return fedex.NewWithAPIClient(
		fedex.Config{AccountNumber: "510087020"},
		mockClient,
		logger,
		nil,
	)
}

func testShippingRequest() *shipper.ShippingRequest {
	return &shipper.ShippingRequest{
		Shipper: shipper.Party{
			Name:    "Warehouse",
			Company: "Acme",
			Phone:   "5555550100",
			Address: shipper.Address{Line1: "1 Dock Rd", City: "Memphis", State: "TN", PostalCode: "38118", Country: "us"},
		},
		Recipient: shipper.Party{
			Name:    "Jane Doe",
			Address: shipper.Address{Line1: "9 Elm St", Line2: "Apt 2", City: "Austin", State: "TX", PostalCode: "73301", Country: "US"},
		},
		Packages: []shipper.Package{{Weight: 5, Length: 10, Width: 8, Height: 4}},
	}
}

func TestPickupCarrierCode(t *testing.T) {
	tests := []struct {
		service string
		want    string
	}{
		{"FEDEX_GROUND", fedex.CarrierCodeGround},
		{"GROUND_HOME_DELIVERY", fedex.CarrierCodeGround},
		{"SMART_POST", fedex.CarrierCodeGround},
		{"fedex_ground", fedex.CarrierCodeGround},
		{"PRIORITY_OVERNIGHT", fedex.CarrierCodeExpress},
		{"STANDARD_OVERNIGHT", fedex.CarrierCodeExpress},
		{"FEDEX_2_DAY", fedex.CarrierCodeExpress},
		{"FEDEX_EXPRESS_SAVER", fedex.CarrierCodeExpress},
		{"SOMETHING_NEW", fedex.CarrierCodeExpress},
		{"", fedex.CarrierCodeExpress},
	}

	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			assert.Equal(t, tt.want, fedex.PickupCarrierCode(tt.service))
		})
	}
}

func TestClient_Carrier(t *testing.T) {
	client := newTestClient(fedex.NewMockAPIClient())
	assert.Equal(t, shipper.CarrierFedEx, client.Carrier())
}

func TestClient_GetRates_Success(t *testing.T) {
	client := newTestClient(fedex.NewMockAPIClient())

	quotes, err := client.GetRates(context.Background(), testShippingRequest())

	require.NoError(t, err)
	require.Len(t, quotes, 4, "adapter returns the unfiltered list")
	assert.Equal(t, "FEDEX_GROUND", quotes[0].ServiceCode)
	assert.Equal(t, "FedEx Ground", quotes[0].ServiceName)
	assert.Equal(t, 13.80, quotes[0].Cost, "account rate preferred over list")
	assert.Equal(t, "3 days", quotes[0].EstimatedDelivery)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, quotes[1].EstimatedDelivery)
}

func TestClient_GetRates_BuildsRequest(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	var captured *fedex.RateRequest
	mockAPI.OnGetRates = func(ctx context.Context, req *fedex.RateRequest) (*fedex.RateResponse, error) {
		captured = req
		return &fedex.RateResponse{}, nil
	}
	client := newTestClient(mockAPI)

	_, err := client.GetRates(context.Background(), testShippingRequest())
	require.NoError(t, err)
	require.NotNil(t, captured)

	assert.Equal(t, "510087020", captured.AccountNumber.Value)
	assert.True(t, captured.RateRequestControlParameters.ReturnTransitTimes)
	rs := captured.RequestedShipment
	assert.Equal(t, "US", rs.Shipper.Address.CountryCode)
	assert.Equal(t, []string{"9 Elm St", "Apt 2"}, rs.Recipient.Address.StreetLines)
	require.Len(t, rs.RequestedPackageLineItems, 1)
	assert.Equal(t, "LB", rs.RequestedPackageLineItems[0].Weight.Units)
	assert.Equal(t, "IN", rs.RequestedPackageLineItems[0].Dimensions.Units)
}

func TestClient_GetRates_EstimateFallbacks(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	mockAPI.OnGetRates = func(ctx context.Context, req *fedex.RateRequest) (*fedex.RateResponse, error) {
		return &fedex.RateResponse{Output: fedex.RateOutput{RateReplyDetails: []fedex.RateReplyDetail{
			{
				ServiceType: "FEDEX_2_DAY",
				Commit:      &fedex.Commit{DateDetail: &fedex.DateDetail{DayFormat: "2026-10-16T20:00:00"}},
				RatedShipmentDetails: []fedex.RatedShipmentDetail{
					{RateType: "LIST", TotalNetCharge: 40, Currency: "USD"},
				},
			},
			{
				ServiceType:       "FEDEX_GROUND",
				OperationalDetail: &fedex.OperationalDetail{TransitTime: "ONE_DAY"},
			},
			{
				ServiceType: "GROUND_HOME_DELIVERY",
				Commit:      &fedex.Commit{TransitDays: &fedex.TransitDays{Description: "2 Business Days"}},
			},
			{
				ServiceType:       "SMART_POST",
				OperationalDetail: &fedex.OperationalDetail{TransitTime: "UNKNOWN"},
			},
		}}}, nil
	}
	client := newTestClient(mockAPI)

	quotes, err := client.GetRates(context.Background(), testShippingRequest())

	require.NoError(t, err)
	require.Len(t, quotes, 4)
	assert.Equal(t, "2026-10-16", quotes[0].EstimatedDelivery)
	assert.Equal(t, 40.0, quotes[0].Cost, "first rate used without an ACCOUNT entry")
	assert.Equal(t, "FedEx 2Day", quotes[0].ServiceName)
	assert.Equal(t, "1 day", quotes[1].EstimatedDelivery)
	assert.Equal(t, "2 Business Days", quotes[2].EstimatedDelivery)
	assert.Equal(t, shipper.EstimateUnavailable, quotes[3].EstimatedDelivery)
}

func TestClient_GetRates_APIError(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	mockAPI.SimulateErrors = true
	client := newTestClient(mockAPI)

	_, err := client.GetRates(context.Background(), testShippingRequest())

	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrCarrierAPI))
}

func TestClient_CreateShipment_Success(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	var captured *fedex.ShipRequest
	mockAPI.OnCreateShipment = func(ctx context.Context, req *fedex.ShipRequest) (*fedex.ShipResponse, error) {
		captured = req
		return fedex.NewMockAPIClient().CreateShipment(ctx, req)
	}
	client := newTestClient(mockAPI)

	result, err := client.CreateShipment(context.Background(), &shipper.CreateShipmentRequest{
		ShippingRequest: *testShippingRequest(),
		ServiceCode:     "FEDEX_GROUND",
		Reference:       "ORDER-7",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, result.TrackingNumber)
	assert.Equal(t, "https://www.fedex.com/fedextrack/?trknbr="+result.TrackingNumber, result.TrackingURL)
	assert.Equal(t, shipper.LabelPDF, result.Label.Format)
	assert.NotEmpty(t, result.Label.Data)
	assert.Equal(t, "FedEx Ground", result.ServiceName)
	assert.Equal(t, 12.10, result.ShippingCost)
	assert.Equal(t, 13.80, result.TotalCost)
	assert.NotEmpty(t, result.RawResponse)

	require.NotNil(t, captured)
	assert.Equal(t, "LABEL", captured.LabelResponseOptions)
	assert.Equal(t, "PDF", captured.RequestedShipment.LabelSpecification.ImageType)
	assert.Equal(t, "ORDER-7", captured.RequestedShipment.RequestedPackageLineItems[0].CustomerReferences[0].Value)
}

func TestClient_CreateShipment_EmptyResponse(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	mockAPI.OnCreateShipment = func(ctx context.Context, req *fedex.ShipRequest) (*fedex.ShipResponse, error) {
		return &fedex.ShipResponse{}, nil
	}
	client := newTestClient(mockAPI)

	_, err := client.CreateShipment(context.Background(), &shipper.CreateShipmentRequest{
		ShippingRequest: *testShippingRequest(),
		ServiceCode:     "FEDEX_GROUND",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrCarrierAPI))
}

func TestClient_SchedulePickup_CarrierCode(t *testing.T) {
	tests := []struct {
		service string
		want    string
	}{
		{"FEDEX_GROUND", "FDXG"},
		{"PRIORITY_OVERNIGHT", "FDXE"},
	}

	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			mockAPI := fedex.NewMockAPIClient()
			var captured *fedex.PickupRequest
			mockAPI.OnCreatePickup = func(ctx context.Context, req *fedex.PickupRequest) (*fedex.PickupResponse, error) {
				captured = req
				return &fedex.PickupResponse{Output: fedex.PickupOutput{PickupConfirmationCode: "NQAA97", Location: "NQAA"}}, nil
			}
			client := newTestClient(mockAPI)

			result, err := client.SchedulePickup(context.Background(), &shipper.PickupRequest{
				TrackingNumber: "794612345678",
				ServiceCode:    tt.service,
				PickupDate:     "2026-10-20",
				ReadyTime:      "09:00",
				CloseTime:      "17:00",
				Address:        testShippingRequest().Shipper,
				Packages:       testShippingRequest().Packages,
			})

			require.NoError(t, err)
			assert.Equal(t, "NQAA97", result.ConfirmationNumber)
			assert.Equal(t, "NQAA", result.Location)
			require.NotNil(t, captured)
			assert.Equal(t, tt.want, captured.CarrierCode)
			assert.Equal(t, "2026-10-20T09:00:00", captured.OriginDetail.ReadyDateTimestamp)
			assert.Equal(t, "17:00:00", captured.OriginDetail.CustomerCloseTime)
		})
	}
}

func TestClient_SchedulePickup_InvalidTime(t *testing.T) {
	client := newTestClient(fedex.NewMockAPIClient())

	_, err := client.SchedulePickup(context.Background(), &shipper.PickupRequest{
		PickupDate: "2026-10-20",
		ReadyTime:  "9am",
		CloseTime:  "17:00",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrInvalidRequest))
}

func TestClient_TrackShipment_InTransit(t *testing.T) {
	client := newTestClient(fedex.NewMockAPIClient())

	result, err := client.TrackShipment(context.Background(), "794612345678")

	require.NoError(t, err)
	assert.Equal(t, "794612345678", result.TrackingNumber)
	assert.Equal(t, shipper.StatusInTransit, result.Status)
	require.Len(t, result.Events, 2)
	assert.Equal(t, "MEMPHIS, TN, US", result.Events[0].Location)
	assert.Equal(t, shipper.StatusPickedUp, result.Events[1].Status)
	assert.NotNil(t, result.Events[0].Timestamp)
}

func TestClient_TrackShipment_Delivered(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	mockAPI.OnTrack = func(ctx context.Context, req *fedex.TrackRequest) (*fedex.TrackResponse, error) {
		return &fedex.TrackResponse{Output: fedex.TrackOutput{CompleteTrackResults: []fedex.CompleteTrackResult{{
			TrackingNumber: "794612345678",
			TrackResults: []fedex.TrackResult{{
				LatestStatusDetail: &fedex.StatusDetail{Code: "DL", Description: "Delivered"},
				DateAndTimes:       []fedex.DateAndTime{{Type: "ACTUAL_DELIVERY", DateTime: "2026-10-16T14:32:00-05:00"}},
			}},
		}}}}, nil
	}
	client := newTestClient(mockAPI)

	result, err := client.TrackShipment(context.Background(), "794612345678")

	require.NoError(t, err)
	assert.Equal(t, shipper.StatusDelivered, result.Status)
	require.NotNil(t, result.DeliveredAt)
	assert.Equal(t, "2026-10-16T19:32:00Z", result.DeliveredAt.UTC().Format("2006-01-02T15:04:05Z07:00"))
}

func TestClient_TrackShipment_OutForDelivery(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	mockAPI.OnTrack = func(ctx context.Context, req *fedex.TrackRequest) (*fedex.TrackResponse, error) {
		return &fedex.TrackResponse{Output: fedex.TrackOutput{CompleteTrackResults: []fedex.CompleteTrackResult{{
			TrackingNumber: "794612345678",
			TrackResults: []fedex.TrackResult{{
				LatestStatusDetail: &fedex.StatusDetail{Code: "OD", StatusByLocale: "On FedEx vehicle for delivery", Description: "On FedEx vehicle for delivery"},
				ScanEvents: []fedex.ScanEvent{
					{Date: "2026-10-16T07:12:00-05:00", EventType: "OD", EventDescription: "On FedEx vehicle for delivery"},
					{Date: "2026-10-16T04:40:00-05:00", EventType: "AR", EventDescription: "At local FedEx facility"},
				},
			}},
		}}}}, nil
	}
	client := newTestClient(mockAPI)

	result, err := client.TrackShipment(context.Background(), "794612345678")

	require.NoError(t, err)
	assert.Equal(t, shipper.StatusOutForDelivery, result.Status)
	require.Len(t, result.Events, 2)
	assert.Equal(t, shipper.StatusOutForDelivery, result.Events[0].Status)
	assert.Nil(t, result.DeliveredAt)
}

func TestClient_TrackShipment_NotFound(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	mockAPI.OnTrack = func(ctx context.Context, req *fedex.TrackRequest) (*fedex.TrackResponse, error) {
		return &fedex.TrackResponse{Output: fedex.TrackOutput{CompleteTrackResults: []fedex.CompleteTrackResult{{
			TrackResults: []fedex.TrackResult{{Error: &fedex.TrackError{Code: "TRACKING.TRACKINGNUMBER.NOTFOUND", Message: "Tracking number cannot be found."}}},
		}}}}, nil
	}
	client := newTestClient(mockAPI)

	_, err := client.TrackShipment(context.Background(), "000")

	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrCarrierAPI))
	assert.Equal(t, "TRACKING.TRACKINGNUMBER.NOTFOUND: Tracking number cannot be found.", shipper.UserMessage(err))
}

func TestClient_CancelShipment_Success(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	var captured *fedex.CancelShipmentRequest
	mockAPI.OnCancelShipment = func(ctx context.Context, req *fedex.CancelShipmentRequest) (*fedex.CancelShipmentResponse, error) {
		captured = req
		return &fedex.CancelShipmentResponse{Output: fedex.CancelShipmentOutput{CancelledShipment: true}}, nil
	}
	client := newTestClient(mockAPI)

	result, err := client.CancelShipment(context.Background(), "794612345678")

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.NotNil(t, captured)
	assert.Equal(t, "DELETE_ALL_PACKAGES", captured.DeletionControl)
	assert.Equal(t, "794612345678", captured.TrackingNumber)
}

func TestClient_CancelShipment_NotCancelled(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	mockAPI.OnCancelShipment = func(ctx context.Context, req *fedex.CancelShipmentRequest) (*fedex.CancelShipmentResponse, error) {
		return &fedex.CancelShipmentResponse{Output: fedex.CancelShipmentOutput{CancelledShipment: false}}, nil
	}
	client := newTestClient(mockAPI)

	_, err := client.CancelShipment(context.Background(), "794612345678")

	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrCarrierAPI))
}

func TestClient_CancelPickup(t *testing.T) {
	mockAPI := fedex.NewMockAPIClient()
	var captured *fedex.CancelPickupRequest
	mockAPI.OnCancelPickup = func(ctx context.Context, req *fedex.CancelPickupRequest) (*fedex.CancelPickupResponse, error) {
		captured = req
		return &fedex.CancelPickupResponse{Output: fedex.CancelPickupOutput{CancelConfirmationMessage: "cancelled"}}, nil
	}
	client := newTestClient(mockAPI)

	result, err := client.CancelPickup(context.Background(), &shipper.CancelPickupRequest{
		ConfirmationNumber: "NQAA97",
		PickupDate:         "2026-10-20",
		ServiceCode:        "FEDEX_GROUND",
		Location:           "NQAA",
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "cancelled", result.Message)
	require.NotNil(t, captured)
	assert.Equal(t, "FDXG", captured.CarrierCode)
	assert.Equal(t, "NQAA", captured.Location)
	assert.Equal(t, "2026-10-20", captured.ScheduledDate)
}

func TestFactory_MissingCredentials(t *testing.T) {
	_, err := fedex.Factory(&shipper.CarrierSettings{CarrierID: shipper.CarrierFedEx, APIURL: "https://apis.fedex.com"}, shipper.Deps{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, shipper.ErrCarrierNotConfigured))
}
