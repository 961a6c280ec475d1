package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/shipbridge/internal/server"
	"github.com/tournevent/shipbridge/internal/shipping"
	"github.com/tournevent/shipbridge/internal/store/memory"
	"github.com/tournevent/shipbridge/internal/telemetry"
	"github.com/tournevent/shipbridge/pkg/shipper"
	"github.com/tournevent/shipbridge/pkg/shipper/mock"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var warehouse = shipper.Party{
	Name:    "Tournevent Warehouse",
	Address: shipper.Address{Line1: "100 Peachtree St", City: "Atlanta", State: "GA", PostalCode: "30303", Country: "US"},
}

type testEnv struct {
	store *memory.Store
	ups   *mock.Client
	srv   *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := otelzap.New(zap.NewNop())
	reg := prometheus.NewRegistry()

	env := &testEnv{store: memory.New(), ups: mock.New(shipper.CarrierUPS)}
	registry := shipper.NewRegistry(shipper.Deps{Logger: logger})
	registry.Register(shipper.CarrierUPS, env.ups.Factory())
	registry.Register(shipper.CarrierFedEx, mock.New(shipper.CarrierFedEx).Factory())

	env.store.PutCarrierSettings(&shipper.CarrierSettings{
		CarrierID:          shipper.CarrierUPS,
		IsActive:           true,
		DefaultServiceCode: "GROUND",
		Shipper:            warehouse,
	})

	orch := shipping.New(shipping.Options{
		Registry:  registry,
		Settings:  env.store,
		Shipments: env.store,
		Orders:    env.store,
		Logger:    logger,
		Metrics:   telemetry.NewMetrics(reg),
	})

	s := server.New(server.Config{Port: 8080}, orch, registry, reg, logger)
	env.srv = httptest.NewServer(s.Handler())
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) post(t *testing.T, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(e.srv.URL+"/v1/shipping", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

const rateData = `{
  "recipient": {"name": "Jane Doe", "address": {"line1": "350 5th Ave", "city": "New York", "state": "NY", "postalCode": "10118", "country": "US"}},
  "packages": [{"weight": 5, "length": 12, "width": 8, "height": 6}]
}`

func TestServer_Health(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestServer_Carriers(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/v1/carriers")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Success bool     `json:"success"`
		Data    []string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.Equal(t, []string{"FEDEX", "UPS"}, out.Data)
}

func TestServer_GetRates(t *testing.T) {
	env := newTestEnv(t)

	status, out := env.post(t, `{"carrier":"ups","action":"get_rates","data":`+rateData+`}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, out["success"])
	rates, ok := out["data"].([]any)
	require.True(t, ok)
	assert.Len(t, rates, 3)
	assert.Equal(t, 1, env.ups.Calls("GetRates"))
}

func TestServer_CreateAndCancel(t *testing.T) {
	env := newTestEnv(t)

	status, out := env.post(t, `{"carrier":"UPS","action":"create_shipment","data":{
	  "orderId": "order-1",
	  "recipient": {"name": "Jane Doe", "address": {"line1": "350 5th Ave", "city": "New York", "state": "NY", "postalCode": "10118", "country": "US"}},
	  "packages": [{"weight": 5, "length": 12, "width": 8, "height": 6}]
	}}`)
	require.Equal(t, http.StatusOK, status, out)
	data := out["data"].(map[string]any)
	id := data["id"].(string)
	assert.NotEmpty(t, data["trackingNumber"])

	order, ok := env.store.Order("order-1")
	require.True(t, ok)
	assert.Equal(t, shipping.OrderStatusShipped, order.Status)

	status, out = env.post(t, `{"carrier":"UPS","action":"cancel_shipment","data":{"shipmentId":"`+id+`"}}`)
	require.Equal(t, http.StatusOK, status, out)
	data = out["data"].(map[string]any)
	assert.Equal(t, float64(0), data["remainingShipments"])

	order, _ = env.store.Order("order-1")
	assert.Equal(t, shipping.OrderStatusReadyToShip, order.Status)
}

func TestServer_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed body", `{"carrier":`, http.StatusBadRequest},
		{"unknown action", `{"carrier":"UPS","action":"teleport","data":{}}`, http.StatusBadRequest},
		{"unsupported carrier", `{"carrier":"DHL","action":"get_rates","data":` + rateData + `}`, http.StatusBadRequest},
		{"not configured", `{"carrier":"FEDEX","action":"get_rates","data":` + rateData + `}`, http.StatusPreconditionFailed},
		{"shipment not found", `{"carrier":"UPS","action":"track_shipment","data":{"shipmentId":"missing"}}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			status, out := env.post(t, tt.body)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, out["error"])
			assert.Nil(t, out["success"])
		})
	}
}

func TestServer_CarrierErrorMessage(t *testing.T) {
	env := newTestEnv(t)
	env.ups.OnGetRates = func(context.Context, *shipper.ShippingRequest) ([]shipper.RateQuote, error) {
		return nil, shipper.NewAPIError(shipper.CarrierUPS, 400, "Invalid postal code")
	}

	status, out := env.post(t, `{"carrier":"UPS","action":"get_rates","data":`+rateData+`}`)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "Invalid postal code", out["error"])
}

func TestServer_InternalError(t *testing.T) {
	env := newTestEnv(t)
	env.ups.OnGetRates = func(context.Context, *shipper.ShippingRequest) ([]shipper.RateQuote, error) {
		return nil, errors.New("socket closed")
	}

	status, _ := env.post(t, `{"carrier":"UPS","action":"get_rates","data":`+rateData+`}`)
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestServer_Metrics(t *testing.T) {
	env := newTestEnv(t)
	env.post(t, `{"carrier":"UPS","action":"get_rates","data":`+rateData+`}`)

	resp, err := http.Get(env.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "shipbridge_requests_total")
}

func TestServer_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/v1/shipping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
