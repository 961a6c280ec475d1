package ups

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/shipbridge/pkg/shipper"
	"github.com/tournevent/shipbridge/pkg/shipper/oauth"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

// API paths, relative to the configured base URL.
const (
	tokenPath        = "/security/v1/oauth/token"
	ratePath         = "/api/rating/v2409/Shoptimeintransit"
	shipPath         = "/api/shipments/v2409/ship"
	pickupPath       = "/api/pickupcreation/v2409/pickup"
	pickupCancelPath = "/api/shipments/v2409/pickup/02"
	trackPath        = "/api/track/v1/details/"
)

const transactionSource = "shipbridge"

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL        string
	creds          oauth.Credentials
	tokens         *oauth.Client
	httpClient     *http.Client
	requestTimeout time.Duration
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	MerchantID     string // sent as x-merchant-id on token requests
	HTTPClient     *http.Client
	TokenCache     oauth.TokenCache
	Logger         *otelzap.Logger
	AuthTimeout    time.Duration
	RequestTimeout time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	authTimeout := cfg.AuthTimeout
	if authTimeout == 0 {
		authTimeout = shipper.DefaultAuthTimeout
	}

	requestTimeout := cfg.RequestTimeout
	if requestTimeout == 0 {
		requestTimeout = shipper.DefaultRequestTimeout
	}

	header := http.Header{}
	if cfg.MerchantID != "" {
		header.Set("x-merchant-id", cfg.MerchantID)
	}

	return &HTTPAPIClient{
		baseURL: cfg.BaseURL,
		creds:   oauth.Credentials{ClientID: cfg.ClientID, ClientSecret: cfg.ClientSecret},
		tokens: oauth.New(oauth.Config{
			TokenURL:       cfg.BaseURL + tokenPath,
			Style:          oauth.AuthStyleBasic,
			Header:         header,
			CacheNamespace: string(shipper.CarrierUPS),
			Timeout:        authTimeout,
			Logger:         cfg.Logger,
		}, httpClient, cfg.TokenCache),
		httpClient:     httpClient,
		requestTimeout: requestTimeout,
	}
}

// GetRates fetches rates with time-in-transit data.
func (c *HTTPAPIClient) GetRates(ctx context.Context, req *RateRequestEnvelope) (*RateResponseEnvelope, error) {
	var result RateResponseEnvelope
	raw, err := c.doRequest(ctx, http.MethodPost, ratePath, req, nil, &result)
	if err != nil {
		return nil, err
	}
	result.Raw = raw
	return &result, nil
}

// CreateShipment purchases a label.
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequestEnvelope) (*ShipmentResponseEnvelope, error) {
	var result ShipmentResponseEnvelope
	raw, err := c.doRequest(ctx, http.MethodPost, shipPath, req, nil, &result)
	if err != nil {
		return nil, err
	}
	result.Raw = raw
	return &result, nil
}

// SchedulePickup books a pickup.
func (c *HTTPAPIClient) SchedulePickup(ctx context.Context, req *PickupCreationRequestEnvelope) (*PickupCreationResponseEnvelope, error) {
	var result PickupCreationResponseEnvelope
	raw, err := c.doRequest(ctx, http.MethodPost, pickupPath, req, nil, &result)
	if err != nil {
		return nil, err
	}
	result.Raw = raw
	return &result, nil
}

// Track retrieves tracking details for one inquiry number.
func (c *HTTPAPIClient) Track(ctx context.Context, trackingNumber string) (*TrackResponseEnvelope, error) {
	path := trackPath + url.PathEscape(trackingNumber) + "?locale=en_US&returnSignature=false"

	var result TrackResponseEnvelope
	raw, err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &result)
	if err != nil {
		return nil, err
	}
	result.Raw = raw
	return &result, nil
}

// CancelPickup cancels a pickup by PRN.
func (c *HTTPAPIClient) CancelPickup(ctx context.Context, prn string) (*PickupCancelResponseEnvelope, error) {
	header := http.Header{}
	header.Set("Prn", prn)

	var result PickupCancelResponseEnvelope
	raw, err := c.doRequest(ctx, http.MethodDelete, pickupCancelPath, nil, header, &result)
	if err != nil {
		return nil, err
	}
	result.Raw = raw
	return &result, nil
}

// doRequest acquires a token, performs the call under the request timeout
// and decodes a 2xx body into out. The raw body is returned for audit.
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path string, body any, header http.Header, out any) ([]byte, error) {
	token, err := c.tokens.Token(ctx, c.creds)
	if err != nil {
		return nil, shipper.AuthErrorFrom(shipper.CarrierUPS, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("transId", uuid.NewString())
	req.Header.Set("transactionSrc", transactionSource)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, shipper.TransportError(shipper.CarrierUPS, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, shipper.TransportError(shipper.CarrierUPS, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.parseError(resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return nil, shipper.NewAPIError(shipper.CarrierUPS, resp.StatusCode, "unreadable response from UPS").
			WithCause(fmt.Errorf("failed to decode response: %w", err))
	}
	return raw, nil
}

// parseError extracts the normalized carrier message from an error body.
func (c *HTTPAPIClient) parseError(statusCode int, body []byte) error {
	return shipper.NewAPIError(shipper.CarrierUPS, statusCode, shipper.NormalizeErrorBody(statusCode, body))
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
