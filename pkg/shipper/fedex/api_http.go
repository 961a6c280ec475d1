package fedex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/shipbridge/pkg/shipper"
	"github.com/tournevent/shipbridge/pkg/shipper/oauth"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

// API paths, relative to the configured base URL.
const (
	tokenPath          = "/oauth/token"
	ratePath           = "/rate/v1/rates/quotes"
	shipPath           = "/ship/v1/shipments"
	shipCancelPath     = "/ship/v1/shipments/cancel"
	pickupPath         = "/pickup/v1/pickups"
	pickupCancelPath   = "/pickup/v1/pickups/cancel"
	trackingNumberPath = "/track/v1/trackingnumbers"
)

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL        string
	creds          oauth.Credentials
	trackingCreds  oauth.Credentials
	tokens         *oauth.Client
	httpClient     *http.Client
	requestTimeout time.Duration
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// Tracking credentials are optional; the primary pair is used when unset.
	TrackingClientID     string
	TrackingClientSecret string
	HTTPClient           *http.Client
	TokenCache           oauth.TokenCache
	Logger               *otelzap.Logger
	AuthTimeout          time.Duration
	RequestTimeout       time.Duration
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

	creds := oauth.Credentials{ClientID: cfg.ClientID, ClientSecret: cfg.ClientSecret}
	trackingCreds := creds
	if cfg.TrackingClientID != "" && cfg.TrackingClientSecret != "" {
		trackingCreds = oauth.Credentials{ClientID: cfg.TrackingClientID, ClientSecret: cfg.TrackingClientSecret}
	}

	return &HTTPAPIClient{
		baseURL:       cfg.BaseURL,
		creds:         creds,
		trackingCreds: trackingCreds,
		tokens: oauth.New(oauth.Config{
			TokenURL:       cfg.BaseURL + tokenPath,
			Style:          oauth.AuthStyleForm,
			CacheNamespace: string(shipper.CarrierFedEx),
			Timeout:        authTimeout,
			Logger:         cfg.Logger,
		}, httpClient, cfg.TokenCache),
		httpClient:     httpClient,
		requestTimeout: requestTimeout,
	}
}

// GetRates fetches rate quotes.
func (c *HTTPAPIClient) GetRates(ctx context.Context, req *RateRequest) (*RateResponse, error) {
	var result RateResponse
	raw, err := c.doRequest(ctx, c.creds, http.MethodPost, ratePath, req, &result)
	if err != nil {
		return nil, err
	}
	result.Raw = raw
	return &result, nil
}

// CreateShipment purchases a label.
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, req *ShipRequest) (*ShipResponse, error) {
	var result ShipResponse
	raw, err := c.doRequest(ctx, c.creds, http.MethodPost, shipPath, req, &result)
	if err != nil {
		return nil, err
	}
	result.Raw = raw
	return &result, nil
}

// CreatePickup books a pickup.
func (c *HTTPAPIClient) CreatePickup(ctx context.Context, req *PickupRequest) (*PickupResponse, error) {
	var result PickupResponse
	raw, err := c.doRequest(ctx, c.creds, http.MethodPost, pickupPath, req, &result)
	if err != nil {
		return nil, err
	}
	result.Raw = raw
	return &result, nil
}

// Track retrieves tracking details using the tracking credentials.
func (c *HTTPAPIClient) Track(ctx context.Context, req *TrackRequest) (*TrackResponse, error) {
	var result TrackResponse
	raw, err := c.doRequest(ctx, c.trackingCreds, http.MethodPost, trackingNumberPath, req, &result)
	if err != nil {
		return nil, err
	}
	result.Raw = raw
	return &result, nil
}

// CancelShipment voids a shipment.
func (c *HTTPAPIClient) CancelShipment(ctx context.Context, req *CancelShipmentRequest) (*CancelShipmentResponse, error) {
	var result CancelShipmentResponse
	raw, err := c.doRequest(ctx, c.creds, http.MethodPut, shipCancelPath, req, &result)
	if err != nil {
		return nil, err
	}
	result.Raw = raw
	return &result, nil
}

// CancelPickup cancels a pickup.
func (c *HTTPAPIClient) CancelPickup(ctx context.Context, req *CancelPickupRequest) (*CancelPickupResponse, error) {
	var result CancelPickupResponse
	raw, err := c.doRequest(ctx, c.creds, http.MethodPut, pickupCancelPath, req, &result)
	if err != nil {
		return nil, err
	}
	result.Raw = raw
	return &result, nil
}

// doRequest acquires a token for creds, performs the call under the request
// timeout and decodes a 2xx body into out. The raw body is returned for audit.
func (c *HTTPAPIClient) doRequest(ctx context.Context, creds oauth.Credentials, method, path string, body, out any) ([]byte, error) {
	token, err := c.tokens.Token(ctx, creds)
	if err != nil {
		return nil, shipper.AuthErrorFrom(shipper.CarrierFedEx, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-locale", "en_US")
	req.Header.Set("x-customer-transaction-id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, shipper.TransportError(shipper.CarrierFedEx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, shipper.TransportError(shipper.CarrierFedEx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.parseError(resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return nil, shipper.NewAPIError(shipper.CarrierFedEx, resp.StatusCode, "unreadable response from FedEx").
			WithCause(fmt.Errorf("failed to decode response: %w", err))
	}
	return raw, nil
}

// parseError extracts the normalized carrier message from an error body.
func (c *HTTPAPIClient) parseError(statusCode int, body []byte) error {
	return shipper.NewAPIError(shipper.CarrierFedEx, statusCode, shipper.NormalizeErrorBody(statusCode, body))
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
