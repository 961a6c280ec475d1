package shipper

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tournevent/shipbridge/pkg/shipper/oauth"
)

// Error codes carried by ShipperError.
const (
	CodeAuth         = "AUTH_ERROR"
	CodeAPI          = "API_ERROR"
	CodeNotSupported = "NOT_SUPPORTED"
)

// ShipperError represents an error from a shipping carrier.
type ShipperError struct {
	Carrier    CarrierID
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
	// Kind is the sentinel this error classifies as (ErrCarrierAPI, ...).
	Kind  error
	Cause error
}

// Error implements the error interface.
func (e *ShipperError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Carrier, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Carrier, e.Code, e.Message)
}

// Unwrap returns the sentinel kind and the underlying cause.
func (e *ShipperError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Is implements errors.Is for ShipperError.
func (e *ShipperError) Is(target error) bool {
	t, ok := target.(*ShipperError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewShipperError creates a new ShipperError.
func NewShipperError(carrier CarrierID, code, message string) *ShipperError {
	return &ShipperError{
		Carrier: carrier,
		Code:    code,
		Message: message,
	}
}

// NewAuthError reports a failed token acquisition.
func NewAuthError(carrier CarrierID, message string) *ShipperError {
	e := NewShipperError(carrier, CodeAuth, message)
	e.Kind = ErrAuthenticationFailed
	return e
}

// AuthErrorFrom converts a failed token exchange into an auth error. A
// carrier-supplied rejection body becomes the message.
func AuthErrorFrom(carrier CarrierID, err error) *ShipperError {
	msg := "authentication with " + string(carrier) + " failed"
	var tokenErr *oauth.Error
	if errors.As(err, &tokenErr) && tokenErr.StatusCode != 0 && tokenErr.Cause == nil {
		msg = NormalizeErrorBody(tokenErr.StatusCode, tokenErr.Body)
	}
	e := NewAuthError(carrier, msg).WithCause(err)
	if tokenErr != nil && tokenErr.StatusCode != 0 {
		e.StatusCode = tokenErr.StatusCode
	}
	return e
}

// TransportError reports a request that never produced a carrier response,
// including timeouts.
func TransportError(carrier CarrierID, err error) *ShipperError {
	msg := "request to " + string(carrier) + " failed"
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "request to " + string(carrier) + " timed out"
	}
	e := NewShipperError(carrier, CodeAPI, msg).WithCause(err)
	e.Kind = ErrCarrierAPI
	e.Retryable = true
	return e
}

// NewAPIError reports a carrier rejection carrying the normalized message.
func NewAPIError(carrier CarrierID, statusCode int, message string) *ShipperError {
	e := NewShipperError(carrier, CodeAPI, message)
	e.Kind = ErrCarrierAPI
	return e.WithStatusCode(statusCode)
}

// NewNotSupportedError reports an operation the carrier cannot perform.
func NewNotSupportedError(carrier CarrierID, operation string) *ShipperError {
	e := NewShipperError(carrier, CodeNotSupported, operation+" is not supported by "+string(carrier))
	e.Kind = ErrNotSupported
	return e
}

// WithCause adds a cause to the error.
func (e *ShipperError) WithCause(err error) *ShipperError {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *ShipperError) WithStatusCode(code int) *ShipperError {
	e.StatusCode = code
	e.Retryable = code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	return e
}

// WithRetryable marks the error as retryable.
func (e *ShipperError) WithRetryable(retryable bool) *ShipperError {
	e.Retryable = retryable
	return e
}

// Sentinel errors for the shipping error taxonomy.
var (
	// ErrCarrierNotConfigured indicates carrier settings are missing or inactive.
	ErrCarrierNotConfigured = errors.New("carrier not configured")

	// ErrAuthenticationFailed indicates carrier authentication failed.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrCarrierAPI indicates the carrier rejected the request.
	ErrCarrierAPI = errors.New("carrier api error")

	// ErrUnsupportedCarrier indicates an unknown carrier identifier.
	ErrUnsupportedCarrier = errors.New("unsupported carrier")

	// ErrNotFound indicates a referenced shipment or order is absent.
	ErrNotFound = errors.New("not found")

	// ErrNotSupported indicates the carrier does not implement an operation.
	ErrNotSupported = errors.New("operation not supported")

	// ErrInvalidRequest indicates the request failed validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrOrphanedLabel indicates a label was purchased but could not be
	// recorded locally.
	ErrOrphanedLabel = errors.New("label purchased but not recorded")
)

// IsRetryable returns true if the error is retryable. Nothing in this module
// retries on its own; callers decide.
func IsRetryable(err error) bool {
	var shipperErr *ShipperError
	if errors.As(err, &shipperErr) {
		return shipperErr.Retryable
	}
	return false
}

// UserMessage returns the message an operator should see for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var shipperErr *ShipperError
	if errors.As(err, &shipperErr) && shipperErr.Message != "" {
		return shipperErr.Message
	}
	return err.Error()
}
