package shipper

import "strings"

// CarrierSettings is the persisted per-carrier configuration envelope.
// Carrier-specific fields live in Extensions and are parsed into a typed
// view by the adapter that understands them.
type CarrierSettings struct {
	CarrierID          CarrierID         `json:"carrierId"`
	IsActive           bool              `json:"isActive"`
	IsProduction       bool              `json:"isProduction"`
	APIURL             string            `json:"apiUrl"`
	ClientID           string            `json:"clientId"`
	ClientSecret       string            `json:"-"`
	AccountNumber      string            `json:"accountNumber"`
	DefaultServiceCode string            `json:"defaultServiceCode"`
	Shipper            Party             `json:"shipper"`
	Extensions         map[string]string `json:"-"`
}

// Extension returns a trimmed carrier-specific setting, or "".
func (s *CarrierSettings) Extension(key string) string {
	if s.Extensions == nil {
		return ""
	}
	return strings.TrimSpace(s.Extensions[key])
}

// BaseURL returns APIURL without a trailing slash.
func (s *CarrierSettings) BaseURL() string {
	return strings.TrimRight(s.APIURL, "/")
}
