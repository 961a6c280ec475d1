// Package oauth implements the client-credentials token exchange used by
// carrier adapters, with an optional short-TTL token cache.
package oauth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// AuthStyle selects how client credentials are presented.
type AuthStyle int

const (
	// AuthStyleBasic sends credentials in an HTTP Basic Authorization header.
	AuthStyleBasic AuthStyle = iota
	// AuthStyleForm sends client_id and client_secret as form fields.
	AuthStyleForm
)

func (s AuthStyle) oauth2() oauth2.AuthStyle {
	if s == AuthStyleForm {
		return oauth2.AuthStyleInParams
	}
	return oauth2.AuthStyleInHeader
}

// expiryMargin is subtracted from expires_in before caching a token.
const expiryMargin = 60 * time.Second

// Credentials is a client id/secret pair.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Fingerprint identifies the pair without exposing the secret.
func (c Credentials) Fingerprint() string {
	sum := sha256.Sum256([]byte(c.ClientID + "\x00" + c.ClientSecret))
	return hex.EncodeToString(sum[:8])
}

// TokenCache stores bearer tokens between operations.
type TokenCache interface {
	GetToken(ctx context.Context, key string) (string, bool, error)
	SetToken(ctx context.Context, key, token string, ttl time.Duration) error
}

// Token is a bearer token returned by a token endpoint.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
}

// Error is a rejected or failed token exchange.
type Error struct {
	StatusCode int
	Body       []byte
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("token request failed: %v", e.Cause)
	}
	return fmt.Sprintf("token request rejected with HTTP %d", e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Config describes one carrier's token endpoint.
type Config struct {
	TokenURL string
	Style    AuthStyle
	// Header holds extra headers sent with the token request.
	Header http.Header
	// CacheNamespace prefixes cache keys, usually the carrier id.
	CacheNamespace string
	Timeout        time.Duration
	Logger         *otelzap.Logger
}

// Client performs token exchanges.
type Client struct {
	cfg    Config
	httpc  *http.Client
	cache  TokenCache
	logger *otelzap.Logger
}

// New creates a token client. cache may be nil.
func New(cfg Config, httpc *http.Client, cache TokenCache) *Client {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	return &Client{cfg: cfg, httpc: withHeader(httpc, cfg.Header), cache: cache, logger: logger}
}

// Token returns a bearer token for creds, consulting the cache when enabled.
// Cache failures are logged and fall through to a fresh exchange.
func (c *Client) Token(ctx context.Context, creds Credentials) (string, error) {
	key := c.cfg.CacheNamespace + ":" + creds.Fingerprint()
	if c.cache != nil {
		tok, ok, err := c.cache.GetToken(ctx, key)
		if err != nil {
			c.logger.Ctx(ctx).Debug("token cache read failed", zap.String("namespace", c.cfg.CacheNamespace), zap.Error(err))
		} else if ok && tok != "" {
			return tok, nil
		}
	}

	tok, err := c.Exchange(ctx, creds)
	if err != nil {
		return "", err
	}

	if c.cache != nil && tok.ExpiresIn > expiryMargin {
		if err := c.cache.SetToken(ctx, key, tok.AccessToken, tok.ExpiresIn-expiryMargin); err != nil {
			c.logger.Ctx(ctx).Debug("token cache write failed", zap.String("namespace", c.cfg.CacheNamespace), zap.Error(err))
		}
	}
	return tok.AccessToken, nil
}

// Exchange performs a client-credentials grant.
func (c *Client) Exchange(ctx context.Context, creds Credentials) (*Token, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, &Error{Cause: errors.New("client credentials are not configured")}
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	cc := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     c.cfg.TokenURL,
		AuthStyle:    c.cfg.Style.oauth2(),
	}
	tok, err := cc.Token(context.WithValue(ctx, oauth2.HTTPClient, c.httpc))
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			return nil, &Error{StatusCode: rerr.Response.StatusCode, Body: rerr.Body}
		}
		return nil, &Error{Cause: err}
	}

	return &Token{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   expiresIn(tok),
	}, nil
}

func expiresIn(tok *oauth2.Token) time.Duration {
	if tok.ExpiresIn > 0 {
		return time.Duration(tok.ExpiresIn) * time.Second
	}
	if tok.Expiry.IsZero() {
		return 0
	}
	return max(time.Until(tok.Expiry).Round(time.Second), 0)
}

// headerTransport adds fixed headers to token requests.
type headerTransport struct {
	base   http.RoundTripper
	header http.Header
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, vs := range t.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	return t.base.RoundTrip(req)
}

func withHeader(httpc *http.Client, header http.Header) *http.Client {
	base := httpc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *httpc
	wrapped.Transport = headerTransport{base: base, header: header}
	return &wrapped
}
