package shipper

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/tournevent/shipbridge/pkg/shipper/oauth"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Default outbound timeouts.
const (
	DefaultAuthTimeout    = 15 * time.Second
	DefaultRequestTimeout = 30 * time.Second
)

// Deps are the process-wide collaborators handed to every adapter factory.
// Adapters never read ambient configuration.
type Deps struct {
	Logger         *otelzap.Logger
	Tracer         trace.Tracer
	HTTPClient     *http.Client
	TokenCache     oauth.TokenCache // nil disables token caching
	UseMock        bool
	AuthTimeout    time.Duration
	RequestTimeout time.Duration
}

// WithDefaults fills zero-valued fields.
func (d Deps) WithDefaults() Deps {
	if d.Logger == nil {
		d.Logger = otelzap.New(zap.NewNop())
	}
	if d.Tracer == nil {
		d.Tracer = noop.NewTracerProvider().Tracer("shipbridge")
	}
	if d.HTTPClient == nil {
		d.HTTPClient = &http.Client{}
	}
	if d.AuthTimeout <= 0 {
		d.AuthTimeout = DefaultAuthTimeout
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = DefaultRequestTimeout
	}
	return d
}

// Factory builds an adapter for one request from the carrier's settings.
type Factory func(settings *CarrierSettings, deps Deps) (Shipper, error)

// Registry maps carrier identifiers to adapter factories.
type Registry struct {
	factories map[CarrierID]Factory
	deps      Deps
	mu        sync.RWMutex
}

// NewRegistry creates a new, empty registry.
func NewRegistry(deps Deps) *Registry {
	return &Registry{
		factories: make(map[CarrierID]Factory),
		deps:      deps.WithDefaults(),
	}
}

// Register adds a factory for a carrier, replacing any previous one.
func (r *Registry) Register(id CarrierID, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = f
}

// Resolve builds a fresh adapter for the given carrier and settings.
func (r *Registry) Resolve(id CarrierID, settings *CarrierSettings) (Shipper, error) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCarrier, id)
	}
	if settings == nil {
		return nil, fmt.Errorf("%w: %s", ErrCarrierNotConfigured, id)
	}
	if settings.CarrierID != id {
		return nil, fmt.Errorf("%w: settings for %s cannot build %s adapter", ErrInvalidRequest, settings.CarrierID, id)
	}
	return f(settings, r.deps)
}

// Carriers returns the registered carrier identifiers, sorted.
func (r *Registry) Carriers() []CarrierID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]CarrierID, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count returns the number of registered carriers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}
