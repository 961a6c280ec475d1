// Package memory implements the shipping stores in process memory, for tests
// and local development.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/tournevent/shipbridge/internal/shipping"
	"github.com/tournevent/shipbridge/pkg/shipper"
)

// Order is the shipment-driven projection of an order.
type Order struct {
	ID             string
	Status         string
	TrackingNumber *string
}

// Store holds carrier settings, shipment records and orders.
type Store struct {
	mu        sync.RWMutex
	settings  map[shipper.CarrierID]*shipper.CarrierSettings
	shipments map[string]*shipping.ShipmentRecord
	orders    map[string]*Order
}

// New creates an empty store.
func New() *Store {
	return &Store{
		settings:  make(map[shipper.CarrierID]*shipper.CarrierSettings),
		shipments: make(map[string]*shipping.ShipmentRecord),
		orders:    make(map[string]*Order),
	}
}

// PutCarrierSettings stores settings, replacing any for the same carrier.
func (s *Store) PutCarrierSettings(settings *shipper.CarrierSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.CarrierID] = cloneSettings(settings)
}

// GetActiveCarrierSettings implements shipping.SettingsStore.
func (s *Store) GetActiveCarrierSettings(_ context.Context, carrier shipper.CarrierID) (*shipper.CarrierSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	settings, ok := s.settings[carrier]
	if !ok || !settings.IsActive {
		return nil, fmt.Errorf("carrier settings %s: %w", carrier, shipper.ErrNotFound)
	}
	return cloneSettings(settings), nil
}

// Insert implements shipping.ShipmentStore. Tracking numbers are unique.
func (s *Store) Insert(_ context.Context, rec *shipping.ShipmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shipments[rec.ID]; ok {
		return fmt.Errorf("shipment %s already exists", rec.ID)
	}
	for _, existing := range s.shipments {
		if rec.TrackingNumber != "" && existing.TrackingNumber == rec.TrackingNumber {
			return fmt.Errorf("tracking number %s already recorded", rec.TrackingNumber)
		}
	}
	s.shipments[rec.ID] = cloneRecord(rec)
	return nil
}

// Get implements shipping.ShipmentStore.
func (s *Store) Get(_ context.Context, id string) (*shipping.ShipmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.shipments[id]
	if !ok {
		return nil, fmt.Errorf("shipment %s: %w", id, shipper.ErrNotFound)
	}
	return cloneRecord(rec), nil
}

// Update implements shipping.ShipmentStore.
func (s *Store) Update(_ context.Context, rec *shipping.ShipmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shipments[rec.ID]; !ok {
		return fmt.Errorf("shipment %s: %w", rec.ID, shipper.ErrNotFound)
	}
	s.shipments[rec.ID] = cloneRecord(rec)
	return nil
}

// Delete implements shipping.ShipmentStore.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shipments[id]; !ok {
		return fmt.Errorf("shipment %s: %w", id, shipper.ErrNotFound)
	}
	delete(s.shipments, id)
	return nil
}

// FindByOrder implements shipping.ShipmentStore, oldest first.
func (s *Store) FindByOrder(_ context.Context, orderID string) ([]*shipping.ShipmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*shipping.ShipmentRecord, 0)
	for _, rec := range s.shipments {
		if rec.OrderID == orderID {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// CountByOrder implements shipping.ShipmentStore.
func (s *Store) CountByOrder(_ context.Context, orderID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rec := range s.shipments {
		if rec.OrderID == orderID {
			n++
		}
	}
	return n, nil
}

// UpdateStatus implements shipping.OrderProjection. Unknown orders are
// created.
func (s *Store) UpdateStatus(_ context.Context, orderID, status string, trackingNumber *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tn *string
	if trackingNumber != nil {
		v := *trackingNumber
		tn = &v
	}
	s.orders[orderID] = &Order{ID: orderID, Status: status, TrackingNumber: tn}
	return nil
}

// Order returns a copy of the stored order.
func (s *Store) Order(orderID string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderID]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

func cloneSettings(in *shipper.CarrierSettings) *shipper.CarrierSettings {
	out := *in
	if in.Extensions != nil {
		out.Extensions = make(map[string]string, len(in.Extensions))
		for k, v := range in.Extensions {
			out.Extensions[k] = v
		}
	}
	return &out
}

func cloneRecord(in *shipping.ShipmentRecord) *shipping.ShipmentRecord {
	out := *in
	if in.DeliveredAt != nil {
		t := *in.DeliveredAt
		out.DeliveredAt = &t
	}
	if in.RawCarrierResponse != nil {
		out.RawCarrierResponse = append(json.RawMessage(nil), in.RawCarrierResponse...)
	}
	return &out
}

var (
	_ shipping.SettingsStore   = (*Store)(nil)
	_ shipping.ShipmentStore   = (*Store)(nil)
	_ shipping.OrderProjection = (*Store)(nil)
)
