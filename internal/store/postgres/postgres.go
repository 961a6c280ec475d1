// Package postgres implements the shipping stores on PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/tournevent/shipbridge/internal/shipping"
	"github.com/tournevent/shipbridge/pkg/shipper"
)

// Store holds carrier settings, shipment records and the order projection.
type Store struct {
	db *pgxpool.Pool
}

// New connects to connString. Call Migrate to create the schema.
func New(ctx context.Context, connString string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrap(err, "parse pg config")
	}

	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect pg")
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping pg")
	}

	return &Store{db: db}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// Migrate creates missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	return s.initSchema(ctx)
}

// PutCarrierSettings upserts settings for a carrier.
func (s *Store) PutCarrierSettings(ctx context.Context, settings *shipper.CarrierSettings) error {
	party, err := json.Marshal(settings.Shipper)
	if err != nil {
		return errors.Wrap(err, "encode shipper")
	}
	ext := settings.Extensions
	if ext == nil {
		ext = map[string]string{}
	}
	extensions, err := json.Marshal(ext)
	if err != nil {
		return errors.Wrap(err, "encode extensions")
	}

	_, err = s.db.Exec(ctx, `
INSERT INTO carrier_settings (
  carrier_id, is_active, is_production, api_url, client_id, client_secret,
  account_number, default_service_code, shipper, extensions, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now())
ON CONFLICT (carrier_id) DO UPDATE SET
  is_active = EXCLUDED.is_active,
  is_production = EXCLUDED.is_production,
  api_url = EXCLUDED.api_url,
  client_id = EXCLUDED.client_id,
  client_secret = EXCLUDED.client_secret,
  account_number = EXCLUDED.account_number,
  default_service_code = EXCLUDED.default_service_code,
  shipper = EXCLUDED.shipper,
  extensions = EXCLUDED.extensions,
  updated_at = EXCLUDED.updated_at
`, string(settings.CarrierID), settings.IsActive, settings.IsProduction, settings.APIURL,
		settings.ClientID, settings.ClientSecret, settings.AccountNumber, settings.DefaultServiceCode,
		party, extensions)
	return errors.Wrap(err, "upsert carrier settings")
}

// GetActiveCarrierSettings implements shipping.SettingsStore.
func (s *Store) GetActiveCarrierSettings(ctx context.Context, carrier shipper.CarrierID) (*shipper.CarrierSettings, error) {
	var (
		out        shipper.CarrierSettings
		id         string
		party      []byte
		extensions []byte
	)
	err := s.db.QueryRow(ctx, `
SELECT carrier_id, is_active, is_production, api_url, client_id, client_secret,
       account_number, default_service_code, shipper, extensions
FROM carrier_settings
WHERE carrier_id = $1 AND is_active
`, string(carrier)).Scan(
		&id, &out.IsActive, &out.IsProduction, &out.APIURL, &out.ClientID, &out.ClientSecret,
		&out.AccountNumber, &out.DefaultServiceCode, &party, &extensions,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrapf(shipper.ErrNotFound, "carrier settings %s", carrier)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select carrier settings")
	}

	out.CarrierID = shipper.CarrierID(id)
	if len(party) > 0 {
		if err := json.Unmarshal(party, &out.Shipper); err != nil {
			return nil, errors.Wrap(err, "decode shipper")
		}
	}
	if len(extensions) > 0 {
		if err := json.Unmarshal(extensions, &out.Extensions); err != nil {
			return nil, errors.Wrap(err, "decode extensions")
		}
	}
	return &out, nil
}

const shipmentColumns = `
  id, order_id, carrier, service_code, service_name,
  tracking_number, tracking_url, label_format, label_data, label_url,
  weight, length, width, height,
  shipping_cost, total_cost, currency, status, delivered_at,
  pickup_confirmation, pickup_date, pickup_ready_time, pickup_close_time, pickup_location,
  raw_carrier_response, created_at, updated_at`

// Insert implements shipping.ShipmentStore.
func (s *Store) Insert(ctx context.Context, rec *shipping.ShipmentRecord) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO shipments (`+shipmentColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)
`,
		rec.ID, rec.OrderID, string(rec.Carrier), rec.ServiceCode, rec.ServiceName,
		rec.TrackingNumber, rec.TrackingURL, rec.LabelFormat, rec.LabelData, rec.LabelURL,
		rec.Weight, rec.Length, rec.Width, rec.Height,
		rec.ShippingCost, rec.TotalCost, rec.Currency, rec.Status, rec.DeliveredAt,
		rec.PickupConfirmation, rec.PickupDate, rec.PickupReadyTime, rec.PickupCloseTime, rec.PickupLocation,
		rawJSON(rec.RawCarrierResponse), rec.CreatedAt, rec.UpdatedAt,
	)
	return errors.Wrap(err, "insert shipment")
}

// Get implements shipping.ShipmentStore.
func (s *Store) Get(ctx context.Context, id string) (*shipping.ShipmentRecord, error) {
	rec, err := scanShipment(s.db.QueryRow(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrapf(shipper.ErrNotFound, "shipment %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select shipment")
	}
	return rec, nil
}

// Update implements shipping.ShipmentStore. Identity columns are immutable.
func (s *Store) Update(ctx context.Context, rec *shipping.ShipmentRecord) error {
	tag, err := s.db.Exec(ctx, `
UPDATE shipments SET
  service_name = $2,
  tracking_url = $3,
  status = $4,
  delivered_at = $5,
  pickup_confirmation = $6,
  pickup_date = $7,
  pickup_ready_time = $8,
  pickup_close_time = $9,
  pickup_location = $10,
  updated_at = $11
WHERE id = $1
`, rec.ID, rec.ServiceName, rec.TrackingURL, rec.Status, rec.DeliveredAt,
		rec.PickupConfirmation, rec.PickupDate, rec.PickupReadyTime, rec.PickupCloseTime, rec.PickupLocation,
		rec.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "update shipment")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(shipper.ErrNotFound, "shipment %s", rec.ID)
	}
	return nil
}

// Delete implements shipping.ShipmentStore.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM shipments WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete shipment")
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(shipper.ErrNotFound, "shipment %s", id)
	}
	return nil
}

// FindByOrder implements shipping.ShipmentStore, oldest first.
func (s *Store) FindByOrder(ctx context.Context, orderID string) ([]*shipping.ShipmentRecord, error) {
	rows, err := s.db.Query(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE order_id = $1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "select shipments")
	}
	defer rows.Close()

	out := make([]*shipping.ShipmentRecord, 0)
	for rows.Next() {
		rec, err := scanShipment(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan shipment")
		}
		out = append(out, rec)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// CountByOrder implements shipping.ShipmentStore.
func (s *Store) CountByOrder(ctx context.Context, orderID string) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM shipments WHERE order_id = $1`, orderID).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count shipments")
	}
	return n, nil
}

// UpdateStatus implements shipping.OrderProjection. Unknown orders are
// created.
func (s *Store) UpdateStatus(ctx context.Context, orderID, status string, trackingNumber *string) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO orders (id, status, tracking_number, updated_at)
VALUES ($1,$2,$3,now())
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  tracking_number = EXCLUDED.tracking_number,
  updated_at = EXCLUDED.updated_at
`, orderID, status, trackingNumber)
	return errors.Wrap(err, "update order status")
}

// OrderStatus returns the projected status and tracking number of an order.
func (s *Store) OrderStatus(ctx context.Context, orderID string) (string, *string, error) {
	var (
		status   string
		tracking *string
	)
	err := s.db.QueryRow(ctx, `SELECT status, tracking_number FROM orders WHERE id = $1`, orderID).Scan(&status, &tracking)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil, errors.Wrapf(shipper.ErrNotFound, "order %s", orderID)
	}
	if err != nil {
		return "", nil, errors.Wrap(err, "select order")
	}
	return status, tracking, nil
}

func scanShipment(row pgx.Row) (*shipping.ShipmentRecord, error) {
	var (
		rec         shipping.ShipmentRecord
		carrier     string
		deliveredAt *time.Time
		raw         []byte
	)
	if err := row.Scan(
		&rec.ID, &rec.OrderID, &carrier, &rec.ServiceCode, &rec.ServiceName,
		&rec.TrackingNumber, &rec.TrackingURL, &rec.LabelFormat, &rec.LabelData, &rec.LabelURL,
		&rec.Weight, &rec.Length, &rec.Width, &rec.Height,
		&rec.ShippingCost, &rec.TotalCost, &rec.Currency, &rec.Status, &deliveredAt,
		&rec.PickupConfirmation, &rec.PickupDate, &rec.PickupReadyTime, &rec.PickupCloseTime, &rec.PickupLocation,
		&raw, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.Carrier = shipper.CarrierID(carrier)
	rec.DeliveredAt = deliveredAt
	if len(raw) > 0 {
		rec.RawCarrierResponse = json.RawMessage(raw)
	}
	return &rec, nil
}

// rawJSON maps an empty response to NULL.
func rawJSON(raw json.RawMessage) any {
	if len(raw) == 0 || !json.Valid(raw) {
		return nil
	}
	return []byte(raw)
}

var (
	_ shipping.SettingsStore   = (*Store)(nil)
	_ shipping.ShipmentStore   = (*Store)(nil)
	_ shipping.OrderProjection = (*Store)(nil)
)
