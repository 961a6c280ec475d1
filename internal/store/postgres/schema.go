package postgres

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Store) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS carrier_settings (
  carrier_id TEXT PRIMARY KEY,
  is_active BOOLEAN NOT NULL DEFAULT false,
  is_production BOOLEAN NOT NULL DEFAULT false,
  api_url TEXT NOT NULL DEFAULT '',
  client_id TEXT NOT NULL DEFAULT '',
  client_secret TEXT NOT NULL DEFAULT '',
  account_number TEXT NOT NULL DEFAULT '',
  default_service_code TEXT NOT NULL DEFAULT '',
  shipper JSONB NOT NULL DEFAULT '{}'::jsonb,
  extensions JSONB NOT NULL DEFAULT '{}'::jsonb,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  tracking_number TEXT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`
CREATE TABLE IF NOT EXISTS shipments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  carrier TEXT NOT NULL,
  service_code TEXT NOT NULL DEFAULT '',
  service_name TEXT NOT NULL DEFAULT '',
  tracking_number TEXT NOT NULL,
  tracking_url TEXT NOT NULL DEFAULT '',
  label_format TEXT NOT NULL DEFAULT '',
  label_data TEXT NOT NULL DEFAULT '',
  label_url TEXT NOT NULL DEFAULT '',
  weight DOUBLE PRECISION NOT NULL DEFAULT 0,
  length DOUBLE PRECISION NOT NULL DEFAULT 0,
  width DOUBLE PRECISION NOT NULL DEFAULT 0,
  height DOUBLE PRECISION NOT NULL DEFAULT 0,
  shipping_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
  total_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  delivered_at TIMESTAMPTZ NULL,
  pickup_confirmation TEXT NOT NULL DEFAULT '',
  pickup_date TEXT NOT NULL DEFAULT '',
  pickup_ready_time TEXT NOT NULL DEFAULT '',
  pickup_close_time TEXT NOT NULL DEFAULT '',
  pickup_location TEXT NOT NULL DEFAULT '',
  raw_carrier_response JSONB NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_shipments_order_id ON shipments(order_id)`,
		// A tracking number is recorded at most once.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_shipments_tracking_number ON shipments(tracking_number)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
