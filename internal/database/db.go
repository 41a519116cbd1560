package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/vaidashi/catering-api/internal/config"
	"github.com/vaidashi/catering-api/pkg/logger"
)

// Database represents a database connection
type Database struct {
	DB     *sqlx.DB
	logger logger.Logger
}

// New creates a new database connection
func New(cfg *config.Config, logger logger.Logger) (*Database, error) {
	db, err := sqlx.Connect("postgres", cfg.GetDBConnString())

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("Connected to database", "host", cfg.DB.Host, "database", cfg.DB.Name)

	return &Database{
		DB:     db,
		logger: logger,
	}, nil
}

// Ping checks the database connection
func (d *Database) Ping(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.DB.Close()
}

// WithTx runs fn inside a transaction, committing when fn returns nil and rolling back otherwise
func (d *Database) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := d.DB.BeginTxx(ctx, nil)

	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			d.logger.Error("Failed to roll back transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RunMigrations creates the schema if it does not exist
func (d *Database) RunMigrations() error {
	if _, err := d.DB.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.logger.Info("Database migrations completed successfully")
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id VARCHAR(50) PRIMARY KEY,
	order_number VARCHAR(50) NOT NULL UNIQUE,
	client_id VARCHAR(50) NOT NULL,
	quote_id VARCHAR(50),
	items JSONB NOT NULL DEFAULT '[]',
	subtotal NUMERIC(12, 2) NOT NULL,
	tax_amount NUMERIC(12, 2) NOT NULL,
	discount_amount NUMERIC(12, 2) NOT NULL DEFAULT 0,
	total_amount NUMERIC(12, 2) NOT NULL,
	delivery_date TIMESTAMPTZ NOT NULL,
	delivery_address TEXT NOT NULL DEFAULT '',
	special_instructions TEXT NOT NULL DEFAULT '',
	status VARCHAR(20) NOT NULL,
	version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (discount_amount >= 0),
	CHECK (total_amount >= 0)
);

CREATE INDEX IF NOT EXISTS idx_orders_client_id ON orders(client_id);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_quote_id ON orders(quote_id) WHERE quote_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS quotes (
	id VARCHAR(50) PRIMARY KEY,
	quote_number VARCHAR(50) NOT NULL UNIQUE,
	client_id VARCHAR(50) NOT NULL,
	items JSONB NOT NULL DEFAULT '[]',
	subtotal NUMERIC(12, 2) NOT NULL,
	tax_amount NUMERIC(12, 2) NOT NULL,
	discount_amount NUMERIC(12, 2) NOT NULL DEFAULT 0,
	total_amount NUMERIC(12, 2) NOT NULL,
	valid_until TIMESTAMPTZ NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	status VARCHAR(20) NOT NULL,
	version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_quotes_client_id ON quotes(client_id);
CREATE INDEX IF NOT EXISTS idx_quotes_status ON quotes(status);

CREATE TABLE IF NOT EXISTS reservations (
	id VARCHAR(50) PRIMARY KEY,
	client_id VARCHAR(50) NOT NULL,
	event_at TIMESTAMPTZ NOT NULL,
	guest_count INT NOT NULL CHECK (guest_count > 0),
	event_type VARCHAR(100) NOT NULL,
	venue TEXT NOT NULL DEFAULT '',
	special_requests TEXT NOT NULL DEFAULT '',
	status VARCHAR(20) NOT NULL,
	version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_reservations_event_at ON reservations(event_at);

-- Ledger entries are append-only
CREATE TABLE IF NOT EXISTS transactions (
	id VARCHAR(50) PRIMARY KEY,
	type VARCHAR(10) NOT NULL CHECK (type IN ('income', 'expense')),
	category VARCHAR(100) NOT NULL,
	amount NUMERIC(12, 2) NOT NULL CHECK (amount > 0),
	description TEXT NOT NULL DEFAULT '',
	date DATE NOT NULL,
	reference VARCHAR(100) NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);

CREATE TABLE IF NOT EXISTS inventory_items (
	id VARCHAR(50) PRIMARY KEY,
	name VARCHAR(200) NOT NULL,
	category VARCHAR(100) NOT NULL DEFAULT '',
	current_stock NUMERIC(12, 3) NOT NULL DEFAULT 0,
	minimum_stock NUMERIC(12, 3) NOT NULL DEFAULT 0,
	unit VARCHAR(20) NOT NULL DEFAULT '',
	unit_cost NUMERIC(12, 2) NOT NULL DEFAULT 0,
	supplier VARCHAR(200) NOT NULL DEFAULT '',
	expiration_date TIMESTAMPTZ,
	location VARCHAR(200) NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS loyalty_accounts (
	client_id VARCHAR(50) PRIMARY KEY,
	points_balance BIGINT NOT NULL DEFAULT 0 CHECK (points_balance >= 0),
	total_points_earned BIGINT NOT NULL DEFAULT 0,
	total_points_redeemed BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Outbox table for message publishing
CREATE TABLE IF NOT EXISTS outbox_messages (
	id SERIAL PRIMARY KEY,
	aggregate_type VARCHAR(50) NOT NULL,
	aggregate_id VARCHAR(50) NOT NULL,
	event_type VARCHAR(50) NOT NULL,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	processed_at TIMESTAMPTZ,
	processing_attempts INT NOT NULL DEFAULT 0,
	last_error TEXT,
	status VARCHAR(20) NOT NULL DEFAULT 'pending'
);

CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox_messages(status);
CREATE INDEX IF NOT EXISTS idx_outbox_aggregate ON outbox_messages(aggregate_type, aggregate_id);

CREATE TABLE IF NOT EXISTS dead_letter_messages (
	id SERIAL PRIMARY KEY,
	original_message_id INT NOT NULL,
	aggregate_type VARCHAR(50) NOT NULL,
	aggregate_id VARCHAR(50) NOT NULL,
	event_type VARCHAR(50) NOT NULL,
	payload JSONB NOT NULL,
	error_message TEXT NOT NULL,
	failure_reason TEXT NOT NULL DEFAULT '',
	retry_count INT NOT NULL DEFAULT 0,
	last_retry_at TIMESTAMPTZ,
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	resolved_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_dead_letter_status ON dead_letter_messages(status);

CREATE TABLE IF NOT EXISTS audit_log (
	id BIGSERIAL PRIMARY KEY,
	event_id VARCHAR(50) NOT NULL UNIQUE,
	entity_kind VARCHAR(20) NOT NULL,
	entity_id VARCHAR(50) NOT NULL,
	from_status VARCHAR(20) NOT NULL,
	to_status VARCHAR(20) NOT NULL,
	acting_role VARCHAR(50) NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity_kind, entity_id);
CREATE INDEX IF NOT EXISTS idx_audit_occurred_at ON audit_log(occurred_at);
`
