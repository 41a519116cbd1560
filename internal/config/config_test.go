package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()

	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 8080 || cfg.DB.Port != 5432 {
		t.Errorf("ports = %d, %d", cfg.Port, cfg.DB.Port)
	}
	if !cfg.Pricing.TaxRatePrimary.Equal(decimal.RequireFromString("5")) || !cfg.Pricing.TaxRateSecondary.Equal(decimal.RequireFromString("9.975")) {
		t.Errorf("tax rates = %s, %s", cfg.Pricing.TaxRatePrimary, cfg.Pricing.TaxRateSecondary)
	}
	if cfg.Kafka.LifecycleTopic != "catering.lifecycle" || cfg.RabbitMQ.Exchange != "client_notifications" {
		t.Errorf("topic/exchange = %s, %s", cfg.Kafka.LifecycleTopic, cfg.RabbitMQ.Exchange)
	}
	if cfg.Outbox.PollInterval != 5*time.Second || cfg.Inventory.ExpiryHorizonDays != 7 {
		t.Errorf("outbox/inventory = %v, %d", cfg.Outbox.PollInterval, cfg.Inventory.ExpiryHorizonDays)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("TAX_RATE_SECONDARY", "8.5")
	t.Setenv("OUTBOX_POLL_INTERVAL", "250ms")
	t.Setenv("LOYALTY_POINTS_PER_DOLLAR", "2")

	cfg, err := Load()

	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Brokers = %v", cfg.Kafka.Brokers)
	}
	if !cfg.Pricing.TaxRateSecondary.Equal(decimal.RequireFromString("8.5")) {
		t.Errorf("TaxRateSecondary = %s", cfg.Pricing.TaxRateSecondary)
	}
	if cfg.Outbox.PollInterval != 250*time.Millisecond || cfg.Loyalty.PointsPerDollar != 2 {
		t.Errorf("PollInterval = %v, PointsPerDollar = %d", cfg.Outbox.PollInterval, cfg.Loyalty.PointsPerDollar)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "port", key: "PORT", val: "eighty"},
		{name: "negativeTax", key: "TAX_RATE_PRIMARY", val: "-1"},
		{name: "duration", key: "OUTBOX_POLL_INTERVAL", val: "soon"},
		{name: "zeroPollInterval", key: "OUTBOX_POLL_INTERVAL", val: "0s"},
		{name: "zeroDLQPollInterval", key: "DLQ_POLL_INTERVAL", val: "0s"},
		{name: "negativeDLQPollInterval", key: "DLQ_POLL_INTERVAL", val: "-5s"},
		{name: "zeroRefreshInterval", key: "IDENTITY_REFRESH_INTERVAL", val: "0s"},
		{name: "zeroIdleExpiry", key: "RATE_LIMIT_IDLE_EXPIRY", val: "0s"},
		{name: "horizon", key: "EXPIRY_HORIZON_DAYS", val: "-3"},
		{name: "bool", key: "RATE_LIMIT_ENABLED", val: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s error = nil, want error", tt.key, tt.val)
			}
		})
	}
}
