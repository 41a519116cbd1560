package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Port      int
	LogLevel  string
	LogFormat string
	Env       string
	DB        DBConfig
	Kafka     KafkaConfig
	RabbitMQ  RabbitMQConfig
	Identity  IdentityConfig
	Pricing   PricingConfig
	Inventory InventoryConfig
	Loyalty   LoyaltyConfig
	Outbox    OutboxConfig
	RateLimit RateLimitConfig
}

// DBConfig holds the database configuration
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// KafkaConfig holds the audit stream settings
type KafkaConfig struct {
	Brokers        []string
	LifecycleTopic string
	ConsumerGroup  string
}

// RabbitMQConfig holds the client notification broker settings.
// An empty URL disables notifications.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// IdentityConfig points at the role service. An empty URL keeps the built-in policy.
type IdentityConfig struct {
	URL             string
	RefreshInterval time.Duration
}

// PricingConfig holds the two tax rates in percent
type PricingConfig struct {
	TaxRatePrimary   decimal.Decimal
	TaxRateSecondary decimal.Decimal
}

// InventoryConfig holds alert settings
type InventoryConfig struct {
	ExpiryHorizonDays int
}

// LoyaltyConfig holds the earning and redemption rules
type LoyaltyConfig struct {
	PointsPerDollar   int64
	MinimumRedemption int64
}

// OutboxConfig controls the outbox and dead-letter processors
type OutboxConfig struct {
	PollInterval    time.Duration
	BatchSize       int
	MaxRetries      int
	DLQPollInterval time.Duration
	DLQMaxRetries   int
}

// RateLimitConfig controls the per-client token buckets
type RateLimitConfig struct {
	Enabled    bool
	Rate       float64
	Burst      float64
	IdleExpiry time.Duration
}

// getEnv retrieves the value of an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))

	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v, err := time.ParseDuration(getEnv(key, defaultValue.String()))

	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	v, err := strconv.ParseFloat(getEnv(key, strconv.FormatFloat(defaultValue, 'f', -1, 64)), 64)

	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func getEnvDecimal(key, defaultValue string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(getEnv(key, defaultValue))

	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid %s: must not be negative", key)
	}

	return v, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))

	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func getEnvList(key, defaultValue string) []string {
	var out []string

	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}

// Load reads the configuration from environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		Env:       getEnv("APP_ENV", "development"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "catering"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Brokers:        getEnvList("KAFKA_BROKERS", "localhost:9092"),
			LifecycleTopic: getEnv("KAFKA_LIFECYCLE_TOPIC", "catering.lifecycle"),
			ConsumerGroup:  getEnv("KAFKA_CONSUMER_GROUP", "catering-audit"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "client_notifications"),
		},
		Identity: IdentityConfig{
			URL: getEnv("IDENTITY_URL", ""),
		},
	}

	var err error

	ints := []struct {
		key  string
		def  int
		dest *int
	}{
		{"PORT", 8080, &cfg.Port},
		{"DB_PORT", 5432, &cfg.DB.Port},
		{"EXPIRY_HORIZON_DAYS", 7, &cfg.Inventory.ExpiryHorizonDays},
		{"OUTBOX_BATCH_SIZE", 10, &cfg.Outbox.BatchSize},
		{"OUTBOX_MAX_RETRIES", 5, &cfg.Outbox.MaxRetries},
		{"DLQ_MAX_RETRIES", 3, &cfg.Outbox.DLQMaxRetries},
	}
	for _, i := range ints {
		if *i.dest, err = getEnvInt(i.key, i.def); err != nil {
			return nil, err
		}
	}

	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"OUTBOX_POLL_INTERVAL", 5 * time.Second, &cfg.Outbox.PollInterval},
		{"DLQ_POLL_INTERVAL", 30 * time.Second, &cfg.Outbox.DLQPollInterval},
		{"IDENTITY_REFRESH_INTERVAL", 5 * time.Minute, &cfg.Identity.RefreshInterval},
		{"RATE_LIMIT_IDLE_EXPIRY", 10 * time.Minute, &cfg.RateLimit.IdleExpiry},
	}
	for _, d := range durations {
		if *d.dest, err = getEnvDuration(d.key, d.def); err != nil {
			return nil, err
		}
		if *d.dest <= 0 {
			return nil, fmt.Errorf("invalid %s: must be positive", d.key)
		}
	}

	if cfg.Pricing.TaxRatePrimary, err = getEnvDecimal("TAX_RATE_PRIMARY", "5.0"); err != nil {
		return nil, err
	}
	if cfg.Pricing.TaxRateSecondary, err = getEnvDecimal("TAX_RATE_SECONDARY", "9.975"); err != nil {
		return nil, err
	}

	pointsPerDollar, err := getEnvInt("LOYALTY_POINTS_PER_DOLLAR", 10)
	if err != nil {
		return nil, err
	}
	minRedemption, err := getEnvInt("LOYALTY_MIN_REDEMPTION", 100)
	if err != nil {
		return nil, err
	}
	cfg.Loyalty = LoyaltyConfig{PointsPerDollar: int64(pointsPerDollar), MinimumRedemption: int64(minRedemption)}

	if cfg.RateLimit.Enabled, err = getEnvBool("RATE_LIMIT_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Rate, err = getEnvFloat("RATE_LIMIT_RPS", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Burst, err = getEnvFloat("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}

	if cfg.Inventory.ExpiryHorizonDays < 0 {
		return nil, fmt.Errorf("invalid EXPIRY_HORIZON_DAYS: must not be negative")
	}

	return cfg, nil
}

// GetDBConnString returns the database connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}
