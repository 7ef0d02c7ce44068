// Package bootstrap wires the concrete Postgres/Redis/RabbitMQ adapters,
// the command.UseCase, the ApprovalHandlerRegistry, and the fiber HTTP
// server, the way the teacher's internal/bootstrap wires its Config and
// Service.
package bootstrap

import (
	"github.com/caarlos0/env/v11"
)

// Config is the core's environment-derived configuration, parsed with
// caarlos0/env the way the teacher's internal/bootstrap.Config is.
type Config struct {
	EnvName string `env:"ENV_NAME" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	ServerAddress string `env:"SERVER_ADDRESS" envDefault:":3000"`
	Version       string `env:"APP_VERSION" envDefault:"dev"`

	PostingDBURL       string   `env:"POSTING_DB_URL,required"`
	PostingDBName      string   `env:"POSTING_DB_NAME" envDefault:"core"`
	PostingReplicaDSNs []string `env:"POSTING_REPLICA_DB_URLS" envSeparator:","`
	MigrationsPath     string   `env:"MIGRATIONS_PATH" envDefault:"file://migrations"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	EventsQueueURL      string `env:"EVENTS_QUEUE_URL,required"`
	EventsExchange      string `env:"EVENTS_EXCHANGE" envDefault:"core.events"`

	PINPepper string `env:"PIN_PEPPER,required"`

	RetryLimit            int `env:"RETRY_LIMIT" envDefault:"5"`
	IdempotencyTTLHours   int `env:"IDEMPOTENCY_TTL_HOURS" envDefault:"24"`
	SweeperIntervalSeconds int `env:"APPROVAL_SWEEPER_INTERVAL_SECONDS" envDefault:"60"`
	OutboxBatchSize        int `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`
	OutboxIntervalSeconds  int `env:"OUTBOX_PUBLISH_INTERVAL_SECONDS" envDefault:"5"`
}

// LoadConfig parses Config from the process environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
