// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
//
// The values are read by viper from a config file or environment variables.
type Config struct {
	DBDriver        string        `mapstructure:"DB_DRIVER"`
	DBSource        string        `mapstructure:"DB_SOURCE"`
	MigrateOnStart  bool          `mapstructure:"MIGRATE_ON_START"`
	ServerAddress   string        `mapstructure:"SERVER_ADDRESS"`
	TokenType       string        `mapstructure:"TOKEN_TYPE"`
	TokenSymmetric  string        `mapstructure:"TOKEN_SYMMETRIC_KEY"`
	Environement    string        `mapstructure:"GO_ENV"`
	LockWaitTimeout time.Duration `mapstructure:"LOCK_WAIT_TIMEOUT"`
	ConflictRetries int           `mapstructure:"CONFLICT_RETRIES"`
	HistoryPageSize int32         `mapstructure:"HISTORY_PAGE_SIZE"`
	RedisURL        string        `mapstructure:"REDIS_URL"`
	IdempotencyTTL  time.Duration `mapstructure:"IDEMPOTENCY_TTL"`
	EventsBroker    string        `mapstructure:"EVENTS_BROKER"`
	KafkaBrokers    string        `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic      string        `mapstructure:"KAFKA_TOPIC"`
	AMQPURL         string        `mapstructure:"AMQP_URL"`
	AMQPExchange    string        `mapstructure:"AMQP_EXCHANGE"`
	MemoryBanks     string        `mapstructure:"MEMORY_BANKS"`
}

// Brokers returns the comma separated Kafka broker list as a slice.
func (c Config) Brokers() []string {
	var out []string

	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}

	return out
}

// Banks returns the bank registry of the in-memory store, given as "id=name" pairs
// separated by commas, keyed by bank name.
func (c Config) Banks() map[string]string {
	out := make(map[string]string)

	for _, pair := range strings.Split(c.MemoryBanks, ",") {
		id, name, ok := strings.Cut(pair, "=")
		id, name = strings.TrimSpace(id), strings.TrimSpace(name)

		if ok && id != "" && name != "" {
			out[name] = id
		}
	}

	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("TOKEN_TYPE", "paseto")
	v.SetDefault("LOCK_WAIT_TIMEOUT", 2*time.Second)
	v.SetDefault("CONFLICT_RETRIES", 3)
	v.SetDefault("HISTORY_PAGE_SIZE", 100)
	v.SetDefault("IDEMPOTENCY_TTL", 24*time.Hour)
	v.SetDefault("EVENTS_BROKER", "none")
	v.SetDefault("KAFKA_TOPIC", "ledger-events")
	v.SetDefault("AMQP_EXCHANGE", "ledger.events")
}

// Load read configuration from file or environment variables.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	setDefaults(v)
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		return c, err
	}

	err = v.Unmarshal(&c)
	if err != nil {
		return c, err
	}

	return c, nil
}
