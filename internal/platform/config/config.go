package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything main needs to wire the realtime core. Values
// come from the environment so deployments stay twelve-factor and main stays
// lean.
type Config struct {
	Addr          string
	JWTSigningKey string

	// SendBuffer is the per-connection outbound queue depth. Pushes beyond
	// it are dropped rather than blocking the sender.
	SendBuffer int

	// PostgresDSN, when set, switches the friend graph to the durable store.
	PostgresDSN string

	Redis RedisConfig

	// OutboxEnabled turns on the offline-notification outbox. It is a
	// separate extension and stays off unless explicitly requested.
	OutboxEnabled    bool
	OutboxMaxPerUser int

	Kafka KafkaConfig
}

// RedisConfig carries connection settings for the optional Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional event ingest consumer. Empty Brokers
// disables it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Group   string
}

// FromEnv builds a Config from environment variables with development
// defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:             envOr("ONYX_ADDR", ":8080"),
		JWTSigningKey:    envOr("ONYX_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SendBuffer:       envInt("ONYX_SEND_BUFFER", 32),
		PostgresDSN:      os.Getenv("ONYX_POSTGRES_DSN"),
		OutboxEnabled:    os.Getenv("ONYX_OUTBOX_ENABLED") == "true",
		OutboxMaxPerUser: envInt("ONYX_OUTBOX_MAX_PER_USER", 100),
		Redis: RedisConfig{
			URL:          os.Getenv("ONYX_REDIS_URL"),
			PoolSize:     envInt("ONYX_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("ONYX_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic: envOr("ONYX_KAFKA_TOPIC", "onyx.notifications"),
			Group: envOr("ONYX_KAFKA_GROUP", "onyx-realtime"),
		},
	}

	if brokers := os.Getenv("ONYX_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
