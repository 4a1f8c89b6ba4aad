package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds runtime configuration for the benchmark service.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers          []string
	KafkaTopicObservation string

	HTTPAddr string

	// Account is the watched account; every runner races to observe
	// transactions touching it.
	Account string
	// Transactions is the target race count N; the run stops once N distinct
	// signatures have been observed.
	Transactions int
	// Commitment is the consistency level requested from providers.
	Commitment string

	LogDir string

	EndpointSetKey string
}

// envOrDefault returns the value of an environment variable or a default.
func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) (int, error) {
	if raw := os.Getenv(key); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return val, nil
	}

	return def, nil
}

func envCSVOrDefault(key, def string) []string {
	raw := envOrDefault(key, def)
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (Config, error) {
	redisDB, err := envIntOrDefault("REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	transactions, err := envIntOrDefault("TARGET_TRANSACTIONS", 20)
	if err != nil {
		return Config{}, err
	}
	if transactions <= 0 {
		return Config{}, fmt.Errorf("TARGET_TRANSACTIONS must be positive, got %d", transactions)
	}

	account := os.Getenv("WATCH_ACCOUNT")
	if account == "" {
		return Config{}, fmt.Errorf("WATCH_ACCOUNT is required")
	}

	cfg := Config{
		RedisAddr:     envOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		KafkaBrokers:          envCSVOrDefault("KAFKA_BROKERS", "localhost:9092"),
		KafkaTopicObservation: envOrDefault("KAFKA_TOPIC_OBSERVATIONS", "race_observations"),

		HTTPAddr: envOrDefault("HTTP_ADDR", ":8086"),

		Account:      account,
		Transactions: transactions,
		Commitment:   envOrDefault("COMMITMENT", "processed"),

		LogDir: envOrDefault("LOG_DIR", "logs"),

		EndpointSetKey: envOrDefault("ENDPOINT_SET_KEY", "geyserbench:endpoints:primary"),
	}

	return cfg, nil
}
