package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigRequiresWatchAccount(t *testing.T) {
	t.Setenv("WATCH_ACCOUNT", "")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("WATCH_ACCOUNT", "SomeAccount111111111111111111111111111111111")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "localhost:6379", cfg.RedisAddr)
	require.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "race_observations", cfg.KafkaTopicObservation)
	require.Equal(t, 20, cfg.Transactions)
	require.Equal(t, "processed", cfg.Commitment)
	require.Equal(t, "geyserbench:endpoints:primary", cfg.EndpointSetKey)
}

func TestLoadConfigParsesOverrides(t *testing.T) {
	t.Setenv("WATCH_ACCOUNT", "SomeAccount111111111111111111111111111111111")
	t.Setenv("TARGET_TRANSACTIONS", "5")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("COMMITMENT", "confirmed")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Transactions)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "confirmed", cfg.Commitment)
}

func TestLoadConfigRejectsInvalidTarget(t *testing.T) {
	t.Setenv("WATCH_ACCOUNT", "SomeAccount111111111111111111111111111111111")

	t.Setenv("TARGET_TRANSACTIONS", "zero")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("TARGET_TRANSACTIONS", "0")
	_, err = LoadConfig()
	require.Error(t, err)
}
