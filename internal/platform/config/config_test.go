package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"STOREFRONT_ADDR", "MONGO_URI", "KAFKA_BROKERS", "THROTTLE_LATCH_TTL", "EMAIL_FOLD_CASE", "SESSION_TTL"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.Mongo.URI)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 60*time.Second, cfg.Reconcile.ThrottleLatchTTL)
	assert.False(t, cfg.Reconcile.FoldEmailCase)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("STOREFRONT_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")
	t.Setenv("THROTTLE_LATCH_TTL", "2m")
	t.Setenv("EMAIL_FOLD_CASE", "true")
	t.Setenv("REDIS_POOL_SIZE", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 2*time.Minute, cfg.Reconcile.ThrottleLatchTTL)
	assert.True(t, cfg.Reconcile.FoldEmailCase)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}
