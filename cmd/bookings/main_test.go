package main

import (
	"context"
	"testing"
	"time"

	"turfbook/pkg/client"
	"turfbook/pkg/config"
	"turfbook/pkg/logger"
	"turfbook/pkg/model"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		SlotLockTimeout:   time.Second,
		SlotLockTTL:       5 * time.Second,
		BookingEventTopic: "bookings.events",
		Log:               logger.Discard(),
		Client:            client.NewClient(),
	}
}

func TestInitPublisher_Disabled(t *testing.T) {
	cfg := testConfig()

	publisher, closePublisher := initPublisher(cfg)
	require.NotNil(t, publisher)
	assert.NoError(t, publisher.Publish(context.Background(), &model.BookingEvent{Type: model.EventBookingCreated}))
	closePublisher()
}

func TestInitPublisher_Kafka(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "127.0.0.1:9092")
	t.Setenv("KAFKA_ENABLE_MIDDLEWARE", "true")
	cfg := testConfig()
	cfg.EventsEnabled = true

	publisher, closePublisher := initPublisher(cfg)
	require.NotNil(t, publisher)
	closePublisher()
}

func TestInitLocker(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		cfg := testConfig()
		cfg.SlotLockBackend = config.LockBackendNone

		locker := initLocker(cfg)
		release, err := locker.Acquire(context.Background(), model.SlotKey{VenueID: "arena", Date: "2030-06-15", Time: "18:00"})
		require.NoError(t, err)
		assert.NoError(t, release(context.Background()))
	})

	t.Run("redis", func(t *testing.T) {
		cfg := testConfig()
		cfg.SlotLockBackend = config.LockBackendRedis
		cfg.Client.Redis = redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
		t.Cleanup(func() { _ = cfg.Client.Redis.Close() })

		assert.NotNil(t, initLocker(cfg))
	})
}
