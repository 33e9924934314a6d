package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"turfbook/internal/venues/consumer"
	venuerepo "turfbook/internal/venues/repository"
	"turfbook/pkg/config"
	"turfbook/pkg/kafka"
	kafka_config "turfbook/pkg/kafka/config"
	kafka_middleware "turfbook/pkg/kafka/middleware"
)

const ServiceName = "venue-sync"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	venues := venuerepo.NewMongoVenueRepository(cfg)
	var cache consumer.Invalidator
	if cfg.Client.Redis != nil {
		cache = venuerepo.NewCachedVenueLookup(venues, cfg.Client.Redis, cfg.VenueCacheTTL, cfg.Log)
	}
	venueSync := consumer.NewVenueSync(venues, cache, cfg.Log)

	metrics := kafka_middleware.NewMetrics()
	c, err := newVenueConsumer(cfg, kafkaCfg, venueSync.Handle, metrics)
	if err != nil {
		cfg.Log.Fatal("Failed to create venue catalog consumer", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting venue catalog sync",
		"topic", cfg.VenueCatalogTopic,
		"group_id", cfg.VenueSyncGroup,
	)
	if err := c.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Venue catalog consumer stopped", "error", err)
	}

	if err := c.Close(); err != nil {
		cfg.Log.Error("Failed to close venue catalog consumer", "error", err)
	}
	cfg.Log.Info("Venue catalog sync stopped", metrics.Snapshot().LogAttrs()...)
}

func newVenueConsumer(cfg *config.Config, kafkaCfg *kafka_config.Config, handler kafka.MessageHandler, metrics *kafka_middleware.Metrics) (*kafka.Consumer, error) {
	c, err := kafka.NewConsumer(kafkaCfg, cfg.VenueCatalogTopic, cfg.VenueSyncGroup, kafkaCfg.ConsumerDLQTopic, handler, cfg.Log)
	if err != nil {
		return nil, err
	}
	if kafkaCfg.EnableMiddleware {
		c.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		c.Use(metrics.ConsumerMiddleware())
	}
	return c, nil
}
