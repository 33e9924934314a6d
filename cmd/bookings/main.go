package main

import (
	"turfbook/internal/bookings/events"
	"turfbook/internal/bookings/handler"
	"turfbook/internal/bookings/repository"
	"turfbook/internal/bookings/service"
	"turfbook/internal/bookings/validator"
	"turfbook/internal/slots/lock"
	slotrepo "turfbook/internal/slots/repository"
	venuerepo "turfbook/internal/venues/repository"
	"turfbook/pkg/app"
	"turfbook/pkg/config"
	"turfbook/pkg/kafka"
	kafka_config "turfbook/pkg/kafka/config"
	kafka_middleware "turfbook/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Bookings service")
	serverApp := app.NewApplication(cfg)

	publisher, closePublisher := initPublisher(cfg)
	serverApp.OnShutdown(closePublisher)
	serverApp.OnShutdown(cfg.GracefulShutdown)

	bookingService := initServices(cfg, publisher)
	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) service.BookingService {
	bookingService := service.NewBookingService(
		repository.NewMongoBookingRepository(cfg),
		slotrepo.NewMongoSlotRepository(cfg),
		initVenueLookup(cfg),
		initLocker(cfg),
		publisher,
		validator.NewBookingValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Booking service initialized",
		"database", cfg.MongoDatabaseName,
		"lock_backend", cfg.SlotLockBackend,
		"max_attempts", cfg.SlotMaxAttempts,
	)
	return bookingService
}

func initLocker(cfg *config.Config) lock.Locker {
	switch cfg.SlotLockBackend {
	case config.LockBackendRedis:
		if cfg.Client.Redis == nil {
			cfg.Log.Fatal("Redis lock backend selected but REDIS_ADDR is not set")
		}
		return lock.NewRedisLocker(cfg.Client.Redis, cfg.SlotLockTimeout, cfg.SlotLockTTL)
	case config.LockBackendNone:
		cfg.Log.Warn("Slot locking disabled, relying on version checks only")
		return lock.NewNoopLocker()
	default:
		return lock.NewMongoLocker(cfg)
	}
}

func initVenueLookup(cfg *config.Config) venuerepo.VenueLookup {
	venues := venuerepo.NewMongoVenueRepository(cfg)
	if cfg.Client.Redis == nil || cfg.VenueCacheTTL <= 0 {
		return venues
	}
	cfg.Log.Info("Venue lookups cached in Redis", "ttl", cfg.VenueCacheTTL)
	return venuerepo.NewCachedVenueLookup(venues, cfg.Client.Redis, cfg.VenueCacheTTL, cfg.Log)
}

func initPublisher(cfg *config.Config) (events.Publisher, func()) {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Booking events disabled")
		return events.NewNoopPublisher(), func() {}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventTopic, "", cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking event producer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(metrics.ProducerMiddleware())
	}

	cfg.Log.Info("Publishing booking events", "topic", cfg.BookingEventTopic)
	return events.NewKafkaPublisher(producer, ServiceName), func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close booking event producer", "error", err)
		}
		cfg.Log.Info("Booking event producer closed", metrics.Snapshot().LogAttrs()...)
	}
}
