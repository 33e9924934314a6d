package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "turfbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"
	DefaultEnvFile  = ".env"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultSlotLockBackend = LockBackendMongo
	DefaultSlotLockTimeout = 3 * time.Second
	DefaultSlotLockTTL     = 10 * time.Second
	DefaultSlotMaxAttempts = 3

	DefaultRedisAddr     = ""
	DefaultRedisDB       = 0
	DefaultVenueCacheTTL = 5 * time.Minute

	DefaultEventsEnabled     = false
	DefaultBookingEventTopic = "bookings.events"
	DefaultVenueCatalogTopic = "venues.catalog"
	DefaultVenueSyncGroup    = "turfbook-venue-sync"

	DefaultPaginationLimit = 100
)

const (
	LockBackendMongo = "mongo"
	LockBackendRedis = "redis"
	LockBackendNone  = "none"
)
