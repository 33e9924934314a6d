package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"
	EnvEnvFile  = "ENV_FILE"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvSlotLockBackend = "SLOT_LOCK_BACKEND"
	EnvSlotLockTimeout = "SLOT_LOCK_TIMEOUT"
	EnvSlotLockTTL     = "SLOT_LOCK_TTL"
	EnvSlotMaxAttempts = "SLOT_MAX_ATTEMPTS"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"
	EnvVenueCacheTTL = "VENUE_CACHE_TTL"

	EnvJWTSecret = "JWT_SECRET"

	EnvEventsEnabled     = "EVENTS_ENABLED"
	EnvBookingEventTopic = "BOOKING_EVENTS_TOPIC"
	EnvVenueCatalogTopic = "VENUE_CATALOG_TOPIC"
	EnvVenueSyncGroup    = "VENUE_SYNC_GROUP"
)
