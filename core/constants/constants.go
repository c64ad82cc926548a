package constants

// Database defaults
const (
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)

// Echo context keys
const (
	ContextTokenData = "token_data"
)

// Redis key prefixes
const (
	RedisKeyTokenBlacklist = "token:blacklist:"
)

// Venue defaults, overridable through config
const (
	DefaultMaxVenueNumber    = 24
	DefaultFreeVenueCount    = 2
	DefaultApprovalCutoffHr  = 22
	DefaultRetentionDays     = 3
	DefaultMaxUploadBytes    = 16 << 20
	DefaultTokenTTLHours     = 24
	DefaultPasswordMinLength = 6
)

// Asynq task type names
const (
	TaskCleanupExpired = "cleanup:expired"
)
