package config

import (
	"fmt"
	"time"

	"github.com/RishiKendai/assignment-portal/internal/configs/env"
)

const (
	StorageB2     = "b2"
	StorageOSS    = "oss"
	StorageMemory = "memory"
)

var similarityMetrics = map[string]bool{
	"hash_only":    true,
	"word_overlap": true,
	"tfidf_cosine": true,
}

// Config holds all configuration for the application
type Config struct {
	// MongoDB
	MongoURI    string
	MongoDBName string

	// Redis
	RedisHost               string
	RedisPassword           string
	RedisStreamKey          string
	RedisConsumerGroup      string
	RedisDeadLetterKey      string
	StreamRetentionDuration time.Duration

	// Document storage
	StorageProvider    string
	B2AccountID        string
	B2AppKey           string
	B2Bucket           string
	OSSEndpoint        string
	OSSAccessKeyID     string
	OSSAccessKeySecret string
	OSSBucket          string
	MaxUploadBytes     int64

	// OCR service
	OCRBaseURL string
	OCRAPIKey  string

	// JWT
	JWTSecret string
	JWTIssuer string
	JWTExpiry time.Duration

	// Signup code teachers must present when registering; empty disables the check
	TeacherSignupCode string

	// Rate Limiting
	RateLimitRPS float64

	// Originality scoring
	SimilarityMetric   string
	MinTextLength      int
	OCRMinChars        int
	EarlyExitThreshold float64
	FlagThreshold      float64
	FetchTimeout       time.Duration
	ScoringTimeout     time.Duration
	ScoringWorkers     int

	// Deadlines are evaluated on calendar dates in this zone
	Timezone string
	Location *time.Location

	// Logging
	LogLevel  string
	LogFormat string

	// Server
	ServerPort  string
	MetricsPort string
}

func Load() (*Config, error) {
	cfg := &Config{}

	// MongoDB
	cfg.MongoURI = env.GetEnv("MONGO_URI", "")
	cfg.MongoDBName = env.GetEnv("MONGO_DB_NAME", "")

	// Redis
	cfg.RedisHost = env.GetEnv("REDIS_HOST", "localhost:6379")
	cfg.RedisPassword = env.GetEnv("REDIS_PASSWORD", "")
	cfg.RedisStreamKey = env.GetEnv("REDIS_STREAM_KEY", "portal:scoring")
	cfg.RedisConsumerGroup = env.GetEnv("REDIS_CONSUMER_GROUP", "portal:scoring:group")
	cfg.RedisDeadLetterKey = env.GetEnv("REDIS_DEAD_LETTER_KEY", "portal:scoring:dlq")
	retentionHours := env.GetEnvInt("STREAM_RETENTION_DURATION", 24)
	cfg.StreamRetentionDuration = time.Duration(retentionHours) * time.Hour

	// Document storage
	cfg.StorageProvider = env.GetEnv("STORAGE_PROVIDER", StorageB2)
	cfg.B2AccountID = env.GetEnv("B2_ACCOUNT_ID", "")
	cfg.B2AppKey = env.GetEnv("B2_APP_KEY", "")
	cfg.B2Bucket = env.GetEnv("B2_BUCKET", "")
	cfg.OSSEndpoint = env.GetEnv("OSS_ENDPOINT", "")
	cfg.OSSAccessKeyID = env.GetEnv("OSS_ACCESS_KEY_ID", "")
	cfg.OSSAccessKeySecret = env.GetEnv("OSS_ACCESS_KEY_SECRET", "")
	cfg.OSSBucket = env.GetEnv("OSS_BUCKET", "")
	maxUploadMB := env.GetEnvInt("MAX_UPLOAD_MB", 10)
	cfg.MaxUploadBytes = int64(maxUploadMB) << 20

	// OCR service
	cfg.OCRBaseURL = env.GetEnv("OCR_BASE_URL", "")
	cfg.OCRAPIKey = env.GetEnv("OCR_API_KEY", "")

	// JWT
	cfg.JWTSecret = env.GetEnv("JWT_SECRET", "")
	cfg.JWTIssuer = env.GetEnv("JWT_ISSUER", "assignment-portal")
	expiryHours := env.GetEnvInt("JWT_EXPIRY_HOURS", 12)
	cfg.JWTExpiry = time.Duration(expiryHours) * time.Hour
	cfg.TeacherSignupCode = env.GetEnv("TEACHER_SIGNUP_CODE", "")

	// Rate Limiting
	cfg.RateLimitRPS = env.GetEnvFloat("RATE_LIMIT_RPS", 10.0)

	// Originality scoring
	cfg.SimilarityMetric = env.GetEnv("SIMILARITY_METRIC", "tfidf_cosine")
	cfg.MinTextLength = env.GetEnvInt("MIN_TEXT_LENGTH", 100)
	cfg.OCRMinChars = env.GetEnvInt("OCR_MIN_CHARS", 50)
	cfg.EarlyExitThreshold = env.GetEnvFloat("EARLY_EXIT_THRESHOLD", 95.0)
	cfg.FlagThreshold = env.GetEnvFloat("FLAG_THRESHOLD", 70.0)
	fetchSeconds := env.GetEnvInt("FETCH_TIMEOUT_SECONDS", 15)
	cfg.FetchTimeout = time.Duration(fetchSeconds) * time.Second
	scoringMinutes := env.GetEnvInt("SCORING_TIMEOUT_MINUTES", 5)
	cfg.ScoringTimeout = time.Duration(scoringMinutes) * time.Minute
	cfg.ScoringWorkers = env.GetEnvInt("SCORING_WORKERS", 0)

	cfg.Timezone = env.GetEnv("APP_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	// Logging
	cfg.LogLevel = env.GetEnv("LOG_LEVEL", "info")
	cfg.LogFormat = env.GetEnv("LOG_FORMAT", "json")

	// Server
	cfg.ServerPort = env.GetEnv("SERVER_PORT", "8080")
	cfg.MetricsPort = env.GetEnv("METRICS_PORT", "2112")

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.MongoDBName == "" {
		return fmt.Errorf("MONGO_DB_NAME is required")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY_HOURS must be greater than 0")
	}
	switch c.StorageProvider {
	case StorageB2:
		if c.B2AccountID == "" || c.B2AppKey == "" || c.B2Bucket == "" {
			return fmt.Errorf("B2_ACCOUNT_ID, B2_APP_KEY and B2_BUCKET are required for the b2 storage provider")
		}
	case StorageOSS:
		if c.OSSEndpoint == "" || c.OSSAccessKeyID == "" || c.OSSAccessKeySecret == "" || c.OSSBucket == "" {
			return fmt.Errorf("OSS_ENDPOINT, OSS_ACCESS_KEY_ID, OSS_ACCESS_KEY_SECRET and OSS_BUCKET are required for the oss storage provider")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_PROVIDER %q", c.StorageProvider)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be greater than 0")
	}
	if !similarityMetrics[c.SimilarityMetric] {
		return fmt.Errorf("unknown SIMILARITY_METRIC %q", c.SimilarityMetric)
	}
	if c.MinTextLength < 0 || c.OCRMinChars < 0 {
		return fmt.Errorf("MIN_TEXT_LENGTH and OCR_MIN_CHARS must not be negative")
	}
	if c.EarlyExitThreshold <= 0 || c.EarlyExitThreshold > 100 {
		return fmt.Errorf("EARLY_EXIT_THRESHOLD must be in (0, 100]")
	}
	if c.FlagThreshold <= 0 || c.FlagThreshold > 100 {
		return fmt.Errorf("FLAG_THRESHOLD must be in (0, 100]")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT_SECONDS must be greater than 0")
	}
	if c.ScoringTimeout <= 0 {
		return fmt.Errorf("SCORING_TIMEOUT_MINUTES must be greater than 0")
	}
	if c.ScoringWorkers < 0 {
		return fmt.Errorf("SCORING_WORKERS must not be negative")
	}
	if c.StreamRetentionDuration <= 0 {
		return fmt.Errorf("STREAM_RETENTION_DURATION must be greater than 0")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be greater than 0")
	}
	return nil
}
