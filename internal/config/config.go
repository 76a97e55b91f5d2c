// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

type Config struct {
	Server   ServerConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Bunny    BunnyConfig
	AWS      AWSConfig
	Learning LearningConfig
}

type ServerConfig struct {
	HTTPPort        string
	GRPCPort        string
	Environment     string
	LogLevel        string
	ShutdownTimeout time.Duration
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// RedisConfig leaves caching off when Addr is empty.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type BunnyConfig struct {
	APIBaseURL        string
	APIKey            string
	LibraryID         string
	CDNHostname       string
	WebhookSecret     string
	RequestsPerSecond float64
	HTTPTimeout       time.Duration
	UploadTTL         time.Duration
}

// AWSConfig: an empty KinesisStreamName disables event publishing and an
// empty S3BucketName disables thumbnail uploads.
type AWSConfig struct {
	Region            string
	Endpoint          string
	KinesisStreamName string
	S3BucketName      string
	S3PublicBaseURL   string
}

type LearningConfig struct {
	AllowRetake    bool
	StreakTimezone string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        getEnv("HTTP_PORT", "8084"),
			GRPCPort:        getEnv("GRPC_PORT", "9084"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "learning"),
			ConnectTimeout: getEnvAsDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		},
		Bunny: BunnyConfig{
			APIBaseURL:        getEnv("BUNNY_API_BASE_URL", "https://video.bunnycdn.com"),
			APIKey:            getEnv("BUNNY_API_KEY", ""),
			LibraryID:         getEnv("BUNNY_LIBRARY_ID", ""),
			CDNHostname:       getEnv("BUNNY_CDN_HOSTNAME", ""),
			WebhookSecret:     getEnv("BUNNY_WEBHOOK_SECRET", ""),
			RequestsPerSecond: getEnvAsFloat("BUNNY_REQUESTS_PER_SECOND", 10),
			HTTPTimeout:       getEnvAsDuration("BUNNY_HTTP_TIMEOUT", 30*time.Second),
			UploadTTL:         getEnvAsDuration("BUNNY_UPLOAD_TTL", 2*time.Hour),
		},
		AWS: AWSConfig{
			Region:            getEnv("AWS_REGION", "us-east-1"),
			Endpoint:          getEnv("AWS_ENDPOINT", ""),
			KinesisStreamName: getEnv("KINESIS_STREAM_NAME", ""),
			S3BucketName:      getEnv("S3_BUCKET_NAME", ""),
			S3PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
		},
		Learning: LearningConfig{
			AllowRetake:    getEnvAsBool("DPP_ALLOW_RETAKE", true),
			StreakTimezone: getEnv("STREAK_TIMEZONE", "UTC"),
		},
	}
}

// Validate reports every problem at once rather than stopping at the first.
func (c *Config) Validate() error {
	var errs []error
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("MONGODB_URI is required"))
	}
	if c.Mongo.Database == "" {
		errs = append(errs, errors.New("MONGODB_DATABASE is required"))
	}
	if c.Bunny.RequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("BUNNY_REQUESTS_PER_SECOND must be positive, got %v", c.Bunny.RequestsPerSecond))
	}
	if c.Bunny.LibraryID != "" {
		if _, err := strconv.ParseInt(c.Bunny.LibraryID, 10, 64); err != nil {
			errs = append(errs, fmt.Errorf("BUNNY_LIBRARY_ID must be numeric: %q", c.Bunny.LibraryID))
		}
	}
	if _, err := time.LoadLocation(c.Learning.StreakTimezone); err != nil {
		errs = append(errs, fmt.Errorf("STREAK_TIMEZONE: %w", err))
	}
	switch strings.ToLower(c.Server.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.Server.LogLevel))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// StreakLocation returns the timezone study days are counted in. Validate
// guarantees it loads; UTC is the fallback for unvalidated configs.
func (c *Config) StreakLocation() *time.Location {
	loc, err := time.LoadLocation(c.Learning.StreakTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
