package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	PublicBaseURL string
	PageSize      int
	LogLevel      string

	Auth     AuthConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Media    MediaConfig
	Events   EventsConfig
	HTTP     HTTPConfig
}

// AuthConfig holds token settings.
type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
	TokenTTL      time.Duration
}

// DatabaseConfig holds Postgres settings. An empty DSN selects the in-memory stores.
type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ApplySchema     bool
}

// RedisConfig holds Redis settings. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	Namespace    string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MediaConfig selects where recipe images are written.
type MediaConfig struct {
	Root    string
	BaseURL string

	S3Bucket    string
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

// UseS3 reports whether images go to an S3-compatible bucket.
func (m MediaConfig) UseS3() bool {
	return m.S3Bucket != ""
}

// EventsConfig holds Kafka settings. No brokers disables publishing.
type EventsConfig struct {
	Brokers    []string
	Topic      string
	BufferSize int
}

// HTTPConfig holds cross-cutting HTTP settings.
type HTTPConfig struct {
	AllowedOrigins    []string
	RateLimitPerMin   int
	LoginLimitPerMin  int
	RequestTimeout    time.Duration
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first; real env vars win.
func FromEnv() Server {
	_ = godotenv.Load()

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          envString("FOODGRAM_ADDR", ":8080"),
		PublicBaseURL: strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
		PageSize:      envInt("PAGE_SIZE", 6),
		LogLevel:      envString("LOG_LEVEL", "info"),
		Auth: AuthConfig{
			JWTSigningKey: jwtSigningKey,
			Issuer:        envString("JWT_ISSUER", "foodgram"),
			Audience:      envString("JWT_AUDIENCE", "foodgram-api"),
			TokenTTL:      envDuration("TOKEN_TTL", 7*24*time.Hour),
		},
		Database: DatabaseConfig{
			DSN:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			ApplySchema:     envBool("DB_APPLY_SCHEMA", true),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			Namespace:    envString("REDIS_NAMESPACE", "foodgram"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Media: MediaConfig{
			Root:        envString("MEDIA_ROOT", "./media"),
			BaseURL:     envString("MEDIA_BASE_URL", "/media"),
			S3Bucket:    os.Getenv("S3_BUCKET"),
			S3Endpoint:  os.Getenv("S3_ENDPOINT"),
			S3Region:    envString("S3_REGION", "auto"),
			S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
			S3SecretKey: os.Getenv("S3_SECRET_KEY"),
			S3PublicURL: strings.TrimRight(os.Getenv("S3_PUBLIC_BASE_URL"), "/"),
		},
		Events: EventsConfig{
			Brokers:    envList("KAFKA_BROKERS"),
			Topic:      envString("KAFKA_TOPIC", "foodgram.events"),
			BufferSize: envInt("EVENTS_BUFFER_SIZE", 256),
		},
		HTTP: HTTPConfig{
			AllowedOrigins:    envList("CORS_ALLOWED_ORIGINS"),
			RateLimitPerMin:   envInt("RATE_LIMIT_RPM", 300),
			LoginLimitPerMin:  envInt("LOGIN_RATE_LIMIT_RPM", 10),
			RequestTimeout:    envDuration("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout:   envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
