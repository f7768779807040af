package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort     string
	AllowedOrigins string
	Environment    string

	// CacheBackend is "redis" or "memory".
	CacheBackend string
	CachePrefix  string
	CacheTTL     time.Duration
	RedisURL     string

	PostgresURL string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioSecure    bool

	AIBackendURL    string
	ChatURL         string
	RequestTimeout  time.Duration
	RefreshSchedule string

	MaxUploadBytes int64
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load() // Ignore error since file might not exist in production

	env := strings.ToLower(getEnvWithDefault("ENVIRONMENT", "development"))
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[env] {
		return nil, fmt.Errorf("invalid environment value: %s", env)
	}

	backend := strings.ToLower(getEnvWithDefault("CACHE_BACKEND", "redis"))
	if backend != "redis" && backend != "memory" {
		return nil, fmt.Errorf("invalid CACHE_BACKEND value: %s", backend)
	}

	aiURL := os.Getenv("AI_BACKEND_URL")
	if aiURL == "" {
		return nil, fmt.Errorf("AI_BACKEND_URL environment variable is required")
	}

	cacheTTL, err := getDuration("CACHE_TTL", 0)
	if err != nil {
		return nil, err
	}
	requestTimeout, err := getDuration("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	maxUpload, err := strconv.ParseInt(getEnvWithDefault("MAX_UPLOAD_BYTES", "20971520"), 10, 64)
	if err != nil || maxUpload <= 0 {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES value: %s", os.Getenv("MAX_UPLOAD_BYTES"))
	}

	config := &Config{
		Environment:    env,
		ServerPort:     getEnvWithDefault("SERVER_PORT", "8080"),
		AllowedOrigins: getEnvWithDefault("ALLOWED_ORIGINS", "http://localhost:3000"),

		CacheBackend: backend,
		CachePrefix:  getEnvWithDefault("CACHE_PREFIX", "dashboard:"),
		CacheTTL:     cacheTTL,
		RedisURL:     getEnvWithDefault("REDIS_URL", "redis://localhost:6379/0"),

		PostgresURL: os.Getenv("POSTGRES_URL"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnvWithDefault("MINIO_BUCKET", "patient-documents"),
		MinioRegion:    os.Getenv("MINIO_REGION"),
		MinioSecure:    getEnvWithDefault("MINIO_SECURE", "true") == "true",

		AIBackendURL:    strings.TrimRight(aiURL, "/"),
		ChatURL:         os.Getenv("CHAT_URL"),
		RequestTimeout:  requestTimeout,
		RefreshSchedule: os.Getenv("REFRESH_SCHEDULE"),

		MaxUploadBytes: maxUpload,
	}
	if _, set := os.LookupEnv("REFRESH_SCHEDULE"); !set {
		config.RefreshSchedule = "@every 15m"
	}

	return config, nil
}

// ArchiveEnabled reports whether uploads are archived in object storage.
func (c *Config) ArchiveEnabled() bool {
	return c.MinioEndpoint != ""
}

// HistoryEnabled reports whether uploads are recorded in PostgreSQL.
func (c *Config) HistoryEnabled() bool {
	return c.PostgresURL != ""
}

// IsDevelopment returns whether the current environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns whether the current environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsStaging returns whether the current environment is staging
func (c *Config) IsStaging() bool {
	return c.Environment == "staging"
}
