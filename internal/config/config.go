// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Result store backends.
const (
	StoreFirestore = "firestore"
	StoreMongo     = "mongo"
)

// Config holds all configuration shared by the server and the ingest function.
type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	ProjectID       string
	VertexAIRegion  string
	GeminiAPIKey    string
	GenerationModel string
	EmbeddingModel  string

	ResultStore         string
	FirestoreDatabase   string
	FirestoreCollection string
	MongoConnection     string
	MongoDatabase       string
	MongoCollection     string

	DataDir   string
	PublicDir string

	MaxPageWorkers      int
	MaxImageWidth       int
	PageTimeout         time.Duration
	CallTimeout         time.Duration
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	InferenceRPS        float64
	InferenceBurst      int

	MaxUploadBytes     int64
	CORSAllowedOrigins string
	JobHistory         int
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is the normal case in deployed environments.
	_ = godotenv.Load()

	cfg := &Config{
		Port:     GetEnv("PORT", "3000"),
		GinMode:  GetEnv("GIN_MODE", "release"),
		LogLevel: GetEnv("LOG_LEVEL", "info"),

		ProjectID:       GetEnv("PROJECT_ID", ""),
		VertexAIRegion:  GetEnv("VERTEX_AI_REGION", "us-central1"),
		GeminiAPIKey:    GetEnv("GEMINI_API_KEY", ""),
		GenerationModel: GetEnv("GENERATION_MODEL", "gemini-2.5-flash"),
		EmbeddingModel:  GetEnv("EMBEDDING_MODEL", "text-embedding-005"),

		ResultStore:         strings.ToLower(GetEnv("RESULT_STORE", StoreFirestore)),
		FirestoreDatabase:   GetEnv("FIRESTORE_DATABASE", ""),
		FirestoreCollection: GetEnv("FIRESTORE_COLLECTION", "parsedPdfs"),
		MongoConnection:     GetEnv("MONGO_CONNECTION", ""),
		MongoDatabase:       GetEnv("MONGO_DATABASE", "pdfinsight"),
		MongoCollection:     GetEnv("MONGO_COLLECTION", "parsedpdfs"),

		DataDir:   GetEnv("DATA_DIR", "./data"),
		PublicDir: GetEnv("PUBLIC_DIR", "./public"),

		MaxPageWorkers:      GetEnvInt("MAX_PAGE_WORKERS", 10),
		MaxImageWidth:       GetEnvInt("MAX_IMAGE_WIDTH", 2000),
		PageTimeout:         GetEnvDuration("PAGE_TIMEOUT", 2*time.Minute),
		CallTimeout:         GetEnvDuration("CALL_TIMEOUT", 60*time.Second),
		RetryMaxAttempts:    GetEnvInt("RETRY_MAX_ATTEMPTS", 4),
		RetryInitialBackoff: GetEnvDuration("RETRY_INITIAL_BACKOFF", time.Second),
		InferenceRPS:        GetEnvFloat("INFERENCE_RPS", 0),
		InferenceBurst:      GetEnvInt("INFERENCE_BURST", 5),

		MaxUploadBytes:     int64(GetEnvInt("MAX_UPLOAD_BYTES", 100<<20)),
		CORSAllowedOrigins: GetEnv("CORS_ALLOWED_ORIGINS", "*"),
		JobHistory:         GetEnvInt("JOB_HISTORY", 100),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required settings are present and consistent.
func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	switch c.ResultStore {
	case StoreFirestore:
	case StoreMongo:
		if c.MongoConnection == "" {
			return fmt.Errorf("MONGO_CONNECTION environment variable must be set when RESULT_STORE=mongo")
		}
	default:
		return fmt.Errorf("unsupported RESULT_STORE %q", c.ResultStore)
	}
	if c.MaxImageWidth <= 0 {
		return fmt.Errorf("MAX_IMAGE_WIDTH must be positive")
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

// GetEnvInt reads an integer variable; unparsable or negative values yield the fallback.
func GetEnvInt(key string, fallback int) int {
	v := GetEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// GetEnvFloat reads a float variable; unparsable or negative values yield the fallback.
func GetEnvFloat(key string, fallback float64) float64 {
	v := GetEnv(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return fallback
	}
	return f
}

// GetEnvDuration reads a Go duration string such as "90s".
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	v := GetEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
