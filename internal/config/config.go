package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dreampipe/internal/crypto"
)

// ErrMissingAPIKey indicates that no backend credential is available.
// The pipeline refuses to start without one.
var ErrMissingAPIKey = errors.New("BACKEND_API_KEY not set and no key stored in keychain")

// Config holds all pipeline configuration, resolved once at startup and
// passed explicitly into each component.
type Config struct {
	BaseURL string // backend generation API base URL
	APIKey  string // bearer token for the backend API

	ModelsPath    string // models.json catalog location
	LogPath       string // pipeline log file
	ConvertScript string // external conversion executable

	MaxPollAttempts int           // polling attempt budget
	PollInterval    time.Duration // sleep between poll attempts

	ConvertTimeout time.Duration // wall-clock bound on the conversion script

	DatabaseURL string // run-history store; empty selects the sqlite default
}

// Load resolves configuration from the environment. The API key falls
// back to the system keychain when the environment variable is empty;
// absence of both is a fatal precondition.
func Load() (*Config, error) {
	root := os.Getenv("PIPELINE_ROOT")
	if root == "" {
		root = "."
	}

	apiKey := os.Getenv("BACKEND_API_KEY")
	if apiKey == "" {
		stored, err := crypto.LoadAPIKey()
		if err != nil {
			return nil, fmt.Errorf("failed to read keychain: %w", err)
		}
		apiKey = stored
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	baseURL := os.Getenv("BACKEND_BASE_URL")
	if baseURL == "" {
		baseURL = "https://your-backend-api.com"
	}

	cfg := &Config{
		BaseURL:         baseURL,
		APIKey:          apiKey,
		ModelsPath:      getEnvString("MODELS_JSON", filepath.Join(root, "AppAssets", "models.json")),
		LogPath:         getEnvString("PIPELINE_LOG", filepath.Join(root, "tools", "pipeline.log")),
		ConvertScript:   getEnvString("CONVERT_SCRIPT", filepath.Join(root, "tools", "convert.sh")),
		MaxPollAttempts: getEnvInt("POLL_MAX_ATTEMPTS", 60),
		PollInterval:    getEnvDuration("POLL_INTERVAL", 2*time.Second),
		ConvertTimeout:  getEnvDuration("CONVERT_TIMEOUT", 5*time.Minute),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
	}

	return cfg, nil
}

// getEnvString retrieves a string from environment variable with default fallback
func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

// getEnvInt retrieves an integer from environment variable with default fallback
func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration from environment variable with default fallback
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultValue
}
