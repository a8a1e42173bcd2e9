package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort  string
	ServerHost  string
	CORSOrigins []string
	LogMode     string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Auth configuration
	JWTSecret string
	TokenTTL  time.Duration
	// CredentialKey seals the model API keys users store with their profile.
	CredentialKey string

	// Model configuration
	GeminiModel   string
	GeminiBaseURL string

	// Rate limiting for the AI endpoints
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Avatar storage, disabled when S3Bucket is empty
	S3Bucket string
	S3Region string

	// Tracing
	OTelEnabled     bool
	OTelEndpoint    string
	OTelInsecure    bool
	OTelServiceName string
}

const (
	defaultServerPort        = "8080"
	defaultServerHost        = "0.0.0.0"
	defaultDBDriver          = "postgres"
	defaultSQLitePath        = "nutrisnap.db"
	defaultTokenTTL          = 24 * time.Hour
	defaultGeminiModel       = "gemini-2.0-flash"
	defaultRateLimitRequests = 30
	defaultRateLimitWindow   = time.Minute
	defaultServiceName       = "nutrisnap-backend"
)

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{}

	// Load configuration based on environment
	switch env {
	case CI:
		if err := loadCIConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load CI configuration: %w", err)
		}
	case Development, Test:
		if err := loadDevConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load development configuration: %w", err)
		}
	case Production:
		if err := loadProdConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load production configuration: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	applyDefaults(cfg, env)

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadCIConfig loads configuration for CI environment using ONLY environment variables
func loadCIConfig(cfg *Config) error {
	if err := load(cfg, os.Getenv); err != nil {
		return err
	}

	// CI secrets carry a TEST_ prefix
	cfg.DBPassword = os.Getenv("TEST_DB_PASSWORD")
	if cfg.DBPassword == "" && cfg.DBDriver != "sqlite" {
		return fmt.Errorf("TEST_DB_PASSWORD environment variable is required in CI environment")
	}
	cfg.JWTSecret = os.Getenv("TEST_JWT_SECRET")
	cfg.CredentialKey = os.Getenv("TEST_CREDENTIAL_KEY")
	cfg.RedisPassword = os.Getenv("TEST_REDIS_PASSWORD")
	if url := os.Getenv("TEST_REDIS_URL"); url != "" {
		cfg.RedisURL = url
	}
	return nil
}

// loadDevConfig loads configuration for development and test environments.
// Docker secrets win over environment variables.
func loadDevConfig(cfg *Config) error {
	return load(cfg, setting)
}

// loadProdConfig loads configuration for production environment. Sensitive
// values come ONLY from Docker secrets.
func loadProdConfig(cfg *Config) error {
	if err := load(cfg, setting); err != nil {
		return err
	}
	cfg.DBPassword = readSecret("db_password")
	cfg.RedisPassword = readSecret("redis_password")
	cfg.JWTSecret = readSecret("jwt_secret")
	cfg.CredentialKey = readSecret("credential_key")
	return nil
}

// load fills cfg from a lookup keyed by environment variable name.
func load(cfg *Config, lookup func(string) string) error {
	cfg.ServerPort = lookup("SERVER_PORT")
	cfg.ServerHost = lookup("SERVER_HOST")
	cfg.CORSOrigins = splitList(lookup("CORS_ORIGINS"))
	cfg.LogMode = lookup("LOG_MODE")

	cfg.DBDriver = strings.ToLower(lookup("DB_DRIVER"))
	cfg.DBHost = lookup("DB_HOST")
	cfg.DBPort = lookup("DB_PORT")
	cfg.DBUser = lookup("DB_USER")
	cfg.DBPassword = lookup("DB_PASSWORD")
	cfg.DBName = lookup("DB_NAME")
	cfg.DBSSLMode = lookup("DB_SSL_MODE")
	cfg.SQLitePath = lookup("SQLITE_PATH")

	cfg.RedisURL = lookup("REDIS_URL")
	cfg.RedisHost = lookup("REDIS_HOST")
	cfg.RedisPort = lookup("REDIS_PORT")
	cfg.RedisPassword = lookup("REDIS_PASSWORD")
	cfg.RedisDB = 0 // This is a constant, not a secret

	cfg.JWTSecret = lookup("JWT_SECRET")
	cfg.CredentialKey = lookup("CREDENTIAL_KEY")
	cfg.GeminiModel = lookup("GEMINI_MODEL")
	cfg.GeminiBaseURL = lookup("GEMINI_BASE_URL")
	cfg.S3Bucket = lookup("S3_BUCKET_NAME")
	cfg.S3Region = lookup("AWS_REGION")
	cfg.OTelEndpoint = lookup("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.OTelServiceName = lookup("OTEL_SERVICE_NAME")

	var err error
	if cfg.TokenTTL, err = parseDuration("TOKEN_TTL", lookup("TOKEN_TTL")); err != nil {
		return err
	}
	if cfg.RateLimitWindow, err = parseDuration("RATE_LIMIT_WINDOW", lookup("RATE_LIMIT_WINDOW")); err != nil {
		return err
	}
	if v := lookup("RATE_LIMIT_REQUESTS"); v != "" {
		if cfg.RateLimitRequests, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_REQUESTS %q: %w", v, err)
		}
	}
	if v := lookup("OTEL_ENABLED"); v != "" {
		if cfg.OTelEnabled, err = strconv.ParseBool(v); err != nil {
			return fmt.Errorf("invalid OTEL_ENABLED %q: %w", v, err)
		}
	}
	cfg.OTelInsecure, _ = strconv.ParseBool(lookup("OTEL_EXPORTER_OTLP_INSECURE"))
	return nil
}

func applyDefaults(cfg *Config, env Environment) {
	if cfg.ServerPort == "" {
		cfg.ServerPort = defaultServerPort
	}
	if cfg.ServerHost == "" {
		cfg.ServerHost = defaultServerHost
	}
	if cfg.LogMode == "" {
		cfg.LogMode = "production"
		if env == Development {
			cfg.LogMode = "development"
		}
	}
	if cfg.DBDriver == "" {
		cfg.DBDriver = defaultDBDriver
	}
	if cfg.DBDriver == "sqlite" && cfg.SQLitePath == "" {
		cfg.SQLitePath = defaultSQLitePath
	}
	if cfg.DBSSLMode == "" {
		cfg.DBSSLMode = "disable"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = defaultGeminiModel
	}
	if cfg.RateLimitRequests == 0 {
		cfg.RateLimitRequests = defaultRateLimitRequests
	}
	if cfg.RateLimitWindow == 0 {
		cfg.RateLimitWindow = defaultRateLimitWindow
	}
	if cfg.OTelServiceName == "" {
		cfg.OTelServiceName = defaultServiceName
	}
}

// setting reads a Docker secret named after the lower-cased variable and
// falls back to the environment variable itself.
func setting(name string) string {
	if v := readSecret(strings.ToLower(name)); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv(name))
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func parseDuration(name, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
