package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, v := range e {
		msgs = append(msgs, v.Error())
	}
	return strings.Join(msgs, "\n")
}

const minSecretLen = 32

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()
	var errs ValidationErrors

	// Sensitive values come from env vars in CI and from Docker secrets elsewhere.
	source := func(envVar, secret string) string {
		if env == CI {
			return "TEST_" + envVar + " environment variable"
		}
		return secret + " secret"
	}

	switch cfg.DBDriver {
	case "postgres":
		for _, f := range [][2]string{
			{"DB_HOST", cfg.DBHost},
			{"DB_PORT", cfg.DBPort},
			{"DB_USER", cfg.DBUser},
			{"DB_NAME", cfg.DBName},
		} {
			if f[1] == "" {
				errs = append(errs, ValidationError{f[0], "is required for the postgres driver"})
			}
		}
		if cfg.DBPassword == "" {
			errs = append(errs, ValidationError{"DB_PASSWORD", source("DB_PASSWORD", "db_password") + " is required"})
		}
	case "sqlite":
		if cfg.SQLitePath == "" {
			errs = append(errs, ValidationError{"SQLITE_PATH", "is required for the sqlite driver"})
		}
	default:
		errs = append(errs, ValidationError{"DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if cfg.RedisURL == "" && cfg.RedisHost == "" {
		errs = append(errs, ValidationError{"REDIS_URL", "REDIS_URL or REDIS_HOST is required"})
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{"JWT_SECRET", source("JWT_SECRET", "jwt_secret") + " is required"})
	}
	if len(cfg.CredentialKey) < minSecretLen {
		errs = append(errs, ValidationError{"CREDENTIAL_KEY", fmt.Sprintf("%s must be at least %d characters", source("CREDENTIAL_KEY", "credential_key"), minSecretLen)})
	}

	if cfg.TokenTTL <= 0 {
		errs = append(errs, ValidationError{"TOKEN_TTL", "must be positive"})
	}
	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, ValidationError{"RATE_LIMIT_REQUESTS", "must be positive"})
	}
	if cfg.RateLimitWindow <= 0 {
		errs = append(errs, ValidationError{"RATE_LIMIT_WINDOW", "must be positive"})
	}
	if env == Production && len(cfg.CORSOrigins) == 0 {
		errs = append(errs, ValidationError{"CORS_ORIGINS", "is required in production"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Fields lists the fields named in a validation error.
func Fields(err error) []string {
	var errs ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	return fields
}
