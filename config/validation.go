package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks the configuration against the requirements of the
// current environment. Development and test get permissive defaults;
// production requires real secrets.
func ValidateConfig(cfg *Config) error {
	var errs []string

	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver))
	}

	if cfg.DBDriver == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, "SQLITE_PATH is required when DB_DRIVER is sqlite")
	}

	if GetEnvironment() == Production {
		if cfg.JWTSecret == "" {
			errs = append(errs, "jwt_secret is required in production")
		}
		if cfg.DBPassword == "" {
			errs = append(errs, "db_password is required in production")
		}
		if cfg.LLMAPIKey == "" {
			errs = append(errs, "llm_api_key is required in production")
		}
	} else if cfg.JWTSecret == "" {
		// Tests and local runs still need something to sign tokens with.
		cfg.JWTSecret = "dev-secret"
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
