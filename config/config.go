package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment represents the current runtime environment.
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment determines the current environment. CI is auto-detected,
// everything else comes from the ENV variable.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}
	switch os.Getenv("ENV") {
	case "production":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}

// IsProduction returns true if the current environment is production.
func IsProduction() bool {
	return GetEnvironment() == Production
}

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration. Driver is "postgres" or "sqlite";
	// sqlite deployments use SQLitePath and skip the postgres fields.
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// LLM configuration. The API is OpenAI-compatible chat completions.
	LLMAPIKey string
	LLMAPIURL string
	LLMModel  string

	// Reference data CSV paths
	DrugsCSV        string
	FoodsCSV        string
	InteractionsCSV string

	// S3 bucket for raw dataset archives collected from the public drug API
	DatasetBucket string
}

// LoadConfig creates a Config from environment variables, falling back to
// Docker secrets for sensitive values and to development defaults elsewhere.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		ServerHost: getEnv("SERVER_HOST", "0.0.0.0"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnvOrSecret("DB_USER", "db_user", "postgres"),
		DBPassword: getEnvOrSecret("DB_PASSWORD", "db_password", "postgres"),
		DBName:     getEnv("DB_NAME", "drugfood"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "data/drugfood.db"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrSecret("REDIS_PASSWORD", "redis_password", ""),
		RedisURL:      getEnv("REDIS_URL", ""),

		JWTSecret: getEnvOrSecret("JWT_SECRET", "jwt_secret", ""),

		LLMAPIKey: getEnvOrSecret("LLM_API_KEY", "llm_api_key", ""),
		LLMAPIURL: getEnv("LLM_API_URL", "https://api.deepseek.com/v1/chat/completions"),
		LLMModel:  getEnv("LLM_MODEL", "deepseek-chat"),

		DrugsCSV:        getEnv("DRUGS_CSV", "data/drugs.csv"),
		FoodsCSV:        getEnv("FOODS_CSV", "data/foods.csv"),
		InteractionsCSV: getEnv("INTERACTIONS_CSV", "data/drug_food_interactions.csv"),

		DatasetBucket: getEnv("DATASET_BUCKET", "drugfood-guard-datasets"),
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// getEnv returns the environment variable or a default.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvOrSecret prefers the environment variable, then a Docker secret
// file, then the fallback.
func getEnvOrSecret(key, secret, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := readSecret(secret); v != "" {
		return v
	}
	return fallback
}

// readSecret reads a Docker secret from the secrets directory.
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
