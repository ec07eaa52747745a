package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Backend names accepted in STORE_BACKEND.
const (
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds environment-driven settings for the lab API.
type Config struct {
	StoreBackend    string
	SpreadsheetID   string
	CredentialsJSON string
	DatabaseURL     string
	Port            int
	JWTSecret       string
	TokenTTL        time.Duration
	LogMode         string
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		StoreBackend: BackendSheets,
		Port:         8080,
		TokenTTL:     12 * time.Hour,
		LogMode:      "dev",
	}

	if backend := os.Getenv("STORE_BACKEND"); backend != "" {
		switch backend {
		case BackendSheets, BackendPostgres, BackendMemory:
			cfg.StoreBackend = backend
		default:
			return cfg, fmt.Errorf("invalid STORE_BACKEND: %s", backend)
		}
	}

	cfg.SpreadsheetID = os.Getenv("SHEETS_SPREADSHEET_ID")
	cfg.CredentialsJSON = os.Getenv("GOOGLE_CREDENTIALS_JSON")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	switch cfg.StoreBackend {
	case BackendSheets:
		if cfg.SpreadsheetID == "" {
			return cfg, errors.New("SHEETS_SPREADSHEET_ID is required for the sheets backend")
		}
		if cfg.CredentialsJSON == "" {
			return cfg, errors.New("GOOGLE_CREDENTIALS_JSON is required for the sheets backend")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return cfg, errors.New("DATABASE_URL is required for the postgres backend")
		}
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	} else if portStr := os.Getenv("API_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid API_PORT: %s", portStr)
		}
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}

	if ttlStr := os.Getenv("TOKEN_TTL_HOURS"); ttlStr != "" {
		if hours, err := strconv.Atoi(ttlStr); err == nil && hours > 0 {
			cfg.TokenTTL = time.Duration(hours) * time.Hour
		} else {
			return cfg, fmt.Errorf("invalid TOKEN_TTL_HOURS: %s", ttlStr)
		}
	}

	if mode := os.Getenv("LOG_MODE"); mode != "" {
		cfg.LogMode = mode
	}

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
