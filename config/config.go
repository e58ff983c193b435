// Package config reads the tradebook configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/etnz/tradebook/store"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	BaseCurrency string
	Store        store.Options
	Oracles      OraclesConfig
	Server       ServerConfig
	CORS         CORSConfig
}

// OraclesConfig holds the rate and price sources.
type OraclesConfig struct {
	RatesURL        string
	RatesPath       string // local rates file, takes precedence over RatesURL
	EODHDKey        string
	AlpacaKey       string
	AlpacaSecret    string
	RefreshSchedule string // cron spec used by the server to refresh rates and prices
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// CORSConfig holds CORS-specific configuration.
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		BaseCurrency: strings.ToUpper(getEnv("TRADEBOOK_BASE_CURRENCY", "USD")),
		Store: store.Options{
			Kind:  store.Kind(getEnv("TRADEBOOK_STORE", string(store.FileKind))),
			Path:  getEnv("TRADEBOOK_STORE_PATH", defaultStorePath()),
			Table: getEnv("TRADEBOOK_DYNAMO_TABLE", store.DefaultTable),
			Key:   os.Getenv("TRADEBOOK_STORE_KEY"),
		},
		Oracles: OraclesConfig{
			RatesURL:        os.Getenv("TRADEBOOK_RATES_URL"),
			RatesPath:       os.Getenv("TRADEBOOK_RATES_PATH"),
			EODHDKey:        os.Getenv("EODHD_API_KEY"),
			AlpacaKey:       os.Getenv("ALPACA_API_KEY"),
			AlpacaSecret:    os.Getenv("ALPACA_SECRET_KEY"),
			RefreshSchedule: getEnv("TRADEBOOK_REFRESH_SCHEDULE", "0 7 * * 1-5"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
	}

	if config.Store.Kind == store.SQLiteKind && config.Store.Path == defaultStorePath() {
		config.Store.Path = defaultStorePath() + ".db"
	}
	switch config.Store.Kind {
	case store.MemoryKind, store.FileKind, store.SQLiteKind, store.DynamoKind:
	default:
		return nil, fmt.Errorf("invalid TRADEBOOK_STORE %q", config.Store.Kind)
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// defaultStorePath is a folder in the user cache directory.
func defaultStorePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return dir + string(os.PathSeparator) + "tradebook"
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
