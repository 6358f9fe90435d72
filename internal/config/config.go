package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	API         APIConfig
	Storage     StorageConfig
	PageSize    int
	LogLevel    string
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type StorageConfig struct {
	DataDir string
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("ORDER_API_TIMEOUT", "10s")
	viper.SetDefault("PAGE_SIZE", 10)
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	timeout, err := time.ParseDuration(getEnvOrViper("ORDER_API_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ORDER_API_TIMEOUT: %w", err)
	}

	pageSize := viper.GetInt("PAGE_SIZE")
	if pageSize <= 0 {
		pageSize = 10
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		API: APIConfig{
			BaseURL: getEnvOrViper("ORDER_API_BASE_URL", "http://localhost:8080"),
			Timeout: timeout,
		},
		Storage: StorageConfig{
			DataDir: getEnvOrViper("DATA_DIR", ".ordermgr"),
		},
		PageSize: pageSize,
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
