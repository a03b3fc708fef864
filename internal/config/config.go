package config

import (
	"os"
	"strconv"
	"time"

	"surveylens/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	UI        UIConfig
	Data      DataConfig
	Analysis  AnalysisConfig
	Profiling ProfilingConfig
}

// ServerConfig holds JSON API settings
type ServerConfig struct {
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration
}

// UIConfig holds dashboard settings
type UIConfig struct {
	Port string
}

// DataConfig holds data loading settings
type DataConfig struct {
	File           string // loaded at startup when set
	Sheet          string // empty selects the first sheet
	MaxUploadMB    int
	LenientNumbers bool
}

// AnalysisConfig holds analyzer settings
type AnalysisConfig struct {
	InPlace bool
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:    *loadServerConfig(),
		UI:        *loadUIConfig(),
		Data:      *loadDataConfig(),
		Analysis:  *loadAnalysisConfig(),
		Profiling: *loadProfilingConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		GinMode:         getEnvOrDefault("GIN_MODE", "debug"),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadUIConfig() *UIConfig {
	return &UIConfig{
		Port: getEnvOrDefault("UI_PORT", "8081"),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		File:           getEnvOrDefault("DATA_FILE", ""),
		Sheet:          getEnvOrDefault("SHEET_NAME", ""),
		MaxUploadMB:    getEnvIntOrDefault("MAX_UPLOAD_MB", 32),
		LenientNumbers: getEnvBoolOrDefault("DATA_LENIENT_NUMBERS", false),
	}
}

func loadAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		InPlace: getEnvBoolOrDefault("ANALYSIS_IN_PLACE", false),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return errors.ConfigInvalid("PORT must be numeric")
	}
	if _, err := strconv.Atoi(config.UI.Port); err != nil {
		return errors.ConfigInvalid("UI_PORT must be numeric")
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.ConfigInvalid("GIN_MODE must be debug, release or test")
	}
	if config.Data.MaxUploadMB <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// MaxUploadBytes is the upload limit in bytes
func (c DataConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
