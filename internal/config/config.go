package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const quickFSKeyVar = "QUICKFS_API_KEY"

type Config struct {
	LogLevel    string
	LogPretty   bool
	DBPath      string // empty disables the sqlite sink
	OutputDir   string
	UserAgent   string
	HTTPTimeout time.Duration

	QuickFSAPIKey     string
	QuickFSRatePerSec float64
}

// Load reads a .env file when present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getEnvAsBool("LOG_PRETTY", true),
		DBPath:            getEnv("DB_PATH", ""),
		OutputDir:         getEnv("OUTPUT_DIR", "./data"),
		UserAgent:         getEnv("USER_AGENT", ""),
		HTTPTimeout:       time.Duration(getEnvAsInt("HTTP_TIMEOUT_SEC", 30)) * time.Second,
		QuickFSAPIKey:     getEnv(quickFSKeyVar, ""),
		QuickFSRatePerSec: getEnvAsFloat("QUICKFS_RATE_PER_SEC", 2),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SEC must be positive, got %v", c.HTTPTimeout)
	}
	if c.QuickFSRatePerSec < 0 {
		return fmt.Errorf("QUICKFS_RATE_PER_SEC must not be negative, got %v", c.QuickFSRatePerSec)
	}
	// QuickFS key only matters to the quickfs command
	return nil
}

// LoadQuickFS reads the API key from a dotenv formatted QuickFS config file.
func LoadQuickFS(path string) (string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return "", fmt.Errorf("read quickfs config: %w", err)
	}
	key := strings.TrimSpace(env[quickFSKeyVar])
	if key == "" {
		return "", fmt.Errorf("%s missing in %s", quickFSKeyVar, path)
	}
	return key, nil
}

// QuickFSKey picks the API key by precedence: flag, config file, environment.
func (c Config) QuickFSKey(flagKey, configPath string) (string, error) {
	if flagKey != "" {
		return flagKey, nil
	}
	if configPath != "" {
		return LoadQuickFS(configPath)
	}
	if c.QuickFSAPIKey != "" {
		return c.QuickFSAPIKey, nil
	}
	return "", fmt.Errorf("no QuickFS API key: use -quickfs-api-key, -config or %s", quickFSKeyVar)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
