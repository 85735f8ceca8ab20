package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"qcirc/backend"
	"qcirc/quantum"
)

// Config holds application configuration
type Config struct {
	Backend   backend.Name
	ClockHz   float64
	MaxQubits int
	Seed      uint64
	Qubits    int // initial width of the inspector
	LogLevel  string
	LogPretty bool
	LogFile   string // log destination; stdout belongs to the inspector
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	seed, err := getEnvAsUint64("QCIRC_SEED", 0)
	if err != nil {
		return nil, fmt.Errorf("QCIRC_SEED must be a non-negative integer: %w", err)
	}

	cfg := &Config{
		Backend:   backend.Name(getEnv("QCIRC_BACKEND", string(backend.CPU))),
		ClockHz:   getEnvAsFloat("QCIRC_CLOCK_HZ", 1),
		MaxQubits: getEnvAsInt("QCIRC_MAX_QUBITS", 12),
		Seed:      seed,
		Qubits:    getEnvAsInt("QCIRC_QUBITS", 3),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
		LogFile:   getEnv("LOG_FILE", "qdeck.log"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	if _, err := backend.Get(c.Backend); err != nil {
		return fmt.Errorf("QCIRC_BACKEND: %w", err)
	}
	if c.ClockHz <= 0 {
		return fmt.Errorf("QCIRC_CLOCK_HZ must be positive, got %g", c.ClockHz)
	}
	if c.MaxQubits < 1 || c.MaxQubits > quantum.MaxQubits {
		return fmt.Errorf("QCIRC_MAX_QUBITS must be in 1..%d, got %d", quantum.MaxQubits, c.MaxQubits)
	}
	if c.Qubits < 1 || c.Qubits > c.MaxQubits {
		return fmt.Errorf("QCIRC_QUBITS must be in 1..%d, got %d", c.MaxQubits, c.Qubits)
	}
	return nil
}

// Helper functions
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

// getEnvAsUint64 reports malformed values rather than falling back.
func getEnvAsUint64(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.ParseUint(value, 10, 64)
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
