package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment overrides.
const (
	EnvAPIURL     = "INTEL_API_URL"
	EnvUseMockAPI = "INTEL_USE_MOCK_API"
)

// DefaultDotEnv is the dotenv file loaded at startup.
const DefaultDotEnv = ".env"

// LoadDotEnv loads variables from a dotenv file into the process
// environment. Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides config values from the environment.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv(EnvUseMockAPI); v != "" {
		mock, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s=%q: expected true or false", EnvUseMockAPI, v)
		}
		c.API.Mock = mock
	}
	return nil
}
