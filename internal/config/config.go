// Package config loads nutriplan settings from a YAML file, a .env file and
// the process environment, in that order of increasing precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/nutriplan/internal/domain"
	"github.com/hammamikhairi/nutriplan/internal/planapi"
)

// Env var names read by Load.
const (
	EnvAPIBaseURL       = "NUTRIPLAN_API_BASE_URL"
	EnvLegacyAPIBaseURL = "VITE_API_BASE_URL"
	EnvPort             = "PORT"
	EnvDB               = "NUTRIPLAN_DB"
	EnvLogLevel         = "NUTRIPLAN_LOG_LEVEL"
	EnvTimeout          = "NUTRIPLAN_TIMEOUT"
)

// Config is the top-level configuration.
type Config struct {
	PlanService PlanServiceConfig `yaml:"plan_service"`
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	LogLevel    string            `yaml:"log_level"` // off | normal | verbose
	LogFile     string            `yaml:"log_file"`
}

// PlanServiceConfig points at the external plan generator.
type PlanServiceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	// Disabled skips the service entirely; every plan uses the fallback.
	Disabled bool `yaml:"disabled"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects the plan store. An empty DBPath keeps everything
// in memory.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.defaults()
	return c
}

func (c *Config) defaults() {
	if c.PlanService.BaseURL == "" {
		c.PlanService.BaseURL = planapi.DefaultBaseURL
	}
	if c.PlanService.Timeout <= 0 {
		c.PlanService.Timeout = 5 * time.Minute
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "normal"
	}
}

// Load reads path (optional), then .env, then the environment. A missing
// .env is not an error; a missing config file named explicitly is.
func Load(path string) (*Config, error) {
	c := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	c.defaults()
	return c, nil
}

// applyEnv overlays environment values. The legacy front-end variable is
// honoured only when the new one is unset.
func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvAPIBaseURL); v != "" {
		c.PlanService.BaseURL = v
	} else if v := getenv(EnvLegacyAPIBaseURL); v != "" {
		c.PlanService.BaseURL = v
	}
	if v := getenv(EnvPort); v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("config: %s=%q is not a port", EnvPort, v)
		}
		c.Server.Addr = ":" + v
	}
	if v := getenv(EnvDB); v != "" {
		c.Storage.DBPath = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvTimeout, err)
		}
		c.PlanService.Timeout = d
	}
	return nil
}

// LoadProfile reads a user profile from a YAML or JSON file. JSON is chosen
// by the .json extension and uses the intake form's field names.
func LoadProfile(path string) (*domain.UserProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read profile %s: %w", path, err)
	}

	var p domain.UserProfile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &p)
	} else {
		err = yaml.Unmarshal(data, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse profile %s: %w", path, err)
	}
	p.Sex = domain.ParseSex(string(p.Sex))
	return &p, nil
}
