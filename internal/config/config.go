// Package config loads server settings from a YAML file, an optional .env
// file and OPREMA_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "OPREMA_"

// Config is the server configuration.
type Config struct {
	Listen   string `yaml:"listen"`
	Database string `yaml:"database"`
	LogFile  string `yaml:"log_file"`
	PageSize int    `yaml:"page_size"`

	Auth     AuthConfig     `yaml:"auth"`
	Sync     SyncConfig     `yaml:"sync"`
	Handover HandoverConfig `yaml:"handover"`
}

// AuthConfig restricts who may sign in.
type AuthConfig struct {
	AllowedDomain string `yaml:"allowed_domain"`
	AdminEmail    string `yaml:"admin_email"`
	TokenTTL      string `yaml:"token_ttl"`
}

// SyncConfig tunes sheet fetching and batched writes.
type SyncConfig struct {
	BatchSize    int    `yaml:"batch_size"`
	FetchTimeout string `yaml:"fetch_timeout"`
	PushTimeout  string `yaml:"push_timeout"`
}

// HandoverConfig fills the printable handover document.
type HandoverConfig struct {
	Company string `yaml:"company"`
	Witness string `yaml:"witness"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Listen:   ":8080",
		Database: "oprema.db",
		PageSize: 20,
		Auth: AuthConfig{
			TokenTTL: "168h",
		},
		Sync: SyncConfig{
			BatchSize:    450,
			FetchTimeout: "30s",
			PushTimeout:  "60s",
		},
	}
}

// Load builds the configuration. A missing YAML file or .env file is not an
// error; both paths may be empty.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	if envFile != "" {
		// Variables already present in the environment win over the file.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LISTEN":             &c.Listen,
		"DATABASE":           &c.Database,
		"LOG_FILE":           &c.LogFile,
		"ALLOWED_DOMAIN":     &c.Auth.AllowedDomain,
		"ADMIN_EMAIL":        &c.Auth.AdminEmail,
		"TOKEN_TTL":          &c.Auth.TokenTTL,
		"SYNC_FETCH_TIMEOUT": &c.Sync.FetchTimeout,
		"SYNC_PUSH_TIMEOUT":  &c.Sync.PushTimeout,
		"HANDOVER_COMPANY":   &c.Handover.Company,
		"HANDOVER_WITNESS":   &c.Handover.Witness,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	ints := map[string]*int{
		"PAGE_SIZE":       &c.PageSize,
		"SYNC_BATCH_SIZE": &c.Sync.BatchSize,
	}
	for key, dst := range ints {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("parsing %s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
	}
	return nil
}

// Validate checks the values that cannot be defaulted silently.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is empty")
	}
	if c.Database == "" {
		return fmt.Errorf("database path is empty")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.Sync.BatchSize < 2 {
		return fmt.Errorf("sync.batch_size must be at least 2, got %d", c.Sync.BatchSize)
	}
	for name, v := range map[string]string{
		"auth.token_ttl":     c.Auth.TokenTTL,
		"sync.fetch_timeout": c.Sync.FetchTimeout,
		"sync.push_timeout":  c.Sync.PushTimeout,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// TokenTTL returns the token lifetime.
func (c *Config) TokenTTL() time.Duration { return duration(c.Auth.TokenTTL) }

// FetchTimeout returns the timeout for one sheet download.
func (c *Config) FetchTimeout() time.Duration { return duration(c.Sync.FetchTimeout) }

// PushTimeout returns the timeout for the outbound sheet push.
func (c *Config) PushTimeout() time.Duration { return duration(c.Sync.PushTimeout) }

// duration parses a value that already passed Validate.
func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
