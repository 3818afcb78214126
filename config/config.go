// Package config loads rendr's YAML configuration.
//
// Config file locations (priority order):
//  1. $RENDR_CONFIG
//  2. ./rendr.yaml
//  3. $XDG_CONFIG_HOME/rendr/config.yaml or ~/.config/rendr/config.yaml
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nagiek/rendr/breaker"
	"github.com/nagiek/rendr/fetcher"
	"github.com/nagiek/rendr/freshness"
	"github.com/nagiek/rendr/policy"
	"github.com/nagiek/rendr/registry"
	"github.com/nagiek/rendr/retry"
)

const (
	// EnvConfigPath is the environment variable for an explicit config path.
	EnvConfigPath = "RENDR_CONFIG"
	// ConfigFileName is looked up in the working directory.
	ConfigFileName = "rendr.yaml"
	configDirName  = "rendr"
)

// DefaultRemoteTimeout bounds one REST attempt when the file sets none.
const DefaultRemoteTimeout = 10 * time.Second

// ErrNoRemoteURL is returned by Validate when no remote URL is configured.
var ErrNoRemoteURL = errors.New("config: remote.url is required")

// Load finds and loads the config file, or returns defaults if none is found.
// The returned path is empty in that case.
func Load() (*Config, string, error) {
	path := Find()
	if path == "" {
		return Default(), "", nil
	}
	cfg, err := LoadFromPath(path)
	return cfg, path, err
}

// LoadFromPath loads config from a specific path.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a config document, then fills in defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Find returns the first existing config file, or "".
func Find() string {
	if path := os.Getenv(EnvConfigPath); path != "" && fileExists(path) {
		return path
	}
	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home := os.Getenv("HOME"); home != "" {
			dir = filepath.Join(home, ".config")
		}
	}
	if dir != "" {
		if path := filepath.Join(dir, configDirName, "config.yaml"); fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = fetcher.ModeClient.String()
	}
	if c.Freshness.Interval == 0 {
		c.Freshness.Interval = Duration(freshness.DefaultInterval)
	}
	if c.Freshness.Capacity == 0 {
		c.Freshness.Capacity = freshness.DefaultCapacity
	}
	if c.Revalidation.Enabled == nil {
		enabled := true
		c.Revalidation.Enabled = &enabled
	}
	if c.Dedup == nil {
		dedup := true
		c.Dedup = &dedup
	}
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = Duration(DefaultRemoteTimeout)
	}
	if c.Remote.Retry.Attempts == 0 {
		c.Remote.Retry.Attempts = 1
	}
}

func (c *Config) check() error {
	if _, err := fetcher.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for _, p := range c.Policies {
		if p.Name == "" {
			return errors.New("config: policy without a name")
		}
		for _, expr := range p.Regex {
			if _, err := regexp.Compile(expr); err != nil {
				return fmt.Errorf("config: policy %q: %w", p.Name, err)
			}
		}
	}
	return nil
}

// ValidateRemote reports whether the REST remote is usable.
func (c *Config) ValidateRemote() error {
	if c.Remote.URL == "" {
		return ErrNoRemoteURL
	}
	return nil
}

// FetchMode returns the parsed mode.
func (c *Config) FetchMode() fetcher.Mode {
	m, _ := fetcher.ParseMode(c.Mode)
	return m
}

// Registry returns the type registry described by the file.
func (c *Config) Registry() *registry.Static {
	return &registry.Static{
		DefaultID:    c.Types.DefaultID,
		IDAttributes: c.Types.IDAttributes,
		Collections:  c.Types.Collections,
	}
}

// Resolver builds the policy groups in file order. Parse has already checked
// the regular expressions.
func (c *Config) Resolver() *policy.Resolver {
	groups := make([]*policy.GroupBuilder, 0, len(c.Policies))
	for _, p := range c.Policies {
		g := policy.Group(p.Name)
		for _, t := range p.Exact {
			g.Exact(t)
		}
		for _, t := range p.Prefix {
			g.Prefix(t)
		}
		for _, t := range p.Regex {
			g.Regex(t)
		}
		pol := policy.Policy{FreshInterval: p.FreshInterval.Duration()}
		if p.Revalidate != nil {
			pol.Revalidate = &policy.RateLimitRule{Rate: p.Revalidate.Rate, Window: p.Revalidate.Window.Duration()}
		}
		groups = append(groups, g.Policy(pol))
	}
	return policy.NewResolver(groups...)
}

// RetryConfig converts the remote retry settings. The caller picks which
// errors are retryable.
func (c *Config) RetryConfig() retry.Config {
	r := c.Remote.Retry
	return retry.Config{
		MaxAttempts: r.Attempts,
		BaseDelay:   r.BaseDelay.Duration(),
		MaxDelay:    r.MaxDelay.Duration(),
		Jitter:      r.Jitter,
	}
}

// Breaker returns a breaker for the remote, or nil when none is configured.
func (c *Config) Breaker() *breaker.Breaker {
	b := c.Remote.Breaker
	if b == nil {
		return nil
	}
	return breaker.New(breaker.Config{
		FailureThreshold:   b.FailureThreshold,
		OpenTimeout:        b.OpenTimeout.Duration(),
		HalfOpenMaxSuccess: b.HalfOpenSuccess,
	})
}
