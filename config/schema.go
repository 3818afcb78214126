package config

import (
	"time"
)

// Config is the root of a rendr config file.
type Config struct {
	// Mode is "client" or "server".
	Mode         string             `yaml:"mode"`
	Freshness    FreshnessConfig    `yaml:"freshness"`
	Revalidation RevalidationConfig `yaml:"revalidation"`
	Dedup        *bool              `yaml:"dedup,omitempty"`
	Redis        *RedisConfig       `yaml:"redis,omitempty"`
	Remote       RemoteConfig       `yaml:"remote"`
	Types        TypesConfig        `yaml:"types"`
	Policies     []PolicyConfig     `yaml:"policies,omitempty"`
}

// FreshnessConfig sizes the freshness throttle.
type FreshnessConfig struct {
	Interval Duration `yaml:"interval"`
	Capacity int      `yaml:"capacity"`
}

// RevalidationConfig bounds background revalidation.
type RevalidationConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
	// Rate is revalidations per second across all types; 0 is unlimited.
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
}

// RedisConfig enables the Redis tier of the entity cache.
type RedisConfig struct {
	Addr     string   `yaml:"addr"`
	Password string   `yaml:"password,omitempty"`
	DB       int      `yaml:"db"`
	Prefix   string   `yaml:"prefix,omitempty"`
	TTL      Duration `yaml:"ttl"`
}

// RemoteConfig points at the REST backend.
type RemoteConfig struct {
	URL           string         `yaml:"url"`
	ApplicationID string         `yaml:"application_id"`
	RESTKey       string         `yaml:"rest_key,omitempty"`
	Timeout       Duration       `yaml:"timeout"`
	Retry         RetryConfig    `yaml:"retry"`
	Breaker       *BreakerConfig `yaml:"breaker,omitempty"`
}

// RetryConfig configures retries of transient remote failures.
type RetryConfig struct {
	Attempts  int      `yaml:"attempts"`
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
	Jitter    float64  `yaml:"jitter"`
}

// BreakerConfig enables the circuit breaker in front of the remote.
type BreakerConfig struct {
	FailureThreshold int      `yaml:"failure_threshold"`
	OpenTimeout      Duration `yaml:"open_timeout"`
	HalfOpenSuccess  int      `yaml:"half_open_success"`
}

// TypesConfig describes entity and collection types.
type TypesConfig struct {
	DefaultID    string            `yaml:"default_id,omitempty"`
	IDAttributes map[string]string `yaml:"id_attributes,omitempty"`
	// Collections maps collection names to the entity type they hold.
	Collections map[string]string `yaml:"collections,omitempty"`
}

// PolicyConfig is one policy group.
type PolicyConfig struct {
	Name          string           `yaml:"name"`
	Exact         []string         `yaml:"exact,omitempty"`
	Prefix        []string         `yaml:"prefix,omitempty"`
	Regex         []string         `yaml:"regex,omitempty"`
	FreshInterval Duration         `yaml:"fresh_interval"`
	Revalidate    *RateLimitConfig `yaml:"revalidate,omitempty"`
}

// RateLimitConfig allows Rate events per Window.
type RateLimitConfig struct {
	Rate   int      `yaml:"rate"`
	Window Duration `yaml:"window"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
