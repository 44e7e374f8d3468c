// Package config loads the homeward application configuration from YAML or JSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/homeward/internal/logging"
	"github.com/aretw0/homeward/internal/navigator"
	"github.com/aretw0/homeward/internal/params"
	"github.com/aretw0/homeward/internal/sim"
	"github.com/aretw0/homeward/pkg/domain"
	"github.com/aretw0/homeward/pkg/persistence/middleware"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Duration is a time.Duration written as "100ms" or "5m" in config files.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText writes the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// LogConfig selects the log level and an optional rotating file.
type LogConfig struct {
	Level string              `yaml:"level" json:"level"`
	File  logging.FileOptions `yaml:"file" json:"file"`
}

// ScenarioConfig describes the simulated flight.
type ScenarioConfig struct {
	VehicleID   string                `yaml:"vehicle_id" json:"vehicle_id"`
	Start       domain.GlobalPosition `yaml:"start" json:"start"`
	Landed      bool                  `yaml:"landed" json:"landed"`
	Mode        domain.NavMode        `yaml:"mode" json:"mode"`
	Rate        Duration              `yaml:"rate" json:"rate"`
	MaxDuration Duration              `yaml:"max_duration" json:"max_duration"`
	// Realtime paces the loop on the wall clock instead of a virtual one.
	Realtime bool `yaml:"realtime" json:"realtime"`
}

// RedisConfig addresses the Redis backend.
type RedisConfig struct {
	Addr     string   `yaml:"addr" json:"addr"`
	Password string   `yaml:"password" json:"password"`
	DB       int      `yaml:"db" json:"db"`
	Prefix   string   `yaml:"prefix" json:"prefix"`
	TTL      Duration `yaml:"ttl" json:"ttl"`
	// Lock enables the distributed session lock.
	Lock bool `yaml:"lock" json:"lock"`
}

// EncryptionConfig seals snapshots at rest. Keys are base64 encoded
// AES-256 keys; an empty key disables encryption.
type EncryptionConfig struct {
	Key          string   `yaml:"key" json:"key"`
	FallbackKeys []string `yaml:"fallback_keys" json:"fallback_keys"`
}

// Keys decodes the configured keys.
func (c EncryptionConfig) Keys() (middleware.EncryptionConfig, error) {
	var out middleware.EncryptionConfig
	key, err := middleware.DecodeKey(c.Key)
	if err != nil {
		return out, fmt.Errorf("store.encryption.key: %w", err)
	}
	out.ActiveKey = key
	for i, raw := range c.FallbackKeys {
		k, err := middleware.DecodeKey(raw)
		if err != nil {
			return out, fmt.Errorf("store.encryption.fallback_keys[%d]: %w", i, err)
		}
		out.FallbackKeys = append(out.FallbackKeys, k)
	}
	return out, nil
}

// StoreConfig selects where snapshots are persisted.
type StoreConfig struct {
	Backend    string           `yaml:"backend" json:"backend"`
	Path       string           `yaml:"path" json:"path"`
	CacheSize  int              `yaml:"cache_size" json:"cache_size"`
	Redis      RedisConfig      `yaml:"redis" json:"redis"`
	Encryption EncryptionConfig `yaml:"encryption" json:"encryption"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr    string `yaml:"addr" json:"addr"`
	Metrics bool   `yaml:"metrics" json:"metrics"`
}

// MQTTConfig configures the telemetry publisher. An empty broker disables it.
type MQTTConfig struct {
	Broker   string   `yaml:"broker" json:"broker"`
	Topic    string   `yaml:"topic" json:"topic"`
	ClientID string   `yaml:"client_id" json:"client_id"`
	Username string   `yaml:"username" json:"username"`
	Password string   `yaml:"password" json:"password"`
	QoS      byte     `yaml:"qos" json:"qos"`
	Interval Duration `yaml:"interval" json:"interval"`
}

// AppConfig is the root of the configuration file.
type AppConfig struct {
	Log       LogConfig        `yaml:"log" json:"log"`
	Params    map[string]any   `yaml:"params" json:"params"`
	Navigator navigator.Config `yaml:"navigator" json:"navigator"`
	Vehicle   sim.Config       `yaml:"vehicle" json:"vehicle"`
	Scenario  ScenarioConfig   `yaml:"scenario" json:"scenario"`
	Store     StoreConfig      `yaml:"store" json:"store"`
	Server    ServerConfig     `yaml:"server" json:"server"`
	MQTT      MQTTConfig       `yaml:"mqtt" json:"mqtt"`
}

// Default returns a configuration that simulates a return from 300 m out
// over the PX4 SITL home.
func Default() AppConfig {
	home := domain.HomePosition{Lat: 47.397742, Lon: 8.545594, Alt: 488}
	return AppConfig{
		Log: LogConfig{Level: "info"},
		Navigator: navigator.Config{
			LoiterRadius:     navigator.DefaultLoiterRadius,
			AcceptanceRadius: navigator.DefaultAcceptanceRadius,
			Home:             home,
		},
		Vehicle: sim.DefaultConfig(),
		Scenario: ScenarioConfig{
			VehicleID:   "uav-1",
			Start:       domain.GlobalPosition{Lat: 47.400440, Lon: 8.545594, Alt: 518},
			Mode:        domain.ModeRTL,
			Rate:        Duration(100 * time.Millisecond),
			MaxDuration: Duration(15 * time.Minute),
		},
		Store: StoreConfig{
			Backend:   StoreFile,
			CacheSize: 256,
			Redis:     RedisConfig{Addr: "localhost:6379"},
		},
		Server: ServerConfig{Addr: ":8080", Metrics: true},
		MQTT: MQTTConfig{
			Topic:    "homeward/telemetry",
			ClientID: "homeward",
			Interval: Duration(time.Second),
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ParamValues decodes the params section over the factory defaults.
func (c AppConfig) ParamValues() (params.Values, error) {
	return params.Decode(c.Params, params.Defaults())
}

// Validate checks the configuration for values the host cannot run with.
func (c AppConfig) Validate() error {
	var errs []error

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	if v, err := c.ParamValues(); err != nil {
		errs = append(errs, err)
	} else if _, err := params.NewStoreFrom(v); err != nil {
		errs = append(errs, err)
	}

	switch c.Store.Backend {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}

	if c.Store.Encryption.Key != "" {
		if _, err := c.Store.Encryption.Keys(); err != nil {
			errs = append(errs, err)
		}
	}

	if _, err := domain.ParseMode(string(c.Scenario.Mode)); err != nil {
		errs = append(errs, err)
	}
	if c.Scenario.Rate < 0 {
		errs = append(errs, errors.New("scenario.rate must not be negative"))
	}
	if c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
