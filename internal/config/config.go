// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config

import (
	"errors"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/sigil-dev/bridge/internal/secrets"
	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/types"
)

// DefaultAgentName names the agent when neither the config nor a character
// file does.
const DefaultAgentName = "Bridge"

// Config is the top-level bridge configuration.
type Config struct {
	Agent     AgentConfig     `mapstructure:"agent"`
	Settings  map[string]any  `mapstructure:"settings"`
	Secrets   map[string]any  `mapstructure:"secrets"`
	Plugins   []string        `mapstructure:"plugins"`
	Store     StoreConfig     `mapstructure:"store"`
	Runtime   RuntimeConfig   `mapstructure:"runtime"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Character is the persona assembled from the character file and the
	// agent section. Load fills it in.
	Character *types.Character `mapstructure:"-"`
}

// AgentConfig names the agent and points at its character file.
type AgentConfig struct {
	Name          string `mapstructure:"name"`
	ID            string `mapstructure:"id"`
	CharacterFile string `mapstructure:"character_file"`
}

// StoreConfig selects the data store backend and its limits.
type StoreConfig struct {
	Backend            string `mapstructure:"backend"`
	MemoryCap          int    `mapstructure:"memory_cap"`
	LogCap             int    `mapstructure:"log_cap"`
	EmbeddingDimension int    `mapstructure:"embedding_dimension"`
}

// RuntimeConfig tunes the runtime shim.
type RuntimeConfig struct {
	StateCacheSize     int           `mapstructure:"state_cache_size"`
	ProviderTimeout    time.Duration `mapstructure:"provider_timeout"`
	ConversationLength int           `mapstructure:"conversation_length"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Listen      string          `mapstructure:"listen"`
	CORSOrigins []string        `mapstructure:"cors_origins"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig bounds per-client request rates. A zero rate disables
// limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// TelemetryConfig selects the OpenTelemetry exporter.
type TelemetryConfig struct {
	Exporter string `mapstructure:"exporter"`
}

// Option customizes Load.
type Option func(*loadOptions)

type loadOptions struct {
	secrets secrets.Store
}

// WithSecretStore resolves keyring:// values through s.
func WithSecretStore(s secrets.Store) Option {
	return func(o *loadOptions) { o.secrets = s }
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix BRIDGE_), then assembles the
// character.
func Load(path string, opts ...Option) (*Config, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()

	// Defaults
	v.SetDefault("agent.name", "")
	v.SetDefault("agent.id", "")
	v.SetDefault("agent.character_file", "")
	v.SetDefault("plugins", []string{"bootstrap"})
	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.memory_cap", 10000)
	v.SetDefault("store.log_cap", 5000)
	v.SetDefault("store.embedding_dimension", 384)
	v.SetDefault("runtime.state_cache_size", 1000)
	v.SetDefault("runtime.provider_timeout", "0s")
	v.SetDefault("runtime.conversation_length", 32)
	v.SetDefault("server.listen", "127.0.0.1:18790")
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("server.rate_limit.requests_per_second", 0)
	v.SetDefault("server.rate_limit.burst", 0)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("telemetry.exporter", "none")

	// Environment
	v.SetEnvPrefix("BRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, sigilerr.Errorf(sigilerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	if o.secrets != nil {
		if err := secrets.ResolveViperSecrets(v, o.secrets); err != nil {
			slog.Warn("some keyring references could not be resolved, keeping original values", "error", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, sigilerr.Errorf(sigilerr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}
	cfg.Settings = upperKeys(cfg.Settings)
	cfg.Secrets = upperKeys(cfg.Secrets)

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	character, err := cfg.buildCharacter(o.secrets)
	if err != nil {
		return nil, err
	}
	cfg.Character = character
	cfg.Plugins = lo.Uniq(append(cfg.Plugins, character.Plugins...))

	return &cfg, nil
}

// upperKeys restores the conventional upper-case setting names; viper
// folds every key to lower case.
func upperKeys(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return lo.MapKeys(m, func(_ any, k string) string { return strings.ToUpper(k) })
}

// buildCharacter loads the character file, if any, and overlays the agent
// section and the config's settings and secrets on it.
func (c *Config) buildCharacter(store secrets.Store) (*types.Character, error) {
	character := &types.Character{}
	if c.Agent.CharacterFile != "" {
		loaded, err := LoadCharacter(c.Agent.CharacterFile)
		if err != nil {
			return nil, err
		}
		character = loaded
		if store != nil {
			character.Settings = secrets.ResolveValues(store, character.Settings)
			character.Secrets = secrets.ResolveValues(store, character.Secrets)
		}
	}

	if c.Agent.Name != "" {
		character.Name = c.Agent.Name
	}
	if character.Name == "" {
		character.Name = DefaultAgentName
	}
	if c.Agent.ID != "" {
		character.ID = c.Agent.ID
	}
	character.Settings = overlay(character.Settings, c.Settings)
	character.Secrets = overlay(character.Secrets, c.Secrets)
	return character, nil
}

func overlay(base, top map[string]any) map[string]any {
	if len(top) == 0 {
		return base
	}
	return lo.Assign(base, top)
}

// Validate checks the configuration for logical errors.
// It returns a slice of all validation errors found, collecting all issues
// rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validatePlugins()...)
	errs = append(errs, c.validateStore()...)
	errs = append(errs, c.validateRuntime()...)
	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateLogging()...)
	errs = append(errs, c.validateTelemetry()...)

	return errs
}

func (c *Config) validatePlugins() []error {
	var errs []error

	for i, name := range c.Plugins {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue,
				"config: plugins[%d] must not be empty", i))
		}
	}
	if dups := lo.FindDuplicates(c.Plugins); len(dups) > 0 {
		errs = append(errs, sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue,
			"config: plugins lists %v more than once", dups))
	}

	return errs
}

func (c *Config) validateStore() []error {
	var errs []error

	validBackends := map[string]bool{"memory": true}
	if !validBackends[c.Store.Backend] {
		errs = append(errs, sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue,
			"config: store.backend must be one of [memory], got %q",
			c.Store.Backend,
		))
	}

	for _, f := range []struct {
		key   string
		value int
	}{
		{"store.memory_cap", c.Store.MemoryCap},
		{"store.log_cap", c.Store.LogCap},
		{"store.embedding_dimension", c.Store.EmbeddingDimension},
	} {
		if f.value <= 0 {
			errs = append(errs, sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue,
				"config: %s must be greater than 0, got %d", f.key, f.value))
		}
	}

	return errs
}

func (c *Config) validateRuntime() []error {
	var errs []error

	if c.Runtime.StateCacheSize <= 0 {
		errs = append(errs, sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue,
			"config: runtime.state_cache_size must be greater than 0, got %d",
			c.Runtime.StateCacheSize,
		))
	}
	if c.Runtime.ConversationLength <= 0 {
		errs = append(errs, sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue,
			"config: runtime.conversation_length must be greater than 0, got %d",
			c.Runtime.ConversationLength,
		))
	}
	if c.Runtime.ProviderTimeout < 0 {
		errs = append(errs, sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue,
			"config: runtime.provider_timeout must not be negative, got %s",
			c.Runtime.ProviderTimeout,
		))
	}

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w",
			c.Server.Listen, err,
		))
		return errs
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be a number, got %q",
			portStr,
		))
	} else if port < 1 || port > 65535 {
		errs = append(errs, sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be between 1 and 65535, got %d",
			port,
		))
	}

	rl := c.Server.RateLimit
	if rl.RequestsPerSecond < 0 {
		errs = append(errs, sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue,
			"config: server.rate_limit.requests_per_second must not be negative, got %g", rl.RequestsPerSecond))
	} else if rl.RequestsPerSecond > 0 && rl.Burst <= 0 {
		errs = append(errs, sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue,
			"config: server.rate_limit.burst must be positive when a rate is set, got %d", rl.Burst))
	}

	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Logging.Format] {
		errs = append(errs, sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue,
			"config: logging.format must be one of [text, json], got %q",
			c.Logging.Format,
		))
	}

	return errs
}

func (c *Config) validateTelemetry() []error {
	var errs []error

	validExporters := map[string]bool{"none": true, "stdout": true}
	if !validExporters[c.Telemetry.Exporter] {
		errs = append(errs, sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue,
			"config: telemetry.exporter must be one of [none, stdout], got %q",
			c.Telemetry.Exporter,
		))
	}

	return errs
}
