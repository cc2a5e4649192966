// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/sigil-dev/bridge/internal/config"
	"github.com/sigil-dev/bridge/internal/secrets"
	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"bootstrap"}, cfg.Plugins)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 10000, cfg.Store.MemoryCap)
	assert.Equal(t, 5000, cfg.Store.LogCap)
	assert.Equal(t, 384, cfg.Store.EmbeddingDimension)
	assert.Equal(t, 1000, cfg.Runtime.StateCacheSize)
	assert.Equal(t, 32, cfg.Runtime.ConversationLength)
	assert.Zero(t, cfg.Runtime.ProviderTimeout)
	assert.Equal(t, "127.0.0.1:18790", cfg.Server.Listen)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "none", cfg.Telemetry.Exporter)

	require.NotNil(t, cfg.Character)
	assert.Equal(t, config.DefaultAgentName, cfg.Character.Name)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeFile(t, "bridge.yaml", `
agent:
  name: Ada
  id: 6a1c5f6e-0000-4000-8000-000000000001
settings:
  model_hint: small
  Max_Turns: 4
secrets:
  api_key: sk-file-value
runtime:
  provider_timeout: 250ms
server:
  listen: "0.0.0.0:9999"
  cors_origins: ["https://example.com"]
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9999", cfg.Server.Listen)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 250*time.Millisecond, cfg.Runtime.ProviderTimeout)

	// Setting names come back upper-cased.
	assert.Equal(t, "small", cfg.Settings["MODEL_HINT"])
	assert.Equal(t, 4, cfg.Settings["MAX_TURNS"])
	assert.Equal(t, "sk-file-value", cfg.Secrets["API_KEY"])

	assert.Equal(t, "Ada", cfg.Character.Name)
	assert.Equal(t, "6a1c5f6e-0000-4000-8000-000000000001", cfg.Character.ID)
	assert.Equal(t, "small", cfg.Character.Settings["MODEL_HINT"])
	assert.Equal(t, "sk-file-value", cfg.Character.Secrets["API_KEY"])
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BRIDGE_SERVER_LISTEN", "10.0.0.1:8080")
	t.Setenv("BRIDGE_AGENT_NAME", "Env Agent")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:8080", cfg.Server.Listen)
	assert.Equal(t, "Env Agent", cfg.Character.Name)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, sigilerr.HasCode(err, sigilerr.CodeConfigLoadReadFailure))
}

func TestLoad_ValidationCalledAtLoadTime(t *testing.T) {
	path := writeFile(t, "bridge.yaml", `
store:
  backend: postgres
`)

	_, err := config.Load(path)
	require.Error(t, err)
	assert.True(t, sigilerr.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "store.backend")
}

func TestLoad_CharacterFileMerged(t *testing.T) {
	character := writeFile(t, "character.yaml", `
name: Eliza
bio:
  - A helpful assistant.
plugins:
  - bootstrap
  - weather
settings:
  TONE: warm
  MODEL_HINT: large
`)
	path := writeFile(t, "bridge.yaml", "agent:\n  character_file: "+character+"\nsettings:\n  model_hint: small\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Eliza", cfg.Character.Name)
	assert.Equal(t, []string{"A helpful assistant."}, cfg.Character.Bio)
	assert.Equal(t, "warm", cfg.Character.Settings["TONE"])
	assert.Equal(t, "small", cfg.Character.Settings["MODEL_HINT"], "config overrides the character file")
	assert.Equal(t, []string{"bootstrap", "weather"}, cfg.Plugins)
}

func TestLoad_ResolvesKeyringValues(t *testing.T) {
	keyring.MockInit()
	store := secrets.NewKeyringStore()
	require.NoError(t, store.Store("bridge", "openai", "sk-from-keyring"))
	require.NoError(t, store.Store("bridge", "persona", "sk-character-secret"))

	character := writeFile(t, "character.yaml", "name: Ada\nsecrets:\n  PERSONA_KEY: keyring://bridge/persona\n")
	path := writeFile(t, "bridge.yaml", `
agent:
  character_file: `+character+`
secrets:
  openai_api_key: keyring://bridge/openai
  missing: keyring://bridge/absent
`)

	cfg, err := config.Load(path, config.WithSecretStore(store))
	require.NoError(t, err)
	assert.Equal(t, "sk-from-keyring", cfg.Secrets["OPENAI_API_KEY"])
	assert.Equal(t, "keyring://bridge/absent", cfg.Secrets["MISSING"], "unresolvable references are kept")
	assert.Equal(t, "sk-character-secret", cfg.Character.Secrets["PERSONA_KEY"])
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &config.Config{
		Plugins:   []string{"bootstrap", "", "bootstrap"},
		Store:     config.StoreConfig{Backend: "memory"},
		Runtime:   config.RuntimeConfig{ProviderTimeout: -time.Second},
		Server:    config.ServerConfig{Listen: "localhost:99999"},
		Logging:   config.LoggingConfig{Level: "loud", Format: "xml"},
		Telemetry: config.TelemetryConfig{Exporter: "jaeger"},
	}

	errs := cfg.Validate()
	var messages []string
	for _, err := range errs {
		assert.True(t, sigilerr.IsInvalidInput(err))
		messages = append(messages, err.Error())
	}

	for _, want := range []string{
		"plugins[1] must not be empty",
		"plugins lists [bootstrap] more than once",
		"store.memory_cap",
		"store.log_cap",
		"store.embedding_dimension",
		"runtime.state_cache_size",
		"runtime.conversation_length",
		"runtime.provider_timeout",
		"server.listen port must be between 1 and 65535",
		"logging.level",
		"logging.format",
		"telemetry.exporter",
	} {
		assert.True(t, containsAny(messages, want), "missing error mentioning %q in %v", want, messages)
	}
}

func TestValidate_ListenAddress(t *testing.T) {
	tests := []struct {
		listen string
		want   string
	}{
		{"", "server.listen must not be empty"},
		{"no-port", "server.listen must be a valid host:port"},
		{"localhost:http", "server.listen port must be a number"},
		{":8080", ""},
	}

	for _, tt := range tests {
		t.Run(tt.listen, func(t *testing.T) {
			cfg, err := config.Load("")
			require.NoError(t, err)
			cfg.Server.Listen = tt.listen

			errs := cfg.Validate()
			if tt.want == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0].Error(), tt.want)
		})
	}
}

func containsAny(messages []string, want string) bool {
	for _, m := range messages {
		if strings.Contains(m, want) {
			return true
		}
	}
	return false
}

func TestValidate_RateLimit(t *testing.T) {
	tests := []struct {
		name string
		rl   config.RateLimitConfig
		want string
	}{
		{"disabled", config.RateLimitConfig{}, ""},
		{"rate with burst", config.RateLimitConfig{RequestsPerSecond: 2, Burst: 4}, ""},
		{"negative rate", config.RateLimitConfig{RequestsPerSecond: -1}, "requests_per_second must not be negative"},
		{"rate without burst", config.RateLimitConfig{RequestsPerSecond: 2}, "burst must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load("")
			require.NoError(t, err)
			cfg.Server.RateLimit = tt.rl

			errs := cfg.Validate()
			if tt.want == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0].Error(), tt.want)
		})
	}
}
