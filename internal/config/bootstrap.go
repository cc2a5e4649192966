// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config

import (
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
)

//go:embed bridge.yaml.default
var DefaultConfigYAML []byte

// DefaultConfigPath returns ~/.config/bridge/bridge.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", sigilerr.Errorf(sigilerr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "bridge", "bridge.yaml"), nil
}

// WriteDefaultConfig writes the commented default config to path unless a
// file is already there. It reports whether it wrote the file.
func WriteDefaultConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return false, sigilerr.Errorf(sigilerr.CodeConfigLoadReadFailure, "creating config directory: %w", err)
	}
	if err := os.WriteFile(path, DefaultConfigYAML, 0o600); err != nil {
		return false, sigilerr.Errorf(sigilerr.CodeConfigLoadReadFailure, "writing config %s: %w", path, err)
	}
	slog.Info("created default config", "path", path)
	return true, nil
}

// ResolvePath returns explicit when set, otherwise the default config path
// if a file exists there. An empty result means defaults only.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	path, err := DefaultConfigPath()
	if err != nil {
		slog.Debug("no default config path", "error", err)
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
