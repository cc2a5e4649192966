// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
)

// ParseLevel maps a logging.level value to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, sigilerr.Errorf(sigilerr.CodeConfigValidateInvalidValue,
			"config: logging.level must be one of [debug, info, warn, error], got %q", level)
	}
}

// SetupLogger installs the default logger: text or JSON on stderr, fanned
// out to a JSON log file when file is set. The returned function closes the
// file.
func SetupLogger(cfg LoggingConfig) (func() error, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	if cfg.File == "" {
		slog.SetDefault(slog.New(consoleHandler(os.Stderr, cfg.Format, level)))
		return func() error { return nil }, nil
	}

	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, sigilerr.Errorf(sigilerr.CodeConfigLoadReadFailure, "opening log file %s: %w", cfg.File, err)
	}
	slog.SetDefault(NewLogger(os.Stderr, file, cfg.Format, level))
	return file.Close, nil
}

// NewLogger fans records out to console in the given format and to file
// as JSON. A nil file logs to console only.
func NewLogger(console, file io.Writer, format string, level slog.Level) *slog.Logger {
	handler := consoleHandler(console, format, level)
	if file == nil {
		return slog.New(handler)
	}
	return slog.New(slogmulti.Fanout(
		handler,
		slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}),
	))
}

func consoleHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
