// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config

import (
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/types"
)

// LoadCharacter reads a YAML character file. Unknown fields are rejected.
func LoadCharacter(path string) (*types.Character, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sigilerr.Errorf(sigilerr.CodeConfigLoadReadFailure, "opening character file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	character, err := ParseCharacter(f)
	if err != nil {
		return nil, sigilerr.With(err, sigilerr.Field("path", path))
	}
	return character, nil
}

// ParseCharacter decodes one YAML character document.
func ParseCharacter(r io.Reader) (*types.Character, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var character types.Character
	if err := dec.Decode(&character); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, sigilerr.New(sigilerr.CodeConfigParseInvalidFormat, "character file is empty")
		}
		return nil, sigilerr.Errorf(sigilerr.CodeConfigParseInvalidFormat, "parsing character: %w", err)
	}
	return &character, nil
}
