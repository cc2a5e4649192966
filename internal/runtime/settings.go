// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package runtime

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"
)

// redactionMarker replaces secret values in redacted text.
const redactionMarker = "[REDACTED]"

// minRedactLength is the shortest value RedactSecrets will replace. Shorter
// values collide with too much ordinary text.
const minRedactLength = 5

// GetSetting resolves key from the settings map, then the secrets map,
// then the process environment. A key present with a false or empty value
// is returned as is. Keys cleared with SetSetting(key, nil) resolve to nil.
func (s *Shim) GetSetting(key string) any {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()

	if v, ok := s.settings[key]; ok {
		return v
	}
	if v, ok := s.secrets[key]; ok {
		return v
	}
	if _, ok := s.masked[key]; ok {
		return nil
	}
	if v, ok := s.lookupEnv(key); ok {
		return v
	}
	return nil
}

// SetSetting stores value under key, in the secrets map when secret is
// set, and removes key from the other map so the last write wins. A nil
// value deletes key from both maps.
func (s *Shim) SetSetting(key string, value any, secret bool) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	if value == nil {
		delete(s.settings, key)
		delete(s.secrets, key)
		s.masked[key] = struct{}{}
		return
	}
	delete(s.masked, key)
	if secret {
		delete(s.settings, key)
		s.secrets[key] = value
		return
	}
	delete(s.secrets, key)
	s.settings[key] = value
}

// RedactSecrets replaces every string setting or secret longer than four
// characters with a marker. Non-string values are left alone.
func (s *Shim) RedactSecrets(text string) string {
	if text == "" {
		return text
	}
	for _, v := range s.redactable() {
		text = strings.ReplaceAll(text, v, redactionMarker)
	}
	return text
}

// redactable returns the values to redact, longest first so a value
// containing another is replaced whole.
func (s *Shim) redactable() []string {
	s.settingsMu.RLock()
	var values []string
	for _, m := range []map[string]any{s.settings, s.secrets} {
		for _, v := range m {
			if str, ok := v.(string); ok && utf8.RuneCountInString(str) >= minRedactLength {
				values = append(values, str)
			}
		}
	}
	s.settingsMu.RUnlock()

	slices.SortFunc(values, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return slices.Compact(values)
}
