// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package secrets stores agent secrets in the OS keyring and resolves
// keyring://service/key references found in settings.
package secrets

// DefaultService is the keyring service the CLI stores secrets under.
const DefaultService = "bridge"

// Store provides secure secret storage operations.
type Store interface {
	// Store saves a secret value under the given service and key.
	Store(service, key, value string) error

	// Retrieve fetches the secret value for the given service and key.
	// A missing key is a secret.get.not_found error.
	Retrieve(service, key string) (string, error)

	// Delete removes the secret for the given service and key.
	// A missing key is a secret.get.not_found error.
	Delete(service, key string) error

	// List returns the key names stored under the given service, sorted.
	List(service string) ([]string, error)
}

// URI returns the keyring reference for service and key.
func URI(service, key string) string {
	return keyringScheme + service + "/" + key
}
