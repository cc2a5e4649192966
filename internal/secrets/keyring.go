// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package secrets

import (
	"encoding/json"
	"errors"
	"slices"

	"github.com/zalando/go-keyring"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
)

// indexKey is the key under which each service keeps a JSON list of its
// key names; go-keyring cannot enumerate entries.
const indexKey = "::keys-index"

// KeyringStore implements Store on the OS keyring (Keychain, Secret
// Service or Credential Manager).
type KeyringStore struct{}

var _ Store = (*KeyringStore)(nil)

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Store(service, key, value string) error {
	if err := checkRef("store", service, key); err != nil {
		return err
	}
	if err := keyring.Set(service, key, value); err != nil {
		return sigilerr.Wrapf(err, sigilerr.CodeSecretStoreFailure, "storing secret %s/%s", service, key)
	}
	return s.updateIndex(service, func(keys []string) []string {
		if slices.Contains(keys, key) {
			return keys
		}
		return append(keys, key)
	})
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	if err := checkRef("retrieve", service, key); err != nil {
		return "", err
	}
	val, err := keyring.Get(service, key)
	if err != nil {
		return "", keyringError(err, sigilerr.CodeSecretStoreFailure, "retrieving", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if err := checkRef("delete", service, key); err != nil {
		return err
	}
	if err := keyring.Delete(service, key); err != nil {
		return keyringError(err, sigilerr.CodeSecretDeleteFailure, "deleting", service, key)
	}
	return s.updateIndex(service, func(keys []string) []string {
		return slices.DeleteFunc(keys, func(k string) bool { return k == key })
	})
}

func (s *KeyringStore) List(service string) ([]string, error) {
	if service == "" {
		return nil, sigilerr.New(sigilerr.CodeSecretInvalidInput, "secret list: service must not be empty")
	}
	keys, err := s.index(service)
	if err != nil {
		return nil, err
	}
	slices.Sort(keys)
	return keys, nil
}

func checkRef(op, service, key string) error {
	if service == "" {
		return sigilerr.Errorf(sigilerr.CodeSecretInvalidInput, "secret %s: service must not be empty", op)
	}
	if key == "" {
		return sigilerr.Errorf(sigilerr.CodeSecretInvalidInput, "secret %s: key must not be empty", op)
	}
	if key == indexKey {
		return sigilerr.Errorf(sigilerr.CodeSecretInvalidInput, "secret %s: key %q is reserved", op, key)
	}
	return nil
}

func keyringError(err error, code sigilerr.Code, verb, service, key string) error {
	if errors.Is(err, keyring.ErrNotFound) {
		return sigilerr.Errorf(sigilerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
	}
	return sigilerr.Wrapf(err, code, "%s secret %s/%s", verb, service, key)
}

func (s *KeyringStore) index(service string) ([]string, error) {
	raw, err := keyring.Get(service, indexKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, sigilerr.Wrapf(err, sigilerr.CodeSecretListFailure, "loading key index for service %s", service)
	}

	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, sigilerr.Wrapf(err, sigilerr.CodeSecretListFailure, "decoding key index for service %s", service)
	}
	return keys, nil
}

// updateIndex rewrites the service's key index through edit. An empty
// index is removed.
func (s *KeyringStore) updateIndex(service string, edit func([]string) []string) error {
	keys, err := s.index(service)
	if err != nil {
		return err
	}
	keys = edit(keys)

	if len(keys) == 0 {
		if err := keyring.Delete(service, indexKey); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return sigilerr.Wrapf(err, sigilerr.CodeSecretListFailure, "removing key index for service %s", service)
		}
		return nil
	}

	data, err := json.Marshal(keys)
	if err != nil {
		return sigilerr.Wrapf(err, sigilerr.CodeSecretListFailure, "encoding key index for service %s", service)
	}
	if err := keyring.Set(service, indexKey, string(data)); err != nil {
		return sigilerr.Wrapf(err, sigilerr.CodeSecretListFailure, "saving key index for service %s", service)
	}
	return nil
}
