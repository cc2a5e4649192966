// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package store selects and constructs the data store backing a runtime.
package store

import "github.com/sigil-dev/bridge/pkg/plugin"

// Store is the full data-access surface a backend implements.
type Store = plugin.Database
