// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

const (
	// DefaultBackend is the backend used when Config.Backend is empty.
	DefaultBackend = "memory"
	// DefaultMemoryCap bounds each memory table.
	DefaultMemoryCap = 10000
	// DefaultLogCap bounds the log across all types.
	DefaultLogCap = 5000
	// DefaultEmbeddingDimension matches common small sentence-embedding models.
	DefaultEmbeddingDimension = 384
)

// Config controls which backend the store factory uses and its limits.
// Zero values select the defaults above.
type Config struct {
	Backend            string
	MemoryCap          int
	LogCap             int
	EmbeddingDimension int
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	if c.MemoryCap <= 0 {
		c.MemoryCap = DefaultMemoryCap
	}
	if c.LogCap <= 0 {
		c.LogCap = DefaultLogCap
	}
	if c.EmbeddingDimension <= 0 {
		c.EmbeddingDimension = DefaultEmbeddingDimension
	}
	return c
}
