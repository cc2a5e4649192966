// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package host_test

import (
	"context"
	"testing"

	"github.com/sigil-dev/bridge/internal/runtime"
	"github.com/sigil-dev/bridge/internal/store"
	"github.com/sigil-dev/bridge/internal/store/memory"
	"github.com/sigil-dev/bridge/pkg/types"
	"github.com/stretchr/testify/require"
)

func newRuntime(t *testing.T) *runtime.Shim {
	t.Helper()
	rt, err := runtime.New(runtime.Options{
		Store:     memory.New(store.Config{}),
		Character: &types.Character{Name: "Host Test"},
		LookupEnv: func(string) (string, bool) { return "", false },
	})
	require.NoError(t, err)
	require.NoError(t, rt.Initialize(context.Background()))
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}
