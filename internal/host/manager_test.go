// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package host_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sigil-dev/bridge/internal/host"
	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/plugin"
	"github.com/sigil-dev/bridge/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	host.RegisterPlugin("mgr-base", func() *plugin.Plugin {
		return &plugin.Plugin{
			Name: "mgr-base",
			Providers: []plugin.Provider{&plugin.ProviderFunc{
				ProviderName: "BASE",
				GetFn: func(context.Context, plugin.Runtime, *types.Memory, *types.State) (*types.ProviderResult, error) {
					return &types.ProviderResult{Text: "base"}, nil
				},
			}},
		}
	})
	host.RegisterPlugin("mgr-app", func() *plugin.Plugin {
		return &plugin.Plugin{
			Name:         "mgr-app",
			Dependencies: []string{"mgr-base"},
			Actions:      []plugin.Action{&plugin.ActionFunc{ActionName: "APP_ACTION"}},
			Evaluators: []plugin.Evaluator{&plugin.EvaluatorFunc{
				ActionFunc: plugin.ActionFunc{ActionName: "APP_EVAL"},
			}},
		}
	})
	host.RegisterPlugin("mgr-cycle-a", func() *plugin.Plugin {
		return &plugin.Plugin{Name: "mgr-cycle-a", Dependencies: []string{"mgr-cycle-b"}}
	})
	host.RegisterPlugin("mgr-cycle-b", func() *plugin.Plugin {
		return &plugin.Plugin{Name: "mgr-cycle-b", Dependencies: []string{"mgr-cycle-a"}}
	})
	host.RegisterPlugin("mgr-orphan", func() *plugin.Plugin {
		return &plugin.Plugin{Name: "mgr-orphan", Dependencies: []string{"mgr-nowhere"}}
	})
	host.RegisterPlugin("mgr-broken", func() *plugin.Plugin {
		return &plugin.Plugin{
			Name: "mgr-broken",
			Init: func(context.Context, map[string]string, plugin.Runtime) error {
				return errors.New("no credentials")
			},
		}
	})
}

func names(insts []*host.Instance) []string {
	out := make([]string, 0, len(insts))
	for _, inst := range insts {
		out = append(out, inst.Name())
	}
	return out
}

func TestRegistry_LookupAndNames(t *testing.T) {
	p, err := host.LookupPlugin("mgr-base")
	require.NoError(t, err)
	assert.Equal(t, "mgr-base", p.Name)

	again, err := host.LookupPlugin("mgr-base")
	require.NoError(t, err)
	assert.NotSame(t, p, again, "factories build a fresh plugin per lookup")

	_, err = host.LookupPlugin("mgr-unknown")
	assert.True(t, sigilerr.IsNotFound(err))

	all := host.PluginNames()
	assert.Contains(t, all, "mgr-app")
	assert.IsIncreasing(t, all)
}

func TestManager_LoadResolvesDependenciesFirst(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t)

	m, err := host.LoadPlugins(ctx, rt, []string{"mgr-app"})
	require.NoError(t, err)
	assert.Equal(t, []string{"mgr-base", "mgr-app"}, names(m.List()))

	for _, inst := range m.List() {
		assert.Equal(t, host.StateRunning, inst.State())
	}
	assert.Len(t, rt.Plugins(), 2)

	tools := m.Tools()
	require.Len(t, tools, 1)
	assert.Equal(t, "APP_ACTION", tools[0].Name)

	tool, err := m.Tool("APP_ACTION")
	require.NoError(t, err)
	out, err := tool.Execute(ctx, host.ToolInput{Text: "go"})
	require.NoError(t, err)
	assert.True(t, out.Success)

	_, err = m.Tool("MISSING")
	assert.True(t, sigilerr.HasCode(err, sigilerr.CodeHostToolNotFound))

	before := m.Hooks(host.BeforeTurn)
	require.Len(t, before, 1)
	assert.Equal(t, "BASE", before[0].Name)
	after := m.Hooks(host.AfterTurn)
	require.Len(t, after, 1)
	assert.Equal(t, "APP_EVAL", after[0].Name)

	// Loading again is a no-op for plugins already present.
	require.NoError(t, m.Load(ctx, "mgr-base", "mgr-app"))
	assert.Len(t, m.List(), 2)
}

func TestManager_LoadErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("cycle", func(t *testing.T) {
		_, err := host.LoadPlugins(ctx, newRuntime(t), []string{"mgr-cycle-a"})
		require.Error(t, err)
		assert.True(t, sigilerr.HasCode(err, sigilerr.CodePluginDependencyLoop))
		assert.Contains(t, err.Error(), "mgr-cycle-a mgr-cycle-b mgr-cycle-a")
	})

	t.Run("missing dependency", func(t *testing.T) {
		_, err := host.LoadPlugins(ctx, newRuntime(t), []string{"mgr-orphan"})
		require.Error(t, err)
		assert.True(t, sigilerr.IsNotFound(err))
		assert.Equal(t, "mgr-orphan", sigilerr.FieldsOf(err)["required_by"])
	})

	t.Run("unknown plugin", func(t *testing.T) {
		m, err := host.LoadPlugins(ctx, newRuntime(t), []string{"mgr-nowhere"})
		assert.True(t, sigilerr.IsNotFound(err))
		assert.Empty(t, m.List())
	})

	t.Run("init failure", func(t *testing.T) {
		m, err := host.LoadPlugins(ctx, newRuntime(t), []string{"mgr-broken"})
		require.Error(t, err)
		assert.True(t, sigilerr.HasCode(err, sigilerr.CodeRuntimePluginInitFailure))

		inst, getErr := m.Get("mgr-broken")
		require.NoError(t, getErr)
		assert.Equal(t, host.StateError, inst.State())
		assert.Error(t, inst.Err())
		assert.Empty(t, m.Tools())
	})
}

func TestManager_AddDuplicate(t *testing.T) {
	ctx := context.Background()
	m := host.NewManager(newRuntime(t))

	require.NoError(t, m.Add(ctx, &plugin.Plugin{Name: "dup"}))
	err := m.Add(ctx, &plugin.Plugin{Name: "dup"})
	assert.True(t, sigilerr.IsConflict(err))

	_, err = m.Get("absent")
	assert.True(t, sigilerr.IsNotFound(err))
}

func TestManager_Stop(t *testing.T) {
	ctx := context.Background()
	m, err := host.LoadPlugins(ctx, newRuntime(t), []string{"mgr-app"})
	require.NoError(t, err)

	require.NoError(t, m.Stop(ctx))
	for _, inst := range m.List() {
		assert.Equal(t, host.StateStopped, inst.State())
	}
	assert.Empty(t, m.Tools())
	assert.Empty(t, m.Routes())
}

func TestBridge_ConvertsCapabilities(t *testing.T) {
	rt := newRuntime(t)
	p := &plugin.Plugin{
		Name:      "bridge-all",
		Actions:   []plugin.Action{&plugin.ActionFunc{ActionName: "A"}},
		Providers: []plugin.Provider{&plugin.ProviderFunc{ProviderName: "P"}},
		Evaluators: []plugin.Evaluator{&plugin.EvaluatorFunc{
			ActionFunc: plugin.ActionFunc{ActionName: "E"},
			EvalPhase:  plugin.PhasePre,
		}},
	}

	reg, err := host.Bridge(context.Background(), rt, p)
	require.NoError(t, err)
	assert.Equal(t, "bridge-all", reg.Plugin)
	require.Len(t, reg.Tools, 1)
	require.Len(t, reg.Hooks, 2)
	assert.Equal(t, "P", reg.Hooks[0].Name)
	assert.Equal(t, "E", reg.Hooks[1].Name)
	assert.Equal(t, host.BeforeTurn, reg.Hooks[1].Phase)

	_, err = host.Bridge(context.Background(), rt, &plugin.Plugin{Name: "Bad Name"})
	assert.True(t, sigilerr.HasCode(err, sigilerr.CodeRuntimePluginInvalid))
}
