// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package host

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/lo"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/plugin"
)

// Manager loads plugins into one runtime and keeps what each contributed.
type Manager struct {
	mu      sync.RWMutex
	rt      plugin.Runtime
	order   []string
	plugins map[string]*Instance
}

func NewManager(rt plugin.Runtime) *Manager {
	return &Manager{
		rt:      rt,
		plugins: make(map[string]*Instance),
	}
}

// LoadPlugins creates a manager for rt and loads names into it.
func LoadPlugins(ctx context.Context, rt plugin.Runtime, names []string) (*Manager, error) {
	m := NewManager(rt)
	if err := m.Load(ctx, names...); err != nil {
		return m, err
	}
	return m, nil
}

// Load resolves names from the plugin registry and registers them,
// dependencies first. Plugins already loaded are skipped. Loading stops at
// the first failure; plugins loaded before it stay loaded.
func (m *Manager) Load(ctx context.Context, names ...string) error {
	ordered, err := m.resolve(names)
	if err != nil {
		return err
	}
	for _, p := range ordered {
		if err := m.Add(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// resolve returns the plugins to load in dependency order.
func (m *Manager) resolve(names []string) ([]*plugin.Plugin, error) {
	var (
		ordered  []*plugin.Plugin
		visiting = map[string]bool{}
		done     = map[string]bool{}
		visit    func(name string, path []string) error
	)
	visit = func(name string, path []string) error {
		if done[name] || m.loaded(name) {
			return nil
		}
		if visiting[name] {
			return sigilerr.Errorf(sigilerr.CodePluginDependencyLoop,
				"plugin dependency cycle: %v", slices.Concat(path, []string{name}))
		}
		visiting[name] = true

		p, err := LookupPlugin(name)
		if err != nil {
			if len(path) > 0 {
				return sigilerr.With(err, sigilerr.Field("required_by", path[len(path)-1]))
			}
			return err
		}
		for _, dep := range p.Dependencies {
			if err := visit(dep, slices.Concat(path, []string{name})); err != nil {
				return err
			}
		}

		visiting[name] = false
		done[name] = true
		ordered = append(ordered, p)
		return nil
	}

	for _, name := range names {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

func (m *Manager) loaded(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.plugins[name]
	return ok
}

// Add registers p with the runtime directly, bypassing the registry.
func (m *Manager) Add(ctx context.Context, p *plugin.Plugin) error {
	if p == nil {
		return sigilerr.New(sigilerr.CodeRuntimePluginInvalid, "plugin is nil")
	}

	m.mu.Lock()
	if _, ok := m.plugins[p.Name]; ok {
		m.mu.Unlock()
		return sigilerr.Errorf(sigilerr.CodePluginDuplicate, "plugin %q already loaded", p.Name)
	}
	inst := NewInstance(p.Name)
	m.plugins[p.Name] = inst
	m.order = append(m.order, p.Name)
	m.mu.Unlock()

	if err := inst.TransitionTo(StateRegistering); err != nil {
		return err
	}
	reg, err := Bridge(ctx, m.rt, p)
	if err != nil {
		inst.fail(err)
		slog.Error("plugin failed to load", "plugin", p.Name, "error", err)
		return sigilerr.With(err, sigilerr.FieldPlugin(p.Name))
	}
	return inst.run(reg)
}

func (m *Manager) Get(name string) (*Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inst, ok := m.plugins[name]
	if !ok {
		return nil, sigilerr.Errorf(sigilerr.CodePluginNotFound, "plugin %q not found", name)
	}
	return inst, nil
}

// List returns the instances in load order.
func (m *Manager) List() []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*Instance, 0, len(m.order))
	for _, name := range m.order {
		list = append(list, m.plugins[name])
	}
	return list
}

func (m *Manager) running() []*Registration {
	return lo.FilterMap(m.List(), func(inst *Instance, _ int) (*Registration, bool) {
		return inst.Registration(), inst.State() == StateRunning
	})
}

// Tools returns the tools of every running plugin in load order.
func (m *Manager) Tools() []Tool {
	var tools []Tool
	for _, reg := range m.running() {
		tools = append(tools, reg.Tools...)
	}
	return tools
}

// Tool returns the first tool named name.
func (m *Manager) Tool(name string) (Tool, error) {
	if t, ok := lo.Find(m.Tools(), func(t Tool) bool { return t.Name == name }); ok {
		return t, nil
	}
	return Tool{}, sigilerr.New(sigilerr.CodeHostToolNotFound, "tool not found", sigilerr.FieldTool(name))
}

// Hooks returns the hooks of every running plugin for phase.
func (m *Manager) Hooks(phase HookPhase) []Hook {
	var hooks []Hook
	for _, reg := range m.running() {
		for _, h := range reg.Hooks {
			if h.Phase == phase {
				hooks = append(hooks, h)
			}
		}
	}
	return hooks
}

// Routes returns the HTTP routes of every running plugin.
func (m *Manager) Routes() []HTTPRoute {
	var routes []HTTPRoute
	for _, reg := range m.running() {
		routes = append(routes, reg.Routes...)
	}
	return routes
}

// Stop moves every running plugin to stopped and stops the runtime's
// services when the runtime supports it.
func (m *Manager) Stop(ctx context.Context) error {
	insts := m.List()
	for _, inst := range insts {
		if inst.State() == StateRunning {
			_ = inst.TransitionTo(StateStopping)
		}
	}

	var err error
	if stopper, ok := m.rt.(interface{ Stop(context.Context) error }); ok {
		err = stopper.Stop(ctx)
	}

	for _, inst := range insts {
		if inst.State() != StateStopping {
			continue
		}
		if err != nil {
			inst.fail(err)
			continue
		}
		_ = inst.TransitionTo(StateStopped)
	}
	return err
}
