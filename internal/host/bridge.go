// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package host

import (
	"context"

	"github.com/sigil-dev/bridge/pkg/plugin"
)

// Registration is everything a plugin contributes to the host.
type Registration struct {
	Plugin string
	Tools  []Tool
	Hooks  []Hook
	Routes []HTTPRoute
}

// Bridge registers p with rt and converts its capabilities for the host.
// Provider hooks come before evaluator hooks.
func Bridge(ctx context.Context, rt plugin.Runtime, p *plugin.Plugin) (*Registration, error) {
	if err := rt.RegisterPlugin(ctx, p); err != nil {
		return nil, err
	}

	reg := &Registration{Plugin: p.Name}
	for _, a := range p.Actions {
		reg.Tools = append(reg.Tools, ToolFromAction(rt, a))
	}
	for _, pr := range p.Providers {
		reg.Hooks = append(reg.Hooks, HookFromProvider(rt, pr))
	}
	for _, e := range p.Evaluators {
		reg.Hooks = append(reg.Hooks, HookFromEvaluator(rt, e))
	}
	for _, r := range p.Routes {
		reg.Routes = append(reg.Routes, RouteFromPluginRoute(rt, r))
	}
	return reg, nil
}
