// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package runtime

import (
	"context"
	"log/slog"
	"slices"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/plugin"
)

// RegisterPlugin validates p, runs its Init hook, then registers every
// capability it contributes. Services are started last, in declaration
// order; the first failure aborts registration of the remaining ones.
func (s *Shim) RegisterPlugin(ctx context.Context, p *plugin.Plugin) error {
	if p == nil {
		return sigilerr.New(sigilerr.CodeRuntimePluginInvalid, "plugin is nil")
	}
	if err := p.Validate(); err != nil {
		return sigilerr.Wrap(err, sigilerr.CodeRuntimePluginInvalid, "invalid plugin", sigilerr.FieldPlugin(p.Name))
	}
	if p.Init != nil {
		if err := p.Init(ctx, p.Config, s); err != nil {
			return sigilerr.Wrap(err, sigilerr.CodeRuntimePluginInitFailure, "plugin init failed", sigilerr.FieldPlugin(p.Name))
		}
	}

	s.regMu.Lock()
	s.plugins = append(s.plugins, p)
	s.actions = append(s.actions, p.Actions...)
	s.providers = append(s.providers, p.Providers...)
	s.evaluators = append(s.evaluators, p.Evaluators...)
	s.routes = append(s.routes, p.Routes...)
	s.regMu.Unlock()

	for name, handlers := range p.Events {
		for _, h := range handlers {
			s.RegisterEvent(name, h)
		}
	}

	for _, class := range p.Services {
		if err := s.RegisterService(ctx, class); err != nil {
			return sigilerr.With(err, sigilerr.FieldPlugin(p.Name))
		}
	}

	slog.Info("plugin registered",
		"plugin", p.Name,
		"actions", len(p.Actions),
		"providers", len(p.Providers),
		"evaluators", len(p.Evaluators),
		"services", len(p.Services),
		"routes", len(p.Routes),
	)
	return nil
}

func (s *Shim) Plugins() []*plugin.Plugin {
	s.regMu.RLock()
	defer s.regMu.RUnlock()
	return slices.Clone(s.plugins)
}

// RegisterAction appends a. Registering the same action twice yields two
// entries.
func (s *Shim) RegisterAction(a plugin.Action) {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	s.actions = append(s.actions, a)
}

func (s *Shim) RegisterProvider(p plugin.Provider) {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	s.providers = append(s.providers, p)
}

func (s *Shim) RegisterEvaluator(e plugin.Evaluator) {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	s.evaluators = append(s.evaluators, e)
}

func (s *Shim) Actions() []plugin.Action {
	s.regMu.RLock()
	defer s.regMu.RUnlock()
	return slices.Clone(s.actions)
}

func (s *Shim) Providers() []plugin.Provider {
	s.regMu.RLock()
	defer s.regMu.RUnlock()
	return slices.Clone(s.providers)
}

func (s *Shim) Evaluators() []plugin.Evaluator {
	s.regMu.RLock()
	defer s.regMu.RUnlock()
	return slices.Clone(s.evaluators)
}

func (s *Shim) Routes() []plugin.Route {
	s.regMu.RLock()
	defer s.regMu.RUnlock()
	return slices.Clone(s.routes)
}
