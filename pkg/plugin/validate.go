// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package plugin

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// namePattern matches plugin names: lowercase alphanumerics separated by
// single hyphens, dots or slashes (e.g. "bootstrap", "org/plugin-sql").
var namePattern = regexp.MustCompile(`^[a-z0-9]+(?:[-./@][a-z0-9]+)*$`)

// validRouteMethods enumerates the HTTP methods a plugin route may use.
var validRouteMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
	"STATIC":          true,
}

// Validate checks that the plugin is structurally complete: every
// contributed capability is non-nil and named, and every route has a
// method, an absolute path and a handler. It returns an error describing
// the first problem found, or nil.
func (p *Plugin) Validate() error {
	if err := p.validateName(); err != nil {
		return err
	}
	if err := p.validateActions(); err != nil {
		return err
	}
	if err := p.validateProviders(); err != nil {
		return err
	}
	if err := p.validateEvaluators(); err != nil {
		return err
	}
	if err := p.validateServices(); err != nil {
		return err
	}
	if err := p.validateRoutes(); err != nil {
		return err
	}
	return p.validateEvents()
}

func (p *Plugin) validateName() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("plugin validation: name must not be empty")
	}
	if !namePattern.MatchString(p.Name) {
		return fmt.Errorf("plugin validation: name %q must be lowercase alphanumerics separated by '-', '.', '/' or '@'", p.Name)
	}
	return nil
}

func (p *Plugin) validateActions() error {
	for i, a := range p.Actions {
		if a == nil {
			return fmt.Errorf("plugin validation: actions[%d] is nil", i)
		}
		if strings.TrimSpace(a.Name()) == "" {
			return fmt.Errorf("plugin validation: actions[%d] has an empty name", i)
		}
	}
	return nil
}

func (p *Plugin) validateProviders() error {
	for i, pr := range p.Providers {
		if pr == nil {
			return fmt.Errorf("plugin validation: providers[%d] is nil", i)
		}
		if strings.TrimSpace(pr.Name()) == "" {
			return fmt.Errorf("plugin validation: providers[%d] has an empty name", i)
		}
	}
	return nil
}

func (p *Plugin) validateEvaluators() error {
	for i, e := range p.Evaluators {
		if e == nil {
			return fmt.Errorf("plugin validation: evaluators[%d] is nil", i)
		}
		if strings.TrimSpace(e.Name()) == "" {
			return fmt.Errorf("plugin validation: evaluators[%d] has an empty name", i)
		}
		if phase := e.Phase(); phase != PhasePre && phase != PhasePost {
			return fmt.Errorf("plugin validation: evaluators[%d] phase must be one of [pre, post], got %q", i, phase)
		}
	}
	return nil
}

func (p *Plugin) validateServices() error {
	for i, s := range p.Services {
		if s == nil {
			return fmt.Errorf("plugin validation: services[%d] is nil", i)
		}
		if strings.TrimSpace(s.ServiceType()) == "" {
			return fmt.Errorf("plugin validation: services[%d] has an empty service type", i)
		}
	}
	return nil
}

func (p *Plugin) validateRoutes() error {
	for i, r := range p.Routes {
		if !validRouteMethods[strings.ToUpper(r.Method)] {
			return fmt.Errorf("plugin validation: routes[%d] method must be one of [GET, POST, PUT, PATCH, DELETE, STATIC], got %q", i, r.Method)
		}
		if !strings.HasPrefix(r.Path, "/") {
			return fmt.Errorf("plugin validation: routes[%d] path %q must start with '/'", i, r.Path)
		}
		if r.Handler == nil {
			return fmt.Errorf("plugin validation: routes[%d] (%s %s) has no handler", i, r.Method, r.Path)
		}
	}
	return nil
}

func (p *Plugin) validateEvents() error {
	for name, handlers := range p.Events {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("plugin validation: event name must not be empty")
		}
		for i, h := range handlers {
			if h == nil {
				return fmt.Errorf("plugin validation: events[%s][%d] is nil", name, i)
			}
		}
	}
	return nil
}
