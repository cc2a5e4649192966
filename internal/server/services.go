// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package server

import (
	"github.com/sigil-dev/bridge/internal/host"
	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/plugin"
)

// PluginSource is the view of loaded plugins the routes need.
// *host.Manager satisfies it.
type PluginSource interface {
	List() []*host.Instance
	Tools() []host.Tool
	Tool(name string) (host.Tool, error)
	Routes() []host.HTTPRoute
}

var _ PluginSource = (*host.Manager)(nil)

// Services holds dependencies injected into route handlers.
type Services struct {
	runtime plugin.Runtime
	plugins PluginSource
}

// NewServices creates a Services instance. Both arguments are required.
func NewServices(rt plugin.Runtime, plugins PluginSource) (*Services, error) {
	if rt == nil {
		return nil, sigilerr.New(sigilerr.CodeServerConfigInvalid, "runtime is required")
	}
	if plugins == nil {
		return nil, sigilerr.New(sigilerr.CodeServerConfigInvalid, "plugin source is required")
	}
	return &Services{runtime: rt, plugins: plugins}, nil
}

// Runtime returns the agent runtime.
func (s *Services) Runtime() plugin.Runtime {
	return s.runtime
}

// Plugins returns the plugin source.
func (s *Services) Plugins() PluginSource {
	return s.plugins
}
