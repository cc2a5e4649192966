// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package bootstrap is the built-in plugin every agent loads. It supplies
// the basic context providers, a fact-memory action, a reflection
// evaluator, a task scheduler service and the inbound message handler.
package bootstrap

import (
	"github.com/sigil-dev/bridge/internal/host"
	"github.com/sigil-dev/bridge/pkg/plugin"
)

// Name is the registry name of the plugin.
const Name = "bootstrap"

func init() {
	host.RegisterPlugin(Name, New)
}

// New builds the plugin.
func New() *plugin.Plugin {
	return &plugin.Plugin{
		Name:        Name,
		Description: "Core providers, fact memory, reflection and task scheduling",
		Actions:     []plugin.Action{rememberAction()},
		Providers: []plugin.Provider{
			timeProvider(),
			characterProvider(),
			recentMessagesProvider(),
			factsProvider(),
		},
		Evaluators: []plugin.Evaluator{reflectionEvaluator()},
		Services:   []plugin.ServiceClass{SchedulerClass{}},
		Routes: []plugin.Route{{
			Name:    "facts",
			Method:  "GET",
			Path:    "/bootstrap/facts",
			Public:  true,
			Handler: serveFacts,
		}},
		Events: map[string][]plugin.EventHandler{
			plugin.EventMessageReceived: {onMessageReceived},
		},
	}
}
