// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package plugin provides public types for plugin authors.
// These types define the capabilities a plugin contributes (actions,
// providers, evaluators, services, routes, event handlers) and the Runtime
// contract each of them is handed when invoked.
package plugin

import (
	"context"
	"net/http"

	"github.com/sigil-dev/bridge/pkg/types"
)

// HandlerOptions carries caller-supplied options to an action handler.
type HandlerOptions map[string]any

// HandlerCallback receives intermediate responses from an action or
// evaluator handler. It may be invoked zero or more times.
type HandlerCallback func(ctx context.Context, response types.Content) ([]*types.Memory, error)

// Action is a named operation a plugin exposes. Validate gates Handle.
type Action interface {
	Name() string
	Description() string
	Validate(ctx context.Context, rt Runtime, msg *types.Memory, state *types.State) (bool, error)
	Handle(ctx context.Context, rt Runtime, msg *types.Memory, state *types.State,
		opts HandlerOptions, callback HandlerCallback, responses []*types.Memory) (*types.ActionResult, error)
}

// Similes is implemented by actions that answer to alternative names.
type Similes interface {
	Similes() []string
}

// ParameterSchema is implemented by actions that describe their input as a
// JSON schema.
type ParameterSchema interface {
	Parameters() map[string]any
}

// ProviderFlags control when a provider runs during state composition.
type ProviderFlags struct {
	// Private providers only run when named in an include list.
	Private bool
	// Dynamic providers are left out of the default set.
	Dynamic bool
	// AlwaysRun providers are added to every composition unless private.
	AlwaysRun bool
}

// Provider contributes read-only context to a composed State.
type Provider interface {
	Name() string
	Description() string
	Flags() ProviderFlags
	Get(ctx context.Context, rt Runtime, msg *types.Memory, state *types.State) (*types.ProviderResult, error)
}

// EvaluatorPhase selects when an evaluator runs relative to a turn.
type EvaluatorPhase string

const (
	PhasePre  EvaluatorPhase = "pre"
	PhasePost EvaluatorPhase = "post"
)

// Evaluator is an action-shaped hook that runs before or after a turn.
type Evaluator interface {
	Action
	Phase() EvaluatorPhase
	AlwaysRun() bool
}

// Service is a long-lived instance registered under a type tag.
type Service interface {
	CapabilityDescription() string
	Stop(ctx context.Context) error
}

// ServiceClass starts Service instances of one type.
type ServiceClass interface {
	ServiceType() string
	Start(ctx context.Context, rt Runtime) (Service, error)
}

// ServiceTeardown is implemented by service classes that tear down every
// instance they started for a runtime in one call.
type ServiceTeardown interface {
	StopRuntime(ctx context.Context, rt Runtime) error
}

// SendHandlerRegistrar is implemented by service classes that register
// outbound send handlers once an instance has started.
type SendHandlerRegistrar interface {
	RegisterSendHandlers(rt Runtime, svc Service)
}

// RouteHandler serves a plugin HTTP route.
type RouteHandler func(w http.ResponseWriter, r *http.Request, rt Runtime)

// Route is an HTTP endpoint contributed by a plugin.
type Route struct {
	Name    string
	Method  string
	Path    string
	Public  bool
	Handler RouteHandler
}

// EventHandler reacts to an emitted runtime event.
type EventHandler func(ctx context.Context, params any) error

// Well-known event names.
const (
	EventMessageReceived = "MESSAGE_RECEIVED"
	EventMessageSent     = "MESSAGE_SENT"
	EventWorldJoined     = "WORLD_JOINED"
	EventEntityJoined    = "ENTITY_JOINED"
	EventRunStarted      = "RUN_STARTED"
	EventRunEnded        = "RUN_ENDED"
	EventActionStarted   = "ACTION_STARTED"
	EventActionCompleted = "ACTION_COMPLETED"
)

// Plugin bundles the capabilities contributed by one plugin.
type Plugin struct {
	Name         string
	Description  string
	Config       map[string]string
	Dependencies []string
	// Init runs once, before the plugin's capabilities are registered.
	Init       func(ctx context.Context, config map[string]string, rt Runtime) error
	Actions    []Action
	Providers  []Provider
	Evaluators []Evaluator
	Services   []ServiceClass
	Routes     []Route
	Events     map[string][]EventHandler
}

// ComposeOptions controls ComposeState.
type ComposeOptions struct {
	// IncludeList, when non-empty, replaces the default provider set with
	// the providers it names. A nil or empty list selects the default set;
	// there is no way to run no providers at all. Always-run providers are
	// added in either case.
	IncludeList []string
	// SkipCache bypasses the per-message state cache on read.
	SkipCache bool
}
