// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package plugin

import (
	"context"

	"github.com/sigil-dev/bridge/pkg/types"
)

// Runtime is the agent-runtime contract every plugin capability receives.
// It covers settings, the service registry, state composition, event
// dispatch and the full data-access surface.
type Runtime interface {
	Database

	AgentID() string
	Character() *types.Character
	ConversationLength() int

	GetSetting(key string) any
	SetSetting(key string, value any, secret bool)

	RegisterPlugin(ctx context.Context, p *Plugin) error
	Plugins() []*Plugin
	RegisterAction(a Action)
	RegisterProvider(p Provider)
	RegisterEvaluator(e Evaluator)
	Actions() []Action
	Providers() []Provider
	Evaluators() []Evaluator
	Routes() []Route

	RegisterService(ctx context.Context, class ServiceClass) error
	InjectService(serviceType string, svc Service)
	GetService(serviceType string) Service
	GetServicesByType(serviceType string) []Service
	GetAllServices() map[string][]Service
	HasService(serviceType string) bool
	GetRegisteredServiceTypes() []string
	GetServiceLoadPromise(serviceType string) *ServicePromise

	ComposeState(ctx context.Context, msg *types.Memory, opts ComposeOptions) (*types.State, error)

	RegisterEvent(name string, handler EventHandler)
	GetEvent(name string) []EventHandler
	EmitEvent(ctx context.Context, params any, names ...string) error

	StartRun() string
	EndRun()
	CurrentRunID() string
	AddActionResult(messageID string, result types.ActionResult)
	GetActionResults(messageID string) []types.ActionResult

	RedactSecrets(text string) string

	EnsureAgentExists(ctx context.Context, agent *types.Agent) (*types.Agent, error)
	EnsureWorldExists(ctx context.Context, world *types.World) error
	EnsureRoomExists(ctx context.Context, room *types.Room) error
	EnsureParticipantInRoom(ctx context.Context, entityID, roomID string) error
	EnsureConnection(ctx context.Context, params types.ConnectionParams) error
	EnsureConnections(ctx context.Context, entities []*types.Entity, rooms []*types.Room, source string, world *types.World) error

	AddEmbeddingToMemory(ctx context.Context, mem *types.Memory) (*types.Memory, error)

	// The methods below are part of the contract so callers can probe for
	// them, but the runtime is not a model host: every call fails with a
	// runtime.method.not_implemented error naming the method.
	UseModel(ctx context.Context, modelType string, params map[string]any) (any, error)
	GenerateText(ctx context.Context, prompt string, opts map[string]any) (string, error)
	DynamicPromptExecFromState(ctx context.Context, state *types.State, params map[string]any) (map[string]any, error)
	ProcessActions(ctx context.Context, msg *types.Memory, responses []*types.Memory, state *types.State, callback HandlerCallback) error
	Evaluate(ctx context.Context, msg *types.Memory, state *types.State, didRespond bool, callback HandlerCallback, responses []*types.Memory) ([]Evaluator, error)
}
