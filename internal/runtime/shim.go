// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package runtime implements the agent runtime handed to plugins. A Shim
// owns settings, capability registries, the service registry, event
// dispatch and state composition, and delegates every data-access call to
// the store it wraps.
package runtime

import (
	"context"
	"maps"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/plugin"
	"github.com/sigil-dev/bridge/pkg/types"
)

const (
	// DefaultStateCacheSize bounds the per-message composed state cache.
	DefaultStateCacheSize = 1000
	// DefaultConversationLength is the history window plugins should read.
	DefaultConversationLength = 32

	instrumentationName = "github.com/sigil-dev/bridge/internal/runtime"
)

// Compile-time interface check.
var _ plugin.Runtime = (*Shim)(nil)

// Options configures a Shim.
type Options struct {
	// Store backs every data-access method. Required.
	Store plugin.Database
	// Character is the persona the runtime acts as. Required.
	Character *types.Character
	// AgentID overrides the id derived from the character.
	AgentID string
	// Settings and Secrets take precedence over the character's maps.
	Settings map[string]any
	Secrets  map[string]any

	StateCacheSize     int
	ConversationLength int
	// ProviderTimeout bounds each provider call during composition. Zero
	// means no deadline.
	ProviderTimeout time.Duration

	// LookupEnv resolves settings missing from both maps. Defaults to
	// os.LookupEnv.
	LookupEnv func(key string) (string, bool)
	// TracerProvider and MeterProvider default to the otel globals.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Shim implements plugin.Runtime on top of a plugin.Database.
type Shim struct {
	plugin.Database

	agentID            string
	character          *types.Character
	conversationLength int
	providerTimeout    time.Duration
	lookupEnv          func(string) (string, bool)

	settingsMu sync.RWMutex
	settings   map[string]any
	secrets    map[string]any
	// masked holds keys cleared by SetSetting(key, nil); the environment is
	// not consulted for them until they are set again.
	masked map[string]struct{}

	regMu      sync.RWMutex
	plugins    []*plugin.Plugin
	actions    []plugin.Action
	providers  []plugin.Provider
	evaluators []plugin.Evaluator
	routes     []plugin.Route

	svcMu    sync.Mutex
	services map[string][]plugin.Service
	classes  []plugin.ServiceClass
	pending  map[string]*plugin.ServicePromise

	eventsMu sync.RWMutex
	events   map[string][]plugin.EventHandler

	stateCache *lru.Cache[string, *types.State]

	runMu   sync.Mutex
	runID   string
	results map[string][]types.ActionResult

	tracer           trace.Tracer
	providerFailures metric.Int64Counter
}

// New builds a Shim. The store is used as is; call Initialize to make sure
// the agent row exists.
func New(opts Options) (*Shim, error) {
	if opts.Store == nil {
		return nil, sigilerr.New(sigilerr.CodeRuntimeAgentEnsureFailure, "runtime store is required")
	}
	if opts.Character == nil || opts.Character.Name == "" {
		return nil, sigilerr.New(sigilerr.CodeRuntimeAgentEnsureFailure, "runtime character name is required")
	}

	cacheSize := opts.StateCacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultStateCacheSize
	}
	cache, err := lru.New[string, *types.State](cacheSize)
	if err != nil {
		return nil, sigilerr.Wrap(err, sigilerr.CodeRuntimeAgentEnsureFailure, "creating state cache")
	}

	convLen := opts.ConversationLength
	if convLen <= 0 {
		convLen = DefaultConversationLength
	}
	lookupEnv := opts.LookupEnv
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := opts.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	failures, err := mp.Meter(instrumentationName).Int64Counter(
		"bridge.runtime.provider.failures",
		metric.WithDescription("Provider calls that failed during state composition"),
	)
	if err != nil {
		return nil, sigilerr.Wrap(err, sigilerr.CodeTelemetrySetupFailure, "creating provider failure counter")
	}

	s := &Shim{
		Database:           opts.Store,
		agentID:            agentIDFor(opts.AgentID, opts.Character),
		character:          opts.Character,
		conversationLength: convLen,
		providerTimeout:    opts.ProviderTimeout,
		lookupEnv:          lookupEnv,
		settings:           mergeMaps(opts.Character.Settings, opts.Settings),
		secrets:            mergeMaps(opts.Character.Secrets, opts.Secrets),
		masked:             make(map[string]struct{}),
		services:           make(map[string][]plugin.Service),
		pending:            make(map[string]*plugin.ServicePromise),
		events:             make(map[string][]plugin.EventHandler),
		stateCache:         cache,
		results:            make(map[string][]types.ActionResult),
		tracer:             tp.Tracer(instrumentationName),
		providerFailures:   failures,
	}
	return s, nil
}

// agentIDFor prefers an explicit id, then the character's, then a stable
// name-derived UUID so restarts keep the same agent id.
func agentIDFor(explicit string, c *types.Character) string {
	switch {
	case explicit != "":
		return explicit
	case c.ID != "":
		return c.ID
	default:
		return uuid.NewSHA1(uuid.NameSpaceURL, []byte("bridge:agent:"+c.Name)).String()
	}
}

func mergeMaps(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	maps.Copy(out, base)
	maps.Copy(out, overlay)
	return out
}

func (s *Shim) AgentID() string { return s.agentID }

// Character returns the configured persona. Callers must not modify it.
func (s *Shim) Character() *types.Character { return s.character }

func (s *Shim) ConversationLength() int { return s.conversationLength }

// Initialize readies the store and makes sure the agent and its self
// entity exist.
func (s *Shim) Initialize(ctx context.Context) error {
	if !s.IsReady(ctx) {
		if err := s.Init(ctx); err != nil {
			return sigilerr.Wrap(err, sigilerr.CodeRuntimeAgentEnsureFailure, "initializing store")
		}
	}
	if _, err := s.EnsureAgentExists(ctx, &types.Agent{
		ID:       s.agentID,
		Name:     s.character.Name,
		Username: s.character.Username,
		System:   s.character.System,
		Bio:      s.character.Bio,
		Plugins:  s.character.Plugins,
		Settings: s.character.Settings,
		Enabled:  true,
	}); err != nil {
		return err
	}

	self, err := s.GetEntitiesByIDs(ctx, []string{s.agentID})
	if err != nil {
		return sigilerr.Wrap(err, sigilerr.CodeRuntimeAgentEnsureFailure, "looking up agent entity")
	}
	if len(self) > 0 {
		return nil
	}
	names := []string{s.character.Name}
	if s.character.Username != "" {
		names = append(names, s.character.Username)
	}
	if _, err := s.CreateEntities(ctx, []*types.Entity{{ID: s.agentID, AgentID: s.agentID, Names: names}}); err != nil {
		return sigilerr.Wrap(err, sigilerr.CodeRuntimeAgentEnsureFailure, "creating agent entity")
	}
	return nil
}

// Stop stops every running service, then lets service classes that
// implement plugin.ServiceTeardown release what they hold. All errors are
// returned joined.
func (s *Shim) Stop(ctx context.Context) error {
	s.svcMu.Lock()
	var running []plugin.Service
	for _, list := range s.services {
		running = append(running, list...)
	}
	classes := append([]plugin.ServiceClass(nil), s.classes...)
	s.services = make(map[string][]plugin.Service)
	s.svcMu.Unlock()

	var errs []error
	for _, svc := range running {
		if err := svc.Stop(ctx); err != nil {
			errs = append(errs, sigilerr.Wrap(err, sigilerr.CodeRuntimeServiceStopFailure, "stopping service"))
		}
	}
	for _, class := range classes {
		if td, ok := class.(plugin.ServiceTeardown); ok {
			if err := td.StopRuntime(ctx, s); err != nil {
				errs = append(errs, sigilerr.Wrap(err, sigilerr.CodeRuntimeServiceStopFailure,
					"tearing down service class", sigilerr.FieldServiceType(class.ServiceType())))
			}
		}
	}
	return sigilerr.Join(errs...)
}
