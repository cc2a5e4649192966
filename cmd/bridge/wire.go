// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sigil-dev/bridge/internal/config"
	"github.com/sigil-dev/bridge/internal/host"
	"github.com/sigil-dev/bridge/internal/runtime"
	"github.com/sigil-dev/bridge/internal/server"
	"github.com/sigil-dev/bridge/internal/store"
	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
)

// Agent holds all wired subsystems and manages their lifecycle.
type Agent struct {
	Store   store.Store
	Runtime *runtime.Shim
	Plugins *host.Manager
	Server  *server.Server
}

// WireAgent creates the store, runtime, plugins and HTTP server described
// by cfg and wires them together. On error everything already built is
// released.
func WireAgent(ctx context.Context, cfg *config.Config) (*Agent, error) {
	// 1. Store.
	st, err := store.New(store.Config{
		Backend:            cfg.Store.Backend,
		MemoryCap:          cfg.Store.MemoryCap,
		LogCap:             cfg.Store.LogCap,
		EmbeddingDimension: cfg.Store.EmbeddingDimension,
	})
	if err != nil {
		return nil, sigilerr.Wrap(err, sigilerr.CodeCLISetupFailure, "creating store")
	}
	if err := st.Init(ctx); err != nil {
		return nil, sigilerr.Wrap(err, sigilerr.CodeCLISetupFailure, "initializing store")
	}

	// 2. Runtime.
	rt, err := runtime.New(runtime.Options{
		Store:              st,
		Character:          cfg.Character,
		AgentID:            cfg.Agent.ID,
		StateCacheSize:     cfg.Runtime.StateCacheSize,
		ConversationLength: cfg.Runtime.ConversationLength,
		ProviderTimeout:    cfg.Runtime.ProviderTimeout,
	})
	if err != nil {
		_ = st.Close()
		return nil, sigilerr.Wrap(err, sigilerr.CodeCLISetupFailure, "creating runtime")
	}
	if err := rt.Initialize(ctx); err != nil {
		_ = st.Close()
		return nil, sigilerr.Wrap(err, sigilerr.CodeCLISetupFailure, "initializing runtime")
	}

	// 3. Plugins, in dependency order.
	mgr, err := host.LoadPlugins(ctx, rt, cfg.Plugins)
	if err != nil {
		_ = rt.Stop(ctx)
		_ = st.Close()
		return nil, sigilerr.Wrap(err, sigilerr.CodeCLISetupFailure, "loading plugins")
	}
	slog.Info("plugins loaded", "count", len(mgr.List()), "tools", len(mgr.Tools()))

	// 4. HTTP server.
	srv, err := server.New(server.Config{
		ListenAddr:  cfg.Server.Listen,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit: server.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
			Burst:             cfg.Server.RateLimit.Burst,
		},
	})
	if err != nil {
		_ = mgr.Stop(ctx)
		_ = st.Close()
		return nil, sigilerr.Wrap(err, sigilerr.CodeCLISetupFailure, "creating server")
	}
	svc, err := server.NewServices(rt, mgr)
	if err != nil {
		_ = mgr.Stop(ctx)
		_ = st.Close()
		return nil, sigilerr.Wrap(err, sigilerr.CodeCLISetupFailure, "creating server services")
	}
	srv.RegisterServices(svc)

	return &Agent{
		Store:   st,
		Runtime: rt,
		Plugins: mgr,
		Server:  srv,
	}, nil
}

// Close stops plugins and their services, then drops the store.
func (a *Agent) Close(ctx context.Context) error {
	return errors.Join(
		a.Server.Close(),
		a.Plugins.Stop(ctx),
		a.Store.Close(),
	)
}
