// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"runtime/debug"
	"slices"
	"strings"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/plugin"
	"github.com/sigil-dev/bridge/pkg/types"
)

// State value and data keys set by ComposeState.
const (
	ValueAgentName     = "agentName"
	ValueActionNames   = "actionNames"
	ValueProviderNames = "providerNames"
	DataProviders      = "providers"
)

// ComposeState builds the per-turn State for msg.
//
// When msg has an id and opts.SkipCache is unset, a State previously
// composed for that id is returned without running any provider.
// Otherwise the base set is the providers named in opts.IncludeList, or,
// without an include list, every provider that is neither private nor
// dynamic. Providers flagged AlwaysRun that are not private and not already
// in the base set run after it. Providers run one at a time; a failing
// provider is logged and contributes nothing. The result is cached under
// msg's id.
func (s *Shim) ComposeState(ctx context.Context, msg *types.Memory, opts plugin.ComposeOptions) (*types.State, error) {
	if msg == nil {
		return nil, sigilerr.New(sigilerr.CodeRuntimeMessageInvalid, "compose state: message is nil")
	}
	ctx, span := s.tracer.Start(ctx, "Runtime.ComposeState", trace.WithAttributes(
		attribute.String("message.id", msg.ID),
		attribute.Bool("compose.skip_cache", opts.SkipCache),
		attribute.Int("compose.include_list", len(opts.IncludeList)),
	))
	defer span.End()

	if msg.ID != "" && !opts.SkipCache {
		if cached, ok := s.stateCache.Get(msg.ID); ok {
			span.SetAttributes(attribute.Bool("compose.cache_hit", true))
			return cached, nil
		}
	}

	selected := selectProviders(s.Providers(), opts.IncludeList)
	state := types.NewState()
	results := make(map[string]any, len(selected))
	texts := make([]string, 0, len(selected))
	ran := make([]string, 0, len(selected))

	for _, p := range selected {
		res, err := s.runProvider(ctx, p, msg, state)
		if err != nil {
			slog.Warn("provider failed during state composition",
				"provider", p.Name(),
				"message_id", msg.ID,
				"error", err,
			)
			s.providerFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", p.Name())))
			continue
		}
		ran = append(ran, p.Name())
		if res == nil {
			continue
		}
		if res.Text != "" {
			texts = append(texts, res.Text)
			state.Text = strings.Join(texts, "\n")
		}
		maps.Copy(state.Values, res.Values)
		maps.Copy(state.Data, res.Data)
		results[p.Name()] = res
	}

	state.Values[ValueAgentName] = s.character.Name
	state.Values[ValueActionNames] = strings.Join(lo.Map(s.Actions(), func(a plugin.Action, _ int) string {
		return a.Name()
	}), ", ")
	state.Values[ValueProviderNames] = strings.Join(ran, ", ")
	state.Data[DataProviders] = results

	span.SetAttributes(attribute.Int("compose.providers_run", len(ran)))
	if msg.ID != "" {
		s.stateCache.Add(msg.ID, state)
	}
	return state, nil
}

// selectProviders returns the base set followed by the always-run
// additions, each provider at most once.
func selectProviders(all []plugin.Provider, include []string) []plugin.Provider {
	inBase := make([]bool, len(all))
	for i, p := range all {
		f := p.Flags()
		if len(include) > 0 {
			inBase[i] = slices.Contains(include, p.Name())
		} else {
			inBase[i] = !f.Private && !f.Dynamic
		}
	}

	selected := make([]plugin.Provider, 0, len(all))
	for i, p := range all {
		if inBase[i] {
			selected = append(selected, p)
		}
	}
	for i, p := range all {
		if f := p.Flags(); f.AlwaysRun && !f.Private && !inBase[i] {
			selected = append(selected, p)
		}
	}
	return selected
}

// runProvider calls p.Get, bounded by the provider timeout when one is
// set. A provider that returns after its deadline has passed is treated as
// failed.
func (s *Shim) runProvider(ctx context.Context, p plugin.Provider, msg *types.Memory, state *types.State) (*types.ProviderResult, error) {
	if s.providerTimeout <= 0 {
		return s.callProvider(ctx, p, msg, state)
	}
	ctx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()

	res, err := s.callProvider(ctx, p, msg, state)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil && ctx.Err() != nil {
		return nil, sigilerr.Wrap(err, sigilerr.CodeRuntimeProviderTimeout, "provider exceeded its deadline",
			sigilerr.Field("provider", p.Name()))
	}
	return res, err
}

// callProvider runs p.Get, converting a panic into an error so the caller
// can skip the provider like any other failure.
func (s *Shim) callProvider(ctx context.Context, p plugin.Provider, msg *types.Memory, state *types.State) (res *types.ProviderResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("provider panic recovered",
				"provider", p.Name(),
				"panic", r,
				"stack", string(debug.Stack()))
			res = nil
			err = sigilerr.New(sigilerr.CodeRuntimeProviderPanic, fmt.Sprintf("provider panic: %v", r),
				sigilerr.Field("provider", p.Name()))
		}
	}()
	return p.Get(ctx, s, msg, state)
}
