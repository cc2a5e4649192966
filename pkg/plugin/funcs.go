// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package plugin

import (
	"context"

	"github.com/sigil-dev/bridge/pkg/types"
)

// ValidateFunc is the function form of Action.Validate.
type ValidateFunc func(ctx context.Context, rt Runtime, msg *types.Memory, state *types.State) (bool, error)

// HandleFunc is the function form of Action.Handle.
type HandleFunc func(ctx context.Context, rt Runtime, msg *types.Memory, state *types.State,
	opts HandlerOptions, callback HandlerCallback, responses []*types.Memory) (*types.ActionResult, error)

// GetFunc is the function form of Provider.Get.
type GetFunc func(ctx context.Context, rt Runtime, msg *types.Memory, state *types.State) (*types.ProviderResult, error)

// ActionFunc builds an Action from functions. A nil ValidateFn accepts
// every message.
type ActionFunc struct {
	ActionName        string
	ActionDescription string
	ActionSimiles     []string
	Schema            map[string]any
	ValidateFn        ValidateFunc
	HandleFn          HandleFunc
}

var (
	_ Action          = (*ActionFunc)(nil)
	_ Similes         = (*ActionFunc)(nil)
	_ ParameterSchema = (*ActionFunc)(nil)
)

func (a *ActionFunc) Name() string               { return a.ActionName }
func (a *ActionFunc) Description() string        { return a.ActionDescription }
func (a *ActionFunc) Similes() []string          { return a.ActionSimiles }
func (a *ActionFunc) Parameters() map[string]any { return a.Schema }

func (a *ActionFunc) Validate(ctx context.Context, rt Runtime, msg *types.Memory, state *types.State) (bool, error) {
	if a.ValidateFn == nil {
		return true, nil
	}
	return a.ValidateFn(ctx, rt, msg, state)
}

func (a *ActionFunc) Handle(ctx context.Context, rt Runtime, msg *types.Memory, state *types.State,
	opts HandlerOptions, callback HandlerCallback, responses []*types.Memory,
) (*types.ActionResult, error) {
	if a.HandleFn == nil {
		return nil, nil
	}
	return a.HandleFn(ctx, rt, msg, state, opts, callback, responses)
}

// ProviderFunc builds a Provider from a function.
type ProviderFunc struct {
	ProviderName        string
	ProviderDescription string
	Opts                ProviderFlags
	GetFn               GetFunc
}

var _ Provider = (*ProviderFunc)(nil)

func (p *ProviderFunc) Name() string         { return p.ProviderName }
func (p *ProviderFunc) Description() string  { return p.ProviderDescription }
func (p *ProviderFunc) Flags() ProviderFlags { return p.Opts }

func (p *ProviderFunc) Get(ctx context.Context, rt Runtime, msg *types.Memory, state *types.State) (*types.ProviderResult, error) {
	if p.GetFn == nil {
		return &types.ProviderResult{}, nil
	}
	return p.GetFn(ctx, rt, msg, state)
}

// EvaluatorFunc builds an Evaluator from functions.
type EvaluatorFunc struct {
	ActionFunc
	EvalPhase EvaluatorPhase
	Always    bool
}

var _ Evaluator = (*EvaluatorFunc)(nil)

func (e *EvaluatorFunc) Phase() EvaluatorPhase {
	if e.EvalPhase == "" {
		return PhasePost
	}
	return e.EvalPhase
}

func (e *EvaluatorFunc) AlwaysRun() bool { return e.Always }
