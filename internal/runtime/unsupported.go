// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package runtime

import (
	"context"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/plugin"
	"github.com/sigil-dev/bridge/pkg/types"
)

func notImplemented(method string) error {
	return sigilerr.New(sigilerr.CodeRuntimeNotImplemented,
		"runtime method "+method+" is not supported by this host",
		sigilerr.FieldMethod(method))
}

func (s *Shim) UseModel(context.Context, string, map[string]any) (any, error) {
	return nil, notImplemented("UseModel")
}

func (s *Shim) GenerateText(context.Context, string, map[string]any) (string, error) {
	return "", notImplemented("GenerateText")
}

func (s *Shim) DynamicPromptExecFromState(context.Context, *types.State, map[string]any) (map[string]any, error) {
	return nil, notImplemented("DynamicPromptExecFromState")
}

func (s *Shim) ProcessActions(context.Context, *types.Memory, []*types.Memory, *types.State, plugin.HandlerCallback) error {
	return notImplemented("ProcessActions")
}

func (s *Shim) Evaluate(context.Context, *types.Memory, *types.State, bool, plugin.HandlerCallback, []*types.Memory) ([]plugin.Evaluator, error) {
	return nil, notImplemented("Evaluate")
}

// AddEmbeddingToMemory returns mem unchanged. No embedding model is
// available, so memories keep whatever embedding the caller supplied.
func (s *Shim) AddEmbeddingToMemory(_ context.Context, mem *types.Memory) (*types.Memory, error) {
	return mem, nil
}
