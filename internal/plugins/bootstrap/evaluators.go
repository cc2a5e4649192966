// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package bootstrap

import (
	"context"

	"github.com/sigil-dev/bridge/pkg/plugin"
	"github.com/sigil-dev/bridge/pkg/types"
)

// EvaluatorReflection is the name of the post-turn reflection evaluator.
const EvaluatorReflection = "REFLECTION"

// LogTypeReflection is the log type the reflection evaluator writes.
const LogTypeReflection = "reflection"

// reflectionEvaluator records every completed turn in the log.
func reflectionEvaluator() plugin.Evaluator {
	return &plugin.EvaluatorFunc{
		ActionFunc: plugin.ActionFunc{
			ActionName:        EvaluatorReflection,
			ActionDescription: "Record the outcome of each turn",
			ValidateFn: func(_ context.Context, _ plugin.Runtime, msg *types.Memory, _ *types.State) (bool, error) {
				return msg != nil && msg.RoomID != "", nil
			},
			HandleFn: func(ctx context.Context, rt plugin.Runtime, msg *types.Memory, state *types.State,
				_ plugin.HandlerOptions, _ plugin.HandlerCallback, responses []*types.Memory,
			) (*types.ActionResult, error) {
				replies := make([]string, 0, len(responses))
				for _, r := range responses {
					replies = append(replies, rt.RedactSecrets(r.Content.Text))
				}
				body := map[string]any{
					"messageId": msg.ID,
					"text":      rt.RedactSecrets(msg.Content.Text),
					"responses": replies,
				}
				if state != nil {
					body["providers"] = state.Values["providerNames"]
				}

				err := rt.Log(ctx, types.LogParams{
					EntityID: msg.EntityID,
					RoomID:   msg.RoomID,
					Type:     LogTypeReflection,
					Body:     body,
				})
				if err != nil {
					return nil, err
				}
				return &types.ActionResult{Success: true}, nil
			},
		},
		EvalPhase: plugin.PhasePost,
	}
}
