// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package bootstrap

import (
	"context"
	"strings"
	"time"

	"github.com/sigil-dev/bridge/pkg/plugin"
	"github.com/sigil-dev/bridge/pkg/types"
)

// ActionRemember is the name of the fact-storing action.
const ActionRemember = "REMEMBER"

// rememberAction stores the message text, or the "fact" option when given,
// in the facts table of the message's room.
func rememberAction() plugin.Action {
	return &plugin.ActionFunc{
		ActionName:        ActionRemember,
		ActionDescription: "Store a fact about the conversation for later recall",
		ActionSimiles:     []string{"NOTE", "MEMORIZE"},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"fact": map[string]any{"type": "string", "description": "The fact to remember"},
			},
		},
		ValidateFn: func(_ context.Context, _ plugin.Runtime, msg *types.Memory, _ *types.State) (bool, error) {
			return factText(msg, nil) != "", nil
		},
		HandleFn: func(ctx context.Context, rt plugin.Runtime, msg *types.Memory, _ *types.State,
			opts plugin.HandlerOptions, callback plugin.HandlerCallback, _ []*types.Memory,
		) (*types.ActionResult, error) {
			text := factText(msg, opts)
			id, err := rt.CreateMemory(ctx, &types.Memory{
				EntityID:  msg.EntityID,
				AgentID:   rt.AgentID(),
				RoomID:    msg.RoomID,
				WorldID:   msg.WorldID,
				Content:   types.Content{Text: text, Source: msg.Content.Source},
				CreatedAt: time.Now(),
			}, types.TableFacts, true)
			if err != nil {
				return nil, err
			}

			reply := "I'll remember that."
			if callback != nil {
				if _, err := callback(ctx, types.Content{Text: reply, Actions: []string{ActionRemember}}); err != nil {
					return nil, err
				}
			}
			return &types.ActionResult{
				Success: true,
				Text:    reply,
				Values:  map[string]any{"factId": id, "fact": text},
			}, nil
		},
	}
}

func factText(msg *types.Memory, opts plugin.HandlerOptions) string {
	if fact, ok := opts["fact"].(string); ok && strings.TrimSpace(fact) != "" {
		return strings.TrimSpace(fact)
	}
	if fact, ok := msg.Content.Data["fact"].(string); ok && strings.TrimSpace(fact) != "" {
		return strings.TrimSpace(fact)
	}
	return strings.TrimSpace(msg.Content.Text)
}
