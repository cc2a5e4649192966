// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sigil-dev/bridge/pkg/plugin"
	"github.com/sigil-dev/bridge/pkg/types"
)

// Provider names.
const (
	ProviderTime           = "TIME"
	ProviderCharacter      = "CHARACTER"
	ProviderRecentMessages = "RECENT_MESSAGES"
	ProviderFacts          = "FACTS"
)

// DefaultFactCount bounds the facts the FACTS provider lists.
const DefaultFactCount = 10

func timeProvider() plugin.Provider {
	return &plugin.ProviderFunc{
		ProviderName:        ProviderTime,
		ProviderDescription: "The current date and time in UTC",
		GetFn: func(context.Context, plugin.Runtime, *types.Memory, *types.State) (*types.ProviderResult, error) {
			now := time.Now().UTC()
			return &types.ProviderResult{
				Text:   "The current date and time is " + now.Format(time.RFC1123) + ".",
				Values: map[string]any{"time": now.Format(time.RFC3339)},
			}, nil
		},
	}
}

func characterProvider() plugin.Provider {
	return &plugin.ProviderFunc{
		ProviderName:        ProviderCharacter,
		ProviderDescription: "The agent's name, system prompt and biography",
		GetFn: func(_ context.Context, rt plugin.Runtime, _ *types.Memory, _ *types.State) (*types.ProviderResult, error) {
			c := rt.Character()
			var b strings.Builder
			fmt.Fprintf(&b, "# About %s", c.Name)
			for _, line := range c.Bio {
				b.WriteString("\n" + line)
			}
			return &types.ProviderResult{
				Text: b.String(),
				Values: map[string]any{
					"bio":    strings.Join(c.Bio, "\n"),
					"system": c.System,
				},
			}, nil
		},
	}
}

func recentMessagesProvider() plugin.Provider {
	return &plugin.ProviderFunc{
		ProviderName:        ProviderRecentMessages,
		ProviderDescription: "Recent messages in the current room, newest first",
		Opts:                plugin.ProviderFlags{Dynamic: true},
		GetFn: func(ctx context.Context, rt plugin.Runtime, msg *types.Memory, _ *types.State) (*types.ProviderResult, error) {
			mems, err := rt.GetMemories(ctx, types.MemoryQuery{
				TableName: types.TableMessages,
				RoomID:    msg.RoomID,
				Count:     rt.ConversationLength(),
			})
			if err != nil {
				return nil, err
			}

			lines := make([]string, 0, len(mems))
			for _, m := range mems {
				if m.Content.Text == "" {
					continue
				}
				lines = append(lines, speaker(rt, m)+": "+m.Content.Text)
			}
			text := strings.Join(lines, "\n")
			return &types.ProviderResult{
				Text:   text,
				Values: map[string]any{"recentMessages": text},
				Data:   map[string]any{"recentMessages": mems},
			}, nil
		},
	}
}

func speaker(rt plugin.Runtime, m *types.Memory) string {
	if m.EntityID == rt.AgentID() {
		return rt.Character().Name
	}
	return m.EntityID
}

func factsProvider() plugin.Provider {
	return &plugin.ProviderFunc{
		ProviderName:        ProviderFacts,
		ProviderDescription: "Facts remembered in the current room",
		Opts:                plugin.ProviderFlags{Private: true, AlwaysRun: true},
		GetFn: func(ctx context.Context, rt plugin.Runtime, msg *types.Memory, _ *types.State) (*types.ProviderResult, error) {
			facts, err := rt.GetMemories(ctx, types.MemoryQuery{
				TableName: types.TableFacts,
				RoomID:    msg.RoomID,
				Count:     DefaultFactCount,
			})
			if err != nil {
				return nil, err
			}
			if len(facts) == 0 {
				return &types.ProviderResult{Values: map[string]any{"factCount": 0}}, nil
			}

			var b strings.Builder
			b.WriteString("# Known facts")
			for _, f := range facts {
				b.WriteString("\n- " + f.Content.Text)
			}
			return &types.ProviderResult{
				Text:   b.String(),
				Values: map[string]any{"factCount": len(facts)},
				Data:   map[string]any{"facts": facts},
			}, nil
		},
	}
}
