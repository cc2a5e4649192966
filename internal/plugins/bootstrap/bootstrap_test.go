// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package bootstrap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sigil-dev/bridge/internal/host"
	"github.com/sigil-dev/bridge/internal/plugins/bootstrap"
	"github.com/sigil-dev/bridge/internal/runtime"
	"github.com/sigil-dev/bridge/internal/store"
	"github.com/sigil-dev/bridge/internal/store/memory"
	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/plugin"
	"github.com/sigil-dev/bridge/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*runtime.Shim, *host.Manager) {
	t.Helper()
	ctx := context.Background()

	rt, err := runtime.New(runtime.Options{
		Store: memory.New(store.Config{}),
		Character: &types.Character{
			Name: "Ada",
			Bio:  []string{"Ada is an analyst.", "Ada likes tidy data."},
		},
		Settings:  map[string]any{bootstrap.SettingSchedulerInterval: "0"},
		Secrets:   map[string]any{"API_KEY": "sk-live-123456"},
		LookupEnv: func(string) (string, bool) { return "", false },
	})
	require.NoError(t, err)
	require.NoError(t, rt.Initialize(ctx))

	m, err := host.LoadPlugins(ctx, rt, []string{bootstrap.Name})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = m.Stop(context.Background())
		_ = rt.Close()
	})
	return rt, m
}

func receive(t *testing.T, rt *runtime.Shim, msg *types.Memory) {
	t.Helper()
	err := rt.EmitEvent(context.Background(), bootstrap.MessageReceived{Runtime: rt, Message: msg}, plugin.EventMessageReceived)
	require.NoError(t, err)
}

func TestPlugin_Registered(t *testing.T) {
	assert.Contains(t, host.PluginNames(), bootstrap.Name)
	require.NoError(t, bootstrap.New().Validate())
}

func TestProviders_DefaultComposition(t *testing.T) {
	rt, _ := setup(t)

	state, err := rt.ComposeState(context.Background(), &types.Memory{ID: "m-default", RoomID: "room-1"}, plugin.ComposeOptions{})
	require.NoError(t, err)

	assert.Equal(t, "TIME, CHARACTER", state.Values[runtime.ValueProviderNames])
	assert.Contains(t, state.Text, "The current date and time is ")
	assert.Contains(t, state.Text, "# About Ada\nAda is an analyst.\nAda likes tidy data.")
	assert.NotContains(t, state.Text, "Known facts")
	assert.Equal(t, "REMEMBER", state.Values[runtime.ValueActionNames])
}

func TestRecentMessages_NewestFirst(t *testing.T) {
	rt, _ := setup(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	receive(t, rt, &types.Memory{EntityID: "user-1", RoomID: "room-1", Content: types.Content{Text: "first"}, CreatedAt: base})
	receive(t, rt, &types.Memory{EntityID: rt.AgentID(), RoomID: "room-1", Content: types.Content{Text: "second"}, CreatedAt: base.Add(time.Second)})
	receive(t, rt, &types.Memory{EntityID: "user-1", RoomID: "room-1", Content: types.Content{Text: "third"}, CreatedAt: base.Add(2 * time.Second)})
	receive(t, rt, &types.Memory{EntityID: "user-2", RoomID: "room-2", Content: types.Content{Text: "elsewhere"}, CreatedAt: base})

	n, err := rt.CountMemories(context.Background(), "room-1", false, types.TableMessages)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	state, err := rt.ComposeState(context.Background(), &types.Memory{ID: "m-recent", RoomID: "room-1"},
		plugin.ComposeOptions{IncludeList: []string{bootstrap.ProviderRecentMessages}})
	require.NoError(t, err)
	assert.Equal(t, "user-1: third\nAda: second\nuser-1: first", state.Text)
}

func TestMessageReceived_InvalidPayload(t *testing.T) {
	rt, _ := setup(t)

	err := rt.EmitEvent(context.Background(), "not a message", plugin.EventMessageReceived)
	require.Error(t, err)
	assert.True(t, sigilerr.IsInvalidInput(err))
}

func TestMessageReceived_EnsuresConnection(t *testing.T) {
	rt, _ := setup(t)
	ctx := context.Background()

	err := rt.EmitEvent(ctx, &bootstrap.MessageReceived{
		Runtime: rt,
		Message: &types.Memory{EntityID: "user-9", RoomID: "room-9", Content: types.Content{Text: "hi"}},
		Connection: &types.ConnectionParams{
			EntityID: "user-9",
			RoomID:   "room-9",
			UserName: "nine",
			Source:   "test",
		},
	}, plugin.EventMessageReceived)
	require.NoError(t, err)

	ok, err := rt.IsRoomParticipant(ctx, "room-9", "user-9")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRemember_StoresFactAndServesIt(t *testing.T) {
	rt, m := setup(t)
	ctx := context.Background()

	tool, err := m.Tool(bootstrap.ActionRemember)
	require.NoError(t, err)
	assert.Equal(t, []string{"NOTE", "MEMORIZE"}, tool.Similes)

	out, err := tool.Execute(ctx, host.ToolInput{Text: "  The deploy window is Friday.  ", RoomID: "room-1", EntityID: "user-1"})
	require.NoError(t, err)
	assert.True(t, out.Success)
	require.Len(t, out.Responses, 1)
	assert.Equal(t, "I'll remember that.", out.Responses[0].Text)

	factID, ok := out.Values["factId"].(string)
	require.True(t, ok)
	fact, err := rt.GetMemoryByID(ctx, factID)
	require.NoError(t, err)
	require.NotNil(t, fact)
	assert.Equal(t, "The deploy window is Friday.", fact.Content.Text)
	assert.True(t, fact.Unique)

	// FACTS is private: it only runs when named.
	state, err := rt.ComposeState(ctx, &types.Memory{ID: "m-facts", RoomID: "room-1"},
		plugin.ComposeOptions{IncludeList: []string{bootstrap.ProviderFacts}})
	require.NoError(t, err)
	assert.Equal(t, "# Known facts\n- The deploy window is Friday.", state.Text)
	assert.Equal(t, 1, state.Values["factCount"])

	routes := m.Routes()
	require.Len(t, routes, 1)
	rec := httptest.NewRecorder()
	routes[0].Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bootstrap/facts?roomId=room-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body bootstrap.FactsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Facts, 1)
	assert.Equal(t, factID, body.Facts[0].ID)
	assert.Equal(t, "user-1", body.Facts[0].EntityID)
}

func TestRemember_OptionOverridesText(t *testing.T) {
	rt, m := setup(t)
	tool, err := m.Tool(bootstrap.ActionRemember)
	require.NoError(t, err)

	out, err := tool.Execute(context.Background(), host.ToolInput{
		Text:   "please remember this",
		Params: map[string]any{"fact": "Bob prefers tea"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bob prefers tea", out.Values["fact"])

	n, err := rt.CountMemories(context.Background(), "", false, types.TableFacts)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRemember_EmptyInputRejected(t *testing.T) {
	_, m := setup(t)
	tool, err := m.Tool(bootstrap.ActionRemember)
	require.NoError(t, err)

	_, err = tool.Execute(context.Background(), host.ToolInput{Text: "   "})
	require.Error(t, err)
	assert.True(t, sigilerr.HasCode(err, sigilerr.CodeHostToolRejected))
}

func TestFactsRoute_InvalidCount(t *testing.T) {
	_, m := setup(t)
	rec := httptest.NewRecorder()
	m.Routes()[0].Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bootstrap/facts?count=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "count must be a non-negative integer")
}

func TestReflection_LogsRedactedTurn(t *testing.T) {
	rt, m := setup(t)
	ctx := context.Background()

	var reflection host.Hook
	for _, h := range m.Hooks(host.AfterTurn) {
		if h.Name == bootstrap.EvaluatorReflection {
			reflection = h
		}
	}
	require.NotNil(t, reflection.Run)

	turn := &host.Turn{
		Message: &types.Memory{ID: "m-1", EntityID: "user-1", RoomID: "room-1", Content: types.Content{Text: "my key is sk-live-123456"}},
		Responses: []*types.Memory{
			{Content: types.Content{Text: "noted"}},
		},
	}
	_, err := reflection.Run(ctx, turn)
	require.NoError(t, err)

	logs, err := rt.GetLogs(ctx, types.LogQuery{Type: bootstrap.LogTypeReflection})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "room-1", logs[0].RoomID)
	assert.Equal(t, "my key is [REDACTED]", logs[0].Body["text"])
	assert.Equal(t, []string{"noted"}, logs[0].Body["responses"])

	// Turns without a room are not reflected on.
	_, err = reflection.Run(ctx, &host.Turn{Message: &types.Memory{ID: "m-2"}})
	require.NoError(t, err)
	logs, err = rt.GetLogs(ctx, types.LogQuery{Type: bootstrap.LogTypeReflection})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestScheduler_TickFiresDueTasks(t *testing.T) {
	rt, _ := setup(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	svc, ok := rt.GetService(bootstrap.SchedulerServiceType).(*bootstrap.Scheduler)
	require.True(t, ok)
	assert.Zero(t, svc.Interval())

	oneShot, err := rt.CreateTask(ctx, &types.Task{
		Name: "one-shot", Tags: []string{bootstrap.TagQueue},
		Metadata: map[string]any{bootstrap.MetaDueAt: now.Add(-time.Minute)},
	})
	require.NoError(t, err)
	repeating, err := rt.CreateTask(ctx, &types.Task{
		Name: "repeating", Tags: []string{bootstrap.TagQueue, bootstrap.TagRepeat},
		Metadata: map[string]any{
			bootstrap.MetaDueAt:          now.Add(-time.Hour).Format(time.RFC3339),
			bootstrap.MetaUpdateInterval: "1h",
		},
	})
	require.NoError(t, err)
	future, err := rt.CreateTask(ctx, &types.Task{
		Name: "future", Tags: []string{bootstrap.TagQueue},
		Metadata: map[string]any{bootstrap.MetaDueAt: now.Add(time.Hour)},
	})
	require.NoError(t, err)
	_, err = rt.CreateTask(ctx, &types.Task{Name: "unqueued"})
	require.NoError(t, err)

	due, err := svc.Due(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "repeating", due[0].Name, "earliest due first")
	assert.Equal(t, "one-shot", due[1].Name)

	var fired []string
	rt.RegisterEvent(bootstrap.EventTaskDue, func(_ context.Context, p any) error {
		fired = append(fired, p.(*types.Task).Name)
		return nil
	})

	n, err := svc.Tick(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"repeating", "one-shot"}, fired)

	gone, err := rt.GetTask(ctx, oneShot)
	require.NoError(t, err)
	assert.Nil(t, gone)

	again, err := rt.GetTask(ctx, repeating)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, now.Add(time.Hour), again.Metadata[bootstrap.MetaDueAt])

	still, err := rt.GetTask(ctx, future)
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestScheduler_BackgroundLoopStops(t *testing.T) {
	rt, err := runtime.New(runtime.Options{
		Store:     memory.New(store.Config{}),
		Character: &types.Character{Name: "Ada"},
		Settings:  map[string]any{bootstrap.SettingSchedulerInterval: "10ms"},
		LookupEnv: func(string) (string, bool) { return "", false },
	})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, rt.Initialize(ctx))

	fired := make(chan string, 1)
	rt.RegisterEvent(bootstrap.EventTaskDue, func(_ context.Context, p any) error {
		select {
		case fired <- p.(*types.Task).Name:
		default:
		}
		return nil
	})
	require.NoError(t, rt.RegisterPlugin(ctx, bootstrap.New()))

	_, err = rt.CreateTask(ctx, &types.Task{Name: "now", Tags: []string{bootstrap.TagQueue}})
	require.NoError(t, err)

	select {
	case name := <-fired:
		assert.Equal(t, "now", name)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not fire the due task")
	}

	svc := rt.GetService(bootstrap.SchedulerServiceType).(*bootstrap.Scheduler)
	assert.Equal(t, 10*time.Millisecond, svc.Interval())
	require.NoError(t, rt.Stop(ctx))
	require.NoError(t, svc.Stop(ctx), "stopping twice is harmless")
}

func TestCharacterProvider_Values(t *testing.T) {
	rt, _ := setup(t)
	state, err := rt.ComposeState(context.Background(), &types.Memory{ID: "m-char"},
		plugin.ComposeOptions{IncludeList: []string{bootstrap.ProviderCharacter}})
	require.NoError(t, err)
	assert.Equal(t, "Ada is an analyst.\nAda likes tidy data.", state.Values["bio"])
	assert.True(t, strings.HasPrefix(state.Text, "# About Ada"))
}
