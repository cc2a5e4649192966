// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package host converts plugin capabilities into the host's own shapes:
// actions become tools, providers and evaluators become turn hooks, and
// plugin routes become HTTP routes. It also keeps the compile-time plugin
// registry and the manager that loads plugins into a runtime.
package host

import (
	"context"
	"maps"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/plugin"
	"github.com/sigil-dev/bridge/pkg/types"
)

// --- Tools ---

// ToolInput is one invocation of a tool.
type ToolInput struct {
	Text     string         `json:"text"`
	EntityID string         `json:"entityId,omitempty"`
	RoomID   string         `json:"roomId,omitempty"`
	WorldID  string         `json:"worldId,omitempty"`
	Source   string         `json:"source,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
}

// ToolOutput is the outcome of a tool invocation.
type ToolOutput struct {
	MessageID string          `json:"messageId"`
	Success   bool            `json:"success"`
	Text      string          `json:"text,omitempty"`
	Values    map[string]any  `json:"values,omitempty"`
	Data      map[string]any  `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	Responses []types.Content `json:"responses,omitempty"`
}

// Tool is an action exposed to the host.
type Tool struct {
	Name        string
	Description string
	Similes     []string
	Parameters  map[string]any
	Execute     func(ctx context.Context, input ToolInput) (*ToolOutput, error)
}

// ActionEvent is the payload of ACTION_STARTED and ACTION_COMPLETED.
type ActionEvent struct {
	Action    string
	MessageID string
	RoomID    string
	Result    *types.ActionResult
}

// ToolFromAction wraps action as a tool. Each call builds a message from
// the input, composes state, validates, then runs the handler. Validation
// refusal is a host.tool.validate.invalid error; handler errors are
// returned unchanged.
func ToolFromAction(rt plugin.Runtime, action plugin.Action) Tool {
	t := Tool{
		Name:        action.Name(),
		Description: action.Description(),
	}
	if s, ok := action.(plugin.Similes); ok {
		t.Similes = s.Similes()
	}
	if p, ok := action.(plugin.ParameterSchema); ok {
		t.Parameters = p.Parameters()
	}
	t.Execute = func(ctx context.Context, input ToolInput) (*ToolOutput, error) {
		return runAction(ctx, rt, action, input)
	}
	return t
}

func runAction(ctx context.Context, rt plugin.Runtime, action plugin.Action, input ToolInput) (*ToolOutput, error) {
	name := action.Name()
	msg := messageFor(rt, input)

	state, err := rt.ComposeState(ctx, msg, plugin.ComposeOptions{})
	if err != nil {
		return nil, err
	}
	ok, err := action.Validate(ctx, rt, msg, state)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, sigilerr.New(sigilerr.CodeHostToolRejected, "action refused the input", sigilerr.FieldTool(name))
	}

	if err := rt.EmitEvent(ctx, ActionEvent{Action: name, MessageID: msg.ID, RoomID: msg.RoomID}, plugin.EventActionStarted); err != nil {
		return nil, err
	}

	var (
		mu        sync.Mutex
		responses []types.Content
	)
	callback := func(_ context.Context, c types.Content) ([]*types.Memory, error) {
		mu.Lock()
		defer mu.Unlock()
		responses = append(responses, c)
		return nil, nil
	}

	result, err := action.Handle(ctx, rt, msg, state, plugin.HandlerOptions(maps.Clone(input.Params)), callback, nil)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &types.ActionResult{Success: true}
	}
	if result.Action == "" {
		result.Action = name
	}
	rt.AddActionResult(msg.ID, *result)

	if err := rt.EmitEvent(ctx, ActionEvent{Action: name, MessageID: msg.ID, RoomID: msg.RoomID, Result: result}, plugin.EventActionCompleted); err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	return &ToolOutput{
		MessageID: msg.ID,
		Success:   result.Success,
		Text:      result.Text,
		Values:    result.Values,
		Data:      result.Data,
		Error:     result.Error,
		Responses: responses,
	}, nil
}

// messageFor builds the inbound message for a tool call. Missing entity
// and room ids fall back to the agent's own id.
func messageFor(rt plugin.Runtime, input ToolInput) *types.Memory {
	entityID := input.EntityID
	if entityID == "" {
		entityID = rt.AgentID()
	}
	roomID := input.RoomID
	if roomID == "" {
		roomID = rt.AgentID()
	}
	return &types.Memory{
		ID:       uuid.NewString(),
		EntityID: entityID,
		AgentID:  rt.AgentID(),
		RoomID:   roomID,
		WorldID:  input.WorldID,
		Content: types.Content{
			Text:   input.Text,
			Source: input.Source,
			Data:   maps.Clone(input.Params),
		},
		CreatedAt: time.Now(),
	}
}

// --- Hooks ---

// HookPhase selects when a hook runs in the host's turn loop.
type HookPhase string

const (
	BeforeTurn HookPhase = "before_turn"
	AfterTurn  HookPhase = "after_turn"
)

// Turn is what the host knows about the turn a hook runs in.
type Turn struct {
	Message   *types.Memory
	State     *types.State
	Responses []*types.Memory
}

// HookResult is a hook's contribution to the turn. Context is appended to
// the host's prompt context.
type HookResult struct {
	Context string
}

// Hook runs at a fixed point of every turn.
type Hook struct {
	Name  string
	Phase HookPhase
	Run   func(ctx context.Context, turn *Turn) (*HookResult, error)
}

// HookFromProvider runs p before every turn and contributes its text.
func HookFromProvider(rt plugin.Runtime, p plugin.Provider) Hook {
	return Hook{
		Name:  p.Name(),
		Phase: BeforeTurn,
		Run: func(ctx context.Context, turn *Turn) (*HookResult, error) {
			res, err := p.Get(ctx, rt, turn.Message, stateOf(turn))
			if err != nil {
				return nil, sigilerr.Wrap(err, sigilerr.CodeHostHookFailure, "provider hook failed",
					sigilerr.Field("provider", p.Name()))
			}
			if res == nil {
				return &HookResult{}, nil
			}
			return &HookResult{Context: res.Text}, nil
		},
	}
}

// HookFromEvaluator runs e at its phase. The handler only runs when
// Validate accepts the turn or the evaluator is flagged AlwaysRun; handler
// errors are returned unchanged.
func HookFromEvaluator(rt plugin.Runtime, e plugin.Evaluator) Hook {
	phase := AfterTurn
	if e.Phase() == plugin.PhasePre {
		phase = BeforeTurn
	}
	return Hook{
		Name:  e.Name(),
		Phase: phase,
		Run: func(ctx context.Context, turn *Turn) (*HookResult, error) {
			state := stateOf(turn)
			ok, err := e.Validate(ctx, rt, turn.Message, state)
			if err != nil {
				return nil, err
			}
			if !ok && !e.AlwaysRun() {
				return &HookResult{}, nil
			}
			res, err := e.Handle(ctx, rt, turn.Message, state, nil, nil, turn.Responses)
			if err != nil {
				return nil, err
			}
			if res == nil {
				return &HookResult{}, nil
			}
			return &HookResult{Context: res.Text}, nil
		},
	}
}

func stateOf(turn *Turn) *types.State {
	if turn.State == nil {
		turn.State = types.NewState()
	}
	return turn.State
}

// --- Routes ---

// HTTPRoute is a plugin route ready to mount on the host's router.
type HTTPRoute struct {
	Name    string
	Method  string
	Path    string
	Public  bool
	Handler http.Handler
}

// RouteFromPluginRoute binds r to rt. STATIC routes are served as GET.
func RouteFromPluginRoute(rt plugin.Runtime, r plugin.Route) HTTPRoute {
	method := strings.ToUpper(r.Method)
	if method == "STATIC" {
		method = http.MethodGet
	}
	handler := r.Handler
	return HTTPRoute{
		Name:   r.Name,
		Method: method,
		Path:   r.Path,
		Public: r.Public,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			handler(w, req, rt)
		}),
	}
}
