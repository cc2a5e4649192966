// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package server

import (
	"context"
	"log/slog"
	"net/http"
	"path"

	"github.com/danielgtaylor/huma/v2"
	"github.com/samber/lo"

	"github.com/sigil-dev/bridge/internal/host"
	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
)

// PluginRoutePrefix is where plugin routes are mounted.
const PluginRoutePrefix = "/plugins"

// RegisterServices sets the service dependencies and registers REST routes
// and plugin routes.
func (s *Server) RegisterServices(svc *Services) {
	s.services = svc
	s.registerRoutes()
	s.mountPluginRoutes()
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "agent-status",
		Method:      http.MethodGet,
		Path:        "/v1/status",
		Summary:     "Agent status",
		Tags:        []string{"system"},
	}, s.handleStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-tools",
		Method:      http.MethodGet,
		Path:        "/v1/tools",
		Summary:     "List tools",
		Tags:        []string{"tools"},
	}, s.handleListTools)

	huma.Register(s.api, huma.Operation{
		OperationID: "invoke-tool",
		Method:      http.MethodPost,
		Path:        "/v1/tools/{name}",
		Summary:     "Invoke a tool",
		Tags:        []string{"tools"},
	}, s.handleInvokeTool)
}

// mountPluginRoutes serves each running plugin's routes below
// PluginRoutePrefix. Later plugins win on a path collision.
func (s *Server) mountPluginRoutes() {
	for _, r := range s.services.Plugins().Routes() {
		pattern := path.Join(PluginRoutePrefix, r.Path)
		slog.Debug("mounting plugin route", "name", r.Name, "method", r.Method, "path", pattern, "public", r.Public)
		s.router.Method(r.Method, pattern, r.Handler)
	}
}

// --- Request/Response types for huma ---

// PluginStatus is one loaded plugin.
type PluginStatus struct {
	Name  string `json:"name"`
	State string `json:"state" example:"running"`
	Error string `json:"error,omitempty"`
}

// StatusBody describes the running agent.
type StatusBody struct {
	AgentID      string         `json:"agentId"`
	Name         string         `json:"name"`
	Actions      int            `json:"actions"`
	Providers    int            `json:"providers"`
	Evaluators   int            `json:"evaluators"`
	Services     int            `json:"services" doc:"Number of running service instances"`
	ServiceTypes []string       `json:"serviceTypes"`
	Plugins      []PluginStatus `json:"plugins"`
}

type statusOutput struct {
	Body StatusBody
}

// ToolSummary describes one tool.
type ToolSummary struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Similes     []string       `json:"similes,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type listToolsOutput struct {
	Body struct {
		Tools []ToolSummary `json:"tools"`
	}
}

type invokeToolInput struct {
	Name string `path:"name"`
	Body host.ToolInput
}

type invokeToolOutput struct {
	Body *host.ToolOutput
}

// --- Handlers ---

func (s *Server) handleStatus(_ context.Context, _ *struct{}) (*statusOutput, error) {
	rt := s.services.Runtime()

	out := &statusOutput{}
	out.Body.AgentID = rt.AgentID()
	if c := rt.Character(); c != nil {
		out.Body.Name = c.Name
	}
	out.Body.Actions = len(rt.Actions())
	out.Body.Providers = len(rt.Providers())
	out.Body.Evaluators = len(rt.Evaluators())
	for _, svcs := range rt.GetAllServices() {
		out.Body.Services += len(svcs)
	}
	out.Body.ServiceTypes = rt.GetRegisteredServiceTypes()

	out.Body.Plugins = lo.Map(s.services.Plugins().List(), func(inst *host.Instance, _ int) PluginStatus {
		st := PluginStatus{Name: inst.Name(), State: inst.State().String()}
		if err := inst.Err(); err != nil {
			st.Error = err.Error()
		}
		return st
	})
	return out, nil
}

func (s *Server) handleListTools(_ context.Context, _ *struct{}) (*listToolsOutput, error) {
	out := &listToolsOutput{}
	out.Body.Tools = lo.Map(s.services.Plugins().Tools(), func(t host.Tool, _ int) ToolSummary {
		return ToolSummary{
			Name:        t.Name,
			Description: t.Description,
			Similes:     t.Similes,
			Parameters:  t.Parameters,
		}
	})
	return out, nil
}

func (s *Server) handleInvokeTool(ctx context.Context, input *invokeToolInput) (*invokeToolOutput, error) {
	tool, err := s.services.Plugins().Tool(input.Name)
	if err != nil {
		return nil, toHTTPError(err, "invoke-tool")
	}
	result, err := tool.Execute(ctx, input.Body)
	if err != nil {
		return nil, toHTTPError(err, "invoke-tool")
	}
	return &invokeToolOutput{Body: result}, nil
}

// toHTTPError maps a domain error to a huma status error. Unclassified
// failures are logged and reported without detail.
func toHTTPError(err error, operation string) error {
	status := sigilerr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "operation", operation, "code", sigilerr.CodeOf(err), "error", err)
		return huma.Error500InternalServerError("internal error")
	}
	return huma.NewError(status, err.Error())
}
