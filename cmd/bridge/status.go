// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/sigil-dev/bridge/internal/server"
	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running agent's status",
		Long:  "Query a running agent's status endpoint and display its plugins and capabilities.",
		RunE:  runStatus,
	}

	cmd.Flags().String("address", defaultAddress, "agent address to check")

	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	out := cmd.OutOrStdout()

	var body server.StatusBody
	if err := newAgentClient(addr).getJSON("/v1/status", &body); err != nil {
		if sigilerr.HasCode(err, sigilerr.CodeCLIAgentNotRunning) {
			_, _ = fmt.Fprintf(out, "Agent at %s is not running (connection refused)\n", addr)
			return nil
		}
		return err
	}

	_, _ = fmt.Fprintf(out, "Agent %s (%s) at %s\n", body.Name, body.AgentID, addr)
	_, _ = fmt.Fprintf(out, "  actions: %d  providers: %d  evaluators: %d  services: %d\n",
		body.Actions, body.Providers, body.Evaluators, body.Services)
	if len(body.ServiceTypes) > 0 {
		_, _ = fmt.Fprintf(out, "  service types: %s\n", strings.Join(body.ServiceTypes, ", "))
	}
	plugins := lo.Map(body.Plugins, func(p server.PluginStatus, _ int) string {
		return p.Name + " (" + p.State + ")"
	})
	_, _ = fmt.Fprintf(out, "  plugins: %s\n", strings.Join(plugins, ", "))
	for _, p := range body.Plugins {
		if p.Error != "" {
			_, _ = fmt.Fprintf(out, "  %s failed: %s\n", p.Name, p.Error)
		}
	}
	return nil
}
