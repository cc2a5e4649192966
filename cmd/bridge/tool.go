// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/sigil-dev/bridge/internal/host"
	"github.com/sigil-dev/bridge/internal/server"
	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
)

func newToolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "List and invoke a running agent's tools",
	}

	cmd.PersistentFlags().String("address", defaultAddress, "agent address")

	cmd.AddCommand(
		newToolListCmd(),
		newToolInvokeCmd(),
	)

	return cmd
}

func newToolListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tools the agent exposes",
		RunE:  runToolList,
	}
}

func newToolInvokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoke <name> <text>",
		Short: "Invoke a tool with a message text",
		Args:  cobra.ExactArgs(2),
		RunE:  runToolInvoke,
	}

	cmd.Flags().String("room", "", "room id of the message")
	cmd.Flags().String("entity", "", "entity id of the sender")
	cmd.Flags().StringToString("param", nil, "handler option as key=value (repeatable)")

	return cmd
}

func runToolList(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")

	var body struct {
		Tools []server.ToolSummary `json:"tools"`
	}
	if err := newAgentClient(addr).getJSON("/v1/tools", &body); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(body.Tools) == 0 {
		_, _ = fmt.Fprintln(out, "No tools available.")
		return nil
	}
	for _, t := range body.Tools {
		line := t.Name
		if t.Description != "" {
			line += "\t" + t.Description
		}
		if len(t.Similes) > 0 {
			line += " (also: " + strings.Join(t.Similes, ", ") + ")"
		}
		_, _ = fmt.Fprintln(out, line)
	}
	return nil
}

func runToolInvoke(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("address")
	name, text := args[0], args[1]
	if strings.TrimSpace(name) == "" {
		return sigilerr.New(sigilerr.CodeCLIInputInvalid, "tool name must not be empty")
	}

	input := host.ToolInput{Text: text, Source: "cli"}
	input.RoomID, _ = cmd.Flags().GetString("room")
	input.EntityID, _ = cmd.Flags().GetString("entity")
	if params, _ := cmd.Flags().GetStringToString("param"); len(params) > 0 {
		input.Params = lo.MapValues(params, func(v, _ string) any { return v })
	}

	var output host.ToolOutput
	if err := newAgentClient(addr).postJSON("/v1/tools/"+url.PathEscape(name), input, &output); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range output.Responses {
		if r.Text != "" {
			_, _ = fmt.Fprintln(out, r.Text)
		}
	}
	if output.Text != "" {
		_, _ = fmt.Fprintln(out, output.Text)
	}
	if !output.Success {
		return sigilerr.Errorf(sigilerr.CodeCLIRequestFailure, "tool %s failed: %s", name, output.Error)
	}
	return nil
}
