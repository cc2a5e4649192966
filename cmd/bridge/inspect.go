// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/sigil-dev/bridge/internal/host"
)

// redacted replaces secret values in inspect output.
const redacted = "********"

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show the resolved configuration without starting the agent",
		Long:  "Load configuration and the character file and print the agent, plugins and settings that serve would use. Secret values are never printed.",
		RunE:  runInspect,
	}
}

func runInspect(cmd *cobra.Command, _ []string) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	source := path
	if source == "" {
		source = "(defaults)"
	}
	c := cfg.Character

	_, _ = fmt.Fprintf(out, "Config:   %s\n", source)
	_, _ = fmt.Fprintf(out, "Agent:    %s\n", c.Name)
	if c.ID != "" {
		_, _ = fmt.Fprintf(out, "ID:       %s\n", c.ID)
	}
	_, _ = fmt.Fprintf(out, "Store:    %s\n", cfg.Store.Backend)
	_, _ = fmt.Fprintf(out, "Listen:   %s\n", cfg.Server.Listen)
	_, _ = fmt.Fprintf(out, "Plugins:  %s\n", strings.Join(pluginLabels(cfg.Plugins), ", "))

	writeValues(out, "Settings", c.Settings, false)
	writeValues(out, "Secrets", c.Secrets, true)
	return nil
}

// pluginLabels marks plugins this binary has no factory for.
func pluginLabels(names []string) []string {
	known := host.PluginNames()
	return lo.Map(names, func(name string, _ int) string {
		if slices.Contains(known, name) {
			return name
		}
		return name + " (not compiled in)"
	})
}

func writeValues(out io.Writer, title string, values map[string]any, secret bool) {
	if len(values) == 0 {
		return
	}
	_, _ = fmt.Fprintf(out, "%s:\n", title)
	keys := lo.Keys(values)
	slices.Sort(keys)
	for _, k := range keys {
		v := fmt.Sprint(values[k])
		if secret {
			v = redacted
		}
		_, _ = fmt.Fprintf(out, "  %s = %s\n", k, v)
	}
}
