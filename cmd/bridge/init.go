// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sigil-dev/bridge/internal/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		Long:  "Write the default configuration to --config, or ~/.config/bridge/bridge.yaml. An existing file is left untouched.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}

	wrote, err := config.WriteDefaultConfig(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !wrote {
		_, _ = fmt.Fprintf(out, "Config already exists at %s\n", path)
		return nil
	}
	_, _ = fmt.Fprintf(out, "Wrote default config to %s\n", path)
	return nil
}
