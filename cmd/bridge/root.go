// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/sigil-dev/bridge/internal/config"
	"github.com/sigil-dev/bridge/internal/secrets"

	// Compiled-in plugins and store backends.
	_ "github.com/sigil-dev/bridge/internal/plugins/bootstrap"
	_ "github.com/sigil-dev/bridge/internal/store/memory"
)

// secretStoreFactory creates a secrets.Store. It is a package-level variable
// so tests can substitute a mock implementation.
var secretStoreFactory = func() secrets.Store {
	return secrets.NewKeyringStore()
}

// NewRootCmd creates the root bridge command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bridge",
		Short:         "Bridge runs an agent and hosts its plugins",
		Long:          "Bridge loads an agent character and its plugins into an in-process runtime and serves tools and plugin routes over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file (default ~/.config/bridge/bridge.yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newInitCmd(),
		newServeCmd(),
		newStatusCmd(),
		newToolCmd(),
		newInspectCmd(),
		newSecretCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig loads the config named by --config, or the default file when
// one exists. Keyring references are resolved through secretStoreFactory.
// It also returns the path that was read, empty for defaults only.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	explicit, _ := cmd.Flags().GetString("config")
	path := config.ResolvePath(explicit)

	cfg, err := config.Load(path, config.WithSecretStore(secretStoreFactory()))
	if err != nil {
		return nil, path, err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, path, nil
}
