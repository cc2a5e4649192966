// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sigil-dev/bridge/internal/host"
	"github.com/sigil-dev/bridge/internal/runtime"
	"github.com/sigil-dev/bridge/internal/server"
	"github.com/sigil-dev/bridge/internal/store"
	"github.com/sigil-dev/bridge/internal/store/memory"
	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/types"
)

func main() {
	spec, err := generateSpec(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	outPath := "api/openapi/spec.json"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output dir: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, spec, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing spec: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OpenAPI spec written to %s\n", outPath)
}

// generateSpec registers every API operation against an empty runtime and
// extracts the OpenAPI document huma builds from the Go types. Plugin
// routes are plain handlers and are not part of the document.
func generateSpec(ctx context.Context) ([]byte, error) {
	st := memory.New(store.Config{})
	defer func() { _ = st.Close() }()

	rt, err := runtime.New(runtime.Options{
		Store:     st,
		Character: &types.Character{Name: "openapi"},
	})
	if err != nil {
		return nil, sigilerr.Wrap(err, sigilerr.CodeCLISetupFailure, "creating runtime")
	}
	if err := rt.Initialize(ctx); err != nil {
		return nil, sigilerr.Wrap(err, sigilerr.CodeCLISetupFailure, "initializing runtime")
	}

	svc, err := server.NewServices(rt, host.NewManager(rt))
	if err != nil {
		return nil, sigilerr.Wrap(err, sigilerr.CodeCLISetupFailure, "creating services")
	}

	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"})
	if err != nil {
		return nil, sigilerr.Wrap(err, sigilerr.CodeCLISetupFailure, "creating server")
	}
	srv.RegisterServices(svc)

	return json.MarshalIndent(srv.API().OpenAPI(), "", "  ")
}
