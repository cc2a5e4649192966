// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
)

// defaultAddress is where a locally served agent listens by default.
const defaultAddress = "127.0.0.1:18790"

// defaultHTTPClient is the package-level HTTP client used by agent commands.
// Overridden in tests via httptest.
var defaultHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// agentClient provides HTTP access to a running agent.
type agentClient struct {
	baseURL string
	http    *http.Client
}

// newAgentClient creates a client targeting the given host:port address.
func newAgentClient(addr string) *agentClient {
	return &agentClient{
		baseURL: "http://" + addr,
		http:    defaultHTTPClient,
	}
}

// getJSON performs a GET request and decodes the JSON response into dest.
func (c *agentClient) getJSON(path string, dest any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return requestError(err)
	}
	return decodeResponse(resp, dest)
}

// postJSON sends body as JSON and decodes the JSON response into dest.
func (c *agentClient) postJSON(path string, body, dest any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return sigilerr.Wrap(err, sigilerr.CodeCLIInputInvalid, "encoding request")
	}
	resp, err := c.http.Post(c.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return requestError(err)
	}
	return decodeResponse(resp, dest)
}

// problem is the error body the agent API returns.
type problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func decodeResponse(resp *http.Response, dest any) error {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		msg := string(body)
		var p problem
		if json.Unmarshal(body, &p) == nil && p.Detail != "" {
			msg = p.Detail
		}
		return sigilerr.Errorf(sigilerr.CodeCLIRequestFailure, "agent returned status %d: %s", resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return sigilerr.Wrap(err, sigilerr.CodeCLIRequestFailure, "invalid response")
	}
	return nil
}

// requestError classifies a transport failure; a refused dial means no
// agent is listening.
func requestError(err error) error {
	if isDialError(err) {
		return sigilerr.Wrap(err, sigilerr.CodeCLIAgentNotRunning, "agent is not running (connection refused)")
	}
	return sigilerr.Wrap(err, sigilerr.CodeCLIRequestFailure, "request failed")
}

// isDialError returns true if err is a net dial error (connection refused, etc.).
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
