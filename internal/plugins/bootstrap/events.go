// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package bootstrap

import (
	"context"
	"log/slog"
	"time"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/plugin"
	"github.com/sigil-dev/bridge/pkg/types"
)

// MessageReceived is the MESSAGE_RECEIVED payload the plugin handles.
type MessageReceived struct {
	Runtime plugin.Runtime
	Message *types.Memory
	// Connection, when set, is ensured before the message is stored.
	Connection *types.ConnectionParams
}

// onMessageReceived stores the inbound message in the messages table.
func onMessageReceived(ctx context.Context, params any) error {
	ev, ok := params.(MessageReceived)
	if !ok {
		p, isPtr := params.(*MessageReceived)
		if !isPtr || p == nil {
			return sigilerr.Errorf(sigilerr.CodeRuntimeMessageInvalid, "unexpected %s payload %T", plugin.EventMessageReceived, params)
		}
		ev = *p
	}
	if ev.Runtime == nil || ev.Message == nil {
		return sigilerr.New(sigilerr.CodeRuntimeMessageInvalid, "message event needs a runtime and a message")
	}

	if ev.Connection != nil {
		if err := ev.Runtime.EnsureConnection(ctx, *ev.Connection); err != nil {
			return err
		}
	}

	msg := ev.Message
	if msg.AgentID == "" {
		msg.AgentID = ev.Runtime.AgentID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	id, err := ev.Runtime.CreateMemory(ctx, msg, types.TableMessages, false)
	if err != nil {
		return err
	}
	msg.ID = id

	slog.Debug("bootstrap: message stored", "message", id, "room", msg.RoomID)
	return nil
}
