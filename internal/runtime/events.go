// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package runtime

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/plugin"
)

// RegisterEvent appends handler to the handlers of name.
func (s *Shim) RegisterEvent(name string, handler plugin.EventHandler) {
	if handler == nil {
		return
	}
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	s.events[name] = append(s.events[name], handler)
}

// GetEvent returns the handlers registered for name, in registration
// order.
func (s *Shim) GetEvent(name string) []plugin.EventHandler {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	return slices.Clone(s.events[name])
}

// EmitEvent calls the handlers of each name in turn, waiting for each
// before the next. The first handler error stops emission and is
// returned. Names without handlers are skipped.
func (s *Shim) EmitEvent(ctx context.Context, params any, names ...string) error {
	ctx, span := s.tracer.Start(ctx, "Runtime.EmitEvent", trace.WithAttributes(
		attribute.StringSlice("event.names", names),
	))
	defer span.End()

	for _, name := range names {
		for i, h := range s.GetEvent(name) {
			if err := h(ctx, params); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return sigilerr.Wrap(err, sigilerr.CodeRuntimeEventHandlerFailure, "event handler failed",
					sigilerr.Field("event", name), sigilerr.Field("handler_index", i))
			}
		}
	}
	return nil
}
