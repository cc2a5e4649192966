// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package runtime

import (
	"context"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/plugin"
)

// RegisterService starts an instance of class and injects it.
func (s *Shim) RegisterService(ctx context.Context, class plugin.ServiceClass) error {
	if class == nil {
		return sigilerr.New(sigilerr.CodeRuntimeServiceStartFailure, "service class is nil")
	}
	serviceType := class.ServiceType()
	ctx, span := s.tracer.Start(ctx, "Runtime.RegisterService", trace.WithAttributes(
		attribute.String("service.type", serviceType),
	))
	defer span.End()

	svc, err := class.Start(ctx, s)
	if err == nil && svc == nil {
		err = sigilerr.New(sigilerr.CodeRuntimeServiceStartFailure, "service start returned no instance")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return sigilerr.Wrap(err, sigilerr.CodeRuntimeServiceStartFailure, "starting service",
			sigilerr.FieldServiceType(serviceType))
	}

	s.svcMu.Lock()
	s.classes = append(s.classes, class)
	s.svcMu.Unlock()

	s.InjectService(serviceType, svc)
	if reg, ok := class.(plugin.SendHandlerRegistrar); ok {
		reg.RegisterSendHandlers(s, svc)
	}
	slog.Debug("service started", "service_type", serviceType)
	return nil
}

// InjectService adds svc under serviceType and resolves a pending
// GetServiceLoadPromise for that type.
func (s *Shim) InjectService(serviceType string, svc plugin.Service) {
	s.svcMu.Lock()
	s.services[serviceType] = append(s.services[serviceType], svc)
	p, waiting := s.pending[serviceType]
	delete(s.pending, serviceType)
	s.svcMu.Unlock()

	if waiting {
		p.Resolve(svc)
	}
}

// GetService returns the first instance of serviceType, or nil.
func (s *Shim) GetService(serviceType string) plugin.Service {
	s.svcMu.Lock()
	defer s.svcMu.Unlock()

	if list := s.services[serviceType]; len(list) > 0 {
		return list[0]
	}
	return nil
}

func (s *Shim) GetServicesByType(serviceType string) []plugin.Service {
	s.svcMu.Lock()
	defer s.svcMu.Unlock()
	return slices.Clone(s.services[serviceType])
}

// GetAllServices returns the live registry map. Callers must treat it as
// read-only and must not hold it across registrations.
func (s *Shim) GetAllServices() map[string][]plugin.Service {
	s.svcMu.Lock()
	defer s.svcMu.Unlock()
	return s.services
}

func (s *Shim) HasService(serviceType string) bool {
	s.svcMu.Lock()
	defer s.svcMu.Unlock()
	return len(s.services[serviceType]) > 0
}

// GetRegisteredServiceTypes returns the sorted types with at least one
// instance.
func (s *Shim) GetRegisteredServiceTypes() []string {
	s.svcMu.Lock()
	defer s.svcMu.Unlock()

	out := make([]string, 0, len(s.services))
	for typ, list := range s.services {
		if len(list) > 0 {
			out = append(out, typ)
		}
	}
	slices.Sort(out)
	return out
}

// GetServiceLoadPromise returns a promise for the first instance of
// serviceType. It is already resolved when an instance exists; otherwise
// repeated calls share one pending promise until an instance is injected.
func (s *Shim) GetServiceLoadPromise(serviceType string) *plugin.ServicePromise {
	s.svcMu.Lock()
	defer s.svcMu.Unlock()

	if list := s.services[serviceType]; len(list) > 0 {
		return plugin.ResolvedServicePromise(serviceType, list[0])
	}
	if p, ok := s.pending[serviceType]; ok {
		return p
	}
	p := plugin.NewServicePromise(serviceType)
	s.pending[serviceType] = p
	return p
}
