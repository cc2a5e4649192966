// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package plugin

import (
	"context"
	"sync"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
)

// ServicePromise resolves once a service of the awaited type is available.
type ServicePromise struct {
	serviceType string
	once        sync.Once
	done        chan struct{}
	svc         Service
}

// NewServicePromise returns a pending promise for serviceType.
func NewServicePromise(serviceType string) *ServicePromise {
	return &ServicePromise{serviceType: serviceType, done: make(chan struct{})}
}

// ResolvedServicePromise returns a promise already resolved to svc.
func ResolvedServicePromise(serviceType string, svc Service) *ServicePromise {
	p := NewServicePromise(serviceType)
	p.Resolve(svc)
	return p
}

// ServiceType returns the awaited service type.
func (p *ServicePromise) ServiceType() string {
	return p.serviceType
}

// Resolve settles the promise. Only the first call has an effect; it
// reports whether this call resolved the promise.
func (p *ServicePromise) Resolve(svc Service) bool {
	resolved := false
	p.once.Do(func() {
		p.svc = svc
		close(p.done)
		resolved = true
	})
	return resolved
}

// Done is closed once the promise resolves.
func (p *ServicePromise) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the promise resolves or ctx ends.
func (p *ServicePromise) Wait(ctx context.Context) (Service, error) {
	select {
	case <-p.done:
		return p.svc, nil
	case <-ctx.Done():
		return nil, sigilerr.Wrap(ctx.Err(), sigilerr.CodeRuntimeServiceWaitTimeout,
			"waiting for service", sigilerr.FieldServiceType(p.serviceType))
	}
}
