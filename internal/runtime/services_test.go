// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package runtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	name    string
	stopped bool
	stopErr error
}

func (s *fakeService) CapabilityDescription() string { return "fake " + s.name }

func (s *fakeService) Stop(context.Context) error {
	s.stopped = true
	return s.stopErr
}

type fakeClass struct {
	serviceType string
	svc         *fakeService
	startErr    error
	sendHandled plugin.Service
	tornDown    bool
}

func (c *fakeClass) ServiceType() string { return c.serviceType }

func (c *fakeClass) Start(context.Context, plugin.Runtime) (plugin.Service, error) {
	if c.startErr != nil {
		return nil, c.startErr
	}
	return c.svc, nil
}

func (c *fakeClass) RegisterSendHandlers(_ plugin.Runtime, svc plugin.Service) { c.sendHandled = svc }

func (c *fakeClass) StopRuntime(context.Context, plugin.Runtime) error {
	c.tornDown = true
	return nil
}

func TestServiceLoadPromise_SharedWhilePending(t *testing.T) {
	rt := newTestShim(t)

	p1 := rt.GetServiceLoadPromise("search")
	p2 := rt.GetServiceLoadPromise("search")
	assert.Same(t, p1, p2)

	select {
	case <-p1.Done():
		t.Fatal("promise resolved before any service was injected")
	default:
	}

	svc := &fakeService{name: "search"}
	rt.InjectService("search", svc)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got1, err := p1.Wait(ctx)
	require.NoError(t, err)
	got2, err := p2.Wait(ctx)
	require.NoError(t, err)
	assert.Same(t, svc, got1)
	assert.Same(t, svc, got2)

	// Once an instance exists, new promises resolve immediately.
	p3 := rt.GetServiceLoadPromise("search")
	assert.NotSame(t, p1, p3)
	got3, err := p3.Wait(ctx)
	require.NoError(t, err)
	assert.Same(t, svc, got3)
}

func TestServiceLoadPromise_WaitHonorsCancellation(t *testing.T) {
	rt := newTestShim(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rt.GetServiceLoadPromise("never").Wait(ctx)
	require.Error(t, err)
	assert.True(t, sigilerr.HasCode(err, sigilerr.CodeRuntimeServiceWaitTimeout))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegisterService(t *testing.T) {
	ctx := context.Background()
	rt := newTestShim(t)

	class := &fakeClass{serviceType: "scheduler", svc: &fakeService{name: "a"}}
	require.NoError(t, rt.RegisterService(ctx, class))
	second := &fakeClass{serviceType: "scheduler", svc: &fakeService{name: "b"}}
	require.NoError(t, rt.RegisterService(ctx, second))

	assert.True(t, rt.HasService("scheduler"))
	assert.Same(t, class.svc, rt.GetService("scheduler"))
	assert.Len(t, rt.GetServicesByType("scheduler"), 2)
	assert.Equal(t, []string{"scheduler"}, rt.GetRegisteredServiceTypes())
	assert.Len(t, rt.GetAllServices()["scheduler"], 2)
	assert.Same(t, class.svc, class.sendHandled)

	assert.Nil(t, rt.GetService("missing"))
	assert.Empty(t, rt.GetServicesByType("missing"))

	require.NoError(t, rt.Stop(ctx))
	assert.True(t, class.svc.stopped)
	assert.True(t, second.svc.stopped)
	assert.True(t, class.tornDown)
	assert.False(t, rt.HasService("scheduler"))
}

func TestRegisterService_StartFailure(t *testing.T) {
	rt := newTestShim(t)

	err := rt.RegisterService(context.Background(), &fakeClass{serviceType: "broken", startErr: errors.New("no socket")})
	require.Error(t, err)
	assert.True(t, sigilerr.HasCode(err, sigilerr.CodeRuntimeServiceStartFailure))
	assert.False(t, rt.HasService("broken"))
}

func TestStop_JoinsServiceErrors(t *testing.T) {
	ctx := context.Background()
	rt := newTestShim(t)

	require.NoError(t, rt.RegisterService(ctx, &fakeClass{serviceType: "x", svc: &fakeService{stopErr: errors.New("stuck")}}))
	err := rt.Stop(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stuck")
}
