// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package bootstrap

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/spf13/cast"

	"github.com/sigil-dev/bridge/pkg/plugin"
	"github.com/sigil-dev/bridge/pkg/types"
)

const (
	// SchedulerServiceType is the service type of the task scheduler.
	SchedulerServiceType = "scheduler"

	// TagQueue marks tasks the scheduler owns. Tasks also tagged TagRepeat
	// are rescheduled instead of deleted once they fire.
	TagQueue  = "queue"
	TagRepeat = "repeat"

	// EventTaskDue is emitted with a *types.Task for every due task.
	EventTaskDue = "TASK_DUE"

	// SettingSchedulerInterval is the polling interval setting. A zero or
	// negative interval disables background polling.
	SettingSchedulerInterval = "SCHEDULER_INTERVAL"

	DefaultSchedulerInterval = time.Minute
)

// Task metadata keys.
const (
	MetaDueAt          = "dueAt"
	MetaUpdateInterval = "updateInterval"
)

// SchedulerClass starts Scheduler services.
type SchedulerClass struct{}

var (
	_ plugin.ServiceClass = SchedulerClass{}
	_ plugin.Service      = (*Scheduler)(nil)
)

func (SchedulerClass) ServiceType() string { return SchedulerServiceType }

func (SchedulerClass) Start(ctx context.Context, rt plugin.Runtime) (plugin.Service, error) {
	s := &Scheduler{rt: rt, interval: schedulerInterval(rt)}
	if s.interval > 0 {
		loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.cancel = cancel
		s.done = make(chan struct{})
		go s.loop(loopCtx)
	}
	return s, nil
}

func schedulerInterval(rt plugin.Runtime) time.Duration {
	raw := rt.GetSetting(SettingSchedulerInterval)
	if raw == nil {
		return DefaultSchedulerInterval
	}
	d, err := cast.ToDurationE(raw)
	if err != nil {
		slog.Warn("bootstrap: invalid scheduler interval, using default",
			"value", raw, "default", DefaultSchedulerInterval, "error", err)
		return DefaultSchedulerInterval
	}
	return d
}

// Scheduler fires queued tasks once their due time passes.
type Scheduler struct {
	rt       plugin.Runtime
	interval time.Duration

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

func (s *Scheduler) CapabilityDescription() string {
	return "Runs queued tasks when they fall due"
}

// Interval returns the polling interval; zero means no background polling.
func (s *Scheduler) Interval() time.Duration {
	if s.interval < 0 {
		return 0
	}
	return s.interval
}

// Stop ends background polling and waits for an in-flight tick.
func (s *Scheduler) Stop(_ context.Context) error {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
			<-s.done
		}
	})
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := s.Tick(ctx, now); err != nil {
				slog.Warn("bootstrap: scheduler tick failed", "error", err)
			}
		}
	}
}

// Due returns the queued tasks due at now, earliest first. A task with no
// due time is due immediately.
func (s *Scheduler) Due(ctx context.Context, now time.Time) ([]*types.Task, error) {
	tasks, err := s.rt.GetTasks(ctx, types.TaskQuery{Tags: []string{TagQueue}})
	if err != nil {
		return nil, err
	}

	due := make([]*types.Task, 0, len(tasks))
	for _, t := range tasks {
		if !dueAt(t).After(now) {
			due = append(due, t)
		}
	}
	slices.SortStableFunc(due, func(a, b *types.Task) int {
		return dueAt(a).Compare(dueAt(b))
	})
	return due, nil
}

// Tick emits EventTaskDue for every task due at now, then deletes one-shot
// tasks and reschedules repeating ones. It returns the number of tasks
// fired.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) (int, error) {
	due, err := s.Due(ctx, now)
	if err != nil {
		return 0, err
	}

	fired := 0
	for _, t := range due {
		if err := s.rt.EmitEvent(ctx, t, EventTaskDue); err != nil {
			slog.Warn("bootstrap: task handler failed", "task", t.ID, "name", t.Name, "error", err)
		}
		fired++

		if !slices.Contains(t.Tags, TagRepeat) {
			if err := s.rt.DeleteTask(ctx, t.ID); err != nil {
				return fired, err
			}
			continue
		}
		every := cast.ToDuration(t.Metadata[MetaUpdateInterval])
		if every <= 0 {
			every = s.Interval()
		}
		if _, err := s.rt.UpdateTask(ctx, t.ID, types.TaskUpdate{
			Metadata: map[string]any{MetaDueAt: now.Add(every)},
		}); err != nil {
			return fired, err
		}
	}
	return fired, nil
}

func dueAt(t *types.Task) time.Time {
	v, ok := t.Metadata[MetaDueAt]
	if !ok {
		return time.Time{}
	}
	at, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}
	}
	return at
}
