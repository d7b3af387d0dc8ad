// Package scheduler drives the wall-clock Scheduler of spec.md §4.I: a
// single-minute ticker that fires at most one configured trigger per
// minute, skips a trigger if a run is already in progress, and restarts
// cleanly when the trigger list is reloaded or a manual run is requested.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/keirin-ingest/internal/config"
)

// RunFunc executes the pipeline for the given steps. It is supplied by
// cmd/keirin-ingest, which owns the Pipeline Coordinator.
type RunFunc func(ctx context.Context, steps []int) error

// compiledTrigger pairs a Trigger with its parsed HH:MM cron.Schedule so
// the tick loop never reparses on every minute.
type compiledTrigger struct {
	trigger  config.Trigger
	schedule cron.Schedule
}

// Scheduler fires RunFunc when a configured Trigger's HH:MM matches the
// current local minute.
type Scheduler struct {
	run RunFunc

	mu        sync.Mutex
	triggers  []compiledTrigger
	running   bool // true while a run is in progress (overlap guard)
	lastFired string

	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a Scheduler with an empty trigger list; call Reload before
// Start to load the configured schedule.
func New(run RunFunc) *Scheduler {
	return &Scheduler{run: run}
}

// Reload replaces the trigger list. If the Scheduler is running, it is
// stopped and restarted so the new list takes effect at the next tick
// (spec.md §4.I).
func (s *Scheduler) Reload(ctx context.Context, triggers []config.Trigger) error {
	compiled, err := compileTriggers(triggers)
	if err != nil {
		return fmt.Errorf("scheduler: reload: %w", err)
	}

	s.mu.Lock()
	wasRunning := s.cancel != nil
	s.triggers = compiled
	s.mu.Unlock()

	if wasRunning {
		s.Stop()
		s.Start(ctx)
	}
	return nil
}

func compileTriggers(triggers []config.Trigger) ([]compiledTrigger, error) {
	out := make([]compiledTrigger, 0, len(triggers))
	for _, t := range triggers {
		var hh, mm int
		if _, err := fmt.Sscanf(t.Time, "%d:%d", &hh, &mm); err != nil {
			return nil, fmt.Errorf("trigger time %q: %w", t.Time, err)
		}
		spec := fmt.Sprintf("%d %d * * *", mm, hh)
		sched, err := cron.ParseStandard(spec)
		if err != nil {
			return nil, fmt.Errorf("trigger time %q: %w", t.Time, err)
		}
		out = append(out, compiledTrigger{trigger: t, schedule: sched})
	}
	return out, nil
}

// Start begins the 60s tick loop in a background goroutine. Calling Start
// while already running is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(loopCtx)
}

// Stop halts the tick loop and waits for it to exit. It does not wait for
// a triggered run still in progress; that run was started with the loop's
// context, which Stop cancels.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tick(ctx, now)
		}
	}
}

// tick checks the current minute against every enabled trigger and fires
// the first match. At most one trigger fires per minute (spec.md §4.I);
// if several match the same minute, the earliest in the list wins and the
// rest are skipped for this tick, same as a missed-minute skip.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	minuteKey := now.Format("2006-01-02T15:04")

	s.mu.Lock()
	if s.lastFired == minuteKey {
		s.mu.Unlock()
		return
	}
	if s.running {
		s.mu.Unlock()
		log.Warn().Time("minute", now).Msg("scheduler: tick skipped, run already in progress")
		return
	}
	triggers := s.triggers
	s.mu.Unlock()

	before := now.Truncate(time.Minute).Add(-time.Second)
	for _, ct := range triggers {
		if !ct.trigger.Enabled {
			continue
		}
		if !ct.schedule.Next(before).Truncate(time.Minute).Equal(now.Truncate(time.Minute)) {
			continue
		}

		s.mu.Lock()
		s.lastFired = minuteKey
		s.running = true
		s.mu.Unlock()

		go s.fire(ctx, ct.trigger)
		return
	}
}

func (s *Scheduler) fire(ctx context.Context, t config.Trigger) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	log.Info().Str("time", t.Time).Ints("steps", t.Steps).Msg("scheduler: trigger firing")
	if err := s.run(ctx, t.Steps); err != nil {
		log.Error().Err(err).Str("time", t.Time).Msg("scheduler: triggered run failed")
	}
}

// RunNow executes steps immediately, pausing the tick loop for the
// duration of the run and resuming it afterward (spec.md §4.I: "manual
// runs stop the scheduler for their duration").
func (s *Scheduler) RunNow(ctx context.Context, steps []int) error {
	s.mu.Lock()
	wasRunning := s.cancel != nil
	s.mu.Unlock()

	if wasRunning {
		s.Stop()
		defer s.Start(ctx)
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	return s.run(ctx, steps)
}
