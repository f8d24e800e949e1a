// Package scheduler drives one SystemUnderTest: a fixed 1-second tick
// loop that checkpoints the SUT, resolves fired events to fault
// actions, and dispatches them onto independent worker goroutines.
package scheduler

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/jihwankim/faultsched/pkg/action"
	"github.com/jihwankim/faultsched/pkg/logging"
	"github.com/jihwankim/faultsched/pkg/metrics"
	"github.com/jihwankim/faultsched/pkg/sut"
)

// TickInterval is the fixed period between checkpoints.
const TickInterval = 1 * time.Second

// Scheduler drives checkpoints and fault dispatch for a single SUT.
type Scheduler struct {
	sut      *sut.SystemUnderTest
	registry *action.Registry
	dryRun   bool
	rand     *rand.Rand

	logger *logging.Logger
	trace  *logging.TraceLogger
	metric *metrics.Registry

	tasks    taskset
	stopping chan struct{}
	stopOnce bool

	statsMu sync.Mutex
	stats   Stats
}

// Stats is a point-in-time snapshot of one scheduler's lifetime
// activity, used to build a reporting.RunSummary once the scheduler
// returns from Run.
type Stats struct {
	Ticks             int64
	EventsFired       int64
	ActionsDispatched int64
	ActionsMissing    int64
	ActionsFailed     int64
	FaultCounts       map[string]int64
}

// Stats returns a snapshot of the scheduler's activity so far. Safe to
// call concurrently with Run.
func (s *Scheduler) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	counts := make(map[string]int64, len(s.stats.FaultCounts))
	for k, v := range s.stats.FaultCounts {
		counts[k] = v
	}
	snap := s.stats
	snap.FaultCounts = counts
	return snap
}

// New constructs a Scheduler for sut, resolving fault names against
// registry. dryRun, if true, logs intended dispatches without invoking
// them.
func New(s *sut.SystemUnderTest, registry *action.Registry, dryRun bool, logger *logging.Logger, trace *logging.TraceLogger, metricRegistry *metrics.Registry) *Scheduler {
	return &Scheduler{
		sut:      s,
		registry: registry,
		dryRun:   dryRun,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logger,
		trace:    trace,
		metric:   metricRegistry,
		stopping: make(chan struct{}),
		stats:    Stats{FaultCounts: make(map[string]int64)},
	}
}

// Run executes the tick loop until Shutdown is called or ctx is
// cancelled. It returns only after every previously dispatched worker
// has completed.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler running", "system", s.sut.SystemName)

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopping:
			s.logger.Info("scheduler stopping, draining workers", "system", s.sut.SystemName)
			s.tasks.Wait()
			return
		case <-ctx.Done():
			s.logger.Info("scheduler context cancelled, draining workers", "system", s.sut.SystemName)
			s.tasks.Wait()
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Shutdown requests a graceful stop: no further workers are spawned
// after this call, but Run does not return until in-flight workers have
// drained. Idempotent.
func (s *Scheduler) Shutdown() {
	if s.stopOnce {
		return
	}
	s.stopOnce = true
	close(s.stopping)
}

func (s *Scheduler) tick(ctx context.Context) {
	s.statsMu.Lock()
	s.stats.Ticks++
	s.statsMu.Unlock()

	if s.metric != nil {
		s.metric.TicksTotal.WithLabelValues(s.sut.SystemName).Inc()
	}

	fired, evaluated := s.sut.Checkpoint()
	s.statsMu.Lock()
	s.stats.EventsFired += int64(len(fired))
	s.statsMu.Unlock()
	if s.metric != nil {
		s.metric.EventsEvaluatedTotal.WithLabelValues(s.sut.SystemName).Add(float64(evaluated))
		s.metric.EventsFiredTotal.WithLabelValues(s.sut.SystemName).Add(float64(len(fired)))
	}

	for _, e := range fired {
		fn, err := s.registry.Resolve(s.sut.FaultModule, e.Config.Fault)
		if err != nil {
			s.logger.Info("error: fault not resolved", "module", s.sut.FaultModule, "fault", e.Config.Fault, "error", err.Error())
			s.statsMu.Lock()
			s.stats.ActionsMissing++
			s.statsMu.Unlock()
			if s.metric != nil {
				s.metric.ActionsMissingTotal.WithLabelValues(s.sut.SystemName, e.Config.Fault).Inc()
			}
			continue
		}

		target := e.SelectTarget()
		taskName := s.sut.FaultModule + "-" + e.Config.Fault

		if s.dryRun {
			s.trace.Trace(taskName, "dry run: "+e.Config.Fault+" (target:"+target+")")
			continue
		}

		args := action.Args{Target: target, UDF1: e.Config.UDF1, UDF2: e.Config.UDF2, UDF3: e.Config.UDF3, UDD: e.Config.UDD}
		componentID := e.ComponentID
		faultName := e.Config.Fault

		s.statsMu.Lock()
		s.stats.ActionsDispatched++
		s.stats.FaultCounts[faultName]++
		s.statsMu.Unlock()

		if s.metric != nil {
			s.metric.ActionsDispatched.WithLabelValues(s.sut.SystemName, e.Config.Fault).Inc()
			s.metric.WorkersInFlight.WithLabelValues(s.sut.SystemName).Inc()
		}

		s.tasks.Go(func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("fault action panicked", "fault", e.Config.Fault, "component", componentID, "panic", r)
					s.statsMu.Lock()
					s.stats.ActionsFailed++
					s.statsMu.Unlock()
				}
				if s.metric != nil {
					s.metric.WorkersInFlight.WithLabelValues(s.sut.SystemName).Dec()
				}
			}()

			s.trace.Trace(taskName, "starting "+faultName+" (id:"+componentID+") fault simulation")
			if err := fn(ctx, args); err != nil {
				s.logger.Error("fault action returned error", "fault", e.Config.Fault, "component", componentID, "error", err.Error())
				s.statsMu.Lock()
				s.stats.ActionsFailed++
				s.statsMu.Unlock()
			}
			s.trace.Trace(taskName, "completed "+faultName+" (id:"+componentID+") fault simulation")
		})
	}
}
