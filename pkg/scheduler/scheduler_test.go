package scheduler_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/jihwankim/faultsched/pkg/action"
	"github.com/jihwankim/faultsched/pkg/component"
	"github.com/jihwankim/faultsched/pkg/event"
	"github.com/jihwankim/faultsched/pkg/logging"
	"github.com/jihwankim/faultsched/pkg/scheduler"
	"github.com/jihwankim/faultsched/pkg/sut"
	"github.com/stretchr/testify/require"
)

func TestScheduler_DispatchesFiredEventAndDrainsOnShutdown(t *testing.T) {
	clock := event.SystemClock{}
	cfg := event.NewConfig(event.Config{
		Fault:            "kill",
		ActivationModel:  event.Singular,
		ProbabilityModel: event.Deterministic,
		EffectiveStart:   -1,
		EffectiveEnd:     -1,
	})
	e := event.New("c1", []string{"t1"}, cfg, event.DefaultRand(1), clock)
	c := component.New("c1", []string{"t1"}, []*event.Event{e}, nil, clock)
	s := sut.New("demo", "demo-module", []*component.Component{c})

	done := make(chan struct{})
	mod := action.NewModule("demo-module", map[string]action.Entry{
		"kill": {Fn: func(ctx context.Context, args action.Args) error {
			close(done)
			return nil
		}},
	})
	registry := action.NewRegistry(mod)

	logger := logging.NewLogger(logging.Config{Output: io.Discard})
	trace := logging.NewTraceLogger(io.Discard, logging.TraceTerminal)

	sched := scheduler.New(s, registry, false, logger, trace, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	runDone := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(runDone)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("fault action was never dispatched")
	}

	sched.Shutdown()

	select {
	case <-runDone:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduler did not return after shutdown")
	}
}

func TestScheduler_MissingActionIsDroppedNotFatal(t *testing.T) {
	clock := event.SystemClock{}
	cfg := event.NewConfig(event.Config{
		Fault:            "does-not-exist",
		ActivationModel:  event.Singular,
		ProbabilityModel: event.Deterministic,
	})
	e := event.New("c1", []string{"t1"}, cfg, event.DefaultRand(1), clock)
	c := component.New("c1", []string{"t1"}, []*event.Event{e}, nil, clock)
	s := sut.New("demo", "demo-module", []*component.Component{c})

	mod := action.NewModule("demo-module", map[string]action.Entry{})
	registry := action.NewRegistry(mod)

	logger := logging.NewLogger(logging.Config{Output: io.Discard})
	trace := logging.NewTraceLogger(io.Discard, logging.TraceTerminal)
	sched := scheduler.New(s, registry, false, logger, trace, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 1200*time.Millisecond)
	defer cancel()

	require.NotPanics(t, func() { sched.Run(ctx) })
}
