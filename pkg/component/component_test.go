package component_test

import (
	"testing"
	"time"

	"github.com/jihwankim/faultsched/pkg/component"
	"github.com/jihwankim/faultsched/pkg/event"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time         { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func TestCheckpoint_DeterministicSingularTransitionsState(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}

	operableCfg := event.NewConfig(event.Config{
		ActivationModel:  event.Singular,
		ProbabilityModel: event.Deterministic,
		StateTransition:  true,
	})
	operableEvent := event.New("c1", []string{"t1"}, operableCfg, event.DefaultRand(1), clock)

	c := component.New("c1", []string{"t1"}, []*event.Event{operableEvent}, nil, clock)
	require.Equal(t, component.Operable, c.State())

	fired, evaluated := c.Checkpoint()
	require.Len(t, fired, 1)
	require.Equal(t, 1, evaluated)
	require.Equal(t, component.Nonoperable, c.State())

	clock.Advance(time.Second)
	// Singular event already fired; no nonoperable events configured.
	fired, evaluated = c.Checkpoint()
	require.Empty(t, fired)
	require.Zero(t, evaluated)
}

func TestCheckpoint_EvaluatesAllEventsAgainstSamePreTickLastFire(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}

	cfg := event.NewConfig(event.Config{
		ActivationModel:  event.Recurring,
		ProbabilityModel: event.Deterministic,
		EffectiveStart:   -1,
		EffectiveEnd:     -1,
	})
	e1 := event.New("c1", []string{"t1"}, cfg, event.DefaultRand(1), clock)
	e2 := event.New("c1", []string{"t1"}, cfg, event.DefaultRand(2), clock)

	c := component.New("c1", []string{"t1"}, []*event.Event{e1, e2}, nil, clock)
	clock.Advance(time.Second)

	fired, evaluated := c.Checkpoint()
	require.Len(t, fired, 2)
	require.Equal(t, 2, evaluated)
}
