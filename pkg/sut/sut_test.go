package sut_test

import (
	"testing"
	"time"

	"github.com/jihwankim/faultsched/pkg/component"
	"github.com/jihwankim/faultsched/pkg/event"
	"github.com/jihwankim/faultsched/pkg/sut"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func TestCheckpoint_ConcatenatesFiredEventsInComponentOrder(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cfg := event.NewConfig(event.Config{ActivationModel: event.Recurring, ProbabilityModel: event.Deterministic})

	e1 := event.New("c1", []string{"t1"}, cfg, event.DefaultRand(1), clock)
	e2 := event.New("c2", []string{"t2"}, cfg, event.DefaultRand(2), clock)

	c1 := component.New("c1", []string{"t1"}, []*event.Event{e1}, nil, clock)
	c2 := component.New("c2", []string{"t2"}, []*event.Event{e2}, nil, clock)

	s := sut.New("demo-system", "demo-faults", []*component.Component{c1, c2})
	fired, evaluated := s.Checkpoint()

	require.Len(t, fired, 2)
	require.Equal(t, 2, evaluated)
	require.Equal(t, "c1", fired[0].ComponentID)
	require.Equal(t, "c2", fired[1].ComponentID)
}
