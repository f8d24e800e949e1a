package event_test

import (
	"testing"
	"time"

	"github.com/jihwankim/faultsched/pkg/event"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced Clock for deterministic tests.
type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1_700_000_000, 0)} }

func TestIsActive_SingularFiresAtMostOnce(t *testing.T) {
	clock := newFakeClock()
	cfg := event.NewConfig(event.Config{
		ActivationModel:  event.Singular,
		ProbabilityModel: event.Deterministic,
	})
	e := event.New("c1", []string{"t1"}, cfg, event.DefaultRand(1), clock)

	lifeStart := clock.Now()
	require.True(t, e.IsActive(lifeStart, lifeStart))
	e.SetExecuted()

	clock.Advance(time.Second)
	require.False(t, e.IsActive(lifeStart, lifeStart))
}

func TestIsActive_ThresholdGatesRecurringFiring(t *testing.T) {
	clock := newFakeClock()
	cfg := event.NewConfig(event.Config{
		ActivationModel:  event.Recurring,
		ProbabilityModel: event.Deterministic,
		Threshold:        3,
		EffectiveStart:   -1,
		EffectiveEnd:     -1,
	})
	e := event.New("c1", []string{"t1"}, cfg, event.DefaultRand(1), clock)

	lifeStart := clock.Now()
	// The previous firing lies threshold seconds before tick 1, so tick 1
	// is already past the threshold gate.
	lastFire := lifeStart.Add(-3 * time.Second)

	var fired []int
	for tick := 1; tick <= 5; tick++ {
		clock.Advance(time.Second)
		if e.IsActive(lifeStart, lastFire) {
			fired = append(fired, tick)
			lastFire = clock.Now()
		}
	}

	require.Equal(t, []int{1, 4}, fired)
}

func TestIsActive_EffectiveWindowBounds(t *testing.T) {
	clock := newFakeClock()
	cfg := event.NewConfig(event.Config{
		ActivationModel:  event.Recurring,
		ProbabilityModel: event.Deterministic,
		EffectiveStart:   2,
		EffectiveEnd:     5,
	})
	e := event.New("c1", []string{"t1"}, cfg, event.DefaultRand(1), clock)

	lifeStart := clock.Now()
	var fired []int
	for tick := 1; tick <= 10; tick++ {
		clock.Advance(time.Second)
		if e.IsActive(lifeStart, lifeStart) {
			fired = append(fired, tick)
		}
	}

	require.Equal(t, []int{2, 3, 4, 5}, fired)
}

func TestIsActive_EffectiveStartDisabledIsNoOp(t *testing.T) {
	clock := newFakeClock()
	cfg := event.NewConfig(event.Config{
		ActivationModel:  event.Recurring,
		ProbabilityModel: event.Deterministic,
		EffectiveStart:   -1,
		EffectiveEnd:     -1,
	})
	e := event.New("c1", []string{"t1"}, cfg, event.DefaultRand(1), clock)

	lifeStart := clock.Now()
	clock.Advance(time.Millisecond)
	require.True(t, e.IsActive(lifeStart, lifeStart))
}

func TestIsActive_RandomFixedWindowFiresWithinRange(t *testing.T) {
	clock := newFakeClock()
	cfg := event.NewConfig(event.Config{
		ActivationModel:  event.Recurring,
		ProbabilityModel: event.Random,
		Threshold:        1,
		RandomRange:      10,
		RandomWindowType: event.Fixed,
	})
	e := event.New("c1", []string{"t1"}, cfg, event.DefaultRand(7), clock)

	lifeStart := clock.Now()
	fireTicks := 0
	windows := 0
	lastFireTick := -1
	for tick := 1; tick <= 400 && windows < 20; tick++ {
		clock.Advance(time.Second)
		if e.IsActive(lifeStart, lifeStart) {
			fireTicks++
			windows++
			if lastFireTick >= 0 {
				gap := tick - lastFireTick
				require.GreaterOrEqual(t, gap, 1)
				require.LessOrEqual(t, gap, 2*cfg.RandomRange)
			}
			lastFireTick = tick
		}
	}
	require.Equal(t, 20, fireTicks)
}

func TestSelectTarget_ReturnsSoleTarget(t *testing.T) {
	clock := newFakeClock()
	cfg := event.NewConfig(event.Config{ActivationModel: event.Recurring, ProbabilityModel: event.Deterministic})
	e := event.New("c1", []string{"only"}, cfg, event.DefaultRand(1), clock)
	require.Equal(t, "only", e.SelectTarget())
}
