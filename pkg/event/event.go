// Package event implements the activation-decision logic for a single
// configured fault event: whether, at a given tick, the event's model
// says it should fire.
package event

import (
	"math/rand"
	"time"

	"github.com/jihwankim/faultsched/pkg/stochastic"
)

// Rand is the random source an Event draws from: a uniform float for
// hazard comparisons and a uniform int for the random model's window
// offset. *math/rand.Rand satisfies this directly.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Event is one firing unit bound to a component. It owns its configured
// model parameters and the runtime state is_active needs to decide
// whether to fire on a given tick.
type Event struct {
	ComponentID string
	Targets     []string
	Config      Config

	rand  Rand
	clock Clock

	executed bool

	// Random-model precomputed state.
	randomTimeSet bool
	randomTime    time.Time
	windowEnd     time.Time
}

// New constructs an Event bound to a component's target list, using
// clock.Now() to seed the random model's initial window end.
func New(componentID string, targets []string, cfg Config, rnd Rand, clock Clock) *Event {
	return &Event{
		ComponentID: componentID,
		Targets:     targets,
		Config:      cfg,
		rand:        rnd,
		clock:       clock,
		windowEnd:   clock.Now(),
	}
}

// SelectTarget returns one target chosen uniformly at random from the
// event's target list.
func (e *Event) SelectTarget() string {
	if len(e.Targets) == 1 {
		return e.Targets[0]
	}
	return e.Targets[e.rand.Intn(len(e.Targets))]
}

// SetExecuted marks the event as having fired at least once. Called by
// the owning component after a firing is collected during checkpoint.
func (e *Event) SetExecuted() { e.executed = true }

// IsStateTransition reports whether a firing of this event should
// toggle the owning component's Operable/Nonoperable state.
func (e *Event) IsStateTransition() bool { return e.Config.StateTransition }

// IsSingular reports whether this event's activation model permits at
// most one firing over its lifetime.
func (e *Event) IsSingular() bool { return e.Config.ActivationModel == Singular }

// IsActive determines whether this event fires on the current tick.
//
// lifeStart is the owning component's initialization time; lastFire is
// the wall time of the most recent firing of any of the component's
// events, in either state bucket (or lifeStart if none has fired yet).
func (e *Event) IsActive(lifeStart, lastFire time.Time) bool {
	if e.executed && e.IsSingular() {
		return false
	}

	now := e.clock.Now()
	elapsedLife := now.Sub(lifeStart).Seconds()
	elapsedSinceFire := now.Sub(lastFire).Seconds()

	effective := true
	if e.Config.EffectiveStart > -1 {
		inWindow := elapsedLife >= float64(e.Config.EffectiveStart) &&
			(e.Config.EffectiveEnd == -1 || elapsedLife <= float64(e.Config.EffectiveEnd))
		if !inWindow {
			effective = false
		}
	}

	if !effective || elapsedSinceFire < float64(e.Config.Threshold) {
		return false
	}

	switch e.Config.ProbabilityModel {
	case Deterministic:
		return true
	case Exponential:
		return stochastic.ExponentialHazard(e.rand, float64(e.Config.MTTF))
	case Normal:
		return stochastic.NormalHazard(e.rand, float64(e.Config.MTTF), float64(e.Config.StandardDeviation), elapsedSinceFire)
	case Weibull:
		return stochastic.WeibullHazard(e.rand, e.Config.Shape, float64(e.Config.MTTF), elapsedSinceFire)
	case Random:
		return e.isActiveRandom(now)
	}

	return false
}

// isActiveRandom implements the two-phase precomputed-firing-time
// scheme: arm a fire time somewhere in [threshold, random_range] seconds
// past the current window, then fire once wall time reaches it.
func (e *Event) isActiveRandom(now time.Time) bool {
	if !e.randomTimeSet && now.After(e.windowEnd) {
		span := e.Config.RandomRange - e.Config.Threshold + 1
		if span < 1 {
			span = 1
		}
		offsetSeconds := e.Config.Threshold + e.rand.Intn(span)
		// Not clamped to now: windowEnd can lie well in the past, so the
		// armed fire time can already be past when it is set.
		e.randomTime = e.windowEnd.Add(time.Duration(offsetSeconds) * time.Second)

		if e.Config.RandomWindowType == Fixed {
			// Preserves the original's window-end drift: a fresh clock
			// read plus random_range, rather than windowEnd+random_range.
			// Each window's true length therefore grows by however long
			// the previous window's evaluation took to walk past its
			// close, rather than staying fixed at random_range seconds.
			e.windowEnd = now.Add(time.Duration(e.Config.RandomRange) * time.Second)
		} else {
			e.windowEnd = e.randomTime
		}
		e.randomTimeSet = true
		return false
	}

	if e.randomTimeSet && !now.Before(e.randomTime) {
		e.randomTimeSet = false
		return true
	}

	return false
}

// DefaultRand returns a *math/rand.Rand seeded from the given int64,
// suitable as the Rand an Event, SystemComponent, or SystemUnderTest
// draws from. Production code seeds from time.Now().UnixNano(); tests
// seed a fixed value for determinism.
func DefaultRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
