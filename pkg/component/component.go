// Package component implements the SystemComponent two-state machine:
// a named target owning two event populations, one per state.
package component

import (
	"time"

	"github.com/jihwankim/faultsched/pkg/event"
)

// State is one of the two possible SystemComponent states. A component
// starts Operable and only ever transitions on a fired state-transition
// event.
type State bool

const (
	Operable    State = true
	Nonoperable State = false
)

// Component is a simple two-state machine owning one event list per
// state. Its target attribute is how fault actions address it.
type Component struct {
	ID      string
	Targets []string

	clock event.Clock

	state         State
	events        map[State][]*event.Event
	lifeStartTime time.Time
	lastEventTime time.Time
}

// New constructs a Component in the Operable state, capturing life-start
// and last-event time as clock.Now().
func New(id string, targets []string, operableEvents, nonoperableEvents []*event.Event, clock event.Clock) *Component {
	now := clock.Now()
	return &Component{
		ID:      id,
		Targets: targets,
		clock:   clock,
		state:   Operable,
		events: map[State][]*event.Event{
			Operable:    operableEvents,
			Nonoperable: nonoperableEvents,
		},
		lifeStartTime: now,
		lastEventTime: now,
	}
}

// State returns the component's current state.
func (c *Component) State() State { return c.state }

// Checkpoint evaluates every event in the component's current-state
// bucket against the same pre-update last-event time, fires those whose
// IsActive returns true (in bucket order), and returns them along with
// the number of events evaluated (len(bucket)).
//
// A state-transition event fires against the state it was evaluated in;
// the resulting toggle only affects the *next* checkpoint's bucket
// selection, so other events from the old state may still fire in this
// same tick.
func (c *Component) Checkpoint() ([]*event.Event, int) {
	bucket := c.events[c.state]
	lastFire := c.lastEventTime

	var fired []*event.Event
	for _, e := range bucket {
		if e.IsActive(c.lifeStartTime, lastFire) {
			fired = append(fired, e)
		}
	}

	for _, e := range fired {
		e.SetExecuted()
		c.lastEventTime = c.clock.Now()
		if e.IsStateTransition() {
			c.state = !c.state
		}
	}

	return fired, len(bucket)
}
