// Package sut aggregates the components defined in one configuration
// document into a single System Under Test, and fans out its
// per-tick checkpoint across them.
package sut

import (
	"github.com/jihwankim/faultsched/pkg/component"
	"github.com/jihwankim/faultsched/pkg/event"
)

// SystemUnderTest is an abstraction of one real target system: the
// aggregate of its active components, mapped to a single fault-action
// module by name.
type SystemUnderTest struct {
	SystemName     string
	FaultModule    string
	components     []*component.Component
}

// New constructs a SystemUnderTest from already-built components,
// preserving configuration order.
func New(systemName, faultModule string, components []*component.Component) *SystemUnderTest {
	return &SystemUnderTest{
		SystemName:  systemName,
		FaultModule: faultModule,
		components:  components,
	}
}

// Checkpoint calls Checkpoint on every component in order, concatenates
// the fired events into a single list, and sums the number of events
// evaluated across all components.
func (s *SystemUnderTest) Checkpoint() ([]*event.Event, int) {
	var fired []*event.Event
	var evaluated int
	for _, c := range s.components {
		es, n := c.Checkpoint()
		evaluated += n
		if len(es) > 0 {
			fired = append(fired, es...)
		}
	}
	return fired, evaluated
}

// Components returns the SUT's active components in configuration
// order. The scheduler does not call it.
func (s *SystemUnderTest) Components() []*component.Component {
	return s.components
}
