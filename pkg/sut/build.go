package sut

import (
	"math/rand"

	"github.com/jihwankim/faultsched/pkg/component"
	"github.com/jihwankim/faultsched/pkg/config"
	"github.com/jihwankim/faultsched/pkg/event"
)

// Build constructs a SystemUnderTest from a validated configuration
// Document, expanding each event's instances count into that many
// independent event.Event copies (each drawing from its own Rand,
// seeded distinctly so instances do not lock-step), and capturing
// clock.Now() as every component's life-start and last-event time.
func Build(doc *config.Document, clock event.Clock, seed int64) *SystemUnderTest {
	src := rand.New(rand.NewSource(seed))

	components := make([]*component.Component, 0, len(doc.Components))
	for _, cd := range doc.Components {
		operable := buildEvents(cd.ID, cd.Targets, cd.OperableEvents, clock, src)
		nonoperable := buildEvents(cd.ID, cd.Targets, cd.NonoperableEvents, clock, src)
		components = append(components, component.New(cd.ID, cd.Targets, operable, nonoperable, clock))
	}

	return New(doc.SystemName, doc.FaultModule, components)
}

func buildEvents(componentID string, targets []string, docs []config.EventDoc, clock event.Clock, src *rand.Rand) []*event.Event {
	var out []*event.Event
	for _, ed := range docs {
		cfg := event.NewConfig(event.Config{
			ID:                ed.ID,
			Fault:             ed.Fault,
			StateTransition:   ed.StateTransition,
			ActivationModel:   event.ActivationModel(ed.ActivationModel),
			ProbabilityModel:  event.ProbabilityModel(ed.ProbabilityModel),
			MTTF:              ed.MTTF,
			Threshold:         ed.Threshold,
			EffectiveStart:    ed.EffectiveStart,
			EffectiveEnd:      ed.EffectiveEnd,
			StandardDeviation: ed.StandardDeviation,
			Shape:             ed.Shape,
			RandomRange:       ed.RandomRange,
			RandomWindowType:  event.RandomWindowType(ed.RandomWindowType),
			UDF1:              ed.UDF1,
			UDF2:              ed.UDF2,
			UDF3:              ed.UDF3,
			UDD:               ed.UDD,
		})

		for i := 0; i < ed.Instances; i++ {
			// Each instance draws from an independently seeded source so
			// that, e.g., several identical "random" events on one
			// component don't all arm the same fire time.
			instanceSeed := src.Int63()
			out = append(out, event.New(componentID, targets, cfg, event.DefaultRand(instanceSeed), clock))
		}
	}
	return out
}
