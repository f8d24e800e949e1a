package sut_test

import (
	"strings"
	"testing"

	"github.com/jihwankim/faultsched/pkg/config"
	"github.com/jihwankim/faultsched/pkg/event"
	"github.com/jihwankim/faultsched/pkg/sut"
	"github.com/stretchr/testify/require"
)

const doc = `{
  "system_name": "demo",
  "fault_module": "demo_faults",
  "components": [
    {
      "id": "c1",
      "active": true,
      "targets": ["t1"],
      "operable_events": [
        {"id": "e1", "fault": "kill", "a_model": "recurring", "p_model": "deterministic", "instances": 3}
      ]
    }
  ]
}`

func TestBuild_ExpandsInstancesIntoIndependentEvents(t *testing.T) {
	parsed, err := config.Load("-", strings.NewReader(doc))
	require.NoError(t, err)

	s := sut.Build(parsed, event.SystemClock{}, 42)
	require.Equal(t, "demo", s.SystemName)
	require.Len(t, s.Components(), 1)

	fired, evaluated := s.Checkpoint()
	require.Len(t, fired, 3)
	require.Equal(t, 3, evaluated)
}
